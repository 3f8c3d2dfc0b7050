package provision

import (
	"context"
	"fmt"
	"sync"

	"github.com/shaun/scaffold/server/internal/fault"
	"github.com/shaun/scaffold/server/internal/github"
	"github.com/shaun/scaffold/server/internal/tree"
)

type fakeCommit struct {
	tree    string
	parents []string
	message string
}

type fakeRepo struct {
	repo    github.Repository
	refs    map[string]string
	trees   map[string][]tree.Item
	bases   map[string]string
	commits map[string]fakeCommit
}

// fakeAPI is an in-memory GitHub that enforces name uniqueness.
type fakeAPI struct {
	mu     sync.Mutex
	repos  map[string]*fakeRepo
	calls  []string
	seq    int
	failOn map[string]error
	// seed gives newly created repositories an existing commit on main.
	seed bool
	// hook runs after each successful call.
	hook func(op string)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{repos: make(map[string]*fakeRepo), failOn: make(map[string]error)}
}

func (f *fakeAPI) record(op string) error {
	f.calls = append(f.calls, op)
	return f.failOn[op]
}

func (f *fakeAPI) after(op string) {
	if f.hook != nil {
		f.hook(op)
	}
}

func (f *fakeAPI) nextSHA(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *fakeAPI) callsSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) lookup(owner, name string) (*fakeRepo, error) {
	r, ok := f.repos[name]
	if !ok || r.repo.Owner != owner {
		return nil, fault.New(fault.NotFound, "Not Found")
	}
	return r, nil
}

func (f *fakeAPI) CreateRepository(_ context.Context, req github.CreateRequest) (*github.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create repository"); err != nil {
		return nil, err
	}
	if _, ok := f.repos[req.Name]; ok {
		return nil, &fault.Error{Kind: fault.Conflict, Status: 422, Message: "name already exists on this account"}
	}
	r := &fakeRepo{
		repo: github.Repository{
			ID:            int64(len(f.repos) + 1),
			Name:          req.Name,
			FullName:      "octo/" + req.Name,
			Owner:         "octo",
			HTMLURL:       "https://github.com/octo/" + req.Name,
			DefaultBranch: "main",
			Private:       req.Private,
			Description:   req.Description,
		},
		refs:    make(map[string]string),
		trees:   make(map[string][]tree.Item),
		bases:   make(map[string]string),
		commits: make(map[string]fakeCommit),
	}
	if f.seed {
		sha := f.nextSHA("seed")
		r.commits[sha] = fakeCommit{message: "seed"}
		r.refs["main"] = sha
	}
	f.repos[req.Name] = r
	out := r.repo
	f.after("create repository")
	return &out, nil
}

func (f *fakeAPI) GetRepository(_ context.Context, owner, name string) (*github.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get repository"); err != nil {
		return nil, err
	}
	r, err := f.lookup(owner, name)
	if err != nil {
		return nil, err
	}
	out := r.repo
	f.after("get repository")
	return &out, nil
}

func (f *fakeAPI) GetBranchRef(_ context.Context, owner, name, branch string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("get branch ref"); err != nil {
		return "", false, err
	}
	r, err := f.lookup(owner, name)
	if err != nil {
		return "", false, err
	}
	sha, ok := r.refs[branch]
	f.after("get branch ref")
	return sha, ok, nil
}

func (f *fakeAPI) CreateTree(_ context.Context, owner, name string, items []tree.Item, baseSHA string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create tree"); err != nil {
		return "", err
	}
	r, err := f.lookup(owner, name)
	if err != nil {
		return "", err
	}
	sha := f.nextSHA("tree")
	r.trees[sha] = items
	r.bases[sha] = baseSHA
	f.after("create tree")
	return sha, nil
}

func (f *fakeAPI) CreateCommit(_ context.Context, owner, name, message, treeSHA, parentSHA string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create commit"); err != nil {
		return "", err
	}
	r, err := f.lookup(owner, name)
	if err != nil {
		return "", err
	}
	c := fakeCommit{tree: treeSHA, message: message}
	if parentSHA != "" {
		c.parents = []string{parentSHA}
	}
	sha := f.nextSHA("commit")
	r.commits[sha] = c
	f.after("create commit")
	return sha, nil
}

func (f *fakeAPI) UpdateRef(_ context.Context, owner, name, branch, commitSHA string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update ref"); err != nil {
		return err
	}
	r, err := f.lookup(owner, name)
	if err != nil {
		return err
	}
	if _, ok := r.refs[branch]; !ok {
		return fault.New(fault.Validation, "Reference does not exist")
	}
	r.refs[branch] = commitSHA
	f.after("update ref")
	return nil
}

func (f *fakeAPI) CreateRef(_ context.Context, owner, name, branch, commitSHA string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create ref"); err != nil {
		return err
	}
	r, err := f.lookup(owner, name)
	if err != nil {
		return err
	}
	if _, ok := r.refs[branch]; ok {
		return fault.New(fault.Validation, "Reference already exists")
	}
	r.refs[branch] = commitSHA
	f.after("create ref")
	return nil
}
