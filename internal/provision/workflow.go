package provision

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/shaun/scaffold/server/internal/fault"
	"github.com/shaun/scaffold/server/internal/github"
	"github.com/shaun/scaffold/server/internal/tree"
)

// DefaultCommitMessage is used when Options.CommitMessage is empty.
const DefaultCommitMessage = "Initial commit"

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// API is the subset of the GitHub client the workflow drives. It is
// implemented by *github.Client.
type API interface {
	CreateRepository(ctx context.Context, req github.CreateRequest) (*github.Repository, error)
	GetRepository(ctx context.Context, owner, name string) (*github.Repository, error)
	GetBranchRef(ctx context.Context, owner, name, branch string) (string, bool, error)
	CreateTree(ctx context.Context, owner, name string, items []tree.Item, baseSHA string) (string, error)
	CreateCommit(ctx context.Context, owner, name, message, treeSHA, parentSHA string) (string, error)
	UpdateRef(ctx context.Context, owner, name, branch, commitSHA string) error
	CreateRef(ctx context.Context, owner, name, branch, commitSHA string) error
}

// Stage is how far a provisioning run got. Each stage is only reached after
// the previous one succeeded.
type Stage int

const (
	// StagePending: nothing exists remotely yet.
	StagePending Stage = iota
	// StageCreated: the repository exists but holds no commits from us.
	StageCreated
	StageTreePushed
	StageCommitted
	// StageRefUpdated: the default branch points at the new commit.
	StageRefUpdated
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageCreated:
		return "created"
	case StageTreePushed:
		return "tree_pushed"
	case StageCommitted:
		return "committed"
	case StageRefUpdated:
		return "ref_updated"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Options tune a single run.
type Options struct {
	Description   string
	Private       bool
	CommitMessage string
}

// Result describes a completed run.
type Result struct {
	Repo        *github.Repository
	FilesPushed int
	CommitSHA   string
	Stage       Stage
}

// Error reports a run that stopped early. Repo is set when the repository was
// already created; it is left in place, unpopulated or partially populated.
type Error struct {
	Stage Stage
	Repo  *github.Repository
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provisioning stopped at stage %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Workflow creates a repository and pushes one commit into it. It keeps no
// state between runs and may be used concurrently.
type Workflow struct {
	api   API
	owner string
	deny  tree.Denylist
	log   *zap.Logger
}

type Option func(*Workflow)

// WithOwner sets the owner used for follow-up calls when GitHub's create
// response does not name one.
func WithOwner(owner string) Option {
	return func(w *Workflow) { w.owner = owner }
}

// WithDenylist replaces the directories skipped during directory scans.
func WithDenylist(d tree.Denylist) Option {
	return func(w *Workflow) { w.deny = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(w *Workflow) { w.log = l }
}

func New(api API, opts ...Option) *Workflow {
	w := &Workflow{api: api, deny: tree.NewDenylist(), log: zap.NewNop()}
	for _, o := range opts {
		o(w)
	}
	return w
}

// ValidateName checks a repository name against the accepted pattern.
func ValidateName(name string) error {
	if name == "" {
		return fault.Invalid("repository name is required",
			fault.FieldError{Field: "name", Message: "Repository name is required"})
	}
	if !namePattern.MatchString(name) {
		return fault.Invalid("invalid repository name",
			fault.FieldError{Field: "name", Message: "Repository name can only contain letters, numbers, hyphens, and underscores"})
	}
	return nil
}

// run carries the state of one invocation through the pipeline.
type run struct {
	w     *Workflow
	name  string
	log   *zap.Logger
	stage Stage
	repo  *github.Repository
}

func (r *run) fail(op string, err error) error {
	r.log.Warn("provisioning failed",
		zap.String("op", op),
		zap.Stringer("stage", r.stage),
		zap.Stringer("kind", fault.KindOf(err)),
		zap.Error(err),
	)
	return &Error{Stage: r.stage, Repo: r.repo, Err: fault.Wrap(err, op, r.name)}
}

func (r *run) advance(s Stage) {
	r.stage = s
	r.log.Debug("provisioning advanced", zap.Stringer("stage", s))
}

// Run creates repository name and pushes src into its default branch as a
// single commit. Steps run in order and the first failure stops the run; a
// repository created before the failure is not deleted. Running twice with
// the same name fails the second time when GitHub rejects the duplicate.
func (w *Workflow) Run(ctx context.Context, name string, src Source, opts Options) (*Result, error) {
	r := &run{w: w, name: name, log: w.log.With(zap.String("repo", name))}

	// Validate before anything is created remotely.
	if err := ValidateName(name); err != nil {
		return nil, r.fail("validate", err)
	}
	var items []tree.Item
	if !src.isDir() {
		if len(src.list) == 0 {
			return nil, r.fail("validate", fault.Invalid("no files to push",
				fault.FieldError{Field: "files", Message: "at least one file is required"}))
		}
		var err error
		if items, err = tree.BuildItems(src.list); err != nil {
			return nil, r.fail("validate", err)
		}
	}
	message := opts.CommitMessage
	if message == "" {
		message = DefaultCommitMessage
	}
	if err := ctx.Err(); err != nil {
		return nil, r.fail("create repository", err)
	}

	repo, err := w.api.CreateRepository(ctx, github.CreateRequest{
		Name:        name,
		Description: opts.Description,
		Private:     opts.Private,
		AutoInit:    false,
	})
	if err != nil {
		return nil, r.fail("create repository", err)
	}
	r.repo = repo
	r.advance(StageCreated)
	r.log.Info("repository created", zap.String("url", repo.HTMLURL))

	if src.isDir() {
		entries, err := readDir(src, w.deny, r.log)
		if err != nil {
			return nil, r.fail("resolve files", err)
		}
		if items, err = tree.BuildItems(entries); err != nil {
			return nil, r.fail("resolve files", err)
		}
	}
	r.log.Info("pushing files", zap.Int("files", len(items)))

	owner, repoName := w.target(repo, name)
	if owner == "" {
		return nil, r.fail("resolve owner", fault.New(fault.Configuration,
			"cannot determine repository owner; set GITHUB_USERNAME"))
	}
	if err := ctx.Err(); err != nil {
		return nil, r.fail("get repository", err)
	}

	current, err := w.api.GetRepository(ctx, owner, repoName)
	if err != nil {
		return nil, r.fail("get repository", err)
	}
	branch := current.DefaultBranch
	if branch == "" {
		branch = repo.DefaultBranch
	}
	if branch == "" {
		branch = "main"
	}
	parent, hasParent, err := w.api.GetBranchRef(ctx, owner, repoName, branch)
	if err != nil {
		return nil, r.fail("get branch ref", err)
	}
	if !hasParent {
		r.log.Debug("repository is empty, creating root commit", zap.String("branch", branch))
	}
	if err := ctx.Err(); err != nil {
		return nil, r.fail("create tree", err)
	}

	treeSHA, err := w.api.CreateTree(ctx, owner, repoName, items, parent)
	if err != nil {
		return nil, r.fail("create tree", err)
	}
	r.advance(StageTreePushed)
	if err := ctx.Err(); err != nil {
		return nil, r.fail("create commit", err)
	}

	commitSHA, err := w.api.CreateCommit(ctx, owner, repoName, message, treeSHA, parent)
	if err != nil {
		return nil, r.fail("create commit", err)
	}
	r.advance(StageCommitted)
	refOp := "create ref"
	if hasParent {
		refOp = "update ref"
	}
	if err := ctx.Err(); err != nil {
		return nil, r.fail(refOp, err)
	}

	if hasParent {
		err = w.api.UpdateRef(ctx, owner, repoName, branch, commitSHA)
	} else {
		err = w.api.CreateRef(ctx, owner, repoName, branch, commitSHA)
	}
	if err != nil {
		return nil, r.fail(refOp, err)
	}
	r.advance(StageRefUpdated)

	if repo.DefaultBranch == "" {
		repo.DefaultBranch = branch
	}
	r.log.Info("repository provisioned",
		zap.String("commit", commitSHA),
		zap.String("branch", branch),
		zap.Int("files", len(items)),
	)
	return &Result{Repo: repo, FilesPushed: len(items), CommitSHA: commitSHA, Stage: r.stage}, nil
}

// target picks the owner and name for calls after creation, preferring what
// GitHub reported.
func (w *Workflow) target(repo *github.Repository, name string) (string, string) {
	owner, repoName := repo.Owner, repo.Name
	if owner == "" {
		if o, n, ok := strings.Cut(repo.FullName, "/"); ok {
			owner, repoName = o, n
		}
	}
	if owner == "" {
		owner = w.owner
	}
	if repoName == "" {
		repoName = name
	}
	return owner, repoName
}
