package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/shaun/scaffold/server/internal/fault"
	"github.com/shaun/scaffold/server/internal/tree"
)

// Config holds what the client needs to reach GitHub.
type Config struct {
	// Token is the bearer credential. Without it every call fails with a
	// configuration fault before touching the network.
	Token string
	// BaseURL overrides the API root (GitHub Enterprise, tests).
	BaseURL string
	// Timeout bounds each call. Zero means no per-call bound.
	Timeout time.Duration
	// HTTPClient is the transport to wrap; optional.
	HTTPClient *http.Client
}

// Repository is the part of a GitHub repository the dashboard cares about.
type Repository struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"fullName"`
	Owner         string    `json:"owner"`
	Description   string    `json:"description,omitempty"`
	HTMLURL       string    `json:"htmlUrl"`
	CloneURL      string    `json:"cloneUrl"`
	DefaultBranch string    `json:"defaultBranch"`
	Private       bool      `json:"private"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CreateRequest describes a repository to create for the authenticated user.
type CreateRequest struct {
	Name        string
	Description string
	Private     bool
	AutoInit    bool
}

// Client issues single, unretried GitHub REST calls. It is safe for
// concurrent use.
type Client struct {
	gh      *gh.Client
	token   string
	timeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	const errCtx = "creating github client"

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		wrapped := *hc
		wrapped.Transport = &oauth2.Transport{Source: ts, Base: hc.Transport}
		hc = &wrapped
	}

	client := gh.NewClient(hc)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("%s: base url: %w", errCtx, err)
		}
		client.BaseURL = u
	}

	return &Client{gh: client, token: cfg.Token, timeout: cfg.Timeout}, nil
}

func (c *Client) begin(ctx context.Context, op, repo string) (context.Context, context.CancelFunc, error) {
	if c.token == "" {
		return nil, nil, &fault.Error{
			Kind:    fault.Configuration,
			Op:      op,
			Repo:    repo,
			Message: "GITHUB_TOKEN is not set",
		}
	}
	if c.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		return ctx, cancel, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	return ctx, cancel, nil
}

// ListRepositories returns the authenticated user's most recently updated
// repositories, at most one page of 100.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	const op = "list repositories"
	ctx, cancel, err := c.begin(ctx, op, "")
	if err != nil {
		return nil, err
	}
	defer cancel()

	repos, _, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, &gh.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, classify(err, op, "")
	}
	out := make([]Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, fromGitHub(r))
	}
	return out, nil
}

// CreateRepository creates a repository owned by the authenticated user.
func (c *Client) CreateRepository(ctx context.Context, req CreateRequest) (*Repository, error) {
	const op = "create repository"
	ctx, cancel, err := c.begin(ctx, op, req.Name)
	if err != nil {
		return nil, err
	}
	defer cancel()

	created, _, err := c.gh.Repositories.Create(ctx, "", &gh.Repository{
		Name:        gh.String(req.Name),
		Description: gh.String(req.Description),
		Private:     gh.Bool(req.Private),
		AutoInit:    gh.Bool(req.AutoInit),
	})
	if err != nil {
		return nil, classify(err, op, req.Name)
	}
	repo := fromGitHub(created)
	return &repo, nil
}

func (c *Client) GetRepository(ctx context.Context, owner, name string) (*Repository, error) {
	const op = "get repository"
	ctx, cancel, err := c.begin(ctx, op, name)
	if err != nil {
		return nil, err
	}
	defer cancel()

	r, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, classify(err, op, name)
	}
	repo := fromGitHub(r)
	return &repo, nil
}

// GetBranchRef returns the commit SHA branch points at. found is false when
// the branch does not exist, which is the normal state of an empty
// repository; GitHub answers 404 or 409 in that case.
func (c *Client) GetBranchRef(ctx context.Context, owner, name, branch string) (sha string, found bool, err error) {
	const op = "get branch ref"
	ctx, cancel, err := c.begin(ctx, op, name)
	if err != nil {
		return "", false, err
	}
	defer cancel()

	ref, resp, err := c.gh.Git.GetRef(ctx, owner, name, "heads/"+branch)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusConflict) {
			return "", false, nil
		}
		return "", false, classify(err, op, name)
	}
	return ref.GetObject().GetSHA(), true, nil
}

// CreateTree uploads items as a new tree. An empty baseSHA creates a tree
// from scratch.
func (c *Client) CreateTree(ctx context.Context, owner, name string, items []tree.Item, baseSHA string) (string, error) {
	const op = "create tree"
	ctx, cancel, err := c.begin(ctx, op, name)
	if err != nil {
		return "", err
	}
	defer cancel()

	entries := make([]*gh.TreeEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, &gh.TreeEntry{
			Path:    gh.String(it.Path),
			Mode:    gh.String(it.Mode),
			Type:    gh.String(it.Type),
			Content: gh.String(it.Content),
		})
	}
	t, _, err := c.gh.Git.CreateTree(ctx, owner, name, baseSHA, entries)
	if err != nil {
		return "", classify(err, op, name)
	}
	return t.GetSHA(), nil
}

// CreateCommit records treeSHA as a commit. parentSHA is omitted from the
// parents list when empty.
func (c *Client) CreateCommit(ctx context.Context, owner, name, message, treeSHA, parentSHA string) (string, error) {
	const op = "create commit"
	ctx, cancel, err := c.begin(ctx, op, name)
	if err != nil {
		return "", err
	}
	defer cancel()

	commit := &gh.Commit{
		Message: gh.String(message),
		Tree:    &gh.Tree{SHA: gh.String(treeSHA)},
	}
	if parentSHA != "" {
		commit.Parents = []*gh.Commit{{SHA: gh.String(parentSHA)}}
	}
	created, _, err := c.gh.Git.CreateCommit(ctx, owner, name, commit, nil)
	if err != nil {
		return "", classify(err, op, name)
	}
	return created.GetSHA(), nil
}

// UpdateRef moves an existing branch to commitSHA without forcing.
func (c *Client) UpdateRef(ctx context.Context, owner, name, branch, commitSHA string) error {
	const op = "update ref"
	ctx, cancel, err := c.begin(ctx, op, name)
	if err != nil {
		return err
	}
	defer cancel()

	_, _, err = c.gh.Git.UpdateRef(ctx, owner, name, branchRef(branch, commitSHA), false)
	if err != nil {
		return classify(err, op, name)
	}
	return nil
}

// CreateRef creates branch pointing at commitSHA. An empty repository has no
// ref to update, so its first commit goes through here.
func (c *Client) CreateRef(ctx context.Context, owner, name, branch, commitSHA string) error {
	const op = "create ref"
	ctx, cancel, err := c.begin(ctx, op, name)
	if err != nil {
		return err
	}
	defer cancel()

	_, _, err = c.gh.Git.CreateRef(ctx, owner, name, branchRef(branch, commitSHA))
	if err != nil {
		return classify(err, op, name)
	}
	return nil
}

func branchRef(branch, sha string) *gh.Reference {
	return &gh.Reference{
		Ref:    gh.String("refs/heads/" + branch),
		Object: &gh.GitObject{SHA: gh.String(sha)},
	}
}

func fromGitHub(r *gh.Repository) Repository {
	return Repository{
		ID:            r.GetID(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Owner:         r.GetOwner().GetLogin(),
		Description:   r.GetDescription(),
		HTMLURL:       r.GetHTMLURL(),
		CloneURL:      r.GetCloneURL(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
		CreatedAt:     r.GetCreatedAt().Time,
	}
}
