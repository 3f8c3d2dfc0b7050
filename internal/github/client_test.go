package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaun/scaffold/server/internal/fault"
	"github.com/shaun/scaffold/server/internal/tree"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	c, err := NewClient(Config{Token: "tok", BaseURL: server.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestClient_missingTokenFailsBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	c, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.CreateRepository(ctx, CreateRequest{Name: "demo"})
	assert.True(t, fault.Is(err, fault.Configuration), "got %v", err)
	_, err = c.ListRepositories(ctx)
	assert.True(t, fault.Is(err, fault.Configuration))
	_, _, err = c.GetBranchRef(ctx, "o", "demo", "main")
	assert.True(t, fault.Is(err, fault.Configuration))
	err = c.UpdateRef(ctx, "o", "demo", "main", "sha")
	assert.True(t, fault.Is(err, fault.Configuration))

	assert.Zero(t, hits.Load())
}

func TestClient_CreateRepository(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		body := decodeBody(t, r)
		assert.Equal(t, "demo-app", body["name"])
		assert.Equal(t, "a demo", body["description"])
		assert.Equal(t, true, body["private"])
		assert.Equal(t, false, body["auto_init"])

		writeJSON(w, http.StatusCreated, map[string]any{
			"id":             42,
			"name":           "demo-app",
			"full_name":      "octo/demo-app",
			"owner":          map[string]any{"login": "octo"},
			"html_url":       "https://github.com/octo/demo-app",
			"clone_url":      "https://github.com/octo/demo-app.git",
			"default_branch": "main",
			"private":        true,
			"created_at":     "2026-10-14T10:00:00Z",
		})
	}))

	repo, err := c.CreateRepository(context.Background(), CreateRequest{
		Name: "demo-app", Description: "a demo", Private: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), repo.ID)
	assert.Equal(t, "octo/demo-app", repo.FullName)
	assert.Equal(t, "octo", repo.Owner)
	assert.Equal(t, "main", repo.DefaultBranch)
	assert.Equal(t, "https://github.com/octo/demo-app", repo.HTMLURL)
	assert.True(t, repo.Private)
	assert.Equal(t, time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC), repo.CreatedAt.UTC())
}

func TestClient_errorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]any
		want   fault.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, map[string]any{"message": "Bad credentials"}, fault.Auth},
		{"forbidden", http.StatusForbidden, map[string]any{"message": "Resource not accessible"}, fault.RateLimited},
		{"too many", http.StatusTooManyRequests, map[string]any{"message": "slow down"}, fault.RateLimited},
		{"not found", http.StatusNotFound, map[string]any{"message": "Not Found"}, fault.NotFound},
		{"conflict", http.StatusConflict, map[string]any{"message": "Conflict"}, fault.Conflict},
		{"name taken", http.StatusUnprocessableEntity, map[string]any{
			"message": "Repository creation failed.",
			"errors":  []map[string]any{{"resource": "Repository", "code": "custom", "field": "name", "message": "name already exists on this account"}},
		}, fault.Conflict},
		{"invalid", http.StatusUnprocessableEntity, map[string]any{
			"message": "Validation Failed",
			"errors":  []map[string]any{{"resource": "Repository", "code": "invalid", "field": "name"}},
		}, fault.Validation},
		{"server", http.StatusBadGateway, map[string]any{"message": "upstream"}, fault.Server},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			_, err := c.CreateRepository(context.Background(), CreateRequest{Name: "demo"})

			var fe *fault.Error
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.want, fe.Kind, "err: %v", err)
			assert.Equal(t, tt.status, fe.Status)
			assert.Equal(t, "create repository", fe.Op)
			assert.Equal(t, "demo", fe.Repo)
			assert.Equal(t, tt.body["message"], fe.Message)
		})
	}
}

func TestClient_validationDetails(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "Validation Failed",
			"errors":  []map[string]any{{"resource": "Repository", "code": "invalid", "field": "name"}},
		})
	}))
	_, err := c.CreateRepository(context.Background(), CreateRequest{Name: "demo"})

	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []fault.FieldError{{Field: "name", Message: "invalid"}}, fe.Details)
}

func TestClient_GetBranchRef(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octo/full/git/ref/heads/main":
			writeJSON(w, http.StatusOK, map[string]any{
				"ref":    "refs/heads/main",
				"object": map[string]any{"sha": "abc123", "type": "commit"},
			})
		case "/repos/octo/empty/git/ref/heads/main":
			writeJSON(w, http.StatusConflict, map[string]any{"message": "Git Repository is empty."})
		case "/repos/octo/broken/git/ref/heads/main":
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
		}
	}))
	ctx := context.Background()

	sha, found, err := c.GetBranchRef(ctx, "octo", "full", "main")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc123", sha)

	_, found, err = c.GetBranchRef(ctx, "octo", "empty", "main")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = c.GetBranchRef(ctx, "octo", "missing", "main")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = c.GetBranchRef(ctx, "octo", "broken", "main")
	assert.True(t, fault.Is(err, fault.Server))
}

func TestClient_CreateTree(t *testing.T) {
	var bodies []map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/demo/git/trees", r.URL.Path)
		bodies = append(bodies, decodeBody(t, r))
		writeJSON(w, http.StatusCreated, map[string]any{"sha": "tree1"})
	}))
	items := []tree.Item{{Path: "README.md", Mode: tree.ModeFile, Type: tree.TypeBlob, Content: "# hi"}}

	sha, err := c.CreateTree(context.Background(), "octo", "demo", items, "")
	require.NoError(t, err)
	assert.Equal(t, "tree1", sha)

	_, err = c.CreateTree(context.Background(), "octo", "demo", items, "parent1")
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.NotContains(t, bodies[0], "base_tree")
	assert.Equal(t, "parent1", bodies[1]["base_tree"])
	entries := bodies[0]["tree"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]any{
		"path": "README.md", "mode": "100644", "type": "blob", "content": "# hi",
	}, entries[0])
}

func TestClient_CreateCommit(t *testing.T) {
	var bodies []map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/demo/git/commits", r.URL.Path)
		bodies = append(bodies, decodeBody(t, r))
		writeJSON(w, http.StatusCreated, map[string]any{"sha": "commit1"})
	}))
	ctx := context.Background()

	sha, err := c.CreateCommit(ctx, "octo", "demo", "Initial commit", "tree1", "")
	require.NoError(t, err)
	assert.Equal(t, "commit1", sha)
	_, err = c.CreateCommit(ctx, "octo", "demo", "Next", "tree2", "parent1")
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, "Initial commit", bodies[0]["message"])
	assert.Equal(t, "tree1", bodies[0]["tree"])
	assert.Empty(t, bodies[0]["parents"])
	assert.Equal(t, []any{"parent1"}, bodies[1]["parents"])
}

func TestClient_UpdateAndCreateRef(t *testing.T) {
	var calls []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "commit1", body["sha"])
		if r.Method == http.MethodPatch {
			assert.Equal(t, false, body["force"])
		} else {
			assert.Equal(t, "refs/heads/main", body["ref"])
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ref":    "refs/heads/main",
			"object": map[string]any{"sha": "commit1"},
		})
	}))
	ctx := context.Background()

	require.NoError(t, c.UpdateRef(ctx, "octo", "demo", "main", "commit1"))
	require.NoError(t, c.CreateRef(ctx, "octo", "demo", "main", "commit1"))
	assert.Equal(t, []string{
		"PATCH /repos/octo/demo/git/refs/heads/main",
		"POST /repos/octo/demo/git/refs",
	}, calls)
}

func TestClient_ListRepositories(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "name": "a", "full_name": "octo/a"},
			{"id": 2, "name": "b", "full_name": "octo/b", "private": true},
		})
	}))

	repos, err := c.ListRepositories(context.Background())
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "octo/a", repos[0].FullName)
	assert.True(t, repos[1].Private)
}

func TestClient_timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c, err := NewClient(Config{Token: "tok", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.GetRepository(context.Background(), "octo", "demo")
	assert.True(t, fault.Is(err, fault.Server))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_customTransport(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"name": "demo", "default_branch": "trunk"})
	}))
	defer server.Close()

	hc := &http.Client{Transport: &rewriteTransport{baseURL: server.URL}}
	c, err := NewClient(Config{Token: "tok", HTTPClient: hc})
	require.NoError(t, err)

	repo, err := c.GetRepository(context.Background(), "octo", "demo")
	require.NoError(t, err)
	assert.Equal(t, "trunk", repo.DefaultBranch)
	assert.Equal(t, "Bearer tok", auth)
}

// rewriteTransport sends requests to baseURL instead of the original host.
type rewriteTransport struct {
	baseURL string
	base    http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.base == nil {
		t.base = http.DefaultTransport
	}
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return nil, err
	}
	req = req.Clone(req.Context())
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	return t.base.RoundTrip(req)
}
