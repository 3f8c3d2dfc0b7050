package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/shaun/scaffold/server/internal/auth"
	"github.com/shaun/scaffold/server/internal/fault"
	"github.com/shaun/scaffold/server/internal/github"
	"github.com/shaun/scaffold/server/internal/provision"
	"github.com/shaun/scaffold/server/internal/scaffold"
)

const maxBodyBytes = 1 << 20

// Provisioner creates and populates repositories. Implemented by
// *provision.Workflow; inject a fake in tests.
type Provisioner interface {
	Run(ctx context.Context, name string, src provision.Source, opts provision.Options) (*provision.Result, error)
}

// RepoLister lists the authenticated user's repositories. Implemented by
// *github.Client.
type RepoLister interface {
	ListRepositories(ctx context.Context) ([]github.Repository, error)
}

type Handler struct {
	prov     Provisioner
	repos    RepoLister
	catalog  *scaffold.Catalog
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

func NewHandler(prov Provisioner, repos RepoLister, catalog *scaffold.Catalog, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		prov:     prov,
		repos:    repos,
		catalog:  catalog,
		validate: newValidator(catalog),
		log:      log,
		now:      time.Now,
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) CreateRepository(w http.ResponseWriter, r *http.Request) {
	var req CreateRepositoryRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, fault.Invalid("invalid JSON body",
			fault.FieldError{Field: "body", Message: err.Error()}))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Language = strings.TrimSpace(req.Language)
	req.Framework = strings.TrimSpace(req.Framework)

	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, r, validationFault(err))
		return
	}

	entries, err := h.catalog.Render(scaffold.Params{
		Name:        req.Name,
		Description: req.Description,
		Language:    req.Language,
		Framework:   req.Framework,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	log := h.log.With(
		zap.String("repo", req.Name),
		zap.String("language", req.Language),
		zap.String("framework", req.Framework),
		zap.String("user", auth.UserFromRequest(r)),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	log.Info("creating repository", zap.Bool("private", req.Private), zap.Int("files", len(entries)))

	res, err := h.prov.Run(r.Context(), req.Name, provision.FromFiles(entries), provision.Options{
		Description: req.Description,
		Private:     req.Private,
	})
	if err != nil {
		var perr *provision.Error
		if errors.As(err, &perr) && perr.Repo != nil {
			log.Warn("repository left partially provisioned",
				zap.String("url", perr.Repo.HTMLURL),
				zap.Stringer("stage", perr.Stage),
			)
		}
		h.writeError(w, r, err)
		return
	}

	log.Info("repository ready", zap.String("url", res.Repo.HTMLURL), zap.Int("files_pushed", res.FilesPushed))
	respondJSON(w, http.StatusCreated, Envelope{Success: true, Data: res.Repo})
}

func (h *Handler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.repos.ListRepositories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Envelope{Success: true, Data: repos})
}

func (h *Handler) Frameworks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, Envelope{Success: true, Data: h.catalog.Languages()})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, Envelope{Error: "not found"})
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusMethodNotAllowed, Envelope{Error: "method not allowed"})
}

// writeError maps err onto the JSON error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *fault.Error
	if !errors.As(err, &fe) {
		fe = &fault.Error{Kind: fault.Server, Err: err}
	}

	env := Envelope{Error: fe.Message}
	if len(fe.Details) > 0 {
		env.Details = fe.Details
	}

	var status int
	switch fe.Kind {
	case fault.Validation:
		status = http.StatusBadRequest
		if env.Error == "" {
			env.Error = "validation failed"
		}
	case fault.Auth:
		status = http.StatusBadRequest
		env.Error = "GitHub rejected the credential; check that GITHUB_TOKEN is valid and not expired"
		env.Details = nil
	case fault.RateLimited:
		status = http.StatusTooManyRequests
	case fault.Conflict:
		status = http.StatusConflict
	case fault.NotFound:
		status = http.StatusNotFound
	case fault.EmptyInput:
		status = http.StatusUnprocessableEntity
	case fault.Configuration:
		status = http.StatusServiceUnavailable
	case fault.Server:
		status = http.StatusInternalServerError
		env.Error = "internal server error"
		env.Details = nil
	default:
		status = http.StatusInternalServerError
		env.Error = "internal server error"
		env.Details = nil
	}
	if env.Error == "" {
		env.Error = http.StatusText(status)
	}

	fields := []zap.Field{
		zap.Int("status", status),
		zap.Stringer("kind", fe.Kind),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", fields...)
	} else {
		h.log.Info("request rejected", fields...)
	}
	respondJSON(w, status, env)
}
