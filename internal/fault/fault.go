// Package fault defines the closed set of failures the server reports. Every
// error that crosses a package boundary is a *Error so the HTTP layer can map
// it to a status code without inspecting messages.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	// Server covers 5xx answers, transport failures and anything unclassified.
	Server Kind = iota
	// Configuration means the process lacks a setting, typically the token.
	Configuration
	// Validation means the input was rejected, locally or by GitHub.
	Validation
	// Auth means GitHub rejected the credential.
	Auth
	// RateLimited means GitHub throttled or forbade the request.
	RateLimited
	// Conflict means the remote state collides with the request.
	Conflict
	// NotFound means a remote or local resource does not exist.
	NotFound
	// EmptyInput means no files were left to push.
	EmptyInput
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case Validation:
		return "validation"
	case Auth:
		return "auth"
	case RateLimited:
		return "rate_limited"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case EmptyInput:
		return "empty_input"
	default:
		return "server"
	}
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a classified failure.
type Error struct {
	Kind Kind
	// Op names the step that failed, e.g. "create repository".
	Op string
	// Repo is the repository name the step operated on, if any.
	Repo string
	// Status is the HTTP status GitHub answered with, 0 when none.
	Status  int
	Message string
	Details []FieldError
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		if e.Repo != "" {
			fmt.Fprintf(&b, " %q", e.Repo)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil && !e.nested() && e.Err.Error() != e.Message {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// nested reports whether Err wraps another *Error, whose text Wrap has
// already folded into Message.
func (e *Error) nested() bool {
	var inner *Error
	return errors.As(e.Err, &inner)
}

// detail is the message plus the cause, without kind or op.
func (e *Error) detail() string {
	if e.Err == nil || e.nested() || e.Err.Error() == e.Message {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Invalid returns a Validation error carrying field details.
func Invalid(msg string, details ...FieldError) *Error {
	return &Error{Kind: Validation, Message: msg, Details: details}
}

// Wrap attaches the step and repository name to err. A *Error keeps its kind,
// and context added by wrappers around it stays in the message; any other
// error becomes a Server failure.
func Wrap(err error, op, repo string) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		cp := *fe
		if err != error(fe) {
			cp.Message = strings.Replace(err.Error(), fe.Error(), fe.detail(), 1)
			cp.Err = err
		}
		if cp.Op == "" {
			cp.Op = op
		}
		if cp.Repo == "" {
			cp.Repo = repo
		}
		return &cp
	}
	return &Error{Kind: Server, Op: op, Repo: repo, Err: err}
}

// KindOf reports the kind of err, Server when err is not a *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Server
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}
