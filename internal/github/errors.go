package github

import (
	"errors"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/shaun/scaffold/server/internal/fault"
)

// classify maps a go-github error onto the fault taxonomy.
func classify(err error, op, repo string) error {
	fe := &fault.Error{Kind: fault.Server, Op: op, Repo: repo, Err: err}

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	var respErr *gh.ErrorResponse

	switch {
	case errors.As(err, &rateErr):
		fe.Kind = fault.RateLimited
		fe.Message = rateErr.Message
		fe.Status = statusOf(rateErr.Response)
	case errors.As(err, &abuseErr):
		fe.Kind = fault.RateLimited
		fe.Message = abuseErr.Message
		fe.Status = statusOf(abuseErr.Response)
	case errors.As(err, &respErr):
		fe.Status = statusOf(respErr.Response)
		fe.Message = respErr.Message
		for _, e := range respErr.Errors {
			msg := e.Message
			if msg == "" {
				msg = e.Code
			}
			fe.Details = append(fe.Details, fault.FieldError{Field: e.Field, Message: msg})
		}
		fe.Kind = kindForStatus(fe.Status, respErr)
	}
	return fe
}

func kindForStatus(status int, respErr *gh.ErrorResponse) fault.Kind {
	switch {
	case status == http.StatusUnauthorized:
		return fault.Auth
	case status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return fault.RateLimited
	case status == http.StatusNotFound:
		return fault.NotFound
	case status == http.StatusConflict:
		return fault.Conflict
	case status == http.StatusUnprocessableEntity && alreadyExists(respErr):
		return fault.Conflict
	case status >= 400 && status < 500:
		return fault.Validation
	default:
		return fault.Server
	}
}

// alreadyExists detects GitHub's 422 answer to a repository name collision.
func alreadyExists(respErr *gh.ErrorResponse) bool {
	if strings.Contains(respErr.Message, "already exists") {
		return true
	}
	for _, e := range respErr.Errors {
		if strings.Contains(e.Message, "already exists") {
			return true
		}
	}
	return false
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
