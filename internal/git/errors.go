package git

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Typed git errors enabling structured classification without string
// parsing upstream.

type AuthError struct {
	Op, URL string
	Err     error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s auth error for %s: %v", e.Op, e.URL, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op, URL string
	Err     error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found %s: %v", e.Op, e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

// MissingBranchError covers both a branch absent from an existing remote
// and a remote with no commits at all. Publishers use it to decide when to
// bootstrap a fresh branch.
type MissingBranchError struct {
	Op, URL, Branch string
	Err             error
}

func (e *MissingBranchError) Error() string {
	return fmt.Sprintf("%s branch %q missing on %s: %v", e.Op, e.Branch, e.URL, e.Err)
}
func (e *MissingBranchError) Unwrap() error { return e.Err }

// Classify wraps go-git failures into typed variants when possible. The
// transport sentinels are checked first; older go-git paths only surface
// message text, so a string fallback stays.
func Classify(op, url, branch string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return &AuthError{Op: op, URL: url, Err: err}
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return &NotFoundError{Op: op, URL: url, Err: err}
	case errors.Is(err, transport.ErrEmptyRemoteRepository),
		errors.Is(err, plumbing.ErrReferenceNotFound):
		return &MissingBranchError{Op: op, URL: url, Branch: branch, Err: err}
	}

	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "not authorized") || strings.Contains(l, "invalid credentials"):
		return &AuthError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "repository not found") || strings.Contains(l, "does not exist"):
		return &NotFoundError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "couldn't find remote ref") || strings.Contains(l, "reference not found"):
		return &MissingBranchError{Op: op, URL: url, Branch: branch, Err: err}
	default:
		return fmt.Errorf("%s %s: %w", op, url, err)
	}
}
