// Package git wraps the go-git operations the tool needs: cloning theme
// repositories and publish targets, and authenticating against remotes.
package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/fieldpress/pressroom/internal/logfields"
)

// CloneOptions describes a clone of one branch of a remote repository.
type CloneOptions struct {
	URL      string
	Branch   string // empty clones the remote default branch
	Depth    int    // 0 means full history
	Username string // paired with Token; most hosts ignore the value
	Token    string // empty clones anonymously
}

// Auth returns the transport auth for the options, or nil for anonymous.
func (o CloneOptions) Auth() transport.AuthMethod {
	return TokenAuth(o.Username, o.Token)
}

// TokenAuth builds basic auth from a token. Hosts like GitHub and GitLab
// accept any non-empty username alongside a token.
func TokenAuth(username, token string) transport.AuthMethod {
	if token == "" {
		return nil
	}
	if username == "" {
		username = "token"
	}
	return &http.BasicAuth{Username: username, Password: token}
}

// Clone clones a repository into dest, replacing anything already there.
// Errors come back classified so callers can distinguish auth failures,
// missing repositories and missing branches without string matching.
func Clone(ctx context.Context, dest string, opts CloneOptions) (*gogit.Repository, error) {
	if err := os.RemoveAll(dest); err != nil {
		return nil, fmt.Errorf("clear clone destination: %w", err)
	}

	cloneOpts := &gogit.CloneOptions{
		URL:   opts.URL,
		Depth: opts.Depth,
		Auth:  opts.Auth(),
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		cloneOpts.SingleBranch = true
	}

	slog.Debug("Cloning repository",
		logfields.URL(opts.URL),
		logfields.Branch(opts.Branch),
		logfields.Path(dest))

	repo, err := gogit.PlainCloneContext(ctx, dest, false, cloneOpts)
	if err != nil {
		return nil, Classify("clone", opts.URL, opts.Branch, err)
	}

	if ref, err := repo.Head(); err == nil {
		slog.Info("Repository cloned",
			logfields.URL(opts.URL),
			slog.String("commit", ShortHash(ref.Hash().String())))
	}
	return repo, nil
}

// ShortHash abbreviates a commit hash for log output.
func ShortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
