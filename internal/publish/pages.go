package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	gogit "github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/git"
	"github.com/fieldpress/pressroom/internal/logfields"
)

// publishPages mirrors siteDir onto the configured branch of the pages
// repository: clone the branch, replace its tree with the rendered site,
// commit, push. A branch missing from the remote (or an entirely empty
// remote) is bootstrapped from scratch, which covers the first deploy. The
// whole step runs under the target's time ceiling.
func (p *Publisher) publishPages(ctx context.Context, siteDir string) (Destination, error) {
	t := p.cfg.Pages
	ctx, cancel := context.WithTimeout(ctx, t.TimeoutDuration())
	defer cancel()

	dest := Destination{Detail: t.Repo + "@" + t.Branch}

	workDir, err := os.MkdirTemp("", "pressroom-pages-")
	if err != nil {
		return dest, fmt.Errorf("create pages workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	repo, err := git.Clone(ctx, workDir, git.CloneOptions{
		URL:      t.Repo,
		Branch:   t.Branch,
		Depth:    1,
		Username: t.Username,
		Token:    t.Token,
	})
	bootstrap := false
	var missing *git.MissingBranchError
	if errors.As(err, &missing) {
		slog.Info("Pages branch missing, bootstrapping",
			logfields.URL(t.Repo), logfields.Branch(t.Branch))
		repo, err = initPagesRepo(workDir, t)
		bootstrap = true
	}
	if err != nil {
		return dest, err
	}

	if err := replaceWorktree(workDir, siteDir); err != nil {
		return dest, fmt.Errorf("stage pages content: %w", err)
	}
	if err := writePagesExtras(workDir, t); err != nil {
		return dest, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return dest, fmt.Errorf("pages worktree: %w", err)
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return dest, fmt.Errorf("stage pages changes: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return dest, fmt.Errorf("pages status: %w", err)
	}
	if status.IsClean() && !bootstrap {
		slog.Info("Pages branch already current",
			logfields.URL(t.Repo), logfields.Branch(t.Branch))
		return dest, nil
	}

	hash, err := wt.Commit(
		fmt.Sprintf("Deploy site %s", time.Now().UTC().Format(time.RFC3339)),
		&gogit.CommitOptions{Author: &object.Signature{
			Name:  t.AuthorName,
			Email: t.AuthorEmail,
			When:  time.Now(),
		}},
	)
	if err != nil {
		return dest, fmt.Errorf("commit pages content: %w", err)
	}

	refSpec := ggitcfg.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", t.Branch, t.Branch))
	err = repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []ggitcfg.RefSpec{refSpec},
		Auth:       git.TokenAuth(t.Username, t.Token),
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return dest, git.Classify("push", t.Repo, t.Branch, err)
	}

	slog.Info("Pages branch published",
		logfields.URL(t.Repo),
		logfields.Branch(t.Branch),
		slog.String("commit", git.ShortHash(hash.String())))
	dest.Commit = hash.String()
	return dest, nil
}

// initPagesRepo starts a fresh repository whose first commit will land on
// the pages branch: HEAD is pointed at the branch before anything is
// committed, and origin is wired to the target remote.
func initPagesRepo(dir string, t *config.PagesTarget) (*gogit.Repository, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("reset pages workdir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("recreate pages workdir: %w", err)
	}

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("init pages repo: %w", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(t.Branch))
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, fmt.Errorf("select pages branch: %w", err)
	}
	if _, err := repo.CreateRemote(&ggitcfg.RemoteConfig{
		Name: "origin",
		URLs: []string{t.Repo},
	}); err != nil {
		return nil, fmt.Errorf("add pages remote: %w", err)
	}
	return repo, nil
}

// replaceWorktree empties workDir (keeping .git) and copies the rendered
// site in, so deleted pages disappear from the mirror too.
func replaceWorktree(workDir, siteDir string) error {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(workDir, e.Name())); err != nil {
			return err
		}
	}
	return copyTree(siteDir, workDir)
}

// writePagesExtras adds the files pages hosting expects beside the site:
// a CNAME when a custom domain is configured, and .nojekyll so the host
// serves the rendered HTML untouched.
func writePagesExtras(workDir string, t *config.PagesTarget) error {
	if t.CNAME != "" {
		if err := os.WriteFile(filepath.Join(workDir, "CNAME"), []byte(t.CNAME+"\n"), 0o644); err != nil {
			return fmt.Errorf("write CNAME: %w", err)
		}
	}
	if err := os.WriteFile(filepath.Join(workDir, ".nojekyll"), nil, 0o644); err != nil {
		return fmt.Errorf("write .nojekyll: %w", err)
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
