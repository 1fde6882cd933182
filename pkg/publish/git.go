// Package publish commits the generated dashboard and pushes it upstream.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
	log "github.com/sirupsen/logrus"

	"github.com/jrhoades1/claude-tracking/pkg/config"
)

// EnvToken names the variable holding an HTTPS push token.
const EnvToken = "CCTRACK_GIT_TOKEN"

// Publisher sends the dashboard somewhere others can read it.
type Publisher interface {
	Publish(ctx context.Context) error
}

// Git stages the dashboard files in a local repository, commits them when
// they changed and pushes when a remote is configured.
type Git struct {
	dir     string
	paths   []string
	name    string
	email   string
	timeout time.Duration
	now     func() time.Time
}

// NewGit returns a publisher for the repository described by cfg.
func NewGit(cfg config.DashboardConfig) *Git {
	return &Git{
		dir:     cfg.RepoDir,
		paths:   cfg.Paths,
		name:    cfg.AuthorName,
		email:   cfg.AuthorEmail,
		timeout: cfg.Timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Publish commits and pushes within the configured timeout. An unchanged
// dashboard produces no commit.
func (g *Git) Publish(ctx context.Context) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	repo, err := git.PlainOpen(g.dir)
	if err != nil {
		return fmt.Errorf("publish: open %s: %w", g.dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("publish: worktree: %w", err)
	}

	for _, p := range g.paths {
		if _, err := os.Stat(filepath.Join(g.dir, p)); err != nil {
			continue
		}
		if _, err := wt.Add(filepath.ToSlash(p)); err != nil {
			return fmt.Errorf("publish: stage %s: %w", p, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("publish: status: %w", err)
	}
	if !hasStaged(status) {
		log.WithField("repo", g.dir).Debug("dashboard unchanged, nothing to commit")
		return nil
	}

	now := g.now()
	msg := "dashboard: " + now.Format("2006-01-02 15:04 UTC")
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: g.name, Email: g.email, When: now},
	})
	if err != nil {
		return fmt.Errorf("publish: commit: %w", err)
	}
	log.WithFields(log.Fields{"repo": g.dir, "commit": hash.String()[:7]}).Info("dashboard committed")

	remotes, err := repo.Remotes()
	if err != nil {
		return fmt.Errorf("publish: remotes: %w", err)
	}
	if len(remotes) == 0 {
		log.WithField("repo", g.dir).Debug("no remote configured, skipping push")
		return nil
	}

	opts := &git.PushOptions{RemoteName: remoteName(remotes)}
	if token := os.Getenv(EnvToken); token != "" {
		opts.Auth = &http.BasicAuth{Username: "x-access-token", Password: token}
	}
	if err := repo.PushContext(ctx, opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("publish: push: %w", err)
	}
	return nil
}

func hasStaged(status git.Status) bool {
	for _, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			return true
		}
	}
	return false
}

func remoteName(remotes []*git.Remote) string {
	for _, r := range remotes {
		if r.Config().Name == "origin" {
			return "origin"
		}
	}
	return remotes[0].Config().Name
}
