// Package gitrepo commits audit notes changes to the audit git repository.
package gitrepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNoGit is returned when the directory is not inside a git repository.
var ErrNoGit = errors.New("not a git repository")

// Config configures commits.
type Config struct {
	WorkDir     string // any directory inside the repository
	AutoCommit  bool
	AuthorName  string
	AuthorEmail string
}

// Repo wraps a go-git repository.
type Repo struct {
	repo *gogit.Repository
	root string
	cfg  Config
}

// Open opens the repository containing cfg.WorkDir.
func Open(cfg Config) (*Repo, error) {
	r, err := gogit.PlainOpenWithOptions(cfg.WorkDir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	return newRepo(r, cfg)
}

// Init opens the repository at cfg.WorkDir, creating it when missing.
func Init(cfg Config) (*Repo, error) {
	if repo, err := Open(cfg); err == nil {
		return repo, nil
	}
	r, err := gogit.PlainInit(cfg.WorkDir, false)
	if err != nil {
		return nil, fmt.Errorf("initializing repository: %w", err)
	}
	return newRepo(r, cfg)
}

func newRepo(r *gogit.Repository, cfg Config) (*Repo, error) {
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	return &Repo{repo: r, root: wt.Filesystem.Root(), cfg: cfg}, nil
}

// Message formats a commit message such as "finding(create): reentrancy".
func Message(scope, action string, subjects ...string) string {
	msg := fmt.Sprintf("%s(%s)", scope, action)
	if len(subjects) > 0 {
		msg += ": " + strings.Join(subjects, ", ")
	}
	return msg
}

// Commit stages paths, removing the ones no longer on disk, and commits
// them with msg. It reports whether a commit was created; nothing is
// committed when auto commit is disabled or no staged change remains.
func (r *Repo) Commit(msg string, paths ...string) (bool, error) {
	if !r.cfg.AutoCommit {
		return false, nil
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	for _, p := range paths {
		rel, err := r.relative(p)
		if err != nil {
			return false, err
		}
		if _, statErr := os.Stat(p); errors.Is(statErr, os.ErrNotExist) {
			if _, err := wt.Remove(rel); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
				return false, fmt.Errorf("staging removal of %s: %w", rel, err)
			}
			continue
		}
		if _, err := wt.Add(rel); err != nil {
			return false, fmt.Errorf("staging %s: %w", rel, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("getting status: %w", err)
	}
	staged := false
	for _, s := range status {
		if s.Staging != gogit.Unmodified && s.Staging != gogit.Untracked {
			staged = true
			break
		}
	}
	if !staged {
		return false, nil
	}

	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  r.cfg.AuthorName,
			Email: r.cfg.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}
	return true, nil
}

// LastMessage returns the message of the HEAD commit.
func (r *Repo) LastMessage() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("getting commit: %w", err)
	}
	return strings.TrimSpace(commit.Message), nil
}

func (r *Repo) relative(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", p, err)
	}
	root := r.root
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		if resolved, err := filepath.EvalSymlinks(r.root); err == nil {
			abs, root = filepath.Join(dir, filepath.Base(abs)), resolved
		}
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside the repository %s", p, r.root)
	}
	return filepath.ToSlash(rel), nil
}
