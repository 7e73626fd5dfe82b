// Package review manages the finding and code-overhaul files of an audit.
package review

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/phobologic/bat-cli/internal/layout"
)

var (
	ErrFindingExists          = errors.New("finding already exists")
	ErrFindingNotFound        = errors.New("finding not found")
	ErrUnknownSeverity        = errors.New("unknown severity")
	ErrCodeOverhaulNotFound   = errors.New("code-overhaul file not found")
	ErrCodeOverhaulIncomplete = errors.New("code-overhaul file has pending sections")
	ErrInvalidName            = errors.New("invalid file name")
)

// Move records a file moved between review stages.
type Move struct {
	From string
	To   string
}

// Reviewer performs review workflow operations on a notes layout.
type Reviewer struct {
	layout     layout.Layout
	logger     *zap.Logger
	codePrefix string
}

type Option func(*Reviewer)

func WithLogger(l *zap.Logger) Option {
	return func(r *Reviewer) { r.logger = l }
}

// WithCodePrefix sets the prefix of finding codes in the findings result.
func WithCodePrefix(p string) Option {
	return func(r *Reviewer) {
		if p != "" {
			r.codePrefix = p
		}
	}
}

func New(l layout.Layout, opts ...Option) *Reviewer {
	r := &Reviewer{layout: l, logger: zap.NewNop(), codePrefix: DefaultCodePrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reviewer) move(from, to string) (Move, error) {
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return Move{}, fmt.Errorf("creating %s: %w", filepath.Dir(to), err)
	}
	if err := os.Rename(from, to); err != nil {
		return Move{}, fmt.Errorf("moving %s: %w", filepath.Base(from), err)
	}
	r.logger.Debug("moved review file", zap.String("from", from), zap.String("to", to))
	return Move{From: from, To: to}, nil
}

// fileName validates name and returns its Markdown file name.
func fileName(name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".md")
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name + ".md", nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
