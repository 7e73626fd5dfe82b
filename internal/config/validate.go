package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/bat-cli/internal/logging"
)

var (
	ErrInvalidConfirmMode = errors.New("invalid sonar confirm mode")
	ErrEmptyPath          = errors.New("empty path")
)

// Validate checks cfg and reports every problem found.
func Validate(cfg *Config) error {
	var errs []error

	switch cfg.Sonar.Confirm {
	case ConfirmNone, ConfirmSyntax, ConfirmInteractive:
	default:
		errs = append(errs, fmt.Errorf("%w: must be one of %s, got %q", ErrInvalidConfirmMode,
			strings.Join([]string{ConfirmNone, ConfirmSyntax, ConfirmInteractive}, ", "), cfg.Sonar.Confirm))
	}

	if strings.TrimSpace(cfg.Project.ProgramPath) == "" {
		errs = append(errs, fmt.Errorf("%w: project.program_path", ErrEmptyPath))
	}
	if strings.TrimSpace(cfg.Project.NotesPath) == "" {
		errs = append(errs, fmt.Errorf("%w: project.notes_path", ErrEmptyPath))
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseFormat(cfg.Log.Format); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
