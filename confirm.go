package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/phobologic/bat-cli/internal/sonar"
)

var errNoAnswer = errors.New("no answer on standard input")

// prompt returns a decision asking the auditor to accept every named
// candidate found in path. Unnamed kinds are accepted without asking.
func (a *app) prompt(path string) sonar.Decision {
	return func(candidate sonar.Result) (bool, error) {
		if !candidate.Kind.Named() {
			return true, nil
		}
		for {
			_, _ = fmt.Fprintf(a.stdout, "%s:%d %s %s\n  %s\naccept? [y/n] ",
				path, candidate.StartLine+1, candidate.Kind, candidate.Name, strings.TrimSpace(candidate.FirstLine()))

			line, err := a.stdin.ReadString('\n')
			answer := strings.ToLower(strings.TrimSpace(line))
			switch answer {
			case "y", "yes":
				return true, nil
			case "n", "no":
				return false, nil
			}
			if errors.Is(err, io.EOF) {
				return false, errNoAnswer
			}
			if err != nil {
				return false, fmt.Errorf("reading answer: %w", err)
			}
		}
	}
}
