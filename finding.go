package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/bat-cli/internal/gitrepo"
	"github.com/phobologic/bat-cli/internal/review"
)

func (a *app) findingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finding",
		Short: "Manage finding files",
	}

	var informational bool
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a finding in findings/to-review",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := a.reviewer().CreateFinding(args[0], informational)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.stdout, p)
			return a.commit(gitrepo.Message("finding", "create", findingName(p)), p)
		},
	}
	create.Flags().BoolVarP(&informational, "informational", "i", false, "use the informational template")

	prepare := &cobra.Command{
		Use:   "prepare",
		Short: "Prefix every to-review finding with its severity",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			moves, err := a.reviewer().PrepareFindings()
			if err != nil {
				return err
			}
			a.printMoves(moves...)
			return a.commit(gitrepo.Message("finding", "prepare"), movedPaths(moves...)...)
		},
	}

	acceptAll := &cobra.Command{
		Use:   "accept-all",
		Short: "Move every to-review finding to accepted",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			moves, err := a.reviewer().AcceptAll()
			if err != nil {
				return err
			}
			a.printMoves(moves...)
			return a.commit(gitrepo.Message("finding", "accept-all"), movedPaths(moves...)...)
		},
	}

	reject := &cobra.Command{
		Use:   "reject <name>",
		Short: "Move a to-review finding to rejected",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := a.reviewer().RejectFinding(args[0])
			if err != nil {
				return err
			}
			a.printMoves(m)
			return a.commit(gitrepo.Message("finding", "reject", findingName(m.To)), movedPaths(m)...)
		},
	}

	cmd.AddCommand(create, prepare, acceptAll, reject)
	return cmd
}

func (a *app) printMoves(moves ...review.Move) {
	for _, m := range moves {
		_, _ = fmt.Fprintf(a.stdout, "%s -> %s\n", a.rel(m.From), a.rel(m.To))
	}
}

func findingName(p string) string {
	return strings.TrimSuffix(filepath.Base(p), ".md")
}

// rel shortens p to a path relative to the project directory when possible.
func (a *app) rel(p string) string {
	if r, err := filepath.Rel(a.dir, p); err == nil {
		return r
	}
	return p
}
