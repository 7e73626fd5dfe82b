package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/bat-cli/internal/gitrepo"
	"github.com/phobologic/bat-cli/internal/layout"
	"github.com/phobologic/bat-cli/internal/review"
	"github.com/phobologic/bat-cli/internal/selection"
)

func (a *app) codeOverhaulCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "co",
		Aliases: []string{"code-overhaul"},
		Short:   "Manage code-overhaul files",
	}

	create := &cobra.Command{
		Use:   "create <entrypoint>",
		Short: "Create the code-overhaul file of one entrypoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			md, err := a.store().Load()
			if err != nil {
				return err
			}
			ep, err := selection.Entrypoint(md, args[0])
			if err != nil {
				return err
			}
			co, err := review.NewCodeOverhaul(md, ep, a.readSource, a.cfg.Auditor.Name)
			if err != nil {
				return err
			}
			p, created, err := a.reviewer().CreateCodeOverhaul(co)
			if err != nil {
				return err
			}
			if !created {
				_, _ = fmt.Fprintf(a.stdout, "%s already exists\n", a.rel(p))
				return nil
			}
			_, _ = fmt.Fprintln(a.stdout, a.rel(p))
			return a.commit(gitrepo.Message("co", "create", ep.Name), p)
		},
	}

	start := &cobra.Command{
		Use:   "start <entrypoint>",
		Short: "Move an entrypoint's file to started",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := a.reviewer().StartCodeOverhaul(args[0])
			if err != nil {
				return err
			}
			a.printMoves(m)
			return a.commit(gitrepo.Message("co", "start", args[0]), movedPaths(m)...)
		},
	}

	finish := &cobra.Command{
		Use:   "finish <entrypoint>",
		Short: "Move an entrypoint's file to finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := a.reviewer().FinishCodeOverhaul(args[0])
			if err != nil {
				return err
			}
			a.printMoves(m)
			return a.commit(gitrepo.Message("co", "finish", args[0]), movedPaths(m)...)
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the review status of every finding and code-overhaul file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			st, err := a.reviewer().Status()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.stdout, "code-overhaul:")
			for _, s := range layout.CodeOverhaulStages {
				a.printStage(s, st.CodeOverhaul[s])
			}
			_, _ = fmt.Fprintln(a.stdout, "findings:")
			for _, s := range layout.FindingStages {
				a.printStage(s, st.Findings[s])
			}
			return nil
		},
	}

	cmd.AddCommand(create, start, finish, status)
	return cmd
}

func (a *app) printStage(s layout.Stage, names []string) {
	line := fmt.Sprintf("  %s: %d", s, len(names))
	if len(names) > 0 {
		line += " (" + strings.Join(names, ", ") + ")"
	}
	_, _ = fmt.Fprintln(a.stdout, line)
}
