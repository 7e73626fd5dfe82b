package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phobologic/bat-cli/internal/gitrepo"
)

func (a *app) resultCommand() *cobra.Command {
	var noCommit bool
	cmd := &cobra.Command{
		Use:   "result",
		Short: "Gather the accepted findings into findings_result.md",
		Long: `Number the accepted findings in file order, render their table and their
content into findings_result.md at the notes root and commit it with the
figures the findings reference.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			res, err := a.reviewer().Result()
			if err != nil {
				return err
			}
			for _, f := range res.Findings {
				_, _ = fmt.Fprintf(a.stdout, "%s %-13s %s\n", f.Code, f.Severity, f.Title)
			}
			_, _ = fmt.Fprintln(a.stdout, a.rel(res.Path))
			if noCommit {
				return nil
			}
			return a.commit(gitrepo.Message("result", "findings"), append([]string{res.Path}, res.Figures...)...)
		},
	}
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "do not commit the result")

	commit := &cobra.Command{
		Use:   "commit",
		Short: "Commit the current findings_result.md",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			p := a.layout().ResultFile()
			if _, err := os.Stat(p); err != nil {
				return fmt.Errorf("findings result: %w", err)
			}
			return a.commit(gitrepo.Message("result", "commit"), p, a.layout().Figures())
		},
	}
	cmd.AddCommand(commit)
	return cmd
}
