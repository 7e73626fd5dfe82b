package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/bat-cli/internal/figure"
	"github.com/phobologic/bat-cli/internal/gitrepo"
	"github.com/phobologic/bat-cli/internal/selection"
)

func (a *app) figureCommand() *cobra.Command {
	var (
		opts          = figure.DefaultOptions()
		noLineNumbers bool
		save          bool
	)
	cmd := &cobra.Command{
		Use:   "figure <metadata-type> <name>",
		Short: "Render the source of a metadata record as a figure",
		Long: `Render the source of a metadata record as a figure. The name may be
qualified with its path ("path:name") when several records share it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := metadataType(args[0], false)
			if err != nil {
				return err
			}
			md, err := a.store().Load()
			if err != nil {
				return err
			}
			rec, err := selection.Find(md, t, args[1])
			if err != nil {
				return err
			}
			content, err := a.readSource(rec.Path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", rec.Path, err)
			}

			opts.LineNumbers = !noLineNumbers
			out, err := figure.Render(content, rec.Location, opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(a.stdout, out)

			if !save {
				return nil
			}
			dir := a.layout().Figures()
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}
			p := filepath.Join(dir, rec.Name+".rs")
			if err := os.WriteFile(p, []byte(out), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", p, err)
			}
			return a.commit(gitrepo.Message("figure", "create", rec.Name), p)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.IncludePath, "include-path", false, "prepend a path:lines header")
	f.BoolVar(&opts.FilterComments, "filter-comments", false, "drop comments")
	f.StringArrayVar(&opts.Filters, "filter", nil, "drop lines containing this text (repeatable)")
	f.BoolVar(&noLineNumbers, "no-line-numbers", false, "do not number lines")
	f.BoolVar(&opts.Offset, "offset", false, "number lines as in the source file")
	f.BoolVar(&save, "save", false, "also write the figure to the figures folder")
	return cmd
}
