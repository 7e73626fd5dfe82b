package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/phobologic/bat-cli/internal/metadata"
	"github.com/phobologic/bat-cli/internal/model"
	"github.com/phobologic/bat-cli/internal/selection"
)

func (a *app) metadataCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Inspect the metadata store",
	}
	cmd.AddCommand(a.metadataListCommand(), a.metadataCallsCommand())
	return cmd
}

func (a *app) metadataListCommand() *cobra.Command {
	var q struct {
		typ     string
		filter  string
		subType string
	}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List metadata records",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			t, err := metadataType(q.typ, true)
			if err != nil {
				return err
			}
			md, err := a.store().Load()
			if err != nil {
				return err
			}
			records := selection.Select(md, selection.Query{Type: t, Filter: q.filter, SubType: q.subType})
			for _, r := range records {
				sub := r.SubType
				if sub == "" {
					sub = "-"
				}
				_, _ = fmt.Fprintf(a.stdout, "%-11s %-16s %-32s %s:%d-%d\n", r.Type, sub, r.Name, r.Path, r.StartLine, r.EndLine)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&q.typ, "type", "t", "", "functions, structs, traits or entrypoints")
	cmd.Flags().StringVarP(&q.filter, "filter", "f", "", "case-insensitive substring of the name or path")
	cmd.Flags().StringVar(&q.subType, "sub-type", "", "function_type, struct_type or trait_type value")
	return cmd
}

func (a *app) metadataCallsCommand() *cobra.Command {
	var callers, reachable bool
	cmd := &cobra.Command{
		Use:   "calls <function>",
		Short: "Print the functions a function calls",
		Long: `Print the program functions called directly by a function. With --callers
print the functions calling it instead, with --reachable every function it
reaches through any chain of calls.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			md, err := a.store().Load()
			if err != nil {
				return err
			}
			name := args[0]
			if !slices.ContainsFunc(md.Functions, func(f model.FunctionMetadata) bool { return f.Name == name }) {
				return fmt.Errorf("%w: %s", errFunctionNotFound, name)
			}
			g, err := metadata.CallGraph(md, a.readSource)
			if err != nil {
				return err
			}

			var names []string
			switch {
			case callers:
				names = g.Callers(name)
			case reachable:
				names = g.Reachable(name)
			default:
				names = g.Dependencies(name)
			}
			for _, n := range names {
				_, _ = fmt.Fprintln(a.stdout, n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&callers, "callers", false, "print the callers of the function")
	cmd.Flags().BoolVar(&reachable, "reachable", false, "print every function transitively called")
	cmd.MarkFlagsMutuallyExclusive("callers", "reachable")
	return cmd
}

// metadataType parses a metadata type name. An empty name is accepted only
// when optional is set.
func metadataType(s string, optional bool) (model.MetadataType, error) {
	if s == "" && optional {
		return "", nil
	}
	t := model.MetadataType(s)
	if !slices.Contains(model.MetadataTypes, t) {
		return "", fmt.Errorf("unknown metadata type %q", s)
	}
	return t, nil
}
