package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phobologic/bat-cli/internal/config"
	"github.com/phobologic/bat-cli/internal/discover"
	"github.com/phobologic/bat-cli/internal/gitrepo"
	"github.com/phobologic/bat-cli/internal/metadata"
	"github.com/phobologic/bat-cli/internal/model"
	"github.com/phobologic/bat-cli/internal/parse"
	"github.com/phobologic/bat-cli/internal/progress"
	"github.com/phobologic/bat-cli/internal/review"
	"github.com/phobologic/bat-cli/internal/sonar"
)

var errFunctionNotFound = errors.New("function not found")

func (a *app) sonarCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sonar",
		Short: "Scan the program sources",
	}
	cmd.AddCommand(a.sonarRunCommand(), a.sonarScanCommand(), a.sonarParamsCommand())
	return cmd
}

func (a *app) sonarRunCommand() *cobra.Command {
	var (
		confirm  string
		noCommit bool
		quiet    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the metadata store and the code-overhaul files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("confirm") {
				a.cfg.Sonar.Confirm = confirm
				if err := config.Validate(a.cfg); err != nil {
					return fmt.Errorf("invalid configuration: %w", err)
				}
			}
			return a.sonarRun(cmd.Context(), !noCommit, quiet)
		},
	}
	cmd.Flags().StringVar(&confirm, "confirm", "", "candidate confirmation: none, syntax or interactive")
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "do not commit the generated files")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}

func (a *app) sonarRun(ctx context.Context, commit, quiet bool) error {
	sources, err := a.programSources()
	if err != nil {
		return err
	}

	var reporter progress.Reporter = progress.Nop{}
	if !quiet && a.cfg.Sonar.Confirm != config.ConfirmInteractive {
		reporter = progress.NewBar(a.stderr, "scanning")
	}
	builder := metadata.NewBuilder(
		metadata.WithLogger(a.logger),
		metadata.WithReporter(reporter),
		metadata.WithScannerFactory(a.scannerFactory()),
	)
	md, err := builder.Build(ctx, sources)
	if err != nil {
		return err
	}

	store := a.store()
	if err := store.Save(md); err != nil {
		return err
	}

	reviewer := a.reviewer()
	var created []string
	for _, ep := range md.Entrypoints {
		co, err := review.NewCodeOverhaul(md, ep, a.readSource, a.cfg.Auditor.Name)
		if err != nil {
			return err
		}
		p, ok, err := reviewer.CreateCodeOverhaul(co)
		if err != nil {
			return err
		}
		if ok {
			created = append(created, p)
		}
	}

	_, _ = fmt.Fprintf(a.stdout, "functions: %d\nstructs: %d\ntraits: %d\nentrypoints: %d\ncode-overhaul files created: %d\n",
		len(md.Functions), len(md.Structs), len(md.Traits), len(md.Entrypoints), len(created))

	if !commit {
		return nil
	}
	paths := append([]string{a.layout().Metadata()}, created...)
	return a.commit(gitrepo.Message("sonar", "run", a.cfg.Project.Name), paths...)
}

// programSources reads every discovered file of the program. Paths are
// slash separated and relative to the project directory.
func (a *app) programSources() ([]metadata.Source, error) {
	programDir := a.path(a.cfg.Project.ProgramPath)
	info, err := os.Stat(programDir)
	if err != nil {
		return nil, fmt.Errorf("program path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", programDir)
	}

	files, err := discover.Files(programDir, a.cfg.Sonar.Ignore)
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	if !a.cfg.Sonar.IncludeTests {
		files = slices.DeleteFunc(files, func(f discover.FileEntry) bool {
			return discover.IsTestFile(f.Path)
		})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no rust files found in %s", programDir)
	}

	base := filepath.ToSlash(a.cfg.Project.ProgramPath)
	sources := make([]metadata.Source, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(programDir, filepath.FromSlash(f.Path)))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Path, err)
		}
		sources = append(sources, metadata.Source{Path: path.Join(base, f.Path), Content: string(data)})
	}
	a.logger.Debug("discovered program files", zap.String("dir", programDir), zap.Int("files", len(sources)))
	return sources, nil
}

// scanner returns a scanner honoring the malformed signature policy with an
// optional decision.
func (a *app) scanner(path string, decide sonar.Decision) *sonar.Scanner {
	var opts []sonar.Option
	if decide != nil {
		opts = append(opts, sonar.WithDecision(decide))
	}
	if a.cfg.Sonar.SkipMalformed {
		opts = append(opts, sonar.WithSkipMalformed(func(line int, err error) {
			a.logger.Warn("skipping malformed declaration",
				zap.String("path", path), zap.Int("line", line+1), zap.Error(err))
		}))
	}
	return sonar.New(opts...)
}

func (a *app) scannerFactory() metadata.ScannerFactory {
	return func(src metadata.Source, tags []model.Tag) *sonar.Scanner {
		switch a.cfg.Sonar.Confirm {
		case config.ConfirmSyntax:
			return a.scanner(src.Path, parse.Confirmer(tags))
		case config.ConfirmInteractive:
			return a.scanner(src.Path, a.prompt(src.Path))
		default:
			return a.scanner(src.Path, nil)
		}
	}
}

func (a *app) sonarScanCommand() *cobra.Command {
	var (
		kind    string
		region  string
		content bool
	)
	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Print the declarations of one kind found in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			k, err := sonar.ParseKind(kind)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			s := a.scanner(args[0], nil)
			var results []sonar.Result
			if region != "" {
				results, err = s.ScanRegion(string(data), region, k)
			} else {
				results, err = s.Scan(string(data), k)
			}
			if err != nil {
				return err
			}

			for _, r := range results {
				vis := ""
				if r.IsPublic {
					vis = " pub"
				}
				_, _ = fmt.Fprintf(a.stdout, "%s %s %d-%d%s\n", r.Name, r.Kind, r.StartLine+1, r.EndLine+1, vis)
				if content {
					_, _ = fmt.Fprintln(a.stdout, r.Content)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "function", "kind: function, struct, module, if, validation or context_accounts")
	cmd.Flags().StringVar(&region, "region", "", "scan only the block opened by the first line containing this marker")
	cmd.Flags().BoolVar(&content, "content", false, "print the content of every declaration")
	return cmd
}

func (a *app) sonarParamsCommand() *cobra.Command {
	var function string
	cmd := &cobra.Command{
		Use:   "params <file>",
		Short: "Print the parameters of a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			results, err := a.scanner(args[0], nil).Scan(string(data), sonar.Function)
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Name != function {
					continue
				}
				params := sonar.ExtractParameters(r.Content)
				if len(params) > 0 {
					_, _ = fmt.Fprintln(a.stdout, strings.Join(params, "\n"))
				}
				return nil
			}
			return fmt.Errorf("%w: %s in %s", errFunctionNotFound, function, args[0])
		},
	}
	cmd.Flags().StringVarP(&function, "function", "f", "", "function name")
	_ = cmd.MarkFlagRequired("function")
	return cmd
}
