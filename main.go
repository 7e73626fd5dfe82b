// bat-cli assists Solana/Anchor program audits: it maps the program sources
// into Markdown metadata and drives the finding and code-overhaul review
// workflow.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/phobologic/bat-cli/internal/config"
	"github.com/phobologic/bat-cli/internal/gitrepo"
	"github.com/phobologic/bat-cli/internal/layout"
	"github.com/phobologic/bat-cli/internal/logging"
	"github.com/phobologic/bat-cli/internal/metadata"
	"github.com/phobologic/bat-cli/internal/review"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	return newApp(os.Stdin, stdout, stderr).execute(args)
}

// app holds what every command needs once the root command has loaded the
// configuration.
type app struct {
	stdin  *bufio.Reader
	stdout io.Writer
	stderr io.Writer

	logs *logging.Factory

	dir        string
	configFile string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *zap.Logger
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  bufio.NewReader(stdin),
		stdout: stdout,
		stderr: stderr,
		logs:   logging.NewFactory(),
		logger: zap.NewNop(),
	}
}

func (a *app) execute(args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	defer func() { _ = a.logger.Sync() }()
	return root.ExecuteContext(context.Background())
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "bat-cli",
		Short:         "Audit toolkit for Anchor programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	a.globalFlags(root.PersistentFlags())
	root.AddCommand(
		a.initCommand(),
		a.sonarCommand(),
		a.metadataCommand(),
		a.findingCommand(),
		a.codeOverhaulCommand(),
		a.figureCommand(),
		a.resultCommand(),
		a.versionCommand(),
	)
	return root
}

func (a *app) globalFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&a.dir, "dir", "C", ".", "audit project directory")
	fs.StringVar(&a.configFile, "config", "", "config file (default <dir>/"+config.FileName+")")
	fs.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&a.logFormat, "log-format", "", "log format: structured or console")
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.resolveDir(); err != nil {
		return err
	}
	cfg, err := config.Load(a.dir, a.configFile)
	if err != nil {
		return err
	}
	return a.use(cmd, cfg)
}

func (a *app) resolveDir() error {
	dir, err := filepath.Abs(a.dir)
	if err != nil {
		return fmt.Errorf("resolving project directory: %w", err)
	}
	a.dir = dir
	return nil
}

// use installs cfg and builds the logger. Flags override the configured log
// settings.
func (a *app) use(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}

	logger, err := a.logs.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// path resolves a configured path against the project directory.
func (a *app) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.dir, p)
}

func (a *app) layout() layout.Layout {
	return layout.New(a.path(a.cfg.Project.NotesPath))
}

func (a *app) store() *metadata.Store {
	return metadata.NewStore(a.layout())
}

func (a *app) reviewer() *review.Reviewer {
	return review.New(a.layout(),
		review.WithLogger(a.logger),
		review.WithCodePrefix(a.cfg.Project.FindingPrefix),
	)
}

// readSource reads a program file by its metadata path.
func (a *app) readSource(p string) (string, error) {
	data, err := os.ReadFile(a.path(filepath.FromSlash(p)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (a *app) gitConfig() gitrepo.Config {
	return gitrepo.Config{
		WorkDir:     a.dir,
		AutoCommit:  a.cfg.Git.AutoCommit,
		AuthorName:  a.cfg.Git.AuthorName,
		AuthorEmail: a.cfg.Git.AuthorEmail,
	}
}

// commit records paths in the audit repository. A project outside a git
// repository is logged and left uncommitted.
func (a *app) commit(msg string, paths ...string) error {
	repo, err := gitrepo.Open(a.gitConfig())
	if errors.Is(err, gitrepo.ErrNoGit) {
		a.logger.Warn("skipping commit", zap.String("dir", a.dir), zap.Error(err))
		return nil
	}
	if err != nil {
		return err
	}
	committed, err := repo.Commit(msg, paths...)
	if err != nil {
		return err
	}
	if committed {
		a.logger.Info("committed", zap.String("message", msg))
	}
	return nil
}

func movedPaths(moves ...review.Move) []string {
	paths := make([]string, 0, 2*len(moves))
	for _, m := range moves {
		paths = append(paths, m.From, m.To)
	}
	return paths
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bat-cli version",
		Args:  cobra.NoArgs,
		// version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(a.stdout, "bat-cli %s\n", version)
			return err
		},
	}
}
