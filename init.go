package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phobologic/bat-cli/internal/config"
	"github.com/phobologic/bat-cli/internal/gitrepo"
)

const (
	sentinelStart = "# >>> bat-cli >>>"
	sentinelEnd   = "# <<< bat-cli <<<"
)

type initOptions struct {
	name        string
	programPath string
	auditor     string
	dryRun      bool
}

// initCommand implements `bat-cli init`, which writes bat.yaml, creates the
// notes layout and a bat-cli section in .gitignore, and commits them.
func (a *app) initCommand() *cobra.Command {
	var opts initOptions
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an audit project in the project directory",
		Long: `Create an audit project: write ` + config.FileName + `, create the notes
folders and add a bat-cli section to .gitignore. The section is wrapped in
sentinel comments so it can be updated in place on subsequent runs without
touching surrounding content. An existing configuration is kept unless a
flag changes it.`,
		Args: cobra.NoArgs,
		// init starts from the defaults when no configuration exists yet.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.resolveDir(); err != nil {
				return err
			}
			cfg := config.Default()
			if _, err := os.Stat(a.configTarget()); err == nil {
				loaded, err := config.Load(a.dir, a.configTarget())
				if err != nil {
					return err
				}
				cfg = loaded
			}
			return a.use(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runInit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "program name")
	cmd.Flags().StringVar(&opts.programPath, "program-path", "", "program src directory, relative to the project directory")
	cmd.Flags().StringVar(&opts.auditor, "auditor", "", "auditor name")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print what would be written without modifying any file")
	return cmd
}

func (a *app) configTarget() string {
	if a.configFile != "" {
		return a.configFile
	}
	return filepath.Join(a.dir, config.FileName)
}

func (a *app) runInit(cmd *cobra.Command, opts initOptions) error {
	cfg := a.cfg
	changed := false
	if cmd.Flags().Changed("name") {
		cfg.Project.Name, changed = opts.name, true
	}
	if cmd.Flags().Changed("program-path") {
		cfg.Project.ProgramPath, changed = opts.programPath, true
	}
	if cmd.Flags().Changed("auditor") {
		cfg.Auditor.Name, changed = opts.auditor, true
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfgPath := a.configTarget()
	ignorePath := filepath.Join(a.dir, ".gitignore")
	existing, err := os.ReadFile(ignorePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", ignorePath, err)
	}
	ignore := applySection(string(existing), generateSection())

	if opts.dryRun {
		data, err := config.Encode(cfg)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.stdout, "%s:\n%s\n.gitignore:\n%s", cfgPath, data, ignore)
		for _, dir := range a.layout().Dirs() {
			_, _ = fmt.Fprintf(a.stdout, "mkdir %s\n", dir)
		}
		return nil
	}

	if _, err := os.Stat(cfgPath); changed || errors.Is(err, os.ErrNotExist) {
		if err := config.Write(cfgPath, cfg); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.stderr, "wrote %s\n", cfgPath)
	}

	created, err := a.layout().Create()
	if err != nil {
		return err
	}
	for _, dir := range created {
		a.logger.Debug("created directory", zap.String("path", dir))
	}

	if err := os.WriteFile(ignorePath, []byte(ignore), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ignorePath, err)
	}

	if !cfg.Git.AutoCommit {
		return nil
	}
	repo, err := gitrepo.Init(a.gitConfig())
	if err != nil {
		return err
	}
	_, err = repo.Commit(gitrepo.Message("init", "project", cfg.Project.Name), cfgPath, ignorePath, a.layout().Root)
	return err
}

// generateSection returns the sentinel-wrapped .gitignore block.
func generateSection() string {
	body := `.DS_Store
*.swp
target/
.anchor/
test-ledger/`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}
	// Append, ensuring a blank line separator.
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
