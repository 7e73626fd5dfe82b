// Package config loads and writes the bat.yaml audit project configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file created by "bat-cli init".
const FileName = "bat.yaml"

// Confirmation modes for sonar candidates.
const (
	ConfirmNone        = "none"
	ConfirmSyntax      = "syntax"
	ConfirmInteractive = "interactive"
)

// Config is the complete audit project configuration.
type Config struct {
	Project ProjectConfig `yaml:"project" mapstructure:"project"`
	Auditor AuditorConfig `yaml:"auditor" mapstructure:"auditor"`
	Sonar   SonarConfig   `yaml:"sonar" mapstructure:"sonar"`
	Git     GitConfig     `yaml:"git" mapstructure:"git"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ProjectConfig locates the audited program and the audit notes.
type ProjectConfig struct {
	Name          string `yaml:"name" mapstructure:"name"`
	ProgramPath   string `yaml:"program_path" mapstructure:"program_path"` // program src directory
	NotesPath     string `yaml:"notes_path" mapstructure:"notes_path"`
	FindingPrefix string `yaml:"finding_prefix" mapstructure:"finding_prefix"` // code prefix in the findings result, "KS" for KS-01
}

type AuditorConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
}

// SonarConfig controls metadata extraction.
type SonarConfig struct {
	Confirm       string   `yaml:"confirm" mapstructure:"confirm"` // none, syntax or interactive
	SkipMalformed bool     `yaml:"skip_malformed" mapstructure:"skip_malformed"`
	Ignore        []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns relative to program_path
	IncludeTests  bool     `yaml:"include_tests" mapstructure:"include_tests"`
}

// GitConfig controls commits of the notes repository.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit" mapstructure:"auto_commit"`
	AuthorName  string `yaml:"author_name" mapstructure:"author_name"`
	AuthorEmail string `yaml:"author_email" mapstructure:"author_email"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns a configuration with every value set.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:          "program",
			ProgramPath:   "programs/program/src",
			NotesPath:     "notes",
			FindingPrefix: "KS",
		},
		Sonar: SonarConfig{
			Confirm:       ConfirmSyntax,
			SkipMalformed: true,
			Ignore:        []string{"**/tests/**"},
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "bat-cli",
			AuthorEmail: "bat-cli@localhost",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Encode renders cfg as bat.yaml content.
func Encode(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// Write stores cfg as YAML at path.
func Write(path string, cfg *Config) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
