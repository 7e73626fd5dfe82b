package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. BAT_SONAR_CONFIRM.
const EnvPrefix = "BAT"

// Load reads configuration with the following priority (highest to lowest):
//  1. Environment variables (BAT_*)
//  2. The config file: file when set, else bat.yaml in rootDir
//  3. Default values
//
// A missing bat.yaml in rootDir is not an error; a missing explicit file is.
func Load(rootDir, file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.AddConfigPath(rootDir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("project.name", d.Project.Name)
	v.SetDefault("project.program_path", d.Project.ProgramPath)
	v.SetDefault("project.notes_path", d.Project.NotesPath)
	v.SetDefault("project.finding_prefix", d.Project.FindingPrefix)

	v.SetDefault("auditor.name", d.Auditor.Name)

	v.SetDefault("sonar.confirm", d.Sonar.Confirm)
	v.SetDefault("sonar.skip_malformed", d.Sonar.SkipMalformed)
	v.SetDefault("sonar.ignore", d.Sonar.Ignore)
	v.SetDefault("sonar.include_tests", d.Sonar.IncludeTests)

	v.SetDefault("git.auto_commit", d.Git.AutoCommit)
	v.SetDefault("git.author_name", d.Git.AuthorName)
	v.SetDefault("git.author_email", d.Git.AuthorEmail)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}
