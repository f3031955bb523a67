// Package config loads the declarative release configuration and merges
// command-line flags over it.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/release-conductor/release-conductor/pkg/commit"
)

// DefaultFileName is the config file looked up at the git root when no
// --config flag is given.
const DefaultFileName = "release-conductor.yaml"

// DefaultVersionFile is the single-line marker file written during
// reconciliation and read by the tag workflow.
const DefaultVersionFile = "version.txt"

type Config struct {
	ReleaseRules          ReleaseRules       `yaml:"release-rules"`
	VersionPrefix         string             `yaml:"version-prefix"`
	ChangelogPath         string             `yaml:"changelog-path"`
	ChangelogSections     []ChangelogSection `yaml:"changelog-sections"`
	SourceBranch          string             `yaml:"source-branch"`
	ReleaseBranchName     string             `yaml:"release-branch-name"`
	ReleaseCommitPatterns []string           `yaml:"release-commit-patterns"`
	Git                   GitIdentity        `yaml:"git"`
	ExtraFiles            []ExtraFile        `yaml:"extra-files"`
	GitHub                HostAuth           `yaml:"github"`
	GitLab                HostAuth           `yaml:"gitlab"`
	Azure                 HostAuth           `yaml:"azure"`

	// Flag-only settings, never read from the file.
	DryRun  bool   `yaml:"-"`
	Verbose bool   `yaml:"-"`
	GitHost string `yaml:"-"`
}

type ReleaseRules struct {
	Major []string `yaml:"major"`
	Minor []string `yaml:"minor"`
	Patch []string `yaml:"patch"`
}

type ChangelogSection struct {
	Type    string `yaml:"type"`
	Section string `yaml:"section"`
}

type GitIdentity struct {
	UserName  string `yaml:"user-name"`
	UserEmail string `yaml:"user-email"`
}

// ExtraFile configures one file the bumpers rewrite during reconciliation.
type ExtraFile struct {
	Type      string `yaml:"type"` // yaml | toml | json | generic
	Path      string `yaml:"path"`
	YAMLPath  string `yaml:"yaml-path"`
	TOMLPath  string `yaml:"toml-path"`
	JSONPath  string `yaml:"json-path"`
	UsePrefix string `yaml:"use-prefix"`
}

// Locator returns the path expression matching the file type.
func (f ExtraFile) Locator() string {
	switch f.Type {
	case "yaml":
		return f.YAMLPath
	case "toml":
		return f.TOMLPath
	case "json":
		return f.JSONPath
	default:
		return ""
	}
}

type HostAuth struct {
	Token string `yaml:"token"`
}

func Default() *Config {
	return &Config{
		ReleaseRules: ReleaseRules{
			Major: []string{"breaking"},
			Minor: []string{"feat"},
			Patch: []string{"fix", "perf", "chore", "docs", "refactor", "style", "test", "ci"},
		},
		ChangelogPath: "CHANGELOG.md",
		SourceBranch:  "main",
		ChangelogSections: []ChangelogSection{
			{Type: "feat", Section: "Features"},
			{Type: "fix", Section: "Bug Fixes"},
			{Type: "chore", Section: "Miscellaneous Changes"},
			{Type: "ci", Section: "Miscellaneous Changes"},
			{Type: "docs", Section: "Documentation"},
			{Type: "refactor", Section: "Code Refactoring"},
		},
		Git: GitIdentity{
			UserName:  "Release Conductor Bot",
			UserEmail: "release-conductor-bot@users.noreply.github.com",
		},
	}
}

// Load reads and validates a config file. Defaults fill in everything the
// file leaves out, except release-rules which must be present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Start from an empty config so we can tell whether the file carries
	// its own release-rules section.
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) validate() error {
	r := c.ReleaseRules
	if len(r.Major) == 0 && len(r.Minor) == 0 && len(r.Patch) == 0 {
		return fmt.Errorf("'release-rules' must define at least one of: major, minor, patch")
	}
	for _, f := range c.ExtraFiles {
		if f.Path == "" {
			return fmt.Errorf("extra-files entry is missing 'path'")
		}
		switch f.Type {
		case "yaml", "toml", "json":
			if f.Locator() == "" {
				return fmt.Errorf("extra-files entry %s is missing '%s-path'", f.Path, f.Type)
			}
		case "generic":
		case "":
			return fmt.Errorf("extra-files entry %s is missing 'type'", f.Path)
		default:
			return fmt.Errorf("extra-files entry %s has unsupported type %q", f.Path, f.Type)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.ChangelogPath == "" {
		c.ChangelogPath = def.ChangelogPath
	}
	if c.SourceBranch == "" {
		c.SourceBranch = def.SourceBranch
	}
	if len(c.ChangelogSections) == 0 {
		c.ChangelogSections = def.ChangelogSections
	}
	if c.Git.UserName == "" {
		c.Git.UserName = def.Git.UserName
	}
	if c.Git.UserEmail == "" {
		c.Git.UserEmail = def.Git.UserEmail
	}
}

// MergeFlags applies the common command-line flags over the file config.
// Flags win over the file, the file wins over defaults.
func MergeFlags(cfg *Config, flags *pflag.FlagSet) *Config {
	if v, err := flags.GetBool("dry-run"); err == nil {
		cfg.DryRun = v
	}
	if v, err := flags.GetBool("verbose"); err == nil {
		cfg.Verbose = v
	}
	if v, err := flags.GetString("git-host"); err == nil && v != "" {
		cfg.GitHost = v
	}
	return cfg
}

// ReleaseBranch returns the configured release branch name or the generated
// default for the source branch.
func (c *Config) ReleaseBranch() string {
	if c.ReleaseBranchName != "" {
		return c.ReleaseBranchName
	}
	return "release-conductor--branches--" + c.SourceBranch
}

// Rules converts the YAML rule lists to the classifier's rule set.
func (c *Config) Rules() commit.Rules {
	return commit.Rules{
		Major: c.ReleaseRules.Major,
		Minor: c.ReleaseRules.Minor,
		Patch: c.ReleaseRules.Patch,
	}
}

// GitHubToken returns the GitHub token; the environment takes precedence
// over the config file.
func (c *Config) GitHubToken() string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	return c.GitHub.Token
}

func (c *Config) GitLabToken() string {
	if t := os.Getenv("GITLAB_TOKEN"); t != "" {
		return t
	}
	return c.GitLab.Token
}

func (c *Config) AzureToken() string {
	if t := os.Getenv("AZURE_DEVOPS_TOKEN"); t != "" {
		return t
	}
	return c.Azure.Token
}
