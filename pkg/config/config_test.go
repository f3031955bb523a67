package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
release-rules:
  major:
    - breaking
  minor:
    - feat
  patch:
    - fix
version-prefix: "v"
source-branch: develop
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "v", cfg.VersionPrefix)
	assert.Equal(t, "develop", cfg.SourceBranch)
	assert.Equal(t, "release-conductor--branches--develop", cfg.ReleaseBranch())
	// Defaults fill in what the file left out.
	assert.Equal(t, "CHANGELOG.md", cfg.ChangelogPath)
	assert.NotEmpty(t, cfg.ChangelogSections)
	assert.Equal(t, "Release Conductor Bot", cfg.Git.UserName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRequiresReleaseRules(t *testing.T) {
	path := writeConfig(t, `version-prefix: "v"`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "release-rules")
}

func TestLoadValidatesExtraFiles(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing locator",
			yaml: "release-rules: {patch: [fix]}\nextra-files:\n  - type: yaml\n    path: chart.yaml\n",
			want: "yaml-path",
		},
		{
			name: "unknown type",
			yaml: "release-rules: {patch: [fix]}\nextra-files:\n  - type: ini\n    path: setup.ini\n",
			want: "unsupported type",
		},
		{
			name: "missing path",
			yaml: "release-rules: {patch: [fix]}\nextra-files:\n  - type: generic\n",
			want: "path",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReleaseBranchOverride(t *testing.T) {
	path := writeConfig(t, `
release-rules:
  patch: [fix]
release-branch-name: my-release-branch
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my-release-branch", cfg.ReleaseBranch())
}

func TestMergeFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("dry-run", false, "")
	flags.Bool("verbose", false, "")
	flags.String("git-host", "", "")
	require.NoError(t, flags.Parse([]string{"--dry-run", "--git-host", "gitlab"}))

	cfg := MergeFlags(Default(), flags)
	assert.True(t, cfg.DryRun)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, "gitlab", cfg.GitHost)
}

func TestTokenEnvPrecedence(t *testing.T) {
	cfg := Default()
	cfg.GitHub.Token = "from-config"

	t.Setenv("GITHUB_TOKEN", "from-env")
	assert.Equal(t, "from-env", cfg.GitHubToken())

	t.Setenv("GITHUB_TOKEN", "")
	assert.Equal(t, "from-config", cfg.GitHubToken())
}

func TestTemplateIsLoadable(t *testing.T) {
	// The generated template must parse and validate as-is.
	path := writeConfig(t, Template)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"breaking"}, cfg.ReleaseRules.Major)
	assert.Equal(t, "main", cfg.SourceBranch)
}

func TestTemplateIsValidYAML(t *testing.T) {
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(Template), &doc))
	assert.Contains(t, doc, "release-rules")
}
