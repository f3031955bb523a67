package citemplates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapGitHub(t *testing.T) {
	dir := t.TempDir()

	paths, err := Bootstrap(FlavourGitHub, dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"release-conductor.yaml",
		filepath.Join(".github", "workflows", "release-conductor.yaml"),
	}, paths)

	data, err := os.ReadFile(filepath.Join(dir, ".github", "workflows", "release-conductor.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "release-conductor release --verbose")
	assert.Contains(t, string(data), "release-conductor tag-release --verbose")
	assert.FileExists(t, filepath.Join(dir, "release-conductor.yaml"))
}

func TestBootstrapGitLab(t *testing.T) {
	dir := t.TempDir()

	paths, err := Bootstrap(FlavourGitLab, dir, false)
	require.NoError(t, err)
	assert.Contains(t, paths, ".gitlab-ci.yml")

	data, err := os.ReadFile(filepath.Join(dir, ".gitlab-ci.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "--git-host gitlab")
	assert.Contains(t, string(data), "release-conductor--branches--main")
}

func TestBootstrapAzure(t *testing.T) {
	dir := t.TempDir()

	paths, err := Bootstrap(FlavourAzure, dir, false)
	require.NoError(t, err)
	assert.Len(t, paths, 5)

	script := filepath.Join(dir, ".azure", "scripts", "validate-pr-title.sh")
	info, err := os.Stat(script)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	assert.FileExists(t, filepath.Join(dir, ".azure", "ci.yaml"))
	assert.FileExists(t, filepath.Join(dir, ".azure", "pr-validation.yaml"))
	assert.FileExists(t, filepath.Join(dir, ".azure", "README-BRANCH-POLICIES.md"))
}

func TestBootstrapDryRun(t *testing.T) {
	dir := t.TempDir()

	paths, err := Bootstrap(FlavourGitHub, dir, true)
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBootstrapUnknownFlavour(t *testing.T) {
	_, err := Bootstrap(Flavour("bitbucket"), t.TempDir(), false)
	assert.Error(t, err)
}

func TestExisting(t *testing.T) {
	dir := t.TempDir()

	existing, err := Existing(FlavourGitLab, dir)
	require.NoError(t, err)
	assert.Empty(t, existing)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitlab-ci.yml"), []byte("stages: []\n"), 0o644))
	existing, err = Existing(FlavourGitLab, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{".gitlab-ci.yml"}, existing)
}

func TestInstructions(t *testing.T) {
	for _, f := range []Flavour{FlavourGitHub, FlavourGitLab, FlavourAzure} {
		assert.NotEmpty(t, Instructions(f), string(f))
	}
	assert.Empty(t, Instructions(Flavour("bitbucket")))
}
