package bumper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/release-conductor/release-conductor/pkg/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestYAMLBumper(t *testing.T) {
	path := writeFile(t, "Chart.yaml", `# Helm chart
apiVersion: v2
name: myapp
version: 1.0.0
appVersion: 1.0.0
`)
	b, err := For("yaml")
	require.NoError(t, err)
	require.NoError(t, b.Apply(path, "$.version", "1.1.0"))

	content := readFile(t, path)
	assert.Contains(t, content, "version: 1.1.0")
	assert.Contains(t, content, "appVersion: 1.0.0")
	// Comments survive the node round trip.
	assert.Contains(t, content, "# Helm chart")
}

func TestYAMLBumperNestedPath(t *testing.T) {
	path := writeFile(t, "values.yaml", `image:
  repository: myapp
  tag: 1.0.0
`)
	b, _ := For("yaml")
	require.NoError(t, b.Apply(path, "$.image.tag", "v1.1.0"))
	assert.Contains(t, readFile(t, path), "tag: v1.1.0")
}

func TestYAMLBumperMissingPath(t *testing.T) {
	path := writeFile(t, "c.yaml", "name: x\n")
	b, _ := For("yaml")
	err := b.Apply(path, "$.version", "1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestTOMLBumper(t *testing.T) {
	path := writeFile(t, "pyproject.toml", `[project]
name = "myapp"
version = "1.0.0"
`)
	b, err := For("toml")
	require.NoError(t, err)
	require.NoError(t, b.Apply(path, "$.project.version", "2.0.0"))

	content := readFile(t, path)
	assert.Contains(t, content, "2.0.0")
	assert.Contains(t, content, "myapp")
	assert.NotContains(t, content, "1.0.0")
}

func TestTOMLBumperMissingKey(t *testing.T) {
	path := writeFile(t, "Cargo.toml", "[package]\nname = \"x\"\n")
	b, _ := For("toml")
	assert.Error(t, b.Apply(path, "$.package.version", "1.0.0"))
}

func TestJSONBumper(t *testing.T) {
	path := writeFile(t, "package.json", `{
  "name": "myapp",
  "version": "1.0.0",
  "dependencies": {}
}
`)
	b, err := For("json")
	require.NoError(t, err)
	require.NoError(t, b.Apply(path, "$.version", "1.1.0"))

	content := readFile(t, path)
	assert.Contains(t, content, `"version": "1.1.0"`)
	assert.Contains(t, content, `"name": "myapp"`)
}

func TestGenericBumper(t *testing.T) {
	path := writeFile(t, "README.md", `# MyApp

<!--- release-conductor-bump-start --->
Install version v1.0.0:

    curl -LO https://example.com/myapp/v1.0.0/myapp
<!--- release-conductor-bump-end --->

Older docs mention 0.9.0 and stay untouched.
`)
	b, err := For("generic")
	require.NoError(t, err)
	require.NoError(t, b.Apply(path, "", "v1.1.0"))

	content := readFile(t, path)
	assert.Contains(t, content, "Install version v1.1.0:")
	assert.Contains(t, content, "myapp/v1.1.0/myapp")
	assert.Contains(t, content, "mention 0.9.0 and stay untouched")
}

func TestGenericBumperMissingMarker(t *testing.T) {
	path := writeFile(t, "README.md", "no markers here, just 1.0.0\n")
	b, _ := For("generic")
	assert.Error(t, b.Apply(path, "", "1.1.0"))
}

func TestForUnknownType(t *testing.T) {
	_, err := For("ini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Chart.yaml"), []byte("version: 1.0.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"version": "1.0.0"}`), 0o644))

	files := []config.ExtraFile{
		{Type: "yaml", Path: "Chart.yaml", YAMLPath: "$.version", UsePrefix: "v"},
		{Type: "json", Path: "package.json", JSONPath: "$.version"},
	}
	updated, errs := Run(files, "1.1.0", dir)
	require.Empty(t, errs)
	assert.Len(t, updated, 2)

	chart, err := os.ReadFile(filepath.Join(dir, "Chart.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(chart), "v1.1.0")
}

func TestRunCollectsErrors(t *testing.T) {
	files := []config.ExtraFile{
		{Type: "yaml", Path: "missing.yaml", YAMLPath: "$.version"},
		{Type: "ini", Path: "setup.ini"},
	}
	updated, errs := Run(files, "1.1.0", t.TempDir())
	assert.Empty(t, updated)
	assert.Len(t, errs, 2)
}
