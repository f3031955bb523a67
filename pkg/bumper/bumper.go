// Package bumper rewrites version strings inside project files. Each file
// format implements FileBumper; new formats are added by implementing the
// interface and registering it in For.
package bumper

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/release-conductor/release-conductor/pkg/config"
)

// FileBumper rewrites the version value a locator points at inside one file.
type FileBumper interface {
	// Apply sets the value at locator in the file to version. Locators use
	// dotted-path syntax ("$.project.version"); the generic bumper ignores
	// the locator and rewrites marker-delimited blocks instead.
	Apply(path, locator, version string) error
}

// For returns the bumper registered for a file type.
func For(fileType string) (FileBumper, error) {
	switch fileType {
	case "yaml":
		return yamlBumper{}, nil
	case "toml":
		return tomlBumper{}, nil
	case "json":
		return jsonBumper{}, nil
	case "generic":
		return genericBumper{}, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q (supported: yaml, toml, json, generic)", fileType)
	}
}

// Run applies every configured extra-file bump. version is the bare version
// string; each file's use-prefix is applied on top. Returns the list of
// applied updates and all per-file errors.
func Run(files []config.ExtraFile, version, root string) (updated []string, errs []error) {
	for _, f := range files {
		b, err := For(f.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, err))
			continue
		}
		value := f.UsePrefix + version
		if err := b.Apply(filepath.Join(root, f.Path), f.Locator(), value); err != nil {
			errs = append(errs, err)
			continue
		}
		updated = append(updated, fmt.Sprintf("%s → %s", f.Path, value))
	}
	return updated, errs
}

// splitLocator turns "$.project.version" into its path segments.
func splitLocator(locator string) ([]string, error) {
	s := strings.TrimPrefix(locator, "$")
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return nil, fmt.Errorf("empty locator %q", locator)
	}
	return strings.Split(s, "."), nil
}
