package bumper

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

const (
	markerStart = "release-conductor-bump-start"
	markerEnd   = "release-conductor-bump-end"
)

var semverLike = regexp.MustCompile(`[vV]?\d+\.\d+\.\d+`)

// genericBumper rewrites every semantic-version-looking substring between a
// pair of marker comments. The locator is ignored; the version string is
// written as-is, so a per-file prefix must come from use-prefix.
type genericBumper struct{}

func (genericBumper) Apply(path, _, version string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	inBlock := false
	found := false
	replaced := 0
	for i, line := range lines {
		switch {
		case strings.Contains(line, markerStart):
			inBlock = true
			found = true
		case strings.Contains(line, markerEnd):
			inBlock = false
		case inBlock:
			lines[i] = semverLike.ReplaceAllStringFunc(line, func(string) string {
				replaced++
				return version
			})
		}
	}
	if !found {
		return fmt.Errorf("%s: no %q marker found", path, markerStart)
	}
	if replaced == 0 {
		return fmt.Errorf("%s: no version-like string inside the marker block", path)
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
