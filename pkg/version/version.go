package version

import (
	"fmt"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// FirstRelease is the version used when a repository has no tags yet.
// The first release always establishes the 0.1.0 baseline, even when the
// commits since the beginning of history would only imply a patch bump.
var FirstRelease = Version{Major: 0, Minor: 1, Patch: 0}

// ReleaseType is the magnitude of a version bump.
type ReleaseType string

const (
	ReleaseNone  ReleaseType = "none"
	ReleasePatch ReleaseType = "patch"
	ReleaseMinor ReleaseType = "minor"
	ReleaseMajor ReleaseType = "major"
)

var releaseRank = map[ReleaseType]int{
	ReleaseNone:  0,
	ReleasePatch: 1,
	ReleaseMinor: 2,
	ReleaseMajor: 3,
}

// Max returns the larger of the two release types under the total order
// major > minor > patch > none.
func Max(a, b ReleaseType) ReleaseType {
	if releaseRank[a] >= releaseRank[b] {
		return a
	}
	return b
}

// Version is a parsed semantic version. The textual prefix of a tag (for
// example a leading "v") is never part of a Version.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 ordering by (major, minor, patch).
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmp(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmp(v.Minor, o.Minor)
	default:
		return cmp(v.Patch, o.Patch)
	}
}

func cmp(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Parse parses a bare semantic version string such as "1.2.3".
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	core := s
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	if len(strings.Split(core, ".")) != 3 {
		return Version{}, fmt.Errorf("version %q must have major.minor.patch format", s)
	}
	parsed, err := goversion.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	seg := parsed.Segments()
	return Version{Major: seg[0], Minor: seg[1], Patch: seg[2]}, nil
}

// tagPrefix matches the common tag prefixes used in the wild.
var tagPrefix = regexp.MustCompile(`(?i)^(v|version-?)`)

// ParseTag parses a version out of a tag name. The configured prefix is
// stripped first, then the common "v"/"version-" prefixes as a fallback so
// that repositories switching prefix conventions keep working.
func ParseTag(tag, configuredPrefix string) (Version, error) {
	s := strings.TrimSpace(tag)
	if configuredPrefix != "" {
		s = strings.TrimPrefix(s, configuredPrefix)
	}
	s = tagPrefix.ReplaceAllString(s, "")
	return Parse(s)
}

// Bump applies a release type to the version. ReleaseNone returns the
// version unchanged; the caller is responsible for suppressing the release
// in that case.
func (v Version) Bump(t ReleaseType) Version {
	switch t {
	case ReleaseMajor:
		return Version{Major: v.Major + 1}
	case ReleaseMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}
	case ReleasePatch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	default:
		return v
	}
}

// Next computes the next version from the current one. A nil current
// version means no release exists yet and yields the first-release floor
// regardless of the release type.
func Next(current *Version, t ReleaseType) Version {
	if current == nil {
		return FirstRelease
	}
	return current.Bump(t)
}
