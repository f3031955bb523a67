package commit

import (
	"fmt"
	"regexp"
	"strings"
)

// builtinArtifactPatterns recognise commits produced by a prior release
// cycle. "{release_branch}" is substituted with the configured release
// branch name before compiling. Host-specific wrappers (squash merges,
// "Merged PR n:" prefixes) are covered by the optional leading groups;
// additional wrappers can be appended from configuration.
var builtinArtifactPatterns = []string{
	// Plain merge commit: "Merge branch 'release--main' into main"
	`Merge branch '{release_branch}' into`,
	// GitHub PR merge commit: "Merge pull request #72 from owner/release--main"
	`Merge pull request #\d+ from [^/]+/{release_branch}`,
	// Squash merge, PR title, or Azure DevOps wrapped release commit:
	//   "chore(main): update files for release 1.2.3"
	//   "chore(main): release 1.2.3"
	//   "Merged PR 10: chore(main): release 1.2.3"
	`^(Merged PR \d+: )?chore\([^)]+\):\s+(update files for )?release`,
}

// ArtifactMatcher detects release-artifact commits so they never feed back
// into version computation or changelogs.
type ArtifactMatcher struct {
	patterns []*regexp.Regexp
}

// NewArtifactMatcher compiles the builtin patterns for the given release
// branch plus any extra patterns from configuration. Extra patterns may also
// use the {release_branch} placeholder.
func NewArtifactMatcher(releaseBranch string, extraPatterns []string) (*ArtifactMatcher, error) {
	raw := make([]string, 0, len(builtinArtifactPatterns)+len(extraPatterns))
	raw = append(raw, builtinArtifactPatterns...)
	raw = append(raw, extraPatterns...)

	m := &ArtifactMatcher{}
	for _, p := range raw {
		resolved := strings.ReplaceAll(p, "{release_branch}", regexp.QuoteMeta(releaseBranch))
		re, err := regexp.Compile(resolved)
		if err != nil {
			return nil, fmt.Errorf("invalid release commit pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// Match reports whether the message is a release artifact.
func (m *ArtifactMatcher) Match(message string) bool {
	for _, re := range m.patterns {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

// Filter returns the messages that are not release artifacts, preserving
// order.
func (m *ArtifactMatcher) Filter(messages []string) []string {
	kept := make([]string, 0, len(messages))
	for _, msg := range messages {
		if !m.Match(msg) {
			kept = append(kept, msg)
		}
	}
	return kept
}
