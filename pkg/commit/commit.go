// Package commit parses conventional commit messages and reduces them to a
// release type. Commits that do not follow the conventional grammar are kept
// with an empty Type so changelogs can still list them.
package commit

import (
	"strings"

	"github.com/release-conductor/release-conductor/pkg/version"
)

// TypeBreaking is the pseudo commit type assigned to breaking changes. It
// always forces a major release regardless of the configured rules.
const TypeBreaking = "breaking"

// TypeUnknown is the summary bucket for commits outside the conventional
// grammar.
const TypeUnknown = "unknown"

// Commit is a single classified commit message.
type Commit struct {
	Raw         string
	Type        string // empty when the message is not a conventional commit
	Scope       string
	Breaking    bool
	Description string
}

// Conventional reports whether the commit matched the conventional grammar.
func (c Commit) Conventional() bool {
	return c.Type != ""
}

// Parse classifies one raw commit message. The grammar is
// "type(scope)!: description" applied to the subject line; the full message
// is additionally scanned for a BREAKING CHANGE footer.
func Parse(raw string) Commit {
	msg := strings.TrimSpace(raw)
	subject, _, _ := strings.Cut(msg, "\n")

	c := Commit{Raw: raw, Description: subject}

	if typ, scope, bang, desc, ok := splitConventional(subject); ok {
		c.Type = typ
		c.Scope = scope
		c.Breaking = bang
		c.Description = desc
	}
	if !c.Breaking {
		c.Breaking = hasBreakingFooter(msg)
	}
	return c
}

// splitConventional matches "type(scope)!: description" against a subject
// line. Implemented by hand rather than with a regexp so the grammar's edge
// cases (empty scope, missing colon) stay explicit.
func splitConventional(subject string) (typ, scope string, bang bool, desc string, ok bool) {
	head, rest, found := strings.Cut(subject, ":")
	if !found {
		return "", "", false, "", false
	}
	head = strings.TrimRight(head, " \t")
	if strings.HasSuffix(head, "!") {
		bang = true
		head = head[:len(head)-1]
	}
	if open := strings.Index(head, "("); open >= 0 {
		if !strings.HasSuffix(head, ")") || open == len(head)-2 {
			return "", "", false, "", false
		}
		scope = head[open+1 : len(head)-1]
		if strings.ContainsAny(scope, "()") {
			return "", "", false, "", false
		}
		head = head[:open]
	}
	if head == "" || !isWord(head) {
		return "", "", false, "", false
	}
	desc = strings.TrimSpace(rest)
	if desc == "" {
		return "", "", false, "", false
	}
	return head, scope, bang, desc, true
}

func isWord(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// hasBreakingFooter reports whether any line of the message body starts with
// the BREAKING CHANGE marker. The match is case-sensitive per the
// conventional commits footer convention.
func hasBreakingFooter(msg string) bool {
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "BREAKING CHANGE:") || strings.HasPrefix(line, "BREAKING-CHANGE:") {
			return true
		}
	}
	return false
}

// ParseAll classifies a list of raw messages, preserving order.
func ParseAll(raw []string) []Commit {
	commits := make([]Commit, 0, len(raw))
	for _, m := range raw {
		commits = append(commits, Parse(m))
	}
	return commits
}

// Rules maps release magnitudes to the commit types that trigger them.
type Rules struct {
	Major []string
	Minor []string
	Patch []string
}

// ReleaseTypeFor returns the release type configured for a commit type,
// checking major before minor before patch so a type listed twice takes the
// larger bump.
func (r Rules) ReleaseTypeFor(commitType string) version.ReleaseType {
	if contains(r.Major, commitType) {
		return version.ReleaseMajor
	}
	if contains(r.Minor, commitType) {
		return version.ReleaseMinor
	}
	if contains(r.Patch, commitType) {
		return version.ReleasePatch
	}
	return version.ReleaseNone
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Resolve reduces a set of classified commits to a single release type. A
// breaking commit forces major no matter what the rules say, including when
// the commit's type is outside the conventional grammar. The result depends
// only on the set of (type, breaking) pairs, not on commit order.
func Resolve(commits []Commit, rules Rules) version.ReleaseType {
	result := version.ReleaseNone
	for _, c := range commits {
		var rt version.ReleaseType
		if c.Breaking {
			rt = version.ReleaseMajor
		} else if c.Conventional() {
			rt = rules.ReleaseTypeFor(c.Type)
		}
		result = version.Max(result, rt)
		if result == version.ReleaseMajor {
			break
		}
	}
	return result
}

// Summary counts commits by type. Breaking commits count under the
// "breaking" pseudo-type, non-conventional commits under "unknown".
func Summary(commits []Commit) map[string]int {
	summary := make(map[string]int)
	for _, c := range commits {
		key := c.Type
		switch {
		case c.Breaking:
			key = TypeBreaking
		case !c.Conventional():
			key = TypeUnknown
		}
		summary[key]++
	}
	return summary
}
