// Package changelog composes markdown changelog entries from classified
// commits and maintains the newest-first changelog file.
package changelog

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/release-conductor/release-conductor/pkg/commit"
	"github.com/release-conductor/release-conductor/pkg/config"
)

// OtherSection collects commits that fall outside the conventional grammar.
const OtherSection = "Other"

const defaultHeader = "# Changelog\n\nAll notable changes to this project will be documented in this file.\n\n"

var entryTmpl = template.Must(template.New("entry").Parse(
	`## [{{ .Version }}] ({{ .Date }})
{{ range .Sections }}
### {{ .Title }}
{{ range .Commits }}
{{- if .Scope }}
* **{{ .Scope }}**: {{ .Description }}
{{- else }}
* {{ .Description }}
{{- end }}
{{- end }}
{{ end }}`))

// Section is one titled group of commits within an entry.
type Section struct {
	Title   string
	Commits []commit.Commit
}

// Entry is a rendered changelog entry for one release.
type Entry struct {
	Version  string
	Date     string
	Sections []Section
}

// Group orders commits into the configured sections. Sections keep the
// configured order, commits keep history order, and commits outside the
// conventional grammar land in a trailing "Other" section.
func Group(commits []commit.Commit, sections []config.ChangelogSection) []Section {
	titleFor := make(map[string]string, len(sections))
	var order []string
	seen := make(map[string]bool)
	for _, s := range sections {
		titleFor[s.Type] = s.Section
		if !seen[s.Section] {
			seen[s.Section] = true
			order = append(order, s.Section)
		}
	}

	grouped := make(map[string][]commit.Commit)
	for _, c := range commits {
		if !c.Conventional() {
			grouped[OtherSection] = append(grouped[OtherSection], c)
			continue
		}
		title, ok := titleFor[c.Type]
		if !ok {
			continue
		}
		grouped[title] = append(grouped[title], c)
	}

	var result []Section
	for _, title := range order {
		if len(grouped[title]) > 0 {
			result = append(result, Section{Title: title, Commits: grouped[title]})
		}
	}
	if len(grouped[OtherSection]) > 0 {
		result = append(result, Section{Title: OtherSection, Commits: grouped[OtherSection]})
	}
	return result
}

// Compose renders the changelog entry for a version from its commits.
func Compose(ver string, commits []commit.Commit, sections []config.ChangelogSection, now time.Time) (string, error) {
	entry := Entry{
		Version:  ver,
		Date:     now.Format("2006-01-02"),
		Sections: Group(commits, sections),
	}
	var buf bytes.Buffer
	if err := entryTmpl.Execute(&buf, entry); err != nil {
		return "", fmt.Errorf("render changelog entry: %w", err)
	}
	return buf.String(), nil
}

// Prepend inserts a new entry at the top of the changelog, below the file
// header. The file is created with a default header when missing.
func Prepend(path, entry string) error {
	existing := defaultHeader
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read changelog: %w", err)
	}

	var content string
	if strings.HasPrefix(existing, "# ") {
		lines := strings.Split(existing, "\n")
		insert := len(lines)
		for i, line := range lines {
			if strings.HasPrefix(line, "## ") {
				insert = i
				break
			}
		}
		merged := make([]string, 0, len(lines)+1)
		merged = append(merged, lines[:insert]...)
		merged = append(merged, entry)
		merged = append(merged, lines[insert:]...)
		content = strings.Join(merged, "\n")
	} else {
		content = entry + "\n" + existing
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write changelog: %w", err)
	}
	return nil
}

// Extract returns the body of the entry for a version (without its header
// line), or "" when the changelog has no such entry.
func Extract(path, ver string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read changelog: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	header := fmt.Sprintf("## [%s]", ver)
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(line, header) {
			start = i
			break
		}
	}
	if start < 0 {
		return "", nil
	}
	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "## ") {
			end = i
			break
		}
	}

	body := lines[start+1 : end]
	for len(body) > 0 && strings.TrimSpace(body[0]) == "" {
		body = body[1:]
	}
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	return strings.Join(body, "\n"), nil
}
