// Package release implements the two release workflows: reconciling the
// release branch and pull request against the source branch, and tagging a
// merged release commit. Both are stateless; everything they need is
// recomputed from the repository's tags and history on every run, so
// rerunning either workflow converges on the same result.
package release

import (
	"errors"
	"fmt"

	"github.com/release-conductor/release-conductor/pkg/commit"
	"github.com/release-conductor/release-conductor/pkg/config"
	"github.com/release-conductor/release-conductor/pkg/version"
)

var (
	// ErrNoChanges means the source branch has no commits since the last
	// release tag.
	ErrNoChanges = errors.New("no commits since the last release")

	// ErrOnlyReleaseArtifacts means every commit since the last release tag
	// was produced by a previous release cycle.
	ErrOnlyReleaseArtifacts = errors.New("only release artifacts since the last release")

	// ErrNothingToRelease means there are new commits but none of them maps
	// to a release type under the configured rules.
	ErrNothingToRelease = errors.New("commits since the last release do not require a release")
)

// History is the slice of the git backend that version computation reads.
type History interface {
	// LatestTag returns the newest tag reachable from HEAD, or "" when the
	// repository has never been released.
	LatestTag() (string, error)

	// CommitMessagesSince lists the full commit messages reachable from HEAD
	// but not from the tag, newest first.
	CommitMessagesSince(tag string) ([]string, error)
}

// Computation is the outcome of resolving the repository history into the
// next version.
type Computation struct {
	// CurrentTag is the tag the computation is based on, "" for a first
	// release.
	CurrentTag string

	// CurrentVersion is the parsed current version, nil for a first release.
	CurrentVersion *version.Version

	NextVersion version.Version
	ReleaseType version.ReleaseType

	// Commits are the classified non-artifact commits since CurrentTag,
	// newest first.
	Commits []commit.Commit
}

// Summary counts the contributing commits by type.
func (c *Computation) Summary() map[string]int {
	return commit.Summary(c.Commits)
}

// Compute resolves the next version from the history: find the latest tag,
// drop release artifacts from the commits since it, classify the rest and
// reduce them to a release type. A repository without tags gets the 0.1.0
// first release regardless of the commit types.
func Compute(h History, cfg *config.Config) (*Computation, error) {
	tag, err := h.LatestTag()
	if err != nil {
		return nil, err
	}

	var current *version.Version
	if tag != "" {
		v, err := version.ParseTag(tag, cfg.VersionPrefix)
		if err != nil {
			return nil, fmt.Errorf("latest tag %q: %w", tag, err)
		}
		current = &v
	}

	messages, err := h.CommitMessagesSince(tag)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, ErrNoChanges
	}

	matcher, err := commit.NewArtifactMatcher(cfg.ReleaseBranch(), cfg.ReleaseCommitPatterns)
	if err != nil {
		return nil, err
	}
	kept := matcher.Filter(messages)
	if len(kept) == 0 {
		return nil, ErrOnlyReleaseArtifacts
	}

	commits := commit.ParseAll(kept)
	rt := commit.Resolve(commits, cfg.Rules())
	if current != nil && rt == version.ReleaseNone {
		return nil, ErrNothingToRelease
	}

	return &Computation{
		CurrentTag:     tag,
		CurrentVersion: current,
		NextVersion:    version.Next(current, rt),
		ReleaseType:    rt,
		Commits:        commits,
	}, nil
}
