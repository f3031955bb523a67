// Package githost abstracts the three git-host operations the release
// workflows need: create-or-update a pull request, create a release for a
// tag, and detect the host from a remote URL. Implementations are selected
// through a flat dispatch table keyed by host kind.
package githost

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/release-conductor/release-conductor/pkg/config"
)

// Kind identifies a supported git hosting provider.
type Kind string

const (
	KindGitHub  Kind = "github"
	KindGitLab  Kind = "gitlab"
	KindAzure   Kind = "azure"
	KindUnknown Kind = ""
)

// ErrReleasesUnsupported is returned by hosts that have no release concept.
var ErrReleasesUnsupported = errors.New("host does not support releases")

// PullRequest is the reference returned by CreateOrUpdatePullRequest.
type PullRequest struct {
	Number int
	URL    string
	// Created is false when an existing PR was updated in place.
	Created bool
}

// Release is the reference returned by CreateRelease.
type Release struct {
	URL string
}

// Host is the capability contract every provider implements.
type Host interface {
	Kind() Kind

	// CreateOrUpdatePullRequest opens a PR from head into base, or updates
	// the title and body of the open PR for that branch pair in place so
	// reruns never produce duplicates.
	CreateOrUpdatePullRequest(ctx context.Context, head, base, title, body string) (*PullRequest, error)

	// CreateRelease publishes a host release for an existing tag.
	CreateRelease(ctx context.Context, tagName, title, body string) (*Release, error)
}

// Detect identifies the hosting provider from a remote URL, returning
// KindUnknown when no provider matches.
func Detect(remoteURL string) Kind {
	url := strings.ToLower(remoteURL)
	switch {
	case strings.Contains(url, "github.com"):
		return KindGitHub
	case strings.Contains(url, "dev.azure.com"), strings.Contains(url, "visualstudio.com"):
		return KindAzure
	case strings.Contains(url, "gitlab"):
		return KindGitLab
	default:
		return KindUnknown
	}
}

// New builds the host client for a kind from the remote URL and the
// configured credentials.
func New(kind Kind, remoteURL string, cfg *config.Config) (Host, error) {
	switch kind {
	case KindGitHub:
		return newGitHub(remoteURL, cfg.GitHubToken())
	case KindGitLab:
		return newGitLab(remoteURL, cfg.GitLabToken())
	case KindAzure:
		return newAzure(remoteURL, cfg.AzureToken())
	default:
		return nil, fmt.Errorf("unsupported git host %q (supported: github, gitlab, azure)", kind)
	}
}
