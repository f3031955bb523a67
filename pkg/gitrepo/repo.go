// Package gitrepo implements the version-control backend on top of go-git.
// All durable state the release workflows rely on lives in the repository's
// tags, branches and commit messages; this package is the only place that
// touches them.
package gitrepo

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/release-conductor/release-conductor/pkg/version"
)

// Identity is the author/committer identity used for release commits and
// tags. CI runners rarely have a configured git identity, so it is always
// passed explicitly.
type Identity struct {
	Name  string
	Email string
}

func (i Identity) signature() *object.Signature {
	return &object.Signature{Name: i.Name, Email: i.Email, When: time.Now()}
}

// Repository wraps an opened git repository and its origin remote.
type Repository struct {
	repo *git.Repository
	root string
	auth transport.AuthMethod
}

// Open discovers the repository containing path by walking up to the
// nearest .git directory.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository at %s: %w", path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository has no worktree: %w", err)
	}
	return &Repository{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the absolute path of the repository root.
func (r *Repository) Root() string {
	return r.root
}

// SetToken configures HTTP basic auth for remote operations. Without a
// token go-git falls back to the transport's ambient credentials (SSH
// agent, credential helpers do not apply).
func (r *Repository) SetToken(token string) {
	if token != "" {
		r.auth = &githttp.BasicAuth{Username: "git", Password: token}
	}
}

// RemoteURL returns the first URL of the origin remote.
func (r *Repository) RemoteURL() (string, error) {
	remote, err := r.repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return "", fmt.Errorf("get remote %q: %w", git.DefaultRemoteName, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %q has no URL", git.DefaultRemoteName)
	}
	return urls[0], nil
}

// CurrentBranch returns the short name of the checked-out branch.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached, checkout a branch first")
	}
	return head.Name().Short(), nil
}

// LatestCommitMessage returns the full message of the commit at HEAD.
func (r *Repository) LatestCommitMessage() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("read HEAD commit: %w", err)
	}
	return commit.Message, nil
}

// tagTargets maps commit hashes to the tag names pointing at them,
// resolving annotated tags to their target commits.
func (r *Repository) tagTargets() (map[plumbing.Hash][]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	targets := make(map[plumbing.Hash][]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tagObj, err := r.repo.TagObject(ref.Hash()); err == nil {
			target = tagObj.Target
		}
		targets[target] = append(targets[target], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return targets, nil
}

// LatestTag returns the newest tag reachable from HEAD, or "" when no tag
// is reachable. When several tags point at the same commit the one parsing
// to the greatest version wins.
func (r *Repository) LatestTag() (string, error) {
	targets, err := r.tagTargets()
	if err != nil {
		return "", err
	}
	if len(targets) == 0 {
		return "", nil
	}

	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return "", fmt.Errorf("walk history: %w", err)
	}
	defer iter.Close()

	var found string
	err = iter.ForEach(func(c *object.Commit) error {
		if names, ok := targets[c.Hash]; ok {
			found = pickTag(names)
			return storer.ErrStop
		}
		return nil
	})
	if err != nil && err != storer.ErrStop {
		return "", fmt.Errorf("walk history: %w", err)
	}
	return found, nil
}

// pickTag prefers the tag with the greatest parsed version, falling back to
// lexicographic order for tags that do not parse.
func pickTag(names []string) string {
	if len(names) == 1 {
		return names[0]
	}
	sorted := append([]string(nil), names...)
	sort.Slice(sorted, func(i, j int) bool {
		vi, erri := version.ParseTag(sorted[i], "")
		vj, errj := version.ParseTag(sorted[j], "")
		if erri != nil || errj != nil {
			return sorted[i] > sorted[j]
		}
		return vi.Compare(vj) > 0
	})
	return sorted[0]
}

// resolveTagCommit resolves a tag name to the commit it points at.
func (r *Repository) resolveTagCommit(tag string) (plumbing.Hash, error) {
	ref, err := r.repo.Tag(tag)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve tag %q: %w", tag, err)
	}
	if tagObj, err := r.repo.TagObject(ref.Hash()); err == nil {
		return tagObj.Target, nil
	}
	return ref.Hash(), nil
}

// ancestors collects every commit hash reachable from the given commit.
func (r *Repository) ancestors(from plumbing.Hash) (map[plumbing.Hash]bool, error) {
	iter, err := r.repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}
	defer iter.Close()

	seen := make(map[plumbing.Hash]bool)
	err = iter.ForEach(func(c *object.Commit) error {
		seen[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}
	return seen, nil
}

// CommitMessagesSince lists the full messages of the commits reachable from
// HEAD but not from the given tag, newest first. An empty tag lists the
// whole history.
func (r *Repository) CommitMessagesSince(tag string) ([]string, error) {
	var exclude map[plumbing.Hash]bool
	if tag != "" {
		target, err := r.resolveTagCommit(tag)
		if err != nil {
			return nil, err
		}
		if exclude, err = r.ancestors(target); err != nil {
			return nil, err
		}
	}

	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}
	defer iter.Close()

	var messages []string
	err = iter.ForEach(func(c *object.Commit) error {
		if exclude[c.Hash] {
			return nil
		}
		messages = append(messages, c.Message)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}
	return messages, nil
}

// CreateAnnotatedTag tags the commit at HEAD.
func (r *Repository) CreateAnnotatedTag(name, message string, ident Identity) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}
	_, err = r.repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Tagger:  ident.signature(),
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("create tag %q: %w", name, err)
	}
	return nil
}

// ForceResetBranch creates or resets a branch to the tip of the source
// branch (preferring the remote-tracking ref when present) and checks it
// out. Any previous content of the branch is discarded.
func (r *Repository) ForceResetBranch(name, from string) error {
	hash, err := r.branchTip(from)
	if err != nil {
		return err
	}
	branchRef := plumbing.NewBranchReferenceName(name)
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(branchRef, hash)); err != nil {
		return fmt.Errorf("reset branch %q: %w", name, err)
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: branchRef, Force: true}); err != nil {
		return fmt.Errorf("checkout branch %q: %w", name, err)
	}
	return nil
}

// branchTip resolves the tip of a branch, preferring origin/<name>.
func (r *Repository) branchTip(name string) (plumbing.Hash, error) {
	remoteRef := plumbing.NewRemoteReferenceName(git.DefaultRemoteName, name)
	if ref, err := r.repo.Reference(remoteRef, true); err == nil {
		return ref.Hash(), nil
	}
	localRef := plumbing.NewBranchReferenceName(name)
	ref, err := r.repo.Reference(localRef, true)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("branch %q not found locally or on origin: %w", name, err)
	}
	return ref.Hash(), nil
}

// CheckoutBranch switches the worktree to an existing branch.
func (r *Repository) CheckoutBranch(name string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}); err != nil {
		return fmt.Errorf("checkout branch %q: %w", name, err)
	}
	return nil
}

// CommitAll stages every change in the worktree and commits it with the
// given identity. Returns false when there is nothing to commit.
func (r *Repository) CommitAll(message string, ident Identity) (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("get worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return false, fmt.Errorf("stage changes: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("read worktree status: %w", err)
	}
	if status.IsClean() {
		return false, nil
	}
	if _, err := wt.Commit(message, &git.CommitOptions{Author: ident.signature()}); err != nil {
		return false, fmt.Errorf("commit release changes: %w", err)
	}
	return true, nil
}
