package gitrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// Fetch updates the remote-tracking branches and all tags from origin.
// Version computation is unsafe without fresh tags, so callers treat a
// failure here as fatal.
func (r *Repository) Fetch(ctx context.Context) error {
	remote, err := r.repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return fmt.Errorf("get remote %q: %w", git.DefaultRemoteName, err)
	}
	err = remote.FetchContext(ctx, &git.FetchOptions{
		RefSpecs: []gitconfig.RefSpec{
			gitconfig.RefSpec("+refs/heads/*:refs/remotes/origin/*"),
			gitconfig.RefSpec("+refs/tags/*:refs/tags/*"),
		},
		Auth:  r.auth,
		Force: true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch from origin: %w", err)
	}
	return nil
}

// TagExists reports whether the tag exists locally or on origin. The remote
// check guards against double-tagging when a previous run pushed the tag
// but was interrupted before finishing.
func (r *Repository) TagExists(ctx context.Context, name string) (bool, error) {
	if _, err := r.repo.Tag(name); err == nil {
		return true, nil
	} else if !errors.Is(err, git.ErrTagNotFound) {
		return false, fmt.Errorf("check local tag %q: %w", name, err)
	}

	remote, err := r.repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return false, fmt.Errorf("get remote %q: %w", git.DefaultRemoteName, err)
	}
	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: r.auth})
	if err != nil {
		return false, fmt.Errorf("list remote refs: %w", err)
	}
	want := plumbing.NewTagReferenceName(name)
	for _, ref := range refs {
		if ref.Name() == want {
			return true, nil
		}
	}
	return false, nil
}

// ForcePushBranch force-pushes a local branch to origin. Force is safe
// because the branch is fully reset from the source branch on every run.
func (r *Repository) ForcePushBranch(ctx context.Context, name string) error {
	spec := gitconfig.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/heads/%s", name, name))
	return r.push(ctx, spec, fmt.Sprintf("push branch %q", name))
}

// PushTag pushes a single tag to origin.
func (r *Repository) PushTag(ctx context.Context, name string) error {
	spec := gitconfig.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", name, name))
	return r.push(ctx, spec, fmt.Sprintf("push tag %q", name))
}

func (r *Repository) push(ctx context.Context, spec gitconfig.RefSpec, what string) error {
	remote, err := r.repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return fmt.Errorf("get remote %q: %w", git.DefaultRemoteName, err)
	}
	err = remote.PushContext(ctx, &git.PushOptions{
		RefSpecs: []gitconfig.RefSpec{spec},
		Auth:     r.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
