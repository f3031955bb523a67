package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/release-conductor/release-conductor/pkg/bumper"
	"github.com/release-conductor/release-conductor/pkg/changelog"
	"github.com/release-conductor/release-conductor/pkg/config"
	"github.com/release-conductor/release-conductor/pkg/githost"
	"github.com/release-conductor/release-conductor/pkg/gitrepo"
	"github.com/release-conductor/release-conductor/pkg/version"
)

// ReconcilerRepo is the slice of the git backend the reconciler drives.
type ReconcilerRepo interface {
	History

	Root() string
	Fetch(ctx context.Context) error
	ForceResetBranch(name, from string) error
	CheckoutBranch(name string) error
	CommitAll(message string, ident gitrepo.Identity) (bool, error)
	ForcePushBranch(ctx context.Context, name string) error
}

// Reconciler maintains the release branch and its pull request. Each run
// resets the release branch from the source branch, regenerates the release
// files on top and force-pushes, so the branch and PR always reflect the
// current state of the source branch no matter how often it runs.
type Reconciler struct {
	cfg  *config.Config
	repo ReconcilerRepo
	host githost.Host
	log  *zap.SugaredLogger
	now  func() time.Time
}

// NewReconciler wires a reconciler. host may be nil only for dry runs.
func NewReconciler(cfg *config.Config, repo ReconcilerRepo, host githost.Host, log *zap.SugaredLogger) *Reconciler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Reconciler{cfg: cfg, repo: repo, host: host, log: log, now: time.Now}
}

// ReconcileResult describes what a reconciliation run produced.
type ReconcileResult struct {
	Computation   *Computation
	Branch        string
	CommitMessage string

	// PullRequest is nil for dry runs.
	PullRequest *githost.PullRequest
}

// Run performs one reconciliation: fetch, compute the next version, rebuild
// the release branch with the changelog, version file and configured file
// bumps, force-push it and create or update the pull request.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileResult, error) {
	if err := r.repo.Fetch(ctx); err != nil {
		return nil, err
	}

	comp, err := Compute(r.repo, r.cfg)
	if err != nil {
		return nil, err
	}
	next := comp.NextVersion
	if comp.CurrentVersion == nil {
		r.log.Infof("no release tag found, starting at %s", next)
	} else {
		r.log.Infof("next release: %s -> %s (%s)", comp.CurrentVersion, next, comp.ReleaseType)
	}
	r.logSummary(comp)

	entry, err := changelog.Compose(next.String(), comp.Commits, r.cfg.ChangelogSections, r.now())
	if err != nil {
		return nil, err
	}

	branch := r.cfg.ReleaseBranch()
	result := &ReconcileResult{
		Computation:   comp,
		Branch:        branch,
		CommitMessage: fmt.Sprintf("chore(%s): update files for release %s", r.cfg.SourceBranch, next),
	}

	if r.cfg.DryRun {
		r.log.Infof("dry run: would update branch %s and open a pull request for release %s", branch, next)
		return result, nil
	}
	if r.host == nil {
		return nil, fmt.Errorf("no git host client configured, cannot manage the release pull request")
	}

	if err := r.repo.ForceResetBranch(branch, r.cfg.SourceBranch); err != nil {
		return nil, err
	}
	defer func() {
		if err := r.repo.CheckoutBranch(r.cfg.SourceBranch); err != nil {
			r.log.Warnf("could not switch back to %s: %v", r.cfg.SourceBranch, err)
		}
	}()

	if err := r.applyChanges(next, entry); err != nil {
		return nil, err
	}

	committed, err := r.repo.CommitAll(result.CommitMessage, r.identity())
	if err != nil {
		return nil, err
	}
	if !committed {
		r.log.Infof("branch %s already matches release %s", branch, next)
	}

	if err := r.repo.ForcePushBranch(ctx, branch); err != nil {
		return nil, err
	}

	title := fmt.Sprintf("chore(%s): release %s", r.cfg.SourceBranch, next)
	pr, err := r.host.CreateOrUpdatePullRequest(ctx, branch, r.cfg.SourceBranch, title, entry)
	if err != nil {
		return nil, err
	}
	if pr.Created {
		r.log.Infof("created pull request #%d: %s", pr.Number, pr.URL)
	} else {
		r.log.Infof("updated pull request #%d: %s", pr.Number, pr.URL)
	}
	result.PullRequest = pr
	return result, nil
}

// applyChanges writes the release files into the checked-out release branch:
// the changelog entry, the version marker file and the configured extra-file
// bumps.
func (r *Reconciler) applyChanges(next version.Version, entry string) error {
	root := r.repo.Root()

	if err := changelog.Prepend(filepath.Join(root, r.cfg.ChangelogPath), entry); err != nil {
		return err
	}

	versionFile := filepath.Join(root, config.DefaultVersionFile)
	if err := os.WriteFile(versionFile, []byte(next.String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", config.DefaultVersionFile, err)
	}

	updated, errs := bumper.Run(r.cfg.ExtraFiles, next.String(), root)
	for _, u := range updated {
		r.log.Debugf("bumped %s", u)
	}
	if len(errs) > 0 {
		return fmt.Errorf("bump files: %w", errors.Join(errs...))
	}
	return nil
}

func (r *Reconciler) logSummary(comp *Computation) {
	if !r.cfg.Verbose {
		return
	}
	for typ, n := range comp.Summary() {
		r.log.Infof("  %s: %d commit(s)", typ, n)
	}
}

func (r *Reconciler) identity() gitrepo.Identity {
	return gitrepo.Identity{Name: r.cfg.Git.UserName, Email: r.cfg.Git.UserEmail}
}
