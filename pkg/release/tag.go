package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/release-conductor/release-conductor/pkg/changelog"
	"github.com/release-conductor/release-conductor/pkg/commit"
	"github.com/release-conductor/release-conductor/pkg/config"
	"github.com/release-conductor/release-conductor/pkg/githost"
	"github.com/release-conductor/release-conductor/pkg/gitrepo"
	"github.com/release-conductor/release-conductor/pkg/version"
)

var (
	// ErrWrongBranch means the tag workflow ran on the release branch
	// instead of the source branch.
	ErrWrongBranch = errors.New("cannot tag from the release branch")

	// ErrNotReleaseCommit means HEAD is not a merged release commit.
	ErrNotReleaseCommit = errors.New("HEAD is not a release commit")

	// ErrInvalidVersionFile means the version marker file is missing or does
	// not hold a semantic version.
	ErrInvalidVersionFile = errors.New("invalid version file")

	// ErrTagExists means the computed tag already exists locally or on the
	// remote.
	ErrTagExists = errors.New("tag already exists")
)

// TagRepo is the slice of the git backend the tag workflow drives.
type TagRepo interface {
	Root() string
	Fetch(ctx context.Context) error
	CurrentBranch() (string, error)
	LatestCommitMessage() (string, error)
	TagExists(ctx context.Context, name string) (bool, error)
	CreateAnnotatedTag(name, message string, ident gitrepo.Identity) error
	PushTag(ctx context.Context, name string) error
}

// TagWorkflow tags a merged release commit and publishes the host release.
// It refuses to run unless HEAD is a release commit on the right branch and
// the tag does not exist yet, so wiring it into CI on every push is safe.
type TagWorkflow struct {
	cfg  *config.Config
	repo TagRepo
	host githost.Host
	log  *zap.SugaredLogger
}

// NewTagWorkflow wires a tag workflow. host may be nil; the tag is then
// pushed without a host release.
func NewTagWorkflow(cfg *config.Config, repo TagRepo, host githost.Host, log *zap.SugaredLogger) *TagWorkflow {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &TagWorkflow{cfg: cfg, repo: repo, host: host, log: log}
}

// TagResult describes the tag a workflow run produced.
type TagResult struct {
	Version version.Version
	Tag     string

	// ReleaseURL is set when a host release was published.
	ReleaseURL string
}

// Run validates that HEAD is a fresh release commit, then creates and pushes
// the annotated tag. Publishing the host release afterwards is best effort:
// the tag is the durable record, a failed release API call only logs a
// warning.
func (w *TagWorkflow) Run(ctx context.Context) (*TagResult, error) {
	if err := w.repo.Fetch(ctx); err != nil {
		return nil, err
	}

	branch, err := w.repo.CurrentBranch()
	if err != nil {
		return nil, err
	}
	if branch == w.cfg.ReleaseBranch() {
		return nil, fmt.Errorf("%w: checkout %s and merge the release pull request first",
			ErrWrongBranch, w.cfg.SourceBranch)
	}

	msg, err := w.repo.LatestCommitMessage()
	if err != nil {
		return nil, err
	}
	matcher, err := commit.NewArtifactMatcher(w.cfg.ReleaseBranch(), w.cfg.ReleaseCommitPatterns)
	if err != nil {
		return nil, err
	}
	if !matcher.Match(msg) {
		subject, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
		return nil, fmt.Errorf("%w: %q looks like a regular commit, merge the release pull request first",
			ErrNotReleaseCommit, subject)
	}

	ver, err := w.readVersionFile()
	if err != nil {
		return nil, err
	}

	tag := w.cfg.VersionPrefix + ver.String()
	exists, err := w.repo.TagExists(ctx, tag)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrTagExists, tag)
	}

	result := &TagResult{Version: ver, Tag: tag}
	if w.cfg.DryRun {
		w.log.Infof("dry run: would tag HEAD as %s and push", tag)
		return result, nil
	}

	if err := w.repo.CreateAnnotatedTag(tag, "Release "+ver.String(), w.identity()); err != nil {
		return nil, err
	}
	if err := w.repo.PushTag(ctx, tag); err != nil {
		return nil, err
	}
	w.log.Infof("pushed tag %s", tag)

	w.publishRelease(ctx, result)
	return result, nil
}

// readVersionFile reads the version marker the reconciler committed.
func (w *TagWorkflow) readVersionFile() (version.Version, error) {
	path := filepath.Join(w.repo.Root(), config.DefaultVersionFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return version.Version{}, fmt.Errorf("%w: %s not found, was it removed from the release commit?",
			ErrInvalidVersionFile, config.DefaultVersionFile)
	}
	if err != nil {
		return version.Version{}, fmt.Errorf("read %s: %w", config.DefaultVersionFile, err)
	}
	ver, err := version.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return version.Version{}, fmt.Errorf("%w: %v", ErrInvalidVersionFile, err)
	}
	return ver, nil
}

// publishRelease creates the host release for the pushed tag, with the
// changelog entry as its body.
func (w *TagWorkflow) publishRelease(ctx context.Context, result *TagResult) {
	if w.host == nil {
		return
	}

	body, err := changelog.Extract(filepath.Join(w.repo.Root(), w.cfg.ChangelogPath), result.Version.String())
	if err != nil {
		w.log.Warnf("could not read changelog entry for %s: %v", result.Version, err)
	}

	rel, err := w.host.CreateRelease(ctx, result.Tag, result.Tag, body)
	if errors.Is(err, githost.ErrReleasesUnsupported) {
		w.log.Debugf("%s has no release API, tag %s stands on its own", w.host.Kind(), result.Tag)
		return
	}
	if err != nil {
		w.log.Warnf("tag %s was pushed but publishing the release failed: %v", result.Tag, err)
		return
	}
	result.ReleaseURL = rel.URL
	w.log.Infof("published release %s", rel.URL)
}

func (w *TagWorkflow) identity() gitrepo.Identity {
	return gitrepo.Identity{Name: w.cfg.Git.UserName, Email: w.cfg.Git.UserEmail}
}
