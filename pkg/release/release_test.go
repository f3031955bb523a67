package release

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/release-conductor/release-conductor/pkg/config"
	"github.com/release-conductor/release-conductor/pkg/githost"
	"github.com/release-conductor/release-conductor/pkg/gitrepo"
	"github.com/release-conductor/release-conductor/pkg/version"
)

// fakeRepo implements ReconcilerRepo and TagRepo against an in-memory
// history and a real temp directory as worktree.
type fakeRepo struct {
	root        string
	latestTag   string
	messages    []string
	branch      string
	headMessage string
	remoteTags  map[string]bool

	fetched       bool
	resetBranch   string
	resetFrom     string
	checkedOut    []string
	commitMsgs    []string
	pushedBranch  string
	pushedTags    []string
	annotatedTags map[string]string
}

func newFakeRepo(t *testing.T) *fakeRepo {
	t.Helper()
	return &fakeRepo{
		root:          t.TempDir(),
		branch:        "main",
		remoteTags:    map[string]bool{},
		annotatedTags: map[string]string{},
	}
}

func (f *fakeRepo) Root() string                { return f.root }
func (f *fakeRepo) Fetch(context.Context) error { f.fetched = true; return nil }
func (f *fakeRepo) LatestTag() (string, error)  { return f.latestTag, nil }

func (f *fakeRepo) CommitMessagesSince(string) ([]string, error) {
	return f.messages, nil
}

func (f *fakeRepo) CurrentBranch() (string, error)       { return f.branch, nil }
func (f *fakeRepo) LatestCommitMessage() (string, error) { return f.headMessage, nil }

func (f *fakeRepo) ForceResetBranch(name, from string) error {
	f.resetBranch, f.resetFrom = name, from
	f.branch = name
	return nil
}

func (f *fakeRepo) CheckoutBranch(name string) error {
	f.checkedOut = append(f.checkedOut, name)
	f.branch = name
	return nil
}

func (f *fakeRepo) CommitAll(message string, _ gitrepo.Identity) (bool, error) {
	f.commitMsgs = append(f.commitMsgs, message)
	return true, nil
}

func (f *fakeRepo) ForcePushBranch(_ context.Context, name string) error {
	f.pushedBranch = name
	return nil
}

func (f *fakeRepo) TagExists(_ context.Context, name string) (bool, error) {
	return f.remoteTags[name], nil
}

func (f *fakeRepo) CreateAnnotatedTag(name, message string, _ gitrepo.Identity) error {
	f.annotatedTags[name] = message
	return nil
}

func (f *fakeRepo) PushTag(_ context.Context, name string) error {
	f.pushedTags = append(f.pushedTags, name)
	return nil
}

type prCall struct {
	head, base, title, body string
}

type fakeHost struct {
	hasOpenPR  bool
	prCalls    []prCall
	releases   []string
	releaseErr error
}

func (f *fakeHost) Kind() githost.Kind { return githost.KindGitHub }

func (f *fakeHost) CreateOrUpdatePullRequest(_ context.Context, head, base, title, body string) (*githost.PullRequest, error) {
	f.prCalls = append(f.prCalls, prCall{head, base, title, body})
	created := !f.hasOpenPR
	f.hasOpenPR = true
	return &githost.PullRequest{Number: 7, URL: "https://example.com/pr/7", Created: created}, nil
}

func (f *fakeHost) CreateRelease(_ context.Context, tagName, _, _ string) (*githost.Release, error) {
	if f.releaseErr != nil {
		return nil, f.releaseErr
	}
	f.releases = append(f.releases, tagName)
	return &githost.Release{URL: "https://example.com/releases/" + tagName}, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.VersionPrefix = "v"
	return cfg
}

func TestComputeFirstRelease(t *testing.T) {
	repo := newFakeRepo(t)
	repo.messages = []string{"fix: stop dropping the first byte"}

	comp, err := Compute(repo, testConfig())
	require.NoError(t, err)
	assert.Nil(t, comp.CurrentVersion)
	assert.Equal(t, "0.1.0", comp.NextVersion.String())
	assert.Equal(t, version.ReleasePatch, comp.ReleaseType)
}

func TestComputeMinorRelease(t *testing.T) {
	repo := newFakeRepo(t)
	repo.latestTag = "v1.1.35"
	repo.messages = []string{
		"docs: document the retry loop",
		"feat(api): add pagination",
		"fix: handle empty responses",
		"fix(api): propagate context cancellation",
		"feat: expose timing metrics",
		"docs(readme): fix badge",
		"fix: close idle connections",
	}

	comp, err := Compute(repo, testConfig())
	require.NoError(t, err)
	require.NotNil(t, comp.CurrentVersion)
	assert.Equal(t, "1.1.35", comp.CurrentVersion.String())
	assert.Equal(t, "1.2.0", comp.NextVersion.String())
	assert.Equal(t, version.ReleaseMinor, comp.ReleaseType)
	assert.Equal(t, map[string]int{"docs": 2, "feat": 2, "fix": 3}, comp.Summary())
}

func TestComputeNoCommits(t *testing.T) {
	repo := newFakeRepo(t)
	repo.latestTag = "v1.0.0"

	_, err := Compute(repo, testConfig())
	assert.ErrorIs(t, err, ErrNoChanges)
}

func TestComputeOnlyReleaseArtifacts(t *testing.T) {
	repo := newFakeRepo(t)
	repo.latestTag = "v1.0.0"
	repo.messages = []string{
		"Merge pull request #12 from acme/release-conductor--branches--main",
		"chore(main): update files for release 1.0.0",
	}

	_, err := Compute(repo, testConfig())
	assert.ErrorIs(t, err, ErrOnlyReleaseArtifacts)
}

func TestComputeNothingToRelease(t *testing.T) {
	cfg := testConfig()
	cfg.ReleaseRules = config.ReleaseRules{Minor: []string{"feat"}}

	repo := newFakeRepo(t)
	repo.latestTag = "v1.0.0"
	repo.messages = []string{"docs: clarify the install steps"}

	_, err := Compute(repo, cfg)
	assert.ErrorIs(t, err, ErrNothingToRelease)
}

func TestComputeBreakingForcesMajor(t *testing.T) {
	repo := newFakeRepo(t)
	repo.latestTag = "v1.1.0"
	repo.messages = []string{"fix!: drop the legacy wire format"}

	comp, err := Compute(repo, testConfig())
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", comp.NextVersion.String())
}

func TestReconcilerRun(t *testing.T) {
	cfg := testConfig()
	repo := newFakeRepo(t)
	repo.latestTag = "v1.1.35"
	repo.messages = []string{"feat: add pagination", "fix: handle empty responses"}
	host := &fakeHost{}

	res, err := NewReconciler(cfg, repo, host, nil).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, repo.fetched)
	assert.Equal(t, "release-conductor--branches--main", repo.resetBranch)
	assert.Equal(t, "main", repo.resetFrom)
	assert.Equal(t, repo.resetBranch, repo.pushedBranch)
	require.Len(t, repo.commitMsgs, 1)
	assert.Equal(t, "chore(main): update files for release 1.2.0", repo.commitMsgs[0])
	// The worktree ends back on the source branch.
	assert.Equal(t, []string{"main"}, repo.checkedOut)

	require.Len(t, host.prCalls, 1)
	pr := host.prCalls[0]
	assert.Equal(t, repo.resetBranch, pr.head)
	assert.Equal(t, "main", pr.base)
	assert.Equal(t, "chore(main): release 1.2.0", pr.title)
	assert.Contains(t, pr.body, "## [1.2.0]")
	assert.Contains(t, pr.body, "### Features")

	require.NotNil(t, res.PullRequest)
	assert.True(t, res.PullRequest.Created)

	data, err := os.ReadFile(filepath.Join(repo.root, "version.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1.2.0\n", string(data))

	cl, err := os.ReadFile(filepath.Join(repo.root, "CHANGELOG.md"))
	require.NoError(t, err)
	assert.Contains(t, string(cl), "# Changelog")
	assert.Contains(t, string(cl), "## [1.2.0]")
}

func TestReconcilerRerunUpdatesPullRequest(t *testing.T) {
	cfg := testConfig()
	repo := newFakeRepo(t)
	repo.latestTag = "v1.1.35"
	repo.messages = []string{"feat: add pagination"}
	host := &fakeHost{hasOpenPR: true}

	res, err := NewReconciler(cfg, repo, host, nil).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.PullRequest)
	assert.False(t, res.PullRequest.Created)
}

func TestReconcilerBumpsExtraFiles(t *testing.T) {
	cfg := testConfig()
	cfg.ExtraFiles = []config.ExtraFile{
		{Type: "json", Path: "package.json", JSONPath: "$.version"},
	}
	repo := newFakeRepo(t)
	repo.latestTag = "v1.0.0"
	repo.messages = []string{"fix: patch things"}
	require.NoError(t, os.WriteFile(filepath.Join(repo.root, "package.json"),
		[]byte("{\n  \"version\": \"1.0.0\"\n}\n"), 0o644))

	_, err := NewReconciler(cfg, repo, &fakeHost{}, nil).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(repo.root, "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "1.0.1")
}

func TestReconcilerDryRun(t *testing.T) {
	cfg := testConfig()
	cfg.DryRun = true
	repo := newFakeRepo(t)
	repo.latestTag = "v1.0.0"
	repo.messages = []string{"feat: something new"}
	host := &fakeHost{}

	res, err := NewReconciler(cfg, repo, host, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.1.0", res.Computation.NextVersion.String())
	assert.Nil(t, res.PullRequest)
	assert.Empty(t, repo.resetBranch)
	assert.Empty(t, repo.pushedBranch)
	assert.Empty(t, host.prCalls)
	assert.NoFileExists(t, filepath.Join(repo.root, "version.txt"))
}

func writeReleaseFiles(t *testing.T, repo *fakeRepo, ver string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(repo.root, "version.txt"), []byte(ver+"\n"), 0o644))
	cl := "# Changelog\n\n## [" + ver + "] (2026-08-28)\n\n### Features\n\n* add pagination\n"
	require.NoError(t, os.WriteFile(filepath.Join(repo.root, "CHANGELOG.md"), []byte(cl), 0o644))
}

func TestTagWorkflowRun(t *testing.T) {
	cfg := testConfig()
	repo := newFakeRepo(t)
	repo.headMessage = "chore(main): update files for release 1.2.0"
	writeReleaseFiles(t, repo, "1.2.0")
	host := &fakeHost{}

	res, err := NewTagWorkflow(cfg, repo, host, nil).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, repo.fetched)
	assert.Equal(t, "v1.2.0", res.Tag)
	assert.Equal(t, "Release 1.2.0", repo.annotatedTags["v1.2.0"])
	assert.Equal(t, []string{"v1.2.0"}, repo.pushedTags)
	assert.Equal(t, []string{"v1.2.0"}, host.releases)
	assert.Equal(t, "https://example.com/releases/v1.2.0", res.ReleaseURL)
}

func TestTagWorkflowAcceptsSquashedReleaseCommit(t *testing.T) {
	cfg := testConfig()
	repo := newFakeRepo(t)
	repo.headMessage = "Merged PR 10: chore(main): release 1.2.0"
	writeReleaseFiles(t, repo, "1.2.0")

	res, err := NewTagWorkflow(cfg, repo, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", res.Tag)
	assert.Empty(t, res.ReleaseURL)
}

func TestTagWorkflowWrongBranch(t *testing.T) {
	cfg := testConfig()
	repo := newFakeRepo(t)
	repo.branch = cfg.ReleaseBranch()
	repo.headMessage = "chore(main): update files for release 1.2.0"

	_, err := NewTagWorkflow(cfg, repo, nil, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrWrongBranch)
	assert.Empty(t, repo.pushedTags)
}

func TestTagWorkflowNotReleaseCommit(t *testing.T) {
	repo := newFakeRepo(t)
	repo.headMessage = "feat: add pagination"

	_, err := NewTagWorkflow(testConfig(), repo, nil, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrNotReleaseCommit)
}

func TestTagWorkflowMissingVersionFile(t *testing.T) {
	repo := newFakeRepo(t)
	repo.headMessage = "chore(main): update files for release 1.2.0"

	_, err := NewTagWorkflow(testConfig(), repo, nil, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidVersionFile)
}

func TestTagWorkflowGarbageVersionFile(t *testing.T) {
	repo := newFakeRepo(t)
	repo.headMessage = "chore(main): update files for release 1.2.0"
	require.NoError(t, os.WriteFile(filepath.Join(repo.root, "version.txt"), []byte("not-a-version\n"), 0o644))

	_, err := NewTagWorkflow(testConfig(), repo, nil, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidVersionFile)
}

func TestTagWorkflowTagExists(t *testing.T) {
	repo := newFakeRepo(t)
	repo.headMessage = "chore(main): update files for release 1.2.0"
	repo.remoteTags["v1.2.0"] = true
	writeReleaseFiles(t, repo, "1.2.0")

	_, err := NewTagWorkflow(testConfig(), repo, nil, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrTagExists)
	assert.Empty(t, repo.pushedTags)
}

func TestTagWorkflowReleaseFailureIsNotFatal(t *testing.T) {
	repo := newFakeRepo(t)
	repo.headMessage = "chore(main): update files for release 1.2.0"
	writeReleaseFiles(t, repo, "1.2.0")
	host := &fakeHost{releaseErr: assert.AnError}

	res, err := NewTagWorkflow(testConfig(), repo, host, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.2.0"}, repo.pushedTags)
	assert.Empty(t, res.ReleaseURL)
}

func TestTagWorkflowReleasesUnsupported(t *testing.T) {
	repo := newFakeRepo(t)
	repo.headMessage = "chore(main): update files for release 1.2.0"
	writeReleaseFiles(t, repo, "1.2.0")
	host := &fakeHost{releaseErr: githost.ErrReleasesUnsupported}

	res, err := NewTagWorkflow(testConfig(), repo, host, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.2.0"}, repo.pushedTags)
	assert.Empty(t, res.ReleaseURL)
}

func TestTagWorkflowDryRun(t *testing.T) {
	cfg := testConfig()
	cfg.DryRun = true
	repo := newFakeRepo(t)
	repo.headMessage = "chore(main): update files for release 1.2.0"
	writeReleaseFiles(t, repo, "1.2.0")

	res, err := NewTagWorkflow(cfg, repo, &fakeHost{}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", res.Tag)
	assert.Empty(t, repo.pushedTags)
	assert.Empty(t, repo.annotatedTags)
}
