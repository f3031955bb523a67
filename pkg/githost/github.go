package githost

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/go-github/v60/github"
)

var githubURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https://github\.com/([^/]+)/(.+?)(?:\.git)?/?$`),
	regexp.MustCompile(`^git@github\.com:([^/]+)/(.+?)(?:\.git)?$`),
}

type gitHubHost struct {
	client *github.Client
	owner  string
	repo   string
}

func newGitHub(remoteURL, token string) (Host, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token not found: set GITHUB_TOKEN or 'github.token' in the config file " +
			"(needs 'repo' scope for private repositories, 'public_repo' for public ones)")
	}
	owner, repo, err := parseGitHubRemote(remoteURL)
	if err != nil {
		return nil, err
	}
	return &gitHubHost{
		client: github.NewClient(nil).WithAuthToken(token),
		owner:  owner,
		repo:   repo,
	}, nil
}

func parseGitHubRemote(remoteURL string) (owner, repo string, err error) {
	for _, re := range githubURLPatterns {
		if m := re.FindStringSubmatch(remoteURL); m != nil {
			return m[1], m[2], nil
		}
	}
	return "", "", fmt.Errorf("cannot parse GitHub owner/repo from remote URL %q", remoteURL)
}

func (g *gitHubHost) Kind() Kind {
	return KindGitHub
}

func (g *gitHubHost) CreateOrUpdatePullRequest(ctx context.Context, head, base, title, body string) (*PullRequest, error) {
	existing, err := g.findOpenPR(ctx, head, base)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		pr, _, err := g.client.PullRequests.Edit(ctx, g.owner, g.repo, existing.GetNumber(), &github.PullRequest{
			Title: &title,
			Body:  &body,
		})
		if err != nil {
			return nil, fmt.Errorf("update pull request #%d: %w", existing.GetNumber(), err)
		}
		return &PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}, nil
	}

	pr, _, err := g.client.PullRequests.Create(ctx, g.owner, g.repo, &github.NewPullRequest{
		Title: &title,
		Body:  &body,
		Head:  &head,
		Base:  &base,
	})
	if err != nil {
		return nil, fmt.Errorf("create pull request %s -> %s: %w", head, base, err)
	}
	return &PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL(), Created: true}, nil
}

func (g *gitHubHost) findOpenPR(ctx context.Context, head, base string) (*github.PullRequest, error) {
	prs, _, err := g.client.PullRequests.List(ctx, g.owner, g.repo, &github.PullRequestListOptions{
		State:       "open",
		Head:        g.owner + ":" + head,
		Base:        base,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("list pull requests for %s/%s: %w", g.owner, g.repo, err)
	}
	if len(prs) == 0 {
		return nil, nil
	}
	return prs[0], nil
}

func (g *gitHubHost) CreateRelease(ctx context.Context, tagName, title, body string) (*Release, error) {
	rel, _, err := g.client.Repositories.CreateRelease(ctx, g.owner, g.repo, &github.RepositoryRelease{
		TagName: &tagName,
		Name:    &title,
		Body:    &body,
	})
	if err != nil {
		return nil, fmt.Errorf("create GitHub release for %s: %w", tagName, err)
	}
	return &Release{URL: rel.GetHTMLURL()}, nil
}
