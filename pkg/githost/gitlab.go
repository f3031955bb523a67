package githost

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/go-resty/resty/v2"
)

var gitlabURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https://([^/]+)/(.+?)(?:\.git)?/?$`),
	regexp.MustCompile(`^git@([^:]+):(.+?)(?:\.git)?$`),
}

// gitLabHost talks to the GitLab REST API v4. Self-managed instances work
// because the API host is taken from the remote URL.
type gitLabHost struct {
	client  *resty.Client
	project string // URL-encoded project path
}

type gitlabMR struct {
	IID    int    `json:"iid"`
	WebURL string `json:"web_url"`
}

type gitlabRelease struct {
	Links struct {
		Self string `json:"self"`
	} `json:"_links"`
}

func newGitLab(remoteURL, token string) (Host, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token not found: set GITLAB_TOKEN or 'gitlab.token' in the config file " +
			"(needs 'api' scope)")
	}
	host, project, err := parseGitLabRemote(remoteURL)
	if err != nil {
		return nil, err
	}
	client := resty.New().
		SetBaseURL(fmt.Sprintf("https://%s/api/v4", host)).
		SetHeader("PRIVATE-TOKEN", token)
	return &gitLabHost{client: client, project: url.PathEscape(project)}, nil
}

func parseGitLabRemote(remoteURL string) (host, project string, err error) {
	for _, re := range gitlabURLPatterns {
		if m := re.FindStringSubmatch(remoteURL); m != nil {
			return m[1], m[2], nil
		}
	}
	return "", "", fmt.Errorf("cannot parse GitLab project from remote URL %q", remoteURL)
}

func (g *gitLabHost) Kind() Kind {
	return KindGitLab
}

func (g *gitLabHost) CreateOrUpdatePullRequest(ctx context.Context, head, base, title, body string) (*PullRequest, error) {
	var open []gitlabMR
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"state":         "opened",
			"source_branch": head,
			"target_branch": base,
		}).
		SetResult(&open).
		Get(fmt.Sprintf("/projects/%s/merge_requests", g.project))
	if err != nil {
		return nil, fmt.Errorf("list merge requests: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("list merge requests", resp)
	}

	if len(open) > 0 {
		mr := open[0]
		var updated gitlabMR
		resp, err := g.client.R().
			SetContext(ctx).
			SetBody(map[string]string{"title": title, "description": body}).
			SetResult(&updated).
			Put(fmt.Sprintf("/projects/%s/merge_requests/%d", g.project, mr.IID))
		if err != nil {
			return nil, fmt.Errorf("update merge request !%d: %w", mr.IID, err)
		}
		if resp.IsError() {
			return nil, apiError(fmt.Sprintf("update merge request !%d", mr.IID), resp)
		}
		return &PullRequest{Number: updated.IID, URL: updated.WebURL}, nil
	}

	var created gitlabMR
	resp, err = g.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"source_branch": head,
			"target_branch": base,
			"title":         title,
			"description":   body,
		}).
		SetResult(&created).
		Post(fmt.Sprintf("/projects/%s/merge_requests", g.project))
	if err != nil {
		return nil, fmt.Errorf("create merge request %s -> %s: %w", head, base, err)
	}
	if resp.IsError() {
		return nil, apiError("create merge request", resp)
	}
	return &PullRequest{Number: created.IID, URL: created.WebURL, Created: true}, nil
}

func (g *gitLabHost) CreateRelease(ctx context.Context, tagName, title, body string) (*Release, error) {
	var rel gitlabRelease
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"tag_name":    tagName,
			"name":        title,
			"description": body,
		}).
		SetResult(&rel).
		Post(fmt.Sprintf("/projects/%s/releases", g.project))
	if err != nil {
		return nil, fmt.Errorf("create GitLab release for %s: %w", tagName, err)
	}
	if resp.IsError() {
		return nil, apiError("create GitLab release", resp)
	}
	return &Release{URL: rel.Links.Self}, nil
}

// apiError surfaces the HTTP status and response body verbatim.
func apiError(what string, resp *resty.Response) error {
	return fmt.Errorf("%s: %s: %s", what, resp.Status(), resp.String())
}
