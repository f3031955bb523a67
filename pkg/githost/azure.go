package githost

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-resty/resty/v2"
)

// Azure DevOps caps pull request descriptions at 4000 characters.
const azureDescriptionLimit = 4000

const azureAPIVersion = "7.0"

var azureURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https://(?:[^@]+@)?dev\.azure\.com/([^/]+)/([^/]+)/_git/(.+?)(?:\.git)?$`),
	regexp.MustCompile(`^git@ssh\.dev\.azure\.com:v3/([^/]+)/([^/]+)/(.+?)(?:\.git)?$`),
	regexp.MustCompile(`^https://([^.]+)\.visualstudio\.com/([^/]+)/_git/(.+?)(?:\.git)?$`),
}

type azureHost struct {
	client *resty.Client
}

type azurePR struct {
	PullRequestID int    `json:"pullRequestId"`
	URL           string `json:"url"`
}

type azurePRList struct {
	Value []azurePR `json:"value"`
}

func newAzure(remoteURL, token string) (Host, error) {
	if token == "" {
		return nil, fmt.Errorf("Azure DevOps token not found: set AZURE_DEVOPS_TOKEN or 'azure.token' in the " +
			"config file (needs 'Code (Read & Write)' scope)")
	}
	org, project, repo, err := parseAzureRemote(remoteURL)
	if err != nil {
		return nil, err
	}
	client := resty.New().
		SetBaseURL(fmt.Sprintf("https://dev.azure.com/%s/%s/_apis/git/repositories/%s", org, project, repo)).
		SetBasicAuth("", token).
		SetQueryParam("api-version", azureAPIVersion)
	return &azureHost{client: client}, nil
}

func parseAzureRemote(remoteURL string) (org, project, repo string, err error) {
	for _, re := range azureURLPatterns {
		if m := re.FindStringSubmatch(remoteURL); m != nil {
			return m[1], m[2], m[3], nil
		}
	}
	return "", "", "", fmt.Errorf("cannot parse Azure DevOps org/project/repo from remote URL %q", remoteURL)
}

func (a *azureHost) Kind() Kind {
	return KindAzure
}

func (a *azureHost) CreateOrUpdatePullRequest(ctx context.Context, head, base, title, body string) (*PullRequest, error) {
	if len(body) > azureDescriptionLimit {
		body = body[:azureDescriptionLimit]
	}

	var list azurePRList
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"searchCriteria.status":        "active",
			"searchCriteria.sourceRefName": "refs/heads/" + head,
			"searchCriteria.targetRefName": "refs/heads/" + base,
		}).
		SetResult(&list).
		Get("/pullrequests")
	if err != nil {
		return nil, fmt.Errorf("list pull requests: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("list pull requests", resp)
	}

	if len(list.Value) > 0 {
		existing := list.Value[0]
		var updated azurePR
		resp, err := a.client.R().
			SetContext(ctx).
			SetBody(map[string]string{"title": title, "description": body}).
			SetResult(&updated).
			Patch(fmt.Sprintf("/pullrequests/%d", existing.PullRequestID))
		if err != nil {
			return nil, fmt.Errorf("update pull request %d: %w", existing.PullRequestID, err)
		}
		if resp.IsError() {
			return nil, apiError(fmt.Sprintf("update pull request %d", existing.PullRequestID), resp)
		}
		return &PullRequest{Number: updated.PullRequestID, URL: updated.URL}, nil
	}

	var created azurePR
	resp, err = a.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"sourceRefName": "refs/heads/" + head,
			"targetRefName": "refs/heads/" + base,
			"title":         title,
			"description":   body,
		}).
		SetResult(&created).
		Post("/pullrequests")
	if err != nil {
		return nil, fmt.Errorf("create pull request %s -> %s: %w", head, base, err)
	}
	if resp.IsError() {
		return nil, apiError("create pull request", resp)
	}
	return &PullRequest{Number: created.PullRequestID, URL: created.URL, Created: true}, nil
}

// CreateRelease is unsupported: Azure DevOps has no release object tied to
// a tag the way GitHub and GitLab do.
func (a *azureHost) CreateRelease(context.Context, string, string, string) (*Release, error) {
	return nil, ErrReleasesUnsupported
}
