package citemplates

// The templates assume the default source branch "main" and the default
// release branch derived from it. Projects with other branch layouts edit
// the generated files afterwards.

const githubWorkflow = `name: Release Conductor

on:
  push:
    branches:
      - main

jobs:
  release-pr:
    # Skip pushes that are release PR merges, the tag job handles those.
    if: "!contains(github.event.head_commit.message, 'release-conductor--branches--main') && !startsWith(github.event.head_commit.message, 'chore(main): release')"
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
        with:
          fetch-depth: 0 # full history is required for commit analysis

      - uses: actions/setup-go@v5
        with:
          go-version: stable

      - name: Install release-conductor
        run: go install github.com/release-conductor/release-conductor/cmd/release-conductor@latest

      - name: Create or update release PR
        run: release-conductor release --verbose
        env:
          GITHUB_TOKEN: ${{ secrets.RELEASE_CONDUCTOR_TOKEN }}

  tag-release:
    if: "contains(github.event.head_commit.message, 'release-conductor--branches--main') || startsWith(github.event.head_commit.message, 'chore(main): release')"
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
        with:
          fetch-depth: 0

      - uses: actions/setup-go@v5
        with:
          go-version: stable

      - name: Install release-conductor
        run: go install github.com/release-conductor/release-conductor/cmd/release-conductor@latest

      - name: Create and push tag
        run: release-conductor tag-release --verbose
        env:
          GITHUB_TOKEN: ${{ secrets.RELEASE_CONDUCTOR_TOKEN }}
`

const gitlabCI = `stages:
  - release

variables:
  # Project access token used for API calls and git pushes
  GITLAB_TOKEN: $CICD_TOKEN
  # Fetch full git history for commit analysis
  GIT_DEPTH: 0

# Create or update the release merge request
create-release-mr:
  stage: release
  image: golang:1.22-alpine
  before_script:
    - apk add --no-cache git
    - git remote set-url origin "https://oauth2:${CICD_TOKEN}@${CI_SERVER_HOST}/${CI_PROJECT_PATH}.git"
  script:
    - go install github.com/release-conductor/release-conductor/cmd/release-conductor@latest
    - release-conductor release --git-host gitlab --verbose
  rules:
    # Run on pushes to main, but not on release MR merges
    - if: '$CI_COMMIT_BRANCH == "main" && $CI_PIPELINE_SOURCE == "push" && $CI_COMMIT_MESSAGE !~ /^Merge branch .release-conductor--branches--main./'
      when: always

# Create the git tag and GitLab release
create-tag-and-release:
  stage: release
  image: golang:1.22-alpine
  before_script:
    - apk add --no-cache git
    # GitLab CI checks out a detached HEAD by default
    - git checkout -B "$CI_COMMIT_REF_NAME" "$CI_COMMIT_SHA"
    - git remote set-url origin "https://oauth2:${CICD_TOKEN}@${CI_SERVER_HOST}/${CI_PROJECT_PATH}.git"
  script:
    - go install github.com/release-conductor/release-conductor/cmd/release-conductor@latest
    - release-conductor tag-release --git-host gitlab --verbose
  rules:
    # Run only when a release MR is merged to main
    - if: '$CI_COMMIT_BRANCH == "main" && $CI_COMMIT_MESSAGE =~ /^Merge branch .release-conductor--branches--main./'
      when: always
`

const azureCI = `variables:
  - name: IS_TAGGED_BUILD
    value: $[startsWith(variables['Build.SourceBranch'], 'refs/tags/')]
  - name: IS_RELEASE_PR_MERGE
    # Matches: "Merged PR X: chore(main): release 0.1.0"
    value: $[and(contains(variables['Build.SourceVersionMessage'], 'Merged PR'), and(contains(variables['Build.SourceVersionMessage'], 'chore(main)'), contains(variables['Build.SourceVersionMessage'], 'release')))]

pool:
  vmImage: ubuntu-latest

trigger:
  tags:
    include:
      - "*"
  branches:
    include:
      - main

pr: none

jobs:
  # Release PR creation - runs on pushes to main (except release PR merges)
  - job: CreateReleasePR
    displayName: "Create or Update Release PR"
    condition: and(eq(variables['Build.SourceBranchName'], 'main'), eq(variables['Build.Reason'], 'IndividualCI'), ne(variables['IS_RELEASE_PR_MERGE'], 'True'))
    steps:
      - checkout: self
        fetchDepth: 0
        persistCredentials: true
        displayName: "Checkout with full history"

      - task: GoTool@0
        inputs:
          version: "1.22.5"
        displayName: "Install Go"

      - bash: |
          go install github.com/release-conductor/release-conductor/cmd/release-conductor@latest
          export PATH="$(go env GOPATH)/bin:$PATH"
          release-conductor release --verbose
        displayName: "Create or update release PR"
        env:
          AZURE_DEVOPS_TOKEN: $(System.AccessToken)

  # Tag and release creation - runs only on release PR merges
  - job: CreateTagAndRelease
    displayName: "Create Git Tag and Release"
    condition: and(eq(variables['Build.SourceBranchName'], 'main'), eq(variables['IS_RELEASE_PR_MERGE'], 'True'))
    steps:
      - checkout: self
        fetchDepth: 0
        persistCredentials: true
        displayName: "Checkout with full history"

      - bash: |
          git checkout main
          git pull origin main
        displayName: "Ensure we're on main branch"

      - task: GoTool@0
        inputs:
          version: "1.22.5"
        displayName: "Install Go"

      - bash: |
          go install github.com/release-conductor/release-conductor/cmd/release-conductor@latest
          export PATH="$(go env GOPATH)/bin:$PATH"
          release-conductor tag-release --verbose
        displayName: "Create and push git tag"
        env:
          AZURE_DEVOPS_TOKEN: $(System.AccessToken)
`

const azurePRValidation = `# Azure DevOps PR validation pipeline
# Runs validation on all pull requests to main branch

trigger: none # Don't trigger on commits

pr:
  branches:
    include:
      - main

jobs:
  - job: ValidatePRTitle
    displayName: "Validate PR Title"
    steps:
      - checkout: self
        displayName: "Checkout code"

      - bash: |
          # Install jq for JSON parsing
          if command -v sudo >/dev/null 2>&1; then
            sudo apt-get update && sudo apt-get install -y jq
          else
            apt-get update && apt-get install -y jq
          fi
        displayName: "Install jq"

      - bash: |
          .azure/scripts/validate-pr-title.sh
        displayName: "Validate PR title format"
        env:
          SYSTEM_ACCESSTOKEN: $(System.AccessToken)
`

const azurePRValidationScript = `#!/bin/sh
set -e

# Check if this is a PR build
if [ -z "$SYSTEM_PULLREQUEST_PULLEREQUESTNUMBER" ]; then
    echo "Not a pull request pipeline, skipping validation"
    exit 0
fi

# Get the PR title from the Azure DevOps API
echo "Getting PR title from Azure DevOps API..."
PR_TITLE=$(curl -s \
    -H "Authorization: Bearer $SYSTEM_ACCESSTOKEN" \
    "$SYSTEM_COLLECTIONURI$SYSTEM_TEAMPROJECT/_apis/git/pullrequests/$SYSTEM_PULLREQUEST_PULLEREQUESTNUMBER?api-version=7.0" \
    | jq -r '.title')

if [ -z "$PR_TITLE" ]; then
    echo "Could not retrieve PR title"
    exit 1
fi

echo "PR Title: $PR_TITLE"

# Conventional commit pattern with common types
# Matches: type(optional-scope): description or type: description
PATTERN="^(feat|fix|chore|ci|docs|refactor|test|perf|style|build)(\(.+\))?(!)?(:[[:space:]]+.+|!:[[:space:]]+.+)"

if echo "$PR_TITLE" | grep -qE "$PATTERN"; then
    echo "PR title follows conventional commit format"
    exit 0
else
    echo "PR title does not follow conventional commit format"
    echo ""
    echo "Expected format: <type>[(<scope>)][!]: <description>"
    echo "Allowed types: feat, fix, chore, ci, docs, refactor, test, perf, style, build"
    echo ""
    echo "Examples:"
    echo "  feat: add new feature"
    echo "  fix(api): resolve authentication issue"
    echo "  docs: update README"
    echo "  feat!: breaking change in API"
    exit 1
fi
`

const azureBranchPoliciesREADME = `# Branch policies for release automation

Squash merges on Azure DevOps use the pull request title as the merge
commit subject, so the release workflow can only classify merged changes
when PR titles follow the conventional commit format.

## PR title validation pipeline

1. Go to Pipelines -> Create Pipeline
2. Select your repository
3. Choose "Existing Azure Pipelines YAML file"
4. Select ".azure/pr-validation.yaml"
5. Save the pipeline (do not run it manually, it triggers on PRs)

## Branch policy

1. Go to Repos -> Branches
2. Open the context menu for "main" and choose "Branch policies"
3. Under "Build Validation", add the PR validation pipeline created above
4. Set "Trigger" to Automatic and "Policy requirement" to Required

With the policy in place, pull requests into main cannot complete until
their title passes validation.
`
