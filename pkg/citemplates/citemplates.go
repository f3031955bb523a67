// Package citemplates bootstraps the CI pipeline files that wire the
// release workflows into GitHub Actions, GitLab CI or Azure DevOps.
package citemplates

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/release-conductor/release-conductor/pkg/config"
)

// Flavour selects which CI platform to generate files for.
type Flavour string

const (
	FlavourGitHub Flavour = "github"
	FlavourGitLab Flavour = "gitlab"
	FlavourAzure  Flavour = "azure"
)

// bootstrapFile is one file a flavour writes, relative to the target
// directory.
type bootstrapFile struct {
	path    string
	content string
	mode    os.FileMode
}

func filesFor(flavour Flavour) ([]bootstrapFile, error) {
	// Every flavour starts with the config file.
	files := []bootstrapFile{
		{path: config.DefaultFileName, content: config.Template, mode: 0o644},
	}
	switch flavour {
	case FlavourGitHub:
		files = append(files, bootstrapFile{
			path:    filepath.Join(".github", "workflows", "release-conductor.yaml"),
			content: githubWorkflow,
			mode:    0o644,
		})
	case FlavourGitLab:
		files = append(files, bootstrapFile{
			path:    ".gitlab-ci.yml",
			content: gitlabCI,
			mode:    0o644,
		})
	case FlavourAzure:
		files = append(files,
			bootstrapFile{path: filepath.Join(".azure", "ci.yaml"), content: azureCI, mode: 0o644},
			bootstrapFile{path: filepath.Join(".azure", "pr-validation.yaml"), content: azurePRValidation, mode: 0o644},
			bootstrapFile{path: filepath.Join(".azure", "scripts", "validate-pr-title.sh"), content: azurePRValidationScript, mode: 0o755},
			bootstrapFile{path: filepath.Join(".azure", "README-BRANCH-POLICIES.md"), content: azureBranchPoliciesREADME, mode: 0o644},
		)
	default:
		return nil, fmt.Errorf("unknown flavour %q (supported: github, gitlab, azure)", flavour)
	}
	return files, nil
}

// Existing returns the bootstrap files for a flavour that already exist in
// dir, so callers can refuse to overwrite them.
func Existing(flavour Flavour, dir string) ([]string, error) {
	files, err := filesFor(flavour)
	if err != nil {
		return nil, err
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(filepath.Join(dir, f.path)); err == nil {
			existing = append(existing, f.path)
		}
	}
	return existing, nil
}

// Bootstrap writes the CI pipeline files and the starter config for a
// flavour into dir. With dryRun it only reports what would be written.
// Returns the written (or planned) paths relative to dir.
func Bootstrap(flavour Flavour, dir string, dryRun bool) ([]string, error) {
	files, err := filesFor(flavour)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.path)
		if dryRun {
			continue
		}
		target := filepath.Join(dir, f.path)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("create directory for %s: %w", f.path, err)
		}
		if err := os.WriteFile(target, []byte(f.content), f.mode); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.path, err)
		}
	}
	return paths, nil
}

// Instructions returns the post-bootstrap setup steps for a flavour.
func Instructions(flavour Flavour) string {
	switch flavour {
	case FlavourGitHub:
		return githubInstructions
	case FlavourGitLab:
		return gitlabInstructions
	case FlavourAzure:
		return azureInstructions
	default:
		return ""
	}
}

const githubInstructions = `Next steps:

1. Review and customise the generated configuration file:
   - ` + config.DefaultFileName + `

2. Set up a GitHub token:
   - Go to Settings -> Secrets and variables -> Actions
   - Create a new secret named 'RELEASE_CONDUCTOR_TOKEN'
   - Use a token with 'repo' scope (or 'public_repo' for public repos)

3. Commit the generated files:
   git add .github/workflows/release-conductor.yaml ` + config.DefaultFileName + `
   git commit -m "chore: add release automation workflow"
   git push

4. The workflow will run on the next push to the main branch`

const gitlabInstructions = `Next steps:

1. Review and customise the generated configuration file:
   - ` + config.DefaultFileName + `
   - Update the git.user-name and git.user-email fields

2. Set up a GitLab CI/CD variable:
   - Go to Settings -> Access Tokens
   - Create a project access token with role Maintainer and scopes:
     api, read_api, read_repository, write_repository
   - Go to Settings -> CI/CD -> Variables
   - Create a variable named 'CICD_TOKEN' with the token value, marked "Masked"

3. Commit the generated files:
   git add .gitlab-ci.yml ` + config.DefaultFileName + `
   git commit -m "chore: add release automation pipeline"
   git push

4. Configure merge request settings (recommended):
   - Enable "Delete source branch"
   - Enable "Squash commits when merging" for cleaner history

5. The pipeline will run on the next push to the main branch`

const azureInstructions = `Next steps:

1. Review and customise the generated configuration file:
   - ` + config.DefaultFileName + `

2. Configure the Azure DevOps CI pipeline:
   - Go to Pipelines -> Create Pipeline
   - Select your repository
   - Choose "Existing Azure Pipelines YAML file"
   - Select '.azure/ci.yaml' and run it once to register the pipeline

3. Grant permissions:
   - Go to Project Settings -> Repositories -> your repository -> Security
   - Find the "Build Service" account
   - Grant "Contribute", "Create tag", and "Contribute to pull requests"

4. Commit the generated files:
   git add .azure/ ` + config.DefaultFileName + `
   git commit -m "chore: add release automation pipelines"
   git push

5. Set up PR title validation:
   - See .azure/README-BRANCH-POLICIES.md for the branch policy setup

6. The CI pipeline will run on the next push to the main branch`
