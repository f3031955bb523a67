package config

// Template is a fully documented starter configuration, written by the
// generate-config and bootstrap commands.
const Template = `# Release Conductor configuration
#
# Maps conventional commit types to semantic version bumps and configures
# the release workflow.

# REQUIRED: which commit types trigger which version bump.
release-rules:
  # Major version bump (x.0.0) - breaking changes
  major:
    - breaking

  # Minor version bump (0.x.0) - new features
  minor:
    - feat

  # Patch version bump (0.0.x) - fixes and minor changes
  patch:
    - fix
    - perf
    - chore
    - docs
    - refactor
    - style
    - test
    - ci

# Version prefix for tags (e.g. "v" for v1.2.3). Default: "" (no prefix)
version-prefix: ""

# Changelog file path. Default: "CHANGELOG.md"
changelog-path: "CHANGELOG.md"

# Branch releases are cut from. Default: "main"
source-branch: "main"

# Release branch name.
# Default: "release-conductor--branches--{source-branch}"
# release-branch-name: "release-conductor--branches--main"

# Extra regular expressions that identify release commits wrapped by your
# git host. "{release_branch}" is replaced with the release branch name.
# release-commit-patterns: []

# Git identity used for release commits (CI runners usually have none).
git:
  user-name: "Release Conductor Bot"
  user-email: "release-conductor-bot@users.noreply.github.com"

# Changelog sections, grouping commit types under headings, in order.
changelog-sections:
  - type: feat
    section: Features
  - type: fix
    section: Bug Fixes
  - type: chore
    section: Miscellaneous Changes
  - type: ci
    section: Miscellaneous Changes
  - type: docs
    section: Documentation
  - type: refactor
    section: Code Refactoring

# Extra files to rewrite with the new version during reconciliation.
#
# Supported types:
#   yaml    - requires yaml-path (e.g. $.version)
#   toml    - requires toml-path (e.g. $.project.version)
#   json    - requires json-path (e.g. $.version)
#   generic - rewrites versions between marker comments:
#               <!--- release-conductor-bump-start --->
#               ... v1.2.3 ...
#               <!--- release-conductor-bump-end --->
extra-files: []
  # - type: yaml
  #   path: charts/myapp/Chart.yaml
  #   yaml-path: $.version
  #   use-prefix: "v"
  # - type: toml
  #   path: pyproject.toml
  #   toml-path: $.project.version
  # - type: json
  #   path: package.json
  #   json-path: $.version
  # - type: generic
  #   path: README.md
  #   use-prefix: "v"

# Host credentials. Environment variables take precedence:
#   GITHUB_TOKEN, GITLAB_TOKEN, AZURE_DEVOPS_TOKEN
# github:
#   token: "ghp_xxx"
# gitlab:
#   token: "glpat-xxx"
# azure:
#   token: "xxx"
`
