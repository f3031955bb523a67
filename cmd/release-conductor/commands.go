package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/release-conductor/release-conductor/pkg/bumper"
	"github.com/release-conductor/release-conductor/pkg/changelog"
	"github.com/release-conductor/release-conductor/pkg/citemplates"
	"github.com/release-conductor/release-conductor/pkg/config"
	"github.com/release-conductor/release-conductor/pkg/release"
	verpkg "github.com/release-conductor/release-conductor/pkg/version"
)

// noReleaseNeeded reports whether a computation error just means there is
// nothing to release right now.
func noReleaseNeeded(err error) bool {
	return errors.Is(err, release.ErrNoChanges) ||
		errors.Is(err, release.ErrOnlyReleaseArtifacts) ||
		errors.Is(err, release.ErrNothingToRelease)
}

func newNextVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-version",
		Short: "Calculate the next semantic version from the commit history",
		Long: `Analyses the commits since the last git tag and prints the next version,
prefixed the way the tag would be.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}

			comp, err := release.Compute(repo, cfg)
			if err != nil {
				return err
			}

			if cfg.Verbose {
				if comp.CurrentVersion == nil {
					fmt.Println("No tags found in repository")
					fmt.Printf("Will use first release: %s\n", verpkg.FirstRelease)
				} else {
					fmt.Printf("Current version: %s\n", comp.CurrentVersion)
				}
				fmt.Printf("\nFound %d commits since last release\n", len(comp.Commits))
				printSummary(comp, cfg)
				fmt.Printf("\nDetermined release type: %s\n\n", comp.ReleaseType)
			}

			fmt.Println(cfg.VersionPrefix + comp.NextVersion.String())
			return nil
		},
	}
}

func printSummary(comp *release.Computation, cfg *config.Config) {
	summary := comp.Summary()
	types := make([]string, 0, len(summary))
	for t := range summary {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Println("\nCommit summary:")
	rules := cfg.Rules()
	for _, t := range types {
		if rt := rules.ReleaseTypeFor(t); rt != verpkg.ReleaseNone {
			fmt.Printf("  %s: %d -> %s bump\n", t, summary[t], rt)
		} else {
			fmt.Printf("  %s: %d -> (no bump)\n", t, summary[t])
		}
	}
}

func newGenerateChangelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-changelog",
		Short: "Render the changelog entry for the next release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}

			comp, err := release.Compute(repo, cfg)
			if err != nil {
				return err
			}
			entry, err := changelog.Compose(comp.NextVersion.String(), comp.Commits, cfg.ChangelogSections, time.Now())
			if err != nil {
				return err
			}

			write, _ := cmd.Flags().GetBool("write")
			if !write {
				fmt.Print(entry)
				return nil
			}

			path := filepath.Join(repo.Root(), cfg.ChangelogPath)
			if err := changelog.Prepend(path, entry); err != nil {
				return err
			}
			fmt.Printf("Updated %s with the entry for %s\n", cfg.ChangelogPath, comp.NextVersion)
			return nil
		},
	}
	cmd.Flags().Bool("write", false, "Prepend the entry to the changelog file instead of printing it")
	return cmd
}

func newBumpFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bump-files",
		Short: "Rewrite the version in the configured extra files",
		Long: `Applies the configured extra-files bumps for a given version. Useful for
testing the configuration; the release workflow runs the same bumps.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}

			raw, _ := cmd.Flags().GetString("version")
			ver, err := verpkg.Parse(raw)
			if err != nil {
				return err
			}
			if len(cfg.ExtraFiles) == 0 {
				fmt.Println("No extra-files configured, nothing to bump")
				return nil
			}
			if cfg.DryRun {
				for _, f := range cfg.ExtraFiles {
					fmt.Printf("Would update %s (%s)\n", f.Path, f.Type)
				}
				return nil
			}

			updated, errs := bumper.Run(cfg.ExtraFiles, ver.String(), repo.Root())
			for _, u := range updated {
				fmt.Printf("  %s\n", u)
			}
			if len(errs) > 0 {
				return fmt.Errorf("bump files: %w", errors.Join(errs...))
			}
			return nil
		},
	}
	cmd.Flags().String("version", "", "Version to write into the files (required)")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func newReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Create or update the release branch and pull request",
		Long: `Computes the next version, rebuilds the release branch with the changelog,
version file and configured file bumps, force-pushes it and creates or
updates the release pull request. Rerunning converges on the same result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}

			host, err := hostFor(repo, cfg)
			if err != nil {
				if !cfg.DryRun {
					return err
				}
				log.Debugf("no git host client for dry run: %v", err)
			}

			res, err := release.NewReconciler(cfg, repo, host, log).Run(cmd.Context())
			if noReleaseNeeded(err) {
				fmt.Printf("Nothing to do: %v\n", err)
				return nil
			}
			if err != nil {
				return err
			}

			if res.PullRequest != nil {
				fmt.Printf("Pull request #%d: %s\n", res.PullRequest.Number, res.PullRequest.URL)
			}
			return nil
		},
	}
}

func newTagReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag-release",
		Short: "Tag a merged release commit and publish the release",
		Long: `Verifies that HEAD is a merged release commit, creates the annotated tag
for the version recorded in ` + config.DefaultVersionFile + `, pushes it and publishes the
host release. Refuses to run twice for the same version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}

			// The tag is still pushed without a host client, only the
			// release publication is skipped.
			host, err := hostFor(repo, cfg)
			if err != nil {
				log.Warnf("no git host client, skipping release publication: %v", err)
				host = nil
			}

			res, err := release.NewTagWorkflow(cfg, repo, host, log).Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Tagged release %s\n", res.Tag)
			if res.ReleaseURL != "" {
				fmt.Printf("Release: %s\n", res.ReleaseURL)
			}
			return nil
		},
	}
}

func newGenerateConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Print a documented starter configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			write, _ := cmd.Flags().GetBool("write")
			if !write {
				fmt.Print(config.Template)
				return nil
			}

			root, err := gitRoot()
			if err != nil {
				return err
			}
			path := filepath.Join(root, config.DefaultFileName)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", config.DefaultFileName)
			}
			if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", config.DefaultFileName, err)
			}
			fmt.Printf("Wrote %s\n", config.DefaultFileName)
			return nil
		},
	}
	cmd.Flags().Bool("write", false, "Write the config to the git root instead of printing it")
	return cmd
}

func newBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "bootstrap <github|gitlab|azure>",
		Short:     "Generate the CI pipeline files for a platform",
		Long:      `Writes the starter configuration and the CI pipeline files that run the release and tag-release workflows on the chosen platform.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"github", "gitlab", "azure"},
		RunE: func(cmd *cobra.Command, args []string) error {
			flavour := citemplates.Flavour(args[0])
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			force, _ := cmd.Flags().GetBool("force")

			dir, err := gitRoot()
			if err != nil {
				return err
			}

			if !force && !dryRun {
				existing, err := citemplates.Existing(flavour, dir)
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					return fmt.Errorf("refusing to overwrite existing files (use --force): %v", existing)
				}
			}

			paths, err := citemplates.Bootstrap(flavour, dir, dryRun)
			if err != nil {
				return err
			}

			verb := "Created"
			if dryRun {
				verb = "Would create"
			}
			for _, p := range paths {
				fmt.Printf("%s %s\n", verb, p)
			}
			fmt.Println()
			fmt.Println(citemplates.Instructions(flavour))
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite existing files")
	return cmd
}
