package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/release-conductor/release-conductor/pkg/config"
	"github.com/release-conductor/release-conductor/pkg/githost"
	"github.com/release-conductor/release-conductor/pkg/gitrepo"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "release-conductor",
		Short: "Automate versioned releases from conventional commits",
		Long: `Maintains a release pull request that previews the next version and
changelog, and tags the release once that pull request is merged. All state
lives in git tags and branches, so every command can be rerun safely.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "",
		"Path to configuration file (default: "+config.DefaultFileName+" in the git root)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Show what would be done without making changes")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show detailed progress information")
	rootCmd.PersistentFlags().String("git-host", "", "Override git host detection: github | gitlab | azure")

	rootCmd.AddCommand(
		newNextVersionCmd(),
		newGenerateChangelogCmd(),
		newBumpFilesCmd(),
		newReleaseCmd(),
		newTagReleaseCmd(),
		newGenerateConfigCmd(),
		newBootstrapCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger builds a console logger; verbose enables debug output.
func newLogger(verbose bool) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// setup opens the repository and loads the effective configuration for a
// command invocation.
func setup(cmd *cobra.Command) (*gitrepo.Repository, *config.Config, *zap.SugaredLogger, error) {
	repo, err := gitrepo.Open(".")
	if err != nil {
		return nil, nil, nil, err
	}

	cfgPath, _ := cmd.Flags().GetString("config")
	explicit := cfgPath != ""
	if !explicit {
		cfgPath = filepath.Join(repo.Root(), config.DefaultFileName)
	}

	var cfg *config.Config
	if _, statErr := os.Stat(cfgPath); statErr == nil || explicit {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, nil, nil, err
		}
	} else {
		cfg = config.Default()
	}
	cfg = config.MergeFlags(cfg, cmd.Flags())

	log := newLogger(cfg.Verbose)
	if cfg.DryRun {
		log.Info("dry run: no branches, tags or pull requests will be touched")
	}
	return repo, cfg, log, nil
}

// gitRoot returns the root of the repository containing the working
// directory.
func gitRoot() (string, error) {
	repo, err := gitrepo.Open(".")
	if err != nil {
		return "", err
	}
	return repo.Root(), nil
}

// hostFor resolves the git host client for the repository's origin remote.
// The --git-host flag wins over URL detection.
func hostFor(repo *gitrepo.Repository, cfg *config.Config) (githost.Host, error) {
	remoteURL, err := repo.RemoteURL()
	if err != nil {
		return nil, err
	}

	kind := githost.Kind(cfg.GitHost)
	if kind == githost.KindUnknown {
		kind = githost.Detect(remoteURL)
	}
	if kind == githost.KindUnknown {
		return nil, fmt.Errorf("could not detect git host from remote %q, pass --git-host", remoteURL)
	}

	host, err := githost.New(kind, remoteURL, cfg)
	if err != nil {
		return nil, err
	}

	switch kind {
	case githost.KindGitHub:
		repo.SetToken(cfg.GitHubToken())
	case githost.KindGitLab:
		repo.SetToken(cfg.GitLabToken())
	case githost.KindAzure:
		repo.SetToken(cfg.AzureToken())
	}
	return host, nil
}
