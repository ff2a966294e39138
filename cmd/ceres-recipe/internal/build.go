package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/ceres-recipe/formula"
	"github.com/goplus/ceres-recipe/internal/config"
	"github.com/goplus/ceres-recipe/internal/recipe"
	"github.com/goplus/ceres-recipe/internal/vcs"
)

var buildForce bool

var buildCmd = &cobra.Command{
	Use:   "build [version]",
	Short: "Build and package one ceres-solver configuration",
	Long: `Build fetches the ceres-solver sources, applies the release patch, runs the
CMake configure, build and install steps and relocates the installed
find-scripts. A configuration already built is reused unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVarP(&buildForce, "force", "f", false, "Rebuild even if the configuration is cached")
	rootCmd.AddCommand(buildCmd)
}

// newRecipe assembles the recipe described by cfg.
func newRecipe(cfg *config.Config) (*recipe.Recipe, error) {
	locs, err := cfg.Locations()
	if err != nil {
		return nil, err
	}
	dirs, err := cfg.Dirs()
	if err != nil {
		return nil, err
	}
	var project *formula.Project
	if cfg.Source.PatchDir != "" {
		project = &formula.Project{DirFS: os.DirFS(cfg.Source.PatchDir)}
	}
	return &recipe.Recipe{
		Version:     cfg.Version,
		Options:     cfg.OptionSet(),
		Platform:    cfg.Platform(),
		Locations:   locs,
		Project:     project,
		Remote:      cfg.Source.Remote,
		UserChannel: cfg.UserChannel,
		Dirs:        dirs,
		CacheDir:    cfg.WorkDir,
		Fetcher:     vcs.NewGitVCS(),
		Logger:      log.Std,
	}, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	r, err := newRecipe(cfg)
	if err != nil {
		return err
	}
	r.Force = buildForce

	plan, result, err := r.Run(context.Background())
	if err != nil {
		return fmt.Errorf("failed to build %s %s: %w", recipe.PackageName, cfg.Version, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "package: %s\n", result.OutputDir())
	for _, path := range result.Relocated() {
		fmt.Fprintf(out, "relocated: %s\n", path)
	}
	data, err := plan.Info.YAML()
	if err != nil {
		return err
	}
	out.Write(data)
	printWarnings(cmd.ErrOrStderr(), result.Warnings())
	return nil
}
