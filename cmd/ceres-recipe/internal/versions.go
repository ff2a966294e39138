package internal

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goplus/ceres-recipe/internal/config"
	"github.com/goplus/ceres-recipe/internal/resolve"
	"github.com/goplus/ceres-recipe/internal/vcs"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the ceres-solver releases of the source remote",
	Args:  cobra.NoArgs,
	RunE:  runVersions,
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	// only the remote is needed, so the profile may lack a version
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	tags, err := vcs.NewGitVCS().Tags(context.Background(), cfg.Source.Remote)
	if err != nil {
		return err
	}
	for _, v := range releaseVersions(tags) {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

// releaseVersions keeps the tags naming a release, without any "v" prefix,
// sorted oldest first.
func releaseVersions(tags []string) []string {
	var releases []resolve.PackageVersion
	for _, tag := range tags {
		v, err := resolve.ParseVersion(strings.TrimPrefix(tag, "v"))
		if err != nil {
			continue
		}
		releases = append(releases, v)
	}
	slices.SortFunc(releases, func(a, b resolve.PackageVersion) int {
		return a.Compare(b.String())
	})
	out := make([]string, len(releases))
	for i, v := range releases {
		out[i] = v.String()
	}
	return slices.Compact(out)
}
