package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goplus/ceres-recipe/internal/resolve"
)

var resolveEigen string

var resolveCmd = &cobra.Command{
	Use:   "resolve [version]",
	Short: "Show the dependency constraints and effective options",
	Long: `Resolve prints the dependency ranges declared for a ceres-solver version and
the options left after platform normalization. With --eigen-version the
options are also normalized against that eigen release.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveEigen, "eigen-version", "", "Eigen version picked by the package manager")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	res, err := resolve.Resolve(cfg.Version, cfg.OptionSet(), cfg.Platform())
	if err != nil {
		return err
	}
	opts := res.Options()
	if resolveEigen != "" {
		if opts, err = res.Normalize(resolveEigen); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "version:  %s\n", res.Version)
	fmt.Fprintf(out, "platform: %s\n", res.Platform)
	fmt.Fprintln(out, "requires:")
	for _, req := range res.Deps.Requirements() {
		fmt.Fprintf(out, "  %s\n", req.Ref(cfg.UserChannel))
	}
	fmt.Fprintf(out, "options:  %s\n", strings.ReplaceAll(opts.String(), ",", " "))
	for _, removed := range opts.Removed() {
		fmt.Fprintf(out, "removed:  %s (%s)\n", removed.Name, removed.Reason)
	}
	return nil
}
