package internal

import (
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [version]",
	Short: "Print the package metadata as YAML",
	Long: `Info prints what consumers need to use the package: its settings and
options, the dependency references, the find-script directory and the
library file names.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	r, err := newRecipe(cfg)
	if err != nil {
		return err
	}
	plan, err := r.Plan()
	if err != nil {
		return err
	}
	data, err := plan.Info.YAML()
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), plan.Warnings)
	return nil
}
