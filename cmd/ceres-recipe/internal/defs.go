package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var defsCmd = &cobra.Command{
	Use:   "defs [version]",
	Short: "Print the CMake definitions of a configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDefs,
}

func init() {
	rootCmd.AddCommand(defsCmd)
}

func runDefs(cmd *cobra.Command, args []string) error {
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
	for _, arg := range plan.Args() {
		fmt.Fprintln(cmd.OutOrStdout(), arg)
	}
	printWarnings(cmd.ErrOrStderr(), plan.Warnings)
	return nil
}
