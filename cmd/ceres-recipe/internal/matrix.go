package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/ceres-recipe/formula"
	"github.com/goplus/ceres-recipe/internal/recipe"
)

var matrixCheck bool

var matrixCmd = &cobra.Command{
	Use:   "matrix [version]",
	Short: "List every option combination",
	Long: `Matrix lists the option combinations the recipe can be built with. With
--check each combination is planned against the profile's platform and
dependency locations, and failing ones are reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMatrix,
}

func init() {
	matrixCmd.Flags().BoolVar(&matrixCheck, "check", false, "Plan every combination")
	rootCmd.AddCommand(matrixCmd)
}

func runMatrix(cmd *cobra.Command, args []string) error {
	m := formula.OptionMatrix()
	out := cmd.OutOrStdout()
	if !matrixCheck {
		for _, combo := range m.Combinations() {
			fmt.Fprintln(out, combo)
		}
		return nil
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	r, err := newRecipe(cfg)
	if err != nil {
		return err
	}
	sets, err := m.OptionSets()
	if err != nil {
		return err
	}
	var failed int
	for _, set := range sets {
		r.Options = set
		if _, err := r.Plan(); err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", set, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s\n", set)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d %s configurations failed", failed, len(sets), recipe.PackageName)
	}
	return nil
}
