package internal

import (
	"fmt"
	"os"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/ceres-recipe/formula"
	"github.com/goplus/ceres-recipe/internal/relocate"
)

var relocateEigen string

var relocateCmd = &cobra.Command{
	Use:   "relocate <file>...",
	Short: "Make installed find-scripts relocatable",
	Long: `Relocate rewrites the absolute eigen and glog install paths recorded in the
given find-scripts to placeholders resolved at consume time. A directory
argument is treated as a package root and its CeresConfig.cmake is located.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRelocate,
}

func init() {
	relocateCmd.Flags().StringVar(&relocateEigen, "eigen-version", "", "Eigen version the package was built against")
	relocateCmd.MarkFlagRequired("eigen-version")
	rootCmd.AddCommand(relocateCmd)
}

func runRelocate(cmd *cobra.Command, args []string) error {
	relocator, err := relocate.New(relocateEigen, relocate.WithLogger(log.Std))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var warnings []formula.Warning
	for _, path := range args {
		files, ws, err := relocateArg(relocator, path)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(out, "%s: %d rules applied\n", f.Path, len(f.Applied))
		}
		warnings = append(warnings, ws...)
	}
	printWarnings(cmd.ErrOrStderr(), warnings)
	return nil
}

func relocateArg(relocator *relocate.Relocator, path string) ([]relocate.FileResult, []formula.Warning, error) {
	if isDir(path) {
		return relocator.RelocatePackage(path)
	}
	applied, warnings, err := relocator.RelocateFile(path)
	if err != nil {
		return nil, nil, err
	}
	return []relocate.FileResult{{Path: path, Applied: applied}}, warnings, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
