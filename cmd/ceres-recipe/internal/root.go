package internal

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/ceres-recipe/formula"
	"github.com/goplus/ceres-recipe/internal/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ceres-recipe",
	Short: "ceres-recipe packages the ceres-solver library",
	Long: `ceres-recipe resolves the build configuration of a ceres-solver release,
builds it with CMake and makes the installed find-scripts relocatable.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetOutputLevel(log.Ldebug)
		} else {
			log.SetOutputLevel(log.Linfo)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Profile file (default ./ceres.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the profile. A positional version overrides the
// profile's version.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Version = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// printWarnings writes each warning on its own line.
func printWarnings(w io.Writer, warnings []formula.Warning) {
	yellow := color.New(color.FgYellow)
	for _, warning := range warnings {
		yellow.Fprint(w, "warning: ")
		fmt.Fprintln(w, warning.String())
	}
}
