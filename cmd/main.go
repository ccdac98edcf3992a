package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	modelDir   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "exoscope",
		Short:         "Kepler object of interest classification service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&opts.modelDir, "model-dir", "", "override model.dir")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newInspectCmd(opts),
		newPredictCmd(opts),
	)
	return rootCmd
}
