package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yz4230/shipci/cmd/hook"
)

var rootFlags struct {
	verbose bool
}

var rootCmd = &cobra.Command{
	Use:   "shipci",
	Short: "Minimal push-to-publish CI pipeline service",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		if rootFlags.verbose {
			log.Logger = log.Logger.Level(zerolog.DebugLevel)
		} else {
			log.Logger = log.Logger.Level(zerolog.InfoLevel)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(hook.HookCmd)
}
