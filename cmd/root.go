package cmd

import (
	logger "github.com/QB2027/WebFileBrowser/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger
)

// AddCommands attaches every wfb command and the shared --verbose and
// --debug flags to root.
func AddCommands(root *cobra.Command) {
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{
			Verbose: verbose,
			Debug:   debug,
		}
		Logger.Debugf("Initializing %s command with verbose=%t, debug=%t", cmd.Name(), verbose, debug)
	}

	// Results are reported through the spinner's final message and the exit code.
	root.SilenceErrors = true
	root.SilenceUsage = true

	root.AddCommand(initCmd)
	root.AddCommand(publishCmd)
	root.AddCommand(statusCmd)
	root.AddCommand(logCmd)
	root.AddCommand(ManifestCmd)
	root.AddCommand(KeysCmd)
	root.AddCommand(ConfigCmd)
}

// Helper functions for testing

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	resetInitCommandState()
	resetPublishCommandState()
	resetStatusCommandState()
	resetLogCommandState()
	resetManifestCommandState()
	resetKeysCommandState()
	for _, c := range []*cobra.Command{initCmd, publishCmd, statusCmd, logCmd, ManifestCmd, KeysCmd, ConfigCmd} {
		resetFlagState(c)
	}
}

// resetFlagState clears Changed on c and its subcommands so flags from one
// test run do not leak into the next.
func resetFlagState(c *cobra.Command) {
	c.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlagState(sub)
	}
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
