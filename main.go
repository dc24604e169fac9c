package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/QB2027/WebFileBrowser/cmd"
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wfb",
	Short: "wfb - publish an encrypted file listing for a bucket.",
	Long: `wfb lists an S3-compatible bucket (or a local directory), builds a JSON
tree of the files with signed download links, encrypts it, and wraps the
manifest key for every registered recipient so a static web page can show
the listing only to them.

Usage:
  wfb <command> [flags]

Available Commands:
  init       Initialize wfb in the current directory
  publish    Build, encrypt and distribute the file manifest
  manifest   Run the publish steps one at a time
  keys       Manage recipients and their wrapped keys
  status     Show artifacts and recipient states
  log        View the audit log
  config     Inspect the project configuration

Run 'wfb help <command>' for more details on a specific command.
`,
	Run: func(cmd *cobra.Command, args []string) {
		figure.NewColorFigure("wfb", "alligator2", "green", true).Print()
		fmt.Println()
		fmt.Println("Run 'wfb --help' to see available commands.")
	},
}

func init() {
	cmd.AddCommands(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmd.ExitFatal)
	}
}
