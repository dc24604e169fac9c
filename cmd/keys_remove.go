package cmd

import (
	"context"

	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/QB2027/WebFileBrowser/internal/workflows"
	"github.com/spf13/cobra"
)

var keysRemoveCmd = &cobra.Command{
	Use:   "remove <user>",
	Short: "Remove a recipient from the registry",
	Long: `Removes a user from the recipient registry. A manifest key the user
already holds keeps working until the next publish encrypts with a new one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys remove command")
		spinner, cleanup := startSpinner("Removing recipient...")
		defer cleanup()

		if err := workflows.RemoveRecipient(context.Background(), workflows.RemoveRecipientOptions{User: args[0]}); err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Removed " + ui.Highlight.Sprint(args[0]) + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("wfb publish") + " so they lose access to new manifests"
		return nil
	},
}
