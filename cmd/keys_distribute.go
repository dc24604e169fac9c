package cmd

import (
	"context"
	"fmt"

	"github.com/QB2027/WebFileBrowser/internal/workflows"
	"github.com/spf13/cobra"
)

var keysDistributeCmd = &cobra.Command{
	Use:   "distribute",
	Short: "Wrap the existing manifest key for every registered recipient",
	Long: `Rewraps the current manifest key for the registry without re-encrypting
the manifest. This works with key_source = "env", and with "password" when
the encrypted manifest exists. Random keys only live for one publish run.

Exits 3 when some recipients could not be served and 4 when none could.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys distribute command")

		password, err := resolvePassword(false)
		if err != nil {
			fmt.Println(formatError(err))
			return fatal(err)
		}

		spinner, cleanup := startSpinner("Distributing manifest key...")
		defer cleanup()

		result, err := workflows.DistributeKey(context.Background(), workflows.DistributeOptions{
			Password: password,
			Logger:   Logger,
		})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}

		spinner.FinalMSG = distributionMessage(result.Result, result.OutputPath, result.Written)
		return exitForOutcome(result.Outcome())
	},
}
