package cmd

import (
	"context"
	"fmt"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/QB2027/WebFileBrowser/internal/utils"
	"github.com/QB2027/WebFileBrowser/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	addFamily  string
	addKeyPath string
	addForce   bool
)

func init() {
	keysAddCmd.Flags().StringVarP(&addFamily, "family", "f", "", "key family: rsa, ecies or sealedbox")
	keysAddCmd.Flags().StringVarP(&addKeyPath, "key", "k", "", "public key file, - for stdin")
	keysAddCmd.Flags().BoolVar(&addForce, "force", false, "replace an existing entry")
}

var keysAddCmd = &cobra.Command{
	Use:   "add <user>",
	Short: "Register a recipient's public key",
	Long: `Adds a user to the recipient registry after checking that the public key
parses for its family. The user receives a wrapped key on the next publish.

Examples:
  wfb keys add alice -f rsa -k alice.pem
  cat bob.pub | wfb keys add bob -f sealedbox -k -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys add command")
		spinner, cleanup := startSpinner("Registering recipient...")
		defer cleanup()

		if addKeyPath == "" || addFamily == "" {
			err := fmt.Errorf("%w: pass --family and --key", kerrors.ErrMissingSetting)
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}
		pub, err := utils.ReadInput(addKeyPath)
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}

		result, err := workflows.AddRecipient(context.Background(), workflows.AddRecipientOptions{
			User:      args[0],
			Family:    addFamily,
			PublicKey: string(pub),
			Force:     addForce,
		})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}

		verb := "Registered"
		if result.Replaced {
			verb = "Replaced"
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + " " + verb + " " + ui.Highlight.Sprint(result.User) +
			" " + ui.Muted.Sprint(string(result.Family)) + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("wfb publish") + " or " + ui.Code.Sprint("wfb keys distribute") + " to give them the manifest key"
		return nil
	},
}
