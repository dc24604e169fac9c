package cmd

import (
	"context"

	"github.com/QB2027/WebFileBrowser/internal/keywrap"
	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/QB2027/WebFileBrowser/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	generateUser     string
	generateFamily   string
	generateOutput   string
	generateRegister bool
	generateForce    bool
)

func init() {
	keysGenerateCmd.Flags().StringVarP(&generateUser, "user", "u", "", "user id for the key (defaults to the current user)")
	keysGenerateCmd.Flags().StringVarP(&generateFamily, "family", "f", "rsa", "key family: rsa, ecies or sealedbox")
	keysGenerateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "private key path (defaults to the user key directory)")
	keysGenerateCmd.Flags().BoolVarP(&generateRegister, "register", "r", false, "add the public key to the recipient registry")
	keysGenerateCmd.Flags().BoolVar(&generateForce, "force", false, "replace an existing key file or registry entry")
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a key pair for a recipient",
	Long: `Generates a key pair and writes the private key with mode 0600. The public
key is written next to it with a .pub suffix.

Examples:
  wfb keys generate --register
  wfb keys generate -u alice -f sealedbox -o alice.key`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys generate command")
		spinner, cleanup := startSpinner("Generating key pair...")
		defer cleanup()

		result, err := workflows.GenerateKeys(context.Background(), workflows.GenerateKeysOptions{
			User:       generateUser,
			Family:     keywrap.Family(generateFamily),
			OutputPath: generateOutput,
			Register:   generateRegister,
			Force:      generateForce,
			Logger:     Logger,
		})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}

		msg := ui.Success.Sprint("✓") + " Generated " + ui.Highlight.Sprint(string(result.Family)) + " key pair for " +
			ui.Highlight.Sprint(result.User) + "\n" +
			ui.Info.Sprint("→") + " Private key: " + ui.Path.Sprint(result.PrivateKeyPath) + "\n" +
			ui.Info.Sprint("→") + " Public key:  " + ui.Path.Sprint(result.PublicKeyPath)
		if result.Registered {
			msg += "\n" + ui.Success.Sprint("✓") + " Registered as a recipient; run " + ui.Code.Sprint("wfb publish") + " to include them"
		}
		spinner.FinalMSG = msg
		return nil
	},
}
