package cmd

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/QB2027/WebFileBrowser/internal/configs"
	"github.com/QB2027/WebFileBrowser/internal/envelope"
	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/QB2027/WebFileBrowser/internal/utils"
	"github.com/QB2027/WebFileBrowser/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	encryptInput   string
	encryptShowKey bool
)

func init() {
	manifestEncryptCmd.Flags().StringVarP(&encryptInput, "input", "i", "", "manifest to encrypt, - for stdin (defaults to output.manifest)")
	manifestEncryptCmd.Flags().BoolVar(&encryptShowKey, "show-key", false, "print a random key so it can be distributed by hand")
}

var manifestEncryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt the plaintext manifest",
	Long: `Encrypts the manifest to output.encrypted using the configured mode and
key source.

With key_source = "random" the key exists only for this run. Pass
--show-key to print it once, or use ` + "`wfb publish`" + ` instead.

Examples:
  wfb manifest encrypt
  wfb manifest build --print | wfb manifest encrypt -i -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting manifest encrypt command")

		var plaintext []byte
		if encryptInput != "" {
			data, err := utils.ReadInput(encryptInput)
			if err != nil {
				fmt.Println(formatError(err))
				return fatal(err)
			}
			plaintext = data
		}
		password, err := resolvePassword(false)
		if err != nil {
			fmt.Println(formatError(err))
			return fatal(err)
		}

		spinner, cleanup := startSpinner("Encrypting manifest...")
		defer cleanup()

		result, err := workflows.EncryptManifest(context.Background(), workflows.EncryptOptions{
			Plaintext: plaintext,
			Password:  password,
			Logger:    Logger,
		})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}
		defer envelope.Zero(result.Key)

		msg := ui.Success.Sprint("✓") + fmt.Sprintf(" Encrypted %d bytes with %s to ", result.Size, ui.Highlight.Sprint(string(result.Mode))) +
			ui.Path.Sprint(result.OutputPath)
		if result.KeySource == configs.KeySourceRandom {
			if encryptShowKey {
				msg += "\n" + ui.Warning.Sprint("⚠") + " Random key (shown once): " + base64.StdEncoding.EncodeToString(result.Key)
			} else {
				msg += "\n" + ui.Warning.Sprint("⚠") + " The random key was discarded; no recipient can open this blob"
			}
		}
		if result.StaleKeys != "" {
			msg += "\n" + ui.Warning.Sprint("⚠") + " Removed " + ui.Path.Sprint(result.StaleKeys) + "; run " +
				ui.Code.Sprint("wfb publish") + " to distribute the new key"
		}
		spinner.FinalMSG = msg
		return nil
	},
}
