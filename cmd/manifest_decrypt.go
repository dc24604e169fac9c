package cmd

import (
	"context"
	"fmt"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/keywrap"
	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/QB2027/WebFileBrowser/internal/utils"
	"github.com/QB2027/WebFileBrowser/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	decryptUser          string
	decryptKeyPath       string
	decryptFamily        string
	decryptAskPassphrase bool
	decryptWithPassword  bool
	decryptBlobPath      string
	decryptKeysPath      string
	decryptOutputPath    string
)

func init() {
	manifestDecryptCmd.Flags().StringVarP(&decryptUser, "user", "u", "", "user whose wrapped key to use (defaults to the current user)")
	manifestDecryptCmd.Flags().StringVarP(&decryptKeyPath, "key", "k", "", "private key file, - for stdin")
	manifestDecryptCmd.Flags().StringVar(&decryptFamily, "family", "", "private key family (defaults to the registry entry)")
	manifestDecryptCmd.Flags().BoolVar(&decryptAskPassphrase, "ask-passphrase", false, "prompt for the private key passphrase")
	manifestDecryptCmd.Flags().BoolVar(&decryptWithPassword, "password", false, "open the manifest with the password instead of a private key")
	manifestDecryptCmd.Flags().StringVar(&decryptBlobPath, "blob", "", "encrypted manifest (defaults to output.encrypted)")
	manifestDecryptCmd.Flags().StringVar(&decryptKeysPath, "keys", "", "wrapped-key file (defaults to output.wrapped_keys)")
	manifestDecryptCmd.Flags().StringVarP(&decryptOutputPath, "output", "o", "", "write the manifest here instead of stdout")
	manifestDecryptCmd.MarkFlagsMutuallyExclusive("key", "password")
}

var manifestDecryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt the manifest with your private key or the password",
	Long: `Recovers the plaintext manifest the way a recipient's browser would:
unwrap your copy of the manifest key with your private key, then decrypt
the blob. In password mode, --password opens the blob directly.

Examples:
  wfb manifest decrypt --key ~/.local/share/wfb/keys/<project>/alice.rsa.key
  wfb manifest decrypt --key - --ask-passphrase < alice.key
  wfb manifest decrypt --password -o files.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting manifest decrypt command")

		opts := workflows.DecryptOptions{
			User:       decryptUser,
			BlobPath:   decryptBlobPath,
			KeysPath:   decryptKeysPath,
			OutputPath: decryptOutputPath,
			Logger:     Logger,
		}

		switch {
		case decryptWithPassword:
			pw, err := resolvePassword(true)
			if err != nil {
				fmt.Println(formatError(err))
				return fatal(err)
			}
			opts.Password = pw

		case decryptKeyPath != "":
			priv, err := readPrivateKey(decryptKeyPath, decryptFamily, decryptAskPassphrase)
			if err != nil {
				fmt.Println(formatError(err))
				return fatal(err)
			}
			defer clear(priv.Passphrase)
			opts.PrivateKey = priv

		default:
			err := fmt.Errorf("%w: pass --key or --password", kerrors.ErrMissingSetting)
			fmt.Println(formatError(err))
			return fatal(err)
		}

		spinner, cleanup := startSpinner("Decrypting manifest...")
		defer cleanup()

		result, err := workflows.DecryptManifest(context.Background(), opts)
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}

		if result.OutputPath == "" {
			spinner.FinalMSG = string(result.Plaintext)
			return nil
		}
		who := "the password"
		if result.Method == workflows.MethodWrappedKey {
			who = ui.Highlight.Sprint(result.User) + "'s key"
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Decrypted with %s: %s in %s to ", who,
			utils.Plural(result.Files, "file"), utils.Plural(result.Dirs, "folder")) + ui.Path.Sprint(result.OutputPath)
		return nil
	},
}

// readPrivateKey loads a private key from path ("-" for stdin) and
// optionally prompts for its passphrase.
func readPrivateKey(path, family string, askPassphrase bool) (keywrap.PrivateKey, error) {
	data, err := utils.ReadInput(path)
	if err != nil {
		return keywrap.PrivateKey{}, fmt.Errorf("%w: reading %s: %v", kerrors.ErrInvalidPrivateKey, path, err)
	}
	priv := keywrap.PrivateKey{Encoded: string(data)}

	if family != "" {
		f, err := keywrap.ParseFamily(family)
		if err != nil {
			return keywrap.PrivateKey{}, err
		}
		priv.Family = f
	}

	if askPassphrase {
		prompt := "Private key passphrase: "
		var pass []byte
		if path == "-" {
			pass, err = utils.ReadPassphraseFromTTY(prompt)
		} else {
			pass, err = utils.ReadPassphrase(prompt)
		}
		if err != nil {
			return keywrap.PrivateKey{}, err
		}
		priv.Passphrase = pass
	}
	return priv, nil
}
