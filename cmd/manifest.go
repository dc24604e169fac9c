package cmd

import "github.com/spf13/cobra"

// ManifestCmd groups the individual steps that publish runs in sequence.
var ManifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Build, encrypt or decrypt the file manifest step by step",
}

func init() {
	ManifestCmd.AddCommand(manifestBuildCmd)
	ManifestCmd.AddCommand(manifestEncryptCmd)
	ManifestCmd.AddCommand(manifestDecryptCmd)
}

func resetManifestCommandState() {
	buildPrint = false
	encryptInput = ""
	encryptShowKey = false
	decryptUser = ""
	decryptKeyPath = ""
	decryptFamily = ""
	decryptAskPassphrase = false
	decryptWithPassword = false
	decryptBlobPath = ""
	decryptKeysPath = ""
	decryptOutputPath = ""
}
