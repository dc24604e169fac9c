package cmd

import "github.com/spf13/cobra"

// KeysCmd manages recipient keys and the wrapped manifest keys.
var KeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage recipients and their wrapped manifest keys",
	Long: `Every recipient is registered with a key family and a public key:
  rsa        RSA-OAEP with SHA-256, PEM public key of at least 2048 bits
  ecies      ECIES over secp256k1, hex-encoded uncompressed public key
  sealedbox  NaCl sealed box over X25519, hex or base64 public key`,
}

func init() {
	KeysCmd.AddCommand(keysGenerateCmd)
	KeysCmd.AddCommand(keysDistributeCmd)
	KeysCmd.AddCommand(keysAddCmd)
	KeysCmd.AddCommand(keysRemoveCmd)
	KeysCmd.AddCommand(keysListCmd)
}

func resetKeysCommandState() {
	generateUser = ""
	generateFamily = "rsa"
	generateOutput = ""
	generateRegister = false
	generateForce = false
	addFamily = ""
	addKeyPath = ""
	addForce = false
}
