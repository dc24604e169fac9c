package cmd

import (
	"bytes"

	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// ConfigCmd inspects the project configuration.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the project configuration",
}

func init() {
	ConfigCmd.AddCommand(configShowCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Prints .wfb/config.toml after defaults and WFB_* environment overrides
are applied, in the same TOML layout as the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")
		spinner, cleanup := startSpinner("Loading configuration...")
		defer cleanup()

		settings, cfg, err := loadProjectConfig()
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}

		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return Logger.ErrorfAndReturn("failed to encode configuration: %v", err)
		}
		spinner.FinalMSG = ui.Muted.Sprint(settings.ConfigPath) + "\n" + buf.String()
		return nil
	},
}
