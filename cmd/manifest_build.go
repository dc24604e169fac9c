package cmd

import (
	"context"
	"fmt"

	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/QB2027/WebFileBrowser/internal/utils"
	"github.com/QB2027/WebFileBrowser/internal/workflows"
	"github.com/spf13/cobra"
)

var buildPrint bool

func init() {
	manifestBuildCmd.Flags().BoolVarP(&buildPrint, "print", "p", false, "print the manifest to stdout instead of writing output.manifest")
}

var manifestBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "List the source and write the plaintext manifest",
	Long: `Lists the configured bucket or local directory and writes the manifest
tree to output.manifest with mode 0600. Bucket files get signed URLs that
expire after bucket.url_expiry_seconds.

Examples:
  wfb manifest build
  wfb manifest build --print | jq .`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting manifest build command")
		spinner, cleanup := startSpinner("Building manifest...")
		defer cleanup()

		result, err := workflows.BuildManifest(context.Background(), workflows.BuildOptions{
			Write:  !buildPrint,
			Logger: Logger,
		})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}

		if buildPrint {
			spinner.FinalMSG = string(result.Data)
			return nil
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Manifest built from %s: %s in %s\n",
			ui.Highlight.Sprint(result.Source), utils.Plural(result.Files, "file"), utils.Plural(result.Dirs, "folder")) +
			ui.Warning.Sprint("⚠") + " " + ui.Path.Sprint(result.OutputPath) + " holds live download links; do not commit or upload it"
		return nil
	},
}
