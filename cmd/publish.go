package cmd

import (
	"context"
	"fmt"

	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/QB2027/WebFileBrowser/internal/utils"
	"github.com/QB2027/WebFileBrowser/internal/workflows"
	"github.com/spf13/cobra"
)

var publishDryRun bool

func init() {
	publishCmd.Flags().BoolVar(&publishDryRun, "dry-run", false, "build the manifest and check recipient keys without writing anything")
}

func resetPublishCommandState() {
	publishDryRun = false
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Build, encrypt and distribute the file manifest",
	Long: `Lists the configured source, builds the manifest, encrypts it and wraps
the manifest key for every registered recipient. With bucket.upload set, the
encrypted manifest and the wrapped keys are uploaded as well. The plaintext
manifest is never uploaded.

A recipient whose key cannot be used does not stop the others. The exit
status tells them apart:
  0  every recipient received the key
  3  some recipients did not
  4  no recipient did
  1  the run failed before distribution

Examples:
  wfb publish
  wfb publish --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting publish command")

		var password string
		if !publishDryRun {
			pw, err := resolvePassword(false)
			if err != nil {
				fmt.Println(formatError(err))
				return fatal(err)
			}
			password = pw
		}

		spinner, cleanup := startSpinner("Publishing manifest...")
		defer cleanup()

		result, err := workflows.Publish(context.Background(), workflows.PublishOptions{
			DryRun:   publishDryRun,
			Password: password,
			Logger:   Logger,
		})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}

		build := result.Build
		msg := ui.Success.Sprint("✓") + fmt.Sprintf(" Manifest built from %s: %s in %s",
			ui.Highlight.Sprint(build.Source), utils.Plural(build.Files, "file"), utils.Plural(build.Dirs, "folder"))

		if result.DryRun {
			msg += "\n" + ui.Info.Sprint("ℹ") + fmt.Sprintf(" Dry run: %d of %s usable", result.Checked-len(result.Invalid), utils.Plural(result.Checked, "recipient key"))
			if len(result.Invalid) > 0 {
				msg += formatFailures(result.Invalid)
			}
			spinner.FinalMSG = msg
			return exitForOutcome(result.Outcome())
		}

		enc := result.Encrypt
		if enc.Written {
			msg += "\n" + ui.Success.Sprint("✓") + " Encrypted with " + ui.Highlight.Sprint(string(enc.Mode)) +
				" to " + ui.Path.Sprint(enc.OutputPath)
		} else {
			msg += "\n" + ui.Warning.Sprint("⚠") + " " + ui.Path.Sprint(enc.OutputPath) + " was left unchanged"
		}
		if enc.StaleKeys != "" {
			msg += "\n" + ui.Warning.Sprint("⚠") + " Removed " + ui.Path.Sprint(enc.StaleKeys) + "; it held keys for the previous blob"
		}
		if d := result.Distribute; d != nil {
			msg += "\n" + distributionMessage(d.Result, d.OutputPath, d.Written)
		}
		if len(result.Uploaded) > 0 {
			msg += "\n" + ui.Success.Sprint("✓") + " Uploaded:" + utils.FormatPaths(result.Uploaded)
		}
		spinner.FinalMSG = msg
		return exitForOutcome(result.Outcome())
	},
}
