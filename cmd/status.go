package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/QB2027/WebFileBrowser/internal/workflows"
	"github.com/spf13/cobra"
)

var statusJSONOutput bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "output in JSON format")
}

func resetStatusCommandState() {
	statusJSONOutput = false
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the project settings, artifacts and recipient states",
	Long: `Shows where the manifest comes from, which artifacts exist and, for
every registered recipient, one of:
  current:  holds a wrapped key for the current encrypted manifest
  stale:    the wrapped keys predate the encrypted manifest
  missing:  no wrapped key for this user
  invalid:  the registered public key does not parse

Use --json for machine-readable output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")
		spinner, cleanup := startSpinner("Checking project status...")
		defer cleanup()

		result, err := workflows.Status(context.Background(), workflows.StatusOptions{})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}

		if statusJSONOutput {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return Logger.ErrorfAndReturn("failed to marshal status to JSON: %v", err)
			}
			spinner.FinalMSG = string(data)
			return nil
		}

		var b strings.Builder
		b.WriteString(ui.Highlight.Sprint(result.ProjectName) + " " + ui.Muted.Sprint(result.ProjectRoot) + "\n")
		source := result.Source
		if result.Bucket != "" {
			source += " " + result.Bucket
		}
		b.WriteString(ui.Field("source", source))
		b.WriteString(ui.Field("encryption", result.Mode+", key from "+result.KeySource))
		b.WriteString(ui.Field("registry", result.Registry))
		b.WriteString("\nArtifacts:\n")
		for _, a := range result.Artifacts {
			state := ui.Muted.Sprint("not written")
			if a.Exists {
				state = a.ModTime.Local().Format("2006-01-02 15:04:05")
			}
			b.WriteString(ui.Field(a.Name, fmt.Sprintf("%s %s", ui.Path.Sprint(a.Path), state)))
		}
		b.WriteString("\nRecipients:\n")
		if len(result.Recipients) == 0 {
			b.WriteString("  " + ui.Muted.Sprint("none registered") + "\n")
		} else {
			b.WriteString(formatRecipients(result.Recipients))
		}
		spinner.FinalMSG = b.String()
		return nil
	},
}
