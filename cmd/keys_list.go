package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/QB2027/WebFileBrowser/internal/workflows"
	"github.com/spf13/cobra"
)

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered recipients and whether they hold the current key",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys list command")
		spinner, cleanup := startSpinner("Reading registry...")
		defer cleanup()

		result, err := workflows.Status(context.Background(), workflows.StatusOptions{})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}
		if len(result.Recipients) == 0 {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " No recipients registered in " + ui.Path.Sprint(result.Registry)
			return nil
		}
		spinner.FinalMSG = formatRecipients(result.Recipients)
		return nil
	},
}

func formatRecipients(recipients []workflows.RecipientStatus) string {
	var b strings.Builder
	for _, r := range recipients {
		fmt.Fprintf(&b, "  %-20s %-10s %s", r.User, r.Family, stateLabel(r.State))
		if r.Problem != "" {
			b.WriteString(" " + ui.Muted.Sprint(r.Problem))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func stateLabel(s workflows.RecipientState) string {
	switch s {
	case workflows.StateCurrent:
		return ui.Success.Sprint(string(s))
	case workflows.StateStale:
		return ui.Warning.Sprint(string(s))
	default:
		return ui.Error.Sprint(string(s))
	}
}
