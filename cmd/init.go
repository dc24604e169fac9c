package cmd

import (
	"context"
	"os"

	"github.com/QB2027/WebFileBrowser/internal/ui"
	"github.com/QB2027/WebFileBrowser/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	initProjectName    string
	initBucketName     string
	initSourceKind     string
	initKeySource      string
	initRegistryFormat string
)

func init() {
	initCmd.Flags().StringVarP(&initProjectName, "name", "n", "", "project name (defaults to the directory name)")
	initCmd.Flags().StringVar(&initBucketName, "bucket", "", "bucket to list")
	initCmd.Flags().StringVar(&initSourceKind, "source", "", "where files come from: bucket or local")
	initCmd.Flags().StringVar(&initKeySource, "key-source", "", "manifest key source: random, env or password")
	initCmd.Flags().StringVar(&initRegistryFormat, "registry-format", "", "recipient registry format: json, yaml or toml")
}

func resetInitCommandState() {
	initProjectName = ""
	initBucketName = ""
	initSourceKind = ""
	initKeySource = ""
	initRegistryFormat = ""
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize wfb in the current directory",
	Long: `Creates .wfb/config.toml with default settings and an empty recipient
registry. Encryption settings can be changed later in the config file.

Examples:
  wfb init --bucket class-files
  wfb init --source local --key-source password
  wfb init --registry-format yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")
		spinner, cleanup := startSpinner("Initializing wfb...")
		defer cleanup()

		wd, err := os.Getwd()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to get working directory: %v", err)
		}

		result, err := workflows.Init(context.Background(), workflows.InitOptions{
			ProjectDir:     wd,
			ProjectName:    initProjectName,
			BucketName:     initBucketName,
			SourceKind:     initSourceKind,
			KeySource:      initKeySource,
			RegistryFormat: initRegistryFormat,
		})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			return fatal(err)
		}
		Logger.Infof("Initialized project %s (%s)", result.ProjectName, result.ProjectUUID)

		spinner.FinalMSG = ui.Success.Sprint("✓") + " wfb initialized for " + ui.Highlight.Sprint(result.ProjectName) + "\n" +
			ui.Info.Sprint("→") + " Settings: " + ui.Path.Sprint(result.ConfigPath) + "\n" +
			ui.Info.Sprint("→") + " Add recipients with " + ui.Code.Sprint("wfb keys add <user> --key <file>") +
			" or " + ui.Code.Sprint("wfb keys generate --register")
		return nil
	},
}
