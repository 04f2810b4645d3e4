package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/config"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/db"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/output"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize a gnd project in the current directory",
	Long:    `Creates the local .gnd directory and SQLite store.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()
		survey, _ := cmd.Flags().GetString("survey")

		_, statErr := os.Stat(filepath.Join(baseDir, db.DirName))
		existed := statErr == nil

		database, err := db.Initialize(baseDir)
		if err != nil {
			output.Error("failed to initialize database: %v", err)
			return err
		}
		defer database.Close()

		if existed {
			output.Warning("%s/ already exists", db.DirName)
		} else {
			output.Success("INITIALIZED %s/", db.DirName)
		}

		if survey != "" {
			if err := config.SetActiveSurvey(baseDir, survey); err != nil {
				output.Error("set active survey: %v", err)
				return err
			}
			output.Info("Active survey: %s", survey)
		}

		if _, err := os.Stat(filepath.Join(baseDir, ".git")); err == nil {
			addToGitignore(filepath.Join(baseDir, ".gitignore"))
		}
		return nil
	},
}

func addToGitignore(path string) {
	content, _ := os.ReadFile(path)
	contentStr := string(content)

	entry := db.DirName + "/"
	if strings.Contains(contentStr, entry) {
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	if len(contentStr) > 0 && !strings.HasSuffix(contentStr, "\n") {
		f.WriteString("\n")
	}
	f.WriteString(entry + "\n")
	output.Info("Added %s to .gitignore", entry)
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("survey", "", "Set the active survey id")
}
