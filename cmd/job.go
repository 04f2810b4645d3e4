package cmd

import (
	"errors"
	"fmt"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/config"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/db"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/jobfile"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/output"
	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:     "job",
	Short:   "Manage job definitions",
	GroupID: "data",
}

var jobImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import or replace a job from a YAML definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := jobfile.Load(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		survey, _ := cmd.Flags().GetString("survey")
		if survey != "" {
			job.SurveyID = survey
		}
		if job.SurveyID == "" {
			if job.SurveyID, err = config.GetActiveSurvey(getBaseDir()); err != nil {
				output.Error("read config: %v", err)
				return err
			}
		}
		if job.SurveyID == "" {
			err := fmt.Errorf("job %s has no survey (use --survey or gnd init --survey)", job.ID)
			output.Error("%v", err)
			return err
		}

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.SaveJob(job); err != nil {
			output.Error("save job: %v", err)
			return err
		}
		output.Success("IMPORTED %s (%d tasks)", job.ID, len(job.Tasks))

		if current, _ := config.GetDefaultJob(getBaseDir()); current == "" {
			if err := config.SetDefaultJob(getBaseDir(), job.ID); err == nil {
				output.Info("Default job: %s", job.ID)
			}
		}
		return nil
	},
}

var jobListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List imported jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		jobs, err := database.ListJobs()
		if err != nil {
			output.Error("list jobs: %v", err)
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			if jobs == nil {
				jobs = []db.JobSummary{}
			}
			return output.JSON(jobs)
		}
		if len(jobs) == 0 {
			output.Info("No jobs imported (run: gnd job import <file.yaml>)")
			return nil
		}

		defaultJob, _ := config.GetDefaultJob(getBaseDir())
		for _, j := range jobs {
			marker := " "
			if j.ID == defaultJob {
				marker = "*"
			}
			output.Info("%s %s  %s  survey=%s tasks=%d imported %s",
				marker, j.ID, j.Name, j.SurveyID, j.TaskCount, output.FormatTimeAgo(j.ImportedAt))
		}
		return nil
	},
}

var jobShowCmd = &cobra.Command{
	Use:   "show [job-id]",
	Short: "Show a job's tasks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		job, err := loadJob(database, args)
		if err != nil {
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(job)
		}

		md := output.JobMarkdown(job)
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			output.Info("%s", md)
			return nil
		}
		rendered, err := output.RenderMarkdown(md)
		if err != nil {
			output.Info("%s", md)
			return nil
		}
		output.Info("%s", rendered)
		return nil
	},
}

var jobUseCmd = &cobra.Command{
	Use:   "use <job-id>",
	Short: "Set the default job for submit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		if _, err := database.GetJob(args[0]); err != nil {
			output.Error("%v", err)
			return err
		}
		if err := config.SetDefaultJob(getBaseDir(), args[0]); err != nil {
			output.Error("save config: %v", err)
			return err
		}
		output.Success("Default job: %s", args[0])
		return nil
	},
}

var jobDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job definition",
	Long:  `Deletes a job. Submissions keep their stored answers but cannot be read until the job is imported again.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.DeleteJob(args[0]); err != nil {
			output.Error("%v", err)
			return err
		}
		if current, _ := config.GetDefaultJob(getBaseDir()); current == args[0] {
			_ = config.SetDefaultJob(getBaseDir(), "")
		}
		output.Success("DELETED %s", args[0])
		return nil
	},
}

// loadJob resolves the job named in args, falling back to the default job.
func loadJob(database *db.DB, args []string) (models.Job, error) {
	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		var err error
		if id, err = config.GetDefaultJob(getBaseDir()); err != nil {
			output.Error("read config: %v", err)
			return models.Job{}, err
		}
	}
	if id == "" {
		err := errors.New("no job given and no default job set (run: gnd job use <id>)")
		output.Error("%v", err)
		return models.Job{}, err
	}

	job, err := database.GetJob(id)
	if err != nil {
		output.Error("%v", err)
		return models.Job{}, err
	}
	return job, nil
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobImportCmd, jobListCmd, jobShowCmd, jobUseCmd, jobDeleteCmd)

	jobImportCmd.Flags().String("survey", "", "Survey id (overrides the file and the active survey)")
	jobListCmd.Flags().Bool("json", false, "Output as JSON")
	jobShowCmd.Flags().Bool("json", false, "Output as JSON")
	jobShowCmd.Flags().Bool("raw", false, "Print markdown without rendering")
}
