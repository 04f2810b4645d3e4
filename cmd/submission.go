package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/db"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/features"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/input"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/output"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/responsemap"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/syncconfig"
	"github.com/spf13/cobra"
)

// submissionView is the JSON shape of a submission with its stored responses.
type submissionView struct {
	models.Submission
	Responses json.RawMessage `json:"responses"`
	Dropped   []string        `json:"dropped,omitempty"`
}

func newSubmissionView(s models.Submission, report responsemap.Report) submissionView {
	encoded, _ := responsemap.Encode(s.Responses)
	v := submissionView{Submission: s, Responses: json.RawMessage(encoded)}
	for _, e := range report.Skipped() {
		if !errors.Is(e.Reason, responsemap.ErrEmptyResponse) {
			v.Dropped = append(v.Dropped, e.TaskID)
		}
	}
	return v
}

var submitCmd = &cobra.Command{
	Use:   "submit [job-id]",
	Short: "Record responses for a location of interest",
	Long: `Records a submission for one LOI. Each -r flag assigns task=value; an empty
value clears the answer. Values are parsed by task type:

  text, photo       free text / file path
  number            decimal number
  multiple_choice   option ids separated by commas
  date              YYYY-MM-DD, today, yesterday, -3d, monday
  time              HH:MM or now
  drop_a_pin        lat,lng

-r - reads assignments from stdin, -r @file from a file (one per line).`,
	GroupID: "data",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loiID, _ := cmd.Flags().GetString("loi")
		if loiID == "" {
			output.Error("--loi is required")
			return fmt.Errorf("--loi is required")
		}
		assignments, _ := cmd.Flags().GetStringArray("response")
		assignments, _ = input.ExpandFlagValues(assignments, os.Stdin, false)

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		job, err := loadJob(database, args)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		b := models.NewResponseMapBuilder()
		if err := input.ApplyAssignments(b, job, assignments, now); err != nil {
			output.Error("%v", err)
			return err
		}

		survey, _ := cmd.Flags().GetString("survey")
		if survey == "" {
			survey = job.SurveyID
		}
		user, err := actingUser(cmd)
		if err != nil {
			return err
		}

		s := &models.Submission{
			SurveyID:  survey,
			LOIID:     loiID,
			JobID:     job.ID,
			Responses: projectPhotoPaths(b.Build()),
			Created:   models.AuditInfo{User: user, ClientTimestamp: now},
		}
		if err := checkStrict(s.Responses); err != nil {
			return err
		}

		report, err := database.CreateSubmission(s)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		warnDropped(report)
		output.Success("SUBMITTED %s (%d responses)", s.ID, s.Responses.Len())
		return nil
	},
}

var submissionCmd = &cobra.Command{
	Use:     "submission",
	Aliases: []string{"sub"},
	Short:   "Inspect and edit stored submissions",
	GroupID: "data",
}

var submissionShowCmd = &cobra.Command{
	Use:   "show <submission-id>",
	Short: "Show a submission and its responses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		s, report, err := database.GetSubmission(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(newSubmissionView(*s, report))
		}

		job, err := database.GetJob(s.JobID)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Info("%s", output.FormatSubmissionLong(*s, job))
		warnDropped(report)
		return nil
	},
}

var submissionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		var filter db.SubmissionFilter
		filter.JobID, _ = cmd.Flags().GetString("job")
		filter.LOIID, _ = cmd.Flags().GetString("loi")
		filter.IncludeDeleted, _ = cmd.Flags().GetBool("all")

		subs, err := database.ListSubmissions(filter)
		if err != nil {
			output.Error("list submissions: %v", err)
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			views := make([]submissionView, 0, len(subs))
			for _, s := range subs {
				views = append(views, newSubmissionView(s, responsemap.Report{}))
			}
			return output.JSON(views)
		}
		if len(subs) == 0 {
			output.Info("No submissions")
			return nil
		}
		for _, s := range subs {
			output.Info("%s", output.FormatSubmissionShort(s))
		}
		return nil
	},
}

var submissionUpdateCmd = &cobra.Command{
	Use:   "update <submission-id>",
	Short: "Change responses of a stored submission",
	Long:  `Applies -r task=value assignments on top of the stored responses. An empty value clears the answer; --remove drops the entry.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		assignments, _ := cmd.Flags().GetStringArray("response")
		assignments, _ = input.ExpandFlagValues(assignments, os.Stdin, false)
		removals, _ := cmd.Flags().GetStringArray("remove")
		if len(assignments) == 0 && len(removals) == 0 {
			output.Error("nothing to update (use -r task=value or --remove task)")
			return fmt.Errorf("nothing to update")
		}

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		s, stored, err := database.GetSubmission(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		// Entries that no longer decode are lost once the row is rewritten.
		if err := checkStrictStored(stored); err != nil {
			return err
		}
		warnDropped(stored)
		job, err := database.GetJob(s.JobID)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		b := s.Responses.ToBuilder()
		if err := input.ApplyAssignments(b, job, assignments, time.Now().UTC()); err != nil {
			output.Error("%v", err)
			return err
		}
		for _, id := range removals {
			b.Remove(id)
		}
		responses := projectPhotoPaths(b.Build())
		if err := checkStrict(responses); err != nil {
			return err
		}

		user, err := actingUser(cmd)
		if err != nil {
			return err
		}
		report, err := database.UpdateSubmissionResponses(s.ID, responses, user)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		warnDropped(report)
		output.Success("UPDATED %s (%d responses)", s.ID, responses.Len())
		return nil
	},
}

// projectPhotoPaths stores photo paths relative to the project root.
func projectPhotoPaths(m models.ResponseMap) models.ResponseMap {
	b := m.ToBuilder()
	for _, id := range m.TaskIDs() {
		if photo, ok := responseOf[models.PhotoResponse](m, id); ok {
			photo.Path = db.ProjectRelativePath(photo.Path, getBaseDir())
			b.Put(id, photo)
		}
	}
	return b.Build()
}

func responseOf[T models.Response](m models.ResponseMap, taskID string) (T, bool) {
	r, ok := m.Response(taskID)
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := r.(T)
	return v, ok
}

// actingUser is the configured identity, with --user overriding its id.
func actingUser(cmd *cobra.Command) (models.User, error) {
	cfg, err := syncconfig.Resolved()
	if err != nil {
		output.Error("load config: %v", err)
		return models.User{}, err
	}
	user := cfg.ActingUser()
	if id, _ := cmd.Flags().GetString("user"); id != "" {
		user.ID = id
	}
	return user, nil
}

// checkStrict refuses responses the encoder would drop when strict_responses is on.
func checkStrict(m models.ResponseMap) error {
	if !features.IsEnabled(getBaseDir(), features.StrictResponses.Name) {
		return nil
	}
	if _, report := responsemap.Encode(m); !report.OK() {
		err := report.Err()
		if err == nil {
			return nil
		}
		output.Error("responses rejected: %v", err)
		return err
	}
	return nil
}

// checkStrictStored refuses to rewrite a submission whose stored responses did
// not fully decode when strict_responses is on.
func checkStrictStored(report responsemap.Report) error {
	if !features.IsEnabled(getBaseDir(), features.StrictResponses.Name) {
		return nil
	}
	if err := report.Err(); err != nil {
		output.Error("stored responses would be lost: %v", err)
		return err
	}
	return nil
}

func warnDropped(report responsemap.Report) {
	if report.Malformed != nil {
		output.Warning("stored responses unreadable: %v", report.Malformed)
	}
	for _, e := range report.Skipped() {
		if errors.Is(e.Reason, responsemap.ErrEmptyResponse) {
			continue
		}
		output.Warning("dropped response %s: %v", e.TaskID, e.Reason)
	}
}

func init() {
	rootCmd.AddCommand(submitCmd, submissionCmd)
	submissionCmd.AddCommand(submissionShowCmd, submissionListCmd, submissionUpdateCmd)

	submitCmd.Flags().String("loi", "", "Location of interest id (required)")
	submitCmd.Flags().String("survey", "", "Survey id (default: the job's survey)")
	submitCmd.Flags().String("user", "", "Override the acting user id")
	submitCmd.Flags().StringArrayP("response", "r", nil, "Response as task=value (repeatable, - for stdin, @file)")

	submissionShowCmd.Flags().Bool("json", false, "Output as JSON")

	submissionListCmd.Flags().String("job", "", "Filter by job id")
	submissionListCmd.Flags().String("loi", "", "Filter by LOI id")
	submissionListCmd.Flags().Bool("all", false, "Include deleted submissions")
	submissionListCmd.Flags().Bool("json", false, "Output as JSON")

	submissionUpdateCmd.Flags().StringArrayP("response", "r", nil, "Response as task=value (repeatable, - for stdin, @file)")
	submissionUpdateCmd.Flags().StringArray("remove", nil, "Task id whose entry to drop (repeatable)")
	submissionUpdateCmd.Flags().String("user", "", "Override the acting user id")

}
