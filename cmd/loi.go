package cmd

import (
	"fmt"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/config"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/dateparse"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/db"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/output"
	"github.com/spf13/cobra"
)

var loiCmd = &cobra.Command{
	Use:     "loi",
	Short:   "Queue edits to locations of interest",
	Long:    `LOI edits are stored as mutations and pushed to the remote store by gnd sync.`,
	GroupID: "data",
}

// loiFlags holds the flags shared by create, update and delete.
type loiFlags struct {
	survey   string
	job      string
	loi      string
	user     string
	when     string
	at       pointValue
	vertices pointListValue
}

func (f *loiFlags) register(cmd *cobra.Command, geometry bool) {
	cmd.Flags().StringVar(&f.survey, "survey", "", "Survey id (default: active survey)")
	cmd.Flags().StringVar(&f.job, "job", "", "Job id (default: default job)")
	cmd.Flags().StringVar(&f.user, "user", "", "Override the acting user id")
	cmd.Flags().StringVar(&f.when, "when", "now", "Client timestamp (RFC 3339, YYYY-MM-DD, yesterday, -2d)")
	if geometry {
		cmd.Flags().StringVar(&f.loi, "loi", "", "LOI id (create generates one when empty)")
		cmd.Flags().Var(&f.at, "at", "Point location as lat,lng")
		cmd.Flags().Var(&f.vertices, "vertex", "Polygon vertex as lat,lng (repeatable, in order)")
	}
}

// mutation builds the queued mutation from flags and project defaults.
func (f *loiFlags) mutation(cmd *cobra.Command, t models.MutationType, now time.Time) (*models.LOIMutation, error) {
	base := getBaseDir()
	survey := f.survey
	if survey == "" {
		survey, _ = config.GetActiveSurvey(base)
	}
	if survey == "" {
		return nil, fmt.Errorf("no survey given and no active survey set (use --survey)")
	}
	job := f.job
	if job == "" {
		job, _ = config.GetDefaultJob(base)
	}

	ts, err := dateparse.ParseTimestamp(f.when, now)
	if err != nil {
		return nil, fmt.Errorf("--when: %w", err)
	}

	user, err := actingUser(cmd)
	if err != nil {
		return nil, err
	}

	return &models.LOIMutation{
		Type:            t,
		SurveyID:        survey,
		LOIID:           f.loi,
		JobID:           job,
		UserID:          user.ID,
		ClientTimestamp: ts,
		Location:        f.at.point,
		PolygonVertices: f.vertices.points,
	}, nil
}

func enqueue(m *models.LOIMutation) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.EnqueueLOIMutation(m); err != nil {
		output.Error("%v", err)
		return err
	}
	output.Success("QUEUED %s %s loi=%s", m.Type, m.ID, m.LOIID)
	return nil
}

var (
	loiCreateFlags loiFlags
	loiUpdateFlags loiFlags
	loiDeleteFlags loiFlags
)

var loiCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Queue a new LOI",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &loiCreateFlags
		if !f.at.point.Valid && len(f.vertices.points) == 0 {
			output.Error("a new LOI needs --at or --vertex")
			return fmt.Errorf("missing geometry")
		}
		m, err := f.mutation(cmd, models.MutationCreate, time.Now().UTC())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if m.LOIID == "" {
			m.LOIID = db.NewID()
		}
		return enqueue(m)
	},
}

var loiUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Queue a change to an existing LOI",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &loiUpdateFlags
		if f.loi == "" {
			output.Error("--loi is required")
			return fmt.Errorf("--loi is required")
		}
		m, err := f.mutation(cmd, models.MutationUpdate, time.Now().UTC())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		return enqueue(m)
	},
}

var loiDeleteCmd = &cobra.Command{
	Use:   "delete <loi-id>",
	Short: "Queue removal of an LOI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := &loiDeleteFlags
		f.loi = args[0]
		m, err := f.mutation(cmd, models.MutationDelete, time.Now().UTC())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		return enqueue(m)
	},
}

var (
	pendingStatus syncStatusValue
	pendingType   mutationTypeValue
)

var loiPendingCmd = &cobra.Command{
	Use:     "pending",
	Aliases: []string{"queue"},
	Short:   "List queued LOI mutations",
	Long:    `Lists mutations that have not reached the remote store. --all includes completed ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		var statuses []models.SyncStatus
		all, _ := cmd.Flags().GetBool("all")
		switch {
		case pendingStatus.s != "":
			statuses = []models.SyncStatus{pendingStatus.s}
		case !all:
			statuses = []models.SyncStatus{models.SyncPending, models.SyncInProgress, models.SyncFailed}
		}

		mutations, err := database.ListLOIMutations(statuses...)
		if err != nil {
			output.Error("list mutations: %v", err)
			return err
		}
		if pendingType.t != "" {
			kept := mutations[:0]
			for _, m := range mutations {
				if m.Type == pendingType.t {
					kept = append(kept, m)
				}
			}
			mutations = kept
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			if mutations == nil {
				mutations = []models.LOIMutation{}
			}
			return output.JSON(mutations)
		}
		if len(mutations) == 0 {
			output.Info("Queue is empty")
			return nil
		}
		for _, m := range mutations {
			output.Info("%s", output.FormatMutationShort(m))
		}
		return nil
	},
}

var loiRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Return failed mutations to the queue with a fresh retry budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		n, err := database.ResetFailedMutations()
		if err != nil {
			output.Error("reset failed mutations: %v", err)
			return err
		}
		output.Success("Requeued %d mutation(s)", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loiCmd)
	loiCmd.AddCommand(loiCreateCmd, loiUpdateCmd, loiDeleteCmd, loiPendingCmd, loiRetryCmd)

	loiCreateFlags.register(loiCreateCmd, true)
	loiUpdateFlags.register(loiUpdateCmd, true)
	loiDeleteFlags.register(loiDeleteCmd, false)

	loiPendingCmd.Flags().Var(&pendingStatus, "status", "Only show this status")
	loiPendingCmd.Flags().Var(&pendingType, "type", "Only show this mutation type")
	loiPendingCmd.Flags().Bool("all", false, "Include completed mutations")
	loiPendingCmd.Flags().Bool("json", false, "Output as JSON")
}
