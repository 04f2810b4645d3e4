package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/db"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/features"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/output"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/remote"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/remote/schema"
	gndsync "github.com/cucerdariancatalin/contribution-ground-android/internal/sync"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/syncconfig"
	"github.com/spf13/cobra"
)

const metricsFile = "metrics.prom"

// newRemote builds the Firestore writer; tests swap it for a fake.
var newRemote = func(ctx context.Context, opts remote.Options) (remote.Remote, error) {
	return remote.New(ctx, opts)
}

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Push queued LOI mutations to Firestore",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		statusOnly, _ := cmd.Flags().GetBool("status")
		metricsPath, _ := cmd.Flags().GetString("metrics-file")
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := syncconfig.Resolved()
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}
		if limit <= 0 {
			limit = cfg.Sync.BatchSize
		}

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		if statusOnly {
			return runSyncStatus(database, cfg)
		}
		if dryRun {
			return runDryRun(database, cfg.ActingUser(), limit)
		}

		opts, err := cfg.RemoteOptions()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		deviceID, err := syncconfig.GetDeviceID()
		if err != nil {
			output.Error("get device id: %v", err)
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		r, err := newRemote(ctx, opts)
		if err != nil {
			output.Error("connect: %v", err)
			return err
		}

		summary, err := pushPending(ctx, database, r, pushOptions{
			Limit:       limit,
			User:        cfg.ActingUser(),
			DeviceID:    deviceID,
			HistoryRows: cfg.Sync.HistoryRows,
		})
		if errors.Is(err, db.ErrSyncInProgress) {
			output.Warning("another sync is running")
			return err
		}
		if err != nil {
			output.Error("sync: %v", err)
			return err
		}

		if metricsPath == "" && features.IsEnabled(getBaseDir(), features.SyncMetrics.Name) {
			metricsPath = filepath.Join(getBaseDir(), db.DirName, metricsFile)
		}
		if metricsPath != "" {
			if err := gndsync.WriteMetrics(metricsPath); err != nil {
				output.Warning("write metrics: %v", err)
			}
		}

		printSummary(summary)
		return summary.Result.Err()
	},
}

type pushOptions struct {
	Limit       int
	User        models.User
	DeviceID    string
	HistoryRows int
}

type pushSummary struct {
	Claimed int
	Pending int
	Result  gndsync.PushResult
}

// pushPending runs one push: claim a batch, apply it remotely, record the
// outcome. Only the claim and the final bookkeeping hold the write lock.
func pushPending(ctx context.Context, database *db.DB, r remote.Remote, opts pushOptions) (pushSummary, error) {
	var summary pushSummary

	release, err := database.AcquireSyncLock()
	if err != nil {
		return summary, err
	}
	defer release()

	var claimed []models.LOIMutation
	err = database.WithWriteTx(func(tx *sql.Tx) error {
		var err error
		claimed, err = gndsync.GetPendingMutations(tx, opts.Limit)
		return err
	})
	if err != nil {
		return summary, fmt.Errorf("claim mutations: %w", err)
	}
	summary.Claimed = len(claimed)

	if len(claimed) > 0 {
		summary.Result = gndsync.PushMutations(ctx, r, opts.User, claimed)

		now := time.Now()
		err = database.WithWriteTx(func(tx *sql.Tx) error {
			if err := gndsync.MarkMutationsSynced(tx, summary.Result.Acks, now); err != nil {
				return err
			}
			if err := gndsync.MarkMutationsFailed(tx, summary.Result.Failed); err != nil {
				return err
			}
			if err := db.RecordSyncHistoryTx(tx, gndsync.HistoryEntries(summary.Result, opts.DeviceID, now)); err != nil {
				slog.Debug("sync: record push history", "err", err)
			}
			if opts.HistoryRows > 0 {
				if err := db.PruneSyncHistory(tx, opts.HistoryRows); err != nil {
					slog.Debug("sync: prune history", "err", err)
				}
			}
			return nil
		})
		if err != nil {
			return summary, fmt.Errorf("record push result: %w", err)
		}
	}

	if summary.Pending, err = database.CountPendingMutations(); err != nil {
		return summary, err
	}
	gndsync.SetPending(summary.Pending)
	return summary, nil
}

func printSummary(s pushSummary) {
	if s.Claimed == 0 {
		output.Info("Nothing to push.")
		return
	}
	held := 0
	for _, f := range s.Result.Failed {
		if f.HeldBack() {
			held++
			continue
		}
		output.Warning("%s %s loi=%s: %v", f.MutationID, f.Type, f.LOIID, f.Err)
	}
	output.Success("Pushed %d of %d mutation(s).", len(s.Result.Acks), s.Claimed)
	if n := len(s.Result.Failed) - held; n > 0 {
		output.Warning("%d failed", n)
	}
	if held > 0 {
		output.Info("%d held back behind earlier failures", held)
	}
	output.Info("%d still queued", s.Pending)
}

func runSyncStatus(database *db.DB, cfg *syncconfig.Config) error {
	mutations, err := database.ListLOIMutations(models.SyncPending, models.SyncInProgress, models.SyncFailed)
	if err != nil {
		output.Error("list mutations: %v", err)
		return err
	}
	counts := make(map[models.SyncStatus]int)
	for _, m := range mutations {
		counts[m.SyncStatus]++
	}

	target := cfg.Firestore.ProjectID
	if target == "" {
		target = "(not configured)"
	}
	output.Info("Project:     %s", target)
	if cfg.Firestore.Endpoint != "" {
		output.Info("Endpoint:    %s", cfg.Firestore.Endpoint)
	}
	output.Info("Pending:     %d", counts[models.SyncPending])
	output.Info("In progress: %d", counts[models.SyncInProgress])
	output.Info("Failed:      %d", counts[models.SyncFailed])

	history, err := database.GetSyncHistoryTail(1)
	if err == nil && len(history) > 0 {
		last := history[0]
		output.Info("Last push:   %s (%s %s)", output.FormatTimeAgo(last.Timestamp), last.Status, last.EntityID)
	}
	return nil
}

// dryRunEntry is what a dry run prints for each mutation.
type dryRunEntry struct {
	MutationID string `json:"mutation_id"`
	Type       string `json:"type"`
	Document   string `json:"document,omitempty"`
	Fields     any    `json:"fields,omitempty"`
	Delete     bool   `json:"delete,omitempty"`
	Error      string `json:"error,omitempty"`
}

// runDryRun prints the remote field map of each mutation the next push would
// send, without claiming or writing anything.
func runDryRun(database *db.DB, user models.User, limit int) error {
	mutations, err := gndsync.ListPushableMutations(database.Conn(), limit)
	if err != nil {
		output.Error("list mutations: %v", err)
		return err
	}

	entries := make([]dryRunEntry, 0, len(mutations))
	for _, m := range mutations {
		entries = append(entries, dryRun(m, user))
	}
	return output.JSON(entries)
}

func dryRun(m models.LOIMutation, user models.User) dryRunEntry {
	e := dryRunEntry{MutationID: m.ID, Type: string(m.Type)}
	path, err := schema.LOIDocumentPath(m)
	if err != nil {
		e.Error = err.Error()
		return e
	}
	e.Document = path

	if m.Type == models.MutationDelete {
		e.Delete = true
		return e
	}
	if user.ID == "" {
		user.ID = m.UserID
	}
	fields, err := schema.LOIMutationToMap(m, user)
	if err != nil {
		e.Error = err.Error()
		return e
	}
	e.Fields = remote.Plain(fields)
	return e
}

var syncHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent push results",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("lines")

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		entries, err := database.GetSyncHistoryTail(n)
		if err != nil {
			output.Error("read history: %v", err)
			return err
		}
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			if entries == nil {
				entries = []db.SyncHistoryEntry{}
			}
			return output.JSON(entries)
		}
		if len(entries) == 0 {
			output.Info("No sync history")
			return nil
		}
		for _, e := range entries {
			output.Info("%s", formatHistoryEntry(e))
		}
		return nil
	},
}

func formatHistoryEntry(e db.SyncHistoryEntry) string {
	line := fmt.Sprintf("%s  %-4s %-6s %s/%s  %s",
		e.Timestamp.Local().Format("2006-01-02 15:04:05"),
		e.Direction, e.MutationType, e.EntityType, e.EntityID,
		output.FormatSyncStatus(models.SyncStatus(e.Status)))
	if e.Error != "" {
		line += "  " + e.Error
	}
	return line
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncHistoryCmd)

	syncCmd.Flags().Bool("dry-run", false, "Print the remote fields of queued mutations as JSON without writing")
	syncCmd.Flags().Bool("status", false, "Show queue counts and exit")
	syncCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile after pushing")
	syncCmd.Flags().Int("limit", 0, "Max mutations to push (default: sync.batch_size)")

	syncHistoryCmd.Flags().IntP("lines", "n", 20, "Number of entries")
	syncHistoryCmd.Flags().Bool("json", false, "Output as JSON")
}
