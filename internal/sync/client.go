package sync

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/db"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// ListPushableMutations returns, without claiming them, the mutations the
// next push would send: pending or in_progress rows and failed rows with
// retries left, in client timestamp order. Mutations queued behind an
// exhausted failure of the same LOI are skipped so the remote never sees
// them out of order. A limit <= 0 returns everything.
func ListPushableMutations(q Querier, limit int) ([]models.LOIMutation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.Query(`
		SELECT `+db.MutationColumns+`
		FROM loi_mutations m
		WHERE (m.sync_status IN (?, ?) OR (m.sync_status = ? AND m.retry_count < ?))
		  AND NOT EXISTS (
			SELECT 1 FROM loi_mutations f
			WHERE f.loi_id = m.loi_id
			  AND f.sync_status = ? AND f.retry_count >= ?
			  AND (f.client_timestamp < m.client_timestamp
			       OR (f.client_timestamp = m.client_timestamp AND f.rowid < m.rowid))
		  )
		ORDER BY m.client_timestamp, m.rowid
		LIMIT ?
	`, string(models.SyncPending), string(models.SyncInProgress),
		string(models.SyncFailed), MaxRetries,
		string(models.SyncFailed), MaxRetries,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query pending mutations: %w", err)
	}
	defer rows.Close()

	var mutations []models.LOIMutation
	for rows.Next() {
		m, err := db.ScanMutation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		mutations = append(mutations, *m)
	}
	return mutations, rows.Err()
}

// GetPendingMutations claims the mutations ListPushableMutations returns and
// marks them in_progress within tx. Rows left in_progress by an interrupted
// sync are claimed again.
func GetPendingMutations(tx *sql.Tx, limit int) ([]models.LOIMutation, error) {
	mutations, err := ListPushableMutations(tx, limit)
	if err != nil {
		return nil, err
	}
	for i := range mutations {
		if _, err := tx.Exec(`UPDATE loi_mutations SET sync_status = ? WHERE id = ?`,
			string(models.SyncInProgress), mutations[i].ID); err != nil {
			return nil, fmt.Errorf("claim mutation %s: %w", mutations[i].ID, err)
		}
		mutations[i].SyncStatus = models.SyncInProgress
	}
	return mutations, nil
}

// MarkMutationsSynced marks acknowledged mutations completed.
func MarkMutationsSynced(tx *sql.Tx, acks []Ack, at time.Time) error {
	for _, ack := range acks {
		_, err := tx.Exec(
			`UPDATE loi_mutations SET sync_status = ?, synced_at = ?, last_error = '' WHERE id = ?`,
			string(models.SyncCompleted), db.FormatTimestamp(at), ack.MutationID,
		)
		if err != nil {
			return fmt.Errorf("mark synced %s: %w", ack.MutationID, err)
		}
	}
	return nil
}

// MarkMutationsFailed records push failures. Held-back mutations go back to
// pending untouched; attempted ones become failed with one more retry used,
// or all of them when the failure is permanent.
func MarkMutationsFailed(tx *sql.Tx, failures []FailedMutation) error {
	for _, f := range failures {
		var err error
		switch {
		case f.HeldBack():
			_, err = tx.Exec(`UPDATE loi_mutations SET sync_status = ? WHERE id = ?`,
				string(models.SyncPending), f.MutationID)
		case f.Permanent():
			_, err = tx.Exec(`UPDATE loi_mutations SET sync_status = ?, retry_count = ?, last_error = ? WHERE id = ?`,
				string(models.SyncFailed), MaxRetries, f.Err.Error(), f.MutationID)
		default:
			_, err = tx.Exec(`UPDATE loi_mutations SET sync_status = ?, retry_count = retry_count + 1, last_error = ? WHERE id = ?`,
				string(models.SyncFailed), f.Err.Error(), f.MutationID)
		}
		if err != nil {
			return fmt.Errorf("mark failed %s: %w", f.MutationID, err)
		}
	}
	return nil
}

// HistoryEntries turns a push result into sync history rows.
func HistoryEntries(result PushResult, deviceID string, at time.Time) []db.SyncHistoryEntry {
	entries := make([]db.SyncHistoryEntry, 0, len(result.Acks)+len(result.Failed))
	for _, a := range result.Acks {
		entries = append(entries, db.SyncHistoryEntry{
			Direction:    "push",
			MutationType: string(a.Type),
			EntityType:   EntityLOI,
			EntityID:     a.LOIID,
			Status:       string(models.SyncCompleted),
			DeviceID:     deviceID,
			Timestamp:    at,
		})
	}
	for _, f := range result.Failed {
		if f.HeldBack() {
			continue
		}
		entries = append(entries, db.SyncHistoryEntry{
			Direction:    "push",
			MutationType: string(f.Type),
			EntityType:   EntityLOI,
			EntityID:     f.LOIID,
			Status:       string(models.SyncFailed),
			Error:        f.Err.Error(),
			DeviceID:     deviceID,
			Timestamp:    at,
		})
	}
	return entries
}
