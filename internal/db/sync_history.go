package db

import (
	"database/sql"
	"time"
)

// SyncHistoryEntry represents a row from the sync_history table.
type SyncHistoryEntry struct {
	ID           int64     `json:"id"`
	Direction    string    `json:"direction"`     // "push"
	MutationType string    `json:"mutation_type"` // "create", "update", "delete"
	EntityType   string    `json:"entity_type"`   // "lois"
	EntityID     string    `json:"entity_id"`
	Status       string    `json:"status"` // "completed" or "failed"
	Error        string    `json:"error,omitempty"`
	DeviceID     string    `json:"device_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// RecordSyncHistoryTx batch-inserts sync history entries within the provided transaction.
// Returns nil if entries is empty.
func RecordSyncHistoryTx(tx *sql.Tx, entries []SyncHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sync_history (direction, mutation_type, entity_type, entity_id, status, error, device_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		direction := e.Direction
		if direction == "" {
			direction = "push"
		}
		ts := e.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		if _, err := stmt.Exec(direction, e.MutationType, e.EntityType, e.EntityID, e.Status, e.Error, e.DeviceID, FormatTimestamp(ts)); err != nil {
			return err
		}
	}
	return nil
}

// GetSyncHistoryTail returns the last N entries in chronological order (oldest first).
func (db *DB) GetSyncHistoryTail(limit int) ([]SyncHistoryEntry, error) {
	rows, err := db.conn.Query(`
		SELECT id, direction, mutation_type, entity_type, entity_id, status, error, device_id, timestamp
		FROM sync_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []SyncHistoryEntry
	for rows.Next() {
		var e SyncHistoryEntry
		var ts string
		if err := rows.Scan(&e.ID, &e.Direction, &e.MutationType, &e.EntityType, &e.EntityID, &e.Status, &e.Error, &e.DeviceID, &ts); err != nil {
			return nil, err
		}
		parsed, err := ParseTimestamp(ts)
		if err != nil {
			return nil, err
		}
		e.Timestamp = parsed
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// PruneSyncHistory deletes rows not in the newest maxRows entries.
func PruneSyncHistory(tx *sql.Tx, maxRows int) error {
	_, err := tx.Exec(`
		DELETE FROM sync_history WHERE id NOT IN (
			SELECT id FROM sync_history ORDER BY id DESC LIMIT ?
		)
	`, maxRows)
	return err
}
