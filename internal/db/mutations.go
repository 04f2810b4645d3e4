package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
)

// MutationColumns is the column list ScanMutation expects, in order.
const MutationColumns = `id, type, sync_status, survey_id, loi_id, job_id, user_id,
	client_timestamp, retry_count, last_error, location, polygon_vertices, synced_at`

// EnqueueLOIMutation appends a mutation to the offline queue as pending.
// Only create, update and delete are accepted.
func (db *DB) EnqueueLOIMutation(m *models.LOIMutation) error {
	switch m.Type {
	case models.MutationCreate, models.MutationUpdate, models.MutationDelete:
	default:
		return models.UnsupportedMutationError(m.Type)
	}
	if m.SurveyID == "" || m.LOIID == "" {
		return fmt.Errorf("mutation needs survey and loi ids")
	}
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.ClientTimestamp.IsZero() {
		m.ClientTimestamp = time.Now().UTC()
	}
	m.SyncStatus = models.SyncPending
	m.RetryCount = 0
	m.LastError = ""
	m.SyncedAt = nil

	location, vertices, err := encodeGeometry(*m)
	if err != nil {
		return err
	}

	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO loi_mutations (`+MutationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, '', ?, ?, NULL)
		`, m.ID, string(m.Type), string(m.SyncStatus), m.SurveyID, m.LOIID, m.JobID, m.UserID,
			FormatTimestamp(m.ClientTimestamp), location, vertices)
		if err != nil {
			return fmt.Errorf("enqueue mutation: %w", err)
		}
		return nil
	})
}

// GetLOIMutation returns a queued mutation by id
func (db *DB) GetLOIMutation(id string) (*models.LOIMutation, error) {
	row := db.conn.QueryRow(`SELECT `+MutationColumns+` FROM loi_mutations WHERE id = ?`, id)
	m, err := ScanMutation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mutation %s: %w", id, ErrNotFound)
	}
	return m, err
}

// ListLOIMutations returns queued mutations in queue order, optionally
// restricted to the given statuses.
func (db *DB) ListLOIMutations(statuses ...models.SyncStatus) ([]models.LOIMutation, error) {
	query := `SELECT ` + MutationColumns + ` FROM loi_mutations`
	var args []any
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += ` WHERE sync_status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY client_timestamp, rowid`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LOIMutation
	for rows.Next() {
		m, err := ScanMutation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// CountPendingMutations returns how many mutations have not reached the
// remote yet, failed ones included.
func (db *DB) CountPendingMutations() (int, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM loi_mutations WHERE sync_status != ?
	`, string(models.SyncCompleted)).Scan(&n)
	return n, err
}

// ResetFailedMutations puts failed mutations back in the queue with a fresh
// retry budget.
func (db *DB) ResetFailedMutations() (int64, error) {
	var n int64
	err := db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			UPDATE loi_mutations SET sync_status = ?, retry_count = 0, last_error = ''
			WHERE sync_status = ?
		`, string(models.SyncPending), string(models.SyncFailed))
		if err != nil {
			return err
		}
		n, _ = res.RowsAffected()
		return nil
	})
	return n, err
}

// ScanMutation reads one row selected with MutationColumns.
func ScanMutation(row interface{ Scan(dest ...any) error }) (*models.LOIMutation, error) {
	var (
		m            models.LOIMutation
		mutationType string
		status       string
		clientTS     string
		location     sql.NullString
		vertices     string
		syncedAt     sql.NullString
	)
	if err := row.Scan(&m.ID, &mutationType, &status, &m.SurveyID, &m.LOIID, &m.JobID, &m.UserID,
		&clientTS, &m.RetryCount, &m.LastError, &location, &vertices, &syncedAt); err != nil {
		return nil, err
	}

	// Unrecognised types are kept as Unknown so the sync engine can fail them
	// loudly instead of dropping the row.
	m.Type = models.ParseMutationType(mutationType)
	m.SyncStatus = models.SyncStatus(status)

	var err error
	if m.ClientTimestamp, err = ParseTimestamp(clientTS); err != nil {
		return nil, fmt.Errorf("mutation %s client_timestamp: %w", m.ID, err)
	}
	if m.SyncedAt, err = parseNullTimestamp(syncedAt); err != nil {
		return nil, fmt.Errorf("mutation %s synced_at: %w", m.ID, err)
	}
	if location.Valid && location.String != "" {
		var p models.Point
		if err := json.Unmarshal([]byte(location.String), &p); err != nil {
			return nil, fmt.Errorf("mutation %s location: %w", m.ID, err)
		}
		m.Location = models.SomePoint(p)
	}
	if vertices != "" {
		if err := json.Unmarshal([]byte(vertices), &m.PolygonVertices); err != nil {
			return nil, fmt.Errorf("mutation %s polygon: %w", m.ID, err)
		}
	}
	return &m, nil
}

func encodeGeometry(m models.LOIMutation) (location any, vertices string, err error) {
	if m.Location.Valid {
		data, err := json.Marshal(m.Location.Point)
		if err != nil {
			return nil, "", err
		}
		location = string(data)
	}
	pts := m.PolygonVertices
	if pts == nil {
		pts = []models.Point{}
	}
	data, err := json.Marshal(pts)
	if err != nil {
		return nil, "", err
	}
	return location, string(data), nil
}
