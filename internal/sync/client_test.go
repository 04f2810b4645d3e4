package sync

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/db"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

const clientTestSchema = `
CREATE TABLE loi_mutations (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    sync_status TEXT NOT NULL DEFAULT 'pending',
    survey_id TEXT NOT NULL,
    loi_id TEXT NOT NULL,
    job_id TEXT NOT NULL DEFAULT '',
    user_id TEXT NOT NULL DEFAULT '',
    client_timestamp DATETIME NOT NULL,
    retry_count INTEGER NOT NULL DEFAULT 0,
    last_error TEXT NOT NULL DEFAULT '',
    location TEXT,
    polygon_vertices TEXT NOT NULL DEFAULT '[]',
    synced_at DATETIME
);
CREATE TABLE sync_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    direction TEXT NOT NULL DEFAULT 'push',
    mutation_type TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    device_id TEXT NOT NULL DEFAULT '',
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

var baseTime = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func setupClientDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(clientTestSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func insertMutation(t *testing.T, conn *sql.DB, id, mutationType, status, loiID string, minute, retries int) {
	t.Helper()
	_, err := conn.Exec(`
		INSERT INTO loi_mutations (id, type, sync_status, survey_id, loi_id, job_id, client_timestamp, retry_count, location)
		VALUES (?, ?, ?, 's1', ?, 'job1', ?, ?, '{"latitude":1,"longitude":2}')`,
		id, mutationType, status, loiID, db.FormatTimestamp(baseTime.Add(time.Duration(minute)*time.Minute)), retries)
	if err != nil {
		t.Fatalf("insert mutation: %v", err)
	}
}

func statusOf(t *testing.T, conn *sql.DB, id string) (status string, retries int, lastErr string) {
	t.Helper()
	if err := conn.QueryRow(`SELECT sync_status, retry_count, last_error FROM loi_mutations WHERE id = ?`, id).
		Scan(&status, &retries, &lastErr); err != nil {
		t.Fatalf("status of %s: %v", id, err)
	}
	return status, retries, lastErr
}

func claim(t *testing.T, conn *sql.DB, limit int) []models.LOIMutation {
	t.Helper()
	tx, err := conn.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	mutations, err := GetPendingMutations(tx, limit)
	if err != nil {
		tx.Rollback()
		t.Fatalf("GetPendingMutations: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return mutations
}

func ids(mutations []models.LOIMutation) []string {
	out := make([]string, len(mutations))
	for i, m := range mutations {
		out[i] = m.ID
	}
	return out
}

func TestGetPendingMutations_OrderAndClaim(t *testing.T) {
	conn := setupClientDB(t)
	insertMutation(t, conn, "m2", "update", "pending", "a", 2, 0)
	insertMutation(t, conn, "m1", "create", "pending", "a", 1, 0)
	insertMutation(t, conn, "m3", "create", "completed", "b", 0, 0)
	insertMutation(t, conn, "m4", "update", "failed", "c", 3, 2)
	insertMutation(t, conn, "m5", "update", "in_progress", "d", 4, 0)

	got := claim(t, conn, 0)
	want := []string{"m1", "m2", "m4", "m5"}
	if len(got) != len(want) {
		t.Fatalf("claimed %v, want %v", ids(got), want)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("claimed %v, want %v", ids(got), want)
		}
		if got[i].SyncStatus != models.SyncInProgress {
			t.Errorf("%s status = %s", got[i].ID, got[i].SyncStatus)
		}
	}
	if !got[0].Location.Valid || got[0].Location.Point.Longitude != 2 {
		t.Errorf("location not scanned: %+v", got[0].Location)
	}
	if status, _, _ := statusOf(t, conn, "m1"); status != "in_progress" {
		t.Errorf("m1 status in db = %s", status)
	}
}

func TestGetPendingMutations_Limit(t *testing.T) {
	conn := setupClientDB(t)
	for i, id := range []string{"m1", "m2", "m3"} {
		insertMutation(t, conn, id, "update", "pending", "a", i, 0)
	}
	got := claim(t, conn, 2)
	if len(got) != 2 || got[1].ID != "m2" {
		t.Fatalf("claimed %v", ids(got))
	}
	if status, _, _ := statusOf(t, conn, "m3"); status != "pending" {
		t.Errorf("m3 should stay pending, got %s", status)
	}
}

func TestGetPendingMutations_SkipsBehindExhaustedFailure(t *testing.T) {
	conn := setupClientDB(t)
	insertMutation(t, conn, "dead", "update", "failed", "a", 1, MaxRetries)
	insertMutation(t, conn, "later", "update", "pending", "a", 2, 0)
	insertMutation(t, conn, "earlier", "create", "pending", "a", 0, 0)
	insertMutation(t, conn, "other", "update", "pending", "b", 3, 0)

	got := claim(t, conn, 0)
	if len(got) != 2 || got[0].ID != "earlier" || got[1].ID != "other" {
		t.Fatalf("claimed %v, want [earlier other]", ids(got))
	}
}

func TestListPushableMutations_DoesNotClaim(t *testing.T) {
	conn := setupClientDB(t)
	insertMutation(t, conn, "dead", "update", "failed", "a", 0, MaxRetries)
	insertMutation(t, conn, "behind", "update", "pending", "a", 1, 0)
	insertMutation(t, conn, "retry", "update", "failed", "b", 2, 1)
	insertMutation(t, conn, "fresh", "create", "pending", "c", 3, 0)
	insertMutation(t, conn, "done", "create", "completed", "d", 4, 0)

	got, err := ListPushableMutations(conn, 0)
	if err != nil {
		t.Fatalf("ListPushableMutations: %v", err)
	}
	if len(got) != 2 || got[0].ID != "retry" || got[1].ID != "fresh" {
		t.Fatalf("listed %v, want [retry fresh]", ids(got))
	}
	if status, _, _ := statusOf(t, conn, "fresh"); status != "pending" {
		t.Errorf("listing should not claim, fresh is %s", status)
	}

	limited, err := ListPushableMutations(conn, 1)
	if err != nil || len(limited) != 1 || limited[0].ID != "retry" {
		t.Errorf("limit 1 = %v, %v", ids(limited), err)
	}
}

func TestMarkMutations(t *testing.T) {
	conn := setupClientDB(t)
	insertMutation(t, conn, "ok", "create", "in_progress", "a", 0, 0)
	insertMutation(t, conn, "bad", "update", "in_progress", "b", 1, 1)
	insertMutation(t, conn, "held", "update", "in_progress", "b", 2, 0)
	insertMutation(t, conn, "weird", "unknown", "in_progress", "c", 3, 0)

	tx, _ := conn.Begin()
	at := baseTime.Add(time.Hour)
	if err := MarkMutationsSynced(tx, []Ack{{MutationID: "ok"}}, at); err != nil {
		t.Fatalf("MarkMutationsSynced: %v", err)
	}
	failures := []FailedMutation{
		{MutationID: "bad", Err: errors.New("503")},
		{MutationID: "held", Err: ErrHeldBack},
		{MutationID: "weird", Err: models.UnsupportedMutationError(models.MutationUnknown)},
	}
	if err := MarkMutationsFailed(tx, failures); err != nil {
		t.Fatalf("MarkMutationsFailed: %v", err)
	}
	tx.Commit()

	if status, _, _ := statusOf(t, conn, "ok"); status != "completed" {
		t.Errorf("ok status = %s", status)
	}
	var syncedAt string
	conn.QueryRow(`SELECT synced_at FROM loi_mutations WHERE id = 'ok'`).Scan(&syncedAt)
	if syncedAt != db.FormatTimestamp(at) {
		t.Errorf("synced_at = %q", syncedAt)
	}

	if status, retries, lastErr := statusOf(t, conn, "bad"); status != "failed" || retries != 2 || lastErr != "503" {
		t.Errorf("bad = %s/%d/%q", status, retries, lastErr)
	}
	if status, retries, _ := statusOf(t, conn, "held"); status != "pending" || retries != 0 {
		t.Errorf("held = %s/%d", status, retries)
	}
	if status, retries, _ := statusOf(t, conn, "weird"); status != "failed" || retries != MaxRetries {
		t.Errorf("weird = %s/%d, want failed/%d", status, retries, MaxRetries)
	}
}

func TestHistoryEntries(t *testing.T) {
	result := PushResult{
		Acks: []Ack{{MutationID: "m1", LOIID: "a", Type: models.MutationCreate}},
		Failed: []FailedMutation{
			{MutationID: "m2", LOIID: "b", Type: models.MutationUpdate, Err: errors.New("denied")},
			{MutationID: "m3", LOIID: "b", Type: models.MutationUpdate, Err: ErrHeldBack},
		},
	}
	entries := HistoryEntries(result, "dev", baseTime)
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Status != "completed" || entries[0].EntityType != EntityLOI || entries[0].DeviceID != "dev" {
		t.Errorf("ack entry = %+v", entries[0])
	}
	if entries[1].Status != "failed" || entries[1].Error != "denied" {
		t.Errorf("failure entry = %+v", entries[1])
	}

	conn := setupClientDB(t)
	tx, _ := conn.Begin()
	if err := db.RecordSyncHistoryTx(tx, entries); err != nil {
		t.Fatalf("RecordSyncHistoryTx: %v", err)
	}
	tx.Commit()
}
