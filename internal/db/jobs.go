package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
)

// JobSummary is a job row without its decoded task list
type JobSummary struct {
	ID         string    `json:"id"`
	SurveyID   string    `json:"survey_id"`
	Name       string    `json:"name"`
	TaskCount  int       `json:"task_count"`
	ImportedAt time.Time `json:"imported_at"`
}

// SaveJob inserts or replaces a job definition
func (db *DB) SaveJob(job models.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	definition, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}

	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO jobs (id, survey_id, name, definition, imported_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				survey_id = excluded.survey_id,
				name = excluded.name,
				definition = excluded.definition,
				imported_at = excluded.imported_at
		`, job.ID, job.SurveyID, job.Name, string(definition), FormatTimestamp(time.Now()))
		return err
	})
}

// GetJob returns a job by id
func (db *DB) GetJob(id string) (models.Job, error) {
	var definition string
	err := db.conn.QueryRow(`SELECT definition FROM jobs WHERE id = ?`, id).Scan(&definition)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Job{}, err
	}

	var job models.Job
	if err := json.Unmarshal([]byte(definition), &job); err != nil {
		return models.Job{}, fmt.Errorf("decode job %s: %w", id, err)
	}
	return job, nil
}

// ListJobs returns all imported jobs ordered by survey and name
func (db *DB) ListJobs() ([]JobSummary, error) {
	rows, err := db.conn.Query(`
		SELECT id, survey_id, name, definition, imported_at
		FROM jobs
		ORDER BY survey_id, name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []JobSummary
	for rows.Next() {
		var (
			j          JobSummary
			definition string
			importedAt string
		)
		if err := rows.Scan(&j.ID, &j.SurveyID, &j.Name, &definition, &importedAt); err != nil {
			return nil, err
		}
		var job models.Job
		if err := json.Unmarshal([]byte(definition), &job); err == nil {
			j.TaskCount = len(job.Tasks)
		}
		if j.ImportedAt, err = ParseTimestamp(importedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// DeleteJob removes a job definition. Stored submissions keep their raw
// responses but can no longer be decoded until the job is re-imported.
func (db *DB) DeleteJob(id string) error {
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`DELETE FROM jobs WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil
	})
}
