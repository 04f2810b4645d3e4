package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/responsemap"
)

// SubmissionFilter narrows ListSubmissions
type SubmissionFilter struct {
	JobID          string
	LOIID          string
	IncludeDeleted bool
}

const submissionColumns = `id, survey_id, loi_id, job_id, responses, created_by, created_at, modified_by, modified_at, deleted_at`

// CreateSubmission encodes the submission's responses and stores it. The
// returned report lists entries the encoder had to skip.
func (db *DB) CreateSubmission(s *models.Submission) (responsemap.Report, error) {
	if s.SurveyID == "" || s.LOIID == "" || s.JobID == "" {
		return responsemap.Report{}, fmt.Errorf("submission needs survey, loi and job ids")
	}
	if s.ID == "" {
		s.ID = NewID()
	}
	now := time.Now().UTC()
	if s.Created.ClientTimestamp.IsZero() {
		s.Created.ClientTimestamp = now
	}
	if s.LastModified.ClientTimestamp.IsZero() {
		s.LastModified = s.Created
	}

	encoded, report := responsemap.Encode(s.Responses)
	logSkipped("encode", s.ID, report)

	createdBy, err := json.Marshal(s.Created.User)
	if err != nil {
		return report, err
	}
	modifiedBy, err := json.Marshal(s.LastModified.User)
	if err != nil {
		return report, err
	}

	err = db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO submissions (`+submissionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		`, s.ID, s.SurveyID, s.LOIID, s.JobID, encoded,
			string(createdBy), FormatTimestamp(s.Created.ClientTimestamp),
			string(modifiedBy), FormatTimestamp(s.LastModified.ClientTimestamp))
		return err
	})
	if err != nil {
		return report, fmt.Errorf("insert submission: %w", err)
	}
	return report, nil
}

// UpdateSubmissionResponses replaces a submission's responses and records who
// changed them.
func (db *DB) UpdateSubmissionResponses(id string, responses models.ResponseMap, user models.User) (responsemap.Report, error) {
	encoded, report := responsemap.Encode(responses)
	logSkipped("encode", id, report)

	modifiedBy, err := json.Marshal(user)
	if err != nil {
		return report, err
	}

	err = db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			UPDATE submissions SET responses = ?, modified_by = ?, modified_at = ?
			WHERE id = ? AND deleted_at IS NULL
		`, encoded, string(modifiedBy), FormatTimestamp(time.Now()), id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("submission %s: %w", id, ErrNotFound)
		}
		return nil
	})
	return report, err
}

// GetSubmission loads a submission and decodes its responses against the
// job it belongs to. Entries the job no longer understands are dropped and
// listed in the report.
func (db *DB) GetSubmission(id string) (*models.Submission, responsemap.Report, error) {
	row := db.conn.QueryRow(`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)
	s, raw, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, responsemap.Report{}, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, responsemap.Report{}, err
	}

	job, err := db.GetJob(s.JobID)
	if err != nil {
		return nil, responsemap.Report{}, fmt.Errorf("load job for submission %s: %w", id, err)
	}

	var report responsemap.Report
	s.Responses, report = responsemap.Decode(job, raw)
	logSkipped("decode", s.ID, report)
	return s, report, nil
}

// ListSubmissions returns submissions matching the filter, newest first, with
// responses decoded. Submissions whose job is missing get an empty map.
func (db *DB) ListSubmissions(filter SubmissionFilter) ([]models.Submission, error) {
	var (
		conds []string
		args  []any
	)
	if filter.JobID != "" {
		conds = append(conds, "job_id = ?")
		args = append(args, filter.JobID)
	}
	if filter.LOIID != "" {
		conds = append(conds, "loi_id = ?")
		args = append(args, filter.LOIID)
	}
	if !filter.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	query := `SELECT ` + submissionColumns + ` FROM submissions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type pending struct {
		s   *models.Submission
		raw *string
	}
	var loaded []pending
	for rows.Next() {
		s, raw, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, pending{s: s, raw: raw})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	jobs := make(map[string]*models.Job)
	out := make([]models.Submission, 0, len(loaded))
	for _, p := range loaded {
		job, ok := jobs[p.s.JobID]
		if !ok {
			j, err := db.GetJob(p.s.JobID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			if err == nil {
				job = &j
			}
			jobs[p.s.JobID] = job
		}
		if job == nil {
			slog.Warn("db: submission job missing", "submission", p.s.ID, "job", p.s.JobID)
			p.s.Responses = models.EmptyResponseMap()
		} else {
			var report responsemap.Report
			p.s.Responses, report = responsemap.Decode(*job, p.raw)
			logSkipped("decode", p.s.ID, report)
		}
		out = append(out, *p.s)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.Submission, *string, error) {
	var (
		s                     models.Submission
		raw                   sql.NullString
		createdBy, modifiedBy string
		createdAt, modifiedAt string
		deletedAt             sql.NullString
	)
	if err := row.Scan(&s.ID, &s.SurveyID, &s.LOIID, &s.JobID, &raw,
		&createdBy, &createdAt, &modifiedBy, &modifiedAt, &deletedAt); err != nil {
		return nil, nil, err
	}

	if err := json.Unmarshal([]byte(createdBy), &s.Created.User); err != nil {
		return nil, nil, fmt.Errorf("decode created_by of %s: %w", s.ID, err)
	}
	if err := json.Unmarshal([]byte(modifiedBy), &s.LastModified.User); err != nil {
		return nil, nil, fmt.Errorf("decode modified_by of %s: %w", s.ID, err)
	}
	var err error
	if s.Created.ClientTimestamp, err = ParseTimestamp(createdAt); err != nil {
		return nil, nil, err
	}
	if s.LastModified.ClientTimestamp, err = ParseTimestamp(modifiedAt); err != nil {
		return nil, nil, err
	}
	if s.DeletedAt, err = parseNullTimestamp(deletedAt); err != nil {
		return nil, nil, err
	}

	var rawPtr *string
	if raw.Valid {
		rawPtr = &raw.String
	}
	return &s, rawPtr, nil
}

func logSkipped(op, submissionID string, report responsemap.Report) {
	if report.Malformed != nil {
		slog.Warn("db: malformed responses", "op", op, "submission", submissionID, "err", report.Malformed)
	}
	for _, e := range report.Skipped() {
		slog.Debug("db: response entry dropped", "op", op, "submission", submissionID, "task", e.TaskID, "reason", e.Reason)
	}
}
