// Package responsemap converts response maps to and from the JSON strings
// stored in the local database's submissions.responses column.
//
// Decoding is lenient: a bad entry is reported and dropped, and a document
// that is not a JSON object yields an empty map. Callers that need strict
// behaviour check Report.Err.
package responsemap

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
)

// ErrMalformedDocument marks a stored string that is not a JSON object.
var ErrMalformedDocument = errors.New("malformed response map document")

// Outcome is the fate of a single entry during encode or decode
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeSkipped
)

func (o Outcome) String() string {
	if o == OutcomeSkipped {
		return "skipped"
	}
	return "ok"
}

// EntryResult records what happened to one task's entry
type EntryResult struct {
	TaskID  string
	Outcome Outcome
	Reason  error
}

// Report aggregates per-entry results of an encode or decode
type Report struct {
	Entries   []EntryResult
	Malformed error
}

func (r *Report) ok(taskID string) {
	r.Entries = append(r.Entries, EntryResult{TaskID: taskID, Outcome: OutcomeOK})
}

func (r *Report) skip(taskID string, reason error) {
	r.Entries = append(r.Entries, EntryResult{TaskID: taskID, Outcome: OutcomeSkipped, Reason: reason})
}

// Skipped returns the entries that were dropped
func (r Report) Skipped() []EntryResult {
	var out []EntryResult
	for _, e := range r.Entries {
		if e.Outcome == OutcomeSkipped {
			out = append(out, e)
		}
	}
	return out
}

// OK reports whether nothing was dropped
func (r Report) OK() bool {
	return r.Malformed == nil && len(r.Skipped()) == 0
}

// Err joins every problem into one error, or returns nil.
// Empty answers are not problems.
func (r Report) Err() error {
	var errs []error
	if r.Malformed != nil {
		errs = append(errs, r.Malformed)
	}
	for _, e := range r.Skipped() {
		if errors.Is(e.Reason, ErrEmptyResponse) {
			continue
		}
		errs = append(errs, fmt.Errorf("task %s: %w", e.TaskID, e.Reason))
	}
	return errors.Join(errs...)
}

// Encode serializes m to a JSON object keyed by task id. Cleared entries are
// written as null. Entries that cannot be represented are logged and left out.
func Encode(m models.ResponseMap) (string, Report) {
	var report Report
	obj := make(map[string]json.RawMessage, m.Len())

	for _, taskID := range m.TaskIDs() {
		r, _ := m.Response(taskID)
		raw, err := encodeEntry(r)
		if err != nil {
			slog.Error("responsemap: error building JSON", "task", taskID, "err", err)
			report.skip(taskID, err)
			continue
		}
		obj[taskID] = raw
		report.ok(taskID)
	}

	// Keys are sorted by encoding/json, so the stored string is stable.
	data, err := json.Marshal(obj)
	if err != nil {
		// Only reachable if a RawMessage is invalid, which encodeEntry prevents.
		report.Malformed = err
		return "{}", report
	}
	return string(data), report
}

func encodeEntry(r models.Response) (json.RawMessage, error) {
	v, err := ToJSONValue(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// Decode parses s against job's task list. A nil or blank s yields an empty
// map. Unknown task ids and unconvertible values are dropped and reported.
func Decode(job models.Job, s *string) (models.ResponseMap, Report) {
	var report Report
	b := models.NewResponseMapBuilder()
	if s == nil || strings.TrimSpace(*s) == "" {
		return b.Build(), report
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(*s), &obj); err != nil {
		slog.Error("responsemap: error parsing JSON string", "job", job.ID, "err", err)
		report.Malformed = fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		return b.Build(), report
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, taskID := range keys {
		task, ok := job.Task(taskID)
		if !ok {
			slog.Debug("responsemap: bad response in local db", "task", taskID, "err", ErrUnknownTask)
			report.skip(taskID, ErrUnknownTask)
			continue
		}
		r, err := FromJSONValue(task, obj[taskID])
		if err != nil {
			slog.Debug("responsemap: bad response in local db", "task", taskID, "err", err)
			report.skip(taskID, err)
			continue
		}
		b.Put(taskID, r)
		report.ok(taskID)
	}
	return b.Build(), report
}

// DecodeString is Decode for callers holding a plain string
func DecodeString(job models.Job, s string) (models.ResponseMap, Report) {
	return Decode(job, &s)
}
