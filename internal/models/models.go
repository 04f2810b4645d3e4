package models

import (
	"encoding/json"
	"sort"
	"time"
)

// TaskType represents the kind of answer a task collects
type TaskType string

const (
	TaskTypeText           TaskType = "text"
	TaskTypeMultipleChoice TaskType = "multiple_choice"
	TaskTypePhoto          TaskType = "photo"
	TaskTypeNumber         TaskType = "number"
	TaskTypeDate           TaskType = "date"
	TaskTypeTime           TaskType = "time"
	TaskTypeDropAPin       TaskType = "drop_a_pin"
	TaskTypeUnknown        TaskType = "unknown"
)

// Cardinality controls how many options a multiple choice task accepts
type Cardinality string

const (
	SelectOne      Cardinality = "select_one"
	SelectMultiple Cardinality = "select_multiple"
)

// Point is a WGS84 coordinate
type Point struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// OptionalPoint is a point with an explicit presence flag
type OptionalPoint struct {
	Point Point
	Valid bool
}

// MarshalJSON writes the point, or null when absent
func (o OptionalPoint) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Point)
}

// UnmarshalJSON reads a point or null
func (o *OptionalPoint) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = OptionalPoint{}
		return nil
	}
	if err := json.Unmarshal(data, &o.Point); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// SomePoint returns a present OptionalPoint
func SomePoint(p Point) OptionalPoint {
	return OptionalPoint{Point: p, Valid: true}
}

// Option is a selectable answer of a multiple choice task
type Option struct {
	ID    string `json:"id" yaml:"id"`
	Code  string `json:"code,omitempty" yaml:"code,omitempty"`
	Label string `json:"label" yaml:"label"`
}

// Task is a single question within a job
type Task struct {
	ID          string      `json:"id" yaml:"id"`
	Index       int         `json:"index" yaml:"index"`
	Label       string      `json:"label" yaml:"label"`
	Type        TaskType    `json:"type" yaml:"type"`
	Required    bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Cardinality Cardinality `json:"cardinality,omitempty" yaml:"cardinality,omitempty"`
	Options     []Option    `json:"options,omitempty" yaml:"options,omitempty"`
}

// Option looks up a multiple choice option by id
func (t Task) Option(id string) (Option, bool) {
	for _, o := range t.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Job is the ordered set of tasks governing one survey type
type Job struct {
	ID       string `json:"id" yaml:"id"`
	SurveyID string `json:"survey_id" yaml:"survey_id"`
	Name     string `json:"name" yaml:"name"`
	Tasks    []Task `json:"tasks" yaml:"tasks"`
}

// Task returns the task with the given id
func (j Job) Task(id string) (Task, bool) {
	for _, t := range j.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// OrderedTasks returns the tasks sorted by index
func (j Job) OrderedTasks() []Task {
	tasks := make([]Task, len(j.Tasks))
	copy(tasks, j.Tasks)
	sort.SliceStable(tasks, func(a, b int) bool { return tasks[a].Index < tasks[b].Index })
	return tasks
}

// TaskIDs returns task ids in display order
func (j Job) TaskIDs() []string {
	tasks := j.OrderedTasks()
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// User identifies the person performing an edit
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// AuditInfo records who did something and when.
// ServerTimestamp is nil until the remote store assigns it.
type AuditInfo struct {
	User            User       `json:"user"`
	ClientTimestamp time.Time  `json:"client_timestamp"`
	ServerTimestamp *time.Time `json:"server_timestamp,omitempty"`
}

// Submission is a set of responses recorded for one LOI under one job
type Submission struct {
	ID           string      `json:"id"`
	SurveyID     string      `json:"survey_id"`
	LOIID        string      `json:"loi_id"`
	JobID        string      `json:"job_id"`
	Responses    ResponseMap `json:"-"`
	Created      AuditInfo   `json:"created"`
	LastModified AuditInfo   `json:"last_modified"`
	DeletedAt    *time.Time  `json:"deleted_at,omitempty"`
}

// Config represents the project-local config state
type Config struct {
	ActiveSurveyID string          `json:"active_survey_id,omitempty"`
	DefaultJobID   string          `json:"default_job_id,omitempty"`
	FeatureFlags   map[string]bool `json:"feature_flags,omitempty"`
}

// IsValidTaskType checks if a task type is one the codec understands
func IsValidTaskType(t TaskType) bool {
	switch t {
	case TaskTypeText, TaskTypeMultipleChoice, TaskTypePhoto, TaskTypeNumber,
		TaskTypeDate, TaskTypeTime, TaskTypeDropAPin:
		return true
	}
	return false
}

// NormalizeTaskType converts alternate task type names to canonical form
// Accepts: "select", "choice" for multiple_choice; "pin", "point" for drop_a_pin
func NormalizeTaskType(t string) TaskType {
	switch t {
	case "select", "choice":
		return TaskTypeMultipleChoice
	case "pin", "point":
		return TaskTypeDropAPin
	case "":
		return TaskTypeUnknown
	default:
		return TaskType(t)
	}
}
