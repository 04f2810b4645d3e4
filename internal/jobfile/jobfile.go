// Package jobfile loads job definitions (task schemas) from YAML or JSON files.
package jobfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrInvalidJob is wrapped by every validation failure
var ErrInvalidJob = errors.New("invalid job definition")

type fileTask struct {
	ID          string          `yaml:"id"`
	Index       *int            `yaml:"index"`
	Label       string          `yaml:"label"`
	Type        string          `yaml:"type"`
	Required    bool            `yaml:"required"`
	Cardinality string          `yaml:"cardinality"`
	Options     []models.Option `yaml:"options"`
}

type fileJob struct {
	ID       string     `yaml:"id"`
	SurveyID string     `yaml:"survey_id"`
	Name     string     `yaml:"name"`
	Tasks    []fileTask `yaml:"tasks"`
}

// Load reads and validates a job definition file.
func Load(path string) (models.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Job{}, fmt.Errorf("read job file: %w", err)
	}
	job, err := Parse(bytes.NewReader(data))
	if err != nil {
		return models.Job{}, fmt.Errorf("%s: %w", path, err)
	}
	return job, nil
}

// Parse decodes a single job definition. JSON is accepted since it is a
// subset of YAML.
func Parse(r io.Reader) (models.Job, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fj fileJob
	if err := dec.Decode(&fj); err != nil {
		if errors.Is(err, io.EOF) {
			return models.Job{}, fmt.Errorf("%w: empty document", ErrInvalidJob)
		}
		return models.Job{}, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	return fj.toJob()
}

func (fj fileJob) toJob() (models.Job, error) {
	job := models.Job{
		ID:       strings.TrimSpace(fj.ID),
		SurveyID: strings.TrimSpace(fj.SurveyID),
		Name:     fj.Name,
	}
	if job.ID == "" {
		return models.Job{}, fmt.Errorf("%w: id is required", ErrInvalidJob)
	}
	if len(fj.Tasks) == 0 {
		return models.Job{}, fmt.Errorf("%w: job %s has no tasks", ErrInvalidJob, job.ID)
	}

	seen := make(map[string]bool, len(fj.Tasks))
	for i, ft := range fj.Tasks {
		task, err := ft.toTask(i)
		if err != nil {
			return models.Job{}, fmt.Errorf("%w: task %d: %v", ErrInvalidJob, i, err)
		}
		if seen[task.ID] {
			return models.Job{}, fmt.Errorf("%w: duplicate task id %q", ErrInvalidJob, task.ID)
		}
		seen[task.ID] = true
		job.Tasks = append(job.Tasks, task)
	}
	return job, nil
}

func (ft fileTask) toTask(position int) (models.Task, error) {
	task := models.Task{
		ID:       strings.TrimSpace(ft.ID),
		Index:    position,
		Label:    ft.Label,
		Type:     models.NormalizeTaskType(strings.ToLower(strings.TrimSpace(ft.Type))),
		Required: ft.Required,
		Options:  ft.Options,
	}
	if ft.Index != nil {
		task.Index = *ft.Index
	}
	if task.ID == "" {
		return task, errors.New("id is required")
	}
	if !models.IsValidTaskType(task.Type) {
		return task, fmt.Errorf("unknown type %q", ft.Type)
	}

	if task.Type != models.TaskTypeMultipleChoice {
		if len(task.Options) > 0 {
			return task, fmt.Errorf("options are only valid on multiple_choice tasks")
		}
		return task, nil
	}

	switch models.Cardinality(ft.Cardinality) {
	case "", models.SelectMultiple:
		task.Cardinality = models.SelectMultiple
	case models.SelectOne:
		task.Cardinality = models.SelectOne
	default:
		return task, fmt.Errorf("unknown cardinality %q", ft.Cardinality)
	}
	if len(task.Options) == 0 {
		return task, errors.New("multiple_choice task needs options")
	}
	optionIDs := make(map[string]bool, len(task.Options))
	for _, o := range task.Options {
		if o.ID == "" {
			return task, errors.New("option id is required")
		}
		if optionIDs[o.ID] {
			return task, fmt.Errorf("duplicate option id %q", o.ID)
		}
		optionIDs[o.ID] = true
	}
	return task, nil
}
