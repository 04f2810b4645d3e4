// Package input turns command-line text into typed values: flag values
// read from stdin or files (@file syntax), task=value assignments,
// coordinates and typed responses.
package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/dateparse"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/output"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/responsemap"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/suggest"
)

// ErrInvalidValue is returned for text that cannot be converted to the
// requested type.
var ErrInvalidValue = errors.New("invalid value")

// ExpandFlagValues expands flag values that use - (stdin) or @file syntax.
// Returns the expanded values and whether stdin was consumed.
func ExpandFlagValues(values []string, stdin io.Reader, stdinUsed bool) ([]string, bool) {
	var result []string
	for _, v := range values {
		switch {
		case v == "-":
			if stdinUsed {
				output.Warning("stdin already used, ignoring additional - flag")
				continue
			}
			stdinUsed = true
			result = append(result, ReadLinesFromReader(stdin)...)
		case strings.HasPrefix(v, "@"):
			path := strings.TrimPrefix(v, "@")
			file, err := os.Open(path)
			if err != nil {
				output.Warning("failed to read %s: %v", path, err)
				continue
			}
			result = append(result, ReadLinesFromReader(file)...)
			file.Close()
		default:
			result = append(result, v)
		}
	}
	return result, stdinUsed
}

// ReadLinesFromReader reads non-empty lines from a reader.
// Lines starting with # are comments.
func ReadLinesFromReader(r io.Reader) []string {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return lines
}

// Assignment is a parsed task=value pair
type Assignment struct {
	TaskID string
	Value  string
}

// ParseAssignment splits "task=value". The value may be empty, which
// clears the task's answer.
func ParseAssignment(s string) (Assignment, error) {
	taskID, value, ok := strings.Cut(s, "=")
	taskID = strings.TrimSpace(taskID)
	if !ok || taskID == "" {
		return Assignment{}, fmt.Errorf("%w: %q (want task=value)", ErrInvalidValue, s)
	}
	return Assignment{TaskID: taskID, Value: strings.TrimSpace(value)}, nil
}

// ParsePoint parses "lat,lng" in decimal degrees.
func ParsePoint(s string) (models.Point, error) {
	latText, lngText, ok := strings.Cut(s, ",")
	if !ok {
		return models.Point{}, fmt.Errorf("%w: point %q (want lat,lng)", ErrInvalidValue, s)
	}
	lat, err := parseFinite(latText)
	if err != nil {
		return models.Point{}, fmt.Errorf("%w: latitude %q", ErrInvalidValue, latText)
	}
	lng, err := parseFinite(lngText)
	if err != nil {
		return models.Point{}, fmt.Errorf("%w: longitude %q", ErrInvalidValue, lngText)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return models.Point{}, fmt.Errorf("%w: point %q out of range", ErrInvalidValue, s)
	}
	return models.Point{Latitude: lat, Longitude: lng}, nil
}

// ParseResponse converts text typed on the command line into a response
// for task. An empty value yields a nil response (an explicit clear).
func ParseResponse(task models.Task, value string, now time.Time) (models.Response, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	switch task.Type {
	case models.TaskTypeText:
		return models.TextResponse{Text: value}, nil
	case models.TaskTypePhoto:
		return models.PhotoResponse{Path: value}, nil
	case models.TaskTypeNumber:
		f, err := parseFinite(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a number, got %q", ErrInvalidValue, task.ID, value)
		}
		return models.NumberResponse{Value: f}, nil
	case models.TaskTypeMultipleChoice:
		return parseChoice(task, value)
	case models.TaskTypeDate:
		d, err := dateparse.ParseDateFrom(value, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, task.ID, err)
		}
		return models.DateResponse{Date: d}, nil
	case models.TaskTypeTime:
		if strings.EqualFold(value, "now") {
			value = now.UTC().Format("15:04")
		}
		t, err := responsemap.ParseTimeOfDay(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, task.ID, err)
		}
		return models.TimeResponse{Time: t}, nil
	case models.TaskTypeDropAPin:
		p, err := ParsePoint(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", task.ID, err)
		}
		return models.LocationResponse{Point: p}, nil
	default:
		return nil, fmt.Errorf("%w: %s has type %q", responsemap.ErrUnsupportedTaskType, task.ID, task.Type)
	}
}

func parseChoice(task models.Task, value string) (models.Response, error) {
	optionIDs := make([]string, 0, len(task.Options))
	for _, id := range strings.Split(value, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := task.Option(id); !ok {
			known := make([]string, len(task.Options))
			for i, o := range task.Options {
				known[i] = o.ID
			}
			return nil, fmt.Errorf("%w: %s has no option %q%s", ErrInvalidValue, task.ID, id, suggest.Hint(id, known))
		}
		optionIDs = append(optionIDs, id)
	}
	if len(optionIDs) == 0 {
		return nil, nil
	}
	if task.Cardinality == models.SelectOne && len(optionIDs) > 1 {
		return nil, fmt.Errorf("%w: %s accepts a single option", ErrInvalidValue, task.ID)
	}
	return models.MultipleChoiceResponse{OptionIDs: optionIDs}, nil
}

// ApplyAssignments parses each assignment against job and adds it to b.
// Unknown task ids fail with a suggestion of the nearest known id.
func ApplyAssignments(b *models.ResponseMapBuilder, job models.Job, assignments []string, now time.Time) error {
	for _, raw := range assignments {
		a, err := ParseAssignment(raw)
		if err != nil {
			return err
		}
		task, ok := job.Task(a.TaskID)
		if !ok {
			return fmt.Errorf("%w: job %s has no task %q%s", ErrInvalidValue, job.ID, a.TaskID, suggest.Hint(a.TaskID, job.TaskIDs()))
		}
		r, err := ParseResponse(task, a.Value, now)
		if err != nil {
			return err
		}
		if r == nil {
			b.Clear(task.ID)
			continue
		}
		b.Put(task.ID, r)
	}
	return nil
}

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite")
	}
	return f, nil
}
