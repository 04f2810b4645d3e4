package responsemap

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
)

var (
	// ErrUnknownTask marks a stored key that the job does not define.
	ErrUnknownTask = errors.New("unknown task id")
	// ErrEmptyResponse marks a stored value that carries no answer (null, "", []).
	ErrEmptyResponse = errors.New("empty response")
	// ErrTypeMismatch marks a stored value whose JSON shape does not fit the task type.
	ErrTypeMismatch = errors.New("response does not match task type")
	// ErrUnsupportedTaskType marks a task whose type has no JSON mapping.
	ErrUnsupportedTaskType = errors.New("unsupported task type")
	// ErrInvalidText marks text that is not valid UTF-8 and would be altered by JSON.
	ErrInvalidText = errors.New("text is not valid UTF-8")
)

const (
	timeOfDayLayout     = "15:04"
	timeOfDayLayoutSecs = "15:04:05.999999999"
)

// ToJSONValue converts a response into the value stored for it.
// A nil response (a cleared entry) becomes JSON null.
func ToJSONValue(r models.Response) (any, error) {
	switch v := r.(type) {
	case nil:
		return nil, nil
	case models.TextResponse:
		return validText(v.Text)
	case models.PhotoResponse:
		return validText(v.Path)
	case models.NumberResponse:
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			return nil, fmt.Errorf("number %v is not representable in JSON", v.Value)
		}
		return v.Value, nil
	case models.MultipleChoiceResponse:
		ids := v.OptionIDs
		if ids == nil {
			ids = []string{}
		}
		for _, id := range ids {
			if _, err := validText(id); err != nil {
				return nil, err
			}
		}
		return ids, nil
	case models.DateResponse:
		// The calendar date as written in the value's own zone.
		y, mo, d := v.Date.Date()
		return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC).Format(time.DateOnly), nil
	case models.TimeResponse:
		if v.Time.Second() == 0 && v.Time.Nanosecond() == 0 {
			return v.Time.Format(timeOfDayLayout), nil
		}
		return v.Time.Format(timeOfDayLayoutSecs), nil
	case models.LocationResponse:
		return map[string]float64{
			"latitude":  v.Point.Latitude,
			"longitude": v.Point.Longitude,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedTaskType, r)
	}
}

func validText(s string) (any, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidText, s)
	}
	return s, nil
}

// FromJSONValue converts a stored JSON value into a typed response for task.
// It returns ErrEmptyResponse when the value holds no answer.
func FromJSONValue(task models.Task, raw json.RawMessage) (models.Response, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, ErrEmptyResponse
	}

	switch task.Type {
	case models.TaskTypeText:
		s, err := decodeString(raw)
		if err != nil {
			return nil, err
		}
		return models.TextResponse{Text: s}, nil

	case models.TaskTypePhoto:
		s, err := decodeString(raw)
		if err != nil {
			return nil, err
		}
		return models.PhotoResponse{Path: s}, nil

	case models.TaskTypeNumber:
		f, err := decodeNumber(raw)
		if err != nil {
			return nil, err
		}
		return models.NumberResponse{Value: f}, nil

	case models.TaskTypeMultipleChoice:
		ids, err := decodeOptionIDs(task, raw)
		if err != nil {
			return nil, err
		}
		return models.MultipleChoiceResponse{OptionIDs: ids}, nil

	case models.TaskTypeDate:
		s, err := decodeString(raw)
		if err != nil {
			return nil, err
		}
		d, err := ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return models.DateResponse{Date: d}, nil

	case models.TaskTypeTime:
		s, err := decodeString(raw)
		if err != nil {
			return nil, err
		}
		t, err := ParseTimeOfDay(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return models.TimeResponse{Time: t}, nil

	case models.TaskTypeDropAPin:
		p, err := decodePoint(raw)
		if err != nil {
			return nil, err
		}
		return models.LocationResponse{Point: p}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTaskType, task.Type)
	}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseTimeOfDay accepts HH:MM, HH:MM:SS[.fraction] or an RFC 3339
// timestamp. The result is the clock reading on a zero date in UTC.
func ParseTimeOfDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{timeOfDayLayout, time.TimeOnly, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(0, time.January, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func decodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: want string", ErrTypeMismatch)
	}
	if s == "" {
		return "", ErrEmptyResponse
	}
	return s, nil
}

// decodeNumber accepts JSON numbers and numeric strings; older rows stored
// numbers as text.
func decodeNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%w: want number", ErrTypeMismatch)
	}
	if strings.TrimSpace(s) == "" {
		return 0, ErrEmptyResponse
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, s)
	}
	return f, nil
}

func decodeOptionIDs(task models.Task, raw json.RawMessage) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("%w: want array of option ids", ErrTypeMismatch)
		}
		ids = []string{single}
	}

	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if len(task.Options) > 0 {
			if _, ok := task.Option(id); !ok {
				continue
			}
		}
		kept = append(kept, id)
	}
	if len(kept) == 0 {
		return nil, ErrEmptyResponse
	}
	if task.Cardinality == models.SelectOne {
		kept = kept[:1]
	}
	return kept, nil
}

func decodePoint(raw json.RawMessage) (models.Point, error) {
	var obj struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.Point{}, fmt.Errorf("%w: want {latitude, longitude}", ErrTypeMismatch)
	}
	if obj.Latitude == nil || obj.Longitude == nil {
		return models.Point{}, fmt.Errorf("%w: missing coordinate", ErrTypeMismatch)
	}
	p := models.Point{Latitude: *obj.Latitude, Longitude: *obj.Longitude}
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return models.Point{}, fmt.Errorf("%w: coordinate out of range", ErrTypeMismatch)
	}
	return p, nil
}
