package models

import (
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Response is a user-submitted answer to one task.
// The set of implementations is closed; see the isResponse marker.
type Response interface {
	TaskType() TaskType
	String() string
	isResponse()
}

// TextResponse answers a text task
type TextResponse struct {
	Text string
}

// PhotoResponse references a captured photo by its storage path
type PhotoResponse struct {
	Path string
}

// NumberResponse answers a number task
type NumberResponse struct {
	Value float64
}

// MultipleChoiceResponse holds the selected option ids
type MultipleChoiceResponse struct {
	OptionIDs []string
}

// DateResponse holds a calendar date (UTC midnight)
type DateResponse struct {
	Date time.Time
}

// TimeResponse holds a time of day (date part is zero)
type TimeResponse struct {
	Time time.Time
}

// LocationResponse holds a dropped pin
type LocationResponse struct {
	Point Point
}

func (TextResponse) TaskType() TaskType           { return TaskTypeText }
func (PhotoResponse) TaskType() TaskType          { return TaskTypePhoto }
func (NumberResponse) TaskType() TaskType         { return TaskTypeNumber }
func (MultipleChoiceResponse) TaskType() TaskType { return TaskTypeMultipleChoice }
func (DateResponse) TaskType() TaskType           { return TaskTypeDate }
func (TimeResponse) TaskType() TaskType           { return TaskTypeTime }
func (LocationResponse) TaskType() TaskType       { return TaskTypeDropAPin }

func (r TextResponse) String() string  { return r.Text }
func (r PhotoResponse) String() string { return r.Path }
func (r NumberResponse) String() string {
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}
func (r MultipleChoiceResponse) String() string { return strings.Join(r.OptionIDs, ",") }
func (r DateResponse) String() string           { return r.Date.Format(time.DateOnly) }
func (r TimeResponse) String() string           { return r.Time.Format("15:04") }
func (r LocationResponse) String() string {
	return strconv.FormatFloat(r.Point.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(r.Point.Longitude, 'f', -1, 64)
}

func (TextResponse) isResponse()           {}
func (PhotoResponse) isResponse()          {}
func (NumberResponse) isResponse()         {}
func (MultipleChoiceResponse) isResponse() {}
func (DateResponse) isResponse()           {}
func (TimeResponse) isResponse()           {}
func (LocationResponse) isResponse()       {}

// ResponsesEqual compares two responses by value. Dates compare by calendar
// day and times by clock reading, whatever their zone.
func ResponsesEqual(a, b Response) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case MultipleChoiceResponse:
		bv, ok := b.(MultipleChoiceResponse)
		return ok && slices.Equal(av.OptionIDs, bv.OptionIDs)
	case DateResponse:
		bv, ok := b.(DateResponse)
		if !ok {
			return false
		}
		ay, am, ad := av.Date.Date()
		by, bm, bd := bv.Date.Date()
		return ay == by && am == bm && ad == bd
	case TimeResponse:
		bv, ok := b.(TimeResponse)
		if !ok {
			return false
		}
		ah, amin, as := av.Time.Clock()
		bh, bmin, bs := bv.Time.Clock()
		return ah == bh && amin == bmin && as == bs && av.Time.Nanosecond() == bv.Time.Nanosecond()
	default:
		return a == b
	}
}

// ResponseMap is a sparse, immutable mapping of task id to response.
// An entry may be present with a nil response, meaning the answer was
// explicitly cleared.
type ResponseMap struct {
	entries map[string]Response
}

// EmptyResponseMap returns a map with no entries
func EmptyResponseMap() ResponseMap {
	return ResponseMap{}
}

// TaskIDs returns the ids of all entries, sorted
func (m ResponseMap) TaskIDs() []string {
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Response returns the response for a task. ok is false when the task
// has no entry or the entry was cleared.
func (m ResponseMap) Response(taskID string) (Response, bool) {
	r, found := m.entries[taskID]
	if !found || r == nil {
		return nil, false
	}
	return r, true
}

// Has reports whether the task has an entry, cleared or not
func (m ResponseMap) Has(taskID string) bool {
	_, ok := m.entries[taskID]
	return ok
}

// Len returns the number of entries
func (m ResponseMap) Len() int {
	return len(m.entries)
}

// Equal compares two maps entry by entry
func (m ResponseMap) Equal(other ResponseMap) bool {
	if len(m.entries) != len(other.entries) {
		return false
	}
	for id, r := range m.entries {
		o, ok := other.entries[id]
		if !ok || !ResponsesEqual(r, o) {
			return false
		}
	}
	return true
}

// ToBuilder returns a builder seeded with this map's entries
func (m ResponseMap) ToBuilder() *ResponseMapBuilder {
	b := NewResponseMapBuilder()
	for id, r := range m.entries {
		b.entries[id] = r
	}
	return b
}

// ResponseMapBuilder accumulates entries for a ResponseMap
type ResponseMapBuilder struct {
	entries map[string]Response
}

// NewResponseMapBuilder returns an empty builder
func NewResponseMapBuilder() *ResponseMapBuilder {
	return &ResponseMapBuilder{entries: make(map[string]Response)}
}

// Put sets the response for a task. A nil response is the same as Clear.
func (b *ResponseMapBuilder) Put(taskID string, r Response) *ResponseMapBuilder {
	b.entries[taskID] = r
	return b
}

// Clear records an explicit empty answer for a task
func (b *ResponseMapBuilder) Clear(taskID string) *ResponseMapBuilder {
	b.entries[taskID] = nil
	return b
}

// Remove drops the task's entry entirely
func (b *ResponseMapBuilder) Remove(taskID string) *ResponseMapBuilder {
	delete(b.entries, taskID)
	return b
}

// Build returns the finished map; later builder calls do not affect it
func (b *ResponseMapBuilder) Build() ResponseMap {
	if len(b.entries) == 0 {
		return ResponseMap{}
	}
	entries := make(map[string]Response, len(b.entries))
	for id, r := range b.entries {
		entries[id] = r
	}
	return ResponseMap{entries: entries}
}
