package responsemap

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJob() models.Job {
	return models.Job{
		ID:       "job1",
		SurveyID: "survey1",
		Name:     "Trees",
		Tasks: []models.Task{
			{ID: "t1", Index: 0, Label: "Notes", Type: models.TaskTypeText},
			{ID: "t2", Index: 1, Label: "Height", Type: models.TaskTypeNumber},
			{ID: "t3", Index: 2, Label: "Species", Type: models.TaskTypeMultipleChoice,
				Cardinality: models.SelectMultiple,
				Options: []models.Option{
					{ID: "oak", Label: "Oak"},
					{ID: "elm", Label: "Elm"},
					{ID: "ash", Label: "Ash"},
				}},
			{ID: "t4", Index: 3, Label: "Planted", Type: models.TaskTypeDate},
			{ID: "t5", Index: 4, Label: "Observed at", Type: models.TaskTypeTime},
			{ID: "t6", Index: 5, Label: "Photo", Type: models.TaskTypePhoto},
			{ID: "t7", Index: 6, Label: "Pin", Type: models.TaskTypeDropAPin},
		},
	}
}

func fullMap() models.ResponseMap {
	return models.NewResponseMapBuilder().
		Put("t1", models.TextResponse{Text: "yes"}).
		Put("t2", models.NumberResponse{Value: 12.5}).
		Put("t3", models.MultipleChoiceResponse{OptionIDs: []string{"oak", "ash"}}).
		Put("t4", models.DateResponse{Date: time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC)}).
		Put("t5", models.TimeResponse{Time: time.Date(0, 1, 1, 9, 30, 0, 0, time.UTC)}).
		Put("t6", models.PhotoResponse{Path: "photos/abc.jpg"}).
		Put("t7", models.LocationResponse{Point: models.Point{Latitude: 47.1, Longitude: 8.5}}).
		Build()
}

func TestRoundTrip(t *testing.T) {
	job := testJob()
	m := fullMap()

	encoded, encReport := Encode(m)
	require.True(t, encReport.OK(), "encode report: %+v", encReport)

	decoded, decReport := DecodeString(job, encoded)
	require.True(t, decReport.OK(), "decode report: %+v", decReport)
	assert.True(t, m.Equal(decoded), "round trip mismatch: %s", encoded)
	assert.Equal(t, m.TaskIDs(), decoded.TaskIDs())
}

func TestRoundTripPreservesValues(t *testing.T) {
	job := testJob()
	plus2 := time.FixedZone("+02", 2*60*60)

	tests := []struct {
		name string
		m    models.ResponseMap
	}{
		{"date in a positive zone", models.NewResponseMapBuilder().
			Put("t4", models.DateResponse{Date: time.Date(2026, 10, 16, 0, 0, 0, 0, plus2)}).Build()},
		{"time with seconds", models.NewResponseMapBuilder().
			Put("t5", models.TimeResponse{Time: time.Date(0, 1, 1, 9, 30, 15, 0, time.UTC)}).Build()},
		{"time with fraction", models.NewResponseMapBuilder().
			Put("t5", models.TimeResponse{Time: time.Date(0, 1, 1, 23, 59, 59, 250000000, time.UTC)}).Build()},
		{"unicode text", models.NewResponseMapBuilder().
			Put("t1", models.TextResponse{Text: "Eiche \u00e4 \u6a39"}).Build()},
		{"negative number", models.NewResponseMapBuilder().
			Put("t2", models.NumberResponse{Value: -0.125}).Build()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, encReport := Encode(tt.m)
			require.True(t, encReport.OK(), "encode report: %+v", encReport)
			decoded, decReport := DecodeString(job, encoded)
			require.True(t, decReport.OK(), "decode report: %+v", decReport)
			assert.True(t, tt.m.Equal(decoded), "round trip mismatch: %s", encoded)
		})
	}
}

func TestEncodeReportsValuesJSONWouldAlter(t *testing.T) {
	m := models.NewResponseMapBuilder().
		Put("t1", models.TextResponse{Text: "a\xffb"}).
		Put("t6", models.PhotoResponse{Path: "ok.jpg"}).
		Build()

	s, report := Encode(m)
	assert.Equal(t, `{"t6":"ok.jpg"}`, s)
	skipped := report.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "t1", skipped[0].TaskID)
	assert.ErrorIs(t, report.Err(), ErrInvalidText)
}

func TestEncodeIsDeterministic(t *testing.T) {
	a, _ := Encode(fullMap())
	b, _ := Encode(fullMap())
	assert.Equal(t, a, b)
	assert.Equal(t, `{"t1":"yes","t2":12.5,"t3":["oak","ash"],"t4":"2021-03-14","t5":"09:30","t6":"photos/abc.jpg","t7":{"latitude":47.1,"longitude":8.5}}`, a)
}

func TestEncodeClearedEntryIsNull(t *testing.T) {
	m := models.NewResponseMapBuilder().
		Put("t1", models.TextResponse{Text: "a"}).
		Clear("t2").
		Build()

	s, report := Encode(m)
	assert.Equal(t, `{"t1":"a","t2":null}`, s)
	assert.Len(t, report.Entries, 2)
	assert.True(t, report.OK())
}

func TestEncodeSkipsUnrepresentableEntry(t *testing.T) {
	m := models.NewResponseMapBuilder().
		Put("t1", models.TextResponse{Text: "kept"}).
		Put("t2", models.NumberResponse{Value: math.NaN()}).
		Build()

	s, report := Encode(m)
	assert.Equal(t, `{"t1":"kept"}`, s)
	skipped := report.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "t2", skipped[0].TaskID)
	assert.Error(t, report.Err())
}

func TestDecodeNilAndBlank(t *testing.T) {
	job := testJob()

	m, report := Decode(job, nil)
	assert.Equal(t, 0, m.Len())
	assert.True(t, report.OK())

	m, report = DecodeString(job, "")
	assert.Equal(t, 0, m.Len())
	assert.True(t, report.OK())

	m, report = DecodeString(job, "null")
	assert.Equal(t, 0, m.Len())
	assert.True(t, report.OK())
}

func TestDecodeMalformedDocument(t *testing.T) {
	job := testJob()
	for _, input := range []string{`{"t1":`, `[1,2]`, `"just a string"`, `not json`} {
		m, report := DecodeString(job, input)
		assert.Equal(t, 0, m.Len(), "input %q", input)
		assert.ErrorIs(t, report.Malformed, ErrMalformedDocument, "input %q", input)
		assert.ErrorIs(t, report.Err(), ErrMalformedDocument)
	}
}

func TestDecodeDropsUnknownTasks(t *testing.T) {
	job := models.Job{
		ID:    "j",
		Tasks: []models.Task{{ID: "t1", Type: models.TaskTypeText}},
	}

	m, report := DecodeString(job, `{"t1":"yes","t9":"42"}`)

	require.Equal(t, 1, m.Len())
	r, ok := m.Response("t1")
	require.True(t, ok)
	assert.Equal(t, models.TextResponse{Text: "yes"}, r)
	assert.False(t, m.Has("t9"))

	skipped := report.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "t9", skipped[0].TaskID)
	assert.ErrorIs(t, skipped[0].Reason, ErrUnknownTask)
}

func TestDecodeKeepsOnlyKnownKeys(t *testing.T) {
	job := testJob()
	encoded, _ := Encode(fullMap())

	// Remove t3 and t7 from the job; exactly those keys must disappear.
	trimmed := models.Job{ID: job.ID}
	for _, task := range job.Tasks {
		if task.ID != "t3" && task.ID != "t7" {
			trimmed.Tasks = append(trimmed.Tasks, task)
		}
	}

	m, report := DecodeString(trimmed, encoded)
	assert.Equal(t, []string{"t1", "t2", "t4", "t5", "t6"}, m.TaskIDs())
	var dropped []string
	for _, e := range report.Skipped() {
		dropped = append(dropped, e.TaskID)
	}
	assert.Equal(t, []string{"t3", "t7"}, dropped)
}

func TestDecodeIsolatesBadEntries(t *testing.T) {
	job := testJob()
	input := `{
		"t1": 17,
		"t2": "not a number",
		"t3": ["birch"],
		"t4": "2021-02-30",
		"t5": "09:45",
		"t6": "",
		"t7": {"latitude": 91, "longitude": 0}
	}`

	m, report := DecodeString(job, input)
	assert.Equal(t, []string{"t5"}, m.TaskIDs())
	assert.Nil(t, report.Malformed)

	reasons := map[string]error{}
	for _, e := range report.Skipped() {
		reasons[e.TaskID] = e.Reason
	}
	assert.ErrorIs(t, reasons["t1"], ErrTypeMismatch)
	assert.ErrorIs(t, reasons["t2"], ErrTypeMismatch)
	assert.ErrorIs(t, reasons["t3"], ErrEmptyResponse)
	assert.ErrorIs(t, reasons["t4"], ErrTypeMismatch)
	assert.ErrorIs(t, reasons["t6"], ErrEmptyResponse)
	assert.ErrorIs(t, reasons["t7"], ErrTypeMismatch)
}

func TestDecodeNullEntryIsDropped(t *testing.T) {
	m, report := DecodeString(testJob(), `{"t1":null,"t2":3}`)
	assert.Equal(t, []string{"t2"}, m.TaskIDs())
	skipped := report.Skipped()
	require.Len(t, skipped, 1)
	assert.ErrorIs(t, skipped[0].Reason, ErrEmptyResponse)
	// Empty answers are not errors.
	assert.NoError(t, report.Err())
}

func TestDecodeUnknownTaskType(t *testing.T) {
	job := models.Job{Tasks: []models.Task{{ID: "x", Type: models.TaskTypeUnknown}}}
	m, report := DecodeString(job, `{"x":"a"}`)
	assert.Equal(t, 0, m.Len())
	require.Len(t, report.Skipped(), 1)
	assert.True(t, errors.Is(report.Skipped()[0].Reason, ErrUnsupportedTaskType))
}
