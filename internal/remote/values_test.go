package remote

import (
	"testing"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/remote/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeScalars(t *testing.T) {
	ts := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	enc, err := Encode(map[string]any{
		"s":    "",
		"b":    false,
		"i":    7,
		"f":    0.0,
		"t":    ts,
		"n":    nil,
		"gp":   schema.GeoPoint{Latitude: 1, Longitude: 2},
		"tags": []string{"a"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"StringValue"}, enc.Fields["s"].ForceSendFields)
	assert.Equal(t, []string{"BooleanValue"}, enc.Fields["b"].ForceSendFields)
	assert.Equal(t, int64(7), enc.Fields["i"].IntegerValue)
	assert.Equal(t, []string{"DoubleValue"}, enc.Fields["f"].ForceSendFields)
	assert.Equal(t, "2023-01-02T03:04:05Z", enc.Fields["t"].TimestampValue)
	assert.Equal(t, "NULL_VALUE", enc.Fields["n"].NullValue)
	require.NotNil(t, enc.Fields["gp"].GeoPointValue)
	assert.Equal(t, 2.0, enc.Fields["gp"].GeoPointValue.Longitude)
	require.NotNil(t, enc.Fields["tags"].ArrayValue)
	assert.Len(t, enc.Fields["tags"].ArrayValue.Values, 1)
	assert.Equal(t, []string{"b", "f", "gp", "i", "n", "s", "t", "tags"}, enc.MaskPaths)
	assert.Empty(t, enc.Transforms)
}

func TestEncodeMutationMap(t *testing.T) {
	mut := models.LOIMutation{
		ID:              "m1",
		Type:            models.MutationCreate,
		SurveyID:        "s",
		LOIID:           "l",
		JobID:           "j",
		ClientTimestamp: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	fields, err := schema.LOIMutationToMap(mut, models.User{ID: "u"})
	require.NoError(t, err)

	enc, err := Encode(fields)
	require.NoError(t, err)

	geometry := enc.Fields[schema.Geometry].MapValue
	require.NotNil(t, geometry)
	assert.Equal(t, "Polygon", geometry.Fields["type"].StringValue)
	coords := geometry.Fields["coordinates"].ArrayValue
	require.NotNil(t, coords, "empty polygon still encodes an array")
	assert.Empty(t, coords.Values)

	created := enc.Fields[schema.Created].MapValue
	require.NotNil(t, created)
	assert.NotContains(t, created.Fields, "serverTimestamp")
	assert.Equal(t, "u", created.Fields["user"].MapValue.Fields["id"].StringValue)

	var transformPaths []string
	for _, tr := range enc.Transforms {
		assert.Equal(t, "REQUEST_TIME", tr.SetToServerValue)
		transformPaths = append(transformPaths, tr.FieldPath)
	}
	assert.ElementsMatch(t, []string{"created.serverTimestamp", "lastModified.serverTimestamp"}, transformPaths)

	assert.Contains(t, enc.MaskPaths, "created.user.id")
	assert.Contains(t, enc.MaskPaths, "geometry.coordinates")
	assert.Contains(t, enc.MaskPaths, "jobId")
	assert.NotContains(t, enc.MaskPaths, "created.serverTimestamp")
	assert.NotContains(t, enc.MaskPaths, "location")
}

func TestEncodeRejectsUnsupported(t *testing.T) {
	_, err := Encode(map[string]any{"x": struct{}{}})
	assert.Error(t, err)

	_, err = Encode(map[string]any{"x": []any{schema.ServerTimestamp}})
	assert.Error(t, err)
}

func TestQuoteFieldPath(t *testing.T) {
	assert.Equal(t, "jobId", quoteFieldPath("jobId"))
	assert.Equal(t, "`task-1`", quoteFieldPath("task-1"))
	assert.Equal(t, "`a\\`b`", quoteFieldPath("a`b"))
}

func TestPlain(t *testing.T) {
	audit := schema.AuditInfoNestedObject{
		User:            schema.UserNestedObject{ID: "u"},
		ClientTimestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		ServerTimestamp: schema.ServerTimestamp,
	}
	got := Plain(map[string]any{"a": audit}).(map[string]any)
	a := got["a"].(map[string]any)
	assert.Equal(t, "<server timestamp>", a["serverTimestamp"])
	assert.Equal(t, "2023-01-01T00:00:00Z", a["clientTimestamp"])
	assert.Equal(t, "u", a["user"].(map[string]any)["id"])
}
