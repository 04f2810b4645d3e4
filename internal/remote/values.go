package remote

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/remote/schema"
	firestore "google.golang.org/api/firestore/v1"
)

const requestTime = "REQUEST_TIME"

var simpleFieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z_0-9]*$`)

// Encoded is a field map converted to Firestore REST values
type Encoded struct {
	Fields     map[string]firestore.Value
	Transforms []*firestore.FieldTransform
	// MaskPaths lists every leaf field path written by Fields, sorted.
	MaskPaths []string
}

// Encode converts converter output to Firestore values. ServerTimestamp
// sentinels become REQUEST_TIME transforms and are left out of Fields and
// MaskPaths.
func Encode(fields map[string]any) (*Encoded, error) {
	enc := &Encoded{Fields: make(map[string]firestore.Value, len(fields))}
	for _, key := range sortedKeys(fields) {
		path := quoteFieldPath(key)
		v, keep, err := enc.value(path, fields[key])
		if err != nil {
			return nil, err
		}
		if keep {
			enc.Fields[key] = v
		}
	}
	sort.Strings(enc.MaskPaths)
	return enc, nil
}

func (e *Encoded) value(path string, v any) (firestore.Value, bool, error) {
	if schema.IsServerTimestamp(v) {
		e.Transforms = append(e.Transforms, &firestore.FieldTransform{
			FieldPath:        path,
			SetToServerValue: requestTime,
		})
		return firestore.Value{}, false, nil
	}

	var nested map[string]any
	switch t := v.(type) {
	case schema.Nested:
		nested = t.Fields()
	case map[string]any:
		nested = t
	}
	if nested != nil {
		m := &firestore.MapValue{Fields: make(map[string]firestore.Value, len(nested))}
		for _, key := range sortedKeys(nested) {
			child, keep, err := e.value(path+"."+quoteFieldPath(key), nested[key])
			if err != nil {
				return firestore.Value{}, false, err
			}
			if keep {
				m.Fields[key] = child
			}
		}
		if len(nested) == 0 {
			e.MaskPaths = append(e.MaskPaths, path)
		}
		return firestore.Value{MapValue: m}, true, nil
	}

	val, err := scalarValue(v)
	if err != nil {
		return firestore.Value{}, false, fmt.Errorf("field %s: %w", path, err)
	}
	e.MaskPaths = append(e.MaskPaths, path)
	return val, true, nil
}

// scalarValue converts leaves: anything that is not a nested map.
func scalarValue(v any) (firestore.Value, error) {
	switch t := v.(type) {
	case nil:
		return firestore.Value{NullValue: "NULL_VALUE"}, nil
	case string:
		return firestore.Value{StringValue: t, ForceSendFields: []string{"StringValue"}}, nil
	case bool:
		return firestore.Value{BooleanValue: t, ForceSendFields: []string{"BooleanValue"}}, nil
	case int:
		return intValue(int64(t)), nil
	case int32:
		return intValue(int64(t)), nil
	case int64:
		return intValue(t), nil
	case float32:
		return doubleValue(float64(t)), nil
	case float64:
		return doubleValue(t), nil
	case time.Time:
		return firestore.Value{TimestampValue: t.UTC().Format(time.RFC3339Nano)}, nil
	case schema.GeoPoint:
		return geoPointValue(t), nil
	case []schema.GeoPoint:
		arr := &firestore.ArrayValue{Values: make([]*firestore.Value, 0, len(t))}
		for _, p := range t {
			gp := geoPointValue(p)
			arr.Values = append(arr.Values, &gp)
		}
		return firestore.Value{ArrayValue: arr}, nil
	case []string:
		arr := &firestore.ArrayValue{Values: make([]*firestore.Value, 0, len(t))}
		for _, s := range t {
			sv := firestore.Value{StringValue: s, ForceSendFields: []string{"StringValue"}}
			arr.Values = append(arr.Values, &sv)
		}
		return firestore.Value{ArrayValue: arr}, nil
	case []any:
		arr := &firestore.ArrayValue{Values: make([]*firestore.Value, 0, len(t))}
		for i, item := range t {
			if schema.IsServerTimestamp(item) {
				return firestore.Value{}, fmt.Errorf("server timestamp not allowed in array element %d", i)
			}
			if _, ok := item.(map[string]any); ok {
				return firestore.Value{}, fmt.Errorf("nested map not supported in array element %d", i)
			}
			iv, err := scalarValue(item)
			if err != nil {
				return firestore.Value{}, fmt.Errorf("array element %d: %w", i, err)
			}
			arr.Values = append(arr.Values, &iv)
		}
		return firestore.Value{ArrayValue: arr}, nil
	default:
		return firestore.Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

func intValue(i int64) firestore.Value {
	return firestore.Value{IntegerValue: i, ForceSendFields: []string{"IntegerValue"}}
}

func doubleValue(f float64) firestore.Value {
	return firestore.Value{DoubleValue: f, ForceSendFields: []string{"DoubleValue"}}
}

func geoPointValue(p schema.GeoPoint) firestore.Value {
	return firestore.Value{GeoPointValue: &firestore.LatLng{
		Latitude:        p.Latitude,
		Longitude:       p.Longitude,
		ForceSendFields: []string{"Latitude", "Longitude"},
	}}
}

// quoteFieldPath backtick-quotes a segment that is not a simple identifier
func quoteFieldPath(segment string) string {
	if simpleFieldName.MatchString(segment) {
		return segment
	}
	segment = strings.ReplaceAll(segment, `\`, `\\`)
	segment = strings.ReplaceAll(segment, "`", "\\`")
	return "`" + segment + "`"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Plain renders converter output as JSON-friendly values for display.
func Plain(v any) any {
	if schema.IsServerTimestamp(v) {
		return "<server timestamp>"
	}
	switch t := v.(type) {
	case schema.Nested:
		return Plain(t.Fields())
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = Plain(child)
		}
		return out
	case []schema.GeoPoint:
		out := make([]any, 0, len(t))
		for _, p := range t {
			out = append(out, Plain(p))
		}
		return out
	case schema.GeoPoint:
		return map[string]float64{"latitude": t.Latitude, "longitude": t.Longitude}
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
