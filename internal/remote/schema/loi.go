// Package schema maps local models onto the field layout of remote
// Firestore documents.
package schema

import (
	"fmt"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
)

// Field names of LOI documents
const (
	JobID               = "jobId"
	Location            = "location"
	Geometry            = "geometry"
	GeometryCoordinates = "coordinates"
	GeometryType        = "type"
	PolygonType         = "Polygon"
	Created             = "created"
	LastModified        = "lastModified"
)

// Collection names
const (
	SurveysCollection = "surveys"
	LOIsCollection    = "lois"
)

// GeoPoint is a latitude/longitude pair stored as a native geo point
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

func toGeoPoint(p models.Point) GeoPoint {
	return GeoPoint{Latitude: p.Latitude, Longitude: p.Longitude}
}

func toGeoPointList(points []models.Point) []GeoPoint {
	out := make([]GeoPoint, 0, len(points))
	for _, p := range points {
		out = append(out, toGeoPoint(p))
	}
	return out
}

// serverTimestamp is the type of the ServerTimestamp sentinel
type serverTimestamp struct{}

// ServerTimestamp as a field value asks the remote store to fill in the
// commit time.
var ServerTimestamp any = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// Nested is implemented by values stored as a nested map
type Nested interface {
	Fields() map[string]any
}

// LOIDocumentPath returns the collection-relative path of the mutation's LOI
func LOIDocumentPath(m models.LOIMutation) (string, error) {
	if m.SurveyID == "" || m.LOIID == "" {
		return "", fmt.Errorf("mutation %s: survey and LOI ids are required", m.ID)
	}
	return fmt.Sprintf("%s/%s/%s/%s", SurveysCollection, m.SurveyID, LOIsCollection, m.LOIID), nil
}

// LOIMutationToMap returns the field map used to merge mutation into the
// remote LOI document. Only create and update have a mapping; other types
// return ErrUnsupportedMutation and no map.
func LOIMutationToMap(m models.LOIMutation, user models.User) (map[string]any, error) {
	audit := AuditInfoFromMutationAndUser(m, user)

	fields := map[string]any{
		JobID: m.JobID,
		Geometry: map[string]any{
			GeometryCoordinates: toGeoPointList(m.PolygonVertices),
			GeometryType:        PolygonType,
		},
	}
	if m.Location.Valid {
		fields[Location] = toGeoPoint(m.Location.Point)
	}

	switch m.Type {
	case models.MutationCreate:
		fields[Created] = audit
		fields[LastModified] = audit
	case models.MutationUpdate:
		fields[LastModified] = audit
	case models.MutationDelete, models.MutationUnknown:
		return nil, models.UnsupportedMutationError(m.Type)
	default:
		return nil, models.UnsupportedMutationError(m.Type)
	}
	return fields, nil
}

// UserNestedObject is the remote form of a user
type UserNestedObject struct {
	ID          string
	Email       string
	DisplayName string
}

// Fields implements Nested
func (u UserNestedObject) Fields() map[string]any {
	return map[string]any{
		"id":          u.ID,
		"email":       u.Email,
		"displayName": u.DisplayName,
	}
}

// UserToNestedObject converts a user for embedding in audit info
func UserToNestedObject(u models.User) UserNestedObject {
	return UserNestedObject{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}

// AuditInfoNestedObject is the remote form of audit info. ServerTimestamp
// is either a time or the ServerTimestamp sentinel.
type AuditInfoNestedObject struct {
	User            UserNestedObject
	ClientTimestamp time.Time
	ServerTimestamp any
}

// Fields implements Nested
func (a AuditInfoNestedObject) Fields() map[string]any {
	return map[string]any{
		"user":            a.User,
		"clientTimestamp": a.ClientTimestamp,
		"serverTimestamp": a.ServerTimestamp,
	}
}

// AuditInfoFromMutationAndUser stamps the mutation's client time and asks the
// server to fill in its own.
func AuditInfoFromMutationAndUser(m models.LOIMutation, user models.User) AuditInfoNestedObject {
	return AuditInfoNestedObject{
		User:            UserToNestedObject(user),
		ClientTimestamp: m.ClientTimestamp,
		ServerTimestamp: ServerTimestamp,
	}
}
