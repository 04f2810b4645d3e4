// Package remote pushes local changes to a Firestore database through the
// Firestore REST API.
package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/remote/schema"
	"golang.org/x/oauth2/google"
	firestore "google.golang.org/api/firestore/v1"
	"google.golang.org/api/option"
)

// DefaultDatabase is the id of a project's default Firestore database
const DefaultDatabase = "(default)"

// Remote applies LOI mutations to the remote store
type Remote interface {
	ApplyMutation(ctx context.Context, m models.LOIMutation, user models.User) (*WriteResult, error)
}

// Options configures how the writer reaches Firestore
type Options struct {
	ProjectID  string
	DatabaseID string
	// Endpoint overrides the API root, e.g. an emulator at http://localhost:8080/.
	Endpoint string
	// CredentialsFile is a service account or authorized user JSON file.
	// When empty, application default credentials are used.
	CredentialsFile string
	// WithoutAuth disables authentication (emulator, tests).
	WithoutAuth bool
	HTTPClient  *http.Client
}

// WriteResult describes a committed write
type WriteResult struct {
	DocumentName string
	CommitTime   time.Time
	Deleted      bool
}

// Writer commits mutations as Firestore writes
type Writer struct {
	service  *firestore.Service
	database string
}

var _ Remote = (*Writer)(nil)

// New builds a Writer and its underlying Firestore service.
func New(ctx context.Context, opts Options) (*Writer, error) {
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}

	var clientOpts []option.ClientOption
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	case opts.WithoutAuth:
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	case opts.CredentialsFile != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, firestore.DatastoreScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	default:
		client, err := google.DefaultClient(ctx, firestore.DatastoreScope)
		if err != nil {
			return nil, fmt.Errorf("default credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithHTTPClient(client))
	}

	service, err := firestore.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore service: %w", err)
	}
	return NewWithService(service, opts.ProjectID, opts.DatabaseID), nil
}

// NewWithService wraps an existing service
func NewWithService(service *firestore.Service, projectID, databaseID string) *Writer {
	if databaseID == "" {
		databaseID = DefaultDatabase
	}
	return &Writer{
		service:  service,
		database: fmt.Sprintf("projects/%s/databases/%s", projectID, databaseID),
	}
}

// DocumentName returns the full resource name of a document path
func (w *Writer) DocumentName(path string) string {
	return w.database + "/documents/" + path
}

// BuildWrite returns the Firestore write for a mutation without sending it.
// Create and update merge the converter's field map into the document;
// delete removes the document. Unknown types return ErrUnsupportedMutation.
func (w *Writer) BuildWrite(m models.LOIMutation, user models.User) (*firestore.Write, error) {
	path, err := schema.LOIDocumentPath(m)
	if err != nil {
		return nil, err
	}
	name := w.DocumentName(path)

	if m.Type == models.MutationDelete {
		return &firestore.Write{Delete: name}, nil
	}

	fields, err := schema.LOIMutationToMap(m, user)
	if err != nil {
		return nil, err
	}
	enc, err := Encode(fields)
	if err != nil {
		return nil, fmt.Errorf("encode mutation %s: %w", m.ID, err)
	}
	return &firestore.Write{
		Update:           &firestore.Document{Name: name, Fields: enc.Fields},
		UpdateMask:       &firestore.DocumentMask{FieldPaths: enc.MaskPaths},
		UpdateTransforms: enc.Transforms,
	}, nil
}

// ApplyMutation commits a single mutation.
func (w *Writer) ApplyMutation(ctx context.Context, m models.LOIMutation, user models.User) (*WriteResult, error) {
	write, err := w.BuildWrite(m, user)
	if err != nil {
		return nil, err
	}

	resp, err := w.service.Projects.Databases.Documents.
		Commit(w.database, &firestore.CommitRequest{Writes: []*firestore.Write{write}}).
		Context(ctx).
		Do()
	if err != nil {
		return nil, newRemoteError(fmt.Sprintf("commit mutation %s", m.ID), err)
	}

	result := &WriteResult{Deleted: write.Delete != ""}
	if write.Update != nil {
		result.DocumentName = write.Update.Name
	} else {
		result.DocumentName = write.Delete
	}
	if resp.CommitTime != "" {
		if ts, err := time.Parse(time.RFC3339Nano, resp.CommitTime); err == nil {
			result.CommitTime = ts
		} else {
			slog.Warn("remote: unparseable commit time", "value", resp.CommitTime, "err", err)
		}
	}
	slog.Debug("remote: mutation committed", "id", m.ID, "type", m.Type, "doc", result.DocumentName)
	return result, nil
}
