// Package sync pushes queued LOI mutations to the remote store.
package sync

import (
	"errors"
	"fmt"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
)

const (
	// MaxRetries is how many failed pushes a mutation gets before it stays failed
	MaxRetries = 5
	// EntityLOI is the entity type recorded in sync history
	EntityLOI = "lois"
)

// ErrHeldBack marks a mutation that was not attempted because an earlier
// mutation of the same LOI failed in the same push.
var ErrHeldBack = errors.New("held back behind an earlier failed mutation")

// Ack confirms a mutation reached the remote store.
type Ack struct {
	MutationID   string
	LOIID        string
	Type         models.MutationType
	DocumentName string
	CommitTime   time.Time
}

// FailedMutation records a mutation that was not written.
type FailedMutation struct {
	MutationID string
	LOIID      string
	Type       models.MutationType
	Err        error
}

// HeldBack reports whether the mutation was skipped rather than attempted.
func (f FailedMutation) HeldBack() bool {
	return errors.Is(f.Err, ErrHeldBack)
}

// Permanent reports whether retrying can never succeed.
func (f FailedMutation) Permanent() bool {
	return errors.Is(f.Err, models.ErrUnsupportedMutation)
}

// PushResult is the outcome of pushing a batch of mutations.
type PushResult struct {
	Acks   []Ack
	Failed []FailedMutation
}

// Err joins the errors of attempted mutations, or returns nil.
func (r PushResult) Err() error {
	var errs []error
	for _, f := range r.Failed {
		if f.HeldBack() {
			continue
		}
		errs = append(errs, fmt.Errorf("mutation %s (%s): %w", f.MutationID, f.Type, f.Err))
	}
	return errors.Join(errs...)
}
