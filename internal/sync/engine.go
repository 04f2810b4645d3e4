package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/remote"
)

// PushMutations applies mutations through r in order. Each mutation ends up
// as either an Ack or a FailedMutation. After a failure, later mutations of
// the same LOI are held back so the remote sees them in queue order.
// Unsupported mutation types fail with models.ErrUnsupportedMutation and
// never reach the remote.
func PushMutations(ctx context.Context, r remote.Remote, user models.User, mutations []models.LOIMutation) PushResult {
	var result PushResult
	blocked := make(map[string]bool)

	for _, m := range mutations {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, failed(m, fmt.Errorf("%w: %v", ErrHeldBack, err)))
			continue
		}
		if blocked[m.LOIID] {
			result.Failed = append(result.Failed, failed(m, ErrHeldBack))
			continue
		}

		switch m.Type {
		case models.MutationCreate, models.MutationUpdate, models.MutationDelete:
		default:
			err := models.UnsupportedMutationError(m.Type)
			RecordPush(m.Type, 0, err)
			slog.Error("sync: unsupported mutation", "mutation", m.ID, "type", m.Type)
			blocked[m.LOIID] = true
			result.Failed = append(result.Failed, failed(m, err))
			continue
		}

		start := time.Now()
		res, err := r.ApplyMutation(ctx, m, actingUser(m, user))
		if err != nil && ctx.Err() != nil {
			// Interrupted mid-write; retry next time without spending a retry.
			slog.Debug("sync: push interrupted", "mutation", m.ID, "loi", m.LOIID, "err", err)
			result.Failed = append(result.Failed, failed(m, fmt.Errorf("%w: %v", ErrHeldBack, err)))
			continue
		}
		RecordPush(m.Type, time.Since(start), err)
		if err != nil {
			slog.Warn("sync: push failed", "mutation", m.ID, "loi", m.LOIID, "type", m.Type, "err", err)
			blocked[m.LOIID] = true
			result.Failed = append(result.Failed, failed(m, err))
			continue
		}

		ack := Ack{MutationID: m.ID, LOIID: m.LOIID, Type: m.Type}
		if res != nil {
			ack.DocumentName = res.DocumentName
			ack.CommitTime = res.CommitTime
		}
		slog.Debug("sync: pushed", "mutation", m.ID, "loi", m.LOIID, "type", m.Type)
		result.Acks = append(result.Acks, ack)
	}
	return result
}

func failed(m models.LOIMutation, err error) FailedMutation {
	return FailedMutation{MutationID: m.ID, LOIID: m.LOIID, Type: m.Type, Err: err}
}

// actingUser falls back to the mutation's recorded user id when no identity
// is configured.
func actingUser(m models.LOIMutation, user models.User) models.User {
	if user.ID == "" {
		user.ID = m.UserID
	}
	return user
}
