package cmd

import (
	"fmt"
	"strings"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/input"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/spf13/pflag"
)

// pointValue is a "lat,lng" flag.
type pointValue struct {
	point models.OptionalPoint
}

var _ pflag.Value = (*pointValue)(nil)

func (v *pointValue) String() string {
	if !v.point.Valid {
		return ""
	}
	return fmt.Sprintf("%g,%g", v.point.Point.Latitude, v.point.Point.Longitude)
}

func (v *pointValue) Set(s string) error {
	p, err := input.ParsePoint(s)
	if err != nil {
		return err
	}
	v.point = models.SomePoint(p)
	return nil
}

func (v *pointValue) Type() string { return "lat,lng" }

// pointListValue collects a repeatable "lat,lng" flag in order.
type pointListValue struct {
	points []models.Point
}

var _ pflag.Value = (*pointListValue)(nil)

func (v *pointListValue) String() string {
	parts := make([]string, len(v.points))
	for i, p := range v.points {
		parts[i] = fmt.Sprintf("%g,%g", p.Latitude, p.Longitude)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (v *pointListValue) Set(s string) error {
	p, err := input.ParsePoint(s)
	if err != nil {
		return err
	}
	v.points = append(v.points, p)
	return nil
}

func (v *pointListValue) Type() string { return "lat,lng" }

// mutationTypeValue accepts create, update or delete (and their aliases).
type mutationTypeValue struct {
	t models.MutationType
}

var _ pflag.Value = (*mutationTypeValue)(nil)

func (v *mutationTypeValue) String() string { return string(v.t) }

func (v *mutationTypeValue) Set(s string) error {
	t := models.ParseMutationType(s)
	if t == models.MutationUnknown {
		return fmt.Errorf("unknown mutation type %q (use create, update or delete)", s)
	}
	v.t = t
	return nil
}

func (v *mutationTypeValue) Type() string { return "type" }

// syncStatusValue accepts one of the queue statuses.
type syncStatusValue struct {
	s models.SyncStatus
}

var _ pflag.Value = (*syncStatusValue)(nil)

func (v *syncStatusValue) String() string { return string(v.s) }

func (v *syncStatusValue) Set(s string) error {
	status := models.SyncStatus(strings.ToLower(strings.TrimSpace(s)))
	if !models.IsValidSyncStatus(status) {
		return fmt.Errorf("unknown status %q (use pending, in_progress, failed or completed)", s)
	}
	v.s = status
	return nil
}

func (v *syncStatusValue) Type() string { return "status" }
