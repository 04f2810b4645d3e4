// Package features resolves the project's optional behaviours.
//
// A flag's value comes from, in order: GND_FEATURE_<NAME>, the GND_FEATURES
// list, the project config, the built-in default.
package features

import (
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/config"
)

// Feature describes a named feature flag.
type Feature struct {
	Name        string
	Default     bool
	Description string
}

// Source says where a resolved value came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceList    Source = "GND_FEATURES"
	SourceConfig  Source = "config"
	SourceDefault Source = "default"
)

var (
	// StrictResponses fails submit and update when a response entry would
	// be dropped, including stored entries that no longer decode.
	StrictResponses = Feature{
		Name:        "strict_responses",
		Description: "Refuse writes that would drop a response entry",
	}

	// SyncMetrics writes the Prometheus textfile after every sync.
	SyncMetrics = Feature{
		Name:        "sync_metrics",
		Description: "Write .gnd/metrics.prom after each sync",
	}
)

// registry is sorted by name.
var registry = []Feature{StrictResponses, SyncMetrics}

// ListAll returns all known features, sorted by name.
func ListAll() []Feature {
	return slices.Clone(registry)
}

func lookup(name string) (Feature, bool) {
	name = canonical(name)
	for _, f := range registry {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// IsKnownFeature reports whether name is a registered feature.
func IsKnownFeature(name string) bool {
	_, ok := lookup(name)
	return ok
}

// IsEnabled is Resolve without the source.
func IsEnabled(baseDir, name string) bool {
	enabled, _ := Resolve(baseDir, name)
	return enabled
}

// Resolve returns the feature's value and where it came from. Unknown
// features are off.
func Resolve(baseDir, name string) (bool, Source) {
	f, ok := lookup(name)
	if !ok {
		return false, SourceDefault
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(envKey(f.Name)))); err == nil {
		return v, SourceEnv
	}
	if v, ok := fromList(os.Getenv("GND_FEATURES"), f.Name); ok {
		return v, SourceList
	}
	if baseDir != "" {
		if v, ok, err := config.GetFeatureFlag(baseDir, f.Name); err == nil && ok {
			return v, SourceConfig
		}
	}
	return f.Default, SourceDefault
}

// fromList reads a comma separated list such as "strict_responses,-sync_metrics".
// A leading "-" turns the feature off, "+" or nothing turns it on. The last
// mention wins.
func fromList(list, name string) (enabled, found bool) {
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		on := true
		switch {
		case strings.HasPrefix(item, "-"):
			on, item = false, item[1:]
		case strings.HasPrefix(item, "+"):
			item = item[1:]
		}
		if canonical(item) == name {
			enabled, found = on, true
		}
	}
	return enabled, found
}

func canonical(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

func envKey(name string) string {
	return "GND_FEATURE_" + strings.ToUpper(name)
}
