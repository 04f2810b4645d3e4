// Package syncconfig holds the global settings for reaching the remote
// Firestore database, stored at ~/.config/gnd/config.json.
package syncconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
	"github.com/cucerdariancatalin/contribution-ground-android/internal/remote"
	"github.com/google/uuid"
)

var (
	// ErrNotConfigured is returned when no Firestore project is set
	ErrNotConfigured = errors.New("firestore project not configured (run: gnd config set firestore.project <id>)")
	// ErrUnknownKey is returned by Get and Set for keys they do not know
	ErrUnknownKey = errors.New("unknown config key")
)

// FirestoreConfig locates the remote database.
type FirestoreConfig struct {
	ProjectID       string `json:"project_id,omitempty"`
	DatabaseID      string `json:"database_id,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	CredentialsFile string `json:"credentials_file,omitempty"`
	Emulator        bool   `json:"emulator,omitempty"`
}

// UserConfig is the identity stamped on audit info.
type UserConfig struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// SyncConfig tunes the push loop.
type SyncConfig struct {
	BatchSize   int `json:"batch_size,omitempty"`
	HistoryRows int `json:"history_rows,omitempty"`
}

// Config is the global gnd config.
type Config struct {
	Firestore FirestoreConfig `json:"firestore"`
	User      UserConfig      `json:"user"`
	Sync      SyncConfig      `json:"sync"`
	DeviceID  string          `json:"device_id,omitempty"`
}

const (
	defaultBatchSize   = 100
	defaultHistoryRows = 1000
)

// ConfigDir returns the config directory, creating it if necessary.
// GND_CONFIG_DIR overrides the default ~/.config/gnd.
func ConfigDir() (string, error) {
	dir := os.Getenv("GND_CONFIG_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "gnd")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// LoadConfig reads the global config file. A missing file is an empty config.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the global config file.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0600)
}

// Resolved returns the file config with environment overrides applied.
// Priority: GND_* env > config.json > defaults.
func Resolved() (*Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if v := os.Getenv("GND_FIRESTORE_PROJECT"); v != "" {
		cfg.Firestore.ProjectID = v
	}
	if v := os.Getenv("GND_FIRESTORE_DATABASE"); v != "" {
		cfg.Firestore.DatabaseID = v
	}
	if v := os.Getenv("GND_FIRESTORE_ENDPOINT"); v != "" {
		cfg.Firestore.Endpoint = v
	}
	if v := os.Getenv("FIRESTORE_EMULATOR_HOST"); v != "" && cfg.Firestore.Endpoint == "" {
		cfg.Firestore.Endpoint = "http://" + v + "/"
		cfg.Firestore.Emulator = true
	}
	if v := os.Getenv("GND_CREDENTIALS"); v != "" {
		cfg.Firestore.CredentialsFile = v
	}
	if cfg.Sync.BatchSize <= 0 {
		cfg.Sync.BatchSize = defaultBatchSize
	}
	if cfg.Sync.HistoryRows <= 0 {
		cfg.Sync.HistoryRows = defaultHistoryRows
	}
	return cfg, nil
}

// RemoteOptions builds writer options from the resolved config.
func (c *Config) RemoteOptions() (remote.Options, error) {
	if c.Firestore.ProjectID == "" {
		return remote.Options{}, ErrNotConfigured
	}
	return remote.Options{
		ProjectID:       c.Firestore.ProjectID,
		DatabaseID:      c.Firestore.DatabaseID,
		Endpoint:        c.Firestore.Endpoint,
		CredentialsFile: c.Firestore.CredentialsFile,
		WithoutAuth:     c.Firestore.Emulator,
	}, nil
}

// ActingUser returns the configured identity stamped on audit info.
func (c *Config) ActingUser() models.User {
	return models.User{ID: c.User.ID, Email: c.User.Email, DisplayName: c.User.DisplayName}
}

// GetDeviceID returns the persisted device ID, generating and saving one
// on first use.
func GetDeviceID() (string, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return "", err
	}
	if cfg.DeviceID != "" {
		return cfg.DeviceID, nil
	}
	cfg.DeviceID = uuid.NewString()
	if err := SaveConfig(cfg); err != nil {
		return "", err
	}
	return cfg.DeviceID, nil
}

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringField(p func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

func intField(p func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("expected a non-negative integer, got %q", v)
			}
			*p(c) = n
			return nil
		},
	}
}

var fields = map[string]field{
	"firestore.project":     stringField(func(c *Config) *string { return &c.Firestore.ProjectID }),
	"firestore.database":    stringField(func(c *Config) *string { return &c.Firestore.DatabaseID }),
	"firestore.endpoint":    stringField(func(c *Config) *string { return &c.Firestore.Endpoint }),
	"firestore.credentials": stringField(func(c *Config) *string { return &c.Firestore.CredentialsFile }),
	"firestore.emulator": {
		get: func(c *Config) string { return strconv.FormatBool(c.Firestore.Emulator) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("expected true or false, got %q", v)
			}
			c.Firestore.Emulator = b
			return nil
		},
	},
	"user.id":           stringField(func(c *Config) *string { return &c.User.ID }),
	"user.email":        stringField(func(c *Config) *string { return &c.User.Email }),
	"user.display_name": stringField(func(c *Config) *string { return &c.User.DisplayName }),
	"sync.batch_size":   intField(func(c *Config) *int { return &c.Sync.BatchSize }),
	"sync.history_rows": intField(func(c *Config) *int { return &c.Sync.HistoryRows }),
}

// Keys lists the settable keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a resolved value by dotted key.
func Get(key string) (string, error) {
	f, ok := fields[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	cfg, err := Resolved()
	if err != nil {
		return "", err
	}
	return f.get(cfg), nil
}

// Set stores a value by dotted key in the config file.
func Set(key, value string) error {
	f, ok := fields[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if err := f.set(cfg, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return SaveConfig(cfg)
}
