// Package config reads and writes the per-project settings file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"syscall"

	"github.com/cucerdariancatalin/contribution-ground-android/internal/models"
)

const configFile = ".gnd/config.json"
const lockFile = ".gnd/config.json.lock"

// Load reads the config from disk
func Load(baseDir string) (*models.Config, error) {
	configPath := filepath.Join(baseDir, configFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.Config{}, nil
		}
		return nil, err
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to disk using atomic write (temp file + rename)
func Save(baseDir string, cfg *models.Config) error {
	configPath := filepath.Join(baseDir, configFile)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, configPath)
}

// withConfigLock serializes read-modify-write of config.json using flock
func withConfigLock(baseDir string, fn func() error) error {
	lockPath := filepath.Join(baseDir, lockFile)

	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return err
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return fn()
}

func update(baseDir string, fn func(cfg *models.Config)) error {
	return withConfigLock(baseDir, func() error {
		cfg, err := Load(baseDir)
		if err != nil {
			return err
		}
		fn(cfg)
		return Save(baseDir, cfg)
	})
}

// SetActiveSurvey sets the survey new mutations and submissions default to
func SetActiveSurvey(baseDir, surveyID string) error {
	return update(baseDir, func(cfg *models.Config) { cfg.ActiveSurveyID = surveyID })
}

// GetActiveSurvey returns the active survey ID
func GetActiveSurvey(baseDir string) (string, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		return "", err
	}
	return cfg.ActiveSurveyID, nil
}

// SetDefaultJob sets the job used when a command gets no --job
func SetDefaultJob(baseDir, jobID string) error {
	return update(baseDir, func(cfg *models.Config) { cfg.DefaultJobID = jobID })
}

// GetDefaultJob returns the default job ID
func GetDefaultJob(baseDir string) (string, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		return "", err
	}
	return cfg.DefaultJobID, nil
}

// GetFeatureFlag returns a feature flag from local config.
// The second return value indicates whether the flag is explicitly set.
func GetFeatureFlag(baseDir, name string) (bool, bool, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		return false, false, err
	}
	if cfg.FeatureFlags == nil {
		return false, false, nil
	}
	value, ok := cfg.FeatureFlags[name]
	return value, ok, nil
}

// SetFeatureFlag persists a feature flag in local config.
func SetFeatureFlag(baseDir, name string, enabled bool) error {
	return update(baseDir, func(cfg *models.Config) {
		if cfg.FeatureFlags == nil {
			cfg.FeatureFlags = make(map[string]bool)
		}
		cfg.FeatureFlags[name] = enabled
	})
}

// UnsetFeatureFlag removes an explicitly-set feature flag from local config.
func UnsetFeatureFlag(baseDir, name string) error {
	return update(baseDir, func(cfg *models.Config) {
		delete(cfg.FeatureFlags, name)
		if len(cfg.FeatureFlags) == 0 {
			cfg.FeatureFlags = nil
		}
	})
}
