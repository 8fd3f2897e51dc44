// Package config resolves tap settings from the config file and
// environment variables (populated from .env in main).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dataflowlabs/tap-appmetrica/pkg/models"
)

const (
	DefaultAPIURL    = "https://api.appmetrica.yandex.ru"
	DefaultChunkDays = 1
	DefaultStatePath = "state.json"
)

// Load reads the JSON config file (if a path is given), applies
// environment overrides, fills defaults and validates required keys.
func Load(configPath string) (*models.Settings, error) {
	settings := &models.Settings{}

	if configPath != "" {
		bytes, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
		}
		settings, err = models.LoadSettings(bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", configPath, err)
		}
	}

	applyEnv(settings)

	if settings.APIURL == "" {
		settings.APIURL = DefaultAPIURL
	}
	if settings.ChunkDays <= 0 {
		settings.ChunkDays = DefaultChunkDays
	}
	if settings.StateBackend == "" {
		settings.StateBackend = "file"
	}
	if settings.StatePath == "" {
		settings.StatePath = DefaultStatePath
	}

	if err := validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func applyEnv(s *models.Settings) {
	if v := os.Getenv("APPMETRICA_APPLICATION_ID"); v != "" {
		s.ApplicationID = v
	}
	if v := os.Getenv("APPMETRICA_TOKEN"); v != "" {
		s.Token = v
	}
	if v := os.Getenv("APPMETRICA_START_DATE"); v != "" {
		s.StartDate = v
	}
	if v := os.Getenv("APPMETRICA_API_URL"); v != "" {
		s.APIURL = v
	}
	if v := os.Getenv("APPMETRICA_CHUNK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.ChunkDays = n
		}
	}
	if v := os.Getenv("APPMETRICA_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Limit = n
		}
	}
	if v := os.Getenv("STATE_BACKEND"); v != "" {
		s.StateBackend = v
	}
	if v := os.Getenv("STATE_PATH"); v != "" {
		s.StatePath = v
	}
	if v := os.Getenv("MONGO_CONNECTION_STRING"); v != "" {
		s.MongoURI = v
	}
}

func validate(s *models.Settings) error {
	if s.ApplicationID == "" {
		return errors.New("application_id is not set (config file or APPMETRICA_APPLICATION_ID)")
	}
	if s.Token == "" {
		return errors.New("token is not set (config file or APPMETRICA_TOKEN)")
	}
	if s.StateBackend == "mongo" && s.MongoURI == "" {
		return errors.New("state_backend is 'mongo' but MONGO_CONNECTION_STRING is not set")
	}
	return nil
}
