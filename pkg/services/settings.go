package services

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"headless-cms/pkg/models"

	json "github.com/goccy/go-json"
	"github.com/morikuni/failure"
	"github.com/rs/zerolog/log"
)

const apiKeyBytes = 32

// DefaultAPISettings is written on first use.
func DefaultAPISettings() (models.APISettings, error) {
	key, err := GenerateAPIKey()
	if err != nil {
		return models.APISettings{}, err
	}
	return models.APISettings{
		APIKey:      key,
		APIEnabled:  true,
		RequireAuth: false,
		CORSEnabled: true,
	}, nil
}

// GenerateAPIKey returns 32 random bytes hex encoded.
func GenerateAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", failure.MarkUnexpected(err)
	}
	return hex.EncodeToString(b), nil
}

// SettingsStore persists the API settings record in a JSON file. The file is
// re-read when its modification time changes, so edits made by hand are
// picked up without a restart.
type SettingsStore struct {
	path string

	mu      sync.RWMutex
	cached  *models.APISettings
	modTime time.Time
}

func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

func (s *SettingsStore) Path() string {
	return s.path
}

// Get returns the current settings, creating the file with defaults when it
// does not exist.
func (s *SettingsStore) Get() (models.APISettings, error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return s.create()
	}
	if err != nil {
		return models.APISettings{}, failure.MarkUnexpected(err, failure.Context{"path": s.path})
	}

	s.mu.RLock()
	if s.cached != nil && info.ModTime().Equal(s.modTime) {
		cur := *s.cached
		s.mu.RUnlock()
		return cur, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	content, err := os.ReadFile(s.path)
	if err != nil {
		return models.APISettings{}, failure.MarkUnexpected(err, failure.Context{"path": s.path})
	}
	var settings models.APISettings
	if err := json.Unmarshal(content, &settings); err != nil {
		return models.APISettings{}, failure.MarkUnexpected(err, failure.Context{"path": s.path})
	}
	s.cached = &settings
	s.modTime = info.ModTime()
	return settings, nil
}

func (s *SettingsStore) create() (models.APISettings, error) {
	s.mu.Lock()
	if _, err := os.Stat(s.path); err == nil {
		// another request created it first
		s.mu.Unlock()
		return s.Get()
	}
	settings, err := DefaultAPISettings()
	if err == nil {
		err = s.save(settings)
	}
	s.mu.Unlock()
	if err != nil {
		return models.APISettings{}, err
	}
	log.Info().Str("path", s.path).Msg("api settings created with defaults")
	return settings, nil
}

// Save writes the record through a temporary file and a rename.
func (s *SettingsStore) Save(settings models.APISettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(settings)
}

func (s *SettingsStore) save(settings models.APISettings) error {
	content, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return failure.MarkUnexpected(err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return failure.MarkUnexpected(err, failure.Context{"dir": dir})
	}
	tmp, err := os.CreateTemp(dir, ".headless_api_config_*")
	if err != nil {
		return failure.MarkUnexpected(err, failure.Context{"dir": dir})
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return failure.MarkUnexpected(err)
	}
	if err := tmp.Close(); err != nil {
		return failure.MarkUnexpected(err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return failure.MarkUnexpected(err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return failure.MarkUnexpected(err, failure.Context{"path": s.path})
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return failure.MarkUnexpected(err, failure.Context{"path": s.path})
	}
	s.cached = &settings
	s.modTime = info.ModTime()
	return nil
}

// Update applies an admin change and persists it.
func (s *SettingsStore) Update(u models.SettingsUpdate) (models.APISettings, error) {
	settings, err := s.Get()
	if err != nil {
		return models.APISettings{}, err
	}
	if u.APIEnabled != nil {
		settings.APIEnabled = *u.APIEnabled
	}
	if u.RequireAuth != nil {
		settings.RequireAuth = *u.RequireAuth
	}
	if u.CORSEnabled != nil {
		settings.CORSEnabled = *u.CORSEnabled
	}
	if u.RegenerateKey {
		if settings.APIKey, err = GenerateAPIKey(); err != nil {
			return models.APISettings{}, err
		}
	}
	if err := s.Save(settings); err != nil {
		return models.APISettings{}, err
	}
	return settings, nil
}
