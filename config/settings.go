package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server          ServerSettings          `json:"server"`
	Metadata        MetadataSettings        `json:"metadata"`
	Cache           CacheSettings           `json:"cache"`
	Database        DatabaseSettings        `json:"database"`
	Recommendations RecommendationsSettings `json:"recommendations"`
	Log             LogConfig               `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	PIN  string `json:"pin"`
}

type MetadataSettings struct {
	TMDBAPIKey string `json:"tmdbApiKey"`
	Language   string `json:"language"`
}

type CacheSettings struct {
	Directory        string `json:"directory"`
	MetadataTTLHours int    `json:"metadataTtlHours"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

// RecommendationsSettings tunes the batch builder. Count is the visible
// quota; BufferMultiplier bounds the overflow buffer at Count times this
// value. RatingThreshold is the minimum user rating for an entry to seed
// personalized strategies.
type RecommendationsSettings struct {
	Count            int     `json:"count"`
	BufferMultiplier int     `json:"bufferMultiplier"`
	RatingThreshold  float64 `json:"ratingThreshold"`
}

// LogConfig represents file logging and rotation configuration.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration written on first run.
func DefaultSettings() Settings {
	return Settings{
		Server:   ServerSettings{Host: "0.0.0.0", Port: 7870},
		Metadata: MetadataSettings{TMDBAPIKey: "", Language: "en"},
		Cache:    CacheSettings{Directory: "cache", MetadataTTLHours: 24},
		Database: DatabaseSettings{Path: "cache/lifeboard.db"},
		Recommendations: RecommendationsSettings{
			Count:            24,
			BufferMultiplier: 2,
			RatingThreshold:  4.0,
		},
		Log: LogConfig{
			File:       "cache/logs/backend.log",
			MaxSize:    50, // 50 MB per file
			MaxBackups: 3,  // keep 3 old files
			MaxAge:     7,  // 7 days
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures the parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings from disk or creates defaults if missing. Fields absent
// from the file keep their default values.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	settings := DefaultSettings()
	dec := json.NewDecoder(f)
	if err := dec.Decode(&settings); err != nil {
		return Settings{}, err
	}

	applyFallbacks(&settings)
	return settings, nil
}

// Save writes settings to disk atomically.
func (m *Manager) Save(settings Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}

	applyFallbacks(&settings)

	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(settings); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, m.path)
}

func applyFallbacks(settings *Settings) {
	defaults := DefaultSettings()
	if settings.Server.Port <= 0 {
		settings.Server.Port = defaults.Server.Port
	}
	if settings.Cache.Directory == "" {
		settings.Cache.Directory = defaults.Cache.Directory
	}
	if settings.Cache.MetadataTTLHours <= 0 {
		settings.Cache.MetadataTTLHours = defaults.Cache.MetadataTTLHours
	}
	if settings.Database.Path == "" {
		settings.Database.Path = defaults.Database.Path
	}
	if settings.Recommendations.Count <= 0 {
		settings.Recommendations.Count = defaults.Recommendations.Count
	}
	if settings.Recommendations.BufferMultiplier <= 0 {
		settings.Recommendations.BufferMultiplier = defaults.Recommendations.BufferMultiplier
	}
	if settings.Recommendations.RatingThreshold <= 0 {
		settings.Recommendations.RatingThreshold = defaults.Recommendations.RatingThreshold
	}
}
