// Package config loads the relay configuration from a YAML file, with
// environment variables taking precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CalendarConfig describes one calendar the relay reads.
type CalendarConfig struct {
	// ID is the Google calendar ID (usually an email address).
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label for logs.
	Name string `yaml:"name" json:"name"`
	// ICSURL, when set, reads this calendar from its secret ICS feed instead
	// of the Calendar API.
	ICSURL string `yaml:"ics_url,omitempty" json:"ics_url,omitempty"`
}

// GoogleConfig holds service-account credentials for the Calendar API.
type GoogleConfig struct {
	ServiceAccountFile string `yaml:"service_account_file" json:"service_account_file"`
	// ServiceAccountJSON is only read from GOOGLE_SERVICE_ACCOUNT_JSON.
	ServiceAccountJSON string `yaml:"-" json:"-"`
}

// SyncConfig controls the periodic calendar sync.
type SyncConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Cron is a standard five-field schedule, e.g. "*/15 * * * *".
	Cron string `yaml:"cron" json:"cron"`
	// MaxEvents caps how many future events one sync reads per calendar.
	MaxEvents int `yaml:"max_events" json:"max_events"`
}

// MapperConfig controls the field-mapper sampling window.
type MapperConfig struct {
	SampleLimit int `yaml:"sample_limit" json:"sample_limit"`
	PastDays    int `yaml:"past_days" json:"past_days"`
	FutureDays  int `yaml:"future_days" json:"future_days"`
}

// Config is the top-level application configuration.
type Config struct {
	Listen     string           `yaml:"listen" json:"listen"`
	AdminToken string           `yaml:"admin_token" json:"-"`
	LogLevel   string           `yaml:"log_level" json:"log_level"`
	Google     GoogleConfig     `yaml:"google" json:"google"`
	Calendars  []CalendarConfig `yaml:"calendars" json:"calendars"`
	Sync       SyncConfig       `yaml:"sync" json:"sync"`
	Mapper     MapperConfig     `yaml:"mapper" json:"mapper"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:    ":8080",
		LogLevel:  "info",
		Calendars: []CalendarConfig{},
		Sync: SyncConfig{
			Enabled:   false,
			Cron:      "*/15 * * * *",
			MaxEvents: 2500,
		},
		Mapper: MapperConfig{
			SampleLimit: 200,
			PastDays:    14,
			FutureDays:  14,
		},
	}
}

// Normalize fills in zero values so partially filled files still behave.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Calendars == nil {
		c.Calendars = []CalendarConfig{}
	}
	if c.Sync.Cron == "" {
		c.Sync.Cron = d.Sync.Cron
	}
	if c.Sync.MaxEvents <= 0 {
		c.Sync.MaxEvents = d.Sync.MaxEvents
	}
	if c.Mapper.SampleLimit <= 0 {
		c.Mapper.SampleLimit = d.Mapper.SampleLimit
	}
	if c.Mapper.PastDays <= 0 {
		c.Mapper.PastDays = d.Mapper.PastDays
	}
	if c.Mapper.FutureDays <= 0 {
		c.Mapper.FutureDays = d.Mapper.FutureDays
	}
}

// Validate reports configuration that cannot work at runtime.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Calendars))
	for i, cal := range c.Calendars {
		if strings.TrimSpace(cal.ID) == "" {
			return fmt.Errorf("calendars[%d]: id is required", i)
		}
		if seen[cal.ID] {
			return fmt.Errorf("calendars[%d]: duplicate id %q", i, cal.ID)
		}
		seen[cal.ID] = true
	}
	return nil
}

// CalendarIDs returns the configured calendar IDs in file order.
func (c *Config) CalendarIDs() []string {
	ids := make([]string, 0, len(c.Calendars))
	for _, cal := range c.Calendars {
		ids = append(ids, cal.ID)
	}
	return ids
}

// ICSFeeds returns calendar ID -> ICS URL for calendars read from a feed.
func (c *Config) ICSFeeds() map[string]string {
	feeds := make(map[string]string)
	for _, cal := range c.Calendars {
		if cal.ICSURL != "" {
			feeds[cal.ID] = cal.ICSURL
		}
	}
	return feeds
}

// ServiceAccount returns the raw service-account JSON, preferring the
// environment over the configured file. It returns nil when neither is set.
func (c *Config) ServiceAccount() ([]byte, error) {
	if c.Google.ServiceAccountJSON != "" {
		return []byte(c.Google.ServiceAccountJSON), nil
	}
	if c.Google.ServiceAccountFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.Google.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// Load reads configuration from path and applies environment overrides.
//
//   - An empty path skips the file and uses defaults.
//   - A missing file is created with defaults (0600) on first run.
func Load(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return nil, fmt.Errorf("write default config: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// applyEnv overlays well-known environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Listen = ":" + v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.AdminToken = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"); v != "" {
		c.Google.ServiceAccountJSON = v
	}
	if v := os.Getenv("GCAL_CALENDAR_IDS"); v != "" {
		c.mergeCalendarIDs(strings.Split(v, ","))
	}
	if v := os.Getenv("SYNC_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Sync.Enabled = b
		}
	}
	if v := os.Getenv("SYNC_CRON"); v != "" {
		c.Sync.Cron = v
	}
}

// mergeCalendarIDs appends IDs not already present in the file.
func (c *Config) mergeCalendarIDs(ids []string) {
	seen := make(map[string]bool, len(c.Calendars))
	for _, cal := range c.Calendars {
		seen[cal.ID] = true
	}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		c.Calendars = append(c.Calendars, CalendarConfig{ID: id})
	}
}

// Save writes cfg to path atomically via a temp file and rename, with 0600
// permissions on the result.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".relay-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
