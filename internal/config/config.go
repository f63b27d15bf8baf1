package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SubscriptionConfig describes a single external ICS subscription that
// gets merged into the band schedule (e.g. a venue's public calendar or
// a member's availability feed).
type SubscriptionConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown alongside merged events.
	Name string `yaml:"name" json:"name"`
}

// LayoutConfig tunes the day-grid geometry served by /api/schedule.
type LayoutConfig struct {
	// DayStartHour / DayEndHour bound the visible window (0-24).
	DayStartHour int `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour   int `yaml:"day_end_hour" json:"day_end_hour"`

	// PixelsPerHour is the vertical scale of the grid.
	PixelsPerHour float64 `yaml:"pixels_per_hour" json:"pixels_per_hour"`

	// MinBlockPx floors block height so short gigs stay tappable.
	MinBlockPx float64 `yaml:"min_block_px" json:"min_block_px"`

	// SnapMinutes is the drag-to-create rounding increment.
	SnapMinutes int `yaml:"snap_minutes" json:"snap_minutes"`
}

// BasicAuthConfig controls whether mutating endpoints require the
// argon2id credentials file created by `gigcal hash-password`.
type BasicAuthConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// File is the credentials file path; empty means <data_dir>/auth.secret.
	File string `yaml:"file" json:"file"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API and printable views.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as canonical display zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls the first day of the week in calendar views:
	// "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for
	// refreshing subscription feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is how far ahead subscription expansion and the public
	// feed look.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// DataDir holds the sqlite database, ICS cache and auth file.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// BandName appears in feed metadata and the printable schedule.
	BandName string `yaml:"band_name" json:"band_name"`

	// DefaultGigMinutes is applied to gigs saved without an end time
	// before layout (the layout engine never sees open-ended items).
	DefaultGigMinutes int `yaml:"default_gig_minutes" json:"default_gig_minutes"`

	// Layout tunes the day-grid geometry.
	Layout LayoutConfig `yaml:"layout" json:"layout"`

	// StatusColors maps gig status -> base accent hex color.
	StatusColors map[string]string `yaml:"status_colors" json:"status_colors"`

	// SubscriptionColor is the accent for merged external events.
	SubscriptionColor string `yaml:"subscription_color" json:"subscription_color"`

	// FeedTTL is the X-PUBLISHED-TTL hint on the subscription feed,
	// in minutes.
	FeedTTLMinutes int `yaml:"feed_ttl_minutes" json:"feed_ttl_minutes"`

	// Subscriptions is the list of external ICS sources to merge.
	Subscriptions []SubscriptionConfig `yaml:"subscriptions" json:"subscriptions"`

	// BasicAuth protects mutating endpoints when enabled.
	BasicAuth BasicAuthConfig `yaml:"basic_auth" json:"basic_auth"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8080",
		Timezone:          "Europe/Berlin",
		WeekStart:         "monday",
		RefreshCron:       "*/15 * * * *",
		HorizonDays:       90,
		DataDir:           "./data",
		BandName:          "gigcal",
		DefaultGigMinutes: 120,
		Layout: LayoutConfig{
			DayStartHour:  0,
			DayEndHour:    24,
			PixelsPerHour: 60,
			MinBlockPx:    24,
			SnapMinutes:   15,
		},
		StatusColors: map[string]string{
			"confirmed": "#16a34a",
			"pencilled": "#f59e0b",
			"cancelled": "#6b7280",
		},
		SubscriptionColor: "#3b82f6",
		FeedTTLMinutes:    60,
		Subscriptions:     []SubscriptionConfig{},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = "monday"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.BandName == "" {
		c.BandName = def.BandName
	}
	if c.DefaultGigMinutes <= 0 {
		c.DefaultGigMinutes = def.DefaultGigMinutes
	}

	if c.Layout.DayStartHour < 0 || c.Layout.DayStartHour > 23 {
		c.Layout.DayStartHour = def.Layout.DayStartHour
	}
	if c.Layout.DayEndHour <= c.Layout.DayStartHour || c.Layout.DayEndHour > 24 {
		c.Layout.DayEndHour = def.Layout.DayEndHour
		if c.Layout.DayEndHour <= c.Layout.DayStartHour {
			c.Layout.DayStartHour = def.Layout.DayStartHour
		}
	}
	if c.Layout.PixelsPerHour <= 0 {
		c.Layout.PixelsPerHour = def.Layout.PixelsPerHour
	}
	if c.Layout.MinBlockPx <= 0 {
		c.Layout.MinBlockPx = def.Layout.MinBlockPx
	}
	if c.Layout.SnapMinutes <= 0 {
		c.Layout.SnapMinutes = def.Layout.SnapMinutes
	}

	if c.StatusColors == nil {
		c.StatusColors = map[string]string{}
	}
	for status, hex := range def.StatusColors {
		if c.StatusColors[status] == "" {
			c.StatusColors[status] = hex
		}
	}
	if c.SubscriptionColor == "" {
		c.SubscriptionColor = def.SubscriptionColor
	}
	if c.FeedTTLMinutes <= 0 {
		c.FeedTTLMinutes = def.FeedTTLMinutes
	}
	if c.Subscriptions == nil {
		c.Subscriptions = []SubscriptionConfig{}
	}
	if c.BasicAuth.File == "" {
		c.BasicAuth.File = filepath.Join(c.DataDir, "auth.secret")
	}
}

// ICSCacheDir is where subscription fetches keep their HTTP cache.
func (c *Config) ICSCacheDir() string {
	return filepath.Join(c.DataDir, "ics-cache")
}

// VisibleWindow returns the day-grid window bounds in minutes since
// midnight, ready to hand to the layout engine.
func (c *Config) VisibleWindow() (startMinutes, endMinutes int) {
	return c.Layout.DayStartHour * 60, c.Layout.DayEndHour * 60
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed,
//     write a default config with 0600 perms, and return the default.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.Normalize()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".gigcal-config-*.tmp")
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

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
