package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Storage backends understood by store.Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// DatabaseConfig selects and locates the persistence backend.
type DatabaseConfig struct {
	// Backend is one of the Backend* constants.
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the directory holding the JSON collection files.
	Path string `mapstructure:"path" yaml:"path"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	MongoURI      string `mapstructure:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database" yaml:"mongo_database"`
}

// SchedulerConfig holds the cron expressions for scheduled posts.
type SchedulerConfig struct {
	DailyStandup     string `mapstructure:"daily_standup" yaml:"daily_standup"`
	WeeklySummary    string `mapstructure:"weekly_summary" yaml:"weekly_summary"`
	StandupWindowSec int    `mapstructure:"standup_window_sec" yaml:"standup_window_sec"`

	// Timezone is an IANA zone name, or "Local".
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// DiscordConfig holds chat platform settings. The bot token is not
// part of the file; it lives in DISCORD_TOKEN or the system keyring.
type DiscordConfig struct {
	// GuildID scopes slash command registration. Empty registers globally.
	GuildID string `mapstructure:"guild_id" yaml:"guild_id"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Discord   DiscordConfig   `mapstructure:"discord" yaml:"discord"`
}

// StandupWindow returns the reply collection window as a duration.
func (c SchedulerConfig) StandupWindow() time.Duration {
	if c.StandupWindowSec <= 0 {
		return time.Hour
	}
	return time.Duration(c.StandupWindowSec) * time.Second
}

// Location resolves the configured timezone, falling back to time.Local.
func (c SchedulerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/grallix/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "grallix", "config.yaml")
}

// defaultAppConfig returns the configuration used when no file exists.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Backend:       BackendFile,
			Path:          "./data",
			SQLitePath:    "./data/grallix.db",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "grallixbot",
		},
		Scheduler: SchedulerConfig{
			DailyStandup:     "0 9 * * 1-5",
			WeeklySummary:    "0 16 * * 5",
			StandupWindowSec: 3600,
			Timezone:         "Local",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("database.backend", d.Database.Backend)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.sqlite_path", d.Database.SQLitePath)
	v.SetDefault("database.mongo_uri", d.Database.MongoURI)
	v.SetDefault("database.mongo_database", d.Database.MongoDatabase)
	v.SetDefault("scheduler.daily_standup", d.Scheduler.DailyStandup)
	v.SetDefault("scheduler.weekly_summary", d.Scheduler.WeeklySummary)
	v.SetDefault("scheduler.standup_window_sec", d.Scheduler.StandupWindowSec)
	v.SetDefault("scheduler.timezone", d.Scheduler.Timezone)
	v.SetDefault("discord.guild_id", "")
}

// bindEnv maps the environment variables the bot has always honored
// onto their config keys.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"database.mongo_uri": "MONGODB_URI",
		"database.backend":   "GRALLIX_DATABASE_BACKEND",
		"database.path":      "GRALLIX_DATA_DIR",
		"discord.guild_id":   "GRALLIX_GUILD_ID",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s to %s: %w", key, env, err)
		}
	}
	return nil
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *AppConfig) Validate() error {
	switch c.Database.Backend {
	case BackendFile, BackendSQLite, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unknown database backend %q", c.Database.Backend)
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return err
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("scheduler", cfg.Scheduler)
	v.Set("discord", cfg.Discord)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
