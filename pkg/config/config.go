// Package config loads application settings from an optional YAML file and
// the environment. Environment variables always win over the file so
// deployments can inject secrets without editing configuration on disk.
// Credentials are never defaulted: an absent client ID or secret stays empty
// and is reported by Credentials.
package config

import (
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string `yaml:"log_level"`

	Spotify  SpotifyConfig  `yaml:"spotify"`
	Lyrics   LyricsConfig   `yaml:"lyrics"`
	Poster   PosterConfig   `yaml:"poster"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
}

type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type LyricsConfig struct {
	LRCLibURL   string `yaml:"lrclib_url"`
	GeniusToken string `yaml:"genius_token"`
}

type PosterConfig struct {
	OutputDir string `yaml:"output_dir"`
	LineRange string `yaml:"line_range"`
	Theme     string `yaml:"theme"`
	Accent    bool   `yaml:"accent"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	// Path of the SQLite history database. Empty disables history.
	Path string `yaml:"path"`
}

type StorageConfig struct {
	// GCSBucket enables uploading rendered posters when set.
	GCSBucket       string `yaml:"gcs_bucket"`
	GCSPrefix       string `yaml:"gcs_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Credentials is a Spotify client ID/secret pair.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Present reports whether both halves are non-empty.
func (c Credentials) Present() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Credentials returns the configured Spotify credentials.
func (c *Config) Credentials() Credentials {
	return Credentials{ClientID: c.Spotify.ClientID, ClientSecret: c.Spotify.ClientSecret}
}

// Default returns the built-in defaults without consulting the environment.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Poster: PosterConfig{
			OutputDir: "./",
			LineRange: "5-9",
			Theme:     "Dark",
		},
		Server: ServerConfig{Port: "4000"},
	}
}

// Load reads the YAML file at path (skipped when path is empty), fills in
// defaults for anything left unset and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

// Parse unmarshals YAML into cfg and restores defaults for blank fields.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	d := Default()
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}
	if cfg.Poster.OutputDir == "" {
		cfg.Poster.OutputDir = d.Poster.OutputDir
	}
	if cfg.Poster.LineRange == "" {
		cfg.Poster.LineRange = d.Poster.LineRange
	}
	if cfg.Poster.Theme == "" {
		cfg.Poster.Theme = d.Poster.Theme
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = d.Server.Port
	}
	return nil
}

// applyEnv overrides fields from the environment. Only variables that are set
// and non-empty take effect.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("SPOTIFY_CLIENT_ID", &c.Spotify.ClientID)
	set("SPOTIFY_CLIENT_SECRET", &c.Spotify.ClientSecret)
	set("LRCLIB_URL", &c.Lyrics.LRCLibURL)
	set("GENIUS_TOKEN", &c.Lyrics.GeniusToken)
	set("POSTER_OUTPUT_DIR", &c.Poster.OutputDir)
	set("DATABASE_PATH", &c.Database.Path)
	set("PORT", &c.Server.Port)
	set("GCS_BUCKET", &c.Storage.GCSBucket)
	set("LOG_LEVEL", &c.LogLevel)
}

// ConfigureLogging applies LogLevel to the global logrus logger. Unknown
// levels fall back to info.
func (c *Config) ConfigureLogging() {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("unknown log level, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.JSONFormatter{})
}
