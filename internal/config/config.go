package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL      = "http://127.0.0.1:8080"
	DefaultDBFileName  = ".catalog.db"
	DefaultLogLevel    = "info"
	DefaultConfigName  = ".catalog.toml"
	DefaultEnvFileName = ".env"

	DefaultChunkSize             = 255 << 10
	DefaultOpenRetries           = 5
	DefaultGCGrace               = "1h"
	DefaultMaxUploadBytes  int64 = 10 << 20
	DefaultMultipartMemory int64 = 8 << 20
	DefaultMaxJSONBytes    int64 = 20 << 20

	configDirEnvKey          = "CATALOG_CONFIG_DIR"
	trustProjectConfigEnvKey = "CATALOG_TRUST_PROJECT_CONFIG"
	envFileEnvKey            = "CATALOG_ENV_FILE"
)

// StorageConfig controls the database and blob layout.
type StorageConfig struct {
	QuotaBytes  int64  `toml:"quota_bytes"`
	ChunkSize   int    `toml:"chunk_size"`
	OpenRetries int    `toml:"open_retries"`
	GCGrace     string `toml:"gc_grace"`
}

// UploadConfig bounds request bodies.
type UploadConfig struct {
	MaxBytes           int64 `toml:"max_bytes"`
	MultipartMaxMemory int64 `toml:"multipart_max_memory"`
	MaxJSONBytes       int64 `toml:"max_json_bytes"`
}

// Config defines runtime configuration for the catalog.
type Config struct {
	APIURL                   string        `toml:"api_url"`
	DBPath                   string        `toml:"db_path"`
	LogLevel                 string        `toml:"log_level"`
	AllowRemote              bool          `toml:"allow_remote"`
	Storage                  StorageConfig `toml:"storage"`
	Uploads                  UploadConfig  `toml:"uploads"`
	TrustedProjectConfigPath string        `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		DBPath:   "",
		LogLevel: DefaultLogLevel,
		Storage: StorageConfig{
			ChunkSize:   DefaultChunkSize,
			OpenRetries: DefaultOpenRetries,
			GCGrace:     DefaultGCGrace,
		},
		Uploads: UploadConfig{
			MaxBytes:           DefaultMaxUploadBytes,
			MultipartMaxMemory: DefaultMultipartMemory,
			MaxJSONBytes:       DefaultMaxJSONBytes,
		},
	}
}

// GCGraceDuration parses storage.gc_grace, falling back to the default.
func (c *Config) GCGraceDuration() time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(c.Storage.GCGrace)); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultGCGrace)
	return d
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

// loadDotEnv reads KEY=VALUE pairs from the env file into the process
// environment. Variables that are already set win.
func loadDotEnv() error {
	path := strings.TrimSpace(os.Getenv(envFileEnvKey))
	if path == "" {
		path = DefaultEnvFileName
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, DefaultConfigName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"log_level",
	"allow_remote",
	"storage.quota_bytes",
	"storage.chunk_size",
	"storage.open_retries",
	"storage.gc_grace",
	"uploads.max_bytes",
	"uploads.multipart_max_memory",
	"uploads.max_json_bytes",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	return slices.Contains(allowedKeys, key)
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "allow_remote":
		return strconv.FormatBool(c.AllowRemote), nil
	case "storage.quota_bytes":
		return strconv.FormatInt(c.Storage.QuotaBytes, 10), nil
	case "storage.chunk_size":
		return strconv.Itoa(c.Storage.ChunkSize), nil
	case "storage.open_retries":
		return strconv.Itoa(c.Storage.OpenRetries), nil
	case "storage.gc_grace":
		return c.Storage.GCGrace, nil
	case "uploads.max_bytes":
		return strconv.FormatInt(c.Uploads.MaxBytes, 10), nil
	case "uploads.multipart_max_memory":
		return strconv.FormatInt(c.Uploads.MultipartMaxMemory, 10), nil
	case "uploads.max_json_bytes":
		return strconv.FormatInt(c.Uploads.MaxJSONBytes, 10), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultConfigName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads the env file and trusted config files, then applies env
// overrides.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, DefaultConfigName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, DefaultConfigName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalizeDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	// PORT is set by hosting platforms that route external traffic to it.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return fmt.Errorf("invalid PORT %q", port)
		}
		c.APIURL = "http://0.0.0.0:" + port
		c.AllowRemote = true
	}
	if apiURL := os.Getenv("CATALOG_API_URL"); apiURL != "" {
		c.APIURL = apiURL
	}
	if dbPath := os.Getenv("CATALOG_DB"); dbPath != "" {
		c.DBPath = dbPath
	}
	if raw := strings.TrimSpace(os.Getenv("CATALOG_ALLOW_REMOTE")); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			c.AllowRemote = parsed
		}
	}
	if raw := strings.TrimSpace(os.Getenv("CATALOG_MAX_UPLOAD_BYTES")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("CATALOG_MAX_UPLOAD_BYTES must be a positive integer")
		}
		c.Uploads.MaxBytes = parsed
	}
	if raw := strings.TrimSpace(os.Getenv("CATALOG_QUOTA_BYTES")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			return fmt.Errorf("CATALOG_QUOTA_BYTES must be a non-negative integer")
		}
		c.Storage.QuotaBytes = parsed
	}
	return nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "uploads.max_bytes", "uploads.multipart_max_memory", "uploads.max_json_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "storage.quota_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", key)
		}
		return parsed, nil
	case "storage.chunk_size", "storage.open_retries":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "storage.gc_grace":
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration", key)
		}
		return value, nil
	case "allow_remote":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func (c *Config) normalizeDefaults() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Storage.ChunkSize <= 0 {
		c.Storage.ChunkSize = DefaultChunkSize
	}
	if c.Storage.OpenRetries <= 0 {
		c.Storage.OpenRetries = DefaultOpenRetries
	}
	if c.Storage.QuotaBytes < 0 {
		c.Storage.QuotaBytes = 0
	}
	if strings.TrimSpace(c.Storage.GCGrace) == "" {
		c.Storage.GCGrace = DefaultGCGrace
	}
	if c.Uploads.MaxBytes <= 0 {
		c.Uploads.MaxBytes = DefaultMaxUploadBytes
	}
	if c.Uploads.MultipartMaxMemory <= 0 {
		c.Uploads.MultipartMaxMemory = DefaultMultipartMemory
	}
	if c.Uploads.MaxJSONBytes <= 0 {
		c.Uploads.MaxJSONBytes = DefaultMaxJSONBytes
	}
}
