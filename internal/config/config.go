package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/tunestash/internal/constants"
	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// StoragePath is the root of the on-disk cache tree.
	StoragePath string `mapstructure:"storage_path" yaml:"storage_path"`
	// UpstreamBaseURL is the base URL of the upstream music API.
	UpstreamBaseURL string `mapstructure:"upstream_base_url" yaml:"upstream_base_url"`
	// ListenAddress is the address the HTTP server binds to.
	ListenAddress string `mapstructure:"listen_address" yaml:"listen_address"`
	// UserAgent overrides the User-Agent sent upstream.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// DefaultQuality is used when a request does not name a quality.
	DefaultQuality string `mapstructure:"default_quality" yaml:"default_quality"`
	// RetryAttemptsCount is the number of retries after the first failed download attempt.
	RetryAttemptsCount int64 `mapstructure:"retry_attempts_count" yaml:"retry_attempts_count"`
	// RetryBackoffBase is multiplied by 2^attempt to get the pause before a retry.
	RetryBackoffBase string `mapstructure:"retry_backoff_base" yaml:"retry_backoff_base"`
	// DownloadTimeout bounds a single background download attempt.
	DownloadTimeout string `mapstructure:"download_timeout" yaml:"download_timeout"`
	// ProxyConnectTimeout bounds connection establishment for live proxying.
	ProxyConnectTimeout string `mapstructure:"proxy_connect_timeout" yaml:"proxy_connect_timeout"`
	// TaskRetention is how long finished tasks stay visible.
	TaskRetention string `mapstructure:"task_retention" yaml:"task_retention"`
	// MaxConcurrentSaves limits songs processed at once by a bulk save.
	MaxConcurrentSaves int64 `mapstructure:"max_concurrent_saves" yaml:"max_concurrent_saves"`
	// MaxPlaylistSongs limits the size of a bulk save request.
	MaxPlaylistSongs int64 `mapstructure:"max_playlist_songs" yaml:"max_playlist_songs"`
	// DownloadSpeedLimit sets the maximum background download speed (e.g., "1MB", "500KB").
	DownloadSpeedLimit string `mapstructure:"download_speed_limit" yaml:"download_speed_limit"`
	// SongInfoCacheSize is the number of upstream song info responses kept in memory.
	SongInfoCacheSize int64 `mapstructure:"song_info_cache_size" yaml:"song_info_cache_size"`
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level `yaml:"-"`
	// ParsedRetryBackoffBase is the parsed backoff base.
	ParsedRetryBackoffBase time.Duration `yaml:"-"`
	// ParsedDownloadTimeout is the parsed download timeout.
	ParsedDownloadTimeout time.Duration `yaml:"-"`
	// ParsedProxyConnectTimeout is the parsed proxy connect timeout.
	ParsedProxyConnectTimeout time.Duration `yaml:"-"`
	// ParsedTaskRetention is the parsed task retention.
	ParsedTaskRetention time.Duration `yaml:"-"`
	// ParsedDownloadSpeedLimit is the parsed download speed limit in bytes per second.
	ParsedDownloadSpeedLimit int64 `yaml:"-"`
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".tunestash.yaml"

	// DefaultMaxLogLength is the default maximum size (in bytes) of logged HTTP dumps.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB

	// EnvPrefix prefixes environment variables that override file values, e.g. TUNESTASH_STORAGE_PATH.
	EnvPrefix = "TUNESTASH"
)

// Static error definitions for better error handling.
var (
	// ErrEmptyStoragePath indicates that the storage path is missing.
	ErrEmptyStoragePath = errors.New("storage path cannot be empty")
	// ErrInvalidUpstreamURL indicates that the upstream base URL is not an absolute URL.
	ErrInvalidUpstreamURL = errors.New("upstream base URL must be an absolute http(s) URL")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidRetryAttempts indicates that the retry attempts count is invalid.
	ErrInvalidRetryAttempts = errors.New("retry attempts count cannot be negative")
	// ErrInvalidRetryBackoffBase indicates that the backoff base is invalid.
	ErrInvalidRetryBackoffBase = errors.New("retry_backoff_base must be positive")
	// ErrInvalidDownloadTimeout indicates that the download timeout is invalid.
	ErrInvalidDownloadTimeout = errors.New("download_timeout must be positive")
	// ErrInvalidProxyConnectTimeout indicates that the proxy connect timeout is invalid.
	ErrInvalidProxyConnectTimeout = errors.New("proxy_connect_timeout must be positive")
	// ErrInvalidTaskRetention indicates that the task retention is invalid.
	ErrInvalidTaskRetention = errors.New("task_retention must be positive")
	// ErrInvalidConcurrentSaves indicates that the concurrent saves count is invalid.
	ErrInvalidConcurrentSaves = errors.New("max concurrent saves must be a positive integer")
	// ErrInvalidPlaylistSongs indicates that the playlist size limit is invalid.
	ErrInvalidPlaylistSongs = errors.New("max playlist songs must be a positive integer")
	// ErrInvalidSongInfoCacheSize indicates that the song info cache size is invalid.
	ErrInvalidSongInfoCacheSize = errors.New("song info cache size must be a positive integer")
)

// Default returns the configuration used when no file overrides a setting.
func Default() *Config {
	return &Config{
		StoragePath:         "storage",
		UpstreamBaseURL:     "https://music-dl.sayqz.com",
		ListenAddress:       ":3000",
		LogLevel:            "info",
		DefaultQuality:      "320k",
		RetryAttemptsCount:  3,
		RetryBackoffBase:    "1s",
		DownloadTimeout:     "120s",
		ProxyConnectTimeout: "30s",
		TaskRetention:       "10m",
		MaxConcurrentSaves:  5,
		MaxPlaylistSongs:    5000,
		SongInfoCacheSize:   1000,
	}
}

// LoadConfig loads configuration settings from a YAML file and TUNESTASH_* environment variables.
// A missing default configuration file is not an error: built-in defaults are used instead.
func LoadConfig(configFilename string) (*Config, error) {
	isDefaultFile := configFilename == ""
	if isDefaultFile {
		configFilename = DefaultConfigFilename
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configFilename)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError

		if !isDefaultFile || !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}

		logger.Debugf(context.Background(), "Config file '%s' not found, using defaults", configFilename)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("storage_path", d.StoragePath)
	v.SetDefault("upstream_base_url", d.UpstreamBaseURL)
	v.SetDefault("listen_address", d.ListenAddress)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("default_quality", d.DefaultQuality)
	v.SetDefault("retry_attempts_count", d.RetryAttemptsCount)
	v.SetDefault("retry_backoff_base", d.RetryBackoffBase)
	v.SetDefault("download_timeout", d.DownloadTimeout)
	v.SetDefault("proxy_connect_timeout", d.ProxyConnectTimeout)
	v.SetDefault("task_retention", d.TaskRetention)
	v.SetDefault("max_concurrent_saves", d.MaxConcurrentSaves)
	v.SetDefault("max_playlist_songs", d.MaxPlaylistSongs)
	v.SetDefault("download_speed_limit", d.DownloadSpeedLimit)
	v.SetDefault("song_info_cache_size", d.SongInfoCacheSize)
}

// ValidateConfig checks the configuration for validity and sets derived fields.
//
//nolint:funlen,gocognit,cyclop // Validation functions naturally have high complexity and length due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var (
		downloadSpeedLimit       = strings.TrimSpace(cfg.DownloadSpeedLimit)
		parsedDownloadSpeedLimit uint64
		err                      error
	)

	cfg.StoragePath = strings.TrimSpace(cfg.StoragePath)
	if cfg.StoragePath == "" {
		return ErrEmptyStoragePath
	}

	cfg.StoragePath, err = filepath.Abs(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("failed to resolve storage path: %w", err)
	}

	upstreamURL, err := url.Parse(strings.TrimSpace(cfg.UpstreamBaseURL))
	if err != nil || (upstreamURL.Scheme != "http" && upstreamURL.Scheme != "https") || upstreamURL.Host == "" {
		return fmt.Errorf("%w: '%s'", ErrInvalidUpstreamURL, cfg.UpstreamBaseURL)
	}

	if strings.TrimSpace(cfg.DefaultQuality) == "" {
		cfg.DefaultQuality = Default().DefaultQuality
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !(isLogLevelCorrect) {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	if downloadSpeedLimit != "" && downloadSpeedLimit != "0" {
		parsedDownloadSpeedLimit, err = humanize.ParseBytes(downloadSpeedLimit)
		if err != nil {
			return fmt.Errorf("failed to parse download speed limit: %w", err)
		}
	}

	cfg.ParsedDownloadSpeedLimit = utils.SafeUint64ToInt64(parsedDownloadSpeedLimit)

	if cfg.RetryAttemptsCount < 0 {
		return ErrInvalidRetryAttempts
	}

	cfg.ParsedRetryBackoffBase, err = parsePositiveDuration(cfg.RetryBackoffBase, "retry backoff base",
		ErrInvalidRetryBackoffBase)
	if err != nil {
		return err
	}

	cfg.ParsedDownloadTimeout, err = parsePositiveDuration(cfg.DownloadTimeout, "download timeout",
		ErrInvalidDownloadTimeout)
	if err != nil {
		return err
	}

	cfg.ParsedProxyConnectTimeout, err = parsePositiveDuration(cfg.ProxyConnectTimeout, "proxy connect timeout",
		ErrInvalidProxyConnectTimeout)
	if err != nil {
		return err
	}

	cfg.ParsedTaskRetention, err = parsePositiveDuration(cfg.TaskRetention, "task retention",
		ErrInvalidTaskRetention)
	if err != nil {
		return err
	}

	if cfg.MaxConcurrentSaves <= 0 {
		return ErrInvalidConcurrentSaves
	}

	if cfg.MaxPlaylistSongs <= 0 {
		return ErrInvalidPlaylistSongs
	}

	if cfg.SongInfoCacheSize <= 0 {
		return ErrInvalidSongInfoCacheSize
	}

	return nil
}

func parsePositiveDuration(value, name string, errNotPositive error) (time.Duration, error) {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	if parsed <= 0 {
		return 0, errNotPositive
	}

	return parsed, nil
}

// WriteDefaultConfig writes the default configuration to path.
// An existing file is left untouched unless overwrite is set.
func WriteDefaultConfig(path string, overwrite bool) error {
	if path == "" {
		path = DefaultConfigFilename
	}

	if !overwrite {
		exists, err := utils.IsFileExist(path)
		if err != nil {
			return fmt.Errorf("failed to check config file: %w", err)
		}

		if exists {
			return fmt.Errorf("config file '%s' already exists: %w", path, os.ErrExist)
		}
	}

	content, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err = os.WriteFile(path, content, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
