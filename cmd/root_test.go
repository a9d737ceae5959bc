package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/tunestash/internal/config"
	"github.com/oshokin/tunestash/internal/constants"
)

const testBaseConfigContent = `
storage_path: "/config/storage"
upstream_base_url: "https://config.example.com"
listen_address: ":3000"
log_level: "info"
download_speed_limit: "500KB"
`

func newTestCommand(t *testing.T) (*cobra.Command, *config.Config) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "test-config.yaml")

	err := os.WriteFile(
		configPath,
		[]byte(testBaseConfigContent),
		constants.DefaultFilePermissions,
	) //nolint:gosec // It's a test file.
	require.NoError(t, err)

	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)

	// Same flags as the root command.
	testCmd := &cobra.Command{Use: "test"}
	testCmd.Flags().StringP("storage", "s", "", "cache root")
	testCmd.Flags().String("upstream", "", "upstream URL")
	testCmd.Flags().String("log-level", "", "log level")
	testCmd.Flags().StringP("listen", "l", "", "listen address")
	testCmd.Flags().String("speed-limit", "", "download speed limit")

	return testCmd, cfg
}

// TestFlagOverrides tests that command-line flags correctly override configuration file values.
//
//nolint:funlen,nolintlint,tparallel // Cannot run in parallel due to Viper global state.
func TestFlagOverrides(t *testing.T) {
	tests := []struct {
		name           string
		flags          map[string]string
		expectedConfig func(*testing.T, *config.Config)
	}{
		{
			name:  "no flags - use config values",
			flags: map[string]string{},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/config/storage", cfg.StoragePath)
				assert.Equal(t, "https://config.example.com", cfg.UpstreamBaseURL)
				assert.Equal(t, ":3000", cfg.ListenAddress)
				assert.Equal(t, "500KB", cfg.DownloadSpeedLimit)
				assert.Equal(t, int64(500000), cfg.ParsedDownloadSpeedLimit)
			},
		},
		{
			name: "storage flag only - override storage path",
			flags: map[string]string{
				"storage": "/flag/storage",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/flag/storage", cfg.StoragePath)
				assert.Equal(t, "https://config.example.com", cfg.UpstreamBaseURL)
				assert.Equal(t, ":3000", cfg.ListenAddress)
			},
		},
		{
			name: "listen and upstream flags - partial override",
			flags: map[string]string{
				"listen":   "127.0.0.1:8080",
				"upstream": "http://localhost:9000",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/config/storage", cfg.StoragePath)
				assert.Equal(t, "http://localhost:9000", cfg.UpstreamBaseURL)
				assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddress)
			},
		},
		{
			name: "speed-limit flag only - override speed limit",
			flags: map[string]string{
				"speed-limit": "1MB",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "1MB", cfg.DownloadSpeedLimit)
				assert.Equal(t, int64(1000000), cfg.ParsedDownloadSpeedLimit)
			},
		},
		{
			name: "log-level flag only - override log level",
			flags: map[string]string{
				"log-level": "debug",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "debug", cfg.ParsedLogLevel.String())
			},
		},
		{
			name: "all flags - override everything",
			flags: map[string]string{
				"storage":     "/all/storage",
				"upstream":    "https://flags.example.com",
				"log-level":   "warn",
				"listen":      ":4000",
				"speed-limit": "0",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/all/storage", cfg.StoragePath)
				assert.Equal(t, "https://flags.example.com", cfg.UpstreamBaseURL)
				assert.Equal(t, "warn", cfg.LogLevel)
				assert.Equal(t, ":4000", cfg.ListenAddress)
				assert.Zero(t, cfg.ParsedDownloadSpeedLimit)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testCmd, cfg := newTestCommand(t)

			for flagName, flagValue := range tt.flags {
				require.NoError(t, testCmd.Flags().Set(flagName, flagValue), "failed to set flag %s", flagName)
			}

			err := bindFlagsToConfig(testCmd.Flags(), cfg)
			require.NoError(t, err)

			tt.expectedConfig(t, cfg)
		})
	}
}

// TestFlagOverrides_Invalid tests that invalid flag values fail validation.
//
//nolint:nolintlint,tparallel // Cannot run in parallel due to Viper global state.
func TestFlagOverrides_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		flag        string
		value       string
		expectedErr error
	}{
		{"unknown log level", "log-level", "verbose", config.ErrUnknownLogLevel},
		{"upstream without scheme", "upstream", "example.com", config.ErrInvalidUpstreamURL},
		{"blank storage", "storage", "  ", config.ErrEmptyStoragePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testCmd, cfg := newTestCommand(t)

			require.NoError(t, testCmd.Flags().Set(tt.flag, tt.value))

			err := bindFlagsToConfig(testCmd.Flags(), cfg)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}

	t.Run("malformed speed limit", func(t *testing.T) {
		testCmd, cfg := newTestCommand(t)

		require.NoError(t, testCmd.Flags().Set("speed-limit", "fast"))
		require.Error(t, bindFlagsToConfig(testCmd.Flags(), cfg))
	})
}

// TestCommandTree tests that every subcommand is registered on the root command.
func TestCommandTree(t *testing.T) {
	t.Parallel()

	for _, path := range [][]string{{"serve"}, {"scan"}, {"save"}, {"config", "init"}} {
		found, _, err := rootCmd.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], found.Name())
	}

	assert.NotNil(t, saveCmd.Flags().Lookup("quality"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("storage"))
	assert.NotNil(t, serveCmd.Flags().Lookup("listen"))
}
