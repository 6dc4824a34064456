package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbacksurvey/internal/config"
)

func TestOptions_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\nstore: memory\n"), 0o600))

	var opts Options
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	opts.Bind(cmd)
	cmd.SetArgs([]string{"--config", path, "--log-level", "debug", "--log-format", "console"})
	require.NoError(t, cmd.Execute())

	cfg, log, err := opts.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.NotNil(t, log)
}

func TestOptions_InvalidStore(t *testing.T) {
	opts := Options{Store: "cassandra"}
	_, _, err := opts.Load()
	assert.Error(t, err)
}

func TestOptions_InvalidLogLevel(t *testing.T) {
	opts := Options{LogLevel: "loud"}
	_, _, err := opts.Load()
	assert.Error(t, err)
}
