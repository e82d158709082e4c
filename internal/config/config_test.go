package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legalgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "entity_legal_accept_manually", cfg.Harness.ManualTag)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/fixtures.db
harness:
  manual_tag: own_terms
time:
  location: Europe/Berlin
`)

	cfg, err := Load(LoadOptions{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fixtures.db", cfg.Database.Path)
	assert.Equal(t, "own_terms", cfg.Harness.ManualTag)
	assert.Equal(t, "golden", cfg.Harness.GoldenDir, "unset keys keep defaults")
	assert.Equal(t, "Europe/Berlin", cfg.Time.Location)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("log:\n  level: debug\n"), 0o644))
	chdir(t, dir)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, "database:\n  path: from-file.db\nlog:\n  level: warn\n")
	t.Setenv("LEGALGATE_DATABASE_PATH", "from-env.db")
	t.Setenv("LEGALGATE_LOG_LEVEL", "error")

	cfg, err := Load(LoadOptions{
		ConfigPath:    path,
		FlagOverrides: map[string]any{"log.level": "debug"},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database.Path, "env beats file")
	assert.Equal(t, "debug", cfg.Log.Level, "flags beat env")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestLoad_Directory(t *testing.T) {
	_, err := Load(LoadOptions{ConfigPath: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty database", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"empty tag", func(c *Config) { c.Harness.ManualTag = "" }, "harness.manual_tag"},
		{"bad location", func(c *Config) { c.Time.Location = "Nowhere/Special" }, "time.location"},
		{"bad level", func(c *Config) { c.Log.Level = "chatty" }, "log.level"},
		{"level case", func(c *Config) { c.Log.Level = "WARN" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
