package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test inside an empty directory so no stray config.yaml
// or .env from the repository is picked up
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "data", cfg.Sources.DataDir)
	assert.Equal(t, "gdp.csv", cfg.Sources.GDP)
	assert.Equal(t, "countries-unescaped.json", cfg.Sources.Countries)
	assert.Equal(t, time.Duration(0), cfg.Sources.ReloadInterval)
	assert.Equal(t, time.Second, cfg.Animation.Interval)
	assert.Equal(t, "ineqComb", cfg.Animation.Indicator)
	assert.Nil(t, cfg.Resolver.Overrides)
	assert.False(t, cfg.Storage.Enabled())
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GDV_SERVER_PORT", "9090")
	t.Setenv("GDV_LOGGING_FORMAT", "TEXT")
	t.Setenv("GDV_SOURCES_GDP", "https://example.org/gdp.csv")
	t.Setenv("GDV_SOURCES_RELOAD_INTERVAL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "text", cfg.Logging.Format, "format is normalized to lower case")
	assert.Equal(t, "https://example.org/gdp.csv", cfg.Sources.GDP)
	assert.Equal(t, time.Hour, cfg.Sources.ReloadInterval)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GDV_SERVER_PORT=7070\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GDV_SERVER_PORT") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	yamlPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
server:
  port: 9191
sources:
  data_dir: /srv/gdv
  ineq_edu: edu.csv
resolver:
  overrides:
    BRN: ["Brunei Darussalam", "Negara Brunei"]
`), 0o600))
	t.Setenv("GDV_CONFIG_FILE", yamlPath)
	t.Setenv("GDV_SOURCES_INEQ_EDU", "env-edu.csv")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/srv/gdv", cfg.Sources.DataDir)
	assert.Equal(t, "env-edu.csv", cfg.Sources.IneqEdu, "explicit env wins over file")
	assert.Equal(t, "gdp.csv", cfg.Sources.GDP, "unset file values keep defaults")
	assert.Equal(t, []string{"Brunei Darussalam", "Negara Brunei"}, cfg.Resolver.Overrides["BRN"])
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	yamlPath := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("server: [unterminated"), 0o600))
	t.Setenv("GDV_CONFIG_FILE", yamlPath)

	_, err := Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "invalid server port"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "invalid log format"},
		{name: "bad log output", mutate: func(c *Config) { c.Logging.Output = "syslog" }, wantErr: "invalid log output"},
		{name: "empty table locator", mutate: func(c *Config) { c.Sources.IneqLife = " " }, wantErr: "ineq_life"},
		{name: "empty metadata locator", mutate: func(c *Config) { c.Sources.Countries = "" }, wantErr: "metadata"},
		{name: "negative reload", mutate: func(c *Config) { c.Sources.ReloadInterval = -time.Second }, wantErr: "reload interval"},
		{name: "zero frame interval", mutate: func(c *Config) { c.Animation.Interval = 0 }, wantErr: "animation interval"},
		{name: "disabled animation ignores interval", mutate: func(c *Config) {
			c.Animation.Enabled = false
			c.Animation.Interval = 0
		}},
		{name: "bad override code", mutate: func(c *Config) {
			c.Resolver.Overrides = map[string][]string{"BR": {"Brunei"}}
		}, wantErr: "3 letters"},
		{name: "empty override name", mutate: func(c *Config) {
			c.Resolver.Overrides = map[string][]string{"BRN": {""}}
		}, wantErr: "empty name"},
		{name: "bad trace exporter", mutate: func(c *Config) { c.Telemetry.TraceExporter = "jaeger" }, wantErr: "trace exporter"},
		{name: "pool bounds", mutate: func(c *Config) { c.Storage.MinConns = 8 }, wantErr: "min_conns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSourcesConfig_ResolveLocator(t *testing.T) {
	s := SourcesConfig{DataDir: "data"}

	tests := []struct {
		locator string
		want    string
	}{
		{locator: "gdp.csv", want: filepath.Join("data", "gdp.csv")},
		{locator: "https://example.org/gdp.csv", want: "https://example.org/gdp.csv"},
		{locator: "HTTP://example.org/x.json", want: "HTTP://example.org/x.json"},
		{locator: "/abs/gdp.csv", want: "/abs/gdp.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			assert.Equal(t, tt.want, s.ResolveLocator(tt.locator))
		})
	}
}

func TestSourcesConfig_TableLocators(t *testing.T) {
	locators := Default().Sources.TableLocators()
	assert.Len(t, locators, 5)
	assert.Equal(t, "inequality_income.csv", locators["ineq_inc"])
}
