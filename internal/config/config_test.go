package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "./input", c.InputDir)
	assert.Equal(t, FormatJSON, c.OutputFormat)
	assert.Equal(t, "{dept}_{timestamp}_{uuid}", c.OutputNameFormat)
	assert.Equal(t, 4, c.MaxConcurrency)
	assert.True(t, c.ContinueOnError)
	assert.False(t, c.StrictReferences)
	assert.Equal(t, "TENG", c.Parser.MajorCodePrefix)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 10, c.Server.MaxUploadMB)
	assert.Equal(t, DriverMemory, c.Store.Driver)
}

func TestLoadMainConfigKeepsUnsetDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
output_dir: /tmp/plans
output_format: XML
continue_on_error: false
parser:
  major_code_prefix: CENG
store:
  driver: sqlite3
  dsn: file:plans.db
`)

	c, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/plans", c.OutputDir)
	assert.Equal(t, FormatXML, c.OutputFormat)
	assert.False(t, c.ContinueOnError)
	assert.Equal(t, "CENG", c.Parser.MajorCodePrefix)
	assert.Equal(t, ",", c.Parser.CSVDelimiter)
	assert.Equal(t, "./input", c.InputDir)
	assert.Equal(t, DriverSQLite, c.Store.Driver)
}

func TestLoadMainConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":    "output_dir: [",
		"bad format":  "output_format: csv",
		"bad level":   "log_level: loud",
		"bad workers": "max_concurrency: -1",
		"missing dsn": "store:\n  driver: postgres",
		"bad driver":  "store:\n  driver: mongo",
		"bad upload":  "server:\n  max_upload_mb: -5",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", content)
			_, err := LoadMainConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMainConfigOrDefault(t *testing.T) {
	c, err := LoadMainConfigOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	_, err = LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:    "debug",
		EnvServerAddr:  "127.0.0.1:9000",
		EnvStoreDriver: "postgres",
		EnvStoreDSN:    "postgres://localhost/plans?sslmode=disable",
	}

	c := Default()
	require.NoError(t, ApplyEnv(c, func(k string) string { return env[k] }))
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "127.0.0.1:9000", c.Server.Addr)
	assert.Equal(t, DriverPostgres, c.Store.Driver)
	assert.Equal(t, env[EnvStoreDSN], c.Store.DSN)

	c = Default()
	err := ApplyEnv(c, func(k string) string {
		if k == EnvStoreDriver {
			return "postgres"
		}
		return ""
	})
	assert.Error(t, err, "postgres without a DSN")
}

func TestDepartmentProfiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ceng.yaml", `
name: Computer Engineering
file_matching_patterns: ["ceng*_*.xlsx", "ceng*.csv"]
parser:
  major_code_prefix: CENG
`)
	writeFile(t, dir, "civil.yml", `
file_matching_patterns: ["civ*.csv"]
parser:
  csv_delimiter: semicolon
`)

	profiles, err := LoadDepartmentProfiles(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "civil", profiles[1].Name)

	c := Default()

	settings, name := c.ParserFor("input/ceng12_2024.xlsx", profiles)
	assert.Equal(t, "Computer Engineering", name)
	assert.Equal(t, "CENG", settings.MajorCodePrefix)
	assert.Equal(t, ",", settings.CSVDelimiter)

	settings, name = c.ParserFor("civ-plan.csv", profiles)
	assert.Equal(t, "civil", name)
	assert.Equal(t, "TENG", settings.MajorCodePrefix)
	assert.Equal(t, "semicolon", settings.CSVDelimiter)

	settings, name = c.ParserFor("teng43.xlsx", profiles)
	assert.Empty(t, name)
	assert.Equal(t, c.Parser, settings)
}

func TestDepartmentProfilesMissingDirAndInvalid(t *testing.T) {
	profiles, err := LoadDepartmentProfiles(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, profiles)

	dir := t.TempDir()
	writeFile(t, dir, "empty.yaml", "name: nothing\n")
	_, err = LoadDepartmentProfiles(dir)
	assert.Error(t, err)
}
