package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/szooyang/ai-project01/internal/errors"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"cp949", "utf-8-sig"}, cfg.Dataset.Encodings)
	assert.Equal(t, 2025, cfg.Dataset.Year)
	assert.Equal(t, 10, cfg.Dataset.Month)
	assert.Equal(t, time.October, cfg.Dataset.Scope().Month)
	assert.Equal(t, DefaultSessionTTL, cfg.Session.TTL)
	require.NoError(t, cfg.validate())
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	path := writeYAML(t, `
server:
  port: 9090
dataset:
  file: /srv/ridership.csv
  year: 2024
  month: 3
  encodings: [utf-8-sig]
logging:
  level: DEBUG
  format: text
`)
	t.Setenv("RIDERSHIP_DATASET_MONTH", "4")
	t.Setenv("RIDERSHIP_SESSION_TTL", "5m")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/ridership.csv", cfg.Dataset.File)
	assert.Equal(t, 2024, cfg.Dataset.Year)
	assert.Equal(t, 4, cfg.Dataset.Month)
	assert.Equal(t, []string{"utf-8-sig"}, cfg.Dataset.Encodings)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadFrom_EnvList(t *testing.T) {
	t.Setenv("RIDERSHIP_DATASET_ENCODINGS", "euc-kr,utf-8")
	t.Setenv("RIDERSHIP_SECURITY_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, []string{"euc-kr", "utf-8"}, cfg.Dataset.Encodings)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad port", yaml: "server:\n  port: 70000\n"},
		{name: "bad month", env: map[string]string{"RIDERSHIP_DATASET_MONTH": "13"}},
		{name: "bad format", yaml: "logging:\n  format: xml\n"},
		{name: "no encodings", yaml: "dataset:\n  encodings: []\n"},
		{name: "unknown encoding", yaml: "dataset:\n  encodings: [cp94]\n"},
		{name: "unknown encoding from env", env: map[string]string{"RIDERSHIP_DATASET_ENCODINGS": "utf-8,latin-99"}},
		{name: "zero ttl", yaml: "session:\n  ttl: 0s\n"},
		{name: "file output without path", yaml: "logging:\n  output: file\n  file_path: \"\"\n"},
		{name: "unparsable env", env: map[string]string{"RIDERSHIP_SERVER_PORT": "eighty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeYAML(t, tt.yaml)
			}

			_, err := LoadFrom(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadFrom_UnknownEncodingIsConfigError(t *testing.T) {
	path := writeYAML(t, "dataset:\n  encodings: [cp949, cp94]\n")

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "dataset.encodings")
	assert.Contains(t, err.Error(), "cp94")
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	base := t.TempDir()
	p := NewPaths(base)

	require.NoError(t, p.EnsureDirectories())
	assert.DirExists(t, p.ExportsDir)
	assert.DirExists(t, p.LogsDir)

	inExeDir := filepath.Join("data", "month.csv")
	require.NoError(t, os.WriteFile(filepath.Join(base, inExeDir), []byte("x"), 0o644))

	assert.Equal(t, filepath.Join(base, inExeDir), p.ResolveDataFile(inExeDir))
	assert.Equal(t, "/abs/file.csv", p.ResolveDataFile("/abs/file.csv"))
	assert.Equal(t, "nowhere.csv", p.ResolveDataFile("nowhere.csv"))
}
