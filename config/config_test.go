package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imageconverter/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("IMAGECONVERTER_DATA_DIR", "")
	t.Setenv("IMAGECONVERTER_DOWNLOAD_DIR", "")
	t.Setenv("IMAGECONVERTER_ENDPOINT", "")
	t.Setenv("IMAGECONVERTER_SINK", "")

	cfg, resolved, exists, err := config.Load(filepath.Join(home, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if resolved != filepath.Join(home, "missing.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Backend.Endpoint != config.DefaultEndpoint {
		t.Fatalf("unexpected endpoint %q", cfg.Backend.Endpoint)
	}
	if cfg.DataDir != filepath.Join(home, ".local", "share", "imageconverter") {
		t.Fatalf("unexpected data dir %q", cfg.DataDir)
	}
	if cfg.Download.Dir != filepath.Join(home, "Downloads") {
		t.Fatalf("unexpected download dir %q", cfg.Download.Dir)
	}
	if cfg.Download.Sink != "directServe" {
		t.Fatalf("unexpected sink %q", cfg.Download.Sink)
	}
	if cfg.CredentialsDBPath() != filepath.Join(cfg.DataDir, "credentials.db") {
		t.Fatalf("unexpected credentials path %q", cfg.CredentialsDBPath())
	}
	if cfg.LogFilePath() != "" {
		t.Fatalf("file logging should be off by default, got %q", cfg.LogFilePath())
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
data_dir = "` + filepath.ToSlash(filepath.Join(dir, "data")) + `"

[backend]
endpoint = "http://localhost:9000/convert"

[identity]
token_ttl_seconds = 60

[logging]
level = "DEBUG"
file = true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("IMAGECONVERTER_DATA_DIR", "")
	t.Setenv("IMAGECONVERTER_ENDPOINT", "")
	t.Setenv("IMAGECONVERTER_TOKEN_SECRET", "from-env")
	t.Setenv("IMAGECONVERTER_DOWNLOAD_DIR", filepath.Join(dir, "out"))
	t.Setenv("IMAGECONVERTER_SINK", "")
	t.Setenv("IMAGECONVERTER_LOG_LEVEL", "")

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Backend.Endpoint != "http://localhost:9000/convert" {
		t.Fatalf("unexpected endpoint %q", cfg.Backend.Endpoint)
	}
	if cfg.Identity.TokenTTLSeconds != 60 {
		t.Fatalf("unexpected ttl %d", cfg.Identity.TokenTTLSeconds)
	}
	if cfg.Identity.TokenSecret != "from-env" {
		t.Fatalf("expected token secret from env, got %q", cfg.Identity.TokenSecret)
	}
	if cfg.Download.Dir != filepath.Join(dir, "out") {
		t.Fatalf("unexpected download dir %q", cfg.Download.Dir)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized level, got %q", cfg.Logging.Level)
	}
	if !strings.HasPrefix(cfg.LogFilePath(), filepath.Join(dir, "data")) {
		t.Fatalf("unexpected log path %q", cfg.LogFilePath())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"relative endpoint", func(c *config.Config) { c.Backend.Endpoint = "/convert" }, "backend.endpoint"},
		{"ftp endpoint", func(c *config.Config) { c.Backend.Endpoint = "ftp://host/convert" }, "backend.endpoint"},
		{"zero ttl", func(c *config.Config) { c.Identity.TokenTTLSeconds = 0 }, "token_ttl_seconds"},
		{"unknown sink", func(c *config.Config) { c.Download.Sink = "dropbox" }, "download.sink"},
		{"s3 without key", func(c *config.Config) { c.Download.Sink = "s3" }, "credentials_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.DataDir = t.TempDir()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadDotEnvMissingFileIsNotAnError(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadDotEnvDoesNotOverrideExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("IMAGECONVERTER_SINK=s3\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("IMAGECONVERTER_SINK", "directServe")
	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("IMAGECONVERTER_SINK"); got != "directServe" {
		t.Fatalf("existing variable overridden: %q", got)
	}
}
