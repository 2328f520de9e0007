package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultEndpoint is the hosted conversion service.
const DefaultEndpoint = "https://imagetoolbackend.onrender.com/convert"

// Backend describes the remote conversion service.
type Backend struct {
	Endpoint  string `toml:"endpoint"`
	UserAgent string `toml:"user_agent"`
}

// Identity configures the local identity provider.
type Identity struct {
	Issuer          string `toml:"issuer"`
	TokenSecret     string `toml:"token_secret"`
	TokenTTLSeconds int    `toml:"token_ttl_seconds"`
}

// Download selects the sink that receives converted-images.zip.
// CredentialsKey names an entry in the credentials store holding the
// sink's access info; the directServe sink needs none.
type Download struct {
	Sink           string `toml:"sink"`
	Dir            string `toml:"dir"`
	CredentialsKey string `toml:"credentials_key"`
}

// Logging controls the logger package.
type Logging struct {
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
	File    bool   `toml:"file"`
}

// Server configures the loopback conversion endpoint started by `serve`.
type Server struct {
	Bind string `toml:"bind"`
}

// Config is the full configuration.
type Config struct {
	DataDir  string   `toml:"data_dir"`
	Backend  Backend  `toml:"backend"`
	Identity Identity `toml:"identity"`
	Download Download `toml:"download"`
	Logging  Logging  `toml:"logging"`
	Server   Server   `toml:"server"`
}

// Sink names understood by writerBackends.
var validSinks = map[string]bool{
	"directServe": true,
	"s3":          true,
	"gcs":         true,
	"sftp":        true,
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DataDir: GetDataDir(),
		Backend: Backend{
			Endpoint:  DefaultEndpoint,
			UserAgent: "imageconverter/1.0",
		},
		Identity: Identity{
			Issuer:          "imageconverter-local",
			TokenTTLSeconds: 300,
		},
		Download: Download{
			Sink: "directServe",
			Dir:  GetDownloadDir(),
		},
		Logging: Logging{
			Level:   "info",
			Console: true,
		},
		Server: Server{
			Bind: "127.0.0.1:8080",
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/imageconverter/config.toml")
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load locates, parses, and validates a configuration file, then applies
// IMAGECONVERTER_* environment overrides. It returns the config, the path
// that was considered, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("IMAGECONVERTER_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("IMAGECONVERTER_ENDPOINT"); v != "" {
		c.Backend.Endpoint = v
	}
	if v := os.Getenv("IMAGECONVERTER_TOKEN_SECRET"); v != "" {
		c.Identity.TokenSecret = v
	}
	if v := os.Getenv("IMAGECONVERTER_TOKEN_TTL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMAGECONVERTER_TOKEN_TTL: %w", err)
		}
		c.Identity.TokenTTLSeconds = n
	}
	if v := os.Getenv("IMAGECONVERTER_DOWNLOAD_DIR"); v != "" {
		c.Download.Dir = v
	}
	if v := os.Getenv("IMAGECONVERTER_SINK"); v != "" {
		c.Download.Sink = v
	}
	if v := os.Getenv("IMAGECONVERTER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.DataDir, err = expandPath(strings.TrimSpace(c.DataDir)); err != nil {
		return err
	}
	if c.Download.Dir, err = expandPath(strings.TrimSpace(c.Download.Dir)); err != nil {
		return err
	}
	c.Backend.Endpoint = strings.TrimSpace(c.Backend.Endpoint)
	c.Download.Sink = strings.TrimSpace(c.Download.Sink)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	u, err := url.Parse(c.Backend.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.endpoint must be an absolute http(s) URL, got %q", c.Backend.Endpoint)
	}
	if c.Identity.TokenTTLSeconds <= 0 {
		return errors.New("identity.token_ttl_seconds must be positive")
	}
	if !validSinks[c.Download.Sink] {
		return fmt.Errorf("download.sink %q is not one of directServe, s3, gcs, sftp", c.Download.Sink)
	}
	if c.Download.Sink == "directServe" && c.Download.Dir == "" {
		return errors.New("download.dir must be set for the directServe sink")
	}
	if c.Download.Sink != "directServe" && c.Download.CredentialsKey == "" {
		return fmt.Errorf("download.credentials_key is required for the %s sink", c.Download.Sink)
	}
	return nil
}

// EnsureDirectories creates the data and download directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if c.Download.Sink == "directServe" {
		dirs = append(dirs, c.Download.Dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("imageconverter.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
