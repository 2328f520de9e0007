package config

import (
	"os"
	"path/filepath"
)

// getDataDir determines the data directory path from environment or default.
// Priority: IMAGECONVERTER_DATA_DIR environment variable > ~/.local/share/imageconverter
func getDataDir() string {
	if dir := os.Getenv("IMAGECONVERTER_DATA_DIR"); dir != "" {
		return dir
	}
	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return filepath.Join(base, "imageconverter")
	}
	return "~/.local/share/imageconverter"
}

// GetDataDir returns the current data directory path.
// The environment is read on every call so tests can redirect it with t.Setenv.
func GetDataDir() string {
	return getDataDir()
}

// GetDownloadDir returns where converted archives are saved by the
// directServe sink when nothing else is configured.
// Priority: IMAGECONVERTER_DOWNLOAD_DIR > ~/Downloads
func GetDownloadDir() string {
	if dir := os.Getenv("IMAGECONVERTER_DOWNLOAD_DIR"); dir != "" {
		return dir
	}
	return "~/Downloads"
}

// CredentialsDBPath returns the full path to the credentials database.
// It holds the signed-in account and the download sink access info.
// Path: {DataDir}/credentials.db
func (c *Config) CredentialsDBPath() string {
	return filepath.Join(c.DataDir, "credentials.db")
}

// LogFilePath returns the rotating log file location, or "" when file
// logging is disabled.
func (c *Config) LogFilePath() string {
	if !c.Logging.File {
		return ""
	}
	return filepath.Join(c.DataDir, "logs", "imageconverter.log")
}
