package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// CompileConfig holds configuration for a workflow compilation run.
type CompileConfig struct {
	SnakefilePath   string // Snakefile path inside the task container
	MetadataPath    string // helix_metadata.yaml location, optional
	RemoteOutputURL string // override destination for terminal outputs
	OutputDir       string // where entrypoint and spec files are written
	CachePath       string // SQLite compile cache (default ~/.helix/helix.db)
	LogLevel        string // debug, info, warn, error
	LogFormat       string // text, json
}

// DefaultCompileConfig returns sensible defaults.
func DefaultCompileConfig() CompileConfig {
	return CompileConfig{
		SnakefilePath: "Snakefile",
		OutputDir:     ".",
		CachePath:     defaultCachePath(),
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "helix.db"
	}
	return filepath.Join(home, ".helix", "helix.db")
}

// StoreConfig holds the content-store connection settings, read from the
// HELIX_S3_* environment.
type StoreConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StoreConfigFromEnv reads the content-store settings from the
// environment. Missing values are left empty; the uploader validates.
// TLS stays on unless HELIX_S3_INSECURE parses as true.
func StoreConfigFromEnv() StoreConfig {
	insecure, _ := strconv.ParseBool(os.Getenv("HELIX_S3_INSECURE"))
	return StoreConfig{
		Endpoint:  os.Getenv("HELIX_S3_ENDPOINT"),
		Region:    os.Getenv("HELIX_S3_REGION"),
		AccessKey: os.Getenv("HELIX_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("HELIX_S3_SECRET_KEY"),
		Bucket:    os.Getenv("HELIX_S3_BUCKET"),
		UseSSL:    !insecure,
	}
}
