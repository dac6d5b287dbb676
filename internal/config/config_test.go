package config

import "testing"

func TestStoreConfigFromEnv(t *testing.T) {
	t.Setenv("HELIX_S3_ENDPOINT", "minio:9000")
	t.Setenv("HELIX_S3_ACCESS_KEY", "ak")
	t.Setenv("HELIX_S3_SECRET_KEY", "sk")
	t.Setenv("HELIX_S3_BUCKET", "helix")
	t.Setenv("HELIX_S3_REGION", "eu-west-1")

	cfg := StoreConfigFromEnv()
	if cfg.Endpoint != "minio:9000" || cfg.AccessKey != "ak" || cfg.SecretKey != "sk" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Bucket != "helix" || cfg.Region != "eu-west-1" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.UseSSL {
		t.Error("TLS must default to on")
	}
}

func TestStoreConfigFromEnv_InsecureParsing(t *testing.T) {
	tests := []struct {
		value  string
		useSSL bool
	}{
		{"", true},
		{"false", true},
		{"0", true},
		{"garbage", true},
		{"true", false},
		{"1", false},
	}
	for _, tt := range tests {
		t.Setenv("HELIX_S3_INSECURE", tt.value)
		if got := StoreConfigFromEnv().UseSSL; got != tt.useSSL {
			t.Errorf("HELIX_S3_INSECURE=%q: UseSSL = %v, want %v", tt.value, got, tt.useSSL)
		}
	}
}

func TestDefaultCompileConfig(t *testing.T) {
	cfg := DefaultCompileConfig()
	if cfg.SnakefilePath != "Snakefile" {
		t.Errorf("SnakefilePath = %q", cfg.SnakefilePath)
	}
	if cfg.OutputDir != "." {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.CachePath == "" {
		t.Error("CachePath must have a default")
	}
}
