package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("address = %q", cfg.Server.Address)
	}
	if cfg.Database.Driver != DriverMongo {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.JWT.Expiration != time.Hour {
		t.Errorf("jwt expiration = %v", cfg.JWT.Expiration)
	}
	if cfg.Photos.URLExpiry != 15*time.Minute {
		t.Errorf("photo expiry = %v", cfg.Photos.URLExpiry)
	}
	if cfg.S3.Enabled() {
		t.Error("s3 enabled without a bucket")
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("server:\n  address: \":9090\"\ndatabase:\n  driver: memory\njwt:\n  secret: file-secret\n  expiration: 30m\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Address != ":9090" || cfg.Database.Driver != DriverMemory {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("secret = %q, want env override", cfg.JWT.Secret)
	}
	if cfg.JWT.Expiration != 30*time.Minute {
		t.Errorf("expiration = %v", cfg.JWT.Expiration)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
