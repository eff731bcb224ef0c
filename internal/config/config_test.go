package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"kudos/internal/config"
)

func TestNew_NoSettingsFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Dir != dir {
		t.Errorf("Dir = %q, want %q", cfg.Dir, dir)
	}
	if cfg.Settings != (config.Settings{}) {
		t.Errorf("expected zero settings, got %+v", cfg.Settings)
	}
}

func TestNew_ReadsSettings(t *testing.T) {
	dir := t.TempDir()
	settings := `chat_space: family-room
chat_webhook_url: https://chat.googleapis.com/v1/spaces/x/messages?key=k
app_url: https://kudos.example.com
sync_dir: /mnt/shared/kudos
`
	if err := os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte(settings), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Settings.ChatSpace != "family-room" {
		t.Errorf("ChatSpace = %q", cfg.Settings.ChatSpace)
	}
	if cfg.Settings.SyncDir != "/mnt/shared/kudos" {
		t.Errorf("SyncDir = %q", cfg.Settings.SyncDir)
	}
	if cfg.Settings.AppURL != "https://kudos.example.com" {
		t.Errorf("AppURL = %q", cfg.Settings.AppURL)
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte("::not yaml::"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.New(dir); err == nil {
		t.Error("expected error for invalid settings file")
	}
}

func TestReadServiceAccount(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := cfg.ReadServiceAccount()
	if err != nil {
		t.Fatalf("ReadServiceAccount: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil for absent credential, got %q", data)
	}
	if cfg.HasServiceAccount() {
		t.Error("HasServiceAccount should be false")
	}

	if err := os.WriteFile(cfg.ServiceAccountPath(), []byte(`{"client_email":"x"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	data, err = cfg.ReadServiceAccount()
	if err != nil {
		t.Fatalf("ReadServiceAccount: %v", err)
	}
	if string(data) != `{"client_email":"x"}` {
		t.Errorf("unexpected credential %q", data)
	}
	if !cfg.HasServiceAccount() {
		t.Error("HasServiceAccount should be true")
	}
}

func TestPaths(t *testing.T) {
	cfg := &config.Config{Dir: "/tmp/kudos-test"}
	if cfg.SettingsPath() != filepath.Join("/tmp/kudos-test", config.SettingsFile) {
		t.Errorf("SettingsPath = %q", cfg.SettingsPath())
	}
	if cfg.CachePath() != filepath.Join("/tmp/kudos-test", config.CacheFile) {
		t.Errorf("CachePath = %q", cfg.CachePath())
	}
}
