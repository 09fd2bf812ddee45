package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("BOOKBOT_TG_TOKEN", "token-from-env")
	t.Setenv("GIGACHAT_AUTH_KEY", "key-from-env")
	t.Setenv("ADMIN_USER_ID", "1000")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("BOOKBOT_PENDING_TTL_SECONDS", "120")
	t.Setenv("BOOKBOT_IMAGES_DIR", "/tmp/scans")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logLevel: "debug"
telegramToken: "token-from-file"
gigachatAuthKey: "key-from-file"
redisAddr: "localhost:6379"
pendingTtlSeconds: 3600
imagesDir: "images"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.TelegramToken != "token-from-env" {
		t.Fatalf("telegramToken = %q, want env value", cfg.TelegramToken)
	}
	if cfg.GigaChatAuthKey != "key-from-env" {
		t.Fatalf("gigachatAuthKey = %q, want env value", cfg.GigaChatAuthKey)
	}
	if cfg.AdminUserID != "1000" {
		t.Fatalf("adminUserId = %q", cfg.AdminUserID)
	}
	if cfg.RedisAddr != "redis:6380" {
		t.Fatalf("redisAddr = %q", cfg.RedisAddr)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("redisDb = %d", cfg.RedisDB)
	}
	if cfg.PendingTTLSeconds != 120 {
		t.Fatalf("pendingTtlSeconds = %d", cfg.PendingTTLSeconds)
	}
	if cfg.ImagesDir != "/tmp/scans" {
		t.Fatalf("imagesDir = %q", cfg.ImagesDir)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("logLevel = %q", cfg.LogLevel)
	}
}

func TestLoadMissingFileUsesEnvAndDefaults(t *testing.T) {
	t.Setenv("BOOKBOT_TG_TOKEN", "token")
	t.Setenv("GIGACHAT_AUTH_KEY", "key")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("redisAddr default = %q", cfg.RedisAddr)
	}
	if cfg.PendingTTLSeconds != 3600 {
		t.Fatalf("pendingTtlSeconds default = %d", cfg.PendingTTLSeconds)
	}
	if cfg.ImagesDir != "images" {
		t.Fatalf("imagesDir default = %q", cfg.ImagesDir)
	}
}

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("BOOKBOT_TG_TOKEN", "")
	t.Setenv("GIGACHAT_AUTH_KEY", "")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "telegram token") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("BOOKBOT_TG_TOKEN", "token")
	t.Setenv("GIGACHAT_AUTH_KEY", "key")
	t.Setenv("BOOKBOT_PENDING_TTL_SECONDS", "0")

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for zero TTL")
	}
}
