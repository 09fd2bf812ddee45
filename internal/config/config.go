package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML. Credentials are
// expected from the environment; the file carries the non-secret defaults.
type FileConfig struct {
	LogLevel          string `yaml:"logLevel"`
	TelegramToken     string `yaml:"telegramToken"`
	GigaChatAuthKey   string `yaml:"gigachatAuthKey"`
	GigaChatModel     string `yaml:"gigachatModel"`
	AdminUserID       string `yaml:"adminUserId"`
	RedisAddr         string `yaml:"redisAddr"`
	RedisPassword     string `yaml:"redisPassword"`
	RedisDB           int    `yaml:"redisDb"`
	PendingTTLSeconds int    `yaml:"pendingTtlSeconds"`
	ImagesDir         string `yaml:"imagesDir"`
}

// Load reads config from path (defaults to config.yaml). A missing file is
// not an error: every field can come from the environment.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{
		RedisAddr:         "localhost:6379",
		PendingTTLSeconds: 3600,
		ImagesDir:         "images",
	}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if v := os.Getenv("BOOKBOT_TG_TOKEN"); v != "" {
		cfg.TelegramToken = strings.TrimSpace(v)
	}
	if v := os.Getenv("GIGACHAT_AUTH_KEY"); v != "" {
		cfg.GigaChatAuthKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("GIGACHAT_MODEL"); v != "" {
		cfg.GigaChatModel = strings.TrimSpace(v)
	}
	if v := os.Getenv("ADMIN_USER_ID"); v != "" {
		cfg.AdminUserID = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.RedisDB = n
		}
	}
	if v := os.Getenv("BOOKBOT_PENDING_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.PendingTTLSeconds = n
		}
	}
	if v := os.Getenv("BOOKBOT_IMAGES_DIR"); v != "" {
		cfg.ImagesDir = strings.TrimSpace(v)
	}
	if v := os.Getenv("BOOKBOT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.TelegramToken == "" {
		return errors.New("config: telegram token is required (set BOOKBOT_TG_TOKEN)")
	}
	if cfg.GigaChatAuthKey == "" {
		return errors.New("config: gigachat auth key is required (set GIGACHAT_AUTH_KEY)")
	}
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required")
	}
	if cfg.PendingTTLSeconds <= 0 {
		return errors.New("config: pendingTtlSeconds must be > 0")
	}
	return nil
}
