// Package config loads the application configuration from a YAML file
// with environment variable overrides.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/segundavia/boleto_bot/internal/adapters/bank"
)

type AppConfig struct {
	Env        string `yaml:"env" env:"APP_ENV" env-default:"prod"`
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR" env-default:":8080"`
	RedisURL   string `yaml:"redis_url" env:"REDIS_URL"`

	// Pepper is mixed into identifier hashes; rotating it orphans
	// stored sessions, which is acceptable given their short TTL.
	Pepper     string        `yaml:"pepper" env:"IDENTIFIER_PEPPER"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"15m"`

	LookupLimit  int           `yaml:"lookup_limit" env:"LOOKUP_LIMIT" env-default:"5"`
	LookupWindow time.Duration `yaml:"lookup_window" env:"LOOKUP_WINDOW" env-default:"10m"`

	Webhook  WebhookConfig  `yaml:"webhook"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Storage  StorageConfig  `yaml:"storage"`

	AuditWebhookURL string `yaml:"audit_webhook_url" env:"AUDIT_WEBHOOK_URL"`

	SiteURL     string `yaml:"site_url" env:"SITE_URL"`
	ContactText string `yaml:"contact_text" env:"CONTACT_TEXT"`

	Norte bank.NorteConfig `yaml:"norte"`
	Azul  bank.AzulConfig  `yaml:"azul"`
}

type WebhookConfig struct {
	VerifyToken string  `yaml:"verify_token" env:"WEBHOOK_VERIFY_TOKEN"`
	AppSecret   string  `yaml:"app_secret" env:"WEBHOOK_APP_SECRET"`
	RateLimit   float64 `yaml:"rate_limit" env:"WEBHOOK_RATE_LIMIT" env-default:"20"`
	RateBurst   int     `yaml:"rate_burst" env:"WEBHOOK_RATE_BURST" env-default:"40"`
}

type WhatsAppConfig struct {
	BaseURL       string `yaml:"base_url" env:"WHATSAPP_BASE_URL" env-default:"https://graph.facebook.com/v19.0"`
	PhoneNumberID string `yaml:"phone_number_id" env:"WHATSAPP_PHONE_NUMBER_ID"`
	Token         string `yaml:"token" env:"WHATSAPP_TOKEN"`
}

type StorageConfig struct {
	BaseURL string `yaml:"base_url" env:"STORAGE_BASE_URL"`
	Bucket  string `yaml:"bucket" env:"STORAGE_BUCKET"`
	Token   string `yaml:"token" env:"STORAGE_TOKEN"`
}

func Load() (*AppConfig, error) {
	var cfg AppConfig

	path := fetchConfigPath()
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env config: %w", err)
		}
	}

	if cfg.Pepper == "" {
		return nil, fmt.Errorf("IDENTIFIER_PEPPER must be set")
	}
	if cfg.WhatsApp.PhoneNumberID == "" || cfg.WhatsApp.Token == "" {
		return nil, fmt.Errorf("WHATSAPP_PHONE_NUMBER_ID and WHATSAPP_TOKEN must be set")
	}

	return &cfg, nil
}

// fetchConfigPath fetches config path from command line flag or environment variable.
// Priority: flag > env > default.
// Default value is empty string.
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	return res
}
