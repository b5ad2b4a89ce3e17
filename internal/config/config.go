package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/xhit/go-str2duration/v2"
)

type StorageDriver string

const (
	StoragePostgres StorageDriver = "postgres"
	StorageMemory   StorageDriver = "memory"
)

type ExchangeDriver string

const (
	ExchangeREST ExchangeDriver = "rest"
	ExchangeSDK  ExchangeDriver = "sdk"
)

type CredentialsSource string

const (
	CredentialsEnv      CredentialsSource = "env"
	CredentialsPostgres CredentialsSource = "postgres"
)

// Config is the process configuration. Trading parameters are not here: they
// live in the settings document and are resolved per invocation.
type Config struct {
	StorageDriver StorageDriver
	DatabaseURL   string
	SettingsID    string

	Symbol     string
	BaseAsset  string
	QuoteAsset string

	PriceLookback time.Duration
	RunInterval   time.Duration
	CallTimeout   time.Duration

	ExchangeDriver    ExchangeDriver
	TestnetBaseURL    string
	ProductionBaseURL string
	RecvWindow        int64

	CredentialsSource   CredentialsSource
	EncryptionKey       string
	TestnetAPIKey       string
	TestnetAPISecret    string
	ProductionAPIKey    string
	ProductionAPISecret string

	FirebaseCredentialsPath string
	FirebaseCredentialsJSON string
	FCMTopic                string

	TelegramToken  string
	TelegramChatID int64

	HTTPAddr      string
	HTTPRateLimit float64

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads envFile if it exists (without overriding variables already set)
// and builds a validated Config from the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	cfg := Config{
		StorageDriver: StorageDriver(getString("STORAGE_DRIVER", string(StoragePostgres))),
		DatabaseURL:   getString("DATABASE_URL", ""),
		SettingsID:    getString("SETTINGS_ID", "default"),

		Symbol:     getString("SYMBOL", "BTCUSDT"),
		BaseAsset:  getString("BASE_ASSET", "BTC"),
		QuoteAsset: getString("QUOTE_ASSET", "USDT"),

		ExchangeDriver:    ExchangeDriver(getString("EXCHANGE_DRIVER", string(ExchangeREST))),
		TestnetBaseURL:    getString("BINANCE_TESTNET_URL", "https://testnet.binance.vision"),
		ProductionBaseURL: getString("BINANCE_PRODUCTION_URL", "https://api.binance.com"),

		CredentialsSource:   CredentialsSource(getString("CREDENTIALS_SOURCE", string(CredentialsEnv))),
		EncryptionKey:       getString("CREDENTIALS_ENCRYPTION_KEY", ""),
		TestnetAPIKey:       getString("BINANCE_TESTNET_API_KEY", ""),
		TestnetAPISecret:    getString("BINANCE_TESTNET_API_SECRET", ""),
		ProductionAPIKey:    getString("BINANCE_PRODUCTION_API_KEY", ""),
		ProductionAPISecret: getString("BINANCE_PRODUCTION_API_SECRET", ""),

		FirebaseCredentialsPath: getString("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseCredentialsJSON: getString("FIREBASE_CREDENTIALS_JSON", ""),
		FCMTopic:                getString("FCM_TOPIC", "bitcoin-signals"),

		TelegramToken: getString("TELEGRAM_TOKEN", ""),

		HTTPAddr: getString("HTTP_ADDR", ":8080"),

		LogLevel:  getString("LOG_LEVEL", "info"),
		LogFormat: getString("LOG_FORMAT", "text"),
		LogFile:   getString("LOG_FILE", ""),
	}

	var err error
	if cfg.PriceLookback, err = getDuration("PRICE_LOOKBACK", 30*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.RunInterval, err = getDuration("RUN_INTERVAL", time.Minute); err != nil {
		return cfg, err
	}
	if cfg.CallTimeout, err = getDuration("CALL_TIMEOUT", 10*time.Second); err != nil {
		return cfg, err
	}
	if cfg.RecvWindow, err = getInt("BINANCE_RECV_WINDOW", 5000); err != nil {
		return cfg, err
	}
	if cfg.TelegramChatID, err = getInt("TELEGRAM_CHAT_ID", 0); err != nil {
		return cfg, err
	}
	if cfg.HTTPRateLimit, err = getFloat("HTTP_RATE_LIMIT", 5); err != nil {
		return cfg, err
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.StorageDriver != StoragePostgres && cfg.StorageDriver != StorageMemory {
		return fmt.Errorf("invalid STORAGE_DRIVER: %s", cfg.StorageDriver)
	}
	if cfg.StorageDriver == StoragePostgres && cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required with the postgres storage driver")
	}
	if cfg.ExchangeDriver != ExchangeREST && cfg.ExchangeDriver != ExchangeSDK {
		return fmt.Errorf("invalid EXCHANGE_DRIVER: %s", cfg.ExchangeDriver)
	}
	if cfg.CredentialsSource != CredentialsEnv && cfg.CredentialsSource != CredentialsPostgres {
		return fmt.Errorf("invalid CREDENTIALS_SOURCE: %s", cfg.CredentialsSource)
	}
	if cfg.CredentialsSource == CredentialsPostgres {
		if cfg.StorageDriver != StoragePostgres {
			return fmt.Errorf("CREDENTIALS_SOURCE=postgres requires STORAGE_DRIVER=postgres")
		}
		if len(cfg.EncryptionKey) < 16 {
			return fmt.Errorf("CREDENTIALS_ENCRYPTION_KEY must be at least 16 characters")
		}
	}
	if cfg.Symbol == "" || cfg.BaseAsset == "" || cfg.QuoteAsset == "" {
		return fmt.Errorf("SYMBOL, BASE_ASSET and QUOTE_ASSET must be set")
	}
	if cfg.PriceLookback <= 0 {
		return fmt.Errorf("PRICE_LOOKBACK must be > 0")
	}
	if cfg.RunInterval <= 0 {
		return fmt.Errorf("RUN_INTERVAL must be > 0")
	}
	if cfg.CallTimeout <= 0 {
		return fmt.Errorf("CALL_TIMEOUT must be > 0")
	}
	if cfg.HTTPRateLimit <= 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT must be > 0")
	}
	return nil
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// getDuration accepts Go durations plus day/week units ("1d", "1w2h").
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := str2duration.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
