package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Bot      BotConfig
	API      APIConfig
	Ledger   LedgerConfig
	Checkout CheckoutConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

// BotConfig configures the Telegram payment report channel.
type BotConfig struct {
	Token      string
	ReportChat int64
}

type APIConfig struct {
	Key string
}

// LedgerConfig points at the backend that owns transactions and saved cards.
type LedgerConfig struct {
	BaseURL      string
	TenantPrefix string
	Timeout      time.Duration
	RetryCount   int
}

type CheckoutConfig struct {
	HostedGateway string
	RetryDelay    time.Duration
	MaxRetries    int
	PollInterval  time.Duration
	TickInterval  time.Duration
	SessionTTL    time.Duration
	CallbackTTL   time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LEDGER_TIMEOUT", "30s")
	viper.SetDefault("LEDGER_RETRY_COUNT", 2)
	viper.SetDefault("CHECKOUT_HOSTED_GATEWAY", "Flutterwave")
	viper.SetDefault("CHECKOUT_RETRY_DELAY", "5s")
	viper.SetDefault("CHECKOUT_MAX_RETRIES", 6)
	viper.SetDefault("CHECKOUT_POLL_INTERVAL", "10s")
	viper.SetDefault("CHECKOUT_TICK_INTERVAL", "1s")
	viper.SetDefault("CHECKOUT_SESSION_TTL", "15m")
	viper.SetDefault("CHECKOUT_CALLBACK_TTL", "24h")

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Bot: BotConfig{
			Token:      viper.GetString("BOT_TOKEN"),
			ReportChat: viper.GetInt64("BOT_REPORT_CHAT"),
		},
		API: APIConfig{
			Key: viper.GetString("API_KEY"),
		},
		Ledger: LedgerConfig{
			BaseURL:      viper.GetString("LEDGER_BASE_URL"),
			TenantPrefix: viper.GetString("LEDGER_TENANT_PREFIX"),
			Timeout:      duration("LEDGER_TIMEOUT", 30*time.Second),
			RetryCount:   viper.GetInt("LEDGER_RETRY_COUNT"),
		},
		Checkout: CheckoutConfig{
			HostedGateway: viper.GetString("CHECKOUT_HOSTED_GATEWAY"),
			RetryDelay:    duration("CHECKOUT_RETRY_DELAY", 5*time.Second),
			MaxRetries:    viper.GetInt("CHECKOUT_MAX_RETRIES"),
			PollInterval:  duration("CHECKOUT_POLL_INTERVAL", 10*time.Second),
			TickInterval:  duration("CHECKOUT_TICK_INTERVAL", time.Second),
			SessionTTL:    duration("CHECKOUT_SESSION_TTL", 15*time.Minute),
			CallbackTTL:   duration("CHECKOUT_CALLBACK_TTL", 24*time.Hour),
		},
	}

	if cfg.Ledger.BaseURL == "" {
		log.Println("WARNING: LEDGER_BASE_URL is not set")
	}
	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set, payment attempts will not be recorded")
	}

	return cfg, nil
}

func duration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
