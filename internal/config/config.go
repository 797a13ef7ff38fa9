package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	GatewayOrangeMoney = "orange_money"
	GatewayWave        = "wave"
	GatewayFreeMoney   = "free_money"
	GatewayEmoney      = "emoney"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Default     string
	Gateways    map[string]GatewayConfig
	Webhook     WebhookConfig
	Transaction TransactionConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Port    int
	Env     string // "development", "production"
	BaseURL string // public URL used for return/cancel/webhook links
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

// GatewayConfig holds per-provider settings. Supplied externally, never
// mutated by the service.
type GatewayConfig struct {
	Enabled      bool
	APIURL       string
	APIKey       string
	APISecret    string
	MerchantKey  string
	MerchantID   string
	MerchantCode string
	APIUsername  string
	APIPassword  string
	Currency     string
	CountryCode  string
}

type WebhookConfig struct {
	RoutePrefix string
	Secret      string
}

type TransactionConfig struct {
	// Timeout bounds how long a payment attempt is considered in flight;
	// it is also the duplicate-suppression window.
	Timeout   time.Duration
	MaxAmount float64
}

type LoggingConfig struct {
	Enabled bool
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("APP_URL", "http://localhost:8080")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("AIDA_DEFAULT_GATEWAY", GatewayOrangeMoney)
	viper.SetDefault("AIDA_WEBHOOK_ROUTE_PREFIX", "aida/webhooks")
	viper.SetDefault("AIDA_TRANSACTION_TIMEOUT", 300)
	viper.SetDefault("AIDA_MAX_AMOUNT", 10_000_000)
	viper.SetDefault("AIDA_LOGGING_ENABLED", true)

	viper.SetDefault("AIDA_ORANGE_MONEY_ENABLED", true)
	viper.SetDefault("AIDA_ORANGE_MONEY_API_URL", "https://api.orange.com/orange-money-webpay")
	viper.SetDefault("AIDA_ORANGE_MONEY_CURRENCY", "XOF")
	viper.SetDefault("AIDA_ORANGE_MONEY_COUNTRY_CODE", "221")

	viper.SetDefault("AIDA_WAVE_ENABLED", true)
	viper.SetDefault("AIDA_WAVE_API_URL", "https://api.wave.com")
	viper.SetDefault("AIDA_WAVE_CURRENCY", "XOF")
	viper.SetDefault("AIDA_WAVE_COUNTRY_CODE", "221")

	viper.SetDefault("AIDA_FREE_MONEY_ENABLED", true)
	viper.SetDefault("AIDA_FREE_MONEY_API_URL", "https://api.free.sn")
	viper.SetDefault("AIDA_FREE_MONEY_CURRENCY", "XOF")
	viper.SetDefault("AIDA_FREE_MONEY_COUNTRY_CODE", "221")

	viper.SetDefault("AIDA_EMONEY_ENABLED", true)
	viper.SetDefault("AIDA_EMONEY_API_URL", "https://api.emoney.sn")
	viper.SetDefault("AIDA_EMONEY_CURRENCY", "XOF")
	viper.SetDefault("AIDA_EMONEY_COUNTRY_CODE", "221")

	cfg := &Config{
		Server: ServerConfig{
			Port:    viper.GetInt("APP_PORT"),
			Env:     viper.GetString("APP_ENV"),
			BaseURL: viper.GetString("APP_URL"),
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
		Default: viper.GetString("AIDA_DEFAULT_GATEWAY"),
		Gateways: map[string]GatewayConfig{
			GatewayOrangeMoney: {
				Enabled:     viper.GetBool("AIDA_ORANGE_MONEY_ENABLED"),
				APIURL:      viper.GetString("AIDA_ORANGE_MONEY_API_URL"),
				MerchantKey: viper.GetString("AIDA_ORANGE_MONEY_MERCHANT_KEY"),
				APIUsername: viper.GetString("AIDA_ORANGE_MONEY_API_USERNAME"),
				APIPassword: viper.GetString("AIDA_ORANGE_MONEY_API_PASSWORD"),
				Currency:    viper.GetString("AIDA_ORANGE_MONEY_CURRENCY"),
				CountryCode: viper.GetString("AIDA_ORANGE_MONEY_COUNTRY_CODE"),
			},
			GatewayWave: {
				Enabled:     viper.GetBool("AIDA_WAVE_ENABLED"),
				APIURL:      viper.GetString("AIDA_WAVE_API_URL"),
				APIKey:      viper.GetString("AIDA_WAVE_API_KEY"),
				APISecret:   viper.GetString("AIDA_WAVE_API_SECRET"),
				Currency:    viper.GetString("AIDA_WAVE_CURRENCY"),
				CountryCode: viper.GetString("AIDA_WAVE_COUNTRY_CODE"),
			},
			GatewayFreeMoney: {
				Enabled:     viper.GetBool("AIDA_FREE_MONEY_ENABLED"),
				APIURL:      viper.GetString("AIDA_FREE_MONEY_API_URL"),
				MerchantID:  viper.GetString("AIDA_FREE_MONEY_MERCHANT_ID"),
				APIKey:      viper.GetString("AIDA_FREE_MONEY_API_KEY"),
				APISecret:   viper.GetString("AIDA_FREE_MONEY_API_SECRET"),
				Currency:    viper.GetString("AIDA_FREE_MONEY_CURRENCY"),
				CountryCode: viper.GetString("AIDA_FREE_MONEY_COUNTRY_CODE"),
			},
			GatewayEmoney: {
				Enabled:      viper.GetBool("AIDA_EMONEY_ENABLED"),
				APIURL:       viper.GetString("AIDA_EMONEY_API_URL"),
				MerchantCode: viper.GetString("AIDA_EMONEY_MERCHANT_CODE"),
				APIKey:       viper.GetString("AIDA_EMONEY_API_KEY"),
				APISecret:    viper.GetString("AIDA_EMONEY_API_SECRET"),
				Currency:     viper.GetString("AIDA_EMONEY_CURRENCY"),
				CountryCode:  viper.GetString("AIDA_EMONEY_COUNTRY_CODE"),
			},
		},
		Webhook: WebhookConfig{
			RoutePrefix: viper.GetString("AIDA_WEBHOOK_ROUTE_PREFIX"),
			Secret:      viper.GetString("AIDA_WEBHOOK_SECRET"),
		},
		Transaction: TransactionConfig{
			Timeout:   time.Duration(viper.GetInt("AIDA_TRANSACTION_TIMEOUT")) * time.Second,
			MaxAmount: viper.GetFloat64("AIDA_MAX_AMOUNT"),
		},
		Logging: LoggingConfig{
			Enabled: viper.GetBool("AIDA_LOGGING_ENABLED"),
		},
	}

	return cfg, nil
}

// LoadDatabaseOnly loads just the database section, for schema bootstrap.
func LoadDatabaseOnly() (*DatabaseConfig, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	return &cfg.Database, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
