package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Fraud     FraudConfig     `mapstructure:"fraud"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// AuthConfig holds the service-to-service credentials accepted by the token
// endpoint. Keys are service ids, values are shared secrets.
type AuthConfig struct {
	ServiceCredentials map[string]string `mapstructure:"service_credentials"`
}

// FraudConfig holds the rule thresholds for the fraud evaluator.
type FraudConfig struct {
	HighValueThreshold  int64         `mapstructure:"high_value_threshold"`
	FrequencyThreshold  int64         `mapstructure:"frequency_threshold"`
	PeriodVolumeCeiling int64         `mapstructure:"period_volume_ceiling"`
	MagnitudeMultiplier float64       `mapstructure:"magnitude_multiplier"`
	RapidRepeatWindow   time.Duration `mapstructure:"rapid_repeat_window"`
}

type TokenizerConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// UpstreamConfig holds base URLs and the call policy for sibling services.
// An empty URL means the component runs in-process in this binary.
type UpstreamConfig struct {
	RegistryURL      string        `mapstructure:"registry_url"`
	AuthorizationURL string        `mapstructure:"authorization_url"`
	FraudURL         string        `mapstructure:"fraud_url"`
	TokenizerURL     string        `mapstructure:"tokenizer_url"`
	SettlementURL    string        `mapstructure:"settlement_url"`
	DenialURL        string        `mapstructure:"denial_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RetryMax         int           `mapstructure:"retry_max"`
	RetryBackoff     time.Duration `mapstructure:"retry_backoff"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: CPP_ (Card Payment Pipeline).
// Nested keys use underscore: CPP_DATABASE_HOST, CPP_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "card_pipeline")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "30m")
	v.SetDefault("jwt.issuer", "card-payment-pipeline")
	v.SetDefault("fraud.high_value_threshold", 10000)
	v.SetDefault("fraud.frequency_threshold", 5)
	v.SetDefault("fraud.period_volume_ceiling", 15000)
	v.SetDefault("fraud.magnitude_multiplier", 5.0)
	v.SetDefault("fraud.rapid_repeat_window", "30s")
	v.SetDefault("tokenizer.ttl", "15m")
	v.SetDefault("upstream.registry_url", "")
	v.SetDefault("upstream.authorization_url", "")
	v.SetDefault("upstream.fraud_url", "")
	v.SetDefault("upstream.tokenizer_url", "")
	v.SetDefault("upstream.settlement_url", "")
	v.SetDefault("upstream.denial_url", "")
	v.SetDefault("upstream.timeout", "5s")
	v.SetDefault("upstream.retry_max", 3)
	v.SetDefault("upstream.retry_backoff", "500ms")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: CPP_DATABASE_HOST -> database.host
	v.SetEnvPrefix("CPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
