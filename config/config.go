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
	AES       AESConfig       `mapstructure:"aes"`
	Log       LogConfig       `mapstructure:"log"`
	Games     GamesConfig     `mapstructure:"games"`
	Round     RoundConfig     `mapstructure:"round"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Fraud     FraudConfig     `mapstructure:"fraud"`
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

type AESConfig struct {
	Key string `mapstructure:"key"` // 32-byte hex-encoded key for AES-256
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// GamesConfig tunes paytables and wager bounds shared by the game engines.
type GamesConfig struct {
	HouseEdge       float64       `mapstructure:"house_edge"`       // e.g. 0.01
	MaxMultiplier   float64       `mapstructure:"max_multiplier"`   // dice payout cap
	MaxWin          int64         `mapstructure:"max_win"`          // absolute payout cap per wager
	MinStake        int64         `mapstructure:"min_stake"`
	MaxStake        int64         `mapstructure:"max_stake"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`      // orphaned-session safety net
	StartingCredits int64         `mapstructure:"starting_credits"` // granted at registration
}

// RoundConfig tunes the continuous-roulette scheduler.
type RoundConfig struct {
	BettingWindow      time.Duration `mapstructure:"betting_window"`
	TickInterval       time.Duration `mapstructure:"tick_interval"`
	RestInterval       time.Duration `mapstructure:"rest_interval"` // pause between broadcast and reopen
	MaxBetsPerAccount  int           `mapstructure:"max_bets_per_account"`
	HistoryLength      int           `mapstructure:"history_length"`
}

type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Window  time.Duration `mapstructure:"window"`
}

// FraudConfig sets the thresholds for the informational risk flags.
type FraudConfig struct {
	MaxIPsPerAccount  int64         `mapstructure:"max_ips_per_account"`
	MaxAccountsPerIP  int64         `mapstructure:"max_accounts_per_ip"`
	TrackingWindow    time.Duration `mapstructure:"tracking_window"`
	ReplayFreshness   time.Duration `mapstructure:"replay_freshness"` // max timestamp drift on signed requests
	NonceTTL          time.Duration `mapstructure:"nonce_ttl"`
	TxLockTTL         time.Duration `mapstructure:"tx_lock_ttl"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: CASINO_.
// Nested keys use underscore: CASINO_DATABASE_HOST, CASINO_JWT_SECRET, etc.
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
	v.SetDefault("database.dbname", "casino_core")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "casino-core")
	v.SetDefault("aes.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("games.house_edge", 0.01)
	v.SetDefault("games.max_multiplier", 99.0)
	v.SetDefault("games.max_win", 1_000_000)
	v.SetDefault("games.min_stake", 1)
	v.SetDefault("games.max_stake", 100_000)
	v.SetDefault("games.session_ttl", "1h")
	v.SetDefault("games.starting_credits", 1000)
	v.SetDefault("round.betting_window", "20s")
	v.SetDefault("round.tick_interval", "1s")
	v.SetDefault("round.rest_interval", "5s")
	v.SetDefault("round.max_bets_per_account", 2)
	v.SetDefault("round.history_length", 100)
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("fraud.max_ips_per_account", 5)
	v.SetDefault("fraud.max_accounts_per_ip", 3)
	v.SetDefault("fraud.tracking_window", "24h")
	v.SetDefault("fraud.replay_freshness", "60s")
	v.SetDefault("fraud.nonce_ttl", "10m")
	v.SetDefault("fraud.tx_lock_ttl", "30s")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: CASINO_DATABASE_HOST -> database.host
	v.SetEnvPrefix("CASINO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional, env vars can suffice.
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
