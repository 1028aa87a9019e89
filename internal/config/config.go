// Package config holds the service configuration, loaded from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/mintworks/launchgate/pkg/config"
)

// Oracle modes.
const (
	OracleModeStatic = "static"
	OracleModeHTTP   = "http"
)

// Config is the full service configuration.
type Config struct {
	ServiceName    string `env:"SERVICE_NAME" envDefault:"launchgate"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment    string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// AdminJWTSecret signs the bearer tokens required on mutating admin
	// routes. Empty disables the gate, for local development only.
	AdminJWTSecret string `env:"ADMIN_JWT_SECRET"`

	// OracleMode selects the signal sources: "static" serves from in-memory
	// tables, "http" calls the indexer and verification services.
	OracleMode        string        `env:"ORACLE_MODE" envDefault:"static"`
	BalanceOracleURL  string        `env:"BALANCE_ORACLE_URL"`
	SocialProviderURL string        `env:"SOCIAL_PROVIDER_URL"`
	OracleRetries     uint64        `env:"ORACLE_RETRIES" envDefault:"3"`
	OracleRetryWait   time.Duration `env:"ORACLE_RETRY_WAIT" envDefault:"100ms"`

	RedisEnabled    bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	BalanceCacheTTL time.Duration `env:"BALANCE_CACHE_TTL" envDefault:"30s"`

	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`

	ScoreWeightTwitter  float64 `env:"SCORE_WEIGHT_TWITTER" envDefault:"0.001"`
	ScoreWeightTelegram float64 `env:"SCORE_WEIGHT_TELEGRAM" envDefault:"0.01"`
	ScoreWeightDiscord  float64 `env:"SCORE_WEIGHT_DISCORD" envDefault:"0.005"`
	ScoreVerifiedBonus  int     `env:"SCORE_VERIFIED_BONUS" envDefault:"100"`
	ScoreMultiPlatBonus int     `env:"SCORE_MULTI_PLATFORM_BONUS" envDefault:"50"`

	ReservationTTL  time.Duration `env:"RESERVATION_TTL" envDefault:"5m"`
	SweeperInterval time.Duration `env:"SWEEPER_INTERVAL" envDefault:"30s"`

	// SeedDemo loads the four-tier demo launch at startup.
	SeedDemo bool `env:"SEED_DEMO" envDefault:"false"`

	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint   string  `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"0.1"`
}

// Load reads the configuration from the environment. Validate runs as part
// of the load, via the loader's Validator hook.
func Load() (*Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field rules the `env` tags cannot express.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	}
	switch c.OracleMode {
	case OracleModeStatic:
	case OracleModeHTTP:
		if c.BalanceOracleURL == "" {
			return fmt.Errorf("BALANCE_ORACLE_URL is required when ORACLE_MODE=http")
		}
		if c.SocialProviderURL == "" {
			return fmt.Errorf("SOCIAL_PROVIDER_URL is required when ORACLE_MODE=http")
		}
	default:
		return fmt.Errorf("unknown ORACLE_MODE %q", c.OracleMode)
	}
	if c.ScoreWeightTwitter < 0 || c.ScoreWeightTelegram < 0 || c.ScoreWeightDiscord < 0 {
		return fmt.Errorf("score weights cannot be negative")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}
	if c.ReservationTTL <= 0 {
		return fmt.Errorf("RESERVATION_TTL must be positive")
	}
	return nil
}
