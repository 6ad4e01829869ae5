package ucb

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the resilience defaults a deployment usually tunes per
// environment. Load it with ConfigFromEnv and apply it with WithConfig;
// options listed after WithConfig still override individual fields.
type Config struct {
	RetryAttempts    int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	BaseDelay        time.Duration `envconfig:"BASE_DELAY" default:"500ms"`
	MaxDelay         time.Duration `envconfig:"MAX_DELAY" default:"30s"`
	BackoffFactor    float64       `envconfig:"BACKOFF_FACTOR" default:"2.0"`
	Timeout          time.Duration `envconfig:"TIMEOUT" default:"30s"`
	CallsPerMinute   int           `envconfig:"CALLS_PER_MINUTE" default:"60"`
	CacheTTL         time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	FailureThreshold int           `envconfig:"FAILURE_THRESHOLD" default:"5"`
	ResetTimeout     time.Duration `envconfig:"RESET_TIMEOUT" default:"60s"`
}

// ConfigFromEnv reads a Config from environment variables under the given
// prefix, e.g. prefix "UCB" reads UCB_RETRY_ATTEMPTS, UCB_CACHE_TTL, ...
func ConfigFromEnv(prefix string) (Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithConfig applies a Config to the connector.
func WithConfig(cfg Config) Option {
	return func(c *Connector) {
		c.retryAttempts = cfg.RetryAttempts
		c.baseDelay = cfg.BaseDelay
		c.maxDelay = cfg.MaxDelay
		c.backoffFactor = cfg.BackoffFactor
		c.timeout = cfg.Timeout
		if c.httpClient != nil {
			c.httpClient.Timeout = cfg.Timeout
		}
		c.rateLimiter = NewRateLimiter(cfg.CallsPerMinute)
		c.cache = NewInMemoryCache(cfg.CacheTTL)
		c.circuitBreaker = NewCircuitBreaker(CircuitBreakerConfig{
			FailureThreshold: cfg.FailureThreshold,
			ResetTimeout:     cfg.ResetTimeout,
		})
	}
}
