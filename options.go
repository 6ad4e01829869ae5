package ucb

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/hiapetrov/universal-integration-protocol-UIPv1/internal/backoff"
)

// WithBasePath sets the descriptor base path (default "/api").
func WithBasePath(basePath string) Option {
	return func(c *Connector) {
		c.basePath = basePath
	}
}

// WithRetryAttempts sets the default number of tries per outbound call.
func WithRetryAttempts(n int) Option {
	return func(c *Connector) {
		c.retryAttempts = n
	}
}

// WithBaseDelay sets the first backoff delay.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Connector) {
		c.baseDelay = d
	}
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Connector) {
		c.maxDelay = d
	}
}

// WithBackoffFactor sets the exponential backoff multiplier.
func WithBackoffFactor(f float64) Option {
	return func(c *Connector) {
		c.backoffFactor = f
	}
}

// WithJitter sets the jitter fraction applied to backoff delays (0.0 to
// 1.0). The default is 0: delays are deterministic and strictly increasing
// until the cap.
func WithJitter(f float64) Option {
	return func(c *Connector) {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		c.jitter = f
	}
}

// WithBackoffStrategy swaps the delay calculation strategy.
func WithBackoffStrategy(s backoff.Strategy) Option {
	return func(c *Connector) {
		c.backoffStrategy = s
	}
}

// WithTimeout sets the default per-attempt timeout for outbound calls.
func WithTimeout(d time.Duration) Option {
	return func(c *Connector) {
		c.timeout = d
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit sets the outbound sliding-window capacity in calls per
// minute.
func WithRateLimit(callsPerMinute int) Option {
	return func(c *Connector) {
		c.rateLimiter = NewRateLimiter(callsPerMinute)
	}
}

// WithoutRateLimit disables outbound rate limiting.
func WithoutRateLimit() Option {
	return func(c *Connector) {
		c.rateLimiter = nil
	}
}

// WithCache replaces the response cache with an in-memory cache using the
// given TTL.
func WithCache(ttl time.Duration) Option {
	return func(c *Connector) {
		c.cache = NewInMemoryCache(ttl)
	}
}

// WithCustomCache sets a custom cache implementation.
func WithCustomCache(cache Cache) Option {
	return func(c *Connector) {
		c.cache = cache
	}
}

// WithoutCache disables response caching even for UseCache requests.
func WithoutCache() Option {
	return func(c *Connector) {
		c.cache = nil
	}
}

// WithCircuitBreaker sets the circuit breaker configuration.
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(c *Connector) {
		c.circuitBreaker = NewCircuitBreaker(config)
	}
}

// WithHTTPClient sets a custom HTTP client for outbound calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connector) {
		c.httpClient = client
		if c.timeout != 0 {
			c.httpClient.Timeout = c.timeout
		}
	}
}

// WithTypeMapper sets a pre-populated type mapper.
func WithTypeMapper(m *TypeMapper) Option {
	return func(c *Connector) {
		c.typeMapper = m
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Connector) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Connector) {
		c.metrics = collector
	}
}

// WithLogger sets the logger used across dispatch and remote calls.
func WithLogger(logger Logger) Option {
	return func(c *Connector) {
		c.logger = logger
	}
}

// ValidateConfiguration validates the connector configuration and returns a
// typed error listing every violation.
func (c *Connector) ValidateConfiguration() error {
	var problems []string

	problems = append(problems, c.validateAppInfo()...)
	problems = append(problems, c.validateRetryConfig()...)
	problems = append(problems, c.validateRateLimiterConfig()...)
	problems = append(problems, c.validateCircuitBreakerConfig()...)
	problems = append(problems, c.validateHTTPClientConfig()...)

	if len(problems) > 0 {
		details := make([]map[string]any, 0, len(problems))
		for _, p := range problems {
			details = append(details, map[string]any{"problem": p})
		}
		return NewValidationError("configuration validation failed", details)
	}
	return nil
}

func (c *Connector) validateAppInfo() []string {
	var problems []string

	if c.appName == "" {
		problems = append(problems, "appName must not be empty")
	}
	if c.version == "" {
		problems = append(problems, "version must not be empty")
	} else if _, err := semver.NewVersion(c.version); err != nil {
		problems = append(problems, fmt.Sprintf("version %q is not a valid semantic version", c.version))
	}
	return problems
}

func (c *Connector) validateRetryConfig() []string {
	var problems []string

	if c.retryAttempts < 1 {
		problems = append(problems, "retryAttempts must be at least 1")
	}
	if c.baseDelay <= 0 {
		problems = append(problems, "baseDelay must be positive")
	}
	if c.maxDelay < c.baseDelay {
		problems = append(problems, "maxDelay must be greater than or equal to baseDelay")
	}
	if c.backoffFactor <= 0 {
		problems = append(problems, "backoffFactor must be positive")
	}
	if c.jitter < 0 || c.jitter > 1 {
		problems = append(problems, "jitter must be between 0 and 1")
	}
	if c.timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if c.backoffStrategy == nil {
		problems = append(problems, "backoffStrategy must not be nil")
	}
	return problems
}

func (c *Connector) validateRateLimiterConfig() []string {
	if c.rateLimiter != nil && c.rateLimiter.callsPerMinute <= 0 {
		return []string{"rate limit callsPerMinute must be positive"}
	}
	return nil
}

func (c *Connector) validateCircuitBreakerConfig() []string {
	var problems []string

	if c.circuitBreaker == nil {
		return []string{"circuit breaker must not be nil"}
	}
	if c.circuitBreaker.config.FailureThreshold <= 0 {
		problems = append(problems, "circuit breaker FailureThreshold must be positive")
	}
	if c.circuitBreaker.config.ResetTimeout <= 0 {
		problems = append(problems, "circuit breaker ResetTimeout must be positive")
	}
	return problems
}

func (c *Connector) validateHTTPClientConfig() []string {
	if c.httpClient == nil {
		return []string{"HTTP client must not be nil"}
	}
	return nil
}
