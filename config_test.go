package ucb

import (
	"testing"
	"time"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv("UCBTEST")
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}

	if cfg.RetryAttempts != 3 {
		t.Errorf("Expected RetryAttempts=3, got %d", cfg.RetryAttempts)
	}
	if cfg.BaseDelay != 500*time.Millisecond {
		t.Errorf("Expected BaseDelay=500ms, got %v", cfg.BaseDelay)
	}
	if cfg.MaxDelay != 30*time.Second {
		t.Errorf("Expected MaxDelay=30s, got %v", cfg.MaxDelay)
	}
	if cfg.BackoffFactor != 2.0 {
		t.Errorf("Expected BackoffFactor=2.0, got %v", cfg.BackoffFactor)
	}
	if cfg.CallsPerMinute != 60 {
		t.Errorf("Expected CallsPerMinute=60, got %d", cfg.CallsPerMinute)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("Expected CacheTTL=5m, got %v", cfg.CacheTTL)
	}
	if cfg.FailureThreshold != 5 {
		t.Errorf("Expected FailureThreshold=5, got %d", cfg.FailureThreshold)
	}
	if cfg.ResetTimeout != 60*time.Second {
		t.Errorf("Expected ResetTimeout=60s, got %v", cfg.ResetTimeout)
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("UCBTEST_RETRY_ATTEMPTS", "7")
	t.Setenv("UCBTEST_BASE_DELAY", "250ms")
	t.Setenv("UCBTEST_CALLS_PER_MINUTE", "120")
	t.Setenv("UCBTEST_CACHE_TTL", "90s")

	cfg, err := ConfigFromEnv("UCBTEST")
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}

	if cfg.RetryAttempts != 7 {
		t.Errorf("Expected RetryAttempts=7, got %d", cfg.RetryAttempts)
	}
	if cfg.BaseDelay != 250*time.Millisecond {
		t.Errorf("Expected BaseDelay=250ms, got %v", cfg.BaseDelay)
	}
	if cfg.CallsPerMinute != 120 {
		t.Errorf("Expected CallsPerMinute=120, got %d", cfg.CallsPerMinute)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("Expected CacheTTL=90s, got %v", cfg.CacheTTL)
	}
}

func TestConfigFromEnvInvalid(t *testing.T) {
	t.Setenv("UCBTEST_RETRY_ATTEMPTS", "not a number")

	if _, err := ConfigFromEnv("UCBTEST"); err == nil {
		t.Fatal("Expected error for malformed environment value")
	}
}

func TestWithConfig(t *testing.T) {
	cfg := Config{
		RetryAttempts:    4,
		BaseDelay:        100 * time.Millisecond,
		MaxDelay:         5 * time.Second,
		BackoffFactor:    1.5,
		Timeout:          10 * time.Second,
		CallsPerMinute:   30,
		CacheTTL:         time.Minute,
		FailureThreshold: 2,
		ResetTimeout:     30 * time.Second,
	}

	c := New("TestApp", "1.0.0", WithConfig(cfg))

	if !c.IsValid() {
		t.Fatalf("Expected valid configuration, got %v", c.ValidationError())
	}
	if c.retryAttempts != 4 {
		t.Errorf("Expected retryAttempts=4, got %d", c.retryAttempts)
	}
	if c.timeout != 10*time.Second {
		t.Errorf("Expected timeout=10s, got %v", c.timeout)
	}
	if c.httpClient.Timeout != 10*time.Second {
		t.Errorf("Expected HTTP client timeout=10s, got %v", c.httpClient.Timeout)
	}
	if c.rateLimiter.callsPerMinute != 30 {
		t.Errorf("Expected callsPerMinute=30, got %d", c.rateLimiter.callsPerMinute)
	}
	if c.circuitBreaker.config.FailureThreshold != 2 {
		t.Errorf("Expected FailureThreshold=2, got %d", c.circuitBreaker.config.FailureThreshold)
	}
}

func TestWithConfigLaterOptionsOverride(t *testing.T) {
	cfg := Config{
		RetryAttempts:    4,
		BaseDelay:        100 * time.Millisecond,
		MaxDelay:         5 * time.Second,
		BackoffFactor:    1.5,
		Timeout:          10 * time.Second,
		CallsPerMinute:   30,
		CacheTTL:         time.Minute,
		FailureThreshold: 2,
		ResetTimeout:     30 * time.Second,
	}

	c := New("TestApp", "1.0.0", WithConfig(cfg), WithRetryAttempts(9))

	if c.retryAttempts != 9 {
		t.Errorf("Expected later option to win, got retryAttempts=%d", c.retryAttempts)
	}
}
