package ucb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CallRemote executes an outbound call through the resilience stack:
// circuit-breaker gate, rate-limiter gate, cache lookup (GET only), then the
// retry loop. 5xx responses and connection-level failures are retried with
// exponential backoff; 4xx responses fail immediately and count as breaker
// successes. The decoded JSON body is returned on success.
func (c *Connector) CallRemote(ctx context.Context, req RemoteRequest) (any, error) {
	start := time.Now()

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = "GET"
	}
	req.Method = method
	endpoint := endpointLabel(req.URL)

	c.metrics.RecordRemoteStart(method, endpoint)
	defer c.metrics.RecordRemoteEnd(method, endpoint)

	result, status, err := c.callWithResilience(ctx, req, endpoint)

	c.metrics.RecordRemote(method, endpoint, status, time.Since(start))
	if err != nil {
		ue := WrapInternal(err)
		c.metrics.RecordError(ue.Code)
		return nil, ue
	}
	return result, nil
}

func (c *Connector) callWithResilience(ctx context.Context, req RemoteRequest, endpoint string) (any, int, error) {
	if !c.circuitBreaker.Allow() {
		if c.logger != nil {
			c.logger.Warn("circuit breaker open", "endpoint", endpoint)
		}
		return nil, 503, NewError(CodeCircuitOpen,
			"circuit breaker is open due to repeated failures", nil, 503)
	}
	c.metrics.RecordCircuitBreakerState(c.circuitBreaker.State())

	if c.rateLimiter != nil {
		if !c.rateLimiter.Allow() {
			if c.logger != nil {
				c.logger.Warn("rate limit exceeded", "endpoint", endpoint)
			}
			return nil, 429, NewError(CodeRateLimitExceeded,
				"rate limit exceeded for API calls", nil, 429)
		}
		c.metrics.RecordRateLimiterRemaining(c.rateLimiter.Remaining())
	}

	cacheable := req.UseCache && req.Method == "GET" && c.cache != nil
	var cacheKey string
	if cacheable {
		cacheKey = CacheKey(req)
		if value, found := c.cache.Get(cacheKey); found {
			c.metrics.RecordCacheHit(req.Method, endpoint)
			if c.logger != nil {
				c.logger.Debug("cache hit", "endpoint", endpoint, "key", cacheKey)
			}
			return value, 200, nil
		}
		c.metrics.RecordCacheMiss(req.Method, endpoint)
	}

	result, status, err := c.attemptLoop(ctx, req, endpoint)
	if err != nil {
		return nil, status, err
	}

	if cacheable {
		c.cache.Set(cacheKey, result)
		c.metrics.RecordCacheSize(c.cache.Size())
		if c.logger != nil {
			c.logger.Debug("response cached", "endpoint", endpoint, "key", cacheKey)
		}
	}
	return result, status, nil
}

// attemptLoop runs up to the configured number of tries, applying backoff
// between them. Terminal success (and any 4xx) records a breaker success;
// a terminal 5xx or connection failure records exactly one breaker failure.
func (c *Connector) attemptLoop(ctx context.Context, req RemoteRequest, endpoint string) (any, int, error) {
	attempts := req.RetryAttempts
	if attempts <= 0 {
		attempts = c.retryAttempts
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	var lastErr *Error
	lastStatus := 503

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			c.metrics.RecordRetry(req.Method, endpoint, attempt-1)
		}

		resp, body, err := c.doAttempt(ctx, req, timeout)
		if err != nil {
			// Connection-level failure, including timeouts.
			lastErr = NewConnectionError("connection error: "+err.Error(), err)
			lastStatus = 503
			if c.logger != nil {
				c.logger.Warn("request failed", "endpoint", endpoint, "attempt", attempt, "error", err.Error())
			}
			if attempt < attempts {
				if err := c.backoffSleep(ctx, attempt, endpoint); err != nil {
					c.recordTerminalFailure()
					return nil, 503, err
				}
				continue
			}
			break
		}

		if resp.StatusCode >= 500 {
			message, details := probeErrorBody(body, fmt.Sprintf("API request failed with status %d", resp.StatusCode))
			lastErr = NewError(fmt.Sprintf("REMOTE_SERVER_ERROR_%d", resp.StatusCode), message, details, resp.StatusCode)
			lastStatus = resp.StatusCode
			if c.logger != nil {
				c.logger.Warn("server error", "endpoint", endpoint, "attempt", attempt, "status", resp.StatusCode)
			}
			if attempt < attempts {
				if err := c.backoffSleep(ctx, attempt, endpoint); err != nil {
					c.recordTerminalFailure()
					return nil, 503, err
				}
				continue
			}
			break
		}

		if resp.StatusCode >= 400 {
			// Client error is not a service-health signal: no retry, breaker
			// records a success.
			c.circuitBreaker.RecordSuccess()
			c.metrics.RecordCircuitBreakerState(c.circuitBreaker.State())
			message, details := probeErrorBody(body, fmt.Sprintf("API request failed with status %d", resp.StatusCode))
			return nil, resp.StatusCode, NewError(
				fmt.Sprintf("REMOTE_CLIENT_ERROR_%d", resp.StatusCode), message, details, resp.StatusCode)
		}

		c.circuitBreaker.RecordSuccess()
		c.metrics.RecordCircuitBreakerState(c.circuitBreaker.State())
		return decodeRemoteBody(body), resp.StatusCode, nil
	}

	c.recordTerminalFailure()
	if lastErr != nil {
		return nil, lastStatus, lastErr
	}
	// Unreachable under correct bookkeeping.
	return nil, 503, NewError(CodeMaxRetriesExceeded,
		fmt.Sprintf("request failed after %d attempts", attempts), nil, 503)
}

func (c *Connector) recordTerminalFailure() {
	c.circuitBreaker.RecordFailure()
	c.metrics.RecordCircuitBreakerState(c.circuitBreaker.State())
}

// doAttempt performs one HTTP try with a fresh request and body reader.
func (c *Connector) doAttempt(ctx context.Context, req RemoteRequest, timeout time.Duration) (*http.Response, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	callURL := req.URL
	headers := make(map[string]string, len(req.Headers)+2)
	for k, v := range req.Headers {
		headers[k] = v
	}
	if _, ok := headers["Accept"]; !ok {
		headers["Accept"] = "application/json"
	}

	var bodyReader io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, nil, err
		}
		bodyReader = bytes.NewReader(raw)
		if _, ok := headers["Content-Type"]; !ok {
			headers["Content-Type"] = "application/json"
		}
	}

	if req.Auth != nil {
		callURL = injectAuth(headers, callURL, req.Auth)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, callURL, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	if req.Auth != nil && req.Auth.Type == AuthBasic {
		httpReq.SetBasicAuth(req.Auth.Username, req.Auth.Password)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

// injectAuth applies the declared auth descriptor to the headers or URL and
// returns the (possibly rewritten) URL. Basic credentials are set on the
// request itself by the caller.
func injectAuth(headers map[string]string, callURL string, auth *AuthDescriptor) string {
	switch auth.Type {
	case AuthBasic:
		return callURL
	case AuthAPIKey:
		keyName := auth.KeyName
		if keyName == "" {
			keyName = "api_key"
		}
		if auth.KeyLocation == LocationQuery {
			sep := "?"
			if strings.Contains(callURL, "?") {
				sep = "&"
			}
			return callURL + sep + url.QueryEscape(keyName) + "=" + url.QueryEscape(auth.KeyValue)
		}
		headers[keyName] = auth.KeyValue
		return callURL
	default:
		// Bearer is the default scheme, covering oauth2 tokens too.
		headers["Authorization"] = "Bearer " + auth.Token
		return callURL
	}
}

// backoffSleep waits for the computed delay, honoring context cancellation.
// A cancelled wait counts as a connection-level failure.
func (c *Connector) backoffSleep(ctx context.Context, attempt int, endpoint string) error {
	delay := c.backoffStrategy.Delay(attempt, c.baseDelay, c.maxDelay, c.backoffFactor, c.jitter)
	if c.logger != nil {
		c.logger.Info("scheduling retry", "endpoint", endpoint, "attempt", attempt+1, "backoff", delay)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return NewConnectionError("request cancelled during backoff: "+ctx.Err().Error(), ctx.Err())
	case <-timer.C:
		return nil
	}
}

// decodeRemoteBody parses a response body as JSON, falling back to a
// raw_content wrapper for non-JSON payloads and an empty object for empty
// bodies.
func decodeRemoteBody(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}
	}
	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		return map[string]any{"raw_content": string(body)}
	}
	return result
}

// probeErrorBody extracts {"message","details"} from an error response body
// when present.
func probeErrorBody(body []byte, fallback string) (string, []map[string]any) {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fallback, nil
	}

	message := fallback
	if m, ok := parsed["message"].(string); ok && m != "" {
		message = m
	}

	var details []map[string]any
	if rawDetails, ok := parsed["details"].([]any); ok {
		for _, d := range rawDetails {
			if dm, ok := d.(map[string]any); ok {
				details = append(details, dm)
			}
		}
	}
	return message, details
}

// endpointLabel reduces a URL to host+path for metrics and log labels.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Host + u.Path
	}
	return u.Host + "/"
}
