package ucb

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hiapetrov/universal-integration-protocol-UIPv1/internal/backoff"
)

var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "OPTIONS": true, "HEAD": true,
}

// Connector is a Universal Connector Block instance: an endpoint registry
// with a canonical dispatch path, a type mapper, and a resilience stack
// guarding outbound remote calls. Construct with New; a single Connector is
// safe for concurrent use.
type Connector struct {
	appName  string
	version  string
	basePath string

	mu        sync.RWMutex
	endpoints []Endpoint

	typeMapper     *TypeMapper
	circuitBreaker *CircuitBreaker
	rateLimiter    *RateLimiter
	cache          Cache

	httpClient      *http.Client
	retryAttempts   int
	baseDelay       time.Duration
	maxDelay        time.Duration
	backoffFactor   float64
	jitter          float64
	backoffStrategy backoff.Strategy
	timeout         time.Duration

	metrics *MetricsCollector
	logger  Logger

	validationError error
}

// New constructs a Connector using the provided functional options. A best
// effort validation is performed; call IsValid / ValidationError for errors.
func New(appName, version string, options ...Option) *Connector {
	c := &Connector{
		appName:  appName,
		version:  version,
		basePath: "/api",

		typeMapper:     NewTypeMapper(),
		circuitBreaker: NewCircuitBreaker(CircuitBreakerConfig{}),
		rateLimiter:    NewRateLimiter(60),
		cache:          NewInMemoryCache(5 * time.Minute),

		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryAttempts:   3,
		baseDelay:       500 * time.Millisecond,
		maxDelay:        30 * time.Second,
		backoffFactor:   2.0,
		jitter:          0,
		backoffStrategy: backoff.Exponential{},
		timeout:         30 * time.Second,
	}

	for _, option := range options {
		option(c)
	}

	if err := c.ValidateConfiguration(); err != nil {
		c.validationError = err
	}

	return c
}

// IsValid reports whether configuration validation passed at construction.
func (c *Connector) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Connector) ValidationError() error {
	return c.validationError
}

// TypeMapper returns the connector's type mapper for adapter registration.
func (c *Connector) TypeMapper() *TypeMapper {
	return c.typeMapper
}

// CircuitBreaker returns the breaker guarding this connector's outbound
// calls.
func (c *Connector) CircuitBreaker() *CircuitBreaker {
	return c.circuitBreaker
}

// RateLimiter returns the limiter guarding this connector's outbound calls.
func (c *Connector) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// RegisterEndpoint registers an operation under a path template and method.
// Path templates use {name} placeholders for named segments. Parameter
// locations are derived from the declared specs: a name matching a
// placeholder binds to the path; a parameter literally named "body", or an
// Object-typed parameter with no path match, binds to the body; everything
// else binds to the query string.
//
// Endpoints match in registration order, first match wins; a literal segment
// does not outrank an earlier endpoint's placeholder at the same position.
func (c *Connector) RegisterEndpoint(path, method string, handler HandlerFunc, spec EndpointSpec) error {
	method = strings.ToUpper(method)
	if !knownMethods[method] {
		return NewValidationError(fmt.Sprintf("unsupported HTTP method %q", method), nil)
	}
	if handler == nil {
		return NewValidationError("handler must not be nil", nil)
	}

	segments := strings.Split(path, "/")
	placeholders := make(map[string]bool)
	for _, seg := range segments {
		if isPlaceholder(seg) {
			placeholders[seg[1:len(seg)-1]] = true
		}
	}

	seen := make(map[string]bool, len(spec.Params))
	parameters := make([]Parameter, 0, len(spec.Params))
	for _, ps := range spec.Params {
		if ps.Name == "" {
			return NewValidationError("parameter name must not be empty", nil)
		}
		if seen[ps.Name] {
			return NewValidationError(fmt.Sprintf("duplicate parameter %q", ps.Name), nil)
		}
		seen[ps.Name] = true

		tag := ps.Type
		if tag == "" {
			tag = TypeAny
		}

		var location ParameterLocation
		switch {
		case placeholders[ps.Name]:
			location = LocationPath
		case ps.Name == "body" || tag == TypeObject:
			location = LocationBody
		default:
			location = LocationQuery
		}

		required := ps.Required
		if ps.Default != nil {
			// A parameter with a default can never be required.
			required = false
		}

		parameters = append(parameters, Parameter{
			Name:        ps.Name,
			Type:        tag,
			Location:    location,
			Required:    required,
			Description: ps.Description,
			Default:     ps.Default,
		})
	}

	responses := make([]ResponseSpec, 0, 3)
	if spec.Returns != "" {
		responses = append(responses, ResponseSpec{
			StatusCode:  200,
			ContentType: "application/json",
			Schema:      map[string]any{"type": string(spec.Returns)},
		})
	}
	responses = append(responses,
		ResponseSpec{
			StatusCode:  400,
			ContentType: "application/json",
			Schema:      map[string]any{"type": "Error"},
			Description: "Bad Request",
		},
		ResponseSpec{
			StatusCode:  500,
			ContentType: "application/json",
			Schema:      map[string]any{"type": "Error"},
			Description: "Internal Server Error",
		},
	)

	authMethods := spec.AuthMethods
	if len(authMethods) == 0 {
		authMethods = []AuthMethod{AuthBearer}
	}

	ep := Endpoint{
		Path:         path,
		Method:       method,
		Handler:      handler,
		Parameters:   parameters,
		Responses:    responses,
		AuthRequired: spec.AuthRequired,
		AuthMethods:  authMethods,
		RateLimit:    spec.RateLimit,
		Description:  spec.Description,
		segments:     segments,
	}

	c.mu.Lock()
	c.endpoints = append(c.endpoints, ep)
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Debug("endpoint registered", "method", method, "path", path,
			"params", len(parameters), "authRequired", spec.AuthRequired)
	}
	return nil
}

// Endpoints returns a snapshot of the registered endpoints in registration
// order. Descriptor exporters consume this read-only view.
func (c *Connector) Endpoints() []Endpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Endpoint, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

func isPlaceholder(segment string) bool {
	return len(segment) > 2 && strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}")
}
