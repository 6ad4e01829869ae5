// Package ucb implements the Universal Connector Block: a generic connector
// that maps locally registered operations onto a canonical inbound dispatch
// path and wraps outbound remote calls with resilience controls.
//
//   - Endpoint registry + dispatcher: path templates with {name} placeholders,
//     explicit parameter declarations, auth presence checks, typed validation
//   - Type mapper: bidirectional conversion between native Go values and the
//     canonical schema type tags (String, Integer, Array<T>, ...)
//   - Resilience stack: circuit breaker, sliding-window rate limiter, TTL
//     response cache and retry with exponential backoff
//   - Canonical envelope: {data, metadata{type, timestamp, source, version}}
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Safe concurrent use of a single *Connector instance
//   - Typed errors carrying code, HTTP status, request ID and timestamp
//   - Extensibility via registered type adapters and a pluggable cache
//
// Typical usage:
//
//	conn := ucb.New("orders", "1.4.0",
//	    ucb.WithRetryAttempts(3),
//	    ucb.WithRateLimit(120),
//	    ucb.WithCache(5*time.Minute),
//	    ucb.WithCircuitBreaker(ucb.CircuitBreakerConfig{}),
//	)
//	conn.RegisterEndpoint("/users/{user_id}", "GET", getUser, ucb.EndpointSpec{
//	    Params: []ucb.ParamSpec{{Name: "user_id", Type: ucb.TypeString, Required: true}},
//	})
//	res, err := conn.HandleRequest(ctx, "/users/42", "GET", nil, headers)
//
// Route resolution is strictly first-match-wins in registration order: a
// literal segment does not outrank a placeholder declared on an earlier
// endpoint. Register more specific paths first.
//
// All resilience state is process-local. A multi-instance deployment has an
// independent breaker, limiter and cache per instance.
package ucb
