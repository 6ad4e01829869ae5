package ucb

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// HandleRequest processes an inbound request against the registered
// endpoints: route match, auth presence check, parameter extraction and
// validation, then handler invocation. The result is the canonical
// {status, data} wrapper; failures carry a typed *Error.
//
// For a fixed registry and fixed input the outcome is deterministic:
// endpoints are scanned in registration order and the first match wins.
func (c *Connector) HandleRequest(ctx context.Context, path, method string, params map[string]any, headers map[string]string) (*Result, error) {
	start := time.Now()

	result, err := c.dispatch(ctx, path, method, params, headers)

	status := 200
	if err != nil {
		status = WrapInternal(err).StatusCode
	}
	c.metrics.RecordDispatch(method, path, status, time.Since(start))
	if err != nil {
		ue := WrapInternal(err)
		c.metrics.RecordError(ue.Code)
		if c.logger != nil {
			c.logger.Warn("dispatch failed", "method", method, "path", path,
				"code", ue.Code, "requestId", ue.RequestID)
		}
		return nil, ue
	}

	if c.logger != nil {
		c.logger.Debug("dispatch ok", "method", method, "path", path)
	}
	return result, nil
}

func (c *Connector) dispatch(ctx context.Context, path, method string, params map[string]any, headers map[string]string) (*Result, error) {
	if params == nil {
		params = map[string]any{}
	}
	if headers == nil {
		headers = map[string]string{}
	}

	endpoint, pathParams := c.matchEndpoint(path, method)
	if endpoint == nil {
		return nil, NewError(CodeEndpointNotFound,
			fmt.Sprintf("no endpoint found for %s %s", strings.ToUpper(method), path), nil, 404)
	}

	if endpoint.AuthRequired {
		// Presence check only; scheme enforcement is the host layer's job.
		if headers["Authorization"] == "" {
			return nil, NewError(CodeAuthRequired,
				"authentication is required for this endpoint", nil, 401)
		}
	}

	handlerParams, err := c.bindParameters(endpoint, pathParams, params)
	if err != nil {
		return nil, err
	}

	data, err := invokeHandler(ctx, endpoint.Handler, handlerParams)
	if err != nil {
		return nil, err
	}
	return &Result{Status: "success", Data: data}, nil
}

// matchEndpoint scans the registry in registration order. An endpoint
// matches iff the method matches case-insensitively, the segment counts are
// equal, and every literal segment equals the request segment. Named
// segments bind positionally.
func (c *Connector) matchEndpoint(path, method string) (*Endpoint, map[string]string) {
	method = strings.ToUpper(method)
	reqSegments := strings.Split(path, "/")

	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.endpoints {
		ep := &c.endpoints[i]
		if ep.Method != method || len(ep.segments) != len(reqSegments) {
			continue
		}

		bound := make(map[string]string)
		matched := true
		for j, seg := range ep.segments {
			if isPlaceholder(seg) {
				bound[seg[1:len(seg)-1]] = reqSegments[j]
				continue
			}
			if seg != reqSegments[j] {
				matched = false
				break
			}
		}
		if matched {
			return ep, bound
		}
	}
	return nil, nil
}

// bindParameters reads each declared parameter from its source, applies
// defaults, and validates through the type mapper.
func (c *Connector) bindParameters(ep *Endpoint, pathParams map[string]string, params map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(ep.Parameters))

	for _, p := range ep.Parameters {
		switch p.Location {
		case LocationPath:
			raw, ok := pathParams[p.Name]
			if !ok {
				if p.Required {
					return nil, missingParamError(p)
				}
				applyDefault(out, p)
				continue
			}
			converted, err := c.convertParam(raw, p)
			if err != nil {
				return nil, err
			}
			out[p.Name] = converted

		case LocationQuery, LocationHeader:
			raw, ok := params[p.Name]
			if !ok {
				if p.Required {
					return nil, missingParamError(p)
				}
				applyDefault(out, p)
				continue
			}
			converted, err := c.convertParam(raw, p)
			if err != nil {
				return nil, err
			}
			out[p.Name] = converted

		case LocationBody:
			body, hasBody := params[BodyParamKey]
			if !hasBody {
				if p.Required {
					return nil, missingParamError(p)
				}
				applyDefault(out, p)
				continue
			}
			if p.Name != "body" && p.Type == TypeObject {
				// Project a single named field out of the body.
				bodyMap, _ := body.(map[string]any)
				field, ok := bodyMap[p.Name]
				if !ok {
					if p.Required {
						return nil, missingParamError(p)
					}
					applyDefault(out, p)
					continue
				}
				out[p.Name] = field
				continue
			}
			converted, err := c.convertParam(body, p)
			if err != nil {
				return nil, err
			}
			out[p.Name] = converted
		}
	}

	return out, nil
}

func (c *Connector) convertParam(raw any, p Parameter) (any, error) {
	converted, err := c.typeMapper.ValidateAndConvert(raw, p.Type)
	if err != nil {
		details := []map[string]any{{"parameter": p.Name, "location": string(p.Location)}}
		if ve, ok := err.(*Error); ok {
			details = append(details, ve.Details...)
		}
		return nil, NewValidationError(
			fmt.Sprintf("invalid %s parameter: %s", p.Location, p.Name), details)
	}
	return converted, nil
}

func missingParamError(p Parameter) *Error {
	return NewValidationError(
		fmt.Sprintf("missing required %s parameter: %s", p.Location, p.Name),
		[]map[string]any{{"parameter": p.Name, "location": string(p.Location)}})
}

func applyDefault(out map[string]any, p Parameter) {
	if p.Default != nil {
		out[p.Name] = p.Default
	}
}

// invokeHandler runs the handler, passing typed *Error values through
// unchanged and wrapping anything else (including panics) as INTERNAL_ERROR
// without losing the original message.
func invokeHandler(ctx context.Context, handler HandlerFunc, params map[string]any) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewError(CodeInternal, fmt.Sprintf("internal server error: %v", r), nil, 500)
		}
	}()

	data, err = handler(ctx, params)
	if err != nil {
		return nil, WrapInternal(err)
	}
	return data, nil
}
