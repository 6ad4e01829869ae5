package ucb

import (
	"context"
	"errors"
	"testing"
)

func TestHandleRequestPathParam(t *testing.T) {
	c := newTestConnector(t)

	if err := c.RegisterEndpoint("/users/{user_id}", "GET", echoHandler, EndpointSpec{
		Params: []ParamSpec{
			{Name: "user_id", Type: TypeInteger, Required: true},
		},
	}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	result, err := c.HandleRequest(context.Background(), "/users/42", "GET", nil, nil)
	if err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}
	if result.Status != "success" {
		t.Errorf("Expected status=success, got %s", result.Status)
	}

	params := result.Data.(map[string]any)
	if params["user_id"] != 42 {
		t.Errorf("Expected user_id coerced to 42, got %v (%T)", params["user_id"], params["user_id"])
	}
}

func TestHandleRequestNotFound(t *testing.T) {
	c := newTestConnector(t)

	_, err := c.HandleRequest(context.Background(), "/nope", "GET", nil, nil)
	if err == nil {
		t.Fatal("Expected endpoint not found error")
	}

	ue := err.(*Error)
	if ue.Code != CodeEndpointNotFound {
		t.Errorf("Expected ENDPOINT_NOT_FOUND, got %s", ue.Code)
	}
	if ue.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", ue.StatusCode)
	}
}

func TestHandleRequestMethodMismatch(t *testing.T) {
	c := newTestConnector(t)

	if err := c.RegisterEndpoint("/users", "POST", echoHandler, EndpointSpec{}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	_, err := c.HandleRequest(context.Background(), "/users", "GET", nil, nil)
	if err == nil {
		t.Fatal("Expected not found for mismatched method")
	}
	if err.(*Error).Code != CodeEndpointNotFound {
		t.Errorf("Expected ENDPOINT_NOT_FOUND, got %s", err.(*Error).Code)
	}
}

func TestHandleRequestMethodCaseInsensitive(t *testing.T) {
	c := newTestConnector(t)

	if err := c.RegisterEndpoint("/users", "GET", echoHandler, EndpointSpec{}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	if _, err := c.HandleRequest(context.Background(), "/users", "get", nil, nil); err != nil {
		t.Errorf("Expected lowercase method to match, got %v", err)
	}
}

func TestHandleRequestFirstMatchWins(t *testing.T) {
	c := newTestConnector(t)

	first := func(ctx context.Context, params map[string]any) (any, error) { return "first", nil }
	second := func(ctx context.Context, params map[string]any) (any, error) { return "second", nil }

	if err := c.RegisterEndpoint("/users/{id}", "GET", first, EndpointSpec{
		Params: []ParamSpec{{Name: "id", Type: TypeString}},
	}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}
	// A literal segment registered later never outranks the earlier
	// placeholder at the same position.
	if err := c.RegisterEndpoint("/users/me", "GET", second, EndpointSpec{}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	result, err := c.HandleRequest(context.Background(), "/users/me", "GET", nil, nil)
	if err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}
	if result.Data != "first" {
		t.Errorf("Expected first registered endpoint to win, got %v", result.Data)
	}
}

func TestHandleRequestAuthRequired(t *testing.T) {
	c := newTestConnector(t)

	if err := c.RegisterEndpoint("/secure", "GET", echoHandler, EndpointSpec{
		AuthRequired: true,
	}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	_, err := c.HandleRequest(context.Background(), "/secure", "GET", nil, nil)
	if err == nil {
		t.Fatal("Expected authentication error without Authorization header")
	}
	ue := err.(*Error)
	if ue.Code != CodeAuthRequired {
		t.Errorf("Expected AUTHENTICATION_REQUIRED, got %s", ue.Code)
	}
	if ue.StatusCode != 401 {
		t.Errorf("Expected status 401, got %d", ue.StatusCode)
	}

	_, err = c.HandleRequest(context.Background(), "/secure", "GET", nil,
		map[string]string{"Authorization": "Bearer token"})
	if err != nil {
		t.Errorf("Expected request with Authorization header to pass, got %v", err)
	}

	// Presence check only: an empty header value still fails.
	_, err = c.HandleRequest(context.Background(), "/secure", "GET", nil,
		map[string]string{"Authorization": ""})
	if err == nil {
		t.Error("Expected empty Authorization header to fail")
	}
}

func TestHandleRequestMissingRequiredParam(t *testing.T) {
	c := newTestConnector(t)

	if err := c.RegisterEndpoint("/search", "GET", echoHandler, EndpointSpec{
		Params: []ParamSpec{{Name: "q", Type: TypeString, Required: true}},
	}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	_, err := c.HandleRequest(context.Background(), "/search", "GET", nil, nil)
	if err == nil {
		t.Fatal("Expected validation error for missing required parameter")
	}
	ue := err.(*Error)
	if ue.Code != CodeValidation {
		t.Errorf("Expected VALIDATION_ERROR, got %s", ue.Code)
	}
	if len(ue.Details) == 0 || ue.Details[0]["parameter"] != "q" {
		t.Errorf("Expected details naming parameter q, got %v", ue.Details)
	}
}

func TestHandleRequestAppliesDefault(t *testing.T) {
	c := newTestConnector(t)

	if err := c.RegisterEndpoint("/search", "GET", echoHandler, EndpointSpec{
		Params: []ParamSpec{{Name: "limit", Type: TypeInteger, Default: 25}},
	}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	result, err := c.HandleRequest(context.Background(), "/search", "GET", nil, nil)
	if err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}
	params := result.Data.(map[string]any)
	if params["limit"] != 25 {
		t.Errorf("Expected default limit=25, got %v", params["limit"])
	}
}

func TestHandleRequestInvalidParamType(t *testing.T) {
	c := newTestConnector(t)

	if err := c.RegisterEndpoint("/users/{user_id}", "GET", echoHandler, EndpointSpec{
		Params: []ParamSpec{{Name: "user_id", Type: TypeInteger, Required: true}},
	}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	_, err := c.HandleRequest(context.Background(), "/users/abc", "GET", nil, nil)
	if err == nil {
		t.Fatal("Expected validation error for non-numeric path value")
	}
	ue := err.(*Error)
	if ue.Code != CodeValidation {
		t.Errorf("Expected VALIDATION_ERROR, got %s", ue.Code)
	}
	if len(ue.Details) == 0 || ue.Details[0]["location"] != "path" {
		t.Errorf("Expected details naming the path location, got %v", ue.Details)
	}
}

func TestHandleRequestQueryCoercion(t *testing.T) {
	c := newTestConnector(t)

	if err := c.RegisterEndpoint("/search", "GET", echoHandler, EndpointSpec{
		Params: []ParamSpec{
			{Name: "limit", Type: TypeInteger, Required: true},
			{Name: "active", Type: TypeBoolean, Required: true},
		},
	}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	result, err := c.HandleRequest(context.Background(), "/search", "GET", map[string]any{
		"limit":  "50",
		"active": "true",
	}, nil)
	if err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}

	params := result.Data.(map[string]any)
	if params["limit"] != 50 {
		t.Errorf("Expected limit=50, got %v", params["limit"])
	}
	if params["active"] != true {
		t.Errorf("Expected active=true, got %v", params["active"])
	}
}

func TestHandleRequestWholeBody(t *testing.T) {
	c := newTestConnector(t)

	if err := c.RegisterEndpoint("/users", "POST", echoHandler, EndpointSpec{
		Params: []ParamSpec{{Name: "body", Type: TypeObject, Required: true}},
	}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	body := map[string]any{"name": "Ada", "email": "ada@example.com"}
	result, err := c.HandleRequest(context.Background(), "/users", "POST", map[string]any{
		BodyParamKey: body,
	}, nil)
	if err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}

	params := result.Data.(map[string]any)
	got, ok := params["body"].(map[string]any)
	if !ok || got["name"] != "Ada" {
		t.Errorf("Expected whole body bound to \"body\", got %v", params["body"])
	}
}

func TestHandleRequestBodyFieldProjection(t *testing.T) {
	c := newTestConnector(t)

	if err := c.RegisterEndpoint("/orders", "POST", echoHandler, EndpointSpec{
		Params: []ParamSpec{{Name: "items", Type: TypeObject, Required: true}},
	}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	result, err := c.HandleRequest(context.Background(), "/orders", "POST", map[string]any{
		BodyParamKey: map[string]any{
			"items":  map[string]any{"sku": "A1"},
			"extra":  "ignored",
			"amount": 3,
		},
	}, nil)
	if err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}

	params := result.Data.(map[string]any)
	items, ok := params["items"].(map[string]any)
	if !ok || items["sku"] != "A1" {
		t.Errorf("Expected items field projected from body, got %v", params["items"])
	}
	if _, present := params["extra"]; present {
		t.Error("Expected undeclared body fields to be dropped")
	}

	// The projected field is required; a body without it fails.
	_, err = c.HandleRequest(context.Background(), "/orders", "POST", map[string]any{
		BodyParamKey: map[string]any{"amount": 3},
	}, nil)
	if err == nil {
		t.Error("Expected missing projected field to fail validation")
	}
}

func TestHandleRequestHandlerError(t *testing.T) {
	c := newTestConnector(t)

	failing := func(ctx context.Context, params map[string]any) (any, error) {
		return nil, errors.New("backend unavailable")
	}
	if err := c.RegisterEndpoint("/fail", "GET", failing, EndpointSpec{}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	_, err := c.HandleRequest(context.Background(), "/fail", "GET", nil, nil)
	if err == nil {
		t.Fatal("Expected handler error to propagate")
	}
	ue := err.(*Error)
	if ue.Code != CodeInternal {
		t.Errorf("Expected INTERNAL_ERROR, got %s", ue.Code)
	}
	if ue.StatusCode != 500 {
		t.Errorf("Expected status 500, got %d", ue.StatusCode)
	}
}

func TestHandleRequestTypedHandlerErrorPassthrough(t *testing.T) {
	c := newTestConnector(t)

	failing := func(ctx context.Context, params map[string]any) (any, error) {
		return nil, NewResourceNotFoundError("user does not exist")
	}
	if err := c.RegisterEndpoint("/users/{id}", "GET", failing, EndpointSpec{
		Params: []ParamSpec{{Name: "id", Type: TypeString}},
	}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	_, err := c.HandleRequest(context.Background(), "/users/7", "GET", nil, nil)
	ue := err.(*Error)
	if ue.Code != CodeResourceNotFound {
		t.Errorf("Expected RESOURCE_NOT_FOUND to pass through, got %s", ue.Code)
	}
	if ue.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", ue.StatusCode)
	}
}

func TestHandleRequestHandlerPanic(t *testing.T) {
	c := newTestConnector(t)

	panicking := func(ctx context.Context, params map[string]any) (any, error) {
		panic("nil pointer somewhere")
	}
	if err := c.RegisterEndpoint("/panic", "GET", panicking, EndpointSpec{}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	_, err := c.HandleRequest(context.Background(), "/panic", "GET", nil, nil)
	if err == nil {
		t.Fatal("Expected panic to surface as an error")
	}
	ue := err.(*Error)
	if ue.Code != CodeInternal {
		t.Errorf("Expected INTERNAL_ERROR, got %s", ue.Code)
	}
	if ue.StatusCode != 500 {
		t.Errorf("Expected status 500, got %d", ue.StatusCode)
	}
}

func TestHandleRequestDeterministic(t *testing.T) {
	c := newTestConnector(t)

	if err := c.RegisterEndpoint("/users/{id}", "GET", echoHandler, EndpointSpec{
		Params: []ParamSpec{{Name: "id", Type: TypeInteger, Required: true}},
	}); err != nil {
		t.Fatalf("RegisterEndpoint failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		result, err := c.HandleRequest(context.Background(), "/users/42", "GET", nil, nil)
		if err != nil {
			t.Fatalf("HandleRequest failed on iteration %d: %v", i, err)
		}
		if result.Data.(map[string]any)["id"] != 42 {
			t.Fatalf("Expected identical outcome on iteration %d", i)
		}
	}
}
