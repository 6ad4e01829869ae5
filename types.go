package ucb

import (
	"context"
	"strings"
	"time"
)

// TypeTag identifies a canonical schema type. Parameterized array tags take
// the form "Array<T>" where T is itself a TypeTag.
type TypeTag string

const (
	TypeString   TypeTag = "String"
	TypeInteger  TypeTag = "Integer"
	TypeFloat    TypeTag = "Float"
	TypeBoolean  TypeTag = "Boolean"
	TypeObject   TypeTag = "Object"
	TypeArray    TypeTag = "Array"
	TypeDateTime TypeTag = "DateTime"
	TypeDate     TypeTag = "Date"
	TypeBinary   TypeTag = "Binary"
	TypeNull     TypeTag = "Null"
	TypeAny      TypeTag = "Any"
	TypeUnion    TypeTag = "Union"
)

// ArrayOf builds the parameterized array tag for an element tag.
func ArrayOf(elem TypeTag) TypeTag {
	return TypeTag("Array<" + string(elem) + ">")
}

// IsArray reports whether the tag is Array or a parameterized Array<T>.
func (t TypeTag) IsArray() bool {
	return t == TypeArray || strings.HasPrefix(string(t), "Array<")
}

// Elem returns the element tag of a parameterized Array<T>, or Any for a
// bare Array tag.
func (t TypeTag) Elem() TypeTag {
	s := string(t)
	if strings.HasPrefix(s, "Array<") && strings.HasSuffix(s, ">") {
		return TypeTag(s[len("Array<") : len(s)-1])
	}
	return TypeAny
}

// ParameterLocation says where a parameter is read from on dispatch.
type ParameterLocation string

const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
	LocationBody   ParameterLocation = "body"
)

// AuthMethod enumerates the authentication schemes an endpoint advertises.
type AuthMethod string

const (
	AuthNone   AuthMethod = "none"
	AuthAPIKey AuthMethod = "api_key"
	AuthBearer AuthMethod = "bearer"
	AuthBasic  AuthMethod = "basic"
	AuthOAuth2 AuthMethod = "oauth2"
	AuthCustom AuthMethod = "custom"
)

// BodyParamKey is the reserved params key a host HTTP layer uses to hand the
// decoded request body to HandleRequest.
const BodyParamKey = "__body"

// Parameter describes one declared endpoint parameter. Location is derived at
// registration time and never changes afterwards.
type Parameter struct {
	Name        string            `json:"name"`
	Type        TypeTag           `json:"type"`
	Location    ParameterLocation `json:"location"`
	Required    bool              `json:"required"`
	Description string            `json:"description,omitempty"`
	Default     any               `json:"default,omitempty"`
}

// ResponseSpec describes one possible endpoint response.
type ResponseSpec struct {
	StatusCode  int            `json:"statusCode"`
	ContentType string         `json:"contentType"`
	Schema      map[string]any `json:"schema,omitempty"`
	Description string         `json:"description,omitempty"`
}

// HandlerFunc is a registered operation. It receives the validated parameter
// set keyed by parameter name and returns the native result value.
type HandlerFunc func(ctx context.Context, params map[string]any) (any, error)

// Endpoint is an immutable registered operation. Endpoints are created once
// by RegisterEndpoint, owned by the connector's registry, and never mutated.
type Endpoint struct {
	Path         string
	Method       string
	Handler      HandlerFunc
	Parameters   []Parameter
	Responses    []ResponseSpec
	AuthRequired bool
	AuthMethods  []AuthMethod
	RateLimit    int
	Description  string

	segments []string
}

// ParamSpec declares one parameter at registration time. Required parameters
// must be present on every request; optional ones fall back to Default.
type ParamSpec struct {
	Name        string
	Type        TypeTag
	Required    bool
	Default     any
	Description string
}

// EndpointSpec carries everything RegisterEndpoint needs beyond the path,
// method and handler.
type EndpointSpec struct {
	Params       []ParamSpec
	Returns      TypeTag
	AuthRequired bool
	AuthMethods  []AuthMethod
	RateLimit    int
	Description  string
}

// Result is the canonical success wrapper returned by HandleRequest.
type Result struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// CircuitBreakerConfig holds circuit breaker configuration.
type CircuitBreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

// AuthDescriptor declares how CallRemote injects credentials into an
// outbound request.
type AuthDescriptor struct {
	Type AuthMethod

	// Bearer / OAuth2.
	Token string

	// Basic.
	Username string
	Password string

	// API key.
	KeyName     string
	KeyValue    string
	KeyLocation ParameterLocation // LocationHeader (default) or LocationQuery
}

// RemoteRequest describes one outbound call.
type RemoteRequest struct {
	URL           string
	Method        string
	Body          map[string]any
	Headers       map[string]string
	Auth          *AuthDescriptor
	UseCache      bool
	RetryAttempts int
	Timeout       time.Duration
}

// CacheEntry is one cached remote response value.
type CacheEntry struct {
	Value    any
	StoredAt time.Time
}

// Cache stores remote GET responses keyed by request identity.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	Clear()
	Size() int
}

// Option configures a Connector at construction time.
type Option func(*Connector)
