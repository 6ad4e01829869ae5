package ucb

// DescriptorContext is the canonical @context of every exported descriptor.
const DescriptorContext = "https://uip.org/context/v1"

// ParameterDescriptor is the descriptor form of a declared parameter.
type ParameterDescriptor struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// AuthenticationDescriptor advertises an endpoint's auth requirements.
type AuthenticationDescriptor struct {
	Required bool     `json:"required"`
	Methods  []string `json:"methods"`
}

// EndpointDescriptor is the descriptor form of a registered endpoint.
type EndpointDescriptor struct {
	Path           string                   `json:"path"`
	Method         string                   `json:"method"`
	Parameters     []ParameterDescriptor    `json:"parameters"`
	Responses      []ResponseSpec           `json:"responses"`
	Authentication AuthenticationDescriptor `json:"authentication"`
	RateLimit      int                      `json:"rateLimit,omitempty"`
	Description    string                   `json:"description,omitempty"`
}

// APIDescriptor is the canonical self-description of a connector's API.
// Exporters to documentation formats consume this read-only document.
type APIDescriptor struct {
	Context   string               `json:"@context"`
	Type      string               `json:"@type"`
	ID        string               `json:"@id"`
	Version   string               `json:"version"`
	Name      string               `json:"name"`
	BasePath  string               `json:"basePath"`
	Endpoints []EndpointDescriptor `json:"endpoints"`
}

// Descriptor builds the canonical API descriptor from the registered
// endpoints.
func (c *Connector) Descriptor() *APIDescriptor {
	endpoints := c.Endpoints()

	out := &APIDescriptor{
		Context:   DescriptorContext,
		Type:      "APIDescriptor",
		ID:        "https://api.example.com/" + c.appName,
		Version:   c.version,
		Name:      c.appName,
		BasePath:  c.basePath,
		Endpoints: make([]EndpointDescriptor, 0, len(endpoints)),
	}

	for _, ep := range endpoints {
		params := make([]ParameterDescriptor, 0, len(ep.Parameters))
		for _, p := range ep.Parameters {
			params = append(params, ParameterDescriptor{
				Name:        p.Name,
				Location:    string(p.Location),
				Required:    p.Required,
				Type:        string(p.Type),
				Description: p.Description,
			})
		}

		methods := make([]string, 0, len(ep.AuthMethods))
		for _, m := range ep.AuthMethods {
			methods = append(methods, string(m))
		}

		out.Endpoints = append(out.Endpoints, EndpointDescriptor{
			Path:       ep.Path,
			Method:     ep.Method,
			Parameters: params,
			Responses:  ep.Responses,
			Authentication: AuthenticationDescriptor{
				Required: ep.AuthRequired,
				Methods:  methods,
			},
			RateLimit:   ep.RateLimit,
			Description: ep.Description,
		})
	}

	return out
}

// DescriptorJSON renders the API descriptor as JSON.
func (c *Connector) DescriptorJSON() (string, error) {
	out, err := json.Marshal(c.Descriptor())
	if err != nil {
		return "", WrapInternal(err)
	}
	return string(out), nil
}
