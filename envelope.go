package ucb

import (
	"reflect"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// EnvelopeVersion is the wire version stamped into every envelope.
const EnvelopeVersion = "1.0.0"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Metadata describes the payload of a canonical envelope.
type Metadata struct {
	Type      TypeTag `json:"type"`
	Timestamp string  `json:"timestamp"`
	Source    string  `json:"source"`
	Version   string  `json:"version"`
}

// Envelope is the wire-level standardized form of any value.
type Envelope struct {
	Data     any      `json:"data"`
	Metadata Metadata `json:"metadata"`
}

// StandardizeOutput wraps a native value in the canonical envelope and
// returns its JSON form. Values with a registered adapter serialize through
// it first.
func (c *Connector) StandardizeOutput(nativeData any) (string, error) {
	tag := c.typeMapper.InferType(nativeData)

	data := nativeData
	if nativeData != nil {
		if idx, ok := c.typeMapper.byType[reflect.TypeOf(nativeData)]; ok {
			serialized, err := c.typeMapper.adapters[idx].adapter.Serialize(nativeData)
			if err != nil {
				return "", WrapInternal(err)
			}
			data = serialized
		}
	}

	env := Envelope{
		Data: data,
		Metadata: Metadata{
			Type:      tag,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Source:    c.appName + "/" + c.version,
			Version:   EnvelopeVersion,
		},
	}

	out, err := json.Marshal(env)
	if err != nil {
		return "", WrapInternal(err)
	}
	return string(out), nil
}

// TranslateInput unwraps a canonical envelope back to a native value,
// validating against the expected tag when one is given. Pass TypeAny (or
// the empty tag) to skip validation.
func (c *Connector) TranslateInput(universalData string, expectedType TypeTag) (any, error) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(universalData), &parsed); err != nil {
		return nil, NewValidationError("invalid JSON data",
			[]map[string]any{{"error": err.Error()}})
	}

	data, ok := parsed["data"]
	if !ok {
		keys := make([]any, 0, len(parsed))
		for k := range parsed {
			keys = append(keys, k)
		}
		return nil, NewValidationError("invalid envelope: missing 'data' field",
			[]map[string]any{{"received": keys}})
	}

	if expectedType != "" && expectedType != TypeAny {
		return c.typeMapper.ValidateAndConvert(data, expectedType)
	}
	return data, nil
}
