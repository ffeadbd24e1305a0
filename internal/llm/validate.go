package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// validators holds the compiled form of each Schema, keyed by pointer.
// Schemas are package-level values, so this stays small.
var validators sync.Map // *Schema -> *jsonschema.Schema

// validateResponse recovers the JSON object from raw and checks it
// against schema. The recovered object is what providers return as the
// response content. A nil schema passes raw through unchecked.
func validateResponse(schema *Schema, raw json.RawMessage) (json.RawMessage, error) {
	if schema == nil {
		return raw, nil
	}
	invalid := func(err error) error {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}

	obj, err := ExtractJSON(raw)
	if err != nil {
		return nil, invalid(err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(obj))
	if err != nil {
		return nil, invalid(fmt.Errorf("invalid JSON: %w", err))
	}

	v, err := schema.validator()
	if err != nil {
		return nil, invalid(err)
	}
	if err := v.Validate(doc); err != nil {
		return nil, invalid(fmt.Errorf("does not match %s: %w", schema.Name, err))
	}
	return obj, nil
}

func (s *Schema) validator() (*jsonschema.Schema, error) {
	if v, ok := validators.Load(s); ok {
		return v.(*jsonschema.Schema), nil
	}

	// The compiler wants decoded JSON, not Go maps holding typed slices.
	def, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", s.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", s.Name, err)
	}

	url := fmt.Sprintf("schema://%s.json", s.Name)
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", s.Name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", s.Name, err)
	}

	v, _ := validators.LoadOrStore(s, compiled)
	return v.(*jsonschema.Schema), nil
}
