package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ExtractJSON returns the JSON object contained in raw. When raw is not a
// JSON document on its own (models sometimes wrap output in prose or code
// fences), the first well-formed object embedded in the text is returned.
func ExtractJSON(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &ErrParse{Err: errors.New("empty response")}
	}
	if trimmed[0] == '{' && json.Valid(trimmed) {
		return json.RawMessage(trimmed), nil
	}

	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != '{' {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(trimmed[i:]))
		var obj json.RawMessage
		if err := dec.Decode(&obj); err == nil && len(obj) > 0 && obj[0] == '{' {
			return obj, nil
		}
	}

	return nil, &ErrParse{
		Content: string(raw),
		Err:     errors.New("no well-formed JSON object found"),
	}
}

// DecodeJSON extracts the first JSON object from raw and decodes it into v.
func DecodeJSON(raw []byte, v any) error {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(obj, v); err != nil {
		return &ErrParse{Content: string(raw), Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
