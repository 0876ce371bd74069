package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// EncodeArguments serializes a function-call argument mapping into the JSON
// string form backends transmit. A nil mapping encodes as "{}".
func EncodeArguments(args map[string]any) (string, error) {
	if args == nil {
		return "{}", nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode arguments: %w", err)
	}
	return string(data), nil
}

// DecodeArguments parses the JSON string payload of a function call.
//
// An empty payload decodes to an empty mapping. Values take the canonical
// encoding/json shapes (float64, string, bool, nil, []any, map[string]any).
// The payload must be a single JSON object.
func DecodeArguments(payload string) (map[string]any, error) {
	if strings.TrimSpace(payload) == "" {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}
	if args == nil {
		return nil, fmt.Errorf("decode arguments: payload is not an object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode arguments: trailing data after object")
	}
	return args, nil
}
