package services

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// applyMergePatch returns a copy of current with an RFC 7386 merge patch
// applied: null removes a key, nested objects merge, anything else replaces.
func applyMergePatch[T any](current T, patch map[string]interface{}) (T, error) {
	var out T
	doc, err := json.Marshal(current)
	if err != nil {
		return out, fmt.Errorf("failed to encode value: %w", err)
	}
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return out, fmt.Errorf("failed to encode patch: %w", err)
	}
	merged, err := jsonpatch.MergePatch(doc, patchJSON)
	if err != nil {
		return out, fmt.Errorf("failed to apply patch: %w", err)
	}
	if err := json.Unmarshal(merged, &out); err != nil {
		return out, fmt.Errorf("patch does not fit the target: %w", err)
	}
	return out, nil
}

// toMap converts a struct to its JSON object form
func toMap(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return out, nil
}

// fromMap decodes a JSON object form into v
func fromMap(m map[string]interface{}, v interface{}) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}
	return nil
}
