package models

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced row does not exist. Callers
// decide whether that is fatal for the request or rendered as a placeholder.
var ErrNotFound = errors.New("record not found")

// notFound maps gorm's sentinel onto ours so handlers never import gorm
// just to test for a missing row.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// decodeMap decodes a stored jsonb object. Malformed input is treated as
// absent, never as an error (answers written by old app versions may hold
// plain scalars where newer ones hold JSON).
func decodeMap(raw []byte) (map[string]interface{}, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

// decodeStringList decodes a stored jsonb array of strings, leniently.
func decodeStringList(raw []byte) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	return list, true
}

// decodeValue decodes an answer value that may be a JSON scalar, a JSON
// array or a raw string. Raw strings come back unchanged.
func decodeValue(value string) interface{} {
	if value == "" {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return value
	}
	return v
}
