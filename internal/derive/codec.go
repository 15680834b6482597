package derive

import (
	"bytes"
	"encoding/json"
	"fmt"

	"snapshot-keeper/internal/domain"
)

const indent = "  "

// Encode renders the derived document: a JSON array with 2-space indentation.
func Encode(list domain.DerivedList) ([]byte, error) {
	if list == nil {
		list = domain.DerivedList{}
	}
	return json.MarshalIndent(list, "", indent)
}

// Decode parses a persisted derived document.
func Decode(content []byte) (domain.DerivedList, error) {
	var list domain.DerivedList
	if err := json.Unmarshal(content, &list); err != nil {
		return nil, fmt.Errorf("decode derived document: %w", err)
	}
	if list == nil {
		list = domain.DerivedList{}
	}
	return list, nil
}

// PrettyJSON re-indents a raw payload with 2 spaces without touching its content.
func PrettyJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", indent); err != nil {
		return nil, fmt.Errorf("indent raw snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
