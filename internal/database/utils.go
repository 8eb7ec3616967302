package database

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// ToJSON marshals an opaque metadata document. Empty documents are stored as
// NULL.
func ToJSON(document map[string]any) (datatypes.JSON, error) {
	if len(document) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("could not marshal metadata: %w", err)
	}
	return datatypes.JSON(b), nil
}

func FromJSON(raw datatypes.JSON) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var document map[string]any
	if err := json.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("could not unmarshal metadata: %w", err)
	}
	return document, nil
}
