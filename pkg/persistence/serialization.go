package persistence

import (
	"encoding/json"
	"fmt"
)

// MarshalAccountClassification serializes an AccountClassification to JSON bytes.
func MarshalAccountClassification(ac *AccountClassification) ([]byte, error) {
	if ac == nil {
		return nil, fmt.Errorf("cannot marshal nil AccountClassification")
	}

	data, err := json.Marshal(ac)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal AccountClassification to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalAccountClassification deserializes an AccountClassification from JSON bytes.
func UnmarshalAccountClassification(data []byte) (*AccountClassification, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var ac AccountClassification
	if err := json.Unmarshal(data, &ac); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to AccountClassification: %w", err)
	}

	return &ac, nil
}

// MarshalSessionRecord serializes a SessionRecord to JSON bytes.
func MarshalSessionRecord(sr *SessionRecord) ([]byte, error) {
	if sr == nil {
		return nil, fmt.Errorf("cannot marshal nil SessionRecord")
	}

	return json.Marshal(sr)
}

// UnmarshalSessionRecord deserializes a SessionRecord from JSON bytes.
func UnmarshalSessionRecord(data []byte) (*SessionRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var sr SessionRecord
	if err := json.Unmarshal(data, &sr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to SessionRecord: %w", err)
	}

	return &sr, nil
}
