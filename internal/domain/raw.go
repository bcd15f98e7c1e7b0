package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeRawRecords parses a corpus document. Anything but an array of
// objects is rejected with ErrNotCollection.
func DecodeRawRecords(data []byte) ([]RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotCollection
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCollection, err)
	}

	records := make([]RawRecord, 0, len(elems))
	for i, elem := range elems {
		rec, err := DecodeRawRecord(elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// DecodeRawRecord parses a single record object.
func DecodeRawRecord(data []byte) (RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotCollection
	}
	var rec RawRecord
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCollection, err)
	}
	return rec, nil
}
