package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// listWrapperKeys are the wrapper object keys the backend is known to use
// for list payloads, in priority order.
var listWrapperKeys = []string{"results", "cafes", "data", "items", "rows"}

// decodeList accepts either a bare JSON array or an object wrapping the
// array under one of listWrapperKeys.
func decodeList(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, err
	}
	for _, key := range listWrapperKeys {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			continue
		}
		return list, nil
	}
	return nil, fmt.Errorf("no list found under %v", listWrapperKeys)
}

// decodeRecords decodes a tolerant list payload into generic records.
// Entries that are not JSON objects are dropped.
func decodeRecords(body []byte) ([]map[string]any, error) {
	list, err := decodeList(body)
	if err != nil {
		return nil, err
	}
	records := make([]map[string]any, 0, len(list))
	for _, raw := range list {
		var rec map[string]any
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
