// Package utils provides lenient parsing helpers for data that does not
// arrive as strict JSON: JSON blobs scraped out of provider HTML pages and
// human-edited Hjson preset files.
package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON attempts to fix common defects in near-JSON payloads:
// single quotes, unquoted keys, trailing commas, unclosed objects, and
// surrounding markdown fences. Scraped provider blobs regularly carry these.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("json repair failed: %w", err)
	}
	return repaired, nil
}

// MustRepairJSON is like RepairJSON but returns an empty object on failure,
// for call sites that need a guaranteed JSON string.
func MustRepairJSON(malformed string) string {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "{}"
	}
	return repaired
}

// ParseHJSONToStruct parses Hjson (comments, unquoted keys, optional commas)
// directly into a Go struct. Preferred when the schema is known, e.g. the
// scenario preset file.
func ParseHJSONToStruct(data string, schema interface{}) error {
	if err := hjson.Unmarshal([]byte(data), schema); err != nil {
		return fmt.Errorf("hjson unmarshal: %w", err)
	}
	return nil
}

// SmartParse tries progressively more lenient strategies to get a payload
// into schema: strict JSON, then repaired JSON, then Hjson.
func SmartParse(input string, schema interface{}) (string, error) {
	if err := json.Unmarshal([]byte(input), schema); err == nil {
		return input, nil
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), schema); err == nil {
			return repaired, nil
		}
	}

	var generic interface{}
	if err := hjson.Unmarshal([]byte(input), &generic); err == nil {
		normalized, err := json.Marshal(generic)
		if err == nil {
			if err := json.Unmarshal(normalized, schema); err == nil {
				return string(normalized), nil
			}
		}
	}

	return "", fmt.Errorf("all parsing strategies failed for input")
}
