// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich turns raw source records into reconciled studies by calling
// an external extraction service and resolving conflicts between source-
// provided and extracted field values.
package enrich

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Extraction is the structured response from the extraction service for one
// record. Narrative fields are deliberately untyped: the service sometimes
// returns a list where a string was requested, and a missing field must not
// fail the decode. resolveString collapses every case to a plain string.
type Extraction struct {
	Summary       any `json:"summary"`
	Enrollment    any `json:"enrollment"`
	Demographics  any `json:"demographics"`
	Exposure      any `json:"exposure"`
	Endpoints     any `json:"endpoints"`
	Biomarkers    any `json:"biomarkers"`
	ProteinData   any `json:"protein_data"`
	BiologyNote   any `json:"biology_note"`
	AdverseEvents any `json:"adverse_events"`
	UnexpectedAEs any `json:"unexpected_aes"`
	NextSteps     any `json:"next_steps"`

	HasBiomarkerMatch  bool `json:"has_biomarker_match"`
	HasUnexpectedAE    bool `json:"has_unexpected_ae"`
	MissingDataPenalty bool `json:"missing_data_penalty"`
}

// ParseExtraction decodes the service's JSON object. Missing fields are not
// an error: absent booleans are false and absent narrative values resolve to
// their sentinel later. Only a response that is not a JSON object fails.
func ParseExtraction(data []byte) (Extraction, error) {
	var ex Extraction
	if err := json.Unmarshal(data, &ex); err != nil {
		return Extraction{}, fmt.Errorf("parsing extraction response: %w", err)
	}
	return ex, nil
}

// resolveString collapses a duck-typed extraction value to a string, using
// sentinel when nothing usable was returned. Lists join with ", ".
func resolveString(v any, sentinel string) string {
	switch val := v.(type) {
	case nil:
		return sentinel
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return sentinel
		}
		return s
	case []any:
		var parts []string
		for _, item := range val {
			if s := resolveString(item, ""); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return sentinel
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
