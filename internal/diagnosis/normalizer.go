package diagnosis

import (
	"encoding/json"
	"strings"
)

// Per-field defaults applied when the structured payload is present but a
// field is missing or of the wrong shape.
const (
	defaultCondition    = "Unknown Condition"
	defaultConfidence   = 0.7
	defaultDescription  = "Disease analysis completed"
	defaultExpectedLoss = "Variable depending on treatment"
)

var (
	defaultSymptoms          = []string{"Symptoms detected in image"}
	defaultCauses            = []string{"Multiple factors may contribute"}
	defaultTreatment         = []string{"Consult local agricultural expert"}
	defaultOrganicTreatment  = []string{"Use organic remedies recommended by local experts"}
	defaultChemicalTreatment = []string{"Use chemical treatments only as advised by local experts"}
	defaultPrevention        = []string{"Follow good agricultural practices"}
)

// descriptionPrefixLen bounds the raw-text prefix used for the fallback description.
const descriptionPrefixLen = 200

// Normalize converts a raw model response into a fully-valid Record. It never
// fails: if no parseable structured payload is found in the text, a
// deterministic fallback record is synthesized from fixed advisory defaults.
func Normalize(raw string) Record {
	payload, ok := extractJSON(raw)
	if !ok {
		return fallbackRecord(raw)
	}

	return Record{
		Condition:         stringField(payload, FieldCondition, defaultCondition),
		Confidence:        clampConfidence(floatField(payload, FieldConfidence, defaultConfidence)),
		Severity:          severityField(payload),
		Description:       stringField(payload, FieldDescription, defaultDescription),
		Symptoms:          listField(payload, FieldSymptoms, defaultSymptoms),
		Causes:            listField(payload, FieldCauses, defaultCauses),
		TreatmentSteps:    listField(payload, FieldTreatment, defaultTreatment),
		OrganicTreatment:  listField(payload, FieldOrganicTreatment, defaultOrganicTreatment),
		ChemicalTreatment: listField(payload, FieldChemicalTreatment, defaultChemicalTreatment),
		PreventionTips:    listField(payload, FieldPrevention, defaultPrevention),
		ExpectedLoss:      stringField(payload, FieldExpectedLoss, defaultExpectedLoss),
		Urgency:           urgencyField(payload),
	}
}

// fallbackRecord synthesizes a record when no structured payload is present.
// The advisory lists are fixed so the fallback is deterministic given only
// "fallback was taken"; only the description depends on the raw text.
func fallbackRecord(raw string) Record {
	return Record{
		Condition:   "Analysis Completed",
		Confidence:  0.75,
		Severity:    SeverityMedium,
		Description: truncate(raw, descriptionPrefixLen) + "...",
		Symptoms:    []string{"Visual symptoms detected in the uploaded image"},
		Causes:      []string{"Multiple environmental and pathological factors"},
		TreatmentSteps: []string{
			"Consult with local agricultural extension officer",
			"Apply appropriate fungicide or pesticide as recommended",
			"Improve drainage and air circulation around plants",
			"Remove affected plant parts if necessary",
		},
		OrganicTreatment: []string{
			"Spray neem oil solution on affected areas",
			"Apply well-decomposed compost or farmyard manure",
		},
		ChemicalTreatment: []string{
			"Apply a broad-spectrum fungicide as per label directions",
			"Ask your input dealer for a locally approved pesticide",
		},
		PreventionTips: []string{
			"Use disease-resistant crop varieties",
			"Maintain proper plant spacing",
			"Follow crop rotation practices",
			"Ensure proper irrigation management",
		},
		ExpectedLoss: "10-20% if treated promptly",
		Urgency:      UrgencyWithinWeek,
	}
}

// extractJSON finds the first balanced {...} substring of raw that decodes as
// a JSON object. Brace matching is string- and escape-aware so braces inside
// string values do not terminate the scan.
func extractJSON(raw string) (map[string]any, bool) {
	for start := 0; start < len(raw); start++ {
		if raw[start] != '{' {
			continue
		}

		end, found := matchBrace(raw, start)
		if !found {
			// Unmatched brace; a later '{' may still open a balanced object.
			continue
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err == nil {
			return payload, true
		}

		// Balanced but not valid JSON; keep scanning from the next brace.
	}

	return nil, false
}

// matchBrace returns the index of the brace closing raw[start], which must be '{'.
func matchBrace(raw string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}

// stringField reads a non-empty string value or returns the default.
func stringField(payload map[string]any, key, fallback string) string {
	if v, ok := payload[key].(string); ok {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return fallback
}

// floatField reads a numeric value or returns the default.
func floatField(payload map[string]any, key string, fallback float64) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return fallback
}

// listField reads a list of non-empty strings, dropping anything else.
// Missing, wrong-shaped, or effectively empty lists become the default.
func listField(payload map[string]any, key string, fallback []string) []string {
	items, ok := payload[key].([]any)
	if !ok {
		return append([]string(nil), fallback...)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

// severityField coerces the severity value, defaulting to medium.
func severityField(payload map[string]any) Severity {
	if v, ok := payload[FieldSeverity].(string); ok {
		s := Severity(strings.ToLower(strings.TrimSpace(v)))
		if s.Valid() {
			return s
		}
	}
	return SeverityMedium
}

// urgencyField coerces the urgency value, defaulting to within_week.
func urgencyField(payload map[string]any) Urgency {
	if v, ok := payload[FieldUrgency].(string); ok {
		u := Urgency(strings.ToLower(strings.TrimSpace(v)))
		if u.Valid() {
			return u
		}
	}
	return UrgencyWithinWeek
}

// clampConfidence bounds confidence into [0, 1].
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
