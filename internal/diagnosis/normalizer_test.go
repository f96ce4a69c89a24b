package diagnosis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWellFormedResponse(t *testing.T) {
	raw := `Here is my analysis of the crop image:

{
  "disease": "Leaf Blight",
  "confidence": 0.92,
  "severity": "high",
  "description": "Fungal infection spreading across leaf tissue.",
  "symptoms": ["Brown lesions", "Yellowing edges"],
  "causes": ["Prolonged humidity"],
  "treatment": ["Apply copper fungicide", "Remove affected leaves"],
  "organicTreatment": ["Neem oil spray"],
  "chemicalTreatment": ["Mancozeb 75% WP"],
  "prevention": ["Avoid overhead irrigation"],
  "expectedLoss": "30-40% if untreated",
  "urgency": "immediate"
}

Let me know if you need more detail.`

	rec := Normalize(raw)

	assert.Equal(t, "Leaf Blight", rec.Condition)
	assert.Equal(t, 0.92, rec.Confidence)
	assert.Equal(t, SeverityHigh, rec.Severity)
	assert.Equal(t, "Fungal infection spreading across leaf tissue.", rec.Description)
	assert.Equal(t, []string{"Brown lesions", "Yellowing edges"}, rec.Symptoms)
	assert.Equal(t, []string{"Prolonged humidity"}, rec.Causes)
	assert.Equal(t, []string{"Apply copper fungicide", "Remove affected leaves"}, rec.TreatmentSteps)
	assert.Equal(t, []string{"Neem oil spray"}, rec.OrganicTreatment)
	assert.Equal(t, []string{"Mancozeb 75% WP"}, rec.ChemicalTreatment)
	assert.Equal(t, []string{"Avoid overhead irrigation"}, rec.PreventionTips)
	assert.Equal(t, "30-40% if untreated", rec.ExpectedLoss)
	assert.Equal(t, UrgencyImmediate, rec.Urgency)
}

func TestNormalizeMissingFieldsGetDefaults(t *testing.T) {
	rec := Normalize(`{"disease": "Rust"}`)

	assert.Equal(t, "Rust", rec.Condition)
	assert.Equal(t, 0.7, rec.Confidence)
	assert.Equal(t, SeverityMedium, rec.Severity)
	assert.Equal(t, "Disease analysis completed", rec.Description)
	assert.Equal(t, []string{"Symptoms detected in image"}, rec.Symptoms)
	assert.Equal(t, []string{"Multiple factors may contribute"}, rec.Causes)
	assert.Equal(t, []string{"Consult local agricultural expert"}, rec.TreatmentSteps)
	assert.Equal(t, []string{"Follow good agricultural practices"}, rec.PreventionTips)
	assert.Equal(t, "Variable depending on treatment", rec.ExpectedLoss)
	assert.Equal(t, UrgencyWithinWeek, rec.Urgency)
}

func TestNormalizeCoercion(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want func(t *testing.T, rec Record)
	}{
		{
			name: "confidence clamped high",
			raw:  `{"confidence": 1.4}`,
			want: func(t *testing.T, rec Record) { assert.Equal(t, 1.0, rec.Confidence) },
		},
		{
			name: "confidence clamped low",
			raw:  `{"confidence": -0.2}`,
			want: func(t *testing.T, rec Record) { assert.Equal(t, 0.0, rec.Confidence) },
		},
		{
			name: "confidence wrong type",
			raw:  `{"confidence": "very sure"}`,
			want: func(t *testing.T, rec Record) { assert.Equal(t, 0.7, rec.Confidence) },
		},
		{
			name: "severity case folded",
			raw:  `{"severity": " HIGH "}`,
			want: func(t *testing.T, rec Record) { assert.Equal(t, SeverityHigh, rec.Severity) },
		},
		{
			name: "severity unknown value",
			raw:  `{"severity": "catastrophic"}`,
			want: func(t *testing.T, rec Record) { assert.Equal(t, SeverityMedium, rec.Severity) },
		},
		{
			name: "urgency case folded",
			raw:  `{"urgency": "IMMEDIATE"}`,
			want: func(t *testing.T, rec Record) { assert.Equal(t, UrgencyImmediate, rec.Urgency) },
		},
		{
			name: "urgency unknown value",
			raw:  `{"urgency": "yesterday"}`,
			want: func(t *testing.T, rec Record) { assert.Equal(t, UrgencyWithinWeek, rec.Urgency) },
		},
		{
			name: "list drops non-strings and blanks",
			raw:  `{"symptoms": ["Spots", 42, "  ", "Wilting"]}`,
			want: func(t *testing.T, rec Record) {
				assert.Equal(t, []string{"Spots", "Wilting"}, rec.Symptoms)
			},
		},
		{
			name: "list of only junk becomes default",
			raw:  `{"symptoms": [42, false, "  "]}`,
			want: func(t *testing.T, rec Record) {
				assert.Equal(t, []string{"Symptoms detected in image"}, rec.Symptoms)
			},
		},
		{
			name: "blank condition becomes default",
			raw:  `{"disease": "   "}`,
			want: func(t *testing.T, rec Record) {
				assert.Equal(t, "Unknown Condition", rec.Condition)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, Normalize(tt.raw))
		})
	}
}

func TestNormalizeExtractsEmbeddedObject(t *testing.T) {
	raw := "```json\n{\"disease\": \"Powdery Mildew\", \"description\": \"White patches with a {braced} note\"}\n```"

	rec := Normalize(raw)
	assert.Equal(t, "Powdery Mildew", rec.Condition)
	assert.Equal(t, "White patches with a {braced} note", rec.Description)
}

func TestNormalizeBracesInsideStrings(t *testing.T) {
	// The first brace opens a value containing "}" inside a string; the
	// matcher must not terminate early.
	raw := `{"disease": "Blight", "description": "closes like } but keeps going"}`

	rec := Normalize(raw)
	assert.Equal(t, "Blight", rec.Condition)
	assert.Equal(t, `closes like } but keeps going`, rec.Description)
}

func TestNormalizeProseFallsBack(t *testing.T) {
	raw := "The leaf shows browning which could come from several causes."

	rec := Normalize(raw)

	assert.Equal(t, "Analysis Completed", rec.Condition)
	assert.Equal(t, 0.75, rec.Confidence)
	assert.Equal(t, SeverityMedium, rec.Severity)
	assert.Equal(t, raw+"...", rec.Description)
	assert.Equal(t, "10-20% if treated promptly", rec.ExpectedLoss)
	assert.Equal(t, UrgencyWithinWeek, rec.Urgency)
	require.Len(t, rec.TreatmentSteps, 4)
	assert.Equal(t, "Consult with local agricultural extension officer", rec.TreatmentSteps[0])
	assert.NotEmpty(t, rec.OrganicTreatment)
	assert.NotEmpty(t, rec.ChemicalTreatment)
	assert.NotEmpty(t, rec.PreventionTips)
}

func TestNormalizeFallbackTruncatesLongText(t *testing.T) {
	raw := strings.Repeat("x", 500)

	rec := Normalize(raw)
	assert.Equal(t, strings.Repeat("x", 200)+"...", rec.Description)
}

func TestNormalizeFallbackTruncatesRuneSafe(t *testing.T) {
	raw := strings.Repeat("क", 300)

	rec := Normalize(raw)
	assert.Equal(t, strings.Repeat("क", 200)+"...", rec.Description)
	assert.True(t, strings.HasSuffix(rec.Description, "क..."))
}

func TestNormalizeSkipsUnmatchedLeadingBrace(t *testing.T) {
	// The leftmost brace never closes, but a later balanced object exists.
	raw := `{ x {"disease":"Rust","severity":"low"}`

	rec := Normalize(raw)
	assert.Equal(t, "Rust", rec.Condition)
	assert.Equal(t, SeverityLow, rec.Severity)
}

func TestNormalizeUnbalancedBraceFallsBack(t *testing.T) {
	raw := `{"disease": "Blight", "description": "never closes`

	rec := Normalize(raw)
	assert.Equal(t, "Analysis Completed", rec.Condition)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	inputs := []string{
		`{"disease": "Rust", "confidence": 0.5}`,
		"plain prose answer",
		"",
	}
	for _, raw := range inputs {
		first := Normalize(raw)
		second := Normalize(raw)
		assert.Equal(t, first, second, "input %q", raw)
	}
}

// Every field of every normalized record must be populated, whatever the input.
func TestNormalizeTotality(t *testing.T) {
	inputs := []string{
		"",
		"{}",
		"null",
		"[1, 2, 3]",
		`{"disease": null, "confidence": null, "symptoms": null}`,
		"no json here at all",
		`{"disease": "X"} trailing { garbage`,
	}

	for _, raw := range inputs {
		rec := Normalize(raw)

		assert.NotEmpty(t, rec.Condition, "input %q", raw)
		assert.GreaterOrEqual(t, rec.Confidence, 0.0, "input %q", raw)
		assert.LessOrEqual(t, rec.Confidence, 1.0, "input %q", raw)
		assert.True(t, rec.Severity.Valid(), "input %q", raw)
		assert.NotEmpty(t, rec.Description, "input %q", raw)
		assert.NotEmpty(t, rec.Symptoms, "input %q", raw)
		assert.NotEmpty(t, rec.Causes, "input %q", raw)
		assert.NotEmpty(t, rec.TreatmentSteps, "input %q", raw)
		assert.NotEmpty(t, rec.OrganicTreatment, "input %q", raw)
		assert.NotEmpty(t, rec.ChemicalTreatment, "input %q", raw)
		assert.NotEmpty(t, rec.PreventionTips, "input %q", raw)
		assert.NotEmpty(t, rec.ExpectedLoss, "input %q", raw)
		assert.True(t, rec.Urgency.Valid(), "input %q", raw)
	}
}
