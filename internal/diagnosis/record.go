// Package diagnosis turns raw model output into validated crop-disease records.
package diagnosis

// Severity grades how far a condition has progressed.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether the severity is a recognized member.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Urgency grades how quickly the farmer should act.
type Urgency string

const (
	UrgencyImmediate  Urgency = "immediate"
	UrgencyWithinWeek Urgency = "within_week"
	UrgencyMonitor    Urgency = "monitor"
)

// Valid reports whether the urgency is a recognized member.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyImmediate, UrgencyWithinWeek, UrgencyMonitor:
		return true
	}
	return false
}

// Field names of the structured payload the model is instructed to emit.
// The prompt composer embeds these same constants into the diagnosis prompt,
// so the instructed schema and the consumed schema cannot drift apart.
const (
	FieldCondition         = "disease"
	FieldConfidence        = "confidence"
	FieldSeverity          = "severity"
	FieldDescription       = "description"
	FieldSymptoms          = "symptoms"
	FieldCauses            = "causes"
	FieldTreatment         = "treatment"
	FieldOrganicTreatment  = "organicTreatment"
	FieldChemicalTreatment = "chemicalTreatment"
	FieldPrevention        = "prevention"
	FieldExpectedLoss      = "expectedLoss"
	FieldUrgency           = "urgency"
)

// Record is a fully-populated disease diagnosis. Every field is guaranteed
// non-empty by Normalize; downstream presentation relies on that.
type Record struct {
	Condition         string   `json:"condition"`
	Confidence        float64  `json:"confidence"`
	Severity          Severity `json:"severity"`
	Description       string   `json:"description"`
	Symptoms          []string `json:"symptoms"`
	Causes            []string `json:"causes"`
	TreatmentSteps    []string `json:"treatmentSteps"`
	OrganicTreatment  []string `json:"organicTreatment"`
	ChemicalTreatment []string `json:"chemicalTreatment"`
	PreventionTips    []string `json:"preventionTips"`
	ExpectedLoss      string   `json:"expectedLoss"`
	Urgency           Urgency  `json:"urgency"`
}
