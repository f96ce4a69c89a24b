package diagnosis

import (
	"fmt"

	"github.com/Atharv1136/KisanDhan/internal/language"
)

// Summary formats a one-line localized summary of a record for the chat
// transcript: condition, severity, and the first treatment step.
func Summary(rec Record, profile language.Profile) string {
	firstStep := rec.TreatmentSteps[0]
	severity := profile.SeverityName(string(rec.Severity))
	return fmt.Sprintf(profile.SummaryFormat, rec.Condition, severity, firstStep)
}
