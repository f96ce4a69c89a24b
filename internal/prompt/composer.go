// Package prompt builds the instruction text sent to the inference collaborator.
//
// Composition is pure text templating: no side effects, no network. The
// diagnosis prompt embeds the structured-output schema from the diagnosis
// package's field and enum constants, keeping the instructed schema and the
// normalizer's expectations in lockstep.
package prompt

import (
	"fmt"
	"strings"

	"github.com/Atharv1136/KisanDhan/internal/diagnosis"
	"github.com/Atharv1136/KisanDhan/internal/language"
)

// ComposeAdvice builds the conversational advice prompt for a user utterance.
func ComposeAdvice(utterance string, profile language.Profile) string {
	var sb strings.Builder

	sb.WriteString("You are an expert agricultural advisor. A farmer is asking: \"")
	sb.WriteString(utterance)
	sb.WriteString("\"\n\n")
	sb.WriteString("Provide practical, actionable advice in a conversational tone. Keep the response concise but informative.\n")
	sb.WriteString("Focus on solutions that are accessible to small-holder farmers in India.\n")
	sb.WriteString("Include specific steps they can take and mention any timing considerations.\n")
	sb.WriteString(profile.ResponseDirective)

	return sb.String()
}

// ComposeMarketInsights builds the market-analysis prompt for a crop,
// optionally scoped to a location.
func ComposeMarketInsights(crop, location string, profile language.Profile) string {
	var sb strings.Builder

	sb.WriteString("As an agricultural market analyst, provide insights for ")
	sb.WriteString(crop)
	if location != "" {
		sb.WriteString(" in ")
		sb.WriteString(location)
	}
	sb.WriteString(".\n\n")
	sb.WriteString("Include information about:\n")
	sb.WriteString("- Current market trends\n")
	sb.WriteString("- Seasonal price patterns\n")
	sb.WriteString("- Factors affecting prices\n")
	sb.WriteString("- Best selling strategies\n")
	sb.WriteString("- Nearby market recommendations\n\n")
	sb.WriteString("Keep the response practical and actionable for farmers.\n")
	sb.WriteString(profile.ResponseDirective)

	return sb.String()
}

// ComposeDiagnosis builds the image-analysis prompt, including the exact JSON
// schema the model must emit.
func ComposeDiagnosis(profile language.Profile) string {
	var sb strings.Builder

	sb.WriteString("You are an expert agricultural pathologist and crop disease specialist. ")
	sb.WriteString("Analyze this crop image and provide a comprehensive disease diagnosis.\n\n")
	sb.WriteString("Respond with a detailed analysis in exactly the following JSON format:\n\n")
	sb.WriteString(schemaText())
	sb.WriteString("\n\nGuidelines for analysis:\n")
	sb.WriteString("1. If you can identify a specific disease, provide the exact name\n")
	sb.WriteString("2. If the plant looks healthy, indicate \"Healthy Plant\" as the disease\n")
	sb.WriteString("3. Consider common crop diseases like blight, rust, wilt, mosaic virus, etc.\n")
	sb.WriteString("4. Provide practical, locally available treatment options\n")
	sb.WriteString("5. Include both organic and chemical treatment options where applicable\n")
	sb.WriteString("6. Judge severity from the extent of damage visible\n")
	fmt.Fprintf(&sb, "7. Urgency must be %q for severe infections, %q for moderate, %q for mild\n",
		diagnosis.UrgencyImmediate, diagnosis.UrgencyWithinWeek, diagnosis.UrgencyMonitor)
	sb.WriteString("8. Expected loss should be realistic (e.g., \"5-10%\", \"20-30%\", \"Minimal if treated promptly\")\n\n")
	sb.WriteString("Focus on actionable advice that small-holder farmers can implement with commonly available resources.\n")
	fmt.Fprintf(&sb, "Write every human-readable text value in %s. %s",
		profile.EnglishName, profile.ResponseDirective)

	return sb.String()
}

// schemaText renders the structured-output schema from the diagnosis field and
// enum constants.
func schemaText() string {
	severities := strings.Join([]string{
		string(diagnosis.SeverityLow),
		string(diagnosis.SeverityMedium),
		string(diagnosis.SeverityHigh),
	}, "|")
	urgencies := strings.Join([]string{
		string(diagnosis.UrgencyImmediate),
		string(diagnosis.UrgencyWithinWeek),
		string(diagnosis.UrgencyMonitor),
	}, "|")

	var sb strings.Builder
	sb.WriteString("{\n")
	fmt.Fprintf(&sb, "  %q: \"Name of the disease or condition\",\n", diagnosis.FieldCondition)
	fmt.Fprintf(&sb, "  %q: 0.85,\n", diagnosis.FieldConfidence)
	fmt.Fprintf(&sb, "  %q: %q,\n", diagnosis.FieldSeverity, severities)
	fmt.Fprintf(&sb, "  %q: \"Detailed description of the disease\",\n", diagnosis.FieldDescription)
	fmt.Fprintf(&sb, "  %q: [\"List of visible symptoms\"],\n", diagnosis.FieldSymptoms)
	fmt.Fprintf(&sb, "  %q: [\"Possible causes of the disease\"],\n", diagnosis.FieldCauses)
	fmt.Fprintf(&sb, "  %q: [\"Immediate treatment step 1\", \"Treatment step 2\"],\n", diagnosis.FieldTreatment)
	fmt.Fprintf(&sb, "  %q: [\"Organic treatment option 1\"],\n", diagnosis.FieldOrganicTreatment)
	fmt.Fprintf(&sb, "  %q: [\"Chemical treatment option 1\"],\n", diagnosis.FieldChemicalTreatment)
	fmt.Fprintf(&sb, "  %q: [\"Prevention measure 1\", \"Prevention measure 2\"],\n", diagnosis.FieldPrevention)
	fmt.Fprintf(&sb, "  %q: \"Percentage or description of expected crop loss\",\n", diagnosis.FieldExpectedLoss)
	fmt.Fprintf(&sb, "  %q: %q\n", diagnosis.FieldUrgency, urgencies)
	sb.WriteString("}")
	sb.WriteString("\n\nThe confidence value must be a number between 0 and 1.")
	return sb.String()
}
