package agents

import (
	"strings"

	"golang.org/x/text/language"

	"medtriage/models"
)

// LanguageUnknown is reported when no usable language could be determined.
const LanguageUnknown = "unknown"

var panicPhrases = []string{
	"help me", "help!", "emergency", "can't breathe", "cant breathe", "cannot breathe",
	"not breathing", "dying", "hurry", "please come", "bleeding a lot", "heart attack",
	"ayuda", "socorro", "urgente", "au secours", "hilfe",
}

// DetectPanic is a best-effort heuristic flagging transcripts that read as
// distressed: known phrases or runs of exclamation marks.
func DetectPanic(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range panicPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return strings.Contains(text, "!!")
}

// NormalizeLanguage reduces a BCP 47 hint to its base language code.
// "" and "auto" yield "", unparseable input yields LanguageUnknown.
func NormalizeLanguage(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" || strings.EqualFold(hint, "auto") {
		return ""
	}
	if strings.EqualFold(hint, LanguageUnknown) {
		return LanguageUnknown
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return LanguageUnknown
	}
	base, conf := tag.Base()
	if conf == language.No {
		return LanguageUnknown
	}
	return base.String()
}

// esiRules are checked in order; the first matching tier wins.
var esiRules = []struct {
	level    int
	keywords []string
	analysis string
}{
	{1, []string{"not breathing", "unconscious", "unresponsive", "no pulse", "cardiac arrest", "seizure", "overdose"},
		"Immediate life-saving intervention required"},
	{2, []string{"chest pain", "shortness of breath", "can't breathe", "stroke", "severe bleeding", "bleeding a lot", "suicidal", "confused"},
		"High-risk presentation, should be seen immediately"},
	{3, []string{"broken", "fracture", "vomiting", "abdominal pain", "high fever", "dehydrated", "bleeding"},
		"Stable but needs multiple resources"},
	{4, []string{"fever", "cough", "sprain", "rash", "earache", "sore throat", "headache"},
		"Stable, needs one resource"},
}

// ScoreESI assigns a keyword-based Emergency Severity Index to free text.
func ScoreESI(symptoms string) models.Assessment {
	lower := strings.ToLower(symptoms)
	for _, rule := range esiRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return models.Assessment{ESILevel: rule.level, Analysis: rule.analysis + " (matched: " + kw + ")"}
			}
		}
	}
	return models.Assessment{ESILevel: 5, Analysis: "No urgent indicators found; non-urgent"}
}

// DeriveDispatch maps a triage severity to an informational dispatch status.
// A nil level means triage did not produce one.
func DeriveDispatch(esiLevel *int, location string) models.Dispatch {
	if location == "" {
		location = "unknown"
	}
	if esiLevel == nil {
		return models.Dispatch{Status: "pending", Priority: "unassessed", Location: location}
	}
	switch lvl := *esiLevel; {
	case lvl <= 1:
		return models.Dispatch{Status: "dispatched", Priority: "critical", Location: location}
	case lvl == 2:
		return models.Dispatch{Status: "dispatched", Priority: "emergent", Location: location}
	case lvl == 3:
		return models.Dispatch{Status: "queued", Priority: "urgent", Location: location}
	default:
		return models.Dispatch{Status: "not_required", Priority: "non-urgent", Location: location}
	}
}
