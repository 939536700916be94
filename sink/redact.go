package sink

import (
	"regexp"

	"medtriage/models"
)

const (
	emailPlaceholder = "[redacted-email]"
	phonePlaceholder = "[redacted-phone]"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// North American and international forms: +44 20 7946 0958, (555) 123-4567, 555.123.4567.
	phonePattern = regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{2,4}\)|\d{2,4})[\s.\-]?\d{3,4}[\s.\-]?\d{3,4}\b`)
)

// Redact masks email- and phone-shaped substrings. Placeholders contain no
// digits or '@', so redacting twice is the same as redacting once.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = emailPattern.ReplaceAllString(s, emailPlaceholder)
	return phonePattern.ReplaceAllString(s, phonePlaceholder)
}

// RedactResponse returns a copy of resp with every free-text field and every
// error message redacted.
func RedactResponse(resp models.AggregatedResponse) models.AggregatedResponse {
	return models.AggregatedResponse{
		Voice: resp.Voice.Transform(func(t models.Transcript) models.Transcript {
			t.Text = Redact(t.Text)
			return t
		}, Redact),
		Triage: resp.Triage.Transform(func(a models.Assessment) models.Assessment {
			a.Analysis = Redact(a.Analysis)
			return a
		}, Redact),
		Translation: resp.Translation.Transform(Redact, Redact),
		History: resp.History.Transform(func(h models.History) models.History {
			h.History = Redact(h.History)
			return h
		}, Redact),
		Vitals: resp.Vitals.Transform(nil, Redact),
		Dispatch: resp.Dispatch.Transform(func(d models.Dispatch) models.Dispatch {
			d.Location = Redact(d.Location)
			return d
		}, Redact),
		Insurance: resp.Insurance.Transform(func(c models.Coverage) models.Coverage {
			c.Provider = Redact(c.Provider)
			return c
		}, Redact),
	}
}
