package interpreter

import (
	"encoding/json"
	"strings"

	"agriwater-platform/internal/models"
)

// fallbackKeywords maps question substrings to the variable phrasing the
// catalog synonyms understand. Checked in order; first hit per phrase wins.
var fallbackKeywords = []struct {
	needle string
	phrase string
}{
	{"evapotranspiration", "evapotranspiration"},
	{"water use", "water use"},
	{"applied water", "applied water"},
	{"irrigation", "net irrigation"},
	{"water stress", "water stress"},
	{"precipitation", "precipitation"},
	{"rainfall", "rainfall"},
	{"rain", "rainfall"},
	{"max temp", "max temperature"},
	{"maximum temp", "max temperature"},
	{"min temp", "min temperature"},
	{"minimum temp", "min temperature"},
	{"temperature", "temperature"},
	{"solar", "solar radiation"},
	{"wind", "wind speed"},
	{"humidity", "humidity"},
}

// ParseIntent turns the model's raw reply into an Intent. The reply is
// untrusted: markdown fences are stripped, unparseable JSON yields an
// empty Intent, and a missing variable list is backfilled from keywords in
// the original question. RawQuery is always attached.
func ParseIntent(raw, question string) *models.Intent {
	intent := &models.Intent{}
	cleaned := stripFences(raw)
	if cleaned != "" {
		// Best effort. A broken reply leaves the zero Intent, which the
		// resolver rejects with a typed error downstream.
		_ = json.Unmarshal([]byte(cleaned), intent)
	}

	intent.RawQuery = question
	if intent.Task == "" {
		intent.Task = string(models.TaskTimeseries)
		if looksLikeCropSummary(question) {
			intent.Task = string(models.TaskCropSummary)
		}
	}
	if len(intent.Variables) == 0 && intent.Task == string(models.TaskTimeseries) {
		intent.Variables = inferVariables(question)
	}
	return intent
}

// stripFences removes surrounding markdown code fences and leading
// prose, returning the first JSON object found.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	// Models sometimes prepend a sentence before the object.
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// inferVariables scans the question for known variable phrasings when the
// model returned none.
func inferVariables(question string) []string {
	q := strings.ToLower(question)
	seen := make(map[string]bool)
	var out []string
	for _, kw := range fallbackKeywords {
		if !strings.Contains(q, kw.needle) || seen[kw.phrase] {
			continue
		}
		// "temperature" is a catch-all; skip it when a specific
		// max/min phrasing already matched.
		if kw.phrase == "temperature" && (seen["max temperature"] || seen["min temperature"]) {
			continue
		}
		seen[kw.phrase] = true
		out = append(out, kw.phrase)
	}
	return out
}

func looksLikeCropSummary(question string) bool {
	q := strings.ToLower(question)
	return strings.Contains(q, "what crops") ||
		strings.Contains(q, "which crops") ||
		strings.Contains(q, "crops are grown") ||
		strings.Contains(q, "crop distribution")
}
