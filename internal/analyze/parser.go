package analyze

import (
	"regexp"
	"strconv"
	"strings"
)

// Prose-fallback patterns for models that answer in free text instead
// of JSON.
var (
	materialPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)материалы?[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)сталь[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)steel[:\s]+([^\n]+)`),
	}
	// \b is ASCII-only in RE2, so the standards pattern anchors on a
	// preceding non-letter instead.
	standardPattern = regexp.MustCompile(`(?i)(?:^|[^а-яa-z])((?:гост|ост|ту|gost)\s*\d+[.\-]?\d*)`)
	raPattern       = regexp.MustCompile(`(?i)ra\s*[=:]?\s*(\d+(?:\.\d+)?)`)
	fitPatterns     = []*regexp.Regexp{
		regexp.MustCompile(`(?i)посадк[аи]?[:\s]+([^\n]+)`),
		regexp.MustCompile(`\b([A-Za-z]\d{1,2}/[A-Za-z]\d{1,2})\b`),
	}
	heatLabelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)термообработка[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)heat\s*treatment[:\s]+([^\n]+)`),
	}
	heatTermPattern = regexp.MustCompile(`(?i)(закалка|отжиг|нормализация|отпуск|цементация)`)
)

// ParseFromText recovers drawing data from a free-text model response.
// Best effort: every list may come back empty, but rawText always
// carries the full response.
func ParseFromText(text string) DrawingData {
	data := DrawingData{
		Materials:     []string{},
		Standards:     []string{},
		RaValues:      []float64{},
		Fits:          []string{},
		HeatTreatment: []string{},
		RawText:       text,
	}

	for _, pattern := range materialPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			for _, item := range splitList(match[1]) {
				data.Materials = append(data.Materials, item)
			}
		}
	}

	for _, match := range standardPattern.FindAllStringSubmatch(text, -1) {
		data.Standards = append(data.Standards, strings.TrimSpace(match[1]))
	}

	for _, match := range raPattern.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(match[1], 64); err == nil {
			data.RaValues = append(data.RaValues, v)
		}
	}

	for _, pattern := range fitPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			data.Fits = append(data.Fits, strings.TrimSpace(match[1]))
		}
	}

	for _, pattern := range heatLabelPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			for _, item := range splitList(match[1]) {
				data.HeatTreatment = append(data.HeatTreatment, item)
			}
		}
	}
	for _, match := range heatTermPattern.FindAllStringSubmatch(text, -1) {
		data.HeatTreatment = append(data.HeatTreatment, strings.ToLower(match[1]))
	}

	normalize(&data)
	return data
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
