package providers

import "strings"

// refusalPhrases are the markers a general-purpose model emits when it
// declines or hedges instead of transcribing. Matching is
// case-insensitive over the whole response.
var refusalPhrases = []string{
	"cannot process",
	"not capable",
	"i am not able",
	"i'm not able",
	"unable to",
	"cannot directly",
	"i'm a large language model",
	"i am a large language model",
	"unfortunately",
}

// LooksLikeRefusal reports whether a model response is a refusal or
// hedge rather than extracted text. Empty input is not a refusal; the
// caller classifies that separately.
func LooksLikeRefusal(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
