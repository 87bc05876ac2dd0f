package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"clockwise.service/internal/core/model"
)

const (
	minAnomalyTypeWords = 2
	maxAnomalyTypeWords = 3
)

// sentenceBreak matches terminal punctuation followed by whitespace and a
// capitalised word. Decimals such as "3.5" do not match.
var sentenceBreak = regexp.MustCompile(`[.!?]["')\]]*\s+["'(]?\p{Lu}`)

// abbreviations end in a period without ending the sentence.
var abbreviations = map[string]struct{}{
	"a.m.":    {},
	"p.m.":    {},
	"approx.": {},
	"e.g.":    {},
	"i.e.":    {},
	"etc.":    {},
	"vs.":     {},
	"min.":    {},
	"hrs.":    {},
}

// ValidateVerdict enforces the verdict contract on any classifier output.
func ValidateVerdict(v model.AnomalyVerdict) error {
	if strings.TrimSpace(v.Explanation) == "" {
		return errors.New("verdict: explanation is required")
	}
	if !IsSingleSentence(v.Explanation) {
		return fmt.Errorf("verdict: explanation must be exactly one sentence, got %q", v.Explanation)
	}

	if !v.IsAnomaly {
		return nil
	}

	words := len(strings.Fields(v.AnomalyType))
	if words < minAnomalyTypeWords || words > maxAnomalyTypeWords {
		return fmt.Errorf("verdict: anomaly type must be %d-%d words, got %q", minAnomalyTypeWords, maxAnomalyTypeWords, v.AnomalyType)
	}
	return nil
}

// NormalizeVerdict trims the verdict fields and drops the type of a normal shift.
func NormalizeVerdict(v model.AnomalyVerdict) model.AnomalyVerdict {
	v.Explanation = strings.TrimSpace(v.Explanation)
	v.AnomalyType = strings.Join(strings.Fields(v.AnomalyType), " ")
	if !v.IsAnomaly {
		v.AnomalyType = ""
	}
	return v
}

// IsSingleSentence reports whether s holds exactly one non-empty sentence.
func IsSingleSentence(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	for _, loc := range sentenceBreak.FindAllStringIndex(trimmed, -1) {
		if trimmed[loc[0]] == '.' && endsWithAbbreviation(trimmed[:loc[0]+1]) {
			continue
		}
		return false
	}
	return true
}

func endsWithAbbreviation(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}
	last := strings.ToLower(strings.TrimLeft(words[len(words)-1], `"'(`))
	_, ok := abbreviations[last]
	return ok
}
