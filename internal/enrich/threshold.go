package enrich

import (
	"hash/fnv"
	"strings"

	"github.com/rotisserie/eris"
)

// Threshold is a confidence tier chosen by the caller.
type Threshold string

const (
	ThresholdHigh   Threshold = "high"
	ThresholdMedium Threshold = "medium"
	ThresholdLow    Threshold = "low"
)

// ParseThreshold parses a tier name. An empty string is medium.
func ParseThreshold(s string) (Threshold, error) {
	switch t := Threshold(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return ThresholdMedium, nil
	case ThresholdHigh, ThresholdMedium, ThresholdLow:
		return t, nil
	default:
		return "", eris.Errorf("enrich: unknown threshold %q (want high, medium or low)", s)
	}
}

// Range returns the inclusive confidence bounds of the tier.
func (t Threshold) Range() (lo, hi int) {
	switch t {
	case ThresholdHigh:
		return 85, 95
	case ThresholdLow:
		return 50, 69
	default:
		return 70, 84
	}
}

// Score places key deterministically within the tier.
func (t Threshold) Score(key string) int {
	lo, hi := t.Range()
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return lo + int(h.Sum32()%uint32(hi-lo+1))
}

// clamp pulls score into the tier, scoring key when score is outside it.
func (t Threshold) clamp(score int, key string) int {
	lo, hi := t.Range()
	if score >= lo && score <= hi {
		return score
	}
	return t.Score(key)
}
