package extract

import "strings"

// NormalizePhone converts a raw matched phone number to E.164. Ten-digit
// numbers are assumed to be North American. It reports false when the
// digits cannot form a plausible number.
func NormalizePhone(raw string) (string, bool) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	international := strings.HasPrefix(strings.TrimSpace(raw), "+")

	switch {
	case len(d) == 10 && !international:
		return "+1" + d, true
	case len(d) == 11 && d[0] == '1':
		return "+" + d, true
	case international && len(d) >= 11 && len(d) <= 15:
		return "+" + d, true
	}
	return "", false
}

// AreaCode returns the three-digit area code of a North American number,
// or "" when the number is not one.
func AreaCode(raw string) string {
	e164, ok := NormalizePhone(raw)
	if !ok || !strings.HasPrefix(e164, "+1") || len(e164) != 12 {
		return ""
	}
	return e164[2:5]
}
