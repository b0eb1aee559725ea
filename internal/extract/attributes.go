package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	nonPriceChars = regexp.MustCompile(`[^0-9.]`)
	kvLine        = regexp.MustCompile(`^([A-Za-z _-]{2,40})\s*[:\-]\s*(.+)$`)
	serviceCode   = regexp.MustCompile(`(?i)\b([a-z0-9]+_[a-z0-9]+)\b`)
	seniorTitle   = regexp.MustCompile(`(?i)senior`)
	manualTitle   = regexp.MustCompile(`(?i)manual`)
)

// ToCents converts a price string to cents. A decimal point means dollars;
// otherwise values of 1000 and up are taken as cents already and smaller
// values as whole dollars. So "85" and "8500" both give 8500, and a $1000
// price typed without cents reads as $10.
func ToCents(v string) (int64, bool) {
	cleaned := nonPriceChars.ReplaceAllString(v, "")
	if cleaned == "" {
		return 0, false
	}
	num, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(num, 0) || math.IsNaN(num) {
		return 0, false
	}
	cents := math.Round(num * 100)
	if !strings.Contains(cleaned, ".") && num >= 1000 {
		cents = math.Round(num)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	if cents >= math.MaxInt64 {
		return 0, false
	}
	return int64(cents), true
}

// ToBool reads yes/no style flags. ok is false for anything unrecognised.
func ToBool(v string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0":
		return false, true
	}
	return false, false
}

// ParseKV collects "key: value" and "key - value" lines. Keys are lowercased;
// a later line wins over an earlier one with the same key.
func ParseKV(text string) map[string]string {
	out := make(map[string]string)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := kvLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(m[1]))] = strings.TrimSpace(m[2])
	}
	return out
}

// FindServiceCode returns the first snake_case token such as "auto_60".
func FindServiceCode(s string) string {
	m := serviceCode.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// InferServiceCode guesses a lesson code from the title and duration for
// events that carry no explicit code.
func InferServiceCode(title string, d time.Duration) string {
	if strings.TrimSpace(title) == "" {
		return ""
	}
	code := durationCode(int(math.Round(d.Minutes())))
	if code == "" {
		return ""
	}
	switch {
	case seniorTitle.MatchString(title):
		return "senior_" + code
	case manualTitle.MatchString(title):
		return strings.Replace(code, "auto_", "manual_", 1)
	}
	return code
}

func durationCode(mins int) string {
	switch {
	case abs(mins-60) <= 10:
		return "auto_60"
	case abs(mins-90) <= 15:
		return "auto_90"
	case abs(mins-120) <= 20:
		return "auto_120"
	}
	return ""
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
