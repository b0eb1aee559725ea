// Package mobile normalises Australian mobile numbers.
package mobile

import (
	"regexp"
	"strings"
)

var (
	nonDigits = regexp.MustCompile(`\D+`)
	auMobile  = regexp.MustCompile(`^(04\d{8}|614\d{8})$`)
)

// Number is a parsed mobile. Digits is empty when the input was blank and
// E164 is empty unless Valid.
type Number struct {
	Raw    string
	Digits string
	E164   string
	Valid  bool
}

// Digits strips everything but 0-9.
func Digits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// ParseAU accepts 04xxxxxxxx and 614xxxxxxxx in any punctuation and returns
// the +61 E.164 form.
func ParseAU(s string) Number {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Number{}
	}
	n := Number{Raw: raw, Digits: Digits(raw)}
	if !auMobile.MatchString(n.Digits) {
		return n
	}
	if strings.HasPrefix(n.Digits, "04") {
		n.E164 = "+61" + n.Digits[1:]
	} else {
		n.E164 = "+" + n.Digits
	}
	n.Valid = true
	return n
}

// NormaliseForCompare returns the 04xxxxxxxx form, or "" when s is not an AU
// mobile.
func NormaliseForCompare(s string) string {
	d := Digits(strings.TrimSpace(s))
	switch {
	case len(d) == 11 && strings.HasPrefix(d, "614"):
		return "04" + d[3:]
	case len(d) == 10 && strings.HasPrefix(d, "04"):
		return d
	}
	return ""
}
