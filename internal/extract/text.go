package extract

import (
	"regexp"
	"strings"
)

// Shared patterns. EmailPattern and PhonePattern match anywhere in a string.
var (
	EmailPattern = regexp.MustCompile(`(?i)[A-Z0-9._%+\-]+@[A-Z0-9.\-]+\.[A-Z]{2,}`)
	PhonePattern = regexp.MustCompile(`\+?\d[\d\-\s()]{5,}\d`)

	namePattern   = regexp.MustCompile(`^[A-Za-z'\- ]{2,}$`)
	nonPhoneChars = regexp.MustCompile(`[^\d+]`)

	breakTag  = regexp.MustCompile(`(?i)<\s*br\s*/?\s*>`)
	paraTag   = regexp.MustCompile(`(?i)<\s*p\s*/?\s*>`)
	anyTag    = regexp.MustCompile(`</?[^>]+(>|$)`)
	blankRuns = regexp.MustCompile(`\n{2,}`)
)

var entities = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`(?i)&nbsp;`), " "},
	{regexp.MustCompile(`(?i)&amp;`), "&"},
	{regexp.MustCompile(`(?i)&lt;`), "<"},
	{regexp.MustCompile(`(?i)&gt;`), ">"},
}

// PlainText turns an event description, which may be HTML from the Google
// booking form or text with escaped newlines, into trimmed plain-text lines.
// Runs of blank lines collapse to one.
func PlainText(desc string) string {
	if desc == "" {
		return ""
	}
	s := strings.ReplaceAll(desc, `\r\n`, "\n")
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = breakTag.ReplaceAllString(s, "\n")
	s = paraTag.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	for _, e := range entities {
		s = e.pattern.ReplaceAllString(s, e.repl)
	}

	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

// Lines returns the non-empty lines of PlainText(desc).
func Lines(desc string) []string {
	text := PlainText(desc)
	if text == "" {
		return nil
	}
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// DigitsAndPlus strips everything except digits and '+'.
func DigitsAndPlus(s string) string {
	return nonPhoneChars.ReplaceAllString(s, "")
}

// SplitName splits a display name into first name and the remaining tokens.
// last is empty for a single-token name.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// looksLikeName reports whether a free-text line is plausibly a person's name.
func looksLikeName(line string) bool {
	if EmailPattern.MatchString(line) || PhonePattern.MatchString(line) {
		return false
	}
	return namePattern.MatchString(line) && len(strings.Fields(line)) <= 4
}
