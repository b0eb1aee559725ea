package extract

import (
	"regexp"
	"strings"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

// FieldName is the label target for a booker's full name. It is split into
// first and last name after parsing.
const FieldName = "name"

// Label maps booking-form labels in a description onto a target field.
// Inline names match "Label: value" and "Label - value"; OwnLine names match
// a line holding only the label, with the value on the following line.
type Label struct {
	Field   string
	Inline  []string
	OwnLine []string
}

// DefaultLabels matches the Google appointment booking form and the way
// bookings have been typed in by hand.
var DefaultLabels = []Label{
	{Field: FieldName, Inline: []string{"Booked by"}, OwnLine: []string{"Booked by"}},
	{Field: model.FieldMobile, Inline: []string{"Mobile", "Phone"}, OwnLine: []string{"Mobile"}},
	{Field: model.FieldPickup, Inline: []string{"Pickup Address", "Pickup"}, OwnLine: []string{"Pickup Address"}},
}

type compiledLabel struct {
	field   string
	inline  *regexp.Regexp
	ownLine []string
}

func compileLabels(labels []Label) []compiledLabel {
	out := make([]compiledLabel, 0, len(labels))
	for _, l := range labels {
		cl := compiledLabel{field: l.Field, ownLine: l.OwnLine}
		if len(l.Inline) > 0 {
			quoted := make([]string, len(l.Inline))
			for i, name := range l.Inline {
				quoted[i] = regexp.QuoteMeta(name)
			}
			cl.inline = regexp.MustCompile(`(?i)^(?:` + strings.Join(quoted, "|") + `)\s*[:\-]\s*(.+)$`)
		}
		out = append(out, cl)
	}
	return out
}

func (l compiledLabel) isOwnLine(line string) bool {
	for _, name := range l.ownLine {
		if strings.EqualFold(line, name) {
			return true
		}
	}
	return false
}

var defaultCompiled = compileLabels(DefaultLabels)

// DescriptionFields is what a description yields. Empty means not found.
type DescriptionFields struct {
	FirstName string
	LastName  string
	Email     string
	Mobile    string
	Pickup    string
	// NameLabeled is set when the name came from a label such as "Booked by"
	// rather than the first name-shaped line.
	NameLabeled bool
}

// ParseDescription scans a description with DefaultLabels.
func ParseDescription(desc string) DescriptionFields {
	return parseDescription(Lines(desc), defaultCompiled)
}

func parseDescription(lines []string, labels []compiledLabel) DescriptionFields {
	var out DescriptionFields
	if len(lines) == 0 {
		return out
	}

	for _, l := range lines {
		if m := EmailPattern.FindString(l); m != "" {
			out.Email = m
			break
		}
	}

	found := make(map[string]string, len(labels))
	for i, line := range lines {
		for _, lb := range labels {
			if found[lb.field] != "" {
				continue
			}
			if lb.isOwnLine(line) {
				if i+1 < len(lines) {
					found[lb.field] = lines[i+1]
				}
				continue
			}
			if lb.inline != nil {
				if m := lb.inline.FindStringSubmatch(line); m != nil {
					found[lb.field] = strings.TrimSpace(m[1])
				}
			}
		}
	}

	name := found[FieldName]
	out.NameLabeled = name != ""
	if name == "" {
		keys := ParseKV(strings.Join(lines, "\n"))
		for _, l := range lines {
			if !isBareLabel(l, labels) && !isHeading(l, keys) && looksLikeName(l) {
				name = l
				break
			}
		}
	}
	out.FirstName, out.LastName = SplitName(name)

	if m := found[model.FieldMobile]; m != "" {
		out.Mobile = DigitsAndPlus(m)
	}
	if out.Mobile == "" {
		for _, l := range lines {
			if m := PhonePattern.FindString(l); m != "" {
				out.Mobile = DigitsAndPlus(m)
				break
			}
		}
	}

	out.Pickup = found[model.FieldPickup]
	return out
}

func isBareLabel(line string, labels []compiledLabel) bool {
	trimmed := strings.TrimSpace(strings.TrimSuffix(line, ":"))
	for _, lb := range labels {
		if lb.isOwnLine(trimmed) {
			return true
		}
	}
	return false
}

// sectionHeadings are bare lines that introduce a block of text.
var sectionHeadings = map[string]bool{
	"notes": true, "note": true, "comments": true, "details": true,
	"booking details": true, "description": true, "service": true, "price": true,
}

// isHeading reports whether a line names a field rather than holding a value:
// it ends in a colon, is a heading, or is a key used elsewhere in the text.
func isHeading(line string, keys map[string]string) bool {
	if strings.HasSuffix(line, ":") {
		return true
	}
	k := strings.ToLower(strings.TrimSpace(line))
	if sectionHeadings[k] {
		return true
	}
	_, ok := keys[k]
	return ok
}

// LabeledValue is one "label, value" pair found in a description.
type LabeledValue struct {
	Label string
	Value string
}

var (
	inlinePair = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 _/()'.]{0,39}?)(?:\s*:|\s+-)\s*(.+)$`)
	labelLine  = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 _/()'.]{0,39}?)\s*:$`)
	spaces     = regexp.MustCompile(`\s+`)
)

// LabeledValues returns every labelled value in a description. Two shapes are
// recognised: "Label: value" / "Label - value" on one line, and a label on its
// own line (ending in a colon, or a known booking-form label) followed by the
// value on the next line. Labels are whitespace-normalised.
func LabeledValues(desc string) []LabeledValue {
	return labeledValues(Lines(desc), defaultCompiled)
}

func labeledValues(lines []string, labels []compiledLabel) []LabeledValue {
	var out []LabeledValue
	for i, line := range lines {
		if m := labelLine.FindStringSubmatch(line); m != nil {
			if i+1 < len(lines) {
				out = append(out, LabeledValue{Label: normalizeLabel(m[1]), Value: lines[i+1]})
			}
			continue
		}
		if isBareLabel(line, labels) {
			if i+1 < len(lines) {
				out = append(out, LabeledValue{Label: normalizeLabel(line), Value: lines[i+1]})
			}
			continue
		}
		m := inlinePair.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		// "https://host" splits into label "https" and value "//host".
		if strings.HasPrefix(m[2], "//") {
			continue
		}
		out = append(out, LabeledValue{Label: normalizeLabel(m[1]), Value: strings.TrimSpace(m[2])})
	}
	return out
}

func normalizeLabel(s string) string {
	return spaces.ReplaceAllString(strings.TrimSpace(s), " ")
}
