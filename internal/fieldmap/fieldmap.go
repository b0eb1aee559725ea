// Package fieldmap calibrates, per calendar, which event source carries each
// booking field. It samples values from a batch of events, scores every
// source:key by what its values look like, and keeps the best-scoring key per
// field when it clears a threshold.
package fieldmap

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/extract"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

const (
	DefaultSampleLimit      = 200
	DefaultMaxSamplesPerKey = 20

	maxExamples = 5

	nameThreshold    = 0.5
	emailThreshold   = 0.5
	mobileThreshold  = 0.5
	addressThreshold = 0.4
)

// Options bounds a Detect run. Zero values take the defaults.
type Options struct {
	SampleLimit      int
	MaxSamplesPerKey int
}

func (o Options) withDefaults() Options {
	if o.SampleLimit <= 0 {
		o.SampleLimit = DefaultSampleLimit
	}
	if o.MaxSamplesPerKey <= 0 {
		o.MaxSamplesPerKey = DefaultMaxSamplesPerKey
	}
	return o
}

var (
	emailValue  = regexp.MustCompile(`(?i)^[A-Z0-9._%+\-]+@[A-Z0-9.\-]+\.[A-Z]{2,}$`)
	phoneValue  = regexp.MustCompile(`^\+?[\d\s\-()]{6,}$`)
	digitWord   = regexp.MustCompile(`\d+[A-Za-z]?\s+[A-Za-z]`)
	streetWords = regexp.MustCompile(`(?i)\b(st|street|rd|road|ave|avenue|dr|drive|ct|court|pl|place|cres|crescent|hwy|highway|ln|lane|blvd|boulevard|pde|parade|tce|terrace|way|cl|close|gr|grove|station)\b`)
	nameValue   = regexp.MustCompile(`^[A-Za-z][A-Za-z'\-. ]*[A-Za-z.]$`)
	nonDigits   = regexp.MustCompile(`\D`)
)

// Normalised key names that name a first or last name outright.
var (
	firstNameKeys = map[string]bool{"firstname": true, "givenname": true, "first": true, "forename": true}
	lastNameKeys  = map[string]bool{"lastname": true, "surname": true, "familyname": true, "last": true}
)

// sample is every value collected for one source:key.
type sample struct {
	id     string
	source model.Source
	key    string
	values []string
}

type collector struct {
	max     int
	samples map[string]*sample
	labels  map[string][]string
}

func newCollector(limit int) *collector {
	return &collector{
		max:     limit,
		samples: make(map[string]*sample),
		labels:  make(map[string][]string),
	}
}

func (c *collector) add(source model.Source, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" || key == "" {
		return
	}
	id := sampleID(source, key)
	s, ok := c.samples[id]
	if !ok {
		s = &sample{id: id, source: source, key: key}
		c.samples[id] = s
	}
	if len(s.values) < c.max {
		s.values = append(s.values, value)
	}
	if source == model.SourceDescription && len(c.labels[key]) < c.max {
		c.labels[key] = append(c.labels[key], value)
	}
}

func sampleID(source model.Source, key string) string {
	switch source {
	case model.SourcePrivate:
		return "private:" + key
	case model.SourceShared:
		return "shared:" + key
	case model.SourceLocation:
		return "location"
	case model.SourceDescription:
		return "desc:" + key
	}
	return string(source) + ":" + key
}

// collect records the values of one event. A value repeated under the same
// key within one event counts once.
func (c *collector) collect(ev model.CalendarEvent) {
	seen := make(map[string]bool)
	add := func(source model.Source, key, value string) {
		k := sampleID(source, key) + "\x00" + strings.TrimSpace(value)
		if seen[k] {
			return
		}
		seen[k] = true
		c.add(source, key, value)
	}

	for _, k := range sortedKeys(ev.PrivateProps()) {
		add(model.SourcePrivate, k, ev.PrivateProps()[k])
	}
	for _, k := range sortedKeys(ev.SharedProps()) {
		add(model.SourceShared, k, ev.SharedProps()[k])
	}
	add(model.SourceLocation, "location", ev.Location)
	for _, p := range extract.LabeledValues(ev.Description) {
		add(model.SourceDescription, p.Label, p.Value)
	}
	if g := ev.Guest(); g != nil {
		add(model.SourceAttendee, "email", g.Email)
		add(model.SourceAttendee, "displayName", g.DisplayName)
	}
	if ev.Creator != nil {
		add(model.SourceCreator, "email", ev.Creator.Email)
		add(model.SourceCreator, "displayName", ev.Creator.DisplayName)
	}
	if ev.Organizer != nil {
		add(model.SourceOrganizer, "email", ev.Organizer.Email)
		add(model.SourceOrganizer, "displayName", ev.Organizer.DisplayName)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// scores are the fraction of a key's values that look like each kind.
type scores struct {
	email, phone, address, name float64
}

func score(values []string) scores {
	var s scores
	if len(values) == 0 {
		return s
	}
	for _, v := range values {
		if isEmail(v) {
			s.email++
		}
		if isPhone(v) {
			s.phone++
		}
		if isAddress(v) {
			s.address++
		}
		if isName(v) {
			s.name++
		}
	}
	if constant(values) {
		s.name = 0
	}
	n := float64(len(values))
	s.email /= n
	s.phone /= n
	s.address /= n
	s.name /= n
	return s
}

func isEmail(v string) bool { return emailValue.MatchString(v) }

func isPhone(v string) bool {
	if !phoneValue.MatchString(v) {
		return false
	}
	d := len(nonDigits.ReplaceAllString(v, ""))
	return d >= 8 && d <= 15
}

func isAddress(v string) bool {
	if isEmail(v) || isPhone(v) {
		return false
	}
	return digitWord.MatchString(v) || streetWords.MatchString(v) || strings.Contains(v, ",")
}

var foldMarks = runes.Remove(runes.In(unicode.Mn))

// fold strips diacritics so "José Núñez" scores as a name.
func fold(s string) string {
	out, _, err := transform.String(transform.Chain(norm.NFD, foldMarks, norm.NFC), s)
	if err != nil {
		return s
	}
	return out
}

// constant reports whether a key holds one repeated value across several
// events. Such keys are markers like created_by=admin, never a booker's name.
func constant(values []string) bool {
	if len(values) < 2 {
		return false
	}
	for _, v := range values[1:] {
		if !strings.EqualFold(v, values[0]) {
			return false
		}
	}
	return true
}

func isName(v string) bool {
	if isEmail(v) || isPhone(v) {
		return false
	}
	if _, flag := extract.ToBool(v); flag {
		return false
	}
	f := fold(v)
	if len(strings.Fields(f)) > 4 {
		return false
	}
	return nameValue.MatchString(f)
}

// normalizeKey lowercases a key and drops spaces, underscores and hyphens.
func normalizeKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(fold(key)))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

// Detect builds a field mapping from a batch of events. It is pure and
// deterministic for a given input order.
func Detect(events []model.CalendarEvent, opts Options) model.MapperResult {
	opts = opts.withDefaults()
	if len(events) > opts.SampleLimit {
		events = events[:opts.SampleLimit]
	}

	c := newCollector(opts.MaxSamplesPerKey)
	for _, ev := range events {
		c.collect(ev)
	}

	ids := make([]string, 0, len(c.samples))
	for id := range c.samples {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	scored := make(map[string]scores, len(ids))
	for _, id := range ids {
		scored[id] = score(c.samples[id].values)
	}

	rank := func(pick func(scores) float64) []model.Candidate {
		out := []model.Candidate{}
		for _, id := range ids {
			v := pick(scored[id])
			if v <= 0 {
				continue
			}
			s := c.samples[id]
			out = append(out, model.Candidate{
				SampleKey: id,
				Source:    s.source,
				Key:       s.key,
				Score:     v,
				Examples:  examples(s.values),
			})
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Score != out[j].Score {
				return out[i].Score > out[j].Score
			}
			return out[i].SampleKey < out[j].SampleKey
		})
		return out
	}

	nameCands := rank(func(s scores) float64 { return s.name })
	emailCands := rank(func(s scores) float64 { return s.email })
	mobileCands := rank(func(s scores) float64 { return s.phone })
	pickupCands := rank(func(s scores) float64 { return s.address })

	res := model.MapperResult{
		Mapping: model.FieldMapping{
			model.FieldEmail:  best(emailCands, emailThreshold),
			model.FieldMobile: best(mobileCands, mobileThreshold),
			model.FieldPickup: best(pickupCands, addressThreshold),
		},
		Candidates: map[string][]model.Candidate{
			model.FieldFirstName: nameCands,
			model.FieldLastName:  nameCands,
			model.FieldEmail:     emailCands,
			model.FieldMobile:    mobileCands,
			model.FieldPickup:    pickupCands,
		},
		RawSamples:    make(map[string][]string, len(ids)),
		LabelSamples:  c.labels,
		EventsScanned: len(events),
	}
	res.Mapping[model.FieldFirstName], res.Mapping[model.FieldLastName] = names(nameCands)

	for _, id := range ids {
		res.RawSamples[id] = c.samples[id].values
	}
	return res
}

// names picks first and last name entries. Keys named like first/last name
// win outright when they hold name-like values. With neither present, the
// best full-name key fills both slots and the extractor splits its value.
// With only one present, the other slot is left to the extractor's defaults.
func names(cands []model.Candidate) (first, last model.FieldMappingEntry) {
	var firstCand, lastCand *model.Candidate
	for i := range cands {
		k := normalizeKey(cands[i].Key)
		switch {
		case firstCand == nil && firstNameKeys[k]:
			firstCand = &cands[i]
		case lastCand == nil && lastNameKeys[k]:
			lastCand = &cands[i]
		}
	}

	switch {
	case firstCand != nil || lastCand != nil:
		first, last = emptyEntry(), emptyEntry()
		if firstCand != nil {
			first = entry(*firstCand)
		}
		if lastCand != nil {
			last = entry(*lastCand)
		}
		return first, last
	default:
		full := best(cands, nameThreshold)
		return full, full
	}
}

func best(cands []model.Candidate, threshold float64) model.FieldMappingEntry {
	if len(cands) == 0 || cands[0].Score < threshold {
		return emptyEntry()
	}
	return entry(cands[0])
}

func entry(c model.Candidate) model.FieldMappingEntry {
	key, source, score := c.Key, c.Source, c.Score
	return model.FieldMappingEntry{
		Key:      &key,
		Source:   &source,
		Score:    &score,
		Examples: c.Examples,
	}
}

func emptyEntry() model.FieldMappingEntry {
	return model.FieldMappingEntry{Examples: []string{}}
}

func examples(values []string) []string {
	n := len(values)
	if n > maxExamples {
		n = maxExamples
	}
	out := make([]string, n)
	copy(out, values[:n])
	return out
}
