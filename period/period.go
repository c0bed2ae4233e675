// Package period parses free-text period headers ("Ene-24", "Q1 2024",
// "January") into normalized calendar periods with confidence scores.
package period

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Type classifies the granularity of a parsed period.
type Type string

const (
	TypeMonth   Type = "month"
	TypeQuarter Type = "quarter"
	TypeYear    Type = "year"
	TypeCustom  Type = "custom"
)

// Parsed is a normalized calendar period. Date is the zero time when the
// label carried no year and none was supplied; Confidence is below 1 whenever
// the year was inferred rather than read from the label.
type Parsed struct {
	Type         Type      `json:"period_type"`
	Date         time.Time `json:"calendar_date"`
	Label        string    `json:"display_label"`
	Confidence   float64   `json:"confidence"`
	YearInferred bool      `json:"year_inferred"`
}

// HeaderScan is the batch result over a whole header row.
type HeaderScan struct {
	Periods          []*Parsed `json:"periods"`
	NeedsYearContext bool      `json:"needs_year_context"`
	DetectedYear     int       `json:"detected_year"`
}

var monthTokens = map[string]time.Month{
	// English
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
	// Spanish
	"ene": time.January, "enero": time.January,
	"febrero": time.February,
	"marzo":   time.March,
	"abr":     time.April, "abril": time.April,
	"mayo":  time.May,
	"junio": time.June,
	"julio": time.July,
	"ago":   time.August, "agosto": time.August,
	"septiembre": time.September, "setiembre": time.September,
	"octubre":   time.October,
	"noviembre": time.November,
	"dic":       time.December, "diciembre": time.December,
}

var (
	yearRe     = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	twoDigitRe = regexp.MustCompile(`(?:^|[\s\-/'])(\d{2})(?:$|\b)`)
	quarterRe  = regexp.MustCompile(`(?:^|\b)(?:q|t)([1-4])(?:\b|$)|([1-4])(?:er|do|to|º)?\s*trimestre|trimestre\s*([1-4])|([1-4])(?:st|nd|rd|th)?\s*quarter`)
)

// ParseHeader parses one period-header cell. contextYear supplies a year for
// labels that lack one (0 means none available); it is ignored when the label
// carries its own year. Returns nil only for empty labels: any non-empty
// label yields at least a low-confidence custom period.
func ParseHeader(label string, contextYear int, locale string) *Parsed {
	_ = locale // month vocabulary covers es and en together

	raw := strings.TrimSpace(label)
	if raw == "" {
		return nil
	}
	norm := normalize(raw)

	year, explicit := extractYear(norm)

	if q, ok := matchQuarter(norm); ok {
		return buildPeriod(TypeQuarter, raw, time.Month((q-1)*3+1), year, explicit, contextYear)
	}
	if m, ok := matchMonth(norm); ok {
		return buildPeriod(TypeMonth, raw, m, year, explicit, contextYear)
	}
	if explicit && isBareYear(norm) {
		return &Parsed{
			Type:       TypeYear,
			Date:       time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			Label:      raw,
			Confidence: 0.9,
		}
	}

	// No recognizable calendar pattern.
	return &Parsed{Type: TypeCustom, Label: raw, Confidence: 0.3}
}

// ParseHeaders parses a whole header set and reports whether the set is
// ambiguous for lack of a year. A year found in any label resolves the set.
func ParseHeaders(labels []string, locale string) HeaderScan {
	scan := HeaderScan{Periods: make([]*Parsed, len(labels))}

	yearless := false
	for i, label := range labels {
		p := ParseHeader(label, 0, locale)
		scan.Periods[i] = p
		if p == nil || p.Type == TypeCustom {
			continue
		}
		if p.Date.IsZero() {
			yearless = true
		} else if scan.DetectedYear == 0 {
			scan.DetectedYear = p.Date.Year()
		}
	}

	scan.NeedsYearContext = yearless && scan.DetectedYear == 0
	return scan
}

// SuggestYearRange returns candidate years for the disambiguation prompt,
// most recent history first.
func SuggestYearRange(currentYear int) []int {
	return []int{currentYear - 2, currentYear - 1, currentYear, currentYear + 1}
}

func buildPeriod(t Type, raw string, month time.Month, year int, explicit bool, contextYear int) *Parsed {
	p := &Parsed{Type: t, Label: raw}

	switch {
	case explicit:
		p.Date = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		p.Confidence = 0.95
	case contextYear > 0:
		p.Date = time.Date(contextYear, month, 1, 0, 0, 0, 0, time.UTC)
		p.Confidence = 0.75
		p.YearInferred = true
	default:
		// Year unresolvable here; the header-set scan surfaces the ambiguity.
		p.Confidence = 0.6
		p.YearInferred = true
	}
	return p
}

func matchMonth(norm string) (time.Month, bool) {
	for _, tok := range strings.FieldsFunc(norm, isSeparator) {
		if m, ok := monthTokens[tok]; ok {
			return m, true
		}
	}
	return 0, false
}

func matchQuarter(norm string) (int, bool) {
	m := quarterRe.FindStringSubmatch(norm)
	if m == nil {
		return 0, false
	}
	for _, g := range m[1:] {
		if g != "" {
			q, _ := strconv.Atoi(g)
			return q, true
		}
	}
	return 0, false
}

// extractYear finds a 4-digit year, or a 2-digit year attached to the label
// ("Ene-24", "Jan/24", "'25"). Two-digit years pivot at 70.
func extractYear(norm string) (int, bool) {
	if m := yearRe.FindString(norm); m != "" {
		y, _ := strconv.Atoi(m)
		return y, true
	}
	if m := twoDigitRe.FindStringSubmatch(norm); m != nil {
		y, _ := strconv.Atoi(m[1])
		if y < 70 {
			return 2000 + y, true
		}
		return 1900 + y, true
	}
	return 0, false
}

func isBareYear(norm string) bool {
	return yearRe.MatchString(norm) && len(strings.TrimSpace(norm)) == 4
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '-', '/', '.', ',', '\'', '_':
		return true
	}
	return false
}

// normalize lowercases and strips the accents that show up in Spanish labels.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	)
	return replacer.Replace(s)
}
