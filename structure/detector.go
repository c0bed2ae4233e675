// Package structure scores grid rows as account lines, section headers, or
// section totals using numeric-density, keyword, and arithmetic signals.
package structure

import (
	"fmt"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/shopspring/decimal"

	"github.com/warren-fi/statement-engine/grid"
)

// RowType is the structural role of a row.
type RowType string

const (
	RowAccount       RowType = "account"
	RowSectionHeader RowType = "section_header"
	RowSectionTotal  RowType = "section_total"
)

// ValidRowType reports whether t is a known row type.
func ValidRowType(t RowType) bool {
	switch t {
	case RowAccount, RowSectionHeader, RowSectionTotal:
		return true
	}
	return false
}

// RowStructure is the detector's verdict for a single row.
type RowStructure struct {
	RowIndex   int      `json:"row_index"`
	Type       RowType  `json:"row_type"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// DetectorConfig tunes a detection pass. ManualOverrides always win over
// computed signals; ExcludeFromMapping, when non-nil, accumulates every row
// index returned as a header or total so account extraction can skip them.
type DetectorConfig struct {
	ManualOverrides    map[int]RowType
	ExcludeFromMapping map[int]bool
	PeriodCols         []int   // candidate period columns; nil means every column but the name column
	Tolerance          float64 // arithmetic corroboration tolerance
}

// DefaultDetectorConfig returns the configuration used by the analysis
// pipeline.
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		ExcludeFromMapping: make(map[int]bool),
		Tolerance:          0.01,
	}
}

// Total/subtotal vocabulary, es/en. Matched against normalized names, so
// accented variants collapse onto these.
var totalVocab = []string{
	"total", "subtotal", "sub-total", "suma", "sumatoria",
	"gran total", "total general", "totales",
	"grand total", "sum of",
}

// Detector finds header and total rows in a grid. Safe for reuse across
// grids; the keyword matcher is built once.
type Detector struct {
	matcher  *ahocorasick.Matcher
	patterns []string
}

// NewDetector builds a detector with the standard vocabulary.
func NewDetector() *Detector {
	patterns := make([][]byte, len(totalVocab))
	for i, p := range totalVocab {
		patterns[i] = []byte(p)
	}
	return &Detector{
		matcher:  ahocorasick.NewMatcher(patterns),
		patterns: totalVocab,
	}
}

// DetectTotalRows scans rows from startRow to the end of the grid and returns
// structures only for rows classified as section_header or section_total.
// Rows not returned default to account. Manual overrides in cfg are merged
// last and dominate regardless of score.
func (d *Detector) DetectTotalRows(g grid.Grid, cfg *DetectorConfig, accountNameCol, startRow int) []RowStructure {
	if cfg == nil {
		cfg = DefaultDetectorConfig()
	}
	if startRow < 0 {
		startRow = 0
	}

	periodCols := cfg.PeriodCols
	if periodCols == nil {
		for c := 0; c < g.NumCols(); c++ {
			if c != accountNameCol {
				periodCols = append(periodCols, c)
			}
		}
	}

	var results []RowStructure
	// Row types decided so far, needed for the contiguous-run walk.
	decided := make(map[int]RowType)

	for row := startRow; row < g.NumRows(); row++ {
		name := strings.TrimSpace(g.At(row, accountNameCol).String())
		density := numericDensity(g, row, periodCols)
		keyword := d.keywordSignal(name)

		var rs *RowStructure
		switch {
		case name != "" && keyword == 0 && density <= 0.2:
			// A bare label with no numbers is a header, not a total.
			conf := 0.8
			reasons := []string{"near-zero numeric density"}
			if density == 0 {
				conf = 0.95
				reasons = []string{"zero numeric density"}
			}
			rs = &RowStructure{RowIndex: row, Type: RowSectionHeader, Confidence: conf, Reasons: reasons}

		case keyword > 0 && density >= 0.5:
			conf := 0.45*keyword + 0.35*density
			reasons := []string{fmt.Sprintf("total keyword signal %.2f", keyword)}
			if first, last, ok := d.corroborate(g, row, periodCols, decided, startRow, cfg.Tolerance); ok {
				conf += 0.2
				reasons = append(reasons, fmt.Sprintf("values equal sum of rows %d-%d", first, last))
			}
			if conf > 0.99 {
				conf = 0.99
			}
			rs = &RowStructure{RowIndex: row, Type: RowSectionTotal, Confidence: conf, Reasons: reasons}
		}

		// Weak signals resolve toward account: nothing is emitted.
		if rs != nil {
			decided[row] = rs.Type
			results = append(results, *rs)
		} else {
			decided[row] = RowAccount
		}
	}

	// Manual overrides merge last and always win.
	results = applyOverrides(results, cfg.ManualOverrides, startRow, g.NumRows())

	if cfg.ExcludeFromMapping != nil {
		for _, rs := range results {
			cfg.ExcludeFromMapping[rs.RowIndex] = true
		}
	}
	return results
}

// keywordSignal returns 0 when no total keyword is present, partial credit
// for a keyword anywhere in the name, and full credit when the name consists
// primarily of the keyword.
func (d *Detector) keywordSignal(name string) float64 {
	if name == "" {
		return 0
	}
	norm := Normalize(name)
	hits := d.matcher.Match([]byte(norm))
	if len(hits) == 0 {
		return 0
	}

	longest := 0
	for _, idx := range hits {
		if idx >= 0 && idx < len(d.patterns) && len(d.patterns[idx]) > longest {
			longest = len(d.patterns[idx])
		}
	}

	compact := strings.ReplaceAll(norm, " ", "")
	if compact != "" && float64(longest)/float64(len(compact)) >= 0.6 {
		return 1.0
	}
	return 0.5
}

// corroborate checks whether the row's values equal the sum of the preceding
// contiguous run of account-typed rows, within tolerance. This is a
// confidence boost, not a requirement: statements are not always
// arithmetically closed in the visible column subset.
func (d *Detector) corroborate(g grid.Grid, row int, periodCols []int, decided map[int]RowType, startRow int, tolerance float64) (first, last int, ok bool) {
	if tolerance <= 0 {
		tolerance = 0.01
	}

	// Walk upward while rows look like account lines with numeric content.
	first = row
	for r := row - 1; r >= startRow; r-- {
		if decided[r] != RowAccount || !hasNumeric(g, r, periodCols) {
			break
		}
		first = r
	}
	last = row - 1
	if first > last {
		return 0, 0, false
	}

	tol := decimal.NewFromFloat(tolerance)
	checked := 0
	for _, col := range periodCols {
		want, isNum := g.At(row, col).Float()
		if !isNum {
			continue
		}
		sum := decimal.Zero
		for r := first; r <= last; r++ {
			if v, numeric := g.At(r, col).Float(); numeric {
				sum = sum.Add(decimal.NewFromFloat(v))
			}
		}
		if sum.Sub(decimal.NewFromFloat(want)).Abs().GreaterThan(tol) {
			return 0, 0, false
		}
		checked++
	}
	return first, last, checked > 0
}

func applyOverrides(results []RowStructure, overrides map[int]RowType, startRow, numRows int) []RowStructure {
	if len(overrides) == 0 {
		return results
	}

	byRow := make(map[int]int, len(results))
	for i, rs := range results {
		byRow[rs.RowIndex] = i
	}

	for row, t := range overrides {
		if row < startRow || row >= numRows || !ValidRowType(t) {
			continue
		}
		forced := RowStructure{
			RowIndex:   row,
			Type:       t,
			Confidence: 1,
			Reasons:    []string{"manual override"},
		}
		if i, exists := byRow[row]; exists {
			if t == RowAccount {
				// Demoted back to account: drop from the returned set.
				results = append(results[:i], results[i+1:]...)
				byRow = reindex(results)
				continue
			}
			results[i] = forced
		} else if t != RowAccount {
			results = append(results, forced)
			byRow[row] = len(results) - 1
		}
	}

	sortByRow(results)
	return results
}

func reindex(results []RowStructure) map[int]int {
	byRow := make(map[int]int, len(results))
	for i, rs := range results {
		byRow[rs.RowIndex] = i
	}
	return byRow
}

func sortByRow(results []RowStructure) {
	// Insertion sort; detection emits nearly sorted slices.
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].RowIndex < results[j-1].RowIndex; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

func numericDensity(g grid.Grid, row int, periodCols []int) float64 {
	if len(periodCols) == 0 {
		return 0
	}
	numeric := 0
	for _, col := range periodCols {
		if g.At(row, col).IsNumber() {
			numeric++
		}
	}
	return float64(numeric) / float64(len(periodCols))
}

func hasNumeric(g grid.Grid, row int, periodCols []int) bool {
	for _, col := range periodCols {
		if g.At(row, col).IsNumber() {
			return true
		}
	}
	return false
}

// Normalize lowercases and strips accents and punctuation for keyword
// matching.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	accents := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
		"ã", "a", "õ", "o", "ç", "c", "â", "a", "ê", "e", "ô", "o",
	)
	s = accents.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		case r == '.', r == ':', r == ',', r == ';', r == '(', r == ')', r == '%', r == '-', r == '_', r == '/':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
