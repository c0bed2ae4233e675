package grid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FromRows builds a Grid from raw string rows, as produced by spreadsheet
// decoders. Jagged rows are padded with empty cells to the widest row, and
// numeric-looking strings become number cells.
func FromRows(rows [][]string) (Grid, error) {
	if len(rows) == 0 {
		return Grid{}, ErrEmptyGrid
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	cells := make([][]Cell, len(rows))
	for i, row := range rows {
		cells[i] = make([]Cell, width)
		for j := 0; j < width; j++ {
			if j >= len(row) {
				cells[i][j] = Empty()
				continue
			}
			cells[i][j] = parseCell(row[j])
		}
	}
	return New(cells)
}

// FromSheet reads a worksheet into a Grid.
func FromSheet(f *excelize.File, sheet string) (Grid, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Grid{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	g, err := FromRows(rows)
	if err != nil {
		return Grid{}, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return g, nil
}

func parseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Empty()
	}
	if v, err := ParseNumeric(s); err == nil {
		return Number(v)
	}
	return Text(s)
}

var thousandsRe = regexp.MustCompile(`(\d+)\.(\d{3})`)

// ParseNumeric parses a cell string as a number, tolerating currency symbols,
// spaces, and both US and European separator conventions. Percent-formatted
// strings are rejected: margin rows like "62.5%" are labels, not values.
func ParseNumeric(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("not numeric: %q", s)
	}

	// Parenthesized negatives, common in accounting exports.
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	for _, sym := range []string{"R$", "€", "$", "£", "USD", "EUR"} {
		s = strings.ReplaceAll(s, sym, "")
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		// Last separator is the decimal one.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		idx := strings.LastIndex(s, ",")
		if len(s)-idx-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasDot:
		// Collapse European thousands groups (1.234.567).
		for thousandsRe.MatchString(s) && strings.Count(s, ".") > 1 {
			s = thousandsRe.ReplaceAllString(s, "$1$2")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not numeric: %q", s)
	}
	if negative {
		v = -v
	}
	return v, nil
}
