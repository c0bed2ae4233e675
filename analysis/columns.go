package analysis

import (
	"sort"
	"strings"

	"github.com/warren-fi/statement-engine/grid"
	"github.com/warren-fi/statement-engine/period"
	"github.com/warren-fi/statement-engine/structure"
)

// ColumnProfile summarizes cell content per column over the data range.
// Densities are fractions of data rows, so they always sum to one.
type ColumnProfile struct {
	ColumnIndex    int     `json:"column_index"`
	HeaderLabel    string  `json:"header_label"`
	NumericDensity float64 `json:"numeric_density"`
	TextDensity    float64 `json:"text_density"`
	EmptyDensity   float64 `json:"empty_density"`
}

// Header labels that identify the account name column, es/en. Matched per
// word against normalized labels.
var conceptTokens = []string{
	"cuenta", "concepto", "descripcion", "partida", "rubro", "nombre", "detalle",
	"account", "description", "name", "item", "line",
}

var codeTokens = []string{
	"codigo", "cod", "code", "ref", "nro",
}

func buildColumnProfiles(g grid.Grid, headerRow int, rng grid.DataRange) []ColumnProfile {
	profiles := make([]ColumnProfile, 0, rng.EndCol-rng.StartCol+1)
	rows := float64(rng.Rows())

	for col := rng.StartCol; col <= rng.EndCol; col++ {
		p := ColumnProfile{ColumnIndex: col, HeaderLabel: g.At(headerRow, col).String()}
		var numeric, text, empty int
		for row := rng.StartRow; row <= rng.EndRow; row++ {
			cell := g.At(row, col)
			switch {
			case cell.IsEmpty():
				empty++
			case cell.IsNumber():
				numeric++
			default:
				text++
			}
		}
		if rows > 0 {
			p.NumericDensity = float64(numeric) / rows
			p.TextDensity = float64(text) / rows
			p.EmptyDensity = float64(empty) / rows
		}
		profiles = append(profiles, p)
	}
	return profiles
}

// detectColumnRoles assigns a role to every column in the range. Ledger role
// overrides win outright; otherwise the header label decides, with column
// content as a tiebreaker when no label names the account column. A corrected
// period label stands in for the raw header cell, so fixing the label alone
// is enough to promote the column.
func detectColumnRoles(g grid.Grid, headerRow int, rng grid.DataRange, locale string, overridden map[int]grid.ColumnRole, labelOverrides map[int]string, profiles []ColumnProfile) (map[int]grid.ColumnRole, int, []int) {
	roles := make(map[int]grid.ColumnRole, rng.EndCol-rng.StartCol+1)

	for col := rng.StartCol; col <= rng.EndCol; col++ {
		if role, ok := overridden[col]; ok {
			roles[col] = role
			continue
		}
		label := g.At(headerRow, col).String()
		if corrected, ok := labelOverrides[col]; ok {
			label = corrected
		}
		roles[col] = classifyHeaderLabel(label, locale)
	}

	nameCol := -1
	for col := rng.StartCol; col <= rng.EndCol; col++ {
		if roles[col] == grid.RoleAccountName {
			nameCol = col
			break
		}
	}

	// Statements exported without a labeled concept column are common; fall
	// back to the most text-dense column.
	if nameCol == -1 {
		best := -1.0
		for _, p := range profiles {
			if roles[p.ColumnIndex] != grid.RoleUnclassified {
				continue
			}
			if p.TextDensity > best {
				best = p.TextDensity
				nameCol = p.ColumnIndex
			}
		}
		if nameCol == -1 {
			nameCol = rng.StartCol
		}
		roles[nameCol] = grid.RoleAccountName
	}

	var periodCols []int
	for col, role := range roles {
		if role == grid.RolePeriod {
			periodCols = append(periodCols, col)
		}
	}
	sort.Ints(periodCols)

	return roles, nameCol, periodCols
}

func classifyHeaderLabel(label, locale string) grid.ColumnRole {
	norm := structure.Normalize(label)
	if norm == "" {
		return grid.RoleUnclassified
	}

	fields := strings.Fields(norm)
	if hasToken(fields, codeTokens) {
		return grid.RoleAccountCode
	}
	if hasToken(fields, conceptTokens) {
		return grid.RoleAccountName
	}
	if p := period.ParseHeader(label, 0, locale); p != nil && p.Type != period.TypeCustom {
		return grid.RolePeriod
	}
	return grid.RoleUnclassified
}

func hasToken(fields, tokens []string) bool {
	for _, f := range fields {
		for _, t := range tokens {
			if f == t {
				return true
			}
		}
	}
	return false
}

// detectHeaderRow scores each leading row by how much it looks like a header:
// parseable period labels plus a concept token. Ties keep the earliest row.
func detectHeaderRow(g grid.Grid, locale string) int {
	limit := g.NumRows()
	if limit > 10 {
		limit = 10
	}

	bestRow, bestScore := 0, 0
	for row := 0; row < limit; row++ {
		score := 0
		for col := 0; col < g.NumCols(); col++ {
			label := g.At(row, col).String()
			if label == "" {
				continue
			}
			norm := structure.Normalize(label)
			if hasToken(strings.Fields(norm), conceptTokens) {
				score += 2
				continue
			}
			if p := period.ParseHeader(label, 0, locale); p != nil && p.Type != period.TypeCustom {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestRow = row
		}
	}
	return bestRow
}
