package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/warren-fi/statement-engine/grid"
)

// fingerprintRows is how many leading rows feed the hash. Enough to cover
// the header and the top of the data block without hashing whole sheets.
const fingerprintRows = 8

// Fingerprint derives a stable identity for an analysis input: the grid
// dimensions, the data range, the column role assignment and a sample of the
// leading rows, hashed with SHA-256. Any response or cached result carrying a
// different fingerprint belongs to a different input and must be discarded.
func Fingerprint(g grid.Grid, rng grid.DataRange, roles map[int]grid.ColumnRole) string {
	h := sha256.New()

	fmt.Fprintf(h, "dims:%dx%d|range:%d-%d:%d-%d|",
		g.NumRows(), g.NumCols(), rng.StartRow, rng.EndRow, rng.StartCol, rng.EndCol)

	cols := make([]int, 0, len(roles))
	for col := range roles {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	for _, col := range cols {
		fmt.Fprintf(h, "role:%d=%s|", col, roles[col])
	}

	sample := g.NumRows()
	if sample > fingerprintRows {
		sample = fingerprintRows
	}
	for r := 0; r < sample; r++ {
		parts := make([]string, 0, g.NumCols())
		for c := 0; c < g.NumCols(); c++ {
			parts = append(parts, g.At(r, c).String())
		}
		fmt.Fprintf(h, "row:%s|", strings.Join(parts, "\x1f"))
	}

	return hex.EncodeToString(h.Sum(nil))
}
