package overrides

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warren-fi/statement-engine/classify"
	"github.com/warren-fi/statement-engine/grid"
	"github.com/warren-fi/statement-engine/structure"
)

func testGrid(t testing.TB) grid.Grid {
	t.Helper()
	g, err := grid.New([][]grid.Cell{
		{grid.Text("Concepto"), grid.Text("Ene"), grid.Text("Feb")},
		{grid.Text("Ventas"), grid.Number(100), grid.Number(200)},
		{grid.Text("TOTAL"), grid.Number(100), grid.Number(200)},
	})
	require.NoError(t, err)
	return g
}

// Test row-type overrides and their boundary checks
func TestLedger_SetRowType(t *testing.T) {
	g := testGrid(t)

	t.Run("valid override is recorded", func(t *testing.T) {
		l := NewLedger()
		e, err := l.SetRowType(g, 2, structure.RowSectionTotal)
		require.NoError(t, err)
		assert.Equal(t, RowSubject(2), e.Subject)
		assert.Equal(t, structure.RowSectionTotal, e.RowType)

		types := l.RowTypes()
		assert.Equal(t, structure.RowSectionTotal, types[2])
	})

	t.Run("out of range is rejected whole", func(t *testing.T) {
		l := NewLedger()
		_, err := l.SetRowType(g, 99, structure.RowSectionTotal)
		assert.ErrorIs(t, err, ErrOutOfRange)
		assert.Zero(t, l.Len())

		_, err = l.SetRowType(g, -1, structure.RowSectionTotal)
		assert.ErrorIs(t, err, ErrOutOfRange)
		assert.Zero(t, l.Len())
	})

	t.Run("invalid row type is rejected", func(t *testing.T) {
		l := NewLedger()
		_, err := l.SetRowType(g, 1, structure.RowType("banana"))
		assert.ErrorIs(t, err, ErrBadRowType)
		assert.Zero(t, l.Len())
	})

	t.Run("repeat write replaces", func(t *testing.T) {
		l := NewLedger()
		_, err := l.SetRowType(g, 1, structure.RowSectionHeader)
		require.NoError(t, err)
		_, err = l.SetRowType(g, 1, structure.RowAccount)
		require.NoError(t, err)

		assert.Equal(t, 1, l.Len())
		assert.Equal(t, structure.RowAccount, l.RowTypes()[1])
	})
}

// Test manual category overrides validated against the vocabulary
func TestLedger_SetRowCategory(t *testing.T) {
	g := testGrid(t)

	t.Run("valid category carries polarity", func(t *testing.T) {
		l := NewLedger()
		e, err := l.SetRowCategory(g, 1, classify.CashFlow, "payroll")
		require.NoError(t, err)
		assert.Equal(t, "payroll", e.Category)
		require.NotNil(t, e.IsInflow)
		assert.False(t, *e.IsInflow)

		got, ok := l.RowCategory(1)
		require.True(t, ok)
		assert.Equal(t, e.ID, got.ID)
	})

	t.Run("foreign category is rejected", func(t *testing.T) {
		l := NewLedger()
		_, err := l.SetRowCategory(g, 1, classify.CashFlow, "equity")
		assert.ErrorIs(t, err, ErrBadCategory)
		assert.Zero(t, l.Len())
	})

	t.Run("row type and row category are independent subjects", func(t *testing.T) {
		l := NewLedger()
		_, err := l.SetRowType(g, 1, structure.RowSectionHeader)
		require.NoError(t, err)
		_, err = l.SetRowCategory(g, 1, classify.CashFlow, "revenue")
		require.NoError(t, err)
		assert.Equal(t, 2, l.Len())
	})
}

// Test column-scoped overrides
func TestLedger_ColumnOverrides(t *testing.T) {
	g := testGrid(t)

	t.Run("column role", func(t *testing.T) {
		l := NewLedger()
		_, err := l.SetColumnRole(g, 1, grid.RolePeriod)
		require.NoError(t, err)
		assert.Equal(t, grid.RolePeriod, l.ColumnRoles()[1])

		_, err = l.SetColumnRole(g, 9, grid.RolePeriod)
		assert.ErrorIs(t, err, ErrOutOfRange)

		_, err = l.SetColumnRole(g, 1, grid.ColumnRole("banana"))
		assert.ErrorIs(t, err, ErrBadRole)
	})

	t.Run("period label", func(t *testing.T) {
		l := NewLedger()
		_, err := l.SetPeriodLabel(g, 1, "Enero 2024")
		require.NoError(t, err)
		assert.Equal(t, "Enero 2024", l.PeriodLabels()[1])

		_, err = l.SetPeriodLabel(g, 1, "")
		assert.ErrorIs(t, err, ErrEmptyLabel)
		assert.Equal(t, "Enero 2024", l.PeriodLabels()[1], "failed write must not clobber")

		_, err = l.SetPeriodLabel(g, 9, "Enero 2024")
		assert.ErrorIs(t, err, ErrOutOfRange)
	})
}

func TestLedger_Remove(t *testing.T) {
	g := testGrid(t)
	l := NewLedger()

	_, err := l.SetRowType(g, 1, structure.RowSectionHeader)
	require.NoError(t, err)

	assert.True(t, l.Remove(RowSubject(1)))
	assert.False(t, l.Remove(RowSubject(1)))
	assert.Zero(t, l.Len())

	_, ok := l.Get(RowSubject(1))
	assert.False(t, ok)
}
