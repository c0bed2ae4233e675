package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test grid construction invariants
func TestNew(t *testing.T) {
	t.Run("rejects empty grid", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrEmptyGrid)

		_, err = New([][]Cell{})
		assert.ErrorIs(t, err, ErrEmptyGrid)
	})

	t.Run("rejects jagged rows", func(t *testing.T) {
		_, err := New([][]Cell{
			{Text("a"), Number(1)},
			{Text("b")},
		})
		assert.ErrorIs(t, err, ErrNotRectangular)
	})

	t.Run("accepts rectangular rows", func(t *testing.T) {
		g, err := New([][]Cell{
			{Text("Concepto"), Text("Enero")},
			{Text("Ventas"), Number(1200)},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, g.NumRows())
		assert.Equal(t, 2, g.NumCols())
	})
}

func TestGrid_At(t *testing.T) {
	g, err := New([][]Cell{
		{Text("Ventas"), Number(1200)},
	})
	require.NoError(t, err)

	t.Run("in bounds", func(t *testing.T) {
		assert.Equal(t, "Ventas", g.At(0, 0).String())
		v, ok := g.At(0, 1).Float()
		require.True(t, ok)
		assert.Equal(t, 1200.0, v)
	})

	t.Run("out of bounds yields empty cell", func(t *testing.T) {
		assert.True(t, g.At(5, 0).IsEmpty())
		assert.True(t, g.At(0, 9).IsEmpty())
		assert.True(t, g.At(-1, -1).IsEmpty())
	})
}

func TestGrid_Row(t *testing.T) {
	g, err := New([][]Cell{
		{Text("Ventas"), Number(1200)},
		{Text("Sueldos"), Number(-800)},
	})
	require.NoError(t, err)

	t.Run("returns a copy", func(t *testing.T) {
		row := g.Row(0)
		require.Len(t, row, 2)
		assert.Equal(t, "Ventas", row[0].String())

		row[0] = Text("mutated")
		assert.Equal(t, "Ventas", g.At(0, 0).String())
	})

	t.Run("out of bounds yields nil", func(t *testing.T) {
		assert.Nil(t, g.Row(-1))
		assert.Nil(t, g.Row(2))
	})
}

func TestCell(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		c := Empty()
		assert.True(t, c.IsEmpty())
		assert.False(t, c.IsNumber())
		assert.Equal(t, "", c.String())
		_, ok := c.Float()
		assert.False(t, ok)
	})

	t.Run("text", func(t *testing.T) {
		c := Text("Nómina")
		assert.False(t, c.IsEmpty())
		assert.Equal(t, "Nómina", c.String())
		_, ok := c.Float()
		assert.False(t, ok)
	})

	t.Run("number", func(t *testing.T) {
		c := Number(-42.5)
		assert.True(t, c.IsNumber())
		v, ok := c.Float()
		require.True(t, ok)
		assert.Equal(t, -42.5, v)
	})
}

// Test data range validation against grid bounds
func TestDataRange_Validate(t *testing.T) {
	g, err := New([][]Cell{
		{Text("a"), Text("b"), Text("c")},
		{Text("d"), Text("e"), Text("f")},
		{Text("g"), Text("h"), Text("i")},
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		rng     DataRange
		wantErr error
	}{
		{"full grid", DataRange{0, 2, 0, 2}, nil},
		{"single row", DataRange{1, 1, 0, 2}, nil},
		{"end row past bounds", DataRange{0, 3, 0, 2}, ErrRangeOutOfBounds},
		{"end col past bounds", DataRange{0, 2, 0, 3}, ErrRangeOutOfBounds},
		{"negative start", DataRange{-1, 2, 0, 2}, ErrRangeOutOfBounds},
		{"inverted rows", DataRange{2, 0, 0, 2}, ErrRangeInverted},
		{"inverted cols", DataRange{0, 2, 2, 0}, ErrRangeInverted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rng.Validate(g)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestStatementGenerator_AccountName(t *testing.T) {
	gen := NewStatementGenerator(42)
	for i := 0; i < 20; i++ {
		assert.NotEmpty(t, gen.AccountName())
	}

	// Same seed, same sequence.
	a, b := NewStatementGenerator(7), NewStatementGenerator(7)
	assert.Equal(t, a.AccountName(), b.AccountName())
}

func TestDataRange_ContainsRow(t *testing.T) {
	rng := DataRange{StartRow: 2, EndRow: 5, StartCol: 0, EndCol: 3}
	assert.True(t, rng.ContainsRow(2))
	assert.True(t, rng.ContainsRow(5))
	assert.False(t, rng.ContainsRow(1))
	assert.False(t, rng.ContainsRow(6))
	assert.Equal(t, 4, rng.Rows())
}
