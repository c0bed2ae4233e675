package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccounts() []AccountRow {
	return []AccountRow{
		{Name: "Ingresos por Ventas", RowIndex: 2, SampleValue: floatPtr(1200)},
		{Name: "Nómina", RowIndex: 3, SampleValue: floatPtr(-700)},
		{Name: "Zzz Holdings", RowIndex: 4, SampleValue: floatPtr(-100)},
	}
}

// Test the merge of AI results with local fallback
func TestReconciler_Reconcile(t *testing.T) {
	r := NewReconciler(nil, nil)
	ctx := Context{StatementType: CashFlow}

	t.Run("ai coverage is kept", func(t *testing.T) {
		ai := []AccountClassification{
			{AccountName: "Ingresos por Ventas", RowIndex: 2, Category: "revenue", IsInflow: true, Confidence: 0.97},
			{AccountName: "Nómina", RowIndex: 3, Category: "payroll", IsInflow: false, Confidence: 0.96},
			{AccountName: "Zzz Holdings", RowIndex: 4, Category: "opex", IsInflow: false, Confidence: 0.9},
		}

		out := r.Reconcile(ai, testAccounts(), nil, ctx)
		require.Len(t, out, 3)
		for _, c := range out {
			assert.Equal(t, SourceAI, c.Source)
		}
		assert.Equal(t, "revenue", out[0].Category)
	})

	t.Run("uncovered rows fill locally", func(t *testing.T) {
		ai := []AccountClassification{
			{AccountName: "Ingresos por Ventas", RowIndex: 2, Category: "revenue", IsInflow: true, Confidence: 0.97},
		}

		out := r.Reconcile(ai, testAccounts(), nil, ctx)
		require.Len(t, out, 3)

		assert.Equal(t, SourceAI, out[0].Source)
		assert.Equal(t, SourceLocal, out[1].Source)
		assert.Equal(t, "payroll", out[1].Category)
		assert.Equal(t, SourceLocal, out[2].Source)
		assert.Equal(t, CategoryOther, out[2].Category)
	})

	t.Run("nil ai result is fully local", func(t *testing.T) {
		out := r.Reconcile(nil, testAccounts(), nil, ctx)
		require.Len(t, out, 3)
		for _, c := range out {
			assert.Equal(t, SourceLocal, c.Source)
		}
	})

	t.Run("ai rows outside the account set are dropped", func(t *testing.T) {
		ai := []AccountClassification{
			{AccountName: "TOTAL INGRESOS", RowIndex: 5, Category: "revenue", IsInflow: true, Confidence: 0.99},
		}

		out := r.Reconcile(ai, testAccounts(), nil, ctx)
		require.Len(t, out, 3)
		for _, c := range out {
			assert.NotEqual(t, 5, c.RowIndex)
			assert.Equal(t, SourceLocal, c.Source)
		}
	})

	t.Run("output sorted by row index", func(t *testing.T) {
		accounts := []AccountRow{
			{Name: "Nómina", RowIndex: 9},
			{Name: "Ventas", RowIndex: 2},
			{Name: "Impuestos", RowIndex: 5},
		}
		out := r.Reconcile(nil, accounts, nil, ctx)
		require.Len(t, out, 3)
		assert.Equal(t, 2, out[0].RowIndex)
		assert.Equal(t, 5, out[1].RowIndex)
		assert.Equal(t, 9, out[2].RowIndex)
	})

	t.Run("empty account set yields empty output", func(t *testing.T) {
		out := r.Reconcile(nil, nil, nil, ctx)
		assert.Empty(t, out)
	})
}

// Test direction validation against user-chosen sections
func TestReconciler_DirectionValidation(t *testing.T) {
	r := NewReconciler(nil, nil)
	ctx := Context{StatementType: CashFlow}

	accounts := []AccountRow{
		{Name: "Devolución a clientes", RowIndex: 7, SampleValue: floatPtr(-300)},
	}
	ai := []AccountClassification{
		{AccountName: "Devolución a clientes", RowIndex: 7, Category: "revenue", IsInflow: true, Confidence: 0.9},
	}

	t.Run("contradiction inside a chosen section is corrected", func(t *testing.T) {
		sections := map[int]SectionDirection{
			7: {IsInflow: false, UserChosen: true, HeaderRow: 5},
		}

		out := r.Reconcile(ai, accounts, sections, ctx)
		require.Len(t, out, 1)
		assert.False(t, out[0].IsInflow)
		assert.NotEqual(t, "revenue", out[0].Category)
		assert.Equal(t, 1, out[0].ValidationCorrections)
		assert.Contains(t, out[0].Reasoning, "direction corrected")
	})

	t.Run("inferred sections do not trigger corrections", func(t *testing.T) {
		sections := map[int]SectionDirection{
			7: {IsInflow: false, UserChosen: false, HeaderRow: 5},
		}

		out := r.Reconcile(ai, accounts, sections, ctx)
		require.Len(t, out, 1)
		assert.True(t, out[0].IsInflow)
		assert.Zero(t, out[0].ValidationCorrections)
	})

	t.Run("agreeing direction is untouched", func(t *testing.T) {
		sections := map[int]SectionDirection{
			7: {IsInflow: true, UserChosen: true, HeaderRow: 5},
		}

		out := r.Reconcile(ai, accounts, sections, ctx)
		require.Len(t, out, 1)
		assert.Equal(t, "revenue", out[0].Category)
		assert.Zero(t, out[0].ValidationCorrections)
	})
}
