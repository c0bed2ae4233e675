package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test single-label parsing across formats and locales
func TestParseHeader(t *testing.T) {
	tests := []struct {
		name      string
		label     string
		wantType  Type
		wantDate  time.Time
		minConf   float64
		maxConf   float64
		inferred  bool
	}{
		{
			name:     "spanish month with year",
			label:    "Enero 2024",
			wantType: TypeMonth,
			wantDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			minConf:  0.9,
			maxConf:  1,
		},
		{
			name:     "english month with year",
			label:    "January 2024",
			wantType: TypeMonth,
			wantDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			minConf:  0.9,
			maxConf:  1,
		},
		{
			name:     "abbreviated with two-digit year",
			label:    "Ene-24",
			wantType: TypeMonth,
			wantDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			minConf:  0.8,
			maxConf:  1,
		},
		{
			name:     "slash separated",
			label:    "Jan/24",
			wantType: TypeMonth,
			wantDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			minConf:  0.8,
			maxConf:  1,
		},
		{
			name:     "quarter with year",
			label:    "Q1 2024",
			wantType: TypeQuarter,
			wantDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			minConf:  0.9,
			maxConf:  1,
		},
		{
			name:     "spanish trimester",
			label:    "1er Trimestre 2024",
			wantType: TypeQuarter,
			wantDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			minConf:  0.8,
			maxConf:  1,
		},
		{
			name:     "bare year",
			label:    "2024",
			wantType: TypeYear,
			wantDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			minConf:  0.85,
			maxConf:  1,
		},
		{
			name:     "accented month",
			label:    "Facturación Marzo 2023",
			wantType: TypeMonth,
			wantDate: time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
			minConf:  0.9,
			maxConf:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseHeader(tt.label, 0, "es")
			require.NotNil(t, p)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, tt.wantDate, p.Date)
			assert.GreaterOrEqual(t, p.Confidence, tt.minConf)
			assert.LessOrEqual(t, p.Confidence, tt.maxConf)
			assert.Equal(t, tt.inferred, p.YearInferred)
			assert.Equal(t, tt.label, p.Label)
		})
	}
}

// Test year inference behavior for yearless labels
func TestParseHeader_Yearless(t *testing.T) {
	t.Run("no context year leaves date unset", func(t *testing.T) {
		p := ParseHeader("Enero", 0, "es")
		require.NotNil(t, p)
		assert.Equal(t, TypeMonth, p.Type)
		assert.True(t, p.Date.IsZero())
		assert.Less(t, p.Confidence, 1.0)
	})

	t.Run("context year fills in with reduced confidence", func(t *testing.T) {
		p := ParseHeader("Enero", 2024, "es")
		require.NotNil(t, p)
		assert.Equal(t, 2024, p.Date.Year())
		assert.Equal(t, time.January, p.Date.Month())
		assert.True(t, p.YearInferred)
		assert.Less(t, p.Confidence, 0.95)
	})

	t.Run("explicit year ignores context", func(t *testing.T) {
		p := ParseHeader("Enero 2023", 2024, "es")
		require.NotNil(t, p)
		assert.Equal(t, 2023, p.Date.Year())
		assert.False(t, p.YearInferred)
	})
}

func TestParseHeader_EdgeCases(t *testing.T) {
	t.Run("empty label", func(t *testing.T) {
		assert.Nil(t, ParseHeader("", 0, "es"))
		assert.Nil(t, ParseHeader("   ", 0, "es"))
	})

	t.Run("unrecognized label falls to custom", func(t *testing.T) {
		p := ParseHeader("Variación %", 0, "es")
		require.NotNil(t, p)
		assert.Equal(t, TypeCustom, p.Type)
		assert.LessOrEqual(t, p.Confidence, 0.5)
	})

	t.Run("never fully confident without a date", func(t *testing.T) {
		for _, label := range []string{"Enero", "Total", "Acumulado"} {
			p := ParseHeader(label, 0, "es")
			require.NotNil(t, p, label)
			assert.Less(t, p.Confidence, 1.0, label)
		}
	})
}

// Test whole-header ambiguity detection
func TestParseHeaders(t *testing.T) {
	t.Run("all yearless flags ambiguity", func(t *testing.T) {
		scan := ParseHeaders([]string{"Ene", "Feb", "Mar"}, "es")
		assert.True(t, scan.NeedsYearContext)
		assert.Zero(t, scan.DetectedYear)
		require.Len(t, scan.Periods, 3)
		for _, p := range scan.Periods {
			require.NotNil(t, p)
			assert.True(t, p.Date.IsZero())
		}
	})

	t.Run("one explicit year resolves the set", func(t *testing.T) {
		scan := ParseHeaders([]string{"Ene", "Feb", "Mar 2024"}, "es")
		assert.False(t, scan.NeedsYearContext)
		assert.Equal(t, 2024, scan.DetectedYear)
	})

	t.Run("custom labels alone need no year", func(t *testing.T) {
		scan := ParseHeaders([]string{"Total", "Variación"}, "es")
		assert.False(t, scan.NeedsYearContext)
	})
}

func TestSuggestYearRange(t *testing.T) {
	years := SuggestYearRange(2024)
	assert.Equal(t, []int{2022, 2023, 2024, 2025}, years)
}

func BenchmarkParseHeader(b *testing.B) {
	labels := []string{"Enero 2024", "Q1-2024", "Ene-24", "Total"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseHeader(labels[i%len(labels)], 2024, "es")
	}
}
