package grid

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
)

// StatementGenerator produces realistic financial-statement grids for tests
// and benchmarks.
type StatementGenerator struct {
	faker *gofakeit.Faker
}

// NewStatementGenerator creates a generator with a specific seed for
// reproducibility.
func NewStatementGenerator(seed int64) *StatementGenerator {
	return &StatementGenerator{faker: gofakeit.New(seed)}
}

var spanishMonths = []string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

var incomeAccounts = []string{
	"Ventas Contado", "Cobros a Crédito", "Otros Ingresos",
	"Ingresos por Servicios", "Ventas Exportación",
}

var expenseAccounts = []string{
	"Proveedores", "Sueldos y Cargas", "Gastos Operativos",
	"Impuestos", "Alquileres", "Servicios Públicos",
}

// SpanishCashflow builds a Spanish cash-flow statement in the layout the
// product sees in the wild: section headers in caps, account rows, a total
// row per section, and Mon-YY period headers.
func (g *StatementGenerator) SpanishCashflow(months, incomeRows, expenseRows int) Grid {
	if months > 12 {
		months = 12
	}
	header := make([]Cell, months+1)
	header[0] = Text("Concepto")
	for m := 0; m < months; m++ {
		header[m+1] = Text(fmt.Sprintf("%s-24", spanishMonths[m]))
	}

	rows := [][]Cell{header}
	rows = append(rows, g.section("INGRESOS", "TOTAL INGRESOS", incomeAccounts, incomeRows, months)...)
	rows = append(rows, g.blankRow(months+1))
	rows = append(rows, g.section("EGRESOS", "TOTAL EGRESOS", expenseAccounts, expenseRows, months)...)

	built, err := New(rows)
	if err != nil {
		panic(err) // every row above is built at months+1 cells
	}
	return built
}

// section emits a header row, n account rows, and an arithmetically exact
// total row.
func (g *StatementGenerator) section(header, total string, names []string, n, months int) [][]Cell {
	rows := make([][]Cell, 0, n+2)

	headerRow := make([]Cell, months+1)
	headerRow[0] = Text(header)
	for i := 1; i <= months; i++ {
		headerRow[i] = Empty()
	}
	rows = append(rows, headerRow)

	sums := make([]float64, months)
	for i := 0; i < n; i++ {
		row := make([]Cell, months+1)
		name := names[i%len(names)]
		if i >= len(names) {
			name = fmt.Sprintf("%s %s", name, g.faker.Company())
		}
		row[0] = Text(name)
		for m := 0; m < months; m++ {
			v := float64(g.faker.Number(5000, 60000))
			sums[m] += v
			row[m+1] = Number(v)
		}
		rows = append(rows, row)
	}

	totalRow := make([]Cell, months+1)
	totalRow[0] = Text(total)
	for m := 0; m < months; m++ {
		totalRow[m+1] = Number(sums[m])
	}
	rows = append(rows, totalRow)

	return rows
}

func (g *StatementGenerator) blankRow(width int) []Cell {
	row := make([]Cell, width)
	for i := range row {
		row[i] = Empty()
	}
	return row
}

// AccountName returns a plausible random account label.
func (g *StatementGenerator) AccountName() string {
	pool := incomeAccounts
	if g.faker.Bool() {
		pool = expenseAccounts
	}
	return pool[g.faker.Number(0, len(pool)-1)]
}
