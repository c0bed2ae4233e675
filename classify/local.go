package classify

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/warren-fi/statement-engine/structure"
)

// rule maps keyword hits to a category key. Rules are matched in order and
// the first full match wins; keywords are compared against normalized names.
type rule struct {
	keywords []string
	category string
}

// Keyword tables per statement type, es/en, ordered most specific first.
var ruleTables = map[StatementType][]rule{
	ProfitLoss: {
		{[]string{"costo de venta", "costo de ventas", "cogs", "cost of goods", "materia prima", "mano de obra"}, "cogs"},
		{[]string{"depreciacion", "amortizacion", "depreciation", "amortization"}, "depreciation"},
		{[]string{"interes", "interest"}, "interest_expense"},
		{[]string{"impuesto", "tax", "iva", "tributo"}, "taxes"},
		{[]string{"sueldo", "salario", "nomina", "personal", "salaries", "payroll", "wages", "cargas sociales"}, "personnel"},
		{[]string{"marketing", "publicidad", "ventas y marketing", "comercial", "advertising"}, "marketing"},
		{[]string{"investigacion", "desarrollo", "research", "development", "i d"}, "rd"},
		{[]string{"gasto operativo", "gastos operativos", "gastos operacionales", "operating expense", "administracion", "administrativo", "general", "g a"}, "opex"},
		{[]string{"otros ingresos", "other income", "ingreso financiero"}, "other_income"},
		{[]string{"venta", "ventas", "ingreso", "ingresos", "revenue", "sales", "facturacion", "servicios prestados"}, "revenue"},
		{[]string{"otros gastos", "other expense", "gasto"}, "other_expense"},
	},
	CashFlow: {
		{[]string{"cobros a credito", "cobros", "cobranza", "collections"}, "collections"},
		{[]string{"otros ingresos", "other inflows", "other income"}, "other_income"},
		{[]string{"venta", "ventas", "ingresos por venta", "sales receipts", "ingreso", "ingresos", "revenue"}, "revenue"},
		{[]string{"proveedor", "proveedores", "supplier", "compras"}, "suppliers"},
		{[]string{"sueldo", "sueldos", "salario", "nomina", "payroll", "cargas"}, "payroll"},
		{[]string{"impuesto", "impuestos", "tax", "taxes"}, "taxes"},
		{[]string{"prestamo", "credito bancario", "loan proceeds", "aporte"}, "financing_in"},
		{[]string{"amortizacion de deuda", "pago de prestamo", "loan payment", "dividendos pagados"}, "financing_out"},
		{[]string{"inversion", "capex", "activo fijo", "equipment"}, "investing_out"},
		{[]string{"gasto operativo", "gastos operativos", "gasto", "gastos", "operating", "egresos"}, "opex"},
	},
	BalanceSheet: {
		{[]string{"caja", "banco", "bancos", "efectivo", "cash", "equivalentes"}, "cash"},
		{[]string{"cuentas por cobrar", "clientes", "deudores", "receivable"}, "receivables"},
		{[]string{"inventario", "existencias", "mercaderia", "inventory", "stock"}, "inventory"},
		{[]string{"activo fijo", "propiedad", "maquinaria", "equipo", "fixed asset", "property", "equipment"}, "fixed_assets"},
		{[]string{"cuentas por pagar", "proveedores", "acreedores", "payable"}, "payables"},
		{[]string{"prestamo", "deuda", "obligaciones", "debt", "loan"}, "debt"},
		{[]string{"impuestos por pagar", "tax payable", "fiscal"}, "tax_liabilities"},
		{[]string{"capital", "patrimonio", "resultados acumulados", "equity", "retained"}, "equity"},
	},
}

// Context carries the statement-level signals available to the classifier.
type Context struct {
	StatementType StatementType
}

// Result is the local classifier's answer.
type Result struct {
	SuggestedCategory string  `json:"suggested_category"`
	IsInflow          bool    `json:"is_inflow"`
	Confidence        float64 `json:"confidence"`
	Reasoning         string  `json:"reasoning"`
}

// LocalClassifier is the rule-based fallback classifier. It is a total
// function over non-empty account names: unmatched names land in the other
// category with low confidence.
type LocalClassifier struct{}

// NewLocalClassifier returns the shared rule-based classifier.
func NewLocalClassifier() *LocalClassifier { return &LocalClassifier{} }

// ClassifyAccount maps an account name to a category. sampleValue is an
// optional secondary signal: a negative value on an otherwise ambiguous name
// nudges toward an outflow category, but never overrides a strong keyword
// match.
func (lc *LocalClassifier) ClassifyAccount(name string, sampleValue *float64, ctx Context) Result {
	t := ctx.StatementType
	if _, ok := catalogs[t]; !ok {
		t = ProfitLoss
	}

	norm := structure.Normalize(name)
	if norm == "" {
		return fallbackResult(t, sampleValue, 0.2, "empty name")
	}

	bestScore := 0.0
	var bestCat Category
	bestKeyword := ""
	for _, r := range ruleTables[t] {
		score, kw := scoreRule(norm, r)
		if score > bestScore {
			cat, ok := Lookup(t, r.category)
			if !ok {
				continue
			}
			bestScore = score
			bestCat = cat
			bestKeyword = kw
		}
	}

	if bestScore == 0 {
		return fallbackResult(t, sampleValue, 0.3, "no keyword match")
	}

	confidence := 0.55
	switch {
	case bestScore >= 2.0:
		confidence = 0.9
	case bestScore >= 1.0:
		confidence = 0.75
	}

	isInflow := bestCat.IsInflow
	reasoning := "keyword match: " + bestKeyword

	// Weak fuzzy-only matches yield to a contradicting sample sign.
	if bestScore < 1.0 && sampleValue != nil && *sampleValue < 0 && isInflow {
		flipped := NearestSameDirection(t, bestCat, false)
		return Result{
			SuggestedCategory: flipped.Key,
			IsInflow:          false,
			Confidence:        0.5,
			Reasoning:         reasoning + "; negative sample value suggests outflow",
		}
	}

	return Result{
		SuggestedCategory: bestCat.Key,
		IsInflow:          isInflow,
		Confidence:        confidence,
		Reasoning:         reasoning,
	}
}

// SuggestWithinPolarity classifies a name but only admits categories sharing
// the given polarity, for cascading under a section whose direction is fixed.
// ok is false when nothing with that polarity fits the name.
func (lc *LocalClassifier) SuggestWithinPolarity(name string, t StatementType, isInflow bool) (Result, bool) {
	res := lc.ClassifyAccount(name, nil, Context{StatementType: t})
	if res.IsInflow != isInflow {
		return Result{}, false
	}
	if res.SuggestedCategory == CategoryOther && res.Confidence < 0.5 {
		return Result{}, false
	}
	return res, true
}

// scoreRule scores one rule against a normalized name: 1 per contained
// keyword, +1 bonus when the whole name equals the keyword, and fuzzy partial
// credit for near-miss spellings.
func scoreRule(norm string, r rule) (float64, string) {
	score := 0.0
	matched := ""
	for _, kw := range r.keywords {
		switch {
		case norm == kw:
			score += 2.0
		case strings.Contains(norm, kw):
			score += 1.0
		default:
			if len(kw) >= 5 && fuzzy.RankMatchNormalizedFold(kw, norm) >= 0 {
				score += 0.4
			} else {
				continue
			}
		}
		if matched == "" || len(kw) > len(matched) {
			matched = kw
		}
	}
	return score, matched
}

func fallbackResult(t StatementType, sampleValue *float64, confidence float64, reason string) Result {
	isInflow := false
	if sampleValue != nil && *sampleValue > 0 {
		isInflow = true
	}
	return Result{
		SuggestedCategory: CategoryOther,
		IsInflow:          isInflow,
		Confidence:        confidence,
		Reasoning:         reason,
	}
}
