// Package classify maps account names to financial categories with
// inflow/outflow polarity, reconciles AI-assisted and local rule-based
// classifications, and defines the AI classifier contract.
package classify

import "github.com/lithammer/fuzzysearch/fuzzy"

// StatementType determines the valid category vocabulary.
type StatementType string

const (
	BalanceSheet StatementType = "balance_sheet"
	ProfitLoss   StatementType = "profit_loss"
	CashFlow     StatementType = "cash_flow"
)

// Category is a classification target. IsInflow is the intrinsic cash-flow
// polarity of the category; Group clusters related categories so direction
// corrections can stay in the neighborhood.
type Category struct {
	Key      string        `json:"key"`
	Label    string        `json:"label"`
	IsInflow bool          `json:"is_inflow"`
	Group    string        `json:"group"`
	Type     StatementType `json:"statement_type"`
}

// CategoryOther is the total-function fallback for unmatched names.
const CategoryOther = "other"

// Disjoint vocabularies per statement type.
var catalogs = map[StatementType][]Category{
	ProfitLoss: {
		{Key: "revenue", Label: "Revenue", IsInflow: true, Group: "income", Type: ProfitLoss},
		{Key: "other_income", Label: "Other Income", IsInflow: true, Group: "income", Type: ProfitLoss},
		{Key: "cogs", Label: "Cost of Goods Sold", IsInflow: false, Group: "cost", Type: ProfitLoss},
		{Key: "personnel", Label: "Personnel Expenses", IsInflow: false, Group: "opex", Type: ProfitLoss},
		{Key: "marketing", Label: "Sales & Marketing", IsInflow: false, Group: "opex", Type: ProfitLoss},
		{Key: "rd", Label: "Research & Development", IsInflow: false, Group: "opex", Type: ProfitLoss},
		{Key: "opex", Label: "Operating Expenses", IsInflow: false, Group: "opex", Type: ProfitLoss},
		{Key: "depreciation", Label: "Depreciation & Amortization", IsInflow: false, Group: "below_line", Type: ProfitLoss},
		{Key: "interest_expense", Label: "Interest Expense", IsInflow: false, Group: "below_line", Type: ProfitLoss},
		{Key: "taxes", Label: "Taxes", IsInflow: false, Group: "below_line", Type: ProfitLoss},
		{Key: "other_expense", Label: "Other Expenses", IsInflow: false, Group: "other", Type: ProfitLoss},
		{Key: CategoryOther, Label: "Other", IsInflow: false, Group: "other", Type: ProfitLoss},
	},
	CashFlow: {
		{Key: "revenue", Label: "Sales Receipts", IsInflow: true, Group: "operating_in", Type: CashFlow},
		{Key: "collections", Label: "Collections", IsInflow: true, Group: "operating_in", Type: CashFlow},
		{Key: "other_income", Label: "Other Inflows", IsInflow: true, Group: "operating_in", Type: CashFlow},
		{Key: "suppliers", Label: "Supplier Payments", IsInflow: false, Group: "operating_out", Type: CashFlow},
		{Key: "payroll", Label: "Payroll", IsInflow: false, Group: "operating_out", Type: CashFlow},
		{Key: "opex", Label: "Operating Expenses", IsInflow: false, Group: "operating_out", Type: CashFlow},
		{Key: "taxes", Label: "Tax Payments", IsInflow: false, Group: "operating_out", Type: CashFlow},
		{Key: "financing_in", Label: "Financing Inflows", IsInflow: true, Group: "financing", Type: CashFlow},
		{Key: "financing_out", Label: "Financing Outflows", IsInflow: false, Group: "financing", Type: CashFlow},
		{Key: "investing_out", Label: "Capital Expenditures", IsInflow: false, Group: "investing", Type: CashFlow},
		{Key: CategoryOther, Label: "Other", IsInflow: false, Group: "other", Type: CashFlow},
	},
	BalanceSheet: {
		{Key: "cash", Label: "Cash & Equivalents", IsInflow: true, Group: "assets", Type: BalanceSheet},
		{Key: "receivables", Label: "Accounts Receivable", IsInflow: true, Group: "assets", Type: BalanceSheet},
		{Key: "inventory", Label: "Inventory", IsInflow: true, Group: "assets", Type: BalanceSheet},
		{Key: "fixed_assets", Label: "Fixed Assets", IsInflow: true, Group: "assets", Type: BalanceSheet},
		{Key: "payables", Label: "Accounts Payable", IsInflow: false, Group: "liabilities", Type: BalanceSheet},
		{Key: "debt", Label: "Debt", IsInflow: false, Group: "liabilities", Type: BalanceSheet},
		{Key: "tax_liabilities", Label: "Tax Liabilities", IsInflow: false, Group: "liabilities", Type: BalanceSheet},
		{Key: "equity", Label: "Equity", IsInflow: true, Group: "equity", Type: BalanceSheet},
		{Key: CategoryOther, Label: "Other", IsInflow: false, Group: "other", Type: BalanceSheet},
	},
}

// Catalog returns the category vocabulary for a statement type.
func Catalog(t StatementType) []Category {
	return catalogs[t]
}

// Lookup finds a category by key within a statement type's vocabulary.
func Lookup(t StatementType, key string) (Category, bool) {
	for _, c := range catalogs[t] {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// NearestSameDirection returns the category closest to from that carries the
// wanted polarity, preferring the same group, then ranking the rest of the
// vocabulary by label similarity. Falls back to the generic other category.
func NearestSameDirection(t StatementType, from Category, wantInflow bool) Category {
	var sameGroup, rest []Category
	for _, c := range catalogs[t] {
		if c.IsInflow != wantInflow || c.Key == from.Key {
			continue
		}
		if c.Group == from.Group {
			sameGroup = append(sameGroup, c)
		} else {
			rest = append(rest, c)
		}
	}

	if len(sameGroup) > 0 {
		return closestByLabel(from.Label, sameGroup)
	}
	if len(rest) > 0 {
		return closestByLabel(from.Label, rest)
	}
	other, _ := Lookup(t, CategoryOther)
	other.IsInflow = wantInflow
	return other
}

func closestByLabel(label string, candidates []Category) Category {
	best := candidates[0]
	bestRank := -1
	for _, c := range candidates {
		rank := fuzzy.RankMatchNormalizedFold(label, c.Label)
		if rank < 0 {
			rank = fuzzy.LevenshteinDistance(label, c.Label) + 100
		}
		if bestRank == -1 || rank < bestRank {
			bestRank = rank
			best = c
		}
	}
	return best
}
