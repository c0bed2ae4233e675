package classify

import (
	"log/slog"
	"sort"
)

// AccountRow is one in-range, non-excluded account row handed to the
// reconciler.
type AccountRow struct {
	Name        string
	RowIndex    int
	SampleValue *float64
}

// SectionDirection is the polarity established for a row by its enclosing
// section binding. Only directions the user explicitly chose participate in
// the validation pass.
type SectionDirection struct {
	IsInflow   bool
	UserChosen bool
	HeaderRow  int
}

// Reconciler merges AI-assisted classifications with local fallback output
// and enforces inflow/outflow consistency inside user-chosen sections.
type Reconciler struct {
	local  *LocalClassifier
	logger *slog.Logger
}

// NewReconciler builds a reconciler around the given local classifier.
// A nil logger falls back to slog.Default.
func NewReconciler(local *LocalClassifier, logger *slog.Logger) *Reconciler {
	if local == nil {
		local = NewLocalClassifier()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{local: local, logger: logger}
}

// Reconcile produces exactly one classification per account row: AI results
// are kept where present (matched by row index), every uncovered row is
// classified locally, and classifications contradicting the direction of a
// user-chosen section are corrected toward the nearest same-direction
// category. Output is stable by row index ascending; no row is ever dropped.
func (r *Reconciler) Reconcile(ai []AccountClassification, accounts []AccountRow, sections map[int]SectionDirection, ctx Context) []AccountClassification {
	inRange := make(map[int]AccountRow, len(accounts))
	for _, a := range accounts {
		inRange[a.RowIndex] = a
	}

	// AI coverage keyed by row index; entries outside the requested account
	// set are ignored rather than trusted.
	covered := make(map[int]AccountClassification, len(ai))
	for _, c := range ai {
		if _, ok := inRange[c.RowIndex]; !ok {
			continue
		}
		c.Source = SourceAI
		covered[c.RowIndex] = c
	}

	out := make([]AccountClassification, 0, len(accounts))
	localFills := 0
	for _, a := range accounts {
		if c, ok := covered[a.RowIndex]; ok {
			out = append(out, c)
			continue
		}
		res := r.local.ClassifyAccount(a.Name, a.SampleValue, ctx)
		out = append(out, AccountClassification{
			AccountName: a.Name,
			RowIndex:    a.RowIndex,
			Category:    res.SuggestedCategory,
			IsInflow:    res.IsInflow,
			Confidence:  res.Confidence,
			Reasoning:   res.Reasoning,
			Source:      SourceLocal,
		})
		localFills++
	}

	if localFills > 0 && len(ai) > 0 {
		r.logger.Info("partial AI coverage, filled locally",
			"requested", len(accounts),
			"ai_covered", len(covered),
			"local_filled", localFills)
	}

	corrections := r.validateDirections(out, sections, ctx)
	if corrections > 0 {
		r.logger.Info("section direction corrections applied", "count", corrections)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].RowIndex < out[j].RowIndex })
	return out
}

// validateDirections flips classifications whose polarity contradicts their
// enclosing user-chosen section, moving the category to the nearest
// same-direction neighbor and recording the correction.
func (r *Reconciler) validateDirections(out []AccountClassification, sections map[int]SectionDirection, ctx Context) int {
	total := 0
	for i := range out {
		dir, ok := sections[out[i].RowIndex]
		if !ok || !dir.UserChosen || out[i].IsInflow == dir.IsInflow {
			continue
		}

		from, found := Lookup(ctx.StatementType, out[i].Category)
		if !found {
			from = Category{Key: out[i].Category, Label: out[i].Category, Type: ctx.StatementType}
		}
		to := NearestSameDirection(ctx.StatementType, from, dir.IsInflow)

		out[i].Category = to.Key
		out[i].IsInflow = dir.IsInflow
		out[i].ValidationCorrections++
		out[i].Reasoning += "; direction corrected to match section"
		total++
	}
	return total
}
