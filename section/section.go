// Package section cascades a category chosen for a section header onto the
// contiguous run of child rows beneath it, and tracks the resulting bindings
// so they can be revoked cleanly.
package section

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/warren-fi/statement-engine/classify"
	"github.com/warren-fi/statement-engine/grid"
	"github.com/warren-fi/statement-engine/structure"
)

var (
	ErrNotHeader      = errors.New("row is not a section header")
	ErrUnknownSection = errors.New("no binding rooted at row")
	ErrBadCategory    = errors.New("category not in statement vocabulary")
)

// Binding records a section header, its cascaded children, and the category
// and polarity they inherited.
type Binding struct {
	ID              uuid.UUID `json:"id"`
	HeaderRowIndex  int       `json:"header_row_index"`
	ChildRowIndices []int     `json:"child_row_indices"`
	Category        string    `json:"category"`
	IsInflow        bool      `json:"is_inflow"`
	UseSuggestions  bool      `json:"use_suggestions,omitempty"`
}

// BindOptions controls how children are classified.
type BindOptions struct {
	// UseSuggestions classifies each child individually, restricted to
	// categories sharing the section's polarity. When false every child gets
	// exactly the section's category.
	UseSuggestions bool
}

// Engine owns the bindings for one analysis session. Bindings are created by
// an explicit user choice, so their direction participates in reconciler
// validation.
type Engine struct {
	g         grid.Grid
	dataRange grid.DataRange
	nameCol   int
	statement classify.StatementType
	local     *classify.LocalClassifier
	bindings  map[int]*Binding
}

// NewEngine creates a cascade engine over the given grid view.
func NewEngine(g grid.Grid, dataRange grid.DataRange, nameCol int, statement classify.StatementType, local *classify.LocalClassifier) *Engine {
	if local == nil {
		local = classify.NewLocalClassifier()
	}
	return &Engine{
		g:         g,
		dataRange: dataRange,
		nameCol:   nameCol,
		statement: statement,
		local:     local,
		bindings:  make(map[int]*Binding),
	}
}

// Bind cascades category onto the children of headerRow and records the
// binding. classifications is mutated in place: one entry per child plus a
// specially flagged entry for the header's own label. Rows already corrected
// by the user (source manual) are left untouched.
func (e *Engine) Bind(classifications map[int]classify.AccountClassification, structures []structure.RowStructure, headerRow int, categoryKey string, opts BindOptions) (*Binding, error) {
	if !isHeader(structures, headerRow) {
		return nil, fmt.Errorf("row %d: %w", headerRow, ErrNotHeader)
	}
	cat, ok := classify.Lookup(e.statement, categoryKey)
	if !ok {
		return nil, fmt.Errorf("%q for %s: %w", categoryKey, e.statement, ErrBadCategory)
	}

	// Rebinding replaces the previous cascade for this header.
	if _, bound := e.bindings[headerRow]; bound {
		if err := e.Unbind(classifications, headerRow); err != nil {
			return nil, err
		}
	}

	b := &Binding{
		ID:             uuid.New(),
		HeaderRowIndex: headerRow,
		Category:       cat.Key,
		IsInflow:       cat.IsInflow,
		UseSuggestions: opts.UseSuggestions,
	}

	for _, row := range e.childRun(structures, headerRow) {
		b.ChildRowIndices = append(b.ChildRowIndices, row)

		if existing, has := classifications[row]; has && existing.Source == classify.SourceManual {
			continue
		}

		name := e.g.At(row, e.nameCol).String()
		child := classify.AccountClassification{
			AccountName: name,
			RowIndex:    row,
			Category:    cat.Key,
			IsInflow:    cat.IsInflow,
			Confidence:  0.85,
			Reasoning:   "inherited from section " + e.g.At(headerRow, e.nameCol).String(),
			Source:      classify.SourceLocal,
			SectionID:   &b.ID,
		}

		if opts.UseSuggestions {
			// A suggestion of opposite polarity is discarded: the section's
			// direction always wins.
			if res, fits := e.local.SuggestWithinPolarity(name, e.statement, cat.IsInflow); fits {
				child.Category = res.SuggestedCategory
				child.Confidence = res.Confidence
				child.Reasoning = res.Reasoning + "; scoped to section polarity"
			}
		}

		classifications[row] = child
	}

	// The header row carries its own classification so UIs can distinguish
	// the section label from a child account.
	classifications[headerRow] = classify.AccountClassification{
		AccountName:    e.g.At(headerRow, e.nameCol).String(),
		RowIndex:       headerRow,
		Category:       cat.Key,
		IsInflow:       cat.IsInflow,
		Confidence:     1,
		Reasoning:      "section header label",
		Source:         classify.SourceManual,
		SectionID:      &b.ID,
		IsSectionLabel: true,
	}

	e.bindings[headerRow] = b
	return b, nil
}

// Unbind removes the binding rooted at headerRow and every classification
// that traces to it and has not since been individually overridden.
func (e *Engine) Unbind(classifications map[int]classify.AccountClassification, headerRow int) error {
	b, ok := e.bindings[headerRow]
	if !ok {
		return fmt.Errorf("row %d: %w", headerRow, ErrUnknownSection)
	}

	for row, c := range classifications {
		if c.SectionID == nil || *c.SectionID != b.ID {
			continue
		}
		if c.Source == classify.SourceManual && !c.IsSectionLabel {
			continue // user corrected this row after the cascade
		}
		delete(classifications, row)
	}

	delete(e.bindings, headerRow)
	return nil
}

// HandleDemotion destroys the binding rooted at a row that is no longer a
// section header. Missing bindings are fine: demotion of an unbound header
// is a no-op.
func (e *Engine) HandleDemotion(classifications map[int]classify.AccountClassification, headerRow int) {
	if _, ok := e.bindings[headerRow]; ok {
		_ = e.Unbind(classifications, headerRow)
	}
}

// Binding returns the binding rooted at headerRow, if any.
func (e *Engine) Binding(headerRow int) (*Binding, bool) {
	b, ok := e.bindings[headerRow]
	return b, ok
}

// Bindings returns every live binding ordered by header row.
func (e *Engine) Bindings() []Binding {
	out := make([]Binding, 0, len(e.bindings))
	for _, b := range e.bindings {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HeaderRowIndex < out[j].HeaderRowIndex })
	return out
}

// Directions exposes the per-row direction constraints for reconciliation.
// Every binding here was explicitly chosen, so UserChosen is always set.
func (e *Engine) Directions() map[int]classify.SectionDirection {
	out := make(map[int]classify.SectionDirection)
	for _, b := range e.bindings {
		for _, row := range b.ChildRowIndices {
			out[row] = classify.SectionDirection{
				IsInflow:   b.IsInflow,
				UserChosen: true,
				HeaderRow:  b.HeaderRowIndex,
			}
		}
	}
	return out
}

// childRun walks forward from the header to the next independently detected
// header or total, skipping rows with no meaningful cell content.
func (e *Engine) childRun(structures []structure.RowStructure, headerRow int) []int {
	boundary := make(map[int]structure.RowType, len(structures))
	for _, rs := range structures {
		boundary[rs.RowIndex] = rs.Type
	}

	var children []int
	for row := headerRow + 1; row <= e.dataRange.EndRow; row++ {
		if t, marked := boundary[row]; marked && t != structure.RowAccount {
			break
		}
		if e.rowEmpty(row) {
			continue
		}
		children = append(children, row)
	}
	return children
}

func (e *Engine) rowEmpty(row int) bool {
	for col := e.dataRange.StartCol; col <= e.dataRange.EndCol; col++ {
		if !e.g.At(row, col).IsEmpty() {
			return false
		}
	}
	return e.g.At(row, e.nameCol).IsEmpty()
}

func isHeader(structures []structure.RowStructure, row int) bool {
	for _, rs := range structures {
		if rs.RowIndex == row {
			return rs.Type == structure.RowSectionHeader
		}
	}
	return false
}
