// Package overrides holds the single source of truth for user corrections:
// row types, row categories, column roles, and period labels. Every derived
// computation consults the ledger before trusting detector or classifier
// output.
package overrides

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/warren-fi/statement-engine/classify"
	"github.com/warren-fi/statement-engine/grid"
	"github.com/warren-fi/statement-engine/structure"
)

var (
	ErrOutOfRange  = errors.New("override subject outside grid")
	ErrBadRowType  = errors.New("unknown row type")
	ErrBadRole     = errors.New("unknown column role")
	ErrBadCategory = errors.New("category not in statement vocabulary")
	ErrEmptyLabel  = errors.New("empty period label")
)

// Kind discriminates what an entry overrides.
type Kind string

const (
	KindRowType     Kind = "row_type"
	KindRowCategory Kind = "row_category"
	KindColumnRole  Kind = "column_role"
	KindPeriodLabel Kind = "period_label"
)

// Entry is one ledger record, keyed by Subject. Entries never expire; the
// caller removes them explicitly.
type Entry struct {
	ID      uuid.UUID `json:"id"`
	Subject string    `json:"subject"`
	Kind    Kind      `json:"kind"`

	RowIndex int `json:"row_index,omitempty"`
	ColIndex int `json:"col_index,omitempty"`

	RowType     structure.RowType `json:"row_type,omitempty"`
	Category    string            `json:"category,omitempty"`
	IsInflow    *bool             `json:"is_inflow,omitempty"`
	Role        grid.ColumnRole   `json:"role,omitempty"`
	PeriodLabel string            `json:"period_label,omitempty"`
}

// RowSubject is the ledger key for a row-type override.
func RowSubject(row int) string { return fmt.Sprintf("row:%d", row) }

// RowCategorySubject is the ledger key for a row-category override.
func RowCategorySubject(row int) string { return fmt.Sprintf("row:%d:category", row) }

// ColSubject is the ledger key for a column-role override.
func ColSubject(col int) string { return fmt.Sprintf("col:%d", col) }

// ColPeriodSubject is the ledger key for a period-label override.
func ColPeriodSubject(col int) string { return fmt.Sprintf("col:%d:period", col) }

// Ledger stores overrides for one analysis session. A session has a single
// writer, so access is unsynchronized; read-after-write is immediate.
type Ledger struct {
	entries map[string]Entry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]Entry)}
}

// SetRowType records a row-type correction. Invalid subjects are rejected
// whole: no partial application.
func (l *Ledger) SetRowType(g grid.Grid, row int, t structure.RowType) (Entry, error) {
	if row < 0 || row >= g.NumRows() {
		return Entry{}, fmt.Errorf("row %d: %w", row, ErrOutOfRange)
	}
	if !structure.ValidRowType(t) {
		return Entry{}, fmt.Errorf("%q: %w", t, ErrBadRowType)
	}
	e := Entry{ID: uuid.New(), Subject: RowSubject(row), Kind: KindRowType, RowIndex: row, RowType: t}
	l.entries[e.Subject] = e
	return e, nil
}

// SetRowCategory records a manual classification for a row. The category
// must exist in the statement type's vocabulary.
func (l *Ledger) SetRowCategory(g grid.Grid, row int, st classify.StatementType, categoryKey string) (Entry, error) {
	if row < 0 || row >= g.NumRows() {
		return Entry{}, fmt.Errorf("row %d: %w", row, ErrOutOfRange)
	}
	cat, ok := classify.Lookup(st, categoryKey)
	if !ok {
		return Entry{}, fmt.Errorf("%q for %s: %w", categoryKey, st, ErrBadCategory)
	}
	inflow := cat.IsInflow
	e := Entry{
		ID:       uuid.New(),
		Subject:  RowCategorySubject(row),
		Kind:     KindRowCategory,
		RowIndex: row,
		Category: cat.Key,
		IsInflow: &inflow,
	}
	l.entries[e.Subject] = e
	return e, nil
}

// SetColumnRole records a column-role correction. A column holds at most one
// role, so a repeat call replaces the previous entry.
func (l *Ledger) SetColumnRole(g grid.Grid, col int, role grid.ColumnRole) (Entry, error) {
	if col < 0 || col >= g.NumCols() {
		return Entry{}, fmt.Errorf("col %d: %w", col, ErrOutOfRange)
	}
	if !grid.ValidRole(role) {
		return Entry{}, fmt.Errorf("%q: %w", role, ErrBadRole)
	}
	e := Entry{ID: uuid.New(), Subject: ColSubject(col), Kind: KindColumnRole, ColIndex: col, Role: role}
	l.entries[e.Subject] = e
	return e, nil
}

// SetPeriodLabel records a corrected period label for a column.
func (l *Ledger) SetPeriodLabel(g grid.Grid, col int, label string) (Entry, error) {
	if col < 0 || col >= g.NumCols() {
		return Entry{}, fmt.Errorf("col %d: %w", col, ErrOutOfRange)
	}
	if label == "" {
		return Entry{}, ErrEmptyLabel
	}
	e := Entry{ID: uuid.New(), Subject: ColPeriodSubject(col), Kind: KindPeriodLabel, ColIndex: col, PeriodLabel: label}
	l.entries[e.Subject] = e
	return e, nil
}

// Remove deletes the entry for a subject, reporting whether it existed.
func (l *Ledger) Remove(subject string) bool {
	if _, ok := l.entries[subject]; !ok {
		return false
	}
	delete(l.entries, subject)
	return true
}

// Get returns the entry for a subject.
func (l *Ledger) Get(subject string) (Entry, bool) {
	e, ok := l.entries[subject]
	return e, ok
}

// Len returns the number of recorded overrides.
func (l *Ledger) Len() int { return len(l.entries) }

// RowTypes returns every row-type override, ready to merge into a detector
// config.
func (l *Ledger) RowTypes() map[int]structure.RowType {
	out := make(map[int]structure.RowType)
	for _, e := range l.entries {
		if e.Kind == KindRowType {
			out[e.RowIndex] = e.RowType
		}
	}
	return out
}

// RowCategory returns the manual classification for a row, if any.
func (l *Ledger) RowCategory(row int) (Entry, bool) {
	e, ok := l.entries[RowCategorySubject(row)]
	return e, ok
}

// ColumnRoles returns every column-role override.
func (l *Ledger) ColumnRoles() map[int]grid.ColumnRole {
	out := make(map[int]grid.ColumnRole)
	for _, e := range l.entries {
		if e.Kind == KindColumnRole {
			out[e.ColIndex] = e.Role
		}
	}
	return out
}

// PeriodLabels returns every period-label override.
func (l *Ledger) PeriodLabels() map[int]string {
	out := make(map[int]string)
	for _, e := range l.entries {
		if e.Kind == KindPeriodLabel {
			out[e.ColIndex] = e.PeriodLabel
		}
	}
	return out
}
