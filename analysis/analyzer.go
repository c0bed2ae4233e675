// Package analysis orchestrates a full statement analysis: column role
// inference, period parsing, row structure detection, AI-assisted
// classification with local fallback, section cascades and manual overrides,
// flattened into a Snapshot. Every run is a pure recomputation over the grid
// plus the override ledger; the only external effect is the one batched
// classifier call, and even that degrades silently to local rules.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warren-fi/statement-engine/classify"
	"github.com/warren-fi/statement-engine/grid"
	"github.com/warren-fi/statement-engine/overrides"
	"github.com/warren-fi/statement-engine/period"
	"github.com/warren-fi/statement-engine/section"
	"github.com/warren-fi/statement-engine/structure"
)

var (
	ErrNotAnalyzed   = errors.New("analysis has not run yet")
	ErrStaleResponse = errors.New("response fingerprint does not match current input")
	ErrBadLayout     = errors.New("data range must start below the header row")
)

// Options configures one analysis session. The zero value is not usable;
// start from DefaultOptions.
type Options struct {
	StatementType classify.StatementType
	Currency      string
	Locale        string

	// Classifier is the optional remote AI boundary. Nil runs local-only.
	Classifier classify.Classifier
	AITimeout  time.Duration
	Cache      Cache
	Logger     *slog.Logger

	// Advisory layout hints from the caller's UI; -1 means auto-detect.
	HeaderRow    int
	DataStartRow int
	DataEndRow   int

	// ContextYear resolves yearless period labels once the user has picked a
	// year. Zero leaves ambiguous headers unresolved and flags the snapshot.
	ContextYear int

	// ContextRows is how many neighbor labels each AI account request carries
	// on each side.
	ContextRows int
}

// DefaultOptions returns the standard configuration for a statement type.
func DefaultOptions(st classify.StatementType) Options {
	return Options{
		StatementType: st,
		Locale:        "es",
		AITimeout:     15 * time.Second,
		HeaderRow:     -1,
		DataStartRow:  -1,
		DataEndRow:    -1,
		ContextRows:   2,
	}
}

// PeriodColumn pairs a period-role column with its parsed label. Parsed is
// nil only when the header cell is empty.
type PeriodColumn struct {
	ColumnIndex int            `json:"column_index"`
	RawLabel    string         `json:"raw_label"`
	Parsed      *period.Parsed `json:"parsed,omitempty"`
}

// Snapshot is the flat output of one analysis run. It carries everything a
// consumer needs to render or persist the result without reaching back into
// the engine.
type Snapshot struct {
	ID            uuid.UUID              `json:"id"`
	Fingerprint   string                 `json:"fingerprint"`
	StatementType classify.StatementType `json:"statement_type"`

	HeaderRow      int                     `json:"header_row"`
	DataRange      grid.DataRange          `json:"data_range"`
	ColumnRoles    map[int]grid.ColumnRole `json:"column_roles"`
	AccountNameCol int                     `json:"account_name_col"`
	ColumnProfiles []ColumnProfile         `json:"column_profiles"`

	PeriodColumns    []PeriodColumn `json:"period_columns"`
	NeedsYearContext bool           `json:"needs_year_context"`
	DetectedYear     int            `json:"detected_year,omitempty"`

	RowStructures          []structure.RowStructure          `json:"row_structures"`
	DetectedTotalRows      []int                             `json:"detected_total_rows"`
	AccountClassifications []classify.AccountClassification  `json:"account_classifications"`
	SectionBindings        []section.Binding                 `json:"section_bindings,omitempty"`

	// AIDegraded reports that the classifier was configured but its answer
	// was unusable; classifications are local-only.
	AIDegraded bool `json:"ai_degraded,omitempty"`
}

// Analyzer runs the pipeline over one grid. It is stateful per session: Run
// recomputes everything, then BindSection and the ledger mutate the derived
// state until the next Run. Not safe for concurrent use.
type Analyzer struct {
	g      grid.Grid
	opts   Options
	logger *slog.Logger
	ledger *overrides.Ledger

	detector   *structure.Detector
	local      *classify.LocalClassifier
	reconciler *classify.Reconciler
	sections   *section.Engine

	headerRow int
	dataRange grid.DataRange

	roles       map[int]grid.ColumnRole
	nameCol     int
	periodCols  []int
	profiles    []ColumnProfile
	fingerprint string

	analyzed        bool
	structures      []structure.RowStructure
	excluded        map[int]bool
	accounts        []classify.AccountRow
	classifications map[int]classify.AccountClassification

	periodColumns []PeriodColumn
	needsYear     bool
	detectedYear  int
	aiDegraded    bool
}

// New builds an analyzer over g. ledger may be nil for a session with no
// corrections. Layout hints in opts are validated here; everything else is
// computed lazily by Run.
func New(g grid.Grid, ledger *overrides.Ledger, opts Options) (*Analyzer, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = 15 * time.Second
	}
	if opts.ContextRows <= 0 {
		opts.ContextRows = 2
	}
	if opts.Locale == "" {
		opts.Locale = "es"
	}
	if ledger == nil {
		ledger = overrides.NewLedger()
	}

	headerRow := opts.HeaderRow
	if headerRow < 0 {
		headerRow = detectHeaderRow(g, opts.Locale)
	} else if headerRow >= g.NumRows() {
		return nil, fmt.Errorf("header row %d: %w", headerRow, grid.ErrRangeOutOfBounds)
	}

	startRow := opts.DataStartRow
	if startRow < 0 {
		startRow = headerRow + 1
	}
	endRow := opts.DataEndRow
	if endRow < 0 {
		endRow = g.NumRows() - 1
	}
	if startRow <= headerRow {
		return nil, fmt.Errorf("data start %d, header %d: %w", startRow, headerRow, ErrBadLayout)
	}

	rng := grid.DataRange{StartRow: startRow, EndRow: endRow, StartCol: 0, EndCol: g.NumCols() - 1}
	if err := rng.Validate(g); err != nil {
		return nil, fmt.Errorf("data range: %w", err)
	}

	local := classify.NewLocalClassifier()
	a := &Analyzer{
		g:          g,
		opts:       opts,
		logger:     opts.Logger,
		ledger:     ledger,
		detector:   structure.NewDetector(),
		local:      local,
		reconciler: classify.NewReconciler(local, opts.Logger),
		headerRow:  headerRow,
		dataRange:  rng,
	}
	a.refreshColumns()
	a.sections = section.NewEngine(g, rng, a.nameCol, opts.StatementType, local)
	return a, nil
}

// Run executes the full pipeline and returns a fresh snapshot. Safe to call
// repeatedly; bindings and ledger entries made since the last run are folded
// into the new result.
func (a *Analyzer) Run(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prevNameCol := a.nameCol
	a.refreshColumns()
	if a.sections == nil || prevNameCol != a.nameCol {
		// A role override moved the concept column; cascades rooted in the
		// old column no longer make sense.
		if a.sections != nil && len(a.sections.Bindings()) > 0 {
			a.logger.Warn("account column changed, dropping section bindings",
				"old", prevNameCol, "new", a.nameCol)
		}
		a.sections = section.NewEngine(a.g, a.dataRange, a.nameCol, a.opts.StatementType, a.local)
	}

	a.fingerprint = Fingerprint(a.g, a.dataRange, a.roles)

	cfg := structure.DefaultDetectorConfig()
	cfg.PeriodCols = a.periodCols
	cfg.ManualOverrides = a.ledger.RowTypes()
	a.structures = a.detector.DetectTotalRows(a.g, cfg, a.nameCol, a.dataRange.StartRow)
	a.excluded = cfg.ExcludeFromMapping

	a.parsePeriods()
	a.collectAccounts()

	aiData := a.aiClassify(ctx)
	a.assemble(aiData)

	a.analyzed = true
	snap := a.Snapshot()
	if a.opts.Cache != nil {
		a.opts.Cache.Put(a.fingerprint, snap)
	}
	return snap, nil
}

// BindSection cascades a category over the section rooted at headerRow and
// returns the binding. Requires a prior Run.
func (a *Analyzer) BindSection(headerRow int, categoryKey string, opts section.BindOptions) (*section.Binding, error) {
	if !a.analyzed {
		return nil, ErrNotAnalyzed
	}
	return a.sections.Bind(a.classifications, a.structures, headerRow, categoryKey, opts)
}

// UnbindSection revokes the binding rooted at headerRow.
func (a *Analyzer) UnbindSection(headerRow int) error {
	if !a.analyzed {
		return ErrNotAnalyzed
	}
	return a.sections.Unbind(a.classifications, headerRow)
}

// ApplyAIResponse merges an out-of-band classifier response into the current
// state. Responses carrying a stale fingerprint are rejected whole: the grid
// they describe is not the grid on screen.
func (a *Analyzer) ApplyAIResponse(fingerprint string, resp classify.Response) error {
	if !a.analyzed {
		return ErrNotAnalyzed
	}
	if fingerprint != a.fingerprint {
		return fmt.Errorf("got %.8s, want %.8s: %w", fingerprint, a.fingerprint, ErrStaleResponse)
	}
	if !resp.Success {
		a.logger.Warn("discarding failed AI response", "error", resp.Error)
		return nil
	}
	a.assemble(resp.Data)
	return nil
}

// Snapshot flattens the current state. Requires a prior Run; before that it
// returns nil.
func (a *Analyzer) Snapshot() *Snapshot {
	if !a.analyzed && a.classifications == nil {
		return nil
	}

	roles := make(map[int]grid.ColumnRole, len(a.roles))
	for col, role := range a.roles {
		roles[col] = role
	}

	classifications := make([]classify.AccountClassification, 0, len(a.classifications))
	for row := a.dataRange.StartRow; row <= a.dataRange.EndRow; row++ {
		if c, ok := a.classifications[row]; ok {
			classifications = append(classifications, c)
		}
	}

	var totals []int
	for _, rs := range a.structures {
		if rs.Type == structure.RowSectionTotal {
			totals = append(totals, rs.RowIndex)
		}
	}

	return &Snapshot{
		ID:                     uuid.New(),
		Fingerprint:            a.fingerprint,
		StatementType:          a.opts.StatementType,
		HeaderRow:              a.headerRow,
		DataRange:              a.dataRange,
		ColumnRoles:            roles,
		AccountNameCol:         a.nameCol,
		ColumnProfiles:         a.profiles,
		PeriodColumns:          a.periodColumns,
		NeedsYearContext:       a.needsYear,
		DetectedYear:           a.detectedYear,
		RowStructures:          a.structures,
		DetectedTotalRows:      totals,
		AccountClassifications: classifications,
		SectionBindings:        a.sections.Bindings(),
		AIDegraded:             a.aiDegraded,
	}
}

// Fingerprint returns the identity of the current input state. Valid after
// the first Run.
func (a *Analyzer) Fingerprint() string { return a.fingerprint }

// Ledger exposes the session's override ledger.
func (a *Analyzer) Ledger() *overrides.Ledger { return a.ledger }

func (a *Analyzer) refreshColumns() {
	a.profiles = buildColumnProfiles(a.g, a.headerRow, a.dataRange)
	a.roles, a.nameCol, a.periodCols = detectColumnRoles(
		a.g, a.headerRow, a.dataRange, a.opts.Locale, a.ledger.ColumnRoles(), a.ledger.PeriodLabels(), a.profiles)
}

func (a *Analyzer) parsePeriods() {
	labelOverrides := a.ledger.PeriodLabels()

	labels := make([]string, len(a.periodCols))
	for i, col := range a.periodCols {
		if label, ok := labelOverrides[col]; ok {
			labels[i] = label
		} else {
			labels[i] = a.g.At(a.headerRow, col).String()
		}
	}

	scan := period.ParseHeaders(labels, a.opts.Locale)
	a.detectedYear = scan.DetectedYear

	contextYear := a.opts.ContextYear
	if contextYear == 0 {
		contextYear = scan.DetectedYear
	}
	a.needsYear = scan.NeedsYearContext && contextYear == 0

	a.periodColumns = make([]PeriodColumn, len(a.periodCols))
	for i, col := range a.periodCols {
		a.periodColumns[i] = PeriodColumn{
			ColumnIndex: col,
			RawLabel:    labels[i],
			Parsed:      period.ParseHeader(labels[i], contextYear, a.opts.Locale),
		}
	}
}

func (a *Analyzer) collectAccounts() {
	a.accounts = a.accounts[:0]
	for row := a.dataRange.StartRow; row <= a.dataRange.EndRow; row++ {
		if a.excluded[row] {
			continue
		}
		name := strings.TrimSpace(a.g.At(row, a.nameCol).String())
		if name == "" {
			continue
		}
		a.accounts = append(a.accounts, classify.AccountRow{
			Name:        name,
			RowIndex:    row,
			SampleValue: a.sampleValue(row),
		})
	}
}

// sampleValue picks the first numeric cell of the row, period columns first.
func (a *Analyzer) sampleValue(row int) *float64 {
	for _, col := range a.periodCols {
		if v, ok := a.g.At(row, col).Float(); ok {
			return &v
		}
	}
	for col := a.dataRange.StartCol; col <= a.dataRange.EndCol; col++ {
		if col == a.nameCol {
			continue
		}
		if v, ok := a.g.At(row, col).Float(); ok {
			return &v
		}
	}
	return nil
}

// aiClassify returns the AI side of the reconciliation: cached results for an
// identical input when available, otherwise one batched classifier call under
// a hard timeout. Every failure mode degrades to nil, never to an error.
func (a *Analyzer) aiClassify(ctx context.Context) []classify.AccountClassification {
	a.aiDegraded = false

	if a.opts.Cache != nil {
		if snap, ok := a.opts.Cache.Get(a.fingerprint); ok && snap.Fingerprint == a.fingerprint {
			var cached []classify.AccountClassification
			for _, c := range snap.AccountClassifications {
				if c.Source == classify.SourceAI {
					cached = append(cached, c)
				}
			}
			if len(cached) > 0 {
				a.logger.Debug("reusing cached AI classifications", "count", len(cached))
				return cached
			}
		}
	}

	if a.opts.Classifier == nil || len(a.accounts) == 0 {
		return nil
	}

	req := a.buildRequest()
	cctx, cancel := context.WithTimeout(ctx, a.opts.AITimeout)
	defer cancel()

	resp, err := a.opts.Classifier.Classify(cctx, req)
	if err != nil {
		a.logger.Warn("AI classification failed, falling back to local rules", "error", err)
		a.aiDegraded = true
		return nil
	}
	if !resp.Success {
		a.logger.Warn("AI classification rejected, falling back to local rules", "error", resp.Error)
		a.aiDegraded = true
		return nil
	}
	return resp.Data
}

func (a *Analyzer) buildRequest() classify.Request {
	req := classify.Request{
		Fingerprint: a.fingerprint,
		DocumentContext: classify.DocumentContext{
			StatementType: a.opts.StatementType,
			Currency:      a.opts.Currency,
		},
		Accounts: make([]classify.AccountRequest, 0, len(a.accounts)),
	}

	for _, acc := range a.accounts {
		req.Accounts = append(req.Accounts, classify.AccountRequest{
			Name:        acc.Name,
			RowIndex:    acc.RowIndex,
			SampleValue: acc.SampleValue,
			ContextRows: a.contextWindow(acc.RowIndex),
		})
	}
	return req
}

// contextWindow gathers nearby row labels so the remote model sees each
// account in situ.
func (a *Analyzer) contextWindow(row int) []string {
	var window []string
	for r := row - a.opts.ContextRows; r <= row+a.opts.ContextRows; r++ {
		if r == row || !a.dataRange.ContainsRow(r) {
			continue
		}
		if label := strings.TrimSpace(a.g.At(r, a.nameCol).String()); label != "" {
			window = append(window, label)
		}
	}
	return window
}

// assemble rebuilds the classification map from an AI result set: reconcile
// with local fallback, overlay manual category overrides, then re-apply
// section cascades. Manual entries always end up on top.
func (a *Analyzer) assemble(aiData []classify.AccountClassification) {
	reconciled := a.reconciler.Reconcile(aiData, a.accounts, a.sections.Directions(),
		classify.Context{StatementType: a.opts.StatementType})

	a.classifications = make(map[int]classify.AccountClassification, len(reconciled))
	for _, c := range reconciled {
		a.classifications[c.RowIndex] = c
	}

	for _, acc := range a.accounts {
		entry, ok := a.ledger.RowCategory(acc.RowIndex)
		if !ok {
			continue
		}
		manual := classify.AccountClassification{
			AccountName: acc.Name,
			RowIndex:    acc.RowIndex,
			Category:    entry.Category,
			Confidence:  1,
			Reasoning:   "manual override",
			Source:      classify.SourceManual,
		}
		if entry.IsInflow != nil {
			manual.IsInflow = *entry.IsInflow
		}
		a.classifications[acc.RowIndex] = manual
	}

	for _, b := range a.sections.Bindings() {
		_, err := a.sections.Bind(a.classifications, a.structures, b.HeaderRowIndex, b.Category,
			section.BindOptions{UseSuggestions: b.UseSuggestions})
		if errors.Is(err, section.ErrNotHeader) {
			// The header was demoted since the binding was made.
			a.sections.HandleDemotion(a.classifications, b.HeaderRowIndex)
			a.logger.Warn("section header demoted, binding dropped", "row", b.HeaderRowIndex)
		} else if err != nil {
			a.logger.Warn("could not re-apply section binding", "row", b.HeaderRowIndex, "error", err)
		}
	}
}
