package classify

import (
	"context"

	"github.com/google/uuid"
)

// Source records which classifier produced an AccountClassification.
type Source string

const (
	SourceLocal  Source = "local"
	SourceAI     Source = "ai"
	SourceManual Source = "manual"
)

// AccountClassification is the per-row classification result. RowIndex is the
// primary key: two rows may share an account label, so AccountName is a
// secondary, non-unique attribute.
type AccountClassification struct {
	AccountName           string     `json:"account_name"`
	RowIndex              int        `json:"row_index"`
	Category              string     `json:"category"`
	IsInflow              bool       `json:"is_inflow"`
	Confidence            float64    `json:"confidence"`
	Reasoning             string     `json:"reasoning"`
	AlternativeCategories []string   `json:"alternative_categories,omitempty"`
	Source                Source     `json:"source"`
	ValidationCorrections int        `json:"validation_corrections"`
	SectionID             *uuid.UUID `json:"section_id,omitempty"`
	IsSectionLabel        bool       `json:"is_section_label,omitempty"`
}

// AccountRequest is one account row in a batched AI request. ContextRows is a
// small window of surrounding row labels that helps the remote model place
// the account.
type AccountRequest struct {
	Name        string   `json:"name"`
	RowIndex    int      `json:"row_index"`
	SampleValue *float64 `json:"sample_value,omitempty"`
	ContextRows []string `json:"context_rows,omitempty"`
}

// DocumentContext describes the statement the accounts came from.
type DocumentContext struct {
	StatementType StatementType `json:"statement_type"`
	Currency      string        `json:"currency"`
}

// Request is the single batched request sent per analysis run. Fingerprint
// identifies the grid state the request was built from; callers must discard
// a response whose request fingerprint no longer matches the current state.
type Request struct {
	Accounts        []AccountRequest `json:"accounts"`
	DocumentContext DocumentContext  `json:"document_context"`
	Fingerprint     string           `json:"fingerprint"`
}

// Response is the AI classifier's answer. Partial coverage is allowed; the
// reconciler fills the gaps locally. Success=false, transport errors, and
// partial coverage all degrade identically.
type Response struct {
	Success bool                    `json:"success"`
	Data    []AccountClassification `json:"data"`
	Error   string                  `json:"error,omitempty"`
}

// Classifier is the remote AI-assisted classifier boundary. Implementations
// are external; the engine only depends on this contract.
type Classifier interface {
	Classify(ctx context.Context, req Request) (Response, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, req Request) (Response, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
