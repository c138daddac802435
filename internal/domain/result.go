package domain

// ProviderConfig identifies the LLM provider and credentials for one call.
// It is a stateless value object passed per request; the API key is a secret
// and must never be logged in full or persisted alongside results.
type ProviderConfig struct {
	Provider string `json:"provider" validate:"required"`
	APIKey   string `json:"apiKey,omitempty"`
	Model    string `json:"model,omitempty"`
}

// SQLSegment is one raw SQL definition snippet supplied by the user,
// with an optional description of what the SQL is used for.
type SQLSegment struct {
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
}

// CSVColumn summarizes one column of an uploaded CSV file.
type CSVColumn struct {
	Name         string   `json:"name"`
	DataType     string   `json:"type,omitempty"` // string|number|date|boolean
	SampleValues []string `json:"sampleValues,omitempty"`
}

// CSVSummary summarizes an uploaded CSV file for the dictionary prompt.
type CSVSummary struct {
	Name     string      `json:"name" validate:"required"`
	RowCount int         `json:"rowCount"`
	Columns  []CSVColumn `json:"columns"`
}

// GenerationResult is the outcome of one SQL generation call.
//
// SQL == nil is a first-class, successful outcome: the request cannot be
// satisfied from the current dictionary. It is not an error and must not be
// treated as one.
type GenerationResult struct {
	SQL         *string  `json:"sql"`
	Explanation string   `json:"explanation"`
	IsValid     bool     `json:"isValid"`
	Warnings    []string `json:"warnings"`
}

// Infeasible reports whether the model declined to produce SQL.
func (r *GenerationResult) Infeasible() bool {
	return r.SQL == nil
}

// RepairResult is the outcome of one SQL repair call. WasFixed is false when
// the model could not produce a corrected query; the caller keeps showing
// the original SQL in that case.
type RepairResult struct {
	GenerationResult
	WasFixed bool `json:"wasFixed"`
}

// Suggestion is one schema-grounded query idea.
type Suggestion struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Query         string   `json:"query"`
	Category      string   `json:"category"`
	Tables        []string `json:"tables"`
	BusinessValue string   `json:"businessValue"`
}

// SuggestionSet is the full suggestion response for a dictionary.
type SuggestionSet struct {
	Suggestions []Suggestion `json:"suggestions"`
	Summary     string       `json:"summary"`
}
