// Package prompt assembles task-specific instructions and grounding data
// into single prompt strings. Every builder is a pure function: no I/O, no
// randomness, identical inputs produce identical output.
package prompt

import (
	"fmt"
	"strings"

	"github.com/sqlscribe/sqlscribe/internal/domain"
)

const dictionaryRules = `You are a database expert. Analyze the SQL code and CSV file
information below and produce a complete field dictionary.

## Extraction principles (highest priority, strictly enforced)

1. Tables: extract ONLY tables explicitly defined via CREATE TABLE or
   referenced via SELECT ... FROM in the SQL. Never invent a table name and
   never infer tables from business context.
2. Fields: extract ONLY fields explicitly defined in the SQL. Field names
   must match the SQL exactly, including casing and underscores. Never add
   fields the SQL does not contain.
3. Relations: extract ONLY joins spelled out in JOIN ... ON conditions,
   FOREIGN KEY constraints, or explicit WHERE equalities between tables.
   Never guess a relation from field-name similarity or business intuition.
   If the SQL defines no relations, return an empty relations array.
4. If a field's meaning is unclear, set its description to
   "needs user input" instead of guessing.
5. nullable and primaryKey must be read from the SQL definitions, not
   guessed: without NOT NULL, nullable is true; without PRIMARY KEY, the
   flag is false. isCustom is always false.
6. valueRange is taken from the CSV data only: up to 20 distinct values per
   column, or an empty array when no CSV covers the field.

## Input

### SQL segments with purpose descriptions:
%s

### CSV files:
%s

## Output

Respond with exactly one JSON object inside a fenced code block, matching:

` + "```json" + `
{"tables":[{"tableName":"...","fields":[{"fieldName":"...","dataType":"...","description":"...","nullable":true,"primaryKey":false,"valueRange":[],"sourceSqlId":0,"isCustom":false}]}],"relations":[{"fromTable":"...","fromField":"...","toTable":"...","toField":"...","joinField":"...","relationType":"1:N"}],"isComplete":true,"warnings":[]}
` + "```" + `

Set isComplete to true only when every table, field and relation could be
extracted without ambiguity. Record anything uncertain in warnings. The JSON
must parse directly; add no text outside the fenced block.`

// BuildDictionaryPrompt assembles the dictionary-extraction prompt from raw
// SQL segments and CSV summaries.
func BuildDictionaryPrompt(segments []domain.SQLSegment, csvFiles []domain.CSVSummary) string {
	var sqlText strings.Builder
	for i, seg := range segments {
		if i > 0 {
			sqlText.WriteString("\n\n---\n\n")
		}
		desc := seg.Description
		if desc == "" {
			desc = "(none)"
		}
		fmt.Fprintf(&sqlText, "### SQL segment %d\n\nPurpose: %s\n\n```sql\n%s\n```", i+1, desc, seg.Code)
	}
	if sqlText.Len() == 0 {
		sqlText.WriteString("(none)")
	}

	var csvText strings.Builder
	for i, f := range csvFiles {
		if i > 0 {
			csvText.WriteString("\n\n")
		}
		fmt.Fprintf(&csvText, "### CSV file %d: %s\nRows: %d\nColumns:", i+1, f.Name, f.RowCount)
		for _, col := range f.Columns {
			fmt.Fprintf(&csvText, "\n- %s", col.Name)
			if col.DataType != "" {
				fmt.Fprintf(&csvText, " (%s)", col.DataType)
			}
			if len(col.SampleValues) > 0 {
				fmt.Fprintf(&csvText, ": %s", strings.Join(col.SampleValues, ", "))
			}
		}
	}
	if csvText.Len() == 0 {
		csvText.WriteString("(none)")
	}

	return fmt.Sprintf(dictionaryRules, sqlText.String(), csvText.String())
}
