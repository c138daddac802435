package prompt

import (
	"fmt"

	"github.com/sqlscribe/sqlscribe/internal/domain"
)

const repairRules = `You are a SQL repair expert. A previously generated query failed at
execution time. Diagnose the database error against the field dictionary and
fix the query.

## Hard constraints (highest priority)

1. Use only field names explicitly listed in the dictionary. Never invent a
   plausible-looking rename (for example, never turn dt into lower_dt or
   upper_dt).
2. Fix only what the error requires: replace wrong identifiers with
   dictionary-valid ones and correct syntax. Do not change the intent of
   the query.
3. Every identifier in the repaired SQL must exist verbatim in the
   dictionary.

## Field dictionary

%s

## Original request

%s

## Failing SQL

%s

## Database error

%s

## Output

Respond with exactly one single-line JSON object in a fenced block:

` + "```json" + `
{"sql": "repaired SQL", "explanation": "what was fixed", "isValid": true, "warnings": []}
` + "```" + `

If the error cannot be fixed from this dictionary (a required table or field
simply is not there), set sql to null, explain precisely why in explanation,
and put concrete suggestions in warnings. The JSON must stay on one line,
with no text outside the fenced block.`

// BuildRepairPrompt assembles the SQL-repair prompt from the original goal,
// the failing SQL, the verbatim runtime error and the grounding dictionary.
func BuildRepairPrompt(goal, failingSQL, errorText string, dict *domain.FieldDictionary) string {
	return fmt.Sprintf(repairRules, FormatDictionary(dict), goal, failingSQL, errorText)
}
