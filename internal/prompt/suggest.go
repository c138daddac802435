package prompt

import (
	"fmt"
	"strings"

	"github.com/sqlscribe/sqlscribe/internal/domain"
)

// SuggestionCategories are the ten analysis types a suggestion may carry.
var SuggestionCategories = []string{
	"basic query",
	"aggregation",
	"trend analysis",
	"top-N ranking",
	"comparison",
	"anomaly detection",
	"join analysis",
	"funnel analysis",
	"user profiling",
	"data quality",
}

const suggestionRules = `You are a data analyst. Based on the field dictionary below,
propose 10 practical, business-valuable query scenarios.

## Field dictionary

%s

## Task

Infer the business entities from table names, the business flows from the
relations, and the analysis dimensions from the fields (time, amount,
quantity, status). Then generate 10 diverse suggestions covering as many of
these categories as the schema supports: %s.

Every suggestion must be answerable from the dictionary alone. Do not
propose queries that need tables or fields the dictionary lacks. The query
field must be phrased as a natural-language request a user would type, not
as SQL.

## Output

Respond with exactly one single-line JSON object in a fenced block:

` + "```json" + `
{"suggestions": [{"id": 1, "title": "short label", "description": "what business question this answers", "query": "natural-language request", "category": "one of the categories", "tables": ["t1"], "businessValue": "why it matters"}], "summary": "what business scenarios these tables support overall"}
` + "```" + `

Keep the JSON on one line with no text outside the fenced block.`

// BuildSuggestionPrompt assembles the query-suggestion prompt from the
// dictionary alone.
func BuildSuggestionPrompt(dict *domain.FieldDictionary) string {
	return fmt.Sprintf(suggestionRules, FormatDictionary(dict), strings.Join(SuggestionCategories, ", "))
}
