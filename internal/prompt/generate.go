package prompt

import (
	"fmt"
	"strings"

	"github.com/sqlscribe/sqlscribe/internal/domain"
)

const generationRules = `You are a SQL query expert. Generate a SQL query for the user's
request using the field dictionary below as the ONLY available data source.

## Hard constraints (violating any of them makes the SQL fail)

1. Use only tables explicitly listed in the dictionary. Never guess a table
   that might exist, and never use a subquery to stand in for a missing
   table.
2. Use only fields listed under each table, spelled exactly as listed. No
   variants, abbreviations, prefixes or suffixes. Never use SELECT *.
3. Join tables only along relations defined in the dictionary. Never invent
   a JOIN condition from field-name similarity.
4. The SQL must be directly executable: consistent aliases, proper NULL
   handling, no trailing semicolon, no vendor-specific dialect features
   unless the request demands them.

## Field dictionary (the only available data source)

%s

## User request

%s

## Procedure

First check feasibility: identify the tables, fields and relations the
request needs and verify each one exists in the dictionary. If anything is
missing, set sql to null and use explanation to name exactly what is missing
and to list the tables and fields that ARE available, with concrete
suggestions in warnings. Only when everything is available, build the query.

## Output

Respond with exactly one single-line JSON object in a fenced block:

` + "```json" + `
{"sql": "SELECT ...", "explanation": "...", "isValid": true, "warnings": []}
` + "```" + `

The whole JSON, including the SQL string, must stay on one line. When the
request cannot be satisfied: {"sql": null, "explanation": "what is missing
and what is available", "isValid": false, "warnings": ["specific gaps",
"improvement suggestions"]}. Never pad the request with tables or fields
from outside the dictionary, and add no text outside the fenced block.`

// BuildGenerationPrompt assembles the SQL-generation prompt from the user's
// natural-language goal and the grounding dictionary.
func BuildGenerationPrompt(goal string, dict *domain.FieldDictionary) string {
	return fmt.Sprintf(generationRules, FormatDictionary(dict), goal)
}

// FormatDictionary flattens a dictionary into the table/field/relation
// bullet lists embedded in generation, repair and suggestion prompts.
func FormatDictionary(dict *domain.FieldDictionary) string {
	var b strings.Builder
	b.WriteString("### Tables and fields:\n")
	for _, t := range dict.Tables {
		fmt.Fprintf(&b, "\n#### %s\n", t.Name)
		for _, f := range t.Fields {
			fmt.Fprintf(&b, "- %s (%s): %s\n", f.Name, f.DataType, f.Description)
		}
	}
	b.WriteString("\n### Relations:\n")
	if len(dict.Relations) == 0 {
		b.WriteString("(none: no joins are permitted)\n")
	}
	for _, rel := range dict.Relations {
		fmt.Fprintf(&b, "- %s.%s = %s.%s (%s)\n", rel.FromTable, rel.FromField, rel.ToTable, rel.ToField, rel.Kind)
	}
	return b.String()
}
