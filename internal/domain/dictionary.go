package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// MaxSampleValues caps how many distinct sample values a field carries.
const MaxSampleValues = 20

// RelationKind describes the cardinality of a table relation.
type RelationKind string

const (
	RelationOneToOne   RelationKind = "1:1"
	RelationOneToMany  RelationKind = "1:N"
	RelationManyToMany RelationKind = "N:M"
)

// Field is a single column entry in the field dictionary.
type Field struct {
	Name           string   `json:"fieldName"`
	DataType       string   `json:"dataType"`
	Description    string   `json:"description"`
	Nullable       bool     `json:"nullable"`
	PrimaryKey     bool     `json:"primaryKey"`
	SampleValues   []string `json:"valueRange,omitempty"`
	SourceSQLIndex int      `json:"sourceSqlId"`
	UserAdded      bool     `json:"isCustom"`
}

// Table groups the fields extracted for one table.
type Table struct {
	Name   string  `json:"tableName"`
	Fields []Field `json:"fields"`
}

// Relation is a join edge between two dictionary tables.
type Relation struct {
	FromTable string       `json:"fromTable"`
	FromField string       `json:"fromField"`
	ToTable   string       `json:"toTable"`
	ToField   string       `json:"toField"`
	JoinField string       `json:"joinField"`
	Kind      RelationKind `json:"relationType"`
}

// FieldDictionary is the grounding schema for all generation and repair
// calls. Generated SQL may only reference tables and fields listed here,
// with identical casing.
type FieldDictionary struct {
	Tables     []Table    `json:"tables"`
	Relations  []Relation `json:"relations"`
	IsComplete bool       `json:"isComplete"`
	Warnings   []string   `json:"warnings,omitempty"`
}

// Table returns the named table, or nil.
func (d *FieldDictionary) Table(name string) *Table {
	for i := range d.Tables {
		if d.Tables[i].Name == name {
			return &d.Tables[i]
		}
	}
	return nil
}

// HasField reports whether the named table contains the named field.
// Matching is case-sensitive: the dictionary stores identifiers verbatim.
func (d *FieldDictionary) HasField(table, field string) bool {
	t := d.Table(table)
	if t == nil {
		return false
	}
	for _, f := range t.Fields {
		if f.Name == field {
			return true
		}
	}
	return false
}

// Normalize deduplicates sample values and caps them at MaxSampleValues.
func (d *FieldDictionary) Normalize() {
	for ti := range d.Tables {
		for fi := range d.Tables[ti].Fields {
			f := &d.Tables[ti].Fields[fi]
			if len(f.SampleValues) == 0 {
				continue
			}
			seen := make(map[string]struct{}, len(f.SampleValues))
			out := f.SampleValues[:0]
			for _, v := range f.SampleValues {
				if _, dup := seen[v]; dup {
					continue
				}
				seen[v] = struct{}{}
				out = append(out, v)
				if len(out) == MaxSampleValues {
					break
				}
			}
			f.SampleValues = out
		}
	}
}

// Validate checks structural invariants: table names must be unique and
// every relation must reference tables present in the dictionary.
func (d *FieldDictionary) Validate() error {
	seen := make(map[string]struct{}, len(d.Tables))
	for _, t := range d.Tables {
		if t.Name == "" {
			return errors.New("dictionary contains a table with an empty name")
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("duplicate table name %q", t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	for _, rel := range d.Relations {
		if d.Table(rel.FromTable) == nil {
			return fmt.Errorf("relation references unknown table %q", rel.FromTable)
		}
		if d.Table(rel.ToTable) == nil {
			return fmt.Errorf("relation references unknown table %q", rel.ToTable)
		}
		switch rel.Kind {
		case RelationOneToOne, RelationOneToMany, RelationManyToMany:
		default:
			return fmt.Errorf("relation %s->%s has invalid kind %q", rel.FromTable, rel.ToTable, rel.Kind)
		}
	}
	return nil
}

// PruneInvalidRelations drops relations whose endpoints are missing from the
// dictionary and returns a warning per dropped relation. Tables and fields
// are never touched.
func (d *FieldDictionary) PruneInvalidRelations() []string {
	var warnings []string
	kept := d.Relations[:0]
	for _, rel := range d.Relations {
		if d.Table(rel.FromTable) == nil || d.Table(rel.ToTable) == nil {
			warnings = append(warnings,
				fmt.Sprintf("dropped relation %s.%s = %s.%s: table not in dictionary",
					rel.FromTable, rel.FromField, rel.ToTable, rel.ToField))
			continue
		}
		kept = append(kept, rel)
	}
	d.Relations = kept
	return warnings
}

// AddTable appends a user-defined table. Fails if the name is taken.
func (d *FieldDictionary) AddTable(name string) error {
	if d.Table(name) != nil {
		return fmt.Errorf("table %q already exists", name)
	}
	d.Tables = append(d.Tables, Table{Name: name})
	return nil
}

// RemoveTable deletes a table and every relation touching it.
func (d *FieldDictionary) RemoveTable(name string) error {
	idx := -1
	for i := range d.Tables {
		if d.Tables[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("table %q: %w", name, ErrNotFound)
	}
	d.Tables = append(d.Tables[:idx], d.Tables[idx+1:]...)
	kept := d.Relations[:0]
	for _, rel := range d.Relations {
		if rel.FromTable == name || rel.ToTable == name {
			continue
		}
		kept = append(kept, rel)
	}
	d.Relations = kept
	return nil
}

// RenameTable renames a table and rewrites relations referencing it.
func (d *FieldDictionary) RenameTable(oldName, newName string) error {
	if d.Table(newName) != nil {
		return fmt.Errorf("table %q already exists", newName)
	}
	t := d.Table(oldName)
	if t == nil {
		return fmt.Errorf("table %q: %w", oldName, ErrNotFound)
	}
	t.Name = newName
	for i := range d.Relations {
		if d.Relations[i].FromTable == oldName {
			d.Relations[i].FromTable = newName
		}
		if d.Relations[i].ToTable == oldName {
			d.Relations[i].ToTable = newName
		}
	}
	return nil
}

// AddField appends a user-defined field to a table.
func (d *FieldDictionary) AddField(table string, field Field) error {
	t := d.Table(table)
	if t == nil {
		return fmt.Errorf("table %q: %w", table, ErrNotFound)
	}
	for _, f := range t.Fields {
		if f.Name == field.Name {
			return fmt.Errorf("field %q already exists in table %q", field.Name, table)
		}
	}
	field.UserAdded = true
	t.Fields = append(t.Fields, field)
	return nil
}

// RemoveField deletes a field from a table.
func (d *FieldDictionary) RemoveField(table, field string) error {
	t := d.Table(table)
	if t == nil {
		return fmt.Errorf("table %q: %w", table, ErrNotFound)
	}
	for i := range t.Fields {
		if t.Fields[i].Name == field {
			t.Fields = append(t.Fields[:i], t.Fields[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("field %q: %w", field, ErrNotFound)
}

// RenameField renames a field within a table.
func (d *FieldDictionary) RenameField(table, oldName, newName string) error {
	t := d.Table(table)
	if t == nil {
		return fmt.Errorf("table %q: %w", table, ErrNotFound)
	}
	for i := range t.Fields {
		if t.Fields[i].Name == newName {
			return fmt.Errorf("field %q already exists in table %q", newName, table)
		}
	}
	for i := range t.Fields {
		if t.Fields[i].Name == oldName {
			t.Fields[i].Name = newName
			return nil
		}
	}
	return fmt.Errorf("field %q: %w", oldName, ErrNotFound)
}

// UnknownIdentifiers scans generated SQL for table and column references
// that are not present in the dictionary. It is a lexical check, not a SQL
// parse: table names are taken from FROM/JOIN clauses (tracking aliases) and
// column references from alias.column pairs. The result feeds warnings only;
// the SQL itself is never rewritten.
func (d *FieldDictionary) UnknownIdentifiers(sql string) []string {
	tokens := tokenizeSQL(sql)

	aliases := make(map[string]string) // alias -> table
	var unknown []string
	seen := make(map[string]struct{})
	report := func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		unknown = append(unknown, id)
	}

	for i := 0; i < len(tokens); i++ {
		upper := strings.ToUpper(tokens[i])
		if upper != "FROM" && upper != "JOIN" {
			continue
		}
		if i+1 >= len(tokens) || !isIdentifier(tokens[i+1]) {
			continue
		}
		table := tokens[i+1]
		if d.Table(table) == nil {
			report(table)
		} else {
			aliases[table] = table
		}
		// Optional alias: FROM users u / FROM users AS u
		j := i + 2
		if j < len(tokens) && strings.EqualFold(tokens[j], "AS") {
			j++
		}
		if j < len(tokens) && isIdentifier(tokens[j]) && !isKeyword(tokens[j]) {
			aliases[tokens[j]] = table
		}
	}

	for _, tok := range tokens {
		dot := strings.IndexByte(tok, '.')
		if dot <= 0 || dot == len(tok)-1 {
			continue
		}
		qualifier, column := tok[:dot], tok[dot+1:]
		if column == "*" || !isIdentifier(qualifier) || !isIdentifier(column) {
			continue
		}
		table, ok := aliases[qualifier]
		if !ok {
			if d.Table(qualifier) == nil {
				// Qualifier is neither a known alias nor a dictionary table.
				report(qualifier)
				continue
			}
			table = qualifier
		}
		if !d.HasField(table, column) {
			report(column)
		}
	}

	return unknown
}

func tokenizeSQL(sql string) []string {
	var tokens []string
	var b strings.Builder
	inString := false
	for _, r := range sql {
		switch {
		case r == '\'':
			inString = !inString
			if b.Len() > 0 {
				tokens = append(tokens, b.String())
				b.Reset()
			}
		case inString:
			// String literal contents are not identifiers.
		case r == '_' || r == '.' || r == '*' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			if b.Len() > 0 {
				tokens = append(tokens, b.String())
				b.Reset()
			}
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

var sqlKeywords = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "JOIN": {}, "LEFT": {}, "RIGHT": {}, "INNER": {},
	"OUTER": {}, "CROSS": {}, "ON": {}, "WHERE": {}, "GROUP": {}, "BY": {},
	"HAVING": {}, "ORDER": {}, "LIMIT": {}, "OFFSET": {}, "AS": {}, "AND": {},
	"OR": {}, "NOT": {}, "IN": {}, "IS": {}, "NULL": {}, "UNION": {}, "WITH": {},
	"DISTINCT": {}, "CASE": {}, "WHEN": {}, "THEN": {}, "ELSE": {}, "END": {},
}

func isKeyword(s string) bool {
	_, ok := sqlKeywords[strings.ToUpper(s)]
	return ok
}
