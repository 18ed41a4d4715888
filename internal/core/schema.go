// Package core contains the schema model the converter builds while it walks a
// dump: the table whose definition is open, its columns, and the enum types
// synthesized for MySQL ENUM and SET columns.
package core

import (
	"strings"
)

// Table is a table whose CREATE TABLE block is being collected.
type Table struct {
	Name    string
	Columns []*Column

	// definitions holds every rendered line of the table body in source
	// order, columns and table-level clauses interleaved.
	definitions []string
}

// NewTable returns an empty table named name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumn appends a column definition to the table body.
func (t *Table) AddColumn(c *Column) {
	t.Columns = append(t.Columns, c)
	t.definitions = append(t.definitions, c.Definition())
}

// AddClause appends a table-level clause such as PRIMARY KEY or UNIQUE.
func (t *Table) AddClause(clause string) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return
	}
	t.definitions = append(t.definitions, clause)
}

// Definitions returns the body lines of the table in the order they were added.
func (t *Table) Definitions() []string {
	return t.definitions
}

// FindColumn returns the column with the given name, or nil.
func (t *Table) FindColumn(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Column is one column definition inside a CREATE TABLE block.
type Column struct {
	Name string
	// Type is the PostgreSQL type after mapping.
	Type string
	// Extra holds the remaining column attributes (NOT NULL, DEFAULT ...).
	Extra string
	// Comment is the quoted comment literal including its quotes, if any.
	Comment string
}

// Definition renders the column as a line of a CREATE TABLE body.
func (c *Column) Definition() string {
	var sb strings.Builder
	sb.WriteString(QuoteIdent(c.Name))
	if c.Type != "" {
		sb.WriteByte(' ')
		sb.WriteString(c.Type)
	}
	if c.Extra != "" {
		sb.WriteByte(' ')
		sb.WriteString(c.Extra)
	}
	return sb.String()
}

// QuoteIdent wraps name in double quotes, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral wraps s in single quotes, doubling embedded quotes.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
