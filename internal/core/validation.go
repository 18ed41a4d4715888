package core

import (
	"errors"
	"fmt"
	"strings"
)

// MaxIdentifierLength is the longest identifier PostgreSQL stores. Longer
// names are silently truncated, which can make two names collide.
const MaxIdentifierLength = 63

// ValidationError represents a problem PostgreSQL would reject or silently
// change when loading a converted definition.
type ValidationError struct {
	Entity  string
	Name    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s %q field %q: %s", e.Entity, e.Name, e.Field, e.Message)
	}
	return fmt.Sprintf("validation error in %s %q: %s", e.Entity, e.Name, e.Message)
}

// Validate checks the table for definitions that will not load as written.
// Every problem is reported, joined with errors.Join.
func (t *Table) Validate() error {
	if t == nil {
		return &ValidationError{Entity: "table", Message: "table is nil"}
	}
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Entity: "table", Name: "(empty)", Message: "table name is empty"}
	}

	var errs []error
	if err := validateIdentifier("table", t.Name); err != nil {
		errs = append(errs, err)
	}
	if len(t.Columns) == 0 {
		errs = append(errs, &ValidationError{Entity: "table", Name: t.Name, Message: "table has no columns"})
	}

	seenCols := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		lower := strings.ToLower(c.Name)
		if seenCols[lower] {
			errs = append(errs, &ValidationError{Entity: "table", Name: t.Name, Field: c.Name, Message: "duplicate column name"})
			continue
		}
		seenCols[lower] = true

		if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("table %q: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks a single column definition.
func (c *Column) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Entity: "column", Name: "(empty)", Message: "column name is empty"}
	}
	if err := validateIdentifier("column", c.Name); err != nil {
		return err
	}
	if strings.TrimSpace(c.Type) == "" {
		return &ValidationError{Entity: "column", Name: c.Name, Field: "type", Message: "column type is empty"}
	}
	return nil
}

// Validate checks an enum type before its CREATE TYPE is written.
func (e *EnumType) Validate() error {
	var errs []error
	if err := validateIdentifier("enum", e.Name); err != nil {
		errs = append(errs, err)
	}
	if len(e.Values) == 0 {
		errs = append(errs, &ValidationError{Entity: "enum", Name: e.Name, Field: "values", Message: "enum has no values"})
	}
	seen := make(map[string]bool, len(e.Values))
	for _, v := range e.Values {
		// Labels are case sensitive in PostgreSQL.
		if seen[v] {
			errs = append(errs, &ValidationError{Entity: "enum", Name: e.Name, Field: "values", Message: fmt.Sprintf("duplicate value %q", v)})
			continue
		}
		seen[v] = true
		if len(v) > MaxIdentifierLength {
			errs = append(errs, &ValidationError{Entity: "enum", Name: e.Name, Field: "values", Message: fmt.Sprintf("value %q is longer than %d bytes", v, MaxIdentifierLength)})
		}
	}
	return errors.Join(errs...)
}

func validateIdentifier(entity, name string) error {
	if len(name) > MaxIdentifierLength {
		return &ValidationError{
			Entity:  entity,
			Name:    name,
			Message: fmt.Sprintf("name is longer than %d bytes and will be truncated", MaxIdentifierLength),
		}
	}
	return nil
}
