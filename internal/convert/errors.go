package convert

import (
	"errors"
	"fmt"
)

// UnterminatedTableError is returned when a CREATE TABLE block is never
// closed, either because the input ended or because another CREATE TABLE
// started inside it. Nothing of the open table has been written.
type UnterminatedTableError struct {
	Table string
	// OpenedAt is the input line of the CREATE TABLE statement.
	OpenedAt int
	// Line is the input line where the problem was detected.
	Line int
	// EOF reports whether the input ended inside the block.
	EOF bool
}

func (e *UnterminatedTableError) Error() string {
	if e.EOF {
		return fmt.Sprintf("table %q opened at line %d is not closed before end of input (line %d)", e.Table, e.OpenedAt, e.Line)
	}
	return fmt.Sprintf("table %q opened at line %d is not closed before the next CREATE TABLE at line %d", e.Table, e.OpenedAt, e.Line)
}

// UnsupportedCharsetError is returned when the configured input charset is
// not known or cannot be read line by line.
type UnsupportedCharsetError struct {
	Charset string
	Reason  string
}

func (e *UnsupportedCharsetError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported input charset: %q: %s", e.Charset, e.Reason)
	}
	return fmt.Sprintf("unsupported input charset: %q", e.Charset)
}

// ErrSessionUsed is returned when Run is called twice on one Session.
var ErrSessionUsed = errors.New("convert: session already used")

var (
	errNoIdentifier   = errors.New("no quoted identifier")
	errNoColumnList   = errors.New("no column list")
	errNotForeignKey  = errors.New("not a foreign key constraint")
	errNoInsertTarget = errors.New("no quoted table name after INSERT INTO")
	errEmptyKey       = errors.New("empty key definition")
)
