package convert

import (
	"strings"
)

// LineKind is the category of a normalized dump line.
type LineKind int

const (
	LineIgnorable LineKind = iota
	LineDropTable
	LineCreateTable
	LineInsert
	LineColumn
	LinePrimaryKey
	LineForeignKey
	LineUniqueKey
	LineFulltextKey
	LinePlainKey
	LineTableClose
	LineUnrecognized
)

var lineKindNames = map[LineKind]string{
	LineIgnorable:    "ignorable",
	LineDropTable:    "drop-table",
	LineCreateTable:  "create-table",
	LineInsert:       "insert",
	LineColumn:       "column",
	LinePrimaryKey:   "primary-key",
	LineForeignKey:   "foreign-key",
	LineUniqueKey:    "unique-key",
	LineFulltextKey:  "fulltext-key",
	LinePlainKey:     "key",
	LineTableClose:   "table-close",
	LineUnrecognized: "unrecognized",
}

func (k LineKind) String() string {
	if name, ok := lineKindNames[k]; ok {
		return name
	}
	return "unknown"
}

var ignorablePrefixes = []string{"--", "/*", "SET", "LOCK TABLES", "UNLOCK TABLES"}

// IsIgnorable reports whether line carries no content for the output:
// blank lines, comments, session SET statements and table locks.
func IsIgnorable(line string) bool {
	if line == "" {
		return true
	}
	for _, p := range ignorablePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// Classify returns the kind of a normalized line. inTable selects the rules
// for lines inside a CREATE TABLE block. A CREATE TABLE seen inside a block
// is still reported as LineCreateTable so the caller can reject it.
func Classify(line string, inTable bool) LineKind {
	if IsIgnorable(line) {
		return LineIgnorable
	}
	if strings.HasPrefix(line, "CREATE TABLE") {
		return LineCreateTable
	}

	if !inTable {
		switch {
		case strings.HasPrefix(line, "DROP TABLE"):
			return LineDropTable
		case strings.HasPrefix(line, "INSERT INTO"):
			return LineInsert
		default:
			return LineUnrecognized
		}
	}

	switch {
	case strings.HasPrefix(line, `"`):
		return LineColumn
	case strings.HasPrefix(line, "PRIMARY KEY"):
		return LinePrimaryKey
	case strings.HasPrefix(line, "CONSTRAINT"):
		return LineForeignKey
	case strings.HasPrefix(line, "UNIQUE KEY"):
		return LineUniqueKey
	case strings.HasPrefix(line, "FULLTEXT KEY"):
		return LineFulltextKey
	case strings.HasPrefix(line, "KEY"):
		return LinePlainKey
	case line == ");":
		return LineTableClose
	default:
		return LineUnrecognized
	}
}
