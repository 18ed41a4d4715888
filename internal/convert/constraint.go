package convert

import (
	"regexp"
	"strings"
)

// prefixLengthRe matches an index prefix length such as "email"(191).
var prefixLengthRe = regexp.MustCompile(`"\s*\(\d+\)`)

// parsePrimaryKey returns the PRIMARY KEY clause with lower-cased column names.
func parsePrimaryKey(line string) (string, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(trimClause(line), "PRIMARY KEY"))
	if rest == "" {
		return "", errEmptyKey
	}
	return "PRIMARY KEY " + strings.ToLower(rest), nil
}

// foreignKey is a CONSTRAINT ... FOREIGN KEY ... REFERENCES ... line.
type foreignKey struct {
	// Definition is the text after CONSTRAINT, lower-cased.
	Definition string
	// Columns is the referencing column list including its parentheses,
	// lower-cased.
	Columns string
}

func parseForeignKey(line string) (foreignKey, error) {
	body := strings.TrimSpace(strings.TrimPrefix(trimClause(line), "CONSTRAINT"))
	fk := strings.Index(body, "FOREIGN KEY")
	if fk < 0 {
		return foreignKey{}, errNotForeignKey
	}
	ref := strings.Index(body[fk:], "REFERENCES")
	if ref < 0 {
		return foreignKey{}, errNotForeignKey
	}
	cols := strings.TrimSpace(body[fk+len("FOREIGN KEY") : fk+ref])
	if cols == "" {
		return foreignKey{}, errNoColumnList
	}
	return foreignKey{
		Definition: strings.ToLower(body),
		Columns:    strings.ToLower(cols),
	}, nil
}

// parseUniqueKey turns UNIQUE KEY "name" ("a","b") into UNIQUE ("a","b").
func parseUniqueKey(line string) (string, error) {
	cols, err := keyColumns(line)
	if err != nil {
		return "", err
	}
	return "UNIQUE (" + strings.Join(cols, ",") + ")", nil
}

// parseFulltextKey returns the bare, lower-cased column names of a
// FULLTEXT KEY line.
func parseFulltextKey(line string) ([]string, error) {
	cols, err := keyColumns(line)
	if err != nil {
		return nil, err
	}
	for i, c := range cols {
		cols[i] = strings.Trim(c, `"`)
	}
	return cols, nil
}

// keyColumns returns the lower-cased, still quoted column names of the
// first parenthesized list in line. Index prefix lengths are dropped.
func keyColumns(line string) ([]string, error) {
	list, ok := firstGroup(line)
	if !ok {
		return nil, errNoColumnList
	}
	list = prefixLengthRe.ReplaceAllString(list, `"`)

	var cols []string
	for _, c := range strings.Split(list, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, strings.ToLower(c))
		}
	}
	if len(cols) == 0 {
		return nil, errNoColumnList
	}
	return cols, nil
}

// firstGroup returns the content of the first balanced parenthesized group,
// ignoring parentheses inside quoted identifiers.
func firstGroup(s string) (string, bool) {
	start := -1
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case c == ')':
			if depth == 0 {
				return "", false
			}
			depth--
			if depth == 0 {
				return s[start:i], true
			}
		}
	}
	return "", false
}

func trimClause(line string) string {
	return strings.TrimSuffix(strings.TrimSpace(line), ",")
}
