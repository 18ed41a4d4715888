package convert

import (
	"regexp"
	"strings"
)

var insertRe = regexp.MustCompile(`^INSERT INTO "([^"]+)"\s*`)

// insertLine is an INSERT statement with its target table split out.
type insertLine struct {
	Table string
	// Rest is everything after the table name: an optional column list and
	// the VALUES clause.
	Rest string
}

func parseInsert(line string) (insertLine, error) {
	m := insertRe.FindStringSubmatchIndex(line)
	if m == nil {
		return insertLine{}, errNoInsertTarget
	}
	return insertLine{
		Table: line[m[2]:m[3]],
		Rest:  line[m[1]:],
	}, nil
}

// String renders the statement with an unquoted, lower-cased table name,
// which PostgreSQL folds the same way as the created table.
func (i insertLine) String() string {
	return "INSERT INTO " + strings.ToLower(i.Table) + " " + i.Rest
}
