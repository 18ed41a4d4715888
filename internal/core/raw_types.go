package core

import (
	"strings"
)

type matchKind int

const (
	matchExact matchKind = iota
	matchPrefix
	matchSuffix
)

// typeRule maps MySQL type tokens matching pattern to a PostgreSQL type.
// Patterns are lower case and compared against the lower-cased token.
type typeRule struct {
	pattern  string
	match    matchKind
	target   string
	sequence bool
}

func (r typeRule) matches(token string) bool {
	switch r.match {
	case matchPrefix:
		return strings.HasPrefix(token, r.pattern)
	case matchSuffix:
		return strings.HasSuffix(token, r.pattern)
	default:
		return token == r.pattern
	}
}

// mysqlToPostgres is evaluated in order; the first matching rule wins.
// Integer and fixed-point types carry a display width in dumps, so their
// rules require the opening parenthesis.
var mysqlToPostgres = []typeRule{
	// Integers
	{"tinyint(", matchPrefix, "smallint", true},
	{"smallint(", matchPrefix, "smallint", true},
	{"mediumint(", matchPrefix, "smallint", true},
	{"int(", matchPrefix, "integer", true},
	{"bigint(", matchPrefix, "bigint", true},

	// Text
	{"tinytext", matchExact, "text", false},
	{"mediumtext", matchExact, "text", false},
	{"longtext", matchExact, "text", false},
	{"varchar(", matchPrefix, "text", false},

	// Date / Time
	{"datetime", matchExact, "timestamp with time zone", false},

	// Floating point
	{"double(", matchPrefix, "numeric", true},
	{"double", matchExact, "double precision", false},
	{"float(", matchPrefix, "numeric", true},

	// Binary
	{"varbinary", matchPrefix, "bytea", false},
	{"blob", matchSuffix, "bytea", false},
}

// MapType translates a MySQL column type token into its PostgreSQL
// equivalent. The second result reports whether a column of this type named
// "id" needs a sequence. Tokens without a rule are returned unchanged.
// ENUM and SET tokens are not handled here; see ParseEnum.
func MapType(token string) (string, bool) {
	token = strings.TrimSpace(token)
	lower := strings.ToLower(token)
	for _, r := range mysqlToPostgres {
		if r.matches(lower) {
			return r.target, r.sequence
		}
	}
	return token, false
}

// IsEnumType reports whether token is a MySQL enum(...) or set(...) type.
func IsEnumType(token string) bool {
	lower := strings.ToLower(strings.TrimSpace(token))
	return strings.HasPrefix(lower, "enum(") || strings.HasPrefix(lower, "set(")
}

// ParseEnum extracts the member values of an enum(...) or set(...) token.
// Values are returned unquoted with doubled quotes collapsed. The second
// result is false when token is not an enum or set type.
func ParseEnum(token string) ([]string, bool) {
	token = strings.TrimSpace(token)
	if !IsEnumType(token) || !strings.HasSuffix(token, ")") {
		return nil, false
	}
	open := strings.IndexByte(token, '(')
	inner := token[open+1 : len(token)-1]

	values, ok := splitQuotedList(inner)
	if !ok {
		// Fall back to a plain comma split for lists we cannot tokenize.
		values = values[:0]
		for _, v := range strings.Split(inner, ",") {
			values = append(values, strings.Trim(strings.TrimSpace(v), "'"))
		}
	}
	return values, true
}

// splitQuotedList splits a list of single-quoted SQL literals separated by
// commas, such as 'a','b c','it''s'.
func splitQuotedList(s string) ([]string, bool) {
	var values []string
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == ',') {
			i++
		}
		if i == len(s) {
			break
		}
		if s[i] != '\'' {
			return values, false
		}
		i++

		var sb strings.Builder
		closed := false
		for i < len(s) {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					sb.WriteByte('\'')
					i += 2
					continue
				}
				i++
				closed = true
				break
			}
			sb.WriteByte(s[i])
			i++
		}
		if !closed {
			return values, false
		}
		values = append(values, sb.String())
	}
	return values, true
}

// EnumType is a PostgreSQL enumerated type synthesized from a MySQL
// ENUM or SET column.
type EnumType struct {
	Name   string
	Values []string
}

// NewEnumType builds the enum type for column of table. Type names are
// derived as <table>_<column>.
func NewEnumType(table, column string, values []string) *EnumType {
	return &EnumType{
		Name:   EnumTypeName(table, column),
		Values: values,
	}
}

// EnumTypeName returns the type name used for an enum column.
func EnumTypeName(table, column string) string {
	return table + "_" + column
}

// CreateStatement renders the CREATE TYPE statement for the enum.
func (e *EnumType) CreateStatement() string {
	quoted := make([]string, len(e.Values))
	for i, v := range e.Values {
		quoted[i] = QuoteLiteral(v)
	}
	return "CREATE TYPE " + e.Name + " AS ENUM (" + strings.Join(quoted, ",") + ");"
}
