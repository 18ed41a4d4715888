package convert

import (
	"regexp"
	"strings"
)

// columnLine is a column definition split into its parts, before type mapping.
type columnLine struct {
	Name    string
	Type    string
	Extra   string
	Comment string
	// Malformed is set when the type token has unbalanced parentheses or
	// quotes; Type then holds the whole remainder and Extra is empty.
	Malformed bool
}

var (
	literalRe      = regexp.MustCompile(`'(?:[^']|'')*'`)
	commentKeyRe   = regexp.MustCompile(`(?i)\bCOMMENT\s+$`)
	charsetRe      = regexp.MustCompile(`(?i)\bCHARACTER SET\s+\w+`)
	collateRe      = regexp.MustCompile(`(?i)\bCOLLATE\s+\w+`)
	mysqlOnlyAttrs = regexp.MustCompile(`(?i)\b(?:unsigned|zerofill|auto_increment)\b`)
	spaceRunRe     = regexp.MustCompile(`\s+`)
)

// parseColumn splits a line such as
//
//	"name" varchar(255) NOT NULL DEFAULT 'x' COMMENT 'login',
//
// into name, raw type token, remaining attributes and comment literal.
func parseColumn(line string) (columnLine, error) {
	line = strings.TrimSuffix(strings.TrimSpace(line), ",")
	name, rest, err := quotedIdentifier(line)
	if err != nil {
		return columnLine{}, err
	}
	col := columnLine{Name: name}

	rest = strings.TrimSpace(rest)
	typ, extra, ok := splitTypeToken(rest)
	if !ok {
		col.Type = rest
		col.Malformed = true
		return col, nil
	}
	col.Type = typ

	col.Comment, extra = extractComment(extra)
	col.Extra = cleanAttributes(extra)
	return col, nil
}

// quotedIdentifier reads a leading "identifier" from s and returns it with
// the text that follows. Doubled quotes inside the identifier are collapsed.
func quotedIdentifier(s string) (string, string, error) {
	if !strings.HasPrefix(s, `"`) {
		return "", s, errNoIdentifier
	}
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != '"' {
			sb.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '"' {
			sb.WriteByte('"')
			i++
			continue
		}
		return sb.String(), s[i+1:], nil
	}
	return "", s, errNoIdentifier
}

// splitTypeToken returns the type token, which ends at the first space
// outside parentheses and quotes, and the text after it. ok is false when
// the input ends with an open parenthesis or quote.
func splitTypeToken(s string) (string, string, bool) {
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote:
			if c == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					i++
					continue
				}
				inQuote = false
			}
		case c == '\'':
			inQuote = true
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ' ' && depth == 0:
			return s[:i], strings.TrimSpace(s[i+1:]), true
		}
	}
	if depth != 0 || inQuote {
		return s, "", false
	}
	return s, "", true
}

// cleanAttributes removes MySQL-only column attributes and collapses
// whitespace. String literals such as DEFAULT values are left untouched.
func cleanAttributes(s string) string {
	s = mapOutsideLiterals(s, func(seg string) string {
		seg = charsetRe.ReplaceAllString(seg, "")
		seg = collateRe.ReplaceAllString(seg, "")
		seg = mysqlOnlyAttrs.ReplaceAllString(seg, "")
		return spaceRunRe.ReplaceAllString(seg, " ")
	})
	return strings.TrimSpace(s)
}

// extractComment finds a COMMENT keyword outside string literals and returns
// the literal that follows it, along with s without the clause.
func extractComment(s string) (string, string) {
	prev := 0
	for _, loc := range literalRe.FindAllStringIndex(s, -1) {
		if m := commentKeyRe.FindStringIndex(s[prev:loc[0]]); m != nil {
			return s[loc[0]:loc[1]], s[:prev+m[0]] + s[loc[1]:]
		}
		prev = loc[1]
	}
	return "", s
}

// mapOutsideLiterals applies fn to every part of s that is not inside a
// single-quoted literal.
func mapOutsideLiterals(s string, fn func(string) string) string {
	locs := literalRe.FindAllStringIndex(s, -1)
	if locs == nil {
		return fn(s)
	}
	var sb strings.Builder
	prev := 0
	for _, loc := range locs {
		sb.WriteString(fn(s[prev:loc[0]]))
		sb.WriteString(s[loc[0]:loc[1]])
		prev = loc[1]
	}
	sb.WriteString(fn(s[prev:]))
	return sb.String()
}
