package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColumn(t *testing.T) {
	tests := []struct {
		name string
		line string
		want columnLine
	}{
		{
			name: "integer with auto increment",
			line: `"id" int(11) NOT NULL AUTO_INCREMENT,`,
			want: columnLine{Name: "id", Type: "int(11)", Extra: "NOT NULL"},
		},
		{
			name: "unsigned zerofill",
			line: `"qty" int(10) unsigned zerofill DEFAULT NULL,`,
			want: columnLine{Name: "qty", Type: "int(10)", Extra: "DEFAULT NULL"},
		},
		{
			name: "charset collate and comment",
			line: `"email" varchar(255) CHARACTER SET utf8 COLLATE utf8_bin NOT NULL COMMENT 'login name',`,
			want: columnLine{Name: "email", Type: "varchar(255)", Extra: "NOT NULL", Comment: "'login name'"},
		},
		{
			name: "comment with doubled quote",
			line: `"bio" text COMMENT 'it''s me'`,
			want: columnLine{Name: "bio", Type: "text", Comment: "'it''s me'"},
		},
		{
			name: "enum with spaces",
			line: `"status" enum('on hold','done') NOT NULL DEFAULT 'on hold',`,
			want: columnLine{Name: "status", Type: "enum('on hold','done')", Extra: "NOT NULL DEFAULT 'on hold'"},
		},
		{
			name: "literal keeps keywords and spaces",
			line: `"note" varchar(20) DEFAULT 'unsigned  COLLATE x',`,
			want: columnLine{Name: "note", Type: "varchar(20)", Extra: "DEFAULT 'unsigned  COLLATE x'"},
		},
		{
			name: "comment keyword inside default literal",
			line: `"a" varchar(10) DEFAULT 'no COMMENT ''x''' COMMENT 'real',`,
			want: columnLine{Name: "a", Type: "varchar(10)", Extra: "DEFAULT 'no COMMENT ''x'''", Comment: "'real'"},
		},
		{
			name: "comment keyword only inside literal",
			line: `"b" varchar(20) DEFAULT 'see COMMENT ''y''',`,
			want: columnLine{Name: "b", Type: "varchar(20)", Extra: "DEFAULT 'see COMMENT ''y'''"},
		},
		{
			name: "type only",
			line: `"body" longtext`,
			want: columnLine{Name: "body", Type: "longtext"},
		},
		{
			name: "quoted name with doubled quote",
			line: `"we""ird" text,`,
			want: columnLine{Name: `we"ird`, Type: "text"},
		},
		{
			name: "unbalanced type",
			line: `"price" decimal(10,2 NOT NULL,`,
			want: columnLine{Name: "price", Type: "decimal(10,2 NOT NULL", Malformed: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseColumn(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColumnWithoutIdentifier(t *testing.T) {
	_, err := parseColumn(`"unterminated int(11),`)
	require.ErrorIs(t, err, errNoIdentifier)

	_, err = parseColumn(`id int(11),`)
	require.ErrorIs(t, err, errNoIdentifier)
}

func TestSplitTypeToken(t *testing.T) {
	tests := []struct {
		input string
		typ   string
		rest  string
		ok    bool
	}{
		{"int(11) NOT NULL", "int(11)", "NOT NULL", true},
		{"double(10,2) DEFAULT '0.00'", "double(10,2)", "DEFAULT '0.00'", true},
		{"enum('a b','c') NOT NULL", "enum('a b','c')", "NOT NULL", true},
		{"enum('a)b','c') NULL", "enum('a)b','c')", "NULL", true},
		{"text", "text", "", true},
		{"enum('a", "enum('a", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			typ, rest, ok := splitTypeToken(tt.input)
			assert.Equal(t, tt.typ, typ)
			assert.Equal(t, tt.rest, rest)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
