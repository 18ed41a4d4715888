package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnDefinition(t *testing.T) {
	tests := []struct {
		name   string
		column Column
		want   string
	}{
		{"type and extra", Column{Name: "id", Type: "integer", Extra: "NOT NULL"}, `"id" integer NOT NULL`},
		{"type only", Column{Name: "body", Type: "text"}, `"body" text`},
		{"quoted name", Column{Name: `we"ird`, Type: "text"}, `"we""ird" text`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.column.Definition())
		})
	}
}

func TestTableDefinitionsKeepSourceOrder(t *testing.T) {
	table := NewTable("users")
	table.AddColumn(&Column{Name: "id", Type: "integer", Extra: "NOT NULL"})
	table.AddClause(`PRIMARY KEY ("id")`)
	table.AddColumn(&Column{Name: "email", Type: "text"})
	table.AddClause("   ")

	assert.Equal(t, []string{
		`"id" integer NOT NULL`,
		`PRIMARY KEY ("id")`,
		`"email" text`,
	}, table.Definitions())
	assert.Len(t, table.Columns, 2)
}

func TestTableFindColumn(t *testing.T) {
	table := NewTable("users")
	table.AddColumn(&Column{Name: "Email", Type: "text"})

	t.Run("case insensitive", func(t *testing.T) {
		c := table.FindColumn("email")
		assert.NotNil(t, c)
		assert.Equal(t, "Email", c.Name)
	})

	t.Run("missing", func(t *testing.T) {
		assert.Nil(t, table.FindColumn("nope"))
	})
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'plain'", QuoteLiteral("plain"))
	assert.Equal(t, "'it''s'", QuoteLiteral("it's"))
}
