package convert

import (
	"fmt"
	"strings"

	"github.com/kmatt/mysql2psql/internal/core"
)

func dropTableStatement(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", core.QuoteIdent(table))
}

func foreignKeyStatements(table string, fk foreignKey) []string {
	return []string{
		fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s DEFERRABLE INITIALLY DEFERRED", core.QuoteIdent(table), fk.Definition),
		fmt.Sprintf("CREATE INDEX ON %s %s", core.QuoteIdent(table), fk.Columns),
	}
}

// sequenceStatements attaches a sequence to the id column of table and
// advances it past the loaded rows.
func sequenceStatements(table, column string) []string {
	seq := table + "_" + column + "_seq"
	return []string{
		fmt.Sprintf("DROP SEQUENCE IF EXISTS %s", seq),
		fmt.Sprintf("CREATE SEQUENCE %s", seq),
		fmt.Sprintf("SELECT setval('%s', max(%s)) FROM %s", seq, column, core.QuoteIdent(table)),
		fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT nextval('%s')", core.QuoteIdent(table), core.QuoteIdent(column), seq),
	}
}

func commentStatement(table, column, literal string) string {
	return fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s", core.QuoteIdent(table), core.QuoteIdent(column), literal)
}

func fulltextStatement(table string, columns []string) string {
	return fmt.Sprintf("CREATE INDEX ON %s USING gin(to_tsvector('english', %s))",
		core.QuoteIdent(table), strings.Join(columns, " || ' ' || "))
}

// castStatement changes the type of an already loaded column. The default is
// dropped first since it may not cast to the new type.
func castStatement(table, column, typ string) string {
	t, c := core.QuoteIdent(table), core.QuoteIdent(column)
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT, ALTER COLUMN %s TYPE %s USING CAST(%s as %s)", t, c, c, typ, c, typ)
}
