package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyOutsideTable(t *testing.T) {
	tests := []struct {
		line string
		want LineKind
	}{
		{"", LineIgnorable},
		{"-- MySQL dump 10.13", LineIgnorable},
		{"/*!40101 SET NAMES utf8 */;", LineIgnorable},
		{"SET @saved_cs_client = @@character_set_client;", LineIgnorable},
		{`LOCK TABLES "users" WRITE;`, LineIgnorable},
		{"UNLOCK TABLES;", LineIgnorable},
		{`DROP TABLE IF EXISTS "users";`, LineDropTable},
		{`CREATE TABLE "users" (`, LineCreateTable},
		{`INSERT INTO "users" VALUES (1);`, LineInsert},
		{`"id" int(11) NOT NULL,`, LineUnrecognized},
		{"CREATE VIEW v AS SELECT 1;", LineUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.line, false))
		})
	}
}

func TestClassifyInsideTable(t *testing.T) {
	tests := []struct {
		line string
		want LineKind
	}{
		{`"id" int(11) NOT NULL,`, LineColumn},
		{`PRIMARY KEY ("id"),`, LinePrimaryKey},
		{`CONSTRAINT "fk" FOREIGN KEY ("a") REFERENCES "b" ("id")`, LineForeignKey},
		{`UNIQUE KEY "email" ("email"),`, LineUniqueKey},
		{`FULLTEXT KEY "ft" ("body")`, LineFulltextKey},
		{`KEY "idx" ("a"),`, LinePlainKey},
		{");", LineTableClose},
		{") ENGINE=InnoDB;", LineUnrecognized},
		{`CREATE TABLE "other" (`, LineCreateTable},
		{"-- comment", LineIgnorable},
		{`INSERT INTO "users" VALUES (1);`, LineUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.line, true))
		})
	}
}

func TestLineKindString(t *testing.T) {
	assert.Equal(t, "column", LineColumn.String())
	assert.Equal(t, "table-close", LineTableClose.String())
	assert.Equal(t, "unknown", LineKind(99).String())
}
