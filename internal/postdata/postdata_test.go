package postdata

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTrimsAndSkipsEmpty(t *testing.T) {
	p := New()
	p.AddSequence("  CREATE SEQUENCE users_id_seq;  ")
	p.AddSequence("   ")
	p.AddSequence(";")
	p.Add(Section(42), "ignored")

	assert.Equal(t, []string{"CREATE SEQUENCE users_id_seq"}, p.Statements(SectionSequences))
	assert.Equal(t, 1, p.Total())
	assert.Nil(t, p.Statements(Section(42)))
}

func TestMergeKeepsOrder(t *testing.T) {
	global := New()
	global.AddForeignKey("fk 1")

	pending := New()
	pending.AddForeignKey("fk 2")
	pending.AddComment("comment 1")

	global.Merge(pending)
	global.Merge(nil)

	assert.Equal(t, []string{"fk 1", "fk 2"}, global.Statements(SectionForeignKeys))
	assert.Equal(t, []string{"comment 1"}, global.Statements(SectionComments))
	assert.Equal(t, map[string]int{
		"typecasts":    0,
		"foreign_keys": 2,
		"sequences":    0,
		"comments":     1,
		"fulltext":     0,
	}, global.Counts())
}

func TestWriteToSectionOrder(t *testing.T) {
	p := New()
	p.AddFulltext("CREATE INDEX ON \"posts\" USING gin(to_tsvector('english', body))")
	p.AddComment(`COMMENT ON COLUMN "users"."email" IS 'login'`)
	p.AddSequence("CREATE SEQUENCE users_id_seq")
	p.AddForeignKey(`ALTER TABLE "posts" ADD CONSTRAINT x`)
	p.AddCast(`ALTER TABLE "users" ALTER COLUMN "active" TYPE boolean`)

	var sb strings.Builder
	n, err := p.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, int64(sb.Len()), n)

	want := "\n-- Typecasts --\n" +
		`ALTER TABLE "users" ALTER COLUMN "active" TYPE boolean;` + "\n" +
		"\n-- Foreign keys --\n" +
		`ALTER TABLE "posts" ADD CONSTRAINT x;` + "\n" +
		"\n-- Sequences --\n" +
		"CREATE SEQUENCE users_id_seq;\n" +
		"\n-- Comments --\n" +
		`COMMENT ON COLUMN "users"."email" IS 'login';` + "\n" +
		"\n-- Full Text keys --\n" +
		"CREATE INDEX ON \"posts\" USING gin(to_tsvector('english', body));\n"
	assert.Equal(t, want, sb.String())
}

func TestWriteToEmptyKeepsHeadings(t *testing.T) {
	var sb strings.Builder
	_, err := New().WriteTo(&sb)
	require.NoError(t, err)

	for _, sec := range Sections() {
		assert.Contains(t, sb.String(), "-- "+sec.Title()+" --")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteToPropagatesError(t *testing.T) {
	_, err := New().WriteTo(failingWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
