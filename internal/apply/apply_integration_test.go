package apply

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kmatt/mysql2psql/internal/convert"
)

type testPostgresContainer struct {
	container testcontainers.Container
	dsn       string
	db        *sql.DB
}

func setupPostgres(t *testing.T) *testPostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.PingContext(ctx))

	return &testPostgresContainer{container: container, dsn: dsn, db: db}
}

func (tc *testPostgresContainer) tableExists(t *testing.T, name string) bool {
	t.Helper()
	var exists bool
	err := tc.db.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)", name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func (tc *testPostgresContainer) apply(ctx context.Context, t *testing.T, options Options, script string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	options.DSN = tc.dsn
	options.Out = &buf

	applier := NewApplier(options)
	require.NoError(t, applier.Connect(ctx))
	defer applier.Close()

	preflight, err := applier.Preflight(strings.NewReader(script))
	require.NoError(t, err)
	err = applier.Apply(ctx, strings.NewReader(script), preflight)
	return buf.String(), err
}

func TestApplierIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupPostgres(t)
	ctx := context.Background()

	t.Run("connect and close", func(t *testing.T) {
		applier := NewApplier(Options{DSN: tc.dsn})
		require.NoError(t, applier.Connect(ctx))
		require.NoError(t, applier.Close())
		assert.NoError(t, applier.Close())
	})

	t.Run("unreachable server fails to connect", func(t *testing.T) {
		applier := NewApplier(Options{DSN: "postgres://nobody@127.0.0.1:1/nope?sslmode=disable&connect_timeout=2"})
		err := applier.Connect(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to ping database")
		assert.NoError(t, applier.Close())
	})

	t.Run("dry run executes nothing", func(t *testing.T) {
		out, err := tc.apply(ctx, t, Options{DryRun: true, Unsafe: true}, convertedScript)
		require.NoError(t, err)
		assert.Contains(t, out, "DRY RUN COMPLETE")
		assert.False(t, tc.tableExists(t, "users"))
	})

	t.Run("transaction mode loads the script", func(t *testing.T) {
		out, err := tc.apply(ctx, t, Options{Transaction: true, Unsafe: true}, convertedScript)
		require.NoError(t, err)
		assert.Contains(t, out, "Successfully applied 9 statements")

		var count int
		require.NoError(t, tc.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
		assert.Equal(t, 2, count)

		var email string
		require.NoError(t, tc.db.QueryRow("SELECT email FROM users WHERE id = 2").Scan(&email))
		assert.Equal(t, "o'neil@x.y", email)

		var next int
		require.NoError(t, tc.db.QueryRow("SELECT nextval('users_id_seq')").Scan(&next))
		assert.Equal(t, 3, next)
	})

	t.Run("transaction mode rolls back on failure", func(t *testing.T) {
		script := "CREATE TABLE tx_rollback (id integer);\nINSERT INTO missing_table VALUES (1);\n"
		_, err := tc.apply(ctx, t, Options{Transaction: true}, script)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rolled back")
		assert.Contains(t, err.Error(), "INSERT INTO missing_table")
		assert.False(t, tc.tableExists(t, "tx_rollback"))
	})

	t.Run("self-managed transactions need --allow-non-transactional", func(t *testing.T) {
		script := "START TRANSACTION;\nCREATE TABLE self_managed (id integer);\nCOMMIT;\n"
		_, err := tc.apply(ctx, t, Options{Transaction: true}, script)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--allow-non-transactional")
		assert.False(t, tc.tableExists(t, "self_managed"))

		out, err := tc.apply(ctx, t, Options{Transaction: true, AllowNonTransactional: true}, script)
		require.NoError(t, err)
		assert.Contains(t, out, "without transaction wrapper")
		assert.True(t, tc.tableExists(t, "self_managed"))
	})

	t.Run("statement mode reports partial progress", func(t *testing.T) {
		script := "CREATE TABLE partial_one (id integer);\nCREATE TABLE partial_one (id integer);\nCREATE TABLE partial_two (id integer);\n"
		_, err := tc.apply(ctx, t, Options{}, script)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "statement 2 failed")
		assert.Contains(t, err.Error(), "1 statements were already applied")
		assert.True(t, tc.tableExists(t, "partial_one"))
		assert.False(t, tc.tableExists(t, "partial_two"))
	})
}

func TestApplyConvertedDumpIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupPostgres(t)
	ctx := context.Background()

	dump := strings.Join([]string{
		`DROP TABLE IF EXISTS "authors";`,
		`CREATE TABLE "authors" (`,
		`  "id" int(11) NOT NULL AUTO_INCREMENT,`,
		`  "name" varchar(100) NOT NULL COMMENT 'display name',`,
		`  "kind" enum('staff','guest') NOT NULL DEFAULT 'guest',`,
		`  "joined" datetime NOT NULL DEFAULT '0000-00-00 00:00:00',`,
		`  PRIMARY KEY ("id")`,
		`);`,
		`INSERT INTO "authors" VALUES (1,'Ann','staff','0000-00-00 00:00:00'),(2,'D\'Arcy','guest','2019-05-00 12:00:00');`,
		`DROP TABLE IF EXISTS "books";`,
		`CREATE TABLE "books" (`,
		`  "id" int(11) NOT NULL AUTO_INCREMENT,`,
		`  "author_id" int(11) NOT NULL,`,
		`  "title" varchar(200) NOT NULL,`,
		`  "summary" text,`,
		`  PRIMARY KEY ("id"),`,
		`  FULLTEXT KEY "ft" ("title","summary"),`,
		`  CONSTRAINT "books_ibfk_1" FOREIGN KEY ("author_id") REFERENCES "authors" ("id")`,
		`);`,
		`INSERT INTO "books" VALUES (1,2,'Notes','a path C:\\temp');`,
		"",
	}, "\n")

	var script bytes.Buffer
	res, err := convert.Convert(ctx, strings.NewReader(dump), &script, convert.Options{Rollback: true})
	require.NoError(t, err)
	require.Empty(t, res.Diagnostics)

	out, err := tc.apply(ctx, t, Options{AllowNonTransactional: true, Unsafe: true}, script.String())
	require.NoError(t, err, "script:\n%s", script.String())
	assert.Contains(t, out, "Successfully applied")

	var name, kind string
	require.NoError(t, tc.db.QueryRow("SELECT name, kind::text FROM authors WHERE id = 2").Scan(&name, &kind))
	assert.Equal(t, "D'Arcy", name)
	assert.Equal(t, "guest", kind)

	var joined time.Time
	require.NoError(t, tc.db.QueryRow("SELECT joined FROM authors WHERE id = 2").Scan(&joined))
	assert.Equal(t, time.May, joined.UTC().Month())
	assert.Equal(t, 1, joined.UTC().Day())

	var summary string
	require.NoError(t, tc.db.QueryRow("SELECT summary FROM books WHERE id = 1").Scan(&summary))
	assert.Equal(t, `a path C:\temp`, summary)

	var comment string
	require.NoError(t, tc.db.QueryRow("SELECT col_description('authors'::regclass, 2)").Scan(&comment))
	assert.Equal(t, "display name", comment)

	_, err = tc.db.Exec("INSERT INTO books (author_id, title) VALUES (99, 'orphan')")
	require.Error(t, err, "foreign key should reject unknown authors")

	var next int
	require.NoError(t, tc.db.QueryRow("SELECT nextval('books_id_seq')").Scan(&next))
	assert.Equal(t, 2, next)
}
