// Package apply loads a converted dump into a PostgreSQL database. Before
// anything is executed the script is analyzed for destructive and blocking
// statements, and the user decides how safe the load has to be: a dry run,
// a single wrapping transaction, or statement by statement.
package apply

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"

	_ "github.com/lib/pq" // registers the postgres driver
)

// progressEvery controls how often execution progress is printed.
const progressEvery = 1000

// PreflightResult contains a list of warnings, errors, and transactionality info about a script.
type PreflightResult struct {
	Warnings        []Warning
	Errors          []string
	IsTransactional bool
	NonTxReasons    []string
	// Statements is the number of statements in the script.
	Statements int
	// StatementTypes counts statements per type, e.g. INSERT or CREATE TABLE.
	StatementTypes map[string]int
}

func (p *PreflightResult) countType(typ string) {
	if p.StatementTypes == nil {
		p.StatementTypes = make(map[string]int)
	}
	p.StatementTypes[typ]++
}

// Warning contains a Level of a warning, message, and actual SQL from the script.
type Warning struct {
	Level   WarningLevel
	Message string
	SQL     string
}

// WarningLevel is a const that is expandable for later and contains different levels of danger.
type WarningLevel string

const (
	WarnCaution WarningLevel = "CAUTION"
	WarnDanger  WarningLevel = "DANGER"
)

// Options struct contains all setting available for user to choose during apply command.
type Options struct {
	DSN                   string
	DryRun                bool
	Transaction           bool
	AllowNonTransactional bool
	Unsafe                bool
	Out                   io.Writer
}

// Applier loads a SQL script into the database described by Options.DSN.
type Applier struct {
	db       *sql.DB
	options  Options
	analyzer *StatementAnalyzer
	out      io.Writer
}

// NewApplier returns a pointer to Applier for user use, with provided options.
func NewApplier(options Options) *Applier {
	out := options.Out
	if out == nil {
		out = io.Discard
	}
	return &Applier{
		options:  options,
		analyzer: NewStatementAnalyzer(),
		out:      out,
	}
}

func (a *Applier) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *Applier) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

// Connect establishes a connection with the database and pings it to test the connection.
func (a *Applier) Connect(ctx context.Context) error {
	db, err := sql.Open("postgres", a.options.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return fmt.Errorf("failed to ping database: %v; additionally failed to close connection: %w", pingErr, closeErr)
		}
		return fmt.Errorf("failed to ping database: %w", pingErr)
	}

	a.db = db
	return nil
}

// Close closes the database connection. It is safe to call more than once.
func (a *Applier) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// Preflight scans the script in r and analyzes every statement.
func (a *Applier) Preflight(r io.Reader) (*PreflightResult, error) {
	result := &PreflightResult{IsTransactional: true}
	sc := NewStatementScanner(r)
	for sc.Scan() {
		a.analyzer.Add(result, sc.Statement(), a.options.Unsafe)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return result, nil
}

// Validate returns an error when preflight found something the options do
// not allow: destructive statements without Unsafe, or statements that cannot
// run in a transaction while Transaction is set without AllowNonTransactional.
func (a *Applier) Validate(preflight *PreflightResult) error {
	if HasDestructiveOperations(preflight) && !a.options.Unsafe {
		return fmt.Errorf("preflight checks failed: destructive operations detected without --unsafe flag")
	}
	if a.options.Transaction && !preflight.IsTransactional && !a.options.AllowNonTransactional {
		return fmt.Errorf("preflight checks failed: script cannot run in a single transaction; use --allow-non-transactional to proceed")
	}
	if len(preflight.Errors) > 0 {
		return fmt.Errorf("preflight checks failed: %s", strings.Join(preflight.Errors, "; "))
	}
	return nil
}

// Apply executes the script in r. In dry run mode it only prints the
// preflight report. Apply calls Validate first; a script that fails
// validation is never executed.
func (a *Applier) Apply(ctx context.Context, r io.Reader, preflight *PreflightResult) error {
	if a.options.DryRun {
		return a.dryRun(preflight)
	}
	if err := a.Validate(preflight); err != nil {
		return err
	}
	if a.db == nil {
		return fmt.Errorf("not connected")
	}

	if a.options.Transaction && preflight.IsTransactional {
		return a.applyWithTransaction(ctx, r, preflight.Statements)
	}
	return a.applyWithoutTransaction(ctx, r, preflight.Statements)
}

func truncateSQL(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		stmt = stmt[:i] + " ..."
	}
	if len(stmt) > 80 {
		return stmt[:77] + "..."
	}
	return stmt
}

func (a *Applier) dryRun(preflight *PreflightResult) error {
	a.println("=== DRY RUN MODE ===")

	a.println("--- Preflight Checks ---")
	if len(preflight.Warnings) == 0 {
		a.println("No warnings")
	} else {
		for _, w := range preflight.Warnings {
			a.printf("[%s] %s\n", w.Level, w.Message)
			if w.SQL != "" {
				a.printf("    SQL: %s\n", w.SQL)
			}
		}
	}

	a.println("--- Transaction Safety ---")
	if preflight.IsTransactional {
		a.println("All statements are transaction-safe")
	} else {
		a.println("Script is NOT transaction-safe")
		for _, reason := range preflight.NonTxReasons {
			a.printf("  - %s\n", reason)
		}
	}

	a.println("--- Statements to Execute ---")
	types := make([]string, 0, len(preflight.StatementTypes))
	for typ := range preflight.StatementTypes {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		a.printf("%-18s %d\n", typ+":", preflight.StatementTypes[typ])
	}
	a.printf("Total: %d\n", preflight.Statements)

	if err := a.Validate(preflight); err != nil {
		return err
	}

	a.println("=== DRY RUN COMPLETE ===")
	a.println("All preflight checks passed. Run without --dry-run to apply.")
	return nil
}

// execer is satisfied by *sql.Tx and *sql.Conn.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (a *Applier) execAll(ctx context.Context, ex execer, r io.Reader, total int, onError func(i int, stmt string, err error) error) (int, error) {
	sc := NewStatementScanner(r)
	n := 0
	for sc.Scan() {
		stmt := sc.Statement()
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			return n, onError(n+1, stmt, err)
		}
		n++
		if n%progressEvery == 0 || n == total {
			a.printf("Executed %d/%d statements\n", n, total)
		}
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("failed to read script: %w", err)
	}
	return n, nil
}

func (a *Applier) applyWithTransaction(ctx context.Context, r io.Reader, total int) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	n, err := a.execAll(ctx, tx, r, total, func(_ int, stmt string, err error) error {
		return fmt.Errorf("execute failed (rolled back): %w\n  Statement: %s", err, truncateSQL(stmt))
	})
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w; rollback also failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	a.printf("Successfully applied %d statements\n", n)
	return nil
}

// applyWithoutTransaction runs every statement on one dedicated connection
// so session settings and the script's own transaction markers apply to
// the statements that follow them.
func (a *Applier) applyWithoutTransaction(ctx context.Context, r io.Reader, total int) error {
	a.println("Applying script without transaction wrapper")

	conn, err := a.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	n, err := a.execAll(ctx, conn, r, total, func(i int, stmt string, err error) error {
		return fmt.Errorf("statement %d failed: %w\n  Statement: %s\n  %d statements were already applied and cannot be automatically rolled back",
			i, err, truncateSQL(stmt), i-1)
	})
	if err != nil {
		return err
	}

	a.printf("Successfully applied %d statements\n", n)
	return nil
}

// HasDestructiveOperations checks if there is a dangerous warning inside a preflight
// analysis of a script. If it has returns true, otherwise false.
func HasDestructiveOperations(preflight *PreflightResult) bool {
	for _, w := range preflight.Warnings {
		if w.Level == WarnDanger {
			return true
		}
	}
	return false
}
