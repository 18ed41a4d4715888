package apply

import (
	"fmt"
	"strings"
)

// statementRule describes the effect of statements starting with prefix.
// Prefixes are upper case and matched against the upper-cased statement
// with runs of whitespace collapsed.
type statementRule struct {
	prefix            string
	statementType     string
	blockingReason    string
	destructiveReason string
	txUnsafeReason    string
}

// statementRules is evaluated in order; the first matching prefix wins, so
// longer prefixes come before shorter ones.
var statementRules = []statementRule{
	// Transaction control. The converted dump carries its own markers when
	// produced with rollback enabled.
	{prefix: "START TRANSACTION", statementType: "START TRANSACTION", txUnsafeReason: "script manages its own transactions"},
	{prefix: "BEGIN", statementType: "BEGIN", txUnsafeReason: "script manages its own transactions"},
	{prefix: "COMMIT", statementType: "COMMIT", txUnsafeReason: "script manages its own transactions"},
	{prefix: "ROLLBACK", statementType: "ROLLBACK", txUnsafeReason: "script manages its own transactions"},

	// Statements PostgreSQL refuses inside a transaction block.
	{prefix: "CREATE INDEX CONCURRENTLY", statementType: "CREATE INDEX", txUnsafeReason: "CREATE INDEX CONCURRENTLY cannot run inside a transaction block"},
	{prefix: "CREATE DATABASE", statementType: "CREATE DATABASE", txUnsafeReason: "CREATE DATABASE cannot run inside a transaction block"},
	{prefix: "DROP DATABASE", statementType: "DROP DATABASE", destructiveReason: "DROP DATABASE will permanently delete the entire database", txUnsafeReason: "DROP DATABASE cannot run inside a transaction block"},
	{prefix: "VACUUM", statementType: "VACUUM", txUnsafeReason: "VACUUM cannot run inside a transaction block"},

	// Destructive.
	{prefix: "DROP TABLE", statementType: "DROP TABLE", destructiveReason: "DROP TABLE will permanently delete the table and all its data"},
	{prefix: "TRUNCATE", statementType: "TRUNCATE", destructiveReason: "TRUNCATE will delete all rows from the table", blockingReason: "TRUNCATE acquires an ACCESS EXCLUSIVE lock"},
	{prefix: "DELETE", statementType: "DELETE", destructiveReason: "DELETE will remove rows from the table"},
	{prefix: "DROP SEQUENCE", statementType: "DROP SEQUENCE", blockingReason: "DROP SEQUENCE discards the current sequence value"},
	{prefix: "DROP TYPE", statementType: "DROP TYPE", destructiveReason: "DROP TYPE removes the type and may cascade to columns"},

	// Potentially blocking on large tables.
	{prefix: "CREATE INDEX", statementType: "CREATE INDEX", blockingReason: "CREATE INDEX blocks writes to the table while the index is built"},
	{prefix: "CREATE UNIQUE INDEX", statementType: "CREATE INDEX", blockingReason: "CREATE INDEX blocks writes to the table while the index is built"},

	// Harmless.
	{prefix: "CREATE TABLE", statementType: "CREATE TABLE"},
	{prefix: "CREATE TYPE", statementType: "CREATE TYPE"},
	{prefix: "CREATE SEQUENCE", statementType: "CREATE SEQUENCE"},
	{prefix: "INSERT", statementType: "INSERT"},
	{prefix: "SELECT", statementType: "SELECT"},
	{prefix: "COMMENT ON", statementType: "COMMENT"},
	{prefix: "SET", statementType: "SET"},
}

// alterTableEffects refines ALTER TABLE statements by the action they
// contain. Actions are matched as substrings of the upper-cased statement.
var alterTableEffects = []struct {
	action            string
	blockingReason    string
	destructiveReason string
}{
	{action: "FOREIGN KEY", blockingReason: "ADD FOREIGN KEY locks both tables while existing rows are validated"},
	{action: " TYPE ", blockingReason: "ALTER COLUMN TYPE rewrites the table under an ACCESS EXCLUSIVE lock"},
	{action: "DROP COLUMN", blockingReason: "DROP COLUMN acquires an ACCESS EXCLUSIVE lock", destructiveReason: "DROP COLUMN will permanently delete the column and its data"},
	{action: "DROP CONSTRAINT", blockingReason: "DROP CONSTRAINT acquires an ACCESS EXCLUSIVE lock"},
}

// StatementAnalysis contains the results of analyzing a SQL statement.
type StatementAnalysis struct {
	IsBlocking        bool
	BlockingReasons   []string
	IsDestructive     bool
	DestructiveReason string
	IsTransactionSafe bool
	TxUnsafeReason    string
	StatementType     string
}

// StatementAnalyzer classifies PostgreSQL statements by their leading
// keywords. It understands the statement shapes the converter produces and
// falls back to OTHER for anything else.
type StatementAnalyzer struct{}

// NewStatementAnalyzer creates a new statement analyzer.
func NewStatementAnalyzer() *StatementAnalyzer {
	return &StatementAnalyzer{}
}

// AnalyzeStatement returns the analysis of a single SQL statement.
func (a *StatementAnalyzer) AnalyzeStatement(sql string) *StatementAnalysis {
	analysis := &StatementAnalysis{
		StatementType:     "OTHER",
		IsTransactionSafe: true,
	}
	upper := normalizeKeywords(sql)
	if upper == "" {
		analysis.StatementType = ""
		return analysis
	}

	if strings.HasPrefix(upper, "ALTER TABLE") {
		analysis.StatementType = "ALTER TABLE"
		a.analyzeAlterTable(upper, analysis)
		return analysis
	}

	for _, rule := range statementRules {
		if !strings.HasPrefix(upper, rule.prefix) {
			continue
		}
		analysis.StatementType = rule.statementType
		if rule.blockingReason != "" {
			analysis.IsBlocking = true
			analysis.BlockingReasons = append(analysis.BlockingReasons, rule.blockingReason)
		}
		if rule.destructiveReason != "" {
			analysis.IsDestructive = true
			analysis.DestructiveReason = rule.destructiveReason
		}
		if rule.txUnsafeReason != "" {
			analysis.IsTransactionSafe = false
			analysis.TxUnsafeReason = rule.txUnsafeReason
		}
		break
	}
	return analysis
}

func (a *StatementAnalyzer) analyzeAlterTable(upper string, analysis *StatementAnalysis) {
	for _, effect := range alterTableEffects {
		if !strings.Contains(upper+" ", effect.action) {
			continue
		}
		if effect.blockingReason != "" {
			analysis.IsBlocking = true
			analysis.BlockingReasons = append(analysis.BlockingReasons, effect.blockingReason)
		}
		if effect.destructiveReason != "" {
			analysis.IsDestructive = true
			analysis.DestructiveReason = effect.destructiveReason
		}
	}
}

// Add analyzes stmt and records its effects in result.
func (a *StatementAnalyzer) Add(result *PreflightResult, stmt string, unsafeAllowed bool) {
	analysis := a.AnalyzeStatement(stmt)
	if analysis.StatementType == "" {
		return
	}
	result.Statements++
	result.countType(analysis.StatementType)

	a.addBlockingWarnings(result, analysis, stmt)
	a.addDestructiveWarning(result, analysis, stmt, unsafeAllowed)
	a.addTransactionSafety(result, analysis, stmt)
}

func (a *StatementAnalyzer) addBlockingWarnings(result *PreflightResult, analysis *StatementAnalysis, stmt string) {
	if !analysis.IsBlocking {
		return
	}
	for _, reason := range analysis.BlockingReasons {
		result.Warnings = append(result.Warnings, Warning{
			Level:   WarnCaution,
			Message: fmt.Sprintf("Potentially blocking DDL: %s", reason),
			SQL:     truncateSQL(stmt),
		})
	}
}

func (a *StatementAnalyzer) addDestructiveWarning(result *PreflightResult, analysis *StatementAnalysis, stmt string, unsafeAllowed bool) {
	if !analysis.IsDestructive {
		return
	}
	msg := analysis.DestructiveReason
	if !unsafeAllowed {
		msg = fmt.Sprintf("%s (requires --unsafe flag)", msg)
	}
	result.Warnings = append(result.Warnings, Warning{
		Level:   WarnDanger,
		Message: msg,
		SQL:     truncateSQL(stmt),
	})
}

func (a *StatementAnalyzer) addTransactionSafety(result *PreflightResult, analysis *StatementAnalysis, stmt string) {
	if analysis.IsTransactionSafe {
		return
	}
	result.IsTransactional = false
	result.NonTxReasons = append(result.NonTxReasons, fmt.Sprintf("%s: %s", analysis.TxUnsafeReason, truncateSQL(stmt)))
}

// normalizeKeywords upper-cases the head of sql and collapses whitespace,
// which is enough to match leading keywords. INSERT statements can be many
// megabytes, so only the first keywordWindow bytes are inspected.
func normalizeKeywords(sql string) string {
	if len(sql) > keywordWindow {
		sql = sql[:keywordWindow]
	}
	return strings.Join(strings.Fields(strings.ToUpper(sql)), " ")
}

const keywordWindow = 512
