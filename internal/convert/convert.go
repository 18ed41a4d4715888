// Package convert rewrites a MySQL dump, produced with
// mysqldump --compatible=postgresql, into a PostgreSQL dump in a single
// streaming pass.
//
// The input is read line by line. Outside a CREATE TABLE block only DROP
// TABLE, CREATE TABLE and INSERT INTO lines are meaningful; inside a block
// column and key definitions are collected until the closing ");" line,
// when the translated CREATE TABLE is written. Statements that need every
// table to exist (foreign keys, sequences, comments, full text indexes and
// typecasts) are queued and written once at the end.
package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kmatt/mysql2psql/internal/core"
	"github.com/kmatt/mysql2psql/internal/logging"
	"github.com/kmatt/mysql2psql/internal/postdata"
)

const (
	readBufferSize  = 1 << 20
	writeBufferSize = 1 << 20
)

// Options configures a conversion.
type Options struct {
	// Rollback wraps the body and the post-data in explicit transactions.
	Rollback bool
	// InputCharset is the WHATWG name of the dump encoding. Empty means UTF-8.
	InputCharset string
	// Casts maps "table.column" to a PostgreSQL type the column is altered
	// to after loading.
	Casts map[string]string
	// Logger receives per-line diagnostics. Nil discards them.
	Logger logrus.FieldLogger
	// OnProgress, when set, is called after every input line.
	OnProgress func(Progress)
}

// Progress is a snapshot of the conversion counters.
type Progress struct {
	Line      int
	BytesRead int64
	Tables    int
	Inserts   int
}

// Result summarizes a finished conversion.
type Result struct {
	Lines          int            `json:"lines"`
	BytesRead      int64          `json:"bytes_read"`
	Tables         int            `json:"tables"`
	Inserts        int            `json:"inserts"`
	EnumTypes      int            `json:"enum_types"`
	EncodingErrors int            `json:"encoding_errors"`
	Deferred       map[string]int `json:"deferred"`
	Diagnostics    []Diagnostic   `json:"diagnostics"`
}

// Session holds the state of one conversion. A Session converts exactly one
// stream; create a new one per run.
type Session struct {
	opts  Options
	log   logrus.FieldLogger
	dec   *lineDecoder
	casts map[string]map[string]string

	out  *bufio.Writer
	werr error

	line      int
	table     *core.Table
	tableLine int
	pending   *postdata.PostData
	post      *postdata.PostData
	enums     map[string]struct{}
	result    Result
	used      bool
}

// NewSession validates opts and returns a Session ready to Run.
func NewSession(opts Options) (*Session, error) {
	dec, err := newLineDecoder(opts.InputCharset)
	if err != nil {
		return nil, err
	}

	casts := make(map[string]map[string]string)
	for key, typ := range opts.Casts {
		table, column, ok := strings.Cut(strings.ToLower(strings.TrimSpace(key)), ".")
		typ = strings.TrimSpace(typ)
		if !ok || table == "" || column == "" || typ == "" {
			return nil, fmt.Errorf("invalid cast %q=%q: expected table.column=type", key, typ)
		}
		if casts[table] == nil {
			casts[table] = make(map[string]string)
		}
		casts[table][column] = typ
	}

	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &Session{
		opts:  opts,
		log:   log,
		dec:   dec,
		casts: casts,
		post:  postdata.New(),
		enums: make(map[string]struct{}),
	}, nil
}

// Convert runs a fresh Session over r, writing the PostgreSQL dump to w.
func Convert(ctx context.Context, r io.Reader, w io.Writer, opts Options) (*Result, error) {
	s, err := NewSession(opts)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, r, w)
}

// Run converts r into w. On error the output written so far is incomplete
// and lacks the post-data sections; the returned Result is nil.
func (s *Session) Run(ctx context.Context, r io.Reader, w io.Writer) (*Result, error) {
	if s.used {
		return nil, ErrSessionUsed
	}
	s.used = true

	in := bufio.NewReaderSize(r, readBufferSize)
	s.out = bufio.NewWriterSize(w, writeBufferSize)

	s.writeHeader()

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("line %d: %w", s.line, err)
		}

		raw, readErr := in.ReadBytes('\n')
		if len(raw) > 0 {
			s.line++
			s.result.BytesRead += int64(len(raw))
			if err := s.processLine(raw); err != nil {
				return nil, err
			}
			if s.werr != nil {
				return nil, fmt.Errorf("line %d: failed to write output: %w", s.line, s.werr)
			}
			s.reportProgress()
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("line %d: failed to read input: %w", s.line, readErr)
		}
	}

	if s.table != nil {
		return nil, &UnterminatedTableError{
			Table:    s.table.Name,
			OpenedAt: s.tableLine,
			Line:     s.line,
			EOF:      true,
		}
	}

	s.writeFooter()
	if s.werr == nil {
		s.werr = s.out.Flush()
	}
	if s.werr != nil {
		return nil, fmt.Errorf("failed to write output: %w", s.werr)
	}

	s.result.Lines = s.line
	s.result.Deferred = s.post.Counts()
	res := s.result
	return &res, nil
}

func (s *Session) processLine(raw []byte) error {
	text, replaced := s.dec.decode(raw)
	line := normalize(text, s.line == 1)
	if replaced {
		s.result.EncodingErrors++
		s.warn(DiagnosticEncoding, line, "invalid byte sequence replaced")
	}

	kind := Classify(line, s.table != nil)
	switch kind {
	case LineIgnorable:
	case LineDropTable:
		s.dropTable(line)
	case LineCreateTable:
		return s.openTable(line)
	case LineInsert:
		s.insert(line)
	case LineColumn:
		s.addColumn(line)
	case LinePrimaryKey:
		s.addClause(line, parsePrimaryKey)
	case LineUniqueKey:
		s.addClause(line, parseUniqueKey)
	case LineForeignKey:
		s.addForeignKey(line)
	case LineFulltextKey:
		s.addFulltext(line)
	case LinePlainKey:
		s.log.WithFields(logrus.Fields{"line": s.line, "table": s.table.Name}).Debug("skipping plain key")
	case LineTableClose:
		s.closeTable()
	default:
		s.warn(DiagnosticUnrecognized, line, "unrecognized line dropped")
	}
	return nil
}

func (s *Session) dropTable(line string) {
	name, _, err := quotedIdentifier(strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "DROP TABLE"), " IF EXISTS")))
	if err != nil {
		s.warn(DiagnosticUnrecognized, line, "DROP TABLE without a quoted table name")
		return
	}
	s.emit(dropTableStatement(strings.ToLower(name)), "\n")
}

func (s *Session) openTable(line string) error {
	if s.table != nil {
		return &UnterminatedTableError{
			Table:    s.table.Name,
			OpenedAt: s.tableLine,
			Line:     s.line,
		}
	}
	name, _, err := quotedIdentifier(strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "CREATE TABLE"), " IF NOT EXISTS")))
	if err != nil {
		s.warn(DiagnosticUnrecognized, line, "CREATE TABLE without a quoted table name")
		return nil
	}
	s.table = core.NewTable(strings.ToLower(name))
	s.tableLine = s.line
	s.pending = postdata.New()
	return nil
}

func (s *Session) insert(line string) {
	ins, err := parseInsert(line)
	if err != nil {
		s.warn(DiagnosticUnrecognized, line, err.Error())
		return
	}
	ins.Rest = SanitizeDates(ins.Rest)
	s.emit(ins.String(), "\n")
	s.result.Inserts++
}

func (s *Session) addColumn(line string) {
	col, err := parseColumn(line)
	if err != nil {
		s.warn(DiagnosticUnrecognized, line, err.Error())
		return
	}
	name := strings.ToLower(col.Name)
	table := s.table.Name

	if col.Malformed {
		s.warn(DiagnosticMalformedColumn, line, "unbalanced type definition kept as written")
		s.table.AddColumn(&core.Column{Name: name, Type: SanitizeDates(col.Type)})
		return
	}

	typ := col.Type
	if values, ok := core.ParseEnum(typ); ok {
		enum := core.NewEnumType(table, name, values)
		if _, seen := s.enums[enum.Name]; !seen {
			s.enums[enum.Name] = struct{}{}
			s.validate(enum.Validate())
			s.emit(enum.CreateStatement(), "\n")
			s.result.EnumTypes++
		}
		typ = enum.Name
	} else {
		var sequence bool
		typ, sequence = core.MapType(typ)
		if sequence && name == "id" {
			for _, stmt := range sequenceStatements(table, name) {
				s.pending.AddSequence(stmt)
			}
		}
	}

	if col.Comment != "" {
		s.pending.AddComment(commentStatement(table, name, col.Comment))
	}

	s.table.AddColumn(&core.Column{
		Name:    name,
		Type:    typ,
		Extra:   SanitizeDates(col.Extra),
		Comment: col.Comment,
	})
}

// addCasts queues the configured casts for t in column order. A rule naming
// a column the table does not have is reported and skipped.
func (s *Session) addCasts(t *core.Table) {
	rules := s.casts[strings.ToLower(t.Name)]
	for _, c := range t.Columns {
		if typ, ok := rules[strings.ToLower(c.Name)]; ok {
			s.pending.AddCast(castStatement(t.Name, c.Name, typ))
		}
	}
	columns := make([]string, 0, len(rules))
	for column := range rules {
		columns = append(columns, column)
	}
	slices.Sort(columns)
	for _, column := range columns {
		if t.FindColumn(column) == nil {
			rule := t.Name + "." + column + "=" + rules[column]
			s.warn(DiagnosticUnknownCastColumn, rule, "cast names a column the table does not have")
		}
	}
}

func (s *Session) addClause(line string, parse func(string) (string, error)) {
	clause, err := parse(line)
	if err != nil {
		s.warn(DiagnosticUnrecognized, line, err.Error())
		return
	}
	s.table.AddClause(clause)
}

func (s *Session) addForeignKey(line string) {
	fk, err := parseForeignKey(line)
	if err != nil {
		s.warn(DiagnosticUnrecognized, line, err.Error())
		return
	}
	for _, stmt := range foreignKeyStatements(s.table.Name, fk) {
		s.pending.AddForeignKey(stmt)
	}
}

func (s *Session) addFulltext(line string) {
	cols, err := parseFulltextKey(line)
	if err != nil {
		s.warn(DiagnosticUnrecognized, line, err.Error())
		return
	}
	s.pending.AddFulltext(fulltextStatement(s.table.Name, cols))
}

// closeTable writes the collected CREATE TABLE statement and releases the
// table's deferred statements into the post-data.
func (s *Session) closeTable() {
	t := s.table
	s.validate(t.Validate())
	s.addCasts(t)

	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", core.QuoteIdent(t.Name))
	defs := t.Definitions()
	for i, def := range defs {
		sb.WriteString("    ")
		sb.WriteString(def)
		if i < len(defs)-1 {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(");\n\n")
	s.emit(sb.String())

	s.post.Merge(s.pending)
	s.result.Tables++
	s.log.WithFields(logrus.Fields{
		"table":   t.Name,
		"columns": len(t.Columns),
		"line":    s.line,
	}).Debug("table converted")

	s.table = nil
	s.pending = nil
}

func (s *Session) writeHeader() {
	s.emit("-- Converted by mysql2psql\n")
	if s.opts.Rollback {
		s.emit("START TRANSACTION;\n")
	}
	s.emit(
		"SET standard_conforming_strings=off;\n",
		"SET escape_string_warning=off;\n",
		"SET CLIENT_ENCODING TO 'UTF8';\n",
		"SET CONSTRAINTS ALL DEFERRED;\n",
		"\n",
	)
}

func (s *Session) writeFooter() {
	s.emit("\n-- Post-data save --\n")
	if s.opts.Rollback {
		s.emit("COMMIT;\n", "START TRANSACTION;\n")
	}
	if s.werr == nil {
		s.log.WithField("statements", s.post.Total()).Debug("writing post-data")
		_, s.werr = s.post.WriteTo(s.out)
	}
	s.emit("\n")
	if s.opts.Rollback {
		s.emit("COMMIT;\n")
	}
}

// validate records one diagnostic per problem in err, with the problem as
// its text. The definition is still written.
func (s *Session) validate(err error) {
	if err == nil {
		return
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		s.warn(DiagnosticInvalidDefinition, e.Error(), "definition will not load as written")
	}
}

// emit writes parts to the output, keeping the first write error.
func (s *Session) emit(parts ...string) {
	for _, p := range parts {
		if s.werr != nil {
			return
		}
		_, s.werr = s.out.WriteString(p)
	}
}

func (s *Session) warn(kind DiagnosticKind, line, msg string) {
	d := Diagnostic{Line: s.line, Kind: kind, Text: excerpt(line)}
	fields := logrus.Fields{"line": s.line, "kind": string(kind)}
	if s.table != nil {
		d.Table = s.table.Name
		fields["table"] = s.table.Name
	}
	s.result.Diagnostics = append(s.result.Diagnostics, d)
	s.log.WithFields(fields).Warn(msg)
}

func (s *Session) reportProgress() {
	if s.opts.OnProgress == nil {
		return
	}
	s.opts.OnProgress(Progress{
		Line:      s.line,
		BytesRead: s.result.BytesRead,
		Tables:    s.result.Tables,
		Inserts:   s.result.Inserts,
	})
}
