package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kmatt/mysql2psql/internal/convert"
	"github.com/kmatt/mysql2psql/internal/dumpio"
	"github.com/kmatt/mysql2psql/internal/output"
)

// legacyRollbackArg is the optional third positional argument older
// invocations pass instead of --rollback.
const legacyRollbackArg = "rollback"

type convertFlags struct {
	noProgress bool
	casts      map[string]string
}

func newConvertCmd(a *app) *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "convert <input> <output> [rollback]",
		Short: "Convert a MySQL dump into a PostgreSQL script",
		Long: `Convert reads a MySQL dump and writes a PostgreSQL script in a single pass.

Use "-" for standard input or output. Files ending in .gz are read and written
gzip-compressed. Statements that need every table loaded first (foreign keys,
sequences, comments, full text indexes and type casts) are written at the end.

Examples:
  mysql2psql convert dump.sql out.sql
  mysql2psql convert dump.sql.gz out.sql.gz --rollback
  mysql2psql convert dump.sql - --charset latin1 | psql mydb
  mysql2psql convert dump.sql out.sql --cast users.active=boolean`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 3 {
				if args[2] != legacyRollbackArg {
					return fmt.Errorf("unexpected argument %q: the only optional argument is %q", args[2], legacyRollbackArg)
				}
				a.cfg.Convert.Rollback = true
			}
			return a.runConvert(cmd.Context(), args[0], args[1], f)
		},
	}

	flags := cmd.Flags()
	flags.Bool("rollback", false, "Wrap the output in transactions so a failed load leaves nothing behind")
	flags.String("charset", "utf-8", "Character set of the dump (utf-8, latin1, windows-1252, ...)")
	flags.String("report", "summary", "Report printed after converting: summary, json or none")
	flags.BoolVar(&f.noProgress, "no-progress", false, "Do not show the progress bar")
	flags.StringToStringVar(&f.casts, "cast", nil, "Alter a column type after loading, as table.column=type (repeatable)")
	a.bind(flags, "convert.rollback", "rollback")
	a.bind(flags, "convert.input_charset", "charset")
	a.bind(flags, "convert.report", "report")

	return cmd
}

func (a *app) runConvert(ctx context.Context, inPath, outPath string, f convertFlags) error {
	cfg := a.cfg.Convert
	casts := maps.Clone(cfg.Casts)
	if casts == nil {
		casts = map[string]string{}
	}
	maps.Copy(casts, f.casts)

	formatter, err := output.NewFormatter(cfg.Report)
	if err != nil {
		return err
	}

	src, err := dumpio.OpenSource(inPath)
	if err != nil {
		return err
	}
	defer src.Close()

	sink, err := dumpio.CreateSink(outPath)
	if err != nil {
		return err
	}

	opts := convert.Options{
		Rollback:     cfg.Rollback,
		InputCharset: cfg.InputCharset,
		Casts:        casts,
		Logger:       a.log,
	}

	var bar *progressBar
	if cfg.Progress && !f.noProgress && src.Size > 0 {
		bar = newProgressBar(src.Size, a.stderr)
		bar.Start()
		a.log.SetOutput(bar.Bypass())
		opts.OnProgress = func(p convert.Progress) {
			bar.Update(p, src.BytesRead())
		}
	}

	a.log.WithFields(logrus.Fields{
		"input":    src.Name,
		"output":   sink.Name,
		"rollback": cfg.Rollback,
		"charset":  cfg.InputCharset,
	}).Debug("converting")

	result, convErr := convert.Convert(ctx, src, sink, opts)

	if bar != nil {
		bar.Stop()
		a.log.SetOutput(a.stderr)
	}
	closeErr := sink.Close()

	if convErr != nil {
		var unterminated *convert.UnterminatedTableError
		if errors.As(convErr, &unterminated) {
			a.log.WithFields(logrus.Fields{
				"table":  unterminated.Table,
				"opened": unterminated.OpenedAt,
				"line":   unterminated.Line,
			}).Error("conversion aborted: table definition is not closed")
		}
		return fmt.Errorf("failed to convert %s: %w", src.Name, convErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output: %w", closeErr)
	}

	a.log.WithFields(logrus.Fields{
		"lines":       result.Lines,
		"tables":      result.Tables,
		"inserts":     result.Inserts,
		"diagnostics": len(result.Diagnostics),
	}).Info("conversion finished")

	report, err := formatter.FormatResult(result)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	_, err = io.WriteString(a.reportWriter(outPath), report)
	return err
}

// reportWriter keeps the report off standard output when the converted
// script is written there.
func (a *app) reportWriter(outPath string) io.Writer {
	if outPath == "" || outPath == dumpio.Stdio {
		return a.stderr
	}
	return a.stdout
}
