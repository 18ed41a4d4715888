package apply

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// StatementScanner splits a SQL script into statements. A statement ends at
// a line whose trimmed text ends with a semicolon; "--" comment lines and
// blank lines between statements are skipped. This matches the layout the
// converter writes, where every statement ends its own line.
type StatementScanner struct {
	r    *bufio.Reader
	stmt string
	err  error
	done bool
}

// NewStatementScanner returns a scanner reading from r.
func NewStatementScanner(r io.Reader) *StatementScanner {
	return &StatementScanner{r: bufio.NewReaderSize(r, 1<<20)}
}

// Scan advances to the next statement, returning false at end of input or
// on error.
func (s *StatementScanner) Scan() bool {
	if s.done {
		return false
	}

	var current strings.Builder
	for {
		line, err := s.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			s.err = err
			s.done = true
			return false
		}
		eof := err != nil

		trimmed := strings.TrimSpace(line)
		if current.Len() > 0 || (trimmed != "" && !strings.HasPrefix(trimmed, "--")) {
			current.WriteString(line)
			if strings.HasSuffix(trimmed, ";") {
				s.stmt = strings.TrimSpace(current.String())
				if eof {
					s.done = true
				}
				return true
			}
		}

		if eof {
			s.done = true
			if remaining := strings.TrimSpace(current.String()); remaining != "" {
				s.stmt = remaining
				return true
			}
			return false
		}
	}
}

// Statement returns the statement found by the last call to Scan.
func (s *StatementScanner) Statement() string {
	return s.stmt
}

// Err returns the first read error, if any.
func (s *StatementScanner) Err() error {
	return s.err
}
