// Package output formats conversion reports. It provides a human-readable
// summary and a JSON document for scripting.
package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kmatt/mysql2psql/internal/convert"
	"github.com/kmatt/mysql2psql/internal/postdata"
)

// Format is an enum type representing the available report formats.
type Format string

const (
	FormatSummary Format = "summary"
	FormatJSON    Format = "json"
	FormatNone    Format = "none"
)

// Formatter renders a conversion result.
type Formatter interface {
	FormatResult(*convert.Result) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to the summary format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatSummary:
		return summaryFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatNone:
		return noneFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'summary', 'json', or 'none'", name)
	}
}

type noneFormatter struct{}

func (noneFormatter) FormatResult(*convert.Result) (string, error) {
	return "", nil
}

// deferredCounts returns the post-data counts in output order.
func deferredCounts(r *convert.Result) []sectionCount {
	out := make([]sectionCount, 0, len(postdata.Sections()))
	for _, sec := range postdata.Sections() {
		out = append(out, sectionCount{Key: sec.String(), Title: sec.Title(), Count: r.Deferred[sec.String()]})
	}
	return out
}

type sectionCount struct {
	Key   string
	Title string
	Count int
}

// diagnosticCounts returns the number of diagnostics per kind, sorted by kind.
func diagnosticCounts(r *convert.Result) []kindCount {
	counts := make(map[convert.DiagnosticKind]int)
	for _, d := range r.Diagnostics {
		counts[d.Kind]++
	}
	out := make([]kindCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, kindCount{Kind: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

type kindCount struct {
	Kind  convert.DiagnosticKind
	Count int
}
