package output

import (
	"fmt"
	"strings"

	"github.com/kmatt/mysql2psql/internal/convert"
)

// maxListedDiagnostics caps the diagnostics printed in a summary.
const maxListedDiagnostics = 20

type summaryFormatter struct{}

// FormatResult formats a conversion result as a compact summary.
// Example output:
//
//	Conversion Summary
//	==================
//
//	Lines:           1200
//	Tables:          12
//	Inserts:         340
func (summaryFormatter) FormatResult(r *convert.Result) (string, error) {
	if r == nil {
		return "No conversion result.\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Conversion Summary\n")
	sb.WriteString("==================\n\n")

	fmt.Fprintf(&sb, "Lines:           %d\n", r.Lines)
	fmt.Fprintf(&sb, "Bytes read:      %d\n", r.BytesRead)
	fmt.Fprintf(&sb, "Tables:          %d\n", r.Tables)
	fmt.Fprintf(&sb, "Inserts:         %d\n", r.Inserts)
	fmt.Fprintf(&sb, "Enum types:      %d\n", r.EnumTypes)
	fmt.Fprintf(&sb, "Encoding errors: %d\n", r.EncodingErrors)

	sb.WriteString("\nDeferred statements:\n")
	for _, sc := range deferredCounts(r) {
		fmt.Fprintf(&sb, "  %-16s %d\n", sc.Title+":", sc.Count)
	}

	writeDiagnostics(&sb, r)
	return sb.String(), nil
}

func writeDiagnostics(sb *strings.Builder, r *convert.Result) {
	if len(r.Diagnostics) == 0 {
		sb.WriteString("\nNo diagnostics.\n")
		return
	}

	fmt.Fprintf(sb, "\nDiagnostics: %d\n", len(r.Diagnostics))
	for _, kc := range diagnosticCounts(r) {
		fmt.Fprintf(sb, "  %-18s %d\n", string(kc.Kind)+":", kc.Count)
	}

	sb.WriteString("\n")
	for i, d := range r.Diagnostics {
		if i == maxListedDiagnostics {
			fmt.Fprintf(sb, "  ... and %d more\n", len(r.Diagnostics)-maxListedDiagnostics)
			break
		}
		if d.Table != "" {
			fmt.Fprintf(sb, "  line %d [%s] (%s): %s\n", d.Line, d.Kind, d.Table, d.Text)
		} else {
			fmt.Fprintf(sb, "  line %d [%s]: %s\n", d.Line, d.Kind, d.Text)
		}
	}
}
