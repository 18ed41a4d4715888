package convert

// DiagnosticKind names a non-fatal problem found while converting.
type DiagnosticKind string

const (
	// DiagnosticUnrecognized marks a line the converter could not classify.
	// The line is dropped from the output.
	DiagnosticUnrecognized DiagnosticKind = "unrecognized-line"
	// DiagnosticMalformedColumn marks a column definition whose type could
	// not be separated from its attributes. The column is kept as written.
	DiagnosticMalformedColumn DiagnosticKind = "malformed-column"
	// DiagnosticEncoding marks a line with byte sequences that were not
	// valid in the input charset and were replaced.
	DiagnosticEncoding DiagnosticKind = "encoding-error"
	// DiagnosticInvalidDefinition marks a table or enum type PostgreSQL
	// will reject or change, such as duplicate columns or names longer
	// than 63 bytes. The definition is written as converted.
	DiagnosticInvalidDefinition DiagnosticKind = "invalid-definition"
	// DiagnosticUnknownCastColumn marks a configured cast whose table was
	// converted without the named column. No cast is written for it.
	DiagnosticUnknownCastColumn DiagnosticKind = "unknown-cast-column"
)

// Diagnostic is a structured warning tied to an input line.
type Diagnostic struct {
	Line  int            `json:"line"`
	Kind  DiagnosticKind `json:"kind"`
	Table string         `json:"table,omitempty"`
	Text  string         `json:"text"`
}

// maxDiagnosticText bounds the line excerpt kept in a diagnostic; extended
// INSERT lines can be many megabytes.
const maxDiagnosticText = 200

func excerpt(s string) string {
	if len(s) <= maxDiagnosticText {
		return s
	}
	cut := maxDiagnosticText
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
