package output

import (
	"encoding/json"

	"github.com/kmatt/mysql2psql/internal/convert"
)

type jsonFormatter struct{}

type resultSummary struct {
	Lines          int   `json:"lines"`
	BytesRead      int64 `json:"bytesRead"`
	Tables         int   `json:"tables"`
	Inserts        int   `json:"inserts"`
	EnumTypes      int   `json:"enumTypes"`
	EncodingErrors int   `json:"encodingErrors"`
	Diagnostics    int   `json:"diagnostics"`
}

type resultPayload struct {
	Format      string               `json:"format"`
	Summary     resultSummary        `json:"summary"`
	Deferred    map[string]int       `json:"deferred"`
	Diagnostics []convert.Diagnostic `json:"diagnostics"`
}

func (jsonFormatter) FormatResult(r *convert.Result) (string, error) {
	payload := resultPayload{
		Format:      string(FormatJSON),
		Deferred:    map[string]int{},
		Diagnostics: []convert.Diagnostic{},
	}
	if r != nil {
		payload.Summary = resultSummary{
			Lines:          r.Lines,
			BytesRead:      r.BytesRead,
			Tables:         r.Tables,
			Inserts:        r.Inserts,
			EnumTypes:      r.EnumTypes,
			EncodingErrors: r.EncodingErrors,
			Diagnostics:    len(r.Diagnostics),
		}
		for _, sc := range deferredCounts(r) {
			payload.Deferred[sc.Key] = sc.Count
		}
		if len(r.Diagnostics) > 0 {
			payload.Diagnostics = r.Diagnostics
		}
	}

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
