// Package json writes analysis reports as JSON.
package json

import (
	"context"
	"encoding/json"
	"io"

	"github.com/terracomply/terracomply/pkg/types"
)

// Reporter writes the report as a single JSON document. The output
// round-trips: decoding it yields the same report.
type Reporter struct {
	pretty bool
}

// New creates a JSON reporter with indented output.
func New() *Reporter {
	return &Reporter{pretty: true}
}

// NewCompact creates a JSON reporter with compact output.
func NewCompact() *Reporter {
	return &Reporter{pretty: false}
}

// Write writes the report to the given writer in JSON format.
func (r *Reporter) Write(ctx context.Context, report *types.Report, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	if r.pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(report)
}

// Format returns the format this reporter outputs.
func (r *Reporter) Format() string {
	return "json"
}
