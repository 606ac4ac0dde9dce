// Package reporter defines the report output interface and a registry
// of output formats.
package reporter

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/terracomply/terracomply/pkg/types"
)

// Reporter writes a completed analysis report in one output format.
type Reporter interface {
	// Write writes the report to the given writer
	Write(ctx context.Context, report *types.Report, writer io.Writer) error

	// Format returns the format this reporter outputs
	Format() string
}

// Factory is a registry of reporters by format name.
type Factory struct {
	mu        sync.RWMutex
	reporters map[string]Reporter
}

// NewFactory creates an empty reporter factory.
func NewFactory() *Factory {
	return &Factory{reporters: make(map[string]Reporter)}
}

// Register registers a reporter under its format name.
func (f *Factory) Register(r Reporter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reporters[r.Format()] = r
}

// ByFormat returns the reporter for the given format.
func (f *Factory) ByFormat(format string) (Reporter, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	r, ok := f.reporters[format]
	if !ok {
		return nil, fmt.Errorf("no reporter registered for format: %s", format)
	}
	return r, nil
}

// AvailableFormats returns the registered format names, sorted.
func (f *Factory) AvailableFormats() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	formats := make([]string, 0, len(f.reporters))
	for format := range f.reporters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}
