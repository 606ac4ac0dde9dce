package parser

import (
	"fmt"
	"strings"
	"sync"
)

// Factory registers parsers and selects one by file extension.
type Factory struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewFactory creates an empty parser factory.
func NewFactory() *Factory {
	return &Factory{parsers: make(map[string]Parser)}
}

// Register registers a parser under a format name.
func (f *Factory) Register(format string, p Parser) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	format = strings.ToLower(format)
	if _, exists := f.parsers[format]; exists {
		return fmt.Errorf("parser already registered for format: %s", format)
	}
	f.parsers[format] = p
	return nil
}

// ByFormat returns the parser registered under the given format name.
func (f *Factory) ByFormat(format string) (Parser, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.parsers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("no parser registered for format: %s", format)
	}
	return p, nil
}

// ByExtension returns the parser that supports the given file
// extension.
func (f *Factory) ByExtension(extension string) (Parser, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	extension = strings.ToLower(extension)
	for _, p := range f.parsers {
		for _, ext := range p.SupportedExtensions() {
			if strings.ToLower(ext) == extension {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("no parser found for extension: %s", extension)
}
