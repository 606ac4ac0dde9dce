package terraform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/terracomply/terracomply/pkg/logger"
	"github.com/terracomply/terracomply/pkg/types"
)

// Parser implements the parser.Parser interface for Terraform-style
// configuration files. It is a structural parser: it extracts resource
// blocks, attributes, and nested blocks without evaluating expressions;
// unresolved expressions surface as opaque Reference values.
type Parser struct {
	builder *Builder
	log     *logger.Logger
}

// New creates a parser with the default repeatable block kinds.
func New() *Parser {
	log := logger.Default()
	return &Parser{builder: NewBuilder(nil, log), log: log}
}

// WithRepeatableBlocks overrides the nested block kinds that accumulate
// into lists instead of overwriting.
func (p *Parser) WithRepeatableBlocks(kinds []string) *Parser {
	p.builder = NewBuilder(kinds, p.log)
	return p
}

// WithLogger sets a custom logger for the parser.
func (p *Parser) WithLogger(log *logger.Logger) *Parser {
	p.log = log
	p.builder.log = log
	return p
}

// Parse parses a single configuration file into resources.
func (p *Parser) Parse(ctx context.Context, filePath string) ([]types.Resource, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	return p.builder.Build(filePath, string(content))
}

// ParseDirectory parses every .tf file in a directory, in sorted file
// order, and concatenates the results into a single resource list.
func (p *Parser) ParseDirectory(ctx context.Context, dirPath string) ([]types.Resource, error) {
	files, err := filepath.Glob(filepath.Join(dirPath, "*.tf"))
	if err != nil {
		return nil, fmt.Errorf("failed to list .tf files: %w", err)
	}
	sort.Strings(files)

	var all []types.Resource
	for _, file := range files {
		resources, err := p.Parse(ctx, file)
		if err != nil {
			return nil, err
		}
		all = append(all, resources...)
	}
	p.log.Debug("parsed %d resources from %d files in %s", len(all), len(files), dirPath)
	return all, nil
}

// SupportedExtensions returns the file extensions this parser supports.
func (p *Parser) SupportedExtensions() []string {
	return []string{".tf"}
}
