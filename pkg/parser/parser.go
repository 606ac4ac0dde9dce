package parser

import (
	"context"

	"github.com/terracomply/terracomply/pkg/types"
)

// Parser defines the interface for extracting resources from IaC files.
type Parser interface {
	// Parse parses the given file and returns extracted resources
	Parse(ctx context.Context, filePath string) ([]types.Resource, error)

	// ParseDirectory parses all compatible files in a directory
	ParseDirectory(ctx context.Context, dirPath string) ([]types.Resource, error)

	// SupportedExtensions returns the file extensions this parser supports
	SupportedExtensions() []string
}
