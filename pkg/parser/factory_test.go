package parser

import (
	"context"
	"testing"

	"github.com/terracomply/terracomply/pkg/types"
)

type fakeParser struct{ exts []string }

func (f *fakeParser) Parse(ctx context.Context, filePath string) ([]types.Resource, error) {
	return nil, nil
}

func (f *fakeParser) ParseDirectory(ctx context.Context, dirPath string) ([]types.Resource, error) {
	return nil, nil
}

func (f *fakeParser) SupportedExtensions() []string { return f.exts }

func TestFactory(t *testing.T) {
	factory := NewFactory()
	tf := &fakeParser{exts: []string{".tf"}}

	if err := factory.Register("terraform", tf); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := factory.Register("Terraform", tf); err == nil {
		t.Error("expected error for duplicate registration (case-insensitive)")
	}

	if got, err := factory.ByFormat("TERRAFORM"); err != nil || got != Parser(tf) {
		t.Errorf("ByFormat = %v, %v", got, err)
	}
	if _, err := factory.ByFormat("cloudformation"); err == nil {
		t.Error("expected error for unknown format")
	}

	if got, err := factory.ByExtension(".TF"); err != nil || got != Parser(tf) {
		t.Errorf("ByExtension = %v, %v", got, err)
	}
	if _, err := factory.ByExtension(".yaml"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
