package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/terracomply/terracomply/pkg/types"
)

func writeTF(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestHCLCheck_CleanFile(t *testing.T) {
	dir := t.TempDir()
	writeTF(t, dir, "main.tf", `
resource "aws_s3_bucket" "data" {
  bucket = "my-bucket"
  acl    = "private"
}
`)

	issues, err := (&HCLCheck{}).Run(context.Background(), Target{Dir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %+v, want none", issues)
	}
}

func TestHCLCheck_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	writeTF(t, dir, "broken.tf", `
resource "aws_s3_bucket" "data" {
  bucket =
`)

	issues, err := (&HCLCheck{}).Run(context.Background(), Target{Dir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(issues) == 0 {
		t.Fatal("expected syntax issues")
	}
	if issues[0].Source != "hcl-syntax" {
		t.Errorf("source = %q", issues[0].Source)
	}
	if issues[0].Severity != types.SeverityHigh {
		t.Errorf("severity = %q, want high for a syntax error", issues[0].Severity)
	}
	if issues[0].Line == 0 {
		t.Error("expected a line number")
	}
}

func TestHCLCheck_InsecureACL(t *testing.T) {
	dir := t.TempDir()
	writeTF(t, dir, "acl.tf", `
resource "aws_s3_bucket" "open" {
  bucket = "my-bucket"
  acl    = "public-read-write"
}
`)

	issues, err := (&HCLCheck{}).Run(context.Background(), Target{Dir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("issues = %+v, want exactly one", issues)
	}
	if issues[0].Severity != types.SeverityCritical {
		t.Errorf("severity = %q, want critical for public-read-write", issues[0].Severity)
	}
	if !strings.Contains(issues[0].Message, "aws_s3_bucket.open") {
		t.Errorf("message = %q, want the resource address named", issues[0].Message)
	}
}

func TestHCLCheck_VariableACLSkipped(t *testing.T) {
	dir := t.TempDir()
	writeTF(t, dir, "var.tf", `
variable "acl" {
  default = "private"
}

resource "aws_s3_bucket" "data" {
  acl = var.acl
}
`)

	issues, err := (&HCLCheck{}).Run(context.Background(), Target{Dir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %+v, want none: non-constant values are not judged", issues)
	}
}

func TestHCLCheck_EmptyDirectory(t *testing.T) {
	issues, err := (&HCLCheck{}).Run(context.Background(), Target{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %+v, want none", issues)
	}
}
