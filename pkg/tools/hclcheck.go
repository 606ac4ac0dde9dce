package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/terracomply/terracomply/pkg/types"
)

// insecureACLs are canned object-ACL values that grant anonymous or
// overly broad access.
var insecureACLs = map[string]string{
	"public-read-write":  types.SeverityCritical,
	"public-read":        types.SeverityHigh,
	"authenticated-read": types.SeverityMedium,
}

// HCLCheck parses every .tf file in the target directory with the full
// HCL toolchain and reports syntax diagnostics, plus findings on
// constant attribute values the structural parser treats as opaque. It
// runs in-process and needs no external binary.
type HCLCheck struct{}

func (h *HCLCheck) Name() string { return "hcl-syntax" }

func (h *HCLCheck) Run(ctx context.Context, target Target) ([]types.Issue, error) {
	files, err := filepath.Glob(filepath.Join(target.Dir, "*.tf"))
	if err != nil {
		return nil, fmt.Errorf("failed to list configuration files: %w", err)
	}
	sort.Strings(files)

	var issues []types.Issue
	parser := hclparse.NewParser()
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hclFile, diags := parser.ParseHCLFile(file)
		for _, diag := range diags {
			issues = append(issues, diagnosticIssue(h.Name(), diag))
		}
		if hclFile == nil || diags.HasErrors() {
			continue
		}
		if body, ok := hclFile.Body.(*hclsyntax.Body); ok {
			issues = append(issues, inspectBody(h.Name(), file, body)...)
		}
	}
	return issues, nil
}

func diagnosticIssue(source string, diag *hcl.Diagnostic) types.Issue {
	severity := types.SeverityMedium
	if diag.Severity == hcl.DiagError {
		severity = types.SeverityHigh
	}
	issue := types.Issue{
		Source:   source,
		Severity: severity,
		Message:  diag.Summary,
	}
	if diag.Detail != "" {
		issue.Message = fmt.Sprintf("%s: %s", diag.Summary, diag.Detail)
	}
	if diag.Subject != nil {
		issue.File = diag.Subject.Filename
		issue.Line = diag.Subject.Start.Line
	}
	return issue
}

// inspectBody walks resource blocks and flags constant attribute values
// known to be insecure. Expressions that reference variables are
// skipped; only values provable at parse time are judged.
func inspectBody(source, file string, body *hclsyntax.Body) []types.Issue {
	var issues []types.Issue
	for _, block := range body.Blocks {
		if block.Type != "resource" {
			continue
		}
		address := "resource"
		if len(block.Labels) == 2 {
			address = block.Labels[0] + "." + block.Labels[1]
		}
		for name, attr := range block.Body.Attributes {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() || val.Type() != cty.String {
				continue
			}
			if severity, bad := insecureACLs[val.AsString()]; bad && name == "acl" {
				issues = append(issues, types.Issue{
					Source:   source,
					Severity: severity,
					Message:  fmt.Sprintf("%s grants broad access via acl %q", address, val.AsString()),
					File:     file,
					Line:     attr.SrcRange.Start.Line,
				})
			}
		}
	}
	return issues
}
