package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/terracomply/terracomply/pkg/types"
)

// TerraformValidate runs `terraform validate` against the target
// directory and converts its JSON diagnostics into issues. The
// directory is initialized with -backend=false first so validation
// works without remote state access.
type TerraformValidate struct {
	// Binary overrides the terraform executable name, mainly for tests.
	Binary string
}

func (t *TerraformValidate) Name() string { return "terraform-validate" }

// validateOutput mirrors the subset of `terraform validate -json` we
// consume.
type validateOutput struct {
	Valid       bool `json:"valid"`
	Diagnostics []struct {
		Severity string `json:"severity"`
		Summary  string `json:"summary"`
		Detail   string `json:"detail"`
		Range    *struct {
			Filename string `json:"filename"`
			Start    struct {
				Line int `json:"line"`
			} `json:"start"`
		} `json:"range"`
	} `json:"diagnostics"`
}

func (t *TerraformValidate) Run(ctx context.Context, target Target) ([]types.Issue, error) {
	binary := t.Binary
	if binary == "" {
		binary = "terraform"
	}

	init := exec.CommandContext(ctx, binary, "init", "-backend=false", "-input=false", "-no-color")
	init.Dir = target.Dir
	if out, err := init.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("terraform init failed: %w: %s", err, bytes.TrimSpace(out))
	}

	validate := exec.CommandContext(ctx, binary, "validate", "-json")
	validate.Dir = target.Dir
	// validate exits non-zero when the configuration is invalid; the
	// JSON on stdout is still the result we want.
	out, err := validate.Output()
	if len(out) == 0 && err != nil {
		return nil, fmt.Errorf("terraform validate failed: %w", err)
	}

	var result validateOutput
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("failed to parse terraform validate output: %w", err)
	}

	issues := make([]types.Issue, 0, len(result.Diagnostics))
	for _, diag := range result.Diagnostics {
		issue := types.Issue{
			Source:   t.Name(),
			Severity: terraformSeverity(diag.Severity),
			Message:  diag.Summary,
		}
		if diag.Detail != "" {
			issue.Message = fmt.Sprintf("%s: %s", diag.Summary, diag.Detail)
		}
		if diag.Range != nil {
			issue.File = diag.Range.Filename
			issue.Line = diag.Range.Start.Line
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

func terraformSeverity(s string) string {
	switch s {
	case "error":
		return types.SeverityHigh
	case "warning":
		return types.SeverityMedium
	default:
		return types.SeverityInfo
	}
}
