package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/terracomply/terracomply/pkg/types"
)

// TFLint runs tflint against the target directory and converts its
// JSON issue list into issues.
type TFLint struct {
	Binary string
}

func (t *TFLint) Name() string { return "tflint" }

type tflintOutput struct {
	Issues []struct {
		Rule struct {
			Name     string `json:"name"`
			Severity string `json:"severity"`
		} `json:"rule"`
		Message string `json:"message"`
		Range   struct {
			Filename string `json:"filename"`
			Start    struct {
				Line int `json:"line"`
			} `json:"start"`
		} `json:"range"`
	} `json:"issues"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (t *TFLint) Run(ctx context.Context, target Target) ([]types.Issue, error) {
	binary := t.Binary
	if binary == "" {
		binary = "tflint"
	}

	cmd := exec.CommandContext(ctx, binary, "--format=json", "--chdir", target.Dir)
	// Exit code 2 means issues were found; the JSON is still valid.
	out, err := cmd.Output()
	if len(out) == 0 && err != nil {
		return nil, fmt.Errorf("tflint failed: %w", err)
	}

	var result tflintOutput
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("failed to parse tflint output: %w", err)
	}

	var issues []types.Issue
	for _, found := range result.Issues {
		issues = append(issues, types.Issue{
			Source:   t.Name(),
			Severity: tflintSeverity(found.Rule.Severity),
			Message:  fmt.Sprintf("%s: %s", found.Rule.Name, found.Message),
			File:     found.Range.Filename,
			Line:     found.Range.Start.Line,
		})
	}
	for _, e := range result.Errors {
		issues = append(issues, types.Issue{
			Source:   t.Name(),
			Severity: types.SeverityHigh,
			Message:  e.Message,
		})
	}
	return issues, nil
}

func tflintSeverity(s string) string {
	switch s {
	case "error":
		return types.SeverityHigh
	case "warning":
		return types.SeverityMedium
	case "notice":
		return types.SeverityLow
	default:
		return types.SeverityInfo
	}
}
