package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/terracomply/terracomply/pkg/types"
)

// Checkov runs checkov against the target directory and converts its
// failed checks into issues. Passed checks are dropped.
type Checkov struct {
	Binary string
}

func (c *Checkov) Name() string { return "checkov" }

type checkovResult struct {
	Results struct {
		FailedChecks []checkovCheck `json:"failed_checks"`
	} `json:"results"`
}

type checkovCheck struct {
	CheckID   string `json:"check_id"`
	CheckName string `json:"check_name"`
	Severity  string `json:"severity"`
	FilePath  string `json:"file_path"`
	FileLine  []int  `json:"file_line_range"`
	Resource  string `json:"resource"`
}

func (c *Checkov) Run(ctx context.Context, target Target) ([]types.Issue, error) {
	binary := c.Binary
	if binary == "" {
		binary = "checkov"
	}

	cmd := exec.CommandContext(ctx, binary, "--directory", target.Dir, "--output", "json", "--quiet")
	// Non-zero exit means failed checks; stdout still carries the JSON.
	out, err := cmd.Output()
	if len(out) == 0 && err != nil {
		return nil, fmt.Errorf("checkov failed: %w", err)
	}

	results, err := parseCheckovOutput(out)
	if err != nil {
		return nil, err
	}

	var issues []types.Issue
	for _, result := range results {
		for _, check := range result.Results.FailedChecks {
			issue := types.Issue{
				Source:   c.Name(),
				Severity: checkovSeverity(check.Severity),
				Message:  fmt.Sprintf("%s: %s (%s)", check.CheckID, check.CheckName, check.Resource),
				File:     check.FilePath,
			}
			if len(check.FileLine) > 0 {
				issue.Line = check.FileLine[0]
			}
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

// parseCheckovOutput handles both output shapes checkov emits: a single
// object for one framework, a JSON array when several frameworks ran.
func parseCheckovOutput(data []byte) ([]checkovResult, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var results []checkovResult
		if err := json.Unmarshal(data, &results); err != nil {
			return nil, fmt.Errorf("failed to parse checkov output: %w", err)
		}
		return results, nil
	}
	var result checkovResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse checkov output: %w", err)
	}
	return []checkovResult{result}, nil
}

func checkovSeverity(s string) string {
	switch strings.ToUpper(s) {
	case "CRITICAL":
		return types.SeverityCritical
	case "HIGH":
		return types.SeverityHigh
	case "MEDIUM":
		return types.SeverityMedium
	case "LOW":
		return types.SeverityLow
	default:
		return types.SeverityMedium
	}
}
