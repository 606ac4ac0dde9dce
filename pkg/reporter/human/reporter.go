// Package human writes analysis reports in a terminal-friendly layout.
package human

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/terracomply/terracomply/pkg/types"
)

// Reporter writes the report for human consumption: a summary header,
// per-policy sections with their violations, and tool findings last.
type Reporter struct{}

// New creates a new human-readable reporter.
func New() *Reporter {
	return &Reporter{}
}

// Write writes the report to the given writer in human-readable format.
func (r *Reporter) Write(ctx context.Context, report *types.Report, writer io.Writer) error {
	fmt.Fprintf(writer, "\n%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(writer, "Terracomply Compliance Report\n")
	fmt.Fprintf(writer, "Target:    %s\n", report.Target)
	fmt.Fprintf(writer, "Generated: %s\n", report.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "%s\n\n", strings.Repeat("=", 80))

	c := report.Compliance
	fmt.Fprintf(writer, "SUMMARY\n")
	fmt.Fprintf(writer, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(writer, "Resources Scanned: %d\n", report.ResourceCount)
	fmt.Fprintf(writer, "Policies Checked:  %d\n", c.TotalPolicies)
	fmt.Fprintf(writer, "Passed:            %d\n", c.PassedPolicies)
	fmt.Fprintf(writer, "Failed:            %d\n", c.FailedPolicies)
	fmt.Fprintf(writer, "Compliance Score:  %.1f%%\n\n", c.ComplianceScore)

	if len(c.Results) > 0 {
		fmt.Fprintf(writer, "POLICIES\n")
		fmt.Fprintf(writer, "%s\n\n", strings.Repeat("-", 40))
		for _, result := range c.Results {
			r.writePolicy(writer, result)
		}
	}

	if len(report.Issues) > 0 {
		fmt.Fprintf(writer, "TOOL FINDINGS\n")
		fmt.Fprintf(writer, "%s\n\n", strings.Repeat("-", 40))
		for i, issue := range report.Issues {
			r.writeIssue(writer, issue, i+1)
		}
		fmt.Fprintln(writer)
	}

	fmt.Fprintf(writer, "%s\n", strings.Repeat("=", 80))
	if c.FailedPolicies == 0 {
		fmt.Fprintf(writer, "All policies passed.\n\n")
	} else {
		fmt.Fprintf(writer, "%d polic%s failed. See violations above.\n\n",
			c.FailedPolicies, pluralY(c.FailedPolicies))
	}
	return nil
}

func (r *Reporter) writePolicy(writer io.Writer, result types.PolicyResult) {
	mark := "PASS"
	if result.Status == types.StatusFailed {
		mark = "FAIL"
	}
	fmt.Fprintf(writer, "[%s] %s\n", mark, result.PolicyName)
	if result.Description != "" {
		fmt.Fprintf(writer, "       %s\n", result.Description)
	}
	fmt.Fprintf(writer, "       Applicable resources: %d, violations: %d\n",
		result.ApplicableResourceCount, result.ViolationCount)
	for _, v := range result.Violations {
		fmt.Fprintf(writer, "       - %s.%s: %s (%s)\n", v.ResourceType, v.ResourceName, v.Message, v.Rule)
	}
	fmt.Fprintln(writer)
}

func (r *Reporter) writeIssue(writer io.Writer, issue types.Issue, index int) {
	fmt.Fprintf(writer, "%d. [%s/%s] %s\n", index, issue.Source, strings.ToUpper(issue.Severity), issue.Message)
	if issue.File != "" {
		fmt.Fprintf(writer, "   Location: %s:%d\n", issue.File, issue.Line)
	}
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// Format returns the format this reporter outputs.
func (r *Reporter) Format() string {
	return "human"
}
