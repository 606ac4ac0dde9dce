package types

import (
	"fmt"
	"time"
)

// Resource represents one declared infrastructure object extracted from
// a configuration file. It is built once per parse pass and never
// mutated afterwards.
type Resource struct {
	Type       string                        `json:"type"`
	Name       string                        `json:"name"`
	Attributes map[string]Value              `json:"-"`
	Blocks     map[string][]map[string]Value `json:"-"`
	Location   Location                      `json:"location"`
}

// Address returns the canonical type.name form of the resource.
func (r Resource) Address() string {
	return fmt.Sprintf("%s.%s", r.Type, r.Name)
}

// Location represents the source location of a resource or finding.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Status is the verdict of a policy after evaluating every applicable
// resource.
type Status string

const (
	// StatusPassed means no rule produced a violation.
	StatusPassed Status = "PASSED"
	// StatusFailed means at least one rule produced a violation.
	StatusFailed Status = "FAILED"
)

// Violation is a single failed rule evaluation against one resource.
type Violation struct {
	PolicyName   string `json:"policy_name"`
	ResourceType string `json:"resource_type"`
	ResourceName string `json:"resource_name"`
	Rule         string `json:"rule"`
	Message      string `json:"message"`
}

// PolicyResult groups the violations of one policy across all
// applicable resources.
type PolicyResult struct {
	PolicyName              string      `json:"policy_name"`
	Description             string      `json:"description"`
	Status                  Status      `json:"status"`
	ApplicableResourceCount int         `json:"applicable_resource_count"`
	ViolationCount          int         `json:"violation_count"`
	Violations              []Violation `json:"violations"`
}

// ComplianceReport is the aggregate outcome of evaluating a policy set
// against a resource list. ComplianceScore is a percentage rounded to
// one decimal place; an empty policy set scores 100.0.
type ComplianceReport struct {
	TotalPolicies   int            `json:"total_policies"`
	PassedPolicies  int            `json:"passed_policies"`
	FailedPolicies  int            `json:"failed_policies"`
	ComplianceScore float64        `json:"compliance_score"`
	Results         []PolicyResult `json:"results"`
}

// Issue is a finding reported by an external analysis tool. Issues are
// merged with policy violations for display only and never contribute
// to the compliance score.
type Issue struct {
	Source   string `json:"source"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// Report is the final document handed to reporters: the compliance
// verdicts plus any pass-through findings from external tools.
type Report struct {
	Timestamp     time.Time        `json:"timestamp"`
	Target        string           `json:"target"`
	ResourceCount int              `json:"resource_count"`
	Compliance    ComplianceReport `json:"compliance"`
	Issues        []Issue          `json:"issues,omitempty"`
}

// Severity levels for external tool findings.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)
