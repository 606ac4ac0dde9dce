package json

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/terracomply/terracomply/pkg/types"
)

func sampleReport() *types.Report {
	return &types.Report{
		Timestamp:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Target:        "infra/",
		ResourceCount: 2,
		Compliance: types.ComplianceReport{
			TotalPolicies:   2,
			PassedPolicies:  1,
			FailedPolicies:  1,
			ComplianceScore: 50.0,
			Results: []types.PolicyResult{
				{
					PolicyName: "s3-encryption",
					Status:     types.StatusFailed,
					Violations: []types.Violation{{
						PolicyName:   "s3-encryption",
						ResourceType: "aws_s3_bucket",
						ResourceName: "data",
						Rule:         "presence(server_side_encryption_configuration)",
						Message:      `required property "server_side_encryption_configuration" is not set`,
					}},
					ViolationCount:          1,
					ApplicableResourceCount: 1,
				},
				{
					PolicyName: "tagging",
					Status:     types.StatusPassed,
					Violations: []types.Violation{},
				},
			},
		},
		Issues: []types.Issue{{
			Source:   "tflint",
			Severity: types.SeverityMedium,
			Message:  "unused variable",
			File:     "vars.tf",
			Line:     3,
		}},
	}
}

func TestReporter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := New().Write(context.Background(), sampleReport(), &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var decoded types.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Compliance.ComplianceScore != 50.0 {
		t.Errorf("score = %v, want 50.0", decoded.Compliance.ComplianceScore)
	}
	if decoded.Compliance.Results[0].Violations[0].Rule != "presence(server_side_encryption_configuration)" {
		t.Errorf("violation rule = %q", decoded.Compliance.Results[0].Violations[0].Rule)
	}
	if len(decoded.Issues) != 1 || decoded.Issues[0].Source != "tflint" {
		t.Errorf("issues = %+v", decoded.Issues)
	}
}

func TestReporter_PrettyAndCompact(t *testing.T) {
	var pretty, compact bytes.Buffer
	if err := New().Write(context.Background(), sampleReport(), &pretty); err != nil {
		t.Fatal(err)
	}
	if err := NewCompact().Write(context.Background(), sampleReport(), &compact); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(pretty.String(), "\n  ") {
		t.Error("pretty output is not indented")
	}
	if strings.Count(compact.String(), "\n") != 1 {
		t.Error("compact output should be a single line")
	}
}

func TestReporter_SnakeCaseKeys(t *testing.T) {
	var buf bytes.Buffer
	if err := New().Write(context.Background(), sampleReport(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, key := range []string{`"compliance_score"`, `"total_policies"`, `"policy_name"`, `"resource_type"`} {
		if !strings.Contains(out, key) {
			t.Errorf("output missing key %s", key)
		}
	}
}

func TestReporter_Format(t *testing.T) {
	if got := New().Format(); got != "json" {
		t.Errorf("Format() = %q", got)
	}
}
