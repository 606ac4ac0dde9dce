package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/terracomply/terracomply/pkg/config"
	"github.com/terracomply/terracomply/pkg/logger"
	"github.com/terracomply/terracomply/pkg/policy"
	"github.com/terracomply/terracomply/pkg/tools"
	"github.com/terracomply/terracomply/pkg/types"
)

type stubParser struct {
	resources []types.Resource
	err       error
}

func (s *stubParser) Parse(ctx context.Context, filePath string) ([]types.Resource, error) {
	return s.resources, s.err
}

func (s *stubParser) ParseDirectory(ctx context.Context, dirPath string) ([]types.Resource, error) {
	return s.resources, s.err
}

func (s *stubParser) SupportedExtensions() []string { return []string{".tf"} }

type stubRunner struct {
	name   string
	issues []types.Issue
	err    error
	calls  int
}

func (s *stubRunner) Name() string { return s.name }

func (s *stubRunner) Run(ctx context.Context, target tools.Target) ([]types.Issue, error) {
	s.calls++
	return s.issues, s.err
}

func quietLogger() *logger.Logger {
	return logger.New(nopWriter{}, logger.ErrorLevel+1)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func testBucket() types.Resource {
	return types.Resource{
		Type:       "aws_s3_bucket",
		Name:       "data",
		Attributes: map[string]types.Value{"bucket": types.String("data")},
		Blocks:     map[string][]map[string]types.Value{},
	}
}

func TestAnalyzer_AnalyzeDirectory(t *testing.T) {
	policies := []policy.Definition{{
		Name:          "require-bucket",
		ResourceTypes: []string{"aws_s3_bucket"},
		Rules:         []policy.Rule{policy.PresenceRule{Property: "bucket", Required: true}},
	}}
	runner := &stubRunner{
		name:   "stub",
		issues: []types.Issue{{Source: "stub", Severity: types.SeverityLow, Message: "hello"}},
	}

	a := New(&stubParser{resources: []types.Resource{testBucket()}}, policies, []tools.Runner{runner}, quietLogger())
	report, err := a.AnalyzeDirectory(context.Background(), "infra/")
	if err != nil {
		t.Fatalf("AnalyzeDirectory: %v", err)
	}

	if report.Target != "infra/" {
		t.Errorf("target = %q", report.Target)
	}
	if report.ResourceCount != 1 {
		t.Errorf("resource count = %d, want 1", report.ResourceCount)
	}
	if report.Compliance.ComplianceScore != 100.0 {
		t.Errorf("score = %v, want 100.0", report.Compliance.ComplianceScore)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls)
	}
	if len(report.Issues) != 1 || report.Issues[0].Message != "hello" {
		t.Errorf("issues = %+v", report.Issues)
	}
	if report.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestAnalyzer_SeverityResolution(t *testing.T) {
	clamped := &stubRunner{
		name:   "noisy",
		issues: []types.Issue{{Source: "noisy", Severity: types.SeverityCritical, Message: "a"}},
	}
	raw := &stubRunner{
		name: "plain",
		issues: []types.Issue{
			{Source: "plain", Severity: "HIGH", Message: "b"},
			{Source: "plain", Message: "c"},
		},
	}

	a := New(&stubParser{resources: []types.Resource{testBucket()}}, nil, []tools.Runner{clamped, raw}, quietLogger()).
		WithSeverity(config.SeverityConfig{
			DefaultSeverity: types.SeverityInfo,
			Overrides:       map[string]string{"noisy": types.SeverityLow},
		})
	report, err := a.AnalyzeDirectory(context.Background(), "infra/")
	if err != nil {
		t.Fatalf("AnalyzeDirectory: %v", err)
	}
	if len(report.Issues) != 3 {
		t.Fatalf("issues = %+v, want 3", report.Issues)
	}
	if got := report.Issues[0].Severity; got != types.SeverityLow {
		t.Errorf("overridden tool severity = %q, want %q", got, types.SeverityLow)
	}
	if got := report.Issues[1].Severity; got != types.SeverityHigh {
		t.Errorf("reported severity = %q, want normalized %q", got, types.SeverityHigh)
	}
	if got := report.Issues[2].Severity; got != types.SeverityInfo {
		t.Errorf("unreported severity = %q, want default %q", got, types.SeverityInfo)
	}
}

func TestAnalyzer_ParserErrorAborts(t *testing.T) {
	wantErr := errors.New("boom")
	a := New(&stubParser{err: wantErr}, nil, nil, quietLogger())
	if _, err := a.AnalyzeFile(context.Background(), "main.tf"); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want parser error passed through", err)
	}
}

func TestAnalyzer_MissingToolSkipped(t *testing.T) {
	missing := &stubRunner{
		name: "absent",
		err:  fmt.Errorf("absent: %w", exec.ErrNotFound),
	}
	working := &stubRunner{
		name:   "present",
		issues: []types.Issue{{Source: "present", Message: "found"}},
	}

	a := New(&stubParser{resources: []types.Resource{testBucket()}}, nil, []tools.Runner{missing, working}, quietLogger())
	report, err := a.AnalyzeDirectory(context.Background(), "infra/")
	if err != nil {
		t.Fatalf("AnalyzeDirectory: %v", err)
	}
	if len(report.Issues) != 1 || report.Issues[0].Source != "present" {
		t.Errorf("issues = %+v, want only the working tool's findings", report.Issues)
	}
}

func TestAnalyzer_FailingToolDoesNotAbort(t *testing.T) {
	broken := &stubRunner{name: "broken", err: errors.New("exit status 1")}

	a := New(&stubParser{resources: []types.Resource{testBucket()}}, nil, []tools.Runner{broken}, quietLogger())
	report, err := a.AnalyzeDirectory(context.Background(), "infra/")
	if err != nil {
		t.Fatalf("AnalyzeDirectory: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Errorf("issues = %+v, want none from the failed tool", report.Issues)
	}
	if report.Compliance.TotalPolicies != 0 {
		t.Errorf("compliance = %+v", report.Compliance)
	}
}
