// Package analyzer coordinates the analysis workflow: parse resources,
// evaluate the policy set, run external tools, assemble the report.
package analyzer

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/terracomply/terracomply/pkg/config"
	"github.com/terracomply/terracomply/pkg/logger"
	"github.com/terracomply/terracomply/pkg/parser"
	"github.com/terracomply/terracomply/pkg/policy"
	"github.com/terracomply/terracomply/pkg/tools"
	"github.com/terracomply/terracomply/pkg/types"
)

// Analyzer ties a parser, a loaded policy set, and a set of tool
// runners together. Policies and runners are fixed at construction; an
// Analyzer is safe for repeated use.
type Analyzer struct {
	parser   parser.Parser
	policies []policy.Definition
	runners  []tools.Runner
	severity config.SeverityConfig
	log      *logger.Logger
}

// New creates an analyzer. runners may be empty; log may be nil, in
// which case the default logger is used.
func New(p parser.Parser, policies []policy.Definition, runners []tools.Runner, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Default()
	}
	return &Analyzer{
		parser:   p,
		policies: policies,
		runners:  runners,
		log:      log,
	}
}

// WithSeverity sets the severity configuration applied to tool
// findings. The zero value lowercases reported severities and falls
// back to medium.
func (a *Analyzer) WithSeverity(severity config.SeverityConfig) *Analyzer {
	a.severity = severity
	return a
}

// AnalyzeFile analyzes a single configuration file.
func (a *Analyzer) AnalyzeFile(ctx context.Context, filePath string) (*types.Report, error) {
	resources, err := a.parser.Parse(ctx, filePath)
	if err != nil {
		return nil, err
	}
	return a.assemble(ctx, filePath, resources)
}

// AnalyzeDirectory analyzes every compatible file in a directory.
func (a *Analyzer) AnalyzeDirectory(ctx context.Context, dirPath string) (*types.Report, error) {
	resources, err := a.parser.ParseDirectory(ctx, dirPath)
	if err != nil {
		return nil, err
	}
	return a.assemble(ctx, dirPath, resources)
}

func (a *Analyzer) assemble(ctx context.Context, target string, resources []types.Resource) (*types.Report, error) {
	compliance, err := policy.Check(ctx, resources, a.policies)
	if err != nil {
		return nil, err
	}

	report := &types.Report{
		Timestamp:     time.Now().UTC(),
		Target:        target,
		ResourceCount: len(resources),
		Compliance:    *compliance,
	}

	for _, runner := range a.runners {
		issues, err := runner.Run(ctx, tools.Target{Dir: target, Resources: resources})
		if err != nil {
			// A missing binary is an environment gap, not an analysis
			// failure; any other tool error is logged and the rest of
			// the analysis proceeds.
			if errors.Is(err, exec.ErrNotFound) {
				a.log.Warn("tool %s not installed, skipping", runner.Name())
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.log.Error("tool %s failed: %v", runner.Name(), err)
			continue
		}
		a.log.Debug("tool %s reported %d issue(s)", runner.Name(), len(issues))
		for _, issue := range issues {
			issue.Severity = a.severity.Resolve(runner.Name(), issue.Severity)
			report.Issues = append(report.Issues, issue)
		}
	}

	return report, nil
}
