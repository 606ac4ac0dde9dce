// Package tools runs external analyzers against a configuration
// directory and normalizes their findings. Tool findings are
// pass-through diagnostics: they appear alongside policy violations in
// reports but never affect the compliance score.
package tools

import (
	"context"

	"github.com/terracomply/terracomply/pkg/types"
)

// Target is what a runner analyzes: the configuration directory on
// disk and the resources already extracted from it. Subprocess-backed
// runners use Dir; in-process runners use Resources.
type Target struct {
	Dir       string
	Resources []types.Resource
}

// Runner is one external analysis tool. Run returns the tool's
// findings, or an error when the tool itself failed to execute. A tool
// reporting problems with the configuration is a successful run with a
// non-empty issue list.
//
// Runners backed by a subprocess return exec.ErrNotFound (wrapped) when
// the binary is not installed, so callers can skip missing tools
// instead of failing the whole analysis.
type Runner interface {
	// Name identifies the tool in issue sources and log lines.
	Name() string
	// Run analyzes the target and returns normalized findings.
	Run(ctx context.Context, target Target) ([]types.Issue, error)
}
