package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage"
	"github.com/open-policy-agent/opa/storage/inmem"

	"github.com/terracomply/terracomply/pkg/types"
)

// Rego evaluates user-supplied rego modules against every extracted
// resource and reports denials as issues. It complements the built-in
// rule kinds for checks that need arbitrary logic; its findings are
// display-only like any other tool's.
type Rego struct {
	compiler *ast.Compiler
	store    storage.Store
	modules  map[string]*ast.Module
}

// NewRego returns a runner with no modules loaded. Load modules before
// calling Run.
func NewRego() *Rego {
	return &Rego{
		store:   inmem.New(),
		modules: make(map[string]*ast.Module),
	}
}

func (r *Rego) Name() string { return "rego" }

// LoadDirectory loads and compiles every .rego module in a directory.
func (r *Rego) LoadDirectory(dirPath string) error {
	files, err := filepath.Glob(filepath.Join(dirPath, "*.rego"))
	if err != nil {
		return fmt.Errorf("failed to list rego modules: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no rego modules found in %s", dirPath)
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rego module: %w", err)
		}
		if err := r.LoadModule(file, string(content)); err != nil {
			return err
		}
	}
	return nil
}

// LoadModule parses one rego module and recompiles the loaded set.
func (r *Rego) LoadModule(name, content string) error {
	module, err := ast.ParseModule(name, content)
	if err != nil {
		return fmt.Errorf("failed to parse rego module %s: %w", name, err)
	}
	r.modules[name] = module

	compiler := ast.NewCompiler()
	compiler.Compile(r.modules)
	if compiler.Failed() {
		return fmt.Errorf("failed to compile rego modules: %v", compiler.Errors)
	}
	r.compiler = compiler
	return nil
}

func (r *Rego) Run(ctx context.Context, target Target) ([]types.Issue, error) {
	if r.compiler == nil {
		return nil, fmt.Errorf("no rego modules loaded")
	}

	var issues []types.Issue
	for _, resource := range target.Resources {
		found, err := r.evaluateResource(ctx, resource)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate resource %s: %w", resource.Address(), err)
		}
		issues = append(issues, found...)
	}
	return issues, nil
}

func (r *Rego) evaluateResource(ctx context.Context, resource types.Resource) ([]types.Issue, error) {
	attributes := make(map[string]interface{}, len(resource.Attributes))
	for name, value := range resource.Attributes {
		attributes[name] = value.Interface()
	}
	blocks := make(map[string]interface{}, len(resource.Blocks))
	for kind, entries := range resource.Blocks {
		converted := make([]interface{}, len(entries))
		for i, entry := range entries {
			m := make(map[string]interface{}, len(entry))
			for k, v := range entry {
				m[k] = v.Interface()
			}
			converted[i] = m
		}
		blocks[kind] = converted
	}

	input := map[string]interface{}{
		"resource": map[string]interface{}{
			"type":       resource.Type,
			"name":       resource.Name,
			"attributes": attributes,
			"blocks":     blocks,
		},
	}

	query := rego.New(
		rego.Query("data.terracomply.deny[x]"),
		rego.Compiler(r.compiler),
		rego.Input(input),
		rego.Store(r.store),
	)
	rs, err := query.Eval(ctx)
	if err != nil {
		return nil, err
	}

	var issues []types.Issue
	for _, result := range rs {
		for _, expr := range result.Expressions {
			issues = append(issues, denialIssue(expr.Value, resource))
		}
	}
	return issues, nil
}

// denialIssue normalizes one deny result. Modules may yield either a
// bare message string or an object with message and severity fields.
func denialIssue(value interface{}, resource types.Resource) types.Issue {
	issue := types.Issue{
		Source:   "rego",
		Severity: types.SeverityMedium,
		File:     resource.Location.File,
		Line:     resource.Location.Line,
	}
	switch v := value.(type) {
	case string:
		issue.Message = v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			issue.Message = msg
		}
		if sev, ok := v["severity"].(string); ok {
			issue.Severity = sev
		}
	default:
		issue.Message = fmt.Sprintf("%v", value)
	}
	if issue.Message == "" {
		issue.Message = fmt.Sprintf("resource %s denied", resource.Address())
	}
	return issue
}
