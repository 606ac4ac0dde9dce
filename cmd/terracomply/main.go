package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/terracomply/terracomply/pkg/analyzer"
	"github.com/terracomply/terracomply/pkg/config"
	"github.com/terracomply/terracomply/pkg/logger"
	"github.com/terracomply/terracomply/pkg/parser/terraform"
	"github.com/terracomply/terracomply/pkg/policy"
	"github.com/terracomply/terracomply/pkg/reporter"
	"github.com/terracomply/terracomply/pkg/reporter/human"
	jsonreporter "github.com/terracomply/terracomply/pkg/reporter/json"
	"github.com/terracomply/terracomply/pkg/tools"
	"github.com/terracomply/terracomply/pkg/types"
)

var (
	version = "0.1.0"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "terracomply",
		Short: "Compliance checker for Terraform configurations",
		Long: `Terracomply extracts resources from Terraform configurations and
evaluates them against declarative compliance policies. It can also run
external analyzers (terraform validate, tflint, checkov) and merge
their findings into the report.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.Default().SetLevel(logger.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newCheckCmd(),
		newPolicyCmd(),
		newValidateCmd(),
	)

	return rootCmd
}

func newCheckCmd() *cobra.Command {
	var (
		policyPath string
		configFile string
		format     string
		output     string
		failUnder  float64
		skipTools  bool
	)

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Check Terraform files against compliance policies",
		Long:  `Check a Terraform file or directory against the loaded policy set.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			targetPath := args[0]
			log := logger.Default()

			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("policy") {
				cfg.PolicyDir = policyPath
			}
			if cmd.Flags().Changed("fail-under") {
				cfg.FailUnder = failUnder
			}

			policies, err := loadPolicies(cfg.PolicyDir)
			if err != nil {
				return fmt.Errorf("failed to load policies: %w", err)
			}
			log.Debug("loaded %d policy definition(s)", len(policies))

			var runners []tools.Runner
			if !skipTools {
				runners, err = buildRunners(cfg)
				if err != nil {
					return err
				}
			}

			factory := reporter.NewFactory()
			factory.Register(human.New())
			factory.Register(jsonreporter.New())
			rep, err := factory.ByFormat(format)
			if err != nil {
				return err
			}

			tfParser := terraform.New().WithLogger(log)
			if len(cfg.RepeatableBlocks) > 0 {
				tfParser = tfParser.WithRepeatableBlocks(cfg.RepeatableBlocks)
			}
			a := analyzer.New(tfParser, policies, runners, log).WithSeverity(cfg.Severity)

			info, err := os.Stat(targetPath)
			if err != nil {
				return fmt.Errorf("failed to access target path: %w", err)
			}

			var report *types.Report
			if info.IsDir() {
				report, err = a.AnalyzeDirectory(ctx, targetPath)
			} else {
				report, err = a.AnalyzeFile(ctx, targetPath)
			}
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			var writer io.Writer = os.Stdout
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer file.Close()
				writer = file
			}
			if err := rep.Write(ctx, report, writer); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			if report.Compliance.ComplianceScore < cfg.FailUnder {
				return fmt.Errorf("compliance score %.1f%% is below threshold %.1f%%",
					report.Compliance.ComplianceScore, cfg.FailUnder)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&policyPath, "policy", "p", "policies/", "path to policy files")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to configuration file")
	cmd.Flags().StringVarP(&format, "format", "f", "human", "output format (human, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().Float64Var(&failUnder, "fail-under", 0, "exit non-zero when the compliance score is below this percentage")
	cmd.Flags().BoolVar(&skipTools, "skip-tools", false, "skip external analyzers")

	return cmd
}

// buildRunners assembles the enabled tool runners from configuration.
func buildRunners(cfg *config.Config) ([]tools.Runner, error) {
	var runners []tools.Runner
	if cfg.Tools.HCLSyntax {
		runners = append(runners, &tools.HCLCheck{})
	}
	if cfg.Tools.TerraformValidate {
		runners = append(runners, &tools.TerraformValidate{})
	}
	if cfg.Tools.TFLint {
		runners = append(runners, &tools.TFLint{})
	}
	if cfg.Tools.Checkov {
		runners = append(runners, &tools.Checkov{})
	}
	if cfg.Tools.Rego.Enabled {
		rego := tools.NewRego()
		if err := rego.LoadDirectory(cfg.Tools.Rego.PolicyDir); err != nil {
			return nil, fmt.Errorf("failed to load rego modules: %w", err)
		}
		runners = append(runners, rego)
	}
	return runners, nil
}

// loadPolicies loads definitions from a file or directory path.
func loadPolicies(path string) ([]policy.Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return policy.LoadDirectory(path)
	}
	return policy.LoadFile(path)
}

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage compliance policies",
		Long:  `Inspect the policy definitions terracomply will evaluate.`,
	}

	cmd.AddCommand(
		newPolicyListCmd(),
		newPolicyShowCmd(),
	)

	return cmd
}

func newPolicyListCmd() *cobra.Command {
	var (
		policyPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			policies, err := loadPolicies(policyPath)
			if err != nil {
				return fmt.Errorf("failed to load policies: %w", err)
			}

			if len(policies) == 0 {
				fmt.Printf("No policies found in %s\n", policyPath)
				return nil
			}

			type policyInfo struct {
				Name          string   `json:"name"`
				Description   string   `json:"description"`
				ResourceTypes []string `json:"resource_types"`
				RuleCount     int      `json:"rule_count"`
			}
			infos := make([]policyInfo, len(policies))
			for i, def := range policies {
				infos[i] = policyInfo{
					Name:          def.Name,
					Description:   def.Description,
					ResourceTypes: def.ResourceTypes,
					RuleCount:     len(def.Rules),
				}
			}

			switch format {
			case "json":
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(infos)
			default:
				fmt.Printf("Available policies (%d):\n\n", len(infos))
				for _, info := range infos {
					fmt.Printf("  %s (%d rules)\n", info.Name, info.RuleCount)
					if info.Description != "" {
						fmt.Printf("    %s\n", info.Description)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&policyPath, "policy", "p", "policies/", "path to policy files")
	cmd.Flags().StringVarP(&format, "format", "f", "human", "output format (human, json)")

	return cmd
}

func newPolicyShowCmd() *cobra.Command {
	var policyPath string

	cmd := &cobra.Command{
		Use:   "show [policy-name]",
		Short: "Show policy details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			policies, err := loadPolicies(policyPath)
			if err != nil {
				return fmt.Errorf("failed to load policies: %w", err)
			}

			for _, def := range policies {
				if def.Name != name {
					continue
				}
				fmt.Printf("Name:           %s\n", def.Name)
				if def.Description != "" {
					fmt.Printf("Description:    %s\n", def.Description)
				}
				fmt.Printf("Resource types: %v\n", def.ResourceTypes)
				fmt.Printf("Rules:\n")
				for i, rule := range def.Rules {
					fmt.Printf("  %d. %s\n", i+1, rule.Kind())
				}
				return nil
			}
			return fmt.Errorf("policy %q not found in %s", name, policyPath)
		},
	}

	cmd.Flags().StringVarP(&policyPath, "policy", "p", "policies/", "path to policy files")

	return cmd
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate policy files",
		Long:  `Validate that policy files are well formed and every rule has a known kind.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			policies, err := loadPolicies(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			fmt.Printf("OK: %d policy definition(s) valid\n", len(policies))
			for _, def := range policies {
				fmt.Printf("  %s (%d rules)\n", def.Name, len(def.Rules))
			}
			return nil
		},
	}

	return cmd
}
