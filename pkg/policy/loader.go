package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/terracomply/terracomply/pkg/types"
)

// rawDocument mirrors the on-disk policy document shape. YAML being a
// superset of JSON, one decoder covers both formats the loader accepts.
type rawDocument struct {
	Policies []rawPolicy `yaml:"policies"`
}

type rawPolicy struct {
	Name          string    `yaml:"name"`
	Description   string    `yaml:"description"`
	ResourceTypes []string  `yaml:"resource_types"`
	Rules         []rawRule `yaml:"rules"`
}

type rawRule struct {
	Kind          string        `yaml:"kind"`
	Property      string        `yaml:"property"`
	Required      *bool         `yaml:"required"`
	Value         interface{}   `yaml:"value"`
	RequiredKeys  []string      `yaml:"required_keys"`
	AllowedValues []interface{} `yaml:"allowed_values"`
	Block         string        `yaml:"block"`
	Disallowed    []rawCombo    `yaml:"disallowed"`
}

type rawCombo struct {
	CIDRBlocks []string `yaml:"cidr_blocks"`
	Ports      []int    `yaml:"ports"`
}

// Load parses one policy document. source names the document in error
// messages. Policy names must be unique within the document.
func Load(data []byte, source string) ([]Definition, error) {
	var doc rawDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy document %s: %w", source, err)
	}

	defs := make([]Definition, 0, len(doc.Policies))
	seen := make(map[string]bool, len(doc.Policies))
	for i, raw := range doc.Policies {
		def, err := buildDefinition(raw, source, i)
		if err != nil {
			return nil, err
		}
		if seen[def.Name] {
			return nil, errDefinition(source, def.Name, "duplicate policy name")
		}
		seen[def.Name] = true
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadFile loads policy definitions from a single file.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Load(data, path)
}

// LoadDirectory loads and merges every .yml, .yaml, and .json policy
// document in a directory, in sorted file order. Policy names must be
// unique across the merged set.
func LoadDirectory(dirPath string) ([]Definition, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yml", ".yaml", ".json":
			files = append(files, filepath.Join(dirPath, entry.Name()))
		}
	}
	sort.Strings(files)

	var sets [][]Definition
	for _, file := range files {
		defs, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		sets = append(sets, defs)
	}
	return Merge(sets...)
}

// Merge concatenates policy sets, rejecting duplicate policy names.
func Merge(sets ...[]Definition) ([]Definition, error) {
	var merged []Definition
	seen := make(map[string]bool)
	for _, set := range sets {
		for _, def := range set {
			if seen[def.Name] {
				return nil, errDefinition("", def.Name, "duplicate policy name across merged sources")
			}
			seen[def.Name] = true
			merged = append(merged, def)
		}
	}
	return merged, nil
}

func buildDefinition(raw rawPolicy, source string, index int) (Definition, error) {
	label := raw.Name
	if label == "" {
		label = fmt.Sprintf("policies[%d]", index)
	}

	if raw.Name == "" {
		return Definition{}, errDefinition(source, label, "missing required field %q", "name")
	}
	if len(raw.ResourceTypes) == 0 {
		return Definition{}, errDefinition(source, label, "missing required field %q", "resource_types")
	}
	if len(raw.Rules) == 0 {
		return Definition{}, errDefinition(source, label, "missing required field %q", "rules")
	}

	rules := make([]Rule, 0, len(raw.Rules))
	for i, rr := range raw.Rules {
		rule, err := buildRule(rr, source, label, i)
		if err != nil {
			return Definition{}, err
		}
		rules = append(rules, rule)
	}

	return Definition{
		Name:          raw.Name,
		Description:   raw.Description,
		ResourceTypes: raw.ResourceTypes,
		Rules:         rules,
	}, nil
}

func buildRule(raw rawRule, source, policy string, index int) (Rule, error) {
	switch RuleKind(raw.Kind) {
	case KindPresence:
		if raw.Property == "" {
			return nil, errDefinition(source, policy, "rules[%d]: presence rule requires %q", index, "property")
		}
		required := true
		if raw.Required != nil {
			required = *raw.Required
		}
		return PresenceRule{Property: raw.Property, Required: required}, nil

	case KindValue:
		if raw.Property == "" {
			return nil, errDefinition(source, policy, "rules[%d]: value rule requires %q", index, "property")
		}
		if raw.Value == nil {
			return nil, errDefinition(source, policy, "rules[%d]: value rule requires %q", index, "value")
		}
		val, err := valueFromInterface(raw.Value)
		if err != nil {
			return nil, errDefinition(source, policy, "rules[%d]: %v", index, err)
		}
		return ValueRule{Property: raw.Property, RequiredValue: val}, nil

	case KindRequiredKeys:
		if raw.Property == "" {
			return nil, errDefinition(source, policy, "rules[%d]: required_keys rule requires %q", index, "property")
		}
		if len(raw.RequiredKeys) == 0 {
			return nil, errDefinition(source, policy, "rules[%d]: required_keys rule requires a non-empty %q list", index, "required_keys")
		}
		return RequiredKeysRule{Property: raw.Property, RequiredKeys: raw.RequiredKeys}, nil

	case KindAllowedValues:
		if raw.Property == "" {
			return nil, errDefinition(source, policy, "rules[%d]: allowed_values rule requires %q", index, "property")
		}
		if len(raw.AllowedValues) == 0 {
			return nil, errDefinition(source, policy, "rules[%d]: allowed_values rule requires a non-empty %q list", index, "allowed_values")
		}
		allowed := make([]types.Value, 0, len(raw.AllowedValues))
		for _, av := range raw.AllowedValues {
			val, err := valueFromInterface(av)
			if err != nil {
				return nil, errDefinition(source, policy, "rules[%d]: %v", index, err)
			}
			allowed = append(allowed, val)
		}
		return AllowedValuesRule{Property: raw.Property, AllowedValues: allowed}, nil

	case KindRestriction:
		if raw.Block == "" {
			return nil, errDefinition(source, policy, "rules[%d]: restriction rule requires %q", index, "block")
		}
		if len(raw.Disallowed) == 0 {
			return nil, errDefinition(source, policy, "rules[%d]: restriction rule requires a non-empty %q list", index, "disallowed")
		}
		combos := make([]Combo, 0, len(raw.Disallowed))
		for j, rc := range raw.Disallowed {
			if len(rc.CIDRBlocks) == 0 || len(rc.Ports) == 0 {
				return nil, errDefinition(source, policy, "rules[%d]: disallowed[%d] requires both %q and %q", index, j, "cidr_blocks", "ports")
			}
			combos = append(combos, Combo{CIDRBlocks: rc.CIDRBlocks, Ports: rc.Ports})
		}
		return RestrictionRule{Block: raw.Block, Disallowed: combos}, nil

	case "":
		return nil, errDefinition(source, policy, "rules[%d]: missing rule kind", index)
	default:
		return nil, errDefinition(source, policy, "rules[%d]: unknown rule kind %q", index, raw.Kind)
	}
}

// valueFromInterface converts a decoded YAML/JSON scalar or composite
// into a Value. Policy documents carry literals only; there is no
// Reference form on the policy side.
func valueFromInterface(v interface{}) (types.Value, error) {
	switch val := v.(type) {
	case string:
		return types.String(val), nil
	case bool:
		return types.Boolean(val), nil
	case int:
		return types.Number(float64(val)), nil
	case int64:
		return types.Number(float64(val)), nil
	case float64:
		return types.Number(val), nil
	case []interface{}:
		items := make([]types.Value, 0, len(val))
		for _, item := range val {
			converted, err := valueFromInterface(item)
			if err != nil {
				return types.Value{}, err
			}
			items = append(items, converted)
		}
		return types.ListOf(items...), nil
	case map[string]interface{}:
		entries := make(map[string]types.Value, len(val))
		for k, item := range val {
			converted, err := valueFromInterface(item)
			if err != nil {
				return types.Value{}, err
			}
			entries[k] = converted
		}
		return types.MapOf(entries), nil
	case nil:
		return types.Value{}, fmt.Errorf("null is not a valid rule value")
	default:
		return types.Value{}, fmt.Errorf("unsupported rule value type %T", v)
	}
}
