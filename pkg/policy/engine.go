package policy

import (
	"fmt"
	"strings"

	"github.com/terracomply/terracomply/pkg/types"
)

// EvaluatePolicy evaluates one policy against a resource list and
// returns its result. Resources whose type is not in the policy's
// resource type set are skipped. Violations are emitted in resource
// declaration order, then rule declaration order, then block-entry
// order, so output is reproducible and diffable.
//
// Evaluation never fails on semantically valid data: a rule naming a
// nonexistent property resolves per its own semantics (a violation or
// a vacuous pass), never an error.
func EvaluatePolicy(def Definition, resources []types.Resource) types.PolicyResult {
	applies := make(map[string]bool, len(def.ResourceTypes))
	for _, rt := range def.ResourceTypes {
		applies[rt] = true
	}

	applicable := 0
	violations := []types.Violation{}
	for _, res := range resources {
		if !applies[res.Type] {
			continue
		}
		applicable++
		for _, rule := range def.Rules {
			violations = append(violations, evaluateRule(def.Name, rule, res)...)
		}
	}

	status := types.StatusPassed
	if len(violations) > 0 {
		status = types.StatusFailed
	}

	return types.PolicyResult{
		PolicyName:              def.Name,
		Description:             def.Description,
		Status:                  status,
		ApplicableResourceCount: applicable,
		ViolationCount:          len(violations),
		Violations:              violations,
	}
}

// evaluateRule dispatches on the concrete rule type. The union is
// closed; the switch is exhaustive over the kinds the loader accepts.
func evaluateRule(policyName string, rule Rule, res types.Resource) []types.Violation {
	switch r := rule.(type) {
	case PresenceRule:
		return evalPresence(policyName, r, res)
	case ValueRule:
		return evalValue(policyName, r, res)
	case RequiredKeysRule:
		return evalRequiredKeys(policyName, r, res)
	case AllowedValuesRule:
		return evalAllowedValues(policyName, r, res)
	case RestrictionRule:
		return evalRestriction(policyName, r, res)
	}
	return nil
}

func evalPresence(policyName string, r PresenceRule, res types.Resource) []types.Violation {
	if !r.Required {
		return nil
	}
	if _, ok := res.Attributes[r.Property]; ok {
		return nil
	}
	if _, ok := res.Blocks[r.Property]; ok {
		return nil
	}
	return []types.Violation{violation(policyName, r, r.Property, res,
		fmt.Sprintf("required property %q is not set", r.Property))}
}

func evalValue(policyName string, r ValueRule, res types.Resource) []types.Violation {
	v, ok := res.Attributes[r.Property]
	if !ok {
		return []types.Violation{violation(policyName, r, r.Property, res,
			fmt.Sprintf("property %q is not set, expected %s", r.Property, r.RequiredValue.Literal()))}
	}
	// References never equal a concrete literal; equality cannot be
	// proven for an unresolved expression.
	if !v.Equal(r.RequiredValue) {
		return []types.Violation{violation(policyName, r, r.Property, res,
			fmt.Sprintf("property %q is %s, expected %s", r.Property, v.Literal(), r.RequiredValue.Literal()))}
	}
	return nil
}

func evalRequiredKeys(policyName string, r RequiredKeysRule, res types.Resource) []types.Violation {
	keyList := strings.Join(r.RequiredKeys, ", ")
	v, ok := res.Attributes[r.Property]
	if !ok {
		return []types.Violation{violation(policyName, r, r.Property, res,
			fmt.Sprintf("property %q is not set (required keys: %s)", r.Property, keyList))}
	}
	if v.Kind != types.MapKind {
		return []types.Violation{violation(policyName, r, r.Property, res,
			fmt.Sprintf("property %q is not a map (required keys: %s)", r.Property, keyList))}
	}

	// One violation listing every missing key, not one per key.
	var missing []string
	for _, key := range r.RequiredKeys {
		if _, present := v.Map[key]; !present {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return []types.Violation{violation(policyName, r, r.Property, res,
		fmt.Sprintf("property %q is missing required keys: %s", r.Property, strings.Join(missing, ", ")))}
}

func evalAllowedValues(policyName string, r AllowedValuesRule, res types.Resource) []types.Violation {
	v, ok := res.Attributes[r.Property]
	if !ok {
		// Absence is not a violation here; that is PresenceRule's job.
		return nil
	}
	for _, allowed := range r.AllowedValues {
		if v.Equal(allowed) {
			return nil
		}
	}
	literals := make([]string, len(r.AllowedValues))
	for i, allowed := range r.AllowedValues {
		literals[i] = allowed.Literal()
	}
	return []types.Violation{violation(policyName, r, r.Property, res,
		fmt.Sprintf("property %q is %s, allowed values: [%s]", r.Property, v.Literal(), strings.Join(literals, ", ")))}
}

func evalRestriction(policyName string, r RestrictionRule, res types.Resource) []types.Violation {
	var violations []types.Violation
	for i, entry := range res.Blocks[r.Block] {
		// Conjunction within one combo, disjunction across combos; one
		// violation per matching entry regardless of how many combos
		// match.
		for _, combo := range r.Disallowed {
			if entryMatchesCombo(entry, combo) {
				violations = append(violations, violation(policyName, r, r.Block, res,
					fmt.Sprintf("block %q entry %d exposes disallowed ports %v to %s",
						r.Block, i, combo.Ports, strings.Join(combo.CIDRBlocks, ", "))))
				break
			}
		}
	}
	return violations
}

// entryMatchesCombo reports whether a block entry's CIDR set intersects
// the combo's CIDR list and its port span intersects the combo's port
// list. CIDRs intersect by exact string equality.
func entryMatchesCombo(entry map[string]types.Value, combo Combo) bool {
	return cidrsIntersect(entryCIDRs(entry), combo.CIDRBlocks) &&
		portsIntersect(entry, combo.Ports)
}

func entryCIDRs(entry map[string]types.Value) []string {
	if v, ok := entry["cidr_blocks"]; ok {
		return v.Strings()
	}
	if v, ok := entry["cidr_block"]; ok {
		return v.Strings()
	}
	return nil
}

func cidrsIntersect(entryCIDRs, disallowed []string) bool {
	for _, have := range entryCIDRs {
		for _, deny := range disallowed {
			if have == deny {
				return true
			}
		}
	}
	return false
}

// portsIntersect checks the entry's port span (from_port..to_port, or
// a single port attribute) against the disallowed port list.
func portsIntersect(entry map[string]types.Value, ports []int) bool {
	from, to, ok := entryPortSpan(entry)
	if !ok {
		return false
	}
	for _, p := range ports {
		if p >= from && p <= to {
			return true
		}
	}
	return false
}

func entryPortSpan(entry map[string]types.Value) (from, to int, ok bool) {
	if v, isSet := entry["port"]; isSet && v.Kind == types.NumberKind {
		p := int(v.Num)
		return p, p, true
	}
	fromVal, haveFrom := entry["from_port"]
	toVal, haveTo := entry["to_port"]
	if !haveFrom || !haveTo || fromVal.Kind != types.NumberKind || toVal.Kind != types.NumberKind {
		return 0, 0, false
	}
	return int(fromVal.Num), int(toVal.Num), true
}

func violation(policyName string, rule Rule, property string, res types.Resource, message string) types.Violation {
	return types.Violation{
		PolicyName:   policyName,
		ResourceType: res.Type,
		ResourceName: res.Name,
		Rule:         fmt.Sprintf("%s(%s)", rule.Kind(), property),
		Message:      message,
	}
}
