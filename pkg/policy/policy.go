// Package policy defines declarative compliance policies, loads them
// from YAML/JSON documents, and evaluates them against parsed
// resources.
package policy

import (
	"fmt"

	"github.com/terracomply/terracomply/pkg/types"
)

// Definition is one named policy: a set of rules restricting resources
// of the listed types. Definitions are plain values; a loaded policy
// set is passed explicitly into evaluation and lives only for the
// duration of one call.
type Definition struct {
	Name          string
	Description   string
	ResourceTypes []string
	Rules         []Rule
}

// RuleKind identifies a rule variant. The set is closed: the loader
// rejects unknown kinds so an unrecognized rule can never silently
// produce a PASSED verdict.
type RuleKind string

const (
	KindPresence      RuleKind = "presence"
	KindValue         RuleKind = "value"
	KindRequiredKeys  RuleKind = "required_keys"
	KindAllowedValues RuleKind = "allowed_values"
	KindRestriction   RuleKind = "restriction"
)

// Rule is a sealed union over the rule variants. Evaluation dispatches
// on the concrete type with an exhaustive switch; adding a kind means
// adding a case, not a string comparison.
type Rule interface {
	Kind() RuleKind
	sealed()
}

// PresenceRule requires an attribute or block to exist. Presence is
// key existence only: an explicit false, empty string, or empty list
// still counts as present.
type PresenceRule struct {
	Property string
	Required bool
}

func (PresenceRule) Kind() RuleKind { return KindPresence }
func (PresenceRule) sealed()        {}

// ValueRule requires an attribute to exist and deep-equal
// RequiredValue. Equality is type-sensitive.
type ValueRule struct {
	Property      string
	RequiredValue types.Value
}

func (ValueRule) Kind() RuleKind { return KindValue }
func (ValueRule) sealed()        {}

// RequiredKeysRule requires an attribute to be a map containing every
// listed key. Missing keys are reported together in one violation.
type RequiredKeysRule struct {
	Property     string
	RequiredKeys []string
}

func (RequiredKeysRule) Kind() RuleKind { return KindRequiredKeys }
func (RequiredKeysRule) sealed()        {}

// AllowedValuesRule restricts a present attribute to an allow-list.
// An absent attribute passes vacuously; combine with a PresenceRule
// when both presence and allow-listing are required.
type AllowedValuesRule struct {
	Property      string
	AllowedValues []types.Value
}

func (AllowedValuesRule) Kind() RuleKind { return KindAllowedValues }
func (AllowedValuesRule) sealed()        {}

// Combo is one disallowed CIDR/port combination. Within a combo both
// sides must intersect a block entry for it to match.
type Combo struct {
	CIDRBlocks []string
	Ports      []int
}

// RestrictionRule flags entries of a repeatable block whose CIDR set
// and port span both intersect the same disallowed combo. One
// violation is emitted per matching entry, not per combo.
type RestrictionRule struct {
	Block      string
	Disallowed []Combo
}

func (RestrictionRule) Kind() RuleKind { return KindRestriction }
func (RestrictionRule) sealed()        {}

// DefinitionError reports a structurally invalid policy document:
// missing required fields, an unknown rule kind, or a duplicate policy
// name across merged sources. It is fatal for the whole policy-loading
// step.
type DefinitionError struct {
	Source string
	Policy string
	Msg    string
}

func (e *DefinitionError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: policy %s: %s", e.Source, e.Policy, e.Msg)
	}
	return fmt.Sprintf("policy %s: %s", e.Policy, e.Msg)
}

func errDefinition(source, policy, format string, args ...interface{}) error {
	return &DefinitionError{Source: source, Policy: policy, Msg: fmt.Sprintf(format, args...)}
}
