// Package rules builds the per-entity policy sent with every configuration.import call.
package rules

import (
	"bytes"
	"sort"

	"github.com/goccy/go-yaml"
)

// Policy keys understood by configuration.import.
const (
	CreateMissing  = "createMissing"
	UpdateExisting = "updateExisting"
	DeleteMissing  = "deleteMissing"
)

// RuleSet maps an entity type to its policy flags.
type RuleSet map[string]map[string]bool

// Flags are the three policy switches exposed on the command line.
type Flags struct {
	CreateMissing  bool
	UpdateExisting bool
	DeleteMissing  bool
}

// DefaultFlags create and update but never delete.
func DefaultFlags() Flags {
	return Flags{CreateMissing: true, UpdateExisting: true}
}

var (
	allKeys      = []string{CreateMissing, UpdateExisting, DeleteMissing}
	noDelete     = []string{CreateMissing, UpdateExisting}
	linkageKeys  = []string{CreateMissing, DeleteMissing}
	applicableTo = map[string][]string{
		"discoveryRules":     allKeys,
		"graphs":             allKeys,
		"host_groups":        noDelete,
		"template_groups":    noDelete,
		"hosts":              noDelete,
		"httptests":          allKeys,
		"images":             noDelete,
		"items":              allKeys,
		"maps":               noDelete,
		"mediaTypes":         noDelete,
		"templateLinkage":    linkageKeys,
		"templates":          noDelete,
		"templateDashboards": allKeys,
		"triggers":           allKeys,
		"valueMaps":          allKeys,
	}
)

// EntityTypes returns every entity type known to the builder, sorted.
func EntityTypes() []string {
	out := make([]string, 0, len(applicableTo))
	for k := range applicableTo {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Applicable returns the policy keys that configuration.import accepts for entity.
func Applicable(entity string) []string {
	keys, ok := applicableTo[entity]
	if !ok {
		return nil
	}
	return append([]string(nil), keys...)
}

// Build returns a fresh RuleSet for flags.
func Build(flags Flags) RuleSet {
	values := map[string]bool{
		CreateMissing:  flags.CreateMissing,
		UpdateExisting: flags.UpdateExisting,
		DeleteMissing:  flags.DeleteMissing,
	}
	rs := make(RuleSet, len(applicableTo))
	for entity, keys := range applicableTo {
		rule := make(map[string]bool, len(keys))
		for _, k := range keys {
			rule[k] = values[k]
		}
		rs[entity] = rule
	}
	return rs
}

// Render writes the rule set as YAML with sorted keys.
func Render(rs RuleSet) ([]byte, error) {
	ordered := make(yaml.MapSlice, 0, len(rs))
	for _, entity := range sortedKeys(rs) {
		rule := rs[entity]
		inner := make(yaml.MapSlice, 0, len(rule))
		for _, k := range allKeys {
			if v, ok := rule[k]; ok {
				inner = append(inner, yaml.MapItem{Key: k, Value: v})
			}
		}
		ordered = append(ordered, yaml.MapItem{Key: entity, Value: inner})
	}
	out, err := yaml.Marshal(ordered)
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(out, "\n"), nil
}

func sortedKeys(rs RuleSet) []string {
	out := make([]string, 0, len(rs))
	for k := range rs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
