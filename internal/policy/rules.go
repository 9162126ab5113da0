// Package policy evaluates the profile rules that add recommended next steps
// when a classification matches.
package policy

import (
	"fmt"
	"sort"
	"strings"
)

type Rule struct {
	RuleID  string
	Enabled bool
	When    RuleWhen
	Then    RuleThen
}

// RuleWhen lists the accepted values per field. An empty list matches
// anything.
type RuleWhen struct {
	Analyses []string
	Kinds    []string
	Subjects []string
	Labels   []string
}

type RuleThen struct {
	AddRecommendedStepIDs []string
}

// Match is one classification as seen by the rules.
type Match struct {
	Analysis string
	Kind     string
	Subject  string
	Label    string
}

// ValidateRules checks rule ids and step ids. knownStep reports whether a
// step id exists in the catalog.
func ValidateRules(rules []Rule, knownStep func(string) bool) []string {
	var errs []string
	seen := map[string]bool{}
	for i, r := range rules {
		id := strings.TrimSpace(r.RuleID)
		if id == "" {
			errs = append(errs, fmt.Sprintf("rules[%d]: rule_id required", i))
		} else if seen[id] {
			errs = append(errs, fmt.Sprintf("rules[%d]: duplicate rule_id %q", i, id))
		}
		seen[id] = true
		if len(r.Then.AddRecommendedStepIDs) == 0 {
			errs = append(errs, fmt.Sprintf("rules[%d]: then.add_recommended_step_ids must not be empty", i))
		}
		for _, s := range r.Then.AddRecommendedStepIDs {
			if knownStep != nil && !knownStep(s) {
				errs = append(errs, fmt.Sprintf("rules[%d]: unknown recommended step %q", i, s))
			}
		}
	}
	sort.Strings(errs)
	return errs
}

// ApplyRules returns the sorted step ids added by the enabled rules that
// match at least one classification, and the ids of those rules.
func ApplyRules(rules []Rule, matches []Match) ([]string, []string) {
	sorted := append([]Rule{}, rules...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RuleID < sorted[j].RuleID })
	stepSet := map[string]bool{}
	var fired []string
	for _, r := range sorted {
		if !r.Enabled || !matchesAny(r.When, matches) {
			continue
		}
		fired = append(fired, r.RuleID)
		for _, id := range r.Then.AddRecommendedStepIDs {
			stepSet[id] = true
		}
	}
	steps := make([]string, 0, len(stepSet))
	for s := range stepSet {
		steps = append(steps, s)
	}
	sort.Strings(steps)
	return steps, fired
}

func matchesAny(w RuleWhen, matches []Match) bool {
	for _, m := range matches {
		if contains(w.Analyses, m.Analysis) &&
			contains(w.Kinds, m.Kind) &&
			contains(w.Subjects, m.Subject) &&
			contains(w.Labels, m.Label) {
			return true
		}
	}
	return false
}

func contains(values []string, target string) bool {
	if len(values) == 0 {
		return true
	}
	t := normalizeToken(target)
	for _, v := range values {
		if normalizeToken(v) == t {
			return true
		}
	}
	return false
}

func normalizeToken(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
