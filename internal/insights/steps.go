package insights

import (
	"sort"

	"github.com/solardome/egra-insight/internal/bands"
	"github.com/solardome/egra-insight/internal/i18n"
	"github.com/solardome/egra-insight/internal/policy"
)

var stepPriorities = map[string]int{
	"INTERVENE_ZERO_SCORES":    10,
	"REINFORCE_BENCHMARK_GAPS": 20,
	"SUPPORT_EMERGING_PUPILS":  30,
	"REVIEW_INSTRUMENT":        40,
	"INVESTIGATE_GROUP_GAPS":   50,
	"PROGRESS_MONITORING":      60,
	"REASSESS":                 70,
	"COMPLETE_DATA":            80,
}

// recommendedStepCatalog renders every step in lang.
func recommendedStepCatalog(lang i18n.Lang) map[string]RecommendedStep {
	out := make(map[string]RecommendedStep, len(stepPriorities))
	for id, prio := range stepPriorities {
		out[id] = RecommendedStep{ID: id, Priority: prio, Text: i18n.Text(lang, "step."+id, id)}
	}
	return out
}

func knownStep(id string) bool {
	_, ok := stepPriorities[id]
	return ok
}

// collectRecommendedSteps returns the steps in priority order and the ids of
// the profile rules that fired.
func collectRecommendedSteps(state EngineState) ([]RecommendedStep, []string) {
	catalog := recommendedStepCatalog(state.Lang)
	set := map[string]bool{}
	for _, r := range state.Results {
		if r.Insufficient {
			set["COMPLETE_DATA"] = true
			continue
		}
		switch r.Kind {
		case bands.ZeroScorePct:
			if r.Label == bands.LabelCritical {
				set["INTERVENE_ZERO_SCORES"] = true
			}
		case bands.BenchmarkPct:
			if r.MostSevere() {
				set["REINFORCE_BENCHMARK_GAPS"] = true
			}
		case bands.PupilStandard:
			if r.Label == bands.LabelEmerging {
				set["SUPPORT_EMERGING_PUPILS"] = true
			}
		case bands.CronbachAlpha:
			if r.Severity <= 1 {
				set["REVIEW_INSTRUMENT"] = true
			}
		case bands.EffectSizeR:
			if r.Severity <= 1 {
				set["INVESTIGATE_GROUP_GAPS"] = true
			}
		}
	}
	for _, s := range state.Sections {
		if s.Status == SectionSkipped {
			set["COMPLETE_DATA"] = true
		}
	}
	if state.Status == StatusAttentionRequired {
		set["PROGRESS_MONITORING"] = true
		set["REASSESS"] = true
	}
	ruleSteps, fired := policy.ApplyRules(toPolicyRules(state.Profile.Rules), ruleMatches(state.Sections))
	for _, id := range ruleSteps {
		set[id] = true
	}

	steps := make([]RecommendedStep, 0, len(set))
	for id := range set {
		if c, ok := catalog[id]; ok {
			steps = append(steps, c)
		}
	}
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Priority != steps[j].Priority {
			return steps[i].Priority < steps[j].Priority
		}
		return steps[i].ID < steps[j].ID
	})
	return steps, fired
}

func toPolicyRules(rules []ProfileRule) []policy.Rule {
	out := make([]policy.Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, policy.Rule{
			RuleID:  r.RuleID,
			Enabled: r.Enabled == nil || *r.Enabled,
			When: policy.RuleWhen{
				Analyses: r.When.Analyses,
				Kinds:    r.When.Kinds,
				Subjects: r.When.Subjects,
				Labels:   r.When.Labels,
			},
			Then: policy.RuleThen{AddRecommendedStepIDs: r.Then.AddRecommendedStepIDs},
		})
	}
	return out
}

func ruleMatches(sections []Section) []policy.Match {
	var out []policy.Match
	for _, s := range sections {
		for _, c := range s.Classifications {
			out = append(out, policy.Match{Analysis: s.Analysis, Kind: c.Kind, Subject: c.Subject, Label: c.Label})
		}
	}
	return out
}
