package insights

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/solardome/egra-insight/internal/bands"
)

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "profile.yaml", `schema_version: "1.0"
language: fr
analyses: [zero_scores, reliability]
tasks: [clpm, phoneme]
min_rows: 5
outlier_z: 2.5
llm:
  enabled: true
  model: claude-sonnet-4-5
`)
	prof, hash, err := LoadProfile(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(hash) != 64 {
		t.Fatalf("expected sha256 digest, got %q", hash)
	}
	if prof.Language != "fr" || prof.MinRows != 5 || prof.OutlierZ != 2.5 || !prof.LLM.Enabled {
		t.Fatalf("unexpected profile: %+v", prof)
	}
	if strings.Join(prof.Analyses, ",") != "zero_scores,reliability" || strings.Join(prof.Tasks, ",") != "clpm,phoneme" {
		t.Fatalf("unexpected selections: %+v", prof)
	}
	if prof.DecisionTraceVerbosity != "normal" {
		t.Fatalf("unset fields must keep defaults, got verbosity %q", prof.DecisionTraceVerbosity)
	}
}

func TestLoadProfileRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "profile.yaml", `schema_version: "1.0"
language: de
analyses: [horoscope]
tasks: [clpm, juggling]
min_rows: 0
`)
	_, _, err := LoadProfile(p)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"language must be one of: en, fr",
		`analyses contains unknown analysis "horoscope"`,
		`tasks contains unknown task "juggling"`,
		"min_rows must be at least 1",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %v", want, err)
		}
	}
}

func TestParseYAMLStrictSchema(t *testing.T) {
	dir := t.TempDir()

	t.Run("unknown_field", func(t *testing.T) {
		p := writeFile(t, dir, "unknown.yaml", `schema_version: "1.0"
language: en
colour: blue
`)
		_, _, err := LoadProfile(p)
		if err == nil || !strings.Contains(err.Error(), "line 3 field profile.colour: unknown field") {
			t.Fatalf("expected unknown field error, got %v", err)
		}
	})

	t.Run("duplicate_key", func(t *testing.T) {
		p := writeFile(t, dir, "dup.yaml", `schema_version: "1.0"
language: en
language: fr
`)
		_, _, err := LoadProfile(p)
		if err == nil || !strings.Contains(err.Error(), "already defined at line 2") {
			t.Fatalf("expected duplicate key error, got %v", err)
		}
	})

	t.Run("missing_required", func(t *testing.T) {
		p := writeFile(t, dir, "missing.yaml", "language: en\n")
		_, _, err := LoadProfile(p)
		if err == nil || !strings.Contains(err.Error(), "profile.schema_version: missing required field") {
			t.Fatalf("expected missing field error, got %v", err)
		}
	})

	t.Run("band_missing_bounds", func(t *testing.T) {
		p := writeFile(t, dir, "thresholds.yaml", `schema_version: "1.0"
scales:
  - kind: zero_score_pct
    direction: higher_is_worse
    bands:
      - {label: acceptable, upper: 10}
`)
		_, _, err := LoadThresholds(p)
		if err == nil || !strings.Contains(err.Error(), "lower: missing required field") {
			t.Fatalf("expected missing lower error, got %v", err)
		}
	})
}

const zeroScoreOverride = `schema_version: "1.0"
scales:
  - kind: zero_score_pct
    direction: higher_is_worse
    bands:
      - {label: acceptable, lower: null, upper: 10}
      - {label: watch, lower: 10, upper: 20}
      - {label: concerning, lower: 20, upper: 50, recommendation: "Review the letter sound routine."}
      - {label: critical, lower: 50, upper: null}
`

func TestLoadThresholdsMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "thresholds.yaml", zeroScoreOverride)
	table, _, err := LoadThresholds(p)
	if err != nil {
		t.Fatal(err)
	}
	r, err := table.Classify(bands.ZeroScorePct, "", 40)
	if err != nil {
		t.Fatal(err)
	}
	if r.Label != bands.LabelConcerning || r.Recommendation != "Review the letter sound routine." {
		t.Fatalf("override not applied: %+v", r)
	}
	if r, _ := table.Classify(bands.BenchmarkPct, "clpm", 60); r.Label != bands.LabelCritical {
		t.Fatalf("untouched scales must keep defaults, got %+v", r)
	}
}

func TestLoadThresholdsRejectsInvalidScales(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		content string
		want    string
	}{
		"gap": {
			content: `schema_version: "1.0"
scales:
  - kind: zero_score_pct
    direction: higher_is_worse
    bands:
      - {label: acceptable, lower: null, upper: 10}
      - {label: critical, lower: 15, upper: null}
`,
			want: "gap between acceptable and critical",
		},
		"unknown_kind": {
			content: `schema_version: "1.0"
scales:
  - kind: shoe_size
    direction: higher_is_worse
    bands:
      - {label: acceptable, lower: null, upper: null}
`,
			want: `unknown metric kind "shoe_size"`,
		},
		"schema_version": {
			content: `schema_version: "2.0"
scales: []
`,
			want: `unsupported schema_version "2.0"`,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			p := writeFile(t, dir, name+".yaml", tc.content)
			_, _, err := LoadThresholds(p)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRunWithThresholdOverride(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "survey.csv", zeroScoreCSV)
	thresholds := writeFile(t, dir, "thresholds.yaml", zeroScoreOverride)
	report, err := Run(Config{
		DatasetPath:    data,
		ThresholdsPath: thresholds,
		Analyses:       []string{"zero_scores"},
		OutJSONPath:    filepath.Join(dir, "report.json"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := report.Sections[0].Classifications[0].Label; got != "concerning" {
		t.Fatalf("expected concerning under override, got %s", got)
	}
	if report.Status != StatusOK {
		t.Fatalf("expected ok status, got %s", report.Status)
	}
	if report.Inputs[0].Kind != "thresholds_yaml" || !report.Inputs[0].ReadOK {
		t.Fatalf("unexpected inputs: %+v", report.Inputs)
	}
}

func TestRunAbortsOnInvalidProfile(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "survey.csv", zeroScoreCSV)
	profile := writeFile(t, dir, "profile.yaml", "schema_version: \"1.0\"\nmin_rows: 0\n")
	_, err := Run(Config{
		DatasetPath: data,
		ProfilePath: profile,
		OutJSONPath: filepath.Join(dir, "report.json"),
	})
	if err == nil || !strings.Contains(err.Error(), "min_rows must be at least 1") {
		t.Fatalf("expected profile error, got %v", err)
	}
}

func TestRunAppliesProfileRules(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "survey.csv", zeroScoreCSV)
	profile := writeFile(t, dir, "profile.yaml", `schema_version: "1.0"
rules:
  - rule_id: clpm-floor
    when:
      kinds: [zero_score_pct]
      subjects: [CLPM]
      labels: [critical]
    then:
      add_recommended_step_ids: [SUPPORT_EMERGING_PUPILS]
  - rule_id: switched-off
    enabled: false
    then:
      add_recommended_step_ids: [COMPLETE_DATA]
`)
	report, err := Run(Config{
		DatasetPath: data,
		ProfilePath: profile,
		Analyses:    []string{"zero_scores"},
		OutJSONPath: filepath.Join(dir, "report.json"),
	})
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, s := range report.RecommendedSteps {
		ids = append(ids, s.ID)
	}
	if got := strings.Join(ids, ","); got != "INTERVENE_ZERO_SCORES,SUPPORT_EMERGING_PUPILS,PROGRESS_MONITORING,REASSESS" {
		t.Fatalf("unexpected steps: %s", got)
	}
	found := false
	for _, e := range report.DecisionTrace {
		if e.Phase != "profile_rules" {
			continue
		}
		found = true
		fired, _ := e.Details["fired"].([]string)
		if strings.Join(fired, ",") != "clpm-floor" {
			t.Fatalf("unexpected fired rules: %v", e.Details)
		}
	}
	if !found {
		t.Fatal("expected a profile_rules trace entry")
	}
}

func TestLoadProfileRejectsInvalidRules(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "profile.yaml", `schema_version: "1.0"
rules:
  - rule_id: r1
    when:
      analyses: [astrology]
      labels: [dreadful]
    then:
      add_recommended_step_ids: [CALL_PARENTS]
`)
	_, _, err := LoadProfile(p)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		`rules[0]: unknown analysis "astrology"`,
		`rules[0]: unknown label "dreadful"`,
		`rules[0]: unknown recommended step "CALL_PARENTS"`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %v", want, err)
		}
	}

	bad := writeFile(t, dir, "bad.yaml", `schema_version: "1.0"
rules:
  - rule_id: r1
    then:
      add_steps: [REASSESS]
`)
	if _, _, err := LoadProfile(bad); err == nil || !strings.Contains(err.Error(), "profile.rules[0].then.add_steps: unknown field") {
		t.Fatalf("expected schema error, got %v", err)
	}
}
