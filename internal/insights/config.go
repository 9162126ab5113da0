package insights

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/solardome/egra-insight/internal/bands"
	"github.com/solardome/egra-insight/internal/i18n"
	"github.com/solardome/egra-insight/internal/policy"
	"github.com/solardome/egra-insight/internal/skills"
)

const schemaVersion = "1.0"

func defaultProfile() Profile {
	return Profile{
		SchemaVersion:          schemaVersion,
		Language:               string(i18n.DefaultLang),
		Analyses:               append([]string{}, analysisOrder...),
		MinRows:                10,
		OutlierZ:               3,
		DecisionTraceVerbosity: "normal",
	}
}

// LoadProfile reads and validates a profile file. Unset fields keep their
// defaults.
func LoadProfile(path string) (Profile, string, error) {
	p := defaultProfile()
	hash, err := parseYAML(path, "profile", &p)
	if err != nil {
		return Profile{}, hash, fmt.Errorf("profile load failed: %w", err)
	}
	if errs := validateProfile(p); len(errs) > 0 {
		return Profile{}, hash, fmt.Errorf("profile %s is invalid:\n- %s", path, strings.Join(errs, "\n- "))
	}
	return p, hash, nil
}

func validateProfile(p Profile) []string {
	var errs []string
	if p.SchemaVersion != schemaVersion {
		errs = append(errs, "unsupported profile schema_version")
	}
	if !i18n.Supported(i18n.Parse(p.Language)) {
		errs = append(errs, fmt.Sprintf("language must be one of: %s", joinLangs(i18n.Languages())))
	}
	for _, a := range p.Analyses {
		if !knownAnalysis(a) {
			errs = append(errs, fmt.Sprintf("analyses contains unknown analysis %q", a))
		}
	}
	for _, t := range p.Tasks {
		if !skills.IsTask(t) {
			errs = append(errs, fmt.Sprintf("tasks contains unknown task %q", t))
		}
	}
	if p.MinRows < 1 {
		errs = append(errs, "min_rows must be at least 1")
	}
	if p.OutlierZ <= 0 {
		errs = append(errs, "outlier_z must be positive")
	}
	switch normalizeToken(p.DecisionTraceVerbosity) {
	case "minimal", "normal", "verbose":
	default:
		errs = append(errs, "decision_trace_verbosity must be one of: minimal, normal, verbose")
	}
	errs = append(errs, policy.ValidateRules(toPolicyRules(p.Rules), knownStep)...)
	for i, r := range p.Rules {
		for _, a := range r.When.Analyses {
			if !knownAnalysis(a) {
				errs = append(errs, fmt.Sprintf("rules[%d]: unknown analysis %q", i, a))
			}
		}
		for _, l := range r.When.Labels {
			if !bands.Label(normalizeToken(l)).Valid() {
				errs = append(errs, fmt.Sprintf("rules[%d]: unknown label %q", i, l))
			}
		}
	}
	sort.Strings(errs)
	return errs
}

func knownAnalysis(name string) bool {
	for _, a := range analysisOrder {
		if a == normalizeToken(name) {
			return true
		}
	}
	return false
}

func joinLangs(langs []i18n.Lang) string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		out = append(out, string(l))
	}
	return strings.Join(out, ", ")
}

// LoadThresholds reads a thresholds file and merges its scales over the
// built-in table. The merged table is validated as a whole.
func LoadThresholds(path string) (*bands.Table, string, error) {
	var f ThresholdsFile
	hash, err := parseYAML(path, "thresholds", &f)
	if err != nil {
		return nil, hash, fmt.Errorf("thresholds load failed: %w", err)
	}
	if f.SchemaVersion != schemaVersion {
		return nil, hash, fmt.Errorf("thresholds %s: unsupported schema_version %q", path, f.SchemaVersion)
	}
	scales, errs := toScales(f)
	if len(errs) == 0 {
		var table *bands.Table
		table, errs = bands.Default().Merge(scales)
		if len(errs) == 0 {
			return table, hash, nil
		}
	}
	return nil, hash, fmt.Errorf("thresholds %s are invalid:\n- %s", path, strings.Join(errs, "\n- "))
}

func toScales(f ThresholdsFile) ([]bands.Scale, []string) {
	known := map[bands.MetricKind]bool{}
	for _, k := range bands.Default().Kinds() {
		known[k] = true
	}
	var errs []string
	scales := make([]bands.Scale, 0, len(f.Scales))
	for i, s := range f.Scales {
		kind := bands.MetricKind(normalizeToken(s.Kind))
		if !known[kind] {
			errs = append(errs, fmt.Sprintf("scales[%d]: unknown metric kind %q", i, s.Kind))
			continue
		}
		scale := bands.Scale{
			Kind:      kind,
			Subject:   s.Subject,
			Direction: bands.Direction(normalizeToken(s.Direction)),
		}
		for _, b := range s.Bands {
			scale.Bands = append(scale.Bands, bands.Band{
				Label:          bands.Label(normalizeToken(b.Label)),
				Lower:          bound(b.Lower, math.Inf(-1)),
				Upper:          bound(b.Upper, math.Inf(1)),
				Recommendation: strings.TrimSpace(b.Recommendation),
			})
		}
		scales = append(scales, scale)
	}
	sort.Strings(errs)
	return scales, errs
}

func bound(v *float64, open float64) float64 {
	if v == nil {
		return open
	}
	return *v
}
