package insights

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/solardome/egra-insight/internal/aggregate"
	"github.com/solardome/egra-insight/internal/bands"
	"github.com/solardome/egra-insight/internal/dataset"
	"github.com/solardome/egra-insight/internal/i18n"
	"github.com/solardome/egra-insight/internal/narrative"
	"github.com/solardome/egra-insight/internal/report"
	"github.com/solardome/egra-insight/internal/skills"
	"github.com/solardome/egra-insight/internal/synthesis"
)

func Run(cfg Config) (Report, error) {
	return RunContext(context.Background(), cfg)
}

// RunContext interprets one dataset and writes the report artifacts. The
// context only bounds the optional LLM synthesis.
func RunContext(ctx context.Context, cfg Config) (Report, error) {
	if strings.TrimSpace(cfg.OutJSONPath) == "" {
		cfg.OutJSONPath = "report.json"
	}
	if strings.TrimSpace(cfg.OutHTMLPath) == "" {
		cfg.OutHTMLPath = DefaultHTMLPath(cfg.OutJSONPath)
	}
	if strings.TrimSpace(cfg.OutCSVPath) == "" {
		cfg.OutCSVPath = DefaultCSVPath(cfg.OutJSONPath)
	}
	if strings.TrimSpace(cfg.ChecksumsPath) == "" {
		cfg.ChecksumsPath = DefaultChecksumsPath(cfg.OutJSONPath)
	}
	if strings.TrimSpace(cfg.RunLogPath) == "" {
		cfg.RunLogPath = DefaultRunLogPath(cfg.OutJSONPath)
	}

	log, logErr := newAuditLogger(cfg.RunLogPath, cfg.DatasetPath)
	if logErr == nil {
		defer log.close()
		log.info("run.start", map[string]interface{}{
			"dataset_path":    cfg.DatasetPath,
			"profile_path":    cfg.ProfilePath,
			"thresholds_path": cfg.ThresholdsPath,
			"language":        cfg.Language,
			"analyses":        strings.Join(cfg.Analyses, ","),
			"llm_enabled":     cfg.LLMEnabled,
			"out_json":        cfg.OutJSONPath,
			"checksums":       cfg.ChecksumsPath,
		})
	}

	var state EngineState
	if err := loadInputs(&state, cfg); err != nil {
		log.warn("run.load_inputs.error", map[string]interface{}{"error": err.Error()})
		return Report{}, err
	}
	log.info("run.load_inputs.ok", map[string]interface{}{
		"input_count": len(state.InputDigests),
		"rows":        state.Dataset.Len(),
		"tasks":       strings.Join(state.Tasks, ","),
		"language":    string(state.Lang),
	})

	for _, name := range state.Analyses {
		sec, err := runAnalysis(&state, name)
		if err != nil {
			log.warn("run.analysis.error", map[string]interface{}{"analysis": name, "error": err.Error()})
			return Report{}, err
		}
		log.section(sec)
		state.Sections = append(state.Sections, sec)
		state.Results = append(state.Results, sec.results...)
	}

	state.Summary = aggregate.AggregateWith(qualifiedResults(state.Sections), sectionFamilies{})
	state.Narrative = narrative.Render(state.Summary, state.Lang)
	state.Status = reportStatus(state.Results)
	addTrace(&state, "aggregation", "ok", map[string]interface{}{
		"total":        state.Summary.Total,
		"most_severe":  state.Summary.MostSevere,
		"insufficient": state.Summary.Insufficient,
		"status":       state.Status,
	})
	var fired []string
	state.RecommendedSteps, fired = collectRecommendedSteps(state)
	if len(state.Profile.Rules) > 0 {
		addTrace(&state, "profile_rules", "ok", map[string]interface{}{"fired": fired})
	}

	synthesize(ctx, &state, cfg, log)

	runID := stableRunID(state.InputDigests, string(state.Lang), state.Analyses, state.Tasks)
	rep := buildReport(state, runID)

	if err := report.WriteJSON(cfg.OutJSONPath, rep); err != nil {
		log.artifactError("report_json", cfg.OutJSONPath, err)
		return Report{}, err
	}
	artifactPaths := []string{cfg.OutJSONPath}
	htmlWritten, csvWritten := false, false
	if cfg.WriteHTML {
		if err := writeReportHTML(cfg.OutHTMLPath, rep); err != nil {
			log.artifactError("report_html", cfg.OutHTMLPath, err)
		} else {
			htmlWritten = true
			artifactPaths = append(artifactPaths, cfg.OutHTMLPath)
		}
	}
	if cfg.WriteCSV {
		if err := report.WriteClassificationsCSV(cfg.OutCSVPath, classificationRows(rep)); err != nil {
			log.artifactError("report_csv", cfg.OutCSVPath, err)
		} else {
			csvWritten = true
			artifactPaths = append(artifactPaths, cfg.OutCSVPath)
		}
	}
	if err := writeArtifactChecksums(cfg.ChecksumsPath, artifactPaths); err != nil {
		log.artifactError("checksums", cfg.ChecksumsPath, err)
		return Report{}, err
	}
	log.info("run.complete", map[string]interface{}{
		"run_id":       rep.RunID,
		"status":       rep.Status,
		"results":      rep.Summary.Total,
		"most_severe":  rep.Summary.MostSevere,
		"report_json":  cfg.OutJSONPath,
		"html_written": htmlWritten,
		"csv_written":  csvWritten,
		"checksums":    cfg.ChecksumsPath,
	})
	return rep, nil
}

func loadInputs(state *EngineState, cfg Config) error {
	if strings.TrimSpace(cfg.DatasetPath) == "" {
		return errors.New("--dataset is required")
	}

	state.Profile = defaultProfile()
	if cfg.ProfilePath != "" {
		p, hash, err := LoadProfile(cfg.ProfilePath)
		state.InputDigests = append(state.InputDigests, InputDigest{Kind: "profile_yaml", Path: cfg.ProfilePath, SHA256: hash, ReadOK: err == nil})
		if err != nil {
			return err
		}
		state.Profile = p
	}

	state.Table = bands.Default()
	if cfg.ThresholdsPath != "" {
		table, hash, err := LoadThresholds(cfg.ThresholdsPath)
		state.InputDigests = append(state.InputDigests, InputDigest{Kind: "thresholds_yaml", Path: cfg.ThresholdsPath, SHA256: hash, ReadOK: err == nil})
		if err != nil {
			return err
		}
		state.Table = table
	}

	ds, raw, err := dataset.Load(cfg.DatasetPath)
	digest := InputDigest{Kind: "dataset", Path: cfg.DatasetPath, ReadOK: err == nil}
	if raw != nil {
		digest.SHA256 = report.SHA256Hex(raw)
	}
	if ds != nil {
		digest.Kind = "dataset_" + ds.Format
	}
	state.InputDigests = append(state.InputDigests, digest)
	if err != nil {
		return fmt.Errorf("dataset load failed: %w", err)
	}
	state.Dataset = ds

	state.Lang = i18n.Parse(firstNonEmpty(cfg.Language, state.Profile.Language))
	if !i18n.Supported(state.Lang) {
		return fmt.Errorf("unsupported language %q, must be one of: %s", firstNonEmpty(cfg.Language, state.Profile.Language), joinLangs(i18n.Languages()))
	}
	analyses, err := selectAnalyses(cfg.Analyses, state.Profile.Analyses)
	if err != nil {
		return err
	}
	state.Analyses = analyses
	tasks, err := selectTasks(ds, cfg.Tasks, state.Profile.Tasks)
	if err != nil {
		return err
	}
	state.Tasks = tasks

	addTrace(state, "input_validation", "validation_ok", map[string]interface{}{
		"input_count": len(state.InputDigests),
		"rows":        ds.Len(),
		"columns":     len(ds.Columns()),
		"language":    string(state.Lang),
		"analyses":    append([]string{}, state.Analyses...),
		"tasks":       append([]string{}, state.Tasks...),
	})
	return nil
}

// selectAnalyses prefers the command line over the profile and returns the
// selection in report order.
func selectAnalyses(fromConfig, fromProfile []string) ([]string, error) {
	requested := fromConfig
	if len(requested) == 0 {
		requested = fromProfile
	}
	if len(requested) == 0 {
		return append([]string{}, analysisOrder...), nil
	}
	want := map[string]bool{}
	for _, a := range requested {
		name := normalizeToken(a)
		if !knownAnalysis(name) {
			return nil, fmt.Errorf("unknown analysis %q, must be one of: %s", a, strings.Join(analysisOrder, ", "))
		}
		want[name] = true
	}
	out := make([]string, 0, len(want))
	for _, a := range analysisOrder {
		if want[a] {
			out = append(out, a)
		}
	}
	return out, nil
}

// selectTasks prefers the command line over the profile. Without either,
// every catalog task present in the dataset is analysed.
func selectTasks(ds *dataset.Dataset, fromConfig, fromProfile []string) ([]string, error) {
	requested := fromConfig
	if len(requested) == 0 {
		requested = fromProfile
	}
	seen := map[string]bool{}
	var out []string
	if len(requested) == 0 {
		for _, t := range skills.Tasks() {
			if ds.Has(t.Code) {
				out = append(out, t.Code)
			}
		}
		return out, nil
	}
	for _, raw := range requested {
		code := normalizeToken(raw)
		if !skills.IsTask(code) {
			return nil, fmt.Errorf("unknown task %q", raw)
		}
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	skills.SortCodes(out)
	return out, nil
}

// runAnalysis validates the dataset for one analysis and computes its
// section. Validation failures skip the section. Only configuration faults
// are returned as errors.
func runAnalysis(state *EngineState, name string) (Section, error) {
	sec := Section{Analysis: name, Status: SectionOK}
	check := dataset.Validate(state.Dataset, name, state.Tasks, dataset.ValidationOptions{
		MinRows:  state.Profile.MinRows,
		OutlierZ: state.Profile.OutlierZ,
	})
	sec.Warnings = check.Warnings
	state.ValidationWarnings = append(state.ValidationWarnings, check.Warnings...)
	if !check.Valid() {
		sec.Status = SectionSkipped
		sec.Errors = check.Errors
		sec.Classifications = []Classification{}
		sec.Narrative = []string{}
		addTrace(state, "analysis."+name, "skipped", map[string]interface{}{
			"errors":   append([]string{}, check.Errors...),
			"warnings": len(check.Warnings),
		})
		return sec, nil
	}

	a := &analyzer{ds: state.Dataset, table: state.Table, tasks: state.Tasks}
	if err := analysisFuncs[name](a); err != nil {
		return Section{}, fmt.Errorf("analysis %s: %w", name, err)
	}
	sec.results = a.results
	sec.Statistics = a.stats
	sec.Notes = a.notes
	sec.Classifications = toClassifications(a.results)
	sec.Summary = aggregate.Aggregate(a.results)
	sec.Narrative = narrative.Render(sec.Summary, state.Lang)
	addTrace(state, "analysis."+name, "ok", map[string]interface{}{
		"results":      len(a.results),
		"most_severe":  sec.Summary.MostSevere,
		"insufficient": sec.Summary.Insufficient,
		"warnings":     len(check.Warnings),
	})
	return sec, nil
}

func toClassifications(results []bands.Result) []Classification {
	out := make([]Classification, 0, len(results))
	for _, r := range results {
		out = append(out, Classification{
			Kind:           string(r.Kind),
			Subject:        r.Subject,
			Value:          floatPtr(r.Value),
			Label:          string(r.Label),
			Severity:       r.Severity,
			Recommendation: r.Recommendation,
			Insufficient:   r.Insufficient,
		})
	}
	return out
}

// qualifiedResults prefixes every subject with its analysis so the overall
// summary keeps gender and language results for the same task apart.
func qualifiedResults(sections []Section) []bands.Result {
	var out []bands.Result
	for _, sec := range sections {
		for _, r := range sec.results {
			r.Subject = narrative.Qualify(sec.Analysis, r.Subject)
			out = append(out, r)
		}
	}
	return out
}

// sectionFamilies resolves skill families only for the task-level analyses.
type sectionFamilies struct{}

func (sectionFamilies) FamilyOf(subject string) (string, bool) {
	analysis, code := narrative.Unqualify(subject)
	switch analysis {
	case AnalysisOverview, AnalysisZeroScores, AnalysisBenchmarks:
		return skills.Catalog{}.FamilyOf(code)
	}
	return "", false
}

// reportStatus is attention_required when an alerting result sits in the
// most severe band of its scale.
func reportStatus(results []bands.Result) string {
	for _, r := range results {
		if r.NeedsAttention() {
			return StatusAttentionRequired
		}
	}
	return StatusOK
}

// synthesize fills the non-authoritative section. Any failure falls back
// to the deterministic summary and is recorded in the trace.
func synthesize(ctx context.Context, state *EngineState, cfg Config, log *auditLogger) {
	enabled := cfg.LLMEnabled || state.Profile.LLM.Enabled
	state.NonAuthoritative = NonAuthoritative{LLMEnabled: enabled}
	if !enabled {
		addTrace(state, "synthesis", "disabled", nil)
		return
	}
	req := synthesis.Request{
		Language:  state.Lang,
		Status:    state.Status,
		Narrative: state.Narrative,
	}
	for _, s := range state.RecommendedSteps {
		req.Steps = append(req.Steps, s.Text)
	}

	var synth synthesis.Synthesizer = cfg.Synthesizer
	model := firstNonEmpty(cfg.LLMModel, state.Profile.LLM.Model, synthesis.DefaultModel)
	var err error
	if synth == nil {
		var client *synthesis.Anthropic
		client, err = synthesis.NewAnthropic(cfg.AnthropicAPIKey, model)
		if err == nil {
			synth = client
		}
	}
	var text string
	if err == nil {
		text, err = synth.Synthesize(ctx, req)
	}
	if err != nil {
		text, _ = synthesis.Fallback{}.Synthesize(ctx, req)
		state.NonAuthoritative.Source = "fallback"
		state.NonAuthoritative.LLMText = text
		addTrace(state, "synthesis", "fallback", map[string]interface{}{"error": err.Error()})
		log.warn("run.synthesis.error", map[string]interface{}{"error": err.Error(), "model": model})
		return
	}
	state.NonAuthoritative.Source = "llm"
	state.NonAuthoritative.LLMText = text
	addTrace(state, "synthesis", "ok", map[string]interface{}{"model": model, "chars": len(text)})
	log.info("run.synthesis.ok", map[string]interface{}{"model": model})
}

func buildReport(state EngineState, runID string) Report {
	warnings := append([]string{}, state.ValidationWarnings...)
	for _, s := range state.Sections {
		if s.Status == SectionSkipped {
			warnings = append(warnings, fmt.Sprintf("analysis %s skipped: %s", s.Analysis, strings.Join(s.Errors, "; ")))
		}
	}
	return Report{
		SchemaVersion: "1.0.0",
		GeneratedAt:   "1970-01-01T00:00:00Z",
		RunID:         runID,
		Inputs:        state.InputDigests,
		Language:      string(state.Lang),
		Dataset: DatasetSummary{
			Path:    state.Dataset.Source,
			Format:  state.Dataset.Format,
			Rows:    state.Dataset.Len(),
			Columns: state.Dataset.Columns(),
			Tasks:   append([]string{}, state.Tasks...),
		},
		Status:           state.Status,
		Sections:         state.Sections,
		Summary:          state.Summary,
		Narrative:        state.Narrative,
		Warnings:         uniqueSorted(warnings),
		RecommendedSteps: state.RecommendedSteps,
		DecisionTrace:    applyTraceVerbosity(state.Trace, state.Profile.DecisionTraceVerbosity),
		NonAuthoritative: state.NonAuthoritative,
	}
}

func classificationRows(rep Report) []report.ClassificationRow {
	var rows []report.ClassificationRow
	for _, s := range rep.Sections {
		for _, c := range s.Classifications {
			rows = append(rows, report.ClassificationRow{
				Analysis:       s.Analysis,
				Kind:           c.Kind,
				Subject:        c.Subject,
				Value:          c.Value,
				Label:          c.Label,
				Severity:       c.Severity,
				Recommendation: c.Recommendation,
			})
		}
	}
	return rows
}

func uniqueSorted(in []string) []string {
	set := map[string]bool{}
	out := []string{}
	for _, s := range in {
		if s != "" && !set[s] {
			set[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
