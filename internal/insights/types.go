package insights

import (
	"github.com/solardome/egra-insight/internal/aggregate"
	"github.com/solardome/egra-insight/internal/bands"
	"github.com/solardome/egra-insight/internal/dataset"
	"github.com/solardome/egra-insight/internal/i18n"
	"github.com/solardome/egra-insight/internal/synthesis"
)

const (
	StatusAttentionRequired = "attention_required"
	StatusOK                = "ok"
)

const (
	AnalysisOverview       = "overview"
	AnalysisZeroScores     = "zero_scores"
	AnalysisBenchmarks     = "benchmarks"
	AnalysisPupilStandards = "pupil_standards"
	AnalysisReliability    = "reliability"
	AnalysisCorrelation    = "correlation"
	AnalysisGender         = "gender"
	AnalysisLanguage       = "language"
	AnalysisSES            = "ses"
	AnalysisSchool         = "school"
)

// analysisOrder is the order sections appear in the report.
var analysisOrder = []string{
	AnalysisOverview,
	AnalysisZeroScores,
	AnalysisBenchmarks,
	AnalysisPupilStandards,
	AnalysisReliability,
	AnalysisCorrelation,
	AnalysisGender,
	AnalysisLanguage,
	AnalysisSES,
	AnalysisSchool,
}

type Config struct {
	DatasetPath    string
	ProfilePath    string
	ThresholdsPath string
	Language       string
	Analyses       []string
	Tasks          []string
	OutJSONPath    string
	OutHTMLPath    string
	OutCSVPath     string
	ChecksumsPath  string
	RunLogPath     string
	WriteHTML      bool
	WriteCSV       bool

	LLMEnabled      bool
	LLMModel        string
	AnthropicAPIKey string
	// Synthesizer replaces the Anthropic client when set.
	Synthesizer synthesis.Synthesizer
}

type Profile struct {
	SchemaVersion          string        `json:"schema_version"`
	Language               string        `json:"language"`
	Analyses               []string      `json:"analyses"`
	Tasks                  []string      `json:"tasks"`
	MinRows                int           `json:"min_rows"`
	OutlierZ               float64       `json:"outlier_z"`
	DecisionTraceVerbosity string        `json:"decision_trace_verbosity"`
	LLM                    LLMProfile    `json:"llm"`
	Rules                  []ProfileRule `json:"rules"`
}

// ProfileRule adds recommended steps when any classification matches every
// non-empty list in When.
type ProfileRule struct {
	RuleID  string          `json:"rule_id"`
	Enabled *bool           `json:"enabled"`
	When    ProfileRuleWhen `json:"when"`
	Then    ProfileRuleThen `json:"then"`
}

type ProfileRuleWhen struct {
	Analyses []string `json:"analyses"`
	Kinds    []string `json:"kinds"`
	Subjects []string `json:"subjects"`
	Labels   []string `json:"labels"`
}

type ProfileRuleThen struct {
	AddRecommendedStepIDs []string `json:"add_recommended_step_ids"`
}

type LLMProfile struct {
	Enabled bool   `json:"enabled"`
	Model   string `json:"model"`
}

type ThresholdsFile struct {
	SchemaVersion string           `json:"schema_version"`
	Scales        []ThresholdScale `json:"scales"`
}

type ThresholdScale struct {
	Kind      string          `json:"kind"`
	Subject   string          `json:"subject"`
	Direction string          `json:"direction"`
	Bands     []ThresholdBand `json:"bands"`
}

// ThresholdBand bounds are nil for an open end.
type ThresholdBand struct {
	Label          string   `json:"label"`
	Lower          *float64 `json:"lower"`
	Upper          *float64 `json:"upper"`
	Recommendation string   `json:"recommendation"`
}

type EngineState struct {
	InputDigests       []InputDigest
	Profile            Profile
	Table              *bands.Table
	Dataset            *dataset.Dataset
	Lang               i18n.Lang
	Analyses           []string
	Tasks              []string
	ValidationWarnings []string
	Sections           []Section
	Results            []bands.Result
	Summary            aggregate.Summary
	Narrative          []string
	Status             string
	RecommendedSteps   []RecommendedStep
	NonAuthoritative   NonAuthoritative
	Trace              []TraceEntry
}

type InputDigest struct {
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	ReadOK bool   `json:"read_ok"`
}

type RecommendedStep struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
	Text     string `json:"text"`
}

type TraceEntry struct {
	Order   int                    `json:"order"`
	Phase   string                 `json:"phase"`
	Result  string                 `json:"result"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Classification is the report form of a bands.Result. Value is nil when
// the statistic could not be computed.
type Classification struct {
	Kind           string   `json:"kind"`
	Subject        string   `json:"subject"`
	Value          *float64 `json:"value"`
	Label          string   `json:"label"`
	Severity       int      `json:"severity"`
	Recommendation string   `json:"recommendation,omitempty"`
	Insufficient   bool     `json:"insufficient,omitempty"`
}

// Statistic is a computed value shown alongside the classifications, such as
// a group mean or a pupil count.
type Statistic struct {
	Subject string   `json:"subject"`
	Name    string   `json:"name"`
	Value   *float64 `json:"value"`
}

type Section struct {
	Analysis        string            `json:"analysis"`
	Status          string            `json:"status"`
	Errors          []string          `json:"errors,omitempty"`
	Warnings        []string          `json:"warnings,omitempty"`
	Notes           []string          `json:"notes,omitempty"`
	Classifications []Classification  `json:"classifications"`
	Statistics      []Statistic       `json:"statistics,omitempty"`
	Summary         aggregate.Summary `json:"summary"`
	Narrative       []string          `json:"narrative"`

	results []bands.Result
}

const (
	SectionOK      = "ok"
	SectionSkipped = "skipped"
)

type DatasetSummary struct {
	Path    string   `json:"path"`
	Format  string   `json:"format"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Tasks   []string `json:"tasks"`
}

type Report struct {
	SchemaVersion    string            `json:"schema_version"`
	GeneratedAt      string            `json:"generated_at"`
	RunID            string            `json:"run_id"`
	Inputs           []InputDigest     `json:"inputs"`
	Language         string            `json:"language"`
	Dataset          DatasetSummary    `json:"dataset"`
	Status           string            `json:"status"`
	Sections         []Section         `json:"analyses"`
	Summary          aggregate.Summary `json:"summary"`
	Narrative        []string          `json:"narrative"`
	Warnings         []string          `json:"warnings"`
	RecommendedSteps []RecommendedStep `json:"recommended_next_steps"`
	DecisionTrace    []TraceEntry      `json:"decision_trace"`
	NonAuthoritative NonAuthoritative  `json:"non_authoritative"`
}

type NonAuthoritative struct {
	LLMEnabled bool   `json:"llm_enabled"`
	Source     string `json:"source,omitempty"`
	LLMText    string `json:"llm_text"`
}
