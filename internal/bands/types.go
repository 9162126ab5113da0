package bands

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type MetricKind string

const (
	ZeroScorePct  MetricKind = "zero_score_pct"
	CronbachAlpha MetricKind = "cronbach_alpha"
	PearsonR      MetricKind = "pearson_r"
	PValue        MetricKind = "p_value"
	BenchmarkPct  MetricKind = "benchmark_pct"
	EffectSizeR   MetricKind = "effect_size_r"
	MeanScorePct  MetricKind = "mean_score_pct"
	PupilStandard MetricKind = "pupil_standard"
)

// Label is the severity or quality level a band stands for. The set is
// closed; Valid reports membership.
type Label string

const (
	LabelCritical          Label = "critical"
	LabelConcerning        Label = "concerning"
	LabelWatch             Label = "watch"
	LabelAcceptable        Label = "acceptable"
	LabelUnacceptable      Label = "unacceptable"
	LabelPoor              Label = "poor"
	LabelQuestionable      Label = "questionable"
	LabelGood              Label = "good"
	LabelExcellent         Label = "excellent"
	LabelApproaching       Label = "approaching"
	LabelMeeting           Label = "meeting"
	LabelVeryWeak          Label = "very_weak"
	LabelWeak              Label = "weak"
	LabelModerate          Label = "moderate"
	LabelStrong            Label = "strong"
	LabelVeryStrong        Label = "very_strong"
	LabelHighlySignificant Label = "highly_significant"
	LabelSignificant       Label = "significant"
	LabelNotSignificant    Label = "not_significant"
	LabelNegligible        Label = "negligible"
	LabelSmall             Label = "small"
	LabelMedium            Label = "medium"
	LabelLarge             Label = "large"
	LabelVeryLow           Label = "very_low"
	LabelLow               Label = "low"
	LabelAverage           Label = "average"
	LabelEmerging          Label = "emerging"
	LabelDeveloping        Label = "developing"
	LabelMastery           Label = "mastery"

	LabelInsufficientData Label = "insufficient_data"
)

var knownLabels = map[Label]bool{
	LabelCritical: true, LabelConcerning: true, LabelWatch: true, LabelAcceptable: true,
	LabelUnacceptable: true, LabelPoor: true, LabelQuestionable: true, LabelGood: true, LabelExcellent: true,
	LabelApproaching: true, LabelMeeting: true,
	LabelVeryWeak: true, LabelWeak: true, LabelModerate: true, LabelStrong: true, LabelVeryStrong: true,
	LabelHighlySignificant: true, LabelSignificant: true, LabelNotSignificant: true,
	LabelNegligible: true, LabelSmall: true, LabelMedium: true, LabelLarge: true,
	LabelVeryLow: true, LabelLow: true, LabelAverage: true,
	LabelEmerging: true, LabelDeveloping: true, LabelMastery: true,
}

func (l Label) Valid() bool {
	return knownLabels[l]
}

func (l Label) String() string {
	return string(l)
}

type Direction string

const (
	HigherIsWorse  Direction = "higher_is_worse"
	HigherIsBetter Direction = "higher_is_better"
)

func (d Direction) Valid() bool {
	return d == HigherIsWorse || d == HigherIsBetter
}

// Band is one interval of a scale. Which end is closed depends on the
// scale direction: [Lower, Upper) when higher is worse, (Lower, Upper]
// when higher is better, so a boundary value lands in the more severe band.
type Band struct {
	Label          Label   `json:"label"`
	Lower          float64 `json:"-"`
	Upper          float64 `json:"-"`
	Severity       int     `json:"severity"`
	Recommendation string  `json:"recommendation,omitempty"`
}

type Scale struct {
	Kind      MetricKind `json:"kind"`
	Subject   string     `json:"subject,omitempty"`
	Direction Direction  `json:"direction"`
	Bands     []Band     `json:"bands"`
}

// Result is a single classification. Value is NaN when Insufficient.
type Result struct {
	Kind           MetricKind
	Subject        string
	Value          float64
	Label          Label
	Severity       int
	Recommendation string
	Insufficient   bool
}

// MostSevere reports whether the result sits in the first band of its scale.
func (r Result) MostSevere() bool {
	return !r.Insufficient && r.Severity == 0
}

// alertingKinds are the kinds whose most severe band calls for action.
// Correlation strength and p-values describe relationships and never do.
var alertingKinds = map[MetricKind]bool{
	ZeroScorePct:  true,
	BenchmarkPct:  true,
	CronbachAlpha: true,
	MeanScorePct:  true,
	PupilStandard: true,
	EffectSizeR:   true,
}

// Alerting reports whether the most severe band of kind calls for action.
func Alerting(kind MetricKind) bool {
	return alertingKinds[kind]
}

// NeedsAttention reports whether the result sits in the most severe band of
// an alerting kind.
func (r Result) NeedsAttention() bool {
	return r.MostSevere() && Alerting(r.Kind)
}

var (
	ErrUnknownMetricKind = errors.New("unknown metric kind")
	ErrSubjectRequired   = errors.New("metric kind is only defined per subject")
)

type UnknownMetricKindError struct {
	Kind    MetricKind
	Subject string
}

func (e *UnknownMetricKindError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %q for subject %q", ErrUnknownMetricKind, string(e.Kind), e.Subject)
	}
	return fmt.Sprintf("%s: %q", ErrUnknownMetricKind, string(e.Kind))
}

func (e *UnknownMetricKindError) Unwrap() error {
	return ErrUnknownMetricKind
}

// SubjectRequiredError is returned for a kind that only has subject-scoped
// scales when the subject is missing or has no scale.
type SubjectRequiredError struct {
	Kind     MetricKind
	Subject  string
	Subjects []string
}

func (e *SubjectRequiredError) Error() string {
	known := strings.Join(e.Subjects, ", ")
	if e.Subject == "" {
		return fmt.Sprintf("%s: %q needs a subject (known subjects: %s)", ErrSubjectRequired, string(e.Kind), known)
	}
	return fmt.Sprintf("%s: %q has no scale for subject %q (known subjects: %s)", ErrSubjectRequired, string(e.Kind), e.Subject, known)
}

func (e *SubjectRequiredError) Unwrap() error {
	return ErrSubjectRequired
}

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)
