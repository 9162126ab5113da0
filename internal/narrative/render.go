package narrative

import (
	"strconv"
	"strings"

	"github.com/solardome/egra-insight/internal/aggregate"
	"github.com/solardome/egra-insight/internal/bands"
	"github.com/solardome/egra-insight/internal/i18n"
	"github.com/solardome/egra-insight/internal/skills"
)

// Render turns a summary into ordered narrative lines. Headings are prefixed
// with "## " (metric kind) and "### " (band), items with "- ". Rendering never
// fails: a band without a template for lang gets the generic level sentence.
func Render(summary aggregate.Summary, lang i18n.Lang) []string {
	if summary.IsEmpty() {
		return []string{i18n.Text(lang, "status.empty", "No results to interpret.")}
	}
	lines := []string{statusLine(summary, lang)}
	for _, k := range summary.Kinds {
		lines = append(lines, "## "+i18n.Text(lang, "kind."+string(k.Kind), string(k.Kind)))
		for _, b := range k.Buckets {
			lines = append(lines, renderBucket(k.Kind, b, lang)...)
		}
	}
	if len(summary.Families) > 0 {
		lines = append(lines, "## "+i18n.Text(lang, "families.title", "Skill family averages"))
		for _, fa := range summary.Families {
			lines = append(lines, "- "+i18n.Format(i18n.Text(lang, "family.average", "{family} ({kind}): {value} on average over {count} result(s)"), map[string]string{
				"family": familyLabel(fa.Family, lang),
				"kind":   i18n.Text(lang, "kind."+string(fa.Kind), string(fa.Kind)),
				"value":  FormatValue(fa.Kind, fa.Mean),
				"count":  strconv.Itoa(fa.Count),
			}))
		}
	}
	lines = append(lines, strategyLines(summary, lang)...)
	return lines
}

func statusLine(summary aggregate.Summary, lang i18n.Lang) string {
	if summary.MostSevere > 0 {
		return i18n.Format(i18n.Text(lang, "status.attention", "{count} result(s) need immediate attention."), map[string]string{
			"count": strconv.Itoa(summary.MostSevere),
		})
	}
	return i18n.Text(lang, "status.ok", "No result falls in the most severe band.")
}

func renderBucket(kind bands.MetricKind, b aggregate.Bucket, lang i18n.Lang) []string {
	heading, ok := Heading(kind, b.Label, lang)
	if !ok {
		heading = GenericLevel(b.Label, lang)
	}
	lines := []string{"### " + heading}
	for _, r := range b.Results {
		lines = append(lines, "- "+Item(r, lang))
	}
	if b.Label == bands.LabelInsufficientData {
		return lines
	}
	if advice, ok := i18n.Lookup(lang, "advice."+string(kind)+"."+string(b.Label)); ok {
		lines = append(lines, adviceLine(advice, lang))
	}
	for _, r := range b.Results {
		_, code := Unqualify(r.Subject)
		if advice, ok := i18n.Lookup(lang, "advice."+string(kind)+"."+string(b.Label)+"."+code); ok {
			lines = append(lines, adviceLine(SubjectLabel(r.Subject, lang)+": "+advice, lang))
		}
	}
	return lines
}

// Heading returns the band heading for (kind, label) in lang. A kind-specific
// template wins over the label template. ok is false when lang has neither;
// band templates never come from another language.
func Heading(kind bands.MetricKind, label bands.Label, lang i18n.Lang) (string, bool) {
	if h, ok := i18n.Lookup(lang, "heading."+string(kind)+"."+string(label)); ok {
		return h, true
	}
	return i18n.Lookup(lang, "label."+string(label))
}

// LabelText is the display name of a band label, falling back to the raw
// label.
func LabelText(label bands.Label, lang i18n.Lang) string {
	return i18n.Text(lang, "label."+string(label), string(label))
}

func GenericLevel(label bands.Label, lang i18n.Lang) string {
	return i18n.Format(i18n.Text(lang, "generic.level", "Requires attention at level {label}."), map[string]string{
		"label": string(label),
	})
}

func Item(r bands.Result, lang i18n.Lang) string {
	value := i18n.Text(lang, "value.na", "N/A")
	if !r.Insufficient {
		value = FormatValue(r.Kind, r.Value)
	}
	_, code := Unqualify(r.Subject)
	return i18n.Format(i18n.Text(lang, "item", "{subject_label} ({subject}): {value}"), map[string]string{
		"subject_label": SubjectLabel(r.Subject, lang),
		"subject":       code,
		"value":         value,
	})
}

func adviceLine(text string, lang i18n.Lang) string {
	return "  " + i18n.Format(i18n.Text(lang, "advice.prefix", "Recommendation: {text}"), map[string]string{"text": text})
}

const analysisSep = "/"

// Qualify prefixes subject with the analysis that produced it, so results of
// different analyses stay apart when they are aggregated together.
func Qualify(analysis, subject string) string {
	return analysis + analysisSep + subject
}

// Unqualify splits a subject built by Qualify. A subject without a known
// analysis prefix is returned whole with an empty analysis.
func Unqualify(subject string) (analysis, code string) {
	if a, rest, ok := strings.Cut(subject, analysisSep); ok {
		if _, known := i18n.Lookup(i18n.DefaultLang, "analysis."+a); known {
			return a, rest
		}
	}
	return "", subject
}

// SubjectLabel resolves display names for task codes, pairs ("a~b"), grouped
// subjects ("egra@English") and qualified subjects ("gender/clpm").
func SubjectLabel(subject string, lang i18n.Lang) string {
	if analysis, code := Unqualify(subject); analysis != "" {
		return SubjectLabel(code, lang) + " [" + i18n.Text(lang, "analysis."+analysis, analysis) + "]"
	}
	if a, b, ok := strings.Cut(subject, "~"); ok {
		return SubjectLabel(a, lang) + " / " + SubjectLabel(b, lang)
	}
	if base, group, ok := strings.Cut(subject, "@"); ok {
		return SubjectLabel(base, lang) + " (" + group + ")"
	}
	if v, ok := i18n.Lookup(lang, "task."+subject); ok {
		return v
	}
	return i18n.Text(lang, "subject."+subject, subject)
}

func familyLabel(family string, lang i18n.Lang) string {
	return i18n.Text(lang, "family."+family, family)
}

// FormatValue prints a metric value with the precision its kind uses.
func FormatValue(kind bands.MetricKind, v float64) string {
	switch kind {
	case bands.ZeroScorePct, bands.BenchmarkPct, bands.MeanScorePct:
		return strconv.FormatFloat(v, 'f', 1, 64) + "%"
	case bands.PValue:
		if v < 0.001 {
			return "<0.001"
		}
		return strconv.FormatFloat(v, 'f', 3, 64)
	case bands.PupilStandard:
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}

// strategyLines lists family strategies for every skill family with a task in
// the most severe zero-score or benchmark band.
func strategyLines(summary aggregate.Summary, lang i18n.Lang) []string {
	flagged := map[string]bool{}
	for _, kind := range []bands.MetricKind{bands.ZeroScorePct, bands.BenchmarkPct} {
		k, ok := summary.Kind(kind)
		if !ok {
			continue
		}
		for _, b := range k.Buckets {
			if b.Label == bands.LabelInsufficientData || b.Severity != 0 {
				continue
			}
			for _, r := range b.Results {
				if analysis, code := Unqualify(r.Subject); analysis != "school" {
					if t, ok := skills.Lookup(code); ok {
						flagged[t.Family] = true
					}
				}
			}
		}
	}
	if len(flagged) == 0 {
		return nil
	}
	lines := []string{"## " + i18n.Text(lang, "strategies.title", "Implementation strategies")}
	for _, family := range skills.Families("") {
		if !flagged[family] {
			continue
		}
		focus, ok := i18n.Lookup(lang, "strategy."+family+".focus")
		if !ok {
			continue
		}
		lines = append(lines, "### "+focus)
		for i := 1; ; i++ {
			s, ok := i18n.Lookup(lang, "strategy."+family+"."+strconv.Itoa(i))
			if !ok {
				break
			}
			lines = append(lines, "- "+s)
		}
	}
	return lines
}
