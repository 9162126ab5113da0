package narrative

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solardome/egra-insight/internal/aggregate"
	"github.com/solardome/egra-insight/internal/bands"
	"github.com/solardome/egra-insight/internal/i18n"
)

func zeroScoreSummary(t *testing.T) aggregate.Summary {
	t.Helper()
	var results []bands.Result
	for _, tc := range []struct {
		subject string
		value   float64
	}{{"clpm", 35.0}, {"phoneme", 22.0}, {"comprehension", 5.0}} {
		r, err := bands.Classify(bands.ZeroScorePct, tc.subject, tc.value)
		require.NoError(t, err)
		results = append(results, r)
	}
	return aggregate.Aggregate(results)
}

// section returns the lines following the first "### " heading containing
// marker, up to the next heading.
func section(lines []string, marker string) []string {
	for i, l := range lines {
		if !strings.HasPrefix(l, "### ") || !strings.Contains(l, marker) {
			continue
		}
		var out []string
		for _, next := range lines[i+1:] {
			if strings.HasPrefix(next, "#") {
				break
			}
			out = append(out, next)
		}
		return out
	}
	return nil
}

func TestRenderZeroScoreScenarioEnglish(t *testing.T) {
	lines := Render(zeroScoreSummary(t), i18n.English)

	critical := section(lines, "Critical")
	require.NotEmpty(t, critical, "missing Critical heading in %q", lines)
	assert.Contains(t, strings.Join(critical, "\n"), "clpm")
	assert.NotContains(t, strings.Join(critical, "\n"), "comprehension")

	acceptable := section(lines, "Acceptable")
	require.NotEmpty(t, acceptable, "missing acceptable heading in %q", lines)
	assert.Contains(t, strings.Join(acceptable, "\n"), "comprehension")

	concerning := section(lines, "Concerning")
	assert.Contains(t, strings.Join(concerning, "\n"), "phoneme")

	assert.Contains(t, lines[0], "1 result(s)")
	assert.Contains(t, lines, "- Correct Letters Per Minute (clpm): 35.0%")
	assert.Contains(t, lines, "### Focus on foundational skills development:")
}

func TestRenderIsIdempotent(t *testing.T) {
	s := zeroScoreSummary(t)
	first := Render(s, i18n.English)
	second := Render(s, i18n.English)
	assert.Equal(t, first, second)

	assert.Equal(t, Render(zeroScoreSummary(t), i18n.French), Render(zeroScoreSummary(t), i18n.French))
}

func TestRenderFrench(t *testing.T) {
	lines := Render(zeroScoreSummary(t), i18n.French)
	critical := section(lines, "Critique")
	require.NotEmpty(t, critical)
	assert.Contains(t, strings.Join(critical, "\n"), "Lettres correctes par minute (clpm)")
}

func TestRenderFallsBackToGenericSentence(t *testing.T) {
	lines := Render(zeroScoreSummary(t), i18n.Lang("ar"))
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "### Requires attention at level critical.")
	assert.Contains(t, joined, "### Requires attention at level acceptable.")
	assert.Contains(t, joined, "clpm")
	// structural text comes from english, band advice does not
	assert.Contains(t, lines, "## Zero scores")
	assert.NotContains(t, joined, "Recommendation:")
}

func TestRenderFrenchSubjectAdviceAtEveryLevel(t *testing.T) {
	var results []bands.Result
	for subject, v := range map[string]float64{"clpm": 12, "orf": 25} {
		r, err := bands.Classify(bands.ZeroScorePct, subject, v)
		require.NoError(t, err)
		results = append(results, r)
	}
	lines := Render(aggregate.Aggregate(results), i18n.French)
	assert.Contains(t, lines, "  Recommandation : Lettres correctes par minute: Poursuivre les activités régulières de reconnaissance des lettres en suivant les progrès.")
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "Renforcer l'enseignement de la fluidité de lecture orale")
}

func TestRenderStatusLineIgnoresRelationshipKinds(t *testing.T) {
	p, err := bands.Classify(bands.PValue, "clpm~orf", 0.0001)
	require.NoError(t, err)
	r, err := bands.Classify(bands.PearsonR, "clpm~orf", 0.05)
	require.NoError(t, err)

	lines := Render(aggregate.Aggregate([]bands.Result{p, r}), i18n.English)
	assert.Equal(t, "No result falls in the most severe band.", lines[0])
}

func TestRenderKeepsAnalysesApart(t *testing.T) {
	var results []bands.Result
	for _, tc := range []struct {
		analysis string
		p        float64
	}{{"gender", 0.733}, {"language", 0.52}} {
		r, err := bands.Classify(bands.PValue, Qualify(tc.analysis, "clpm"), tc.p)
		require.NoError(t, err)
		results = append(results, r)
	}
	lines := Render(aggregate.Aggregate(results), i18n.English)
	assert.Contains(t, lines, "- Correct Letters Per Minute [Gender] (clpm): 0.733")
	assert.Contains(t, lines, "- Correct Letters Per Minute [Language of instruction] (clpm): 0.520")
}

func TestRenderEmptySummary(t *testing.T) {
	lines := Render(aggregate.Aggregate(nil), i18n.English)
	assert.Equal(t, []string{"No results to interpret."}, lines)
}

func TestRenderInsufficientData(t *testing.T) {
	s := aggregate.Aggregate([]bands.Result{bands.Insufficient(bands.CronbachAlpha, "egma")})
	lines := Render(s, i18n.English)
	assert.Contains(t, lines, "### Insufficient data")
	assert.Contains(t, lines, "- EGMA battery (egma): N/A")
}

func TestSubjectLabel(t *testing.T) {
	assert.Equal(t, "Correct Letters Per Minute / Oral Reading Fluency", SubjectLabel("clpm~orf", i18n.English))
	assert.Equal(t, "EGRA battery (English)", SubjectLabel("egra@English", i18n.English))
	assert.Equal(t, "school-7", SubjectLabel("school-7", i18n.English))
	assert.Equal(t, "Correct Letters Per Minute / Oral Reading Fluency [Correlation]", SubjectLabel(Qualify("correlation", "clpm~orf"), i18n.English))
	assert.Equal(t, "Lettres correctes par minute [Genre]", SubjectLabel("gender/clpm", i18n.French))

	analysis, code := Unqualify("school/North/East")
	assert.Equal(t, "school", analysis)
	assert.Equal(t, "North/East", code)
	analysis, code = Unqualify("North/East")
	assert.Empty(t, analysis)
	assert.Equal(t, "North/East", code)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "35.0%", FormatValue(bands.ZeroScorePct, 35))
	assert.Equal(t, "<0.001", FormatValue(bands.PValue, 0.0001))
	assert.Equal(t, "0.043", FormatValue(bands.PValue, 0.0432))
	assert.Equal(t, "0.81", FormatValue(bands.CronbachAlpha, 0.8129))
}
