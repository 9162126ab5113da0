package bands

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solardome/egra-insight/internal/skills"
)

func TestDefaultTableBandsAreContiguous(t *testing.T) {
	table := Default()
	require.Empty(t, table.Validate())

	for _, s := range table.Scales() {
		s := s
		t.Run(scaleName(s), func(t *testing.T) {
			require.NotEmpty(t, s.Bands)
			assert.True(t, math.IsInf(s.Bands[0].Lower, -1), "first band must be open below")
			assert.True(t, math.IsInf(s.Bands[len(s.Bands)-1].Upper, 1), "last band must be open above")
			for i := 1; i < len(s.Bands); i++ {
				assert.Equal(t, s.Bands[i-1].Upper, s.Bands[i].Lower, "bands %s and %s must touch", s.Bands[i-1].Label, s.Bands[i].Label)
			}
			severities := map[int]bool{}
			for _, b := range s.Bands {
				assert.False(t, severities[b.Severity], "severity %d assigned twice", b.Severity)
				severities[b.Severity] = true
			}
			assert.True(t, severities[0], "a most severe band must exist")
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	table := Default()
	for _, s := range table.Scales() {
		samples := []float64{math.Inf(-1), -1e9, -1, 0, 1, 1e9, math.Inf(1)}
		for _, b := range s.Bands {
			for _, edge := range []float64{b.Lower, b.Upper} {
				if math.IsInf(edge, 0) {
					continue
				}
				samples = append(samples, edge, math.Nextafter(edge, math.Inf(-1)), math.Nextafter(edge, math.Inf(1)))
			}
		}
		for _, v := range samples {
			res, err := table.Classify(s.Kind, s.Subject, v)
			require.NoError(t, err)
			matches := 0
			for _, b := range s.Bands {
				if b.Contains(s.Direction, v) {
					matches++
					assert.Equal(t, b.Label, res.Label, "%s value %v", scaleName(s), v)
				}
			}
			assert.Equal(t, 1, matches, "%s value %v must fall in exactly one band", scaleName(s), v)
		}
	}
}

func TestClassifyZeroScoreBoundaries(t *testing.T) {
	cases := []struct {
		value float64
		want  Label
	}{
		{30.0, LabelCritical},
		{29.999, LabelConcerning},
		{20.0, LabelConcerning},
		{19.99, LabelWatch},
		{10.0, LabelWatch},
		{9.5, LabelAcceptable},
		{0, LabelAcceptable},
		{100, LabelCritical},
	}
	for _, tc := range cases {
		res, err := Classify(ZeroScorePct, "clpm", tc.value)
		require.NoError(t, err)
		assert.Equal(t, tc.want, res.Label, "value %v", tc.value)
	}
}

func TestClassifyHigherIsBetterBoundaryGoesToMoreSevereBand(t *testing.T) {
	res, err := Classify(CronbachAlpha, "egra", 0.7)
	require.NoError(t, err)
	assert.Equal(t, LabelQuestionable, res.Label)

	res, err = Classify(CronbachAlpha, "egra", 0.7000001)
	require.NoError(t, err)
	assert.Equal(t, LabelAcceptable, res.Label)

	res, err = Classify(BenchmarkPct, "orf", 100)
	require.NoError(t, err)
	assert.Equal(t, LabelApproaching, res.Label)

	res, err = Classify(PValue, "clpm", 0.05)
	require.NoError(t, err)
	assert.Equal(t, LabelSignificant, res.Label)

	res, err = Classify(EffectSizeR, "clpm", 0.5)
	require.NoError(t, err)
	assert.Equal(t, LabelLarge, res.Label)
	assert.Equal(t, 0, res.Severity)
}

func TestClassifyPupilStandardUsesTaskScale(t *testing.T) {
	res, err := Classify(PupilStandard, "clpm", 44)
	require.NoError(t, err)
	assert.Equal(t, LabelMastery, res.Label)

	res, err = Classify(PupilStandard, "clpm", 43)
	require.NoError(t, err)
	assert.Equal(t, LabelDeveloping, res.Label)

	res, err = Classify(PupilStandard, "addition", 5)
	require.NoError(t, err)
	assert.Equal(t, LabelEmerging, res.Label)

	_, err = Classify(PupilStandard, "not_a_task", 5)
	assert.ErrorIs(t, err, ErrSubjectRequired)
	assert.NotErrorIs(t, err, ErrUnknownMetricKind)
}

func TestPupilStandardWithoutSubject(t *testing.T) {
	_, err := BandsFor(PupilStandard)
	require.ErrorIs(t, err, ErrSubjectRequired)
	var subjErr *SubjectRequiredError
	require.ErrorAs(t, err, &subjErr)
	assert.Equal(t, "clpm", subjErr.Subjects[0])
	assert.Contains(t, err.Error(), "needs a subject")

	_, err = Classify(PupilStandard, "", 12)
	assert.ErrorIs(t, err, ErrSubjectRequired)

	bandsForTask, dir, err := Default().BandsForSubject(PupilStandard, "phoneme")
	require.NoError(t, err)
	assert.Equal(t, HigherIsBetter, dir)
	assert.Len(t, bandsForTask, 3)
}

func TestPupilStandardReachableOnEveryTaskScale(t *testing.T) {
	for _, task := range skills.Tasks() {
		top, err := Classify(PupilStandard, task.Code, task.MaxScore)
		require.NoError(t, err, task.Code)
		assert.Equal(t, LabelMastery, top.Label, "%s at its maximum score %g", task.Code, task.MaxScore)

		bottom, err := Classify(PupilStandard, task.Code, task.MinScore)
		require.NoError(t, err, task.Code)
		assert.Equal(t, LabelEmerging, bottom.Label, task.Code)

		mid, err := Classify(PupilStandard, task.Code, task.Standard.DevelopingMax)
		require.NoError(t, err, task.Code)
		assert.Equal(t, LabelDeveloping, mid.Label, task.Code)
	}
}

func TestAlertingKinds(t *testing.T) {
	for _, kind := range []MetricKind{ZeroScorePct, BenchmarkPct, CronbachAlpha, MeanScorePct, PupilStandard, EffectSizeR} {
		assert.True(t, Alerting(kind), kind)
	}
	assert.False(t, Alerting(PearsonR))
	assert.False(t, Alerting(PValue))

	p, err := Classify(PValue, "clpm~orf", 0.0001)
	require.NoError(t, err)
	assert.True(t, p.MostSevere())
	assert.False(t, p.NeedsAttention())

	z, err := Classify(ZeroScorePct, "clpm", 45)
	require.NoError(t, err)
	assert.True(t, z.NeedsAttention())
	assert.False(t, Insufficient(ZeroScorePct, "clpm").NeedsAttention())
}

func TestClassifyNaNReturnsInsufficientData(t *testing.T) {
	res, err := Classify(ZeroScorePct, "clpm", math.NaN())
	require.NoError(t, err)
	assert.True(t, res.Insufficient)
	assert.Equal(t, LabelInsufficientData, res.Label)
	assert.False(t, res.MostSevere())
}

func TestUnknownMetricKind(t *testing.T) {
	_, err := Classify(MetricKind("reading_age"), "clpm", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMetricKind))
	var kindErr *UnknownMetricKindError
	require.ErrorAs(t, err, &kindErr)
	assert.Equal(t, MetricKind("reading_age"), kindErr.Kind)

	_, err = BandsFor(MetricKind("reading_age"))
	assert.ErrorIs(t, err, ErrUnknownMetricKind)
}

func TestBandsForReturnsCopy(t *testing.T) {
	got, err := BandsFor(ZeroScorePct)
	require.NoError(t, err)
	require.Len(t, got, 4)
	got[0].Label = LabelCritical

	again, err := BandsFor(ZeroScorePct)
	require.NoError(t, err)
	assert.Equal(t, LabelAcceptable, again[0].Label)
}

func TestNewTableRejectsBrokenScales(t *testing.T) {
	inf := math.Inf(1)
	_, errs := NewTable([]Scale{
		{
			Kind:      ZeroScorePct,
			Direction: HigherIsWorse,
			Bands: []Band{
				{Label: LabelAcceptable, Lower: math.Inf(-1), Upper: 10},
				{Label: LabelCritical, Lower: 12, Upper: inf},
			},
		},
		{
			Kind:      CronbachAlpha,
			Direction: HigherIsBetter,
			Bands: []Band{
				{Label: LabelPoor, Lower: 0, Upper: 0.6},
				{Label: LabelPoor, Lower: 0.5, Upper: inf},
			},
		},
		{Kind: PValue, Direction: "sideways", Bands: []Band{{Label: "bogus", Lower: math.Inf(-1), Upper: inf}}},
	})
	require.NotEmpty(t, errs)
	joined := ""
	for _, e := range errs {
		joined += e + "\n"
	}
	assert.Contains(t, joined, "gap between acceptable and critical")
	assert.Contains(t, joined, "overlap between poor and poor")
	assert.Contains(t, joined, "duplicate label poor")
	assert.Contains(t, joined, "must start at -Inf")
	assert.Contains(t, joined, "direction must be one of")
	assert.Contains(t, joined, `unknown label "bogus"`)
}

func TestMergeReplacesScale(t *testing.T) {
	merged, errs := Default().Merge([]Scale{{
		Kind:      ZeroScorePct,
		Direction: HigherIsWorse,
		Bands: []Band{
			{Label: LabelAcceptable, Lower: math.Inf(-1), Upper: 15},
			{Label: LabelCritical, Lower: 15, Upper: math.Inf(1)},
		},
	}})
	require.Empty(t, errs)

	res, err := merged.Classify(ZeroScorePct, "clpm", 15)
	require.NoError(t, err)
	assert.Equal(t, LabelCritical, res.Label)

	res, err = merged.Classify(CronbachAlpha, "egra", 0.95)
	require.NoError(t, err)
	assert.Equal(t, LabelExcellent, res.Label)

	res, err = Classify(ZeroScorePct, "clpm", 15)
	require.NoError(t, err)
	assert.Equal(t, LabelWatch, res.Label, "built-in table must be untouched")
}
