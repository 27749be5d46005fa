package interval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_WellFormedChain(t *testing.T) {
	bins := []Interval{
		FromPair("LOW", 0, 70),
		FromPair("NORMAL", 70, 140),
		FromPair("HIGH", 140, 200),
	}
	flaws := Analyze(bins)
	assert.Empty(t, flaws)
}

func TestAnalyze_Gap(t *testing.T) {
	bins := []Interval{
		FromPair("LOW", 0, 70),
		FromPair("NORMAL", 75, 140),
		FromPair("HIGH", 140, 200),
	}
	flaws := Analyze(bins)
	require.Len(t, flaws, 1)
	assert.Equal(t, FlawGap, flaws[0].Kind)
	assert.Equal(t, "LOW", flaws[0].FirstLabel)
	assert.Equal(t, "NORMAL", flaws[0].SecondLabel)
	assert.Equal(t, 70.0, flaws[0].FirstValue)
	assert.Equal(t, 75.0, flaws[0].SecondValue)
}

func TestAnalyze_Overlap(t *testing.T) {
	bins := []Interval{
		FromPair("LOW", 0, 75),
		FromPair("NORMAL", 70, 140),
		FromPair("HIGH", 140, 200),
	}
	flaws := Analyze(bins)
	require.Len(t, flaws, 1)
	assert.Equal(t, FlawOverlap, flaws[0].Kind)
}

func TestAnalyze_InclusivityContradiction(t *testing.T) {
	// Both sides claim 70: [0,70] then [70,140) double-covers the boundary.
	bins := []Interval{
		{Label: "LOW", Lower: 0, Upper: 70, LowerInclusive: true, UpperInclusive: true},
		FromPair("NORMAL", 70, 140),
	}
	flaws := Analyze(bins)
	require.Len(t, flaws, 1)
	assert.Equal(t, FlawOverlap, flaws[0].Kind)
}

func TestAnalyze_Degenerate(t *testing.T) {
	bins := []Interval{
		FromPair("BAD", 70, 70),
		FromPair("HIGH", 70, 140),
	}
	flaws := Analyze(bins)
	require.Len(t, flaws, 1)
	assert.Equal(t, FlawDegenerate, flaws[0].Kind)
	assert.Equal(t, "BAD", flaws[0].FirstLabel)
}

func TestFromPredicate_SingleComparisons(t *testing.T) {
	iv, err := FromPredicate("LOW", Predicate{Single: &Comparison{Op: OpLT, Value: 70}})
	require.NoError(t, err)
	assert.True(t, math.IsInf(iv.Lower, -1))
	assert.Equal(t, 70.0, iv.Upper)
	assert.False(t, iv.UpperInclusive)

	iv, err = FromPredicate("HIGH", Predicate{Single: &Comparison{Op: OpGE, Value: 140}})
	require.NoError(t, err)
	assert.Equal(t, 140.0, iv.Lower)
	assert.True(t, iv.LowerInclusive)
	assert.True(t, math.IsInf(iv.Upper, 1))
}

func TestFromPredicate_Conjunction(t *testing.T) {
	iv, err := FromPredicate("NORMAL", Predicate{Conjunction: []Comparison{
		{Op: OpGE, Value: 70},
		{Op: OpLT, Value: 140},
	}})
	require.NoError(t, err)
	assert.Equal(t, 70.0, iv.Lower)
	assert.True(t, iv.LowerInclusive)
	assert.Equal(t, 140.0, iv.Upper)
	assert.False(t, iv.UpperInclusive)
}

func TestFromPredicate_ConjunctionMissingBound(t *testing.T) {
	_, err := FromPredicate("NORMAL", Predicate{Conjunction: []Comparison{
		{Op: OpGE, Value: 70},
		{Op: OpGT, Value: 140},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upper-bound")

	_, err = FromPredicate("NORMAL", Predicate{Conjunction: []Comparison{
		{Op: OpLT, Value: 70},
		{Op: OpLE, Value: 140},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lower-bound")
}

func TestFromPredicate_Unrecognizable(t *testing.T) {
	_, err := FromPredicate("X", Predicate{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognizable predicate structure")
}

func TestReconcileBoundaries_Clean(t *testing.T) {
	intervals := []Interval{
		{Label: "LOW", Lower: math.Inf(-1), Upper: 70},
		{Label: "NORMAL", Lower: 70, LowerInclusive: true, Upper: 140},
		{Label: "HIGH", Lower: 140, LowerInclusive: true, Upper: math.Inf(1)},
	}
	diff := ReconcileBoundaries(intervals, []float64{0, 70, 140, 200}, 0, 200)
	assert.True(t, diff.Clean())
}

func TestReconcileBoundaries_AsymmetricDifferences(t *testing.T) {
	intervals := []Interval{
		{Label: "LOW", Lower: 0, LowerInclusive: true, Upper: 75},
		{Label: "HIGH", Lower: 75, LowerInclusive: true, Upper: 200},
	}
	diff := ReconcileBoundaries(intervals, []float64{0, 70, 200}, 0, 200)
	assert.Equal(t, []float64{70}, diff.MissingFromArtifact)
	assert.Equal(t, []float64{75}, diff.ExtraInArtifact)
}

func TestReconcileBoundaries_AbsorbsFloatNoise(t *testing.T) {
	intervals := []Interval{
		{Label: "LOW", Lower: 0, LowerInclusive: true, Upper: 70.00000001},
		{Label: "HIGH", Lower: 70.00000001, LowerInclusive: true, Upper: 200},
	}
	diff := ReconcileBoundaries(intervals, []float64{0, 70, 200}, 0, 200)
	assert.True(t, diff.Clean())
}

func TestParseCompareOp(t *testing.T) {
	cases := map[string]CompareOp{
		"lt": OpLT, "<": OpLT,
		"le": OpLE, "lte": OpLE, "<=": OpLE,
		"gt": OpGT, ">": OpGT,
		"ge": OpGE, "gte": OpGE, ">=": OpGE,
	}
	for in, want := range cases {
		got, ok := ParseCompareOp(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseCompareOp("eq")
	assert.False(t, ok)
}
