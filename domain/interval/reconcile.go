package interval

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats/scalar"
)

// BoundaryPrecision is the number of decimal places boundary values are
// rounded to before set comparison, absorbing floating-point noise picked up
// on the round trip through generated XML text.
const BoundaryPrecision = 4

// BoundaryDiff holds the asymmetric differences between the boundary set the
// tabular MAPPING implies and the set actually present in the artifact.
type BoundaryDiff struct {
	// MissingFromArtifact are boundaries the source declares but the
	// artifact never mentions.
	MissingFromArtifact []float64
	// ExtraInArtifact are boundaries the artifact uses that the source
	// never declares.
	ExtraInArtifact []float64
}

// Clean reports whether the two boundary sets matched.
func (d BoundaryDiff) Clean() bool {
	return len(d.MissingFromArtifact) == 0 && len(d.ExtraInArtifact) == 0
}

// ReconcileBoundaries compares the boundary values present in the artifact's
// reconstructed intervals against the expected set, as unordered sets of
// rounded values. An unbounded first/last bin implicitly starts or ends at
// the concept's declared min/max, so infinite endpoints substitute those.
func ReconcileBoundaries(intervals []Interval, expected []float64, declaredMin, declaredMax float64) BoundaryDiff {
	actual := make(map[float64]struct{})
	for _, iv := range intervals {
		lower, upper := iv.Lower, iv.Upper
		if math.IsInf(lower, -1) {
			lower = declaredMin
		}
		if math.IsInf(upper, 1) {
			upper = declaredMax
		}
		actual[scalar.Round(lower, BoundaryPrecision)] = struct{}{}
		actual[scalar.Round(upper, BoundaryPrecision)] = struct{}{}
	}

	want := make(map[float64]struct{}, len(expected))
	for _, v := range expected {
		want[scalar.Round(v, BoundaryPrecision)] = struct{}{}
	}

	var diff BoundaryDiff
	for v := range want {
		if _, ok := actual[v]; !ok {
			diff.MissingFromArtifact = append(diff.MissingFromArtifact, v)
		}
	}
	for v := range actual {
		if _, ok := want[v]; !ok {
			diff.ExtraInArtifact = append(diff.ExtraInArtifact, v)
		}
	}
	sort.Float64s(diff.MissingFromArtifact)
	sort.Float64s(diff.ExtraInArtifact)
	return diff
}
