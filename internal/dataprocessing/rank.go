package dataprocessing

import (
	"math"
	"sort"

	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// Quantile returns the p-quantile of an ascending slice using linear
// interpolation between the neighbouring order statistics.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	index := p * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Tertiles holds the 1/3 and 2/3 cut points of one distribution.
type Tertiles struct {
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
	Defined bool    `json:"defined"`
}

// ComputeTertiles derives the cut points. An empty distribution is undefined.
func ComputeTertiles(values []float64) Tertiles {
	if len(values) == 0 {
		return Tertiles{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return Tertiles{
		Lower:   Quantile(sorted, 1.0/3.0),
		Upper:   Quantile(sorted, 2.0/3.0),
		Defined: true,
	}
}

// Classify buckets v. A value on the upper cut is high, on the lower cut mid.
func (t Tertiles) Classify(v float64) domain.Grade {
	switch {
	case !t.Defined:
		return domain.GradeUndefined
	case v >= t.Upper:
		return domain.GradeHigh
	case v >= t.Lower:
		return domain.GradeMid
	default:
		return domain.GradeLow
	}
}

// ClassifyRank grades value against the distribution of the same metric over
// every station of one line.
func ClassifyRank(value float64, distribution []float64) domain.Grade {
	return ComputeTertiles(distribution).Classify(value)
}
