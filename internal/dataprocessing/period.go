package dataprocessing

import (
	"math"

	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// AveragePeriods partitions the records of one station into the early, mid and
// late windows and averages boardings and alightings in each. All three windows
// are always returned in that order; an empty window is marked NoData.
func AveragePeriods(station string, records []domain.UsageRecord) []domain.PeriodAverage {
	type sums struct {
		n          int
		boardings  int64
		alightings int64
	}

	var acc [3]sums
	for _, r := range records {
		w := domain.WindowForDay(r.DayOfMonth)
		acc[w].n++
		acc[w].boardings += r.Boardings
		acc[w].alightings += r.Alightings
	}

	out := make([]domain.PeriodAverage, 0, len(domain.PeriodWindows))
	for _, w := range domain.PeriodWindows {
		s := acc[w]
		avg := domain.PeriodAverage{
			Station: station,
			Window:  w,
			Label:   w.Label(),
			Records: s.n,
			NoData:  s.n == 0,
		}
		if s.n > 0 {
			b := Round1(float64(s.boardings) / float64(s.n))
			a := Round1(float64(s.alightings) / float64(s.n))
			avg.AvgBoardings = &b
			avg.AvgAlightings = &a
		}
		out = append(out, avg)
	}
	return out
}

// Round1 rounds to one decimal place, halves to even.
func Round1(x float64) float64 {
	return math.RoundToEven(x*10) / 10
}
