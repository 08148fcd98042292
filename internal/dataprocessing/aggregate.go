package dataprocessing

import (
	"sort"
	"time"

	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// AggregateByStation sums Total per station and orders the groups by
// descending total, ties broken by ascending station name. Line and Date are
// set when every record of the group shares them.
func AggregateByStation(records []domain.UsageRecord) []domain.StationAggregate {
	type group struct {
		agg       domain.StationAggregate
		mixedLine bool
		mixedDate bool
	}

	groups := make(map[string]*group)
	for _, r := range records {
		g, ok := groups[r.Station]
		if !ok {
			groups[r.Station] = &group{agg: domain.StationAggregate{
				Station: r.Station,
				Line:    r.Line,
				Date:    r.Date,
				Total:   r.Total,
			}}
			continue
		}
		g.agg.Total += r.Total
		if g.agg.Line != r.Line {
			g.mixedLine = true
		}
		if !g.agg.Date.Equal(r.Date) {
			g.mixedDate = true
		}
	}

	out := make([]domain.StationAggregate, 0, len(groups))
	for _, g := range groups {
		agg := g.agg
		if g.mixedLine {
			agg.Line = ""
		}
		if g.mixedDate {
			agg.Date = time.Time{}
		}
		out = append(out, agg)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Station < out[j].Station
	})
	return out
}

// SumByStation sums boardings and alightings per station, ordered by station name.
func SumByStation(records []domain.UsageRecord) []domain.StationTotals {
	sums := make(map[string]*domain.StationTotals)
	for _, r := range records {
		s, ok := sums[r.Station]
		if !ok {
			s = &domain.StationTotals{Station: r.Station}
			sums[r.Station] = s
		}
		s.Boardings += r.Boardings
		s.Alightings += r.Alightings
	}

	out := make([]domain.StationTotals, 0, len(sums))
	for _, s := range sums {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Station < out[j].Station })
	return out
}

// LinesOf returns the distinct lines in records, ascending.
func LinesOf(records []domain.UsageRecord) []string {
	return distinct(records, func(r domain.UsageRecord) string { return r.Line })
}
