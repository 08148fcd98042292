package dataprocessing

import (
	"time"

	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// FilterScope keeps the records inside scope.
func FilterScope(records []domain.UsageRecord, scope domain.MonthScope) []domain.UsageRecord {
	return filter(records, func(r domain.UsageRecord) bool { return scope.Contains(r.Date) })
}

// FilterDayLine keeps the records of one calendar day on one line. The line
// must match exactly. No match yields an empty slice.
func FilterDayLine(records []domain.UsageRecord, date time.Time, line string) []domain.UsageRecord {
	return filter(records, func(r domain.UsageRecord) bool {
		return r.Line == line && r.SameDay(date)
	})
}

// FilterStation keeps every record of station.
func FilterStation(records []domain.UsageRecord, station string) []domain.UsageRecord {
	return filter(records, func(r domain.UsageRecord) bool { return r.Station == station })
}

// FilterLine keeps every record of line.
func FilterLine(records []domain.UsageRecord, line string) []domain.UsageRecord {
	return filter(records, func(r domain.UsageRecord) bool { return r.Line == line })
}

func filter(records []domain.UsageRecord, keep func(domain.UsageRecord) bool) []domain.UsageRecord {
	out := make([]domain.UsageRecord, 0)
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
