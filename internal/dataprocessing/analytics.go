package dataprocessing

import (
	"time"

	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// PreviewRows is how many raw records a ranking carries for inspection.
const PreviewRows = 20

// BuildLineRanking answers a (date, line) query: stations ordered by total with
// a color per bar. A positive limit keeps only the top stations and colors are
// assigned after limiting. An empty selection yields Empty=true, not an error.
func BuildLineRanking(records []domain.UsageRecord, date time.Time, line string, limit int, palette Palette) domain.LineRanking {
	selected := FilterDayLine(records, date, line)

	ranking := domain.LineRanking{
		Date:     truncateDay(date),
		Line:     line,
		RowCount: len(selected),
		Empty:    len(selected) == 0,
		Bars:     []domain.StationBar{},
	}
	if ranking.Empty {
		return ranking
	}

	aggregates := AggregateByStation(selected)
	if limit > 0 && len(aggregates) > limit {
		aggregates = aggregates[:limit]
	}

	colors := palette.Assign(len(aggregates))
	ranking.Bars = make([]domain.StationBar, len(aggregates))
	for i, agg := range aggregates {
		ranking.Bars[i] = domain.StationBar{
			Station: agg.Station,
			Total:   agg.Total,
			Color:   colors[i],
		}
	}

	n := len(selected)
	if n > PreviewRows {
		n = PreviewRows
	}
	ranking.Preview = append([]domain.UsageRecord(nil), selected[:n]...)
	return ranking
}

// GradeStationOnLine grades the month totals of station against every station
// of the same line, separately for boardings and alightings.
func GradeStationOnLine(records []domain.UsageRecord, station, line string) domain.LineGrade {
	totals := SumByStation(FilterLine(records, line))

	grade := domain.LineGrade{
		Line:           line,
		Station:        station,
		BoardingGrade:  domain.GradeUndefined,
		AlightingGrade: domain.GradeUndefined,
	}

	boardings := make([]float64, 0, len(totals))
	alightings := make([]float64, 0, len(totals))
	found := false
	for _, t := range totals {
		boardings = append(boardings, float64(t.Boardings))
		alightings = append(alightings, float64(t.Alightings))
		if t.Station == station {
			grade.TotalBoardings = t.Boardings
			grade.TotalAlightings = t.Alightings
			found = true
		}
	}
	if !found {
		return grade
	}

	grade.BoardingGrade = ClassifyRank(float64(grade.TotalBoardings), boardings)
	grade.AlightingGrade = ClassifyRank(float64(grade.TotalAlightings), alightings)
	return grade
}

// BuildStationReport answers a station query over the whole scoped month: the
// lines serving it, its period averages and its grade on each line.
func BuildStationReport(records []domain.UsageRecord, station string) domain.StationReport {
	return stationReport(station, FilterStation(records, station), func(line string) []domain.UsageRecord {
		return FilterLine(records, line)
	})
}

// LineRanking is BuildLineRanking over the records of one day and line only.
func (d *Dataset) LineRanking(date time.Time, line string, limit int, palette Palette) domain.LineRanking {
	return BuildLineRanking(d.ForDayAndLine(date, line), date, line, limit, palette)
}

// StationReport is BuildStationReport reading only the station's own records
// and those of the lines serving it.
func (d *Dataset) StationReport(station string) domain.StationReport {
	return stationReport(station, d.ForStation(station), d.ForLine)
}

func stationReport(station string, own []domain.UsageRecord, lineRecords func(string) []domain.UsageRecord) domain.StationReport {
	report := domain.StationReport{
		Station: station,
		Empty:   len(own) == 0,
		Lines:   LinesOf(own),
		Periods: AveragePeriods(station, own),
		Grades:  []domain.LineGrade{},
	}

	for _, line := range report.Lines {
		report.Grades = append(report.Grades, GradeStationOnLine(lineRecords(line), station, line))
	}
	return report
}
