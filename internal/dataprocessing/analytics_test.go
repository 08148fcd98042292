package dataprocessing

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

func day(d int) time.Time {
	return time.Date(2025, 10, d, 0, 0, 0, 0, time.UTC)
}

func rec(d int, line, station string, boardings, alightings int64) domain.UsageRecord {
	return domain.NewUsageRecord(domain.RawRow{
		Date:       day(d),
		Line:       line,
		Station:    station,
		Boardings:  boardings,
		Alightings: alightings,
	})
}

func sampleRecords() []domain.UsageRecord {
	return []domain.UsageRecord{
		rec(1, "2호선", "강남", 1000, 900),
		rec(1, "2호선", "역삼", 500, 400),
		rec(1, "2호선", "선릉", 300, 200),
		rec(1, "1호선", "서울역", 800, 700),
		rec(15, "2호선", "강남", 1200, 1100),
		rec(15, "2호선", "역삼", 600, 500),
		rec(15, "2호선", "선릉", 100, 100),
		rec(15, "1호선", "서울역", 900, 800),
		rec(25, "2호선", "강남", 1100, 1000),
		rec(25, "1호선", "서울역", 850, 750),
	}
}

func TestFilterDayLine(t *testing.T) {
	records := sampleRecords()

	got := FilterDayLine(records, day(1), "2호선")
	assert.Len(t, got, 3)
	for _, r := range got {
		assert.Equal(t, "2호선", r.Line)
		assert.Equal(t, 1, r.DayOfMonth)
	}

	assert.Empty(t, FilterDayLine(records, day(2), "2호선"))
	assert.NotNil(t, FilterDayLine(records, day(2), "2호선"))
	assert.Empty(t, FilterDayLine(records, day(1), "2"))

	noon := time.Date(2025, 10, 1, 12, 30, 0, 0, time.UTC)
	assert.Len(t, FilterDayLine(records, noon, "1호선"), 1)
}

func TestAggregateByStation(t *testing.T) {
	records := []domain.UsageRecord{
		rec(5, "1", "A", 100, 50),
		rec(5, "1", "B", 10, 5),
	}

	got := AggregateByStation(records)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Station)
	assert.Equal(t, int64(150), got[0].Total)
	assert.Equal(t, "B", got[1].Station)
	assert.Equal(t, int64(15), got[1].Total)
	assert.Equal(t, "1", got[0].Line)
	assert.True(t, day(5).Equal(got[0].Date))
}

func TestAggregateByStation_TiesAndEmpty(t *testing.T) {
	assert.Empty(t, AggregateByStation(nil))

	records := []domain.UsageRecord{
		rec(1, "1", "C", 10, 0),
		rec(1, "1", "A", 5, 5),
		rec(2, "2", "B", 4, 6),
		rec(1, "1", "D", 1, 0),
	}
	got := AggregateByStation(records)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"A", "B", "C", "D"}, []string{got[0].Station, got[1].Station, got[2].Station, got[3].Station})
}

func TestAggregateByStation_OrderIndependent(t *testing.T) {
	records := sampleRecords()
	want := AggregateByStation(records)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]domain.UsageRecord(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, AggregateByStation(shuffled))
	}
}

func TestAggregateByStation_MixedScopeClearsLineAndDate(t *testing.T) {
	got := AggregateByStation([]domain.UsageRecord{
		rec(1, "1", "A", 1, 1),
		rec(2, "2", "A", 1, 1),
	})
	require.Len(t, got, 1)
	assert.Equal(t, int64(4), got[0].Total)
	assert.Empty(t, got[0].Line)
	assert.True(t, got[0].Date.IsZero())
}

func TestQuantile(t *testing.T) {
	sorted := []float64{400, 1100, 3300}

	assert.Equal(t, 400.0, Quantile(sorted, 0))
	assert.Equal(t, 3300.0, Quantile(sorted, 1))
	assert.Equal(t, 1100.0, Quantile(sorted, 0.5))
	assert.InDelta(t, 866.6667, Quantile(sorted, 1.0/3.0), 0.001)
	assert.InDelta(t, 1833.3333, Quantile(sorted, 2.0/3.0), 0.001)
	assert.Equal(t, 7.0, Quantile([]float64{7}, 2.0/3.0))
}

func TestClassifyRank(t *testing.T) {
	dist := []float64{1, 2, 3, 4, 5, 6, 7}
	// 1/3 quantile = 3, 2/3 quantile = 5
	tests := []struct {
		value float64
		want  domain.Grade
	}{
		{value: 7, want: domain.GradeHigh},
		{value: 5, want: domain.GradeHigh},
		{value: 4.99, want: domain.GradeMid},
		{value: 3, want: domain.GradeMid},
		{value: 2.99, want: domain.GradeLow},
		{value: 1, want: domain.GradeLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyRank(tt.value, dist), "value %v", tt.value)
	}

	assert.Equal(t, domain.GradeUndefined, ClassifyRank(5, nil))
	assert.Equal(t, domain.GradeHigh, ClassifyRank(5, []float64{5}))
}

func TestClassifyRank_PartitionsLine(t *testing.T) {
	dist := []float64{12, 7, 7, 30, 1, 19, 0, 44, 7, 3}
	counts := map[domain.Grade]int{}
	for _, v := range dist {
		g := ClassifyRank(v, dist)
		require.True(t, g.Defined())
		counts[g]++
	}

	assert.Equal(t, len(dist), counts[domain.GradeHigh]+counts[domain.GradeMid]+counts[domain.GradeLow])
	assert.Positive(t, counts[domain.GradeHigh])
	assert.Positive(t, counts[domain.GradeMid])
	assert.Positive(t, counts[domain.GradeLow])
	assert.Equal(t, 4, counts[domain.GradeHigh])
	assert.Equal(t, 3, counts[domain.GradeMid])
	assert.Equal(t, 3, counts[domain.GradeLow])
}

func TestAssignColors(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []string
	}{
		{name: "empty", n: 0, want: []string{}},
		{name: "single", n: 1, want: []string{"#FF0000"}},
		{name: "two", n: 2, want: []string{"#FF0000", "#005AFF"}},
		{name: "three", n: 3, want: []string{"#FF0000", "#005AFF", "#B4DCFF"}},
		{name: "four", n: 4, want: []string{"#FF0000", "#005AFF", "#5A9BFF", "#B4DCFF"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssignColors(tt.n))
		})
	}
}

func TestAssignColors_MonotonicGradient(t *testing.T) {
	colors := AssignColors(5)
	require.Len(t, colors, 5)
	assert.Equal(t, "#FF0000", colors[0])
	assert.Equal(t, DefaultPalette.Start.Hex(), colors[1])
	assert.Equal(t, DefaultPalette.End.Hex(), colors[4])

	prev, err := ParseHex(colors[1])
	require.NoError(t, err)
	for _, c := range colors[2:] {
		cur, err := ParseHex(c)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cur.R, prev.R)
		assert.GreaterOrEqual(t, cur.G, prev.G)
		assert.GreaterOrEqual(t, cur.B, prev.B)
		prev = cur
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#5A9BFF")
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 0x5A, G: 0x9B, B: 0xFF}, c)

	_, err = ParseHex("#12345")
	assert.Error(t, err)
	_, err = ParseHex("#GGGGGG")
	assert.Error(t, err)
}

func TestAveragePeriods(t *testing.T) {
	records := []domain.UsageRecord{
		rec(1, "2호선", "강남", 100, 10),
		rec(10, "2호선", "강남", 201, 21),
		rec(11, "2호선", "강남", 300, 30),
		rec(20, "1호선", "강남", 100, 10),
	}

	got := AveragePeriods("강남", records)
	require.Len(t, got, 3)

	assert.Equal(t, domain.WindowEarly, got[0].Window)
	assert.Equal(t, 2, got[0].Records)
	require.NotNil(t, got[0].AvgBoardings)
	assert.Equal(t, 150.5, *got[0].AvgBoardings)
	assert.Equal(t, 15.5, *got[0].AvgAlightings)

	assert.Equal(t, domain.WindowMid, got[1].Window)
	assert.Equal(t, 200.0, *got[1].AvgBoardings)
	assert.Equal(t, 20.0, *got[1].AvgAlightings)

	assert.Equal(t, domain.WindowLate, got[2].Window)
	assert.True(t, got[2].NoData)
	assert.Nil(t, got[2].AvgBoardings)
	assert.Nil(t, got[2].AvgAlightings)
}

func TestAveragePeriods_Rounding(t *testing.T) {
	records := []domain.UsageRecord{
		rec(21, "1", "A", 1, 0),
		rec(22, "1", "A", 1, 0),
		rec(23, "1", "A", 0, 0),
	}
	got := AveragePeriods("A", records)
	assert.Equal(t, 0.7, *got[2].AvgBoardings)
	assert.Equal(t, 0.0, *got[2].AvgAlightings)
	assert.True(t, got[0].NoData)
	assert.True(t, got[1].NoData)

	halves := []domain.UsageRecord{
		rec(1, "1", "A", 12, 10),
		rec(2, "1", "A", 12, 10),
		rec(3, "1", "A", 12, 10),
		rec(4, "1", "A", 13, 11),
	}
	got = AveragePeriods("A", halves)
	assert.Equal(t, 12.2, *got[0].AvgBoardings)
	assert.Equal(t, 10.2, *got[0].AvgAlightings)
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.0 / 3.0, 0.3},
		{2.45000001, 2.5},
		{99.96, 100.0},
		{12.25, 12.2},
		{12.75, 12.8},
		{0.25, 0.2},
		{-12.25, -12.2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round1(tt.in), "Round1(%v)", tt.in)
	}
}

func TestBuildLineRanking(t *testing.T) {
	ranking := BuildLineRanking(sampleRecords(), day(1), "2호선", 0, DefaultPalette)

	assert.False(t, ranking.Empty)
	assert.Equal(t, 3, ranking.RowCount)
	assert.Len(t, ranking.Preview, 3)
	assert.Equal(t, []domain.StationBar{
		{Station: "강남", Total: 1900, Color: "#FF0000"},
		{Station: "역삼", Total: 900, Color: "#005AFF"},
		{Station: "선릉", Total: 500, Color: "#B4DCFF"},
	}, ranking.Bars)
}

func TestBuildLineRanking_LimitRecolors(t *testing.T) {
	ranking := BuildLineRanking(sampleRecords(), day(1), "2호선", 2, DefaultPalette)

	assert.Equal(t, 3, ranking.RowCount)
	assert.Equal(t, []domain.StationBar{
		{Station: "강남", Total: 1900, Color: "#FF0000"},
		{Station: "역삼", Total: 900, Color: "#005AFF"},
	}, ranking.Bars)
}

func TestBuildLineRanking_Empty(t *testing.T) {
	ranking := BuildLineRanking(sampleRecords(), day(2), "2호선", 0, DefaultPalette)

	assert.True(t, ranking.Empty)
	assert.Zero(t, ranking.RowCount)
	assert.NotNil(t, ranking.Bars)
	assert.Empty(t, ranking.Bars)
}

func TestBuildLineRanking_PreviewCapped(t *testing.T) {
	var records []domain.UsageRecord
	for i := 0; i < 30; i++ {
		records = append(records, rec(3, "7호선", string(rune('A'+i)), int64(i), 0))
	}

	ranking := BuildLineRanking(records, day(3), "7호선", 0, DefaultPalette)
	assert.Equal(t, 30, ranking.RowCount)
	assert.Len(t, ranking.Preview, PreviewRows)
	assert.Len(t, ranking.Bars, 30)
	assert.Equal(t, "A", ranking.Preview[0].Station)
}

func TestBuildStationReport(t *testing.T) {
	report := BuildStationReport(sampleRecords(), "강남")

	assert.False(t, report.Empty)
	assert.Equal(t, []string{"2호선"}, report.Lines)
	require.Len(t, report.Periods, 3)
	assert.Equal(t, 1000.0, *report.Periods[0].AvgBoardings)
	assert.Equal(t, 1200.0, *report.Periods[1].AvgBoardings)
	assert.Equal(t, 1000.0, *report.Periods[2].AvgAlightings)

	require.Len(t, report.Grades, 1)
	g := report.Grades[0]
	assert.Equal(t, int64(3300), g.TotalBoardings)
	assert.Equal(t, int64(3000), g.TotalAlightings)
	assert.Equal(t, domain.GradeHigh, g.BoardingGrade)
	assert.Equal(t, domain.GradeHigh, g.AlightingGrade)

	assert.Equal(t, domain.GradeMid, BuildStationReport(sampleRecords(), "역삼").Grades[0].BoardingGrade)
	assert.Equal(t, domain.GradeLow, BuildStationReport(sampleRecords(), "선릉").Grades[0].BoardingGrade)
}

func TestBuildStationReport_IndependentLines(t *testing.T) {
	records := []domain.UsageRecord{
		rec(1, "1", "X", 1000, 10),
		rec(1, "1", "P", 10, 10),
		rec(1, "1", "Q", 20, 10),
		rec(1, "2", "X", 5, 10),
		rec(1, "2", "R", 500, 10),
		rec(1, "2", "S", 600, 10),
	}

	report := BuildStationReport(records, "X")
	require.Len(t, report.Grades, 2)
	assert.Equal(t, "1", report.Grades[0].Line)
	assert.Equal(t, domain.GradeHigh, report.Grades[0].BoardingGrade)
	assert.Equal(t, "2", report.Grades[1].Line)
	assert.Equal(t, domain.GradeLow, report.Grades[1].BoardingGrade)
}

func TestBuildStationReport_UnknownStation(t *testing.T) {
	report := BuildStationReport(sampleRecords(), "없는역")

	assert.True(t, report.Empty)
	assert.Empty(t, report.Lines)
	assert.Empty(t, report.Grades)
	require.Len(t, report.Periods, 3)
	for _, p := range report.Periods {
		assert.True(t, p.NoData)
	}
}

func TestDatasetOptions(t *testing.T) {
	ds := NewDataset(sampleRecords(), domain.DatasetInfo{Scope: DefaultScope})

	opts := ds.Options()
	assert.False(t, opts.Empty)
	assert.Len(t, opts.Dates, 3)
	require.NotNil(t, opts.DefaultDate)
	assert.True(t, day(1).Equal(*opts.DefaultDate))
	assert.Equal(t, []string{"1호선", "2호선"}, opts.Lines)
	assert.Equal(t, []string{"강남", "서울역", "선릉", "역삼"}, opts.Stations)

	empty := NewDataset(nil, domain.DatasetInfo{})
	assert.True(t, empty.Options().Empty)
	assert.Nil(t, empty.Options().DefaultDate)
	assert.Empty(t, empty.Options().Lines)
}

func TestDataset_RecordsAreCopies(t *testing.T) {
	ds := NewDataset(sampleRecords(), domain.DatasetInfo{})
	recs := ds.Records()
	recs[0].Station = "changed"
	assert.Equal(t, "강남", ds.Records()[0].Station)

	withFP := ds.WithFingerprint("abc")
	assert.Equal(t, "abc", withFP.Info().Fingerprint)
	assert.Empty(t, ds.Info().Fingerprint)
}

func TestFilterScope(t *testing.T) {
	records := append(sampleRecords(),
		domain.NewUsageRecord(domain.RawRow{Date: time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), Line: "2호선", Station: "강남", Boardings: 1}),
		domain.NewUsageRecord(domain.RawRow{Date: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), Line: "2호선", Station: "강남", Boardings: 1}),
		domain.NewUsageRecord(domain.RawRow{Date: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), Line: "2호선", Station: "강남", Boardings: 1}),
	)

	got := FilterScope(records, DefaultScope)
	assert.Len(t, got, len(sampleRecords()))
	for _, r := range got {
		assert.True(t, DefaultScope.Contains(r.Date))
	}

	assert.Empty(t, FilterScope(records, domain.MonthScope{Year: 2025, Month: time.December}))
}

func TestDataset_QueriesMatchBuilders(t *testing.T) {
	ds := NewDataset(sampleRecords(), domain.DatasetInfo{Scope: DefaultScope})

	assert.Len(t, ds.ForDayAndLine(day(1), "2호선"), 3)
	assert.Len(t, ds.ForStation("강남"), 3)
	assert.Len(t, ds.ForLine("1호선"), 3)

	for _, limit := range []int{0, 2} {
		assert.Equal(t,
			BuildLineRanking(sampleRecords(), day(1), "2호선", limit, DefaultPalette),
			ds.LineRanking(day(1), "2호선", limit, DefaultPalette))
	}
	assert.True(t, ds.LineRanking(day(2), "2호선", 0, DefaultPalette).Empty)

	for _, station := range []string{"강남", "서울역", "없는역"} {
		assert.Equal(t, BuildStationReport(sampleRecords(), station), ds.StationReport(station))
	}
}
