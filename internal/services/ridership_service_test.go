package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/szooyang/ai-project01/internal/dataprocessing"
	apperrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

func oct(day int) time.Time {
	return time.Date(2025, time.October, day, 0, 0, 0, 0, time.UTC)
}

func newSampleService(t *testing.T) *RidershipService {
	t.Helper()
	return NewRidershipService(newSampleCache(t), dataprocessing.DefaultPalette, nil, quietLogger())
}

func TestRidershipService_Options(t *testing.T) {
	svc := newSampleService(t)

	opts, err := svc.Options(context.Background())
	require.NoError(t, err)

	assert.False(t, opts.Empty)
	assert.Equal(t, []string{"1호선", "2호선"}, opts.Lines)
	assert.Len(t, opts.Dates, 3)
	require.NotNil(t, opts.DefaultDate)
	assert.True(t, oct(1).Equal(*opts.DefaultDate))
}

func TestRidershipService_Ranking(t *testing.T) {
	svc := newSampleService(t)

	ranking, err := svc.Ranking(context.Background(), nil, RankingQuery{Date: oct(1), Line: "2호선"})
	require.NoError(t, err)

	assert.False(t, ranking.Empty)
	assert.Equal(t, 3, ranking.RowCount)
	assert.Equal(t, []domain.StationBar{
		{Station: "강남", Total: 1900, Color: "#FF0000"},
		{Station: "역삼", Total: 900, Color: "#005AFF"},
		{Station: "선릉", Total: 500, Color: "#B4DCFF"},
	}, ranking.Bars)
}

func TestRidershipService_RankingLimitRecolors(t *testing.T) {
	svc := newSampleService(t)

	ranking, err := svc.Ranking(context.Background(), nil, RankingQuery{Date: oct(1), Line: "2호선", Limit: 2})
	require.NoError(t, err)

	require.Len(t, ranking.Bars, 2)
	assert.Equal(t, "#FF0000", ranking.Bars[0].Color)
	assert.Equal(t, "#005AFF", ranking.Bars[1].Color)
}

func TestRidershipService_RankingEmptySelection(t *testing.T) {
	svc := newSampleService(t)

	ranking, err := svc.Ranking(context.Background(), nil, RankingQuery{Date: oct(2), Line: "2호선"})
	require.NoError(t, err)
	assert.True(t, ranking.Empty)
	assert.Empty(t, ranking.Bars)
	assert.NotNil(t, ranking.Bars)
}

func TestRidershipService_RankingValidation(t *testing.T) {
	svc := newSampleService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query RankingQuery
		want  error
	}{
		{name: "missing date", query: RankingQuery{Line: "2호선"}, want: ErrMissingDate},
		{name: "blank line", query: RankingQuery{Date: oct(1), Line: "  "}, want: ErrMissingLine},
		{name: "negative limit", query: RankingQuery{Date: oct(1), Line: "2호선", Limit: -1}, want: ErrInvalidLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ranking(ctx, nil, tt.query)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		})
	}
}

func TestRidershipService_RankingMemoizedPerSession(t *testing.T) {
	svc := newSampleService(t)
	store := newTestStore(10, time.Minute, nil)
	ctx := context.Background()
	sess := store.Open(ctx)

	q := RankingQuery{Date: oct(15), Line: "2호선"}
	first, err := svc.Ranking(ctx, sess, q)
	require.NoError(t, err)

	info, ok := svc.datasets.Current()
	require.True(t, ok)
	cached, ok := sess.cachedRanking(q.key(info.Fingerprint))
	require.True(t, ok)
	assert.Equal(t, first, cached)

	second, err := svc.Ranking(ctx, sess, q)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	sel := sess.Selection()
	assert.Equal(t, "2호선", sel.Line)
	assert.True(t, oct(15).Equal(*sel.Date))
}

func TestRidershipService_StationReport(t *testing.T) {
	svc := newSampleService(t)

	report, err := svc.StationReport(context.Background(), nil, "강남")
	require.NoError(t, err)

	assert.False(t, report.Empty)
	assert.Equal(t, []string{"2호선"}, report.Lines)
	require.Len(t, report.Periods, 3)
	for i, want := range []float64{1000, 1200, 1100} {
		require.NotNil(t, report.Periods[i].AvgBoardings)
		assert.InDelta(t, want, *report.Periods[i].AvgBoardings, 1e-9)
	}

	require.Len(t, report.Grades, 1)
	assert.Equal(t, int64(3300), report.Grades[0].TotalBoardings)
	assert.Equal(t, domain.GradeHigh, report.Grades[0].BoardingGrade)
	assert.Equal(t, domain.GradeHigh, report.Grades[0].AlightingGrade)
}

func TestRidershipService_StationReportUnknown(t *testing.T) {
	svc := newSampleService(t)

	report, err := svc.StationReport(context.Background(), nil, "없는역")
	require.NoError(t, err)
	assert.True(t, report.Empty)
	require.Len(t, report.Periods, 3)
	for _, p := range report.Periods {
		assert.True(t, p.NoData)
	}
	assert.Empty(t, report.Grades)
}

func TestRidershipService_StationReportValidation(t *testing.T) {
	svc := newSampleService(t)
	_, err := svc.StationReport(context.Background(), nil, " ")
	assert.ErrorIs(t, err, ErrMissingStation)
}

func TestRidershipService_PropagatesDatasetErrors(t *testing.T) {
	provider := &MockDatasetProvider{}
	unreadable := apperrors.NewDataUnreadableError("subway.csv", []string{"cp949", "utf-8-sig"}, errors.New("bad bytes"))
	provider.On("Dataset", mock.Anything).Return(nil, unreadable)

	svc := NewRidershipService(provider, dataprocessing.DefaultPalette, nil, quietLogger())
	ctx := context.Background()

	_, err := svc.Options(ctx)
	assert.True(t, apperrors.IsDataUnreadable(err))
	_, err = svc.Ranking(ctx, nil, RankingQuery{Date: oct(1), Line: "2호선"})
	assert.True(t, apperrors.IsDataUnreadable(err))
	_, err = svc.StationReport(ctx, nil, "강남")
	assert.True(t, apperrors.IsDataUnreadable(err))
	provider.AssertNumberOfCalls(t, "Dataset", 3)
}
