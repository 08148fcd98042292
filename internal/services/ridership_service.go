package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/szooyang/ai-project01/internal/dataprocessing"
	apperrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/internal/infrastructure"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// RankingQuery selects one (date, line) pair. Limit 0 keeps every station.
type RankingQuery struct {
	Date  time.Time
	Line  string
	Limit int
}

func (q RankingQuery) key(fingerprint string) string {
	return fmt.Sprintf("%s|%s|%s|%d", fingerprint, q.Date.Format(domain.DateLayout), q.Line, q.Limit)
}

// RidershipService answers ranking and station queries against the cached
// data set. Sessions are optional; a nil session skips memoization.
type RidershipService struct {
	datasets DatasetProvider
	palette  dataprocessing.Palette
	metrics  *infrastructure.RidershipMetrics
	logger   *slog.Logger
}

// NewRidershipService creates the service. A nil logger uses slog.Default.
func NewRidershipService(datasets DatasetProvider, palette dataprocessing.Palette, metrics *infrastructure.RidershipMetrics, logger *slog.Logger) *RidershipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RidershipService{
		datasets: datasets,
		palette:  palette,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "ridership_service")),
	}
}

// DatasetInfo loads the data set if needed and describes it.
func (s *RidershipService) DatasetInfo(ctx context.Context) (domain.DatasetInfo, error) {
	ds, err := s.datasets.Dataset(ctx)
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	return ds.Info(), nil
}

// Options lists the selectable dates, lines and stations.
func (s *RidershipService) Options(ctx context.Context) (domain.SelectionOptions, error) {
	ds, err := s.datasets.Dataset(ctx)
	if err != nil {
		return domain.SelectionOptions{}, err
	}
	opts := ds.Options()
	if opts.Empty {
		s.logger.WarnContext(ctx, "no data for the month",
			slog.String("scope", opts.Scope.String()),
			slog.String("source", ds.Info().Source))
	}
	return opts, nil
}

// Ranking ranks the stations of one line on one day. An unknown date or line
// yields an empty ranking, not an error.
func (s *RidershipService) Ranking(ctx context.Context, sess *Session, q RankingQuery) (domain.LineRanking, error) {
	q.Line = strings.TrimSpace(q.Line)
	switch {
	case q.Date.IsZero():
		return domain.LineRanking{}, invalidQuery("ranking", ErrMissingDate)
	case q.Line == "":
		return domain.LineRanking{}, invalidQuery("ranking", ErrMissingLine)
	case q.Limit < 0:
		return domain.LineRanking{}, invalidQuery("ranking", ErrInvalidLimit)
	}

	ds, err := s.datasets.Dataset(ctx)
	if err != nil {
		return domain.LineRanking{}, err
	}

	if sess != nil {
		sess.selectDayLine(q.Date, q.Line, q.Limit)
	}
	key := q.key(ds.Info().Fingerprint)
	if sess != nil {
		if cached, ok := sess.cachedRanking(key); ok {
			return cached, nil
		}
	}

	start := time.Now()
	ctx, span := infrastructure.StartSpan(ctx, "ridership.ranking",
		attribute.String("line", q.Line),
		attribute.String("date", q.Date.Format(domain.DateLayout)))
	defer span.End()

	ranking := ds.LineRanking(q.Date, q.Line, q.Limit, s.palette)
	s.metrics.RecordQuery(ctx, "ranking", ranking.Empty, time.Since(start))

	s.logger.DebugContext(ctx, "ranking computed",
		slog.String("date", q.Date.Format(domain.DateLayout)),
		slog.String("line", q.Line),
		slog.Int("rows", ranking.RowCount),
		slog.Int("stations", len(ranking.Bars)))

	if sess != nil {
		sess.storeRanking(key, ranking)
	}
	return ranking, nil
}

// StationReport builds the period averages and per-line grades of a
// station. An unknown station yields an empty report.
func (s *RidershipService) StationReport(ctx context.Context, sess *Session, station string) (domain.StationReport, error) {
	station = strings.TrimSpace(station)
	if station == "" {
		return domain.StationReport{}, invalidQuery("station", ErrMissingStation)
	}

	ds, err := s.datasets.Dataset(ctx)
	if err != nil {
		return domain.StationReport{}, err
	}

	if sess != nil {
		sess.selectStation(station)
	}
	key := ds.Info().Fingerprint + "|" + station
	if sess != nil {
		if cached, ok := sess.cachedStation(key); ok {
			return cached, nil
		}
	}

	start := time.Now()
	ctx, span := infrastructure.StartSpan(ctx, "ridership.station_report",
		attribute.String("station", station))
	defer span.End()

	report := ds.StationReport(station)
	s.metrics.RecordQuery(ctx, "station", report.Empty, time.Since(start))

	s.logger.DebugContext(ctx, "station report computed",
		slog.String("station", station),
		slog.Int("lines", len(report.Lines)))

	if sess != nil {
		sess.storeStation(key, report)
	}
	return report, nil
}

func invalidQuery(kind string, cause error) error {
	return apperrors.NewAppValidationError("invalid "+kind+" query", cause)
}
