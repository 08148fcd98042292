package http

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/szooyang/ai-project01/internal/dataprocessing"
	apierrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/internal/exporter"
	customMiddleware "github.com/szooyang/ai-project01/internal/middleware"
	"github.com/szooyang/ai-project01/internal/services"
	api "github.com/szooyang/ai-project01/pkg/contracts/api/v1"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// RidershipHandler serves selection options, rankings and station reports
// as JSON, CSV and PNG.
type RidershipHandler struct {
	service      RidershipServiceInterface
	validator    *customMiddleware.Validator
	chart        exporter.ChartOptions
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewRidershipHandler creates the handler.
func NewRidershipHandler(service RidershipServiceInterface, chart exporter.ChartOptions, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *RidershipHandler {
	return &RidershipHandler{
		service:      service,
		validator:    customMiddleware.NewValidator(),
		chart:        chart,
		logger:       logger.With(slog.String("component", "ridership_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the ridership routes. The caller mounts them behind the
// Sessions middleware.
func (h *RidershipHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/options", h.GetOptions)
	r.Get("/ranking", h.GetRanking)
	r.Get("/ranking.csv", h.DownloadRankingCSV)
	r.Get("/ranking.png", h.DownloadRankingChart)

	r.Route("/stations/{station}", func(r chi.Router) {
		r.Use(h.StationCtx)
		r.Get("/report", h.GetStationReport)
		r.Get("/report.csv", h.DownloadStationReportCSV)
	})

	return r
}

type stationContextKey struct{}

// StationCtx validates the station path parameter.
func (h *RidershipHandler) StationCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		station := chi.URLParam(r, "station")
		if unescaped, err := url.PathUnescape(station); err == nil {
			station = unescaped
		}
		req := api.StationReportRequest{Station: strings.TrimSpace(station)}
		if err := h.validator.Struct(req); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		ctx := r.Context()
		next.ServeHTTP(w, r.WithContext(contextWithStation(ctx, req.Station)))
	})
}

// GetOptions handles GET /api/ridership/options
func (h *RidershipHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Options(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.Success(sessionID(r), opts))
}

// GetRanking handles GET /api/ridership/ranking?date=YYYYMMDD&line=...&limit=N
func (h *RidershipHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	ranking, ok := h.ranking(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, api.Success(sessionID(r), ranking))
}

// DownloadRankingCSV handles GET /api/ridership/ranking.csv
func (h *RidershipHandler) DownloadRankingCSV(w http.ResponseWriter, r *http.Request) {
	ranking, ok := h.ranking(w, r)
	if !ok {
		return
	}
	h.attach(w, r, "text/csv; charset=utf-8", exporter.RankingFileName(ranking, "csv"), func(out io.Writer) error {
		return exporter.WriteRankingCSV(out, ranking)
	})
}

// DownloadRankingChart handles GET /api/ridership/ranking.png
func (h *RidershipHandler) DownloadRankingChart(w http.ResponseWriter, r *http.Request) {
	ranking, ok := h.ranking(w, r)
	if !ok {
		return
	}
	h.attach(w, r, "image/png", exporter.RankingFileName(ranking, "png"), func(out io.Writer) error {
		return exporter.RenderRankingChart(out, ranking, h.chart)
	})
}

// GetStationReport handles GET /api/ridership/stations/{station}/report
func (h *RidershipHandler) GetStationReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.stationReport(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, api.Success(sessionID(r), report))
}

// DownloadStationReportCSV handles GET /api/ridership/stations/{station}/report.csv
func (h *RidershipHandler) DownloadStationReportCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.stationReport(w, r)
	if !ok {
		return
	}
	h.attach(w, r, "text/csv; charset=utf-8", exporter.StationReportFileName(report), func(out io.Writer) error {
		return exporter.WriteStationReportCSV(out, report)
	})
}

func (h *RidershipHandler) ranking(w http.ResponseWriter, r *http.Request) (domain.LineRanking, bool) {
	req, err := h.decodeRankingRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.LineRanking{}, false
	}
	date, err := dataprocessing.ParseDate(req.Date)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date", err.Error()))
		return domain.LineRanking{}, false
	}

	ctx := r.Context()
	ranking, err := h.service.Ranking(ctx, customMiddleware.SessionFromContext(ctx), services.RankingQuery{
		Date:  date,
		Line:  req.Line,
		Limit: req.Limit,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.LineRanking{}, false
	}

	h.logger.InfoContext(ctx, "ranking served",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("date", req.Date),
		slog.String("line", req.Line),
		slog.Int("stations", len(ranking.Bars)),
		slog.Bool("empty", ranking.Empty))
	return ranking, true
}

func (h *RidershipHandler) stationReport(w http.ResponseWriter, r *http.Request) (domain.StationReport, bool) {
	ctx := r.Context()
	station := stationFromContext(ctx)

	report, err := h.service.StationReport(ctx, customMiddleware.SessionFromContext(ctx), station)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.StationReport{}, false
	}

	h.logger.InfoContext(ctx, "station report served",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("station", station),
		slog.Int("lines", len(report.Lines)),
		slog.Bool("empty", report.Empty))
	return report, true
}

func (h *RidershipHandler) decodeRankingRequest(r *http.Request) (api.RankingRequest, error) {
	q := r.URL.Query()
	req := api.RankingRequest{
		Date: strings.TrimSpace(q.Get("date")),
		Line: strings.TrimSpace(q.Get("line")),
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, apierrors.ErrValidation("limit", fmt.Sprintf("limit %q is not an integer", raw))
		}
		req.Limit = n
	}
	if err := h.validator.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

// attach renders into memory first so a failure still produces a problem
// response instead of a truncated file.
func (h *RidershipHandler) attach(w http.ResponseWriter, r *http.Request, contentType, filename string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("failed to export %s: %w", filename, err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted",
			slog.String("file", filename),
			slog.String("error", err.Error()))
	}
}

func sessionID(r *http.Request) string {
	if sess := customMiddleware.SessionFromContext(r.Context()); sess != nil {
		return sess.ID
	}
	return ""
}
