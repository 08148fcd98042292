package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/szooyang/ai-project01/internal/config"
	apperrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// utf8BOM lets spreadsheet applications detect UTF-8 station names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool
}

// WriteCSV writes a table to w.
func WriteCSV(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// RankingTable lays out a ranking as rank, station, total, color rows.
func RankingTable(r domain.LineRanking) WriteOptions {
	records := make([][]string, 0, len(r.Bars))
	date := formatDate(r)
	for i, bar := range r.Bars {
		records = append(records, []string{
			strconv.Itoa(i + 1),
			date,
			r.Line,
			bar.Station,
			formatInt(bar.Total),
			bar.Color,
		})
	}
	return WriteOptions{
		Headers:   []string{"rank", "date", "line", "station", "total", "color"},
		Records:   records,
		BOMPrefix: true,
	}
}

// StationReportTable lays out the period averages followed by the per-line
// grades. Rows carry their kind in the first column.
func StationReportTable(report domain.StationReport) WriteOptions {
	records := make([][]string, 0, len(report.Periods)+len(report.Grades))
	for _, p := range report.Periods {
		records = append(records, []string{
			"period", report.Station, "", p.Window.String(), strconv.Itoa(p.Records),
			formatAverage(p.AvgBoardings), formatAverage(p.AvgAlightings),
			"", "", "", "",
		})
	}
	for _, g := range report.Grades {
		records = append(records, []string{
			"grade", report.Station, g.Line, "", "",
			"", "",
			formatInt(g.TotalBoardings), formatInt(g.TotalAlightings),
			string(g.BoardingGrade), string(g.AlightingGrade),
		})
	}
	return WriteOptions{
		Headers: []string{
			"kind", "station", "line", "period", "records",
			"avg_boardings", "avg_alightings",
			"total_boardings", "total_alightings",
			"boarding_grade", "alighting_grade",
		},
		Records:   records,
		BOMPrefix: true,
	}
}

// WriteRankingCSV writes the ranking to w as UTF-8 CSV with a BOM.
func WriteRankingCSV(w io.Writer, r domain.LineRanking) error {
	return WriteCSV(w, RankingTable(r))
}

// WriteStationReportCSV writes the station report to w as UTF-8 CSV with a BOM.
func WriteStationReportCSV(w io.Writer, report domain.StationReport) error {
	return WriteCSV(w, StationReportTable(report))
}

// RankingFileName names the export of a ranking, e.g. ranking_20251001_2호선.csv.
func RankingFileName(r domain.LineRanking, ext string) string {
	return fmt.Sprintf("ranking_%s_%s.%s", formatDate(r), sanitize(r.Line), ext)
}

// StationReportFileName names the export of a station report.
func StationReportFileName(report domain.StationReport) string {
	return fmt.Sprintf("station_%s.csv", sanitize(report.Station))
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}

// FileWriter saves exports under the exports directory.
type FileWriter struct {
	paths *config.Paths
}

// NewFileWriter creates a writer rooted at paths.ExportsDir.
func NewFileWriter(paths *config.Paths) *FileWriter {
	return &FileWriter{paths: paths}
}

// Save renders write into memory and then stores it under name, so a failed
// render never leaves a partial file. Relative names resolve against the
// exports directory. It returns the full path written.
func (f *FileWriter) Save(name string, write func(io.Writer) error) (string, error) {
	fullPath := f.resolvePath(name)

	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", apperrors.NewStorageError("failed to create export directory", err).
			WithContext("path", fullPath)
	}
	if err := os.WriteFile(fullPath, buf.Bytes(), 0o644); err != nil {
		return "", apperrors.NewStorageError(fmt.Sprintf("failed to write %s", fullPath), err).
			WithContext("path", fullPath)
	}

	slog.Info("export written", slog.String("path", fullPath), slog.Int("bytes", buf.Len()))
	return fullPath, nil
}

func (f *FileWriter) resolvePath(name string) string {
	if filepath.IsAbs(name) || f.paths == nil {
		return name
	}
	return filepath.Join(f.paths.ExportsDir, name)
}
