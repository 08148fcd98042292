package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// DefaultScope is the month the bundled export covers.
var DefaultScope = domain.MonthScope{Year: 2025, Month: time.October}

// EncodingSpreadsheet is reported for workbook sources, which carry no text encoding.
const EncodingSpreadsheet = "xlsx"

var rowValidator = validator.New()

// Ingestor loads one ridership export into an immutable Dataset.
type Ingestor struct {
	encodings []string
	scope     domain.MonthScope
	sheet     string
	logger    *slog.Logger
	now       func() time.Time
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithEncodings sets the ordered list of encodings tried for text sources.
func WithEncodings(encodings ...string) IngestorOption {
	return func(i *Ingestor) {
		if len(encodings) > 0 {
			i.encodings = append([]string(nil), encodings...)
		}
	}
}

// WithScope sets the month kept after loading.
func WithScope(scope domain.MonthScope) IngestorOption {
	return func(i *Ingestor) { i.scope = scope }
}

// WithSheet selects a worksheet by name for .xlsx sources. The first sheet is used otherwise.
func WithSheet(sheet string) IngestorOption {
	return func(i *Ingestor) { i.sheet = sheet }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) IngestorOption {
	return func(i *Ingestor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewIngestor creates an Ingestor with the default encodings and scope.
func NewIngestor(opts ...IngestorOption) *Ingestor {
	i := &Ingestor{
		encodings: append([]string(nil), DefaultEncodings...),
		scope:     DefaultScope,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With(slog.String("component", "ingestor"))
	return i
}

// Scope returns the month this ingestor keeps.
func (i *Ingestor) Scope() domain.MonthScope { return i.scope }

// Encodings returns the ordered encoding list.
func (i *Ingestor) Encodings() []string { return append([]string(nil), i.encodings...) }

// Load reads and parses path. A missing file and an undecodable file both fail
// with DATA_UNREADABLE.
func (i *Ingestor) Load(ctx context.Context, path string) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewDataUnreadableError(path, nil, err)
	}
	return i.Parse(ctx, path, data)
}

// Parse builds a Dataset from the raw bytes of source.
func (i *Ingestor) Parse(ctx context.Context, source string, data []byte) (*Dataset, error) {
	start := i.now()

	var (
		rows [][]string
		used string
		err  error
	)
	if isWorkbook(source) {
		rows, err = i.readWorkbook(data)
		if err != nil {
			return nil, apperrors.NewDataUnreadableError(source, nil, err)
		}
		used = EncodingSpreadsheet
	} else {
		var text []byte
		text, used, err = DecodeWithFallback(data, i.encodings)
		if err != nil {
			i.logger.WarnContext(ctx, "no encoding could decode source",
				slog.String("source", source),
				slog.Any("encodings", i.encodings),
				slog.String("error", err.Error()))
			return nil, apperrors.NewDataUnreadableError(source, i.encodings, err)
		}
		if used != i.encodings[0] {
			i.logger.DebugContext(ctx, "decoded with fallback encoding",
				slog.String("source", source),
				slog.String("encoding", used))
		}
		rows, err = readCSV(text)
		if err != nil {
			return nil, apperrors.NewSchemaViolationError("malformed delimited text", err)
		}
	}

	if len(rows) == 0 {
		return nil, apperrors.NewSchemaViolationError("source has no header row", nil)
	}

	mapping, err := ResolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	parsed := make([]domain.UsageRecord, 0, len(rows)-1)
	read := 0
	for idx, row := range rows[1:] {
		if idx%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isBlank(row) {
			continue
		}
		read++

		raw, err := parseRow(row, mapping)
		if err != nil {
			return nil, apperrors.NewSchemaViolationError(fmt.Sprintf("row %d", idx+2), err).
				WithContext("row", idx+2)
		}
		parsed = append(parsed, domain.NewUsageRecord(raw))
	}
	records := FilterScope(parsed, i.scope)

	info := domain.DatasetInfo{
		Source:      source,
		Encoding:    used,
		Scope:       i.scope,
		RowsRead:    read,
		RowsInScope: len(records),
		LoadedAt:    i.now(),
	}

	i.logger.InfoContext(ctx, "ridership data loaded",
		slog.String("source", source),
		slog.String("encoding", used),
		slog.String("scope", i.scope.String()),
		slog.Int("rows_read", read),
		slog.Int("rows_in_scope", len(records)),
		slog.Duration("duration", i.now().Sub(start)))

	return NewDataset(records, info), nil
}

func isWorkbook(source string) bool {
	ext := strings.ToLower(filepath.Ext(source))
	return ext == ".xlsx" || ext == ".xlsm"
}

func (i *Ingestor) readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := i.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(text []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseRow(row []string, mapping ColumnMapping) (domain.RawRow, error) {
	if len(row) < mapping.Width() {
		return domain.RawRow{}, fmt.Errorf("expected at least %d fields, got %d", mapping.Width(), len(row))
	}

	date, err := ParseDate(row[mapping[ColumnDate]])
	if err != nil {
		return domain.RawRow{}, err
	}
	boardings, err := ParseCount(row[mapping[ColumnBoardings]])
	if err != nil {
		return domain.RawRow{}, fmt.Errorf("boardings: %w", err)
	}
	alightings, err := ParseCount(row[mapping[ColumnAlightings]])
	if err != nil {
		return domain.RawRow{}, fmt.Errorf("alightings: %w", err)
	}

	raw := domain.RawRow{
		Date:       date,
		Line:       strings.TrimSpace(row[mapping[ColumnLine]]),
		Station:    strings.TrimSpace(row[mapping[ColumnStation]]),
		Boardings:  boardings,
		Alightings: alightings,
	}
	if err := rowValidator.Struct(raw); err != nil {
		return domain.RawRow{}, describeValidation(err)
	}
	return raw, nil
}

func describeValidation(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("invalid row: %s", strings.Join(parts, ", "))
}

// ParseDate parses a strict 8-digit YYYYMMDD cell.
func ParseDate(cell string) (time.Time, error) {
	s := strings.TrimSpace(cell)
	if len(s) != len(domain.DateLayout) {
		return time.Time{}, fmt.Errorf("date %q is not in YYYYMMDD format", cell)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return time.Time{}, fmt.Errorf("date %q is not in YYYYMMDD format", cell)
		}
	}
	t, err := time.ParseInLocation(domain.DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not a calendar date: %w", cell, err)
	}
	return t, nil
}

// ParseCount parses a non-negative passenger count. Thousands separators are
// accepted, as are integral decimals written by spreadsheet exports.
func ParseCount(cell string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty count")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("count %q is not an integer", cell)
		}
		n = int64(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("count %q is negative", cell)
	}
	return n, nil
}
