package dataprocessing

import (
	"fmt"
	"strings"

	apperrors "github.com/szooyang/ai-project01/internal/errors"
)

// Column is a semantic role in the ridership schema.
type Column string

const (
	ColumnDate       Column = "date"
	ColumnLine       Column = "line"
	ColumnStation    Column = "station"
	ColumnBoardings  Column = "boardings"
	ColumnAlightings Column = "alightings"
)

// RequiredColumns lists every role a source must provide, in report order.
var RequiredColumns = []Column{ColumnDate, ColumnLine, ColumnStation, ColumnBoardings, ColumnAlightings}

// columnAliases holds the accepted header names per role, compared after normalization.
var columnAliases = map[Column][]string{
	ColumnDate:       {"사용일자", "date", "use_date", "use_ymd"},
	ColumnLine:       {"노선명", "line", "line_name", "line_num"},
	ColumnStation:    {"역명", "station", "station_name", "sub_sta_nm"},
	ColumnBoardings:  {"승차총승객수", "boardings", "ride_pasgr_num"},
	ColumnAlightings: {"하차총승객수", "alightings", "alight_pasgr_num"},
}

// ColumnMapping maps each role to its zero-based position in a row.
type ColumnMapping map[Column]int

// Width is the minimum row length that holds every mapped column.
func (m ColumnMapping) Width() int {
	width := 0
	for _, idx := range m {
		if idx+1 > width {
			width = idx + 1
		}
	}
	return width
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(h)
	h = strings.Trim(h, `"`)
	return strings.ToLower(h)
}

// ResolveColumns negotiates the header row against the known aliases. It fails
// with SCHEMA_VIOLATION when a role is missing or claimed by two headers.
func ResolveColumns(header []string) (ColumnMapping, error) {
	lookup := make(map[string]Column)
	for col, aliases := range columnAliases {
		for _, alias := range aliases {
			lookup[normalizeHeader(alias)] = col
		}
	}

	mapping := make(ColumnMapping, len(RequiredColumns))
	for idx, raw := range header {
		col, ok := lookup[normalizeHeader(raw)]
		if !ok {
			continue
		}
		if prev, dup := mapping[col]; dup {
			return nil, apperrors.NewSchemaViolationError(
				fmt.Sprintf("column %q is ambiguous: headers %d and %d both match", col, prev+1, idx+1), nil).
				WithContext("column", string(col))
		}
		mapping[col] = idx
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := mapping[col]; !ok {
			missing = append(missing, fmt.Sprintf("%s (%s)", col, columnAliases[col][0]))
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaViolationError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil).
			WithContext("header", header)
	}

	return mapping, nil
}
