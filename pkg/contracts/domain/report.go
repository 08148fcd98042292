package domain

import (
	"time"
)

// StationBar is one bar of the ranking chart.
type StationBar struct {
	Station string `json:"station"`
	Total   int64  `json:"total"`
	Color   string `json:"color"`
}

// LineRanking is the result of a (date, line) query.
// Empty is true when the selection matched no records; that is a normal outcome.
type LineRanking struct {
	Date     time.Time     `json:"date"`
	Line     string        `json:"line"`
	RowCount int           `json:"row_count"`
	Empty    bool          `json:"empty"`
	Bars     []StationBar  `json:"bars"`
	Preview  []UsageRecord `json:"preview,omitempty"`
}

// PeriodAverage holds the window means of one station.
// NoData marks a window without records; the averages are nil in that case.
type PeriodAverage struct {
	Station       string       `json:"station"`
	Window        PeriodWindow `json:"window"`
	Label         string       `json:"label"`
	Records       int          `json:"records"`
	NoData        bool         `json:"no_data"`
	AvgBoardings  *float64     `json:"avg_boardings"`
	AvgAlightings *float64     `json:"avg_alightings"`
}

// LineGrade is the per-line size classification of a station.
type LineGrade struct {
	Line            string `json:"line"`
	Station         string `json:"station"`
	TotalBoardings  int64  `json:"total_boardings"`
	TotalAlightings int64  `json:"total_alightings"`
	BoardingGrade   Grade  `json:"boarding_grade"`
	AlightingGrade  Grade  `json:"alighting_grade"`
}

// StationReport is the result of a station query.
type StationReport struct {
	Station string          `json:"station"`
	Empty   bool            `json:"empty"`
	Lines   []string        `json:"lines"`
	Periods []PeriodAverage `json:"periods"`
	Grades  []LineGrade     `json:"grades"`
}

// SelectionOptions lists what can be selected within the scoped month.
// Empty reports a month without any records.
type SelectionOptions struct {
	Scope       MonthScope  `json:"scope"`
	Empty       bool        `json:"empty"`
	Dates       []time.Time `json:"dates"`
	Lines       []string    `json:"lines"`
	Stations    []string    `json:"stations"`
	DefaultDate *time.Time  `json:"default_date,omitempty"`
}

// DatasetInfo describes a loaded data set.
type DatasetInfo struct {
	Source      string     `json:"source"`
	Fingerprint string     `json:"fingerprint"`
	Encoding    string     `json:"encoding"`
	Scope       MonthScope `json:"scope"`
	RowsRead    int        `json:"rows_read"`
	RowsInScope int        `json:"rows_in_scope"`
	LoadedAt    time.Time  `json:"loaded_at"`
}
