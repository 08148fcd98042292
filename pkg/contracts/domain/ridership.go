package domain

import (
	"time"
)

// DateLayout is the fixed 8-digit date format of the ridership source files.
const DateLayout = "20060102"

// RawRow is one ridership observation exactly as parsed from an input row.
type RawRow struct {
	Date       time.Time `json:"date"`
	Line       string    `json:"line" validate:"required"`
	Station    string    `json:"station" validate:"required"`
	Boardings  int64     `json:"boardings" validate:"min=0"`
	Alightings int64     `json:"alightings" validate:"min=0"`
}

// UsageRecord is a RawRow plus the fields derived at ingestion.
// Records are built once through NewUsageRecord and never mutated afterwards.
type UsageRecord struct {
	Date       time.Time `json:"date"`
	Line       string    `json:"line"`
	Station    string    `json:"station"`
	Boardings  int64     `json:"boardings"`
	Alightings int64     `json:"alightings"`
	Total      int64     `json:"total"`
	DayOfMonth int       `json:"day_of_month"`
}

// NewUsageRecord derives Total and DayOfMonth from the raw observation.
func NewUsageRecord(raw RawRow) UsageRecord {
	return UsageRecord{
		Date:       raw.Date,
		Line:       raw.Line,
		Station:    raw.Station,
		Boardings:  raw.Boardings,
		Alightings: raw.Alightings,
		Total:      raw.Boardings + raw.Alightings,
		DayOfMonth: raw.Date.Day(),
	}
}

// SameDay reports whether the record falls on the calendar day of t.
func (r UsageRecord) SameDay(t time.Time) bool {
	y1, m1, d1 := r.Date.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// MonthScope restricts a data set to a single calendar month.
type MonthScope struct {
	Year  int        `json:"year" yaml:"year" validate:"min=1900,max=9999"`
	Month time.Month `json:"month" yaml:"month" validate:"min=1,max=12"`
}

// Contains reports whether t falls inside the scope.
func (s MonthScope) Contains(t time.Time) bool {
	return t.Year() == s.Year && t.Month() == s.Month
}

// String renders the scope as YYYY-MM.
func (s MonthScope) String() string {
	return time.Date(s.Year, s.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// StationAggregate is the summed total of all records of one station inside a scope.
type StationAggregate struct {
	Station string    `json:"station"`
	Line    string    `json:"line,omitempty"`
	Date    time.Time `json:"date,omitempty"`
	Total   int64     `json:"total"`
}

// StationTotals carries the summed boardings and alightings of one station.
type StationTotals struct {
	Station    string `json:"station"`
	Boardings  int64  `json:"boardings"`
	Alightings int64  `json:"alightings"`
}
