package dataprocessing

import (
	"sort"
	"time"

	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// Dataset is the immutable in-memory table produced by the Ingestor.
// It is safe for concurrent readers; every accessor returns fresh slices.
type Dataset struct {
	records []domain.UsageRecord
	info    domain.DatasetInfo
}

// NewDataset copies records into a new Dataset.
func NewDataset(records []domain.UsageRecord, info domain.DatasetInfo) *Dataset {
	return &Dataset{
		records: append([]domain.UsageRecord(nil), records...),
		info:    info,
	}
}

// WithFingerprint returns a Dataset sharing the same records with the fingerprint recorded in its info.
func (d *Dataset) WithFingerprint(fp string) *Dataset {
	info := d.info
	info.Fingerprint = fp
	return &Dataset{records: d.records, info: info}
}

// Info describes where the data came from.
func (d *Dataset) Info() domain.DatasetInfo { return d.info }

// Len returns the number of in-scope records.
func (d *Dataset) Len() int { return len(d.records) }

// Records returns a copy of every in-scope record in source order.
func (d *Dataset) Records() []domain.UsageRecord {
	return append([]domain.UsageRecord(nil), d.records...)
}

// ForDayAndLine returns the records of one calendar day on one line.
func (d *Dataset) ForDayAndLine(date time.Time, line string) []domain.UsageRecord {
	return FilterDayLine(d.records, date, line)
}

// ForStation returns every record of station across all lines.
func (d *Dataset) ForStation(station string) []domain.UsageRecord {
	return FilterStation(d.records, station)
}

// ForLine returns every record of line across the month.
func (d *Dataset) ForLine(line string) []domain.UsageRecord {
	return FilterLine(d.records, line)
}

// Dates returns the distinct calendar days in ascending order.
func (d *Dataset) Dates() []time.Time {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, r := range d.records {
		day := truncateDay(r.Date)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Lines returns the distinct line names in ascending order.
func (d *Dataset) Lines() []string {
	return distinct(d.records, func(r domain.UsageRecord) string { return r.Line })
}

// Stations returns the distinct station names in ascending order.
func (d *Dataset) Stations() []string {
	return distinct(d.records, func(r domain.UsageRecord) string { return r.Station })
}

// Options lists the selectable values. The default date is the earliest one.
func (d *Dataset) Options() domain.SelectionOptions {
	opts := domain.SelectionOptions{
		Scope:    d.info.Scope,
		Empty:    len(d.records) == 0,
		Dates:    d.Dates(),
		Lines:    d.Lines(),
		Stations: d.Stations(),
	}
	if len(opts.Dates) > 0 {
		first := opts.Dates[0]
		opts.DefaultDate = &first
	}
	return opts
}

func distinct(records []domain.UsageRecord, key func(domain.UsageRecord) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
