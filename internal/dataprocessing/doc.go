// Package dataprocessing is the ridership analytics engine. It turns one monthly
// export of subway boardings and alightings into station rankings, line-relative
// size grades and month-phase averages.
//
// # Architecture
//
// The package is organized leaf-first:
//
// 1. Ingestor: decodes the source with an ordered encoding list, negotiates the
// column schema and builds immutable UsageRecords scoped to one month
// 2. Filters: select the records of one (date, line) pair, one station or one line
// 3. Aggregator: sums totals per station, ordered by descending total
// 4. RankClassifier: buckets a value into high/mid/low using tertile cut points
// 5. ColorGradientAssigner: maps rank positions to display colors
// 6. PeriodAverager: averages boardings and alightings per day-of-month window
//
// # Usage
//
//	ing := dataprocessing.NewIngestor(dataprocessing.WithScope(domain.MonthScope{Year: 2025, Month: time.October}))
//	ds, err := ing.Load(ctx, "ridership.csv")
//	if err != nil {
//	    return err
//	}
//	ranking := ds.LineRanking(date, "2호선", 0, dataprocessing.DefaultPalette)
//	report := ds.StationReport("강남")
//
// # Data Flow
//
//	file → Ingestor → []UsageRecord → filter → Aggregator → colors / grades
//	                                → station records → PeriodAverager
//
// # Error Handling
//
// Load fails with a DATA_UNREADABLE AppError when the file is missing or no
// encoding decodes it cleanly, and with SCHEMA_VIOLATION when a column is
// missing or a cell does not parse. Every other operation is total: empty
// selections produce empty results, never errors.
package dataprocessing
