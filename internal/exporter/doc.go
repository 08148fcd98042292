// Package exporter turns query results into downloadable files.
//
// Rankings and station reports are written as UTF-8 CSV with a byte order
// mark so spreadsheet applications show Korean station names correctly.
// Rankings can also be rendered as a PNG bar chart whose bars carry the
// colors assigned by the ranking.
//
// Example usage:
//
//	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
//	err := exporter.WriteRankingCSV(w, ranking)
//
//	err = exporter.RenderRankingChart(w, ranking, exporter.ChartOptions{WidthPx: 1200, HeightPx: 600})
package exporter
