package exporter

import (
	"strconv"

	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// formatAverage renders a period mean with one decimal place. A window
// without data renders as an empty cell.
func formatAverage(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 1, 64)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

func formatDate(r domain.LineRanking) string {
	if r.Date.IsZero() {
		return ""
	}
	return r.Date.Format(domain.DateLayout)
}
