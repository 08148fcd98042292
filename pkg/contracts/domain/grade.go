package domain

// Grade is the tertile class of a station inside its line.
type Grade string

const (
	GradeHigh Grade = "high"
	GradeMid  Grade = "mid"
	GradeLow  Grade = "low"

	// GradeUndefined is returned when there is nothing to compare against.
	GradeUndefined Grade = "undefined"
)

// Defined reports whether the grade came from an actual comparison.
func (g Grade) Defined() bool {
	return g == GradeHigh || g == GradeMid || g == GradeLow
}

// Symbol returns the short label used on the original dashboard.
func (g Grade) Symbol() string {
	switch g {
	case GradeHigh:
		return "상"
	case GradeMid:
		return "중"
	case GradeLow:
		return "하"
	default:
		return "-"
	}
}

// PeriodWindow is one of the three fixed day-of-month ranges.
type PeriodWindow int

const (
	WindowEarly PeriodWindow = iota
	WindowMid
	WindowLate
)

// PeriodWindows lists every window in display order.
var PeriodWindows = []PeriodWindow{WindowEarly, WindowMid, WindowLate}

// WindowForDay maps a day of month to its window. Days past 20 are late.
func WindowForDay(day int) PeriodWindow {
	switch {
	case day <= 10:
		return WindowEarly
	case day <= 20:
		return WindowMid
	default:
		return WindowLate
	}
}

// String returns the machine name of the window.
func (w PeriodWindow) String() string {
	switch w {
	case WindowEarly:
		return "early"
	case WindowMid:
		return "mid"
	case WindowLate:
		return "late"
	default:
		return "unknown"
	}
}

// Label returns the human label including the day range.
func (w PeriodWindow) Label() string {
	switch w {
	case WindowEarly:
		return "early (1-10)"
	case WindowMid:
		return "mid (11-20)"
	case WindowLate:
		return "late (21-end)"
	default:
		return "unknown"
	}
}

// MarshalText renders the window by name in JSON documents.
func (w PeriodWindow) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}
