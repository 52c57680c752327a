package portal

import "time"

// DefaultDateLayout is how the portal UI renders each date of the range
const DefaultDateLayout = "01/02/2006"

// FormatDateRange renders a date range exactly as the portal UI would,
// two zero-padded dates joined by " - ". The portal silently returns wrong
// or empty results for any other shape.
func FormatDateRange(from, to time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return from.Format(layout) + " - " + to.Format(layout)
}

// DateFilterFor resolves the dateFilter value for a run. An explicit override
// is passed through verbatim; otherwise the trailing window of days ending at
// now is used. days == 0 disables the filter.
func DateFilterFor(override string, days int, layout string, now time.Time) string {
	if override != "" {
		return override
	}
	if days <= 0 {
		return ""
	}
	from := now.Add(-time.Duration(days) * 24 * time.Hour)
	return FormatDateRange(from, now, layout)
}
