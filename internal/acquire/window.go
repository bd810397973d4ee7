package acquire

import (
	"time"

	"github.com/couchcryptid/ocean-health-etl/internal/domain"
)

// CandidateDates returns n consecutive calendar dates starting at today's date
// and stepping back one day at a time, most recent first.
func CandidateDates(today time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	start := domain.CalendarDate(today)
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, -i)
	}
	return dates
}
