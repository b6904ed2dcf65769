package aggregate

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

var monthLengths = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// MonthDay is one calendar slot independent of year. Feb 29 is a valid
// slot and only picks up samples from leap years.
type MonthDay struct {
	Month int
	Day   int
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", md.Month, md.Day)
}

// CalendarDays returns the 366 calendar slots in order.
func CalendarDays() []MonthDay {
	days := make([]MonthDay, 0, 366)
	for m := 1; m <= 12; m++ {
		for d := 1; d <= monthLengths[m]; d++ {
			days = append(days, MonthDay{Month: m, Day: d})
		}
	}
	return days
}

// ParseMonthDay parses an "MM-DD" string. Feb 29 is accepted.
func ParseMonthDay(s string) (MonthDay, error) {
	var m, d int
	if _, err := fmt.Sscanf(s, "%2d-%2d", &m, &d); err != nil || len(s) != 5 || s[2] != '-' {
		return MonthDay{}, fmt.Errorf("invalid month-day %q, want MM-DD", s)
	}
	if m < 1 || m > 12 || d < 1 || d > monthLengths[m] {
		return MonthDay{}, fmt.Errorf("invalid month-day %q", s)
	}
	return MonthDay{Month: m, Day: d}, nil
}

// dateInYear anchors the slot in a concrete year. Feb 29 only exists in
// leap years and reports false elsewhere.
func dateInYear(year int, md MonthDay) (time.Time, bool) {
	t := time.Date(year, time.Month(md.Month), md.Day, 0, 0, 0, 0, time.UTC)
	if int(t.Month()) != md.Month || t.Day() != md.Day {
		return time.Time{}, false
	}
	return t, true
}
