package climate

import (
	"fmt"

	"github.com/goodday/climate/internal/aggregate"
)

// maxRangeDays caps how many calendar slots a range query may span.
const maxRangeDays = 31

// Non-leap month lengths used when enumerating a month's calendar
// slots. Feb 29 is a valid lookup slot but never part of a month
// enumeration.
var monthLengths = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// parseMonthDay validates an MM-DD string and returns canonical form.
func parseMonthDay(s string) (string, error) {
	md, err := aggregate.ParseMonthDay(s)
	if err != nil {
		return "", invalidInput("%v", err)
	}
	return md.String(), nil
}

// parseRangeDay is parseMonthDay for range endpoints, where a date
// that does not parse violates the range contract rather than being a
// generic bad input.
func parseRangeDay(s string) (string, error) {
	md, err := aggregate.ParseMonthDay(s)
	if err != nil {
		return "", invalidRange("%v", err)
	}
	return md.String(), nil
}

func parseMD(s string, m, d *int) {
	fmt.Sscanf(s, "%2d-%2d", m, d)
}

// daysInRange walks the 366-slot calendar ring from start to end
// inclusive, wrapping over the year boundary as needed.
func daysInRange(start, end string) ([]string, error) {
	calendar := aggregate.CalendarDays()
	index := make(map[string]int, len(calendar))
	for i, md := range calendar {
		index[md.String()] = i
	}

	from, ok := index[start]
	if !ok {
		return nil, invalidInput("invalid start day %q", start)
	}
	to, ok := index[end]
	if !ok {
		return nil, invalidInput("invalid end day %q", end)
	}

	length := to - from + 1
	if length <= 0 {
		length += len(calendar)
	}
	if length > maxRangeDays {
		return nil, invalidRange("range %s to %s spans %d days, maximum is %d", start, end, length, maxRangeDays)
	}

	days := make([]string, 0, length)
	for i := 0; i < length; i++ {
		days = append(days, calendar[(from+i)%len(calendar)].String())
	}
	return days, nil
}

// monthDays enumerates a month's slots using non-leap lengths.
func monthDays(month int) []string {
	days := make([]string, 0, monthLengths[month])
	for d := 1; d <= monthLengths[month]; d++ {
		days = append(days, fmt.Sprintf("%02d-%02d", month, d))
	}
	return days
}
