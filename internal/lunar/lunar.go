// Package lunar converts Gregorian dates to Chinese lunisolar dates and
// solar terms. The conversion is table-driven and covers 1900 through
// 2049, which comfortably spans the observation archive and any
// planning horizon. It is a pure side-table join for output records,
// not part of the statistics computation.
package lunar

import "time"

// Info is the lunisolar annotation for one Gregorian date.
type Info struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	LeapMonth bool   `json:"leap_month"`
	MonthName string `json:"month_name"`
	DayName   string `json:"day_name"`
	Ganzhi    string `json:"ganzhi_year"`
	Zodiac    string `json:"zodiac"`
	SolarTerm string `json:"solar_term,omitempty"`
}

// Provider resolves a date's lunisolar annotation.
type Provider interface {
	Info(t time.Time) (Info, bool)
}

// Calendar is the table-backed Provider.
type Calendar struct{}

func NewCalendar() *Calendar {
	return &Calendar{}
}

const (
	baseYear = 1900
	lastYear = 2049
)

// Month layout codes per lunar year. Bits 4..15 flag 30-day months for
// months 1..12, bits 0..3 carry the leap month number, bit 16 the leap
// month's length.
var yearCodes = [...]int{
	0x04bd8, 0x04ae0, 0x0a570, 0x054d5, 0x0d260, 0x0d950, 0x16554, 0x056a0, 0x09ad0, 0x055d2,
	0x04ae0, 0x0a5b6, 0x0a4d0, 0x0d250, 0x1d255, 0x0b540, 0x0d6a0, 0x0ada2, 0x095b0, 0x14977,
	0x04970, 0x0a4b0, 0x0b4b5, 0x06a50, 0x06d40, 0x1ab54, 0x02b60, 0x09570, 0x052f2, 0x04970,
	0x06566, 0x0d4a0, 0x0ea50, 0x06e95, 0x05ad0, 0x02b60, 0x186e3, 0x092e0, 0x1c8d7, 0x0c950,
	0x0d4a0, 0x1d8a6, 0x0b550, 0x056a0, 0x1a5b4, 0x025d0, 0x092d0, 0x0d2b2, 0x0a950, 0x0b557,
	0x06ca0, 0x0b550, 0x15355, 0x04da0, 0x0a5b0, 0x14573, 0x052b0, 0x0a9a8, 0x0e950, 0x06aa0,
	0x0aea6, 0x0ab50, 0x04b60, 0x0aae4, 0x0a570, 0x05260, 0x0f263, 0x0d950, 0x05b57, 0x056a0,
	0x096d0, 0x04dd5, 0x04ad0, 0x0a4d0, 0x0d4d4, 0x0d250, 0x0d558, 0x0b540, 0x0b6a0, 0x195a6,
	0x095b0, 0x049b0, 0x0a974, 0x0a4b0, 0x0b27a, 0x06a50, 0x06d40, 0x0af46, 0x0ab60, 0x09570,
	0x04af5, 0x04970, 0x064b0, 0x074a3, 0x0ea50, 0x06b58, 0x05ac0, 0x0ab60, 0x096d5, 0x092e0,
	0x0c960, 0x0d954, 0x0d4a0, 0x0da50, 0x07552, 0x056a0, 0x0abb7, 0x025d0, 0x092d0, 0x0cab5,
	0x0a950, 0x0b4a0, 0x0baa4, 0x0ad50, 0x055d9, 0x04ba0, 0x0a5b0, 0x15176, 0x052b0, 0x0a930,
	0x07954, 0x06aa0, 0x0ad50, 0x05b52, 0x04b60, 0x0a6e6, 0x0a4e0, 0x0d260, 0x0ea65, 0x0d530,
	0x05aa0, 0x076a3, 0x096d0, 0x04afb, 0x04ad0, 0x0a4d0, 0x1d0b6, 0x0d250, 0x0d520, 0x0dd45,
	0x0b5a0, 0x056d0, 0x055b2, 0x049b0, 0x0a577, 0x0a4b0, 0x0aa50, 0x1b255, 0x06d20, 0x0ada0,
}

var (
	stems    = []string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}
	branches = []string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}
	zodiacs  = []string{"鼠", "牛", "虎", "兔", "龍", "蛇", "馬", "羊", "猴", "雞", "狗", "豬"}

	monthNames = []string{"正月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "冬月", "臘月"}

	dayTens  = []string{"初", "十", "廿", "三"}
	dayUnits = []string{"十", "一", "二", "三", "四", "五", "六", "七", "八", "九"}
)

// Typical Gregorian dates of the 24 solar terms. The true instants
// shift by up to a day with the year, which is close enough for a
// calendar annotation.
var solarTerms = map[[2]int]string{
	{1, 5}: "小寒", {1, 20}: "大寒",
	{2, 4}: "立春", {2, 19}: "雨水",
	{3, 6}: "驚蟄", {3, 21}: "春分",
	{4, 5}: "清明", {4, 20}: "穀雨",
	{5, 6}: "立夏", {5, 21}: "小滿",
	{6, 6}: "芒種", {6, 21}: "夏至",
	{7, 7}: "小暑", {7, 23}: "大暑",
	{8, 8}: "立秋", {8, 23}: "處暑",
	{9, 8}: "白露", {9, 23}: "秋分",
	{10, 8}: "寒露", {10, 23}: "霜降",
	{11, 7}: "立冬", {11, 22}: "小雪",
	{12, 7}: "大雪", {12, 22}: "冬至",
}

func leapMonth(code int) int {
	return code & 0xf
}

func leapMonthDays(code int) int {
	if leapMonth(code) == 0 {
		return 0
	}
	if code&0x10000 != 0 {
		return 30
	}
	return 29
}

func monthDays(code, month int) int {
	if code&(0x10000>>uint(month)) != 0 {
		return 30
	}
	return 29
}

func yearDays(code int) int {
	days := 348
	for mask := 0x8000; mask > 0x8; mask >>= 1 {
		if code&mask != 0 {
			days++
		}
	}
	return days + leapMonthDays(code)
}

// Info converts a Gregorian date. ok is false outside the table's
// 1900-2049 coverage.
func (c *Calendar) Info(t time.Time) (Info, bool) {
	// Lunar 1900-01-01 corresponds to 1900-01-31.
	epoch := time.Date(1900, 1, 31, 0, 0, 0, 0, time.UTC)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := int(day.Sub(epoch).Hours() / 24)
	if offset < 0 {
		return Info{}, false
	}

	year := baseYear
	for ; year <= lastYear; year++ {
		d := yearDays(yearCodes[year-baseYear])
		if offset < d {
			break
		}
		offset -= d
	}
	if year > lastYear {
		return Info{}, false
	}

	code := yearCodes[year-baseYear]
	leap := leapMonth(code)
	month := 1
	isLeap := false
	for {
		d := monthDays(code, month)
		if offset < d {
			break
		}
		offset -= d
		if month == leap {
			ld := leapMonthDays(code)
			if offset < ld {
				isLeap = true
				break
			}
			offset -= ld
		}
		month++
	}

	info := Info{
		Year:      year,
		Month:     month,
		Day:       offset + 1,
		LeapMonth: isLeap,
		MonthName: monthNames[month-1],
		DayName:   dayName(offset + 1),
		Ganzhi:    stems[(year-4)%10] + branches[(year-4)%12],
		Zodiac:    zodiacs[(year-4)%12],
	}
	if isLeap {
		info.MonthName = "閏" + info.MonthName
	}
	if term, ok := solarTerms[[2]int{int(t.Month()), t.Day()}]; ok {
		info.SolarTerm = term
	}
	return info, true
}

func dayName(d int) string {
	switch d {
	case 10:
		return "初十"
	case 20:
		return "二十"
	case 30:
		return "三十"
	}
	return dayTens[d/10] + dayUnits[d%10]
}
