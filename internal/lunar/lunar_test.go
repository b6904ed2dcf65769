package lunar

import (
	"testing"
	"time"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestInfo_NewYears(t *testing.T) {
	cal := NewCalendar()

	// Well-known Chinese New Year dates.
	tests := []struct {
		date   time.Time
		year   int
		zodiac string
		ganzhi string
	}{
		{day(1990, 1, 27), 1990, "馬", "庚午"},
		{day(2000, 2, 5), 2000, "龍", "庚辰"},
		{day(2024, 2, 10), 2024, "龍", "甲辰"},
	}
	for _, tt := range tests {
		info, ok := cal.Info(tt.date)
		if !ok {
			t.Fatalf("Info(%s) not ok", tt.date.Format("2006-01-02"))
		}
		if info.Year != tt.year || info.Month != 1 || info.Day != 1 {
			t.Errorf("Info(%s) = %d/%d/%d, want %d/1/1", tt.date.Format("2006-01-02"), info.Year, info.Month, info.Day, tt.year)
		}
		if info.MonthName != "正月" || info.DayName != "初一" {
			t.Errorf("Info(%s) names = %s %s", tt.date.Format("2006-01-02"), info.MonthName, info.DayName)
		}
		if info.Zodiac != tt.zodiac {
			t.Errorf("Info(%s) zodiac = %s, want %s", tt.date.Format("2006-01-02"), info.Zodiac, tt.zodiac)
		}
		if info.Ganzhi != tt.ganzhi {
			t.Errorf("Info(%s) ganzhi = %s, want %s", tt.date.Format("2006-01-02"), info.Ganzhi, tt.ganzhi)
		}
	}
}

func TestInfo_Sequence(t *testing.T) {
	cal := NewCalendar()

	// The day after new year is 正月初二.
	info, ok := cal.Info(day(2024, 2, 11))
	if !ok {
		t.Fatal("not ok")
	}
	if info.Month != 1 || info.Day != 2 || info.DayName != "初二" {
		t.Errorf("got %d/%d %s", info.Month, info.Day, info.DayName)
	}

	// The day before it belongs to the previous lunar year.
	info, ok = cal.Info(day(2024, 2, 9))
	if !ok {
		t.Fatal("not ok")
	}
	if info.Year != 2023 {
		t.Errorf("Year = %d, want 2023", info.Year)
	}
	if info.Zodiac != "兔" {
		t.Errorf("Zodiac = %s, want 兔", info.Zodiac)
	}
}

func TestInfo_SolarTerm(t *testing.T) {
	cal := NewCalendar()

	info, ok := cal.Info(day(2023, 12, 22))
	if !ok {
		t.Fatal("not ok")
	}
	if info.SolarTerm != "冬至" {
		t.Errorf("SolarTerm = %q, want 冬至", info.SolarTerm)
	}

	info, ok = cal.Info(day(2023, 12, 15))
	if !ok {
		t.Fatal("not ok")
	}
	if info.SolarTerm != "" {
		t.Errorf("SolarTerm = %q, want none", info.SolarTerm)
	}
}

func TestInfo_OutOfRange(t *testing.T) {
	cal := NewCalendar()
	if _, ok := cal.Info(day(1899, 6, 1)); ok {
		t.Error("expected not ok before 1900-01-31")
	}
	if _, ok := cal.Info(day(2051, 1, 1)); ok {
		t.Error("expected not ok after table coverage")
	}
}
