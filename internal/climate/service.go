// Package climate implements the query services over the statistics
// snapshot: single-day lookups, date-range summaries, day
// recommendations, station comparison, and the historical position of
// a live observation.
package climate

import (
	"database/sql"
	"time"

	"github.com/goodday/climate/internal/lunar"
	"github.com/goodday/climate/internal/models"
	"github.com/goodday/climate/internal/store"
)

// Store is the slice of the statistics store the query services need.
type Store interface {
	GetStation(stationID string) (*models.Station, error)
	GetDailyStatistics(stationID, monthDay string) (*models.DailyStatistics, error)
	GetDailyStatisticsForDays(stationID string, monthDays []string) (map[string]models.DailyStatistics, error)
	GetCalendarDaySamples(stationID, monthDay string) ([]models.CalendarSample, error)
	GetExtremeRecords(stationID, monthDay string) (store.ExtremeRecords, error)
}

type Service struct {
	store Store
	lunar lunar.Provider
	loc   *time.Location
	now   func() time.Time
}

func NewService(st Store, lp lunar.Provider, loc *time.Location) *Service {
	return &Service{store: st, lunar: lp, loc: loc, now: time.Now}
}

// station resolves and validates a station id.
func (s *Service) station(stationID string) (*models.Station, error) {
	if stationID == "" {
		return nil, invalidInput("station id is required")
	}
	st, err := s.store.GetStation(stationID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, &StationNotFoundError{StationID: stationID}
	}
	return st, nil
}

// today returns the current calendar slot in the service timezone.
func (s *Service) today() string {
	return s.now().In(s.loc).Format("01-02")
}

func fp(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func ip(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

// TemperatureStats is the per-slot temperature summary, all values in
// degrees Celsius. Nil means insufficient data for that field.
type TemperatureStats struct {
	Mean      *float64 `json:"mean"`
	Median    *float64 `json:"median"`
	StdDev    *float64 `json:"std_dev"`
	MaxMean   *float64 `json:"max_mean"`
	MaxRecord *float64 `json:"max_record"`
	MinMean   *float64 `json:"min_mean"`
	MinRecord *float64 `json:"min_record"`
}

// PrecipitationStats is the per-slot rain summary, amounts in mm.
type PrecipitationStats struct {
	Probability      *float64 `json:"probability"`
	AvgWhenRain      *float64 `json:"avg_when_rain"`
	HeavyProbability *float64 `json:"heavy_probability"`
	MaxRecord        *float64 `json:"max_record"`
}

// TendencyStats is the per-slot sunny/cloudy/rainy split.
type TendencyStats struct {
	Sunny  *float64 `json:"sunny"`
	Cloudy *float64 `json:"cloudy"`
	Rainy  *float64 `json:"rainy"`
}

// ExtremeValue is a dated record extreme.
type ExtremeValue struct {
	Value float64 `json:"value"`
	Year  int     `json:"year"`
}

// Extremes carries the dated all-time records for a slot.
type Extremes struct {
	HighestTemp *ExtremeValue `json:"highest_temp,omitempty"`
	LowestTemp  *ExtremeValue `json:"lowest_temp,omitempty"`
	MaxPrecip   *ExtremeValue `json:"max_precip,omitempty"`
}

// DayResult is the full answer for one (station, calendar day) lookup.
type DayResult struct {
	StationID     string              `json:"station_id"`
	StationName   string              `json:"station_name"`
	MonthDay      string              `json:"month_day"`
	HasData       bool                `json:"has_data"`
	YearsAnalyzed int                 `json:"years_analyzed"`
	StartYear     *int                `json:"start_year,omitempty"`
	EndYear       *int                `json:"end_year,omitempty"`
	Temperature   *TemperatureStats   `json:"temperature,omitempty"`
	Precipitation *PrecipitationStats `json:"precipitation,omitempty"`
	Tendency      *TendencyStats      `json:"tendency,omitempty"`
	Extremes      *Extremes           `json:"extremes,omitempty"`
	Lunar         *lunar.Info         `json:"lunar,omitempty"`
}

// DailyStatistics answers a single calendar-day lookup. A station with
// no statistics for the slot yields HasData false, not an error.
func (s *Service) DailyStatistics(stationID, monthDay string) (*DayResult, error) {
	md, err := parseMonthDay(monthDay)
	if err != nil {
		return nil, err
	}
	st, err := s.station(stationID)
	if err != nil {
		return nil, err
	}

	result := &DayResult{
		StationID:   st.StationID,
		StationName: st.Name,
		MonthDay:    md,
	}

	ds, err := s.store.GetDailyStatistics(st.StationID, md)
	if err != nil {
		return nil, err
	}
	if ds.HasData() {
		result.HasData = true
		result.YearsAnalyzed = ds.YearsAnalyzed
		result.StartYear = ip(ds.StartYear)
		result.EndYear = ip(ds.EndYear)
		result.Temperature = &TemperatureStats{
			Mean:      fp(ds.TempAvgMean),
			Median:    fp(ds.TempAvgMedian),
			StdDev:    fp(ds.TempAvgStddev),
			MaxMean:   fp(ds.TempMaxMean),
			MaxRecord: fp(ds.TempMaxRecord),
			MinMean:   fp(ds.TempMinMean),
			MinRecord: fp(ds.TempMinRecord),
		}
		result.Precipitation = &PrecipitationStats{
			Probability:      fp(ds.PrecipProbability),
			AvgWhenRain:      fp(ds.PrecipAvgWhenRain),
			HeavyProbability: fp(ds.PrecipHeavyProb),
			MaxRecord:        fp(ds.PrecipMaxRecord),
		}
		result.Tendency = &TendencyStats{
			Sunny:  fp(ds.TendencySunny),
			Cloudy: fp(ds.TendencyCloudy),
			Rainy:  fp(ds.TendencyRainy),
		}
	}

	rec, err := s.store.GetExtremeRecords(st.StationID, md)
	if err != nil {
		return nil, err
	}
	result.Extremes = extremesFromRecords(rec)

	if s.lunar != nil {
		// Annotate with this year's occurrence of the slot. Feb 29
		// falls back to the plain result in non-leap years.
		year := s.now().In(s.loc).Year()
		var m, d int
		parseMD(md, &m, &d)
		date := time.Date(year, time.Month(m), d, 0, 0, 0, 0, s.loc)
		if int(date.Month()) == m && date.Day() == d {
			if info, ok := s.lunar.Info(date); ok {
				result.Lunar = &info
			}
		}
	}

	return result, nil
}

// TodayStatistics is DailyStatistics for the current wall-clock date.
func (s *Service) TodayStatistics(stationID string) (*DayResult, error) {
	return s.DailyStatistics(stationID, s.today())
}

func extremesFromRecords(rec store.ExtremeRecords) *Extremes {
	ext := &Extremes{}
	empty := true
	if rec.HighestTemp.Valid && rec.HighestTempYear.Valid {
		ext.HighestTemp = &ExtremeValue{Value: rec.HighestTemp.Float64, Year: int(rec.HighestTempYear.Int64)}
		empty = false
	}
	if rec.LowestTemp.Valid && rec.LowestTempYear.Valid {
		ext.LowestTemp = &ExtremeValue{Value: rec.LowestTemp.Float64, Year: int(rec.LowestTempYear.Int64)}
		empty = false
	}
	if rec.MaxPrecip.Valid && rec.MaxPrecipYear.Valid {
		ext.MaxPrecip = &ExtremeValue{Value: rec.MaxPrecip.Float64, Year: int(rec.MaxPrecipYear.Int64)}
		empty = false
	}
	if empty {
		return nil
	}
	return ext
}
