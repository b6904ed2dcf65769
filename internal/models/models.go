package models

import (
	"database/sql"
	"time"
)

type Station struct {
	StationID     string
	Name          string
	County        sql.NullString
	Town          sql.NullString
	Latitude      float64
	Longitude     float64
	Altitude      sql.NullFloat64
	Active        bool
	HasStatistics bool
}

// Observation is one day of measurements for a station, already reduced
// to daily values by the upstream archive. Missing readings stay null.
type Observation struct {
	ID            int64
	StationID     string
	ObservedDate  time.Time
	TempAvg       sql.NullFloat64
	TempMax       sql.NullFloat64
	TempMin       sql.NullFloat64
	Precipitation sql.NullFloat64
	HumidityAvg   sql.NullFloat64
	SunshineHours sql.NullFloat64
	SkyCondition  sql.NullString // "sunny", "cloudy", "rainy"
	CreatedAt     time.Time
}

// DailyStatistics is the smoothed snapshot for one (station, MM-DD)
// slot, derived from every year's observations within a ±3 day window.
// A row with YearsAnalyzed 0 means no usable samples, not an error.
type DailyStatistics struct {
	ID        int64
	StationID string
	MonthDay  string // "MM-DD", 366 slots including 02-29

	YearsAnalyzed int
	StartYear     sql.NullInt64
	EndYear       sql.NullInt64

	TempAvgMean   sql.NullFloat64
	TempAvgMedian sql.NullFloat64
	TempAvgStddev sql.NullFloat64
	TempMaxMean   sql.NullFloat64
	TempMaxRecord sql.NullFloat64
	TempMinMean   sql.NullFloat64
	TempMinRecord sql.NullFloat64

	PrecipProbability sql.NullFloat64
	PrecipAvgWhenRain sql.NullFloat64
	PrecipHeavyProb   sql.NullFloat64
	PrecipMaxRecord   sql.NullFloat64

	TendencySunny  sql.NullFloat64
	TendencyCloudy sql.NullFloat64
	TendencyRainy  sql.NullFloat64

	ComputedAt time.Time
}

// HasData reports whether the snapshot carries any usable statistics.
func (d *DailyStatistics) HasData() bool {
	return d != nil && d.YearsAnalyzed > 0
}

// LiveObservation is a current reading from the realtime feed, compared
// against the historical snapshot by the position engine.
type LiveObservation struct {
	StationID     string
	Temp          sql.NullFloat64
	Humidity      sql.NullFloat64
	Precipitation sql.NullFloat64
	Weather       string
	ObservedAt    time.Time
}

// CalendarSample is one year's raw reading for a single MM-DD slot,
// used for empirical percentiles and decade statistics.
type CalendarSample struct {
	Year          int
	TempAvg       sql.NullFloat64
	TempMax       sql.NullFloat64
	TempMin       sql.NullFloat64
	Precipitation sql.NullFloat64
}
