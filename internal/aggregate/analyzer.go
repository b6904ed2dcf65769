// Package aggregate turns decades of raw daily observations into the
// smoothed per-calendar-day statistics snapshot. Each of the 366
// month-day slots pools samples from a window of seven concrete dates
// around the slot across every year of the station's record, so the
// slot carries enough samples to be statistically useful even with
// gaps in the record.
package aggregate

import (
	"database/sql"
	"math"
	"sort"

	"github.com/goodday/climate/internal/models"
	"github.com/goodday/climate/internal/stats"
)

// windowDays is the half-width of the smoothing window. A slot pools
// samples from date-3 through date+3 in every source year.
const windowDays = 3

// Analyzer computes the calendar-day statistics for one station from
// its full observation history.
type Analyzer struct {
	byDate map[string]models.Observation
	years  []int
}

func NewAnalyzer(observations []models.Observation) *Analyzer {
	a := &Analyzer{byDate: make(map[string]models.Observation, len(observations))}
	seen := make(map[int]bool)
	for _, obs := range observations {
		a.byDate[obs.ObservedDate.Format(dateLayout)] = obs
		seen[obs.ObservedDate.Year()] = true
	}
	for y := range seen {
		a.years = append(a.years, y)
	}
	sort.Ints(a.years)
	return a
}

// ComputeAll computes statistics for every calendar slot, in calendar
// order. Slots with no usable samples come back with YearsAnalyzed 0.
func (a *Analyzer) ComputeAll() []models.DailyStatistics {
	days := CalendarDays()
	out := make([]models.DailyStatistics, 0, len(days))
	for _, md := range days {
		out = append(out, a.ComputeDay(md))
	}
	return out
}

// ComputeDay computes the smoothed statistics for a single slot. The
// window is resolved to concrete dates per source year, so February
// lengths and year boundaries follow the real calendar.
func (a *Analyzer) ComputeDay(md MonthDay) models.DailyStatistics {
	ds := models.DailyStatistics{MonthDay: md.String()}

	if len(a.years) == 0 {
		return ds
	}

	var tempAvg, tempMax, tempMin, precip []float64
	var sky []string
	contributing := make(map[int]bool)

	// Anchor years run one past each end of the record so that December
	// observations of the last data year still pool into the January
	// slots and January observations of the first year into the December
	// slots. Anchors whose windows hold no samples contribute nothing.
	for year := a.years[0] - 1; year <= a.years[len(a.years)-1]+1; year++ {
		anchor, ok := dateInYear(year, md)
		if !ok {
			continue
		}
		for off := -windowDays; off <= windowDays; off++ {
			obs, ok := a.byDate[anchor.AddDate(0, 0, off).Format(dateLayout)]
			if !ok {
				continue
			}
			used := false
			if obs.TempAvg.Valid {
				tempAvg = append(tempAvg, obs.TempAvg.Float64)
				used = true
			}
			if obs.TempMax.Valid {
				tempMax = append(tempMax, obs.TempMax.Float64)
				used = true
			}
			if obs.TempMin.Valid {
				tempMin = append(tempMin, obs.TempMin.Float64)
				used = true
			}
			if obs.Precipitation.Valid {
				precip = append(precip, obs.Precipitation.Float64)
				used = true
			}
			if obs.SkyCondition.Valid {
				sky = append(sky, obs.SkyCondition.String)
				used = true
			}
			if used {
				// Attributed to the year the sample was observed in,
				// not the anchor year the window came from.
				contributing[obs.ObservedDate.Year()] = true
			}
		}
	}

	ds.YearsAnalyzed = len(contributing)
	if ds.YearsAnalyzed == 0 {
		return ds
	}

	minYear, maxYear := 0, 0
	for y := range contributing {
		if minYear == 0 || y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}
	ds.StartYear = sql.NullInt64{Int64: int64(minYear), Valid: true}
	ds.EndYear = sql.NullInt64{Int64: int64(maxYear), Valid: true}

	if len(tempAvg) > 0 {
		b := stats.Basic(tempAvg)
		ds.TempAvgMean = roundNull(b.Mean)
		ds.TempAvgMedian = roundNull(b.Median)
		ds.TempAvgStddev = roundNull(b.StdDev)
	}
	if len(tempMax) > 0 {
		b := stats.Basic(tempMax)
		ds.TempMaxMean = roundNull(b.Mean)
		ds.TempMaxRecord = roundNull(b.Max)
	}
	if len(tempMin) > 0 {
		b := stats.Basic(tempMin)
		ds.TempMinMean = roundNull(b.Mean)
		ds.TempMinRecord = roundNull(b.Min)
	}
	if len(precip) > 0 {
		p := stats.Precip(precip)
		ds.PrecipProbability = roundNull(p.Probability)
		ds.PrecipHeavyProb = roundNull(p.HeavyProbability)
		ds.PrecipMaxRecord = roundNull(p.MaxRecordedMm)
		if p.RainDays > 0 {
			ds.PrecipAvgWhenRain = roundNull(p.MeanRainDayMm)
		}
	}
	if t := stats.Tendency(sky); t.ValidDays > 0 {
		ds.TendencySunny = roundNull(t.Sunny)
		ds.TendencyCloudy = roundNull(t.Cloudy)
		ds.TendencyRainy = roundNull(t.Rainy)
	}

	return ds
}

// roundNull rounds to two decimals and maps NaN to null. Stored
// statistics keep two decimals so repeated rebuilds produce identical
// rows.
func roundNull(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: math.Round(v*100) / 100, Valid: true}
}
