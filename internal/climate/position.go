package climate

import (
	"fmt"
	"math"
	"sort"

	"github.com/goodday/climate/internal/models"
	"github.com/goodday/climate/internal/stats"
)

// Status bands for a live value against the historical distribution.
const (
	StatusNormal      = "normal"
	StatusAboveNormal = "above_normal"
	StatusBelowNormal = "below_normal"
	StatusExtreme     = "extreme"
)

// Percentile computation methods.
const (
	MethodEmpirical = "empirical"
	MethodNormalCDF = "normal_approximation"
)

// MetricPosition places one live metric against its history.
type MetricPosition struct {
	Current        float64  `json:"current"`
	HistoricalMean float64  `json:"historical_mean"`
	Difference     float64  `json:"difference"`
	Status         string   `json:"status"`
	Percentile     *float64 `json:"percentile,omitempty"`
	Method         string   `json:"percentile_method,omitempty"`
}

// DecadeStats is one decade bucket's summary for a calendar slot.
type DecadeStats struct {
	Decade     string   `json:"decade"`
	StartYear  int      `json:"start_year"`
	EndYear    int      `json:"end_year"`
	YearsCount int      `json:"years_count"`
	TempAvg    *float64 `json:"temp_avg"`
	TempMaxAvg *float64 `json:"temp_max_avg"`
	TempMinAvg *float64 `json:"temp_min_avg"`
	PrecipProb *float64 `json:"precip_prob"`
	PrecipAvg  *float64 `json:"precip_avg"`
}

// Trend classification bands, in °C per decade.
const (
	TrendWarming = "warming"
	TrendStable  = "stable"
	TrendCooling = "cooling"
)

// ClimateTrend is the fitted long-term temperature trend for a slot.
type ClimateTrend struct {
	SlopePerDecade float64 `json:"slope_per_decade"`
	Interpretation string  `json:"interpretation"`
}

// PositionResult places a live observation in its day's history.
type PositionResult struct {
	StationID     string          `json:"station_id"`
	StationName   string          `json:"station_name"`
	MonthDay      string          `json:"month_day"`
	HasData       bool            `json:"has_data"`
	Temperature   *MetricPosition `json:"temperature,omitempty"`
	Precipitation *MetricPosition `json:"precipitation,omitempty"`
	Decades       []DecadeStats   `json:"decades,omitempty"`
	Recent10y     *DecadeStats    `json:"recent_10y,omitempty"`
	AllTime       *DecadeStats    `json:"all_time,omitempty"`
	Trend         *ClimateTrend   `json:"trend,omitempty"`
	Summary       string          `json:"summary"`
}

// Position compares a live observation against the historical record
// for today's calendar slot. Percentiles come from the raw same-day
// samples when any exist; otherwise a normal-distribution approximation
// over the stored mean and stddev fills in.
func (s *Service) Position(stationID string, live models.LiveObservation) (*PositionResult, error) {
	st, err := s.station(stationID)
	if err != nil {
		return nil, err
	}

	when := live.ObservedAt
	if when.IsZero() {
		when = s.now()
	}
	md := when.In(s.loc).Format("01-02")

	result := &PositionResult{
		StationID:   st.StationID,
		StationName: st.Name,
		MonthDay:    md,
	}

	ds, err := s.store.GetDailyStatistics(st.StationID, md)
	if err != nil {
		return nil, err
	}
	samples, err := s.store.GetCalendarDaySamples(st.StationID, md)
	if err != nil {
		return nil, err
	}
	if !ds.HasData() && len(samples) == 0 {
		result.Summary = fmt.Sprintf("No historical record for %s at %s yet.", md, st.Name)
		return result, nil
	}
	result.HasData = true

	if live.Temp.Valid && ds.HasData() && ds.TempAvgMean.Valid {
		result.Temperature = s.positionTemp(live.Temp.Float64, ds, samples)
	}
	if live.Precipitation.Valid && ds.HasData() && ds.PrecipProbability.Valid {
		result.Precipitation = positionPrecip(live.Precipitation.Float64, ds)
	}

	result.Decades, result.Recent10y, result.AllTime = decadeBuckets(samples, when.In(s.loc).Year())
	result.Trend = climateTrend(samples)
	result.Summary = buildSummary(st.Name, md, result)

	return result, nil
}

func (s *Service) positionTemp(current float64, ds *models.DailyStatistics, samples []models.CalendarSample) *MetricPosition {
	mean := ds.TempAvgMean.Float64
	pos := &MetricPosition{
		Current:        current,
		HistoricalMean: mean,
		Difference:     round2(current - mean),
		Status:         StatusNormal,
	}
	if ds.TempAvgStddev.Valid && ds.TempAvgStddev.Float64 > 0 {
		pos.Status = sigmaStatus(current-mean, ds.TempAvgStddev.Float64)
	}

	var temps []float64
	for _, cs := range samples {
		if cs.TempAvg.Valid {
			temps = append(temps, cs.TempAvg.Float64)
		}
	}
	if len(temps) > 0 {
		below := 0
		for _, t := range temps {
			if t < current {
				below++
			}
		}
		p := round1(float64(below) / float64(len(temps)) * 100)
		pos.Percentile = &p
		pos.Method = MethodEmpirical
	} else if ds.TempAvgStddev.Valid && ds.TempAvgStddev.Float64 > 0 {
		p := round1(stats.NormalCDF(current, mean, ds.TempAvgStddev.Float64) * 100)
		pos.Percentile = &p
		pos.Method = MethodNormalCDF
	}
	return pos
}

// positionPrecip has no stored spread, so its bands are absolute: any
// reading past the heavy-rain threshold is extreme, anything above the
// historical rain-day mean is above normal. A day with precipitation
// history but no rain days compares against a mean of zero, so any rain
// at all reads above normal.
func positionPrecip(current float64, ds *models.DailyStatistics) *MetricPosition {
	mean := 0.0
	if ds.PrecipAvgWhenRain.Valid {
		mean = ds.PrecipAvgWhenRain.Float64
	}
	pos := &MetricPosition{
		Current:        current,
		HistoricalMean: mean,
		Difference:     round2(current - mean),
		Status:         StatusNormal,
	}
	switch {
	case current > stats.HeavyRainThreshold:
		pos.Status = StatusExtreme
	case current > mean:
		pos.Status = StatusAboveNormal
	}
	return pos
}

func sigmaStatus(diff, stddev float64) string {
	switch {
	case math.Abs(diff) > 2*stddev:
		return StatusExtreme
	case diff > stddev:
		return StatusAboveNormal
	case diff < -stddev:
		return StatusBelowNormal
	default:
		return StatusNormal
	}
}

func decadeBuckets(samples []models.CalendarSample, currentYear int) (decades []DecadeStats, recent, allTime *DecadeStats) {
	byDecade := make(map[int][]models.CalendarSample)
	var all, recentSamples []models.CalendarSample
	for _, cs := range samples {
		if !cs.TempAvg.Valid {
			continue
		}
		all = append(all, cs)
		byDecade[cs.Year/10*10] = append(byDecade[cs.Year/10*10], cs)
		if cs.Year >= currentYear-10 {
			recentSamples = append(recentSamples, cs)
		}
	}
	if len(all) == 0 {
		return nil, nil, nil
	}

	var starts []int
	for d := range byDecade {
		starts = append(starts, d)
	}
	sort.Ints(starts)
	for _, d := range starts {
		decades = append(decades, bucketStats(fmt.Sprintf("%ds", d), byDecade[d]))
	}
	if len(recentSamples) > 0 {
		b := bucketStats("recent_10y", recentSamples)
		recent = &b
	}
	b := bucketStats("all_time", all)
	allTime = &b
	return decades, recent, allTime
}

func bucketStats(label string, samples []models.CalendarSample) DecadeStats {
	ds := DecadeStats{Decade: label, YearsCount: len(samples)}

	var temps, maxs, mins, precips, rains []float64
	for i, cs := range samples {
		if i == 0 || cs.Year < ds.StartYear {
			ds.StartYear = cs.Year
		}
		if cs.Year > ds.EndYear {
			ds.EndYear = cs.Year
		}
		if cs.TempAvg.Valid {
			temps = append(temps, cs.TempAvg.Float64)
		}
		if cs.TempMax.Valid {
			maxs = append(maxs, cs.TempMax.Float64)
		}
		if cs.TempMin.Valid {
			mins = append(mins, cs.TempMin.Float64)
		}
		if cs.Precipitation.Valid {
			precips = append(precips, cs.Precipitation.Float64)
			if cs.Precipitation.Float64 >= stats.RainThreshold {
				rains = append(rains, cs.Precipitation.Float64)
			}
		}
	}

	ds.TempAvg = meanPtr(temps)
	ds.TempMaxAvg = meanPtr(maxs)
	ds.TempMinAvg = meanPtr(mins)
	if len(precips) > 0 {
		p := round2(float64(len(rains)) / float64(len(precips)))
		ds.PrecipProb = &p
	}
	ds.PrecipAvg = meanPtr(rains)
	return ds
}

func climateTrend(samples []models.CalendarSample) *ClimateTrend {
	var years []int
	var temps []float64
	for _, cs := range samples {
		if cs.TempAvg.Valid {
			years = append(years, cs.Year)
			temps = append(temps, cs.TempAvg.Float64)
		}
	}
	slope := stats.LinearSlope(years, temps)
	if math.IsNaN(slope) {
		return nil
	}

	perDecade := round2(slope * 10)
	trend := &ClimateTrend{SlopePerDecade: perDecade}
	switch {
	case perDecade > 0.1:
		trend.Interpretation = TrendWarming
	case perDecade < -0.1:
		trend.Interpretation = TrendCooling
	default:
		trend.Interpretation = TrendStable
	}
	return trend
}

func buildSummary(stationName, md string, r *PositionResult) string {
	msg := fmt.Sprintf("%s on %s:", stationName, md)
	if r.Temperature != nil {
		dir := "above"
		if r.Temperature.Difference < 0 {
			dir = "below"
		}
		msg += fmt.Sprintf(" %.1f°C is %.1f°C %s the historical mean (%s)",
			r.Temperature.Current, math.Abs(r.Temperature.Difference), dir, r.Temperature.Status)
		if r.Temperature.Percentile != nil {
			msg += fmt.Sprintf(", warmer than %.0f%% of years on record", *r.Temperature.Percentile)
		}
		msg += "."
	} else {
		msg += " no live temperature to compare."
	}
	if r.Trend != nil {
		msg += fmt.Sprintf(" Long-term trend %s (%+.2f°C/decade).", r.Trend.Interpretation, r.Trend.SlopePerDecade)
	}
	return msg
}

func meanPtr(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	m := round2(stats.Mean(vals))
	return &m
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
