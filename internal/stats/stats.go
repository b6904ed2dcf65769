// Package stats holds the statistical kernel shared by the aggregation
// engine and the query services: moment statistics, precipitation
// probabilities, sky tendency splits, and the linear trend fit.
package stats

import (
	"math"
	"sort"
)

// Precipitation and sunshine thresholds, in mm and hours.
const (
	RainThreshold      = 0.1  // at or above this a day counts as wet
	HeavyRainThreshold = 50.0 // above this a day counts as heavy rain
	RainyDayThreshold  = 1.0  // tendency classification cutoff
	SunnySunshineHours = 3.0  // minimum sunshine for a sunny day
)

func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// StdDev returns the sample standard deviation (n-1 denominator).
// A single sample has no spread and returns NaN.
func StdDev(vals []float64) float64 {
	n := len(vals)
	if n < 2 {
		return math.NaN()
	}
	mean := Mean(vals)
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// Quantile returns the q-th quantile (0..1) using linear interpolation
// between closest ranks.
func Quantile(vals []float64, q float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// BasicStats summarises one metric's samples.
type BasicStats struct {
	Mean         float64
	Median       float64
	StdDev       float64
	Min          float64
	Max          float64
	Percentile25 float64
	Percentile75 float64
	Count        int
}

// Basic computes moment statistics over the samples. Count 0 means all
// other fields are NaN and must not be used.
func Basic(vals []float64) BasicStats {
	if len(vals) == 0 {
		nan := math.NaN()
		return BasicStats{Mean: nan, Median: nan, StdDev: nan, Min: nan, Max: nan, Percentile25: nan, Percentile75: nan}
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	return BasicStats{
		Mean:         Mean(vals),
		Median:       Median(vals),
		StdDev:       StdDev(vals),
		Min:          sorted[0],
		Max:          sorted[len(sorted)-1],
		Percentile25: Quantile(vals, 0.25),
		Percentile75: Quantile(vals, 0.75),
		Count:        len(vals),
	}
}

// PrecipStats summarises precipitation samples.
type PrecipStats struct {
	Probability      float64 // fraction of days at or above RainThreshold
	HeavyProbability float64 // fraction of days above HeavyRainThreshold
	MaxRecordedMm    float64
	MeanRainDayMm    float64 // mean amount conditioned on rain occurring
	TotalDays        int
	RainDays         int
}

// Precip computes rain probabilities over the samples. TotalDays 0
// means no reading was available.
func Precip(vals []float64) PrecipStats {
	if len(vals) == 0 {
		return PrecipStats{}
	}

	var rainDays, heavyDays int
	var rainSum, max float64
	for i, v := range vals {
		if i == 0 || v > max {
			max = v
		}
		if v >= RainThreshold {
			rainDays++
			rainSum += v
		}
		if v > HeavyRainThreshold {
			heavyDays++
		}
	}

	st := PrecipStats{
		Probability:      float64(rainDays) / float64(len(vals)),
		HeavyProbability: float64(heavyDays) / float64(len(vals)),
		MaxRecordedMm:    max,
		TotalDays:        len(vals),
		RainDays:         rainDays,
	}
	if rainDays > 0 {
		st.MeanRainDayMm = rainSum / float64(rainDays)
	}
	return st
}

// Sky condition categories.
const (
	SkySunny  = "sunny"
	SkyCloudy = "cloudy"
	SkyRainy  = "rainy"
)

// ClassifySky maps a day's precipitation and sunshine hours to a sky
// category: rainy at or above RainyDayThreshold mm, sunny when dry with
// more than SunnySunshineHours of sun, otherwise cloudy.
func ClassifySky(precipMm, sunshineHours float64) string {
	if precipMm >= RainyDayThreshold {
		return SkyRainy
	}
	if precipMm < RainThreshold && sunshineHours > SunnySunshineHours {
		return SkySunny
	}
	return SkyCloudy
}

// TendencyStats is the historical sunny/cloudy/rainy split for a day.
type TendencyStats struct {
	Sunny     float64
	Cloudy    float64
	Rainy     float64
	Dominant  string
	ValidDays int
}

// Tendency computes the fractional split over classified days. Days are
// passed as category strings; unrecognised values are ignored.
func Tendency(conditions []string) TendencyStats {
	var sunny, cloudy, rainy int
	for _, c := range conditions {
		switch c {
		case SkySunny:
			sunny++
		case SkyCloudy:
			cloudy++
		case SkyRainy:
			rainy++
		}
	}
	total := sunny + cloudy + rainy
	if total == 0 {
		return TendencyStats{Dominant: "unknown"}
	}

	st := TendencyStats{
		Sunny:     float64(sunny) / float64(total),
		Cloudy:    float64(cloudy) / float64(total),
		Rainy:     float64(rainy) / float64(total),
		ValidDays: total,
	}
	switch {
	case st.Sunny >= st.Cloudy && st.Sunny >= st.Rainy:
		st.Dominant = SkySunny
	case st.Rainy >= st.Cloudy:
		st.Dominant = SkyRainy
	default:
		st.Dominant = SkyCloudy
	}
	return st
}

// LinearSlope fits y = a + b*x by least squares and returns b. Needs at
// least 5 points to be meaningful; returns NaN otherwise or when x is
// degenerate.
func LinearSlope(xs []int, ys []float64) float64 {
	if len(xs) < 5 || len(xs) != len(ys) {
		return math.NaN()
	}

	n := float64(len(xs))
	var sumX, sumY, sumXY, sumX2 float64
	for i, xi := range xs {
		x := float64(xi)
		sumX += x
		sumY += ys[i]
		sumXY += x * ys[i]
		sumX2 += x * x
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return math.NaN()
	}
	return (n*sumXY - sumX*sumY) / denom
}

// NormalCDF returns P(X <= x) for a normal distribution with the given
// mean and standard deviation.
func NormalCDF(x, mean, stddev float64) float64 {
	if stddev <= 0 {
		if x < mean {
			return 0
		}
		return 1
	}
	return 0.5 * (1 + math.Erf((x-mean)/(stddev*math.Sqrt2)))
}
