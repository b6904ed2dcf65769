package climate

// DaySummary is the compact per-day line in a range result.
type DaySummary struct {
	MonthDay          string   `json:"month_day"`
	HasData           bool     `json:"has_data"`
	TempAvg           *float64 `json:"temp_avg"`
	TempMax           *float64 `json:"temp_max"`
	TempMin           *float64 `json:"temp_min"`
	PrecipProbability *float64 `json:"precip_probability"`
	SunnyRate         *float64 `json:"sunny_rate"`
}

// RangeAggregate is the mean-of-means over the days that carry data.
// Each mean's denominator only counts days where that metric exists.
type RangeAggregate struct {
	TempAvg           *float64 `json:"temp_avg"`
	PrecipProbability *float64 `json:"precip_probability"`
	SunnyRate         *float64 `json:"sunny_rate"`
	DaysWithData      int      `json:"days_with_data"`
}

// RangeResult is the answer to a date-range query.
type RangeResult struct {
	StationID   string         `json:"station_id"`
	StationName string         `json:"station_name"`
	StartDay    string         `json:"start_day"`
	EndDay      string         `json:"end_day"`
	Days        []DaySummary   `json:"days"`
	Aggregate   RangeAggregate `json:"aggregate"`
	BestDay     *string        `json:"best_day,omitempty"`
	WorstDay    *string        `json:"worst_day,omitempty"`
}

// Range summarises up to 31 consecutive calendar slots, wrapping the
// year boundary when the end precedes the start. Best and worst days
// rank by sunny rate with the earliest day in range order winning ties.
func (s *Service) Range(stationID, start, end string) (*RangeResult, error) {
	startMD, err := parseRangeDay(start)
	if err != nil {
		return nil, err
	}
	endMD, err := parseRangeDay(end)
	if err != nil {
		return nil, err
	}
	days, err := daysInRange(startMD, endMD)
	if err != nil {
		return nil, err
	}
	st, err := s.station(stationID)
	if err != nil {
		return nil, err
	}

	stats, err := s.store.GetDailyStatisticsForDays(st.StationID, days)
	if err != nil {
		return nil, err
	}

	result := &RangeResult{
		StationID:   st.StationID,
		StationName: st.Name,
		StartDay:    startMD,
		EndDay:      endMD,
		Days:        make([]DaySummary, 0, len(days)),
	}

	var tempSum, precipSum, sunnySum float64
	var tempN, precipN, sunnyN int
	var bestDay, worstDay string
	var bestRate, worstRate float64

	for _, md := range days {
		summary := DaySummary{MonthDay: md}
		if ds, ok := stats[md]; ok && ds.HasData() {
			summary.HasData = true
			summary.TempAvg = fp(ds.TempAvgMean)
			summary.TempMax = fp(ds.TempMaxMean)
			summary.TempMin = fp(ds.TempMinMean)
			summary.PrecipProbability = fp(ds.PrecipProbability)
			summary.SunnyRate = fp(ds.TendencySunny)

			result.Aggregate.DaysWithData++
			if summary.TempAvg != nil {
				tempSum += *summary.TempAvg
				tempN++
			}
			if summary.PrecipProbability != nil {
				precipSum += *summary.PrecipProbability
				precipN++
			}
			if summary.SunnyRate != nil {
				sunnySum += *summary.SunnyRate
				sunnyN++
				if bestDay == "" || *summary.SunnyRate > bestRate {
					bestDay, bestRate = md, *summary.SunnyRate
				}
				if worstDay == "" || *summary.SunnyRate < worstRate {
					worstDay, worstRate = md, *summary.SunnyRate
				}
			}
		}
		result.Days = append(result.Days, summary)
	}

	if tempN > 0 {
		v := tempSum / float64(tempN)
		result.Aggregate.TempAvg = &v
	}
	if precipN > 0 {
		v := precipSum / float64(precipN)
		result.Aggregate.PrecipProbability = &v
	}
	if sunnyN > 0 {
		v := sunnySum / float64(sunnyN)
		result.Aggregate.SunnyRate = &v
	}
	if bestDay != "" {
		result.BestDay = &bestDay
		result.WorstDay = &worstDay
	}

	return result, nil
}
