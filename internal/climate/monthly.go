package climate

// MonthlyResult condenses a month's calendar slots into one summary.
type MonthlyResult struct {
	StationID         string   `json:"station_id"`
	StationName       string   `json:"station_name"`
	Month             int      `json:"month"`
	DaysWithData      int      `json:"days_with_data"`
	TempAvg           *float64 `json:"temp_avg"`
	TempMaxAvg        *float64 `json:"temp_max_avg"`
	TempMinAvg        *float64 `json:"temp_min_avg"`
	PrecipProbability *float64 `json:"precip_probability"`
	SunnyRate         *float64 `json:"sunny_rate"`
	SunniestDay       *string  `json:"sunniest_day,omitempty"`
	WettestDay        *string  `json:"wettest_day,omitempty"`
}

// Monthly averages the month's per-day statistics, skipping days with
// no data. Sunniest and wettest days rank by sunny rate and rain
// probability with earlier days winning ties.
func (s *Service) Monthly(stationID string, month int) (*MonthlyResult, error) {
	if month < 1 || month > 12 {
		return nil, invalidInput("month %d out of range 1-12", month)
	}
	st, err := s.station(stationID)
	if err != nil {
		return nil, err
	}

	days := monthDays(month)
	stats, err := s.store.GetDailyStatisticsForDays(st.StationID, days)
	if err != nil {
		return nil, err
	}

	result := &MonthlyResult{StationID: st.StationID, StationName: st.Name, Month: month}

	var tempSum, maxSum, minSum, precipSum, sunnySum float64
	var tempN, maxN, minN, precipN, sunnyN int
	var sunniest, wettest string
	var sunniestRate, wettestProb float64

	for _, md := range days {
		ds, ok := stats[md]
		if !ok || !ds.HasData() {
			continue
		}
		result.DaysWithData++
		if ds.TempAvgMean.Valid {
			tempSum += ds.TempAvgMean.Float64
			tempN++
		}
		if ds.TempMaxMean.Valid {
			maxSum += ds.TempMaxMean.Float64
			maxN++
		}
		if ds.TempMinMean.Valid {
			minSum += ds.TempMinMean.Float64
			minN++
		}
		if ds.PrecipProbability.Valid {
			precipSum += ds.PrecipProbability.Float64
			precipN++
			if wettest == "" || ds.PrecipProbability.Float64 > wettestProb {
				wettest, wettestProb = md, ds.PrecipProbability.Float64
			}
		}
		if ds.TendencySunny.Valid {
			sunnySum += ds.TendencySunny.Float64
			sunnyN++
			if sunniest == "" || ds.TendencySunny.Float64 > sunniestRate {
				sunniest, sunniestRate = md, ds.TendencySunny.Float64
			}
		}
	}

	setMean := func(dst **float64, sum float64, n int) {
		if n > 0 {
			v := round2(sum / float64(n))
			*dst = &v
		}
	}
	setMean(&result.TempAvg, tempSum, tempN)
	setMean(&result.TempMaxAvg, maxSum, maxN)
	setMean(&result.TempMinAvg, minSum, minN)
	setMean(&result.PrecipProbability, precipSum, precipN)
	setMean(&result.SunnyRate, sunnySum, sunnyN)
	if sunniest != "" {
		result.SunniestDay = &sunniest
	}
	if wettest != "" {
		result.WettestDay = &wettest
	}

	return result, nil
}
