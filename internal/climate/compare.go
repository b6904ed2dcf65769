package climate

import "sort"

// ComparisonEntry is one station's line in a comparison, ranked 1..n.
type ComparisonEntry struct {
	Rank              int      `json:"rank"`
	StationID         string   `json:"station_id"`
	StationName       string   `json:"station_name"`
	HasData           bool     `json:"has_data"`
	SunnyRate         *float64 `json:"sunny_rate"`
	TempAvg           *float64 `json:"temp_avg"`
	PrecipProbability *float64 `json:"precip_probability"`
}

// CompareResult ranks stations for one calendar day.
type CompareResult struct {
	MonthDay    string            `json:"month_day"`
	Entries     []ComparisonEntry `json:"entries"`
	BestStation *string           `json:"best_station,omitempty"`
}

const (
	minCompareStations = 2
	maxCompareStations = 5
)

// Compare ranks 2 to 5 distinct stations by sunny rate for one slot.
// Stations without data rank after all stations with a sunny rate, and
// equal rates fall back to station id order.
func (s *Service) Compare(stationIDs []string, monthDay string) (*CompareResult, error) {
	if len(stationIDs) < minCompareStations || len(stationIDs) > maxCompareStations {
		return nil, invalidInput("need %d-%d stations, got %d", minCompareStations, maxCompareStations, len(stationIDs))
	}
	seen := make(map[string]bool, len(stationIDs))
	for _, id := range stationIDs {
		if seen[id] {
			return nil, invalidInput("duplicate station %s", id)
		}
		seen[id] = true
	}
	md, err := parseMonthDay(monthDay)
	if err != nil {
		return nil, err
	}

	entries := make([]ComparisonEntry, 0, len(stationIDs))
	for _, id := range stationIDs {
		st, err := s.station(id)
		if err != nil {
			return nil, err
		}
		entry := ComparisonEntry{StationID: st.StationID, StationName: st.Name}

		ds, err := s.store.GetDailyStatistics(st.StationID, md)
		if err != nil {
			return nil, err
		}
		if ds.HasData() {
			entry.HasData = true
			entry.SunnyRate = fp(ds.TendencySunny)
			entry.TempAvg = fp(ds.TempAvgMean)
			entry.PrecipProbability = fp(ds.PrecipProbability)
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].SunnyRate, entries[j].SunnyRate
		switch {
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		case a != nil && b != nil && *a != *b:
			return *a > *b
		}
		return entries[i].StationID < entries[j].StationID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	result := &CompareResult{MonthDay: md, Entries: entries}
	if entries[0].SunnyRate != nil {
		best := entries[0].StationID
		result.BestStation = &best
	}
	return result, nil
}
