package climate

import (
	"fmt"
	"sort"

	"github.com/goodday/climate/internal/models"
)

const defaultRecommendLimit = 5

// profile weights three component scores, each already in [0,100].
// Weights sum to 1 so the total stays in [0,100].
type profile struct {
	name          string
	rainTolerance float64
	tempMin       float64
	tempMax       float64
	tempIdeal     float64
	rainWeight    float64
	tempWeight    float64
	sunnyWeight   float64
}

var profiles = map[string]profile{
	"sunny": {
		name: "sunny", rainTolerance: 0.1,
		tempMin: 10, tempMax: 35, tempIdeal: 24,
		rainWeight: 0.2, tempWeight: 0, sunnyWeight: 0.8,
	},
	"mild": {
		name: "mild", rainTolerance: 0.2,
		tempMin: 18, tempMax: 25, tempIdeal: 21.5,
		rainWeight: 0.2, tempWeight: 0.7, sunnyWeight: 0.1,
	},
	"cool": {
		name: "cool", rainTolerance: 0.2,
		tempMin: 15, tempMax: 20, tempIdeal: 17.5,
		rainWeight: 0.2, tempWeight: 0.7, sunnyWeight: 0.1,
	},
	"outdoor": {
		name: "outdoor", rainTolerance: 0.2,
		tempMin: 15, tempMax: 30, tempIdeal: 24,
		rainWeight: 0.35, tempWeight: 0.35, sunnyWeight: 0.3,
	},
	"wedding": {
		name: "wedding", rainTolerance: 0.05,
		tempMin: 15, tempMax: 30, tempIdeal: 23,
		rainWeight: 0.6, tempWeight: 0.15, sunnyWeight: 0.25,
	},
}

// ProfileNames lists the supported preference profiles.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RecommendedDay is one scored candidate day.
type RecommendedDay struct {
	MonthDay          string   `json:"month_day"`
	Score             float64  `json:"score"`
	Reason            string   `json:"reason"`
	HasData           bool     `json:"has_data"`
	TempAvg           *float64 `json:"temp_avg"`
	PrecipProbability *float64 `json:"precip_probability"`
	SunnyRate         *float64 `json:"sunny_rate"`
}

// RecommendResult is the ranked answer for one month and profile.
type RecommendResult struct {
	StationID   string           `json:"station_id"`
	StationName string           `json:"station_name"`
	Month       int              `json:"month"`
	Profile     string           `json:"profile"`
	Days        []RecommendedDay `json:"days"`
}

// Recommend scores every day of the month under the named profile and
// returns the top scoring days. Days without statistics score zero and
// sort last, so the list is never shorter than requested just because
// data is thin. Ties rank the earlier day of month first.
func (s *Service) Recommend(stationID string, month int, profileName string, limit int) (*RecommendResult, error) {
	if month < 1 || month > 12 {
		return nil, invalidInput("month %d out of range 1-12", month)
	}
	prof, ok := profiles[profileName]
	if !ok {
		return nil, invalidInput("unknown profile %q, supported: %v", profileName, ProfileNames())
	}
	if limit == 0 {
		limit = defaultRecommendLimit
	}
	if limit < 1 {
		return nil, invalidInput("limit must be at least 1, got %d", limit)
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

	scored := make([]RecommendedDay, 0, len(days))
	for _, md := range days {
		day := RecommendedDay{MonthDay: md}
		if ds, ok := stats[md]; ok && ds.HasData() {
			day.HasData = true
			day.TempAvg = fp(ds.TempAvgMean)
			day.PrecipProbability = fp(ds.PrecipProbability)
			day.SunnyRate = fp(ds.TendencySunny)
			day.Score, day.Reason = prof.score(&ds)
		} else {
			day.Reason = "insufficient historical data"
		}
		scored = append(scored, day)
	}

	// Stable sort keeps calendar order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit < len(scored) {
		scored = scored[:limit]
	}

	return &RecommendResult{
		StationID:   st.StationID,
		StationName: st.Name,
		Month:       month,
		Profile:     prof.name,
		Days:        scored,
	}, nil
}

// score maps one day's statistics to a 0-100 score and a short reason.
func (p profile) score(ds *models.DailyStatistics) (float64, string) {
	rainProb := 0.0
	if ds.PrecipProbability.Valid {
		rainProb = ds.PrecipProbability.Float64
	}
	sunny := 0.0
	if ds.TendencySunny.Valid {
		sunny = ds.TendencySunny.Float64
	}
	temp := p.tempIdeal
	if ds.TempAvgMean.Valid {
		temp = ds.TempAvgMean.Float64
	}

	rainScore := 100.0
	if rainProb > p.rainTolerance {
		rainScore = clamp(100 - (rainProb-p.rainTolerance)*200)
	}

	var tempScore float64
	switch {
	case temp < p.tempMin:
		tempScore = clamp(60 - (p.tempMin-temp)*8)
	case temp > p.tempMax:
		tempScore = clamp(60 - (temp-p.tempMax)*8)
	default:
		tempScore = clamp(100 - abs(temp-p.tempIdeal)*4)
	}

	sunnyScore := sunny * 100

	total := rainScore*p.rainWeight + tempScore*p.tempWeight + sunnyScore*p.sunnyWeight
	return round2(clamp(total)), p.reason(rainProb, sunny, temp, ds.TempAvgMean.Valid)
}

func (p profile) reason(rainProb, sunny, temp float64, haveTemp bool) string {
	switch {
	case rainProb > 0.5:
		return fmt.Sprintf("high chance of rain (%.0f%%)", rainProb*100)
	case rainProb > 0.3:
		return fmt.Sprintf("some chance of rain (%.0f%%)", rainProb*100)
	case sunny > 0.6:
		if haveTemp {
			return fmt.Sprintf("usually sunny, around %.1f°C", temp)
		}
		return "usually sunny"
	case sunny < 0.3 && sunny > 0:
		return "often cloudy or overcast"
	case haveTemp && temp < p.tempMin:
		return fmt.Sprintf("on the cold side (%.1f°C)", temp)
	case haveTemp && temp > p.tempMax:
		return fmt.Sprintf("on the hot side (%.1f°C)", temp)
	case haveTemp:
		return fmt.Sprintf("typically %.1f°C with little rain", temp)
	default:
		return "little rain on record"
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
