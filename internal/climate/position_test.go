package climate

import (
	"testing"
	"time"

	"github.com/goodday/climate/internal/models"
)

func liveTemp(temp float64, at time.Time) models.LiveObservation {
	return models.LiveObservation{
		StationID:  "466920",
		Temp:       nf(temp),
		ObservedAt: at,
	}
}

func positionFixture() *fakeStore {
	f := newFakeStore()
	f.addStation("466920", "臺北")

	ds := taipeiDay("06-15")
	ds.TempAvgMean = nf(27.0)
	ds.TempAvgStddev = nf(1.5)
	f.addStats("466920", ds)

	var samples []models.CalendarSample
	for year := 1991; year <= 2020; year++ {
		// Warming series around 27°C, about +0.05°C per year.
		temp := 26.0 + 0.05*float64(year-1991)
		samples = append(samples, models.CalendarSample{
			Year:          year,
			TempAvg:       nf(temp),
			TempMax:       nf(temp + 4),
			TempMin:       nf(temp - 4),
			Precipitation: nf(float64(year % 3)),
		})
	}
	f.addSamples("466920", "06-15", samples)
	return f
}

func TestPosition_StatusBands(t *testing.T) {
	tests := []struct {
		name string
		temp float64
		want string
	}{
		{"at mean", 27.0, StatusNormal},
		{"within one sigma", 28.0, StatusNormal},
		{"above one sigma", 29.0, StatusAboveNormal},
		{"below one sigma", 25.0, StatusBelowNormal},
		{"beyond two sigma", 31.0, StatusExtreme},
		{"far below", 22.0, StatusExtreme},
	}
	at := time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(positionFixture())
			r, err := svc.Position("466920", liveTemp(tt.temp, at))
			if err != nil {
				t.Fatalf("Position: %v", err)
			}
			if r.Temperature == nil {
				t.Fatal("missing temperature position")
			}
			if r.Temperature.Status != tt.want {
				t.Errorf("Status = %s, want %s", r.Temperature.Status, tt.want)
			}
		})
	}
}

func TestPosition_EmpiricalPercentile(t *testing.T) {
	svc := newTestService(positionFixture())
	at := time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC)

	// Warmer than every one of the 30 samples.
	r, err := svc.Position("466920", liveTemp(35, at))
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if r.Temperature.Method != MethodEmpirical {
		t.Errorf("Method = %s, want empirical", r.Temperature.Method)
	}
	if *r.Temperature.Percentile != 100 {
		t.Errorf("Percentile = %v, want 100", *r.Temperature.Percentile)
	}

	// Colder than all samples.
	r, err = svc.Position("466920", liveTemp(10, at))
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if *r.Temperature.Percentile != 0 {
		t.Errorf("Percentile = %v, want 0", *r.Temperature.Percentile)
	}
}

func TestPosition_NormalApproximationFallback(t *testing.T) {
	f := newFakeStore()
	f.addStation("466920", "臺北")
	ds := taipeiDay("06-15")
	ds.TempAvgMean = nf(27.0)
	ds.TempAvgStddev = nf(1.5)
	f.addStats("466920", ds)
	// No raw samples stored for the slot.

	svc := newTestService(f)
	at := time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC)
	r, err := svc.Position("466920", liveTemp(27, at))
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if r.Temperature.Method != MethodNormalCDF {
		t.Errorf("Method = %s, want normal approximation", r.Temperature.Method)
	}
	if *r.Temperature.Percentile != 50 {
		t.Errorf("Percentile at the mean = %v, want 50", *r.Temperature.Percentile)
	}
}

func TestPosition_DecadesAndTrend(t *testing.T) {
	svc := newTestService(positionFixture())
	at := time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC)

	r, err := svc.Position("466920", liveTemp(27, at))
	if err != nil {
		t.Fatalf("Position: %v", err)
	}

	// Samples 1991-2020 span four decade buckets.
	if len(r.Decades) != 4 {
		t.Fatalf("len(Decades) = %d, want 4", len(r.Decades))
	}
	if r.Decades[0].Decade != "1990s" || r.Decades[3].Decade != "2020s" {
		t.Errorf("decade labels = %s..%s", r.Decades[0].Decade, r.Decades[3].Decade)
	}
	if r.Decades[0].StartYear != 1991 || r.Decades[0].EndYear != 1999 {
		t.Errorf("1990s span = %d..%d", r.Decades[0].StartYear, r.Decades[0].EndYear)
	}
	if r.Decades[0].YearsCount != 9 {
		t.Errorf("1990s YearsCount = %d, want 9", r.Decades[0].YearsCount)
	}

	// The 2010s average about one degree warmer than the 1990s.
	if *r.Decades[2].TempAvg <= *r.Decades[0].TempAvg {
		t.Errorf("2010s %v not warmer than 1990s %v", *r.Decades[2].TempAvg, *r.Decades[0].TempAvg)
	}

	if r.AllTime == nil || r.AllTime.YearsCount != 30 {
		t.Errorf("AllTime = %+v", r.AllTime)
	}
	if r.Recent10y == nil || r.Recent10y.StartYear < 2016 {
		t.Errorf("Recent10y = %+v", r.Recent10y)
	}

	// +0.05°C per year is +0.5°C per decade.
	if r.Trend == nil {
		t.Fatal("missing trend")
	}
	if r.Trend.Interpretation != TrendWarming {
		t.Errorf("Interpretation = %s, want warming", r.Trend.Interpretation)
	}
	if r.Trend.SlopePerDecade < 0.45 || r.Trend.SlopePerDecade > 0.55 {
		t.Errorf("SlopePerDecade = %v, want about 0.5", r.Trend.SlopePerDecade)
	}

	if r.Summary == "" {
		t.Error("empty summary")
	}
}

func TestPosition_RainOverDryHistory(t *testing.T) {
	// A slot that has precipitation history but no recorded rain days
	// still gets a precipitation position: its rain-day mean is zero, so
	// any rain at all is above normal.
	f := newFakeStore()
	f.addStation("466920", "臺北")
	ds := taipeiDay("06-15")
	ds.PrecipProbability = nf(0)
	ds.PrecipAvgWhenRain.Valid = false
	f.addStats("466920", ds)

	svc := newTestService(f)
	at := time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC)

	live := models.LiveObservation{StationID: "466920", Precipitation: nf(5), ObservedAt: at}
	r, err := svc.Position("466920", live)
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if r.Precipitation == nil {
		t.Fatal("missing precipitation position")
	}
	if r.Precipitation.HistoricalMean != 0 {
		t.Errorf("HistoricalMean = %v, want 0", r.Precipitation.HistoricalMean)
	}
	if r.Precipitation.Status != StatusAboveNormal {
		t.Errorf("Status = %s, want %s", r.Precipitation.Status, StatusAboveNormal)
	}

	live.Precipitation = nf(60)
	r, err = svc.Position("466920", live)
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if r.Precipitation.Status != StatusExtreme {
		t.Errorf("Status = %s, want %s", r.Precipitation.Status, StatusExtreme)
	}
}

func TestPosition_NoHistory(t *testing.T) {
	f := newFakeStore()
	f.addStation("466920", "臺北")
	svc := newTestService(f)

	r, err := svc.Position("466920", liveTemp(25, time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if r.HasData {
		t.Error("HasData = true without history")
	}
	if r.Temperature != nil {
		t.Error("temperature position without history")
	}
	if r.Summary == "" {
		t.Error("empty summary")
	}
}
