package climate

import (
	"errors"
	"testing"

	"github.com/goodday/climate/internal/models"
)

func sunnyDay(md string, sunnyRate float64) models.DailyStatistics {
	ds := taipeiDay(md)
	ds.TendencySunny = nf(sunnyRate)
	ds.PrecipProbability = nf(0.05)
	return ds
}

func TestRecommend_SunnyMonotonic(t *testing.T) {
	f := newFakeStore()
	f.addStation("466920", "臺北")
	f.addStats("466920", sunnyDay("04-10", 0.9))
	f.addStats("466920", sunnyDay("04-20", 0.3))
	svc := newTestService(f)

	r, err := svc.Recommend("466920", 4, "sunny", 2)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(r.Days) != 2 {
		t.Fatalf("len(Days) = %d, want 2", len(r.Days))
	}
	if r.Days[0].MonthDay != "04-10" {
		t.Errorf("top day = %s, want 04-10", r.Days[0].MonthDay)
	}
	if r.Days[0].Score <= r.Days[1].Score {
		t.Errorf("scores %v, %v not strictly descending", r.Days[0].Score, r.Days[1].Score)
	}
}

func TestRecommend_SortedAndLimited(t *testing.T) {
	f := newFakeStore()
	f.addStation("466920", "臺北")
	rates := map[string]float64{"06-05": 0.2, "06-10": 0.8, "06-15": 0.5, "06-20": 0.6}
	for md, rate := range rates {
		f.addStats("466920", sunnyDay(md, rate))
	}
	svc := newTestService(f)

	r, err := svc.Recommend("466920", 6, "sunny", 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(r.Days) != defaultRecommendLimit {
		t.Fatalf("len(Days) = %d, want default %d", len(r.Days), defaultRecommendLimit)
	}
	for i := 1; i < len(r.Days); i++ {
		if r.Days[i].Score > r.Days[i-1].Score {
			t.Errorf("Days[%d].Score %v > Days[%d].Score %v", i, r.Days[i].Score, i-1, r.Days[i-1].Score)
		}
	}
	if r.Days[0].MonthDay != "06-10" {
		t.Errorf("top day = %s, want 06-10", r.Days[0].MonthDay)
	}
}

func TestRecommend_InsufficientDataSortsLast(t *testing.T) {
	f := newFakeStore()
	f.addStation("466920", "臺北")
	f.addStats("466920", sunnyDay("02-10", 0.6))
	svc := newTestService(f)

	// February enumerates 28 candidate days; only one has data.
	r, err := svc.Recommend("466920", 2, "outdoor", 28)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(r.Days) != 28 {
		t.Fatalf("len(Days) = %d, want 28", len(r.Days))
	}
	if r.Days[0].MonthDay != "02-10" || !r.Days[0].HasData {
		t.Errorf("top day = %+v, want populated 02-10", r.Days[0])
	}
	if r.Days[1].Score != 0 || r.Days[1].HasData {
		t.Errorf("Days[1] = %+v, want zero-score empty day", r.Days[1])
	}
	// Empty days tie at zero and keep calendar order.
	if r.Days[1].MonthDay != "02-01" || r.Days[2].MonthDay != "02-02" {
		t.Errorf("tie order = %s, %s", r.Days[1].MonthDay, r.Days[2].MonthDay)
	}
	if r.Days[1].Reason != "insufficient historical data" {
		t.Errorf("Reason = %q", r.Days[1].Reason)
	}
}

func TestRecommend_ScoreBounds(t *testing.T) {
	f := newFakeStore()
	f.addStation("466920", "臺北")

	soaked := taipeiDay("07-01")
	soaked.PrecipProbability = nf(0.95)
	soaked.TendencySunny = nf(0.01)
	soaked.TempAvgMean = nf(38)
	f.addStats("466920", soaked)

	perfect := taipeiDay("07-02")
	perfect.PrecipProbability = nf(0)
	perfect.TendencySunny = nf(1)
	perfect.TempAvgMean = nf(23)
	f.addStats("466920", perfect)

	svc := newTestService(f)
	for _, profile := range ProfileNames() {
		r, err := svc.Recommend("466920", 7, profile, 31)
		if err != nil {
			t.Fatalf("Recommend(%s): %v", profile, err)
		}
		for _, day := range r.Days {
			if day.Score < 0 || day.Score > 100 {
				t.Errorf("profile %s day %s score %v out of [0,100]", profile, day.MonthDay, day.Score)
			}
		}
	}
}

func TestRecommend_Validation(t *testing.T) {
	f := newFakeStore()
	f.addStation("466920", "臺北")
	svc := newTestService(f)

	var inputErr *InvalidInputError

	_, err := svc.Recommend("466920", 0, "sunny", 5)
	if !errors.As(err, &inputErr) {
		t.Errorf("month 0 error = %v", err)
	}
	_, err = svc.Recommend("466920", 13, "sunny", 5)
	if !errors.As(err, &inputErr) {
		t.Errorf("month 13 error = %v", err)
	}
	_, err = svc.Recommend("466920", 6, "snowboarding", 5)
	if !errors.As(err, &inputErr) {
		t.Errorf("unknown profile error = %v", err)
	}
	_, err = svc.Recommend("466920", 6, "sunny", -1)
	if !errors.As(err, &inputErr) {
		t.Errorf("negative limit error = %v", err)
	}
}
