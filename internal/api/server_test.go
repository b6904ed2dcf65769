package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goodday/climate/internal/climate"
	"github.com/goodday/climate/internal/lunar"
	"github.com/goodday/climate/internal/models"
	"github.com/goodday/climate/internal/store"
)

type fakeRealtime struct {
	live map[string]*models.LiveObservation
	err  error
}

func (f *fakeRealtime) FetchRealtime(stationID string) (*models.LiveObservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.live[stationID], nil
}

func nf(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func setupTestServer(t *testing.T) (*Server, *store.Store, *fakeRealtime) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	st := store.New(db, loc)
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	service := climate.NewService(st, lunar.NewCalendar(), loc)
	realtime := &fakeRealtime{live: map[string]*models.LiveObservation{}}
	return NewServer(st, service, realtime, "0", loc), st, realtime
}

func seedStation(t *testing.T, st *store.Store, stationID string) {
	t.Helper()
	err := st.UpsertStation(models.Station{
		StationID: stationID,
		Name:      "臺北",
		County:    sql.NullString{String: "臺北市", Valid: true},
		Latitude:  25.0377,
		Longitude: 121.5149,
		Active:    true,
	})
	if err != nil {
		t.Fatalf("upsert station: %v", err)
	}
}

func seedStatistics(t *testing.T, st *store.Store, stationID, monthDay string) {
	t.Helper()
	err := st.ReplaceDailyStatistics(stationID, []models.DailyStatistics{{
		StationID:         stationID,
		MonthDay:          monthDay,
		YearsAnalyzed:     20,
		StartYear:         sql.NullInt64{Int64: 2001, Valid: true},
		EndYear:           sql.NullInt64{Int64: 2020, Valid: true},
		TempAvgMean:       nf(22.5),
		TempAvgMedian:     nf(22.3),
		TempAvgStddev:     nf(2.1),
		TempMaxMean:       nf(26.8),
		TempMaxRecord:     nf(31.2),
		TempMinMean:       nf(18.9),
		TempMinRecord:     nf(11.4),
		PrecipProbability: nf(0.3),
		PrecipAvgWhenRain: nf(8.5),
		PrecipHeavyProb:   nf(0.02),
		PrecipMaxRecord:   nf(120.5),
		TendencySunny:     nf(0.45),
		TendencyCloudy:    nf(0.35),
		TendencyRainy:     nf(0.2),
		ComputedAt:        time.Now(),
	}})
	if err != nil {
		t.Fatalf("replace statistics: %v", err)
	}
	if err := st.SetHasStatistics(stationID, true); err != nil {
		t.Fatalf("set has statistics: %v", err)
	}
}

func get(t *testing.T, handler http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	rec := get(t, srv.Handler(), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleStations(t *testing.T) {
	srv, st, _ := setupTestServer(t)
	seedStation(t, st, "466920")

	rec := get(t, srv.Handler(), "/api/stations")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var stations []stationView
	decode(t, rec, &stations)
	if len(stations) != 1 {
		t.Fatalf("expected 1 station, got %d", len(stations))
	}
	if stations[0].StationID != "466920" || stations[0].Name != "臺北" {
		t.Errorf("station = %+v", stations[0])
	}
	if stations[0].County == nil || *stations[0].County != "臺北市" {
		t.Errorf("county = %v", stations[0].County)
	}
	if stations[0].Altitude != nil {
		t.Errorf("expected null altitude, got %v", *stations[0].Altitude)
	}
}

func TestHandleNearest(t *testing.T) {
	srv, st, _ := setupTestServer(t)
	seedStation(t, st, "466920")

	rec := get(t, srv.Handler(), "/api/stations/nearest?lat=25.04&lon=121.51")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Station    stationView `json:"station"`
		DistanceKm float64     `json:"distance_km"`
	}
	decode(t, rec, &result)
	if result.Station.StationID != "466920" {
		t.Errorf("station = %s", result.Station.StationID)
	}
	if result.DistanceKm < 0 || result.DistanceKm > 5 {
		t.Errorf("distance = %f", result.DistanceKm)
	}
}

func TestHandleNearest_BadInput(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	for _, url := range []string{
		"/api/stations/nearest",
		"/api/stations/nearest?lat=abc&lon=121",
		"/api/stations/nearest?lat=91&lon=121",
	} {
		rec := get(t, srv.Handler(), url)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", url, rec.Code)
		}
	}
}

func TestHandleNearest_NoStations(t *testing.T) {
	srv, _, _ := setupTestServer(t)
	rec := get(t, srv.Handler(), "/api/stations/nearest?lat=25&lon=121")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleDaily(t *testing.T) {
	srv, st, _ := setupTestServer(t)
	seedStation(t, st, "466920")
	seedStatistics(t, st, "466920", "06-15")

	rec := get(t, srv.Handler(), "/api/daily?station=466920&date=06-15")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		StationID string `json:"station_id"`
		MonthDay  string `json:"month_day"`
		HasData   bool   `json:"has_data"`
		Temp      *struct {
			Mean float64 `json:"mean"`
		} `json:"temperature"`
	}
	decode(t, rec, &result)
	if result.StationID != "466920" || result.MonthDay != "06-15" {
		t.Errorf("result = %+v", result)
	}
	if !result.HasData {
		t.Error("expected has_data")
	}
	if result.Temp == nil || result.Temp.Mean != 22.5 {
		t.Errorf("temperature = %+v", result.Temp)
	}
}

func TestHandleDaily_Errors(t *testing.T) {
	srv, st, _ := setupTestServer(t)
	seedStation(t, st, "466920")

	tests := []struct {
		url      string
		wantCode int
	}{
		{"/api/daily?station=466920&date=13-40", http.StatusBadRequest},
		{"/api/daily?date=06-15", http.StatusBadRequest},
		{"/api/daily?station=999999&date=06-15", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := get(t, srv.Handler(), tt.url)
		if rec.Code != tt.wantCode {
			t.Errorf("%s: status = %d, want %d", tt.url, rec.Code, tt.wantCode)
		}
		var body map[string]string
		decode(t, rec, &body)
		if body["error"] == "" {
			t.Errorf("%s: expected error message", tt.url)
		}
	}
}

func TestHandleRange(t *testing.T) {
	srv, st, _ := setupTestServer(t)
	seedStation(t, st, "466920")
	seedStatistics(t, st, "466920", "06-15")

	rec := get(t, srv.Handler(), "/api/range?station=466920&start=06-14&end=06-16")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Days []struct {
			MonthDay string `json:"month_day"`
			HasData  bool   `json:"has_data"`
		} `json:"days"`
	}
	decode(t, rec, &result)
	if len(result.Days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(result.Days))
	}
	if !result.Days[1].HasData || result.Days[0].HasData {
		t.Errorf("days = %+v", result.Days)
	}
}

func TestHandleRange_TooLong(t *testing.T) {
	srv, st, _ := setupTestServer(t)
	seedStation(t, st, "466920")

	rec := get(t, srv.Handler(), "/api/range?station=466920&start=01-01&end=02-15")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleRecommend(t *testing.T) {
	srv, st, _ := setupTestServer(t)
	seedStation(t, st, "466920")
	seedStatistics(t, st, "466920", "06-15")

	rec := get(t, srv.Handler(), "/api/recommend?station=466920&month=6&profile=sunny&limit=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Days []struct {
			MonthDay string  `json:"month_day"`
			Score    float64 `json:"score"`
		} `json:"days"`
	}
	decode(t, rec, &result)
	if len(result.Days) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(result.Days))
	}

	// Unknown profile is a client error.
	rec = get(t, srv.Handler(), "/api/recommend?station=466920&month=6&profile=swimming")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleCompare(t *testing.T) {
	srv, st, _ := setupTestServer(t)
	seedStation(t, st, "466920")
	seedStation(t, st, "467410")
	seedStatistics(t, st, "466920", "06-15")
	seedStatistics(t, st, "467410", "06-15")

	rec := get(t, srv.Handler(), "/api/compare?stations=466920,467410&date=06-15")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Entries []struct {
			StationID string `json:"station_id"`
			Rank      int    `json:"rank"`
		} `json:"entries"`
	}
	decode(t, rec, &result)
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[0].Rank != 1 {
		t.Errorf("first rank = %d", result.Entries[0].Rank)
	}

	rec = get(t, srv.Handler(), "/api/compare?stations=466920&date=06-15")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("single station status = %d", rec.Code)
	}

	rec = get(t, srv.Handler(), "/api/compare?date=06-15")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing stations status = %d", rec.Code)
	}
}

func TestHandlePosition(t *testing.T) {
	srv, st, realtime := setupTestServer(t)
	seedStation(t, st, "466920")
	seedStatistics(t, st, "466920", "06-15")

	observedAt := time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC)
	realtime.live["466920"] = &models.LiveObservation{
		StationID:  "466920",
		Temp:       nf(28.3),
		ObservedAt: observedAt,
	}

	rec := get(t, srv.Handler(), "/api/position?station=466920")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		StationID string `json:"station_id"`
		HasData   bool   `json:"has_data"`
	}
	decode(t, rec, &result)
	if result.StationID != "466920" || !result.HasData {
		t.Errorf("result = %+v", result)
	}
}

func TestHandlePosition_NotReporting(t *testing.T) {
	srv, st, _ := setupTestServer(t)
	seedStation(t, st, "466920")

	rec := get(t, srv.Handler(), "/api/position?station=466920")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandlePosition_FetchError(t *testing.T) {
	srv, st, realtime := setupTestServer(t)
	seedStation(t, st, "466920")
	realtime.err = fmt.Errorf("upstream down")

	rec := get(t, srv.Handler(), "/api/position?station=466920")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleMonthly(t *testing.T) {
	srv, st, _ := setupTestServer(t)
	seedStation(t, st, "466920")
	seedStatistics(t, st, "466920", "06-15")

	rec := get(t, srv.Handler(), "/api/monthly?station=466920&month=6")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = get(t, srv.Handler(), "/api/monthly?station=466920&month=13")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = get(t, srv.Handler(), "/api/monthly?station=466920&month=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
