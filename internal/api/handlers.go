package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goodday/climate/internal/climate"
	"github.com/goodday/climate/internal/geo"
	"github.com/goodday/climate/internal/metrics"
	"github.com/goodday/climate/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// stationView flattens the nullable columns for JSON output.
type stationView struct {
	StationID     string   `json:"station_id"`
	Name          string   `json:"name"`
	County        *string  `json:"county"`
	Town          *string  `json:"town"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	Altitude      *float64 `json:"altitude"`
	HasStatistics bool     `json:"has_statistics"`
}

func viewStation(st models.Station) stationView {
	v := stationView{
		StationID:     st.StationID,
		Name:          st.Name,
		Latitude:      st.Latitude,
		Longitude:     st.Longitude,
		HasStatistics: st.HasStatistics,
	}
	if st.County.Valid {
		v.County = &st.County.String
	}
	if st.Town.Valid {
		v.Town = &st.Town.String
	}
	if st.Altitude.Valid {
		v.Altitude = &st.Altitude.Float64
	}
	return v
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.store.GetActiveStations()
	if err != nil {
		s.writeError(w, "stations", err)
		return
	}
	views := make([]stationView, 0, len(stations))
	for _, st := range stations {
		views = append(views, viewStation(st))
	}
	s.writeJSON(w, "stations", views)
}

func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil {
		s.writeBadRequest(w, "nearest", "lat and lon are required")
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		s.writeBadRequest(w, "nearest", "lat or lon out of range")
		return
	}

	stations, err := s.store.GetActiveStations()
	if err != nil {
		s.writeError(w, "nearest", err)
		return
	}
	result, ok := geo.Nearest(lat, lon, stations)
	if !ok {
		s.writeNotFound(w, "nearest", "no stations available")
		return
	}
	s.writeJSON(w, "nearest", struct {
		Station    stationView `json:"station"`
		DistanceKm float64     `json:"distance_km"`
	}{viewStation(result.Station), result.DistanceKm})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.DailyStatistics(r.URL.Query().Get("station"), r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, "daily", err)
		return
	}
	s.writeJSON(w, "daily", result)
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.TodayStatistics(r.URL.Query().Get("station"))
	if err != nil {
		s.writeError(w, "today", err)
		return
	}
	s.writeJSON(w, "today", result)
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := s.service.Range(q.Get("station"), q.Get("start"), q.Get("end"))
	if err != nil {
		s.writeError(w, "range", err)
		return
	}
	s.writeJSON(w, "range", result)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		s.writeBadRequest(w, "monthly", "month must be a number")
		return
	}
	result, err := s.service.Monthly(r.URL.Query().Get("station"), month)
	if err != nil {
		s.writeError(w, "monthly", err)
		return
	}
	s.writeJSON(w, "monthly", result)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		s.writeBadRequest(w, "recommend", "month must be a number")
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			s.writeBadRequest(w, "recommend", "limit must be a number")
			return
		}
	}
	profile := q.Get("profile")
	if profile == "" {
		profile = "sunny"
	}
	result, err := s.service.Recommend(q.Get("station"), month, profile, limit)
	if err != nil {
		s.writeError(w, "recommend", err)
		return
	}
	s.writeJSON(w, "recommend", result)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("stations")
	if raw == "" {
		s.writeBadRequest(w, "compare", "stations is required")
		return
	}
	var stationIDs []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			stationIDs = append(stationIDs, id)
		}
	}
	result, err := s.service.Compare(stationIDs, q.Get("date"))
	if err != nil {
		s.writeError(w, "compare", err)
		return
	}
	s.writeJSON(w, "compare", result)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	stationID := r.URL.Query().Get("station")
	if stationID == "" {
		s.writeBadRequest(w, "position", "station is required")
		return
	}

	live, err := s.realtime.FetchRealtime(stationID)
	if err != nil {
		s.writeError(w, "position", err)
		return
	}
	if live == nil {
		s.writeNotFound(w, "position", "station is not reporting")
		return
	}

	result, err := s.service.Position(stationID, *live)
	if err != nil {
		s.writeError(w, "position", err)
		return
	}
	s.writeJSON(w, "position", result)
}

func (s *Server) writeJSON(w http.ResponseWriter, endpoint string, data any) {
	metrics.QueriesTotal.WithLabelValues(endpoint, "ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, endpoint string, err error) {
	var inputErr *climate.InvalidInputError
	var rangeErr *climate.InvalidRangeError
	var notFoundErr *climate.StationNotFoundError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &inputErr), errors.As(err, &rangeErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	}
	s.writeErrorStatus(w, endpoint, status, err.Error())
}

func (s *Server) writeBadRequest(w http.ResponseWriter, endpoint, msg string) {
	s.writeErrorStatus(w, endpoint, http.StatusBadRequest, msg)
}

func (s *Server) writeNotFound(w http.ResponseWriter, endpoint, msg string) {
	s.writeErrorStatus(w, endpoint, http.StatusNotFound, msg)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, endpoint string, status int, msg string) {
	label := "error"
	switch status {
	case http.StatusBadRequest:
		label = "bad_request"
	case http.StatusNotFound:
		label = "not_found"
	}
	metrics.QueriesTotal.WithLabelValues(endpoint, label).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
