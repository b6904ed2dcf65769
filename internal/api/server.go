// Package api is the HTTP surface over the climate query services.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goodday/climate/internal/climate"
	"github.com/goodday/climate/internal/models"
	"github.com/goodday/climate/internal/store"
)

// RealtimeFetcher supplies the current reading for the historical
// position endpoint.
type RealtimeFetcher interface {
	FetchRealtime(stationID string) (*models.LiveObservation, error)
}

type Server struct {
	store    *store.Store
	service  *climate.Service
	realtime RealtimeFetcher
	port     string
	loc      *time.Location
}

func NewServer(st *store.Store, service *climate.Service, realtime RealtimeFetcher, port string, loc *time.Location) *Server {
	return &Server{
		store:    st,
		service:  service,
		realtime: realtime,
		port:     port,
		loc:      loc,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/stations", s.handleStations)
	mux.HandleFunc("/api/stations/nearest", s.handleNearest)
	mux.HandleFunc("/api/daily", s.handleDaily)
	mux.HandleFunc("/api/today", s.handleToday)
	mux.HandleFunc("/api/range", s.handleRange)
	mux.HandleFunc("/api/monthly", s.handleMonthly)
	mux.HandleFunc("/api/recommend", s.handleRecommend)
	mux.HandleFunc("/api/compare", s.handleCompare)
	mux.HandleFunc("/api/position", s.handlePosition)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
