package aggregate

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/goodday/climate/internal/metrics"
	"github.com/goodday/climate/internal/store"
)

// Runner rebuilds the statistics snapshot for stations, fanning the
// per-station work out over a bounded pool. Each station is rebuilt
// independently so one bad station never blocks the rest.
type Runner struct {
	store   *store.Store
	workers int
}

func NewRunner(s *store.Store, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{store: s, workers: workers}
}

// RunAll rebuilds every active station and reports how many succeeded.
func (r *Runner) RunAll() (int, error) {
	stations, err := r.store.GetActiveStations()
	if err != nil {
		return 0, fmt.Errorf("list stations: %w", err)
	}
	if len(stations) == 0 {
		log.Println("aggregate: no active stations")
		return 0, nil
	}

	log.Printf("aggregate: rebuilding statistics for %d stations (%d workers)", len(stations), r.workers)
	start := time.Now()

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)
	var mu sync.Mutex
	succeeded := 0

	for _, station := range stations {
		wg.Add(1)
		sem <- struct{}{}
		go func(stationID string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := r.RunStation(stationID); err != nil {
				log.Printf("aggregate: station %s: %v", stationID, err)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}(station.StationID)
	}
	wg.Wait()

	log.Printf("aggregate: rebuilt %d/%d stations in %s", succeeded, len(stations), time.Since(start).Round(time.Millisecond))
	return succeeded, nil
}

// RunStation rebuilds the 366-row snapshot for one station and replaces
// the stored rows in a single transaction.
func (r *Runner) RunStation(stationID string) error {
	observations, err := r.store.GetObservations(stationID)
	if err != nil {
		return fmt.Errorf("load observations: %w", err)
	}
	if len(observations) == 0 {
		log.Printf("aggregate: station %s has no observations, skipping", stationID)
		return r.store.SetHasStatistics(stationID, false)
	}

	analyzer := NewAnalyzer(observations)
	records := analyzer.ComputeAll()

	now := time.Now().UTC()
	withData := 0
	for i := range records {
		records[i].StationID = stationID
		records[i].ComputedAt = now
		if records[i].YearsAnalyzed > 0 {
			withData++
		}
	}

	if err := r.store.ReplaceDailyStatistics(stationID, records); err != nil {
		return fmt.Errorf("replace statistics: %w", err)
	}
	if err := r.store.SetHasStatistics(stationID, withData > 0); err != nil {
		return fmt.Errorf("flag statistics: %w", err)
	}

	metrics.StationsAggregated.WithLabelValues(stationID).Inc()
	log.Printf("aggregate: station %s: %d observations into %d calendar days (%d with data)",
		stationID, len(observations), len(records), withData)
	return nil
}
