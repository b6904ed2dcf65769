package ingest

import (
	"context"
	"log"
	"time"

	"github.com/goodday/climate/internal/aggregate"
	"github.com/goodday/climate/internal/store"
)

// Scheduler runs the background jobs: station directory sync, archive
// imports, and the nightly statistics rebuild.
type Scheduler struct {
	store        *store.Store
	cwa          *CWAClient
	archive      *ArchiveClient
	runner       *aggregate.Runner
	stationIDs   []string
	loc          *time.Location
	syncInterval time.Duration
}

func NewScheduler(st *store.Store, cwa *CWAClient, archive *ArchiveClient, runner *aggregate.Runner, stationIDs []string, loc *time.Location) *Scheduler {
	return &Scheduler{
		store:        st,
		cwa:          cwa,
		archive:      archive,
		runner:       runner,
		stationIDs:   stationIDs,
		loc:          loc,
		syncInterval: 24 * time.Hour,
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	s.syncStations()
	s.importArchives()
	s.rebuildStatistics()

	syncTicker := time.NewTicker(s.syncInterval)
	importTicker := time.NewTicker(1 * time.Hour)
	defer syncTicker.Stop()
	defer importTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-syncTicker.C:
			s.syncStations()
		case <-importTicker.C:
			s.importArchivesIfNeeded()
		}
	}
}

// IngestOnce runs a single sync, import, and rebuild cycle.
func (s *Scheduler) IngestOnce() error {
	s.syncStations()
	s.importArchives()
	s.rebuildStatistics()
	return nil
}

func (s *Scheduler) syncStations() {
	if s.cwa == nil {
		return
	}
	synced, err := s.cwa.SyncStations(s.store)
	if err != nil {
		log.Printf("scheduler: sync stations: %v", err)
		return
	}
	log.Printf("scheduler: synced %d stations", synced)
}

func (s *Scheduler) importArchives() {
	if s.archive == nil {
		return
	}
	inserted, err := s.archive.ImportAll(s.store, s.stationIDs)
	if err != nil {
		log.Printf("scheduler: import archives: %v", err)
	}
	if inserted > 0 {
		log.Printf("scheduler: imported %d new observations, rebuilding statistics", inserted)
		s.rebuildStatistics()
	}
}

// importArchivesIfNeeded restricts the hourly import to the early
// morning, after the archive publishes the previous day's files.
func (s *Scheduler) importArchivesIfNeeded() {
	localNow := time.Now().In(s.loc)
	if localNow.Hour() >= 3 && localNow.Hour() < 4 {
		s.importArchives()
	}
}

func (s *Scheduler) rebuildStatistics() {
	if s.runner == nil {
		return
	}
	if _, err := s.runner.RunAll(); err != nil {
		log.Printf("scheduler: rebuild statistics: %v", err)
	}
}
