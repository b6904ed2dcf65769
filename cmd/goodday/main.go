package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/goodday/climate/internal/aggregate"
	"github.com/goodday/climate/internal/api"
	"github.com/goodday/climate/internal/climate"
	"github.com/goodday/climate/internal/geo"
	"github.com/goodday/climate/internal/ingest"
	"github.com/goodday/climate/internal/lunar"
	"github.com/goodday/climate/internal/store"
)

// mainStationIDs are the manned stations with continuous records back
// to the early 1990s, the default set for archive imports.
var mainStationIDs = []string{
	"466920", // 臺北
	"466940", // 基隆
	"467490", // 臺中
	"467441", // 高雄
	"467410", // 臺南
	"467080", // 宜蘭
	"467660", // 臺東
	"467571", // 新竹
}

type cli struct {
	DB       string `help:"Path to the SQLite database." default:"data/goodday.db" env:"GOODDAY_DB"`
	Timezone string `help:"IANA timezone for calendar math." default:"Asia/Taipei" env:"GOODDAY_TZ"`

	CWAAPIKey   string `name:"cwa-api-key" help:"CWA open data API key." env:"CWA_API_KEY"`
	ArchiveHost string `help:"FTP host for the historical archive." default:"ftp.cwa.gov.tw:21" env:"ARCHIVE_FTP_HOST"`
	ArchiveDir  string `help:"Directory of per-station CSV files on the archive." default:"/climate/daily" env:"ARCHIVE_FTP_DIR"`

	Serve        serveCmd        `cmd:"" default:"1" help:"Run the HTTP API with background ingestion."`
	Ingest       ingestCmd       `cmd:"" help:"Run one sync, import, and rebuild cycle, then exit."`
	Aggregate    aggregateCmd    `cmd:"" help:"Rebuild per-day statistics for all stations, then exit."`
	Import       importCmd       `cmd:"" help:"Import archive history for the given stations, then exit."`
	SyncStations syncStationsCmd `cmd:"" name:"sync-stations" help:"Refresh the station directory, then exit."`
	Nearest      nearestCmd      `cmd:"" help:"Print the station closest to a coordinate."`
}

type app struct {
	store   *store.Store
	loc     *time.Location
	cwa     *ingest.CWAClient
	archive *ingest.ArchiveClient
	runner  *aggregate.Runner
}

type serveCmd struct {
	Port    string `help:"HTTP server port." default:"8080" env:"PORT"`
	Workers int    `help:"Aggregation worker count." default:"4"`
	NoPoll  bool   `help:"Disable background ingestion (server only)."`
}

func (c *serveCmd) Run(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service := climate.NewService(a.store, lunar.NewCalendar(), a.loc)
	server := api.NewServer(a.store, service, a.cwa, c.Port, a.loc)

	if !c.NoPoll {
		runner := aggregate.NewRunner(a.store, c.Workers)
		scheduler := ingest.NewScheduler(a.store, a.cwa, a.archive, runner, mainStationIDs, a.loc)
		go scheduler.Run(ctx)
	}

	log.Printf("serving on :%s", c.Port)
	return server.Run(ctx)
}

type ingestCmd struct{}

func (c *ingestCmd) Run(a *app) error {
	scheduler := ingest.NewScheduler(a.store, a.cwa, a.archive, a.runner, mainStationIDs, a.loc)
	return scheduler.IngestOnce()
}

type aggregateCmd struct {
	Station string `arg:"" optional:"" help:"Rebuild a single station instead of all."`
}

func (c *aggregateCmd) Run(a *app) error {
	if c.Station != "" {
		return a.runner.RunStation(c.Station)
	}
	n, err := a.runner.RunAll()
	if err != nil {
		return err
	}
	log.Printf("aggregated %d stations", n)
	return nil
}

type importCmd struct {
	Stations []string `arg:"" optional:"" help:"Station ids to import. Defaults to the main stations."`
}

func (c *importCmd) Run(a *app) error {
	stationIDs := c.Stations
	if len(stationIDs) == 0 {
		stationIDs = mainStationIDs
	}
	inserted, err := a.archive.ImportAll(a.store, stationIDs)
	if err != nil {
		return err
	}
	log.Printf("imported %d new observations", inserted)
	return nil
}

type syncStationsCmd struct{}

func (c *syncStationsCmd) Run(a *app) error {
	synced, err := a.cwa.SyncStations(a.store)
	if err != nil {
		return err
	}
	log.Printf("synced %d stations", synced)
	return nil
}

type nearestCmd struct {
	Lat float64 `arg:"" help:"Latitude."`
	Lon float64 `arg:"" help:"Longitude."`
}

func (c *nearestCmd) Run(a *app) error {
	stations, err := a.store.GetActiveStations()
	if err != nil {
		return err
	}
	result, ok := geo.Nearest(c.Lat, c.Lon, stations)
	if !ok {
		return fmt.Errorf("no stations in the directory")
	}
	fmt.Printf("%s %s (%.1fkm away)\n", result.Station.StationID, result.Station.Name, result.DistanceKm)
	return nil
}

func main() {
	var flags cli
	ktx := kong.Parse(&flags,
		kong.Name("goodday"),
		kong.Description("Historical per-calendar-day weather statistics."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	db, err := sql.Open("sqlite", flags.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	loc, err := time.LoadLocation(flags.Timezone)
	if err != nil {
		log.Printf("could not load timezone %s, using UTC: %v", flags.Timezone, err)
		loc = time.UTC
	}

	st := store.New(db, loc)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	a := &app{
		store:   st,
		loc:     loc,
		cwa:     ingest.NewCWAClient(flags.CWAAPIKey, ""),
		archive: ingest.NewArchiveClient(flags.ArchiveHost, flags.ArchiveDir),
		runner:  aggregate.NewRunner(st, 4),
	}

	ktx.FatalIfErrorf(ktx.Run(a))
}
