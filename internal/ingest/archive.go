package ingest

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/goodday/climate/internal/metrics"
	"github.com/goodday/climate/internal/models"
	"github.com/goodday/climate/internal/stats"
	"github.com/goodday/climate/internal/store"
)

// ArchiveClient pulls decades of per-station daily CSV files from the
// historical archive over FTP.
type ArchiveClient struct {
	host string
	dir  string
}

func NewArchiveClient(host, dir string) *ArchiveClient {
	return &ArchiveClient{host: host, dir: dir}
}

// missingMarkers are the sentinel values used for absent readings
// across the archive's file generations.
var missingMarkers = map[string]bool{
	"":      true,
	"-9999": true, "-9999.0": true,
	"-99": true, "-99.0": true,
	"-99.8": true,
	"9999":  true, "9999.0": true,
	"NA": true, "N/A": true, "null": true, "...": true,
}

// traceMarker flags precipitation too small to measure. Kept as a tiny
// nonzero amount so rain-day counts still see it.
const (
	traceMarker = "T"
	traceValue  = 0.05
)

type validRange struct{ min, max float64 }

var validRanges = map[string]validRange{
	"temperature":   {-5, 45},
	"precipitation": {0, 1000},
	"humidity":      {0, 100},
	"sunshine":      {0, 14},
}

// FetchStation downloads and parses one station's archive file.
func (a *ArchiveClient) FetchStation(stationID string) ([]models.Observation, error) {
	conn, err := ftp.Dial(a.host, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	path := fmt.Sprintf("%s/%s.csv", a.dir, stationID)
	resp, err := conn.Retr(path)
	if err != nil {
		return nil, fmt.Errorf("ftp retr %s: %w", path, err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return ParseArchiveCSV(stationID, strings.NewReader(string(body)))
}

// ParseArchiveCSV reads daily rows in archive layout:
//
//	date,temp_avg,temp_max,temp_min,precipitation,humidity_avg,sunshine_hours
//
// Rows with an unparseable date are skipped. Individual readings that
// carry a missing marker or fall outside physical range become null.
func ParseArchiveCSV(stationID string, r io.Reader) ([]models.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var observations []models.Observation
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if header {
			header = false
			if len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "date") {
				continue
			}
		}
		if len(record) < 7 {
			continue
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
		if err != nil {
			continue
		}

		obs := models.Observation{
			StationID:     stationID,
			ObservedDate:  date,
			TempAvg:       cleanValue(record[1], "temperature"),
			TempMax:       cleanValue(record[2], "temperature"),
			TempMin:       cleanValue(record[3], "temperature"),
			Precipitation: cleanValue(record[4], "precipitation"),
			HumidityAvg:   cleanValue(record[5], "humidity"),
			SunshineHours: cleanValue(record[6], "sunshine"),
		}
		obs.SkyCondition = classify(obs.Precipitation, obs.SunshineHours)
		observations = append(observations, obs)
	}
	return observations, nil
}

// ImportStation fetches and stores one station's archive, returning the
// number of newly inserted rows.
func (a *ArchiveClient) ImportStation(s *store.Store, stationID string) (int, error) {
	observations, err := a.FetchStation(stationID)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, obs := range observations {
		ok, err := s.InsertObservation(obs)
		if err != nil {
			return inserted, fmt.Errorf("insert %s %s: %w", stationID, obs.ObservedDate.Format("2006-01-02"), err)
		}
		if ok {
			inserted++
		}
	}
	metrics.ObservationsImported.WithLabelValues(stationID, "archive").Add(float64(inserted))
	return inserted, nil
}

// ImportAll walks the station list, continuing past per-station
// failures so one broken archive file cannot stall a bulk import.
func (a *ArchiveClient) ImportAll(s *store.Store, stationIDs []string) (int, error) {
	total := 0
	failed := 0
	for _, id := range stationIDs {
		n, err := a.ImportStation(s, id)
		total += n
		if err != nil {
			log.Printf("archive: import %s failed: %v", id, err)
			failed++
			continue
		}
		log.Printf("archive: imported %d new observations for %s", n, id)
	}
	if failed == len(stationIDs) && len(stationIDs) > 0 {
		return total, fmt.Errorf("all %d station imports failed", failed)
	}
	return total, nil
}

func cleanValue(raw, kind string) sql.NullFloat64 {
	s := strings.TrimSpace(raw)
	if missingMarkers[s] {
		return sql.NullFloat64{}
	}
	if kind == "precipitation" && s == traceMarker {
		return sql.NullFloat64{Float64: traceValue, Valid: true}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	if r, ok := validRanges[kind]; ok && (v < r.min || v > r.max) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// classify derives the sky condition where the inputs allow it. Enough
// rain decides on its own; distinguishing sunny from cloudy also needs
// the sunshine reading.
func classify(precip, sunshine sql.NullFloat64) sql.NullString {
	if !precip.Valid {
		return sql.NullString{}
	}
	if precip.Float64 >= stats.RainyDayThreshold {
		return sql.NullString{String: stats.SkyRainy, Valid: true}
	}
	if !sunshine.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: stats.ClassifySky(precip.Float64, sunshine.Float64), Valid: true}
}
