package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goodday/climate/internal/models"
)

// dateLayout is how observed dates are stored. Keeping them as plain
// date strings keeps sqlite's strftime month-day extraction exact.
const dateLayout = "2006-01-02"

type Store struct {
	db  *sql.DB
	loc *time.Location
}

func New(db *sql.DB, loc *time.Location) *Store {
	return &Store{db: db, loc: loc}
}

// Location returns the local timezone observations are keyed to.
func (s *Store) Location() *time.Location {
	return s.loc
}

func (s *Store) UpsertStation(st models.Station) error {
	_, err := s.db.Exec(`
		INSERT INTO stations (station_id, name, county, town, latitude, longitude, altitude, active, has_statistics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id) DO UPDATE SET
			name = excluded.name,
			county = excluded.county,
			town = excluded.town,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			altitude = excluded.altitude,
			active = excluded.active
	`, st.StationID, st.Name, st.County, st.Town, st.Latitude, st.Longitude, st.Altitude, st.Active, st.HasStatistics)
	return err
}

const stationColumns = `station_id, name, county, town, latitude, longitude, altitude, active, has_statistics`

func scanStation(row interface{ Scan(...any) error }) (models.Station, error) {
	var st models.Station
	err := row.Scan(&st.StationID, &st.Name, &st.County, &st.Town, &st.Latitude, &st.Longitude, &st.Altitude, &st.Active, &st.HasStatistics)
	return st, err
}

func (s *Store) GetStation(stationID string) (*models.Station, error) {
	row := s.db.QueryRow(`SELECT `+stationColumns+` FROM stations WHERE station_id = ?`, stationID)
	st, err := scanStation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) GetActiveStations() ([]models.Station, error) {
	return s.queryStations(`SELECT ` + stationColumns + ` FROM stations WHERE active = TRUE ORDER BY station_id`)
}

func (s *Store) ListStations() ([]models.Station, error) {
	return s.queryStations(`SELECT ` + stationColumns + ` FROM stations ORDER BY station_id`)
}

func (s *Store) queryStations(query string, args ...any) ([]models.Station, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

func (s *Store) SetHasStatistics(stationID string, has bool) error {
	res, err := s.db.Exec(`UPDATE stations SET has_statistics = ? WHERE station_id = ?`, has, stationID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("unknown station %s", stationID)
	}
	return nil
}

// InsertObservation stores one daily reading. Returns false when a row
// for the same station and date already exists; the original is kept.
func (s *Store) InsertObservation(obs models.Observation) (bool, error) {
	res, err := s.db.Exec(`
		INSERT INTO observations (station_id, observed_date, temp_avg, temp_max, temp_min, precipitation, humidity_avg, sunshine_hours, sky_condition)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id, observed_date) DO NOTHING
	`, obs.StationID, obs.ObservedDate.Format(dateLayout), obs.TempAvg, obs.TempMax, obs.TempMin, obs.Precipitation, obs.HumidityAvg, obs.SunshineHours, obs.SkyCondition)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetObservations returns a station's full daily history ordered by
// date. Decades of rows for one station fit comfortably in memory.
func (s *Store) GetObservations(stationID string) ([]models.Observation, error) {
	rows, err := s.db.Query(`
		SELECT id, station_id, observed_date, temp_avg, temp_max, temp_min, precipitation, humidity_avg, sunshine_hours, sky_condition, created_at
		FROM observations
		WHERE station_id = ?
		ORDER BY observed_date ASC
	`, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []models.Observation
	for rows.Next() {
		var obs models.Observation
		var observed string
		if err := rows.Scan(&obs.ID, &obs.StationID, &observed, &obs.TempAvg, &obs.TempMax, &obs.TempMin, &obs.Precipitation, &obs.HumidityAvg, &obs.SunshineHours, &obs.SkyCondition, &obs.CreatedAt); err != nil {
			return nil, err
		}
		obs.ObservedDate, err = time.Parse(dateLayout, observed)
		if err != nil {
			return nil, fmt.Errorf("parse observed_date %q: %w", observed, err)
		}
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

func (s *Store) CountObservations(stationID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM observations WHERE station_id = ?`, stationID).Scan(&n)
	return n, err
}

// ObservationDateRange returns the earliest and latest observed dates
// for a station, or ok false when the station has no rows.
func (s *Store) ObservationDateRange(stationID string) (first, last time.Time, ok bool, err error) {
	var minDate, maxDate sql.NullString
	err = s.db.QueryRow(`SELECT MIN(observed_date), MAX(observed_date) FROM observations WHERE station_id = ?`, stationID).Scan(&minDate, &maxDate)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if !minDate.Valid || !maxDate.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	first, err = time.Parse(dateLayout, minDate.String)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	last, err = time.Parse(dateLayout, maxDate.String)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return first, last, true, nil
}
