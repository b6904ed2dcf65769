package store

import (
	"database/sql"
	"fmt"

	"github.com/goodday/climate/internal/models"
)

const statisticsColumns = `id, station_id, month_day, years_analyzed, start_year, end_year,
	temp_avg_mean, temp_avg_median, temp_avg_stddev,
	temp_max_mean, temp_max_record, temp_min_mean, temp_min_record,
	precip_probability, precip_avg_when_rain, precip_heavy_prob, precip_max_record,
	tendency_sunny, tendency_cloudy, tendency_rainy, computed_at`

func scanStatistics(row interface{ Scan(...any) error }) (models.DailyStatistics, error) {
	var ds models.DailyStatistics
	err := row.Scan(&ds.ID, &ds.StationID, &ds.MonthDay, &ds.YearsAnalyzed, &ds.StartYear, &ds.EndYear,
		&ds.TempAvgMean, &ds.TempAvgMedian, &ds.TempAvgStddev,
		&ds.TempMaxMean, &ds.TempMaxRecord, &ds.TempMinMean, &ds.TempMinRecord,
		&ds.PrecipProbability, &ds.PrecipAvgWhenRain, &ds.PrecipHeavyProb, &ds.PrecipMaxRecord,
		&ds.TendencySunny, &ds.TendencyCloudy, &ds.TendencyRainy, &ds.ComputedAt)
	return ds, err
}

// ReplaceDailyStatistics swaps in a station's freshly computed snapshot
// in one transaction, so readers never see a half-rebuilt calendar.
func (s *Store) ReplaceDailyStatistics(stationID string, records []models.DailyStatistics) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM daily_statistics WHERE station_id = ?`, stationID); err != nil {
		return fmt.Errorf("clear old statistics: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO daily_statistics (station_id, month_day, years_analyzed, start_year, end_year,
			temp_avg_mean, temp_avg_median, temp_avg_stddev,
			temp_max_mean, temp_max_record, temp_min_mean, temp_min_record,
			precip_probability, precip_avg_when_rain, precip_heavy_prob, precip_max_record,
			tendency_sunny, tendency_cloudy, tendency_rainy, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ds := range records {
		if _, err := stmt.Exec(stationID, ds.MonthDay, ds.YearsAnalyzed, ds.StartYear, ds.EndYear,
			ds.TempAvgMean, ds.TempAvgMedian, ds.TempAvgStddev,
			ds.TempMaxMean, ds.TempMaxRecord, ds.TempMinMean, ds.TempMinRecord,
			ds.PrecipProbability, ds.PrecipAvgWhenRain, ds.PrecipHeavyProb, ds.PrecipMaxRecord,
			ds.TendencySunny, ds.TendencyCloudy, ds.TendencyRainy, ds.ComputedAt); err != nil {
			return fmt.Errorf("insert statistics %s: %w", ds.MonthDay, err)
		}
	}

	return tx.Commit()
}

// GetDailyStatistics returns the snapshot row for one calendar slot, or
// nil when the station has no computed statistics for it.
func (s *Store) GetDailyStatistics(stationID, monthDay string) (*models.DailyStatistics, error) {
	row := s.db.QueryRow(`SELECT `+statisticsColumns+` FROM daily_statistics WHERE station_id = ? AND month_day = ?`, stationID, monthDay)
	ds, err := scanStatistics(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

// GetDailyStatisticsForDays returns snapshot rows keyed by month-day.
// Slots with no stored row are simply absent from the map.
func (s *Store) GetDailyStatisticsForDays(stationID string, monthDays []string) (map[string]models.DailyStatistics, error) {
	out := make(map[string]models.DailyStatistics, len(monthDays))
	if len(monthDays) == 0 {
		return out, nil
	}

	args := make([]any, 0, len(monthDays)+1)
	args = append(args, stationID)
	placeholders := ""
	for i, md := range monthDays {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, md)
	}

	rows, err := s.db.Query(`SELECT `+statisticsColumns+` FROM daily_statistics WHERE station_id = ? AND month_day IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		ds, err := scanStatistics(rows)
		if err != nil {
			return nil, err
		}
		out[ds.MonthDay] = ds
	}
	return out, rows.Err()
}

// GetCalendarDaySamples returns the raw exact-date readings for one
// month-day slot across every year on record, oldest year first. These
// back percentile ranks and decade trends, which want unsmoothed data.
func (s *Store) GetCalendarDaySamples(stationID, monthDay string) ([]models.CalendarSample, error) {
	rows, err := s.db.Query(`
		SELECT CAST(strftime('%Y', observed_date) AS INTEGER) AS year, temp_avg, temp_max, temp_min, precipitation
		FROM observations
		WHERE station_id = ? AND strftime('%m-%d', observed_date) = ?
		ORDER BY year ASC
	`, stationID, monthDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.CalendarSample
	for rows.Next() {
		var cs models.CalendarSample
		if err := rows.Scan(&cs.Year, &cs.TempAvg, &cs.TempMax, &cs.TempMin, &cs.Precipitation); err != nil {
			return nil, err
		}
		samples = append(samples, cs)
	}
	return samples, rows.Err()
}

// ExtremeRecords are the dated all-time extremes for one calendar slot.
type ExtremeRecords struct {
	HighestTemp     sql.NullFloat64
	HighestTempYear sql.NullInt64
	LowestTemp      sql.NullFloat64
	LowestTempYear  sql.NullInt64
	MaxPrecip       sql.NullFloat64
	MaxPrecipYear   sql.NullInt64
}

// GetExtremeRecords returns the record high, record low, and wettest
// reading for a slot along with the years they happened. Ties go to the
// earliest year.
func (s *Store) GetExtremeRecords(stationID, monthDay string) (ExtremeRecords, error) {
	var rec ExtremeRecords

	queries := []struct {
		sql   string
		value *sql.NullFloat64
		year  *sql.NullInt64
	}{
		{`SELECT temp_max, CAST(strftime('%Y', observed_date) AS INTEGER)
			FROM observations
			WHERE station_id = ? AND strftime('%m-%d', observed_date) = ? AND temp_max IS NOT NULL
			ORDER BY temp_max DESC, observed_date ASC LIMIT 1`, &rec.HighestTemp, &rec.HighestTempYear},
		{`SELECT temp_min, CAST(strftime('%Y', observed_date) AS INTEGER)
			FROM observations
			WHERE station_id = ? AND strftime('%m-%d', observed_date) = ? AND temp_min IS NOT NULL
			ORDER BY temp_min ASC, observed_date ASC LIMIT 1`, &rec.LowestTemp, &rec.LowestTempYear},
		{`SELECT precipitation, CAST(strftime('%Y', observed_date) AS INTEGER)
			FROM observations
			WHERE station_id = ? AND strftime('%m-%d', observed_date) = ? AND precipitation IS NOT NULL
			ORDER BY precipitation DESC, observed_date ASC LIMIT 1`, &rec.MaxPrecip, &rec.MaxPrecipYear},
	}

	for _, q := range queries {
		err := s.db.QueryRow(q.sql, stationID, monthDay).Scan(q.value, q.year)
		if err != nil && err != sql.ErrNoRows {
			return ExtremeRecords{}, err
		}
	}
	return rec, nil
}
