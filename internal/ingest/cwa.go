// Package ingest feeds the observation archive: station directory sync
// and realtime readings from the CWA open-data API, and bulk history
// imports from the FTP archive.
package ingest

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/goodday/climate/internal/httputil"
	"github.com/goodday/climate/internal/metrics"
	"github.com/goodday/climate/internal/models"
	"github.com/goodday/climate/internal/store"
)

const (
	defaultCWABase   = "https://opendata.cwa.gov.tw/api/v1/rest/datastore"
	stationEndpoint  = "O-A0001-001"
	realtimeEndpoint = "O-A0003-001"
)

type CWAClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewCWAClient(apiKey, baseURL string) *CWAClient {
	if baseURL == "" {
		baseURL = defaultCWABase
	}
	return &CWAClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  httputil.NewClient(),
	}
}

type cwaResponse struct {
	Records struct {
		Station []cwaStation `json:"Station"`
	} `json:"records"`
}

type cwaStation struct {
	StationID   string `json:"StationId"`
	StationName string `json:"StationName"`
	ObsTime     struct {
		DateTime string `json:"DateTime"`
	} `json:"ObsTime"`
	GeoInfo struct {
		CountyName      string `json:"CountyName"`
		TownName        string `json:"TownName"`
		StationAltitude string `json:"StationAltitude"`
		Coordinates     []struct {
			StationLatitude  float64 `json:"StationLatitude"`
			StationLongitude float64 `json:"StationLongitude"`
		} `json:"Coordinates"`
	} `json:"GeoInfo"`
	WeatherElement []cwaElement `json:"WeatherElement"`
}

type cwaElement struct {
	ElementName  string          `json:"ElementName"`
	ElementValue json.RawMessage `json:"ElementValue"`
}

// FetchStations pulls the full station directory.
func (c *CWAClient) FetchStations() ([]models.Station, error) {
	data, err := c.get(stationEndpoint, nil)
	if err != nil {
		return nil, err
	}

	stations := make([]models.Station, 0, len(data.Records.Station))
	for _, raw := range data.Records.Station {
		if raw.StationID == "" || len(raw.GeoInfo.Coordinates) == 0 {
			continue
		}
		coord := raw.GeoInfo.Coordinates[0]
		st := models.Station{
			StationID: raw.StationID,
			Name:      raw.StationName,
			Latitude:  coord.StationLatitude,
			Longitude: coord.StationLongitude,
			Active:    true,
		}
		if raw.GeoInfo.CountyName != "" {
			st.County = sql.NullString{String: raw.GeoInfo.CountyName, Valid: true}
		}
		if raw.GeoInfo.TownName != "" {
			st.Town = sql.NullString{String: raw.GeoInfo.TownName, Valid: true}
		}
		if alt, err := strconv.ParseFloat(raw.GeoInfo.StationAltitude, 64); err == nil {
			st.Altitude = sql.NullFloat64{Float64: alt, Valid: true}
		}
		stations = append(stations, st)
	}
	return stations, nil
}

// SyncStations upserts the directory into the store, preserving each
// station's has_statistics flag.
func (c *CWAClient) SyncStations(s *store.Store) (int, error) {
	stations, err := c.FetchStations()
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, st := range stations {
		if err := s.UpsertStation(st); err != nil {
			return synced, fmt.Errorf("upsert station %s: %w", st.StationID, err)
		}
		synced++
	}
	return synced, nil
}

// FetchRealtime returns the latest live reading for one station, or
// nil when the station is not reporting.
func (c *CWAClient) FetchRealtime(stationID string) (*models.LiveObservation, error) {
	data, err := c.get(realtimeEndpoint, url.Values{"StationId": []string{stationID}})
	if err != nil {
		return nil, err
	}
	if len(data.Records.Station) == 0 {
		return nil, nil
	}

	raw := data.Records.Station[0]
	live := &models.LiveObservation{
		StationID:     raw.StationID,
		Temp:          elementValue(raw.WeatherElement, "AirTemperature"),
		Humidity:      elementValue(raw.WeatherElement, "RelativeHumidity"),
		Precipitation: elementValue(raw.WeatherElement, "Now"),
		Weather:       elementText(raw.WeatherElement, "Weather"),
		ObservedAt:    time.Now().UTC(),
	}
	if t, err := time.Parse(time.RFC3339, raw.ObsTime.DateTime); err == nil {
		live.ObservedAt = t
	}
	return live, nil
}

// get performs a backoff-retried GET against a datastore endpoint.
// Rate limiting retries, anything else fails fast.
func (c *CWAClient) get(endpoint string, params url.Values) (*cwaResponse, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("Authorization", c.apiKey)
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	var body []byte
	operation := func() error {
		start := time.Now()
		resp, err := c.client.Get(reqURL)
		if err != nil {
			metrics.CWAAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
			return backoff.Permanent(fmt.Errorf("fetch %s: %w", endpoint, err))
		}
		defer resp.Body.Close()
		metrics.CWAAPILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

		if resp.StatusCode == http.StatusTooManyRequests {
			metrics.CWAAPICallsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
			return fmt.Errorf("rate limited: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			metrics.CWAAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d: %s", endpoint, resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		metrics.CWAAPICallsTotal.WithLabelValues(endpoint, "ok").Inc()
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}

	var data cwaResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", endpoint, err)
	}
	return &data, nil
}

// elementValue pulls a numeric element, mapping the CWA missing-value
// sentinels to null.
func elementValue(elements []cwaElement, name string) sql.NullFloat64 {
	s := elementText(elements, name)
	if s == "" || s == "-99" || s == "-99.0" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= -99 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func elementText(elements []cwaElement, name string) string {
	for _, elem := range elements {
		if elem.ElementName != name {
			continue
		}
		// ElementValue arrives either as a bare string or wrapped
		// in a one-field object depending on the dataset.
		var s string
		if err := json.Unmarshal(elem.ElementValue, &s); err == nil {
			return s
		}
		var m map[string]string
		if err := json.Unmarshal(elem.ElementValue, &m); err == nil {
			for _, v := range m {
				return v
			}
		}
		return ""
	}
	return ""
}
