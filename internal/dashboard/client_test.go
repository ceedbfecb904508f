package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
)

func newAPIServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "k3y", 5*time.Second)
}

func TestClient_SendsKeyAndDecodesReadings(t *testing.T) {
	var gotKey, gotPath string
	var gotQuery map[string][]string
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"station_id":"7","name":"Othello","zipcode":null,
			"recorded_at":"2025-07-01T10:00:00Z","environment":"pasture",
			"cci_f":"81.25","air_temp_f":79.5,"rel_humidity":null,"wind_speed_mph":"",
			"solar_radiation":12}]`))
	})

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 7, 1, 23, 59, 59, 999999000, time.UTC)
	rows, err := client.Readings(context.Background(), domain.ReadingsFilter{StationID: "7", Start: start, End: end})

	require.NoError(t, err)
	assert.Equal(t, "k3y", gotKey)
	assert.Equal(t, "/api/comfort", gotPath)
	assert.Equal(t, []string{"7"}, gotQuery["station_id"])
	assert.Equal(t, []string{"2025-07-01T00:00:00Z"}, gotQuery["start"])
	assert.Equal(t, []string{"2025-07-01T23:59:59.999999Z"}, gotQuery["end"])
	assert.NotContains(t, gotQuery, "station")

	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "7", r.StationID)
	assert.Equal(t, time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC), r.RecordedAt)
	assert.Equal(t, "81.25", r.CCIF)
	assert.Equal(t, json.Number("79.5"), r.AirTempF)
	assert.Nil(t, r.RelHumidity)

	d := domain.Normalize(r)
	require.NotNil(t, d.CCIF)
	assert.InDelta(t, 81.25, *d.CCIF, 1e-9)
	require.NotNil(t, d.AirTempC)
	assert.InDelta(t, 26.388888, *d.AirTempC, 1e-5)
	assert.Nil(t, d.WindSpeedMph)
	assert.Nil(t, d.WindSpeedKph)
}

func TestClient_StationsAndLatest(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/stations":
			_, _ = w.Write([]byte(`[{"id":"1","name":"Prosser","latitude":46.25,"longitude":-119.74,"zipcode":"99350"}]`))
		case "/api/comfort/latest":
			_, _ = w.Write([]byte(`[{"station_id":"1","name":"Prosser","recorded_at":"2025-07-01T10:00:00.5Z","cci_f":70,"seconds_from_now":12.5}]`))
		default:
			http.NotFound(w, r)
		}
	})

	stations, err := client.Stations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.True(t, stations[0].Mappable())
	assert.Equal(t, "99350", *stations[0].Zipcode)

	latest, err := client.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, latest, 1)
	require.NotNil(t, latest[0].SecondsFromRef)
	assert.InDelta(t, 12.5, *latest[0].SecondsFromRef, 0)
}

func TestClient_ErrorStatus(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized","message":"invalid API key"}`))
	})

	_, err := client.Stations(context.Background())

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid API key", apiErr.Message)
	assert.True(t, IsUnauthorized(err))
}

func TestClient_PlainTextErrorBody(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := client.Latest(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.False(t, IsUnauthorized(err))
}

func TestClient_MalformedBody(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	})

	_, err := client.Readings(context.Background(), domain.ReadingsFilter{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode /api/comfort")
}

func TestClient_ContextCancelled(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Stations(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
