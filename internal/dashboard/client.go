package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
)

const apiKeyHeader = "x-api-key"

// APIError is a non-2xx answer from the query API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Client talks to the query API with the shared API key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Stations(ctx context.Context) ([]domain.Station, error) {
	var out []domain.Station
	if err := c.get(ctx, "/api/stations", nil, &out); err != nil {
		return nil, fmt.Errorf("stations: %w", err)
	}
	return out, nil
}

// Readings fetches raw readings. Bounds are sent as RFC3339 instants so the
// server never has to guess a time zone.
func (c *Client) Readings(ctx context.Context, filter domain.ReadingsFilter) ([]domain.RawReading, error) {
	q := url.Values{}
	if filter.StationID != "" {
		q.Set("station_id", filter.StationID)
	}
	if filter.StationName != "" {
		q.Set("station", filter.StationName)
	}
	if !filter.Start.IsZero() {
		q.Set("start", filter.Start.UTC().Format(time.RFC3339Nano))
	}
	if !filter.End.IsZero() {
		q.Set("end", filter.End.UTC().Format(time.RFC3339Nano))
	}

	var out []domain.RawReading
	if err := c.get(ctx, "/api/comfort", q, &out); err != nil {
		return nil, fmt.Errorf("readings: %w", err)
	}
	return out, nil
}

func (c *Client) Latest(ctx context.Context) ([]domain.RawReading, error) {
	var out []domain.RawReading
	if err := c.get(ctx, "/api/comfort/latest", nil, &out); err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	dec := json.NewDecoder(resp.Body)
	// Keep numbers as json.Number so measurement fields stay lossless until
	// the normalizer parses them.
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return apiErr
	}
	var envelope struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// IsUnauthorized reports whether err is the API rejecting our key.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
