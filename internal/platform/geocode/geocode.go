// Package geocode resolves addresses against a Nominatim-compatible HTTP API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oapi-codegen/runtime"

	"github.com/Apurer/retail-ops/internal/shared/failure"
)

const service = "geocoder"

// Coordinates is a resolved WGS84 point.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Config tunes the client.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Attempts  int
}

// Client calls the geocoding API. The zero value is not usable; call New.
type Client struct {
	baseURL   *url.URL
	userAgent string
	timeout   time.Duration
	attempts  int
	http      *http.Client
}

// New builds a client. An empty base URL is rejected.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("geocoder base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse geocoder base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "retail-ops"
	}
	return &Client{baseURL: base, userAgent: cfg.UserAgent, timeout: cfg.Timeout, attempts: cfg.Attempts, http: httpClient}, nil
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Forward resolves an address. It returns nil without error when nothing matches.
func (c *Client) Forward(ctx context.Context, address string) (*Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}
	query, err := encodeQuery(
		param{"q", address},
		param{"format", "jsonv2"},
		param{"limit", 1},
	)
	if err != nil {
		return nil, err
	}
	var results []searchResult
	if err := c.get(ctx, "/search", query, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
	if err := errors.Join(latErr, lngErr); err != nil {
		return nil, failure.External(service, fmt.Errorf("decode coordinates: %w", err))
	}
	return &Coordinates{Lat: lat, Lng: lng}, nil
}

// Reverse resolves a point to a display address, "" when nothing matches.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	query, err := encodeQuery(
		param{"lat", lat},
		param{"lon", lng},
		param{"format", "jsonv2"},
	)
	if err != nil {
		return "", err
	}
	var result reverseResult
	if err := c.get(ctx, "/reverse", query, &result); err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", nil
	}
	return result.DisplayName, nil
}

type param struct {
	name  string
	value any
}

// encodeQuery renders form-style query parameters the same way generated clients do.
func encodeQuery(params ...param) (string, error) {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		styled, err := runtime.StyleParamWithLocation("form", true, p.name, runtime.ParamLocationQuery, p.value)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", p.name, err)
		}
		parts = append(parts, styled)
	}
	return strings.Join(parts, "&"), nil
}

func (c *Client) get(ctx context.Context, path, rawQuery string, out any) error {
	endpoint := *c.baseURL
	endpoint.Path = c.baseURL.Path + path
	endpoint.RawQuery = rawQuery

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newBackOff(), uint64(c.attempts-1)),
		ctx,
	)
	err := backoff.Retry(func() error {
		return c.do(ctx, endpoint.String(), out)
	}, policy)
	if err != nil {
		return failure.External(service, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("geocoder returned %s", resp.Status)
	case resp.StatusCode >= http.StatusBadRequest:
		return backoff.Permanent(fmt.Errorf("geocoder returned %s", resp.Status))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode geocoder response: %w", err))
	}
	return nil
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0
	return b
}
