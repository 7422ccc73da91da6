// Package neo talks to NASA's Near Earth Object Web Service (NeoWs).
package neo

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-impactor/internal/models"
	"github.com/mr1hm/go-impactor/internal/observability"
)

const DateLayout = "2006-01-02"

var (
	ErrNotFound   = errors.New("asteroid not found")
	ErrNoDiameter = errors.New("no diameter available in NASA record")
	ErrNoApproach = errors.New("no close-approach data available")
)

// Client implements the NeoWs feed and lookup endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	clock      clockwork.Clock
}

func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
}

// Feed lists approaches between start and end (inclusive dates), ordered by
// approach date.
func (c *Client) Feed(ctx context.Context, start, end time.Time) ([]models.Asteroid, error) {
	params := url.Values{
		"start_date": {start.Format(DateLayout)},
		"end_date":   {end.Format(DateLayout)},
		"api_key":    {c.apiKey},
	}
	return c.feed(ctx, params)
}

// defaultFeed lets NeoWs pick the window (today plus seven days).
func (c *Client) defaultFeed(ctx context.Context) ([]models.Asteroid, error) {
	return c.feed(ctx, url.Values{"api_key": {c.apiKey}})
}

func (c *Client) feed(ctx context.Context, params url.Values) ([]models.Asteroid, error) {
	var data feedResponse
	if err := c.getJSON(ctx, "feed", c.baseURL+"/feed?"+params.Encode(), &data); err != nil {
		return nil, err
	}

	asteroids := make([]models.Asteroid, 0, data.ElementCount)
	for _, date := range slices.Sorted(maps.Keys(data.NearEarthObjects)) {
		for _, raw := range data.NearEarthObjects[date] {
			a, err := decodeObject(raw)
			if err != nil {
				return nil, fmt.Errorf("decode feed object: %w", err)
			}
			asteroids = append(asteroids, a)
		}
	}

	SortByApproach(asteroids)
	return asteroids, nil
}

// Lookup fetches a single object by its NeoWs ID.
func (c *Client) Lookup(ctx context.Context, id string) (models.Asteroid, error) {
	u := fmt.Sprintf("%s/neo/%s?%s", c.baseURL, url.PathEscape(id), url.Values{"api_key": {c.apiKey}}.Encode())

	var raw json.RawMessage
	if err := c.getJSON(ctx, "lookup", u, &raw); err != nil {
		return models.Asteroid{}, err
	}
	a, err := decodeObject(raw)
	if err != nil {
		return models.Asteroid{}, fmt.Errorf("decode lookup response: %w", err)
	}
	return a, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, fullURL string, out any) error {
	start := c.clock.Now()
	defer func() {
		c.metrics.NEORequestDuration.WithLabelValues(endpoint).Observe(c.clock.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		c.metrics.NEORequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.NEORequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%s request: %w", endpoint, redactURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.metrics.NEORequests.WithLabelValues(endpoint, "not_found").Inc()
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.NEORequests.WithLabelValues(endpoint, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("neows API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.NEORequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	c.metrics.NEORequests.WithLabelValues(endpoint, "success").Inc()
	return nil
}

// redactURLError keeps the API key out of errors that reach logs and responses.
func redactURLError(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	if u, perr := url.Parse(uerr.URL); perr == nil {
		q := u.Query()
		if q.Has("api_key") {
			q.Set("api_key", "REDACTED")
			u.RawQuery = q.Encode()
			uerr.URL = u.String()
		}
	}
	return err
}

// SortByApproach orders by approach date; records without a date go last.
func SortByApproach(asteroids []models.Asteroid) {
	slices.SortStableFunc(asteroids, func(a, b models.Asteroid) int {
		return cmp.Compare(approachSortKey(a), approachSortKey(b))
	})
}

func approachSortKey(a models.Asteroid) string {
	if a.ApproachDate == "" {
		return "9999-12-31"
	}
	return a.ApproachDate
}

// DiameterForSimulation prefers the maximum estimate, then the minimum.
func DiameterForSimulation(a models.Asteroid) (float64, error) {
	switch {
	case a.DiameterMaxM > 0:
		return a.DiameterMaxM, nil
	case a.DiameterMinM > 0:
		return a.DiameterMinM, nil
	default:
		return 0, ErrNoDiameter
	}
}

// Today truncates the clock's current time to a UTC calendar date.
func Today(clock clockwork.Clock) time.Time {
	y, m, d := clock.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}
