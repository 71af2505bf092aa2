// Package noaa fetches hourly observation files from the NOAA ISD global
// hourly archive. The archive stores one CSV object per station per year,
// keyed YYYY/IDENT.csv where IDENT is the station identifier with the
// USAF-WBAN hyphen removed.
package noaa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/climate-data-etl/internal/domain"
	"github.com/couchcryptid/climate-data-etl/internal/observability"
)

// DefaultBaseURL is the public S3 bucket hosting the ISD global hourly files.
const DefaultBaseURL = "https://noaa-global-hourly-pds.s3.amazonaws.com"

// ObjectKey returns the archive key for one station-year.
func ObjectKey(stationID string, year int) string {
	return fmt.Sprintf("%d/%s.csv", year, strings.ReplaceAll(stationID, "-", ""))
}

// Client fetches station-year CSV payloads over HTTPS.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryBudget time.Duration
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewClient creates an archive client. An empty baseURL selects the public
// NOAA bucket. The timeout bounds each HTTP request; the retry budget bounds
// the total time spent retrying one fetch.
func NewClient(baseURL string, timeout, retryBudget time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		retryBudget: retryBudget,
		metrics:     metrics,
		logger:      logger,
	}
}

// FetchStationYear downloads the raw CSV payload for one station-year.
// Transport faults and 5xx responses are retried with exponential backoff
// until the retry budget runs out; a missing object returns
// domain.ErrMissingYear without retrying.
func (c *Client) FetchStationYear(ctx context.Context, stationID string, year int) ([]byte, error) {
	u := c.baseURL + "/" + ObjectKey(stationID, year)

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", u, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("%w: station %s year %d", domain.ErrMissingYear, stationID, year))
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d: %s", u, resp.StatusCode, b))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.retryBudget
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		if errors.Is(err, domain.ErrMissingYear) {
			c.metrics.FetchRequests.WithLabelValues("not_found").Inc()
		} else {
			c.metrics.FetchRequests.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	c.metrics.FetchRequests.WithLabelValues("ok").Inc()
	c.logger.Debug("fetched station year", "station", stationID, "year", year, "bytes", len(body))
	return body, nil
}
