package tap

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dataflowlabs/tap-appmetrica/pkg/logger"
	"github.com/dataflowlabs/tap-appmetrica/pkg/models"
)

// The Logs API answers 202 while an export is being prepared server-side.
// Reports for large windows can take a while, so the retry budget is
// deliberately generous: 30 attempts, two minutes apart.
const (
	defaultRetryWait   = 120 * time.Second
	defaultMaxAttempts = 30
)

// Client talks to the AppMetrica Logs API.
type Client struct {
	BaseURL     string
	Token       string
	HTTPClient  *http.Client
	RetryWait   time.Duration
	MaxAttempts int
}

func NewClient(settings *models.Settings) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(settings.APIURL, "/"),
		Token:       settings.Token,
		HTTPClient:  &http.Client{Timeout: 5 * time.Minute},
		RetryWait:   defaultRetryWait,
		MaxAttempts: defaultMaxAttempts,
	}
}

// Export performs one Logs API export request and returns the parsed CSV
// rows. 202, 429 and 5xx responses are retried with a constant wait;
// other non-200 statuses are fatal.
func (c *Client) Export(ctx context.Context, path string, params url.Values) ([]map[string]string, error) {
	endpoint := c.BaseURL + path + "?" + params.Encode()

	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "OAuth "+c.Token)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("export %s request failed: %w", path, err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			rows, perr := parseCSV(resp.Body)
			resp.Body.Close()
			if perr != nil {
				return nil, fmt.Errorf("export %s: bad CSV response: %w", path, perr)
			}
			return rows, nil

		case resp.StatusCode == http.StatusAccepted ||
			resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode >= 500:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			logger.Warnf("Export %s returned %d, retrying in %s (attempt %d/%d)",
				path, resp.StatusCode, c.RetryWait, attempt, c.MaxAttempts)
			if err := sleepCtx(ctx, c.RetryWait); err != nil {
				return nil, err
			}

		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("export %s failed with status %d: %s",
				path, resp.StatusCode, strings.TrimSpace(string(body)))
		}
	}

	return nil, fmt.Errorf("export %s not ready after %d attempts", path, c.MaxAttempts)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseCSV reads an export body: a header row naming the fields, then one
// row per record. Rows shorter than the header keep the missing columns
// absent rather than failing the export.
func parseCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
