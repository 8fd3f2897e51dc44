package tap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dataflowlabs/tap-appmetrica/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return &Client{
		BaseURL:     baseURL,
		Token:       "test-token",
		HTTPClient:  &http.Client{Timeout: 5 * time.Second},
		RetryWait:   time.Millisecond,
		MaxAttempts: 5,
	}
}

func TestExportSendsAuthAndParams(t *testing.T) {
	var gotAuth string
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		fmt.Fprint(w, "event_name,city\napp_open,Warsaw\npurchase,Berlin\n")
	}))
	defer srv.Close()

	params := url.Values{}
	params.Set("application_id", "12345")
	params.Set("date_since", "2024-01-01 00:00:00")

	rows, err := testClient(srv.URL).Export(context.Background(), "/logs/v1/export/events.json", params)
	require.NoError(t, err)

	assert.Equal(t, "OAuth test-token", gotAuth)
	assert.Equal(t, "12345", gotQuery.Get("application_id"))
	assert.Equal(t, "2024-01-01 00:00:00", gotQuery.Get("date_since"))

	require.Len(t, rows, 2)
	assert.Equal(t, "app_open", rows[0]["event_name"])
	assert.Equal(t, "Berlin", rows[1]["city"])
}

func TestExportRetriesWhileReportIsPrepared(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		fmt.Fprint(w, "event_name\napp_open\n")
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).Export(context.Background(), "/logs/v1/export/events.json", url.Values{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestExportGivesUpAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.MaxAttempts = 3

	_, err := c.Export(context.Background(), "/logs/v1/export/events.json", url.Values{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready after 3 attempts")
}

func TestExportFatalOnClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid oauth token", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Export(context.Background(), "/logs/v1/export/events.json", url.Values{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "invalid oauth token")
}

func TestExportRespectsContextDuringWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.RetryWait = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Export(ctx, "/logs/v1/export/events.json", url.Values{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExportEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Header only, no data rows.
		fmt.Fprint(w, "event_name,city\n")
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).Export(context.Background(), "/logs/v1/export/events.json", url.Values{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(&models.Settings{APIURL: "https://api.appmetrica.yandex.ru/", Token: "t"})
	assert.Equal(t, "https://api.appmetrica.yandex.ru", c.BaseURL)
	assert.Equal(t, defaultRetryWait, c.RetryWait)
	assert.Equal(t, defaultMaxAttempts, c.MaxAttempts)
}
