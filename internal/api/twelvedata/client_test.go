package twelvedata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Alias1177/zonescan/internal/config"
)

const seriesBody = `{
  "meta": {"symbol": "EUR/USD", "interval": "1day"},
  "values": [
    {"datetime": "2024-03-04", "open": "1.0840", "high": "1.0870", "low": "1.0830", "close": "1.0860"},
    {"datetime": "2024-03-03", "open": "1.0800", "high": "1.0850", "low": "1.0790", "close": "1.0840"}
  ],
  "status": "ok"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientOptions{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		RequestTimeout:  2 * time.Second,
		RequestsPerSec:  100,
		MaxRetryTimeout: time.Second,
	})
}

func TestCandles(t *testing.T) {
	var gotQuery map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"symbol":     r.URL.Query().Get("symbol"),
			"interval":   r.URL.Query().Get("interval"),
			"outputsize": r.URL.Query().Get("outputsize"),
			"apikey":     r.URL.Query().Get("apikey"),
		}
		w.Write([]byte(seriesBody))
	})

	candles, err := client.Candles(context.Background(), "EUR/USD", "1D", 2)
	if err != nil {
		t.Fatalf("Candles() error = %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("Candles() returned %d candles, want 2", len(candles))
	}
	if !candles[0].Time.Before(candles[1].Time) {
		t.Error("candles not sorted oldest first")
	}
	if candles[1].High != 1.0870 || candles[1].Close != 1.0860 {
		t.Errorf("latest candle = %+v", candles[1])
	}

	want := map[string]string{"symbol": "EUR/USD", "interval": "1day", "outputsize": "2", "apikey": "test-key"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}
}

func TestCandlesErrors(t *testing.T) {
	tests := []struct {
		name      string
		timeframe string
		body      string
		status    int
		expected  error
	}{
		{"api error payload", "1H", `{"status":"error","code":429,"message":"limit"}`, http.StatusOK, ErrAPI},
		{"empty values", "1H", `{"status":"ok","values":[]}`, http.StatusOK, ErrInsufficientData},
		{"unknown timeframe", "2H", `{}`, http.StatusOK, config.ErrUnknownTimeframe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := client.Candles(context.Background(), "EUR/USD", tt.timeframe, 10)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Candles() error = %v, want %v", err, tt.expected)
			}
		})
	}
}

func TestLastClosed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(seriesBody))
	})

	t.Run("skips the forming candle", func(t *testing.T) {
		client.now = func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) }
		level, err := client.LastClosed(context.Background(), "EUR/USD", "1D")
		if err != nil {
			t.Fatalf("LastClosed() error = %v", err)
		}
		if level.High != 1.0850 || level.Low != 1.0790 {
			t.Errorf("LastClosed() = %+v, want the 2024-03-03 candle", level)
		}
		if level.Timeframe != "1D" {
			t.Errorf("timeframe = %q, want 1D", level.Timeframe)
		}
	})

	t.Run("latest candle once closed", func(t *testing.T) {
		client.now = func() time.Time { return time.Date(2024, 3, 5, 0, 0, 1, 0, time.UTC) }
		level, err := client.LastClosed(context.Background(), "EUR/USD", "1D")
		if err != nil {
			t.Fatalf("LastClosed() error = %v", err)
		}
		if level.High != 1.0870 {
			t.Errorf("LastClosed() high = %v, want 1.0870", level.High)
		}
	})

	t.Run("nothing closed yet", func(t *testing.T) {
		client.now = func() time.Time { return time.Date(2024, 3, 3, 6, 0, 0, 0, time.UTC) }
		_, err := client.LastClosed(context.Background(), "EUR/USD", "1D")
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("LastClosed() error = %v, want ErrInsufficientData", err)
		}
	})
}
