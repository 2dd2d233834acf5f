package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoRequest(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantErr   bool
		wantCalls int32
	}{
		{"ok first try", []int{200}, false, 1},
		{"retries server errors", []int{500, 503, 200}, false, 3},
		{"client error is permanent", []int{404, 200}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.statuses[int(n)-1])
			}))
			defer srv.Close()

			client := NewClient(ClientOptions{Timeout: time.Second, RequestsPerSec: 100, MaxRetryTimeout: 10 * time.Second})
			req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

			resp, err := client.DoRequest(context.Background(), req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DoRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if resp != nil {
				resp.Body.Close()
			}
			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("server called %d times, want %d", got, tt.wantCalls)
			}

			var statusErr *HTTPStatusError
			if tt.wantErr && !errors.As(err, &statusErr) {
				t.Errorf("error %v is not an HTTPStatusError", err)
			}
		})
	}
}

func TestDoRequestCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(ClientOptions{Timeout: time.Second, RequestsPerSec: 100})
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	if _, err := client.DoRequest(ctx, req); err == nil {
		t.Error("DoRequest() with cancelled context succeeded")
	}
}
