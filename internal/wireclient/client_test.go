package wireclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rawblock/goldrush-engine/internal/ratelimit"
	"github.com/rawblock/goldrush-engine/pkg/model"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"payment required is not retryable", &WireError{Status: http.StatusPaymentRequired}, false},
		{"not found is not retryable", &WireError{Status: http.StatusNotFound}, false},
		{"conflict is not retryable", &WireError{Status: http.StatusConflict}, false},
		{"unprocessable is not retryable", &WireError{Status: http.StatusUnprocessableEntity}, false},
		{"too many requests is retryable", &WireError{Status: http.StatusTooManyRequests}, true},
		{"server error is retryable", &WireError{Status: http.StatusInternalServerError}, true},
		{"transport sentinel is retryable", &WireError{Status: StatusTransport}, true},
		{"timeout sentinel is retryable", &WireError{Status: StatusTimeout}, true},
		{"non-WireError defaults to retryable", context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDigTreatsNotFoundAndUnprocessableAsEmpty(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusUnprocessableEntity} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client := New(srv.URL, ratelimit.New(0, 0), nil)
		treasures, err := client.Dig(context.Background(), time.Second, model.Dig{PosX: 1, PosY: 1, Depth: 1, LicenseID: 1})
		if err != nil {
			t.Errorf("status %d: Dig() error = %v, want nil", status, err)
		}
		if treasures != nil {
			t.Errorf("status %d: Dig() treasures = %v, want nil", status, treasures)
		}
		srv.Close()
	}
}

func TestDigReturnsTreasuresOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"AAA==", "BBB=="})
	}))
	defer srv.Close()

	client := New(srv.URL, ratelimit.New(0, 0), nil)
	treasures, err := client.Dig(context.Background(), time.Second, model.Dig{PosX: 1, PosY: 1, Depth: 1, LicenseID: 1})
	if err != nil {
		t.Fatalf("Dig() error = %v", err)
	}
	if len(treasures) != 2 {
		t.Fatalf("Dig() returned %d treasures, want 2", len(treasures))
	}
}

func TestDigReturnsWireErrorOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, ratelimit.New(0, 0), nil)
	_, err := client.Dig(context.Background(), time.Second, model.Dig{})
	we, ok := err.(*WireError)
	if !ok {
		t.Fatalf("expected *WireError, got %T (%v)", err, err)
	}
	if we.Status != http.StatusInternalServerError {
		t.Errorf("WireError.Status = %d, want %d", we.Status, http.StatusInternalServerError)
	}
}
