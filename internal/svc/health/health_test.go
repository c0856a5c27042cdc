package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthz(t *testing.T) {
	mux := http.NewServeMux()
	New(nil).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST should be refused, got %d", rec.Code)
	}
}

func TestStatusz(t *testing.T) {
	want := Status{Cursor: 99, Processed: []int64{100, 100}, Clients: 2, Dropped: 1}
	mux := http.NewServeMux()
	New(func() Status { return want }).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/statusz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var got Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Body should be JSON, got %v", err)
	}
	if got.Cursor != want.Cursor || got.Clients != want.Clients || got.Dropped != want.Dropped {
		t.Errorf("Got %+v, want %+v", got, want)
	}
	if len(got.Processed) != 2 {
		t.Errorf("Expected 2 processed counts, got %d", len(got.Processed))
	}
}

func TestStatuszWithoutProvider(t *testing.T) {
	mux := http.NewServeMux()
	New(nil).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/statusz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with zero snapshot, got %d", rec.Code)
	}
}
