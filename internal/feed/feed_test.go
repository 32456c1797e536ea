package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edpulse/edpulse-cli/internal/schema"
)

const legacyCSV = "Date,Arrival,Departure,Disposition\n" +
	"2024-01-01,08:00,10:00,Discharged\n" +
	"2024-01-01,09:00,17:00,Hospitalized\n"

func fastRetry(src Source) Source {
	src.RetryBaseDelay = time.Millisecond
	src.RetryMaxDelay = 2 * time.Millisecond
	return src
}

func TestFetchNoURLConfigured(t *testing.T) {
	res := Fetch(context.Background(), Source{})
	if res.Error != "no source URL configured" {
		t.Errorf("error = %q", res.Error)
	}
	if res.LastErrorMessage != res.Error {
		t.Errorf("lastErrorMessage = %q", res.LastErrorMessage)
	}
	if len(res.Records) != 0 || res.Summary.TotalPatients != 0 {
		t.Error("config failure must produce an empty data shape")
	}
	if res.Meta.RunID == "" {
		t.Error("runID missing")
	}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/csv" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(legacyCSV))
	}))
	defer srv.Close()

	res := Fetch(context.Background(), fastRetry(Source{URL: srv.URL}))
	if res.Error != "" {
		t.Fatalf("error = %q", res.Error)
	}
	if res.Meta.Mode != schema.ModeLegacy {
		t.Errorf("mode = %s", res.Meta.Mode)
	}
	if res.Summary.TotalPatients != 2 {
		t.Errorf("totalPatients = %d, want 2", res.Summary.TotalPatients)
	}
	if len(res.Records) != 2 {
		t.Errorf("records = %d, want 2", len(res.Records))
	}
	if res.UpdatedAt.IsZero() {
		t.Error("updatedAt not set")
	}
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(legacyCSV))
	}))
	defer srv.Close()

	res := Fetch(context.Background(), fastRetry(Source{URL: srv.URL, RetryMax: 3}))
	if res.Error != "" {
		t.Fatalf("error = %q after retries", res.Error)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := Fetch(context.Background(), fastRetry(Source{URL: srv.URL, RetryMax: 2}))
	if res.Error == "" {
		t.Fatal("want a terminal error")
	}
	if !strings.Contains(res.Error, "error") {
		t.Errorf("error = %q, want the source-error phrasing", res.Error)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
	if len(res.Records) != 0 {
		t.Error("failed run must not carry partial records")
	}
}

func TestFetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Fetch(ctx, fastRetry(Source{URL: "http://127.0.0.1:0/export.csv"}))
	if res.Error == "" {
		t.Fatal("want an error from a cancelled context")
	}
}

func TestFetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(legacyCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	res := FetchFile(path, Source{})
	if res.Error != "" {
		t.Fatalf("error = %q", res.Error)
	}
	if res.Summary.TotalPatients != 2 {
		t.Errorf("totalPatients = %d", res.Summary.TotalPatients)
	}
}

func TestFetchFileMissing(t *testing.T) {
	res := FetchFile(filepath.Join(t.TempDir(), "nope.csv"), Source{})
	if res.Error == "" {
		t.Fatal("want an error for a missing file")
	}
}

func TestTransformEmptyExport(t *testing.T) {
	res := Transform(nil, Source{})
	if res.Error == "" {
		t.Fatal("empty export must fail, not panic or return zeros")
	}
	if !strings.Contains(res.Error, "the export could not be read") {
		t.Errorf("error = %q", res.Error)
	}
	if res.UsingFallback {
		t.Error("usingFallback must stay false on a terminal failure")
	}
}

func TestTransformRunIDsUnique(t *testing.T) {
	a := Transform([]byte(legacyCSV), Source{})
	b := Transform([]byte(legacyCSV), Source{})
	if a.Meta.RunID == "" || a.Meta.RunID == b.Meta.RunID {
		t.Errorf("runIDs = %q, %q, want distinct non-empty", a.Meta.RunID, b.Meta.RunID)
	}
}

func TestFriendlyMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"config", &ConfigError{Msg: "no source URL configured"}, "no source URL configured"},
		{"cancelled", &RetrievalError{URL: "u", Err: context.Canceled}, "data retrieval was cancelled"},
		{"timeout", &RetrievalError{URL: "u", Err: context.DeadlineExceeded}, "data retrieval timed out"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := friendlyMessage(tc.err); got != tc.want {
				t.Errorf("friendlyMessage = %q, want %q", got, tc.want)
			}
		})
	}
}
