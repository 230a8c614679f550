package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const minimalPage = `<html><body>
<select id="zc"><option selected="selected">第%d周</option></select>
<table class="table-course"><tr><th>h</th></tr></table>
</body></html>`

func newTestScraper(t *testing.T, serverURL string, opts Options) *Scraper {
	t.Helper()
	opts.BaseURL = serverURL
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	s.newBackOff = func() backoff.BackOff {
		return backoff.NewConstantBackOff(time.Millisecond)
	}
	return s
}

type fetchRecord struct {
	kind, outcome string
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []fetchRecord
}

func (r *fakeRecorder) ObserveFetch(kind, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, fetchRecord{kind, outcome})
}

func TestFetchWeek(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		onFailure   FailurePolicy
		wantError   bool
		wantSkipped bool
		wantOutcome string
	}{
		{
			name:        "successful fetch",
			statusCode:  http.StatusOK,
			wantOutcome: "ok",
		},
		{
			name:        "HTTP error skipped by default",
			statusCode:  http.StatusInternalServerError,
			wantSkipped: true,
			wantOutcome: "skipped",
		},
		{
			name:        "HTTP error aborts",
			statusCode:  http.StatusNotFound,
			onFailure:   Abort,
			wantError:   true,
			wantOutcome: "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "kebiao-ics") {
					t.Errorf("User-Agent = %q, should contain 'kebiao-ics'", ua)
				}
				if cookie := r.Header.Get("Cookie"); cookie != "JSESSIONID=abc" {
					t.Errorf("Cookie = %q, want JSESSIONID=abc", cookie)
				}
				if r.URL.Path != DefaultSchedulePath {
					t.Errorf("path = %q, want %q", r.URL.Path, DefaultSchedulePath)
				}
				q := r.URL.Query()
				if q.Get("xn") != "2023" || q.Get("xj") != "11" || q.Get("zc") != "3" {
					t.Errorf("query = %q", r.URL.RawQuery)
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte("<html>week 3</html>"))
			}))
			defer server.Close()

			rec := &fakeRecorder{}
			s := newTestScraper(t, server.URL, Options{Cookie: "JSESSIONID=abc", OnFailure: tt.onFailure, Recorder: rec})

			page, err := s.FetchWeek(context.Background(), "2023", "11", 3)

			if tt.wantError {
				var netErr *NetworkError
				if !errors.As(err, &netErr) {
					t.Fatalf("FetchWeek() error = %v, want *NetworkError", err)
				}
				if netErr.StatusCode != tt.statusCode {
					t.Errorf("StatusCode = %d, want %d", netErr.StatusCode, tt.statusCode)
				}
			} else if err != nil {
				t.Fatalf("FetchWeek() unexpected error: %v", err)
			}

			if page.Week != 3 {
				t.Errorf("page.Week = %d, want 3", page.Week)
			}
			if page.Skipped != tt.wantSkipped {
				t.Errorf("page.Skipped = %v, want %v", page.Skipped, tt.wantSkipped)
			}
			if !tt.wantError && !tt.wantSkipped && page.HTML != "<html>week 3</html>" {
				t.Errorf("page.HTML = %q", page.HTML)
			}
			if tt.wantSkipped && page.HTML != "" {
				t.Errorf("skipped page should have empty HTML, got %q", page.HTML)
			}

			if len(rec.records) != 1 || rec.records[0].outcome != tt.wantOutcome || rec.records[0].kind != KindWeek {
				t.Errorf("recorded %+v, want one %s/%s", rec.records, KindWeek, tt.wantOutcome)
			}
		})
	}
}

func TestFetchPage_Retries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	s := newTestScraper(t, server.URL, Options{Retries: 2, OnFailure: Abort})
	page, err := s.FetchPage(context.Background(), KindDetail, server.URL+"/detail")
	if err != nil {
		t.Fatalf("FetchPage() error: %v", err)
	}
	if page.HTML != "ok" {
		t.Errorf("page.HTML = %q, want ok", page.HTML)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestFetchPage_RetriesExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := newTestScraper(t, server.URL, Options{Retries: 1, OnFailure: Abort})
	_, err := s.FetchPage(context.Background(), KindWeek, server.URL)

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("FetchPage() error = %v, want *NetworkError", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("server called %d times, want 2", got)
	}
}

func TestFetchPage_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s := newTestScraper(t, server.URL, Options{Retries: 3})
	page, err := s.FetchPage(context.Background(), KindWeek, server.URL)
	if err != nil {
		t.Fatalf("FetchPage() error: %v", err)
	}
	if !page.Skipped {
		t.Error("expired session page should be skipped")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server called %d times, want 1", got)
	}
}

func TestFetchPage_DecodesCharset(t *testing.T) {
	// "课表" in GBK.
	gbk := []byte{0xbf, 0xce, 0xb1, 0xed}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		w.Write(gbk)
	}))
	defer server.Close()

	s := newTestScraper(t, server.URL, Options{})
	page, err := s.FetchPage(context.Background(), KindWeek, server.URL)
	if err != nil {
		t.Fatalf("FetchPage() error: %v", err)
	}
	if page.HTML != "课表" {
		t.Errorf("page.HTML = %q, want 课表", page.HTML)
	}
}

func TestFetchPage_TruncatedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		w.Header().Set("Content-Length", "4096")
		w.Write([]byte("<html>"))
	}))
	defer server.Close()

	t.Run("skipped by default", func(t *testing.T) {
		s := newTestScraper(t, server.URL, Options{})
		page, err := s.FetchPage(context.Background(), KindWeek, server.URL)
		if err != nil {
			t.Fatalf("FetchPage() error: %v", err)
		}
		if !page.Skipped {
			t.Error("page with an unreadable body should be skipped")
		}
	})

	t.Run("aborts", func(t *testing.T) {
		s := newTestScraper(t, server.URL, Options{OnFailure: Abort})
		_, err := s.FetchPage(context.Background(), KindWeek, server.URL)
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			t.Fatalf("FetchPage() error = %v, want *NetworkError", err)
		}
		if netErr.StatusCode != 0 {
			t.Errorf("StatusCode = %d, want 0 for a read failure", netErr.StatusCode)
		}
	})
}

func TestFetchWeeks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		week := r.URL.Query().Get("zc")
		if week == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(strings.Replace(minimalPage, "%d", week, 1)))
	}))
	defer server.Close()

	for _, concurrency := range []int{1, 4} {
		s := newTestScraper(t, server.URL, Options{})
		pages, err := s.FetchWeeks(context.Background(), "2023", "11", 4, concurrency)
		if err != nil {
			t.Fatalf("FetchWeeks(concurrency=%d) error: %v", concurrency, err)
		}
		if len(pages) != 4 {
			t.Fatalf("FetchWeeks() returned %d pages, want 4", len(pages))
		}
		for i, p := range pages {
			if p.Week != i+1 {
				t.Errorf("pages[%d].Week = %d, want %d", i, p.Week, i+1)
			}
		}
		if !pages[1].Skipped {
			t.Error("week 2 should be skipped")
		}

		sessions, err := s.ParseWeek(pages[1])
		if err != nil || len(sessions) != 0 {
			t.Errorf("ParseWeek(skipped) = %v, %v; want no sessions", sessions, err)
		}
		if _, err := s.ParseWeek(pages[0]); err != nil {
			t.Errorf("ParseWeek(week 1) error: %v", err)
		}
	}
}

func TestFetchWeeks_AbortStops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := newTestScraper(t, server.URL, Options{OnFailure: Abort})
	if _, err := s.FetchWeeks(context.Background(), "2023", "11", 3, 1); err == nil {
		t.Error("FetchWeeks() expected error with abort policy")
	}
}

func TestNew(t *testing.T) {
	s, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if s.client == nil {
		t.Error("scraper client is nil")
	}
	if s.client.Timeout != Timeout {
		t.Errorf("client timeout = %v, want %v", s.client.Timeout, Timeout)
	}
	if s.BaseURL().String() != DefaultBaseURL {
		t.Errorf("base URL = %q, want %q", s.BaseURL(), DefaultBaseURL)
	}
	if s.onFailure != Skip {
		t.Errorf("default failure policy = %q, want %q", s.onFailure, Skip)
	}

	want := "http://xinxi.yjsy.wmu.edu.cn/py/page/student/grkcb.htm?xj=11&xn=2023&zc=3"
	if got := s.ScheduleURL("2023", "11", 3); got != want {
		t.Errorf("ScheduleURL() = %q, want %q", got, want)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative retries", Options{Retries: -1}},
		{"unknown policy", Options{OnFailure: "retry-forever"}},
		{"relative base", Options{BaseURL: "/py"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("New() expected error")
			}
		})
	}
}
