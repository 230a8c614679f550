package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/kebiao-ics/internal/logger"
	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

const (
	DefaultBaseURL      = "http://xinxi.yjsy.wmu.edu.cn"
	DefaultSchedulePath = "/py/page/student/grkcb.htm"
	UserAgent           = "kebiao-ics/1.0 (github.com/pfrederiksen/kebiao-ics)"
	Timeout             = 30 * time.Second
)

// FailurePolicy decides what a page that could not be fetched turns into.
type FailurePolicy string

const (
	// Skip replaces the page with empty content; it yields no sessions.
	Skip FailurePolicy = "skip"
	// Abort returns the NetworkError to the caller.
	Abort FailurePolicy = "abort"
)

// Page kinds reported to a Recorder.
const (
	KindWeek   = "week"
	KindDetail = "detail"
)

// Recorder observes page fetches.
type Recorder interface {
	ObserveFetch(kind, outcome string, d time.Duration)
}

// Options configures a Scraper. Zero values fall back to the defaults.
type Options struct {
	BaseURL      string
	SchedulePath string
	Cookie       string
	UserAgent    string
	Timeout      time.Duration
	Retries      int
	OnFailure    FailurePolicy
	Recorder     Recorder
}

// Page is one fetched document. Skipped is set when the fetch failed and the
// Skip policy replaced the body with empty content.
type Page struct {
	URL     string
	Week    int
	HTML    string
	Skipped bool
}

// Scraper fetches portal pages with the student's session cookie.
type Scraper struct {
	client       *http.Client
	base         *url.URL
	schedulePath string
	cookie       string
	userAgent    string
	retries      int
	onFailure    FailurePolicy
	recorder     Recorder
	newBackOff   func() backoff.BackOff
}

// New creates a Scraper.
func New(opts Options) (*Scraper, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.SchedulePath == "" {
		opts.SchedulePath = DefaultSchedulePath
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = Timeout
	}
	if opts.Retries < 0 {
		return nil, fmt.Errorf("retries must not be negative: %d", opts.Retries)
	}
	switch opts.OnFailure {
	case "":
		opts.OnFailure = Skip
	case Skip, Abort:
	default:
		return nil, fmt.Errorf("unknown failure policy: %q", opts.OnFailure)
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", opts.BaseURL)
	}

	return &Scraper{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		base:         base,
		schedulePath: opts.SchedulePath,
		cookie:       opts.Cookie,
		userAgent:    opts.UserAgent,
		retries:      opts.Retries,
		onFailure:    opts.OnFailure,
		recorder:     opts.Recorder,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}, nil
}

// BaseURL is the portal host that relative course links resolve against.
func (s *Scraper) BaseURL() *url.URL {
	u := *s.base
	return &u
}

// ScheduleURL returns the timetable page for one week of a term.
func (s *Scraper) ScheduleURL(year, term string, week int) string {
	u := s.base.ResolveReference(&url.URL{Path: s.schedulePath})
	q := url.Values{}
	q.Set("xn", year)
	q.Set("xj", term)
	q.Set("zc", fmt.Sprint(week))
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchWeek fetches the timetable page of one week.
func (s *Scraper) FetchWeek(ctx context.Context, year, term string, week int) (Page, error) {
	page, err := s.FetchPage(ctx, KindWeek, s.ScheduleURL(year, term, week))
	page.Week = week
	return page, err
}

// FetchWeeks fetches weeks 1..weeks with at most concurrency requests in
// flight. Pages are returned in week order.
func (s *Scraper) FetchWeeks(ctx context.Context, year, term string, weeks, concurrency int) ([]Page, error) {
	pages := make([]Page, weeks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i := range pages {
		week := i + 1
		g.Go(func() error {
			page, err := s.FetchWeek(ctx, year, term, week)
			if err != nil {
				return err
			}
			pages[week-1] = page
			logger.Debug("Fetched week page", logger.Fields{"week": week, "skipped": page.Skipped})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

// FetchPage fetches a page and applies the failure policy.
func (s *Scraper) FetchPage(ctx context.Context, kind, pageURL string) (Page, error) {
	start := time.Now()
	body, err := s.fetchWithRetry(ctx, pageURL)
	elapsed := time.Since(start)

	if err == nil {
		s.observe(kind, "ok", elapsed)
		return Page{URL: pageURL, HTML: body}, nil
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) && s.onFailure == Skip {
		s.observe(kind, "skipped", elapsed)
		logger.Warn("Page fetch failed, continuing with empty page", logger.Fields{
			"url":  pageURL,
			"kind": kind,
		})
		return Page{URL: pageURL, Skipped: true}, nil
	}

	s.observe(kind, "failed", elapsed)
	return Page{URL: pageURL}, err
}

// ParseWeek extracts the sessions of a fetched week page. Skipped pages
// have no sessions.
func (s *Scraper) ParseWeek(page Page) ([]schedule.Session, error) {
	if page.Skipped {
		return []schedule.Session{}, nil
	}
	sessions, err := ParseSchedule(bytes.NewReader([]byte(page.HTML)), s.base)
	if err != nil {
		var mpe *MalformedPageError
		if errors.As(err, &mpe) {
			mpe.Page = page.URL
		}
		return nil, err
	}
	return sessions, nil
}

func (s *Scraper) fetchWithRetry(ctx context.Context, pageURL string) (string, error) {
	var body string
	op := func() error {
		var err error
		body, err = s.fetch(ctx, pageURL)
		var netErr *NetworkError
		if errors.As(err, &netErr) && netErr.StatusCode >= 400 && netErr.StatusCode < 500 && netErr.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), uint64(s.retries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return "", perm.Err
		}
		return "", err
	}
	return body, nil
}

// fetch performs a single GET with the session cookie.
func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", pageURL)
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &NetworkError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &NetworkError{URL: pageURL, Err: fmt.Errorf("decoding body: %w", err)}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &NetworkError{URL: pageURL, Err: err}
	}
	return string(data), nil
}

func (s *Scraper) observe(kind, outcome string, d time.Duration) {
	if s.recorder != nil {
		s.recorder.ObserveFetch(kind, outcome, d)
	}
}
