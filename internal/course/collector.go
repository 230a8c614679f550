package course

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/kebiao-ics/internal/logger"
	"github.com/pfrederiksen/kebiao-ics/internal/scraper"
)

// Fetcher fetches one portal page.
type Fetcher interface {
	FetchPage(ctx context.Context, kind, pageURL string) (scraper.Page, error)
}

// Result summarizes a collection run.
type Result struct {
	Fetched int
	Cached  int
	Skipped int
}

// Collector fetches and stores detail pages.
type Collector struct {
	fetcher     Fetcher
	cache       *Cache
	concurrency int
}

// NewCollector creates a Collector fetching at most concurrency pages at once.
func NewCollector(fetcher Fetcher, cache *Cache, concurrency int) *Collector {
	return &Collector{
		fetcher:     fetcher,
		cache:       cache,
		concurrency: max(concurrency, 1),
	}
}

// Collect fetches every page that is not fresh in the cache and stores it.
// Pages the fetcher skipped are not stored. The first fetch or store error
// stops the run.
func (c *Collector) Collect(ctx context.Context, pages []DetailPage) (Result, error) {
	var fetched, cached, skipped atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, p := range pages {
		p := p
		g.Go(func() error {
			if c.cache.Fresh(p) {
				cached.Add(1)
				return nil
			}

			page, err := c.fetcher.FetchPage(ctx, scraper.KindDetail, p.URL)
			if err != nil {
				return err
			}
			if page.Skipped {
				skipped.Add(1)
				return nil
			}
			if err := c.cache.Set(p, page.HTML); err != nil {
				return err
			}
			fetched.Add(1)
			return nil
		})
	}
	err := g.Wait()

	result := Result{
		Fetched: int(fetched.Load()),
		Cached:  int(cached.Load()),
		Skipped: int(skipped.Load()),
	}
	logger.Info("Collected course detail pages", logger.Fields{
		"pages":   len(pages),
		"fetched": result.Fetched,
		"cached":  result.Cached,
		"skipped": result.Skipped,
	})
	return result, err
}
