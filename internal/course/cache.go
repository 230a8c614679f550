package course

import (
	"time"
)

// DefaultTTL is how long a stored detail page is reused.
const DefaultTTL = 7 * 24 * time.Hour

// PageStore persists detail pages.
type PageStore interface {
	SaveDetailPage(courseName, pageURL, html string) error
	DetailPageModTime(courseName, pageURL string) (time.Time, bool)
}

// Cache decides whether a stored detail page is still fresh. A zero TTL
// disables reuse.
type Cache struct {
	store PageStore
	TTL   time.Duration
	now   func() time.Time
}

// NewCache creates a cache over store with the default 7-day TTL
func NewCache(store PageStore) *Cache {
	return &Cache{
		store: store,
		TTL:   DefaultTTL,
		now:   time.Now,
	}
}

// Fresh reports whether the section's page is stored and younger than TTL.
func (c *Cache) Fresh(p DetailPage) bool {
	if c.TTL <= 0 {
		return false
	}
	modTime, ok := c.store.DetailPageModTime(p.CourseName, p.URL)
	if !ok {
		return false
	}
	return c.now().Sub(modTime) <= c.TTL
}

// Set stores a fetched page.
func (c *Cache) Set(p DetailPage, html string) error {
	return c.store.SaveDetailPage(p.CourseName, p.URL, html)
}
