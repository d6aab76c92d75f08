// Package robots answers robots.txt queries through a session-owned cache
// keyed by origin, so two sessions never share crawl state.
package robots

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
)

// Cache fetches and caches one robots.txt per origin.
type Cache struct {
	client *resty.Client

	mu     sync.Mutex
	groups map[string]*robotstxt.RobotsData
}

// NewCache creates a cache fetching robots.txt through the given client.
func NewCache(client *resty.Client) *Cache {
	return &Cache{
		client: client,
		groups: map[string]*robotstxt.RobotsData{},
	}
}

// Allowed reports whether agent may fetch rawurl, along with the
// crawl-delay declared for it. The origin's robots.txt is fetched once and
// cached for the cache's lifetime.
func (c *Cache) Allowed(ctx context.Context, rawurl, agent string) (bool, time.Duration, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return false, 0, fmt.Errorf("invalid url %q: %w", rawurl, err)
	}
	origin := u.Scheme + "://" + u.Host

	data, err := c.lookup(ctx, origin)
	if err != nil {
		return false, 0, err
	}

	group := data.FindGroup(agent)
	return group.Test(u.Path), group.CrawlDelay, nil
}

func (c *Cache) lookup(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if data, ok := c.groups[origin]; ok {
		return data, nil
	}

	resp, err := c.client.R().SetContext(ctx).Get(origin + "/robots.txt")
	if err != nil {
		return nil, fmt.Errorf("fetching robots.txt for %s: %w", origin, err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode(), resp.Body())
	if err != nil {
		return nil, fmt.Errorf("parsing robots.txt for %s: %w", origin, err)
	}
	c.groups[origin] = data
	return data, nil
}
