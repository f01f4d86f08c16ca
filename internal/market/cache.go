package market

import (
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/quantfolio/quantfolio/internal/models"
)

// quoteCache is a short-TTL cache in front of the quote endpoint. Valuations
// themselves are never cached; this only smooths bursts of lookups for the
// same ticker within a request window. A nil *quoteCache is a no-op.
type quoteCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func newQuoteCache(ttl time.Duration) (*quoteCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &quoteCache{cache: cache, ttl: ttl}, nil
}

func (c *quoteCache) get(ticker string) (models.PriceQuote, bool) {
	if c == nil {
		return models.PriceQuote{}, false
	}

	v, ok := c.cache.Get(ticker)
	if !ok {
		return models.PriceQuote{}, false
	}

	quote, ok := v.(models.PriceQuote)
	return quote, ok
}

func (c *quoteCache) put(ticker string, quote models.PriceQuote) {
	if c == nil {
		return
	}
	c.cache.SetWithTTL(ticker, quote, 1, c.ttl)
}
