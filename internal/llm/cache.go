package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Veraticus/memoflow/internal/model"
)

// classificationCache keeps recent classifications keyed by content and source app.
type classificationCache struct {
	entries *expirable.LRU[string, model.Classification]
}

func newClassificationCache(size int, ttl time.Duration) *classificationCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &classificationCache{
		entries: expirable.NewLRU[string, model.Classification](size, nil, ttl),
	}
}

func cacheKey(content, sourceApp string) string {
	sum := sha256.Sum256([]byte(content + "\x00" + sourceApp))
	return hex.EncodeToString(sum[:])
}

func (c *classificationCache) get(key string) (model.Classification, bool) {
	return c.entries.Get(key)
}

func (c *classificationCache) set(key string, result model.Classification) {
	c.entries.Add(key, result)
}

func (c *classificationCache) size() int {
	return c.entries.Len()
}

// Close drops every entry.
func (c *classificationCache) Close() {
	c.entries.Purge()
}
