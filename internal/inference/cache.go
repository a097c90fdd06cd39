package inference

import (
	"encoding/hex"
	"hash/fnv"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cacheKeyPromptRunes = 100

// responseCache holds successful responses. Concurrent writers for the same
// key race harmlessly; the last write wins.
type responseCache struct {
	c *gocache.Cache
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{c: gocache.New(ttl, 2*ttl)}
}

func (rc *responseCache) get(key string) (Response, bool) {
	if rc == nil {
		return Response{}, false
	}
	v, ok := rc.c.Get(key)
	if !ok {
		return Response{}, false
	}
	return v.(Response), true
}

func (rc *responseCache) set(key string, r Response) {
	if rc == nil || !r.Success {
		return
	}
	rc.c.SetDefault(key, r)
}

func (rc *responseCache) flush() {
	if rc != nil {
		rc.c.Flush()
	}
}

func (rc *responseCache) len() int {
	if rc == nil {
		return 0
	}
	return rc.c.ItemCount()
}

// cacheKey derives the key from the first 100 characters of the prompt,
// the requested model and a hash of the parameters.
func cacheKey(prompt, model string, params map[string]string) string {
	runes := []rune(prompt)
	if len(runes) > cacheKeyPromptRunes {
		runes = runes[:cacheKeyPromptRunes]
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, k := range keys {
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{'='})
		_, _ = h.Write([]byte(params[k]))
		_, _ = h.Write([]byte{';'})
	}

	return string(runes) + "_" + model + "_" + hex.EncodeToString(h.Sum(nil))
}
