package inference

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey_TruncatesPrompt(t *testing.T) {
	t.Parallel()
	base := strings.Repeat("á", 100)
	k1 := cacheKey(base+" tail one", "m", nil)
	k2 := cacheKey(base+" tail two", "m", nil)
	assert.Equal(t, k1, k2, "only the first 100 characters matter")
	assert.True(t, strings.HasPrefix(k1, base+"_m_"))
}

func TestCacheKey_ModelAndParams(t *testing.T) {
	t.Parallel()
	assert.NotEqual(t, cacheKey("p", "a", nil), cacheKey("p", "b", nil))
	assert.NotEqual(t,
		cacheKey("p", "a", map[string]string{"temperature": "0.1"}),
		cacheKey("p", "a", map[string]string{"temperature": "0.2"}))
	assert.Equal(t,
		cacheKey("p", "a", map[string]string{"x": "1", "y": "2"}),
		cacheKey("p", "a", map[string]string{"y": "2", "x": "1"}))
}

func TestResponseCache_OnlySuccessful(t *testing.T) {
	t.Parallel()
	rc := newResponseCache(time.Minute)
	rc.set("bad", Response{Success: false})
	_, ok := rc.get("bad")
	assert.False(t, ok)

	rc.set("good", Response{Success: true, Content: "x"})
	got, ok := rc.get("good")
	assert.True(t, ok)
	assert.Equal(t, "x", got.Content)
	assert.Equal(t, 1, rc.len())

	rc.flush()
	assert.Equal(t, 0, rc.len())
}

func TestResponseCache_NilSafe(t *testing.T) {
	t.Parallel()
	var rc *responseCache
	rc.set("k", Response{Success: true})
	_, ok := rc.get("k")
	assert.False(t, ok)
	rc.flush()
	assert.Equal(t, 0, rc.len())
}
