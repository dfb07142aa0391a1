package utils

import (
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxCaseCacheKeyLen bounds which strings are worth short-caching; longer
// ones are computed directly every time.
const maxCaseCacheKeyLen = 64

const caseCacheSlots = 256

// caseCacheMinRebuildInterval throttles wholesale cache resets so repeated
// memory-pressure signals cannot thrash it.
const caseCacheMinRebuildInterval = 5 * time.Second

var (
	upperCaser = cases.Upper(language.English)
	lowerCaser = cases.Lower(language.English)
)

// caseCache is a lossy, fixed-size slot array keyed by hash. It exists for
// latency, not correctness: a miss (including a hash collision evicting a
// different entry) just means recomputing the mapping.
type caseCache struct {
	mu          sync.RWMutex
	slots       [caseCacheSlots]caseCacheEntry
	lastRebuild time.Time
}

type caseCacheEntry struct {
	key   string
	value string
	valid bool
}

func (c *caseCache) get(key string) (string, bool) {
	slot := &c.slots[slotFor(key)]
	c.mu.RLock()
	defer c.mu.RUnlock()
	if slot.valid && slot.key == key {
		return slot.value, true
	}
	return "", false
}

func (c *caseCache) put(key, value string) {
	slot := &c.slots[slotFor(key)]
	c.mu.Lock()
	defer c.mu.Unlock()
	slot.key = key
	slot.value = value
	slot.valid = true
}

// Reset releases every cached entry. Safe to call concurrently; callers
// (e.g. a memory-pressure handler) should not call it more than once per
// caseCacheMinRebuildInterval.
func (c *caseCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.Sub(c.lastRebuild) < caseCacheMinRebuildInterval {
		return
	}
	c.slots = [caseCacheSlots]caseCacheEntry{}
	c.lastRebuild = now
}

func slotFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % caseCacheSlots
}

var (
	upperCache = &caseCache{}
	lowerCache = &caseCache{}
)

// ToUpperEnglish uppercases s using English-locale rules (not a simple
// byte-wise ToUpper), short-cached for strings up to maxCaseCacheKeyLen.
// Cache hit or miss is unobservable to the caller.
func ToUpperEnglish(s string) string {
	if len(s) > maxCaseCacheKeyLen {
		return upperCaser.String(s)
	}
	if v, ok := upperCache.get(s); ok {
		return v
	}
	v := upperCaser.String(s)
	upperCache.put(s, v)
	return v
}

// ToLowerEnglish lowercases s using English-locale rules, short-cached the
// same way as ToUpperEnglish.
func ToLowerEnglish(s string) string {
	if len(s) > maxCaseCacheKeyLen {
		return lowerCaser.String(s)
	}
	if v, ok := lowerCache.get(s); ok {
		return v
	}
	v := lowerCaser.String(s)
	lowerCache.put(s, v)
	return v
}
