package run

import (
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// verdict keeps the candidate text next to the result, a hash match only
// counts as a hit when the texts are equal.
type verdict struct {
	text  string
	holds bool
}

// cache remembers oracle verdicts keyed by the hash of the candidate text.
type cache interface {
	get(key uint64) (verdict, bool)
	peek(key uint64) (verdict, bool)
	put(key uint64, v verdict)
	keys() []uint64
	remove(key uint64)
}

func cacheKey(text string) uint64 {
	return xxhash.Sum64String(text)
}

// lookup returns the cached verdict for text. Entries of a colliding text
// under the same key are ignored.
func lookup(c cache, key uint64, text string) (verdict, bool) {
	v, ok := c.get(key)
	if !ok || v.text != text {
		return verdict{}, false
	}
	return v, true
}

// purgeLonger drops all entries longer than length. Once a candidate of
// that length passed, longer candidates are never tried again.
func purgeLonger(c cache, length int) {
	for _, key := range c.keys() {
		if v, ok := c.peek(key); ok && len(v.text) > length {
			c.remove(key)
		}
	}
}

type mapCache map[uint64]verdict

func (m mapCache) get(key uint64) (verdict, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapCache) peek(key uint64) (verdict, bool) {
	return m.get(key)
}

func (m mapCache) put(key uint64, v verdict) {
	m[key] = v
}

func (m mapCache) keys() []uint64 {
	keys := make([]uint64, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	return keys
}

func (m mapCache) remove(key uint64) {
	delete(m, key)
}

type lruCache struct {
	entries *lru.Cache[uint64, verdict]
}

func newLRUCache(capacity int) (*lruCache, error) {
	entries, err := lru.New[uint64, verdict](capacity)
	if err != nil {
		return nil, err
	}
	return &lruCache{entries: entries}, nil
}

func (l *lruCache) get(key uint64) (verdict, bool) {
	return l.entries.Get(key)
}

func (l *lruCache) peek(key uint64) (verdict, bool) {
	return l.entries.Peek(key)
}

func (l *lruCache) put(key uint64, v verdict) {
	l.entries.Add(key, v)
}

func (l *lruCache) keys() []uint64 {
	return l.entries.Keys()
}

func (l *lruCache) remove(key uint64) {
	l.entries.Remove(key)
}
