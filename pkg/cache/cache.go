// Package cache deduplicates the interpretation of expression text.
//
// Entries are keyed by the exact source text (case-sensitive, no
// normalization) and spread over shards selected by the xxhash64 fingerprint
// of the text. Each shard is an LRU list bounded by an optional capacity.
// Concurrent lookups of a missing key share one interpretation.
//
// Constant and parameterless expressions are returned by reference. All
// others are cloned per retrieval so that callers never share default
// parameter bindings.
//
// # Example
//
//	c := cache.New(cache.WithCapacity(1024))
//	expr, err := c.GetOrInterpret(ctx, "price * qty", interpret)
package cache

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/sandrolain/gomathex/pkg/computed"
)

// DefaultShards is the number of shards used when none is configured.
const DefaultShards = 16

// InterpretFunc interprets text. It returns an error only for cancellation;
// malformed text yields an unrecognized expression.
type InterpretFunc func(ctx context.Context, text string) (*computed.Expression, error)

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits            uint64
	Misses          uint64
	Interpretations uint64
	Evictions       uint64
	Entries         int
}

// Options configures a Cache.
type Options struct {
	// Shards is the number of independently locked LRU lists.
	Shards int
	// Capacity bounds the number of entries. 0 means unbounded.
	Capacity int
	// StoreUnrecognized decides whether unrecognized results are stored.
	// When nil they are never stored.
	StoreUnrecognized func() bool
	// OnLookup is called after every lookup with whether it hit.
	OnLookup func(ctx context.Context, text string, hit bool)
}

// Option configures a Cache.
type Option func(*Options)

// WithShards sets the number of shards.
func WithShards(n int) Option {
	return func(o *Options) {
		o.Shards = n
	}
}

// WithCapacity bounds the cache to n entries overall.
func WithCapacity(n int) Option {
	return func(o *Options) {
		o.Capacity = n
	}
}

// WithStoreUnrecognized sets the policy for storing unrecognized results.
func WithStoreUnrecognized(fn func() bool) Option {
	return func(o *Options) {
		o.StoreUnrecognized = fn
	}
}

// WithLookupObserver registers fn to be told about hits and misses.
func WithLookupObserver(fn func(ctx context.Context, text string, hit bool)) Option {
	return func(o *Options) {
		o.OnLookup = fn
	}
}

// Cache maps expression text to interpreted expressions.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	opts   Options
	shards []*shard
	group  singleflight.Group

	hits            atomic.Uint64
	misses          atomic.Uint64
	interpretations atomic.Uint64
	evictions       atomic.Uint64
}

// New creates a cache.
func New(opts ...Option) *Cache {
	options := Options{Shards: DefaultShards}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Shards <= 0 {
		options.Shards = DefaultShards
	}
	if options.Capacity < 0 {
		options.Capacity = 0
	}
	if options.Capacity > 0 && options.Shards > options.Capacity {
		options.Shards = options.Capacity
	}

	c := &Cache{opts: options, shards: make([]*shard, options.Shards)}
	perShard := 0
	if options.Capacity > 0 {
		perShard = (options.Capacity + options.Shards - 1) / options.Shards
	}
	for i := range c.shards {
		c.shards[i] = newShard(perShard, &c.evictions)
	}
	return c
}

func (c *Cache) shardFor(text string) *shard {
	return c.shards[xxhash.Sum64String(text)%uint64(len(c.shards))]
}

// Get returns the cached expression for text without interpreting it.
func (c *Cache) Get(text string) (*computed.Expression, bool) {
	expr, ok := c.shardFor(text).get(text)
	if !ok {
		return nil, false
	}
	return share(expr), true
}

// GetOrInterpret returns the expression for text, calling fn at most once
// per key among concurrent callers. When the caller that ran fn was
// canceled, the others retry with their own context.
func (c *Cache) GetOrInterpret(ctx context.Context, text string, fn InterpretFunc) (*computed.Expression, error) {
	s := c.shardFor(text)
	if expr, ok := s.get(text); ok {
		c.hits.Add(1)
		c.observe(ctx, text, true)
		return share(expr), nil
	}
	c.misses.Add(1)
	c.observe(ctx, text, false)

	for {
		ran := false
		v, err, _ := c.group.Do(text, func() (any, error) {
			if expr, ok := s.get(text); ok {
				return expr, nil
			}
			ran = true
			expr, err := fn(ctx, text)
			if err != nil {
				return nil, err
			}
			c.interpretations.Add(1)
			if expr.RecognizedCorrectly() || (c.opts.StoreUnrecognized != nil && c.opts.StoreUnrecognized()) {
				s.set(text, expr)
			}
			return expr, nil
		})
		if err == nil {
			return share(v.(*computed.Expression)), nil
		}
		if !ran && isContextErr(err) && ctx.Err() == nil {
			continue
		}
		return nil, err
	}
}

func (c *Cache) observe(ctx context.Context, text string, hit bool) {
	if c.opts.OnLookup != nil {
		c.opts.OnLookup(ctx, text, hit)
	}
}

// Invalidate removes the entry for text.
func (c *Cache) Invalidate(text string) {
	c.shardFor(text).remove(text)
}

// Clear removes every entry. Interpretations in flight are not affected.
func (c *Cache) Clear() {
	for _, s := range c.shards {
		s.clear()
	}
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		n += s.len()
	}
	return n
}

// Capacity returns the configured bound, 0 when unbounded.
func (c *Cache) Capacity() int {
	return c.opts.Capacity
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:            c.hits.Load(),
		Misses:          c.misses.Load(),
		Interpretations: c.interpretations.Load(),
		Evictions:       c.evictions.Load(),
		Entries:         c.Len(),
	}
}

func share(expr *computed.Expression) *computed.Expression {
	if expr.Shareable() {
		return expr
	}
	return expr.Clone()
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// entry is a cache entry stored in the doubly-linked list.
type entry struct {
	key  string
	expr *computed.Expression
}

// shard is one LRU list.
type shard struct {
	mu        sync.RWMutex
	capacity  int
	ll        *list.List
	items     map[string]*list.Element
	evictions *atomic.Uint64
}

func newShard(capacity int, evictions *atomic.Uint64) *shard {
	return &shard{
		capacity:  capacity,
		ll:        list.New(),
		items:     make(map[string]*list.Element),
		evictions: evictions,
	}
}

func (s *shard) get(key string) (*computed.Expression, bool) {
	var expr *computed.Expression
	s.mu.RLock()
	el, ok := s.items[key]
	if ok {
		expr = el.Value.(*entry).expr
	}
	alreadyFront := ok && s.ll.Front() == el
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !alreadyFront {
		// Promote under the write lock; the entry may have been evicted meanwhile.
		s.mu.Lock()
		el, ok = s.items[key]
		if ok {
			s.ll.MoveToFront(el)
			expr = el.Value.(*entry).expr
		}
		s.mu.Unlock()

		if !ok {
			return nil, false
		}
	}
	return expr, true
}

func (s *shard) set(key string, expr *computed.Expression) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		el.Value.(*entry).expr = expr
		s.ll.MoveToFront(el)
		return
	}

	if s.capacity > 0 && s.ll.Len() >= s.capacity {
		s.evictLocked()
	}

	s.items[key] = s.ll.PushFront(&entry{key: key, expr: expr})
}

func (s *shard) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		s.ll.Remove(el)
		delete(s.items, key)
	}
}

func (s *shard) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ll.Init()
	s.items = make(map[string]*list.Element)
}

func (s *shard) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// evictLocked removes the least recently used entry. s.mu must be held for
// writing.
func (s *shard) evictLocked() {
	el := s.ll.Back()
	if el == nil {
		return
	}
	s.ll.Remove(el)
	delete(s.items, el.Value.(*entry).key)
	s.evictions.Add(1)
}
