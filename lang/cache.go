package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// Cache memoizes compiled expressions by source text and compile options.
// Concurrent requests for the same key compile once. The zero value is
// ready to use.
//
// A cached Expression reports to the logger and observer it was compiled
// with, so both are part of the key. An observer whose value is not
// comparable bypasses the cache.
type Cache struct {
	entries sync.Map // cacheKey → *cacheEntry
}

type cacheKey struct {
	hash     uint64
	observer Observer
	logger   *slog.Logger
}

type cacheEntry struct {
	once sync.Once
	expr *Expression
	err  error
}

// DefaultCache is used by [CompileCached].
var DefaultCache = new(Cache)

// CompileCached compiles text through [DefaultCache].
func CompileCached(ctx context.Context, text string, opts ...Option) (*Expression, error) {
	return DefaultCache.Compile(ctx, text, opts...)
}

// hashOptions encodes options using gob and hashes with xxh3.
// Returns a hash that uniquely identifies the options configuration.
func hashOptions(key optionsKey) uint64 {
	var buf bytes.Buffer

	_ = gob.NewEncoder(&buf).Encode(key)

	return xxh3.Hash(buf.Bytes())
}

// Compile returns the cached Expression for text and opts, compiling it on
// first use. A failed compilation is cached as well.
func (c *Cache) Compile(ctx context.Context, text string, opts ...Option) (*Expression, error) {
	o := makeOptions(opts...)

	sourceHash := xxh3.HashString(text)
	optsHash := hashOptions(o.key)

	if !reflect.ValueOf(o.observer).Comparable() {
		o.logger.TraceContext(ctx, "cache bypass",
			slog.String("observer", reflect.TypeOf(o.observer).String()),
		)

		return Compile(ctx, text, opts...)
	}

	key := cacheKey{
		hash:     sourceHash ^ optsHash,
		observer: o.observer,
		logger:   o.logger.Logger,
	}

	value, cacheHit := c.entries.LoadOrStore(key, new(cacheEntry))
	entry := value.(*cacheEntry)

	o.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.String("opts_hash", strconv.FormatUint(optsHash, 16)),
		slog.Bool("cache_hit", cacheHit),
	)

	entry.once.Do(func() {
		entry.expr, entry.err = Compile(ctx, text, opts...)
	})

	return entry.expr, entry.err
}

// CompileReader reads all of r and compiles it through the cache. The
// reader is consumed with asynchronous read-ahead.
func (c *Cache) CompileReader(ctx context.Context, r io.Reader, opts ...Option) (*Expression, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return c.Compile(ctx, string(data), opts...)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	n := 0

	c.entries.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

// Clear removes all cached entries.
// This is primarily useful for testing or when memory needs to be reclaimed.
func (c *Cache) Clear() {
	c.entries.Clear()
}
