// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package audiocache memoizes synthesized audio across calls under a
// per-language byte budget, backed by Redis. It is a process-wide
// singleton shared by every call.
package audiocache

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/rapidaai/pkg/errors"

	"github.com/rapidaai/pkg/commons"
)

const defaultLanguageBucket = "default"

// defaultBudgetBytes is the fallback per-language byte budget used when no
// language-specific override is configured.
const defaultBudgetBytes = 512 * 1024 * 1024 // 512 MiB

// DefaultTTL is the TTL applied to a cache write when the caller does not
// override it.
const DefaultTTL = 4 * time.Hour

// Cache memoizes TTS output keyed by (language, voice, text). It degrades
// to a permanent no-op miss if Redis is unreachable at construction time.
type Cache struct {
	redis    *redis.Client
	logger   commons.Logger
	disabled bool

	budgets map[string]int64
	nowFunc func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithLanguageBudget sets the byte budget for one language bucket, e.g.
// WithLanguageBudget("es", 1536*1024*1024).
func WithLanguageBudget(lang string, bytes int64) Option {
	return func(c *Cache) { c.budgets[lang] = bytes }
}

// New constructs a Cache bound to client, pinging it once to decide
// whether to operate in degraded (disabled) mode. A disabled cache never
// returns an error from its public operations — every operation becomes a
// no-op miss, per the degraded-mode contract.
func New(ctx context.Context, client *redis.Client, logger commons.Logger, opts ...Option) *Cache {
	c := &Cache{
		redis:   client,
		logger:  logger,
		budgets: map[string]int64{},
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		if logger != nil {
			logger.Warnf("redis ping failed on audio cache startup, disabling cache: %v", err)
		}
		c.disabled = true
	}
	return c
}

// Disabled reports whether the cache is operating in degraded mode.
func (c *Cache) Disabled() bool { return c.disabled }

func languageBucket(lang string) string {
	if lang == "" {
		return defaultLanguageBucket
	}
	return lang
}

func (c *Cache) budget(lang string) int64 {
	if b, ok := c.budgets[languageBucket(lang)]; ok {
		return b
	}
	return defaultBudgetBytes
}

func dataKey(lang, voice, text string) string {
	return fmt.Sprintf("audio_cache:%s:%s:%s", languageBucket(lang), voice, text)
}

func sizeKey(lang string) string {
	return "audio_cache:size:" + languageBucket(lang)
}

func infoKey(lang string) string {
	return "audio_cache:info:" + languageBucket(lang)
}

// Get returns the cached audio for (lang, voice, text), or (nil, false) on
// a miss or while disabled. A hit updates last_access and increments
// popularity for LRU bookkeeping.
func (c *Cache) Get(ctx context.Context, lang, voice, text string) ([]byte, bool) {
	if c.disabled {
		return nil, false
	}

	key := dataKey(lang, voice, text)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	c.touch(ctx, lang, key)
	if c.logger != nil {
		c.logger.Infof("audio cache hit for %s/%s", voice, text)
	}
	return data, true
}

func (c *Cache) touch(ctx context.Context, lang, key string) {
	now := float64(c.nowFunc().Unix())
	hash := infoKey(lang)
	c.redis.HSet(ctx, hash, key+":last_access", now)
	c.redis.HIncrBy(ctx, hash, key+":popularity", 1)
}

// Set stores audio for (lang, voice, text), evicting older entries in the
// same language bucket first if needed to stay under budget. ttl of zero
// uses DefaultTTL.
func (c *Cache) Set(ctx context.Context, lang, voice, text string, audio []byte, ttl time.Duration) error {
	if c.disabled {
		if c.logger != nil {
			c.logger.Warn("audio cache is disabled, skipping set")
		}
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	key := dataKey(lang, voice, text)
	hash := infoKey(lang)

	existingSizeStr, err := c.redis.HGet(ctx, hash, key+":size").Result()
	if err == nil && existingSizeStr != "" {
		if existingSize, parseErr := strconv.ParseInt(existingSizeStr, 10, 64); parseErr == nil {
			c.redis.DecrBy(ctx, sizeKey(lang), existingSize)
		}
	}

	audioSize := int64(len(audio))
	if err := c.ensureCapacity(ctx, lang, audioSize); err != nil {
		return err
	}

	if err := c.redis.Set(ctx, key, audio, ttl).Err(); err != nil {
		return fmt.Errorf("%w: storing audio cache entry: %v", pkgerrors.ErrCacheUnavailable, err)
	}

	c.touch(ctx, lang, key)
	c.redis.HSet(ctx, hash, key+":size", audioSize)
	c.redis.IncrBy(ctx, sizeKey(lang), audioSize)

	if c.logger != nil {
		c.logger.Infof("cached audio for %s/%s (%d bytes)", voice, text, audioSize)
	}
	return nil
}

// ensureCapacity evicts least-recently-used entries in lang's bucket until
// there is room for newItemSize, per the configured budget. Eviction is
// best-effort: the byte counter may transiently drift under concurrent
// writers (§4.B concurrency note); TTL expiration is the backstop.
func (c *Cache) ensureCapacity(ctx context.Context, lang string, newItemSize int64) error {
	currentSize, err := c.redis.Get(ctx, sizeKey(lang)).Int64()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("%w: reading cache size counter: %v", pkgerrors.ErrCacheUnavailable, err)
	}

	if currentSize+newItemSize <= c.budget(lang) {
		return nil
	}

	if c.logger != nil {
		c.logger.Infof("audio cache for %s would exceed budget (current=%d new=%d max=%d), evicting",
			lang, currentSize, newItemSize, c.budget(lang))
	}
	return c.evictLRU(ctx, lang, currentSize+newItemSize-c.budget(lang))
}

type lruItem struct {
	key        string
	lastAccess float64
	size       int64
}

// reconstructLRUItems rebuilds per-item {last_access, size} pairs from the
// flat metadata hash, splitting each field name on its *last* colon (item
// keys themselves may contain colons), and keeping only items that have
// both attributes present. The result is sorted ascending by last_access
// so the caller can evict oldest-first.
func reconstructLRUItems(fields map[string]string) []lruItem {
	partial := map[string]map[string]float64{}
	for field, value := range fields {
		idx := strings.LastIndex(field, ":")
		if idx < 0 {
			continue
		}
		itemKey, attribute := field[:idx], field[idx+1:]
		if attribute != "last_access" && attribute != "size" {
			continue
		}
		v, parseErr := strconv.ParseFloat(value, 64)
		if parseErr != nil {
			continue
		}
		if partial[itemKey] == nil {
			partial[itemKey] = map[string]float64{}
		}
		partial[itemKey][attribute] = v
	}

	items := make([]lruItem, 0, len(partial))
	for key, attrs := range partial {
		lastAccess, hasLastAccess := attrs["last_access"]
		size, hasSize := attrs["size"]
		if !hasLastAccess || !hasSize {
			continue
		}
		items = append(items, lruItem{key: key, lastAccess: lastAccess, size: int64(size)})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].lastAccess < items[j].lastAccess })
	return items
}

// evictLRU deletes least-recently-used data keys in lang's bucket until at
// least bytesToFree have been freed, reconstructing per-item metadata from
// the flat "{key}:attribute" hash by splitting each field name on its last
// colon and keeping only the fields that pair a last_access with a size.
func (c *Cache) evictLRU(ctx context.Context, lang string, bytesToFree int64) error {
	hash := infoKey(lang)
	fields, err := c.redis.HGetAll(ctx, hash).Result()
	if err != nil {
		return fmt.Errorf("%w: reading cache metadata: %v", pkgerrors.ErrCacheUnavailable, err)
	}
	if len(fields) == 0 {
		return nil
	}

	items := reconstructLRUItems(fields)

	var bytesFreed int64
	for _, item := range items {
		if bytesFreed >= bytesToFree {
			break
		}

		c.redis.Del(ctx, item.key)
		c.redis.HDel(ctx, hash, item.key+":last_access", item.key+":size", item.key+":popularity")
		c.redis.DecrBy(ctx, sizeKey(lang), item.size)

		bytesFreed += item.size
		if c.logger != nil {
			c.logger.Infof("evicted %s from audio cache (size=%d)", item.key, item.size)
		}
	}
	if c.logger != nil {
		c.logger.Infof("freed %d bytes from audio cache for %s through LRU eviction", bytesFreed, lang)
	}
	return nil
}

// Clear drops every data key and metadata entry for lang, resetting its
// size counter to zero. A no-op while disabled.
func (c *Cache) Clear(ctx context.Context, lang string) error {
	if c.disabled {
		return nil
	}

	prefix := fmt.Sprintf("audio_cache:%s:*", languageBucket(lang))
	keys, err := c.redis.Keys(ctx, prefix).Result()
	if err != nil {
		return fmt.Errorf("%w: listing cache keys: %v", pkgerrors.ErrCacheUnavailable, err)
	}
	if len(keys) > 0 {
		c.redis.Del(ctx, keys...)
	}

	c.redis.Del(ctx, infoKey(lang))
	c.redis.Set(ctx, sizeKey(lang), 0, 0)
	return nil
}
