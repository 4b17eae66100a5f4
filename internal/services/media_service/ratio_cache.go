package services

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// RatioCache соотношения сторон картинок по URL: нужны карте подарков, чтобы
// заранее зарезервировать место под миниатюры.
type RatioCache struct {
	cache *cache.Cache
}

func NewRatioCache(ttl time.Duration) *RatioCache {
	return &RatioCache{cache: cache.New(ttl, ttl)}
}

func (c *RatioCache) Get(url string) (float64, bool) {
	v, ok := c.cache.Get(url)
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

func (c *RatioCache) Set(url string, ratio float64) {
	c.cache.SetDefault(url, ratio)
}

func (c *RatioCache) Invalidate(url string) {
	c.cache.Delete(url)
}

func (c *RatioCache) Clear() {
	c.cache.Flush()
}
