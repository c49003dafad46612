package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  Methods lists the HTTP methods to cache and KeyStrategy
// determines which parts of the request contribute to the cache key.
type CacheConfig struct {
    Enabled      bool          `env:"CACHE_ENABLED" env-default:"true"`
    Methods      []string      `env:"CACHE_METHODS" env-separator:"," env-default:"GET"`
    TTL          time.Duration `env:"CACHE_TTL" env-default:"30s"`
    KeyStrategy  string        `env:"CACHE_KEY_STRATEGY" env-default:"route_query"`
    Prefix       string        `env:"CACHE_PREFIX" env-default:"cache"`
    MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" env-default:"1048576"`
}

// Allows reports whether responses to method may be cached.
func (c CacheConfig) Allows(method string) bool {
    for _, m := range c.Methods {
        if m == strings.ToUpper(method) {
            return true
        }
    }
    return false
}

func (c *CacheConfig) normalize() {
    methods := c.Methods[:0]
    for _, m := range c.Methods {
        if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
            methods = append(methods, m)
        }
    }
    c.Methods = methods
    if c.TTL <= 0 {
        c.TTL = 30 * time.Second
    }
    if c.Prefix == "" {
        c.Prefix = "cache"
    }
}
