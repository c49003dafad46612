package config

// Redis backs rate limiting, response caching and reactive UI sessions.
// If the server is unreachable at start-up, NewRedisClient returns nil
// and callers degrade gracefully: the middleware become pass-through and
// the flow endpoints report the store as unavailable.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings.  Addr is used when Host and
// Port are not both set.
type RedisConfig struct {
    Host     string `env:"REDIS_HOST"`
    Port     string `env:"REDIS_PORT"`
    Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
    Password string `env:"REDIS_PASSWORD"`
    DB       int    `env:"REDIS_DB" env-default:"0"`
    TLS      bool   `env:"REDIS_TLS" env-default:"false"`
}

// Address resolves the host:port to dial.
func (r RedisConfig) Address() string {
    if r.Host != "" && r.Port != "" {
        return r.Host + ":" + r.Port
    }
    return r.Addr
}

// NewRedisClient instantiates a Redis client and pings it with a short
// timeout.  The returned client is nil if the ping fails.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Address(),
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
