package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/bookyourshow/internal/config"
)

type cacheObserver interface {
    CacheResult(hit bool)
}

// captureWriter copies the response body (up to limit bytes) while
// forwarding it to the client.
type captureWriter struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    size      int64
    limit     int64
    truncated bool
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit > 0 && cw.size+int64(len(b)) > cw.limit {
        cw.truncated = true
    }
    if !cw.truncated {
        cw.buf.Write(b)
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom builds "<prefix>:<sha1>" from the parts of the request the
// key strategy selects.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    route := c.Path()
    query := r.URL.RawQuery

    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", route}
    case "method_route":
        parts = []string{"method", r.Method, "route", route}
    case "method_route_query":
        parts = []string{"method", r.Method, "route", route, "q", query}
    case "uri":
        parts = []string{"uri", r.URL.Path, "q", query}
    default: // route_query
        parts = []string{"route", route, "q", query}
    }
    // Parameterised routes share c.Path(); the concrete path keeps
    // /movies/1 and /movies/2 apart.
    if strings.Contains(route, ":") {
        parts = append(parts, "path", r.URL.Path)
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}

// NewRedisCache replays cached 200 responses of read-only catalog routes.
// Responses are stored with their headers so a hit is byte-identical to
// the original.  obs may be nil.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, obs cacheObserver, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    if log == nil {
        log = zap.NewNop()
    }
    record := func(hit bool) {
        if obs != nil {
            obs.CacheResult(hit)
        }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Allows(c.Request().Method) {
                return next(c)
            }

            ctx := c.Request().Context()
            key := cacheKeyFrom(cfg, c)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    record(true)
                    for k, vals := range hdr {
                        if strings.EqualFold(k, echo.HeaderContentLength) || strings.EqualFold(k, "X-Cache") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            } else if err != redis.Nil {
                log.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
            }

            record(false)
            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated {
                return nil
            }

            hdr := c.Response().Header().Clone()
            payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
            if err != nil {
                return nil
            }
            if err := rdb.Set(context.WithoutCancel(ctx), key, payload, cfg.TTL).Err(); err != nil {
                log.Warn("cache store failed", zap.String("key", key), zap.Error(err))
            }
            return nil
        }
    }
}

// CacheInvalidator drops every cached response.  Catalog writes call it
// so the next read sees the change.
type CacheInvalidator struct {
    rdb    *redis.Client
    prefix string
}

// NewCacheInvalidator returns an invalidator for the keys NewRedisCache
// writes.  A nil client or disabled cache yields a no-op invalidator.
func NewCacheInvalidator(cfg config.CacheConfig, rdb *redis.Client) *CacheInvalidator {
    if !cfg.Enabled {
        rdb = nil
    }
    return &CacheInvalidator{rdb: rdb, prefix: cfg.Prefix}
}

// Invalidate scans for cached keys and deletes them batch by batch.
func (ci *CacheInvalidator) Invalidate(ctx context.Context) error {
    if ci == nil || ci.rdb == nil {
        return nil
    }
    var cursor uint64
    for {
        keys, next, err := ci.rdb.Scan(ctx, cursor, ci.prefix+":*", 100).Result()
        if err != nil {
            return err
        }
        if len(keys) > 0 {
            if err := ci.rdb.Del(ctx, keys...).Err(); err != nil {
                return err
            }
        }
        if next == 0 {
            return nil
        }
        cursor = next
    }
}
