package middleware

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/go-redis/redismock/v9"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/bookyourshow/internal/config"
)

func cacheConfig() config.CacheConfig {
    return config.CacheConfig{
        Enabled:      true,
        Methods:      []string{"GET"},
        TTL:          time.Minute,
        KeyStrategy:  "route_query",
        Prefix:       "cache",
        MaxBodyBytes: 1 << 20,
    }
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
    require.NoError(t, err)

    status, got, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", got.Get("Content-Type"))
    assert.Equal(t, `{"a":1}`, string(body))

    _, _, _, ok = decodePayload([]byte{0, 1})
    assert.False(t, ok)
}

func TestCacheKeyFrom_SeparatesPathParams(t *testing.T) {
    e := echo.New()
    keyFor := func(path string) string {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
        c.SetPath("/v1/movies/:id")
        return cacheKeyFrom(cacheConfig(), c)
    }
    a, b := keyFor("/v1/movies/1"), keyFor("/v1/movies/2")
    assert.NotEqual(t, a, b)
    assert.Contains(t, a, "cache:")
    assert.Equal(t, a, keyFor("/v1/movies/1"))
}

func TestRedisCache_MissThenStore(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    cfg := cacheConfig()
    obs := &fakeObserver{}

    e := echo.New()
    e.GET("/v1/theaters", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"theaters": []string{}})
    }, NewRedisCache(cfg, rdb, obs, zap.NewNop()))

    req := httptest.NewRequest(http.MethodGet, "/v1/theaters", nil)
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/theaters")
    key := cacheKeyFrom(cfg, c)

    mock.ExpectGet(key).RedisNil()
    mock.Regexp().ExpectSet(key, `(?s).*`, cfg.TTL).SetVal("OK")

    rec := serve(e, httptest.NewRequest(http.MethodGet, "/v1/theaters", nil))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.Equal(t, []bool{false}, obs.hits)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_Hit(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    cfg := cacheConfig()
    obs := &fakeObserver{}
    called := false

    e := echo.New()
    e.GET("/v1/theaters", func(c echo.Context) error {
        called = true
        return c.NoContent(http.StatusOK)
    }, NewRedisCache(cfg, rdb, obs, nil))

    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/theaters", nil), httptest.NewRecorder())
    c.SetPath("/v1/theaters")
    payload, err := encodePayload(http.StatusOK,
        http.Header{"Content-Type": {"application/json"}}, []byte(`{"cached":true}`))
    require.NoError(t, err)
    mock.ExpectGet(cacheKeyFrom(cfg, c)).SetVal(string(payload))

    rec := serve(e, httptest.NewRequest(http.MethodGet, "/v1/theaters", nil))
    assert.False(t, called)
    assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
    assert.Equal(t, `{"cached":true}`, rec.Body.String())
    assert.Equal(t, []bool{true}, obs.hits)
}

func TestRedisCache_SkipsOtherMethods(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    e := echo.New()
    e.POST("/v1/theaters", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
        NewRedisCache(cacheConfig(), rdb, nil, nil))

    rec := serve(e, httptest.NewRequest(http.MethodPost, "/v1/theaters", nil))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheInvalidator(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    ci := NewCacheInvalidator(cacheConfig(), rdb)
    ctx := context.Background()

    mock.ExpectScan(0, "cache:*", 100).SetVal([]string{"cache:a", "cache:b"}, 7)
    mock.ExpectDel("cache:a", "cache:b").SetVal(2)
    mock.ExpectScan(7, "cache:*", 100).SetVal([]string{}, 0)

    require.NoError(t, ci.Invalidate(ctx))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheInvalidator_Error(t *testing.T) {
    rdb, mock := redismock.NewClientMock()
    mock.ExpectScan(0, "cache:*", 100).SetErr(redis.ErrClosed)

    err := NewCacheInvalidator(cacheConfig(), rdb).Invalidate(context.Background())
    assert.ErrorIs(t, err, redis.ErrClosed)
}

func TestCacheInvalidator_NoClient(t *testing.T) {
    var ci *CacheInvalidator
    assert.NoError(t, ci.Invalidate(context.Background()))
    assert.NoError(t, NewCacheInvalidator(cacheConfig(), nil).Invalidate(context.Background()))
}
