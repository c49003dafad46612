package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

type requestObserver interface {
    ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// RequestLogger tags each request with an id, logs it when it completes
// and records its latency.  obs may be nil.
func RequestLogger(log *zap.Logger, obs requestObserver) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()

            id := req.Header.Get(headerRequestID)
            if id == "" {
                id = uuid.NewString()
            }
            c.Response().Header().Set(headerRequestID, id)

            err := next(c)
            if err != nil {
                // Let echo's error handler fill in the status before we read it.
                c.Error(err)
            }

            status := c.Response().Status
            elapsed := time.Since(start)
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }

            fields := []zap.Field{
                zap.String("request_id", id),
                zap.String("method", req.Method),
                zap.String("route", route),
                zap.String("uri", req.RequestURI),
                zap.Int("status", status),
                zap.Duration("latency", elapsed),
                zap.String("ip", c.RealIP()),
            }
            if uid, ok := UserID(c); ok {
                fields = append(fields, zap.Uint64("user_id", uid))
            }
            switch {
            case status >= 500:
                log.Error("request", append(fields, zap.Error(err))...)
            case status >= 400:
                log.Warn("request", fields...)
            default:
                log.Info("request", fields...)
            }

            if obs != nil {
                obs.ObserveRequest(req.Method, route, status, elapsed)
            }
            return nil
        }
    }
}
