package middleware

import (
    "fmt"
    "net/http"
    "runtime/debug"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// Recovery turns a panic in a handler into a 500 response and logs the
// panic value with its stack.
func Recovery(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) (err error) {
            defer func() {
                if r := recover(); r != nil {
                    log.Error("panic recovered",
                        zap.String("error", fmt.Sprint(r)),
                        zap.String("path", c.Request().URL.Path),
                        zap.String("stack", string(debug.Stack())),
                    )
                    err = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
                }
            }()
            return next(c)
        }
    }
}
