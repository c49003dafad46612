package middleware

// identity.go holds the accessors for the caller identity that JWTAuth
// stores in the echo context.  Handlers use them instead of reading the
// context keys directly.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

const (
    ctxUserID = "user_id"
    ctxName   = "name"
    ctxRole   = "role"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxUserID).(uint64)
    return id, ok && id > 0
}

// Role returns the authenticated user's role claim or "".
func Role(c echo.Context) string {
    r, _ := c.Get(ctxRole).(string)
    return r
}

// Name returns the authenticated user's display name or "".
func Name(c echo.Context) string {
    n, _ := c.Get(ctxName).(string)
    return n
}

// currentUserID is the rate limiter's view of the caller: the numeric id
// or "anon" for unauthenticated requests.
func currentUserID(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
