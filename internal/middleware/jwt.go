package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bookyourshow/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the user id, name and role claims in the request context.
// Handlers read them back through UserID, Name and Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set(ctxUserID, claims.UserID)
            c.Set(ctxName, claims.Name)
            c.Set(ctxRole, claims.Role)
            return next(c)
        }
    }
}
