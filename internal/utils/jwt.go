package utils // package utils provides helpers for token creation and password hashing

import (
    "crypto/rand"   // secure random bytes for refresh tokens
    "crypto/sha256" // refresh tokens are stored by digest only
    "encoding/hex"
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT together with its expiry.  Clients send it
// in the Authorization header when calling protected endpoints.
type AccessToken struct {
    Token string    // serialized JWT
    Exp   time.Time // UTC expiration time
}

// RefreshToken is the long-lived token exchanged for new access tokens.
// Raw is returned to the client once; the database keeps HashRefreshRaw(Raw).
type RefreshToken struct {
    Raw string
    Exp time.Time
}

// Claims are the identity fields carried by an access token.
type Claims struct {
    UserID uint64
    Name   string
    Role   string
}

// ErrInvalidToken is returned by ParseAccessToken for any token that is
// malformed, expired, signed with another key or missing claims.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken signs an HS256 JWT for a user valid for ttl.  The token
// carries sub, name, role, exp and iat.
func NewAccessToken(secret string, userID uint64, name, role string, ttl time.Duration) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":  userID,
        "name": name,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret and extracts its claims.
// Only HMAC signatures are accepted.
func ParseAccessToken(secret, raw string) (Claims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return Claims{}, ErrInvalidToken
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Claims{}, ErrInvalidToken
    }
    // numeric claims decode as float64
    sub, ok := mc["sub"].(float64)
    if !ok || sub <= 0 {
        return Claims{}, ErrInvalidToken
    }
    role, _ := mc["role"].(string)
    if role == "" {
        return Claims{}, ErrInvalidToken
    }
    name, _ := mc["name"].(string)
    return Claims{UserID: uint64(sub), Name: name, Role: role}, nil
}

// NewRefreshToken returns a random 96-character hex token valid for
// ttlDays days.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48)
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the hex SHA-256 digest of a raw refresh token.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
