package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Classification of verification failures. The service layer maps
// these to denial codes; they are never collapsed together.
var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
)

// SessionClaims is the payload of a session token: a random session
// identifier plus the standard expiry claim.
type SessionClaims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates session tokens. Unlike a
// single-secret setup, the signing key is supplied per call: each
// guild's stored secret hash signs only that guild's tokens, so a
// rotated guild cannot verify tokens minted under another key.
type TokenManager struct {
	ttl time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{ttl: ttl}
}

// Issue mints a signed session token with a fresh session identifier.
func (tm *TokenManager) Issue(signingKey string) (token, uid string, expiresAt time.Time, err error) {
	uid = uuid.NewString()
	expiresAt = time.Now().Add(tm.ttl)

	claims := &SessionClaims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, uid, expiresAt, nil
}

// Parse validates a token against the given guild signing key and
// returns its claims. Expiry and signature failures are reported as
// ErrTokenExpired and ErrInvalidSignature respectively.
func (tm *TokenManager) Parse(signingKey, tokenStr string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return []byte(signingKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidSignature
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.UID == "" {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}
