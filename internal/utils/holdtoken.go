// Package utils provides the signed hold token helpers. A hold token is
// what ties a hold to the requester session: the client receives it when
// the hold is created and must present it to confirm or cancel, so no
// other session can act on someone else's hold.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidHoldToken is returned when a token fails signature or claim
// validation, or names a different hold than the request.
var ErrInvalidHoldToken = errors.New("invalid hold token")

// HoldClaims are the claims embedded in a hold token.
type HoldClaims struct {
	HoldID uint64 // which hold the token authorises
	ShowID uint64 // show the hold belongs to
}

// NewHoldToken builds and signs an HS256 JWT for a hold. The token's exp
// claim mirrors the hold's expiry; an expired token is rejected at parse
// time, which matches the hold itself no longer being confirmable.
func NewHoldToken(secret string, holdID, showID uint64, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"hold_id": holdID,
		"show_id": showID,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseHoldToken validates the signature and expiry of a hold token and
// returns its claims.
func ParseHoldToken(secret, token string) (HoldClaims, error) {
	return parseHoldToken(secret, token)
}

// ParseHoldTokenLenient validates the signature but ignores the expiry
// claim. Cancellation uses it: cancelling a lapsed hold must stay an
// idempotent no-op rather than fail on a stale token.
func ParseHoldTokenLenient(secret, token string) (HoldClaims, error) {
	return parseHoldToken(secret, token, jwt.WithoutClaimsValidation())
}

func parseHoldToken(secret, token string, opts ...jwt.ParserOption) (HoldClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidHoldToken
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return HoldClaims{}, ErrInvalidHoldToken
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return HoldClaims{}, ErrInvalidHoldToken
	}
	holdID, ok1 := numClaim(mc, "hold_id")
	showID, ok2 := numClaim(mc, "show_id")
	if !ok1 || !ok2 {
		return HoldClaims{}, ErrInvalidHoldToken
	}
	return HoldClaims{HoldID: holdID, ShowID: showID}, nil
}

// numClaim reads a numeric claim. JSON decoding yields float64.
func numClaim(mc jwt.MapClaims, key string) (uint64, bool) {
	v, ok := mc[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	}
	return 0, false
}
