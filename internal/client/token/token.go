// Package token evaluates bearer tokens on the client side.
//
// Tokens are JWT-shaped strings (header.payload.signature). Only the payload
// is decoded and only its exp claim is consulted; the signature is never
// verified. A token without exp never expires, while a token that cannot be
// decoded is reported as expired.
package token

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pinshare/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// segmentParser only decodes segments; it never parses or verifies tokens.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Expiry returns the exp claim of tok. The boolean is false when the payload
// carries no expiry (absent or zero). Any structural problem yields
// common.ErrInvalidToken.
func Expiry(tok string) (time.Time, bool, error) {
	if tok == "" {
		return time.Time{}, false, fmt.Errorf("%w: empty", common.ErrInvalidToken)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return time.Time{}, false, fmt.Errorf("%w: expected 3 segments, got %d", common.ErrInvalidToken, len(parts))
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: decode payload: %w", common.ErrInvalidToken, err)
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, false, fmt.Errorf("%w: parse payload: %w", common.ErrInvalidToken, err)
	}
	if claims == nil {
		return time.Time{}, false, fmt.Errorf("%w: payload is not an object", common.ErrInvalidToken)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if exp == nil || exp.Unix() == 0 {
		return time.Time{}, false, nil
	}
	return exp.Time, true, nil
}

// IsExpired reports whether tok must be treated as expired at now.
func IsExpired(tok string, now time.Time) bool {
	exp, ok, err := Expiry(tok)
	return expired(exp, ok, err, now)
}

func expired(exp time.Time, ok bool, err error, now time.Time) bool {
	if err != nil {
		return true
	}
	if !ok {
		return false
	}
	return exp.Unix()*1000 < now.UnixMilli()
}
