package local

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/filedeck/internal/identity"
)

type purpose string

const (
	purposeAccess   purpose = "access"
	purposeRecovery purpose = "recovery"
	purposeState    purpose = "oauth_state"
)

// Claims carries the user id and what the token may be used for. OAuth
// state tokens carry the redirect target instead of a user.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string  `json:"uid,omitempty"`
	Purpose    purpose `json:"purpose"`
	RedirectTo string  `json:"redirect_to,omitempty"`
}

type tokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func (t tokenIssuer) generate(c Claims, ttl time.Duration) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(ttl)
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(expires)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	s, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, expires, nil
}

// parse validates the token and that its purpose is one of allowed.
func (t tokenIssuer) parse(tokenString string, allowed ...purpose) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, errors.Join(identity.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, identity.ErrInvalidToken
	}

	for _, p := range allowed {
		if claims.Purpose == p {
			return claims, nil
		}
	}
	return nil, identity.ErrInvalidToken
}
