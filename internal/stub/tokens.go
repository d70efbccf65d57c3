package stub

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var errInvalidToken = errors.New("invalid token")

// claims mirror the backend's access token: the subject is the user id.
type claims struct {
	IsAdmin bool `json:"is_admin"`
	jwtlib.RegisteredClaims
}

// tokenIssuer signs and verifies HS256 access tokens.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration) *tokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &tokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *tokenIssuer) issue(userID string, admin bool) (string, error) {
	now := t.now()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims{
		IsAdmin: admin,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(t.ttl)),
		},
	})
	return token.SignedString(t.secret)
}

func (t *tokenIssuer) parse(raw string) (*claims, error) {
	token, err := jwtlib.ParseWithClaims(raw, &claims{}, func(*jwtlib.Token) (any, error) {
		return t.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	c, ok := token.Claims.(*claims)
	if !ok || c.Subject == "" {
		return nil, errInvalidToken
	}
	return c, nil
}
