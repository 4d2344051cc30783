package stub

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type stubClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// generateToken creates a signed JWT for the given subject. Kind records
// whether the credential is anonymous or authenticated.
func generateToken(secret, subject, kind string, ttl time.Duration) (string, error) {
	claims := &stubClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// parseToken validates the token and returns its subject and kind.
func parseToken(secret, tokenString string) (subject, kind string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &stubClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", err
	}

	if claims, ok := token.Claims.(*stubClaims); ok && token.Valid {
		return claims.Subject, claims.Kind, nil
	}

	return "", "", jwt.ErrTokenInvalidClaims
}
