package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID       string   `json:"user_id"`
	Roles        []string `json:"roles"`
	DepartmentID *string  `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the claims, dropping roles this service does not know.
func (c *Claims) Principal() *Principal {
	roles := make([]Role, 0, len(c.Roles))
	for _, raw := range c.Roles {
		if r, err := ParseRole(raw); err == nil {
			roles = append(roles, r)
		}
	}
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	return NewPrincipal(id, roles, c.DepartmentID)
}

func GenerateToken(secret string, ttl time.Duration, p *Principal) (string, error) {
	roles := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = string(r)
	}
	now := time.Now()
	claims := Claims{
		UserID:       p.UserID,
		Roles:        roles,
		DepartmentID: p.DepartmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ExtractTokenFromRequest extracts a JWT token from an HTTP request's Authorization header.
// EventSource clients cannot set headers, so a "token" query parameter is accepted too.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if q := r.URL.Query().Get("token"); q != "" {
			return q, nil
		}
		return "", errors.New("authorization header is missing")
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}
