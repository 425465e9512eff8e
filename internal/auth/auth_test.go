package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-venue-booking/internal/config"
	"ms-venue-booking/internal/logger"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Kanit ")
	require.NoError(t, err)
	assert.Equal(t, RoleKanit, r)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
}

func TestResolveCapabilities(t *testing.T) {
	admin := Resolve([]Role{RoleAdmin})
	assert.True(t, admin.Has(DeleteCustomer))
	assert.True(t, admin.Has(AcceptBeo))

	sales := Resolve([]Role{RoleSales})
	assert.True(t, sales.Has(CreateOrder))
	assert.False(t, sales.Has(AcceptBeo))
	assert.False(t, sales.Has(CreateVenue))

	kanit := Resolve([]Role{RoleKanit})
	assert.True(t, kanit.Has(AcceptBeo))
	assert.False(t, kanit.Has(CreateOrder))

	pic := Resolve([]Role{RolePIC})
	assert.True(t, pic.Has(ReadBeoPIC))
	assert.False(t, pic.Has(ReadBeo))

	both := Resolve([]Role{RoleSales, RoleKanit})
	assert.True(t, both.Has(CreateOrder))
	assert.True(t, both.Has(AcceptBeo))

	assert.Empty(t, Resolve([]Role{"ghost"}))
}

func TestTokenRoundTrip(t *testing.T) {
	dept := "dept-1"
	p := NewPrincipal("user-1", []Role{RolePIC}, &dept)

	token, err := GenerateToken("secret", time.Minute, p)
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	got := claims.Principal()
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, []Role{RolePIC}, got.Roles)
	require.NotNil(t, got.DepartmentID)
	assert.Equal(t, "dept-1", *got.DepartmentID)
	assert.True(t, got.Can(ReadBeoPIC))

	_, err = ValidateToken("other", token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken("secret", -time.Minute, NewPrincipal("u", []Role{RoleAdmin}, nil))
	require.NoError(t, err)
	_, err = ValidateToken("secret", token)
	assert.Error(t, err)
}

func TestExtractTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ExtractTokenFromRequest(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "Token abc")
	_, err = ExtractTokenFromRequest(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "bearer abc")
	tok, err := ExtractTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	r = httptest.NewRequest(http.MethodGet, "/api/calendar/stream?token=xyz", nil)
	tok, err = ExtractTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)
}

func TestMiddlewareAndRequire(t *testing.T) {
	a, err := NewAuthenticator(context.Background(), config.AuthConfig{JWTSecret: "secret"}, logger.Discard())
	require.NoError(t, err)

	var seen *Principal
	h := a.Middleware(Require(CreateOrder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	call := func(p *Principal) int {
		r := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
		if p != nil {
			tok, err := GenerateToken("secret", time.Minute, p)
			require.NoError(t, err)
			r.Header.Set("Authorization", "Bearer "+tok)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(nil))
	assert.Equal(t, http.StatusForbidden, call(NewPrincipal("pic-1", []Role{RolePIC}, nil)))
	assert.Equal(t, http.StatusNoContent, call(NewPrincipal("sales-1", []Role{RoleSales}, nil)))
	require.NotNil(t, seen)
	assert.Equal(t, "sales-1", seen.UserID)
}
