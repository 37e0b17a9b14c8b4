package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)

	token, err := m.GenerateAccessToken("user-1", "a@example.com", []string{ScopeReservationsMake})
	require.NoError(t, err)

	claims, err := m.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, []string{ScopeReservationsMake}, claims.Scopes)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	other := NewJWTManager("other", time.Minute)
	expired := NewJWTManager("secret", -time.Minute)

	foreign, err := other.GenerateAccessToken("user-1", "", nil)
	require.NoError(t, err)
	_, err = m.ParseAndValidate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	old, err := expired.GenerateAccessToken("user-1", "", nil)
	require.NoError(t, err)
	_, err = m.ParseAndValidate(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseAndValidate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNormalizeScopes(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "empty grants all", in: nil, want: []string{ScopeAll}},
		{name: "wildcard", in: []string{ScopeOfficeCreate, ScopeAll}, want: []string{ScopeAll}},
		{name: "unknown dropped", in: []string{"admin.everything", ScopeReservationsShow}, want: []string{ScopeReservationsShow}},
		{name: "duplicates dropped", in: []string{ScopeOfficeUpdate, ScopeOfficeUpdate}, want: []string{ScopeOfficeUpdate}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeScopes(tt.in))
		})
	}
}

func TestRequireScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewJWTManager("secret", time.Minute)

	r := gin.New()
	r.POST("/reservations", AuthRequired(m), RequireScope(ScopeReservationsMake), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"user": GetUserID(c)})
	})

	tests := []struct {
		name   string
		scopes []string
		header string
		want   int
	}{
		{name: "granted", scopes: []string{ScopeReservationsMake}, want: http.StatusCreated},
		{name: "wildcard", scopes: []string{ScopeAll}, want: http.StatusCreated},
		{name: "missing ability", scopes: []string{ScopeReservationsShow}, want: http.StatusForbidden},
		{name: "no token", header: "-", want: http.StatusUnauthorized},
		{name: "bad header", header: "Token abc", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/reservations", nil)
			switch tt.header {
			case "":
				token, err := m.GenerateAccessToken("user-1", "a@example.com", tt.scopes)
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+token)
			case "-":
			default:
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestBcryptPasswordHasher(t *testing.T) {
	h := NewBcryptPasswordHasherWithCost(4)
	hash, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "password123"))
	assert.Error(t, h.Compare(hash, "wrong"))
}

func TestBcryptPasswordHasher_ClampsCost(t *testing.T) {
	for _, cost := range []int{0, -1, bcrypt.MaxCost + 1} {
		h := NewBcryptPasswordHasherWithCost(cost)
		assert.Equal(t, bcrypt.DefaultCost, h.cost)
	}
	assert.Equal(t, 4, NewBcryptPasswordHasherWithCost(4).cost)
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewJWTManager("secret", time.Minute)

	r := gin.New()
	r.GET("/offices", OptionalAuth(m), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})

	token, err := m.GenerateAccessToken("host-1", "h@example.com", nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "anonymous", header: "", want: ""},
		{name: "valid token", header: "Bearer " + token, want: "host-1"},
		{name: "garbage token", header: "Bearer nope", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/offices", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}
