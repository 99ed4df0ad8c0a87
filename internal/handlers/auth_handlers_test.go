package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"habitta/internal/middleware"
	"habitta/internal/models"
)

type authEnv struct {
	router    *gin.Engine
	customers *fakeCustomers
	refresh   *fakeRefreshTokens
	now       time.Time
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	env := &authEnv{
		customers: newFakeCustomers(),
		refresh:   newFakeRefreshTokens(),
		now:       time.Now(),
	}
	issuer := &TokenIssuer{
		Secret:     testSecret,
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		Refresh:    env.refresh,
		Clock:      func() time.Time { return env.now },
	}

	r := gin.New()
	auth := r.Group("/api/auth")
	auth.POST("/register", Register(env.customers, issuer))
	auth.POST("/login", Login(env.customers, issuer))
	auth.POST("/refresh", Refresh(env.customers, issuer))
	auth.POST("/logout", Logout(env.refresh))
	auth.GET("/me", middleware.AuthGuard(testSecret), GetMe(env.customers))
	auth.PUT("/profile", middleware.AuthGuard(testSecret), UpdateProfile(env.customers))
	auth.PUT("/password", middleware.AuthGuard(testSecret), ChangePassword(env.customers))
	r.POST("/api/admin/login", AdminLogin(env.customers, issuer))
	env.router = r
	return env
}

func (e *authEnv) seed(t *testing.T, email, password, role string, active bool) models.Customer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	c := models.Customer{
		FirstName:    "Joana",
		LastName:     "Reis",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, e.customers.Create(context.Background(), &c))
	return c
}

func parseAccess(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	return claims
}

func TestRegisterIssuesCustomerTokens(t *testing.T) {
	env := newAuthEnv(t)

	body := map[string]any{
		"firstName": "Joana",
		"lastName":  "Reis",
		"email":     "Joana@Example.PT",
		"password":  "segredo1",
	}
	w := doJSON(t, env.router, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	out := decodeBody(t, w)
	user := out["user"].(map[string]any)
	assert.Equal(t, "joana@example.pt", user["email"])
	assert.Equal(t, models.RoleCustomer, user["role"])
	assert.Equal(t, 3600.0, out["expiresIn"])
	assert.NotEmpty(t, out["refreshToken"])

	claims := parseAccess(t, out["accessToken"].(string))
	assert.Equal(t, user["id"], claims["sub"])
	assert.Equal(t, models.RoleCustomer, claims["role"])
	assert.Equal(t, "joana@example.pt", claims["email"])

	w = doJSON(t, env.router, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, env.router, http.MethodPost, "/api/auth/register", "", map[string]any{"email": "x@y.pt", "password": "123"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["details"], "firstName is required")
}

func TestLogin(t *testing.T) {
	env := newAuthEnv(t)
	customer := env.seed(t, "joana@example.pt", "segredo1", models.RoleCustomer, true)
	env.seed(t, "inactive@example.pt", "segredo1", models.RoleCustomer, false)

	w := doJSON(t, env.router, http.MethodPost, "/api/auth/login", "", map[string]any{"email": " JOANA@example.pt ", "password": "segredo1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, customer.ID.Hex(), decodeBody(t, w)["user"].(map[string]any)["id"])
	assert.Contains(t, env.customers.touched, customer.ID)

	tests := []struct {
		name     string
		email    string
		password string
		status   int
	}{
		{"wrong password", "joana@example.pt", "errado", http.StatusUnauthorized},
		{"unknown email", "nobody@example.pt", "segredo1", http.StatusUnauthorized},
		{"inactive", "inactive@example.pt", "segredo1", http.StatusForbidden},
		{"missing password", "joana@example.pt", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, env.router, http.MethodPost, "/api/auth/login", "", map[string]any{"email": tt.email, "password": tt.password})
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newAuthEnv(t)
	env.seed(t, "joana@example.pt", "segredo1", models.RoleCustomer, true)

	w := doJSON(t, env.router, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "joana@example.pt", "password": "segredo1"})
	require.Equal(t, http.StatusOK, w.Code)
	first := decodeBody(t, w)["refreshToken"].(string)

	w = doJSON(t, env.router, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refreshToken": first})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decodeBody(t, w)["refreshToken"].(string)
	assert.NotEqual(t, first, second)

	w = doJSON(t, env.router, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refreshToken": first})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "a rotated token cannot be reused")

	env.now = env.now.Add(48 * time.Hour)
	w = doJSON(t, env.router, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refreshToken": second})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "refresh token expired", decodeBody(t, w)["error"])
}

func TestConcurrentRefreshHasOneWinner(t *testing.T) {
	env := newAuthEnv(t)
	env.seed(t, "joana@example.pt", "segredo1", models.RoleCustomer, true)

	w := doJSON(t, env.router, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "joana@example.pt", "password": "segredo1"})
	require.Equal(t, http.StatusOK, w.Code)
	body := []byte(`{"refreshToken":"` + decodeBody(t, w)["refreshToken"].(string) + `"}`)

	const attempts = 8
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, code := range codes {
		if code == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusUnauthorized, code)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newAuthEnv(t)
	env.seed(t, "joana@example.pt", "segredo1", models.RoleCustomer, true)

	w := doJSON(t, env.router, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "joana@example.pt", "password": "segredo1"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decodeBody(t, w)["refreshToken"].(string)

	w = doJSON(t, env.router, http.MethodPost, "/api/auth/logout", "", map[string]any{"refreshToken": token})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, env.router, http.MethodPost, "/api/auth/logout", "", map[string]any{"refreshToken": token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, env.router, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refreshToken": token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileEndpoints(t *testing.T) {
	env := newAuthEnv(t)
	customer := env.seed(t, "joana@example.pt", "segredo1", models.RoleCustomer, true)
	auth := bearer(t, customer.ID.Hex(), models.RoleCustomer)

	w := doJSON(t, env.router, http.MethodGet, "/api/auth/me", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decodeBody(t, w)["user"].(map[string]any)
	assert.Equal(t, "joana@example.pt", user["email"])
	assert.NotContains(t, user, "passwordHash")

	w = doJSON(t, env.router, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, env.router, http.MethodPut, "/api/auth/profile", auth, map[string]any{"phone": "+351910000000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "+351910000000", decodeBody(t, w)["user"].(map[string]any)["phone"])

	w = doJSON(t, env.router, http.MethodPut, "/api/auth/profile", auth, map[string]any{"nif": "12ab"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, env.router, http.MethodPut, "/api/auth/password", auth, map[string]any{"currentPassword": "errado", "newPassword": "novo-segredo"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, env.router, http.MethodPut, "/api/auth/password", auth, map[string]any{"currentPassword": "segredo1", "newPassword": "novo-segredo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, env.router, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "joana@example.pt", "password": "novo-segredo"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminLoginRequiresStaff(t *testing.T) {
	env := newAuthEnv(t)
	env.seed(t, "gestor@habitta.pt", "segredo1", models.RoleManager, true)
	env.seed(t, "joana@example.pt", "segredo1", models.RoleCustomer, true)

	w := doJSON(t, env.router, http.MethodPost, "/api/admin/login", "", map[string]any{"email": "gestor@habitta.pt", "password": "segredo1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	claims := parseAccess(t, decodeBody(t, w)["token"].(string))
	assert.Equal(t, models.RoleManager, claims["role"])
	assert.Empty(t, env.refresh.tokens)

	w = doJSON(t, env.router, http.MethodPost, "/api/admin/login", "", map[string]any{"email": "joana@example.pt", "password": "segredo1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
