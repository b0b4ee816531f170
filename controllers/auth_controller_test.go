package controllers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/dbsec-lab/models"
)

func TestAliceAuthFlow(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodPost, "/auth/register", "", obj{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	requireStatus(t, w, http.StatusCreated)
	assert.Equal(t, "alice", decode(t, w)["user"].(map[string]any)["username"])

	w = env.do(t, http.MethodPost, "/auth/login", "", obj{"username": "alice", "password": "secret123"})
	requireStatus(t, w, http.StatusOK)
	body := decode(t, w)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "bearer", body["token_type"])
	assert.EqualValues(t, 1800, body["expires_in"])
	assert.Equal(t, false, body["user"].(map[string]any)["is_admin"])

	w = env.do(t, http.MethodPost, "/auth/login", "", obj{"username": "alice", "password": "wrong-password"})
	requireStatus(t, w, http.StatusUnauthorized)

	w = env.do(t, http.MethodGet, "/auth/verify", token, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, true, decode(t, w)["valid"])

	w = env.do(t, http.MethodGet, "/admin", token, nil)
	requireStatus(t, w, http.StatusForbidden)

	w = env.do(t, http.MethodPost, "/api/content", token, obj{"title": "x", "content_type": "exercise"})
	requireStatus(t, w, http.StatusForbidden)
}

func TestRegisterValidation(t *testing.T) {
	env := newEnv(t)
	env.createUser(t, "bob", false)

	tests := []struct {
		name string
		body obj
	}{
		{"short password", obj{"username": "carol", "email": "carol@example.com", "password": "123"}},
		{"bad email", obj{"username": "carol", "email": "not-an-email", "password": "secret123"}},
		{"missing username", obj{"email": "carol@example.com", "password": "secret123"}},
		{"taken username", obj{"username": "bob", "email": "bob2@example.com", "password": "secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/auth/register", "", tt.body)
			requireStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestLoginUnknownUser(t *testing.T) {
	env := newEnv(t)
	w := env.do(t, http.MethodPost, "/auth/login", "", obj{"username": "nobody", "password": "secret123"})
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestDisabledAccount(t *testing.T) {
	env := newEnv(t)
	token := env.createUser(t, "dave", false)

	_, err := env.users.SetFlags(context.Background(), "dave", models.UserFlags{IsActive: ptr(false)})
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/auth/login", "", obj{"username": "dave", "password": "password123"})
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, "Account is disabled", decode(t, w)["error"])

	// a token issued before the account was disabled stops working
	w = env.do(t, http.MethodGet, "/auth/verify", token, nil)
	requireStatus(t, w, http.StatusForbidden)
}

func TestAuthRejections(t *testing.T) {
	env := newEnv(t)
	ghostToken, err := env.tokens.GenerateToken("ghost")
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		requireStatus(t, env.do(t, http.MethodGet, "/auth/verify", "", nil), http.StatusUnauthorized)
	})
	t.Run("garbage token", func(t *testing.T) {
		requireStatus(t, env.do(t, http.MethodGet, "/auth/verify", "not.a.jwt", nil), http.StatusUnauthorized)
	})
	t.Run("unknown user", func(t *testing.T) {
		requireStatus(t, env.do(t, http.MethodGet, "/auth/verify", ghostToken, nil), http.StatusUnauthorized)
	})
	t.Run("malformed scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		requireStatus(t, w, http.StatusUnauthorized)
	})
	t.Run("X-Auth-Token header", func(t *testing.T) {
		token := env.createUser(t, "erin", false)
		req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
		req.Header.Set("X-Auth-Token", "Bearer "+token)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		requireStatus(t, w, http.StatusOK)
	})
}
