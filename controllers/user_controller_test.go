package controllers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminManagesUsers(t *testing.T) {
	env := newEnv(t)
	root := env.createUser(t, "root", true)
	alice := env.createUser(t, "alice", false)

	w := env.do(t, http.MethodGet, "/api/admin/users", root, nil)
	requireStatus(t, w, http.StatusOK)
	users := decode(t, w)["users"].([]any)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].(map[string]any)["username"])
	assert.NotContains(t, w.Body.String(), "hashed_password")

	requireStatus(t, env.do(t, http.MethodGet, "/admin", alice, nil), http.StatusForbidden)

	w = env.do(t, http.MethodPatch, "/api/admin/users/alice", root, obj{"is_admin": true})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, true, decode(t, w)["user"].(map[string]any)["is_admin"])

	// the same token now passes the admin gate
	requireStatus(t, env.do(t, http.MethodGet, "/admin", alice, nil), http.StatusOK)

	u, err := env.users.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.True(t, u.IsActive)
}

func TestPatchUserRejections(t *testing.T) {
	env := newEnv(t)
	root := env.createUser(t, "root", true)
	alice := env.createUser(t, "alice", false)

	tests := []struct {
		name   string
		token  string
		path   string
		body   obj
		status int
	}{
		{"non-admin", alice, "/api/admin/users/root", obj{"is_admin": false}, http.StatusForbidden},
		{"own flags", root, "/api/admin/users/root", obj{"is_active": false}, http.StatusBadRequest},
		{"no fields", root, "/api/admin/users/alice", obj{}, http.StatusBadRequest},
		{"unknown user", root, "/api/admin/users/ghost", obj{"is_active": false}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireStatus(t, env.do(t, http.MethodPatch, tt.path, tt.token, tt.body), tt.status)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	requireStatus(t, w, http.StatusOK)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ok", body["db"])

	env.handler.Ping = func(context.Context) error { return errors.New("connection refused") }
	w = env.do(t, http.MethodGet, "/health", "", nil)
	requireStatus(t, w, http.StatusServiceUnavailable)
	assert.Equal(t, "degraded", decode(t, w)["status"])
}
