package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/dbsec-lab/controllers"
	"github.com/vnkhanh/dbsec-lab/models"
	"github.com/vnkhanh/dbsec-lab/routes"
	"github.com/vnkhanh/dbsec-lab/store"
	"github.com/vnkhanh/dbsec-lab/store/storetest"
	"github.com/vnkhanh/dbsec-lab/utils"
	"github.com/vnkhanh/dbsec-lab/ws"
)

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (m *memObjects) Upload(_ context.Context, key, contentType string, body io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return "https://assets.example.test/" + key, nil
}

type testEnv struct {
	router   *gin.Engine
	handler  *controllers.Handler
	users    store.UserStore
	contents store.ContentStore
	objects  *memObjects
	tokens   *utils.TokenManager
}

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := storetest.NewDB(t)
	env := &testEnv{
		users:    store.NewUserStore(db),
		contents: store.NewContentStore(db),
		objects:  &memObjects{objects: map[string][]byte{}, types: map[string]string{}},
		tokens:   utils.NewTokenManager("test-secret", 30*time.Minute),
	}
	env.handler = &controllers.Handler{
		Contents:       env.contents,
		Users:          env.users,
		Objects:        env.objects,
		Tokens:         env.tokens,
		Hub:            ws.NewHub(),
		Ping:           func(ctx context.Context) error { return store.Ping(ctx, db) },
		MaxUploadBytes: 1 << 20,
		Logger:         zerolog.Nop(),
		Now:            func() time.Time { return fixedNow },
	}
	env.router = routes.SetupRouter(gin.New(), env.handler)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// createUser stores a user directly and returns a token for it.
func (e *testEnv) createUser(t *testing.T, username string, admin bool) string {
	t.Helper()
	hashed, err := utils.HashPassword("password123")
	require.NoError(t, err)
	require.NoError(t, e.users.Create(context.Background(), &models.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: hashed,
		IsAdmin:        admin,
		IsActive:       true,
	}))
	token, err := e.tokens.GenerateToken(username)
	require.NoError(t, err)
	return token
}

func (e *testEnv) put(t *testing.T, recs ...models.ContentRecord) {
	t.Helper()
	for i := range recs {
		require.NoError(t, e.contents.Put(context.Background(), &recs[i]))
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type obj = map[string]any

func ptr[T any](v T) *T { return &v }

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
