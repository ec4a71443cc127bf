package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizchat/bizchat/pkg/auth"
	"github.com/bizchat/bizchat/pkg/chatstore"
)

type testAPI struct {
	store *chatstore.Store
	srv   *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	dsn, err := chatstore.DSNForFile(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	store, err := chatstore.New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := auth.NewTokenService("test-secret", time.Minute)
	require.NoError(t, err)
	verifier, err := auth.NewVerifier(tokens, store)
	require.NoError(t, err)
	handler, err := NewHandler(store, tokens, verifier)
	require.NoError(t, err)

	mux := http.NewServeMux()
	handler.Routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testAPI{store: store, srv: srv}
}

func (a *testAPI) postJSON(t *testing.T, path, token string, body any) *http.Response {
	t.Helper()
	return a.doJSON(t, http.MethodPost, path, token, body)
}

func (a *testAPI) doJSON(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, a.srv.URL+path, strings.NewReader(string(payload)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func (a *testAPI) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func (a *testAPI) registerAndLogin(t *testing.T, email, password string) string {
	t.Helper()
	resp := a.postJSON(t, "/auth/register", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	form := url.Values{"username": {email}, "password": {password}}
	resp, err := a.srv.Client().PostForm(a.srv.URL+"/auth/token", form)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))

	out := struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "bearer", out.TokenType)
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	resp := a.get(t, "/healthz", "")
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	a := newTestAPI(t)

	resp := a.postJSON(t, "/auth/register", "", map[string]string{"email": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = a.postJSON(t, "/auth/register", "", map[string]string{"email": "a@b.com", "password": "pw"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = a.postJSON(t, "/auth/register", "", map[string]string{"email": "a@b.com", "password": "pw"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestLoginRejectsBadPassword(t *testing.T) {
	a := newTestAPI(t)
	a.registerAndLogin(t, "a@b.com", "pw")

	form := url.Values{"username": {"a@b.com"}, "password": {"wrong"}}
	resp, err := a.srv.Client().PostForm(a.srv.URL+"/auth/token", form)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBusinessFlow(t *testing.T) {
	a := newTestAPI(t)
	token := a.registerAndLogin(t, "a@b.com", "pw")

	resp := a.get(t, "/business", token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	profile := map[string]string{
		"name":        "Alice's Bakery",
		"description": "Fresh bread daily",
		"services":    "bread, cakes",
	}
	resp = a.postJSON(t, "/business", token, profile)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = a.postJSON(t, "/business", token, profile)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	profile["address"] = "1 Main St"
	resp = a.doJSON(t, http.MethodPut, "/business", token, profile)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := struct {
		Address string `json:"address"`
	}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()
	assert.Equal(t, "1 Main St", out.Address)
}

func TestBusinessRequiresAuth(t *testing.T) {
	a := newTestAPI(t)

	resp := a.get(t, "/business", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = a.get(t, "/business", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestActivityReturnsNewestFirst(t *testing.T) {
	a := newTestAPI(t)
	token := a.registerAndLogin(t, "a@b.com", "pw")

	user, err := a.store.UserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		role := chatstore.RoleUser
		if i%2 == 1 {
			role = chatstore.RoleAssistant
		}
		_, err := a.store.AppendTurn(context.Background(), user.ID, role, "entry")
		require.NoError(t, err)
	}

	resp := a.get(t, "/business/activity", token)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entries := []struct {
		Role      string `json:"role"`
		Content   string `json:"content"`
		Timestamp int64  `json:"timestamp"`
	}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 5)
	// newest first: the last appended turn was a user turn
	assert.Equal(t, chatstore.RoleUser, entries[0].Role)
}
