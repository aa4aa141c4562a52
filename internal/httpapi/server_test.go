// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debtwise/debtwise/internal/auth"
	"github.com/debtwise/debtwise/internal/auth/authtest"
	"github.com/debtwise/debtwise/internal/fault"
	"github.com/debtwise/debtwise/internal/httpapi"
)

// errorEnvelope mirrors the canonical error body.
type errorEnvelope struct {
	Success    bool                `json:"success"`
	StatusCode int                 `json:"statusCode"`
	ErrorCode  string              `json:"errorCode"`
	Message    string              `json:"message"`
	Details    map[string][]string `json:"details"`
	Timestamp  string              `json:"timestamp"`
	Path       string              `json:"path"`
	RequestID  string              `json:"requestId"`
}

func newTestServer(t *testing.T) *httpapi.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := authtest.NewFakeUserRepository()
	tokens, err := auth.NewTokenService([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	svc, err := auth.NewService(repo, auth.NewBcryptHasher(), tokens, logger)
	require.NoError(t, err)

	classifier, err := fault.NewClassifier(fault.NewRegistry(), logger)
	require.NoError(t, err)

	server, err := httpapi.NewServer("127.0.0.1:0", svc, tokens, classifier, nil, logger, "test")
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return env
}

func registerBody() map[string]any {
	return map[string]any{
		"email":     "bob@example.com",
		"firstName": "Bob",
		"lastName":  "Mehta",
		"password":  "Passw0rd1",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("creates a user and returns 201 with session", func(t *testing.T) {
		h := newTestServer(t).Handler()

		rec := doJSON(t, h, http.MethodPost, "/auth/register", registerBody(), nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var session struct {
			User struct {
				Email       string `json:"email"`
				Active      bool   `json:"active"`
				Preferences struct {
					Currency string `json:"currency"`
					Strategy string `json:"strategy"`
					Theme    string `json:"theme"`
				} `json:"preferences"`
			} `json:"user"`
			Tokens struct {
				AccessToken  string `json:"accessToken"`
				RefreshToken string `json:"refreshToken"`
			} `json:"tokens"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
		assert.Equal(t, "bob@example.com", session.User.Email)
		assert.True(t, session.User.Active)
		assert.Equal(t, "INR", session.User.Preferences.Currency)
		assert.Equal(t, "snowball", session.User.Preferences.Strategy)
		assert.Equal(t, "light", session.User.Preferences.Theme)
		assert.NotEmpty(t, session.Tokens.AccessToken)
		assert.NotEmpty(t, session.Tokens.RefreshToken)
		assert.NotContains(t, rec.Body.String(), "passwordHash")
	})

	t.Run("duplicate email returns 409 DB_DUPLICATE_ENTRY", func(t *testing.T) {
		h := newTestServer(t).Handler()
		rec := doJSON(t, h, http.MethodPost, "/auth/register", registerBody(), nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doJSON(t, h, http.MethodPost, "/auth/register", registerBody(), nil)
		require.Equal(t, http.StatusConflict, rec.Code)

		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)
		assert.Equal(t, "DB_DUPLICATE_ENTRY", env.ErrorCode)
		assert.Equal(t, "/auth/register", env.Path)
		assert.NotEmpty(t, env.RequestID)
		assert.NotEmpty(t, env.Timestamp)
	})

	t.Run("missing fields return 400 with per-field details", func(t *testing.T) {
		h := newTestServer(t).Handler()

		rec := doJSON(t, h, http.MethodPost, "/auth/register", map[string]any{
			"email": "bob@example.com",
		}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		env := decodeEnvelope(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", env.ErrorCode)
		assert.Contains(t, env.Details, "firstName")
		assert.Contains(t, env.Details, "lastName")
		assert.Contains(t, env.Details, "password")
	})

	t.Run("short password is a field violation", func(t *testing.T) {
		h := newTestServer(t).Handler()

		body := registerBody()
		body["password"] = "short"
		rec := doJSON(t, h, http.MethodPost, "/auth/register", body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		env := decodeEnvelope(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", env.ErrorCode)
		assert.Contains(t, env.Details, "password")
	})

	t.Run("non-JSON body is a 400", func(t *testing.T) {
		h := newTestServer(t).Handler()

		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("not json"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", env.ErrorCode)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("correct credentials return a session", func(t *testing.T) {
		h := newTestServer(t).Handler()
		rec := doJSON(t, h, http.MethodPost, "/auth/register", registerBody(), nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doJSON(t, h, http.MethodPost, "/auth/login", map[string]any{
			"email":    "bob@example.com",
			"password": "Passw0rd1",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("wrong password and unknown email return identical 401 bodies", func(t *testing.T) {
		h := newTestServer(t).Handler()
		rec := doJSON(t, h, http.MethodPost, "/auth/register", registerBody(), nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		wrong := doJSON(t, h, http.MethodPost, "/auth/login", map[string]any{
			"email":    "bob@example.com",
			"password": "WrongPass1",
		}, nil)
		unknown := doJSON(t, h, http.MethodPost, "/auth/login", map[string]any{
			"email":    "ghost@example.com",
			"password": "Passw0rd1",
		}, nil)

		require.Equal(t, http.StatusUnauthorized, wrong.Code)
		require.Equal(t, http.StatusUnauthorized, unknown.Code)

		wrongEnv := decodeEnvelope(t, wrong)
		unknownEnv := decodeEnvelope(t, unknown)
		assert.Equal(t, "AUTH_INVALID_CREDENTIALS", wrongEnv.ErrorCode)
		assert.Equal(t, wrongEnv.ErrorCode, unknownEnv.ErrorCode)
		assert.Equal(t, wrongEnv.Message, unknownEnv.Message)
		assert.Equal(t, wrongEnv.StatusCode, unknownEnv.StatusCode)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := doJSON(t, h, http.MethodPost, "/auth/register", registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session struct {
		Tokens struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	t.Run("refresh token mints a new pair", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/auth/refresh", map[string]any{
			"refreshToken": session.Tokens.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var pair struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("access token is rejected with AUTH_INVALID_TOKEN", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/auth/refresh", map[string]any{
			"refreshToken": session.Tokens.AccessToken,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_INVALID_TOKEN", decodeEnvelope(t, rec).ErrorCode)
	})

	t.Run("garbage token is rejected with AUTH_INVALID_TOKEN", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/auth/refresh", map[string]any{
			"refreshToken": "garbage",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_INVALID_TOKEN", decodeEnvelope(t, rec).ErrorCode)
	})
}

func TestMeEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := doJSON(t, h, http.MethodPost, "/auth/register", registerBody(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session struct {
		Tokens struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	t.Run("access token returns the sanitized user", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/auth/me", nil, map[string]string{
			"Authorization": "Bearer " + session.Tokens.AccessToken,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "bob@example.com")
		assert.NotContains(t, rec.Body.String(), "passwordHash")
	})

	t.Run("missing token is a 401", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/auth/me", nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_INVALID_TOKEN", decodeEnvelope(t, rec).ErrorCode)
	})

	t.Run("refresh token is not an access credential", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/auth/me", nil, map[string]string{
			"Authorization": "Bearer " + session.Tokens.RefreshToken,
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTH_INVALID_TOKEN", decodeEnvelope(t, rec).ErrorCode)
	})
}

func TestRequestIDPropagation(t *testing.T) {
	t.Run("client-supplied id is honored", func(t *testing.T) {
		h := newTestServer(t).Handler()

		rec := doJSON(t, h, http.MethodPost, "/auth/login", map[string]any{
			"email":    "ghost@example.com",
			"password": "whatever1",
		}, map[string]string{"X-Request-ID": "client-chosen-id"})

		assert.Equal(t, "client-chosen-id", rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "client-chosen-id", decodeEnvelope(t, rec).RequestID)
	})

	t.Run("missing id is generated and echoed", func(t *testing.T) {
		h := newTestServer(t).Handler()

		rec := doJSON(t, h, http.MethodGet, "/healthz", nil, nil)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServerStartStop(t *testing.T) {
	server := newTestServer(t)

	errCh, err := server.Start()
	require.NoError(t, err)
	require.NotEmpty(t, server.Addr())

	resp, err := http.Get("http://" + server.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	// Idle keep-alive connections would trip the leak detector.
	http.DefaultClient.CloseIdleConnections()

	ctx, cancel := contextWithTimeout(t)
	defer cancel()
	require.NoError(t, server.Stop(ctx))

	// Channel closes on graceful stop.
	select {
	case serveErr, ok := <-errCh:
		if ok {
			t.Fatalf("unexpected serve error: %v", serveErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("error channel not closed after Stop")
	}
}
