package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/todo-share/internal/config"
	"github.com/iliyamo/todo-share/internal/model"
	"github.com/iliyamo/todo-share/internal/repository"
	"github.com/iliyamo/todo-share/internal/utils"
)

type fakeTokenStore struct {
	valid     map[string]uint64 // hash -> userID
	stored    int
	revokeErr error
}

func (f *fakeTokenStore) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	f.valid[hash] = userID
	f.stored++
	return nil
}

func (f *fakeTokenStore) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	uid, ok := f.valid[hash]
	if !ok {
		return 0, errors.New("no such token")
	}
	return uid, nil
}

func (f *fakeTokenStore) RevokeByHash(_ context.Context, hash string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	delete(f.valid, hash)
	return nil
}

func newAuthFixture(tokens *fakeTokenStore) *AuthHandler {
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
	}
	users := &fakeUserStore{users: map[uint64]model.User{
		7: {ID: 7, Email: "u@example.com"},
	}}
	return NewAuthHandler(cfg, users, tokens)
}

func postRefresh(t *testing.T, h *AuthHandler, raw string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh",
		strings.NewReader(`{"refresh_token":"`+raw+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Refresh(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestRefreshRotatesAndRevokesOldToken(t *testing.T) {
	raw := "old-refresh-token"
	tokens := &fakeTokenStore{valid: map[string]uint64{
		utils.HashRefreshRaw(raw): 7,
	}}
	h := newAuthFixture(tokens)

	rec := postRefresh(t, h, raw)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if _, still := tokens.valid[utils.HashRefreshRaw(raw)]; still {
		t.Error("old refresh token still valid after rotation")
	}
	if tokens.stored != 1 {
		t.Errorf("stored %d new tokens, want 1", tokens.stored)
	}
	// Replay of the rotated token must now be rejected.
	if rec := postRefresh(t, h, raw); rec.Code != http.StatusUnauthorized {
		t.Errorf("replayed token status = %d, want 401", rec.Code)
	}
}

func TestRefreshAbortsWhenRevokeFails(t *testing.T) {
	raw := "old-refresh-token"
	tokens := &fakeTokenStore{
		valid:     map[string]uint64{utils.HashRefreshRaw(raw): 7},
		revokeErr: errors.New("db down"),
	}
	h := newAuthFixture(tokens)

	rec := postRefresh(t, h, raw)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 (body = %s)", rec.Code, rec.Body.String())
	}
	// No new pair may be minted while the old token is still live.
	if tokens.stored != 0 {
		t.Errorf("stored %d tokens despite failed revoke, want 0", tokens.stored)
	}
}

func TestLogoutRejectsUnknownToken(t *testing.T) {
	tokens := &fakeTokenStore{valid: map[string]uint64{}}
	h := newAuthFixture(tokens)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout",
		strings.NewReader(`{"refresh_token":"never-issued"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Logout(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

var _ TokenStore = (*repository.TokenRepo)(nil)
var _ UserStore = (*repository.UserRepo)(nil)
var _ ListStore = (*repository.ListRepo)(nil)
