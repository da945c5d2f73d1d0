package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateToken(t *testing.T) {
	a := New("secret", "", time.Hour)

	token, err := a.IssueToken("alice", RoleAdmin)
	require.NoError(t, err)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestValidateToken_Rejects(t *testing.T) {
	a := New("secret", "", time.Hour)
	other := New("other-secret", "", time.Hour)
	expired := New("secret", "", -time.Minute)

	foreign, err := other.IssueToken("mallory", RoleAdmin)
	require.NoError(t, err)
	_, err = a.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	old, err := expired.IssueToken("alice", RoleAdmin)
	require.NoError(t, err)
	_, err = a.ValidateToken(old)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = a.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCheckAPIKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	hash, err := HashAPIKey(key)
	require.NoError(t, err)

	a := New("secret", hash, time.Hour)
	assert.True(t, a.CheckAPIKey(key))
	assert.False(t, a.CheckAPIKey("wrong"))
	assert.False(t, a.CheckAPIKey(""))
	assert.False(t, New("secret", "", time.Hour).CheckAPIKey(key), "no hash configured")
}

func TestMiddleware(t *testing.T) {
	hash, err := HashAPIKey("k3y")
	require.NoError(t, err)
	a := New("secret", hash, time.Hour)
	m := NewMiddleware(a)
	admin, _ := a.IssueToken("alice", RoleAdmin)
	viewer, _ := a.IssueToken("bob", RoleViewer)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := m.RequireAuth(m.RequireAdmin(ok))

	tests := []struct {
		name   string
		header map[string]string
		query  string
		want   int
	}{
		{"no credentials", nil, "", http.StatusUnauthorized},
		{"bad api key", map[string]string{"X-API-Key": "nope"}, "", http.StatusUnauthorized},
		{"api key", map[string]string{"X-API-Key": "k3y"}, "", http.StatusNoContent},
		{"admin bearer", map[string]string{"Authorization": "Bearer " + admin}, "", http.StatusNoContent},
		{"viewer bearer", map[string]string{"Authorization": "Bearer " + viewer}, "", http.StatusForbidden},
		{"query token", nil, "?token=" + admin, http.StatusNoContent},
		{"garbage bearer", map[string]string{"Authorization": "Bearer x"}, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/"+tt.query, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
