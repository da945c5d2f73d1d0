package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","data":{"n":1}}`, rec.Body.String())
}

func TestWriteInternal_HidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteInternal(rec, zap.NewNop(), "query failed", errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestReadJSON(t *testing.T) {
	var dst struct{ A int }

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"A": 3}`))
	require.NoError(t, ReadJSON(req, &dst))
	assert.Equal(t, 3, dst.A)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"A": 3} {"A": 4}`))
	assert.Error(t, ReadJSON(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, ReadJSON(req, &dst))
}
