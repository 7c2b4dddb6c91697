package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyLimitRejectsDeclaredOversize(t *testing.T) {
	called := false
	handler := RequestID(BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"too long"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "payload_too_large", body.Error.Code)
	assert.NotEmpty(t, body.RequestID)
}

func TestBodyLimitCapsUndeclaredBodies(t *testing.T) {
	var readErr error
	handler := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"name":"too long"}`))
	req.ContentLength = -1
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var tooLarge *http.MaxBytesError
	assert.ErrorAs(t, readErr, &tooLarge)
}

func TestBodyLimitPassesSmallBodies(t *testing.T) {
	var got string
	handler := BodyLimit(64)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		got = string(data)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ok":true}`))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, `{"ok":true}`, got)
}
