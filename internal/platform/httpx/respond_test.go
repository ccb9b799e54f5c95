package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("wrap: %w", ErrNotFound), http.StatusNotFound},
		{ErrDuplicate, http.StatusConflict},
		{fmt.Errorf("%w: title", ErrValidation), http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("relation does not exist"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.code, rr.Code, tc.err.Error())
		body := decode(t, rr)
		assert.Equal(t, false, body["ok"])
	}
}

func TestRespondErrorPassesBackendMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("relation does not exist"))
	assert.Equal(t, "relation does not exist", decode(t, rr)["error"])
}

func TestOKMergesFields(t *testing.T) {
	rr := httptest.NewRecorder()
	OK(rr, map[string]any{"status": 201})
	body := decode(t, rr)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(201), body["status"])
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", ClientIP(req))
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(req))
}
