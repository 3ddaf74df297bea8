package testutil

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// MustSetTestEnvironment sets GO_ENV=test for suites that build the full router
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()
	t.Setenv("GO_ENV", "test")
}

// Envelope is the decoded standard response body
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details"`
	} `json:"error"`
}

// ErrorCode returns the error code or an empty string on success
func (e Envelope) ErrorCode() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Code
}

// DoJSON sends a request with an optional JSON body and decodes the envelope
func DoJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env Envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix([]byte(w.Header().Get("Content-Type")), []byte("application/json")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	}
	return w, env
}

// DecodeData unmarshals the envelope data into out
func DecodeData(t *testing.T, env Envelope, out interface{}) {
	t.Helper()
	require.True(t, env.Success, "expected success envelope, got error %+v", env.Error)
	require.NoError(t, json.Unmarshal(env.Data, out))
}
