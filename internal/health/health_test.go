package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sizing-bot/internal/logger"
)

func serve(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth_AllChecksPass(t *testing.T) {
	s := NewServer(0, "v1.0.0", logger.NewNop())
	s.RegisterCheck("ethereum", func(context.Context) (bool, string) { return true, "block 19000000" })

	rec := serve(s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, "v1.0.0", st.Version)
	assert.True(t, st.Checks["ethereum"].Healthy)

	assert.Equal(t, http.StatusOK, serve(s, "/ready").Code)
}

func TestHealth_FailingCheckDegrades(t *testing.T) {
	s := NewServer(0, "dev", logger.NewNop())
	s.RegisterCheck("ethereum", func(context.Context) (bool, string) { return false, "dial tcp: refused" })

	rec := serve(s, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var st Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, "degraded", st.Status)
	assert.Equal(t, "dial tcp: refused", st.Checks["ethereum"].Message)

	assert.Equal(t, http.StatusServiceUnavailable, serve(s, "/ready").Code)
	assert.Equal(t, http.StatusOK, serve(s, "/live").Code)
}
