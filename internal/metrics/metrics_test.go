package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sizing-bot/internal/logger"
)

func TestPrometheusEndpointExposesCounters(t *testing.T) {
	ctx := context.Background()
	mp, err := NewMetricProvider(ctx, Settings{ServiceName: "sizer-test"})
	require.NoError(t, err)
	defer mp.Shutdown(ctx)

	counter, err := mp.Meter("test").Int64Counter("sizing_runs_total")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	srv := NewServer(0, mp.Registry, logger.NewNop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), "sizing_runs_total")
}
