package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osgbhub/osgbhub-backend/pkg/config"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }

func testDeps(dbErr, redisErr error) Deps {
	return Deps{
		Config: &config.Config{App: config.AppConfig{Env: "test"}},
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:     fakePinger{err: dbErr},
		Redis:  fakePinger{err: redisErr},
	}
}

func serve(router http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouterHealthLive(t *testing.T) {
	router := NewRouter(testDeps(nil, nil))

	w := serve(router, http.MethodGet, "/health/live")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", w.Header().Get("X-OSGBHub-Env"))

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Equal(t, "live", envelope.Data["status"])
}

func TestRouterHealthReady(t *testing.T) {
	router := NewRouter(testDeps(nil, nil))

	w := serve(router, http.MethodGet, "/health/ready")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouterHealthReadyDependencyDown(t *testing.T) {
	router := NewRouter(testDeps(nil, errors.New("connection refused")))

	w := serve(router, http.MethodGet, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var envelope struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Equal(t, "DEPENDENCY_ERROR", envelope.Error.Code)
	assert.Equal(t, "ok", envelope.Error.Details["database"])
	assert.Equal(t, "unreachable", envelope.Error.Details["redis"])
}

func TestRouterMetricsEndpoint(t *testing.T) {
	deps := testDeps(nil, nil)
	deps.Registry = prometheus.NewRegistry()
	router := NewRouter(deps)

	w := serve(router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterMetricsDisabledWithoutRegistry(t *testing.T) {
	router := NewRouter(testDeps(nil, nil))

	w := serve(router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter(testDeps(nil, nil))

	w := serve(router, http.MethodGet, "/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
