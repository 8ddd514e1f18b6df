package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ringkv/ringkv/internal/metrics"
	"github.com/ringkv/ringkv/internal/service"
)

// setupRouter builds a router backed by a fresh cluster
func setupRouter(t *testing.T) *mux.Router {
	t.Helper()

	cluster := service.NewClusterService(
		service.Config{VirtualNodes: 32, ReplicationFactor: 2},
		metrics.NewMetrics(prometheus.NewRegistry()),
		zap.NewNop(),
	)

	router := mux.NewRouter()
	NewClusterHandler(cluster, zap.NewNop()).Register(router)
	return router
}

// doJSON performs a request with an optional JSON body
func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func addNode(t *testing.T, router *mux.Router, nodeID string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/cluster/nodes", addNodeRequest{NodeID: nodeID})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandler_PutGetRoundtrip(t *testing.T) {
	router := setupRouter(t)
	addNode(t, router, "node-1")
	addNode(t, router, "node-2")

	rec := doJSON(t, router, http.MethodPut, "/kv/user:1", putRequest{Value: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/kv/user:1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp getResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user:1", resp.Key)
	assert.Equal(t, "alice", resp.Value)
}

func TestHandler_GetMissingKey(t *testing.T) {
	router := setupRouter(t)
	addNode(t, router, "node-1")

	rec := doJSON(t, router, http.MethodGet, "/kv/absent", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_PutEmptyRing(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/kv/user:1", putRequest{Value: "v"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_Delete(t *testing.T) {
	router := setupRouter(t)
	addNode(t, router, "node-1")

	rec := doJSON(t, router, http.MethodPut, "/kv/user:1", putRequest{Value: "v"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/kv/user:1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/kv/user:1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_AddNode_Duplicate(t *testing.T) {
	router := setupRouter(t)
	addNode(t, router, "node-1")

	rec := doJSON(t, router, http.MethodPost, "/cluster/nodes", addNodeRequest{NodeID: "node-1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_AddNode_InvalidBody(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/cluster/nodes", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RemoveNode_Unknown(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(t, router, http.MethodDelete, "/cluster/nodes/node-9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_RebalanceAndDistribution(t *testing.T) {
	router := setupRouter(t)
	addNode(t, router, "node-1")
	addNode(t, router, "node-2")

	for i := 0; i < 50; i++ {
		rec := doJSON(t, router, http.MethodPut, fmt.Sprintf("/kv/user:%d", i), putRequest{Value: "v"})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	addNode(t, router, "node-3")

	rec := doJSON(t, router, http.MethodPost, "/cluster/rebalance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		RunID        string `json:"run_id"`
		KeysExamined int    `json:"keys_examined"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 50, report.KeysExamined)

	rec = doJSON(t, router, http.MethodGet, "/cluster/distribution", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dist distributionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dist))
	assert.Equal(t, 100, dist.Total)
	assert.Greater(t, dist.Nodes["node-3"], 0)
}

func TestHandler_CountKeys(t *testing.T) {
	router := setupRouter(t)
	addNode(t, router, "node-1")
	addNode(t, router, "node-2")

	for i := 0; i < 20; i++ {
		rec := doJSON(t, router, http.MethodPut, fmt.Sprintf("/kv/user:%d", i), putRequest{Value: "v"})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/cluster/keys/count?prefix=user:", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp countResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user:", resp.Prefix)
	assert.Equal(t, 20, resp.Count)
}

func TestHandler_Health(t *testing.T) {
	router := setupRouter(t)
	addNode(t, router, "node-1")

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
