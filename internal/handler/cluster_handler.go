package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	kverrors "github.com/ringkv/ringkv/internal/errors"
	"github.com/ringkv/ringkv/internal/service"
)

// ClusterHandler exposes the cluster API over HTTP
type ClusterHandler struct {
	cluster *service.ClusterService
	logger  *zap.Logger
}

// NewClusterHandler creates a new cluster handler
func NewClusterHandler(cluster *service.ClusterService, logger *zap.Logger) *ClusterHandler {
	return &ClusterHandler{
		cluster: cluster,
		logger:  logger,
	}
}

// Register installs all routes on the router
func (h *ClusterHandler) Register(r *mux.Router) {
	r.HandleFunc("/kv/{key}", h.handlePut).Methods(http.MethodPut)
	r.HandleFunc("/kv/{key}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/kv/{key}", h.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/cluster/nodes", h.handleAddNode).Methods(http.MethodPost)
	r.HandleFunc("/cluster/nodes/{nodeID}", h.handleRemoveNode).Methods(http.MethodDelete)
	r.HandleFunc("/cluster/rebalance", h.handleRebalance).Methods(http.MethodPost)
	r.HandleFunc("/cluster/distribution", h.handleDistribution).Methods(http.MethodGet)
	r.HandleFunc("/cluster/keys/count", h.handleCountKeys).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
}

type putRequest struct {
	Value string `json:"value"`
}

type getResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type addNodeRequest struct {
	NodeID string `json:"node_id"`
}

type nodeResponse struct {
	NodeID      string `json:"node_id"`
	ClusterSize int    `json:"cluster_size"`
}

type countResponse struct {
	Prefix string `json:"prefix"`
	Count  int    `json:"count"`
}

type distributionResponse struct {
	Nodes map[string]int `json:"nodes"`
	Total int            `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

func (h *ClusterHandler) handlePut(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req putRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, kverrors.InvalidArgument("request body must be JSON with a value field", err))
		return
	}

	if err := h.cluster.Put(r.Context(), key, req.Value); err != nil {
		h.logger.Warn("Put failed", zap.String("key", key), zap.Error(err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, getResponse{Key: key, Value: req.Value})
}

func (h *ClusterHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	value, found, err := h.cluster.Get(r.Context(), key)
	if err != nil {
		h.logger.Warn("Get failed", zap.String("key", key), zap.Error(err))
		h.writeError(w, err)
		return
	}
	if !found {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "key not found"})
		return
	}

	h.writeJSON(w, http.StatusOK, getResponse{Key: key, Value: value})
}

func (h *ClusterHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	if err := h.cluster.Delete(r.Context(), key); err != nil {
		h.logger.Warn("Delete failed", zap.String("key", key), zap.Error(err))
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ClusterHandler) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, kverrors.InvalidArgument("request body must be JSON with a node_id field", err))
		return
	}

	if err := h.cluster.AddNode(r.Context(), req.NodeID); err != nil {
		h.logger.Warn("Add node failed", zap.String("node_id", req.NodeID), zap.Error(err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, nodeResponse{
		NodeID:      req.NodeID,
		ClusterSize: h.cluster.NodeCount(),
	})
}

func (h *ClusterHandler) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID := mux.Vars(r)["nodeID"]

	if err := h.cluster.RemoveNode(r.Context(), nodeID); err != nil {
		h.logger.Warn("Remove node failed", zap.String("node_id", nodeID), zap.Error(err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, nodeResponse{
		NodeID:      nodeID,
		ClusterSize: h.cluster.NodeCount(),
	})
}

func (h *ClusterHandler) handleRebalance(w http.ResponseWriter, r *http.Request) {
	report, err := h.cluster.Rebalance(r.Context())
	if err != nil {
		h.logger.Error("Rebalance failed", zap.Error(err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

func (h *ClusterHandler) handleDistribution(w http.ResponseWriter, r *http.Request) {
	dist := h.cluster.Distribution()

	total := 0
	for _, count := range dist {
		total += count
	}

	h.writeJSON(w, http.StatusOK, distributionResponse{Nodes: dist, Total: total})
}

func (h *ClusterHandler) handleCountKeys(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	count, err := h.cluster.CountKeysWithPrefix(r.Context(), prefix)
	if err != nil {
		h.logger.Warn("Prefix count failed", zap.String("prefix", prefix), zap.Error(err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, countResponse{Prefix: prefix, Count: count})
}

func (h *ClusterHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"cluster_size": h.cluster.NodeCount(),
	})
}

// writeJSON writes a JSON response with the given status code
func (h *ClusterHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps cluster errors to HTTP status codes
func (h *ClusterHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := kverrors.ErrCodeInternal

	var ce *kverrors.ClusterError
	if errors.As(err, &ce) {
		status = ce.HTTPStatus()
		code = ce.Code
	}

	h.writeJSON(w, status, errorResponse{Error: err.Error(), Code: int(code)})
}
