package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterError_HTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *ClusterError
		want int
	}{
		{"invalid key", InvalidKey("", "empty"), http.StatusBadRequest},
		{"key too large", KeyTooLarge(2048, 1024), http.StatusBadRequest},
		{"value too large", ValueTooLarge(2 << 20, 1 << 20), http.StatusBadRequest},
		{"invalid node id", InvalidNodeID("", "empty"), http.StatusBadRequest},
		{"duplicate node", DuplicateNode("node-1"), http.StatusConflict},
		{"unknown node", UnknownNode("node-1"), http.StatusNotFound},
		{"empty ring", EmptyRing(), http.StatusServiceUnavailable},
		{"partial write", PartialWrite("k", []string{"node-1"}, 2, nil), http.StatusInternalServerError},
		{"internal", Internal("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestClusterError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Internal("wrapper", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "wrapper: root cause", err.Error())
}

func TestClusterError_Details(t *testing.T) {
	err := PartialWrite("user:1", []string{"node-2", "node-3"}, 3, nil)

	assert.Equal(t, "user:1", err.Details["key"])
	assert.Equal(t, []string{"node-2", "node-3"}, err.Details["failed_nodes"])
	assert.Equal(t, 3, err.Details["total_owners"])
	assert.Contains(t, err.Error(), "node-2, node-3")
}

func TestIsCode(t *testing.T) {
	err := DuplicateNode("node-1")

	assert.True(t, IsCode(err, ErrCodeDuplicateNode))
	assert.False(t, IsCode(err, ErrCodeUnknownNode))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrCodeDuplicateNode))

	wrapped := fmt.Errorf("context: %w", err)
	assert.True(t, IsCode(wrapped, ErrCodeDuplicateNode))
}

func TestGetCode(t *testing.T) {
	require.Equal(t, ErrCodeEmptyRing, GetCode(EmptyRing()))
	require.Equal(t, ErrCodeInternal, GetCode(fmt.Errorf("plain")))
}

func TestIsClusterError(t *testing.T) {
	assert.True(t, IsClusterError(UnknownNode("n")))
	assert.False(t, IsClusterError(fmt.Errorf("plain")))
}
