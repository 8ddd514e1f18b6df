package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode represents internal error codes for cluster operations
type ErrorCode int

const (
	// Success
	ErrCodeOK ErrorCode = 0

	// Client errors (4xx equivalent)
	ErrCodeInvalidArgument ErrorCode = 1000
	ErrCodeInvalidKey      ErrorCode = 1001
	ErrCodeKeyTooLarge     ErrorCode = 1002
	ErrCodeValueTooLarge   ErrorCode = 1003
	ErrCodeInvalidNodeID   ErrorCode = 1004

	// Topology errors
	ErrCodeDuplicateNode ErrorCode = 1100
	ErrCodeUnknownNode   ErrorCode = 1101
	ErrCodeEmptyRing     ErrorCode = 1102

	// Server errors (5xx equivalent)
	ErrCodeInternal     ErrorCode = 2000
	ErrCodePartialWrite ErrorCode = 2001
)

// ClusterError represents a structured error with code and context
type ClusterError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

// Error implements the error interface
func (e *ClusterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *ClusterError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps internal error codes to HTTP status codes
func (e *ClusterError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeOK:
		return http.StatusOK
	case ErrCodeInvalidArgument, ErrCodeInvalidKey, ErrCodeKeyTooLarge,
		ErrCodeValueTooLarge, ErrCodeInvalidNodeID:
		return http.StatusBadRequest
	case ErrCodeDuplicateNode:
		return http.StatusConflict
	case ErrCodeUnknownNode:
		return http.StatusNotFound
	case ErrCodeEmptyRing:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewClusterError creates a new ClusterError
func NewClusterError(code ErrorCode, message string, cause error) *ClusterError {
	return &ClusterError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Cause:   cause,
	}
}

// WithDetail adds a detail to the error
func (e *ClusterError) WithDetail(key string, value interface{}) *ClusterError {
	e.Details[key] = value
	return e
}

// Convenience constructors for common errors

func InvalidArgument(message string, cause error) *ClusterError {
	return NewClusterError(ErrCodeInvalidArgument, message, cause)
}

func InvalidKey(key, reason string) *ClusterError {
	return NewClusterError(ErrCodeInvalidKey, fmt.Sprintf("invalid key %q: %s", key, reason), nil).
		WithDetail("key", key).
		WithDetail("reason", reason)
}

func KeyTooLarge(size, maxSize int) *ClusterError {
	return NewClusterError(ErrCodeKeyTooLarge, fmt.Sprintf("key size %d exceeds maximum %d", size, maxSize), nil).
		WithDetail("size", size).
		WithDetail("max_size", maxSize)
}

func ValueTooLarge(size, maxSize int) *ClusterError {
	return NewClusterError(ErrCodeValueTooLarge, fmt.Sprintf("value size %d exceeds maximum %d", size, maxSize), nil).
		WithDetail("size", size).
		WithDetail("max_size", maxSize)
}

func InvalidNodeID(nodeID, reason string) *ClusterError {
	return NewClusterError(ErrCodeInvalidNodeID, fmt.Sprintf("invalid node ID %q: %s", nodeID, reason), nil).
		WithDetail("node_id", nodeID).
		WithDetail("reason", reason)
}

func DuplicateNode(nodeID string) *ClusterError {
	return NewClusterError(ErrCodeDuplicateNode, fmt.Sprintf("node %q is already a member of the ring", nodeID), nil).
		WithDetail("node_id", nodeID)
}

func UnknownNode(nodeID string) *ClusterError {
	return NewClusterError(ErrCodeUnknownNode, fmt.Sprintf("node %q is not a member of the ring", nodeID), nil).
		WithDetail("node_id", nodeID)
}

func EmptyRing() *ClusterError {
	return NewClusterError(ErrCodeEmptyRing, "hash ring has no registered nodes", nil)
}

func PartialWrite(key string, failedNodes []string, totalOwners int, cause error) *ClusterError {
	message := fmt.Sprintf("write for key %q failed on %d of %d owners: %s",
		key, len(failedNodes), totalOwners, strings.Join(failedNodes, ", "))
	return NewClusterError(ErrCodePartialWrite, message, cause).
		WithDetail("key", key).
		WithDetail("failed_nodes", failedNodes).
		WithDetail("total_owners", totalOwners)
}

func Internal(message string, cause error) *ClusterError {
	return NewClusterError(ErrCodeInternal, message, cause)
}

// IsClusterError checks if an error is a ClusterError
func IsClusterError(err error) bool {
	var ce *ClusterError
	return errors.As(err, &ce)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var ce *ClusterError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err is a ClusterError carrying the given code
func IsCode(err error, code ErrorCode) bool {
	var ce *ClusterError
	return errors.As(err, &ce) && ce.Code == code
}
