package validation

import (
	"unicode"

	kverrors "github.com/ringkv/ringkv/internal/errors"
)

const (
	// Size limits
	MaxKeySize    = 1024            // 1 KB
	MaxValueSize  = 1 * 1024 * 1024 // 1 MB
	MaxNodeIDSize = 128
)

// Validator validates cluster operation inputs
type Validator struct {
	maxKeySize    int
	maxValueSize  int
	maxNodeIDSize int
}

// NewValidator creates a new validator with default limits
func NewValidator() *Validator {
	return &Validator{
		maxKeySize:    MaxKeySize,
		maxValueSize:  MaxValueSize,
		maxNodeIDSize: MaxNodeIDSize,
	}
}

// NewValidatorWithLimits creates a validator with custom limits
func NewValidatorWithLimits(maxKeySize, maxValueSize, maxNodeIDSize int) *Validator {
	return &Validator{
		maxKeySize:    maxKeySize,
		maxValueSize:  maxValueSize,
		maxNodeIDSize: maxNodeIDSize,
	}
}

// ValidateKey validates a key
func (v *Validator) ValidateKey(key string) error {
	if key == "" {
		return kverrors.InvalidKey(key, "key must not be empty")
	}
	if len(key) > v.maxKeySize {
		return kverrors.KeyTooLarge(len(key), v.maxKeySize)
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return kverrors.InvalidKey(key, "key must not contain control characters")
		}
	}
	return nil
}

// ValidateValue validates a value
func (v *Validator) ValidateValue(value string) error {
	if len(value) > v.maxValueSize {
		return kverrors.ValueTooLarge(len(value), v.maxValueSize)
	}
	return nil
}

// ValidateNodeID validates a node identifier
func (v *Validator) ValidateNodeID(nodeID string) error {
	if nodeID == "" {
		return kverrors.InvalidNodeID(nodeID, "node ID must not be empty")
	}
	if len(nodeID) > v.maxNodeIDSize {
		return kverrors.InvalidNodeID(nodeID, "node ID exceeds maximum length")
	}
	for _, r := range nodeID {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return kverrors.InvalidNodeID(nodeID, "node ID must not contain whitespace or control characters")
		}
	}
	return nil
}
