package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	kverrors "github.com/ringkv/ringkv/internal/errors"
)

func TestValidator_ValidateKey(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		key      string
		wantCode kverrors.ErrorCode
	}{
		{"valid key", "user:1", kverrors.ErrCodeOK},
		{"empty key", "", kverrors.ErrCodeInvalidKey},
		{"key with control character", "user\x001", kverrors.ErrCodeInvalidKey},
		{"oversized key", strings.Repeat("a", MaxKeySize+1), kverrors.ErrCodeKeyTooLarge},
		{"key at limit", strings.Repeat("a", MaxKeySize), kverrors.ErrCodeOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateKey(tt.key)
			if tt.wantCode == kverrors.ErrCodeOK {
				assert.NoError(t, err)
			} else {
				assert.True(t, kverrors.IsCode(err, tt.wantCode))
			}
		})
	}
}

func TestValidator_ValidateValue(t *testing.T) {
	v := NewValidatorWithLimits(16, 32, 16)

	assert.NoError(t, v.ValidateValue(""))
	assert.NoError(t, v.ValidateValue(strings.Repeat("v", 32)))
	assert.True(t, kverrors.IsCode(v.ValidateValue(strings.Repeat("v", 33)), kverrors.ErrCodeValueTooLarge))
}

func TestValidator_ValidateNodeID(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		nodeID   string
		wantCode kverrors.ErrorCode
	}{
		{"valid id", "node-1", kverrors.ErrCodeOK},
		{"empty id", "", kverrors.ErrCodeInvalidNodeID},
		{"id with space", "node 1", kverrors.ErrCodeInvalidNodeID},
		{"id with newline", "node\n1", kverrors.ErrCodeInvalidNodeID},
		{"oversized id", strings.Repeat("n", MaxNodeIDSize+1), kverrors.ErrCodeInvalidNodeID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateNodeID(tt.nodeID)
			if tt.wantCode == kverrors.ErrCodeOK {
				assert.NoError(t, err)
			} else {
				assert.True(t, kverrors.IsCode(err, tt.wantCode))
			}
		})
	}
}
