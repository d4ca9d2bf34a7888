package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructReportsJSONFieldNames(t *testing.T) {
	type req struct {
		Amount     int `json:"amount" validate:"required,gt=0"`
		ExpiryDays int `json:"expiry_days" validate:"gte=0"`
	}

	err := Struct(req{Amount: 0, ExpiryDays: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'amount' is required")
	assert.Contains(t, err.Error(), "'expiry_days' must be at least 0")
}

func TestStructValidPasses(t *testing.T) {
	type req struct {
		Amount int `json:"amount" validate:"required,gt=0"`
	}
	assert.NoError(t, Struct(req{Amount: 3}))
}
