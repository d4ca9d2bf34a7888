package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrKey(t *testing.T) {
	key := strKey("batch_id", "abc123")
	require.Len(t, key, 1)
	assert.Equal(t, "abc123", key["batch_id"].(*types.AttributeValueMemberS).Value)
}

func TestNumKey(t *testing.T) {
	key := numKey("owner_id", -42)
	require.Len(t, key, 1)
	assert.Equal(t, "-42", key["owner_id"].(*types.AttributeValueMemberN).Value)
}

func TestNumPairKey(t *testing.T) {
	key := numPairKey("location_id", -1001234, "item_id", 7)
	require.Len(t, key, 2)
	assert.Equal(t, "-1001234", key["location_id"].(*types.AttributeValueMemberN).Value)
	assert.Equal(t, "7", key["item_id"].(*types.AttributeValueMemberN).Value)
}

func TestBuildUpdateExpr(t *testing.T) {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{
		"banned":  true,
		"balance": 5,
	})
	require.NoError(t, err)
	// Sorted field order: balance first, banned second.
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1", expr)
	assert.Equal(t, "balance", names["#f0"])
	assert.Equal(t, "banned", names["#f1"])
	assert.Equal(t, "5", values[":v0"].(*types.AttributeValueMemberN).Value)
	assert.Equal(t, true, values[":v1"].(*types.AttributeValueMemberBOOL).Value)
}

func TestBuildUpdateExprEmpty(t *testing.T) {
	_, _, _, err := buildUpdateExpr(map[string]interface{}{})
	assert.Error(t, err)
}
