package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mediagate/internal/domain"
)

// SettingsRepo provides typed DynamoDB operations for the runtime settings
// table. Values are stored as strings; callers parse them. The round-robin
// counter is the one exception, kept numeric so it can be bumped atomically.
type SettingsRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSettingsRepo(client *dynamodb.Client, tableName string) *SettingsRepo {
	return &SettingsRepo{client: client, tableName: tableName}
}

func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("setting_key", key),
	})
	if err != nil {
		return "", err
	}
	if out.Item == nil {
		return "", fmt.Errorf("setting %s: %w", key, domain.ErrNotFound)
	}
	v, ok := out.Item["setting_value"].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("setting %s has no value: %w", key, domain.ErrNotFound)
	}
	return v.Value, nil
}

func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"setting_key":   &types.AttributeValueMemberS{Value: key},
			"setting_value": &types.AttributeValueMemberS{Value: value},
		},
	})
	return err
}

// All returns every stored setting as a key->value map.
func (r *SettingsRepo) All(ctx context.Context) (map[string]string, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	settings := make(map[string]string, len(out.Items))
	for _, item := range out.Items {
		k, kOK := item["setting_key"].(*types.AttributeValueMemberS)
		v, vOK := item["setting_value"].(*types.AttributeValueMemberS)
		if kOK && vOK {
			settings[k.Value] = v.Value
		}
	}
	return settings, nil
}

// NextCounter atomically bumps a numeric counter setting and returns the new
// value. Used for round-robin upload location selection.
func (r *SettingsRepo) NextCounter(ctx context.Context, key string) (int64, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("setting_key", key),
		UpdateExpression: aws.String("ADD counter_value :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	v, ok := out.Attributes["counter_value"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("counter %s: unexpected attribute shape", key)
	}
	return strconv.ParseInt(v.Value, 10, 64)
}
