package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mediagate/internal/domain"
)

// BatchRepo provides typed DynamoDB operations for the batches table.
// Batches are write-once; there is no update path.
type BatchRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBatchRepo(client *dynamodb.Client, tableName string) *BatchRepo {
	return &BatchRepo{client: client, tableName: tableName}
}

func (r *BatchRepo) Put(ctx context.Context, b *domain.Batch) error {
	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *BatchRepo) Get(ctx context.Context, batchID string) (*domain.Batch, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("batch_id", batchID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("batch %s: %w", batchID, domain.ErrBatchNotFound)
	}
	var b domain.Batch
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepo) List(ctx context.Context) ([]domain.Batch, error) {
	var batches []domain.Batch
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Batch
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		batches = append(batches, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return batches, nil
}

func (r *BatchRepo) Delete(ctx context.Context, batchID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("batch_id", batchID),
	})
	return err
}
