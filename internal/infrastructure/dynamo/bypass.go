package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mediagate/internal/domain"
)

// BypassRepo provides typed DynamoDB operations for the bypass attempts
// table. The table is append-only; rows are only ever removed wholesale by
// the operator clearing an owner's record.
type BypassRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBypassRepo(client *dynamodb.Client, tableName string) *BypassRepo {
	return &BypassRepo{client: client, tableName: tableName}
}

func (r *BypassRepo) Append(ctx context.Context, a *domain.BypassAttempt) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal bypass attempt: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// CountSince returns how many attempts an owner has logged after the given
// instant. Drives the auto-ban threshold.
func (r *BypassRepo) CountSince(ctx context.Context, ownerID int64, since time.Time) (int, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("owner_id-timestamp-index"),
		KeyConditionExpression: aws.String("owner_id = :o AND #ts > :since"),
		ExpressionAttributeNames: map[string]string{
			"#ts": "timestamp",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o":     &types.AttributeValueMemberN{Value: strconv.FormatInt(ownerID, 10)},
			":since": &types.AttributeValueMemberS{Value: since.UTC().Format(time.RFC3339Nano)},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, err
	}
	return int(out.Count), nil
}

// ListForOwner returns an owner's attempts, newest first.
func (r *BypassRepo) ListForOwner(ctx context.Context, ownerID int64) ([]domain.BypassAttempt, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("owner_id-timestamp-index"),
		KeyConditionExpression: aws.String("owner_id = :o"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": &types.AttributeValueMemberN{Value: strconv.FormatInt(ownerID, 10)},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var attempts []domain.BypassAttempt
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

// Clear removes all of an owner's attempts. Operator action after a manual
// review or unban.
func (r *BypassRepo) Clear(ctx context.Context, ownerID int64) (int, error) {
	attempts, err := r.ListForOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, a := range attempts {
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       strKey("attempt_id", a.AttemptID),
		}); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// Stats aggregates attempts per owner across the whole table.
func (r *BypassRepo) Stats(ctx context.Context) ([]domain.BypassStats, error) {
	var attempts []domain.BypassAttempt
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.BypassAttempt
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		attempts = append(attempts, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	byOwner := make(map[int64]*domain.BypassStats)
	order := []int64{}
	for _, a := range attempts {
		s, ok := byOwner[a.OwnerID]
		if !ok {
			s = &domain.BypassStats{OwnerID: a.OwnerID}
			byOwner[a.OwnerID] = s
			order = append(order, a.OwnerID)
		}
		s.Count++
		s.Kinds = appendUnique(s.Kinds, a.Kind)
		if a.Timestamp.After(s.LastAttempt) {
			s.LastAttempt = a.Timestamp
		}
	}
	stats := make([]domain.BypassStats, 0, len(order))
	for _, id := range order {
		stats = append(stats, *byOwner[id])
	}
	return stats, nil
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
