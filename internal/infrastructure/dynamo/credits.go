package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mediagate/internal/domain"
)

// CreditRepo provides typed DynamoDB operations for the credit accounts
// table. Accounts are upserted lazily: the first credit or debit against an
// owner id creates the row. Balance mutations are single conditional
// updates, never read-modify-write.
type CreditRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCreditRepo(client *dynamodb.Client, tableName string) *CreditRepo {
	return &CreditRepo{client: client, tableName: tableName}
}

func (r *CreditRepo) Get(ctx context.Context, ownerID int64) (*domain.CreditAccount, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       numKey("owner_id", ownerID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("credit account: %w", domain.ErrNotFound)
	}
	var a domain.CreditAccount
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Credit adds amount to the balance and audit totals, appends a transaction,
// and overwrites the expiry when one is given. Upserts the account.
func (r *CreditRepo) Credit(ctx context.Context, ownerID int64, amount int, txnType, reason string, expiry *time.Time, now time.Time) error {
	txnAV, err := marshalTxn(txnType, amount, reason, now)
	if err != nil {
		return err
	}
	expr := "SET transactions = list_append(if_not_exists(transactions, :empty), :txn) ADD balance :amt, total_earned :amt"
	values := map[string]types.AttributeValue{
		":amt":   &types.AttributeValueMemberN{Value: strconv.Itoa(amount)},
		":txn":   txnAV,
		":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
	}
	if expiry != nil {
		expr = "SET expiry = :exp, transactions = list_append(if_not_exists(transactions, :empty), :txn) ADD balance :amt, total_earned :amt"
		values[":exp"] = &types.AttributeValueMemberS{Value: expiry.UTC().Format(time.RFC3339Nano)}
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       numKey("owner_id", ownerID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeValues: values,
	})
	return err
}

// DebitOne atomically spends a single credit. The balance guard is part of
// the same write, so two concurrent debits of a one-credit account cannot
// both succeed; the loser gets ErrInsufficientCredit.
func (r *CreditRepo) DebitOne(ctx context.Context, ownerID int64, reason string, now time.Time) error {
	txnAV, err := marshalTxn(domain.TxnSpent, 1, reason, now)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 numKey("owner_id", ownerID),
		UpdateExpression:    aws.String("SET transactions = list_append(if_not_exists(transactions, :empty), :txn) ADD balance :neg, total_spent :one"),
		ConditionExpression: aws.String("balance >= :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":neg":   &types.AttributeValueMemberN{Value: "-1"},
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":txn":   txnAV,
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("balance is zero: %w", domain.ErrInsufficientCredit)
		}
		return err
	}
	return nil
}

// SetBalance overwrites the balance outright (operator action).
func (r *CreditRepo) SetBalance(ctx context.Context, ownerID int64, amount int, txnType, reason string, expiry *time.Time, now time.Time) error {
	txnAV, err := marshalTxn(txnType, amount, reason, now)
	if err != nil {
		return err
	}
	expr := "SET balance = :amt, transactions = list_append(if_not_exists(transactions, :empty), :txn)"
	values := map[string]types.AttributeValue{
		":amt":   &types.AttributeValueMemberN{Value: strconv.Itoa(amount)},
		":txn":   txnAV,
		":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
	}
	if expiry != nil {
		expr += ", expiry = :exp"
		values[":exp"] = &types.AttributeValueMemberS{Value: expiry.UTC().Format(time.RFC3339Nano)}
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       numKey("owner_id", ownerID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeValues: values,
	})
	return err
}

// Expire zeroes an account whose expiry has passed, recording the forfeited
// amount. Conditioned on the balance still being what the sweep read, so a
// concurrent credit is not silently destroyed.
func (r *CreditRepo) Expire(ctx context.Context, ownerID int64, oldBalance int, now time.Time) error {
	txnAV, err := marshalTxn(domain.TxnExpired, oldBalance, "credit expiry", now)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 numKey("owner_id", ownerID),
		UpdateExpression:    aws.String("SET balance = :zero, transactions = list_append(if_not_exists(transactions, :empty), :txn) REMOVE expiry"),
		ConditionExpression: aws.String("balance = :old"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":  &types.AttributeValueMemberN{Value: "0"},
			":old":   &types.AttributeValueMemberN{Value: strconv.Itoa(oldBalance)},
			":txn":   txnAV,
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Balance moved since we read it; next sweep will catch it.
			return nil
		}
	}
	return err
}

// ListExpired returns accounts with a positive balance whose expiry lies
// before now.
func (r *CreditRepo) ListExpired(ctx context.Context, now time.Time) ([]domain.CreditAccount, error) {
	var expired []domain.CreditAccount
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			FilterExpression:  aws.String("balance > :zero AND expiry < :now"),
			ExclusiveStartKey: startKey,
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":zero": &types.AttributeValueMemberN{Value: "0"},
				":now":  &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339Nano)},
			},
		})
		if err != nil {
			return nil, err
		}
		var page []domain.CreditAccount
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		expired = append(expired, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return expired, nil
}

// SetReferralCode assigns a referral code once. A concurrent assignment
// returns ErrConflict so the caller can re-read the winner's code.
func (r *CreditRepo) SetReferralCode(ctx context.Context, ownerID int64, code string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 numKey("owner_id", ownerID),
		UpdateExpression:    aws.String("SET referral_code = :c"),
		ConditionExpression: aws.String("attribute_not_exists(referral_code)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: code},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("referral code already assigned: %w", domain.ErrConflict)
		}
	}
	return err
}

func (r *CreditRepo) FindByReferralCode(ctx context.Context, code string) (*domain.CreditAccount, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("referral_code-index"),
		KeyConditionExpression: aws.String("referral_code = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: code},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("referral code: %w", domain.ErrNotFound)
	}
	var a domain.CreditAccount
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// BindReferrer records who referred this owner, at most once for the
// account's lifetime.
func (r *CreditRepo) BindReferrer(ctx context.Context, ownerID, referrerID int64) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 numKey("owner_id", ownerID),
		UpdateExpression:    aws.String("SET referred_by = :r"),
		ConditionExpression: aws.String("attribute_not_exists(referred_by)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r": &types.AttributeValueMemberN{Value: strconv.FormatInt(referrerID, 10)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("referral already applied: %w", domain.ErrConflict)
		}
	}
	return err
}

// MarkReferralRewarded flags that the referred owner's first spend has paid
// out. The conditional write makes the payout happen at most once even if
// two first-spend paths race.
func (r *CreditRepo) MarkReferralRewarded(ctx context.Context, ownerID int64) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 numKey("owner_id", ownerID),
		UpdateExpression:    aws.String("SET referral_rewarded = :t"),
		ConditionExpression: aws.String("attribute_not_exists(referral_rewarded)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("referral already rewarded: %w", domain.ErrConflict)
		}
	}
	return err
}

// RewardReferral pays the referrer and bumps their referral count.
func (r *CreditRepo) RewardReferral(ctx context.Context, referrerID int64, amount int, reason string, now time.Time) error {
	txnAV, err := marshalTxn(domain.TxnReferralReward, amount, reason, now)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              numKey("owner_id", referrerID),
		UpdateExpression: aws.String("SET transactions = list_append(if_not_exists(transactions, :empty), :txn) ADD balance :amt, total_earned :amt, referral_count :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":amt":   &types.AttributeValueMemberN{Value: strconv.Itoa(amount)},
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":txn":   txnAV,
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})
	return err
}

// Stats scans all accounts and aggregates the credit system totals.
func (r *CreditRepo) Stats(ctx context.Context) (*domain.CreditStats, error) {
	var stats domain.CreditStats
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.CreditAccount
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		for _, a := range page {
			stats.TotalAccounts++
			stats.TotalBalance += a.Balance
			stats.TotalEarned += a.TotalEarned
			stats.TotalSpent += a.TotalSpent
			stats.TotalReferrals += a.ReferralCount
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return &stats, nil
}

// marshalTxn wraps one transaction in a single-element list for list_append.
func marshalTxn(txnType string, amount int, reason string, now time.Time) (types.AttributeValue, error) {
	av, err := attributevalue.Marshal([]domain.Transaction{{
		Type:      txnType,
		Amount:    amount,
		Reason:    reason,
		Timestamp: now.UTC(),
	}})
	if err != nil {
		return nil, fmt.Errorf("marshal transaction: %w", err)
	}
	return av, nil
}
