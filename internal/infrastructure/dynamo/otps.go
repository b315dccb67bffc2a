package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/task-tracker-api/internal/domain"
)

// OTPStore keeps one pending code per (email, purpose).
// PK: email, SK: purpose. expires_at is the table's TTL attribute.
type OTPStore struct {
	client    API
	tableName string
	ttl       time.Duration
}

func NewOTPStore(client API, tableName string, ttl time.Duration) *OTPStore {
	return &OTPStore{client: client, tableName: tableName, ttl: ttl}
}

// Put overwrites any pending record for the same key.
func (s *OTPStore) Put(ctx context.Context, rec *domain.OTPRecord) error {
	rec.ExpiresAt = rec.CreatedAt.Add(s.ttl).Unix()
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put otp: %w", err)
	}
	return nil
}

// Get returns the stored record even when it is past its TTL: DynamoDB
// removes expired items lazily, so callers must check expiry themselves.
func (s *OTPStore) Get(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            compositeKey("email", email, "purpose", string(purpose)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get otp: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var rec domain.OTPRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal otp: %w", err)
	}
	return &rec, nil
}

func (s *OTPStore) Delete(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       compositeKey("email", email, "purpose", string(purpose)),
	})
	if err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}
