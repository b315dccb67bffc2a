package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/task-tracker-api/internal/domain"
)

const condTaskExists = "attribute_exists(task_id)"

// TaskRepo provides typed DynamoDB operations for the tasks table.
type TaskRepo struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewTaskRepo(client API, tableName string) *TaskRepo {
	return &TaskRepo{client: client, tableName: tableName, now: time.Now}
}

func (r *TaskRepo) Put(ctx context.Context, t *domain.Task) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put task: %w", err)
	}
	return nil
}

func (r *TaskRepo) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("task_id", taskID),
	})
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	var t domain.Task
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &t, nil
}

// ListByUser returns every task owned by userID, following pagination.
func (r *TaskRepo) ListByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexTasksByUser),
		KeyConditionExpression:    aws.String("#u = :u"),
		ExpressionAttributeNames:  map[string]string{"#u": "user_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": &types.AttributeValueMemberS{Value: userID}},
	})
	var tasks []domain.Task
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query tasks: %w", err)
		}
		var page []domain.Task
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal tasks: %w", err)
		}
		tasks = append(tasks, page...)
	}
	return tasks, nil
}

// ListIncomplete scans for every task not yet completed.
func (r *TaskRepo) ListIncomplete(ctx context.Context) ([]domain.Task, error) {
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String("#c = :f"),
		ExpressionAttributeNames:  map[string]string{"#c": "is_completed"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":f": &types.AttributeValueMemberBOOL{Value: false}},
	})
}

// ListAll scans the whole table. Used by the weekly report job.
func (r *TaskRepo) ListAll(ctx context.Context) ([]domain.Task, error) {
	return r.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
}

// Update applies a partial update and returns the stored task afterwards.
// updated_at is always set.
func (r *TaskRepo) Update(ctx context.Context, taskID string, updates map[string]interface{}) (*domain.Task, error) {
	updates["updated_at"] = r.now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("task_id", taskID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(condTaskExists),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, mapConditionErr(taskID, err)
	}
	var t domain.Task
	if err := attributevalue.UnmarshalMap(out.Attributes, &t); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &t, nil
}

func (r *TaskRepo) Delete(ctx context.Context, taskID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("task_id", taskID),
		ConditionExpression: aws.String(condTaskExists),
	})
	if err != nil {
		return mapConditionErr(taskID, err)
	}
	return nil
}

func (r *TaskRepo) scan(ctx context.Context, in *dynamodb.ScanInput) ([]domain.Task, error) {
	p := dynamodb.NewScanPaginator(r.client, in)
	var tasks []domain.Task
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan tasks: %w", err)
		}
		var page []domain.Task
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal tasks: %w", err)
		}
		tasks = append(tasks, page...)
	}
	return tasks, nil
}

func mapConditionErr(taskID string, err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	return fmt.Errorf("write task %s: %w", taskID, err)
}
