package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/task-tracker-api/internal/domain"
)

func taskItem(t *testing.T, task domain.Task) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(task)
	require.NoError(t, err)
	return item
}

func TestTaskRepo_Get_NotFound(t *testing.T) {
	api := new(mockAPI)
	repo := NewTaskRepo(api, "tasks")
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := repo.Get(context.Background(), "t1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskRepo_ListByUser_FollowsPages(t *testing.T) {
	api := new(mockAPI)
	repo := NewTaskRepo(api, "tasks")

	first := &dynamodb.QueryOutput{
		Items:            []map[string]types.AttributeValue{taskItem(t, domain.Task{TaskID: "t1", UserID: "u1"})},
		LastEvaluatedKey: strKey("task_id", "t1"),
	}
	second := &dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{taskItem(t, domain.Task{TaskID: "t2", UserID: "u1"})},
	}
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey == nil && aws.ToString(in.IndexName) == indexTasksByUser
	})).Return(first, nil).Once()
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(second, nil).Once()

	tasks, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t1", tasks[0].TaskID)
	assert.Equal(t, "t2", tasks[1].TaskID)
	api.AssertExpectations(t)
}

func TestTaskRepo_ListIncomplete_Filters(t *testing.T) {
	api := new(mockAPI)
	repo := NewTaskRepo(api, "tasks")
	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return aws.ToString(in.FilterExpression) == "#c = :f"
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{taskItem(t, domain.Task{TaskID: "t1"})},
	}, nil)

	tasks, err := repo.ListIncomplete(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestTaskRepo_Update_ReturnsNewImage(t *testing.T) {
	api := new(mockAPI)
	repo := NewTaskRepo(api, "tasks")
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return aws.ToString(in.ConditionExpression) == condTaskExists &&
			in.ExpressionAttributeNames["#f0"] == "is_completed" &&
			in.ExpressionAttributeNames["#f1"] == "updated_at" &&
			in.ReturnValues == types.ReturnValueAllNew
	})).Return(&dynamodb.UpdateItemOutput{
		Attributes: taskItem(t, domain.Task{TaskID: "t1", IsCompleted: true, UpdatedAt: now}),
	}, nil)

	task, err := repo.Update(context.Background(), "t1", map[string]interface{}{"is_completed": true})
	require.NoError(t, err)
	assert.True(t, task.IsCompleted)
	assert.True(t, task.UpdatedAt.Equal(now))
}

func TestTaskRepo_Update_MissingIsNotFound(t *testing.T) {
	api := new(mockAPI)
	repo := NewTaskRepo(api, "tasks")
	api.On("UpdateItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("nope")})

	_, err := repo.Update(context.Background(), "t1", map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskRepo_Delete(t *testing.T) {
	api := new(mockAPI)
	repo := NewTaskRepo(api, "tasks")
	api.On("DeleteItem", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()
	api.On("DeleteItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{}).Once()

	err := repo.Delete(context.Background(), "t1")
	assert.ErrorContains(t, err, "boom")
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	err = repo.Delete(context.Background(), "t1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
