package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/task-tracker-api/internal/application/auth"
	"github.com/task-tracker-api/internal/application/task"
	"github.com/task-tracker-api/internal/domain"
)

type mockOTP struct{ mock.Mock }

func (m *mockOTP) SendCode(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	return m.Called(ctx, email, purpose).Error(0)
}

func (m *mockOTP) VerifyCode(ctx context.Context, email string, purpose domain.OTPPurpose, code string) error {
	return m.Called(ctx, email, purpose, code).Error(0)
}

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Signup(ctx context.Context, name, email, password string) (*auth.Result, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Result), args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (*auth.Result, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Result), args.Error(1)
}

func (m *mockAuth) CurrentUser(ctx context.Context, token string) (*domain.PublicUser, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PublicUser), args.Error(1)
}

func (m *mockAuth) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return m.Called(ctx, email, code, newPassword).Error(0)
}

type mockTasks struct{ mock.Mock }

func (m *mockTasks) List(ctx context.Context, owner task.Owner) ([]domain.Task, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *mockTasks) Create(ctx context.Context, owner task.Owner, req domain.CreateTaskRequest) (*domain.Task, error) {
	args := m.Called(ctx, owner, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockTasks) Update(ctx context.Context, owner task.Owner, taskID string, req domain.UpdateTaskRequest) (*domain.Task, error) {
	args := m.Called(ctx, owner, taskID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockTasks) Delete(ctx context.Context, owner task.Owner, taskID string) error {
	return m.Called(ctx, owner, taskID).Error(0)
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}
