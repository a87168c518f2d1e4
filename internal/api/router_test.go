package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/St1cky1/tasks-api/internal/api/handlers"
	"github.com/St1cky1/tasks-api/internal/entity"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:5173"

// MockTaskService - мок для handlers.TaskService
type MockTaskService struct {
	CreateTaskFunc func(ctx context.Context, req *entity.CreateTaskRequest) (int64, error)
	ListTasksFunc  func(ctx context.Context) ([]entity.Task, error)
	UpdateTaskFunc func(ctx context.Context, req *entity.UpdateTaskRequest) error
	DeleteTaskFunc func(ctx context.Context, req *entity.DeleteTaskRequest) error
}

var _ handlers.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) CreateTask(ctx context.Context, req *entity.CreateTaskRequest) (int64, error) {
	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(ctx, req)
	}
	return 0, nil
}

func (m *MockTaskService) ListTasks(ctx context.Context) ([]entity.Task, error) {
	if m.ListTasksFunc != nil {
		return m.ListTasksFunc(ctx)
	}
	return []entity.Task{}, nil
}

func (m *MockTaskService) UpdateTask(ctx context.Context, req *entity.UpdateTaskRequest) error {
	if m.UpdateTaskFunc != nil {
		return m.UpdateTaskFunc(ctx, req)
	}
	return nil
}

func (m *MockTaskService) DeleteTask(ctx context.Context, req *entity.DeleteTaskRequest) error {
	if m.DeleteTaskFunc != nil {
		return m.DeleteTaskFunc(ctx, req)
	}
	return nil
}

func newTestRouter(service handlers.TaskService) (http.Handler, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	h := handlers.NewTaskHandler(service, logger)
	return NewRouter(h, RouterConfig{AllowedOrigins: []string{testOrigin, "http://app.test"}}, logger), hook
}

func do(t *testing.T, router http.Handler, method, origin, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/tasks", reader)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestForbiddenOrigin(t *testing.T) {
	called := false
	router, _ := newTestRouter(&MockTaskService{
		ListTasksFunc: func(ctx context.Context) ([]entity.Task, error) {
			called = true
			return nil, nil
		},
	})

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions, http.MethodPatch, "FOO"} {
		for _, origin := range []string{"", "http://evil.test", testOrigin + "/"} {
			w := do(t, router, method, origin, "")

			assert.Equal(t, http.StatusForbidden, w.Code, "%s origin=%q", method, origin)
			assert.Empty(t, w.Body.String())
			assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		}
	}
	assert.False(t, called)
}

func TestPreflight(t *testing.T) {
	router, _ := newTestRouter(&MockTaskService{})

	w := do(t, router, http.MethodOptions, "http://app.test", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "http://app.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, GET, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(&MockTaskService{})

	for _, method := range []string{http.MethodPatch, "FOO"} {
		w := do(t, router, method, testOrigin, "")

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.JSONEq(t, `{"error":"Method Not Allowed"}`, w.Body.String())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCreateTask(t *testing.T) {
	var got *entity.CreateTaskRequest
	router, _ := newTestRouter(&MockTaskService{
		CreateTaskFunc: func(ctx context.Context, req *entity.CreateTaskRequest) (int64, error) {
			got = req
			return 15, nil
		},
	})

	w := do(t, router, http.MethodPost, testOrigin, `{"title":"Buy milk","description":"2 liters"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Task created successfully","id":15}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NotNil(t, got)
	assert.Equal(t, "Buy milk", *got.Title)
	assert.Equal(t, "2 liters", *got.Description)
}

func TestCreateTaskValidation(t *testing.T) {
	router, _ := newTestRouter(&MockTaskService{
		CreateTaskFunc: func(ctx context.Context, req *entity.CreateTaskRequest) (int64, error) {
			if req.Title == nil || req.Description == nil {
				return 0, entity.ErrTitleDescriptionRequired
			}
			return 1, nil
		},
	})

	for _, body := range []string{`{"title":"only"}`, `{"description":"only"}`, `{"title":null,"description":"x"}`, `null`, `not json`, ``, `[1,2]`} {
		w := do(t, router, http.MethodPost, testOrigin, body)

		assert.Equal(t, http.StatusOK, w.Code, body)
		assert.JSONEq(t, `{"error":"Title and description are required"}`, w.Body.String(), body)
	}
}

func TestCreateTaskDatabaseErrorIsReturned(t *testing.T) {
	router, _ := newTestRouter(&MockTaskService{
		CreateTaskFunc: func(ctx context.Context, req *entity.CreateTaskRequest) (int64, error) {
			return 0, errors.New("value too long for type character varying(20)")
		},
	})

	w := do(t, router, http.MethodPost, testOrigin, `{"title":"a very very long title here","description":""}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"error":"value too long for type character varying(20)"}`, w.Body.String())
}

func TestListTasks(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	description := "2 liters"
	router, _ := newTestRouter(&MockTaskService{
		ListTasksFunc: func(ctx context.Context) ([]entity.Task, error) {
			return []entity.Task{
				{ID: 1, Title: "Buy milk", Description: &description, Status: entity.StatusPending, CreatedAt: created},
				{ID: 2, Title: "No description", Status: entity.StatusCompleted, CreatedAt: created},
			}, nil
		},
	})

	w := do(t, router, http.MethodGet, testOrigin, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[
		{"id":1,"title":"Buy milk","description":"2 liters","status":"pending","created_at":"2024-05-01T10:00:00Z"},
		{"id":2,"title":"No description","description":null,"status":"completed","created_at":"2024-05-01T10:00:00Z"}
	]`, w.Body.String())
}

func TestListTasksEmpty(t *testing.T) {
	router, _ := newTestRouter(&MockTaskService{})

	w := do(t, router, http.MethodGet, testOrigin, "")

	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListTasksDatabaseError(t *testing.T) {
	router, _ := newTestRouter(&MockTaskService{
		ListTasksFunc: func(ctx context.Context) ([]entity.Task, error) {
			return nil, errors.New(`relation "tasks" does not exist`)
		},
	})

	w := do(t, router, http.MethodGet, testOrigin, "")

	assert.JSONEq(t, `{"error":"relation \"tasks\" does not exist"}`, w.Body.String())
}

func TestCreateTaskCoercesScalarFields(t *testing.T) {
	tests := []struct {
		body      string
		wantTitle string
		wantDesc  string
	}{
		{body: `{"title":123,"description":"x"}`, wantTitle: "123", wantDesc: "x"},
		{body: `{"title":"ok","description":false}`, wantTitle: "ok", wantDesc: ""},
		{body: `{"title":true,"description":1.5}`, wantTitle: "1", wantDesc: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var got *entity.CreateTaskRequest
			router, _ := newTestRouter(&MockTaskService{
				CreateTaskFunc: func(ctx context.Context, req *entity.CreateTaskRequest) (int64, error) {
					got = req
					return 3, nil
				},
			})

			w := do(t, router, http.MethodPost, testOrigin, tt.body)

			assert.JSONEq(t, `{"message":"Task created successfully","id":3}`, w.Body.String())
			require.NotNil(t, got)
			require.NotNil(t, got.Title)
			require.NotNil(t, got.Description)
			assert.Equal(t, tt.wantTitle, *got.Title)
			assert.Equal(t, tt.wantDesc, *got.Description)
		})
	}
}

func TestUpdateTaskCoercesStatus(t *testing.T) {
	var got *entity.UpdateTaskRequest
	router, _ := newTestRouter(&MockTaskService{
		UpdateTaskFunc: func(ctx context.Context, req *entity.UpdateTaskRequest) error {
			got = req
			return nil
		},
	})

	do(t, router, http.MethodPut, testOrigin, `{"id":1.0,"title":"t","description":"d","status":7}`)

	require.NotNil(t, got)
	require.NotNil(t, got.ID)
	require.NotNil(t, got.Status)
	assert.Equal(t, entity.TaskID(1), *got.ID)
	assert.Equal(t, entity.TaskStatus("7"), *got.Status)
}

func TestUpdateTask(t *testing.T) {
	var got *entity.UpdateTaskRequest
	router, _ := newTestRouter(&MockTaskService{
		UpdateTaskFunc: func(ctx context.Context, req *entity.UpdateTaskRequest) error {
			got = req
			return nil
		},
	})

	w := do(t, router, http.MethodPut, testOrigin, `{"id":"4","title":"t","description":"d","status":"completed"}`)

	assert.JSONEq(t, `{"message":"Task updated successfully"}`, w.Body.String())
	require.NotNil(t, got)
	require.NotNil(t, got.ID)
	assert.Equal(t, entity.TaskID(4), *got.ID)
	assert.Equal(t, entity.StatusCompleted, *got.Status)
}

func TestUpdateTaskErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantBody string
		wantLog  bool
	}{
		{name: "missing fields", err: entity.ErrUpdateFieldsRequired, wantBody: `{"error":"All fields (title, description, status) are required"}`},
		{name: "not found", err: entity.ErrTaskNotFound, wantBody: `{"error":"Task not found"}`},
		{name: "database", err: errors.New("violates check constraint"), wantBody: `{"error":"Database error occurred."}`, wantLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, hook := newTestRouter(&MockTaskService{
				UpdateTaskFunc: func(ctx context.Context, req *entity.UpdateTaskRequest) error {
					return tt.err
				},
			})

			w := do(t, router, http.MethodPut, testOrigin, `{"id":1}`)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())

			logged := false
			for _, entry := range hook.AllEntries() {
				if entry.Level == logrus.ErrorLevel && entry.Data[logrus.ErrorKey] == tt.err {
					logged = true
				}
			}
			assert.Equal(t, tt.wantLog, logged)
		})
	}
}

func TestDeleteTask(t *testing.T) {
	var got *entity.DeleteTaskRequest
	router, _ := newTestRouter(&MockTaskService{
		DeleteTaskFunc: func(ctx context.Context, req *entity.DeleteTaskRequest) error {
			got = req
			return nil
		},
	})

	w := do(t, router, http.MethodDelete, testOrigin, `{"id":12}`)

	assert.JSONEq(t, `{"message":"Task deleted succesfully"}`, w.Body.String())
	require.NotNil(t, got.ID)
	assert.Equal(t, entity.TaskID(12), *got.ID)

	w = do(t, router, http.MethodDelete, testOrigin, `{"id":1.0}`)

	assert.JSONEq(t, `{"message":"Task deleted succesfully"}`, w.Body.String())
	require.NotNil(t, got.ID)
	assert.Equal(t, entity.TaskID(1), *got.ID)
}

func TestDeleteTaskErrors(t *testing.T) {
	router, _ := newTestRouter(&MockTaskService{
		DeleteTaskFunc: func(ctx context.Context, req *entity.DeleteTaskRequest) error {
			if req.ID == nil {
				return entity.ErrTaskIDRequired
			}
			return errors.New("connection refused")
		},
	})

	w := do(t, router, http.MethodDelete, testOrigin, `{}`)
	assert.JSONEq(t, `{"error":"Task ID is required"}`, w.Body.String())

	w = do(t, router, http.MethodDelete, testOrigin, `{"id":1}`)
	assert.JSONEq(t, `{"error":"connection refused"}`, w.Body.String())
}

func TestTrailingSlashPath(t *testing.T) {
	router, _ := newTestRouter(&MockTaskService{})

	req := httptest.NewRequest(http.MethodGet, "/tasks/", nil)
	req.Header.Set("Origin", testOrigin)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHealthzIsNotBehindCORS(t *testing.T) {
	logger, _ := test.NewNullLogger()
	healthz := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"SERVING"}`))
	})
	router := NewRouter(handlers.NewTaskHandler(&MockTaskService{}, logger), RouterConfig{
		AllowedOrigins: []string{testOrigin},
		Healthz:        healthz,
	}, logger)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"SERVING"}`, w.Body.String())
}
