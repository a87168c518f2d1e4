package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/St1cky1/tasks-api/internal/entity"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const (
	msgTaskCreated      = "Task created successfully"
	msgTaskUpdated      = "Task updated successfully"
	msgTaskDeleted      = "Task deleted succesfully"
	msgCreateRequired   = "Title and description are required"
	msgUpdateRequired   = "All fields (title, description, status) are required"
	msgDeleteRequired   = "Task ID is required"
	msgTaskNotFound     = "Task not found"
	msgDatabaseError    = "Database error occurred."
	msgMethodNotAllowed = "Method Not Allowed"
)

type TaskService interface {
	CreateTask(ctx context.Context, req *entity.CreateTaskRequest) (int64, error)
	ListTasks(ctx context.Context) ([]entity.Task, error)
	UpdateTask(ctx context.Context, req *entity.UpdateTaskRequest) error
	DeleteTask(ctx context.Context, req *entity.DeleteTaskRequest) error
}

type TaskHandler struct {
	taskService TaskService
	logger      logrus.FieldLogger
}

func NewTaskHandler(taskService TaskService, logger logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// CreateTask - POST {title, description}
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	fields := decodeFields(r)
	req := entity.CreateTaskRequest{
		Title:       fields.text("title"),
		Description: fields.text("description"),
	}

	id, err := h.taskService.CreateTask(r.Context(), &req)
	if err != nil {
		if errors.Is(err, entity.ErrTitleDescriptionRequired) {
			writeError(w, msgCreateRequired)
			return
		}
		writeError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msgTaskCreated, ID: &id})
}

// ListTasks - GET, все задачи массивом
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListTasks(r.Context())
	if err != nil {
		writeError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// UpdateTask - PUT {id, title, description, status}.
// Ошибки БД не отдаются клиенту, только в лог.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	fields := decodeFields(r)
	req := entity.UpdateTaskRequest{
		ID:          fields.taskID("id"),
		Title:       fields.text("title"),
		Description: fields.text("description"),
		Status:      fields.status("status"),
	}

	err := h.taskService.UpdateTask(r.Context(), &req)
	switch {
	case err == nil:
		writeMessage(w, msgTaskUpdated)
	case errors.Is(err, entity.ErrUpdateFieldsRequired):
		writeError(w, msgUpdateRequired)
	case errors.Is(err, entity.ErrTaskNotFound):
		writeError(w, msgTaskNotFound)
	default:
		h.logger.WithError(err).
			WithField("request_id", middleware.GetReqID(r.Context())).
			Error("❌ Ошибка обновления задачи")
		writeError(w, msgDatabaseError)
	}
}

// DeleteTask - DELETE {id}, отсутствие задачи не проверяется
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	req := entity.DeleteTaskRequest{ID: decodeFields(r).taskID("id")}

	if err := h.taskService.DeleteTask(r.Context(), &req); err != nil {
		if errors.Is(err, entity.ErrTaskIDRequired) {
			writeError(w, msgDeleteRequired)
			return
		}
		writeError(w, err.Error())
		return
	}

	writeMessage(w, msgTaskDeleted)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: msgMethodNotAllowed})
}
