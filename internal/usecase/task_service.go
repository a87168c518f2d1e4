package usecase

import (
	"context"
	"time"

	"github.com/St1cky1/tasks-api/internal/entity"
	"github.com/St1cky1/tasks-api/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuditPublisher интерфейс для публикации аудита (RabbitMQ)
type AuditPublisher interface {
	PublishAuditMessage(ctx context.Context, message *entity.AuditMessage) error
}

type TaskService struct {
	taskRepo  repository.ITaskRepository
	publisher AuditPublisher
	logger    logrus.FieldLogger
}

// NewTaskService - publisher может быть nil, тогда аудит не отправляется
func NewTaskService(taskRepo repository.ITaskRepository, publisher AuditPublisher, logger logrus.FieldLogger) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateTask создает задачу в статусе pending и возвращает ее id
func (s *TaskService) CreateTask(ctx context.Context, req *entity.CreateTaskRequest) (int64, error) {
	if req.Title == nil || req.Description == nil {
		return 0, entity.ErrTitleDescriptionRequired
	}

	id, err := s.taskRepo.Create(ctx, *req.Title, *req.Description, entity.StatusPending)
	if err != nil {
		return 0, err
	}

	s.sendAuditMessage(entity.ActionCreate, id, nil, map[string]any{
		"title":       *req.Title,
		"description": *req.Description,
		"status":      entity.StatusPending,
	})

	return id, nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]entity.Task, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []entity.Task{}
	}
	return tasks, nil
}

// UpdateTask перезаписывает title, description и status существующей задачи.
// Проверка существования и обновление - два отдельных запроса без транзакции.
func (s *TaskService) UpdateTask(ctx context.Context, req *entity.UpdateTaskRequest) error {
	if req.ID == nil || req.Title == nil || req.Description == nil || req.Status == nil {
		return entity.ErrUpdateFieldsRequired
	}
	id := int64(*req.ID)

	oldTask, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if oldTask == nil {
		return entity.ErrTaskNotFound
	}

	if err := s.taskRepo.Update(ctx, id, *req.Title, *req.Description, *req.Status); err != nil {
		return err
	}

	newValues := map[string]any{
		"title":       *req.Title,
		"description": *req.Description,
		"status":      *req.Status,
	}
	s.sendAuditMessage(entity.ActionUpdate, id, taskValues(oldTask), newValues)

	return nil
}

// DeleteTask удаляет задачу по id. Отсутствие задачи ошибкой не считается.
func (s *TaskService) DeleteTask(ctx context.Context, req *entity.DeleteTaskRequest) error {
	if req.ID == nil {
		return entity.ErrTaskIDRequired
	}
	id := int64(*req.ID)

	deleted, err := s.taskRepo.Delete(ctx, id)
	if err != nil {
		return err
	}

	if deleted {
		s.sendAuditMessage(entity.ActionDelete, id, nil, nil)
	}

	return nil
}

func taskValues(task *entity.Task) map[string]any {
	var description any
	if task.Description != nil {
		description = *task.Description
	}
	return map[string]any{
		"title":       task.Title,
		"description": description,
		"status":      task.Status,
	}
}

// diffValues - поля, которые изменились: {"field": {"old": ..., "new": ...}}
func diffValues(oldValues, newValues map[string]any) map[string]any {
	changes := make(map[string]any)
	for field, newValue := range newValues {
		if oldValue := oldValues[field]; oldValue != newValue {
			changes[field] = map[string]any{"old": oldValue, "new": newValue}
		}
	}
	return changes
}

// Вспомогательный метод для отправки аудита, отправка асинхронная
func (s *TaskService) sendAuditMessage(action entity.ActionType, taskID int64, oldValues, newValues map[string]any) {
	if s.publisher == nil {
		return
	}

	auditMsg := &entity.AuditMessage{
		MessageID: uuid.NewString(),
		Action:    action,
		EntityID:  taskID,
		OldValues: oldValues,
		NewValues: newValues,
		Timestamp: time.Now().UTC(),
	}
	if oldValues != nil && newValues != nil {
		auditMsg.Changes = diffValues(oldValues, newValues)
	}

	log := s.logger.WithFields(logrus.Fields{"action": action, "task_id": taskID})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.publisher.PublishAuditMessage(ctx, auditMsg); err != nil {
			log.WithError(err).Warn("❌ Ошибка отправки аудита в RabbitMQ")
			return
		}
		log.Debug("Аудит отправлен в RabbitMQ")
	}()
}
