package repository

import (
	"context"

	"github.com/St1cky1/tasks-api/internal/entity"
)

// ITaskRepository - интерфейс для TaskRepository
type ITaskRepository interface {
	Create(ctx context.Context, title, description string, status entity.TaskStatus) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.Task, error)
	List(ctx context.Context) ([]entity.Task, error)
	Update(ctx context.Context, id int64, title, description string, status entity.TaskStatus) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// ITaskAuditRepository - интерфейс для TaskAuditRepository
type ITaskAuditRepository interface {
	Create(ctx context.Context, audit *entity.TaskAudit) error
}
