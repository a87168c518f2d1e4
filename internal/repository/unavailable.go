package repository

import (
	"context"

	"github.com/St1cky1/tasks-api/internal/entity"
)

// UnavailableTaskRepository отвечает на все вызовы ошибкой подключения.
// Используется, когда пул соединений не удалось даже создать.
type UnavailableTaskRepository struct {
	err error
}

func NewUnavailableTaskRepository(err error) *UnavailableTaskRepository {
	return &UnavailableTaskRepository{err: err}
}

func (r *UnavailableTaskRepository) Create(context.Context, string, string, entity.TaskStatus) (int64, error) {
	return 0, r.err
}

func (r *UnavailableTaskRepository) GetByID(context.Context, int64) (*entity.Task, error) {
	return nil, r.err
}

func (r *UnavailableTaskRepository) List(context.Context) ([]entity.Task, error) {
	return nil, r.err
}

func (r *UnavailableTaskRepository) Update(context.Context, int64, string, string, entity.TaskStatus) error {
	return r.err
}

func (r *UnavailableTaskRepository) Delete(context.Context, int64) (bool, error) {
	return false, r.err
}
