package repository

import (
	"context"
	"errors"

	"github.com/St1cky1/tasks-api/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

func (r *TaskRepository) Create(ctx context.Context, title, description string, status entity.TaskStatus) (int64, error) {
	query := `
	INSERT INTO tasks (title, description, status)
	VALUES ($1, $2, $3)
	RETURNING id
	`

	var id int64
	if err := r.db.QueryRow(ctx, query, title, description, status).Scan(&id); err != nil {
		return 0, err
	}

	return id, nil
}

// GetByID возвращает (nil, nil), если задачи нет
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*entity.Task, error) {
	query := `
	SELECT id, title, description, status, created_at
	FROM tasks
	WHERE id = $1
	`

	var task entity.Task
	err := r.db.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &task, nil
}

// List - все задачи в порядке хранения, без фильтров
func (r *TaskRepository) List(ctx context.Context) ([]entity.Task, error) {
	query := `SELECT id, title, description, status, created_at FROM tasks`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]entity.Task, 0)
	for rows.Next() {
		var task entity.Task
		err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, id int64, title, description string, status entity.TaskStatus) error {
	query := `UPDATE tasks SET title = $1, description = $2, status = $3 WHERE id = $4`
	_, err := r.db.Exec(ctx, query, title, description, status, id)
	return err
}

// Delete - удаление по id, true если строка действительно была удалена
func (r *TaskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM tasks WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
