package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// TasksTableDDL - единственный DDL для таблицы tasks, безопасен при повторном запуске
const TasksTableDDL = `
CREATE TABLE IF NOT EXISTS tasks (
	id          SERIAL PRIMARY KEY,
	title       VARCHAR(20) NOT NULL,
	description TEXT,
	status      VARCHAR(9) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed')),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func EnsureSchema(ctx context.Context, db Execer) error {
	_, err := db.Exec(ctx, TasksTableDDL)
	return err
}
