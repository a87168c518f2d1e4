package entity

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

// Task - строка таблицы tasks, поля называются как колонки
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TaskID принимает число или строку с числом: {"id": 5}, {"id": "5"}, {"id": 5.0}.
// Значение, которое не приводится к целому, становится 0, такой строки в tasks нет.
type TaskID int64

func (id *TaskID) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = bytes.TrimSpace([]byte(s))
	}

	if bytes.Equal(raw, []byte("true")) {
		*id = 1
		return nil
	}
	*id = TaskID(parseIntegral(string(raw)))
	return nil
}

func parseIntegral(s string) int64 {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// Запросы: nil означает, что поле не передано (или передано как null)
type CreateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type UpdateTaskRequest struct {
	ID          *TaskID     `json:"id"`
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Status      *TaskStatus `json:"status"`
}

type DeleteTaskRequest struct {
	ID *TaskID `json:"id"`
}
