package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/St1cky1/tasks-api/internal/entity"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
	ID      *int64 `json:"id,omitempty"`
}

// requestFields - поля JSON тела без приведения типов
type requestFields map[string]json.RawMessage

// decodeFields разбирает JSON объект. Тело, которое не является объектом, считается пустым вводом.
func decodeFields(r *http.Request) requestFields {
	var fields requestFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil
	}
	return fields
}

// value возвращает nil, если поля нет или оно равно null
func (f requestFields) value(name string) json.RawMessage {
	raw, ok := f[name]
	if !ok {
		return nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return raw
}

// text приводит любое значение поля к строке: числа как есть, true -> "1", false -> "".
func (f requestFields) text(name string) *string {
	raw := f.value(name)
	if raw == nil {
		return nil
	}

	var s string
	switch {
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
	case bytes.Equal(raw, []byte("true")):
		s = "1"
	case bytes.Equal(raw, []byte("false")):
		s = ""
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil
		}
		s = buf.String()
	}
	return &s
}

func (f requestFields) taskID(name string) *entity.TaskID {
	raw := f.value(name)
	if raw == nil {
		return nil
	}
	var id entity.TaskID
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil
	}
	return &id
}

func (f requestFields) status(name string) *entity.TaskStatus {
	s := f.text(name)
	if s == nil {
		return nil
	}
	status := entity.TaskStatus(*s)
	return &status
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError - ошибки валидации и БД отдаются с 200, как и успешные ответы
func writeError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, errorResponse{Error: msg})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}
