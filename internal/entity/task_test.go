package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskIDUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		body string
		want TaskID
	}{
		{name: "number", body: `{"id": 42}`, want: 42},
		{name: "numeric string", body: `{"id": "7"}`, want: 7},
		{name: "integral float", body: `{"id": 1.0}`, want: 1},
		{name: "exponent", body: `{"id": 2e1}`, want: 20},
		{name: "float string", body: `{"id": " 3.0 "}`, want: 3},
		{name: "true", body: `{"id": true}`, want: 1},
		{name: "not a number", body: `{"id": "abc"}`, want: 0},
		{name: "fraction", body: `{"id": 1.5}`, want: 0},
		{name: "object", body: `{"id": {"a": 1}}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req DeleteTaskRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			require.NotNil(t, req.ID)
			assert.Equal(t, tt.want, *req.ID)
		})
	}
}

func TestTaskIDNull(t *testing.T) {
	var req DeleteTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"id": null}`), &req))
	assert.Nil(t, req.ID)
}

func TestUpdateRequestNullFields(t *testing.T) {
	var req UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "title": null, "status": "completed"}`), &req))

	assert.NotNil(t, req.ID)
	assert.Nil(t, req.Title)
	assert.Nil(t, req.Description)
	require.NotNil(t, req.Status)
	assert.Equal(t, StatusCompleted, *req.Status)
}
