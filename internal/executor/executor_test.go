package executor

import (
	"context"
	"testing"
	"time"

	"github.com/avvvet/tietaja/internal/models"
	"github.com/avvvet/tietaja/internal/todoist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockTaskClient implements TaskClient for testing
type MockTaskClient struct {
	AddTaskFunc      func(ctx context.Context, params todoist.TaskParams) todoist.Result
	GetProjectsFunc  func(ctx context.Context) todoist.Result
	GetTasksFunc     func(ctx context.Context, projectID string) todoist.Result
	UpdateTaskFunc   func(ctx context.Context, taskID string, params todoist.TaskParams) todoist.Result
	CompleteTaskFunc func(ctx context.Context, taskID string) todoist.Result
	DeleteTaskFunc   func(ctx context.Context, taskID string) todoist.Result
	GetLabelsFunc    func(ctx context.Context) todoist.Result
}

var ok = todoist.Result{Success: true}

func (m *MockTaskClient) AddTask(ctx context.Context, params todoist.TaskParams) todoist.Result {
	if m.AddTaskFunc != nil {
		return m.AddTaskFunc(ctx, params)
	}
	return ok
}

func (m *MockTaskClient) GetProjects(ctx context.Context) todoist.Result {
	if m.GetProjectsFunc != nil {
		return m.GetProjectsFunc(ctx)
	}
	return ok
}

func (m *MockTaskClient) GetTasks(ctx context.Context, projectID string) todoist.Result {
	if m.GetTasksFunc != nil {
		return m.GetTasksFunc(ctx, projectID)
	}
	return ok
}

func (m *MockTaskClient) UpdateTask(ctx context.Context, taskID string, params todoist.TaskParams) todoist.Result {
	if m.UpdateTaskFunc != nil {
		return m.UpdateTaskFunc(ctx, taskID, params)
	}
	return ok
}

func (m *MockTaskClient) CompleteTask(ctx context.Context, taskID string) todoist.Result {
	if m.CompleteTaskFunc != nil {
		return m.CompleteTaskFunc(ctx, taskID)
	}
	return ok
}

func (m *MockTaskClient) DeleteTask(ctx context.Context, taskID string) todoist.Result {
	if m.DeleteTaskFunc != nil {
		return m.DeleteTaskFunc(ctx, taskID)
	}
	return ok
}

func (m *MockTaskClient) GetLabels(ctx context.Context) todoist.Result {
	if m.GetLabelsFunc != nil {
		return m.GetLabelsFunc(ctx)
	}
	return ok
}

func req(name string, args map[string]any) models.ActionRequest {
	return models.ActionRequest{Name: name, Arguments: args, Confidence: 1.0}
}

func TestExecute_IsolatesFailingHandler(t *testing.T) {
	var completed []string
	tasks := &MockTaskClient{
		CompleteTaskFunc: func(_ context.Context, taskID string) todoist.Result {
			if taskID == "2" {
				panic("connection reset")
			}
			completed = append(completed, taskID)
			return todoist.Result{Success: true, TaskID: taskID}
		},
	}
	e := New(tasks, nil)

	toolsUsed, results := e.Execute(context.Background(), "alice", nil, []models.ActionRequest{
		req("complete_task", map[string]any{"task_id": "1"}),
		req("complete_task", map[string]any{"task_id": "2"}),
		req("complete_task", map[string]any{"task_id": "3"}),
	})

	require.Len(t, results, 3)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Contains(t, results[1].Outcome.(map[string]any)["error"], "connection reset")
	assert.True(t, results[2].OK)
	assert.Equal(t, []string{"1", "3"}, completed)
	assert.Equal(t, []string{"todoist_complete_task", "todoist_complete_task"}, toolsUsed)
	for i, r := range results {
		assert.Equal(t, "complete_task", r.Action, "result %d", i)
	}
}

func TestExecute_UnknownActionIsAccountedFor(t *testing.T) {
	e := New(&MockTaskClient{}, nil)

	toolsUsed, results := e.Execute(context.Background(), "alice", nil, []models.ActionRequest{
		req("send_email", map[string]any{"to": "bob"}),
		req("get_projects", map[string]any{}),
	})

	require.Len(t, results, 2)
	assert.False(t, results[0].OK)
	assert.Equal(t, map[string]any{"error": "Unknown action: send_email"}, results[0].Outcome)
	assert.Equal(t, map[string]any{"to": "bob"}, results[0].Arguments)
	assert.True(t, results[1].OK)
	assert.Equal(t, []string{"todoist_get_projects"}, toolsUsed)
}

func TestExecute_FailureValueStillRecordsTool(t *testing.T) {
	tasks := &MockTaskClient{
		GetProjectsFunc: func(context.Context) todoist.Result {
			return todoist.Result{Error: "API request failed: 401"}
		},
	}

	toolsUsed, results := New(tasks, nil).Execute(context.Background(), "alice", nil, []models.ActionRequest{
		req("get_projects", nil),
	})

	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Equal(t, "API request failed: 401", results[0].Outcome.(todoist.Result).Error)
	assert.Equal(t, []string{"todoist_get_projects"}, toolsUsed)
}

func TestExecute_MissingRequiredArgument(t *testing.T) {
	called := false
	tasks := &MockTaskClient{AddTaskFunc: func(context.Context, todoist.TaskParams) todoist.Result {
		called = true
		return ok
	}}

	toolsUsed, results := New(tasks, nil).Execute(context.Background(), "alice", nil, []models.ActionRequest{
		req("add_task", map[string]any{"raw_args": "{content: milk"}),
		req("complete_task", map[string]any{}),
	})

	assert.False(t, called)
	assert.Nil(t, toolsUsed)
	require.Len(t, results, 2)
	assert.Equal(t, map[string]any{"error": "missing required argument: content"}, results[0].Outcome)
	assert.Equal(t, map[string]any{"error": "missing required argument: task_id"}, results[1].Outcome)
}

func TestExecute_WeaklyTypedArguments(t *testing.T) {
	var gotParams todoist.TaskParams
	var gotProject, gotTaskID string
	tasks := &MockTaskClient{
		AddTaskFunc: func(_ context.Context, p todoist.TaskParams) todoist.Result {
			gotParams = p
			return ok
		},
		GetTasksFunc: func(_ context.Context, projectID string) todoist.Result {
			gotProject = projectID
			return ok
		},
		UpdateTaskFunc: func(_ context.Context, taskID string, p todoist.TaskParams) todoist.Result {
			gotTaskID = taskID
			return ok
		},
	}

	toolsUsed, results := New(tasks, nil).Execute(context.Background(), "alice", nil, []models.ActionRequest{
		req("add_task", map[string]any{"content": "Buy milk", "priority": "2", "labels": []any{"home"}, "due_date": "2025-03-02"}),
		req("get_tasks", map[string]any{"project_id": float64(2203306141)}),
		req("update_task", map[string]any{"task_id": 42, "content": "Buy oat milk"}),
	})

	for _, r := range results {
		assert.True(t, r.OK, r.Action)
	}
	assert.Equal(t, todoist.TaskParams{Content: "Buy milk", Priority: 2, Labels: []string{"home"}, DueDate: "2025-03-02"}, gotParams)
	assert.Equal(t, "2203306141", gotProject)
	assert.Equal(t, "42", gotTaskID)
	assert.Equal(t, []string{"todoist_add_task", "todoist_get_tasks", "todoist_update_task"}, toolsUsed)
}

func TestExecute_Preferences(t *testing.T) {
	mem := models.NewUserMemory("alice", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	e := New(&MockTaskClient{}, nil)

	toolsUsed, results := e.Execute(context.Background(), "alice", mem, []models.ActionRequest{
		req("update_preference", map[string]any{"key": "tone", "value": "brief"}),
		req("get_preference", map[string]any{"key": "tone"}),
		req("get_preference", map[string]any{"key": "unset"}),
		req("update_preference", map[string]any{"key": "tone"}),
	})

	assert.Equal(t, "brief", mem.Preferences["tone"])
	require.Len(t, results, 4)
	assert.Equal(t, map[string]any{"success": true, "key": "tone", "value": "brief", "found": true}, results[1].Outcome)
	assert.Equal(t, map[string]any{"success": true, "key": "unset", "value": nil, "found": false}, results[2].Outcome)
	assert.False(t, results[3].OK)
	assert.Equal(t, []string{"memory_update_preference", "memory_get_preference", "memory_get_preference"}, toolsUsed)
}

func TestExecute_PreferenceWithoutMemory(t *testing.T) {
	_, results := New(&MockTaskClient{}, nil).Execute(context.Background(), "alice", nil, []models.ActionRequest{
		req("get_preference", map[string]any{"key": "tone"}),
	})

	assert.False(t, results[0].OK)
}

func TestExecute_EmptyBatch(t *testing.T) {
	toolsUsed, results := New(&MockTaskClient{}, nil).Execute(context.Background(), "alice", nil, nil)

	assert.Nil(t, toolsUsed)
	assert.Empty(t, results)
}

func TestSucceeded(t *testing.T) {
	assert.True(t, succeeded(todoist.Result{Success: true}))
	assert.False(t, succeeded(todoist.Result{Success: true, Error: "partial"}))
	assert.False(t, succeeded(map[string]any{"error": "boom"}))
	assert.False(t, succeeded(map[string]any{"success": false}))
	assert.True(t, succeeded(map[string]any{"error": ""}))
	assert.True(t, succeeded("plain value"))
}

func TestToolName(t *testing.T) {
	e := New(&MockTaskClient{}, nil)

	name, found := e.ToolName("delete_task")
	assert.True(t, found)
	assert.Equal(t, "todoist_delete_task", name)

	_, found = e.ToolName("nope")
	assert.False(t, found)
}
