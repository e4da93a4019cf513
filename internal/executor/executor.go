// Package executor runs requested actions against their backing services.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avvvet/tietaja/internal/models"
	"github.com/avvvet/tietaja/internal/todoist"
	"github.com/mitchellh/mapstructure"
)

// TaskClient is the task API surface the executor dispatches to.
type TaskClient interface {
	AddTask(ctx context.Context, params todoist.TaskParams) todoist.Result
	GetProjects(ctx context.Context) todoist.Result
	GetTasks(ctx context.Context, projectID string) todoist.Result
	UpdateTask(ctx context.Context, taskID string, params todoist.TaskParams) todoist.Result
	CompleteTask(ctx context.Context, taskID string) todoist.Result
	DeleteTask(ctx context.Context, taskID string) todoist.Result
	GetLabels(ctx context.Context) todoist.Result
}

// call is what a handler sees of one request.
type call struct {
	userID string
	memory *models.UserMemory
	args   map[string]any
}

type handler func(ctx context.Context, c *call) (any, error)

type action struct {
	tool string // name reported in tools_used
	run  handler
}

type Executor struct {
	tasks   TaskClient
	actions map[string]action
	logger  *slog.Logger
}

func New(tasks TaskClient, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{tasks: tasks, logger: logger}
	e.actions = map[string]action{
		"add_task":          {"todoist_add_task", e.addTask},
		"get_projects":      {"todoist_get_projects", e.getProjects},
		"get_tasks":         {"todoist_get_tasks", e.getTasks},
		"complete_task":     {"todoist_complete_task", e.completeTask},
		"update_task":       {"todoist_update_task", e.updateTask},
		"delete_task":       {"todoist_delete_task", e.deleteTask},
		"get_labels":        {"todoist_get_labels", e.getLabels},
		"update_preference": {"memory_update_preference", e.updatePreference},
		"get_preference":    {"memory_get_preference", e.getPreference},
	}
	return e
}

// ToolName maps an action name to the name reported in tools_used.
func (e *Executor) ToolName(actionName string) (string, bool) {
	a, ok := e.actions[actionName]
	return a.tool, ok
}

// Execute runs requests one at a time in order. Every request yields exactly
// one result. toolsUsed lists the actions whose handler ran to completion,
// including those whose outcome reports a failure; it is nil when none did.
// mem is the turn's memory record; preference actions mutate it in place.
func (e *Executor) Execute(ctx context.Context, userID string, mem *models.UserMemory, requests []models.ActionRequest) (toolsUsed []string, results []models.ActionResult) {
	results = make([]models.ActionResult, 0, len(requests))
	for _, req := range requests {
		result, tool := e.dispatch(ctx, &call{userID: userID, memory: mem, args: req.Arguments}, req)
		results = append(results, result)
		if tool != "" {
			toolsUsed = append(toolsUsed, tool)
		}
	}
	return toolsUsed, results
}

func (e *Executor) dispatch(ctx context.Context, c *call, req models.ActionRequest) (result models.ActionResult, tool string) {
	result = models.ActionResult{Action: req.Name, Arguments: req.Arguments}

	act, ok := e.actions[req.Name]
	if !ok {
		e.logger.Warn("unknown action requested", "action", req.Name, "user_id", c.userID)
		result.Outcome = map[string]any{"error": fmt.Sprintf("Unknown action: %s", req.Name)}
		return result, ""
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("action panicked", "action", req.Name, "user_id", c.userID, "panic", r)
			result.Outcome = map[string]any{"error": fmt.Sprintf("action %s failed: %v", req.Name, r)}
			result.OK = false
			tool = ""
		}
	}()

	if c.args == nil {
		c.args = map[string]any{}
	}
	outcome, err := act.run(ctx, c)
	if err != nil {
		e.logger.Error("action failed", "action", req.Name, "user_id", c.userID, "error", err)
		result.Outcome = map[string]any{"error": err.Error()}
		return result, ""
	}

	result.Outcome = outcome
	result.OK = succeeded(outcome)
	e.logger.Info("action executed", "action", req.Name, "user_id", c.userID, "ok", result.OK)
	return result, act.tool
}

// succeeded reports whether outcome carries no error indicator.
func succeeded(outcome any) bool {
	switch o := outcome.(type) {
	case todoist.Result:
		return o.Success && o.Error == ""
	case map[string]any:
		if msg, ok := o["error"]; ok && msg != nil && msg != "" {
			return false
		}
		if s, ok := o["success"].(bool); ok && !s {
			return false
		}
	case error:
		return false
	}
	return true
}

func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func missing(name string) error {
	return fmt.Errorf("missing required argument: %s", name)
}

var errNoMemory = errors.New("no memory record for this turn")

type taskRef struct {
	TaskID string `mapstructure:"task_id"`
}

func (e *Executor) taskID(c *call) (string, error) {
	var ref taskRef
	if err := decodeArgs(c.args, &ref); err != nil {
		return "", err
	}
	if strings.TrimSpace(ref.TaskID) == "" {
		return "", missing("task_id")
	}
	return ref.TaskID, nil
}

func (e *Executor) addTask(ctx context.Context, c *call) (any, error) {
	var params todoist.TaskParams
	if err := decodeArgs(c.args, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Content) == "" {
		return nil, missing("content")
	}
	return e.tasks.AddTask(ctx, params), nil
}

func (e *Executor) getProjects(ctx context.Context, _ *call) (any, error) {
	return e.tasks.GetProjects(ctx), nil
}

func (e *Executor) getTasks(ctx context.Context, c *call) (any, error) {
	var filter struct {
		ProjectID string `mapstructure:"project_id"`
	}
	if err := decodeArgs(c.args, &filter); err != nil {
		return nil, err
	}
	return e.tasks.GetTasks(ctx, filter.ProjectID), nil
}

func (e *Executor) completeTask(ctx context.Context, c *call) (any, error) {
	id, err := e.taskID(c)
	if err != nil {
		return nil, err
	}
	return e.tasks.CompleteTask(ctx, id), nil
}

func (e *Executor) updateTask(ctx context.Context, c *call) (any, error) {
	id, err := e.taskID(c)
	if err != nil {
		return nil, err
	}
	var params todoist.TaskParams
	if err := decodeArgs(c.args, &params); err != nil {
		return nil, err
	}
	return e.tasks.UpdateTask(ctx, id, params), nil
}

func (e *Executor) deleteTask(ctx context.Context, c *call) (any, error) {
	id, err := e.taskID(c)
	if err != nil {
		return nil, err
	}
	return e.tasks.DeleteTask(ctx, id), nil
}

func (e *Executor) getLabels(ctx context.Context, _ *call) (any, error) {
	return e.tasks.GetLabels(ctx), nil
}

type preferenceArgs struct {
	Key   string `mapstructure:"key"`
	Value any    `mapstructure:"value"`
}

func (e *Executor) updatePreference(_ context.Context, c *call) (any, error) {
	if c.memory == nil {
		return nil, errNoMemory
	}
	var args preferenceArgs
	if err := decodeArgs(c.args, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Key) == "" {
		return nil, missing("key")
	}
	if _, ok := c.args["value"]; !ok {
		return nil, missing("value")
	}
	if c.memory.Preferences == nil {
		c.memory.Preferences = map[string]any{}
	}
	c.memory.Preferences[args.Key] = args.Value
	return map[string]any{"success": true, "key": args.Key, "value": args.Value}, nil
}

func (e *Executor) getPreference(_ context.Context, c *call) (any, error) {
	if c.memory == nil {
		return nil, errNoMemory
	}
	var args preferenceArgs
	if err := decodeArgs(c.args, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Key) == "" {
		return nil, missing("key")
	}
	value, found := c.memory.Preferences[args.Key]
	return map[string]any{"success": true, "key": args.Key, "value": value, "found": found}, nil
}
