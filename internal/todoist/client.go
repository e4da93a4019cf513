// Package todoist is a small client for the Todoist REST API.
//
// No method returns an error: transport failures, non-2xx responses and a
// missing token all come back as Result{Success: false, Error: ...}.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.todoist.com/rest/v2"
	DefaultTimeout = 10 * time.Second

	errNoToken = "No Todoist API token configured"
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed: %d", e.Code)
}

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	logger     *slog.Logger
}

func NewClient(token, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	if token == "" {
		logger.Warn("todoist token not set, task actions will fail")
	}
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) HasToken() bool {
	return strings.TrimSpace(c.Token) != ""
}

func (c *Client) AddTask(ctx context.Context, params TaskParams) Result {
	if !c.HasToken() {
		return Result{Error: errNoToken}
	}
	var task Task
	if err := c.doJSON(ctx, http.MethodPost, "/tasks", nil, params, &task); err != nil {
		return c.failure("add_task", err)
	}
	c.logger.Info("task created", "task_id", task.ID)
	return Result{Success: true, Task: &task, TaskID: task.ID, Message: "Task created successfully"}
}

func (c *Client) GetProjects(ctx context.Context) Result {
	if !c.HasToken() {
		return Result{Error: errNoToken}
	}
	var projects []Project
	if err := c.doJSON(ctx, http.MethodGet, "/projects", nil, nil, &projects); err != nil {
		return c.failure("get_projects", err)
	}
	r := listResult(len(projects))
	r.Projects = projects
	return r
}

// GetTasks lists active tasks. projectID filters only when it is numeric;
// anything else (a project name, say) lists all tasks.
func (c *Client) GetTasks(ctx context.Context, projectID string) Result {
	if !c.HasToken() {
		return Result{Error: errNoToken}
	}
	var query url.Values
	if isNumeric(projectID) {
		query = url.Values{"project_id": {projectID}}
	} else if projectID != "" {
		c.logger.Debug("ignoring non-numeric project filter", "project_id", projectID)
	}
	var tasks []Task
	if err := c.doJSON(ctx, http.MethodGet, "/tasks", query, nil, &tasks); err != nil {
		return c.failure("get_tasks", err)
	}
	r := listResult(len(tasks))
	r.Tasks = tasks
	return r
}

func (c *Client) UpdateTask(ctx context.Context, taskID string, params TaskParams) Result {
	if !c.HasToken() {
		return Result{Error: errNoToken}
	}
	var task Task
	if err := c.doJSON(ctx, http.MethodPost, "/tasks/"+url.PathEscape(taskID), nil, params, &task); err != nil {
		return c.failure("update_task", err)
	}
	return Result{Success: true, Task: &task, TaskID: taskID, Message: "Task updated successfully"}
}

func (c *Client) CompleteTask(ctx context.Context, taskID string) Result {
	if !c.HasToken() {
		return Result{Error: errNoToken}
	}
	if err := c.doJSON(ctx, http.MethodPost, "/tasks/"+url.PathEscape(taskID)+"/close", nil, nil, nil); err != nil {
		return c.failure("complete_task", err)
	}
	return Result{Success: true, TaskID: taskID, Message: "Task completed successfully"}
}

func (c *Client) DeleteTask(ctx context.Context, taskID string) Result {
	if !c.HasToken() {
		return Result{Error: errNoToken}
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(taskID), nil, nil, nil); err != nil {
		return c.failure("delete_task", err)
	}
	return Result{Success: true, TaskID: taskID, Message: "Task deleted successfully"}
}

func (c *Client) GetLabels(ctx context.Context) Result {
	if !c.HasToken() {
		return Result{Error: errNoToken}
	}
	var labels []Label
	if err := c.doJSON(ctx, http.MethodGet, "/labels", nil, nil, &labels); err != nil {
		return c.failure("get_labels", err)
	}
	r := listResult(len(labels))
	r.Labels = labels
	return r
}

func (c *Client) failure(op string, err error) Result {
	c.logger.Error("todoist request failed", "op", op, "error", err)

	var statusErr *StatusError
	var urlErr *url.Error
	switch {
	case errors.As(err, &statusErr):
		return Result{Error: statusErr.Error()}
	case errors.As(err, &urlErr):
		return Result{Error: "Network error: " + urlErr.Err.Error()}
	default:
		return Result{Error: err.Error()}
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, out any) error {
	u, err := url.Parse(strings.TrimRight(c.BaseURL, "/") + path)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		buf, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.Token))

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("todoist request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
