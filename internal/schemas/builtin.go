package schemas

import "github.com/avvvet/tietaja/internal/models"

func function(name, description string, properties map[string]any, required ...string) models.ToolSchema {
	if required == nil {
		required = []string{}
	}
	return models.ToolSchema{
		Type: "function",
		Function: models.FunctionSchema{
			Name:        name,
			Description: description,
			Parameters: map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// TodoistSchemas are the built-in task-management tools.
func TodoistSchemas() []models.ToolSchema {
	return []models.ToolSchema{
		function("add_task", "Add a new task to Todoist", map[string]any{
			"content":    stringProp("The content/description of the task"),
			"project_id": stringProp("Optional project ID to add the task to"),
			"due_date":   stringProp("Optional due date in ISO format (YYYY-MM-DD)"),
			"priority": map[string]any{
				"type":        "integer",
				"description": "Task priority (1-4, where 1 is highest)",
				"minimum":     1,
				"maximum":     4,
			},
			"description": stringProp("Optional detailed description of the task"),
			"labels": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Optional list of label names to apply",
			},
		}, "content"),
		function("get_projects", "Get all Todoist projects", map[string]any{}),
		function("get_tasks", "Get tasks from Todoist, optionally filtered by project", map[string]any{
			"project_id": stringProp("Optional project ID to filter tasks"),
		}),
		function("complete_task", "Mark a Todoist task as completed", map[string]any{
			"task_id": stringProp("The ID of the task to complete"),
		}, "task_id"),
	}
}

// MemorySchemas are the built-in preference tools.
func MemorySchemas() []models.ToolSchema {
	return []models.ToolSchema{
		function("update_preference", "Update a user preference in memory", map[string]any{
			"key":   stringProp("The preference key to update"),
			"value": stringProp("The new value for the preference"),
		}, "key", "value"),
		function("get_preference", "Get a user preference from memory", map[string]any{
			"key": stringProp("The preference key to retrieve"),
		}, "key"),
	}
}
