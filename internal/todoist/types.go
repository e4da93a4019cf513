package todoist

type Project struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Color          string `json:"color,omitempty"`
	ParentID       string `json:"parent_id,omitempty"`
	Order          int    `json:"order,omitempty"`
	IsShared       bool   `json:"is_shared,omitempty"`
	IsFavorite     bool   `json:"is_favorite,omitempty"`
	IsInboxProject bool   `json:"is_inbox_project,omitempty"`
	URL            string `json:"url,omitempty"`
}

type Due struct {
	String      string `json:"string,omitempty"`
	Date        string `json:"date,omitempty"`
	Datetime    string `json:"datetime,omitempty"`
	IsRecurring bool   `json:"is_recurring,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

type Task struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id,omitempty"`
	SectionID   string   `json:"section_id,omitempty"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	IsCompleted bool     `json:"is_completed"`
	Labels      []string `json:"labels,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Due         *Due     `json:"due,omitempty"`
	URL         string   `json:"url,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

type Label struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	Order      int    `json:"order,omitempty"`
	IsFavorite bool   `json:"is_favorite,omitempty"`
}

// TaskParams is the writable subset of a task. Empty fields are not sent.
type TaskParams struct {
	Content     string   `json:"content,omitempty" mapstructure:"content"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
	ProjectID   string   `json:"project_id,omitempty" mapstructure:"project_id"`
	DueDate     string   `json:"due_date,omitempty" mapstructure:"due_date"`
	DueString   string   `json:"due_string,omitempty" mapstructure:"due_string"`
	Priority    int      `json:"priority,omitempty" mapstructure:"priority"`
	Labels      []string `json:"labels,omitempty" mapstructure:"labels"`
}

// Result is the uniform outcome of every client call. Failures are values:
// Success is false and Error says why.
type Result struct {
	Success  bool      `json:"success"`
	Error    string    `json:"error,omitempty"`
	Message  string    `json:"message,omitempty"`
	TaskID   string    `json:"task_id,omitempty"`
	Task     *Task     `json:"task,omitempty"`
	Tasks    []Task    `json:"tasks,omitempty"`
	Projects []Project `json:"projects,omitempty"`
	Labels   []Label   `json:"labels,omitempty"`
	Count    *int      `json:"count,omitempty"`
}

func listResult(n int) Result {
	return Result{Success: true, Count: &n}
}
