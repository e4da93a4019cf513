// Package schemas declares the tools offered to the model on each turn.
package schemas

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/avvvet/tietaja/internal/models"
	"gopkg.in/yaml.v3"
)

// Registry serves built-in schemas followed by custom ones found in a directory.
// Custom schemas are appended in file-name order; duplicate names are kept.
type Registry struct {
	dir    string
	logger *slog.Logger

	mu     sync.RWMutex
	custom []models.ToolSchema
}

// NewRegistry scans dir once. A missing directory yields no custom schemas.
func NewRegistry(dir string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{dir: dir, logger: logger}
	r.custom = r.scan()
	return r
}

// List returns todoist built-ins, memory built-ins, then custom schemas.
func (r *Registry) List() []models.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := TodoistSchemas()
	out = append(out, MemorySchemas()...)
	out = append(out, r.custom...)
	return out
}

// Get returns the first schema with the given name.
func (r *Registry) Get(name string) (models.ToolSchema, bool) {
	for _, s := range r.List() {
		if s.Function.Name == name {
			return s, true
		}
	}
	return models.ToolSchema{}, false
}

// Reload rescans the directory.
func (r *Registry) Reload() {
	custom := r.scan()
	r.mu.Lock()
	r.custom = custom
	r.mu.Unlock()
	r.logger.Info("schemas reloaded", "custom", len(custom))
}

// WriteDefaults writes todoist.json and memory.json into the directory unless present.
func (r *Registry) WriteDefaults() error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create schemas dir: %w", err)
	}
	defaults := []struct {
		file    string
		schemas []models.ToolSchema
	}{
		{"todoist.json", TodoistSchemas()},
		{"memory.json", MemorySchemas()},
	}
	for _, d := range defaults {
		path := filepath.Join(r.dir, d.file)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		data, err := json.MarshalIndent(d.schemas, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", d.file, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", d.file, err)
		}
		r.logger.Info("created default schema file", "path", path)
	}
	return nil
}

// Validate applies the structural shape check used for custom schemas.
func Validate(raw map[string]any) error {
	if t, _ := raw["type"].(string); t != "function" {
		return errors.New(`schema type must be "function"`)
	}
	fn, ok := raw["function"].(map[string]any)
	if !ok {
		return errors.New("schema has no function object")
	}
	if _, ok := fn["name"]; !ok {
		return errors.New("function has no name")
	}
	if _, ok := fn["description"]; !ok {
		return errors.New("function has no description")
	}
	return nil
}

func (r *Registry) scan() []models.ToolSchema {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Error("failed to scan schemas directory", "dir", r.dir, "error", err)
		}
		return nil
	}

	var out []models.ToolSchema
	for _, e := range entries {
		if e.IsDir() || !isSchemaFile(e.Name()) {
			continue
		}
		path := filepath.Join(r.dir, e.Name())
		schemas, err := loadFile(path)
		if err != nil {
			r.logger.Warn("skipping malformed schema file", "path", path, "error", err)
			continue
		}
		for i, raw := range schemas {
			if err := Validate(raw); err != nil {
				r.logger.Warn("skipping invalid schema", "path", path, "index", i, "error", err)
				continue
			}
			s, err := toSchema(raw)
			if err != nil {
				r.logger.Warn("skipping invalid schema", "path", path, "index", i, "error", err)
				continue
			}
			out = append(out, s)
		}
		r.logger.Info("loaded custom schema file", "path", path, "schemas", len(schemas))
	}
	return out
}

func isSchemaFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// loadFile decodes a file holding one schema object or an array of them.
func loadFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, err
	}

	switch v := doc.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("array element %d is not an object", i)
			}
			out = append(out, obj)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected object or array, got %T", doc)
	}
}

func toSchema(raw map[string]any) (models.ToolSchema, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return models.ToolSchema{}, err
	}
	var s models.ToolSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return models.ToolSchema{}, err
	}
	return s, nil
}
