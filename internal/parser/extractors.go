package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/avvvet/tietaja/internal/models"
)

// ExtractJSONBlocks finds JSON objects or arrays anywhere in text, fenced or
// not, whose elements have the shape {"action": string, "args": object}.
func ExtractJSONBlocks(text string) []models.ActionRequest {
	var out []models.ActionRequest
	for i := 0; i < len(text); {
		if text[i] != '{' && text[i] != '[' {
			i++
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var v any
		if err := dec.Decode(&v); err != nil {
			i++
			continue
		}
		found := actionsFromJSON(v)
		if len(found) == 0 {
			// not an action; nested values may still be
			i++
			continue
		}
		out = append(out, found...)
		i += int(dec.InputOffset())
	}
	return out
}

func actionsFromJSON(v any) []models.ActionRequest {
	switch t := v.(type) {
	case map[string]any:
		if req, ok := actionFromObject(t); ok {
			return []models.ActionRequest{req}
		}
	case []any:
		var out []models.ActionRequest
		for _, item := range t {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if req, ok := actionFromObject(obj); ok {
				out = append(out, req)
			}
		}
		return out
	}
	return nil
}

func actionFromObject(obj map[string]any) (models.ActionRequest, bool) {
	name, ok := obj["action"].(string)
	if !ok || name == "" {
		return models.ActionRequest{}, false
	}
	args, ok := obj["args"].(map[string]any)
	if !ok {
		return models.ActionRequest{}, false
	}
	confidence := ConfidenceJSONBlock
	if c, ok := obj["confidence"].(float64); ok && c >= 0 && c <= 1 {
		confidence = c
	}
	return models.ActionRequest{Name: name, Arguments: args, Confidence: confidence}, true
}

var (
	functionArgsPattern = regexp.MustCompile(`(?i)\bfunction:\s*(\w+)\s*args:\s*\{`)
	callPattern         = regexp.MustCompile(`(?i)(?:\bcall\s+(\w+)|\b([a-z][a-z0-9]*(?:_[a-z0-9]+)+))\s*\(([^)]*)\)`)
	keyValuePattern     = regexp.MustCompile(`(\w+)\s*[:=]\s*("[^"]*"|'[^']*'|[^,\s)}]+)`)
)

// ExtractFunctionCalls recognizes "function: name args: {...}", "call name(...)"
// and snake_case "name(...)" idioms.
func ExtractFunctionCalls(text string) []models.ActionRequest {
	var out []models.ActionRequest

	for _, m := range functionArgsPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		block := balanced(text, m[1]-1)
		out = append(out, models.ActionRequest{
			Name:       name,
			Arguments:  parseArgs(block),
			Confidence: ConfidenceFunction,
		})
	}

	for _, m := range callPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		out = append(out, models.ActionRequest{
			Name:       name,
			Arguments:  parseArgs(m[3]),
			Confidence: ConfidenceFunction,
		})
	}
	return out
}

// balanced returns the bracketed value starting at text[start], or the rest
// of text when it never closes.
func balanced(text string, start int) string {
	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text[start:]
}

// parseArgs decodes a JSON object, falling back to key:value or key=value pairs.
func parseArgs(s string) map[string]any {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]any{}
	}
	if strings.HasPrefix(s, "{") {
		var args map[string]any
		if err := json.Unmarshal([]byte(s), &args); err == nil && args != nil {
			return args
		}
	}
	return ParseKeyValues(s)
}

// ParseKeyValues reads key:value and key=value pairs, coercing booleans and
// numbers. Quoted values keep their text.
func ParseKeyValues(s string) map[string]any {
	args := map[string]any{}
	for _, m := range keyValuePattern.FindAllStringSubmatch(s, -1) {
		args[m[1]] = coerce(m[2])
	}
	return args
}

func coerce(raw string) any {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		return raw[1 : len(raw)-1]
	}
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && strings.Contains(raw, ".") {
		return f
	}
	return raw
}

var (
	keywordPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\baction:\s*(\w+)`),
		regexp.MustCompile(`(?i)\bperform\s+(\w+)`),
		regexp.MustCompile(`(?i)\bexecute\s+(\w+)`),
		regexp.MustCompile(`(?i)\brun\s+(\w+)`),
	}

	nearbyStringArgs = map[string]*regexp.Regexp{
		"content":     regexp.MustCompile(`(?i)content["'\s]*[:=]["'\s]*["']([^"']+)["']`),
		"project_id":  regexp.MustCompile(`(?i)project_id["'\s]*[:=]["'\s]*["']?([\w-]+)`),
		"due_date":    regexp.MustCompile(`(?i)due_date["'\s]*[:=]["'\s]*["']([^"']+)["']`),
		"description": regexp.MustCompile(`(?i)description["'\s]*[:=]["'\s]*["']([^"']+)["']`),
	}
	nearbyPriority = regexp.MustCompile(`(?i)priority["'\s]*[:=]["'\s]*(\d+)`)
	nearbyLabels   = regexp.MustCompile(`(?i)labels["'\s]*[:=]\s*\[([^\]]*)\]`)
)

const nearbyWindow = 200

// ExtractActionKeywords finds "action: X", "perform X", "execute X" and "run X"
// and harvests known argument names from the text around X.
func ExtractActionKeywords(text string) []models.ActionRequest {
	var out []models.ActionRequest
	for _, p := range keywordPatterns {
		for _, m := range p.FindAllStringSubmatchIndex(text, -1) {
			name := text[m[2]:m[3]]
			out = append(out, models.ActionRequest{
				Name:       name,
				Arguments:  nearbyArgs(text, m[2], m[3]),
				Confidence: ConfidenceKeyword,
			})
		}
	}
	return out
}

func nearbyArgs(text string, start, end int) map[string]any {
	lo := max(start-nearbyWindow, 0)
	hi := min(end+nearbyWindow, len(text))
	window := text[lo:hi]

	args := map[string]any{}
	for key, p := range nearbyStringArgs {
		if m := p.FindStringSubmatch(window); m != nil {
			args[key] = strings.TrimSpace(m[1])
		}
	}
	if m := nearbyPriority.FindStringSubmatch(window); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			args["priority"] = n
		}
	}
	if m := nearbyLabels.FindStringSubmatch(window); m != nil {
		var labels []any
		for _, l := range strings.Split(m[1], ",") {
			l = strings.Trim(strings.TrimSpace(l), `"'`)
			if l != "" {
				labels = append(labels, l)
			}
		}
		if len(labels) > 0 {
			args["labels"] = labels
		}
	}
	return args
}

type intentPattern struct {
	re     *regexp.Regexp
	action string
	// arg receives the first capture group when set
	arg string
}

var intentPatterns = []intentPattern{
	{regexp.MustCompile(`(?i)\b(?:add|create)\b[^\n]*?\btasks?\b[^\n]*?["']([^"'\n]+)["']`), "add_task", "content"},
	{regexp.MustCompile(`(?i)\b(?:show|list|get)\b[^\n]*?\bprojects\b`), "get_projects", ""},
	{regexp.MustCompile(`(?i)\b(?:show|list|get)\b[^\n]*?\btasks\b`), "get_tasks", ""},
	{regexp.MustCompile(`(?i)\bcomplete\b[^\n]*?\btask\b[^\n]*?["']([^"'\n]+)["']`), "complete_task", "task_id"},
	{regexp.MustCompile(`(?i)\bmark\b[^\n]*?\btask\b[^\n]*?["']([^"'\n]+)["'][^\n]*?\b(?:complete|done)\b`), "complete_task", "task_id"},
}

// ExtractNaturalLanguage maps plain-English intents onto the built-in task tools.
func ExtractNaturalLanguage(text string) []models.ActionRequest {
	var out []models.ActionRequest
	for _, ip := range intentPatterns {
		for _, m := range ip.re.FindAllStringSubmatch(text, -1) {
			args := map[string]any{}
			if ip.arg != "" && len(m) > 1 {
				args[ip.arg] = strings.TrimSpace(m[1])
			}
			out = append(out, models.ActionRequest{
				Name:       ip.action,
				Arguments:  args,
				Confidence: ConfidenceNatural,
			})
		}
	}
	return out
}
