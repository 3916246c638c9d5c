// Package sources loads task templates from the file formats Taskpick
// understands and watches those files for changes. Parsers are lenient:
// entries that cannot become a runnable template are skipped, not fatal.
package sources

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/taskpick/internal/task"
)

// ErrInvalidJSON is returned when a tasks file is not valid JSON or its
// top level is neither a task array nor an object.
var ErrInvalidJSON = errors.New("invalid tasks JSON")

// ParseTasksJSON parses a tasks.json document into templates. The document
// may be a top-level array of task objects or an object with a "tasks"
// array; an object without one yields no templates. Entries missing a label
// or a command are skipped.
func ParseTasksJSON(data []byte) ([]task.Template, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}

	root := gjson.ParseBytes(data)
	list := root
	if root.IsObject() {
		list = root.Get("tasks")
		if !list.Exists() {
			return nil, nil
		}
	}
	if !list.IsArray() {
		return nil, ErrInvalidJSON
	}

	var templates []task.Template
	list.ForEach(func(_, entry gjson.Result) bool {
		if tmpl, ok := templateFromJSON(entry); ok {
			templates = append(templates, tmpl)
		}
		return true
	})
	return templates, nil
}

// LoadTasksJSON reads and parses a tasks.json file.
func LoadTasksJSON(path string) ([]task.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tasks file: %w", err)
	}
	templates, err := ParseTasksJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return templates, nil
}

func templateFromJSON(entry gjson.Result) (task.Template, bool) {
	label := entry.Get("label").String()
	command := entry.Get("command").String()
	if strings.TrimSpace(label) == "" || strings.TrimSpace(command) == "" {
		return task.Template{}, false
	}

	tmpl := task.Template{
		Label:               label,
		Command:             command,
		Cwd:                 entry.Get("cwd").String(),
		AllowConcurrentRuns: entry.Get("allow_concurrent_runs").Bool(),
	}
	for _, arg := range entry.Get("args").Array() {
		tmpl.Args = append(tmpl.Args, arg.String())
	}
	if env := entry.Get("env"); env.IsObject() {
		tmpl.Env = make(map[string]string)
		env.ForEach(func(key, value gjson.Result) bool {
			tmpl.Env[key.String()] = value.String()
			return true
		})
	}
	return tmpl, true
}
