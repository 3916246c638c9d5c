package sources

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dshills/taskpick/internal/task"
)

// Taskfile mirrors the subset of the go-task Taskfile schema Taskpick
// surfaces in the picker.
type Taskfile struct {
	Version string                 `yaml:"version"`
	Env     map[string]string      `yaml:"env"`
	Tasks   map[string]TaskfileDef `yaml:"tasks"`
}

// TaskfileDef is one task definition in a Taskfile.
type TaskfileDef struct {
	Desc     string            `yaml:"desc"`
	Dir      string            `yaml:"dir"`
	Env      map[string]string `yaml:"env"`
	Internal bool              `yaml:"internal"`
}

// ParseTaskfile parses a Taskfile.yml into templates, one per non-internal
// task, sorted by task name. Each template invokes the task runner itself
// ("task <name>") rather than inlining the task's command list.
func ParseTaskfile(data []byte) ([]task.Template, error) {
	var tf Taskfile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse taskfile: %w", err)
	}
	if len(tf.Tasks) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(tf.Tasks))
	for name := range tf.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	templates := make([]task.Template, 0, len(names))
	for _, name := range names {
		def := tf.Tasks[name]
		if def.Internal {
			continue
		}
		templates = append(templates, task.Template{
			Label:   "task " + name,
			Command: "task",
			Args:    []string{name},
			Env:     mergeEnv(tf.Env, def.Env),
			Cwd:     def.Dir,
		})
	}
	return templates, nil
}

// LoadTaskfile reads and parses a Taskfile.yml.
func LoadTaskfile(path string) ([]task.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taskfile: %w", err)
	}
	templates, err := ParseTaskfile(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return templates, nil
}

// mergeEnv overlays task-level env on top of file-level env.
func mergeEnv(global, local map[string]string) map[string]string {
	if len(global) == 0 && len(local) == 0 {
		return nil
	}
	merged := make(map[string]string, len(global)+len(local))
	for k, v := range global {
		merged[k] = v
	}
	for k, v := range local {
		merged[k] = v
	}
	return merged
}
