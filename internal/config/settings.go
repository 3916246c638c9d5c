// Package config loads Taskpick's settings file. Settings cover the engine
// knobs (history capacity, match limit), the shell runs execute under,
// global task template files, and per-language suffix tables with inline
// templates.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/taskpick/internal/task"
)

// DefaultMatchLimit caps picker matches when the settings file does not set
// its own limit.
const DefaultMatchLimit = 1000

// Settings is the root of the TOML settings file.
type Settings struct {
	// HistoryCapacity bounds the task usage history.
	HistoryCapacity int `toml:"history_capacity"`

	// MatchLimit caps the number of picker matches per query.
	MatchLimit int `toml:"match_limit"`

	// Shell overrides the shell runs execute under.
	Shell string `toml:"shell"`

	// GlobalTaskFiles are absolute paths of JSON task files available in
	// every worktree.
	GlobalTaskFiles []string `toml:"global_task_files"`

	// Languages declares language names, their file suffixes, and the task
	// templates active while a file of that language is focused.
	Languages []LanguageSettings `toml:"languages"`
}

// LanguageSettings binds file suffixes and task templates to a language.
type LanguageSettings struct {
	Name     string             `toml:"name"`
	Suffixes []string           `toml:"suffixes"`
	Tasks    []TemplateSettings `toml:"tasks"`
}

// TemplateSettings is one task template declared inline in the settings
// file.
type TemplateSettings struct {
	Label               string            `toml:"label"`
	Command             string            `toml:"command"`
	Args                []string          `toml:"args"`
	Env                 map[string]string `toml:"env"`
	Cwd                 string            `toml:"cwd"`
	AllowConcurrentRuns bool              `toml:"allow_concurrent_runs"`
}

// Template converts the declaration to an engine template.
func (t TemplateSettings) Template() task.Template {
	return task.Template{
		Label:               t.Label,
		Command:             t.Command,
		Args:                t.Args,
		Env:                 t.Env,
		Cwd:                 t.Cwd,
		AllowConcurrentRuns: t.AllowConcurrentRuns,
	}
}

// Templates converts a language's task declarations, skipping entries
// missing a label or command.
func (l LanguageSettings) Templates() []task.Template {
	var templates []task.Template
	for _, decl := range l.Tasks {
		if decl.Label == "" || decl.Command == "" {
			continue
		}
		templates = append(templates, decl.Template())
	}
	return templates
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		HistoryCapacity: task.DefaultHistoryCapacity,
		MatchLimit:      DefaultMatchLimit,
	}
}

// Load reads settings from path. A missing file is not an error: it yields
// the defaults, matching first-run behavior.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("reading settings file %s: %w", path, err)
	}
	settings, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	return settings, nil
}

// Parse decodes settings from TOML, filling defaults for anything unset or
// out of range.
func Parse(data []byte) (Settings, error) {
	settings := DefaultSettings()
	if err := toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, err
	}

	if settings.HistoryCapacity <= 0 {
		settings.HistoryCapacity = task.DefaultHistoryCapacity
	}
	if settings.MatchLimit <= 0 {
		settings.MatchLimit = DefaultMatchLimit
	}
	return settings, nil
}
