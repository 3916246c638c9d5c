// Package main is the command line entry point for Taskpick. It loads the
// settings file and the worktree's task sources, resolves templates against
// the active file, and either lists the ranked picker candidates or runs
// one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/taskpick/internal/config"
	"github.com/dshills/taskpick/internal/picker"
	"github.com/dshills/taskpick/internal/schedule"
	"github.com/dshills/taskpick/internal/task"
	"github.com/dshills/taskpick/internal/task/sources"
	"github.com/dshills/taskpick/internal/workspace"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath  string
	worktree    string
	file        string
	row         int
	column      int
	query       string
	runTask     bool
	rerun       bool
	spawn       string
	omitHistory bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	settings, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ws := workspace.New()
	folder, err := ws.AddFolder(opts.worktree)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open worktree %s: %v\n", opts.worktree, err)
		return 1
	}

	langs := workspace.NewLanguageRegistry()
	for _, lang := range settings.Languages {
		langs.Register(lang.Name, lang.Suffixes...)
	}

	inventory := task.NewInventory(settings.HistoryCapacity)
	loadTemplates(inventory, settings, folder)

	loc := workspace.ActiveLocation{Path: opts.file, Row: opts.row, Column: opts.column}
	taskCtx := workspace.BuildContext(folder, loc, langs)
	taskLoc := workspace.TaskLocation(loc, langs)

	scheduler := schedule.NewScheduler(inventory, schedule.Config{
		Shell:      settings.Shell,
		WorkingDir: folder.Path,
	})
	session := picker.NewSession(inventory, scheduler, folder.ID, taskLoc, taskCtx, picker.Options{
		MatchLimit: settings.MatchLimit,
	})
	session.UpdateMatches(context.Background(), opts.query)

	switch {
	case opts.spawn != "":
		return spawnOneshot(scheduler, taskCtx, opts.spawn, opts.omitHistory)
	case opts.rerun:
		return rerunLast(scheduler, inventory, opts.omitHistory)
	case opts.runTask:
		return runSelected(scheduler, session, opts.omitHistory)
	default:
		printMatches(session)
		return 0
	}
}

// loadTemplates registers every configured template source with the
// inventory: the worktree's own task files, the global files from the
// settings, and the per-language declarations. Missing files are fine;
// malformed ones are reported and skipped.
func loadTemplates(inventory *task.Inventory, settings config.Settings, folder workspace.Folder) {
	var worktreeTemplates []task.Template

	tasksPath := filepath.Join(folder.Path, ".taskpick", "tasks.json")
	if templates, err := sources.LoadTasksJSON(tasksPath); err == nil {
		worktreeTemplates = append(worktreeTemplates, templates...)
	} else if !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	for _, name := range []string{"Taskfile.yml", "Taskfile.yaml"} {
		templates, err := sources.LoadTaskfile(filepath.Join(folder.Path, name))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
			continue
		}
		worktreeTemplates = append(worktreeTemplates, templates...)
		break
	}
	inventory.SetTemplates(task.Worktree(folder.ID), worktreeTemplates)

	for _, path := range settings.GlobalTaskFiles {
		templates, err := sources.LoadTasksJSON(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
			continue
		}
		inventory.SetTemplates(task.AbsPath(path), templates)
	}

	for _, lang := range settings.Languages {
		inventory.SetTemplates(task.Language(lang.Name), lang.Templates())
	}
}

// printMatches writes the ranked candidate list to stdout, separating the
// previously used partition from fresh template resolutions.
func printMatches(session *picker.Session) {
	matches := session.Matches()
	divider := session.Divider()

	for i, m := range matches {
		fmt.Println(m.Text)
		if divider > 0 && i == divider-1 && i < len(matches)-1 {
			fmt.Println("--------")
		}
	}
}

// runSelected executes the top-ranked match and waits for it.
func runSelected(scheduler *schedule.Scheduler, session *picker.Session, omitHistory bool) int {
	cand, ok := session.SelectedCandidate()
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no task matches the query\n")
		return 1
	}
	return startAndWait(scheduler, cand.Kind, cand.Task, omitHistory)
}

// spawnOneshot runs a raw command line as a user-input task.
func spawnOneshot(scheduler *schedule.Scheduler, taskCtx task.Context, command string, omitHistory bool) int {
	tmpl := task.Template{Label: command, Command: command}
	resolved, ok := task.Resolve(task.UserInput(), tmpl, taskCtx)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: empty command\n")
		return 1
	}
	return startAndWait(scheduler, task.UserInput(), resolved, omitHistory)
}

// rerunLast executes the most recently scheduled task again.
func rerunLast(scheduler *schedule.Scheduler, inventory *task.Inventory, omitHistory bool) int {
	cand, ok := inventory.LastScheduled(nil)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no task has been scheduled yet\n")
		return 1
	}
	return startAndWait(scheduler, cand.Kind, cand.Task, omitHistory)
}

func startAndWait(scheduler *schedule.Scheduler, kind task.SourceKind, resolved *task.ResolvedTask, omitHistory bool) int {
	run, err := scheduler.Start(context.Background(), kind, resolved, omitHistory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "> %s\n", resolved.Command.Label)
	if err := run.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Task %q failed: %v\n", resolved.ResolvedLabel, err)
		if code := run.ExitCode(); code > 0 {
			return code
		}
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", defaultConfigPath(), "Path to settings file")
	flag.StringVar(&opts.worktree, "w", ".", "Worktree directory")
	flag.StringVar(&opts.file, "file", "", "Active file tasks resolve against")
	flag.IntVar(&opts.row, "row", 0, "Active cursor row (1-based)")
	flag.IntVar(&opts.column, "col", 0, "Active cursor column (1-based)")
	flag.StringVar(&opts.query, "query", "", "Fuzzy query over the candidate list")
	flag.BoolVar(&opts.runTask, "run", false, "Run the top-ranked match instead of listing")
	flag.BoolVar(&opts.rerun, "rerun", false, "Run the most recently scheduled task again")
	flag.StringVar(&opts.spawn, "spawn", "", "Run a raw command line as a oneshot task")
	flag.BoolVar(&opts.omitHistory, "omit-history", false, "Keep this run out of the usage history")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Taskpick - task resolution and ranking for the editor's task picker\n\n")
		fmt.Fprintf(os.Stderr, "Usage: taskpick [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  taskpick -w ./project                   List the project's tasks\n")
		fmt.Fprintf(os.Stderr, "  taskpick -query test -run               Run the best \"test\" match\n")
		fmt.Fprintf(os.Stderr, "  taskpick -file main.go -row 10 -query t Run against an active file\n")
		fmt.Fprintf(os.Stderr, "  taskpick -spawn \"go vet ./...\"          Run a oneshot command\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Taskpick %s (%s)\n", version, commit)
		os.Exit(0)
	}

	return opts
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "taskpick", "settings.toml")
}
