package workspace

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dshills/taskpick/internal/task"
)

// ActiveLocation describes the cursor position in the active buffer when a
// picker session opens. A zero value means no file is open.
type ActiveLocation struct {
	// Path is the absolute path of the active file.
	Path string

	// Row is the 1-based cursor row; zero when unknown.
	Row int

	// Column is the 1-based cursor column; zero when unknown.
	Column int

	// SelectedText is the current selection, if any.
	SelectedText string
}

// BuildContext assembles the task variable table from the active folder and
// location. Anything unknown is simply left out of the context, so templates
// referencing it keep their tokens verbatim and sort behind templates the
// context fully satisfies.
func BuildContext(folder Folder, loc ActiveLocation, langs *LanguageRegistry) task.Context {
	ctx := make(task.Context)

	if folder.Path != "" {
		ctx[task.VarWorktreeRoot] = folder.Path
	}
	if loc.Path != "" {
		ctx[task.VarFile] = loc.Path
		ctx[task.VarFilename] = filepath.Base(loc.Path)
		ctx[task.VarDirname] = filepath.Dir(loc.Path)
		ctx[task.VarStem] = stem(loc.Path)
		if langs != nil {
			if lang, ok := langs.LanguageFor(loc.Path); ok {
				ctx[task.VarLanguage] = lang
			}
		}
	}
	if loc.Row > 0 {
		ctx[task.VarRow] = strconv.Itoa(loc.Row)
	}
	if loc.Column > 0 {
		ctx[task.VarColumn] = strconv.Itoa(loc.Column)
	}
	if loc.SelectedText != "" {
		ctx[task.VarSelectedText] = loc.SelectedText
	}
	return ctx
}

// TaskLocation converts an active location into the engine's location form,
// resolving the file's language from the registry.
func TaskLocation(loc ActiveLocation, langs *LanguageRegistry) task.Location {
	out := task.Location{Path: loc.Path, Row: loc.Row, Column: loc.Column}
	if langs != nil && loc.Path != "" {
		if lang, ok := langs.LanguageFor(loc.Path); ok {
			out.Language = lang
		}
	}
	return out
}

// stem returns the file's base name with the final extension removed.
func stem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}
