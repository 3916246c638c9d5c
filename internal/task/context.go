package task

// Standard variable names the editor collaborator populates. Loaders and
// templates may reference any name; these are the ones Taskpick fills in
// itself when building a context from an open file.
const (
	// VarFile is the absolute path of the active file.
	VarFile = "FILE"

	// VarRow is the 1-based cursor row.
	VarRow = "ROW"

	// VarColumn is the 1-based cursor column.
	VarColumn = "COLUMN"

	// VarWorktreeRoot is the root path of the active worktree.
	VarWorktreeRoot = "WORKTREE_ROOT"

	// VarFilename is the base name of the active file.
	VarFilename = "FILENAME"

	// VarDirname is the directory of the active file.
	VarDirname = "DIRNAME"

	// VarStem is the base name of the active file without its extension.
	VarStem = "STEM"

	// VarLanguage is the language name of the active file.
	VarLanguage = "LANGUAGE"

	// VarSelectedText is the current selection, if any.
	VarSelectedText = "SELECTED_TEXT"
)

// Context is a read-only snapshot of editor state captured when a picker
// session opens, mapping variable names (without the leading '$') to values.
// A nil Context resolves every variable-dependent template to its verbatim
// form.
type Context map[string]string

// Location describes the active editor position a picker session was opened
// at. Language is resolved by the workspace collaborator from its registry;
// the engine itself applies no detection heuristics.
type Location struct {
	// Path is the absolute path of the active file. Empty when no file is
	// open.
	Path string

	// Row is the 1-based cursor row.
	Row int

	// Column is the 1-based cursor column.
	Column int

	// Language is the registered language of the active file, or empty.
	Language string
}
