package workspace

import (
	"errors"
	"testing"

	"github.com/dshills/taskpick/internal/task"
)

func TestAddFolderAssignsSequentialIDs(t *testing.T) {
	w := New()

	alpha, err := w.AddFolder("/work/alpha")
	if err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}
	beta, err := w.AddFolder("/work/beta")
	if err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}

	if alpha.ID == beta.ID {
		t.Errorf("folders share worktree ID %d", alpha.ID)
	}
	if alpha.Name != "alpha" || beta.Name != "beta" {
		t.Errorf("folder names = %q, %q", alpha.Name, beta.Name)
	}
	if got := len(w.Folders()); got != 2 {
		t.Errorf("expected 2 folders, got %d", got)
	}
}

func TestAddFolderRejectsDuplicatesAndEmptyPaths(t *testing.T) {
	w := New()
	if _, err := w.AddFolder(""); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("empty path: got %v, want ErrInvalidPath", err)
	}

	if _, err := w.AddFolder("/work/alpha"); err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}
	if _, err := w.AddFolder("/work/alpha"); !errors.Is(err, ErrFolderExists) {
		t.Errorf("duplicate path: got %v, want ErrFolderExists", err)
	}
}

func TestRemoveFolder(t *testing.T) {
	w := New()
	folder, err := w.AddFolder("/work/alpha")
	if err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}

	if err := w.RemoveFolder(folder.ID); err != nil {
		t.Fatalf("RemoveFolder failed: %v", err)
	}
	if err := w.RemoveFolder(folder.ID); !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("second remove: got %v, want ErrFolderNotFound", err)
	}
	if got := len(w.Folders()); got != 0 {
		t.Errorf("expected 0 folders, got %d", got)
	}
}

func TestFolderForPrefersDeepestRoot(t *testing.T) {
	w, err := NewFromPaths("/work/alpha", "/work/alpha/vendor", "/work/beta")
	if err != nil {
		t.Fatalf("NewFromPaths failed: %v", err)
	}

	tests := []struct {
		name  string
		path  string
		want  string
		found bool
	}{
		{"file in root", "/work/alpha/main.go", "/work/alpha", true},
		{"file in nested root", "/work/alpha/vendor/lib.go", "/work/alpha/vendor", true},
		{"root itself", "/work/beta", "/work/beta", true},
		{"outside all roots", "/elsewhere/x.go", "", false},
		{"sibling prefix", "/work/alphabet/x.go", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folder, ok := w.FolderFor(tt.path)
			if ok != tt.found {
				t.Fatalf("FolderFor(%q) found = %v, want %v", tt.path, ok, tt.found)
			}
			if ok && folder.Path != tt.want {
				t.Errorf("FolderFor(%q) = %q, want %q", tt.path, folder.Path, tt.want)
			}
		})
	}
}

func TestLanguageRegistry(t *testing.T) {
	langs := NewLanguageRegistry()
	langs.Register("Go", ".go")
	langs.Register("TypeScript", "ts", "tsx")
	langs.Register("TypeScript Test", "test.ts")

	tests := []struct {
		path  string
		want  string
		found bool
	}{
		{"/w/main.go", "Go", true},
		{"/w/app.ts", "TypeScript", true},
		{"/w/view.tsx", "TypeScript", true},
		{"/w/app.test.ts", "TypeScript Test", true},
		{"/w/README.md", "", false},
		{"/w/Makefile", "", false},
	}

	for _, tt := range tests {
		got, ok := langs.LanguageFor(tt.path)
		if ok != tt.found || got != tt.want {
			t.Errorf("LanguageFor(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.found)
		}
	}
}

func TestLanguageRegistryReplacesSuffix(t *testing.T) {
	langs := NewLanguageRegistry()
	langs.Register("JavaScript", "ts")
	langs.Register("TypeScript", "ts")

	got, ok := langs.LanguageFor("/w/app.ts")
	if !ok || got != "TypeScript" {
		t.Errorf("LanguageFor = %q, %v; want TypeScript", got, ok)
	}
}

func TestBuildContext(t *testing.T) {
	langs := NewLanguageRegistry()
	langs.Register("Go", "go")

	folder := Folder{ID: 1, Path: "/work/alpha", Name: "alpha"}
	loc := ActiveLocation{
		Path:         "/work/alpha/cmd/main.go",
		Row:          12,
		Column:       3,
		SelectedText: "run()",
	}

	ctx := BuildContext(folder, loc, langs)

	want := map[string]string{
		task.VarWorktreeRoot: "/work/alpha",
		task.VarFile:         "/work/alpha/cmd/main.go",
		task.VarFilename:     "main.go",
		task.VarDirname:      "/work/alpha/cmd",
		task.VarStem:         "main",
		task.VarLanguage:     "Go",
		task.VarRow:          "12",
		task.VarColumn:       "3",
		task.VarSelectedText: "run()",
	}
	for name, value := range want {
		if got := ctx[name]; got != value {
			t.Errorf("ctx[%q] = %q, want %q", name, got, value)
		}
	}
	if len(ctx) != len(want) {
		t.Errorf("context has %d entries, want %d", len(ctx), len(want))
	}
}

func TestBuildContextOmitsUnknowns(t *testing.T) {
	ctx := BuildContext(Folder{}, ActiveLocation{}, nil)
	if len(ctx) != 0 {
		t.Fatalf("empty state should yield empty context, got %v", ctx)
	}

	ctx = BuildContext(Folder{Path: "/work/alpha"}, ActiveLocation{Path: "/work/alpha/x.rs"}, NewLanguageRegistry())
	if _, ok := ctx[task.VarLanguage]; ok {
		t.Error("unregistered suffix should leave LANGUAGE unset")
	}
	if _, ok := ctx[task.VarRow]; ok {
		t.Error("zero row should leave ROW unset")
	}
}

func TestTaskLocation(t *testing.T) {
	langs := NewLanguageRegistry()
	langs.Register("Rust", "rs")

	loc := TaskLocation(ActiveLocation{Path: "/w/lib.rs", Row: 4, Column: 2}, langs)
	if loc.Language != "Rust" {
		t.Errorf("language = %q, want Rust", loc.Language)
	}
	if loc.Path != "/w/lib.rs" || loc.Row != 4 || loc.Column != 2 {
		t.Errorf("unexpected location %+v", loc)
	}
}
