package task

import (
	"fmt"
	"strings"
)

// WorktreeID identifies a workspace folder (worktree) a template is scoped to.
type WorktreeID int64

// KindTag discriminates SourceKind variants.
type KindTag uint8

const (
	// KindUserInput marks ad-hoc oneshot tasks typed into the picker.
	KindUserInput KindTag = iota

	// KindAbsPath marks templates loaded from a global config file.
	KindAbsPath

	// KindWorktree marks templates scoped to a single worktree.
	KindWorktree

	// KindLanguage marks templates scoped to a language.
	KindLanguage
)

// String returns a string representation of the tag.
func (t KindTag) String() string {
	switch t {
	case KindUserInput:
		return "oneshot"
	case KindAbsPath:
		return "abs"
	case KindWorktree:
		return "worktree"
	case KindLanguage:
		return "language"
	default:
		return "unknown"
	}
}

// SourceKind identifies where a task template came from. It is a closed
// tagged union: exactly one variant applies, selected by Tag, and consumers
// switch exhaustively on it. The kind determines grouping, the ID base of
// resolved tasks, and whether an entry is user-deletable.
type SourceKind struct {
	// Tag selects the variant.
	Tag KindTag

	// Path is the config file path for KindAbsPath.
	Path string

	// Worktree is the owning worktree for KindWorktree.
	Worktree WorktreeID

	// Language is the language name for KindLanguage.
	Language string
}

// UserInput returns the kind for ad-hoc oneshot tasks.
func UserInput() SourceKind {
	return SourceKind{Tag: KindUserInput}
}

// AbsPath returns the kind for templates from a global config file.
func AbsPath(path string) SourceKind {
	return SourceKind{Tag: KindAbsPath, Path: path}
}

// Worktree returns the kind for templates scoped to a worktree.
func Worktree(id WorktreeID) SourceKind {
	return SourceKind{Tag: KindWorktree, Worktree: id}
}

// Language returns the kind for templates scoped to a language.
func Language(name string) SourceKind {
	return SourceKind{Tag: KindLanguage, Language: name}
}

// IDBase returns the identity prefix for tasks resolved from this kind.
// Tasks from different kinds never compare equal even when their templates
// and substitutions match.
func (k SourceKind) IDBase() string {
	switch k.Tag {
	case KindUserInput:
		return "oneshot"
	case KindAbsPath:
		return "abs:" + k.Path
	case KindWorktree:
		return fmt.Sprintf("worktree:%d", k.Worktree)
	case KindLanguage:
		return "lang:" + strings.ToLower(k.Language)
	default:
		return "unknown"
	}
}

// Deletable reports whether entries of this kind may be removed by the user
// from outside the history partition. History entries are always deletable.
func (k SourceKind) Deletable() bool {
	return k.Tag == KindUserInput
}
