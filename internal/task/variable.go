package task

import "regexp"

// tokenPattern matches ${NAME} and $NAME substitution tokens.
var tokenPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Expand replaces every recognized $NAME or ${NAME} token in input with its
// context value. Unrecognized tokens are left verbatim; substitution is
// permissive and never fails. The returned set holds the distinct variable
// names that were actually substituted.
func Expand(input string, ctx Context) (string, map[string]struct{}) {
	return expandWith(input, ctx, func(_, value string) string { return value })
}

// expandWith is Expand with a transform applied to each substituted value.
// The transform sees the variable name and its raw context value and returns
// the replacement text.
func expandWith(input string, ctx Context, transform func(name, value string) string) (string, map[string]struct{}) {
	if input == "" {
		return input, nil
	}

	var used map[string]struct{}
	out := tokenPattern.ReplaceAllStringFunc(input, func(match string) string {
		var name string
		if match[1] == '{' {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}

		value, ok := ctx[name]
		if !ok {
			return match
		}

		if used == nil {
			used = make(map[string]struct{})
		}
		used[name] = struct{}{}
		return transform(name, value)
	})

	return out, used
}

// mergeUsed folds src into dst, allocating dst on first use.
func mergeUsed(dst, src map[string]struct{}) map[string]struct{} {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]struct{}, len(src))
	}
	for name := range src {
		dst[name] = struct{}{}
	}
	return dst
}
