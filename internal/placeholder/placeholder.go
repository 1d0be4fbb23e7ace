// Package placeholder expands $name and ${name} tokens in command and input templates.
package placeholder

import (
	"regexp"
	"strings"
)

var pattern = regexp.MustCompile(`\$(?:\{(\w+)\}|(\w+))`)

// Names returns the distinct placeholder names referenced in s, in order of appearance.
func Names(s string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range pattern.FindAllStringSubmatch(s, -1) {
		name := tokenName(m)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Contains reports whether s references the named placeholder.
func Contains(s, name string) bool {
	for _, n := range Names(s) {
		if n == name {
			return true
		}
	}
	return false
}

// Expand replaces every placeholder found in values. Unknown placeholders are
// left verbatim and returned as missing.
func Expand(s string, values map[string]string) (string, []string) {
	var missing []string
	out := pattern.ReplaceAllStringFunc(s, func(tok string) string {
		name := tokenName(pattern.FindStringSubmatch(tok))
		if v, ok := values[name]; ok {
			return v
		}
		missing = append(missing, name)
		return tok
	})
	return out, missing
}

// Unresolved returns the placeholders in s that are neither in values nor in reserved.
func Unresolved(s string, values map[string]string, reserved ...string) []string {
	var out []string
	for _, name := range Names(s) {
		if _, ok := values[name]; ok {
			continue
		}
		if isReserved(name, reserved) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Format renders names as "$a, $b" for messages.
func Format(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = "$" + n
	}
	return strings.Join(parts, ", ")
}

func tokenName(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

func isReserved(name string, reserved []string) bool {
	for _, r := range reserved {
		if r == name {
			return true
		}
	}
	return false
}
