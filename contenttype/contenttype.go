// Package contenttype maps packaged file names to response content types.
package contenttype

import "strings"

// Default is returned for unknown or missing extensions.
const Default = "application/octet-stream"

// builtin is the extension table used by Resolve.
var builtin = map[string]string{
	"json": "application/json",
	"js":   "text/javascript",
}

// Resolve returns the content type for path using the built-in table.
//
// The extension is the text after the last ".". Unknown extensions and paths
// without one resolve to Default.
func Resolve(path string) string {
	if ct, ok := builtin[extension(path)]; ok {
		return ct
	}
	return Default
}

// Resolver maps extensions to content types with a configurable table.
// A Resolver is immutable after New and safe for concurrent use.
type Resolver struct {
	types map[string]string
}

// New returns a Resolver using the built-in table extended by overrides.
//
// Override keys are extensions without the leading dot; a leading dot is
// tolerated and stripped. Overrides replace built-in mappings.
func New(overrides map[string]string) *Resolver {
	types := make(map[string]string, len(builtin)+len(overrides))
	for ext, ct := range builtin {
		types[ext] = ct
	}
	for ext, ct := range overrides {
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" || ct == "" {
			continue
		}
		types[ext] = ct
	}
	return &Resolver{types: types}
}

// Resolve returns the content type for path. A nil Resolver uses the built-in table.
func (r *Resolver) Resolve(path string) string {
	if r == nil {
		return Resolve(path)
	}
	if ct, ok := r.types[extension(path)]; ok {
		return ct
	}
	return Default
}

func extension(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i+1:]
}
