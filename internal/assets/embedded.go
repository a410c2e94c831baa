package assets

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed styles templates
var builtin embed.FS

// EmbeddedLoader serves the stylesheet and page template compiled into the binary.
type EmbeddedLoader struct{}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle returns the built-in stylesheet called name.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	return readBuiltin(styleKind, name)
}

// LoadTemplate returns the built-in page template called name.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	return readBuiltin(templateKind, name)
}

func readBuiltin(k kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	content, err := builtin.ReadFile(k.file(name))
	if err != nil {
		return "", k.missing(name)
	}
	return string(content), nil
}

// Styles lists the names of the built-in stylesheets, sorted.
func Styles() []string {
	entries, err := fs.ReadDir(builtin, styleKind.dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), styleKind.ext); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
