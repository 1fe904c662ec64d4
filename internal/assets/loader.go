package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed styles templates
var builtin embed.FS

// Loader reads assets by kind and name (no extension, no path).
type Loader interface {
	Load(kind Kind, name string) (string, error)
}

// FSLoader reads assets from a file system laid out as styles/ and templates/.
type FSLoader struct {
	fsys fs.FS
	// contain rejects paths escaping the root; nil for the embedded tree.
	contain func(rel string) error
}

// NewEmbeddedLoader returns the loader for the built-in layout.
func NewEmbeddedLoader() *FSLoader {
	return &FSLoader{fsys: builtin}
}

// NewDirLoader returns a loader rooted at basePath.
// Returns ErrInvalidBasePath unless basePath is a readable directory.
func NewDirLoader(basePath string) (*FSLoader, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}
	root, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	// Containment compares real paths, so the root must be real too.
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, root)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &FSLoader{
		fsys:    os.DirFS(root),
		contain: func(rel string) error { return within(root, rel) },
	}, nil
}

// Load returns the asset content.
func (l *FSLoader) Load(kind Kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	rel := kind.file(name)
	if l.contain != nil {
		if err := l.contain(rel); err != nil {
			return "", err
		}
	}

	data, err := fs.ReadFile(l.fsys, rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", kind.notFound(), name)
		}
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return string(data), nil
}

// within checks that root/rel, after resolving symlinks, stays under root.
// A missing file keeps its unresolved path and fails later as not found.
func within(root, rel string) error {
	p := filepath.Join(root, filepath.FromSlash(rel))
	if real, err := filepath.EvalSymlinks(p); err == nil {
		p = real
	}
	// The separator suffix stops /base/path matching /base/pathevil.
	if !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s escapes the asset directory", ErrPathTraversal, rel)
	}
	return nil
}

// Layered reads from a custom loader and falls back to base for assets the
// custom loader does not have. Other custom errors are returned as is.
type Layered struct {
	custom Loader
	base   Loader
}

// Load implements Loader.
func (l *Layered) Load(kind Kind, name string) (string, error) {
	content, err := l.custom.Load(kind, name)
	if err == nil || !IsNotFound(err) {
		return content, err
	}
	return l.base.Load(kind, name)
}

// New returns the embedded loader when basePath is empty, and otherwise a
// Layered loader over basePath and the embedded layout.
func New(basePath string) (Loader, error) {
	if basePath == "" {
		return NewEmbeddedLoader(), nil
	}
	dir, err := NewDirLoader(basePath)
	if err != nil {
		return nil, err
	}
	return &Layered{custom: dir, base: NewEmbeddedLoader()}, nil
}

var (
	_ Loader = (*FSLoader)(nil)
	_ Loader = (*Layered)(nil)
)
