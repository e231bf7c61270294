// render/cache.go
package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/OluwaPella/Stage-two-bankend/xerrors"
)

// Artifact is one cached rendering of the summary.
type Artifact struct {
	Format  Format
	Data    []byte
	ModTime time.Time
}

// FileCache keeps the latest summary under a directory as summary.png or
// summary.txt. At most one of the two exists after a Save.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) path(f Format) string {
	return filepath.Join(c.dir, f.filename())
}

// Save replaces the cached artifact. Readers never see a partially written file.
func (c *FileCache) Save(f Format, data []byte) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", c.dir, err)
	}

	tmp, err := os.CreateTemp(c.dir, ".summary-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", c.dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close summary temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set summary permissions: %w", err)
	}
	if err := os.Rename(tmpName, c.path(f)); err != nil {
		return fmt.Errorf("failed to move summary into place: %w", err)
	}

	stale := FormatText
	if f == FormatText {
		stale = FormatPNG
	}
	if err := os.Remove(c.path(stale)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale %s summary: %w", stale, err)
	}
	return nil
}

// Load returns the cached artifact, preferring the image. It returns
// xerrors.ErrNotFound when nothing has been rendered yet.
func (c *FileCache) Load() (*Artifact, error) {
	for _, f := range []Format{FormatPNG, FormatText} {
		p := c.path(f)
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		a := &Artifact{Format: f, Data: data}
		if info, err := os.Stat(p); err == nil {
			a.ModTime = info.ModTime()
		}
		return a, nil
	}
	return nil, fmt.Errorf("summary: %w", xerrors.ErrNotFound)
}
