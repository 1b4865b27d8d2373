package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/filedeck/internal/filex"
)

// dirSink writes downloads into a directory. Names are flattened so a
// key can never escape it, and existing files are never overwritten.
type dirSink struct {
	dir  string
	last string
}

func safeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == "" {
		return "download"
	}
	return name
}

func (d *dirSink) Save(name, _ string, r io.Reader) error {
	path, err := filex.UniquePath(d.dir, safeName(name))
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	d.last = path
	return nil
}
