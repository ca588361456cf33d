package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/yoockh/brdextractor/internal/utils"
)

type TempFiles struct {
	dir      string
	maxBytes int64
}

func NewTempFiles(dir string, maxBytes int64) *TempFiles {
	if dir == "" {
		dir = os.TempDir()
	}
	return &TempFiles{dir: dir, maxBytes: maxBytes}
}

// SaveUpload copies r to <dir>/upload-<uuid><ext>. Uploads over the size
// limit or with no bytes are rejected and nothing is left on disk.
func (t *TempFiles) SaveUpload(r io.Reader, ext string) (string, int64, error) {
	const op = "TempFiles.SaveUpload"

	path := filepath.Join(t.dir, "upload-"+uuid.NewString()+ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, utils.E(utils.CodeInternal, op, "failed to create temp file", err)
	}

	src := r
	if t.maxBytes > 0 {
		src = io.LimitReader(r, t.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	switch {
	case err != nil:
		_ = os.Remove(path)
		return "", 0, utils.E(utils.CodeInternal, op, "failed to write upload", err)
	case t.maxBytes > 0 && n > t.maxBytes:
		_ = os.Remove(path)
		return "", 0, utils.E(utils.CodeTooLarge, op, fmt.Sprintf("file too large (max %dMB)", t.maxBytes>>20), nil)
	case n == 0:
		_ = os.Remove(path)
		return "", 0, utils.E(utils.CodeInvalidArgument, op, "uploaded file is empty", nil)
	}
	return path, n, nil
}

// Remove deletes every path, skipping empty paths and files that are
// already gone.
func (t *TempFiles) Remove(paths ...string) error {
	var result *multierror.Error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
