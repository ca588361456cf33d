package storage

import "io"

// TempStore owns the transient files of a submission.
type TempStore interface {
	SaveUpload(r io.Reader, ext string) (path string, size int64, err error)
	Remove(paths ...string) error
}
