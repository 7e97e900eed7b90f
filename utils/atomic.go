package utils

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/voxelsplace/voxelize/voxel"
)

// WriteFileAtomic writes a file through write. The content goes to a
// temporary file next to path which is renamed over path once it is flushed
// and synced; on failure path is left untouched and the temporary file is
// removed.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return ioError("creating temporary file failed", path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	bw := bufio.NewWriterSize(f, 1<<20)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return ioError("writing file failed", path, err)
	}
	if err = f.Chmod(0o644); err != nil {
		return ioError("setting file mode failed", path, err)
	}
	if err = f.Sync(); err != nil {
		return ioError("syncing file failed", path, err)
	}
	if err = f.Close(); err != nil {
		return ioError("closing file failed", path, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return ioError("renaming file failed", path, err)
	}
	return nil
}

func ioError(msg, path string, err error) error {
	return errors.New(msg).
		WithType(voxel.ErrTypeIO).
		WithTag("path", path).
		Wrap(err)
}
