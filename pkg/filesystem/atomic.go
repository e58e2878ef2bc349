package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ploke-dev/ploke-io/pkg/ioerror"
	"github.com/ploke-dev/ploke-io/pkg/logging"
	"github.com/ploke-dev/ploke-io/pkg/must"
)

const (
	// atomicWriteTemporaryNamePrefix is the file name prefix to use for
	// intermediate temporary files used in atomic writes.
	atomicWriteTemporaryNamePrefix = TemporaryNamePrefix + "atomic-write"
)

// AtomicWriteResult reports the outcome of best-effort steps of an atomic
// write that do not affect the durability of the write itself.
type AtomicWriteResult struct {
	// ParentSyncError is non-nil if the best-effort fsync of the target's
	// parent directory failed after a successful rename. It does not
	// indicate that the write failed.
	ParentSyncError error
}

// WriteFileAtomic writes data to path in an atomic fashion by creating an
// intermediate temporary file in the same directory as path, fsyncing and
// closing it, and then renaming it over path. Because the temporary file
// lives in the same directory (and hence the same filesystem) as path, the
// rename is atomic on POSIX filesystems: a concurrent reader of path will
// either observe the old content in full or the new content in full, never
// a partial write and never the temporary file under path's name.
//
// After the rename completes, the parent directory is fsynced on a
// best-effort basis so that the rename itself survives a crash; failure to
// do so is reported in the returned result rather than as an error, since
// the write to path has already durably succeeded at that point.
func WriteFileAtomic(path string, data []byte, permissions os.FileMode, logger *logging.Logger) (*AtomicWriteResult, error) {
	directory := filepath.Dir(path)

	// Create a temporary file alongside the target. The os package already
	// uses secure permissions for creating temporary files.
	temporary, err := os.CreateTemp(directory, atomicWriteTemporaryNamePrefix)
	if err != nil {
		return nil, ioerror.WrapStep("atomic_write", path, ioerror.StepCreate, err)
	}

	// Write the new content.
	if _, err = temporary.Write(data); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return nil, ioerror.WrapStep("atomic_write", path, ioerror.StepWrite, err)
	}

	// Fsync the temporary file before it's renamed into place so that the
	// content is durable before the target name is touched.
	if err = temporary.Sync(); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return nil, ioerror.WrapStep("atomic_write", path, ioerror.StepSync, err)
	}

	if err = temporary.Close(); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return nil, ioerror.WrapStep("atomic_write", path, ioerror.StepClose, err)
	}

	// Set the file's permissions.
	if err = os.Chmod(temporary.Name(), permissions); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return nil, ioerror.WrapStep("atomic_write", path, ioerror.StepChmod, err)
	}

	// Rename the file into place. This is the linearization point of the
	// write: from here on the target reflects the new content.
	if err = os.Rename(temporary.Name(), path); err != nil {
		must.OSRemove(temporary.Name(), logger)
		if isCrossDeviceError(err) {
			return nil, ioerror.WrapStep("atomic_write", path, ioerror.StepRename,
				fmt.Errorf("temporary file and target reside on different filesystems, which breaks the atomicity guarantee: %w", err))
		}
		return nil, ioerror.WrapStep("atomic_write", path, ioerror.StepRename, err)
	}

	// Best-effort fsync of the parent directory so the rename itself is
	// crash-consistent. A failure here is reported but does not unwind the
	// write, which has already committed.
	result := &AtomicWriteResult{}
	if parent, openErr := os.Open(directory); openErr != nil {
		result.ParentSyncError = openErr
	} else {
		result.ParentSyncError = parent.Sync()
		must.Close(parent, logger)
	}

	return result, nil
}
