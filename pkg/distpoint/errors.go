package distpoint

import (
	"fmt"
	"strings"
)

// Error taxonomy for distribution-point operations.
//
// Repository implementations wrap their transport-level failures in these
// types so callers can branch with errors.As without caring which backend
// failed:
//
//	if merr := new(distpoint.MountError); errors.As(err, &merr) {
//	    // mount/unmount syscall failed; caller decides whether to retry
//	}
//
// The "unknown existence" outcome of the legacy backend is deliberately NOT
// an error; see Existence.

// MountError indicates an OS mount or unmount operation failed (bad
// credentials, host unreachable, share missing, busy volume). Mount failures
// are surfaced, never retried automatically.
type MountError struct {
	// Op is "mount" or "unmount".
	Op string

	// Share identifies the remote share or local path involved.
	Share string

	// Err is the underlying exec/syscall error.
	Err error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Share, e.Err)
}

func (e *MountError) Unwrap() error { return e.Err }

// UnsupportedPayloadError indicates a payload shape the backend cannot
// accept, such as a bundle-style (directory) package sent to a backend that
// only stores flat files. It is raised before any network I/O is attempted.
type UnsupportedPayloadError struct {
	Path   string
	Reason string
}

func (e *UnsupportedPayloadError) Error() string {
	return fmt.Sprintf("unsupported payload %s: %s", e.Path, e.Reason)
}

// TransferError indicates an upload or cloud transfer failed. It wraps the
// underlying transport error.
type TransferError struct {
	// Repository is the display name of the backend that failed.
	Repository string

	// Err is the underlying transport error.
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer to %s failed: %v", e.Repository, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// BatchError aggregates the per-repository failures of one orchestrator
// batch. It is returned only after every repository has been attempted, so
// the successes it reports have already happened; there is no rollback.
type BatchError struct {
	Result BatchResult
}

func (e *BatchError) Error() string {
	failed := e.Result.Failures()
	names := make([]string, 0, len(failed))
	for _, outcome := range failed {
		names = append(names, fmt.Sprintf("%s: %v", outcome.Repository, outcome.Err))
	}
	return fmt.Sprintf("%d of %d distribution points failed: %s",
		len(failed), len(e.Result.Outcomes), strings.Join(names, "; "))
}
