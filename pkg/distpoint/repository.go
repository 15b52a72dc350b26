// Package distpoint implements the distribution-point transfer subsystem:
// delivering installable payloads (packages, scripts) to one or more
// heterogeneous storage backends that a managed-device fleet later pulls from.
//
// Three transport models are unified behind the Repository interface:
//   - mountable network file shares (AFP/SMB) and local paths (pkg/distpoint/mount)
//   - the legacy dbfileupload multipart protocol (pkg/distpoint/upload)
//   - direct-to-cloud object storage (pkg/distpoint/cloud)
//
// The DistributionPoints orchestrator fans copy/exists/delete requests out to
// every configured repository and aggregates per-repository outcomes.
package distpoint

import "context"

// TransferRequest describes one payload delivery.
type TransferRequest struct {
	// SourcePath is the local path of the file to deliver.
	SourcePath string

	// Category routes the payload to the Packages or Scripts area of each
	// backend. Use Classify to derive it from the filename, or set it
	// explicitly to bypass classification.
	Category Category

	// ObjectID optionally names an existing catalog record to overwrite or
	// re-associate. Zero means "create a new record". Only upload and cloud
	// style backends use it; mounted shares ignore it.
	ObjectID int
}

// Repository is the uniform contract over all distribution-point backends.
//
// Implementations differ completely (filesystem copy vs. multipart POST vs.
// S3 PutObject) but expose the same three operations. All operations block
// for their full duration; cancellation is the caller's responsibility via
// the context deadline.
type Repository interface {
	// Name returns the display name for this repository, used in outcome
	// reporting and logs.
	Name() string

	// Copy delivers the payload described by the request to this backend.
	// Copy only places the bytes; registering the corresponding catalog
	// record is the caller's responsibility.
	Copy(ctx context.Context, req TransferRequest) error

	// Exists reports whether a file with the given name is present in the
	// category area of this backend. Backends without an authoritative
	// query API return ExistenceUnknown rather than guessing; see Existence.
	Exists(ctx context.Context, filename string, cat Category) (Existence, error)

	// Delete removes the named file from the category area of this backend.
	Delete(ctx context.Context, filename string, cat Category) error
}

// Mountable is the optional capability interface for repositories backed by
// an OS mount point. The orchestrator uses it for MountAll/UnmountAll;
// non-mountable repositories simply don't implement it.
type Mountable interface {
	// EnsureMounted makes the share available, adopting an existing mount
	// with a matching remote identity or issuing a fresh mount request.
	// It is idempotent.
	EnsureMounted(ctx context.Context) error

	// Unmount detaches the share. With forced set, the volume is detached
	// even if the OS reports it busy.
	Unmount(ctx context.Context, forced bool) error
}
