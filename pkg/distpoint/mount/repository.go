package mount

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/marmos91/distsync/internal/logger"
	"github.com/marmos91/distsync/pkg/distpoint"
)

// Config describes one AFP or SMB file-share distribution point.
type Config struct {
	// Name is the display name used in outcome reporting. Defaults to the
	// share URL when empty.
	Name string

	Protocol Protocol
	Host     string
	Port     string
	Share    string
	Username string
	Password string

	// Domain is the SMB workgroup/domain. Ignored for AFP.
	Domain string

	// MountPoint is the preferred local path. The actual path in use may
	// differ: reconciliation adopts whatever path the share is already
	// mounted at, and a foreign volume occupying this path forces a
	// suffixed alternative.
	MountPoint string

	// NoBrowse keeps the mounted volume out of interactive file-browser
	// GUIs.
	NoBrowse bool
}

// State tracks the mount lifecycle of one repository instance. It is owned
// exclusively by that instance: two repositories pointed at the same remote
// share each keep their own state and run their own reconciliation pass.
type State struct {
	// LocalPath is the path the share is reachable at. Empty until the
	// share is mounted or an existing mount has been adopted.
	LocalPath string

	// Mounted reports whether this repository's share identity is known to
	// be mounted. File operations are only performed while true.
	Mounted bool
}

// MountedRepository is a distribution point on an AFP or SMB share. It
// mounts the share transparently on first use and adopts mounts established
// by other tools when their remote identity matches.
type MountedRepository struct {
	cfg      Config
	mounter  Mounter
	identity remoteIdentity
	state    State
}

var _ distpoint.Repository = (*MountedRepository)(nil)
var _ distpoint.Mountable = (*MountedRepository)(nil)

// New creates a mounted repository. The mounter may be nil, in which case
// the exec-based platform mounter is used.
func New(cfg Config, mounter Mounter) *MountedRepository {
	if mounter == nil {
		mounter = &ExecMounter{}
	}
	return &MountedRepository{
		cfg:      cfg,
		mounter:  mounter,
		identity: newRemoteIdentity(cfg.Host, cfg.Port, cfg.Share),
	}
}

// Name returns the configured display name, or the share URL when none is
// set.
func (r *MountedRepository) Name() string {
	if r.cfg.Name != "" {
		return r.cfg.Name
	}
	return fmt.Sprintf("%s://%s/%s", r.cfg.Protocol, r.cfg.Host, r.cfg.Share)
}

func (r *MountedRepository) String() string {
	return fmt.Sprintf("%s (mounted: %v, path: %s)", r.Name(), r.state.Mounted, r.state.LocalPath)
}

// State returns a copy of the current mount state.
func (r *MountedRepository) State() State {
	return r.state
}

// EnsureMounted makes the share available, idempotently.
//
// It first reconciles against the live mount table: if a mount with a
// matching remote identity already exists anywhere, its local path is
// adopted and no mount syscall is issued. Only when no match is found does
// it request a fresh mount with the configured credentials. Mount failures
// are surfaced as *distpoint.MountError and never retried here; the caller
// decides whether to retry.
func (r *MountedRepository) EnsureMounted(ctx context.Context) error {
	entries, err := r.mounter.List(ctx)
	if err != nil {
		return &distpoint.MountError{Op: "mount", Share: r.Name(), Err: err}
	}

	if r.adoptExisting(entries) {
		return nil
	}
	r.state = State{}

	target := r.chooseMountPoint(entries)
	req := Request{
		Protocol:   r.cfg.Protocol,
		URL:        r.mountURL(),
		Host:       r.cfg.Host,
		Port:       r.cfg.Port,
		Share:      r.cfg.Share,
		Username:   r.cfg.Username,
		Password:   r.cfg.Password,
		Domain:     r.cfg.Domain,
		MountPoint: target,
		NoBrowse:   r.cfg.NoBrowse,
	}
	if err := r.mounter.Mount(ctx, req); err != nil {
		return &distpoint.MountError{Op: "mount", Share: r.Name(), Err: err}
	}

	// Reconcile once more: the OS may normalize the mount point to a path
	// other than the requested one. The table is authoritative.
	if entries, err := r.mounter.List(ctx); err == nil && r.adoptExisting(entries) {
		logger.Info("mounted %s at %s", r.Name(), r.state.LocalPath)
		return nil
	}

	r.state = State{LocalPath: target, Mounted: true}
	logger.Info("mounted %s at %s", r.Name(), target)
	return nil
}

// Unmount detaches the share. With forced set the volume is detached even if
// the OS reports it busy, which avoids leaving stale handles across repeated
// runs. The state flips to unmounted only after the syscall succeeds; a
// failed forced unmount is surfaced as an error.
//
// Like EnsureMounted, it trusts the live mount table over in-memory state: a
// fresh instance with no state still detaches a share mounted by an earlier
// run, adopting its mount point first. It only ever adopts here, never
// mounts.
func (r *MountedRepository) Unmount(ctx context.Context, forced bool) error {
	if !r.state.Mounted {
		entries, err := r.mounter.List(ctx)
		if err != nil {
			return &distpoint.MountError{Op: "unmount", Share: r.Name(), Err: err}
		}
		if !r.adoptExisting(entries) {
			return nil
		}
	}
	if err := r.mounter.Unmount(ctx, r.state.LocalPath, forced); err != nil {
		return &distpoint.MountError{Op: "unmount", Share: r.Name(), Err: err}
	}
	r.state = State{}
	return nil
}

// Copy writes the payload to <localPath>/<Packages|Scripts>/<basename>,
// mounting first if needed. It only places the bytes; registering the
// catalog record for the payload is the caller's responsibility.
func (r *MountedRepository) Copy(ctx context.Context, req distpoint.TransferRequest) error {
	if err := r.EnsureMounted(ctx); err != nil {
		return err
	}
	return copyInto(r.state.LocalPath, req.SourcePath, req.Category)
}

// Exists stats the file under the resolved category directory.
func (r *MountedRepository) Exists(ctx context.Context, filename string, cat distpoint.Category) (distpoint.Existence, error) {
	if err := r.EnsureMounted(ctx); err != nil {
		return distpoint.ExistenceUnknown, err
	}
	present, err := statIn(r.state.LocalPath, filename, cat)
	if err != nil {
		return distpoint.ExistenceUnknown, err
	}
	if present {
		return distpoint.ExistencePresent, nil
	}
	return distpoint.ExistenceAbsent, nil
}

// Delete removes the file from the category directory.
func (r *MountedRepository) Delete(ctx context.Context, filename string, cat distpoint.Category) error {
	if err := r.EnsureMounted(ctx); err != nil {
		return err
	}
	return removeIn(r.state.LocalPath, filename, cat)
}

// adoptExisting scans the mount table for a mount matching this
// repository's remote identity and adopts its local path. The match is on
// identity, never on the expected local path: another tool may have mounted
// the share elsewhere, and a foreign share may be squatting on our preferred
// path.
func (r *MountedRepository) adoptExisting(entries []Entry) bool {
	fsTypes := r.cfg.Protocol.fsTypes()
	for _, entry := range entries {
		if r.identity.matches(entry, fsTypes) {
			if r.state.LocalPath != entry.MountPoint {
				logger.Debug("%s already mounted at %s, adopting", r.Name(), entry.MountPoint)
			}
			r.state = State{LocalPath: entry.MountPoint, Mounted: true}
			return true
		}
	}
	return false
}

// chooseMountPoint returns the configured mount point, or a suffixed
// alternative ("-1", "-2", ...) when a foreign mount occupies it.
func (r *MountedRepository) chooseMountPoint(entries []Entry) string {
	occupied := make(map[string]bool, len(entries))
	for _, entry := range entries {
		occupied[entry.MountPoint] = true
	}

	target := r.cfg.MountPoint
	for count := 1; occupied[target]; count++ {
		target = r.cfg.MountPoint + "-" + strconv.Itoa(count)
	}
	return target
}

// mountURL builds the protocol URL used by the darwin mount commands,
// embedding credentials. Passwords are escaped so shell-significant and
// URL-significant characters survive.
func (r *MountedRepository) mountURL() string {
	auth := ""
	if r.cfg.Username != "" && r.cfg.Password != "" {
		auth = r.cfg.Username + ":" + url.QueryEscape(r.cfg.Password) + "@"
		if r.cfg.Protocol == ProtocolSMB && r.cfg.Domain != "" {
			auth = r.cfg.Domain + ";" + auth
		}
	}

	host := r.cfg.Host
	if r.cfg.Port != "" {
		host += ":" + r.cfg.Port
	}

	if r.cfg.Protocol == ProtocolAFP {
		return fmt.Sprintf("afp://%s%s/%s", auth, host, url.PathEscape(r.cfg.Share))
	}
	return fmt.Sprintf("//%s%s/%s", auth, host, url.PathEscape(r.cfg.Share))
}
