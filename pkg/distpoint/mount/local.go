package mount

import (
	"context"
	"fmt"

	"github.com/marmos91/distsync/pkg/distpoint"
)

// LocalConfig describes a distribution point on a local filesystem path, for
// repositories exported by some other means (an HTTP server, a share managed
// outside this tool).
type LocalConfig struct {
	// Name is the display name. Defaults to "local://<path>" when empty.
	Name string

	// Path is the repository root, containing the flat Packages/ and
	// Scripts/ directories.
	Path string
}

// LocalRepository is a distribution point rooted at a plain local path. It
// shares the flat-directory file layout with mounted shares but there is no
// mount lifecycle: the path is assumed present.
type LocalRepository struct {
	cfg LocalConfig
}

var _ distpoint.Repository = (*LocalRepository)(nil)

// NewLocal creates a local-path repository.
func NewLocal(cfg LocalConfig) *LocalRepository {
	return &LocalRepository{cfg: cfg}
}

func (r *LocalRepository) Name() string {
	if r.cfg.Name != "" {
		return r.cfg.Name
	}
	return fmt.Sprintf("local://%s", r.cfg.Path)
}

func (r *LocalRepository) String() string { return r.Name() }

// Copy writes the payload to <path>/<Packages|Scripts>/<basename>.
func (r *LocalRepository) Copy(ctx context.Context, req distpoint.TransferRequest) error {
	return copyInto(r.cfg.Path, req.SourcePath, req.Category)
}

// Exists stats the file under the category directory.
func (r *LocalRepository) Exists(ctx context.Context, filename string, cat distpoint.Category) (distpoint.Existence, error) {
	present, err := statIn(r.cfg.Path, filename, cat)
	if err != nil {
		return distpoint.ExistenceUnknown, err
	}
	if present {
		return distpoint.ExistencePresent, nil
	}
	return distpoint.ExistenceAbsent, nil
}

// Delete removes the file from the category directory.
func (r *LocalRepository) Delete(ctx context.Context, filename string, cat distpoint.Category) error {
	return removeIn(r.cfg.Path, filename, cat)
}
