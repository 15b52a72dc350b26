// Package testing provides a conformance test suite for Repository
// implementations. It tests the interface contract, not implementation
// details, so the same suite runs against mounted, local, upload and cloud
// backends.
package testing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/distsync/pkg/distpoint"
)

// RepositorySuite exercises the copy/exists/delete contract of one
// Repository implementation.
//
// Usage:
//
//	suite := &disttesting.RepositorySuite{
//	    NewRepository: func(t *testing.T) distpoint.Repository { ... },
//	}
//	suite.Run(t)
type RepositorySuite struct {
	// NewRepository creates a fresh repository for each test, for
	// isolation.
	NewRepository func(t *testing.T) distpoint.Repository

	// SupportsDelete is false for backends whose Delete needs collaborators
	// the suite does not provide.
	SupportsDelete bool
}

// Run executes the full suite.
func (s *RepositorySuite) Run(t *testing.T) {
	t.Run("CopyThenExists", s.testCopyThenExists)
	t.Run("ExistsAbsent", s.testExistsAbsent)
	if s.SupportsDelete {
		t.Run("DeleteRemoves", s.testDeleteRemoves)
	}
}

// payload writes a small file to copy and returns its path.
func payload(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("payload bytes"), 0o644))
	return path
}

func (s *RepositorySuite) testCopyThenExists(t *testing.T) {
	repo := s.NewRepository(t)
	ctx := context.Background()

	source := payload(t, "tool.pkg")
	err := repo.Copy(ctx, distpoint.TransferRequest{
		SourcePath: source,
		Category:   distpoint.CategoryPackage,
	})
	require.NoError(t, err)

	existence, err := repo.Exists(ctx, "tool.pkg", distpoint.CategoryPackage)
	require.NoError(t, err)
	// Upload-style backends may only answer "unknown" for present files;
	// what the contract forbids is "absent" after a successful copy.
	require.NotEqual(t, distpoint.ExistenceAbsent, existence)
}

func (s *RepositorySuite) testExistsAbsent(t *testing.T) {
	repo := s.NewRepository(t)

	existence, err := repo.Exists(context.Background(), "never-uploaded.pkg", distpoint.CategoryPackage)
	require.NoError(t, err)
	require.Equal(t, distpoint.ExistenceAbsent, existence)
}

func (s *RepositorySuite) testDeleteRemoves(t *testing.T) {
	repo := s.NewRepository(t)
	ctx := context.Background()

	source := payload(t, "postinstall.sh")
	require.NoError(t, repo.Copy(ctx, distpoint.TransferRequest{
		SourcePath: source,
		Category:   distpoint.CategoryScript,
	}))

	require.NoError(t, repo.Delete(ctx, "postinstall.sh", distpoint.CategoryScript))

	existence, err := repo.Exists(ctx, "postinstall.sh", distpoint.CategoryScript)
	require.NoError(t, err)
	require.Equal(t, distpoint.ExistenceAbsent, existence)
}
