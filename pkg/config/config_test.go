package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/distsync/pkg/distpoint"
	"github.com/marmos91/distsync/pkg/distpoint/upload"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "distsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: "DEBUG"

server:
  base_url: "https://mdm.example.org:8443"
  username: "api"
  password: "secret"

repositories:
  - kind: smb
    name: "main share"
    share:
      host: "fileserver.pretendco.com"
      share_name: "CasperShare"
      username: "casperadmin"
      password: "hunter2"
      domain: "PRETENDCO"
  - kind: legacy_upload
    upload:
      destination: 1
  - kind: cloud
    cloud:
      region: "us-east-1"
      bucket: "mdm-packages"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "https://mdm.example.org:8443", cfg.Server.BaseURL)
	require.Len(t, cfg.Repositories, 3)
	assert.Equal(t, KindSMB, cfg.Repositories[0].Kind)
	assert.Equal(t, "main share", cfg.Repositories[0].Name)
	assert.Equal(t, "CasperShare", cfg.Repositories[0].Share["share_name"])
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Empty(t, cfg.Repositories)
}

func TestLoad_UnknownKindRejected(t *testing.T) {
	path := writeConfig(t, `
repositories:
  - kind: ftp
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oneof")
}

func TestLoad_DuplicateNamesRejected(t *testing.T) {
	path := writeConfig(t, `
repositories:
  - kind: local
    name: "repo"
    share:
      mount_point: "/srv/a"
  - kind: local
    name: "repo"
    share:
      mount_point: "/srv/b"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate repository name")
}

func TestLoad_LegacyUploadRequiresServer(t *testing.T) {
	path := writeConfig(t, `
repositories:
  - kind: legacy_upload
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.base_url")
}

type stubCatalog struct{}

func (stubCatalog) FindRecord(context.Context, string, distpoint.Category) (int, bool, error) {
	return 0, false, nil
}
func (stubCatalog) DeleteRecord(context.Context, string, distpoint.Category) error { return nil }

func TestBuildRepositories_PreservesOrder(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: "https://mdm.example.org:8443"

repositories:
  - kind: local
    name: "first"
    share:
      mount_point: "/srv/repo"
  - kind: legacy_upload
    name: "second"
  - kind: afp
    name: "third"
    share:
      host: "fileserver.pretendco.com"
      share_name: "CasperShare"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	repos, err := BuildRepositories(context.Background(), cfg, Collaborators{
		Session: upload.Session{BaseURL: cfg.Server.BaseURL},
		Catalog: stubCatalog{},
	})
	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, "first", repos[0].Name())
	assert.Equal(t, "second", repos[1].Name())
	assert.Equal(t, "third", repos[2].Name())
}

func TestBuildRepositories_ShareRequiresHost(t *testing.T) {
	path := writeConfig(t, `
repositories:
  - kind: smb
    share:
      share_name: "CasperShare"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = BuildRepositories(context.Background(), cfg, Collaborators{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host")
}

func TestBuildRepositories_CloudRequiresBucket(t *testing.T) {
	path := writeConfig(t, `
repositories:
  - kind: cloud
    cloud:
      region: "us-east-1"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = BuildRepositories(context.Background(), cfg, Collaborators{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}

func TestBuildRepositories_LegacyUploadRequiresCatalog(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: "https://mdm.example.org:8443"

repositories:
  - kind: legacy_upload
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = BuildRepositories(context.Background(), cfg, Collaborators{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog")
}
