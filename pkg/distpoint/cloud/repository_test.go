package cloud

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/distsync/pkg/distpoint"
)

// fakeObjectAPI is an in-memory ObjectAPI.
type fakeObjectAPI struct {
	objects map[string][]byte // key -> body

	putErr    error
	headErr   error
	deleteErr error
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{objects: map[string][]byte{}}
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) HeadObject(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[*params.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	delete(f.objects, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func payloadFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("pkg bytes"), 0o644))
	return path
}

func TestCopy_PutsUnderCategoryKey(t *testing.T) {
	api := newFakeObjectAPI()
	repo := New(Config{Bucket: "packages"}, api)

	err := repo.Copy(context.Background(), distpoint.TransferRequest{
		SourcePath: payloadFile(t, "tool.pkg"),
		Category:   distpoint.CategoryPackage,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("pkg bytes"), api.objects["Packages/tool.pkg"])
}

func TestCopy_KeyPrefix(t *testing.T) {
	api := newFakeObjectAPI()
	repo := New(Config{Bucket: "packages", KeyPrefix: "mdm/repo"}, api)

	err := repo.Copy(context.Background(), distpoint.TransferRequest{
		SourcePath: payloadFile(t, "postinstall.sh"),
		Category:   distpoint.CategoryScript,
	})
	require.NoError(t, err)
	assert.Contains(t, api.objects, "mdm/repo/Scripts/postinstall.sh")
}

func TestCopy_DirectoryUnsupported(t *testing.T) {
	api := newFakeObjectAPI()
	repo := New(Config{Bucket: "packages"}, api)

	err := repo.Copy(context.Background(), distpoint.TransferRequest{
		SourcePath: t.TempDir(),
		Category:   distpoint.CategoryPackage,
	})

	var unsupported *distpoint.UnsupportedPayloadError
	require.ErrorAs(t, err, &unsupported)
	assert.Empty(t, api.objects)
}

func TestCopy_TransferErrorWrapsProviderError(t *testing.T) {
	api := newFakeObjectAPI()
	api.putErr = errors.New("AccessDenied")
	repo := New(Config{Bucket: "packages"}, api)

	err := repo.Copy(context.Background(), distpoint.TransferRequest{
		SourcePath: payloadFile(t, "tool.pkg"),
		Category:   distpoint.CategoryPackage,
	})

	var transferErr *distpoint.TransferError
	require.ErrorAs(t, err, &transferErr)
}

func TestExists_Authoritative(t *testing.T) {
	api := newFakeObjectAPI()
	api.objects["Packages/tool.pkg"] = []byte("x")
	repo := New(Config{Bucket: "packages"}, api)
	ctx := context.Background()

	existence, err := repo.Exists(ctx, "tool.pkg", distpoint.CategoryPackage)
	require.NoError(t, err)
	assert.Equal(t, distpoint.ExistencePresent, existence)

	existence, err = repo.Exists(ctx, "missing.pkg", distpoint.CategoryPackage)
	require.NoError(t, err)
	assert.Equal(t, distpoint.ExistenceAbsent, existence)
}

func TestExists_ProviderErrorIsUnknown(t *testing.T) {
	api := newFakeObjectAPI()
	api.headErr = errors.New("connection reset")
	repo := New(Config{Bucket: "packages"}, api)

	existence, err := repo.Exists(context.Background(), "tool.pkg", distpoint.CategoryPackage)
	require.Error(t, err)
	assert.Equal(t, distpoint.ExistenceUnknown, existence)
}

func TestDelete(t *testing.T) {
	api := newFakeObjectAPI()
	api.objects["Scripts/old.sh"] = []byte("x")
	repo := New(Config{Bucket: "packages"}, api)

	require.NoError(t, repo.Delete(context.Background(), "old.sh", distpoint.CategoryScript))
	assert.Empty(t, api.objects)

	// Deleting a missing object matches S3 semantics: no error.
	require.NoError(t, repo.Delete(context.Background(), "old.sh", distpoint.CategoryScript))
}

func TestName(t *testing.T) {
	assert.Equal(t, "s3://packages", New(Config{Bucket: "packages"}, newFakeObjectAPI()).Name())
	assert.Equal(t, "east", New(Config{Name: "east", Bucket: "packages"}, newFakeObjectAPI()).Name())
}
