// Package cloud implements a distribution point on S3-compatible object
// storage. Payloads are streamed directly to the bucket, bypassing both the
// mount machinery and the legacy upload protocol, and the provider's native
// object APIs give authoritative existence and delete semantics.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/distsync/pkg/distpoint"
)

// ObjectAPI is the slice of the S3 client this backend uses. Narrowed to an
// interface so tests can run against a fake.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config describes one cloud distribution point.
type Config struct {
	// Name is the display name. Defaults to "s3://<bucket>".
	Name string

	// Bucket is the target bucket or container.
	Bucket string

	// KeyPrefix is an optional prefix applied to every object key.
	KeyPrefix string
}

// Repository is a distribution point on a cloud object-storage bucket.
// Objects are stored under deterministic keys derived from the category and
// the payload basename: <prefix>/<Packages|Scripts>/<basename>.
type Repository struct {
	cfg    Config
	client ObjectAPI
}

var _ distpoint.Repository = (*Repository)(nil)

// New creates a cloud repository over the given object-storage client.
func New(cfg Config, client ObjectAPI) *Repository {
	return &Repository{cfg: cfg, client: client}
}

func (r *Repository) Name() string {
	if r.cfg.Name != "" {
		return r.cfg.Name
	}
	return "s3://" + r.cfg.Bucket
}

func (r *Repository) String() string { return r.Name() }

// objectKey derives the bucket key for a filename in a category.
func (r *Repository) objectKey(filename string, cat distpoint.Category) string {
	return path.Join(r.cfg.KeyPrefix, cat.Dir(), filename)
}

// Copy streams the payload to the bucket. Bundle-style (directory) packages
// cannot be represented as a single object and fail fast.
func (r *Repository) Copy(ctx context.Context, req distpoint.TransferRequest) error {
	info, err := os.Stat(req.SourcePath)
	if err != nil {
		return fmt.Errorf("reading payload %s: %w", req.SourcePath, err)
	}
	if info.IsDir() {
		return &distpoint.UnsupportedPayloadError{
			Path:   req.SourcePath,
			Reason: "object storage requires flat packages; zip the bundle first",
		}
	}

	file, err := os.Open(req.SourcePath)
	if err != nil {
		return fmt.Errorf("reading payload %s: %w", req.SourcePath, err)
	}
	defer file.Close()

	key := r.objectKey(filepath.Base(req.SourcePath), req.Category)
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.cfg.Bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return &distpoint.TransferError{Repository: r.Name(), Err: err}
	}
	return nil
}

// Exists asks the provider directly via HeadObject. Unlike the legacy
// backend this is authoritative: the answer is always present or absent.
func (r *Repository) Exists(ctx context.Context, filename string, cat distpoint.Category) (distpoint.Existence, error) {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.cfg.Bucket),
		Key:    aws.String(r.objectKey(filename, cat)),
	})
	if err != nil {
		if isNotFound(err) {
			return distpoint.ExistenceAbsent, nil
		}
		return distpoint.ExistenceUnknown, err
	}
	return distpoint.ExistencePresent, nil
}

// Delete removes the object via the provider's DeleteObject. Deleting a
// missing object is not an error, matching S3 semantics.
func (r *Repository) Delete(ctx context.Context, filename string, cat distpoint.Category) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.cfg.Bucket),
		Key:    aws.String(r.objectKey(filename, cat)),
	})
	if err != nil {
		return &distpoint.TransferError{Repository: r.Name(), Err: err}
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}
