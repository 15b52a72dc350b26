package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ClientConfig carries the transfer credentials and endpoint settings for
// building an object-storage client.
type ClientConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	// Endpoint overrides the provider endpoint, for S3-compatible storage
	// (MinIO, Localstack, and friends).
	Endpoint string

	// ForcePathStyle addresses buckets as path components instead of
	// subdomains. Most S3-compatible endpoints need it.
	ForcePathStyle bool
}

// NewClient builds an S3 client from the config. When no static credentials
// are given the default provider chain applies (env, shared config, IMDS).
func NewClient(ctx context.Context, cfg ClientConfig) (*s3.Client, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("cloud repository: region is required")
	}

	options := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		options = append(options, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("loading cloud credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return client, nil
}
