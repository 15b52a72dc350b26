package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/distsync/pkg/distpoint"
	"github.com/marmos91/distsync/pkg/distpoint/cloud"
	"github.com/marmos91/distsync/pkg/distpoint/mount"
	"github.com/marmos91/distsync/pkg/distpoint/upload"
)

// Collaborators carries the external pieces repositories are wired to: the
// authenticated session and the catalog slice of the object-mapping layer.
// SyncStatus is optional.
type Collaborators struct {
	Session upload.Session
	Catalog upload.Catalog
	Sync    upload.SyncStatus
}

// shareYAMLConfig is the share section for afp, smb and local kinds.
type shareYAMLConfig struct {
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	ShareName  string `mapstructure:"share_name"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Domain     string `mapstructure:"domain"`
	MountPoint string `mapstructure:"mount_point"`
	NoBrowse   bool   `mapstructure:"no_browse"`
}

// uploadYAMLConfig is the upload section for the legacy_upload kind.
type uploadYAMLConfig struct {
	Destination int `mapstructure:"destination"`
}

// cloudYAMLConfig is the cloud section for the cloud kind.
type cloudYAMLConfig struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
}

// BuildRepositories instantiates every configured repository, preserving
// configured order.
func BuildRepositories(ctx context.Context, cfg *Config, collab Collaborators) ([]distpoint.Repository, error) {
	repos := make([]distpoint.Repository, 0, len(cfg.Repositories))
	for i, repoCfg := range cfg.Repositories {
		repo, err := buildRepository(ctx, repoCfg, collab)
		if err != nil {
			return nil, fmt.Errorf("repositories[%d] (%s): %w", i, repoCfg.Kind, err)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func buildRepository(ctx context.Context, cfg RepositoryConfig, collab Collaborators) (distpoint.Repository, error) {
	switch cfg.Kind {
	case KindAFP, KindSMB:
		return buildMountedRepository(cfg)
	case KindLocal:
		return buildLocalRepository(cfg)
	case KindLegacyUpload:
		return buildUploadRepository(cfg, collab)
	case KindCloud:
		return buildCloudRepository(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown repository kind: %q", cfg.Kind)
	}
}

func buildMountedRepository(cfg RepositoryConfig) (distpoint.Repository, error) {
	var share shareYAMLConfig
	if err := mapstructure.Decode(cfg.Share, &share); err != nil {
		return nil, fmt.Errorf("invalid share config: %w", err)
	}
	if share.Host == "" || share.ShareName == "" {
		return nil, fmt.Errorf("share config requires host and share_name")
	}

	protocol := mount.ProtocolAFP
	port := DefaultAFPPort
	if cfg.Kind == KindSMB {
		protocol = mount.ProtocolSMB
		port = DefaultSMBPort
	}
	if share.Port != "" {
		port = share.Port
	}
	mountPoint := share.MountPoint
	if mountPoint == "" {
		mountPoint = filepath.Join("/Volumes", share.ShareName)
	}

	return mount.New(mount.Config{
		Name:       cfg.Name,
		Protocol:   protocol,
		Host:       share.Host,
		Port:       port,
		Share:      share.ShareName,
		Username:   share.Username,
		Password:   share.Password,
		Domain:     share.Domain,
		MountPoint: mountPoint,
		NoBrowse:   share.NoBrowse,
	}, nil), nil
}

func buildLocalRepository(cfg RepositoryConfig) (distpoint.Repository, error) {
	var share shareYAMLConfig
	if err := mapstructure.Decode(cfg.Share, &share); err != nil {
		return nil, fmt.Errorf("invalid share config: %w", err)
	}
	if share.MountPoint == "" {
		return nil, fmt.Errorf("local repository requires mount_point")
	}
	return mount.NewLocal(mount.LocalConfig{Name: cfg.Name, Path: share.MountPoint}), nil
}

func buildUploadRepository(cfg RepositoryConfig, collab Collaborators) (distpoint.Repository, error) {
	var uploadCfg uploadYAMLConfig
	if err := mapstructure.Decode(cfg.Upload, &uploadCfg); err != nil {
		return nil, fmt.Errorf("invalid upload config: %w", err)
	}
	if collab.Catalog == nil {
		return nil, fmt.Errorf("legacy_upload requires a catalog collaborator")
	}
	return upload.New(upload.Config{
		Name:        cfg.Name,
		Destination: uploadCfg.Destination,
	}, collab.Session, collab.Catalog, collab.Sync), nil
}

func buildCloudRepository(ctx context.Context, cfg RepositoryConfig) (distpoint.Repository, error) {
	var cloudCfg cloudYAMLConfig
	if err := mapstructure.Decode(cfg.Cloud, &cloudCfg); err != nil {
		return nil, fmt.Errorf("invalid cloud config: %w", err)
	}
	if cloudCfg.Bucket == "" {
		return nil, fmt.Errorf("cloud repository requires bucket")
	}

	client, err := cloud.NewClient(ctx, cloud.ClientConfig{
		Region:          cloudCfg.Region,
		AccessKeyID:     cloudCfg.AccessKeyID,
		SecretAccessKey: cloudCfg.SecretAccessKey,
		Endpoint:        cloudCfg.Endpoint,
		ForcePathStyle:  cloudCfg.ForcePathStyle,
	})
	if err != nil {
		return nil, err
	}
	return cloud.New(cloud.Config{
		Name:      cfg.Name,
		Bucket:    cloudCfg.Bucket,
		KeyPrefix: cloudCfg.KeyPrefix,
	}, client), nil
}
