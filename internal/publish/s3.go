// Package publish uploads a built destination tree to S3-compatible object storage.
package publish

import (
	"context"
	"io/fs"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/logfields"
	"git.home.luguber.info/inful/dist/internal/retry"
)

const defaultRegion = "us-east-1"

// objectStore is the subset of *minio.Client the publisher uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Publisher uploads files to bucket/prefix/<relative path>.
type S3Publisher struct {
	client   objectStore
	bucket   string
	prefix   string
	region   string
	policy   retry.Policy
	initOnce sync.Once
	initErr  error
}

// NewS3Publisher builds a publisher from the publish section of the config.
// Empty credentials fall back to the AWS_* / MINIO_* environment variables.
// Failed uploads are retried per publish.retries and publish.backoff.
func NewS3Publisher(cfg config.PublishConfig) (*S3Publisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.ConfigError("publish.endpoint is required").Build()
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.ConfigError("publish.bucket is required").Build()
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	var creds *credentials.Credentials
	access, secret := strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey)
	if access != "" && secret != "" {
		creds = credentials.NewStaticV4(access, secret, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
		})
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.ConfigError("failed to initialize S3 client").
			WithCause(err).WithContext("endpoint", endpoint).Build()
	}
	return newS3Publisher(client, bucket, cfg.Prefix, region, retry.FromConfig(cfg)), nil
}

func newS3Publisher(client objectStore, bucket, prefix, region string, policy retry.Policy) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		region: region,
		policy: policy,
	}
}

func (p *S3Publisher) ensureBucket(ctx context.Context) error {
	p.initOnce.Do(func() {
		exists, err := p.client.BucketExists(ctx, p.bucket)
		if err != nil {
			p.initErr = err
			return
		}
		if exists {
			return
		}
		p.initErr = p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region})
	})
	return p.initErr
}

// Publish uploads every regular file below root and returns the object keys
// written. It stops at the first failed upload.
func (p *S3Publisher) Publish(ctx context.Context, root string) ([]string, error) {
	if err := p.ensureBucket(ctx); err != nil {
		return nil, errors.StorageError("failed to ensure bucket").
			WithCause(err).WithContext("bucket", p.bucket).Build()
	}

	var keys []string
	err := filepath.WalkDir(root, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return err
		}
		key := p.objectKey(rel)
		attempt := 0
		err = p.policy.Do(ctx, func(ctx context.Context) error {
			attempt++
			if attempt > 1 {
				slog.Warn("Retrying upload", slog.String("key", key), slog.Int("attempt", attempt))
			}
			_, putErr := p.client.FPutObject(ctx, p.bucket, key, file, minio.PutObjectOptions{
				ContentType: contentType(file),
			})
			return putErr
		})
		if err != nil {
			return errors.StorageError("failed to upload object").
				WithCause(err).WithContext("path", file).WithContext("key", key).Build()
		}
		slog.Debug("Uploaded object", logfields.Path(file), slog.String("key", key))
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		if errors.IsClassified(err) {
			return keys, err
		}
		return keys, errors.FileSystemError("failed to walk publish root").
			WithCause(err).WithContext("path", root).Build()
	}

	slog.Info("Published site", slog.String("bucket", p.bucket), slog.String("prefix", p.prefix), logfields.Count(len(keys)))
	return keys, nil
}

func (p *S3Publisher) objectKey(rel string) string {
	rel = filepath.ToSlash(rel)
	if p.prefix == "" {
		return rel
	}
	return path.Join(p.prefix, rel)
}

func contentType(file string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(file))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
