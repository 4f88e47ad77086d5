// Package publish uploads finished reports to S3 compatible object storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ethereum-optimism/infra/op-reporter/metrics"
)

// Uploader is the part of the minio client used for publishing
type Uploader interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// blank assignment to verify that the minio client implements Uploader
var _ Uploader = (*minio.Client)(nil)

// Destination is a bucket and key prefix reports are uploaded below
type Destination struct {
	Bucket string
	Prefix string
}

// String implements the Stringer interface for Destination
func (d Destination) String() string {
	if d.Prefix == "" {
		return "s3://" + d.Bucket
	}
	return "s3://" + d.Bucket + "/" + d.Prefix
}

// ParseDestination parses "s3://bucket/optional/prefix"
func ParseDestination(s string) (Destination, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return Destination{}, fmt.Errorf("invalid publish destination %q: %w", s, err)
	}
	if u.Scheme != "s3" {
		return Destination{}, fmt.Errorf("invalid publish destination %q: scheme must be s3", s)
	}
	if u.Host == "" {
		return Destination{}, fmt.Errorf("invalid publish destination %q: bucket is required", s)
	}
	return Destination{Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
}

// NewMinioUploader connects to an S3 compatible endpoint. The scheme of the
// endpoint ("http://" or "https://") selects whether TLS is used.
func NewMinioUploader(endpoint, accessKeyID, secretAccessKey string) (*minio.Client, error) {
	secure := true
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		secure = false
		endpoint = strings.TrimPrefix(endpoint, "http://")
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = strings.TrimPrefix(endpoint, "https://")
	default:
		return nil, fmt.Errorf("unsupported storage endpoint %q: must start with http:// or https://", endpoint)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// Publisher uploads report directories to a Destination
type Publisher struct {
	uploader Uploader
	dest     Destination
	log      log.Logger
}

// NewPublisher creates a publisher
func NewPublisher(uploader Uploader, dest Destination, logger log.Logger) (*Publisher, error) {
	if uploader == nil {
		return nil, errors.New("uploader is required")
	}
	if logger == nil {
		logger = log.New()
	}
	return &Publisher{uploader: uploader, dest: dest, log: logger}, nil
}

// ObjectName returns the key a report file is stored under
func (p *Publisher) ObjectName(run, rel string) string {
	return path.Join(p.dest.Prefix, run, filepath.ToSlash(rel))
}

// Publish uploads every regular file below dir to <prefix>/<run>/<relative path>
// and returns the uploaded object names in walk order.
func (p *Publisher) Publish(ctx context.Context, dir, run string) ([]string, error) {
	var uploaded []string
	err := filepath.WalkDir(dir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return err
		}
		name := p.ObjectName(run, rel)
		if _, err := p.uploader.FPutObject(ctx, p.dest.Bucket, name, file, minio.PutObjectOptions{
			ContentType: ContentType(file),
		}); err != nil {
			return fmt.Errorf("failed to upload %s: %w", rel, err)
		}
		p.log.Debug("Uploaded report file", "bucket", p.dest.Bucket, "object", name)
		uploaded = append(uploaded, name)
		return nil
	})
	if err != nil {
		metrics.RecordErrorDetails("publish", err)
		return uploaded, fmt.Errorf("failed to publish %s to %s: %w", dir, p.dest, err)
	}

	p.log.Info("Published report", "destination", p.dest.String(), "run", run, "files", len(uploaded))
	return uploaded, nil
}

// ContentType returns the MIME type used when uploading file
func ContentType(file string) string {
	ext := strings.ToLower(filepath.Ext(file))
	switch ext {
	case ".html":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
