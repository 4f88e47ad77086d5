package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	bucket      string
	object      string
	file        string
	contentType string
}

type fakeUploader struct {
	uploads []upload
	failOn  string
}

func (f *fakeUploader) FPutObject(_ context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.failOn != "" && objectName == f.failOn {
		return minio.UploadInfo{}, errors.New("access denied")
	}
	f.uploads = append(f.uploads, upload{
		bucket:      bucketName,
		object:      objectName,
		file:        filePath,
		contentType: opts.ContentType,
	})
	return minio.UploadInfo{Bucket: bucketName, Key: objectName}, nil
}

func writeReportDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "screenshots"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test-report-20210704_1540.html"), []byte("<html></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test-report-20210704_1540.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "screenshots", "loginTest - 20210704_1540.png"), []byte("png"), 0644))
	return dir
}

func TestParseDestination(t *testing.T) {
	tests := []struct {
		in      string
		want    Destination
		wantErr string
	}{
		{in: "s3://reports", want: Destination{Bucket: "reports"}},
		{in: "s3://reports/", want: Destination{Bucket: "reports"}},
		{in: "s3://reports/ui/nightly/", want: Destination{Bucket: "reports", Prefix: "ui/nightly"}},
		{in: "https://reports/ui", wantErr: "scheme must be s3"},
		{in: "s3:///ui", wantErr: "bucket is required"},
		{in: "::", wantErr: "invalid publish destination"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDestination(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDestinationString(t *testing.T) {
	assert.Equal(t, "s3://reports", Destination{Bucket: "reports"}.String())
	assert.Equal(t, "s3://reports/ui", Destination{Bucket: "reports", Prefix: "ui"}.String())
}

func TestPublish(t *testing.T) {
	dir := writeReportDir(t)
	up := &fakeUploader{}
	p, err := NewPublisher(up, Destination{Bucket: "reports", Prefix: "ui"}, log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)

	names, err := p.Publish(context.Background(), dir, "20210704_1540")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ui/20210704_1540/screenshots/loginTest - 20210704_1540.png",
		"ui/20210704_1540/test-report-20210704_1540.html",
		"ui/20210704_1540/test-report-20210704_1540.json",
	}, names)

	require.Len(t, up.uploads, 3)
	for _, u := range up.uploads {
		assert.Equal(t, "reports", u.bucket)
		assert.FileExists(t, u.file)
	}
	assert.Equal(t, "image/png", up.uploads[0].contentType)
	assert.Equal(t, "text/html; charset=utf-8", up.uploads[1].contentType)
	assert.Equal(t, "application/json", up.uploads[2].contentType)
}

func TestPublishUploadError(t *testing.T) {
	dir := writeReportDir(t)
	up := &fakeUploader{failOn: "20210704_1540/test-report-20210704_1540.html"}
	p, err := NewPublisher(up, Destination{Bucket: "reports"}, nil)
	require.NoError(t, err)

	names, err := p.Publish(context.Background(), dir, "20210704_1540")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Contains(t, err.Error(), "s3://reports")
	assert.Len(t, names, 1)
}

func TestPublishMissingDir(t *testing.T) {
	p, err := NewPublisher(&fakeUploader{}, Destination{Bucket: "reports"}, nil)
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), filepath.Join(t.TempDir(), "missing"), "run")
	require.Error(t, err)
}

func TestPublishCancelled(t *testing.T) {
	up := &fakeUploader{}
	p, err := NewPublisher(up, Destination{Bucket: "reports"}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Publish(ctx, writeReportDir(t), "run")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, up.uploads)
}

func TestNewPublisherRequiresUploader(t *testing.T) {
	_, err := NewPublisher(nil, Destination{Bucket: "reports"}, nil)
	require.Error(t, err)
}

func TestNewMinioUploader(t *testing.T) {
	client, err := NewMinioUploader("http://localhost:9000", "access", "secret")
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", client.EndpointURL().Host)
	assert.Equal(t, "http", client.EndpointURL().Scheme)

	_, err = NewMinioUploader("localhost:9000", "access", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage endpoint")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/html; charset=utf-8", ContentType("report.HTML"))
	assert.Equal(t, "image/png", ContentType("a/b.png"))
	assert.Equal(t, "application/octet-stream", ContentType("noext"))
}
