package publish

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dist/internal/config"
	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/retry"
)

// fastRetry keeps retry tests quick.
var fastRetry = retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)

type fakeStore struct {
	mu        sync.Mutex
	exists    bool
	made      int
	objects   map[string]string
	failOnKey string
	transient int
	puts      int
}

func (f *fakeStore) BucketExists(context.Context, string) (bool, error) { return f.exists, nil }

func (f *fakeStore) MakeBucket(context.Context, string, minio.MakeBucketOptions) error {
	f.made++
	f.exists = true
	return nil
}

func (f *fakeStore) FPutObject(_ context.Context, _, key, _ string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.transient > 0 {
		f.transient--
		return minio.UploadInfo{}, stderrors.New("connection reset")
	}
	if key == f.failOnKey {
		return minio.UploadInfo{}, stderrors.New("upload refused")
	}
	if f.objects == nil {
		f.objects = map[string]string{}
	}
	f.objects[key] = opts.ContentType
	return minio.UploadInfo{Key: key}, nil
}

func siteTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{"index.html", "css/style.css", "img/logo.png", "data.unknownext"} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(rel), 0o600))
	}
	return root
}

func TestPublish_UploadsUnderPrefix(t *testing.T) {
	store := &fakeStore{}
	p := newS3Publisher(store, "site", "/releases/v1/", defaultRegion, fastRetry)

	keys, err := p.Publish(context.Background(), siteTree(t))
	require.NoError(t, err)

	sort.Strings(keys)
	assert.Equal(t, []string{
		"releases/v1/css/style.css",
		"releases/v1/data.unknownext",
		"releases/v1/img/logo.png",
		"releases/v1/index.html",
	}, keys)
	assert.Equal(t, 1, store.made, "missing bucket is created")
	assert.True(t, strings.HasPrefix(store.objects["releases/v1/index.html"], "text/html"))
	assert.True(t, strings.HasPrefix(store.objects["releases/v1/css/style.css"], "text/css"))
	assert.Equal(t, "image/png", store.objects["releases/v1/img/logo.png"])
	assert.Equal(t, "application/octet-stream", store.objects["releases/v1/data.unknownext"])
}

func TestPublish_ExistingBucketNotRecreated(t *testing.T) {
	store := &fakeStore{exists: true}
	p := newS3Publisher(store, "site", "", defaultRegion, fastRetry)

	keys, err := p.Publish(context.Background(), siteTree(t))
	require.NoError(t, err)
	assert.Contains(t, keys, "index.html")
	assert.Zero(t, store.made)
}

func TestPublish_UploadFailure(t *testing.T) {
	store := &fakeStore{exists: true, failOnKey: "index.html"}
	p := newS3Publisher(store, "site", "", defaultRegion, fastRetry)

	_, err := p.Publish(context.Background(), siteTree(t))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryStorage))
	// three earlier files, then index.html tried once plus two retries
	assert.Equal(t, 6, store.puts)
}

func TestPublish_RetriesTransientFailure(t *testing.T) {
	store := &fakeStore{exists: true, transient: 1}
	p := newS3Publisher(store, "site", "", defaultRegion, fastRetry)

	keys, err := p.Publish(context.Background(), siteTree(t))
	require.NoError(t, err)
	assert.Len(t, keys, 4)
	assert.Equal(t, 5, store.puts)
}

func TestPublish_MissingRoot(t *testing.T) {
	p := newS3Publisher(&fakeStore{exists: true}, "site", "", defaultRegion, fastRetry)
	_, err := p.Publish(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestNewS3Publisher_Validation(t *testing.T) {
	_, err := NewS3Publisher(config.PublishConfig{Bucket: "b"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = NewS3Publisher(config.PublishConfig{Endpoint: "localhost:9000"})
	require.Error(t, err)

	p, err := NewS3Publisher(config.PublishConfig{Endpoint: "localhost:9000", Bucket: "b", AccessKey: "a", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, defaultRegion, p.region)
	assert.Zero(t, p.policy.MaxRetries, "retries come from the publish config")
}
