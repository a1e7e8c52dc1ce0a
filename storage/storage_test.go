package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/errs"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	webmHeader = []byte("\x1a\x45\xdf\xa3\x01\x00\x00\x00")
)

type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.objects[key] = b
	m.types[key] = contentType
	return "mem://" + key, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) KeyOf(uri string) (string, bool) {
	return keyBelow("mem:/", uri)
}

func TestUpload(t *testing.T) {
	store := newMemoryStore()
	ms := NewMediaService(store)
	ctx := context.Background()

	m := &Media{Kind: KindImage, Filename: "Avatar.PNG", File: bytes.NewReader(pngHeader)}
	uri, err := ms.Upload(ctx, m)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(m.Key, "images/"))
	assert.True(t, strings.HasSuffix(m.Key, ".png"))
	assert.Equal(t, "mem://"+m.Key, uri)
	assert.Equal(t, pngHeader, store.objects[m.Key])
	assert.Equal(t, "image/png", store.types[m.Key])
	assert.Equal(t, int64(len(pngHeader)), m.Size)

	v := &Media{Kind: KindVideo, Filename: "clip.webm", File: bytes.NewReader(webmHeader)}
	videoURI, err := ms.Upload(ctx, v)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(v.Key, "videos/"))
	assert.Len(t, store.objects, 2)

	require.NoError(t, ms.Remove(ctx, videoURI))
	assert.Len(t, store.objects, 1)
	assert.NoError(t, ms.Remove(ctx, ""))
	assert.NoError(t, ms.Remove(ctx, "https://cdn.example.com/"+m.Key))
	assert.Contains(t, store.objects, m.Key)
}

func TestUploadRejects(t *testing.T) {
	ms := NewMediaService(newMemoryStore())
	ctx := context.Background()

	tests := []struct {
		name  string
		media *Media
	}{
		{"unknown kind", &Media{Kind: "audio", Filename: "a.mp3", File: bytes.NewReader(pngHeader)}},
		{"no file", &Media{Kind: KindImage, Filename: "a.png"}},
		{"bad extension", &Media{Kind: KindImage, Filename: "a.gif", File: bytes.NewReader(pngHeader)}},
		{"video extension for image", &Media{Kind: KindImage, Filename: "a.webm", File: bytes.NewReader(webmHeader)}},
		{"content does not match", &Media{Kind: KindImage, Filename: "a.jpg", File: bytes.NewReader(pngHeader)}},
		{"empty", &Media{Kind: KindImage, Filename: "a.png", File: bytes.NewReader(nil)}},
		{"too large", &Media{Kind: KindImage, Filename: "a.png",
			File: bytes.NewReader(append(pngHeader, make([]byte, MaxImageSize)...))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ms.Upload(ctx, tt.media)
			require.Error(t, err)
			assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
		})
	}
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	ls := NewLocalStore(dir, "http://localhost:1111/media/")
	ctx := context.Background()

	uri, err := ls.Put(ctx, "images/a.png", bytes.NewReader(pngHeader), int64(len(pngHeader)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:1111/media/images/a.png", uri)

	b, err := os.ReadFile(filepath.Join(dir, "images", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, b)

	key, ok := ls.KeyOf(uri)
	require.True(t, ok)
	assert.Equal(t, "images/a.png", key)
	for _, other := range []string{"https://cdn.example.com/images/a.png", "http://localhost:1111/media/", "http://localhost:1111/media/../etc/passwd"} {
		_, ok := ls.KeyOf(other)
		assert.False(t, ok, other)
	}

	require.NoError(t, ls.Delete(ctx, "images/a.png"))
	assert.NoError(t, ls.Delete(ctx, "images/a.png"))
	_, err = os.Stat(filepath.Join(dir, "images", "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com",
		publicURL(S3Config{BaseURL: "https://cdn.example.com/"}, "http://minio:9000"))
	assert.Equal(t, "http://minio:9000/media",
		publicURL(S3Config{Bucket: "media"}, "http://minio:9000"))
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com",
		publicURL(S3Config{Bucket: "media", Region: "eu-west-1"}, ""))
}
