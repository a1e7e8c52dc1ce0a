package storage

import (
	"context"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"videotube/errs"
)

// Media kinds an upload can be checked against.
const (
	KindImage = "image"
	KindVideo = "video"
)

const (
	MaxImageSize int64 = 5 << 20   // 5 Megabyte
	MaxVideoSize int64 = 200 << 20 // 200 Megabyte
)

// contentTypes maps the accepted extensions of each kind to the content type
// http.DetectContentType reports for them.
var contentTypes = map[string]map[string]string{
	KindImage: {
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
	},
	KindVideo: {
		".mp4":  "video/mp4",
		".webm": "video/webm",
	},
}

// Media is an uploaded file on its way to a Store.
type Media struct {
	Kind     string
	Filename string
	File     io.ReadSeeker

	// Set during validation.
	Extension   string
	ContentType string
	Size        int64
	Key         string
}

// A Store persists media objects and returns the public URI they are hosted at.
// KeyOf maps such a URI back to its key, and reports false for URIs the store
// did not hand out.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyOf(uri string) (string, bool)
}

// keyBelow returns the key of uri below baseURL.
func keyBelow(baseURL, uri string) (string, bool) {
	key, ok := strings.CutPrefix(uri, baseURL+"/")
	if !ok || key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

// MediaService validates uploads and hands them to a Store.
type MediaService struct {
	mediaValidator
}

type mediaValidator struct {
	store Store
}

// NewMediaService returns an instance of MediaService.
func NewMediaService(store Store) *MediaService {
	return &MediaService{
		mediaValidator{
			store: store,
		},
	}
}

// Upload validates the media and stores it under a unique key.
// It returns the URI the media is hosted at.
func (mv *mediaValidator) Upload(ctx context.Context, m *Media) (string, error) {
	err := runMediaValFns(m,
		mv.kindValid,
		mv.extensionValid,
		mv.belowMaxSize,
		mv.contentTypeValid,
		mv.keyUnique,
	)
	if err != nil {
		return "", err
	}
	return mv.store.Put(ctx, m.Key, m.File, m.Size, m.ContentType)
}

// Hosts reports whether uri points at media of the store.
func (mv *mediaValidator) Hosts(uri string) bool {
	_, ok := mv.store.KeyOf(uri)
	return ok
}

// Remove deletes the media hosted at uri. URIs that point somewhere other
// than the store, such as pre-hosted images, are left alone.
func (mv *mediaValidator) Remove(ctx context.Context, uri string) error {
	key, ok := mv.store.KeyOf(uri)
	if !ok {
		return nil
	}
	return mv.store.Delete(ctx, key)
}

type mediaValFn func(m *Media) error

func runMediaValFns(m *Media, fns ...mediaValFn) error {
	for _, fn := range fns {
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

func (mv *mediaValidator) kindValid(m *Media) error {
	if _, ok := contentTypes[m.Kind]; !ok {
		return errs.Errorf(errs.EINVALID, "Unknown media kind %q.", m.Kind)
	}
	if m.File == nil {
		return errs.Errorf(errs.EINVALID, "The %s file is missing.", m.Kind)
	}
	return nil
}

func (mv *mediaValidator) extensionValid(m *Media) error {
	ext := strings.ToLower(filepath.Ext(m.Filename))
	if ext == ".jpg" {
		ext = ".jpeg"
	}
	if _, ok := contentTypes[m.Kind][ext]; !ok {
		return errs.Errorf(errs.EINVALID, "File %s has an invalid extension, must be one of %s.",
			m.Filename, strings.Join(extensions(m.Kind), ", "))
	}
	m.Extension = ext
	return nil
}

func (mv *mediaValidator) belowMaxSize(m *Media) error {
	size, err := m.File.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if err := resetReaderPosition(m); err != nil {
		return err
	}
	max := MaxImageSize
	if m.Kind == KindVideo {
		max = MaxVideoSize
	}
	if size == 0 {
		return errs.Errorf(errs.EINVALID, "File %s is empty.", m.Filename)
	}
	if size > max {
		return errs.Errorf(errs.EINVALID, "File %s exceeds upload size limit of %sMB.",
			m.Filename, strconv.FormatInt(max>>20, 10))
	}
	m.Size = size
	return nil
}

// contentTypeValid sniffs the first bytes of the file and makes sure they match the extension.
func (mv *mediaValidator) contentTypeValid(m *Media) error {
	buffer := make([]byte, 512)
	n, err := m.File.Read(buffer)
	if err != nil && err != io.EOF {
		return err
	}
	if err := resetReaderPosition(m); err != nil {
		return err
	}
	contentType := http.DetectContentType(buffer[:n])
	if want := contentTypes[m.Kind][m.Extension]; contentType != want {
		return errs.Errorf(errs.EINVALID, "File %s has content-type %s, which does not match extension %s.",
			m.Filename, contentType, m.Extension)
	}
	m.ContentType = contentType
	return nil
}

func (mv *mediaValidator) keyUnique(m *Media) error {
	m.Key = path.Join(m.Kind+"s", uuid.NewString()+m.Extension)
	return nil
}

// resetReaderPosition back to beginning of the file, so that subsequent reads will work.
func resetReaderPosition(m *Media) error {
	_, err := m.File.Seek(0, io.SeekStart)
	return err
}

func extensions(kind string) []string {
	exts := make([]string, 0, len(contentTypes[kind]))
	for ext := range contentTypes[kind] {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
