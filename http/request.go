package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"videotube/domain"
	"videotube/errs"
	"videotube/storage"
)

// maxFormMemory is how much of a multipart body is kept in memory, the rest goes to temp files.
const maxFormMemory = 32 << 20

var errInvalidBody = errs.Errorf(errs.EINVALID, "Invalid request body.")

func isForm(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "multipart/form-data" || ct == "application/x-www-form-urlencoded"
}

// bind decodes the request body into dst. JSON bodies are decoded directly.
// Form bodies are decoded by their field names, which have to match the json tags of dst.
func bind(r *http.Request, dst interface{}) error {
	if !isForm(r) {
		if r.Body == nil || r.ContentLength == 0 {
			return nil
		}
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return errInvalidBody
		}
		return nil
	}
	if err := parseForm(r); err != nil {
		return err
	}
	fields := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return errInvalidBody
	}
	return nil
}

func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return errs.Errorf(errs.EINVALID, "Invalid form body.")
	}
	return nil
}

// upload stores the file of the multipart field, if the request carries one,
// and returns its URI. Without a file it returns fallback unchanged. A fallback
// pointing into the media store is refused, so that every stored object
// belongs to the record it was uploaded for.
func (s *Server) upload(r *http.Request, field, kind, fallback string) (string, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		if fallback != "" && s.media != nil && s.media.Hosts(fallback) {
			return "", errs.Errorf(errs.EINVALID, "Upload the %s file instead of linking a stored one.", field)
		}
		return fallback, nil
	}
	if s.media == nil {
		return "", errs.Errorf(errs.EINVALID, "File uploads are not enabled, send the %s URI instead.", field)
	}
	header := r.MultipartForm.File[field][0]
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()
	return s.media.Upload(r.Context(), &storage.Media{
		Kind:     kind,
		Filename: header.Filename,
		File:     file,
	})
}

// removeMedia deletes stored media that no record points at anymore. Failures
// are logged, the request has already succeeded.
func (s *Server) removeMedia(r *http.Request, uris ...string) {
	if s.media == nil {
		return
	}
	for _, uri := range uris {
		if err := s.media.Remove(r.Context(), uri); err != nil {
			slog.WarnContext(r.Context(), "removing media failed", "uri", uri, "error", err)
		}
	}
}

// page reads the page and limit query parameters.
func page(r *http.Request) domain.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return domain.NewPage(number, limit)
}

// idVar reads a path parameter that has to be a record identifier.
func idVar(r *http.Request, name string) (string, error) {
	id := mux.Vars(r)[name]
	if !domain.ValidID(id) {
		return "", errs.Errorf(errs.EINVALID, "Invalid %s.", name)
	}
	return id, nil
}
