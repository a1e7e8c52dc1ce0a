package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"videotube/auth"
	"videotube/domain"
	"videotube/errs"
	"videotube/storage"
)

// registerVideoRoutes is a helper for registering all video routes.
func (s *Server) registerVideoRoutes(r *mux.Router) {
	r.HandleFunc("/videos", s.handleListVideos).Methods("GET")
	r.HandleFunc("/videos", s.requireAuth(s.handlePublishVideo)).Methods("POST")
	r.HandleFunc("/videos/toggle/publish/{videoId}", s.requireAuth(s.handleTogglePublish)).Methods("PATCH")
	r.HandleFunc("/videos/{videoId}", s.handleGetVideo).Methods("GET")
	r.HandleFunc("/videos/{videoId}", s.requireAuth(s.handleUpdateVideo)).Methods("PATCH")
	r.HandleFunc("/videos/{videoId}", s.requireAuth(s.handleDeleteVideo)).Methods("DELETE")
	r.HandleFunc("/videos/{videoId}/like", s.requireAuth(s.handleToggleLike(domain.KindVideo, "videoId"))).Methods("POST")
}

// handleListVideos handles the route "GET /videos".
// Query parameters: page, limit, query, sortBy, sortType (asc|desc) and userId.
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.VideoFilter{
		Page:     page(r),
		Query:    q.Get("query"),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
		UserID:   q.Get("userId"),
	}
	videos, err := s.vs.List(r.Context(), filter)
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, videos, "Videos fetched successfully.")
}

type videoForm struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	VideoFile   string      `json:"videoFile"`
	Thumbnail   string      `json:"thumbnail"`
	Duration    json.Number `json:"duration"`
}

// handlePublishVideo handles the route "POST /videos".
// The video file and the thumbnail are either URIs of hosted media or multipart file uploads.
func (s *Server) handlePublishVideo(w http.ResponseWriter, r *http.Request) {
	var form videoForm
	if err := bind(r, &form); err != nil {
		returnError(w, r, err)
		return
	}
	var duration float64
	if form.Duration != "" {
		d, err := form.Duration.Float64()
		if err != nil || d < 0 {
			returnError(w, r, errs.Errorf(errs.EINVALID, "Invalid duration."))
			return
		}
		duration = d
	}
	videoFile, err := s.upload(r, "videoFile", storage.KindVideo, form.VideoFile)
	if err != nil {
		returnError(w, r, err)
		return
	}
	thumbnail, err := s.upload(r, "thumbnail", storage.KindImage, form.Thumbnail)
	if err != nil {
		returnError(w, r, err)
		return
	}

	video := domain.Video{
		OwnerID:     auth.UserID(r.Context()),
		Title:       form.Title,
		Description: form.Description,
		VideoFile:   videoFile,
		Thumbnail:   thumbnail,
		Duration:    duration,
	}
	if err := s.vs.Publish(r.Context(), &video); err != nil {
		s.removeMedia(r, uploaded(videoFile, form.VideoFile), uploaded(thumbnail, form.Thumbnail))
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusCreated, &video, "Video published successfully.")
}

// handleGetVideo handles the route "GET /videos/:videoId".
// Every call counts as a view.
func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "videoId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	video, err := s.vs.View(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, video, "Video fetched successfully.")
}

// handleUpdateVideo handles the route "PATCH /videos/:videoId".
func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "videoId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	var upd domain.VideoUpdate
	if err := bind(r, &upd); err != nil {
		returnError(w, r, err)
		return
	}
	fallback := ""
	if upd.Thumbnail != nil {
		fallback = *upd.Thumbnail
	}
	thumbnail, err := s.upload(r, "thumbnail", storage.KindImage, fallback)
	if err != nil {
		returnError(w, r, err)
		return
	}
	previous := ""
	if thumbnail != "" {
		upd.Thumbnail = &thumbnail
		current, err := s.vs.ByID(r.Context(), id)
		if err != nil {
			s.removeMedia(r, uploaded(thumbnail, fallback))
			returnError(w, r, err)
			return
		}
		previous = current.Thumbnail
	}

	video, err := s.vs.Update(r.Context(), id, auth.UserID(r.Context()), upd)
	if err != nil {
		s.removeMedia(r, uploaded(thumbnail, fallback))
		returnError(w, r, err)
		return
	}
	if previous != "" && previous != video.Thumbnail {
		s.removeMedia(r, previous)
	}
	returnData(w, r, http.StatusOK, video, "Video updated successfully.")
}

// handleDeleteVideo handles the route "DELETE /videos/:videoId".
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "videoId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	video, err := s.vs.ByID(r.Context(), id)
	if err != nil {
		returnError(w, r, err)
		return
	}
	if err := s.vs.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		returnError(w, r, err)
		return
	}
	s.removeMedia(r, video.VideoFile, video.Thumbnail)
	returnData(w, r, http.StatusOK, struct{}{}, "Video deleted successfully.")
}

// handleTogglePublish handles the route "PATCH /videos/toggle/publish/:videoId".
func (s *Server) handleTogglePublish(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "videoId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	video, err := s.vs.TogglePublish(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, video, "Publish status toggled successfully.")
}
