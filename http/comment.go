package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"videotube/auth"
	"videotube/domain"
)

// registerCommentRoutes is a helper for registering all comment routes.
func (s *Server) registerCommentRoutes(r *mux.Router) {
	r.HandleFunc("/comments/c/{commentId}", s.requireAuth(s.handleUpdateComment)).Methods("PATCH")
	r.HandleFunc("/comments/c/{commentId}", s.requireAuth(s.handleDeleteComment)).Methods("DELETE")
	r.HandleFunc("/comments/{videoId}", s.handleVideoComments).Methods("GET")
	r.HandleFunc("/comments/{videoId}", s.requireAuth(s.handleCreateComment)).Methods("POST")
}

// handleVideoComments handles the route "GET /comments/:videoId?page&limit".
func (s *Server) handleVideoComments(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "videoId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	comments, err := s.cs.ByVideo(r.Context(), id, auth.UserID(r.Context()), page(r))
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, comments, "Comments fetched successfully.")
}

// handleCreateComment handles the route "POST /comments/:videoId".
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "videoId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	var form contentForm
	if err := bind(r, &form); err != nil {
		returnError(w, r, err)
		return
	}
	comment := domain.Comment{
		OwnerID: auth.UserID(r.Context()),
		VideoID: id,
		Content: form.Content,
	}
	if err := s.cs.Create(r.Context(), &comment); err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusCreated, &comment, "Comment added successfully.")
}

// handleUpdateComment handles the route "PATCH /comments/c/:commentId".
func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "commentId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	var form contentForm
	if err := bind(r, &form); err != nil {
		returnError(w, r, err)
		return
	}
	comment, err := s.cs.Update(r.Context(), id, auth.UserID(r.Context()), form.Content)
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, comment, "Comment updated successfully.")
}

// handleDeleteComment handles the route "DELETE /comments/c/:commentId".
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "commentId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	if err := s.cs.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, struct{}{}, "Comment deleted successfully.")
}
