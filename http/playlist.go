package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"videotube/auth"
	"videotube/domain"
)

// registerPlaylistRoutes is a helper for registering all playlist routes.
func (s *Server) registerPlaylistRoutes(r *mux.Router) {
	r.HandleFunc("/playlists", s.requireAuth(s.handleCreatePlaylist)).Methods("POST")
	r.HandleFunc("/playlists/user/{userId}", s.handleUserPlaylists).Methods("GET")
	r.HandleFunc("/playlists/add/{videoId}/{playlistId}", s.requireAuth(s.handleAddToPlaylist)).Methods("PATCH")
	r.HandleFunc("/playlists/remove/{videoId}/{playlistId}", s.requireAuth(s.handleRemoveFromPlaylist)).Methods("PATCH")
	r.HandleFunc("/playlists/{playlistId}", s.handleGetPlaylist).Methods("GET")
	r.HandleFunc("/playlists/{playlistId}", s.requireAuth(s.handleUpdatePlaylist)).Methods("PATCH")
	r.HandleFunc("/playlists/{playlistId}", s.requireAuth(s.handleDeletePlaylist)).Methods("DELETE")
}

// handleCreatePlaylist handles the route "POST /playlists".
func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var form struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := bind(r, &form); err != nil {
		returnError(w, r, err)
		return
	}
	playlist := domain.Playlist{
		OwnerID:     auth.UserID(r.Context()),
		Name:        form.Name,
		Description: form.Description,
	}
	if err := s.ps.Create(r.Context(), &playlist); err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusCreated, &playlist, "Playlist created successfully.")
}

// handleUserPlaylists handles the route "GET /playlists/user/:userId".
func (s *Server) handleUserPlaylists(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "userId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	playlists, err := s.ps.ByUser(r.Context(), id)
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, playlists, "Playlists fetched successfully.")
}

// handleGetPlaylist handles the route "GET /playlists/:playlistId".
func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "playlistId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	playlist, err := s.ps.ByID(r.Context(), id)
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, playlist, "Playlist fetched successfully.")
}

// handleUpdatePlaylist handles the route "PATCH /playlists/:playlistId".
func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "playlistId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	var upd domain.PlaylistUpdate
	if err := bind(r, &upd); err != nil {
		returnError(w, r, err)
		return
	}
	playlist, err := s.ps.Update(r.Context(), id, auth.UserID(r.Context()), upd)
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, playlist, "Playlist updated successfully.")
}

// handleDeletePlaylist handles the route "DELETE /playlists/:playlistId".
func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "playlistId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	if err := s.ps.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, struct{}{}, "Playlist deleted successfully.")
}

// handleAddToPlaylist handles the route "PATCH /playlists/add/:videoId/:playlistId".
func (s *Server) handleAddToPlaylist(w http.ResponseWriter, r *http.Request) {
	videoID, playlistID, err := playlistVars(r)
	if err != nil {
		returnError(w, r, err)
		return
	}
	playlist, err := s.ps.AddVideo(r.Context(), playlistID, videoID, auth.UserID(r.Context()))
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, playlist, "Video added to playlist successfully.")
}

// handleRemoveFromPlaylist handles the route "PATCH /playlists/remove/:videoId/:playlistId".
func (s *Server) handleRemoveFromPlaylist(w http.ResponseWriter, r *http.Request) {
	videoID, playlistID, err := playlistVars(r)
	if err != nil {
		returnError(w, r, err)
		return
	}
	playlist, err := s.ps.RemoveVideo(r.Context(), playlistID, videoID, auth.UserID(r.Context()))
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, playlist, "Video removed from playlist successfully.")
}

func playlistVars(r *http.Request) (videoID, playlistID string, err error) {
	if videoID, err = idVar(r, "videoId"); err != nil {
		return "", "", err
	}
	if playlistID, err = idVar(r, "playlistId"); err != nil {
		return "", "", err
	}
	return videoID, playlistID, nil
}
