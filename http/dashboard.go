package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"videotube/auth"
)

// registerDashboardRoutes is a helper for registering the dashboard routes.
// Both only ever show the authed user's own channel.
func (s *Server) registerDashboardRoutes(r *mux.Router) {
	r.HandleFunc("/dashboard/stats", s.requireAuth(s.handleChannelStats)).Methods("GET")
	r.HandleFunc("/dashboard/videos", s.requireAuth(s.handleChannelVideos)).Methods("GET")
}

func (s *Server) handleChannelStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ds.Stats(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, stats, "Channel stats fetched successfully.")
}

func (s *Server) handleChannelVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.ds.Videos(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, videos, "Channel videos fetched successfully.")
}
