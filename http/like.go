package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"videotube/auth"
	"videotube/domain"
)

// registerLikeRoutes is a helper for registering all like routes.
func (s *Server) registerLikeRoutes(r *mux.Router) {
	r.HandleFunc("/likes/toggle/v/{videoId}", s.requireAuth(s.handleToggleLike(domain.KindVideo, "videoId"))).Methods("POST")
	r.HandleFunc("/likes/toggle/c/{commentId}", s.requireAuth(s.handleToggleLike(domain.KindComment, "commentId"))).Methods("POST")
	r.HandleFunc("/likes/toggle/t/{tweetId}", s.requireAuth(s.handleToggleLike(domain.KindTweet, "tweetId"))).Methods("POST")
	r.HandleFunc("/likes/videos", s.requireAuth(s.handleLikedVideos)).Methods("GET")
}

var likeTargets = map[domain.LikeKind]func(string) domain.LikeTarget{
	domain.KindVideo:   domain.VideoTarget,
	domain.KindComment: domain.CommentTarget,
	domain.KindTweet:   domain.TweetTarget,
}

// handleToggleLike returns the handler that likes, or unlikes, the record of
// the given kind whose id is in the path parameter param.
func (s *Server) handleToggleLike(kind domain.LikeKind, param string) http.HandlerFunc {
	target := likeTargets[kind]
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idVar(r, param)
		if err != nil {
			returnError(w, r, err)
			return
		}
		liked, err := s.ls.Toggle(r.Context(), auth.UserID(r.Context()), target(id))
		if err != nil {
			returnError(w, r, err)
			return
		}
		message := "Unliked successfully."
		if liked {
			message = "Liked successfully."
		}
		returnData(w, r, http.StatusOK, map[string]bool{"isLiked": liked}, message)
	}
}

// handleLikedVideos handles the route "GET /likes/videos".
func (s *Server) handleLikedVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.ls.LikedVideos(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, videos, "Liked videos fetched successfully.")
}
