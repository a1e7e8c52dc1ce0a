package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"videotube/auth"
	"videotube/domain"
)

// registerTweetRoutes is a helper for registering all tweet routes.
func (s *Server) registerTweetRoutes(r *mux.Router) {
	r.HandleFunc("/tweets", s.requireAuth(s.handleCreateTweet)).Methods("POST")
	r.HandleFunc("/tweets/user/{userId}", s.handleUserTweets).Methods("GET")
	r.HandleFunc("/tweets/{tweetId}", s.requireAuth(s.handleUpdateTweet)).Methods("PATCH")
	r.HandleFunc("/tweets/{tweetId}", s.requireAuth(s.handleDeleteTweet)).Methods("DELETE")
}

type contentForm struct {
	Content string `json:"content"`
}

// handleCreateTweet handles the route "POST /tweets".
func (s *Server) handleCreateTweet(w http.ResponseWriter, r *http.Request) {
	var form contentForm
	if err := bind(r, &form); err != nil {
		returnError(w, r, err)
		return
	}
	tweet := domain.Tweet{
		OwnerID: auth.UserID(r.Context()),
		Content: form.Content,
	}
	if err := s.ts.Create(r.Context(), &tweet); err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusCreated, &tweet, "Tweet created successfully.")
}

// handleUserTweets handles the route "GET /tweets/user/:userId".
func (s *Server) handleUserTweets(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "userId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	tweets, err := s.ts.ByUser(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, tweets, "Tweets fetched successfully.")
}

// handleUpdateTweet handles the route "PATCH /tweets/:tweetId".
func (s *Server) handleUpdateTweet(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "tweetId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	var form contentForm
	if err := bind(r, &form); err != nil {
		returnError(w, r, err)
		return
	}
	tweet, err := s.ts.Update(r.Context(), id, auth.UserID(r.Context()), form.Content)
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, tweet, "Tweet updated successfully.")
}

// handleDeleteTweet handles the route "DELETE /tweets/:tweetId".
func (s *Server) handleDeleteTweet(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "tweetId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	if err := s.ts.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, struct{}{}, "Tweet deleted successfully.")
}
