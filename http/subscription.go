package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"videotube/auth"
)

// registerSubscriptionRoutes is a helper for registering all subscription routes.
func (s *Server) registerSubscriptionRoutes(r *mux.Router) {
	r.HandleFunc("/subscriptions/c/{channelId}", s.requireAuth(s.handleToggleSubscription)).Methods("POST")
	r.HandleFunc("/subscriptions/c/{channelId}", s.handleChannelSubscribers).Methods("GET")
	r.HandleFunc("/subscriptions/u/{subscriberId}", s.handleSubscribedChannels).Methods("GET")
}

// handleToggleSubscription handles the route "POST /subscriptions/c/:channelId".
func (s *Server) handleToggleSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "channelId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	subscribed, err := s.ss.Toggle(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		returnError(w, r, err)
		return
	}
	message := "Unsubscribed successfully."
	if subscribed {
		message = "Subscribed successfully."
	}
	returnData(w, r, http.StatusOK, map[string]bool{"subscribed": subscribed}, message)
}

// handleChannelSubscribers handles the route "GET /subscriptions/c/:channelId".
func (s *Server) handleChannelSubscribers(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "channelId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	subscribers, err := s.ss.Subscribers(r.Context(), id)
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, subscribers, "Subscribers fetched successfully.")
}

// handleSubscribedChannels handles the route "GET /subscriptions/u/:subscriberId".
func (s *Server) handleSubscribedChannels(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r, "subscriberId")
	if err != nil {
		returnError(w, r, err)
		return
	}
	channels, err := s.ss.Channels(r.Context(), id)
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, channels, "Subscribed channels fetched successfully.")
}
