package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"videotube/auth"
	"videotube/domain"
	"videotube/errs"
	"videotube/storage"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// registerUserRoutes is a helper for registering all user and auth routes.
func (s *Server) registerUserRoutes(r *mux.Router) {
	r.HandleFunc("/users/register", s.rateLimit(s.handleRegister)).Methods("POST")
	r.HandleFunc("/users/login", s.rateLimit(s.handleLogin)).Methods("POST")
	r.HandleFunc("/users/refresh-token", s.rateLimit(s.handleRefreshToken)).Methods("POST")
	r.HandleFunc("/users/logout", s.requireAuth(s.handleLogout)).Methods("POST")
	r.HandleFunc("/users/change-password", s.requireAuth(s.handleChangePassword)).Methods("POST")
	r.HandleFunc("/users/current-user", s.requireAuth(s.handleCurrentUser)).Methods("GET")
	r.HandleFunc("/users/update-account", s.requireAuth(s.handleUpdateAccount)).Methods("PATCH")
	r.HandleFunc("/users/avatar", s.requireAuth(s.handleUpdateImage("avatar"))).Methods("PATCH")
	r.HandleFunc("/users/cover-image", s.requireAuth(s.handleUpdateImage("coverImage"))).Methods("PATCH")
	r.HandleFunc("/users/c/{username}", s.handleChannelProfile).Methods("GET")
	r.HandleFunc("/users/history", s.requireAuth(s.handleWatchHistory)).Methods("GET")
}

type registerForm struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
}

// handleRegister handles the route "POST /users/register".
// The avatar and cover image are either URIs of hosted images or multipart file uploads.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form registerForm
	if err := bind(r, &form); err != nil {
		returnError(w, r, err)
		return
	}
	avatar, err := s.upload(r, "avatar", storage.KindImage, form.Avatar)
	if err != nil {
		returnError(w, r, err)
		return
	}
	cover, err := s.upload(r, "coverImage", storage.KindImage, form.CoverImage)
	if err != nil {
		returnError(w, r, err)
		return
	}

	user := domain.User{
		FullName:   form.FullName,
		Email:      form.Email,
		Username:   form.Username,
		Password:   form.Password,
		Avatar:     avatar,
		CoverImage: cover,
	}
	if err := s.us.Register(r.Context(), &user); err != nil {
		s.removeMedia(r, uploaded(avatar, form.Avatar), uploaded(cover, form.CoverImage))
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusCreated, &user, "User registered successfully.")
}

type loginForm struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User *domain.User `json:"user"`
	*auth.TokenPair
}

// handleLogin handles the route "POST /users/login".
// It accepts either the username or the email address of the user.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := bind(r, &form); err != nil {
		returnError(w, r, err)
		return
	}
	login := form.Username
	if login == "" {
		login = form.Email
	}
	user, err := s.us.Authenticate(r.Context(), login, form.Password)
	if err != nil {
		returnError(w, r, err)
		return
	}
	pair, err := s.signIn(w, r, user)
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, loginResponse{User: user, TokenPair: pair}, "User logged in successfully.")
}

// handleLogout handles the route "POST /users/logout".
// It forgets the user's refresh token and clears both token cookies.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if err := s.us.SetRefreshToken(r.Context(), user.ID, ""); err != nil {
		returnError(w, r, err)
		return
	}
	s.clearCookie(w, accessCookie)
	s.clearCookie(w, refreshCookie)
	returnData(w, r, http.StatusOK, struct{}{}, "User logged out.")
}

// handleRefreshToken handles the route "POST /users/refresh-token".
// The refresh token comes from its cookie or the body. Both tokens are rotated.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var form struct {
		RefreshToken string `json:"refreshToken"`
	}
	if cookie, err := r.Cookie(refreshCookie); err == nil {
		form.RefreshToken = cookie.Value
	}
	if form.RefreshToken == "" {
		if err := bind(r, &form); err != nil {
			returnError(w, r, err)
			return
		}
	}
	if form.RefreshToken == "" {
		returnError(w, r, errUnauthorized)
		return
	}

	id, err := s.tokens.ParseRefresh(form.RefreshToken)
	if err != nil {
		returnError(w, r, err)
		return
	}
	user, err := s.us.ByRefreshToken(r.Context(), id, form.RefreshToken)
	if err != nil {
		returnError(w, r, err)
		return
	}
	pair, err := s.signIn(w, r, user)
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, pair, "Access token refreshed.")
}

// handleChangePassword handles the route "POST /users/change-password".
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var form struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := bind(r, &form); err != nil {
		returnError(w, r, err)
		return
	}
	user := auth.GetUser(r.Context())
	if err := s.us.ChangePassword(r.Context(), user.ID, form.OldPassword, form.NewPassword); err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, struct{}{}, "Password changed successfully.")
}

// handleCurrentUser handles the route "GET /users/current-user".
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	returnData(w, r, http.StatusOK, auth.GetUser(r.Context()), "Current user fetched successfully.")
}

// handleUpdateAccount handles the route "PATCH /users/update-account".
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var upd domain.UserUpdate
	if err := bind(r, &upd); err != nil {
		returnError(w, r, err)
		return
	}
	user, err := s.us.UpdateAccount(r.Context(), auth.UserID(r.Context()), upd)
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, user, "Account details updated successfully.")
}

// handleUpdateImage returns the handler of "PATCH /users/avatar" and "PATCH /users/cover-image".
// The new image is a multipart upload in the field, or a URI in the body.
func (s *Server) handleUpdateImage(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form struct {
			URI string `json:"uri"`
		}
		if err := bind(r, &form); err != nil {
			returnError(w, r, err)
			return
		}
		uri, err := s.upload(r, field, storage.KindImage, form.URI)
		if err != nil {
			returnError(w, r, err)
			return
		}
		if uri == "" {
			returnError(w, r, errs.Errorf(errs.EINVALID, "The %s file or uri is missing.", field))
			return
		}

		user := *auth.GetUser(r.Context())
		old := &user.CoverImage
		if field == "avatar" {
			old = &user.Avatar
		}
		previous := *old
		*old = uri
		if err := s.us.Update(r.Context(), &user); err != nil {
			s.removeMedia(r, uploaded(uri, form.URI))
			returnError(w, r, err)
			return
		}
		if previous != uri {
			s.removeMedia(r, previous)
		}
		returnData(w, r, http.StatusOK, &user, "Image updated successfully.")
	}
}

// uploaded returns uri if it came from an upload rather than from the body, "" otherwise.
func uploaded(uri, fromBody string) string {
	if uri == fromBody {
		return ""
	}
	return uri
}

// handleChannelProfile handles the route "GET /users/c/:username".
func (s *Server) handleChannelProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.us.ChannelProfile(r.Context(), mux.Vars(r)["username"], auth.UserID(r.Context()))
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, profile, "Channel fetched successfully.")
}

// handleWatchHistory handles the route "GET /users/history".
func (s *Server) handleWatchHistory(w http.ResponseWriter, r *http.Request) {
	video, err := s.us.WatchHistory(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, video, "Watch history fetched successfully.")
}

// signIn issues a new token pair, stores the refresh token's hash and sets both cookies.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, user *domain.User) (*auth.TokenPair, error) {
	pair, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	if err := s.us.SetRefreshToken(r.Context(), user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}
	s.setCookie(w, accessCookie, pair.AccessToken, s.tokens.AccessTTL)
	s.setCookie(w, refreshCookie, pair.RefreshToken, s.tokens.RefreshTTL)
	return pair, nil
}

func (s *Server) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
