package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"videotube/auth"
	"videotube/crud"
	"videotube/domain"
	"videotube/storage"
)

// Config holds the settings of the http layer.
type Config struct {
	// SecureCookies marks the token cookies as Secure. Set in production.
	SecureCookies bool
	// CORSOrigin is sent as Access-Control-Allow-Origin when not empty.
	CORSOrigin string
	// AuthRate and AuthBurst limit the requests per second and client IP on
	// the register, login and refresh routes. A zero AuthRate disables the limit.
	AuthRate  float64
	AuthBurst int
	// TrustedProxies are the IPs or CIDR ranges whose X-Forwarded-For header
	// names the client. Requests from anywhere else are keyed by their peer address.
	TrustedProxies []string
	// MediaDir is served under /media/ when not empty. Used with the local
	// storage driver.
	MediaDir string
}

// Server provides most of the http functionality of this app, namely routing,
// request handling, and middleware. It also performs authentication before
// handing things over to one of the crud services.
type Server struct {
	router *mux.Router
	cfg    Config

	us domain.UserService
	vs domain.VideoService
	ts domain.TweetService
	cs domain.CommentService
	ls domain.LikeService
	ps domain.PlaylistService
	ss domain.SubscriptionService
	ds domain.DashboardService

	ping    func() error
	tokens  *auth.Tokens
	media   *storage.MediaService
	limiter *ipRateLimiter
	proxies []netip.Prefix
	metrics *metrics
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the crud services passed in.
func NewServer(services *crud.Services, tokens *auth.Tokens, media *storage.MediaService, cfg Config) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		cfg:     cfg,
		us:      services.User,
		vs:      services.Video,
		ts:      services.Tweet,
		cs:      services.Comment,
		ls:      services.Like,
		ps:      services.Playlist,
		ss:      services.Subscription,
		ds:      services.Dashboard,
		ping:    services.Ping,
		tokens:  tokens,
		media:   media,
		limiter: newIPRateLimiter(rate.Limit(cfg.AuthRate), cfg.AuthBurst),
		proxies: parseProxies(cfg.TrustedProxies),
		metrics: newMetrics(),
	}

	s.router.NotFoundHandler = http.HandlerFunc(handleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	s.router.HandleFunc("/healthcheck", s.handleHealthcheck).Methods("GET")
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods("GET")
	if cfg.MediaDir != "" {
		s.router.PathPrefix("/media/").Handler(serveMedia(cfg.MediaDir)).Methods("GET", "HEAD")
	}

	// Register routes of the auth system.
	s.registerUserRoutes(s.router)

	// Register routes of the crud system.
	s.registerVideoRoutes(s.router)
	s.registerTweetRoutes(s.router)
	s.registerCommentRoutes(s.router)
	s.registerLikeRoutes(s.router)
	s.registerPlaylistRoutes(s.router)
	s.registerSubscriptionRoutes(s.router)
	s.registerDashboardRoutes(s.router)

	// Set up middleware that needs to run on every matched request.
	s.router.Use(s.instrument, s.cors, setContentTypeJSON, s.checkUser)
	return s
}

// Handler returns the root handler of the server, traced with OpenTelemetry.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "videotube")
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// The setContentTypeJSON middleware sets the content type to "application/json".
func setContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// serveMedia serves the files of dir. The file server picks the content type
// itself, so the one set by setContentTypeJSON is dropped.
func serveMedia(dir string) http.Handler {
	files := http.StripPrefix("/media/", http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Del("Content-Type")
		files.ServeHTTP(w, r)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.CORSOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		}
		next.ServeHTTP(w, r)
	})
}

// checkUser looks for an access token in the accessToken cookie or the
// Authorization header. If it is valid, the user is put into the request
// context. Requests without a valid token go on anonymously.
func (s *Server) checkUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := accessToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := s.tokens.ParseAccess(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByID(r.Context(), id)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

func accessToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// requireAuth rejects requests that checkUser did not find a user for.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			returnError(w, r, errUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if err := s.ping(); err != nil {
		returnError(w, r, err)
		return
	}
	returnData(w, r, http.StatusOK, map[string]string{"status": "ok"}, "Everything is fine.")
}
