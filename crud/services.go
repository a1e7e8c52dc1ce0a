package crud

import (
	"gorm.io/gorm"

	"videotube/events"
)

// A ServicesConfig is any function that takes in a pointer to a Services
// object and returns an error. It's basically just wrapping the constructor
// method of any given crud service. It exists to be able to easily create
// the crud services using functional options in main.go.
type ServicesConfig func(*Services) error

// Services is a container object holding pointers to all the crud services.
// The crud services all share the database connection and the event
// publisher provided by Services.
type Services struct {
	db           *gorm.DB
	events       events.Publisher
	User         *UserService
	Video        *VideoService
	Tweet        *TweetService
	Comment      *CommentService
	Like         *LikeService
	Playlist     *PlaylistService
	Subscription *SubscriptionService
	Dashboard    *DashboardService
}

// NewServices returns a new Services object, containing any crud services
// it's told to create by one of the passed in ServicesConfig functions.
// It shares the passed in database connection with any crud service it creates.
func NewServices(db *gorm.DB, cfgs ...ServicesConfig) (*Services, error) {
	s := Services{
		db:     db,
		events: events.Nop{},
	}
	for _, cfg := range cfgs {
		if err := cfg(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// WithEvents sets the publisher of the services created after it.
func WithEvents(pub events.Publisher) ServicesConfig {
	return func(s *Services) error {
		s.events = pub
		return nil
	}
}

// WithUser wraps the constructor of UserService, NewUserService.
func WithUser(pepper, hmacKey string) ServicesConfig {
	return func(s *Services) error {
		s.User = NewUserService(s.db, pepper, hmacKey)
		return nil
	}
}

// WithVideo wraps the constructor of VideoService, NewVideoService.
func WithVideo() ServicesConfig {
	return func(s *Services) error {
		s.Video = NewVideoService(s.db, s.events)
		return nil
	}
}

// WithTweet wraps the constructor of TweetService, NewTweetService.
func WithTweet() ServicesConfig {
	return func(s *Services) error {
		s.Tweet = NewTweetService(s.db)
		return nil
	}
}

// WithComment wraps the constructor of CommentService, NewCommentService.
func WithComment() ServicesConfig {
	return func(s *Services) error {
		s.Comment = NewCommentService(s.db)
		return nil
	}
}

// WithLike wraps the constructor of LikeService, NewLikeService.
func WithLike() ServicesConfig {
	return func(s *Services) error {
		s.Like = NewLikeService(s.db, s.events)
		return nil
	}
}

// WithPlaylist wraps the constructor of PlaylistService, NewPlaylistService.
func WithPlaylist() ServicesConfig {
	return func(s *Services) error {
		s.Playlist = NewPlaylistService(s.db)
		return nil
	}
}

// WithSubscription wraps the constructor of SubscriptionService, NewSubscriptionService.
func WithSubscription() ServicesConfig {
	return func(s *Services) error {
		s.Subscription = NewSubscriptionService(s.db, s.events)
		return nil
	}
}

// WithDashboard wraps the constructor of DashboardService, NewDashboardService.
// cache may be nil.
func WithDashboard(cache StatsCache) ServicesConfig {
	return func(s *Services) error {
		s.Dashboard = NewDashboardService(s.db, cache)
		return nil
	}
}

// Ping checks that the database can be reached.
func (s *Services) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
