package crud

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"videotube/domain"
	"videotube/errs"
	"videotube/query"
)

// UserService manages Users. It is the part of the authentication system that
// deals with the database: password hashing and checking, and storing the hash
// of the refresh token. Issuing tokens and cookies is left to the auth and http
// packages. It implements the domain.UserService interface.
type UserService struct {
	userValidator
}

// userValidator runs validations on incoming User data.
// On success, it passes the data on to userGorm.
// Otherwise, it returns the error of the validation that has failed.
type userValidator struct {
	hmac          HMAC
	pepper        string
	emailRegex    *regexp.Regexp
	usernameRegex *regexp.Regexp
	userGorm
}

// userGorm runs CRUD operations on the database using incoming User data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService.
func NewUserService(db *gorm.DB, pepper, hmacKey string) *UserService {
	return &UserService{
		userValidator{
			hmac:          NewHMAC(hmacKey),
			pepper:        pepper,
			emailRegex:    regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,16}$`),
			usernameRegex: regexp.MustCompile(`^[a-z0-9_.\-]{3,64}$`),
			userGorm: userGorm{
				db: db,
			},
		},
	}
}

// Ensure the UserService struct properly implements the domain.UserService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.UserService = &UserService{}

// Register runs validations needed for creating new User database records.
func (uv *userValidator) Register(ctx context.Context, user *domain.User) error {
	err := runUserValFns(ctx, user,
		uv.requiredFields,
		uv.usernameNormalize,
		uv.usernameFormat,
		uv.emailNormalize,
		uv.emailFormat,
		uv.identityIsAvail,
		uv.passwordMinLength,
		uv.passwordBcrypt)
	if err != nil {
		return err
	}
	return uv.userGorm.Create(ctx, user)
}

// Authenticate checks a submitted username or email address and password for existence and correctness.
func (uv *userValidator) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" || password == "" {
		return nil, errs.Errorf(errs.EINVALID, "Username or email and password are required.")
	}
	found, err := uv.userGorm.ByLogin(ctx, login)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "Invalid user credentials.")
	}
	if err != nil {
		return nil, err
	}

	// Append the pepper to the submitted password, hash it, and compare the result
	// to the password hash stored in the user's database record.
	err = bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password+uv.pepper))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, errs.Errorf(errs.EUNAUTHORIZED, "Invalid user credentials.")
		}
		return nil, err
	}
	return found, nil
}

// ByID retrieves a User database record by ID.
func (uv *userValidator) ByID(ctx context.Context, id string) (*domain.User, error) {
	if !domain.ValidID(id) {
		return nil, errs.IdInvalid
	}
	return uv.userGorm.ByID(ctx, id)
}

// Update runs validations needed for updating a User record in the database.
// It is used for media and watch state changes, so it never touches credentials.
func (uv *userValidator) Update(ctx context.Context, user *domain.User) error {
	err := runUserValFns(ctx, user,
		uv.idValid,
		uv.avatarRequired)
	if err != nil {
		return err
	}
	return uv.userGorm.Update(ctx, user)
}

// UpdateAccount changes the full name and email of a user.
func (uv *userValidator) UpdateAccount(ctx context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
	if upd.FullName == nil && upd.Email == nil {
		return nil, errs.Errorf(errs.EINVALID, "Full name or email is required.")
	}
	user, err := uv.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.FullName != nil {
		user.FullName = strings.TrimSpace(*upd.FullName)
		if user.FullName == "" {
			return nil, errs.Errorf(errs.EINVALID, "Full name must not be empty.")
		}
	}
	if upd.Email != nil {
		user.Email = *upd.Email
		err = runUserValFns(ctx, user,
			uv.emailNormalize,
			uv.emailRequired,
			uv.emailFormat,
			uv.identityIsAvail)
		if err != nil {
			return nil, err
		}
	}
	if err := uv.userGorm.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password of a user after checking the old one.
func (uv *userValidator) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	user, err := uv.ByID(ctx, id)
	if err != nil {
		return err
	}
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword+uv.pepper))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errs.Errorf(errs.EINVALID, "Invalid old password.")
		}
		return err
	}
	user.Password = newPassword
	err = runUserValFns(ctx, user,
		uv.passwordRequired,
		uv.passwordMinLength,
		uv.passwordBcrypt)
	if err != nil {
		return err
	}
	return uv.userGorm.UpdateColumn(ctx, user.ID, "password_hash", user.PasswordHash)
}

// SetRefreshToken stores the hash of token as the user's current refresh token.
// An empty token signs the user out everywhere.
func (uv *userValidator) SetRefreshToken(ctx context.Context, id, token string) error {
	if !domain.ValidID(id) {
		return errs.IdInvalid
	}
	hash := ""
	if token != "" {
		hash = uv.hmac.Hash(token)
	}
	return uv.userGorm.UpdateColumn(ctx, id, "refresh_token_hash", hash)
}

// ByRefreshToken returns the user with the given id if token is their current refresh token.
func (uv *userValidator) ByRefreshToken(ctx context.Context, id, token string) (*domain.User, error) {
	if token == "" || !domain.ValidID(id) {
		return nil, errs.TokenInvalid
	}
	user, err := uv.userGorm.ByID(ctx, id)
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			return nil, errs.TokenInvalid
		}
		return nil, err
	}
	if user.RefreshTokenHash == "" || !uv.hmac.Equal(token, user.RefreshTokenHash) {
		return nil, errs.TokenInvalid
	}
	return user, nil
}

// ChannelProfile returns the public profile of the user with the given username.
func (uv *userValidator) ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, errs.Errorf(errs.EINVALID, "Username is missing.")
	}
	return uv.userGorm.ChannelProfile(ctx, username, viewerID)
}

// WatchHistory returns the video the user is currently watching, or nil.
func (uv *userValidator) WatchHistory(ctx context.Context, id string) (*domain.VideoView, error) {
	user, err := uv.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.WatchingVideoID == nil {
		return nil, nil
	}
	return uv.userGorm.Watching(ctx, *user.WatchingVideoID)
}

// runUserValFns runs any number of functions of type userValFn on the passed in User object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runUserValFns(ctx context.Context, user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

// A userValFn is any function that takes in a pointer to a domain.User object and returns an error.
type userValFn func(ctx context.Context, user *domain.User) error

// requiredFields makes sure that none of the fields needed to register is empty.
func (uv *userValidator) requiredFields(_ context.Context, user *domain.User) error {
	for _, f := range []string{user.FullName, user.Email, user.Username, user.Password, user.Avatar} {
		if strings.TrimSpace(f) == "" {
			return errs.Errorf(errs.EINVALID, "All fields are required.")
		}
	}
	return nil
}

func (uv *userValidator) idValid(_ context.Context, user *domain.User) error {
	if !domain.ValidID(user.ID) {
		return errs.IdInvalid
	}
	return nil
}

func (uv *userValidator) avatarRequired(_ context.Context, user *domain.User) error {
	if user.Avatar == "" {
		return errs.Errorf(errs.EINVALID, "An avatar is required.")
	}
	return nil
}

// usernameNormalize converts the username to all lowercase and trims its whitespaces.
func (uv *userValidator) usernameNormalize(_ context.Context, user *domain.User) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	return nil
}

func (uv *userValidator) usernameFormat(_ context.Context, user *domain.User) error {
	if !uv.usernameRegex.MatchString(user.Username) {
		return errs.Errorf(errs.EINVALID, "The username may only contain letters, digits, '.', '_' and '-'.")
	}
	return nil
}

// emailNormalize converts the email to all lowercase and trims its whitespaces.
func (uv *userValidator) emailNormalize(_ context.Context, user *domain.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return nil
}

// emailRequired makes sure that the email is not the empty string.
func (uv *userValidator) emailRequired(_ context.Context, user *domain.User) error {
	if user.Email == "" {
		return errs.Errorf(errs.EINVALID, "An email address is required.")
	}
	return nil
}

// emailFormat makes sure that a provided email address matches a predefined regex pattern.
func (uv *userValidator) emailFormat(_ context.Context, user *domain.User) error {
	if !uv.emailRegex.MatchString(user.Email) {
		return errs.Errorf(errs.EINVALID, "The email address is invalid.")
	}
	return nil
}

// identityIsAvail makes sure that neither the username nor the email address
// belongs to another user.
func (uv *userValidator) identityIsAvail(ctx context.Context, user *domain.User) error {
	var existing domain.User
	err := uv.db.WithContext(ctx).
		Where("(username = ? OR email = ?) AND id <> ?", user.Username, user.Email, user.ID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return errs.Errorf(errs.ECONFLICT, "A user with this email or username already exists.")
}

// passwordRequired makes sure that the user's password is not the empty string.
func (uv *userValidator) passwordRequired(_ context.Context, user *domain.User) error {
	if user.Password == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

// passwordMinLength makes sure that the user's password is at least 8 characters long.
func (uv *userValidator) passwordMinLength(_ context.Context, user *domain.User) error {
	if utf8.RuneCountInString(user.Password) < 8 {
		return errs.Errorf(errs.EINVALID, "The password must have at least 8 characters.")
	}
	return nil
}

// passwordBcrypt hashes a user's password with a predefined pepper.
// It then clears the password on the user object in memory.
func (uv *userValidator) passwordBcrypt(_ context.Context, user *domain.User) error {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(user.Password+uv.pepper), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedBytes)
	user.Password = ""
	return nil
}

// ByID retrieves a User database record by ID.
func (ug *userGorm) ByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ByLogin retrieves a User database record by username or email.
func (ug *userGorm) ByLogin(ctx context.Context, login string) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).Where("username = ? OR email = ?", login, login).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create stores the data from the User object in a new database record.
func (ug *userGorm) Create(ctx context.Context, user *domain.User) error {
	return identityTaken(ug.db.WithContext(ctx).Create(user).Error)
}

// Update saves changes to an existing user record in the database.
func (ug *userGorm) Update(ctx context.Context, user *domain.User) error {
	return identityTaken(ug.db.WithContext(ctx).Save(user).Error)
}

// identityTaken reports a unique index violation on the username or email
// as a conflict. A concurrent write can slip past identityIsAvail.
func identityTaken(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Errorf(errs.ECONFLICT, "A user with this email or username already exists.")
	}
	return err
}

// UpdateColumn sets a single column of the user without touching the others.
func (ug *userGorm) UpdateColumn(ctx context.Context, id, column string, value interface{}) error {
	return ug.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update(column, value).Error
}

// ChannelProfile aggregates a user's channel profile in a single query.
func (ug *userGorm) ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	var profile domain.ChannelProfile
	found, err := query.From("users").
		Match("users.username = ?", username).
		Project("id", "username", "full_name", "email", "avatar", "cover_image", "created_at").
		Count("subscribers_count", subscriptionsOf("id")).
		Count("channels_subscribed_to_count",
			query.Relation{Table: "subscriptions", ForeignKey: "subscriber_id", LocalKey: "id"}).
		Contains("is_subscribed", subscriptionsOf("id"), "subscriber_id", viewerID).
		First(ctx, ug.db, &profile)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.Errorf(errs.ENOTFOUND, "The channel does not exist.")
	}
	return &profile, nil
}

// Watching returns the video with the given id and its owner, or nil if it is gone.
func (ug *userGorm) Watching(ctx context.Context, videoID string) (*domain.VideoView, error) {
	var row ownedVideoRow
	found, err := videoPipeline().Match("videos.id = ?", videoID).First(ctx, ug.db, &row)
	if err != nil || !found {
		return nil, err
	}
	view := row.view()
	return &view, nil
}

// HMAC hashes tokens with a secret key.
type HMAC struct {
	key []byte
}

// NewHMAC returns an HMAC keyed with key.
func NewHMAC(key string) HMAC {
	return HMAC{key: []byte(key)}
}

// Hash returns the base64 URL encoded HMAC-SHA256 of input.
func (h HMAC) Hash(input string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(input))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// Equal reports whether hash is the hash of input, in constant time.
func (h HMAC) Equal(input, hash string) bool {
	return hmac.Equal([]byte(h.Hash(input)), []byte(hash))
}
