package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Search page bounds.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Registration is the payload of POST /api/auth/register.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// UserService encapsulates the business logic for accounts and profiles.
type UserService struct {
	repo      UserStore
	posts     PostStore
	friends   FriendStore
	directory *Directory
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserStore, posts PostStore, friends FriendStore, directory *Directory) *UserService {
	return &UserService{
		repo:      repo,
		posts:     posts,
		friends:   friends,
		directory: directory,
	}
}

// RegisterUser validates reg, hashes the password and stores the account.
func (s *UserService) RegisterUser(ctx context.Context, reg Registration) (*models.User, error) {
	logrus.Info("Registering new user")

	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))

	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		logrus.Warn("Missing required fields during registration")
		return nil, invalid("Username, email and password are required")
	}
	if !emailRegex.MatchString(reg.Email) {
		logrus.WithField("email", reg.Email).Warn("Invalid email format during registration")
		return nil, invalid("Invalid email format")
	}
	if len(reg.Password) < MinPasswordLength {
		return nil, invalid("Password must be at least %d characters", MinPasswordLength)
	}

	if _, err := s.repo.GetUserByEmail(ctx, reg.Email); err == nil {
		logrus.WithField("email", reg.Email).Warn("Email already in use")
		return nil, conflict("Email already in use")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetUserByUsername(ctx, reg.Username); err == nil {
		return nil, conflict("Username already taken")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:       reg.Username,
		Email:          reg.Email,
		HashedPassword: string(hashedPwd),
		FirstName:      strings.TrimSpace(reg.FirstName),
		LastName:       strings.TrimSpace(reg.LastName),
		Interests:      []string{},
		Role:           "user",
	}

	created, err := s.repo.CreateUser(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, conflict("Email or username already in use")
	}
	if err != nil {
		logrus.WithError(err).Error("User registration failed")
		return nil, err
	}

	logrus.WithField("userID", created.ID.Hex()).Info("User registered successfully")
	return created, nil
}

// AuthenticateUser verifies the email and password and returns the user if
// the credentials are valid.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logrus.WithField("email", email).Info("Authenticating user")

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		logrus.WithField("email", email).Warn("User not found")
		return nil, unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logrus.WithField("email", email).Warn("Invalid credentials")
		return nil, unauthorized("Invalid credentials")
	}

	if err := s.repo.UpdateLastActive(ctx, user.ID); err != nil {
		logrus.WithError(err).Warn("Failed to stamp last activity on login")
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return user, nil
}

// GetUser retrieves a user by their ID.
func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetProfile returns the public profile of username with its counters.
func (s *UserService) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	postCount, err := s.posts.CountByAuthor(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	friends, err := s.friends.GetAccepted(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count friends: %w", err)
	}

	return &models.Profile{
		UserSummary: s.directory.Summary(user),
		PostCount:   postCount,
		FriendCount: len(friends),
	}, nil
}

// UpdateProfile applies a partial update to the user's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	if update.Interests != nil {
		normalized := NormalizeInterests(*update.Interests)
		update.Interests = &normalized
	}
	if update.FirstName != nil {
		v := strings.TrimSpace(*update.FirstName)
		update.FirstName = &v
	}
	if update.LastName != nil {
		v := strings.TrimSpace(*update.LastName)
		update.LastName = &v
	}

	user, err := s.repo.UpdateProfile(ctx, id, update)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetProfilePicture records path, relative to the public base URL, as the
// user's picture.
func (s *UserService) SetProfilePicture(ctx context.Context, id primitive.ObjectID, path string) (*models.User, error) {
	if !s.directory.ValidImage(path) {
		return nil, invalid("Invalid image path")
	}
	user, err := s.repo.SetProfilePicture(ctx, id, path)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	logrus.WithField("userID", id.Hex()).Info("Profile picture updated")
	return user, nil
}

// SearchUsers returns one page of users whose username or names contain query.
func (s *UserService) SearchUsers(ctx context.Context, query string, page, limit int) (*models.Page[models.UserSummary], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("Search query is required")
	}
	page, limit = ClampPage(page, limit, DefaultSearchLimit, MaxSearchLimit)

	users, total, err := s.repo.SearchUsers(ctx, query, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, len(users))
	for i := range users {
		out[i] = s.directory.Summary(&users[i])
	}
	return &models.Page[models.UserSummary]{
		Items:      out,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// UpdateLastActive stamps the user's activity. It backs the last-active
// middleware.
func (s *UserService) UpdateLastActive(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.UpdateLastActive(ctx, id)
}
