// Package auth registers users and issues session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gi8lino/ricefwboard/internal/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// InputError is a rejected signup field. It matches ErrInvalidInput.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// Is reports target == ErrInvalidInput.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// Users is the persistence the service needs.
type Users interface {
	CreateUser(ctx context.Context, u *store.User) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindActiveByUsername(ctx context.Context, username string) (store.User, error)
	FindByValidToken(ctx context.Context, token string, now time.Time) (store.User, error)
	StartSession(ctx context.Context, userID int64, token string, expiry, now time.Time) error
	EndSession(ctx context.Context, token string) error
	UpdateAtlassianDomain(ctx context.Context, userID int64, domain string) error
}

// SignupInput is a registration request.
type SignupInput struct {
	Username        string
	Email           string
	Password        string
	JiraToken       string
	AtlassianDomain string
}

// Service implements signup, login, logout and token lookup.
type Service struct {
	users Users
	ttl   time.Duration
	cost  int
	now   func() time.Time
	token func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBcryptCost sets the bcrypt cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService returns a service issuing tokens valid for ttl.
func NewService(users Users, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		users: users,
		ttl:   ttl,
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
		token: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup validates and stores a new user, then starts a session for it.
func (s *Service) Signup(ctx context.Context, in SignupInput) (store.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.AtlassianDomain = strings.TrimSpace(in.AtlassianDomain)

	switch {
	case in.Username == "":
		return store.User{}, &InputError{Message: "Username is required"}
	case in.Email == "":
		return store.User{}, &InputError{Message: "Email is required"}
	case !strings.Contains(in.Email, "@"):
		return store.User{}, &InputError{Message: "Email must be valid"}
	case in.Password == "":
		return store.User{}, &InputError{Message: "Password is required"}
	}

	if taken, err := s.users.ExistsByUsername(ctx, in.Username); err != nil {
		return store.User{}, err
	} else if taken {
		return store.User{}, ErrUsernameTaken
	}
	if taken, err := s.users.ExistsByEmail(ctx, in.Email); err != nil {
		return store.User{}, err
	} else if taken {
		return store.User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := store.User{
		Username:        in.Username,
		Email:           in.Email,
		PasswordHash:    string(hash),
		JiraToken:       strings.TrimSpace(in.JiraToken),
		AtlassianDomain: in.AtlassianDomain,
		Active:          true,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			return store.User{}, ErrUsernameTaken
		case errors.Is(err, store.ErrEmailTaken):
			return store.User{}, ErrEmailTaken
		}
		return store.User{}, err
	}
	return s.startSession(ctx, u)
}

// Login checks the credentials and rotates the session token.
func (s *Service) Login(ctx context.Context, username, password string) (store.User, error) {
	u, err := s.users.FindActiveByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return s.startSession(ctx, u)
}

// Logout invalidates token.
func (s *Service) Logout(ctx context.Context, token string) error {
	err := s.users.EndSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidToken
	}
	return err
}

// UserByToken returns the user of a valid, unexpired token.
func (s *Service) UserByToken(ctx context.Context, token string) (store.User, error) {
	u, err := s.users.FindByValidToken(ctx, token, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrInvalidToken
	}
	return u, err
}

// RememberDomain stores the Atlassian site last used by a user.
func (s *Service) RememberDomain(ctx context.Context, u store.User, domain string) error {
	if domain == "" || domain == u.AtlassianDomain {
		return nil
	}
	return s.users.UpdateAtlassianDomain(ctx, u.ID, domain)
}

func (s *Service) startSession(ctx context.Context, u store.User) (store.User, error) {
	now := s.now().UTC()
	token := s.token()
	expiry := now.Add(s.ttl)
	if err := s.users.StartSession(ctx, u.ID, token, expiry, now); err != nil {
		return store.User{}, err
	}
	u.SessionToken = token
	u.TokenExpiry = expiry
	u.LastLogin = now
	return u, nil
}
