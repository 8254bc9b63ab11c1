package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/account/repo"
	"github.com/Skotchmaster/storefront/internal/account/transport"
	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const DefaultAccessTTL = 24 * time.Hour

type AccountService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	AccessTTL time.Duration
	Now       func() time.Time
}

// Session is a signed access token for User.
type Session struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AccountService) session(u models.User) (*Session, error) {
	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	exp := s.now().Add(ttl)
	token, err := tokens.SignAccessToken(s.JWTSecret, u.ID.String(), u.Role, u.Email, exp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &Session{User: u, Token: token, ExpiresAt: exp}, nil
}

// Register creates a CUSTOMER account and signs it in.
func (s *AccountService) Register(ctx context.Context, req transport.RegisterRequest) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "account.register")

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidRequest, err)
	}

	pw, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{Email: req.Email, Name: req.Name, PasswordHash: pw, Role: models.RoleCustomer}
	if err := s.Repo.Create(ctx, &u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	l.Info("register_success", "user_id", u.ID)
	return s.session(u)
}

// Login checks the password. Unknown email and wrong password fail the
// same way.
func (s *AccountService) Login(ctx context.Context, req transport.LoginRequest) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "account.login")

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidRequest, err)
	}

	u, err := s.Repo.ByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "reason", "unknown email")
			return nil, fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)
		}
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, req.Password) {
		l.Warn("login_failed", "reason", "wrong password", "user_id", u.ID)
		return nil, fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)
	}

	return s.session(*u)
}

func (s *AccountService) Me(ctx context.Context, who identity.Identity) (*models.User, error) {
	if !who.Valid() {
		return nil, apperr.ErrUnauthorized
	}
	u, err := s.Repo.ByID(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	return u, nil
}
