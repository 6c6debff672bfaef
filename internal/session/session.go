// Package session implements sign-up, sign-in, sign-out and token
// authentication. Tokens are HS256 JWTs; each carries a session id that must
// still exist server-side, so signing out revokes the token immediately.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"wedding-invitation/internal/apperror"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
)

const issuer = "wedding-invitation"

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// Store is the subset of the record store the provider needs.
type Store interface {
	CreateUser(ctx context.Context, user *models.User, profile *models.UserProfile) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	CreateSession(ctx context.Context, sess *models.Session) error
	GetSession(ctx context.Context, id string, now time.Time) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Session is an issued token and the identity it stands for.
type Session struct {
	Token     string           `json:"access_token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *models.Identity `json:"user"`
}

type claims struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// Provider is the session provider.
type Provider struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
	log        zerolog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithBcryptCost overrides the password hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(p *Provider) { p.bcryptCost = cost }
}

// NewProvider creates a session provider signing tokens with secret.
func NewProvider(store Store, secret string, ttl time.Duration, log zerolog.Logger, opts ...Option) *Provider {
	p := &Provider{
		store:      store,
		secret:     []byte(secret),
		ttl:        ttl,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SignUp registers an account and signs it in.
func (p *Provider) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	email = normalizeEmail(email)
	if err := models.ValidateStruct(credentials{Email: email, Password: password}); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return nil, apperror.NewInternal("failed to hash password", err)
	}

	now := p.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	profile := &models.UserProfile{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if name := strings.TrimSpace(fullName); name != "" {
		profile.FullName = &name
	}

	if err := p.store.CreateUser(ctx, user, profile); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, apperror.ErrConflict.WithMessage("email already registered")
		}
		return nil, apperror.ErrTransport.WithInternal(err)
	}

	p.log.Info().Str("user_id", user.ID).Msg("account created")
	return p.issue(ctx, identity(user, profile))
}

// SignIn checks the credentials and issues a new session. Unknown emails and
// wrong passwords produce the same error.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	invalid := apperror.ErrUnauthorized.WithMessage("invalid email or password")

	user, err := p.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, invalid
		}
		return nil, apperror.ErrTransport.WithInternal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}

	profile, err := p.store.GetProfile(ctx, user.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.ErrTransport.WithInternal(err)
	}
	return p.issue(ctx, identity(user, profile))
}

// SignOut revokes the session behind token. Invalid or already revoked
// tokens are ignored.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	c, err := p.parse(token)
	if err != nil {
		return nil
	}
	if err := p.store.DeleteSession(ctx, c.ID); err != nil {
		return apperror.ErrTransport.WithInternal(err)
	}
	return nil
}

// Authenticate resolves a token to the identity it was issued for.
func (p *Provider) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, apperror.ErrUnauthorized
	}
	c, err := p.parse(token)
	if err != nil {
		return nil, apperror.ErrUnauthorized.WithMessage("invalid or expired session").WithInternal(err)
	}

	if _, err := p.store.GetSession(ctx, c.ID, p.now()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperror.ErrUnauthorized.WithMessage("session has ended")
		}
		return nil, apperror.ErrTransport.WithInternal(err)
	}

	return &models.Identity{ID: c.Subject, Email: c.Email, FullName: c.FullName}, nil
}

// Profile returns the display profile of the caller.
func (p *Provider) Profile(ctx context.Context, caller *models.Identity) (*models.UserProfile, error) {
	if caller == nil {
		return nil, apperror.ErrUnauthorized
	}
	profile, err := p.store.GetProfile(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperror.NewNotFound("profile")
		}
		return nil, apperror.ErrTransport.WithInternal(err)
	}
	return profile, nil
}

func (p *Provider) issue(ctx context.Context, who *models.Identity) (*Session, error) {
	now := p.now().UTC()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    who.ID,
		ExpiresAt: now.Add(p.ttl),
		CreatedAt: now,
	}
	if err := p.store.CreateSession(ctx, sess); err != nil {
		return nil, apperror.ErrTransport.WithInternal(err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:    who.Email,
		FullName: who.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   who.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return nil, apperror.NewInternal("failed to sign session token", err)
	}

	return &Session{Token: signed, ExpiresAt: sess.ExpiresAt, User: who}, nil
}

func (p *Provider) parse(token string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if c.ID == "" || c.Subject == "" {
		return nil, errors.New("token is missing session claims")
	}
	return &c, nil
}

func identity(user *models.User, profile *models.UserProfile) *models.Identity {
	who := &models.Identity{ID: user.ID, Email: user.Email}
	if profile != nil && profile.FullName != nil {
		who.FullName = *profile.FullName
	}
	return who
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
