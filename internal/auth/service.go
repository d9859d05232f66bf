package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"universe/internal/apperr"
	"universe/internal/crypto"
	"universe/internal/db"
	"universe/internal/metrics"
	"universe/internal/model"
	"universe/internal/notify"
	"universe/internal/repository"
)

type Options struct {
	SessionTTL    time.Duration
	EmailTokenTTL time.Duration
	BcryptCost    int
}

type Service struct {
	store     *repository.Store
	limiter   *Limiter
	publisher notify.Publisher
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
	opts      Options
	now       func() time.Time
	pending   sync.WaitGroup
}

func NewService(store *repository.Store, limiter *Limiter, publisher notify.Publisher, m *metrics.Metrics, log logrus.FieldLogger, opts Options) *Service {
	if publisher == nil {
		publisher = notify.Noop{}
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	if opts.EmailTokenTTL <= 0 {
		opts.EmailTokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = crypto.DefaultCost
	}
	return &Service{
		store:     store,
		limiter:   limiter,
		publisher: publisher,
		metrics:   m,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

type RegisterResult struct {
	UserID     int64
	EmailToken string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	profile, err := in.Validate()
	if err != nil {
		return RegisterResult{}, err
	}

	hash, err := crypto.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return RegisterResult{}, apperr.Internal("Internal server error", fmt.Errorf("hash password: %w", err))
	}
	token, err := crypto.NewToken()
	if err != nil {
		return RegisterResult{}, apperr.Internal("Internal server error", fmt.Errorf("email token: %w", err))
	}
	expiresAt := s.now().Add(s.opts.EmailTokenTTL)

	var userID int64
	err = s.store.WithTx(ctx, func(q *repository.Queries) error {
		exists, err := q.EmailExists(ctx, in.Email)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("Email already registered")
		}
		userID, err = q.CreateUser(ctx, in.Email, hash, profile.ProfileRole())
		if err != nil {
			return err
		}
		if err := q.CreateProfile(ctx, userID, in.Email, profile); err != nil {
			return err
		}
		return q.CreateEmailToken(ctx, userID, token, expiresAt)
	})
	if err != nil {
		switch {
		case apperr.From(err) != nil:
			return RegisterResult{}, err
		case db.IsUniqueViolation(err, "users_email_key"):
			return RegisterResult{}, apperr.Conflict("Email already registered")
		case db.IsUniqueViolation(err, "students_student_number_key"):
			return RegisterResult{}, apperr.Conflict("Student number already registered")
		}
		return RegisterResult{}, apperr.Internal("Registration failed", fmt.Errorf("register: %w", err))
	}

	s.metrics.Registration(string(profile.ProfileRole()))
	s.publishVerifyEmail(ctx, notify.VerifyEmailEvent{
		UserID: userID, Email: in.Email, Token: token, ExpiresAt: expiresAt,
	})
	return RegisterResult{UserID: userID, EmailToken: token}, nil
}

type LoginResult struct {
	SessionToken string
	ExpiresAt    time.Time
	UserID       int64
}

var errInvalidCredentials = apperr.Unauthorized("Invalid email or password")

func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if err := in.Validate(); err != nil {
		return LoginResult{}, err
	}
	log := s.log.WithField("email", in.Email)

	locked, err := s.limiter.Locked(ctx, in.Email)
	if err != nil {
		log.WithError(err).Warn("login limiter unavailable")
	}
	if locked {
		s.metrics.Login("locked")
		return LoginResult{}, apperr.TooManyRequests("Too many login attempts, try again later")
	}

	user, err := s.store.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		s.recordFailure(ctx, log, in.Email)
		return LoginResult{}, errInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, apperr.Internal("Login failed", fmt.Errorf("load user: %w", err))
	}
	if !user.IsActive {
		s.metrics.Login("deactivated")
		return LoginResult{}, apperr.Forbidden("Account is deactivated")
	}
	if err := crypto.CheckPassword(user.PasswordHash, in.Password); err != nil {
		s.recordFailure(ctx, log, in.Email)
		return LoginResult{}, errInvalidCredentials
	}

	token, err := crypto.NewToken()
	if err != nil {
		return LoginResult{}, apperr.Internal("Login failed", fmt.Errorf("session token: %w", err))
	}
	session, err := s.store.CreateSession(ctx, user.ID, token, s.now().Add(s.opts.SessionTTL))
	if err != nil {
		return LoginResult{}, apperr.Internal("Login failed", fmt.Errorf("create session: %w", err))
	}

	if err := s.limiter.Reset(ctx, in.Email); err != nil {
		log.WithError(err).Warn("reset login failures")
	}
	s.metrics.Login("success")
	return LoginResult{SessionToken: token, ExpiresAt: session.ExpiresAt, UserID: user.ID}, nil
}

func (s *Service) recordFailure(ctx context.Context, log logrus.FieldLogger, email string) {
	s.metrics.Login("invalid_credentials")
	if err := s.limiter.Fail(ctx, email); err != nil {
		log.WithError(err).Warn("record login failure")
	}
}

// Logout deletes the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if _, err := s.store.DeleteSession(ctx, token); err != nil {
		return apperr.Internal("Logout failed", fmt.Errorf("delete session: %w", err))
	}
	return nil
}

// ResolveSession maps a bearer token to its identity. It returns an
// Unauthorized error for unknown or expired sessions and an Internal error
// when the lookup itself fails.
func (s *Service) ResolveSession(ctx context.Context, token string) (model.Identity, error) {
	identity, err := s.store.ResolveSession(ctx, token)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Identity{}, apperr.Unauthorized("Unauthorized: Invalid or expired session")
	}
	if err != nil {
		return model.Identity{}, apperr.Internal("Internal server error", fmt.Errorf("resolve session: %w", err))
	}
	return identity, nil
}

func (s *Service) VerifyEmail(ctx context.Context, in VerifyEmailInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	token, err := s.store.GetEmailToken(ctx, in.Token)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("Invalid verification token")
	}
	if err != nil {
		return apperr.Internal("Email verification failed", fmt.Errorf("load email token: %w", err))
	}
	if token.IsUsed {
		return apperr.BadRequest("Token already used")
	}
	if s.now().After(token.ExpiresAt) {
		return apperr.BadRequest("Token expired")
	}

	err = s.store.WithTx(ctx, func(q *repository.Queries) error {
		consumed, err := q.ConsumeEmailToken(ctx, token.ID)
		if err != nil {
			return err
		}
		if !consumed {
			return apperr.BadRequest("Token already used")
		}
		return q.MarkEmailVerified(ctx, token.UserID)
	})
	if err != nil {
		if apperr.From(err) != nil {
			return err
		}
		return apperr.Internal("Email verification failed", fmt.Errorf("verify email: %w", err))
	}
	return nil
}

// ResendVerification replaces any outstanding token with a fresh one.
func (s *Service) ResendVerification(ctx context.Context, userID int64) (string, error) {
	user, err := s.store.GetActiveUser(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.NotFound("User not found")
	}
	if err != nil {
		return "", apperr.Internal("Internal server error", fmt.Errorf("load user: %w", err))
	}
	if user.IsEmailVerified {
		return "", apperr.BadRequest("Email already verified")
	}

	token, err := crypto.NewToken()
	if err != nil {
		return "", apperr.Internal("Internal server error", fmt.Errorf("email token: %w", err))
	}
	expiresAt := s.now().Add(s.opts.EmailTokenTTL)
	err = s.store.WithTx(ctx, func(q *repository.Queries) error {
		if err := q.InvalidateEmailTokens(ctx, userID); err != nil {
			return err
		}
		return q.CreateEmailToken(ctx, userID, token, expiresAt)
	})
	if err != nil {
		return "", apperr.Internal("Internal server error", fmt.Errorf("resend verification: %w", err))
	}

	s.publishVerifyEmail(ctx, notify.VerifyEmailEvent{
		UserID: userID, Email: user.Email, Token: token, ExpiresAt: expiresAt,
	})
	return token, nil
}

type CurrentUser struct {
	UserID          int64         `json:"userId"`
	Email           string        `json:"email"`
	Role            model.Role    `json:"role"`
	IsEmailVerified bool          `json:"isEmailVerified"`
	ProfileImageURL *string       `json:"profileImageUrl,omitempty"`
	Profile         model.Profile `json:"profile,omitempty"`
}

// CurrentUser returns the account and its role profile. A role without a
// profile table yields a nil Profile rather than an error.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (CurrentUser, error) {
	user, err := s.store.GetActiveUser(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return CurrentUser{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return CurrentUser{}, apperr.Internal("Internal server error", fmt.Errorf("load user: %w", err))
	}

	profile, err := s.store.GetProfile(ctx, user.ID, user.Role)
	if err != nil {
		return CurrentUser{}, apperr.Internal("Internal server error", fmt.Errorf("load profile: %w", err))
	}
	if profile == nil {
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Warn("no profile for user")
	}

	return CurrentUser{
		UserID:          user.ID,
		Email:           user.Email,
		Role:            user.Role,
		IsEmailVerified: user.IsEmailVerified,
		ProfileImageURL: user.ProfileImageURL,
		Profile:         profile,
	}, nil
}

// publishVerifyEmail hands the event to the publisher in the background so
// a slow broker never holds up the HTTP response.
func (s *Service) publishVerifyEmail(ctx context.Context, event notify.VerifyEmailEvent) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.publisher.PublishVerifyEmail(ctx, event); err != nil {
			s.log.WithError(err).WithField("user_id", event.UserID).Error("publish verify email event")
		}
	}()
}

// Wait blocks until every queued verification event has been handed off.
func (s *Service) Wait() {
	s.pending.Wait()
}

// CleanupExpired removes expired sessions and stale verification tokens.
func (s *Service) CleanupExpired(ctx context.Context, tokenRetention time.Duration) (sessions, tokens int64, err error) {
	sessions, err = s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	tokens, err = s.store.DeleteStaleEmailTokens(ctx, tokenRetention)
	if err != nil {
		return sessions, 0, fmt.Errorf("delete stale email tokens: %w", err)
	}
	s.metrics.SessionsSwept(sessions)
	return sessions, tokens, nil
}

// SetUserActive enables or disables an account. Disabling takes effect on
// the next request because session lookups require an active user.
func (s *Service) SetUserActive(ctx context.Context, userID int64, active bool) error {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return apperr.Internal("Internal server error", fmt.Errorf("load user: %w", err))
	}
	if !exists {
		return apperr.NotFound("User not found")
	}
	if err := s.store.SetUserActive(ctx, userID, active); err != nil {
		return apperr.Internal("Internal server error", fmt.Errorf("set user active: %w", err))
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "active": active}).Info("user activation changed")
	return nil
}
