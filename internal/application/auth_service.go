package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/internal/domain/repository"
	"github.com/sikshyalaya/backend/pkg/helpers"
	"github.com/sikshyalaya/backend/pkg/mailer"
	"github.com/sikshyalaya/backend/pkg/mailer/templates"
)

// TokenPair bundles the issued tokens with their expiries so callers can set
// cookie max-age from the same instants the tokens were signed with.
type TokenPair struct {
	Access     string
	AccessExp  time.Time
	Refresh    string
	RefreshExp time.Time
}

// AuthService implements the account lifecycle: registration, email
// verification, login with lockout, token refresh and logout.
type AuthService struct {
	users    repository.UserRepository
	tokens   repository.RefreshTokenRepository
	jwt      *helpers.JWTManager
	emails   Publisher
	logger   *logrus.Logger
	appName  string
	codeTTL  time.Duration
	maxFails int
	lockFor  time.Duration

	now func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	jwt *helpers.JWTManager,
	emails Publisher,
	logger *logrus.Logger,
	appName string,
	codeTTL time.Duration,
	maxFails int,
	lockFor time.Duration,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		jwt:      jwt,
		emails:   emails,
		logger:   logger,
		appName:  appName,
		codeTTL:  codeTTL,
		maxFails: maxFails,
		lockFor:  lockFor,
		now:      time.Now,
	}
}

// Register creates an unverified account and enqueues the verification email.
// If the email cannot be enqueued the account is rolled back so the user can
// retry registration instead of being stuck with an unverifiable account.
func (s *AuthService) Register(ctx context.Context, fullName, email, role, password string) (*entity.User, error) {
	if role == "" {
		role = entity.RoleUser
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	code, err := helpers.GenVerificationCode()
	if err != nil {
		return nil, err
	}

	now := s.now()
	exp := now.Add(s.codeTTL)
	u := &entity.User{
		ID:                uuid.NewString(),
		FullName:          fullName,
		Email:             email,
		Password:          hash,
		Role:              role,
		VerificationCode:  code,
		CodeExpiresAt:     &exp,
		EnrolledCourseIDs: []string{},
		PremiumCourseIDs:  []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.sendVerificationEmail(ctx, u, code); err != nil {
		s.logger.WithError(err).WithField("email", email).Error("verification email enqueue failed, rolling back registration")
		if delErr := s.users.Delete(ctx, u.ID); delErr != nil {
			s.logger.WithError(delErr).WithField("user_id", u.ID).Error("registration rollback failed")
		}
		return nil, err
	}
	return u, nil
}

// VerifyEmail consumes the 6-digit code. The expiry boundary is strict: a
// code presented at exactly its expiry instant is rejected. On success an
// access token is issued immediately so the frontend can start a session
// without a separate login round trip.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*entity.User, string, time.Time, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, ErrUserNotFound
		}
		return nil, "", time.Time{}, err
	}
	if u.IsVerified {
		return nil, "", time.Time{}, ErrAlreadyVerified
	}
	if !u.CodeValid(code, s.now()) {
		return nil, "", time.Time{}, ErrInvalidCode
	}

	u.IsVerified = true
	u.VerificationCode = ""
	u.CodeExpiresAt = nil
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, "", time.Time{}, err
	}

	access, aexp, err := s.jwt.GenerateAccessToken(u.ID, u.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return u, access, aexp, nil
}

// ResendVerificationCode replaces the stored code with a fresh one, restarting
// the expiry window.
func (s *AuthService) ResendVerificationCode(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.IsVerified {
		return ErrAlreadyVerified
	}

	code, err := helpers.GenVerificationCode()
	if err != nil {
		return err
	}
	exp := s.now().Add(s.codeTTL)
	u.VerificationCode = code
	u.CodeExpiresAt = &exp
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	return s.sendVerificationEmail(ctx, u, code)
}

// Login authenticates the user, tracking failed attempts. Once the failure
// count exceeds the limit the account locks for the configured window; every
// login attempt during that window is rejected without checking the password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, *TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	now := s.now()
	if u.IsLocked(now) {
		return nil, nil, ErrAccountLocked
	}
	if !u.IsVerified {
		return nil, nil, ErrNotVerified
	}

	if !helpers.CompareHashAndPassword(u.Password, password) {
		u.LoginAttempts++
		if u.LoginAttempts > s.maxFails {
			lockUntil := now.Add(s.lockFor)
			u.LockUntil = &lockUntil
			s.logger.WithField("email", email).Warn("account locked after repeated login failures")
		}
		u.UpdatedAt = now
		if updErr := s.users.Update(ctx, u); updErr != nil {
			s.logger.WithError(updErr).WithField("email", email).Error("failed to persist login attempt counter")
		}
		// The locking attempt itself still reads as bad credentials; 423
		// starts with the next attempt inside the window.
		return nil, nil, ErrInvalidCredentials
	}

	if u.LoginAttempts != 0 || u.LockUntil != nil {
		u.LoginAttempts = 0
		u.LockUntil = nil
		u.UpdatedAt = now
		if err := s.users.Update(ctx, u); err != nil {
			return nil, nil, err
		}
	}

	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Refresh exchanges a stored refresh token for a fresh access token. The
// refresh token itself is not rotated, so concurrent tabs sharing the cookie
// keep working; revocation happens only through logout or the expiry purge.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*entity.User, string, time.Time, error) {
	stored, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, ErrRefreshNotFound
		}
		return nil, "", time.Time{}, err
	}

	claims, err := s.jwt.ParseToken(refreshToken)
	if err != nil {
		return nil, "", time.Time{}, ErrInvalidRefresh
	}
	if !stored.ExpiresAt.After(s.now()) {
		_ = s.tokens.DeleteByToken(ctx, refreshToken)
		return nil, "", time.Time{}, ErrInvalidRefresh
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, ErrInvalidRefresh
		}
		return nil, "", time.Time{}, err
	}

	access, aexp, err := s.jwt.GenerateAccessToken(u.ID, u.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return u, access, aexp, nil
}

// GetUser loads the account for the authenticated caller.
func (s *AuthService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Logout revokes the refresh token. Revoking an unknown token succeeds so
// logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.DeleteByToken(ctx, refreshToken)
}

func (s *AuthService) issueTokens(ctx context.Context, u *entity.User) (*TokenPair, error) {
	access, aexp, err := s.jwt.GenerateAccessToken(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, rexp, err := s.jwt.GenerateRefreshToken(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, &entity.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Token:     refresh,
		CreatedAt: s.now(),
		ExpiresAt: rexp,
	}); err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, AccessExp: aexp, Refresh: refresh, RefreshExp: rexp}, nil
}

func (s *AuthService) sendVerificationEmail(ctx context.Context, u *entity.User, code string) error {
	data := templates.EmailData{
		Name:          u.FullName,
		Email:         u.Email,
		AppName:       s.appName,
		Code:          code,
		ExpiresInText: formatTTL(s.codeTTL),
	}
	return s.emails.PublishJSON(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: templates.VerificationCode,
		Data:     templates.ToMap(data),
	})
}

func formatTTL(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
