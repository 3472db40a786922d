package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/videoportal/backend/internal/auth"
	"github.com/videoportal/backend/internal/logging"
	"github.com/videoportal/backend/internal/models"
	"github.com/videoportal/backend/internal/repositories"
)

const (
	// MinPasswordLength is the shortest password accepted at registration.
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
)

// unknownUserPassword is hashed once and compared against on logins for
// unknown emails so both failure paths pay for a bcrypt compare.
const unknownUserPassword = "unknown-user-placeholder"

var (
	// ErrEmailAlreadyRegistered indicates the email is bound to an existing account.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrInvalidCredentials is returned for both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound indicates the target user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidInput indicates malformed registration or profile data.
	ErrInvalidInput = errors.New("invalid account input")
)

// UserStore persists user records.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	ListByStatus(ctx context.Context, status string) ([]models.User, error)
	SetApproved(ctx context.Context, id string, at time.Time) error
	ToggleAdmin(ctx context.Context, id string, at time.Time) (models.User, error)
	UpdatePhoneNumber(ctx context.Context, id, phone string, at time.Time) (models.User, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer issues session tokens.
type TokenIssuer interface {
	Issue(subjectID string) (models.SessionToken, error)
}

// Notifier tells a user their account was approved.
type Notifier interface {
	NotifyApproved(ctx context.Context, email string) error
}

// Service implements registration, login and the admin approval workflow.
type Service struct {
	Users    UserStore
	Hasher   PasswordHasher
	Tokens   TokenIssuer
	Notifier Notifier
	NowFunc  func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NormalizeEmail trims and lower-cases an address. Uniqueness is decided on
// the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a pending account.
func (s *Service) Register(ctx context.Context, email, password, phone string) (models.User, error) {
	logger := logging.FromContext(ctx)

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return models.User{}, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return models.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return models.User{}, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, MaxPasswordLength)
	}

	if _, err := s.Users.FindByEmail(ctx, email); err == nil {
		logger.Warn("registration for existing account", "email", email)
		return models.User{}, ErrEmailAlreadyRegistered
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, fmt.Errorf("check existing account: %w", err)
	}

	hashed, err := s.Hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return models.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return models.User{}, err
	}

	now := s.now()
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		PhoneNumber:  strings.TrimSpace(phone),
		IsAdmin:      false,
		IsApproved:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, ErrEmailAlreadyRegistered
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	logger.Info("user registered", "userId", user.ID)
	return user, nil
}

// Login verifies credentials and issues a session token. Approval is not
// required to log in.
func (s *Service) Login(ctx context.Context, email, password string) (models.SessionToken, models.User, error) {
	logger := logging.FromContext(ctx)
	email = NormalizeEmail(email)

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("login for unknown email")
			s.Hasher.Verify(password, s.unknownUserHash())
			return models.SessionToken{}, models.User{}, ErrInvalidCredentials
		}
		return models.SessionToken{}, models.User{}, fmt.Errorf("load user: %w", err)
	}

	if !s.Hasher.Verify(password, user.PasswordHash) {
		logger.Warn("login password mismatch", "userId", user.ID)
		return models.SessionToken{}, models.User{}, ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return models.SessionToken{}, models.User{}, fmt.Errorf("issue session: %w", err)
	}

	return token, user, nil
}

// Profile returns the caller's own record.
func (s *Service) Profile(ctx context.Context, userID string) (models.User, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("load profile: %w", err)
	}
	return user, nil
}

// UpdateProfile replaces the caller's phone number.
func (s *Service) UpdateProfile(ctx context.Context, userID, phone string) (models.User, error) {
	phone = strings.TrimSpace(phone)
	if len(phone) > 32 {
		return models.User{}, fmt.Errorf("%w: phone number too long", ErrInvalidInput)
	}

	user, err := s.Users.UpdatePhoneNumber(ctx, userID, phone, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ListPending returns accounts awaiting approval.
func (s *Service) ListPending(ctx context.Context) ([]models.User, error) {
	return s.list(ctx, models.UserStatusPending)
}

// ListApproved returns approved non-admin accounts.
func (s *Service) ListApproved(ctx context.Context) ([]models.User, error) {
	return s.list(ctx, models.UserStatusApproved)
}

// ListAdmins returns admin accounts.
func (s *Service) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.list(ctx, models.UserStatusAdmin)
}

func (s *Service) list(ctx context.Context, status string) ([]models.User, error) {
	users, err := s.Users.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list %s users: %w", status, err)
	}
	return users, nil
}

// Approve marks a user approved and queues the approval email. Approving an
// already approved user succeeds. Notification problems never fail the call.
func (s *Service) Approve(ctx context.Context, userID string) error {
	logger := logging.FromContext(ctx)

	if err := s.Users.SetApproved(ctx, userID, s.now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("approve user: %w", err)
	}
	logger.Info("user approved", "userId", userID)

	if s.Notifier == nil {
		return nil
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		logger.Warn("approval notification skipped", "userId", userID, "error", err)
		return nil
	}
	if err := s.Notifier.NotifyApproved(ctx, user.Email); err != nil {
		logger.Warn("approval notification not queued", "userId", userID, "error", err)
	}
	return nil
}

// ToggleAdmin flips the target's admin flag. An admin may not toggle
// themselves. is_approved is left as is.
func (s *Service) ToggleAdmin(ctx context.Context, actor models.Identity, targetID string) (models.User, error) {
	if err := auth.RequireAdminNotSelf(actor, targetID); err != nil {
		return models.User{}, err
	}

	user, err := s.Users.ToggleAdmin(ctx, targetID, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("toggle admin: %w", err)
	}

	logging.FromContext(ctx).Info("admin status toggled", "actorId", actor.ID, "targetId", targetID, "isAdmin", user.IsAdmin)
	return user, nil
}

// EnsureAdmin creates an approved admin account for email, or promotes the
// existing account. It backs the create-admin command.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (models.User, bool, error) {
	email = NormalizeEmail(email)
	existing, err := s.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin {
			return existing, false, nil
		}
		if err := s.Users.SetApproved(ctx, existing.ID, s.now()); err != nil {
			return models.User{}, false, fmt.Errorf("approve existing user: %w", err)
		}
		promoted, err := s.Users.ToggleAdmin(ctx, existing.ID, s.now())
		if err != nil {
			return models.User{}, false, fmt.Errorf("promote existing user: %w", err)
		}
		return promoted, false, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return models.User{}, false, fmt.Errorf("check existing admin: %w", err)
	}

	user, err := s.Register(ctx, email, password, "")
	if err != nil {
		return models.User{}, false, err
	}
	if err := s.Users.SetApproved(ctx, user.ID, s.now()); err != nil {
		return models.User{}, false, fmt.Errorf("approve admin: %w", err)
	}
	admin, err := s.Users.ToggleAdmin(ctx, user.ID, s.now())
	if err != nil {
		return models.User{}, false, fmt.Errorf("promote admin: %w", err)
	}
	return admin, true, nil
}

func (s *Service) unknownUserHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.Hasher.Hash(unknownUserPassword)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
