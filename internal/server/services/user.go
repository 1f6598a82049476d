// Package services contains server-side business logic. This file implements
// UserService: registration, login with lockout, profile maintenance and
// session resolution for the HTTP middleware.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codesleeps/palmers/internal/common"
	"github.com/codesleeps/palmers/internal/logging"
	"github.com/codesleeps/palmers/internal/server/auth"
	"github.com/codesleeps/palmers/internal/server/config"
	"github.com/codesleeps/palmers/internal/server/lockout"
	"github.com/codesleeps/palmers/internal/server/models"
	"github.com/codesleeps/palmers/internal/server/repositories/repomanager"
)

const maxNameLength = 100

// timingPassword is hashed once at construction so that a login for an
// unknown email pays the same bcrypt cost as one for a known email.
const timingPassword = "palmers-unknown-account"

// PasswordHasher hashes and checks passwords. *auth.PasswordHasher is the
// production implementation.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

// RegisterInput is the data a new account is created from.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *models.User
	Token string
}

// UserService owns credentials: it hashes and checks passwords, issues
// tokens and resolves them back to live identities.
type UserService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	hasher       PasswordHasher
	dummyDigest  string
	tokens       *auth.TokenCodec
	lockouts     lockout.Store
	logger       logging.Logger
	threshold    int
	window       time.Duration
	storeTimeout time.Duration
	now          func() time.Time
}

// NewUserService constructs a UserService from its collaborators and the
// lockout and timeout settings in cfg.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher,
	tokens *auth.TokenCodec, lockouts lockout.Store, cfg *config.Config, logger logging.Logger) *UserService {
	s := &UserService{
		db:           db,
		repomanager:  m,
		hasher:       hasher,
		tokens:       tokens,
		lockouts:     lockouts,
		logger:       logger.With("module", "users"),
		threshold:    cfg.LoginFailureThreshold,
		window:       cfg.LoginLockoutDuration,
		storeTimeout: cfg.StoreTimeout,
		now:          time.Now,
	}

	digest, err := hasher.Hash(timingPassword)
	if err != nil {
		s.logger.Warn(context.Background(), "timing digest unavailable", "error", err)
	}
	s.dummyDigest = digest
	return s
}

// CreateUser validates in, hashes the password and stores an active user
// with the given role.
func (s *UserService) CreateUser(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)

	verr := &ValidationError{}
	if !validEmail(in.Email) {
		verr.add("email", "Please provide a valid email address")
	}
	if in.FirstName == "" || runeLen(in.FirstName) > maxNameLength {
		verr.add("firstName", "First name is required")
	}
	if in.LastName == "" || runeLen(in.LastName) > maxNameLength {
		verr.add("lastName", "Last name is required")
	}
	if !role.Valid() {
		verr.add("role", "Unknown role")
	}
	verr.checkPassword("password", in.Password)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: digest,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Role:         role,
		IsActive:     true,
	}

	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return created, nil
}

// Register creates a CUSTOMER account and signs it in.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	user, err := s.CreateUser(ctx, in, models.RoleCustomer)
	if err != nil {
		return nil, err
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// Login checks email and password. Unknown emails, wrong passwords and
// inactive accounts all yield common.ErrorUnauthorized; a corrupt stored
// digest yields common.ErrHashing. After too many failures the account is
// locked and common.ErrAccountLocked is returned until the window passes.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	key := lockout.Key(email)
	now := s.now()

	state, err := s.lockouts.Get(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "lockout lookup failed", "error", err)
	} else if state.Locked(now) {
		return nil, common.ErrAccountLocked
	}

	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyDigest)
			s.recordFailure(ctx, key, now)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "stored password digest unusable", "user_id", user.ID, "error", err)
		return nil, err
	}
	if !ok {
		s.recordFailure(ctx, key, now)
		return nil, common.ErrorUnauthorized
	}
	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	if err := s.lockouts.Clear(ctx, key); err != nil {
		s.logger.Warn(ctx, "lockout clear failed", "error", err)
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *UserService) recordFailure(ctx context.Context, key string, now time.Time) {
	state, err := s.lockouts.RecordFailure(ctx, key, now, s.threshold, s.window)
	if err != nil {
		s.logger.Warn(ctx, "lockout record failed", "error", err)
		return
	}
	if state.Locked(now) {
		s.logger.Warn(ctx, "account locked after repeated login failures", "failures", state.FailedCount)
	}
}

func (s *UserService) issue(user *models.User) (string, error) {
	token, err := s.tokens.Issue(auth.Claims{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, nil
}

// ResolveSession verifies token and loads its subject from the store. It
// returns the token error unchanged when verification fails, and
// common.ErrUserNotFoundOrInactive when the subject is missing, inactive or
// the store cannot answer within the store timeout.
func (s *UserService) ResolveSession(ctx context.Context, token string) (models.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return models.Identity{}, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repomanager.Users(s.db).FindByID(lookupCtx, claims.UserID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "session user lookup failed", "user_id", claims.UserID, "error", err)
		}
		return models.Identity{}, fmt.Errorf("%w: %v", common.ErrUserNotFoundOrInactive, err)
	}
	if !user.IsActive {
		return models.Identity{}, fmt.Errorf("%w: account disabled", common.ErrUserNotFoundOrInactive)
	}
	return user.Identity(), nil
}

// Profile returns the stored user record.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).FindByID(ctx, userID)
}

// UpdateProfile changes the editable profile fields that are set in upd.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	verr := &ValidationError{}
	names := []struct {
		field string
		value *string
	}{{"firstName", upd.FirstName}, {"lastName", upd.LastName}}
	for _, n := range names {
		if n.value == nil {
			continue
		}
		*n.value = strings.TrimSpace(*n.value)
		if *n.value == "" || runeLen(*n.value) > maxNameLength {
			verr.add(n.field, "Must be between 1 and 100 characters")
		}
	}
	if upd.Phone != nil {
		*upd.Phone = strings.TrimSpace(*upd.Phone)
		if runeLen(*upd.Phone) > 32 {
			verr.add("phone", "Phone number is too long")
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).UpdateProfile(ctx, userID, upd)
}

// ChangePassword replaces the password of a signed-in user after checking
// the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(current, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		verr := &ValidationError{}
		verr.add("currentPassword", "Current password is incorrect")
		return verr
	}

	return s.setPassword(ctx, user.ID, "newPassword", next)
}

// SetPassword replaces the password of the account with the given email
// without checking the old one. Used by administrative tooling.
func (s *UserService) SetPassword(ctx context.Context, email, password string) error {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, user.ID, "password", password); err != nil {
		return err
	}
	if err := s.lockouts.Clear(ctx, lockout.Key(email)); err != nil {
		s.logger.Warn(ctx, "lockout clear failed", "error", err)
	}
	return nil
}

func (s *UserService) setPassword(ctx context.Context, userID, field, password string) error {
	verr := &ValidationError{}
	verr.checkPassword(field, password)
	if err := verr.orNil(); err != nil {
		return err
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	return s.repomanager.Users(s.db).UpdatePasswordHash(ctx, userID, digest)
}

// SetActive enables or disables the account with the given email. A
// disabled account is rejected by ResolveSession on its next request.
func (s *UserService) SetActive(ctx context.Context, email string, active bool) error {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.repomanager.Users(s.db).SetActive(ctx, user.ID, active)
}
