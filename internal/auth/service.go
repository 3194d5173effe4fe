package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrAuthRequired     = errors.New("authentication required")
	ErrInvalidRole      = errors.New("invalid role")
	ErrNoRole           = errors.New("account has no role")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrFullNameRequired = errors.New("full name is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
	ErrSetupAlreadyDone = errors.New("an owner account already exists")
)

var validationErrors = []error{
	ErrUsernameRequired,
	ErrEmailRequired,
	ErrPasswordRequired,
	ErrFullNameRequired,
	ErrUsernameInvalid,
	ErrEmailInvalid,
	ErrPasswordTooShort,
	ErrPasswordTooLong,
	ErrInvalidRole,
}

// IsValidationError reports whether err rejects the submitted account fields.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// AccountStore owns the role tables. Accounts are always created and removed
// together with their role row.
type AccountStore interface {
	CreateAccount(user *entities.User, profile any) error
	DeleteAccount(userID uint) error
	ResolveRole(userID uint) (entities.Role, uint, error)
	HasOwner() (bool, error)
}

// Profile carries the role-table fields collected at registration.
// Position is only used for staff, Phone and Address for visitors and staff.
type Profile struct {
	FullName string
	Phone    string
	Address  string
	Position string
}

// Identity is an authenticated user together with its resolved role.
type Identity struct {
	User      *entities.User
	Role      entities.Role
	ProfileID uint
}

// Service handles authentication and account management.
type Service struct {
	db       *gorm.DB
	accounts AccountStore
	config   config.Auth
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, accounts AccountStore, cfg config.Auth) *Service {
	return &Service{
		db:       db,
		accounts: accounts,
		config:   cfg,
	}
}

func (s *Service) validateAccount(username, email, password string, role entities.Role, p Profile) error {
	if username == "" {
		return ErrUsernameRequired
	}
	if email == "" {
		return ErrEmailRequired
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if strings.TrimSpace(p.FullName) == "" {
		return ErrFullNameRequired
	}

	// 3-64 chars, alphanumeric + underscore/hyphen
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}

	// RFC 5321 limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}

	switch role {
	case entities.RoleVisitor, entities.RoleStaff, entities.RoleOwner:
		return nil
	default:
		return ErrInvalidRole
	}
}

// CreateAccount creates a login account and its role row in one transaction.
func (s *Service) CreateAccount(username, email, password string, role entities.Role, p Profile) (*Identity, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if err := s.validateAccount(username, email, password, role, p); err != nil {
		return nil, err
	}

	var existing entities.User
	err := s.db.Unscoped().Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}

	fullName := strings.TrimSpace(p.FullName)
	var profile any
	switch role {
	case entities.RoleVisitor:
		profile = &entities.Visitor{FullName: fullName, Phone: p.Phone, Address: p.Address}
	case entities.RoleStaff:
		profile = &entities.Staff{FullName: fullName, Phone: p.Phone, Position: p.Position, Active: true}
	case entities.RoleOwner:
		profile = &entities.Owner{FullName: fullName}
	}

	if err := s.accounts.CreateAccount(user, profile); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	identity := &Identity{User: user, Role: role}
	switch v := profile.(type) {
	case *entities.Visitor:
		identity.ProfileID = v.ID
	case *entities.Staff:
		identity.ProfileID = v.ID
	case *entities.Owner:
		identity.ProfileID = v.ID
	}
	return identity, nil
}

// CreateOwner creates the first owner account. It fails with ErrSetupAlreadyDone
// once any owner exists.
func (s *Service) CreateOwner(username, email, password, fullName string) (*Identity, error) {
	hasOwner, err := s.accounts.HasOwner()
	if err != nil {
		return nil, err
	}
	if hasOwner {
		return nil, ErrSetupAlreadyDone
	}
	return s.CreateAccount(username, email, password, entities.RoleOwner, Profile{FullName: fullName})
}

// DeleteAccount removes a user together with its role rows.
func (s *Service) DeleteAccount(userID uint) error {
	if err := s.accounts.DeleteAccount(userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// Authenticate validates credentials and returns the user.
// Implements account lockout after too many failed attempts.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	var user entities.User
	err := s.db.Where("username = ? OR email = ?", username, strings.ToLower(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(&user)
		return nil, err
	}

	now := time.Now().UTC()
	s.db.Model(&user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	})
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil

	return &user, nil
}

// recordFailedLogin increments the failed login counter and locks the account if threshold reached.
func (s *Service) recordFailedLogin(user *entities.User) {
	user.FailedLoginCount++

	updates := map[string]any{
		"failed_login_count": user.FailedLoginCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if user.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		updates["locked_until"] = time.Now().UTC().Add(lockoutDuration)
	}

	s.db.Model(user).Updates(updates)
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := s.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Identify loads the user and resolves its role from the role tables.
// A user with no role row yields ErrNoRole.
func (s *Service) Identify(user *entities.User) (*Identity, error) {
	role, profileID, err := s.accounts.ResolveRole(user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNoRole
		}
		return nil, err
	}
	return &Identity{User: user, Role: role, ProfileID: profileID}, nil
}

// GetUserByTokenHash retrieves a user by their hashed API token.
func (s *Service) GetUserByTokenHash(tokenHash string) (*entities.User, error) {
	var user entities.User
	err := s.db.Where("token_hash = ?", tokenHash).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return &user, nil
}

// ValidateToken checks a plaintext token and returns the associated user.
// Returns ErrTokenExpired if the token is past its expiry time.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.GetUserByTokenHash(HashToken(token))
	if err != nil {
		return nil, err
	}

	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil {
		if time.Since(*user.TokenCreatedAt) > s.config.TokenExpiry {
			return nil, ErrTokenExpired
		}
	}

	return user, nil
}

// GenerateToken creates a new API token for a user.
// Returns the plaintext token (show to user once) - only the hash is stored in DB.
func (s *Service) GenerateToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	result := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       hash,
		"token_created_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return "", fmt.Errorf("failed to save token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrUserNotFound
	}

	return plaintext, nil
}

// RevokeToken removes a user's API token.
func (s *Service) RevokeToken(userID uint) error {
	result := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke token: %w", result.Error)
	}
	return nil
}

// ChangePassword updates a user's password.
func (s *Service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.db.Model(user).Update("password_hash", newHash).Error
}

// HasOwner reports whether the initial setup has been completed.
func (s *Service) HasOwner() (bool, error) {
	return s.accounts.HasOwner()
}
