package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/trackboard/backend/internal/apperr"
	"github.com/trackboard/backend/internal/model"
	"github.com/trackboard/backend/pkg/hash"
	"github.com/trackboard/backend/pkg/token"
	"gorm.io/gorm"
)

// AuthService orchestrates register/login/refresh/logout and owns the
// refresh-token rotation semantics. It is stateless: secrets and lifetimes
// live in the token manager, session state in the store.
type AuthService struct {
	db     *gorm.DB
	tokens *token.Manager
}

func NewAuthService(db *gorm.DB, tokens *token.Manager) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

func (s *AuthService) AccessTTL() time.Duration  { return s.tokens.AccessTTL() }
func (s *AuthService) RefreshTTL() time.Duration { return s.tokens.RefreshTTL() }

type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

func (s *AuthService) Register(in RegisterInput) (*model.User, token.Pair, error) {
	var count int64
	if err := s.db.Model(&model.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, token.Pair{}, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, token.Pair{}, apperr.Conflict("Email already registered")
	}
	if err := s.db.Model(&model.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, token.Pair{}, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return nil, token.Pair{}, apperr.Conflict("Username already taken")
	}

	pwHash, err := hash.Password(in.Password)
	if err != nil {
		return nil, token.Pair{}, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: pwHash,
		Active:       true,
	}
	if err := s.db.Create(user).Error; err != nil {
		// The pre-checks are best effort; the unique constraints decide.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, token.Pair{}, apperr.Conflict("Email or username already registered")
		}
		return nil, token.Pair{}, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, token.Pair{}, err
	}
	return user, pair, nil
}

// Login authenticates by email and password. The bcrypt comparison runs on
// every call, against a fixed sentinel hash when the email is unknown, so
// response timing does not reveal whether the account exists.
func (s *AuthService) Login(email, password string) (*model.User, token.Pair, error) {
	var user model.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash.CompareInvalid(password)
			return nil, token.Pair{}, apperr.Unauthorized("Invalid credentials")
		}
		return nil, token.Pair{}, fmt.Errorf("find user: %w", err)
	}

	if !hash.ComparePassword(user.PasswordHash, password) {
		return nil, token.Pair{}, apperr.Unauthorized("Invalid credentials")
	}
	// Identity is proven at this point, so the deactivation message may be
	// specific.
	if !user.Active {
		return nil, token.Pair{}, apperr.Unauthorized("Account deactivated")
	}

	pair, err := s.issue(&user)
	if err != nil {
		return nil, token.Pair{}, err
	}
	return &user, pair, nil
}

// Refresh rotates the session: a brand-new pair is issued and its refresh
// hash overwrites the stored one, so the token that authorized this call is
// single-use. The refresh guard has already verified signature, account
// state and hash match.
func (s *AuthService) Refresh(userID uint, email string) (token.Pair, error) {
	pair, err := s.tokens.NewPair(userID, email)
	if err != nil {
		return token.Pair{}, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.storeRefreshHash(userID, pair.Refresh); err != nil {
		return token.Pair{}, err
	}
	return pair, nil
}

// Logout clears the stored refresh hash. Calling it without an active
// session is not an error.
func (s *AuthService) Logout(userID uint) error {
	err := s.db.Model(&model.User{}).Where("id = ?", userID).
		Update("refresh_hash", nil).Error
	if err != nil {
		return fmt.Errorf("clear refresh hash: %w", err)
	}
	return nil
}

func (s *AuthService) GetUser(id uint) (*model.User, error) {
	var user model.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Account not found")
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) issue(user *model.User) (token.Pair, error) {
	pair, err := s.tokens.NewPair(user.ID, user.Email)
	if err != nil {
		return token.Pair{}, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.storeRefreshHash(user.ID, pair.Refresh); err != nil {
		return token.Pair{}, err
	}
	return pair, nil
}

func (s *AuthService) storeRefreshHash(userID uint, refreshToken string) error {
	h, err := hash.Token(refreshToken)
	if err != nil {
		return fmt.Errorf("hash refresh token: %w", err)
	}
	err = s.db.Model(&model.User{}).Where("id = ?", userID).
		Update("refresh_hash", h).Error
	if err != nil {
		return fmt.Errorf("store refresh hash: %w", err)
	}
	return nil
}
