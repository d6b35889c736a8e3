package service

import (
	"errors"
	"time"

	"blogapi/internal/auth"
	"blogapi/model"
	"blogapi/utils"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken = errors.New("user already exists")
	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password, so callers cannot tell registered emails apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// UserStore is the persistence surface the services need from the user
// directory. *dao.UserDAO satisfies it.
type UserStore interface {
	Create(user *model.User) error
	FindByEmail(email string) (*model.User, error)
	FindByID(id uint64) (*model.User, error)
	FindByIDs(ids []uint64) ([]model.User, error)
	Update(user *model.User) error
}

// ProfileUpdate carries the optional profile fields; zero values are left
// untouched on the stored record.
type ProfileUpdate struct {
	Username    string
	Email       string
	DateOfBirth *time.Time
	Gender      string
	PhoneNumber string
}

// UserService implements registration, login and profile updates.
type UserService struct {
	users  UserStore
	tokens *auth.TokenManager
}

func NewUserService(users UserStore, tokens *auth.TokenManager) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// Register persists a new user with the password replaced by its hash.
// A taken email yields ErrEmailTaken whether it is caught by the lookup or
// by the unique index.
func (s *UserService) Register(user *model.User, password string) error {
	if _, err := s.users.FindByEmail(user.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed

	if err := s.users.Create(user); err != nil {
		return mapDuplicate(err)
	}
	return nil
}

// Login authenticates by email and password and issues a bearer token.
// Only a missing user maps to ErrInvalidCredentials; store failures
// propagate so they surface as internal errors.
func (s *UserService) Login(email, password string) (string, *model.User, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// UpdateProfile applies only the supplied fields and persists the result.
func (s *UserService) UpdateProfile(userID uint64, fields ProfileUpdate) (*model.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if fields.Username != "" {
		user.Username = fields.Username
	}
	if fields.Email != "" {
		user.Email = fields.Email
	}
	if fields.DateOfBirth != nil {
		user.DateOfBirth = *fields.DateOfBirth
	}
	if fields.Gender != "" {
		user.Gender = fields.Gender
	}
	if fields.PhoneNumber != "" {
		user.PhoneNumber = fields.PhoneNumber
	}

	if err := s.users.Update(user); err != nil {
		return nil, mapDuplicate(err)
	}
	return user, nil
}

// mapDuplicate 将唯一索引冲突映射为 ErrEmailTaken
func mapDuplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrEmailTaken
	}
	return err
}
