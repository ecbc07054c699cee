package accountstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MrEthical07/sessionauth"
)

// ErrDuplicateEmail is returned by Create when the email is taken.
var ErrDuplicateEmail = errors.New("email already registered")

// Store reads accounts from Postgres through gorm.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn with gorm's logger silenced.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewStore(db), nil
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the users table.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&User{})
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (sessionauth.Account, error) {
	var u User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	return toAccount(u, err)
}

func (s *Store) AccountByID(ctx context.Context, id string) (sessionauth.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return sessionauth.Account{}, fmt.Errorf("%w: malformed id", sessionauth.ErrAccountNotFound)
	}
	var u User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	return toAccount(u, err)
}

// Create inserts an active account and returns its new ID.
func (s *Store) Create(ctx context.Context, email, passwordHash string) (string, error) {
	u := User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Active:       true,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrDuplicateEmail
		}
		return "", fmt.Errorf("create account: %w", err)
	}
	return u.ID, nil
}

// SetActive enables or disables an account.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("update account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return sessionauth.ErrAccountNotFound
	}
	return nil
}

func toAccount(u User, err error) (sessionauth.Account, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sessionauth.Account{}, sessionauth.ErrAccountNotFound
	}
	if err != nil {
		return sessionauth.Account{}, fmt.Errorf("query account: %w", err)
	}
	return sessionauth.Account{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Active:       u.Active,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
