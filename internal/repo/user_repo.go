package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-auth-service/internal/domain"
)

// CreateUser inserts rec. It returns ErrDuplicate when the email is taken.
func CreateUser(ctx context.Context, db *gorm.DB, rec *domain.UserRecord) error {
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// FindUserByEmail returns the user with the given (lowercase) email or
// ErrNotFound.
func FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.UserRecord, error) {
	var rec domain.UserRecord
	err := db.WithContext(ctx).Where("email = ?", email).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// isUniqueViolation detects UNIQUE constraint failures. glebarez/sqlite is
// not covered by GORM's error translator, so plain-text errors are matched
// as well.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
