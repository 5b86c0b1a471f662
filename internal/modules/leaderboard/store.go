package leaderboard

import (
	"context"
	"errors"
	"strings"

	"github.com/eduflash/core/internal/models"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const mysqlErrBadFieldError = 1054

// isMissingUserColumn reports whether the insert failed because the
// leaderboard table lacks the optional user_id column.
func isMissingUserColumn(err error) bool {
	var myErr *mysqlDriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrBadFieldError &&
			strings.Contains(strings.ToLower(myErr.Message), "user_id")
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user_id") &&
		(strings.Contains(msg, "unknown column") || strings.Contains(msg, "does not exist"))
}

// GormStore is the MySQL-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, entry *models.LeaderboardModel) error {
	if entry.UserID == "" {
		// Omit the column entirely so schemas without user_id still accept
		// the row.
		return s.db.WithContext(ctx).Omit("user_id").Create(entry).Error
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) TopOrdered(ctx context.Context, limit int) ([]models.LeaderboardModel, error) {
	var rows []models.LeaderboardModel
	err := s.db.WithContext(ctx).
		Order("score DESC, created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.LeaderboardModel{}).Count(&count).Error
	return count, err
}

func (s *GormStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Unscoped().
		Delete(&models.LeaderboardModel{}).Error
}
