package leaderboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eduflash/core/internal/models"
)

// DefaultLimit is the ranking size used when the caller gives no usable limit.
const DefaultLimit = 10

// MaxNameLength is the display-name cap. Longer names are rejected, not truncated.
const MaxNameLength = 50

var (
	ErrNameRequired  = errors.New("name is required")
	ErrNameTooLong   = errors.New("name must be 50 characters or less")
	ErrNegativeScore = errors.New("score must be a non-negative integer")
)

// Store is the persistence collaborator. The MySQL implementation lives in
// store.go; tests use an in-memory fake.
type Store interface {
	Insert(ctx context.Context, entry *models.LeaderboardModel) error
	TopOrdered(ctx context.Context, limit int) ([]models.LeaderboardModel, error)
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

// RankedEntry is a leaderboard row with its 1-based rank, computed fresh on
// every read and never stored.
type RankedEntry struct {
	Rank      int       `json:"rank"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Submit validates and persists one score entry. userID is optional; when the
// store's schema predates the user_id column, the insert is retried once
// without it so a score is never lost to schema drift.
func (s *Service) Submit(ctx context.Context, name string, score int, userID string) (*models.LeaderboardModel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if len([]rune(name)) > MaxNameLength {
		return nil, ErrNameTooLong
	}
	if score < 0 {
		return nil, ErrNegativeScore
	}

	entry := &models.LeaderboardModel{Name: name, Score: score, UserID: userID}
	err := s.store.Insert(ctx, entry)
	if err != nil && userID != "" && isMissingUserColumn(err) {
		entry = &models.LeaderboardModel{Name: name, Score: score}
		err = s.store.Insert(ctx, entry)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Top returns up to limit entries ordered by score descending, earlier
// submission winning ties. Non-positive limits fall back to DefaultLimit.
func (s *Service) Top(ctx context.Context, limit int) ([]RankedEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.store.TopOrdered(ctx, limit)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedEntry, len(rows))
	for i, row := range rows {
		ranked[i] = RankedEntry{
			Rank:      i + 1,
			Name:      row.Name,
			Score:     row.Score,
			Timestamp: row.CreatedAt,
		}
	}
	return ranked, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

func (s *Service) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}
