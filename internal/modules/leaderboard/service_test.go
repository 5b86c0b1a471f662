package leaderboard_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/eduflash/core/internal/models"
	"github.com/eduflash/core/internal/modules/leaderboard"
	mysqlDriver "github.com/go-sql-driver/mysql"
)

// memStore is an in-memory leaderboard.Store with a scriptable clock and an
// optional missing-user_id-column failure mode.
type memStore struct {
	rows          []models.LeaderboardModel
	now           time.Time
	missingColumn bool
	insertErr     error
	inserts       int
}

func newMemStore() *memStore {
	return &memStore{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memStore) Insert(_ context.Context, entry *models.LeaderboardModel) error {
	m.inserts++
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.missingColumn && entry.UserID != "" {
		return &mysqlDriver.MySQLError{
			Number:  1054,
			Message: "Unknown column 'user_id' in 'field list'",
		}
	}
	m.now = m.now.Add(time.Second)
	entry.ID = "id-" + entry.Name
	entry.CreatedAt = m.now
	m.rows = append(m.rows, *entry)
	return nil
}

func (m *memStore) TopOrdered(_ context.Context, limit int) ([]models.LeaderboardModel, error) {
	sorted := make([]models.LeaderboardModel, len(m.rows))
	copy(sorted, m.rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (m *memStore) Count(_ context.Context) (int64, error) {
	return int64(len(m.rows)), nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.rows = nil
	return nil
}

func TestRankingDeterminism(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := leaderboard.NewService(store)

	for _, sub := range []struct {
		name  string
		score int
	}{
		{"Alice", 100},
		{"Bob", 100},
		{"Carol", 150},
	} {
		if _, err := svc.Submit(ctx, sub.name, sub.score, ""); err != nil {
			t.Fatalf("submit %s failed: %v", sub.name, err)
		}
	}

	got, err := svc.Top(ctx, 3)
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}

	want := []struct {
		rank  int
		name  string
		score int
	}{
		{1, "Carol", 150},
		{2, "Alice", 100},
		{3, "Bob", 100},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Rank != w.rank || got[i].Name != w.name || got[i].Score != w.score {
			t.Fatalf("position %d: expected %+v, got %+v", i, w, got[i])
		}
	}
}

func TestLimitClamping(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := leaderboard.NewService(store)

	for i := 0; i < 15; i++ {
		if _, err := svc.Submit(ctx, "Player", i, ""); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	for _, limit := range []int{0, -5} {
		got, err := svc.Top(ctx, limit)
		if err != nil {
			t.Fatalf("top(%d) failed: %v", limit, err)
		}
		if len(got) != leaderboard.DefaultLimit {
			t.Fatalf("top(%d): expected default of %d entries, got %d", limit, leaderboard.DefaultLimit, len(got))
		}
	}

	got, err := svc.Top(ctx, 3)
	if err != nil {
		t.Fatalf("top(3) failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("top(3): expected 3 entries, got %d", len(got))
	}
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	svc := leaderboard.NewService(newMemStore())

	cases := []struct {
		name    string
		player  string
		score   int
		wantErr error
	}{
		{"empty name", "", 10, leaderboard.ErrNameRequired},
		{"blank name", "   ", 10, leaderboard.ErrNameRequired},
		{"name too long", strings.Repeat("A", 51), 10, leaderboard.ErrNameTooLong},
		{"negative score", "Bob", -1, leaderboard.ErrNegativeScore},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Submit(ctx, tc.player, tc.score, ""); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	// Boundary values pass.
	if _, err := svc.Submit(ctx, strings.Repeat("A", 50), 0, ""); err != nil {
		t.Fatalf("50-char name with zero score should be accepted: %v", err)
	}
}

func TestSubmitTrimsName(t *testing.T) {
	store := newMemStore()
	svc := leaderboard.NewService(store)

	entry, err := svc.Submit(context.Background(), "  Bob  ", 10, "")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if entry.Name != "Bob" {
		t.Fatalf("expected trimmed name, got %q", entry.Name)
	}
}

func TestSchemaDegradeRetry(t *testing.T) {
	store := newMemStore()
	store.missingColumn = true
	svc := leaderboard.NewService(store)

	entry, err := svc.Submit(context.Background(), "Bob", 10, "user-1")
	if err != nil {
		t.Fatalf("expected submit to degrade, got error: %v", err)
	}
	if entry.UserID != "" {
		t.Fatalf("expected user ref dropped on retry, got %q", entry.UserID)
	}
	if store.inserts != 2 {
		t.Fatalf("expected exactly 2 insert attempts, got %d", store.inserts)
	}
	if len(store.rows) != 1 || store.rows[0].Score != 10 {
		t.Fatalf("expected one persisted row with score 10, got %+v", store.rows)
	}
}

func TestStoreErrorSurfaces(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("connection refused")
	svc := leaderboard.NewService(store)

	if _, err := svc.Submit(context.Background(), "Bob", 10, "user-1"); err == nil {
		t.Fatal("expected store error to surface")
	}
	if store.inserts != 1 {
		t.Fatalf("unrelated store errors must not be retried, got %d attempts", store.inserts)
	}
}
