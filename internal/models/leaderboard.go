package models

// LeaderboardModel is one submitted score. UserID is optional: anonymous
// players submit under a display name only. CreatedAt doubles as the
// tie-break timestamp for ranking.
type LeaderboardModel struct {
	Base
	Name   string `json:"name"    gorm:"not null"`
	Score  int    `json:"score"   gorm:"index;not null"`
	UserID string `json:"user_id" gorm:"index;default:null"`
}

func (LeaderboardModel) TableName() string { return "leaderboard" }
