package models

import "time"

// Prize record statuses.
const (
	PrizeStatusPending = "pending"
	PrizeStatusAwarded = "awarded"
)

// PrizeRecord captures a user's final standing in an ended contest. Records are
// produced from leaderboard output only and never feed back into ranking.
type PrizeRecord struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ContestID uint       `gorm:"not null;uniqueIndex:idx_prize_records_user_contest" json:"contest_id"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_prize_records_user_contest" json:"user_id"`
	Rank      int        `gorm:"not null" json:"rank"`
	Score     int        `gorm:"not null" json:"score"`
	Status    string     `gorm:"size:16;not null;default:pending" json:"status"`
	AwardedAt *time.Time `json:"awarded_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsAwarded reports whether the prize has been handed out.
func (p PrizeRecord) IsAwarded() bool {
	return p.Status == PrizeStatusAwarded
}
