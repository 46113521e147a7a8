package dto

import (
	"time"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// LeaderboardEntryResponse is one ranked row of a contest leaderboard.
type LeaderboardEntryResponse struct {
	Rank             int       `json:"rank"`
	UserID           uint      `json:"user_id"`
	Score            int       `json:"score"`
	CorrectCount     int       `json:"correct_count"`
	TotalQuestions   int       `json:"total_questions"`
	TimeTakenSeconds int64     `json:"time_taken_seconds"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// LeaderboardResponse is the ordered ranking for one contest.
type LeaderboardResponse struct {
	ContestID uint                       `json:"contest_id"`
	Entries   []LeaderboardEntryResponse `json:"entries"`
	CacheHit  bool                       `json:"-"`
}

// RankResponse reports one user's standing in a contest.
type RankResponse struct {
	ContestID uint `json:"contest_id"`
	UserID    uint `json:"user_id"`
	Rank      int  `json:"rank"`
	Score     int  `json:"score"`
}

// PrizeRecordResponse serializes a prize record.
type PrizeRecordResponse struct {
	ID        uint       `json:"id"`
	ContestID uint       `json:"contest_id"`
	UserID    uint       `json:"user_id"`
	Rank      int        `json:"rank"`
	Score     int        `json:"score"`
	Status    string     `json:"status"`
	AwardedAt *time.Time `json:"awarded_at"`
}

// NewLeaderboardEntries converts ordered completed participations into ranked
// rows. Ranks are assigned by output position, 1-based.
func NewLeaderboardEntries(participations []models.Participation) []LeaderboardEntryResponse {
	entries := make([]LeaderboardEntryResponse, 0, len(participations))
	for i, participation := range participations {
		submittedAt := time.Time{}
		if participation.SubmittedAt != nil {
			submittedAt = *participation.SubmittedAt
		}

		entries = append(entries, LeaderboardEntryResponse{
			Rank:             i + 1,
			UserID:           participation.UserID,
			Score:            participation.Score,
			CorrectCount:     participation.CorrectCount,
			TotalQuestions:   participation.TotalQuestions,
			TimeTakenSeconds: participation.TimeTakenSeconds,
			SubmittedAt:      submittedAt,
		})
	}

	return entries
}

// NewPrizeRecordResponse converts a single prize record for API clients.
func NewPrizeRecordResponse(record models.PrizeRecord) PrizeRecordResponse {
	return PrizeRecordResponse{
		ID:        record.ID,
		ContestID: record.ContestID,
		UserID:    record.UserID,
		Rank:      record.Rank,
		Score:     record.Score,
		Status:    record.Status,
		AwardedAt: record.AwardedAt,
	}
}

// NewPrizeRecordResponses converts prize records for API clients.
func NewPrizeRecordResponses(records []models.PrizeRecord) []PrizeRecordResponse {
	responses := make([]PrizeRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewPrizeRecordResponse(record))
	}

	return responses
}
