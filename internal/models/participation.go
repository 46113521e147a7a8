package models

import (
	"time"

	"gorm.io/datatypes"
)

// Participation records one user's single attempt at one contest. The
// (user_id, contest_id) pair is unique at the store level; this is the central
// uniqueness invariant of the whole system.
type Participation struct {
	ID               uint                              `gorm:"primaryKey" json:"id"`
	ContestID        uint                              `gorm:"not null;uniqueIndex:idx_participations_user_contest" json:"contest_id"`
	UserID           uint                              `gorm:"not null;uniqueIndex:idx_participations_user_contest" json:"user_id"`
	JoinedAt         time.Time                         `gorm:"not null" json:"joined_at"`
	SubmittedAt      *time.Time                        `json:"submitted_at"`
	Answers          datatypes.JSONSlice[AnswerRecord] `gorm:"type:json" json:"answers"`
	Score            int                               `gorm:"not null;default:0" json:"score"`
	CorrectCount     int                               `gorm:"not null;default:0" json:"correct_count"`
	WrongCount       int                               `gorm:"not null;default:0" json:"wrong_count"`
	TotalQuestions   int                               `gorm:"not null;default:0" json:"total_questions"`
	IsCompleted      bool                              `gorm:"not null;default:false" json:"is_completed"`
	TimeTakenSeconds int64                             `gorm:"not null;default:0" json:"time_taken_seconds"`
	CreatedAt        time.Time                         `json:"created_at"`
	UpdatedAt        time.Time                         `json:"updated_at"`
}

// AnswerRecord stores one submitted answer together with its grading outcome.
// Correctness and points are populated only at scoring time.
type AnswerRecord struct {
	QuestionIndex   int   `json:"question_index"`
	SelectedOptions []int `json:"selected_options"`
	IsCorrect       bool  `json:"is_correct"`
	PointsEarned    int   `json:"points_earned"`
}

// ElapsedSeconds derives the attempt duration, floored to whole seconds.
func (p Participation) ElapsedSeconds(submittedAt time.Time) int64 {
	elapsed := submittedAt.Sub(p.JoinedAt)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed.Seconds())
}
