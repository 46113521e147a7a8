package dto

import (
	"time"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// AnswerPayload carries one submitted answer.
type AnswerPayload struct {
	QuestionIndex   int   `json:"question_index" validate:"gte=0"`
	SelectedOptions []int `json:"selected_options" validate:"required,min=1"`
}

// SubmitRequest carries the full answer sheet for a contest submission.
type SubmitRequest struct {
	Answers []AnswerPayload `json:"answers" validate:"required,min=1,dive"`
}

// AnswerResultResponse serializes one graded answer.
type AnswerResultResponse struct {
	QuestionIndex   int   `json:"question_index"`
	SelectedOptions []int `json:"selected_options"`
	IsCorrect       bool  `json:"is_correct"`
	PointsEarned    int   `json:"points_earned"`
}

// ParticipationResponse is returned to API clients when viewing a participation.
type ParticipationResponse struct {
	ID               uint                   `json:"id"`
	ContestID        uint                   `json:"contest_id"`
	UserID           uint                   `json:"user_id"`
	JoinedAt         time.Time              `json:"joined_at"`
	SubmittedAt      *time.Time             `json:"submitted_at"`
	Answers          []AnswerResultResponse `json:"answers,omitempty"`
	Score            int                    `json:"score"`
	CorrectCount     int                    `json:"correct_count"`
	WrongCount       int                    `json:"wrong_count"`
	TotalQuestions   int                    `json:"total_questions"`
	IsCompleted      bool                   `json:"is_completed"`
	TimeTakenSeconds int64                  `json:"time_taken_seconds"`
}

// ScoreSummaryResponse is the payload returned by a successful submission.
type ScoreSummaryResponse struct {
	ContestID        uint      `json:"contest_id"`
	Score            int       `json:"score"`
	CorrectCount     int       `json:"correct_count"`
	WrongCount       int       `json:"wrong_count"`
	TotalQuestions   int       `json:"total_questions"`
	TimeTakenSeconds int64     `json:"time_taken_seconds"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// NewParticipationResponse converts a Participation model into a DTO.
func NewParticipationResponse(model models.Participation) ParticipationResponse {
	answers := make([]AnswerResultResponse, 0, len(model.Answers))
	for _, answer := range model.Answers {
		answers = append(answers, AnswerResultResponse{
			QuestionIndex:   answer.QuestionIndex,
			SelectedOptions: answer.SelectedOptions,
			IsCorrect:       answer.IsCorrect,
			PointsEarned:    answer.PointsEarned,
		})
	}

	return ParticipationResponse{
		ID:               model.ID,
		ContestID:        model.ContestID,
		UserID:           model.UserID,
		JoinedAt:         model.JoinedAt,
		SubmittedAt:      model.SubmittedAt,
		Answers:          answers,
		Score:            model.Score,
		CorrectCount:     model.CorrectCount,
		WrongCount:       model.WrongCount,
		TotalQuestions:   model.TotalQuestions,
		IsCompleted:      model.IsCompleted,
		TimeTakenSeconds: model.TimeTakenSeconds,
	}
}
