package dto

import (
	"time"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// OptionPayload carries one answer choice in admin requests.
type OptionPayload struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionPayload carries one question definition in admin requests.
type QuestionPayload struct {
	Text    string          `json:"text" validate:"required"`
	Type    string          `json:"type" validate:"required,oneof=single_choice multi_choice true_false"`
	Options []OptionPayload `json:"options" validate:"required,min=2,dive"`
	Points  int             `json:"points" validate:"required,gte=1"`
}

// ContestCreateRequest describes the payload for creating a contest.
type ContestCreateRequest struct {
	Name            string            `json:"name" validate:"required,min=3,max=255"`
	Description     string            `json:"description"`
	Tier            string            `json:"tier" validate:"omitempty,oneof=NORMAL VIP"`
	StartTime       string            `json:"start_time" validate:"required"`
	EndTime         string            `json:"end_time" validate:"required"`
	Prize           string            `json:"prize"`
	MaxParticipants int               `json:"max_participants" validate:"required,gte=1"`
	Questions       []QuestionPayload `json:"questions" validate:"required,min=1,dive"`
}

// ContestUpdateRequest describes a partial contest update. Schedule, tier,
// capacity and questions are accepted only while the contest has not opened;
// afterwards only description, prize and capacity survive.
type ContestUpdateRequest struct {
	Name            *string           `json:"name" validate:"omitempty,min=3,max=255"`
	Description     *string           `json:"description"`
	Tier            *string           `json:"tier" validate:"omitempty,oneof=NORMAL VIP"`
	StartTime       *string           `json:"start_time"`
	EndTime         *string           `json:"end_time"`
	Prize           *string           `json:"prize"`
	MaxParticipants *int              `json:"max_participants" validate:"omitempty,gte=1"`
	Questions       []QuestionPayload `json:"questions" validate:"omitempty,min=1,dive"`
}

// ContestStatusRequest forces a contest into an explicit status.
type ContestStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=UPCOMING ONGOING ENDED"`
}

// ContestListRequest carries catalog query filters.
type ContestListRequest struct {
	Status *string `query:"status" validate:"omitempty,oneof=UPCOMING ONGOING ENDED"`
	Tier   *string `query:"tier" validate:"omitempty,oneof=NORMAL VIP"`
}

// OptionResponse serializes an answer choice. Correctness flags are only
// included for admin callers.
type OptionResponse struct {
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// QuestionResponse serializes a question for API clients.
type QuestionResponse struct {
	Index   int              `json:"index"`
	Text    string           `json:"text"`
	Type    string           `json:"type"`
	Options []OptionResponse `json:"options"`
	Points  int              `json:"points"`
}

// ParticipationSummary annotates a listed contest with the viewer's own attempt.
type ParticipationSummary struct {
	Joined    bool `json:"joined"`
	Completed bool `json:"completed"`
	Score     int  `json:"score"`
	Rank      *int `json:"rank,omitempty"`
}

// ContestResponse is returned to API clients when viewing contests.
type ContestResponse struct {
	ID                  uint                  `json:"id"`
	Name                string                `json:"name"`
	Description         string                `json:"description"`
	Tier                string                `json:"tier"`
	StartTime           time.Time             `json:"start_time"`
	EndTime             time.Time             `json:"end_time"`
	Prize               string                `json:"prize"`
	Status              string                `json:"status"`
	MaxParticipants     int                   `json:"max_participants"`
	CurrentParticipants int                   `json:"current_participants"`
	QuestionCount       int                   `json:"question_count"`
	Questions           []QuestionResponse    `json:"questions,omitempty"`
	Participation       *ParticipationSummary `json:"participation,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// NewContestResponse converts a Contest model into a DTO. The status reflects
// the override-aware effective status at the supplied instant.
func NewContestResponse(model models.Contest, now time.Time) ContestResponse {
	return ContestResponse{
		ID:                  model.ID,
		Name:                model.Name,
		Description:         model.Description,
		Tier:                model.Tier,
		StartTime:           model.StartTime,
		EndTime:             model.EndTime,
		Prize:               model.Prize,
		Status:              model.EffectiveStatus(now),
		MaxParticipants:     model.MaxParticipants,
		CurrentParticipants: model.CurrentParticipants,
		QuestionCount:       len(model.Questions),
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

// NewQuestionResponses converts the embedded question list. Correctness flags
// are stripped unless includeAnswers is set.
func NewQuestionResponses(questions []models.Question, includeAnswers bool) []QuestionResponse {
	responses := make([]QuestionResponse, 0, len(questions))
	for i, question := range questions {
		options := make([]OptionResponse, 0, len(question.Options))
		for _, option := range question.Options {
			response := OptionResponse{Text: option.Text}
			if includeAnswers {
				isCorrect := option.IsCorrect
				response.IsCorrect = &isCorrect
			}
			options = append(options, response)
		}

		responses = append(responses, QuestionResponse{
			Index:   i,
			Text:    question.Text,
			Type:    question.Type,
			Options: options,
			Points:  question.Points,
		})
	}

	return responses
}

// ToModel converts a question payload into the embedded model form.
func (p QuestionPayload) ToModel() models.Question {
	options := make([]models.Option, 0, len(p.Options))
	for _, option := range p.Options {
		options = append(options, models.Option{
			Text:      option.Text,
			IsCorrect: option.IsCorrect,
		})
	}

	return models.Question{
		Text:    p.Text,
		Type:    p.Type,
		Options: options,
		Points:  p.Points,
	}
}
