package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

// ErrContestNotFound indicates the referenced contest is missing or inactive.
var ErrContestNotFound = errors.New("contest not found")

// ErrContestLocked indicates a mutation was attempted after the contest opened.
var ErrContestLocked = errors.New("contest is locked for this mutation")

// ErrContestHasParticipants indicates a delete was attempted on a contest with history.
var ErrContestHasParticipants = errors.New("contest has participants")

// ErrInvalidState indicates an illegal status transition request.
var ErrInvalidState = errors.New("invalid contest status")

// ErrInvalidSchedule indicates the contest window is malformed.
var ErrInvalidSchedule = errors.New("contest end time must be after start time")

// ErrInvalidQuestion indicates a question definition violates its invariants.
var ErrInvalidQuestion = errors.New("invalid question")

// ErrQuestionNotFound indicates a question index out of range.
var ErrQuestionNotFound = errors.New("question not found")

// ErrInvalidCapacity indicates the capacity would drop below current participants.
var ErrInvalidCapacity = errors.New("capacity below current participant count")

// ContestService exposes administrative contest management.
type ContestService interface {
	Create(ctx context.Context, payload dto.ContestCreateRequest) (dto.ContestResponse, error)
	Update(ctx context.Context, id uint, payload dto.ContestUpdateRequest) (dto.ContestResponse, error)
	Delete(ctx context.Context, id uint) error
	SetStatus(ctx context.Context, id uint, status string) (dto.ContestResponse, error)
	AddQuestion(ctx context.Context, id uint, payload dto.QuestionPayload) (dto.ContestResponse, error)
	UpdateQuestion(ctx context.Context, id uint, index int, payload dto.QuestionPayload) (dto.ContestResponse, error)
	DeleteQuestion(ctx context.Context, id uint, index int) (dto.ContestResponse, error)
}

type contestService struct {
	contests       repository.ContestRepository
	participations repository.ParticipationRepository
	validator      *validator.Validate
	sanitizer      *bluemonday.Policy
	logger         zerolog.Logger
	now            func() time.Time
}

// NewContestService constructs a ContestService instance.
func NewContestService(contestRepo repository.ContestRepository, participationRepo repository.ParticipationRepository, validate *validator.Validate, logger zerolog.Logger) ContestService {
	return &contestService{
		contests:       contestRepo,
		participations: participationRepo,
		validator:      validate,
		sanitizer:      bluemonday.UGCPolicy(),
		logger:         logger.With().Str("component", "contest_service").Logger(),
		now:            time.Now,
	}
}

func (s *contestService) Create(ctx context.Context, payload dto.ContestCreateRequest) (dto.ContestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ContestResponse{}, err
	}

	startTime, err := time.Parse(time.RFC3339, payload.StartTime)
	if err != nil {
		return dto.ContestResponse{}, fmt.Errorf("invalid start time: %w", err)
	}
	endTime, err := time.Parse(time.RFC3339, payload.EndTime)
	if err != nil {
		return dto.ContestResponse{}, fmt.Errorf("invalid end time: %w", err)
	}
	if !endTime.After(startTime) {
		return dto.ContestResponse{}, ErrInvalidSchedule
	}

	questions, err := s.buildQuestions(payload.Questions)
	if err != nil {
		return dto.ContestResponse{}, err
	}

	tier := payload.Tier
	if tier == "" {
		tier = models.ContestTierNormal
	}

	now := s.now()
	contest := models.Contest{
		Name:            s.sanitizeText(payload.Name),
		Description:     s.sanitizeText(payload.Description),
		Tier:            tier,
		StartTime:       startTime,
		EndTime:         endTime,
		Prize:           s.sanitizeText(payload.Prize),
		Questions:       datatypes.NewJSONSlice(questions),
		MaxParticipants: payload.MaxParticipants,
		IsActive:        true,
	}
	contest.Status = contest.DeriveStatus(now)

	if err := s.contests.Create(ctx, &contest); err != nil {
		return dto.ContestResponse{}, err
	}

	s.logger.Info().Uint("contest_id", contest.ID).Str("tier", contest.Tier).Msg("contest created")

	response := dto.NewContestResponse(contest, now)
	response.Questions = dto.NewQuestionResponses(contest.Questions, true)
	return response, nil
}

func (s *contestService) Update(ctx context.Context, id uint, payload dto.ContestUpdateRequest) (dto.ContestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ContestResponse{}, err
	}

	contest, err := s.getContest(ctx, id)
	if err != nil {
		return dto.ContestResponse{}, err
	}

	now := s.now()
	fullMutation := contest.CanMutateFull(now)

	touchesLocked := payload.Name != nil || payload.Tier != nil ||
		payload.StartTime != nil || payload.EndTime != nil || payload.Questions != nil
	if touchesLocked && !fullMutation {
		return dto.ContestResponse{}, ErrContestLocked
	}

	fields := make([]string, 0, 9)
	if payload.Name != nil {
		contest.Name = s.sanitizeText(*payload.Name)
		fields = append(fields, "name")
	}
	if payload.Description != nil {
		contest.Description = s.sanitizeText(*payload.Description)
		fields = append(fields, "description")
	}
	if payload.Tier != nil {
		contest.Tier = *payload.Tier
		fields = append(fields, "tier")
	}
	if payload.Prize != nil {
		contest.Prize = s.sanitizeText(*payload.Prize)
		fields = append(fields, "prize")
	}
	if payload.StartTime != nil {
		startTime, err := time.Parse(time.RFC3339, *payload.StartTime)
		if err != nil {
			return dto.ContestResponse{}, fmt.Errorf("invalid start time: %w", err)
		}
		contest.StartTime = startTime
		fields = append(fields, "start_time")
	}
	if payload.EndTime != nil {
		endTime, err := time.Parse(time.RFC3339, *payload.EndTime)
		if err != nil {
			return dto.ContestResponse{}, fmt.Errorf("invalid end time: %w", err)
		}
		contest.EndTime = endTime
		fields = append(fields, "end_time")
	}
	if !contest.EndTime.After(contest.StartTime) {
		return dto.ContestResponse{}, ErrInvalidSchedule
	}
	if payload.MaxParticipants != nil {
		if *payload.MaxParticipants < contest.CurrentParticipants {
			return dto.ContestResponse{}, ErrInvalidCapacity
		}
		contest.MaxParticipants = *payload.MaxParticipants
		fields = append(fields, "max_participants")
	}
	if payload.Questions != nil {
		questions, err := s.buildQuestions(payload.Questions)
		if err != nil {
			return dto.ContestResponse{}, err
		}
		contest.Questions = datatypes.NewJSONSlice(questions)
		fields = append(fields, "questions")
	}

	if !contest.StatusOverride {
		contest.Status = contest.DeriveStatus(now)
		fields = append(fields, "status")
	}

	if err := s.contests.Update(ctx, &contest, fields...); err != nil {
		return dto.ContestResponse{}, err
	}

	response := dto.NewContestResponse(contest, now)
	response.Questions = dto.NewQuestionResponses(contest.Questions, true)
	return response, nil
}

func (s *contestService) Delete(ctx context.Context, id uint) error {
	contest, err := s.getContest(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.participations.CountByContest(ctx, contest.ID)
	if err != nil {
		return err
	}
	if !contest.CanDelete(count) {
		return ErrContestHasParticipants
	}

	if err := s.contests.Deactivate(ctx, contest.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContestNotFound
		}
		return err
	}

	s.logger.Info().Uint("contest_id", contest.ID).Msg("contest deactivated")
	return nil
}

// SetStatus forces a contest into an explicit status. The transition is not
// validated against the clock: administrators may pause or abort a contest by
// overriding its natural status.
func (s *contestService) SetStatus(ctx context.Context, id uint, status string) (dto.ContestResponse, error) {
	if !models.ValidStatus(status) {
		return dto.ContestResponse{}, ErrInvalidState
	}

	contest, err := s.getContest(ctx, id)
	if err != nil {
		return dto.ContestResponse{}, err
	}

	if err := s.contests.UpdateStatus(ctx, contest.ID, status, true); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ContestResponse{}, ErrContestNotFound
		}
		return dto.ContestResponse{}, err
	}

	contest.Status = status
	contest.StatusOverride = true

	s.logger.Info().Uint("contest_id", contest.ID).Str("status", status).Msg("contest status overridden")
	return dto.NewContestResponse(contest, s.now()), nil
}

func (s *contestService) AddQuestion(ctx context.Context, id uint, payload dto.QuestionPayload) (dto.ContestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ContestResponse{}, err
	}

	return s.mutateQuestions(ctx, id, func(questions []models.Question) ([]models.Question, error) {
		question, err := s.buildQuestion(payload)
		if err != nil {
			return nil, err
		}
		return append(questions, question), nil
	})
}

func (s *contestService) UpdateQuestion(ctx context.Context, id uint, index int, payload dto.QuestionPayload) (dto.ContestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ContestResponse{}, err
	}

	return s.mutateQuestions(ctx, id, func(questions []models.Question) ([]models.Question, error) {
		if index < 0 || index >= len(questions) {
			return nil, ErrQuestionNotFound
		}
		question, err := s.buildQuestion(payload)
		if err != nil {
			return nil, err
		}
		questions[index] = question
		return questions, nil
	})
}

func (s *contestService) DeleteQuestion(ctx context.Context, id uint, index int) (dto.ContestResponse, error) {
	return s.mutateQuestions(ctx, id, func(questions []models.Question) ([]models.Question, error) {
		if index < 0 || index >= len(questions) {
			return nil, ErrQuestionNotFound
		}
		if len(questions) == 1 {
			return nil, fmt.Errorf("%w: contest requires at least one question", ErrInvalidQuestion)
		}
		return append(questions[:index], questions[index+1:]...), nil
	})
}

func (s *contestService) mutateQuestions(ctx context.Context, id uint, mutate func([]models.Question) ([]models.Question, error)) (dto.ContestResponse, error) {
	contest, err := s.getContest(ctx, id)
	if err != nil {
		return dto.ContestResponse{}, err
	}

	now := s.now()
	if !contest.CanMutateQuestions(now) {
		return dto.ContestResponse{}, ErrContestLocked
	}

	questions, err := mutate([]models.Question(contest.Questions))
	if err != nil {
		return dto.ContestResponse{}, err
	}
	contest.Questions = datatypes.NewJSONSlice(questions)

	if err := s.contests.Update(ctx, &contest, "questions"); err != nil {
		return dto.ContestResponse{}, err
	}

	response := dto.NewContestResponse(contest, now)
	response.Questions = dto.NewQuestionResponses(contest.Questions, true)
	return response, nil
}

func (s *contestService) getContest(ctx context.Context, id uint) (models.Contest, error) {
	contest, err := s.contests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Contest{}, ErrContestNotFound
		}
		return models.Contest{}, err
	}
	if !contest.IsActive {
		return models.Contest{}, ErrContestNotFound
	}

	return contest, nil
}

func (s *contestService) buildQuestions(payloads []dto.QuestionPayload) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(payloads))
	for _, payload := range payloads {
		question, err := s.buildQuestion(payload)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}

	return questions, nil
}

func (s *contestService) buildQuestion(payload dto.QuestionPayload) (models.Question, error) {
	question := payload.ToModel()
	question.Text = s.sanitizeText(question.Text)
	for i := range question.Options {
		question.Options[i].Text = s.sanitizeText(question.Options[i].Text)
	}

	if err := question.Validate(); err != nil {
		return models.Question{}, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}

	return question, nil
}

func (s *contestService) sanitizeText(input string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(input))
}
