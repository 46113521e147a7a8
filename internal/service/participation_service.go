package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/observability"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

// ErrParticipationNotFound indicates no participation exists for the pair.
var ErrParticipationNotFound = errors.New("participation not found")

// ErrAccessDenied indicates the viewer's tier does not admit the contest.
var ErrAccessDenied = errors.New("access denied")

// ErrContestNotOpen indicates the contest is outside its joinable window.
var ErrContestNotOpen = errors.New("contest is not open")

// ErrContestFull indicates the participant capacity has been reached.
var ErrContestFull = errors.New("contest is full")

// ErrAlreadyJoined indicates a second join attempt for the same pair.
var ErrAlreadyJoined = errors.New("already joined")

// ErrAlreadyCompleted indicates a second submission for a scored participation.
var ErrAlreadyCompleted = errors.New("submission already completed")

// ErrContestEnded indicates a submission after the contest window closed.
var ErrContestEnded = errors.New("contest has ended")

// ErrAnswerCountMismatch indicates the sheet does not cover every question.
var ErrAnswerCountMismatch = errors.New("answer count mismatch")

// ErrInvalidAnswer indicates a structural or type-specific answer violation.
var ErrInvalidAnswer = errors.New("invalid answer")

// Identity roles supplied by the identity provider.
const (
	RoleNormal = "normal"
	RoleVIP    = "vip"
	RoleAdmin  = "admin"
)

// ParticipationService runs the join/submit protocol.
type ParticipationService interface {
	Join(ctx context.Context, userID uint, userRole string, contestID uint) (dto.ParticipationResponse, error)
	Submit(ctx context.Context, userID, contestID uint, payload dto.SubmitRequest) (dto.ScoreSummaryResponse, error)
	GetOwn(ctx context.Context, userID, contestID uint) (dto.ParticipationResponse, error)
}

type participationService struct {
	contests       repository.ContestRepository
	participations repository.ParticipationRepository
	validator      *validator.Validate
	logger         zerolog.Logger
	now            func() time.Time
}

// NewParticipationService constructs a ParticipationService instance.
func NewParticipationService(contestRepo repository.ContestRepository, participationRepo repository.ParticipationRepository, validate *validator.Validate, logger zerolog.Logger) ParticipationService {
	return &participationService{
		contests:       contestRepo,
		participations: participationRepo,
		validator:      validate,
		logger:         logger.With().Str("component", "participation_service").Logger(),
		now:            time.Now,
	}
}

// CanAccessTier reports whether an identity role admits a contest tier.
func CanAccessTier(contestTier, userRole string) bool {
	if contestTier != models.ContestTierVIP {
		return true
	}
	return userRole == RoleVIP || userRole == RoleAdmin
}

func (s *participationService) Join(ctx context.Context, userID uint, userRole string, contestID uint) (dto.ParticipationResponse, error) {
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ParticipationResponse{}, ErrContestNotFound
		}
		return dto.ParticipationResponse{}, err
	}
	if !contest.IsActive {
		return dto.ParticipationResponse{}, ErrContestNotFound
	}

	if !CanAccessTier(contest.Tier, userRole) {
		return dto.ParticipationResponse{}, ErrAccessDenied
	}

	// Fast-path uniqueness read; the store constraint remains the authority
	// under concurrent joins.
	if _, err := s.participations.GetByUserAndContest(ctx, userID, contestID); err == nil {
		return dto.ParticipationResponse{}, ErrAlreadyJoined
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ParticipationResponse{}, err
	}

	now := s.now()
	if now.Before(contest.StartTime) || now.After(contest.EndTime) {
		return dto.ParticipationResponse{}, ErrContestNotOpen
	}
	if contest.EffectiveStatus(now) != models.ContestStatusOngoing {
		return dto.ParticipationResponse{}, ErrContestNotOpen
	}

	if contest.CurrentParticipants >= contest.MaxParticipants {
		return dto.ParticipationResponse{}, ErrContestFull
	}

	participation := models.Participation{
		ContestID:      contest.ID,
		UserID:         userID,
		JoinedAt:       now,
		TotalQuestions: len(contest.Questions),
	}

	if err := s.participations.CreateWithinCapacity(ctx, &participation); err != nil {
		switch {
		case errors.Is(err, repository.ErrCapacityExceeded):
			observability.ContestJoins().WithLabelValues("full").Inc()
			return dto.ParticipationResponse{}, ErrContestFull
		case errors.Is(err, gorm.ErrDuplicatedKey):
			observability.ContestJoins().WithLabelValues("duplicate").Inc()
			return dto.ParticipationResponse{}, ErrAlreadyJoined
		default:
			return dto.ParticipationResponse{}, err
		}
	}

	observability.ContestJoins().WithLabelValues("ok").Inc()
	s.logger.Info().Uint("contest_id", contestID).Uint("user_id", userID).Msg("user joined contest")
	return dto.NewParticipationResponse(participation), nil
}

func (s *participationService) Submit(ctx context.Context, userID, contestID uint, payload dto.SubmitRequest) (dto.ScoreSummaryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ScoreSummaryResponse{}, err
	}

	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScoreSummaryResponse{}, ErrContestNotFound
		}
		return dto.ScoreSummaryResponse{}, err
	}

	participation, err := s.participations.GetByUserAndContest(ctx, userID, contestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScoreSummaryResponse{}, ErrParticipationNotFound
		}
		return dto.ScoreSummaryResponse{}, err
	}

	if participation.IsCompleted {
		return dto.ScoreSummaryResponse{}, ErrAlreadyCompleted
	}

	// The override-aware status governs submissions the same way it governs
	// joins: a force-ended contest stops accepting sheets mid-window.
	now := s.now()
	if now.After(contest.EndTime) || contest.EffectiveStatus(now) != models.ContestStatusOngoing {
		return dto.ScoreSummaryResponse{}, ErrContestEnded
	}

	questions := []models.Question(contest.Questions)
	if len(payload.Answers) != len(questions) {
		return dto.ScoreSummaryResponse{}, ErrAnswerCountMismatch
	}

	answers := make([]models.AnswerRecord, 0, len(payload.Answers))
	for _, answer := range payload.Answers {
		answers = append(answers, models.AnswerRecord{
			QuestionIndex:   answer.QuestionIndex,
			SelectedOptions: answer.SelectedOptions,
		})
	}

	if err := validateAnswerSheet(questions, answers); err != nil {
		return dto.ScoreSummaryResponse{}, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}

	graded, score, correctCount, wrongCount := gradeAnswers(questions, answers)

	participation.Answers = datatypes.NewJSONSlice(graded)
	participation.Score = score
	participation.CorrectCount = correctCount
	participation.WrongCount = wrongCount
	participation.SubmittedAt = &now
	participation.TimeTakenSeconds = participation.ElapsedSeconds(now)
	participation.IsCompleted = true

	if err := s.participations.FinalizeSubmission(ctx, &participation); err != nil {
		if errors.Is(err, repository.ErrAlreadyFinalized) {
			return dto.ScoreSummaryResponse{}, ErrAlreadyCompleted
		}
		return dto.ScoreSummaryResponse{}, err
	}

	observability.ContestSubmissions().WithLabelValues("ok").Inc()
	s.logger.Info().
		Uint("contest_id", contestID).
		Uint("user_id", userID).
		Int("score", score).
		Msg("submission graded")

	return dto.ScoreSummaryResponse{
		ContestID:        contestID,
		Score:            score,
		CorrectCount:     correctCount,
		WrongCount:       wrongCount,
		TotalQuestions:   participation.TotalQuestions,
		TimeTakenSeconds: participation.TimeTakenSeconds,
		SubmittedAt:      now,
	}, nil
}

func (s *participationService) GetOwn(ctx context.Context, userID, contestID uint) (dto.ParticipationResponse, error) {
	participation, err := s.participations.GetByUserAndContest(ctx, userID, contestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ParticipationResponse{}, ErrParticipationNotFound
		}
		return dto.ParticipationResponse{}, err
	}

	return dto.NewParticipationResponse(participation), nil
}
