package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

// ErrContestNotEnded indicates prize issuance was requested before the contest closed.
var ErrContestNotEnded = errors.New("contest has not ended")

// ErrPrizeNotFound indicates no prize record exists for the user and contest.
var ErrPrizeNotFound = errors.New("prize record not found")

// ErrPrizeAlreadyAwarded indicates the prize was already handed out.
var ErrPrizeAlreadyAwarded = errors.New("prize already awarded")

// PrizeService converts leaderboard output into prize records. The leaderboard
// is the sole input; records never feed back into ranking.
type PrizeService interface {
	Issue(ctx context.Context, contestID uint) ([]dto.PrizeRecordResponse, error)
	Award(ctx context.Context, contestID, userID uint) (dto.PrizeRecordResponse, error)
	ListByContest(ctx context.Context, contestID uint) ([]dto.PrizeRecordResponse, error)
}

type prizeService struct {
	contests       repository.ContestRepository
	participations repository.ParticipationRepository
	prizes         repository.PrizeRepository
	logger         zerolog.Logger
	now            func() time.Time
}

// NewPrizeService constructs a PrizeService instance.
func NewPrizeService(contestRepo repository.ContestRepository, participationRepo repository.ParticipationRepository, prizeRepo repository.PrizeRepository, logger zerolog.Logger) PrizeService {
	return &prizeService{
		contests:       contestRepo,
		participations: participationRepo,
		prizes:         prizeRepo,
		logger:         logger.With().Str("component", "prize_service").Logger(),
		now:            time.Now,
	}
}

func (s *prizeService) Issue(ctx context.Context, contestID uint) ([]dto.PrizeRecordResponse, error) {
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}

	if contest.EffectiveStatus(s.now()) != models.ContestStatusEnded {
		return nil, ErrContestNotEnded
	}

	// Records for this contest are write-once: once any exist, reissuing
	// just returns the standing set without re-reading the leaderboard.
	issued, err := s.prizes.CountByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if issued > 0 {
		return s.ListByContest(ctx, contestID)
	}

	participations, err := s.participations.ListCompleted(ctx, contestID, 0)
	if err != nil {
		return nil, err
	}

	records := make([]models.PrizeRecord, 0, len(participations))
	for i, participation := range participations {
		records = append(records, models.PrizeRecord{
			ContestID: contestID,
			UserID:    participation.UserID,
			Rank:      i + 1,
			Score:     participation.Score,
			Status:    models.PrizeStatusPending,
		})
	}

	if err := s.prizes.CreateBatch(ctx, records); err != nil {
		return nil, err
	}

	s.logger.Info().Uint("contest_id", contestID).Int("records", len(records)).Msg("prizes issued")
	return s.ListByContest(ctx, contestID)
}

// Award marks a single pending prize as handed out. The transition is one-way:
// awarded records stay awarded.
func (s *prizeService) Award(ctx context.Context, contestID, userID uint) (dto.PrizeRecordResponse, error) {
	record, err := s.prizes.GetByUserAndContest(ctx, contestID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PrizeRecordResponse{}, ErrPrizeNotFound
		}
		return dto.PrizeRecordResponse{}, err
	}

	if record.IsAwarded() {
		return dto.PrizeRecordResponse{}, ErrPrizeAlreadyAwarded
	}

	awardedAt := s.now()
	if err := s.prizes.MarkAwarded(ctx, contestID, userID, awardedAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Raced with a concurrent award of the same record.
			return dto.PrizeRecordResponse{}, ErrPrizeAlreadyAwarded
		}
		return dto.PrizeRecordResponse{}, err
	}

	record.Status = models.PrizeStatusAwarded
	record.AwardedAt = &awardedAt

	s.logger.Info().Uint("contest_id", contestID).Uint("user_id", userID).Msg("prize awarded")
	return dto.NewPrizeRecordResponse(record), nil
}

func (s *prizeService) ListByContest(ctx context.Context, contestID uint) ([]dto.PrizeRecordResponse, error) {
	records, err := s.prizes.ListByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	return dto.NewPrizeRecordResponses(records), nil
}
