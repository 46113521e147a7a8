package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

// Viewer identifies the caller of a catalog request. Anonymous viewers carry
// a zero UserID and an empty role.
type Viewer struct {
	UserID        uint
	Role          string
	Authenticated bool
}

// CatalogService lists and resolves contests visible to a viewer.
type CatalogService interface {
	List(ctx context.Context, viewer Viewer, filter dto.ContestListRequest) ([]dto.ContestResponse, error)
	Get(ctx context.Context, viewer Viewer, contestID uint) (dto.ContestResponse, error)
}

type catalogService struct {
	contests       repository.ContestRepository
	participations repository.ParticipationRepository
	validator      *validator.Validate
	logger         zerolog.Logger
	now            func() time.Time
}

// NewCatalogService constructs a CatalogService instance.
func NewCatalogService(contestRepo repository.ContestRepository, participationRepo repository.ParticipationRepository, validate *validator.Validate, logger zerolog.Logger) CatalogService {
	return &catalogService{
		contests:       contestRepo,
		participations: participationRepo,
		validator:      validate,
		logger:         logger.With().Str("component", "catalog_service").Logger(),
		now:            time.Now,
	}
}

func (s *catalogService) List(ctx context.Context, viewer Viewer, filter dto.ContestListRequest) ([]dto.ContestResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	vipVisible := CanAccessTier(models.ContestTierVIP, viewer.Role)

	tiers := []string{models.ContestTierNormal}
	if vipVisible {
		tiers = append(tiers, models.ContestTierVIP)
	}

	if filter.Tier != nil {
		requested := *filter.Tier
		// A VIP request from a lower-tier or anonymous caller is silently
		// served the NORMAL list rather than rejected.
		if requested == models.ContestTierVIP && !vipVisible {
			requested = models.ContestTierNormal
		}
		tiers = []string{requested}
	}

	contests, err := s.contests.List(ctx, repository.ContestFilter{Tiers: tiers})
	if err != nil {
		return nil, err
	}

	now := s.now()
	visible := make([]models.Contest, 0, len(contests))
	for _, contest := range contests {
		if filter.Status != nil && contest.EffectiveStatus(now) != *filter.Status {
			continue
		}
		visible = append(visible, contest)
	}

	summaries, err := s.participationSummaries(ctx, viewer, visible)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ContestResponse, 0, len(visible))
	for _, contest := range visible {
		response := dto.NewContestResponse(contest, now)
		if summary, ok := summaries[contest.ID]; ok {
			response.Participation = summary
		}
		responses = append(responses, response)
	}

	return responses, nil
}

func (s *catalogService) Get(ctx context.Context, viewer Viewer, contestID uint) (dto.ContestResponse, error) {
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ContestResponse{}, ErrContestNotFound
		}
		return dto.ContestResponse{}, err
	}
	if !contest.IsActive {
		return dto.ContestResponse{}, ErrContestNotFound
	}

	if !CanAccessTier(contest.Tier, viewer.Role) {
		return dto.ContestResponse{}, ErrContestNotFound
	}

	now := s.now()
	response := dto.NewContestResponse(contest, now)
	response.Questions = dto.NewQuestionResponses(contest.Questions, viewer.Role == RoleAdmin)

	summaries, err := s.participationSummaries(ctx, viewer, []models.Contest{contest})
	if err != nil {
		return dto.ContestResponse{}, err
	}
	if summary, ok := summaries[contest.ID]; ok {
		response.Participation = summary
	}

	return response, nil
}

// participationSummaries performs the read-side join annotating contests with
// the viewer's own attempt, when one exists.
func (s *catalogService) participationSummaries(ctx context.Context, viewer Viewer, contests []models.Contest) (map[uint]*dto.ParticipationSummary, error) {
	if !viewer.Authenticated || len(contests) == 0 {
		return nil, nil
	}

	contestIDs := make([]uint, 0, len(contests))
	for _, contest := range contests {
		contestIDs = append(contestIDs, contest.ID)
	}

	participations, err := s.participations.ListByUser(ctx, viewer.UserID, contestIDs)
	if err != nil {
		return nil, err
	}

	summaries := make(map[uint]*dto.ParticipationSummary, len(participations))
	for _, participation := range participations {
		summary := &dto.ParticipationSummary{
			Joined:    true,
			Completed: participation.IsCompleted,
			Score:     participation.Score,
		}

		if participation.IsCompleted && participation.SubmittedAt != nil {
			ahead, err := s.participations.CountAhead(ctx, participation.ContestID, participation.Score, *participation.SubmittedAt)
			if err != nil {
				return nil, err
			}
			rank := int(ahead) + 1
			summary.Rank = &rank
		}

		summaries[participation.ContestID] = summary
	}

	return summaries, nil
}
