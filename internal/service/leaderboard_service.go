package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

// LeaderboardService produces contest rankings.
type LeaderboardService interface {
	Leaderboard(ctx context.Context, contestID uint, limit int) (dto.LeaderboardResponse, error)
	RankOf(ctx context.Context, userID, contestID uint) (dto.RankResponse, error)
}

type leaderboardService struct {
	participations repository.ParticipationRepository
	cache          *redis.Client
	cacheTTL       time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

// NewLeaderboardService builds the ranking aggregator.
func NewLeaderboardService(participationRepo repository.ParticipationRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) LeaderboardService {
	return &leaderboardService{
		participations: participationRepo,
		cache:          cache,
		cacheTTL:       ttl,
		logger:         logger.With().Str("component", "leaderboard_service").Logger(),
		now:            time.Now,
	}
}

// Leaderboard returns completed participations ordered by score descending,
// then submission time ascending. Ranks are 1-based and assigned by position.
func (s *leaderboardService) Leaderboard(ctx context.Context, contestID uint, limit int) (dto.LeaderboardResponse, error) {
	cacheKey := fmt.Sprintf("leaderboard:contest:%d:limit:%d", contestID, limit)
	tracer := otel.Tracer("github.com/noah-isme/arena-go-api/internal/service/leaderboard")
	ctx, span := tracer.Start(ctx, "leaderboard.rank",
		trace.WithAttributes(attribute.Int64("contest.id", int64(contestID))))
	defer span.End()

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.LeaderboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("leaderboard.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard cache")
			span.RecordError(err)
		}
	}

	participations, err := s.participations.ListCompleted(ctx, contestID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_completed_failed")
		return dto.LeaderboardResponse{}, err
	}

	response := dto.LeaderboardResponse{
		ContestID: contestID,
		Entries:   dto.NewLeaderboardEntries(participations),
	}
	span.SetAttributes(attribute.Int("leaderboard.entries", len(response.Entries)))

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store leaderboard cache")
				span.RecordError(err)
			}
		}
	}

	return response, nil
}

// RankOf computes a single user's rank without materializing the full list:
// 1 + count of completed participations strictly ahead under the tie-break
// rule (higher score, or equal score submitted earlier).
func (s *leaderboardService) RankOf(ctx context.Context, userID, contestID uint) (dto.RankResponse, error) {
	participation, err := s.participations.GetByUserAndContest(ctx, userID, contestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RankResponse{}, ErrParticipationNotFound
		}
		return dto.RankResponse{}, err
	}

	if !participation.IsCompleted || participation.SubmittedAt == nil {
		return dto.RankResponse{}, ErrParticipationNotFound
	}

	ahead, err := s.participations.CountAhead(ctx, contestID, participation.Score, *participation.SubmittedAt)
	if err != nil {
		return dto.RankResponse{}, err
	}

	return dto.RankResponse{
		ContestID: contestID,
		UserID:    userID,
		Rank:      int(ahead) + 1,
		Score:     participation.Score,
	}, nil
}
