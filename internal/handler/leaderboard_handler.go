package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/arena-go-api/internal/service"
	"github.com/noah-isme/arena-go-api/internal/utils"
)

// LeaderboardHandler serves contest rankings.
type LeaderboardHandler struct {
	leaderboard service.LeaderboardService
	catalog     service.CatalogService
	logger      zerolog.Logger
}

// NewLeaderboardHandler builds a leaderboard handler instance.
func NewLeaderboardHandler(leaderboard service.LeaderboardService, catalog service.CatalogService, logger zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		catalog:     catalog,
		logger:      logger.With().Str("component", "leaderboard_handler").Logger(),
	}
}

// Register attaches the routes to the provided contest router group.
func (h *LeaderboardHandler) Register(router fiber.Router) {
	router.Get("/:id/leaderboard", h.leaderboardFor)
	router.Get("/:id/rank", h.rank)
}

func (h *LeaderboardHandler) leaderboardFor(c *fiber.Ctx) error {
	contestID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	// Catalog resolution enforces tier visibility; a VIP contest is simply
	// not found for callers outside the tier.
	if _, err := h.catalog.Get(c.Context(), viewerFromContext(c), contestID); err != nil {
		return h.handleError(c, err)
	}

	leaderboard, err := h.leaderboard.Leaderboard(c.Context(), contestID, limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "leaderboard retrieved", leaderboard)
}

func (h *LeaderboardHandler) rank(c *fiber.Ctx) error {
	contestID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	rank, err := h.leaderboard.RankOf(c.Context(), userID, contestID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rank retrieved", rank)
}

func (h *LeaderboardHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrContestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "contest not found")
	case errors.Is(err, service.ErrParticipationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "no completed participation")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
