package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/service"
	"github.com/noah-isme/arena-go-api/internal/utils"
)

// ParticipationHandler manages join and submission endpoints.
type ParticipationHandler struct {
	service service.ParticipationService
	logger  zerolog.Logger
}

// NewParticipationHandler builds a participation handler instance.
func NewParticipationHandler(service service.ParticipationService, logger zerolog.Logger) *ParticipationHandler {
	return &ParticipationHandler{
		service: service,
		logger:  logger.With().Str("component", "participation_handler").Logger(),
	}
}

// Register attaches the routes to the provided contest router group. The
// rateLimiter guards the two mutating endpoints when provided.
func (h *ParticipationHandler) Register(router fiber.Router, rateLimiter fiber.Handler) {
	if rateLimiter == nil {
		rateLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Post("/:id/join", rateLimiter, h.join)
	router.Post("/:id/submit", rateLimiter, h.submit)
	router.Get("/:id/participation", h.getOwn)
}

func (h *ParticipationHandler) join(c *fiber.Ctx) error {
	contestID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	participation, err := h.service.Join(c.Context(), userID, userRoleFromContext(c), contestID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "contest joined", participation)
}

func (h *ParticipationHandler) submit(c *fiber.Ctx) error {
	contestID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	summary, err := h.service.Submit(c.Context(), userID, contestID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", summary)
}

func (h *ParticipationHandler) getOwn(c *fiber.Ctx) error {
	contestID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	participation, err := h.service.GetOwn(c.Context(), userID, contestID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "participation retrieved", participation)
}

func (h *ParticipationHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrContestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "contest not found")
	case errors.Is(err, service.ErrParticipationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "participation not found")
	case errors.Is(err, service.ErrAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrContestNotOpen):
		return utils.SendError(c, fiber.StatusConflict, "contest is not open")
	case errors.Is(err, service.ErrContestFull):
		return utils.SendError(c, fiber.StatusConflict, "contest is full")
	case errors.Is(err, service.ErrAlreadyJoined):
		return utils.SendError(c, fiber.StatusConflict, "already joined")
	case errors.Is(err, service.ErrAlreadyCompleted):
		return utils.SendError(c, fiber.StatusConflict, "submission already completed")
	case errors.Is(err, service.ErrContestEnded):
		return utils.SendError(c, fiber.StatusConflict, "contest has ended")
	case errors.Is(err, service.ErrAnswerCountMismatch):
		return utils.SendError(c, fiber.StatusBadRequest, "answer count mismatch")
	case errors.Is(err, service.ErrInvalidAnswer):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
