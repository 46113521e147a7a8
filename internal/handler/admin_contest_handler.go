package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/service"
	"github.com/noah-isme/arena-go-api/internal/utils"
)

// AdminContestHandler manages administrative contest endpoints.
type AdminContestHandler struct {
	contests service.ContestService
	prizes   service.PrizeService
	logger   zerolog.Logger
}

// NewAdminContestHandler builds an admin contest handler instance.
func NewAdminContestHandler(contests service.ContestService, prizes service.PrizeService, logger zerolog.Logger) *AdminContestHandler {
	return &AdminContestHandler{
		contests: contests,
		prizes:   prizes,
		logger:   logger.With().Str("component", "admin_contest_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AdminContestHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Patch("/:id/status", h.setStatus)
	router.Post("/:id/questions", h.addQuestion)
	router.Put("/:id/questions/:index", h.updateQuestion)
	router.Delete("/:id/questions/:index", h.deleteQuestion)
	router.Post("/:id/prizes", h.issuePrizes)
	router.Get("/:id/prizes", h.listPrizes)
	router.Patch("/:id/prizes/:user_id/award", h.awardPrize)
}

func (h *AdminContestHandler) create(c *fiber.Ctx) error {
	var payload dto.ContestCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	contest, err := h.contests.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "contest created", contest)
}

func (h *AdminContestHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	var payload dto.ContestUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	contest, err := h.contests.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "contest updated", contest)
}

func (h *AdminContestHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	if err := h.contests.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "contest deleted", nil)
}

func (h *AdminContestHandler) setStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	var payload dto.ContestStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	contest, err := h.contests.SetStatus(c.Context(), id, payload.Status)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "contest status updated", contest)
}

func (h *AdminContestHandler) addQuestion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	var payload dto.QuestionPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	contest, err := h.contests.AddQuestion(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "question added", contest)
}

func (h *AdminContestHandler) updateQuestion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	index, err := parseIntParam(c, "index")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question index")
	}

	var payload dto.QuestionPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	contest, err := h.contests.UpdateQuestion(c.Context(), id, index, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "question updated", contest)
}

func (h *AdminContestHandler) deleteQuestion(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	index, err := parseIntParam(c, "index")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question index")
	}

	contest, err := h.contests.DeleteQuestion(c.Context(), id, index)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "question removed", contest)
}

func (h *AdminContestHandler) issuePrizes(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	records, err := h.prizes.Issue(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "prizes issued", records)
}

func (h *AdminContestHandler) listPrizes(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	records, err := h.prizes.ListByContest(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "prizes retrieved", records)
}

func (h *AdminContestHandler) awardPrize(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	userID, err := parseUintParam(c, "user_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	record, err := h.prizes.Award(c.Context(), id, userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "prize awarded", record)
}

func (h *AdminContestHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrContestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "contest not found")
	case errors.Is(err, service.ErrQuestionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "question not found")
	case errors.Is(err, service.ErrContestLocked):
		return utils.SendError(c, fiber.StatusConflict, "contest is locked for this mutation")
	case errors.Is(err, service.ErrContestHasParticipants):
		return utils.SendError(c, fiber.StatusConflict, "contest has participants")
	case errors.Is(err, service.ErrContestNotEnded):
		return utils.SendError(c, fiber.StatusConflict, "contest has not ended")
	case errors.Is(err, service.ErrPrizeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "prize record not found")
	case errors.Is(err, service.ErrPrizeAlreadyAwarded):
		return utils.SendError(c, fiber.StatusConflict, "prize already awarded")
	case errors.Is(err, service.ErrInvalidState):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest status")
	case errors.Is(err, service.ErrInvalidSchedule):
		return utils.SendError(c, fiber.StatusBadRequest, "contest end time must be after start time")
	case errors.Is(err, service.ErrInvalidQuestion):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCapacity):
		return utils.SendError(c, fiber.StatusBadRequest, "capacity below current participant count")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
