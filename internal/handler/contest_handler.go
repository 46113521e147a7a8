package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/service"
	"github.com/noah-isme/arena-go-api/internal/utils"
)

// ContestHandler serves the public contest catalog.
type ContestHandler struct {
	catalog service.CatalogService
	logger  zerolog.Logger
}

// NewContestHandler builds a contest catalog handler instance.
func NewContestHandler(catalog service.CatalogService, logger zerolog.Logger) *ContestHandler {
	return &ContestHandler{
		catalog: catalog,
		logger:  logger.With().Str("component", "contest_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ContestHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

func (h *ContestHandler) list(c *fiber.Ctx) error {
	filter := dto.ContestListRequest{}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if tier := c.Query("tier"); tier != "" {
		filter.Tier = &tier
	}

	contests, err := h.catalog.List(c.Context(), viewerFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "contests retrieved", contests)
}

func (h *ContestHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid contest id")
	}

	contest, err := h.catalog.Get(c.Context(), viewerFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "contest retrieved", contest)
}

func (h *ContestHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrContestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "contest not found")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
