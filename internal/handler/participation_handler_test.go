package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/config"
	"github.com/noah-isme/arena-go-api/internal/dto"
	"github.com/noah-isme/arena-go-api/internal/handler"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
	"github.com/noah-isme/arena-go-api/internal/router"
	"github.com/noah-isme/arena-go-api/internal/service"
)

// headerAuth stands in for the JWT middleware: identity comes from request
// headers so each request can impersonate a different caller.
func headerAuth(c *fiber.Ctx) error {
	if raw := c.Get("X-Test-User"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err == nil && id > 0 {
			c.Locals("user_id", uint(id))
			c.Locals("user_role", c.Get("X-Test-Role"))
		}
	}
	return c.Next()
}

func setupArenaApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:arena_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Contest{}, &models.Participation{}, &models.PrizeRecord{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	contestRepo := repository.NewContestRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	prizeRepo := repository.NewPrizeRepository(db)

	catalogService := service.NewCatalogService(contestRepo, participationRepo, validate, logger)
	participationService := service.NewParticipationService(contestRepo, participationRepo, validate, logger)
	leaderboardService := service.NewLeaderboardService(participationRepo, nil, time.Minute, logger)
	contestService := service.NewContestService(contestRepo, participationRepo, validate, logger)
	prizeService := service.NewPrizeService(contestRepo, participationRepo, prizeRepo, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Arena Test", JWTSecret: "secret"}, router.Dependencies{
		ContestHandler:       handler.NewContestHandler(catalogService, logger),
		ParticipationHandler: handler.NewParticipationHandler(participationService, logger),
		LeaderboardHandler:   handler.NewLeaderboardHandler(leaderboardService, catalogService, logger),
		AdminContestHandler:  handler.NewAdminContestHandler(contestService, prizeService, logger),
		JWTMiddleware:        headerAuth,
		JWTOptional:          headerAuth,
	})

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, payload interface{}, userID uint, role string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(userID), 10))
		req.Header.Set("X-Test-Role", role)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func createArenaContest(t *testing.T, app *fiber.App, payload dto.ContestCreateRequest) dto.ContestResponse {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/api/v2/admin/contests", payload, 1, "admin")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Success bool                `json:"success"`
		Data    dto.ContestResponse `json:"data"`
	}
	decodeResponse(t, resp, &created)
	require.True(t, created.Success)
	return created.Data
}

func openContestPayload(capacity int) dto.ContestCreateRequest {
	now := time.Now()
	return dto.ContestCreateRequest{
		Name:            "Integration Arena",
		Description:     "Two quick questions",
		Tier:            models.ContestTierNormal,
		StartTime:       now.Add(-time.Hour).Format(time.RFC3339),
		EndTime:         now.Add(time.Hour).Format(time.RFC3339),
		Prize:           "Sticker pack",
		MaxParticipants: capacity,
		Questions: []dto.QuestionPayload{
			{
				Text:   "Capital of France?",
				Type:   models.QuestionTypeSingleChoice,
				Points: 10,
				Options: []dto.OptionPayload{
					{Text: "Paris", IsCorrect: true},
					{Text: "Lyon"},
				},
			},
			{
				Text:   "Select the even numbers.",
				Type:   models.QuestionTypeMultiChoice,
				Points: 20,
				Options: []dto.OptionPayload{
					{Text: "2", IsCorrect: true},
					{Text: "3"},
					{Text: "4", IsCorrect: true},
				},
			},
		},
	}
}

func TestJoinSubmitFlow(t *testing.T) {
	app := setupArenaApp(t)
	contest := createArenaContest(t, app, openContestPayload(1))

	joinURL := fmt.Sprintf("/api/v2/contests/%d/join", contest.ID)

	// Anonymous joins are rejected before reaching the service.
	resp := doJSON(t, app, http.MethodPost, joinURL, nil, 0, "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, joinURL, nil, 11, "normal")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var joined struct {
		Data dto.ParticipationResponse `json:"data"`
	}
	decodeResponse(t, resp, &joined)
	require.Equal(t, uint(11), joined.Data.UserID)
	require.Equal(t, 2, joined.Data.TotalQuestions)

	// Second caller finds the single slot taken.
	resp = doJSON(t, app, http.MethodPost, joinURL, nil, 12, "normal")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Re-join by the same user conflicts too.
	resp = doJSON(t, app, http.MethodPost, joinURL, nil, 11, "normal")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	submitURL := fmt.Sprintf("/api/v2/contests/%d/submit", contest.ID)
	sheet := dto.SubmitRequest{Answers: []dto.AnswerPayload{
		{QuestionIndex: 0, SelectedOptions: []int{0}},
		{QuestionIndex: 1, SelectedOptions: []int{2, 0}},
	}}

	resp = doJSON(t, app, http.MethodPost, submitURL, sheet, 11, "normal")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var graded struct {
		Data dto.ScoreSummaryResponse `json:"data"`
	}
	decodeResponse(t, resp, &graded)
	require.Equal(t, 30, graded.Data.Score)
	require.Equal(t, 2, graded.Data.CorrectCount)
	require.Zero(t, graded.Data.WrongCount)

	// The stored result is write-once.
	resp = doJSON(t, app, http.MethodPost, submitURL, sheet, 11, "normal")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v2/contests/%d/participation", contest.ID), nil, 11, "normal")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var own struct {
		Data dto.ParticipationResponse `json:"data"`
	}
	decodeResponse(t, resp, &own)
	require.True(t, own.Data.IsCompleted)
	require.Equal(t, 30, own.Data.Score)
}

func TestSubmitRejectsInvalidSheet(t *testing.T) {
	app := setupArenaApp(t)
	contest := createArenaContest(t, app, openContestPayload(5))

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/contests/%d/join", contest.ID), nil, 21, "normal")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	submitURL := fmt.Sprintf("/api/v2/contests/%d/submit", contest.ID)

	// Sheet must cover every question.
	short := dto.SubmitRequest{Answers: []dto.AnswerPayload{
		{QuestionIndex: 0, SelectedOptions: []int{0}},
	}}
	resp = doJSON(t, app, http.MethodPost, submitURL, short, 21, "normal")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Two selections on a single-choice question reject the whole sheet.
	malformed := dto.SubmitRequest{Answers: []dto.AnswerPayload{
		{QuestionIndex: 0, SelectedOptions: []int{0, 1}},
		{QuestionIndex: 1, SelectedOptions: []int{0, 2}},
	}}
	resp = doJSON(t, app, http.MethodPost, submitURL, malformed, 21, "normal")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v2/contests/%d/participation", contest.ID), nil, 21, "normal")
	var own struct {
		Data dto.ParticipationResponse `json:"data"`
	}
	decodeResponse(t, resp, &own)
	require.False(t, own.Data.IsCompleted)
	require.Zero(t, own.Data.Score)
}

func TestVIPContestVisibility(t *testing.T) {
	app := setupArenaApp(t)

	payload := openContestPayload(10)
	payload.Name = "Members Arena"
	payload.Tier = models.ContestTierVIP
	contest := createArenaContest(t, app, payload)

	getURL := fmt.Sprintf("/api/v2/contests/%d", contest.ID)

	resp := doJSON(t, app, http.MethodGet, getURL, nil, 0, "")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, getURL, nil, 31, "normal")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, getURL, nil, 32, "vip")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var visible struct {
		Data dto.ContestResponse `json:"data"`
	}
	decodeResponse(t, resp, &visible)
	require.Equal(t, "Members Arena", visible.Data.Name)
	for _, question := range visible.Data.Questions {
		for _, option := range question.Options {
			require.Nil(t, option.IsCorrect)
		}
	}

	// A lower-tier join is a hard denial, not a silent downgrade.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/contests/%d/join", contest.ID), nil, 31, "normal")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// The leaderboard hides with the contest.
	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v2/contests/%d/leaderboard", contest.ID), nil, 31, "normal")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminMutationLockedAfterOpen(t *testing.T) {
	app := setupArenaApp(t)
	contest := createArenaContest(t, app, openContestPayload(10))

	question := dto.QuestionPayload{
		Text:   "Extra question?",
		Type:   models.QuestionTypeSingleChoice,
		Points: 5,
		Options: []dto.OptionPayload{
			{Text: "Yes", IsCorrect: true},
			{Text: "No"},
		},
	}

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/admin/contests/%d/questions", contest.ID), question, 1, "admin")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Non-admin callers never reach the handler.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/admin/contests/%d/questions", contest.ID), question, 2, "vip")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v2/contests/%d", contest.ID), nil, 1, "admin")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var unchanged struct {
		Data dto.ContestResponse `json:"data"`
	}
	decodeResponse(t, resp, &unchanged)
	require.Equal(t, 2, unchanged.Data.QuestionCount)
}

func TestLeaderboardEndpoint(t *testing.T) {
	app := setupArenaApp(t)
	contest := createArenaContest(t, app, openContestPayload(10))

	sheets := map[uint]dto.SubmitRequest{
		41: {Answers: []dto.AnswerPayload{
			{QuestionIndex: 0, SelectedOptions: []int{0}},
			{QuestionIndex: 1, SelectedOptions: []int{0, 2}},
		}},
		42: {Answers: []dto.AnswerPayload{
			{QuestionIndex: 0, SelectedOptions: []int{0}},
			{QuestionIndex: 1, SelectedOptions: []int{1}},
		}},
	}

	for _, userID := range []uint{41, 42} {
		resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/contests/%d/join", contest.ID), nil, userID, "normal")
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v2/contests/%d/submit", contest.ID), sheets[userID], userID, "normal")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v2/contests/%d/leaderboard", contest.ID), nil, 0, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var leaderboard struct {
		Data dto.LeaderboardResponse `json:"data"`
	}
	decodeResponse(t, resp, &leaderboard)
	require.Len(t, leaderboard.Data.Entries, 2)
	require.Equal(t, uint(41), leaderboard.Data.Entries[0].UserID)
	require.Equal(t, 30, leaderboard.Data.Entries[0].Score)
	require.Equal(t, 1, leaderboard.Data.Entries[0].Rank)
	require.Equal(t, uint(42), leaderboard.Data.Entries[1].UserID)
	require.Equal(t, 10, leaderboard.Data.Entries[1].Score)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v2/contests/%d/rank", contest.ID), nil, 42, "normal")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var rank struct {
		Data dto.RankResponse `json:"data"`
	}
	decodeResponse(t, resp, &rank)
	require.Equal(t, 2, rank.Data.Rank)
}
