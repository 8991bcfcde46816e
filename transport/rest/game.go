package rest

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-backend/internal/entity"
)

type gameService interface {
	MatchVsPlayer(ctx context.Context, requester, opponent string) (*entity.Game, string, error)
	MatchVsAI(ctx context.Context, requester string) (*entity.Game, string, error)
	MakeMove(ctx context.Context, gameID, requester string, row, col int) (*entity.Game, string, error)
	History(ctx context.Context, requester string) ([]*entity.Game, error)
}

type leaderboardService interface {
	Leaderboard(ctx context.Context) ([]*entity.User, error)
}

type matchVsPlayerRequest struct {
	OpponentUsername string `json:"opponent_username" validate:"required"`
}

// matchVsAIRequest.AILevel is accepted for compatibility; there is a single AI.
type matchVsAIRequest struct {
	AILevel string `json:"ai_level"`
}

type moveRequest struct {
	Row *int `json:"row" validate:"required"`
	Col *int `json:"col" validate:"required"`
}

type gameHandler struct {
	games       gameService
	leaderboard leaderboardService
}

func newGameHandler(games gameService, leaderboard leaderboardService) *gameHandler {
	return &gameHandler{
		games:       games,
		leaderboard: leaderboard,
	}
}

// MatchVsPlayer - POST /api/game/match/vs-player.
func (that *gameHandler) MatchVsPlayer(c echo.Context) error {
	var req matchVsPlayerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	game, message, err := that.games.MatchVsPlayer(c.Request().Context(), requester(c), req.OpponentUsername)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, newSessionView(game, message))
}

// MatchVsAI - POST /api/game/match/vs-ai.
func (that *gameHandler) MatchVsAI(c echo.Context) error {
	var req matchVsAIRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	game, message, err := that.games.MatchVsAI(c.Request().Context(), requester(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, newSessionView(game, message))
}

// MakeMove - POST /api/game/:id/move.
func (that *gameHandler) MakeMove(c echo.Context) error {
	var req moveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	game, message, err := that.games.MakeMove(c.Request().Context(), c.Param("id"), requester(c), *req.Row, *req.Col)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newSessionView(game, message))
}

// History - GET /api/game/history.
func (that *gameHandler) History(c echo.Context) error {
	games, err := that.games.History(c.Request().Context(), requester(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newHistoryView(games))
}

// Leaderboard - GET /api/game/leaderboard.
func (that *gameHandler) Leaderboard(c echo.Context) error {
	users, err := that.leaderboard.Leaderboard(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newLeaderboard(users))
}
