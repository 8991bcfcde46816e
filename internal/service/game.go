package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-backend/internal/entity"
	"github.com/rocketscienceinc/tictactoe-backend/internal/tictactoe"
)

const (
	MessageMatchFound  = "Match found or awaiting opponent."
	MessageGameStarted = "Game started vs AI."
)

// maxWaitingPops bounds how many stale queue entries one match request may skip.
const maxWaitingPops = 16

type GameService interface {
	// MatchVsPlayer joins the oldest game opponent is waiting in, or opens a new
	// game for requester that waits for opponent.
	MatchVsPlayer(ctx context.Context, requester, opponent string) (*entity.Game, string, error)
	MatchVsAI(ctx context.Context, requester string) (*entity.Game, string, error)
	MakeMove(ctx context.Context, gameID, requester string, row, col int) (*entity.Game, string, error)
	History(ctx context.Context, requester string) ([]*entity.Game, error)
}

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	Update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error)
	PopWaiting(ctx context.Context, username string) (string, error)
	RequeueWaiting(ctx context.Context, username, id string) error
	ListByPlayer(ctx context.Context, username string) ([]*entity.Game, error)
}

type statsRepo interface {
	RecordResults(ctx context.Context, results []entity.PlayerResult) error
}

type gameService struct {
	logger *slog.Logger

	gameRepo  gameRepo
	statsRepo statsRepo
	engine    *tictactoe.Engine
	newID     func() string
}

func NewGameService(logger *slog.Logger, gameRepo gameRepo, statsRepo statsRepo, engine *tictactoe.Engine, newID func() string) GameService {
	return &gameService{
		logger:    logger.With("component", "game_service"),
		gameRepo:  gameRepo,
		statsRepo: statsRepo,
		engine:    engine,
		newID:     newID,
	}
}

func (that *gameService) MatchVsPlayer(ctx context.Context, requester, opponent string) (*entity.Game, string, error) {
	log := that.logger.With("method", "MatchVsPlayer", "requester", requester, "opponent", opponent)

	if requester == opponent {
		return nil, "", apperror.ErrSelfMatch
	}

	for range maxWaitingPops {
		gameID, err := that.gameRepo.PopWaiting(ctx, opponent)
		if err != nil {
			return nil, "", fmt.Errorf("failed to find waiting game: %w", err)
		}

		if gameID == "" {
			break
		}

		game, err := that.gameRepo.Update(ctx, gameID, func(game *entity.Game) error {
			return that.engine.Join(game, requester)
		})
		if errors.Is(err, apperror.ErrGameNotJoinable) || errors.Is(err, apperror.ErrGameNotFound) {
			log.Debug("skipping stale waiting game", "gameID", gameID)
			continue
		}

		if err != nil {
			// the game was not joined, keep it queued
			if requeueErr := that.gameRepo.RequeueWaiting(context.WithoutCancel(ctx), opponent, gameID); requeueErr != nil {
				log.Error("failed to requeue waiting game", "gameID", gameID, "error", requeueErr)
			}

			return nil, "", fmt.Errorf("failed to join game %s: %w", gameID, err)
		}

		log.Info("joined waiting game", "gameID", game.ID)
		return game, MessageMatchFound, nil
	}

	game := that.engine.NewVsPlayerGame(that.newID(), requester)
	if err := that.gameRepo.Create(ctx, game); err != nil {
		return nil, "", fmt.Errorf("failed to create game: %w", err)
	}

	log.Info("waiting for opponent", "gameID", game.ID)
	return game, MessageMatchFound, nil
}

func (that *gameService) MatchVsAI(ctx context.Context, requester string) (*entity.Game, string, error) {
	game := that.engine.NewVsAIGame(that.newID(), requester)
	if err := that.gameRepo.Create(ctx, game); err != nil {
		return nil, "", fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.Info("game against AI started", "method", "MatchVsAI", "requester", requester, "gameID", game.ID)
	return game, MessageGameStarted, nil
}

// MakeMove applies the move atomically and, once the game is stored, updates the
// stats of its human players.
func (that *gameService) MakeMove(ctx context.Context, gameID, requester string, row, col int) (*entity.Game, string, error) {
	log := that.logger.With("method", "MakeMove", "gameID", gameID, "requester", requester)

	var result *tictactoe.MoveResult
	game, err := that.gameRepo.Update(ctx, gameID, func(game *entity.Game) error {
		moveResult, err := that.engine.MakeMove(game, requester, row, col)
		if err != nil {
			return err
		}

		result = moveResult
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to make move: %w", err)
	}

	if len(result.Stats) > 0 {
		if err = that.statsRepo.RecordResults(ctx, result.Stats); err != nil {
			return nil, "", fmt.Errorf("failed to record results of game %s: %w", gameID, err)
		}
	}

	if game.IsFinished() {
		log.Info("game finished", "winner", game.Winner)
	}

	return game, result.Message, nil
}

func (that *gameService) History(ctx context.Context, requester string) ([]*entity.Game, error) {
	games, err := that.gameRepo.ListByPlayer(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	return games, nil
}
