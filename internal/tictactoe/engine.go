package tictactoe

import (
	"time"

	"github.com/rocketscienceinc/tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-backend/internal/entity"
)

const (
	MessageMoveRegistered = "Move registered."
	MessageGameFinished   = "Game finished."
)

type MoveResult struct {
	// Applied holds the requester's move and, in games against the AI, its reply.
	Applied []entity.Move
	Stats   []entity.PlayerResult
	Message string
}

// Engine applies the state transitions of a game. It never touches storage:
// callers load a game, hand it to the engine and persist whatever it returns.
type Engine struct {
	bot Bot
	now func() time.Time
}

func NewEngine(bot Bot, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}

	return &Engine{
		bot: bot,
		now: now,
	}
}

// NewVsPlayerGame opens a game owned by requester that waits for an opponent.
func (that *Engine) NewVsPlayerGame(id, requester string) *entity.Game {
	return &entity.Game{
		ID:        id,
		PlayerX:   requester,
		Status:    entity.StatusWaiting,
		Type:      entity.TypeVsPlayer,
		Moves:     []entity.Move{},
		CreatedAt: that.timestamp(),
	}
}

// NewVsAIGame starts a game right away with requester as X and the AI as O.
func (that *Engine) NewVsAIGame(id, requester string) *entity.Game {
	now := that.timestamp()

	return &entity.Game{
		ID:        id,
		PlayerX:   requester,
		PlayerO:   entity.AIPlayer,
		Status:    entity.StatusInProgress,
		Type:      entity.TypeVsAI,
		Moves:     []entity.Move{},
		CreatedAt: now,
		StartedAt: &now,
	}
}

// Join seats requester as O in a waiting game and starts it.
func (that *Engine) Join(game *entity.Game, requester string) error {
	if !game.IsWaiting() || game.PlayerO != "" || game.Type != entity.TypeVsPlayer {
		return apperror.ErrGameNotJoinable
	}

	if game.PlayerX == requester {
		return apperror.ErrSelfMatch
	}

	now := that.timestamp()
	game.PlayerO = requester
	game.Status = entity.StatusInProgress
	game.StartedAt = &now

	return nil
}

// MakeMove places requester's mark on (row, col), lets the AI answer in games
// against it and finishes the game when a line is formed or the board is full.
// On error the game is left unchanged.
func (that *Engine) MakeMove(game *entity.Game, requester string, row, col int) (*MoveResult, error) {
	if game.IsFinished() {
		return nil, apperror.ErrGameNotFound
	}

	mark := game.MarkOf(requester)
	if mark == entity.MarkEmpty || requester == entity.AIPlayer {
		return nil, apperror.ErrNotParticipant
	}

	if game.IsWaiting() {
		return nil, apperror.ErrGameIsNotStarted
	}

	cell := entity.Cell{Row: row, Col: col}
	if err := validateMove(game, mark, cell); err != nil {
		return nil, err
	}

	result := &MoveResult{Message: MessageMoveRegistered}
	result.Applied = append(result.Applied, that.place(game, requester, mark, cell))

	if outcome := Evaluate(game.Board); outcome.IsOver() {
		result.Stats = that.finish(game, outcome)
		result.Message = MessageGameFinished

		return result, nil
	}

	if !game.IsVsAI() || mark != entity.MarkX {
		return result, nil
	}

	reply, ok := that.bot.ChooseMove(game.Board)
	if !ok {
		return result, nil
	}

	result.Applied = append(result.Applied, that.place(game, entity.AIPlayer, entity.MarkO, reply))

	if outcome := Evaluate(game.Board); outcome.IsOver() {
		result.Stats = that.finish(game, outcome)
		result.Message = MessageGameFinished
	}

	return result, nil
}

// validateMove - checks if the move is valid.
func validateMove(game *entity.Game, mark entity.Mark, cell entity.Cell) error {
	if !cell.InBounds() {
		return apperror.ErrInvalidCell
	}

	if game.NextMark() != mark {
		return apperror.ErrNotYourTurn
	}

	if game.Board.At(cell) != entity.MarkEmpty {
		return apperror.ErrCellOccupied
	}

	return nil
}

func (that *Engine) place(game *entity.Game, player string, mark entity.Mark, cell entity.Cell) entity.Move {
	move := entity.Move{
		Player:    player,
		Marker:    mark,
		Row:       cell.Row,
		Col:       cell.Col,
		Timestamp: that.timestamp(),
	}

	game.Board.Set(cell, mark)
	game.Moves = append(game.Moves, move)

	return move
}

// finish closes the game and returns the leaderboard updates for its human players.
// The winner is whoever controls the winning mark, not necessarily the last mover.
func (that *Engine) finish(game *entity.Game, outcome Outcome) []entity.PlayerResult {
	now := that.timestamp()
	game.Status = entity.StatusFinished
	game.FinishedAt = &now

	if outcome.Result == ResultDraw {
		game.Winner = entity.DrawResult
	} else {
		game.Winner = game.PlayerFor(outcome.Mark)
	}

	stats := make([]entity.PlayerResult, 0, 2)
	for _, player := range game.Participants() {
		if player == entity.AIPlayer {
			continue
		}

		update := entity.PlayerResult{Username: player, Result: entity.ResultLoss}
		switch {
		case outcome.Result == ResultDraw:
			update.Result = entity.ResultDraw
		case game.MarkOf(player) == outcome.Mark:
			update.Result = entity.ResultWin
		}

		stats = append(stats, update)
	}

	return stats
}

func (that *Engine) timestamp() time.Time {
	return that.now().UTC()
}
