package rest

import (
	"time"

	"github.com/rocketscienceinc/tictactoe-backend/internal/entity"
)

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// sessionView is what a player sees after matching or moving.
type sessionView struct {
	GameID  string        `json:"game_id"`
	Board   entity.Board  `json:"board"`
	Status  entity.Status `json:"status"`
	Winner  *string       `json:"winner"`
	Moves   []entity.Move `json:"moves"`
	Message string        `json:"message"`
}

type historyView struct {
	GameID     string          `json:"game_id"`
	PlayerX    string          `json:"player_x"`
	PlayerO    *string         `json:"player_o"`
	Type       entity.GameType `json:"game_type"`
	Status     entity.Status   `json:"status"`
	Winner     *string         `json:"winner"`
	Moves      []entity.Move   `json:"moves"`
	StartedAt  *time.Time      `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at"`
}

type leaderboardEntry struct {
	Username    string `json:"username"`
	Wins        int64  `json:"wins"`
	GamesPlayed int64  `json:"games_played"`
}

func newSessionView(game *entity.Game, message string) sessionView {
	return sessionView{
		GameID:  game.ID,
		Board:   game.Board,
		Status:  game.Status,
		Winner:  optional(game.Winner),
		Moves:   movesOf(game),
		Message: message,
	}
}

func newHistoryView(games []*entity.Game) []historyView {
	views := make([]historyView, 0, len(games))
	for _, game := range games {
		views = append(views, historyView{
			GameID:     game.ID,
			PlayerX:    game.PlayerX,
			PlayerO:    optional(game.PlayerO),
			Type:       game.Type,
			Status:     game.Status,
			Winner:     optional(game.Winner),
			Moves:      movesOf(game),
			StartedAt:  game.StartedAt,
			FinishedAt: game.FinishedAt,
		})
	}

	return views
}

func newLeaderboard(users []*entity.User) []leaderboardEntry {
	entries := make([]leaderboardEntry, 0, len(users))
	for _, user := range users {
		entries = append(entries, leaderboardEntry{
			Username:    user.Username,
			Wins:        user.Wins,
			GamesPlayed: user.GamesPlayed,
		})
	}

	return entries
}

func movesOf(game *entity.Game) []entity.Move {
	if game.Moves == nil {
		return []entity.Move{}
	}

	return game.Moves
}

func optional(value string) *string {
	if value == "" {
		return nil
	}

	return &value
}
