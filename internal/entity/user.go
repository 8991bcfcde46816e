package entity

type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Wins         int64  `json:"wins"`
	Losses       int64  `json:"losses"`
	Draws        int64  `json:"draws"`
	GamesPlayed  int64  `json:"games_played"`
}

// GameResult is a finished game seen from one participant.
type GameResult uint8

const (
	ResultWin GameResult = iota + 1
	ResultLoss
	ResultDraw
)

func (that GameResult) String() string {
	switch that {
	case ResultWin:
		return "win"
	case ResultLoss:
		return "loss"
	case ResultDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// PlayerResult is one line of a leaderboard update.
type PlayerResult struct {
	Username string
	Result   GameResult
}

// IsReservedName reports whether username collides with an identity the game uses itself.
func IsReservedName(username string) bool {
	return username == AIPlayer || username == DrawResult
}
