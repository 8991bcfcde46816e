package entity

import (
	"errors"
	"fmt"
	"time"
)

const (
	// AIPlayer is the identity of the built-in opponent. It always plays O.
	AIPlayer = "AI"
	// DrawResult is stored as the winner of a game that ended without a line.
	DrawResult = "draw"
)

var (
	ErrUnknownGameStatus = errors.New("unknown game status")
	ErrUnknownGameType   = errors.New("unknown game type")
)

type Status uint8

const (
	StatusWaiting Status = iota
	StatusInProgress
	StatusFinished
)

func (that Status) String() string {
	switch that {
	case StatusWaiting:
		return "waiting"
	case StatusInProgress:
		return "in_progress"
	case StatusFinished:
		return "finished"
	default:
		return fmt.Sprintf("status(%d)", uint8(that))
	}
}

func (that Status) MarshalText() ([]byte, error) {
	if that > StatusFinished {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGameStatus, that)
	}

	return []byte(that.String()), nil
}

func (that *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "waiting":
		*that = StatusWaiting
	case "in_progress":
		*that = StatusInProgress
	case "finished":
		*that = StatusFinished
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGameStatus, text)
	}

	return nil
}

type GameType uint8

const (
	TypeVsPlayer GameType = iota
	TypeVsAI
)

func (that GameType) String() string {
	switch that {
	case TypeVsPlayer:
		return "vs_player"
	case TypeVsAI:
		return "vs_ai"
	default:
		return fmt.Sprintf("type(%d)", uint8(that))
	}
}

func (that GameType) MarshalText() ([]byte, error) {
	if that > TypeVsAI {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGameType, that)
	}

	return []byte(that.String()), nil
}

func (that *GameType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "vs_player":
		*that = TypeVsPlayer
	case "vs_ai":
		*that = TypeVsAI
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGameType, text)
	}

	return nil
}

// Move is one placed mark, in play order.
type Move struct {
	Player    string    `json:"player"`
	Marker    Mark      `json:"marker"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Timestamp time.Time `json:"ts"`
}

// Game is a single match between PlayerX and PlayerO.
//
// While the game is waiting PlayerO is empty and the board has no marks.
// Once finished, Winner holds PlayerX, PlayerO or DrawResult.
type Game struct {
	ID         string     `json:"id"`
	PlayerX    string     `json:"player_x"`
	PlayerO    string     `json:"player_o,omitempty"`
	Status     Status     `json:"status"`
	Type       GameType   `json:"game_type"`
	Board      Board      `json:"board"`
	Moves      []Move     `json:"moves"`
	Winner     string     `json:"winner,omitempty"`
	Version    int64      `json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsVsAI() bool {
	return that.Type == TypeVsAI
}

// MarkOf returns the mark played by identity, or MarkEmpty if identity does not play in this game.
func (that *Game) MarkOf(identity string) Mark {
	switch {
	case identity == "":
		return MarkEmpty
	case identity == that.PlayerX:
		return MarkX
	case identity == that.PlayerO:
		return MarkO
	default:
		return MarkEmpty
	}
}

// PlayerFor returns the identity that controls mark.
func (that *Game) PlayerFor(mark Mark) string {
	switch mark {
	case MarkX:
		return that.PlayerX
	case MarkO:
		if that.IsVsAI() {
			return AIPlayer
		}
		return that.PlayerO
	default:
		return ""
	}
}

// NextMark returns whose turn it is. X always opens.
func (that *Game) NextMark() Mark {
	if len(that.Moves)%2 == 0 {
		return MarkX
	}

	return MarkO
}

// Participants returns the joined players, AI included.
func (that *Game) Participants() []string {
	participants := make([]string, 0, 2)
	for _, player := range []string{that.PlayerX, that.PlayerO} {
		if player != "" {
			participants = append(participants, player)
		}
	}

	return participants
}
