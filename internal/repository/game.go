package repository

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-backend/internal/entity"
)

const defaultMaxUpdateRetries = 5

var ErrConcurrentUpdate = apperror.New(apperror.ErrConflict, "Game was changed by another request, please retry.")

type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	// Update loads the game, applies fn and stores the result only if nobody
	// changed the game in between. fn may run several times.
	Update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error)
	// PopWaiting takes the oldest waiting game id opened by username, or "" if there is none.
	PopWaiting(ctx context.Context, username string) (string, error)
	// RequeueWaiting puts id back at the head of username's waiting games.
	RequeueWaiting(ctx context.Context, username, id string) error
	ListByPlayer(ctx context.Context, username string) ([]*entity.Game, error)
}

type dbGame struct {
	client     *redis.Client
	maxRetries int
}

func NewGameRepository(client *redis.Client, maxRetries int) GameRepository {
	if maxRetries <= 0 {
		maxRetries = defaultMaxUpdateRetries
	}

	return &dbGame{
		client:     client,
		maxRetries: maxRetries,
	}
}

func (that *dbGame) Create(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(game.ID), gameJSON, 0)

		for _, player := range game.Participants() {
			if player != entity.AIPlayer {
				pipe.ZAdd(ctx, playerGamesKey(player), historyEntry(game))
			}
		}

		if game.IsWaiting() {
			pipe.RPush(ctx, waitingGamesKey(game.PlayerX), game.ID)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	return getGame(ctx, that.client, id)
}

func (that *dbGame) Update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error) {
	key := gameKey(id)

	var updated *entity.Game
	txf := func(tx *redis.Tx) error {
		game, err := getGame(ctx, tx, id)
		if err != nil {
			return err
		}

		previousO := game.PlayerO
		if err = fn(game); err != nil {
			return err
		}

		game.Version++
		gameJSON, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("could not marshal game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, gameJSON, 0)

			if previousO == "" && game.PlayerO != "" && game.PlayerO != entity.AIPlayer {
				pipe.ZAdd(ctx, playerGamesKey(game.PlayerO), historyEntry(game))
			}

			return nil
		})
		if err != nil {
			return err
		}

		updated = game
		return nil
	}

	for range that.maxRetries {
		err := that.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to update game %s: %w", id, err)
		}

		return updated, nil
	}

	return nil, ErrConcurrentUpdate
}

func (that *dbGame) PopWaiting(ctx context.Context, username string) (string, error) {
	id, err := that.client.LPop(ctx, waitingGamesKey(username)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to pop waiting game: %w", err)
	}

	return id, nil
}

func (that *dbGame) RequeueWaiting(ctx context.Context, username, id string) error {
	if err := that.client.LPush(ctx, waitingGamesKey(username), id).Err(); err != nil {
		return fmt.Errorf("failed to requeue waiting game %s: %w", id, err)
	}

	return nil
}

// ListByPlayer returns username's games, most recently started first.
// Games that never started come last, newest first.
func (that *dbGame) ListByPlayer(ctx context.Context, username string) ([]*entity.Game, error) {
	ids, err := that.client.ZRevRange(ctx, playerGamesKey(username), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list games of player: %w", err)
	}

	if len(ids) == 0 {
		return []*entity.Game{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, gameKey(id))
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	games := make([]*entity.Game, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var game entity.Game
		if err = json.Unmarshal([]byte(raw), &game); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game: %w", err)
		}

		games = append(games, &game)
	}

	sortNewestFirst(games)

	return games, nil
}

// sortNewestFirst orders games by start time descending, unstarted games last.
func sortNewestFirst(games []*entity.Game) {
	slices.SortStableFunc(games, func(a, b *entity.Game) int {
		switch {
		case a.StartedAt == nil && b.StartedAt == nil:
			return b.CreatedAt.Compare(a.CreatedAt)
		case a.StartedAt == nil:
			return 1
		case b.StartedAt == nil:
			return -1
		}

		return cmp.Or(b.StartedAt.Compare(*a.StartedAt), b.CreatedAt.Compare(a.CreatedAt))
	})
}

func getGame(ctx context.Context, client stringGetter, id string) (*entity.Game, error) {
	response, err := client.Get(ctx, gameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var game entity.Game
	if err = json.Unmarshal([]byte(response), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &game, nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func historyEntry(game *entity.Game) redis.Z {
	return redis.Z{Score: float64(game.CreatedAt.UnixMilli()), Member: game.ID}
}
