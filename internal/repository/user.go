package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-backend/internal/entity"
)

// winWeight keeps any number of extra games below the value of a single win,
// so the leaderboard ranks by wins and then by fewer games played.
const winWeight = 1_000_000

var ErrUserNotFound = apperror.New(apperror.ErrNotFound, "User not found.")

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	// RecordResults counts a finished game for every listed player in a single
	// transaction, creating their entries if needed.
	RecordResults(ctx context.Context, results []entity.PlayerResult) error
	Top(ctx context.Context, limit int) ([]*entity.User, error)
}

type dbUser struct {
	Username     string `redis:"username"`
	PasswordHash string `redis:"password_hash"`
	Wins         int64  `redis:"wins"`
	Losses       int64  `redis:"losses"`
	Draws        int64  `redis:"draws"`
	GamesPlayed  int64  `redis:"games_played"`
}

func (that *dbUser) toEntity() *entity.User {
	return &entity.User{
		Username:     that.Username,
		PasswordHash: that.PasswordHash,
		Wins:         that.Wins,
		Losses:       that.Losses,
		Draws:        that.Draws,
		GamesPlayed:  that.GamesPlayed,
	}
}

type userRepository struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) UserRepository {
	return &userRepository{
		client: client,
	}
}

// Create registers the credentials of user. Stats recorded before registration are kept.
func (that *userRepository) Create(ctx context.Context, user *entity.User) error {
	key := userKey(user.Username)

	created, err := that.client.HSetNX(ctx, key, "password_hash", user.PasswordHash).Result()
	if err != nil {
		return fmt.Errorf("can't save user: %w", err)
	}

	if !created {
		return apperror.ErrUserAlreadyExists
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, "username", user.Username)
		pipe.ZAddNX(ctx, leaderboardKey, redis.Z{Score: 0, Member: user.Username})
		return nil
	})
	if err != nil {
		return fmt.Errorf("can't save user: %w", err)
	}

	return nil
}

func (that *userRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	cmd := that.client.HGetAll(ctx, userKey(username))

	values, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("can't find user: %w", err)
	}

	if len(values) == 0 {
		return nil, ErrUserNotFound
	}

	var user dbUser
	if err = cmd.Scan(&user); err != nil {
		return nil, fmt.Errorf("can't scan user: %w", err)
	}

	return user.toEntity(), nil
}

func (that *userRepository) RecordResults(ctx context.Context, results []entity.PlayerResult) error {
	if len(results) == 0 {
		return nil
	}

	fields := make([]string, 0, len(results))
	for _, result := range results {
		field, err := resultField(result.Result)
		if err != nil {
			return err
		}

		fields = append(fields, field)
	}

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, result := range results {
			key := userKey(result.Username)

			var wins int64
			if result.Result == entity.ResultWin {
				wins = 1
			}

			pipe.HSetNX(ctx, key, "username", result.Username)
			pipe.HIncrBy(ctx, key, "games_played", 1)
			pipe.HIncrBy(ctx, key, fields[i], 1)
			pipe.ZIncrBy(ctx, leaderboardKey, leaderboardScore(wins, 1), result.Username)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("can't record results: %w", err)
	}

	return nil
}

func resultField(result entity.GameResult) (string, error) {
	switch result {
	case entity.ResultWin:
		return "wins", nil
	case entity.ResultLoss:
		return "losses", nil
	case entity.ResultDraw:
		return "draws", nil
	default:
		return "", fmt.Errorf("unknown game result %d", result)
	}
}

func (that *userRepository) Top(ctx context.Context, limit int) ([]*entity.User, error) {
	usernames, err := that.client.ZRevRange(ctx, leaderboardKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("can't read leaderboard: %w", err)
	}

	if len(usernames) == 0 {
		return []*entity.User{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, 0, len(usernames))
	_, err = that.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, username := range usernames {
			cmds = append(cmds, pipe.HGetAll(ctx, userKey(username)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("can't load leaderboard users: %w", err)
	}

	users := make([]*entity.User, 0, len(cmds))
	for _, cmd := range cmds {
		if len(cmd.Val()) == 0 {
			continue
		}

		var user dbUser
		if err = cmd.Scan(&user); err != nil {
			return nil, fmt.Errorf("can't scan user: %w", err)
		}

		users = append(users, user.toEntity())
	}

	return users, nil
}

// leaderboardScore is the sorted set score of a player. It is additive, so
// RecordResults applies it to the delta of a single game.
func leaderboardScore(wins, gamesPlayed int64) float64 {
	return float64(wins*winWeight - gamesPlayed)
}
