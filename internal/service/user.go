package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rocketscienceinc/tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-backend/internal/entity"
)

const LeaderboardSize = 10

type UserService interface {
	Register(ctx context.Context, username, password string) error
	// Authenticate returns the user whose password matches, or ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)
	Leaderboard(ctx context.Context) ([]*entity.User, error)
}

type userRepo interface {
	Create(ctx context.Context, user *entity.User) error
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	Top(ctx context.Context, limit int) ([]*entity.User, error)
}

type userService struct {
	userRepo userRepo
}

func NewUserService(userRepo userRepo) UserService {
	return &userService{
		userRepo: userRepo,
	}
}

func (that *userService) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)

	switch {
	case username == "":
		return apperror.ErrInvalidUsername
	case password == "":
		return apperror.ErrInvalidPassword
	case entity.IsReservedName(username):
		return apperror.ErrReservedName
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("could not hash password: %w", err)
	}

	if err = that.userRepo.Create(ctx, &entity.User{Username: username, PasswordHash: string(hash)}); err != nil {
		return fmt.Errorf("could not save user: %w", err)
	}

	return nil
}

func (that *userService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	user, err := that.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.ErrInvalidCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("could not get user: %w", err)
	}

	// users that only played before registering have no password yet
	if user.PasswordHash == "" {
		return nil, apperror.ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	return user, nil
}

func (that *userService) Leaderboard(ctx context.Context) ([]*entity.User, error) {
	users, err := that.userRepo.Top(ctx, LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("could not get leaderboard: %w", err)
	}

	return users, nil
}
