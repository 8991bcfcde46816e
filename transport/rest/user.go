package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-backend/internal/entity"
)

const (
	messageRegistered = "User registered successfully."
	messageLoggedIn   = "Login succeeded."
)

type userService interface {
	Register(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)
	Leaderboard(ctx context.Context) ([]*entity.User, error)
}

type authService interface {
	tokenParser
	GenerateToken(username string) (string, error)
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userHandler struct {
	users userService
	auth  authService
}

func newUserHandler(users userService, auth authService) *userHandler {
	return &userHandler{
		users: users,
		auth:  auth,
	}
}

// Register - POST /api/user/register.
func (that *userHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := that.users.Register(c.Request().Context(), req.Username, req.Password); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, messageResponse{Message: messageRegistered})
}

// Login - POST /api/user/login. Answers with a bearer token for the game routes.
func (that *userHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := that.users.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	token, err := that.auth.GenerateToken(user.Username)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	return c.JSON(http.StatusOK, loginResponse{Message: messageLoggedIn, Token: token})
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}

	return c.Validate(req)
}
