package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rocketscienceinc/tictactoe-backend/internal/apperror"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 10 * time.Second
	idleTimeout     = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

const internalErrorMessage = "Internal Server Error"

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
	port   string
}

func New(logger *slog.Logger, port string, users userService, games gameService, auth authService) *Server {
	log := logger.With("component", "rest")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.Server.ReadTimeout = readTimeout
	e.Server.WriteTimeout = writeTimeout
	e.Server.IdleTimeout = idleTimeout

	server := &Server{
		logger: log,
		echo:   e,
		port:   port,
	}
	e.HTTPErrorHandler = server.handleError

	e.Use(middleware.Recover())
	e.Use(requestLogger(log))

	userHandler := newUserHandler(users, auth)
	gameHandler := newGameHandler(games, users)

	e.GET("/ping", pingHandler)

	api := e.Group("/api")

	user := api.Group("/user")
	user.POST("/register", userHandler.Register)
	user.POST("/login", userHandler.Login)

	requireIdentity := identity(auth)

	game := api.Group("/game")
	game.GET("/leaderboard", gameHandler.Leaderboard)
	game.POST("/match/vs-player", gameHandler.MatchVsPlayer, requireIdentity)
	game.POST("/match/vs-ai", gameHandler.MatchVsAI, requireIdentity)
	game.POST("/:id/move", gameHandler.MakeMove, requireIdentity)
	game.GET("/history", gameHandler.History, requireIdentity)

	return server
}

// Start serves HTTP until ctx is canceled and then shuts the server down gracefully.
func (that *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		that.logger.Info("Starting HTTP server", "port", that.port)
		errCh <- that.echo.Start(":" + that.port)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := that.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}

		return nil
	}
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	that.echo.ServeHTTP(w, r)
}

// handleError renders every error as {"message": ...} with the status of its kind.
func (that *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, message := statusOf(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, messageResponse{Message: message})
	}

	if err != nil {
		that.logger.Error("failed to write error response", "error", err)
	}
}

func statusOf(err error) (int, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code == http.StatusInternalServerError {
			return httpErr.Code, internalErrorMessage
		}

		return httpErr.Code, fmt.Sprint(httpErr.Message)
	}

	switch apperror.KindOf(err) {
	case apperror.ErrUnauthorized:
		return http.StatusUnauthorized, apperror.Message(err)
	case apperror.ErrConflict:
		return http.StatusConflict, apperror.Message(err)
	case apperror.ErrNotFound:
		return http.StatusNotFound, apperror.Message(err)
	case apperror.ErrInvalidOperation:
		return http.StatusBadRequest, apperror.Message(err)
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)

			return nil
		},
	})
}
