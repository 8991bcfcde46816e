package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-backend/internal/entity"
)

type mockUserService struct {
	mock.Mock
}

func (that *mockUserService) Register(ctx context.Context, username, password string) error {
	return that.Called(ctx, username, password).Error(0)
}

func (that *mockUserService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	args := that.Called(ctx, username, password)

	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (that *mockUserService) Leaderboard(ctx context.Context) ([]*entity.User, error) {
	args := that.Called(ctx)

	users, _ := args.Get(0).([]*entity.User)
	return users, args.Error(1)
}

type mockGameService struct {
	mock.Mock
}

func (that *mockGameService) MatchVsPlayer(ctx context.Context, requester, opponent string) (*entity.Game, string, error) {
	args := that.Called(ctx, requester, opponent)

	game, _ := args.Get(0).(*entity.Game)
	return game, args.String(1), args.Error(2)
}

func (that *mockGameService) MatchVsAI(ctx context.Context, requester string) (*entity.Game, string, error) {
	args := that.Called(ctx, requester)

	game, _ := args.Get(0).(*entity.Game)
	return game, args.String(1), args.Error(2)
}

func (that *mockGameService) MakeMove(ctx context.Context, gameID, requester string, row, col int) (*entity.Game, string, error) {
	args := that.Called(ctx, gameID, requester, row, col)

	game, _ := args.Get(0).(*entity.Game)
	return game, args.String(1), args.Error(2)
}

func (that *mockGameService) History(ctx context.Context, requester string) ([]*entity.Game, error) {
	args := that.Called(ctx, requester)

	games, _ := args.Get(0).([]*entity.Game)
	return games, args.Error(1)
}

type mockAuthService struct {
	mock.Mock
}

func (that *mockAuthService) GenerateToken(username string) (string, error) {
	args := that.Called(username)
	return args.String(0), args.Error(1)
}

func (that *mockAuthService) ParseToken(token string) (string, error) {
	args := that.Called(token)
	return args.String(0), args.Error(1)
}

type restFixture struct {
	server *Server
	users  *mockUserService
	games  *mockGameService
	auth   *mockAuthService
}

func newRestFixture(t *testing.T) *restFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	fx := &restFixture{
		users: &mockUserService{},
		games: &mockGameService{},
		auth:  &mockAuthService{},
	}
	fx.server = New(logger, "0", fx.users, fx.games, fx.auth)

	t.Cleanup(func() {
		fx.users.AssertExpectations(t)
		fx.games.AssertExpectations(t)
		fx.auth.AssertExpectations(t)
	})

	return fx
}

func (that *restFixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	that.server.ServeHTTP(rec, req)

	return rec
}

func asAlice() map[string]string {
	return map[string]string{headerUsername: "alice"}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var value T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &value))

	return value
}

func TestPing(t *testing.T) {
	fx := newRestFixture(t)

	rec := fx.do(http.MethodGet, "/ping", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestUserRoutes(t *testing.T) {
	t.Run("Register", func(t *testing.T) {
		fx := newRestFixture(t)
		fx.users.On("Register", mock.Anything, "alice", "secret").Return(nil).Once()

		// When: alice registers
		rec := fx.do(http.MethodPost, "/api/user/register", `{"username":"alice","password":"secret"}`, nil)

		// Then: 201 with a confirmation
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"message":"User registered successfully."}`, rec.Body.String())
	})

	t.Run("Register duplicate", func(t *testing.T) {
		fx := newRestFixture(t)
		fx.users.On("Register", mock.Anything, "alice", "secret").Return(apperror.ErrUserAlreadyExists).Once()

		rec := fx.do(http.MethodPost, "/api/user/register", `{"username":"alice","password":"secret"}`, nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"message":"Username already exists."}`, rec.Body.String())
	})

	t.Run("Register without password", func(t *testing.T) {
		fx := newRestFixture(t)

		// When: the password is missing
		rec := fx.do(http.MethodPost, "/api/user/register", `{"username":"alice"}`, nil)

		// Then: 400 names the field and the service is not called
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"Field password is required."}`, rec.Body.String())
	})

	t.Run("Register with malformed body", func(t *testing.T) {
		fx := newRestFixture(t)

		rec := fx.do(http.MethodPost, "/api/user/register", `{"username":`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Login returns a token", func(t *testing.T) {
		fx := newRestFixture(t)
		fx.users.On("Authenticate", mock.Anything, "alice", "secret").Return(&entity.User{Username: "alice"}, nil).Once()
		fx.auth.On("GenerateToken", "alice").Return("token-1", nil).Once()

		// When: alice logs in
		rec := fx.do(http.MethodPost, "/api/user/login", `{"username":"alice","password":"secret"}`, nil)

		// Then: she gets a token
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Login succeeded.","token":"token-1"}`, rec.Body.String())
	})

	t.Run("Login with wrong password", func(t *testing.T) {
		fx := newRestFixture(t)
		fx.users.On("Authenticate", mock.Anything, "alice", "guess").Return(nil, apperror.ErrInvalidCredentials).Once()

		rec := fx.do(http.MethodPost, "/api/user/login", `{"username":"alice","password":"guess"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid username or password."}`, rec.Body.String())
	})
}

func TestIdentity(t *testing.T) {
	t.Run("Missing identity", func(t *testing.T) {
		fx := newRestFixture(t)

		// When: history is requested anonymously
		rec := fx.do(http.MethodGet, "/api/game/history", "", nil)

		// Then: 401
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Missing username authentication header."}`, rec.Body.String())
	})

	t.Run("AI cannot make requests", func(t *testing.T) {
		fx := newRestFixture(t)

		rec := fx.do(http.MethodPost, "/api/game/g1/move", `{"row":0,"col":0}`, map[string]string{headerUsername: entity.AIPlayer})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Draw result cannot make requests", func(t *testing.T) {
		fx := newRestFixture(t)

		// When: the identity header carries the draw marker
		rec := fx.do(http.MethodGet, "/api/game/history", "", map[string]string{headerUsername: entity.DrawResult})

		// Then: 401 and the game service is never reached
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Reserved identity cannot make requests."}`, rec.Body.String())
		fx.games.AssertNotCalled(t, "History", mock.Anything, mock.Anything)
	})

	t.Run("Bearer token wins over header", func(t *testing.T) {
		fx := newRestFixture(t)
		fx.auth.On("ParseToken", "token-1").Return("bob", nil).Once()
		fx.games.On("History", mock.Anything, "bob").Return([]*entity.Game{}, nil).Once()

		// When: both a token for bob and a header for alice are sent
		rec := fx.do(http.MethodGet, "/api/game/history", "", map[string]string{
			"Authorization": "Bearer token-1",
			headerUsername:  "alice",
		})

		// Then: the request runs as bob
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("Invalid token", func(t *testing.T) {
		fx := newRestFixture(t)
		fx.auth.On("ParseToken", "expired").Return("", apperror.ErrInvalidToken).Once()

		rec := fx.do(http.MethodGet, "/api/game/history", "", map[string]string{"Authorization": "Bearer expired"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid or expired token."}`, rec.Body.String())
	})
}

func TestGameRoutes(t *testing.T) {
	startedAt := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Match vs player while waiting", func(t *testing.T) {
		fx := newRestFixture(t)
		waiting := &entity.Game{ID: "g1", PlayerX: "alice", Status: entity.StatusWaiting, Moves: []entity.Move{}}
		fx.games.On("MatchVsPlayer", mock.Anything, "alice", "bob").Return(waiting, "Match found or awaiting opponent.", nil).Once()

		// When: alice asks for bob
		rec := fx.do(http.MethodPost, "/api/game/match/vs-player", `{"opponent_username":"bob"}`, asAlice())

		// Then: 201 with an empty board and no winner
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{
			"game_id": "g1",
			"board": [["","",""],["","",""],["","",""]],
			"status": "waiting",
			"winner": null,
			"moves": [],
			"message": "Match found or awaiting opponent."
		}`, rec.Body.String())
	})

	t.Run("Match vs player without opponent", func(t *testing.T) {
		fx := newRestFixture(t)

		rec := fx.do(http.MethodPost, "/api/game/match/vs-player", `{}`, asAlice())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"Field opponent_username is required."}`, rec.Body.String())
	})

	t.Run("Self match", func(t *testing.T) {
		fx := newRestFixture(t)
		fx.games.On("MatchVsPlayer", mock.Anything, "alice", "alice").Return(nil, "", apperror.ErrSelfMatch).Once()

		rec := fx.do(http.MethodPost, "/api/game/match/vs-player", `{"opponent_username":"alice"}`, asAlice())

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Match vs AI ignores the level", func(t *testing.T) {
		fx := newRestFixture(t)
		game := &entity.Game{ID: "g2", PlayerX: "alice", PlayerO: entity.AIPlayer, Type: entity.TypeVsAI, Status: entity.StatusInProgress, StartedAt: &startedAt}
		fx.games.On("MatchVsAI", mock.Anything, "alice").Return(game, "Game started vs AI.", nil).Twice()

		withLevel := fx.do(http.MethodPost, "/api/game/match/vs-ai", `{"ai_level":"hard"}`, asAlice())
		withoutBody := fx.do(http.MethodPost, "/api/game/match/vs-ai", "", asAlice())

		assert.Equal(t, http.StatusCreated, withLevel.Code)
		assert.Equal(t, http.StatusCreated, withoutBody.Code)
		assert.Equal(t, "in_progress", decode[map[string]any](t, withLevel)["status"])
	})

	t.Run("Make move", func(t *testing.T) {
		fx := newRestFixture(t)
		game := &entity.Game{ID: "g1", PlayerX: "alice", PlayerO: "bob", Status: entity.StatusFinished, Winner: "alice"}
		game.Board[0][0] = entity.MarkX
		game.Moves = []entity.Move{{Player: "alice", Marker: entity.MarkX, Row: 0, Col: 0, Timestamp: startedAt}}
		fx.games.On("MakeMove", mock.Anything, "g1", "alice", 0, 0).Return(game, "Game finished.", nil).Once()

		// When: alice plays the corner; row 0 counts as given
		rec := fx.do(http.MethodPost, "/api/game/g1/move", `{"row":0,"col":0}`, asAlice())

		// Then: the finished session is returned
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"game_id": "g1",
			"board": [["X","",""],["","",""],["","",""]],
			"status": "finished",
			"winner": "alice",
			"moves": [{"player":"alice","marker":"X","row":0,"col":0,"ts":"2024-03-01T12:00:00Z"}],
			"message": "Game finished."
		}`, rec.Body.String())
	})

	t.Run("Make move without col", func(t *testing.T) {
		fx := newRestFixture(t)

		rec := fx.do(http.MethodPost, "/api/game/g1/move", `{"row":1}`, asAlice())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"Field col is required."}`, rec.Body.String())
	})

	t.Run("Move errors map to statuses", func(t *testing.T) {
		tests := []struct {
			name       string
			err        error
			wantStatus int
		}{
			{name: "occupied", err: apperror.ErrCellOccupied, wantStatus: http.StatusConflict},
			{name: "waiting", err: apperror.ErrGameIsNotStarted, wantStatus: http.StatusConflict},
			{name: "finished", err: apperror.ErrGameNotFound, wantStatus: http.StatusNotFound},
			{name: "stranger", err: apperror.ErrNotParticipant, wantStatus: http.StatusUnauthorized},
			{name: "out of range", err: apperror.ErrInvalidCell, wantStatus: http.StatusBadRequest},
			{name: "storage", err: assert.AnError, wantStatus: http.StatusInternalServerError},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				fx := newRestFixture(t)
				fx.games.On("MakeMove", mock.Anything, "g1", "alice", 1, 1).Return(nil, "", tt.err).Once()

				rec := fx.do(http.MethodPost, "/api/game/g1/move", `{"row":1,"col":1}`, asAlice())

				assert.Equal(t, tt.wantStatus, rec.Code)
				if tt.wantStatus == http.StatusInternalServerError {
					assert.JSONEq(t, `{"message":"Internal Server Error"}`, rec.Body.String())
				}
			})
		}
	})

	t.Run("History", func(t *testing.T) {
		fx := newRestFixture(t)
		games := []*entity.Game{
			{ID: "g2", PlayerX: "alice", PlayerO: entity.AIPlayer, Type: entity.TypeVsAI, Status: entity.StatusInProgress, StartedAt: &startedAt},
			{ID: "g1", PlayerX: "alice", Status: entity.StatusWaiting},
		}
		fx.games.On("History", mock.Anything, "alice").Return(games, nil).Once()

		rec := fx.do(http.MethodGet, "/api/game/history", "", asAlice())

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[
			{"game_id":"g2","player_x":"alice","player_o":"AI","game_type":"vs_ai","status":"in_progress","winner":null,"moves":[],"started_at":"2024-03-01T12:00:00Z","finished_at":null},
			{"game_id":"g1","player_x":"alice","player_o":null,"game_type":"vs_player","status":"waiting","winner":null,"moves":[],"started_at":null,"finished_at":null}
		]`, rec.Body.String())
	})

	t.Run("Leaderboard needs no identity", func(t *testing.T) {
		fx := newRestFixture(t)
		fx.users.On("Leaderboard", mock.Anything).Return([]*entity.User{
			{Username: "B", PasswordHash: "hash", Wins: 5, Losses: 3, GamesPlayed: 8},
			{Username: "A", Wins: 5, Losses: 5, GamesPlayed: 10},
		}, nil).Once()

		rec := fx.do(http.MethodGet, "/api/game/leaderboard", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[
			{"username":"B","wins":5,"games_played":8},
			{"username":"A","wins":5,"games_played":10}
		]`, rec.Body.String())
	})
}
