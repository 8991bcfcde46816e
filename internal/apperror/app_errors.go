package apperror

import "errors"

// Error kinds. Every concrete error below wraps exactly one of them.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
)

var (
	ErrMissingIdentity    = New(ErrUnauthorized, "Missing username authentication header.")
	ErrInvalidToken       = New(ErrUnauthorized, "Invalid or expired token.")
	ErrInvalidCredentials = New(ErrUnauthorized, "Invalid username or password.")
	ErrNotParticipant     = New(ErrUnauthorized, "You are not a player in this game.")
	ErrReservedIdentity   = New(ErrUnauthorized, "Reserved identity cannot make requests.")

	ErrSelfMatch         = New(ErrConflict, "You cannot match against yourself.")
	ErrGameIsNotStarted  = New(ErrConflict, "Waiting for other player to join.")
	ErrCellOccupied      = New(ErrConflict, "Cell already occupied.")
	ErrNotYourTurn       = New(ErrConflict, "It's not your turn.")
	ErrGameNotJoinable   = New(ErrConflict, "Game is no longer waiting for an opponent.")
	ErrUserAlreadyExists = New(ErrConflict, "Username already exists.")

	ErrGameNotFound = New(ErrNotFound, "Game not found or is finished.")

	ErrInvalidCell     = New(ErrInvalidOperation, "Row and column must be between 0 and 2.")
	ErrReservedName    = New(ErrInvalidOperation, "Username is reserved.")
	ErrInvalidUsername = New(ErrInvalidOperation, "Username is required.")
	ErrInvalidPassword = New(ErrInvalidOperation, "Password is required.")
)

// Error is a human-readable failure that belongs to one of the error kinds.
type Error struct {
	Kind    error
	Message string
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (that *Error) Error() string {
	return that.Message
}

func (that *Error) Unwrap() error {
	return that.Kind
}

// KindOf returns the error kind err belongs to, or nil for errors outside the taxonomy.
func KindOf(err error) error {
	for _, kind := range []error{ErrUnauthorized, ErrConflict, ErrNotFound, ErrInvalidOperation} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}

// Message returns the human-readable message of the first taxonomy error in err's chain.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	return err.Error()
}
