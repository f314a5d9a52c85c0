package domain

import "errors"

var (
	// ErrInvalidState is returned when an operation is illegal in the current lifecycle stage.
	ErrInvalidState = errors.New("invalid state")
	// ErrNotFound indicates a referenced entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrNotOwner indicates the caller does not own the quiz.
	ErrNotOwner = errors.New("not owner")
	// ErrPermissionDenied indicates the caller has no profile allowing the operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDuplicateAnswer is returned on a second answer for the same question.
	ErrDuplicateAnswer = errors.New("duplicate answer")
	// ErrConflict is returned by stores on unique constraint violations.
	ErrConflict = errors.New("conflict")
	// ErrFull indicates the quiz reached max participants.
	ErrFull = errors.New("quiz is full")
	// ErrEmptyQuiz indicates a lobby cannot open without questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowMinimum        = errors.New("below minimum withdrawal")
	ErrOutOfStock          = errors.New("out of stock")
	// ErrInvalidInput covers malformed requests (option counts, empty titles, unknown reasons).
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthenticated means the caller token could not be verified.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized means the verified caller has the wrong role.
	ErrUnauthorized = errors.New("unauthorized")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrDuplicateAnswer, "DuplicateAnswer"},
	{ErrInvalidState, "InvalidState"},
	{ErrNotFound, "NotFound"},
	{ErrNotOwner, "NotOwner"},
	{ErrPermissionDenied, "PermissionDenied"},
	{ErrConflict, "Conflict"},
	{ErrFull, "Full"},
	{ErrEmptyQuiz, "EmptyQuiz"},
	{ErrInvalidAmount, "InvalidAmount"},
	{ErrInsufficientBalance, "InsufficientBalance"},
	{ErrBelowMinimum, "BelowMinimum"},
	{ErrOutOfStock, "OutOfStock"},
	{ErrInvalidInput, "InvalidInput"},
	{ErrUnauthenticated, "Unauthenticated"},
	{ErrUnauthorized, "Unauthorized"},
}

// KindOf maps an error to its stable kind name. Unknown errors are "Internal".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}
