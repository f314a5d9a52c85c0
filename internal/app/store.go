package app

import (
	"context"

	"classroom-quiz-service/internal/domain"
)

// Store runs a unit of work. Implementations must commit everything fn did when it returns nil
// and discard all of it otherwise.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the transactional view over every entity the core persists.
type Tx interface {
	QuizTx
	LedgerTx
}

// QuizTx covers quizzes, questions, participants and answers.
// Lookups return domain.ErrNotFound for missing rows; inserts return domain.ErrConflict on
// unique violations of (quiz_id, student_id), (participant_id, question_id) or a live join code.
type QuizTx interface {
	InsertQuiz(ctx context.Context, quiz domain.Quiz) error
	Quiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// LockQuiz reads the quiz and holds an exclusive row lock until the transaction ends.
	LockQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// ShareQuiz reads the quiz under a shared lock: concurrent sharers proceed, LockQuiz waits.
	ShareQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// QuizByJoinCode only matches quizzes that are not finished.
	QuizByJoinCode(ctx context.Context, code string) (domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error

	InsertQuestions(ctx context.Context, questions []domain.Question) error
	// ReplaceQuestions rewrites order, options and correct index of existing questions.
	ReplaceQuestions(ctx context.Context, quizID string, questions []domain.Question) error
	DeleteQuestion(ctx context.Context, quizID, questionID string) error
	// Questions are returned sorted by Order.
	Questions(ctx context.Context, quizID string) ([]domain.Question, error)

	InsertParticipant(ctx context.Context, p domain.Participant) error
	Participant(ctx context.Context, quizID, studentID string) (domain.Participant, error)
	LockParticipant(ctx context.Context, quizID, studentID string) (domain.Participant, error)
	Participants(ctx context.Context, quizID string) ([]domain.Participant, error)
	CountParticipants(ctx context.Context, quizID string) (int, error)
	SaveParticipant(ctx context.Context, p domain.Participant) error

	InsertAnswer(ctx context.Context, a domain.Answer) error
	Answers(ctx context.Context, participantID string) ([]domain.Answer, error)
}

// LedgerTx covers balances, the transaction log, withdrawals and the prize catalog.
type LedgerTx interface {
	// LockBalance returns the student's balance under an exclusive lock, creating a zero row if absent.
	LockBalance(ctx context.Context, studentID string) (domain.CoinBalance, error)
	SaveBalance(ctx context.Context, b domain.CoinBalance) error
	AppendTransaction(ctx context.Context, t domain.CoinTransaction) error
	// Transactions are returned newest first.
	Transactions(ctx context.Context, studentID string) ([]domain.CoinTransaction, error)

	InsertWithdrawal(ctx context.Context, w domain.Withdrawal) error
	LockWithdrawal(ctx context.Context, id string) (domain.Withdrawal, error)
	SaveWithdrawal(ctx context.Context, w domain.Withdrawal) error
	Withdrawals(ctx context.Context, studentID string) ([]domain.Withdrawal, error)

	InsertPrize(ctx context.Context, p domain.Prize) error
	LockPrize(ctx context.Context, id string) (domain.Prize, error)
	SavePrize(ctx context.Context, p domain.Prize) error
	Prizes(ctx context.Context) ([]domain.Prize, error)
	InsertRedemption(ctx context.Context, r domain.Redemption) error
}

// Directory resolves teacher and student profiles by id.
type Directory interface {
	Teacher(ctx context.Context, id string) (domain.Profile, error)
	Student(ctx context.Context, id string) (domain.Profile, error)
}

// IdentityProvider verifies a caller token.
type IdentityProvider interface {
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

// Notifier delivers best-effort user notifications.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

// EventPublisher fans quiz events out to live subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// LeaderboardSource computes a quiz leaderboard.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error)
}
