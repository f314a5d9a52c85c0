package memory

import (
	"context"
	"errors"
	"testing"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
)

func TestStoreRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		if err := tx.InsertQuiz(ctx, domain.Quiz{ID: "quiz-1", Status: domain.QuizCreated}); err != nil {
			return err
		}
		if _, err := tx.LockBalance(ctx, "s1"); err != nil {
			return err
		}
		if err := tx.AppendTransaction(ctx, domain.CoinTransaction{ID: "t1", StudentID: "s1", Amount: 5}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	err = store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		if _, err := tx.Quiz(ctx, "quiz-1"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected rolled back quiz, got %v", err)
		}
		txs, err := tx.Transactions(ctx, "s1")
		if err != nil {
			return err
		}
		if len(txs) != 0 {
			t.Fatalf("expected no transactions, got %d", len(txs))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read tx: %v", err)
	}
}

func TestStoreUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		if err := tx.InsertQuiz(ctx, domain.Quiz{ID: "quiz-1"}); err != nil {
			return err
		}
		p := domain.Participant{ID: "p1", QuizID: "quiz-1", StudentID: "s1"}
		if err := tx.InsertParticipant(ctx, p); err != nil {
			return err
		}
		p.ID = "p2"
		if err := tx.InsertParticipant(ctx, p); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected participant conflict, got %v", err)
		}
		a := domain.Answer{ID: "a1", ParticipantID: "p1", QuestionID: "q1"}
		if err := tx.InsertAnswer(ctx, a); err != nil {
			return err
		}
		a.ID = "a2"
		if err := tx.InsertAnswer(ctx, a); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected answer conflict, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func TestStoreJoinCodeOnlyMatchesLiveQuizzes(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		if err := tx.InsertQuiz(ctx, domain.Quiz{ID: "old", JoinCode: "ABC123", Status: domain.QuizFinished}); err != nil {
			return err
		}
		if _, err := tx.QuizByJoinCode(ctx, "ABC123"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("finished quiz should not match, got %v", err)
		}
		if err := tx.InsertQuiz(ctx, domain.Quiz{ID: "new", Status: domain.QuizCreated}); err != nil {
			return err
		}
		if err := tx.SaveQuiz(ctx, domain.Quiz{ID: "new", JoinCode: "ABC123", Status: domain.QuizWaiting}); err != nil {
			return err
		}
		got, err := tx.QuizByJoinCode(ctx, "ABC123")
		if err != nil {
			return err
		}
		if got.ID != "new" {
			t.Fatalf("expected new quiz, got %s", got.ID)
		}
		if err := tx.InsertQuiz(ctx, domain.Quiz{ID: "third", Status: domain.QuizCreated}); err != nil {
			return err
		}
		if err := tx.SaveQuiz(ctx, domain.Quiz{ID: "third", JoinCode: "ABC123", Status: domain.QuizWaiting}); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected join code conflict, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func TestStoreRejectsNegativeBalance(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		return tx.SaveBalance(ctx, domain.CoinBalance{StudentID: "s1", CurrentBalance: -1})
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewStore()

	called := false
	err := store.WithinTx(ctx, func(ctx context.Context, tx app.Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected canceled without running fn, got err=%v called=%v", err, called)
	}
}
