package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Open connects bun to Postgres through pgdriver.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Store implements app.Store on Postgres. Each unit of work is one READ COMMITTED transaction;
// the row locks taken by the Lock* and Share* methods provide the isolation the engine needs.
type Store struct {
	db *bun.DB
}

var _ app.Store = (*Store)(nil)

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &storeTx{tx: tx})
	})
}

type storeTx struct {
	tx bun.Tx
}

// Postgres constraint names the store translates into domain errors.
const (
	balanceNonNegative = "coin_balances_non_negative"
	stockNonNegative   = "prizes_stock_non_negative"
)

// translate maps driver errors onto domain sentinels.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
		switch pgErr.Field('n') {
		case balanceNonNegative:
			return fmt.Errorf("%w: %s", domain.ErrInsufficientBalance, what)
		case stockNonNegative:
			return fmt.Errorf("%w: %s", domain.ErrOutOfStock, what)
		}
		if pgErr.Field('C') == "23505" {
			return fmt.Errorf("%w: %s", domain.ErrConflict, what)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// updated reports a missing row when an update touched nothing.
func updated(res sql.Result, err error, what string) error {
	if err != nil {
		return translate(err, what)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	return nil
}

func (t *storeTx) InsertQuiz(ctx context.Context, quiz domain.Quiz) error {
	_, err := t.tx.NewInsert().Model(newQuizRow(quiz)).Exec(ctx)
	return translate(err, "quiz "+quiz.ID)
}

func (t *storeTx) selectQuiz(ctx context.Context, quizID, lock string) (domain.Quiz, error) {
	row := new(quizRow)
	q := t.tx.NewSelect().Model(row).Where("id = ?", quizID)
	if lock != "" {
		q = q.For(lock)
	}
	if err := q.Scan(ctx); err != nil {
		return domain.Quiz{}, translate(err, "quiz "+quizID)
	}
	return row.domain(), nil
}

func (t *storeTx) Quiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return t.selectQuiz(ctx, quizID, "")
}

func (t *storeTx) LockQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return t.selectQuiz(ctx, quizID, "UPDATE")
}

func (t *storeTx) ShareQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return t.selectQuiz(ctx, quizID, "SHARE")
}

func (t *storeTx) QuizByJoinCode(ctx context.Context, code string) (domain.Quiz, error) {
	row := new(quizRow)
	err := t.tx.NewSelect().Model(row).
		Where("join_code = ?", code).
		Where("status <> ?", string(domain.QuizFinished)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Quiz{}, translate(err, "join code "+code)
	}
	return row.domain(), nil
}

func (t *storeTx) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	res, err := t.tx.NewUpdate().Model(newQuizRow(quiz)).WherePK().Exec(ctx)
	return updated(res, err, "quiz "+quiz.ID)
}

func (t *storeTx) InsertQuestions(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, newQuestionRow(q))
	}
	_, err := t.tx.NewInsert().Model(&rows).Exec(ctx)
	return translate(err, "questions")
}

func (t *storeTx) ReplaceQuestions(ctx context.Context, quizID string, questions []domain.Question) error {
	for _, q := range questions {
		row := newQuestionRow(q)
		res, err := t.tx.NewUpdate().Model(&row).
			Column("options", "correct_option_index", "position").
			Where("quiz_id = ?", quizID).
			WherePK().
			Exec(ctx)
		if err := updated(res, err, "question "+q.ID); err != nil {
			return err
		}
	}
	return nil
}

func (t *storeTx) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	res, err := t.tx.NewDelete().Model((*questionRow)(nil)).
		Where("quiz_id = ?", quizID).
		Where("id = ?", questionID).
		Exec(ctx)
	return updated(res, err, "question "+questionID)
}

func (t *storeTx) Questions(ctx context.Context, quizID string) ([]domain.Question, error) {
	var rows []questionRow
	err := t.tx.NewSelect().Model(&rows).Where("quiz_id = ?", quizID).Order("position ASC").Scan(ctx)
	if err != nil {
		return nil, translate(err, "questions of "+quizID)
	}
	out := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (t *storeTx) InsertParticipant(ctx context.Context, p domain.Participant) error {
	_, err := t.tx.NewInsert().Model(newParticipantRow(p)).Exec(ctx)
	return translate(err, "participant "+p.StudentID)
}

func (t *storeTx) selectParticipant(ctx context.Context, quizID, studentID string, lock bool) (domain.Participant, error) {
	row := new(participantRow)
	q := t.tx.NewSelect().Model(row).Where("quiz_id = ?", quizID).Where("student_id = ?", studentID)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return domain.Participant{}, translate(err, "participant "+studentID)
	}
	return row.domain(), nil
}

func (t *storeTx) Participant(ctx context.Context, quizID, studentID string) (domain.Participant, error) {
	return t.selectParticipant(ctx, quizID, studentID, false)
}

func (t *storeTx) LockParticipant(ctx context.Context, quizID, studentID string) (domain.Participant, error) {
	return t.selectParticipant(ctx, quizID, studentID, true)
}

func (t *storeTx) Participants(ctx context.Context, quizID string) ([]domain.Participant, error) {
	var rows []participantRow
	err := t.tx.NewSelect().Model(&rows).Where("quiz_id = ?", quizID).Order("joined_at ASC", "id ASC").Scan(ctx)
	if err != nil {
		return nil, translate(err, "participants of "+quizID)
	}
	out := make([]domain.Participant, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (t *storeTx) CountParticipants(ctx context.Context, quizID string) (int, error) {
	n, err := t.tx.NewSelect().Model((*participantRow)(nil)).Where("quiz_id = ?", quizID).Count(ctx)
	return n, translate(err, "participants of "+quizID)
}

func (t *storeTx) SaveParticipant(ctx context.Context, p domain.Participant) error {
	res, err := t.tx.NewUpdate().Model(newParticipantRow(p)).WherePK().Exec(ctx)
	return updated(res, err, "participant "+p.ID)
}

func (t *storeTx) InsertAnswer(ctx context.Context, a domain.Answer) error {
	row := &answerRow{
		ID:                a.ID,
		QuizID:            a.QuizID,
		ParticipantID:     a.ParticipantID,
		QuestionID:        a.QuestionID,
		SelectedOption:    a.SelectedOption,
		IsCorrect:         a.IsCorrect,
		PointsEarned:      a.PointsEarned,
		ResponseLatencyMS: a.ResponseLatencyMS,
		CreatedAt:         a.CreatedAt,
	}
	_, err := t.tx.NewInsert().Model(row).Exec(ctx)
	return translate(err, "answer to "+a.QuestionID)
}

func (t *storeTx) Answers(ctx context.Context, participantID string) ([]domain.Answer, error) {
	var rows []answerRow
	err := t.tx.NewSelect().Model(&rows).Where("participant_id = ?", participantID).Order("created_at ASC").Scan(ctx)
	if err != nil {
		return nil, translate(err, "answers of "+participantID)
	}
	out := make([]domain.Answer, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}
