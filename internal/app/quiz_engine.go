package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	mathrand "math/rand"
	"strings"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
)

const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// QuizEngine owns the live quiz lifecycle: created -> waiting -> active -> finished.
type QuizEngine struct {
	store     Store
	ledger    *CoinLedger
	directory Directory
	rules     QuizRules
	events    EventPublisher
	notifier  Notifier
	now       func() time.Time
	log       *slog.Logger
	codes     func(length int) (string, error)
	shuffle   func(n int, swap func(i, j int))
}

// EngineOption customizes a QuizEngine.
type EngineOption func(*QuizEngine)

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *QuizEngine) { e.now = now }
}

func WithLogger(log *slog.Logger) EngineOption {
	return func(e *QuizEngine) { e.log = log }
}

func WithEvents(p EventPublisher) EngineOption {
	return func(e *QuizEngine) { e.events = p }
}

func WithNotifier(n Notifier) EngineOption {
	return func(e *QuizEngine) { e.notifier = n }
}

// WithJoinCodes replaces the random join code generator.
func WithJoinCodes(gen func(length int) (string, error)) EngineOption {
	return func(e *QuizEngine) { e.codes = gen }
}

// WithShuffle replaces the permutation used for shuffled quizzes.
func WithShuffle(shuffle func(n int, swap func(i, j int))) EngineOption {
	return func(e *QuizEngine) { e.shuffle = shuffle }
}

func NewQuizEngine(store Store, ledger *CoinLedger, directory Directory, rules QuizRules, opts ...EngineOption) *QuizEngine {
	e := &QuizEngine{
		store:     store,
		ledger:    ledger,
		directory: directory,
		rules:     rules,
		now:       time.Now,
		log:       slog.Default(),
		codes:     randomJoinCode,
		shuffle:   mathrand.Shuffle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateQuiz creates a quiz in the created state for an existing teacher.
func (e *QuizEngine) CreateQuiz(ctx context.Context, teacherID, title string, settings domain.QuizSettings) (domain.Quiz, error) {
	if _, err := e.directory.Teacher(ctx, teacherID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Quiz{}, fmt.Errorf("%w: no teacher profile for %s", domain.ErrPermissionDenied, teacherID)
		}
		return domain.Quiz{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Quiz{}, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if settings.TimePerQuestion < 0 {
		return domain.Quiz{}, fmt.Errorf("%w: negative time per question", domain.ErrInvalidInput)
	}
	timePerQuestion := settings.TimePerQuestion
	if timePerQuestion == 0 {
		timePerQuestion = int(e.rules.DefaultTimeLimit / time.Second)
	}
	quiz := domain.Quiz{
		ID:               uuid.NewString(),
		TeacherID:        teacherID,
		Title:            title,
		Status:           domain.QuizCreated,
		TimePerQuestion:  timePerQuestion,
		ShuffleQuestions: settings.ShuffleQuestions,
		ShuffleOptions:   settings.ShuffleOptions,
		MaxParticipants:  e.rules.MaxParticipants,
		CreatedAt:        e.now(),
	}
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertQuiz(ctx, quiz)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	e.log.Info("quiz created", "quiz", quiz.ID, "teacher", teacherID)
	return quiz, nil
}

// AddQuestions appends questions to a quiz that is still being edited.
func (e *QuizEngine) AddQuestions(ctx context.Context, teacherID, quizID string, inputs []domain.QuestionInput) (int, error) {
	if len(inputs) == 0 {
		return 0, fmt.Errorf("%w: no questions", domain.ErrInvalidInput)
	}
	for i, in := range inputs {
		if err := validateQuestion(in); err != nil {
			return 0, fmt.Errorf("question %d: %w", i, err)
		}
	}
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		quiz, err := e.ownedQuiz(ctx, tx, teacherID, quizID)
		if err != nil {
			return err
		}
		if quiz.Status != domain.QuizCreated {
			return invalidState(quiz, "add questions")
		}
		existing, err := tx.Questions(ctx, quizID)
		if err != nil {
			return err
		}
		questions := make([]domain.Question, 0, len(inputs))
		for i, in := range inputs {
			points := in.Points
			if points == 0 {
				points = e.rules.DefaultPoints
			}
			limit := in.TimeLimit
			if limit == 0 {
				limit = quiz.TimePerQuestion
			}
			questions = append(questions, domain.Question{
				ID:                 uuid.NewString(),
				QuizID:             quizID,
				Text:               strings.TrimSpace(in.Text),
				Options:            append([]string(nil), in.Options...),
				CorrectOptionIndex: in.CorrectOptionIndex,
				Points:             points,
				TimeLimit:          limit,
				Order:              len(existing) + i,
			})
		}
		return tx.InsertQuestions(ctx, questions)
	})
	if err != nil {
		return 0, err
	}
	return len(inputs), nil
}

// RemoveQuestion deletes a question while the quiz is being edited and renumbers the rest.
func (e *QuizEngine) RemoveQuestion(ctx context.Context, teacherID, quizID, questionID string) error {
	return e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		quiz, err := e.ownedQuiz(ctx, tx, teacherID, quizID)
		if err != nil {
			return err
		}
		if quiz.Status != domain.QuizCreated {
			return invalidState(quiz, "remove questions")
		}
		if err := tx.DeleteQuestion(ctx, quizID, questionID); err != nil {
			return err
		}
		questions, err := tx.Questions(ctx, quizID)
		if err != nil {
			return err
		}
		for i := range questions {
			questions[i].Order = i
		}
		return tx.ReplaceQuestions(ctx, quizID, questions)
	})
}

// OpenLobby moves the quiz to waiting and assigns a join code unique among live quizzes.
func (e *QuizEngine) OpenLobby(ctx context.Context, teacherID, quizID string) (string, error) {
	var quiz domain.Quiz
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		quiz, err = e.ownedQuiz(ctx, tx, teacherID, quizID)
		if err != nil {
			return err
		}
		if quiz.Status != domain.QuizCreated {
			return invalidState(quiz, "open lobby")
		}
		questions, err := tx.Questions(ctx, quizID)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return fmt.Errorf("%w: quiz %s", domain.ErrEmptyQuiz, quizID)
		}
		if quiz.ShuffleQuestions || quiz.ShuffleOptions {
			e.shuffleQuestions(quiz, questions)
			if err := tx.ReplaceQuestions(ctx, quizID, questions); err != nil {
				return err
			}
		}
		code, err := e.uniqueJoinCode(ctx, tx)
		if err != nil {
			return err
		}
		quiz.JoinCode = code
		quiz.Status = domain.QuizWaiting
		return tx.SaveQuiz(ctx, quiz)
	})
	if err != nil {
		return "", err
	}
	e.log.Info("lobby opened", "quiz", quiz.ID, "code", quiz.JoinCode)
	e.after(ctx, func(o *outbox) {
		o.event(Event{Type: EventLobbyOpened, QuizID: quiz.ID, At: e.now(), Payload: quiz})
	})
	return quiz.JoinCode, nil
}

func (e *QuizEngine) uniqueJoinCode(ctx context.Context, tx Tx) (string, error) {
	attempts := e.rules.JoinCodeAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		code, err := e.codes(e.rules.JoinCodeLength)
		if err != nil {
			return "", err
		}
		code = strings.ToUpper(code)
		_, err = tx.QuizByJoinCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: no free join code after %d attempts", domain.ErrConflict, attempts)
}

func (e *QuizEngine) shuffleQuestions(quiz domain.Quiz, questions []domain.Question) {
	if quiz.ShuffleQuestions {
		e.shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	for i := range questions {
		questions[i].Order = i
		if !quiz.ShuffleOptions {
			continue
		}
		q := &questions[i]
		options := append([]string(nil), q.Options...)
		correct := q.CorrectOptionIndex
		e.shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
			switch correct {
			case a:
				correct = b
			case b:
				correct = a
			}
		})
		q.Options = options
		q.CorrectOptionIndex = correct
	}
}

// JoinQuiz adds the student to the lobby identified by joinCode. Joining twice returns the
// existing participant.
func (e *QuizEngine) JoinQuiz(ctx context.Context, studentID, joinCode, displayName string) (domain.Participant, error) {
	profile, err := e.directory.Student(ctx, studentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Participant{}, fmt.Errorf("%w: no student profile for %s", domain.ErrPermissionDenied, studentID)
		}
		return domain.Participant{}, err
	}
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = profile.DisplayName
	}

	var participant domain.Participant
	created := false
	err = e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		found, err := tx.QuizByJoinCode(ctx, strings.ToUpper(strings.TrimSpace(joinCode)))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: join code %q", domain.ErrNotFound, joinCode)
			}
			return err
		}
		quiz, err := tx.LockQuiz(ctx, found.ID)
		if err != nil {
			return err
		}
		existing, err := tx.Participant(ctx, quiz.ID, studentID)
		switch {
		case err == nil:
			participant = existing
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		if quiz.Status != domain.QuizWaiting {
			return invalidState(quiz, "join")
		}
		count, err := tx.CountParticipants(ctx, quiz.ID)
		if err != nil {
			return err
		}
		if count >= quiz.MaxParticipants {
			return fmt.Errorf("%w: %d of %d", domain.ErrFull, count, quiz.MaxParticipants)
		}
		participant = domain.Participant{
			ID:          uuid.NewString(),
			QuizID:      quiz.ID,
			StudentID:   studentID,
			DisplayName: name,
			AvatarToken: profile.AvatarToken,
			State:       domain.ParticipantJoined,
			JoinedAt:    e.now(),
		}
		created = true
		return tx.InsertParticipant(ctx, participant)
	})
	if err != nil {
		return domain.Participant{}, err
	}
	if created {
		e.after(ctx, func(o *outbox) {
			o.event(Event{Type: EventParticipantJoined, QuizID: participant.QuizID, At: e.now(), Payload: participant})
		})
	}
	return participant, nil
}

// Start activates the first question for every participant.
func (e *QuizEngine) Start(ctx context.Context, teacherID, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	var first domain.QuestionView
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		quiz, err = e.ownedQuiz(ctx, tx, teacherID, quizID)
		if err != nil {
			return err
		}
		if quiz.Status != domain.QuizWaiting {
			return invalidState(quiz, "start")
		}
		participants, err := tx.Participants(ctx, quizID)
		if err != nil {
			return err
		}
		if len(participants) == 0 {
			return fmt.Errorf("%w: quiz %s has no participants", domain.ErrInvalidState, quizID)
		}
		for _, p := range participants {
			p.State = domain.ParticipantAnswering
			if err := tx.SaveParticipant(ctx, p); err != nil {
				return err
			}
		}
		questions, err := tx.Questions(ctx, quizID)
		if err != nil {
			return err
		}
		now := e.now()
		quiz.Status = domain.QuizActive
		quiz.CurrentQuestionIndex = 0
		quiz.StartedAt = &now
		first = questionView(quiz, questions)
		return tx.SaveQuiz(ctx, quiz)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	e.log.Info("quiz started", "quiz", quiz.ID)
	e.after(ctx, func(o *outbox) {
		o.event(Event{Type: EventQuizStarted, QuizID: quiz.ID, At: e.now(), Payload: quiz})
		o.event(Event{Type: EventQuestionStarted, QuizID: quiz.ID, At: e.now(), Payload: first})
	})
	return quiz, nil
}

// SubmitAnswer scores the student's single answer for the current question.
func (e *QuizEngine) SubmitAnswer(ctx context.Context, studentID, quizID, questionID string, selected int, latencyMS int64) (domain.AnswerResult, error) {
	var result domain.AnswerResult
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		quiz, err := tx.ShareQuiz(ctx, quizID)
		if err != nil {
			return err
		}
		if quiz.Status != domain.QuizActive {
			return invalidState(quiz, "answer")
		}
		questions, err := tx.Questions(ctx, quizID)
		if err != nil {
			return err
		}
		if quiz.CurrentQuestionIndex >= len(questions) {
			return invalidState(quiz, "answer")
		}
		question := questions[quiz.CurrentQuestionIndex]
		if question.ID != questionID {
			return fmt.Errorf("%w: question %s is not current", domain.ErrInvalidState, questionID)
		}
		if selected < 0 || selected >= len(question.Options) {
			return fmt.Errorf("%w: option %d out of range", domain.ErrInvalidInput, selected)
		}
		participant, err := tx.LockParticipant(ctx, quizID, studentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: %s is not a participant", domain.ErrNotFound, studentID)
			}
			return err
		}
		correct := selected == question.CorrectOptionIndex
		limitMS := int64(question.TimeLimit) * 1000
		points := scoreAnswer(correct, question.Points, limitMS, latencyMS, e.rules.PenaltyScale)
		answer := domain.Answer{
			ID:                uuid.NewString(),
			QuizID:            quizID,
			ParticipantID:     participant.ID,
			QuestionID:        question.ID,
			SelectedOption:    selected,
			IsCorrect:         correct,
			PointsEarned:      points,
			ResponseLatencyMS: latencyMS,
			CreatedAt:         e.now(),
		}
		if err := tx.InsertAnswer(ctx, answer); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return fmt.Errorf("%w: %s already answered %s", domain.ErrDuplicateAnswer, studentID, questionID)
			}
			return err
		}
		applyAnswer(&participant, correct, points)
		if err := tx.SaveParticipant(ctx, participant); err != nil {
			return err
		}
		result = domain.AnswerResult{
			QuestionID:   question.ID,
			IsCorrect:    correct,
			PointsEarned: points,
			TotalScore:   participant.TotalScore,
			Streak:       participant.CurrentStreak,
		}
		return nil
	})
	if err != nil {
		return domain.AnswerResult{}, err
	}
	e.after(ctx, func(o *outbox) {
		o.event(Event{Type: EventAnswerSubmitted, QuizID: quizID, At: e.now(), Payload: map[string]string{
			"studentId":  studentID,
			"questionId": questionID,
		}})
	})
	return result, nil
}

// NextQuestion advances the quiz; advancing past the last question finishes it.
// Calling it on a finished quiz is a no-op.
func (e *QuizEngine) NextQuestion(ctx context.Context, teacherID, quizID string) (domain.Quiz, error) {
	return e.advance(ctx, teacherID, quizID, false)
}

// End finishes an active quiz immediately. Calling it on a finished quiz is a no-op.
func (e *QuizEngine) End(ctx context.Context, teacherID, quizID string) (domain.Quiz, error) {
	return e.advance(ctx, teacherID, quizID, true)
}

func (e *QuizEngine) advance(ctx context.Context, teacherID, quizID string, end bool) (domain.Quiz, error) {
	var quiz domain.Quiz
	out := &outbox{}
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		out = &outbox{}
		var err error
		quiz, err = e.ownedQuiz(ctx, tx, teacherID, quizID)
		if err != nil {
			return err
		}
		switch quiz.Status {
		case domain.QuizFinished:
			return nil
		case domain.QuizActive:
		default:
			if end {
				return invalidState(quiz, "end")
			}
			return invalidState(quiz, "advance")
		}
		questions, err := tx.Questions(ctx, quizID)
		if err != nil {
			return err
		}
		if !end && quiz.CurrentQuestionIndex+1 < len(questions) {
			quiz.CurrentQuestionIndex++
			out.event(Event{Type: EventQuestionStarted, QuizID: quiz.ID, At: e.now(), Payload: questionView(quiz, questions)})
			return tx.SaveQuiz(ctx, quiz)
		}
		if !end {
			quiz.CurrentQuestionIndex = len(questions)
		}
		return e.finish(ctx, tx, &quiz, out)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	e.after(ctx, func(o *outbox) { *o = *out })
	return quiz, nil
}

// finish assigns ranks and pays rewards inside the caller's transaction so neither can
// commit without the other.
func (e *QuizEngine) finish(ctx context.Context, tx Tx, quiz *domain.Quiz, out *outbox) error {
	participants, err := tx.Participants(ctx, quiz.ID)
	if err != nil {
		return err
	}
	rankParticipants(participants)
	for i := range participants {
		p := &participants[i]
		p.Rank = i + 1
		p.State = domain.ParticipantFinished
		p.CoinsEarned = int64(p.CorrectCount)*e.rules.CoinsPerCorrect + e.rules.rankBonus(p.Rank)
		if p.CoinsEarned > 0 {
			desc := fmt.Sprintf("quiz %q rank %d", quiz.Title, p.Rank)
			if _, err := e.ledger.credit(ctx, tx, p.StudentID, p.CoinsEarned, domain.TxQuizReward, desc, quiz.ID); err != nil {
				return err
			}
		}
		if err := tx.SaveParticipant(ctx, *p); err != nil {
			return err
		}
		out.notify(p.StudentID, fmt.Sprintf("%s finished: you placed #%d and earned %d coins", quiz.Title, p.Rank, p.CoinsEarned))
	}
	now := e.now()
	quiz.Status = domain.QuizFinished
	quiz.EndedAt = &now
	if err := tx.SaveQuiz(ctx, *quiz); err != nil {
		return err
	}
	out.event(Event{Type: EventQuizFinished, QuizID: quiz.ID, At: now, Payload: domain.Leaderboard{
		QuizID:    quiz.ID,
		Status:    quiz.Status,
		Entries:   leaderboardEntries(participants),
		UpdatedAt: now,
	}})
	e.log.Info("quiz finished", "quiz", quiz.ID, "participants", len(participants))
	return nil
}

// GetLeaderboard reads the current standings from the store.
func (e *QuizEngine) GetLeaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	var lb domain.Leaderboard
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		quiz, err := tx.Quiz(ctx, quizID)
		if err != nil {
			return err
		}
		participants, err := tx.Participants(ctx, quizID)
		if err != nil {
			return err
		}
		rankParticipants(participants)
		lb = domain.Leaderboard{
			QuizID:    quizID,
			Status:    quiz.Status,
			Entries:   leaderboardEntries(participants),
			UpdatedAt: e.now(),
		}
		return nil
	})
	return lb, err
}

// Leaderboard implements LeaderboardSource.
func (e *QuizEngine) Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	return e.GetLeaderboard(ctx, quizID)
}

// AnswerHistory returns the student's own answers in this quiz, oldest first.
func (e *QuizEngine) AnswerHistory(ctx context.Context, studentID, quizID string) ([]domain.Answer, error) {
	var answers []domain.Answer
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		participant, err := tx.Participant(ctx, quizID, studentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: %s is not a participant", domain.ErrNotFound, studentID)
			}
			return err
		}
		answers, err = tx.Answers(ctx, participant.ID)
		return err
	})
	if answers == nil && err == nil {
		answers = []domain.Answer{}
	}
	return answers, err
}

// GetQuiz returns the quiz record.
func (e *QuizEngine) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		quiz, err = tx.Quiz(ctx, quizID)
		return err
	})
	return quiz, err
}

// Questions returns the full question list, correct answers included, to the owning teacher.
func (e *QuizEngine) Questions(ctx context.Context, teacherID, quizID string) ([]domain.Question, error) {
	var questions []domain.Question
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		quiz, err := tx.Quiz(ctx, quizID)
		if err != nil {
			return err
		}
		if quiz.TeacherID != teacherID {
			return fmt.Errorf("%w: quiz %s", domain.ErrNotOwner, quizID)
		}
		questions, err = tx.Questions(ctx, quizID)
		return err
	})
	return questions, err
}

// CurrentQuestion returns the active question without its correct option.
func (e *QuizEngine) CurrentQuestion(ctx context.Context, quizID string) (domain.QuestionView, error) {
	var view domain.QuestionView
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		quiz, err := tx.Quiz(ctx, quizID)
		if err != nil {
			return err
		}
		if quiz.Status != domain.QuizActive {
			return invalidState(quiz, "show a question")
		}
		questions, err := tx.Questions(ctx, quizID)
		if err != nil {
			return err
		}
		if quiz.CurrentQuestionIndex >= len(questions) {
			return invalidState(quiz, "show a question")
		}
		view = questionView(quiz, questions)
		return nil
	})
	return view, err
}

func (e *QuizEngine) ownedQuiz(ctx context.Context, tx Tx, teacherID, quizID string) (domain.Quiz, error) {
	quiz, err := tx.LockQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.TeacherID != teacherID {
		return domain.Quiz{}, fmt.Errorf("%w: quiz %s", domain.ErrNotOwner, quizID)
	}
	return quiz, nil
}

// after flushes post-commit side effects.
func (e *QuizEngine) after(ctx context.Context, fill func(o *outbox)) {
	o := &outbox{}
	fill(o)
	o.flush(ctx, e.log, e.events, e.notifier)
}

func questionView(quiz domain.Quiz, questions []domain.Question) domain.QuestionView {
	if quiz.CurrentQuestionIndex < 0 || quiz.CurrentQuestionIndex >= len(questions) {
		return domain.QuestionView{QuizID: quiz.ID, Index: quiz.CurrentQuestionIndex, Total: len(questions)}
	}
	q := questions[quiz.CurrentQuestionIndex]
	return domain.QuestionView{
		QuizID:     quiz.ID,
		QuestionID: q.ID,
		Index:      quiz.CurrentQuestionIndex,
		Total:      len(questions),
		Text:       q.Text,
		Options:    append([]string(nil), q.Options...),
		Points:     q.Points,
		TimeLimit:  q.TimeLimit,
	}
}

func validateQuestion(in domain.QuestionInput) error {
	if strings.TrimSpace(in.Text) == "" {
		return fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}
	if len(in.Options) < 2 || len(in.Options) > 6 {
		return fmt.Errorf("%w: %d options, need 2 to 6", domain.ErrInvalidInput, len(in.Options))
	}
	if in.CorrectOptionIndex < 0 || in.CorrectOptionIndex >= len(in.Options) {
		return fmt.Errorf("%w: correct option %d out of range", domain.ErrInvalidInput, in.CorrectOptionIndex)
	}
	if in.Points < 0 || in.TimeLimit < 0 {
		return fmt.Errorf("%w: negative points or time limit", domain.ErrInvalidInput)
	}
	return nil
}

func invalidState(quiz domain.Quiz, action string) error {
	return fmt.Errorf("%w: cannot %s while quiz %s is %s", domain.ErrInvalidState, action, quiz.ID, quiz.Status)
}

func randomJoinCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	alphabet := big.NewInt(int64(len(joinCodeAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", err
		}
		b.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
