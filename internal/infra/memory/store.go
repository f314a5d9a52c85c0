package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
)

// Store is an in-memory implementation of app.Store.
// Transactions are serialized and each one works on a private copy of the data that
// replaces the committed copy only when fn succeeds.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

var _ app.Store = (*Store)(nil)

type dataset struct {
	quizzes      map[string]domain.Quiz
	questions    map[string][]domain.Question // by quiz id, sorted by order
	participants map[string]domain.Participant
	byStudent    map[string]string // quizID/studentID -> participant id
	answers      map[string]domain.Answer // participantID/questionID
	balances     map[string]domain.CoinBalance
	transactions []domain.CoinTransaction
	withdrawals  map[string]domain.Withdrawal
	prizes       map[string]domain.Prize
	redemptions  map[string]domain.Redemption
}

func NewStore() *Store {
	return &Store{data: &dataset{
		quizzes:      make(map[string]domain.Quiz),
		questions:    make(map[string][]domain.Question),
		participants: make(map[string]domain.Participant),
		byStudent:    make(map[string]string),
		answers:      make(map[string]domain.Answer),
		balances:     make(map[string]domain.CoinBalance),
		withdrawals:  make(map[string]domain.Withdrawal),
		prizes:       make(map[string]domain.Prize),
		redemptions:  make(map[string]domain.Redemption),
	}}
}

// WithinTx runs fn against a private copy and commits it if fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &storeTx{d: s.data.clone()}
	err := fn(ctx, tx)
	tx.done = true
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx.d
	return nil
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		quizzes:      cloneMap(d.quizzes),
		questions:    make(map[string][]domain.Question, len(d.questions)),
		participants: cloneMap(d.participants),
		byStudent:    cloneMap(d.byStudent),
		answers:      cloneMap(d.answers),
		balances:     cloneMap(d.balances),
		transactions: d.transactions[:len(d.transactions):len(d.transactions)],
		withdrawals:  cloneMap(d.withdrawals),
		prizes:       cloneMap(d.prizes),
		redemptions:  cloneMap(d.redemptions),
	}
	for id, qs := range d.questions {
		c.questions[id] = append([]domain.Question(nil), qs...)
	}
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

var errTxDone = errors.New("memory: transaction already finished")

type storeTx struct {
	d    *dataset
	done bool
}

func (t *storeTx) check() error {
	if t.done {
		return errTxDone
	}
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, id)
}

func (t *storeTx) InsertQuiz(_ context.Context, quiz domain.Quiz) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.d.quizzes[quiz.ID]; ok {
		return fmt.Errorf("%w: quiz %s exists", domain.ErrConflict, quiz.ID)
	}
	t.d.quizzes[quiz.ID] = quiz
	return nil
}

func (t *storeTx) Quiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if err := t.check(); err != nil {
		return domain.Quiz{}, err
	}
	quiz, ok := t.d.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, notFound("quiz", quizID)
	}
	return quiz, nil
}

// LockQuiz and ShareQuiz need no extra locking: the whole transaction holds the store lock.
func (t *storeTx) LockQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return t.Quiz(ctx, quizID)
}

func (t *storeTx) ShareQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return t.Quiz(ctx, quizID)
}

func (t *storeTx) QuizByJoinCode(_ context.Context, code string) (domain.Quiz, error) {
	if err := t.check(); err != nil {
		return domain.Quiz{}, err
	}
	if code != "" {
		for _, quiz := range t.d.quizzes {
			if quiz.JoinCode == code && quiz.Status != domain.QuizFinished {
				return quiz, nil
			}
		}
	}
	return domain.Quiz{}, notFound("join code", code)
}

func (t *storeTx) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.d.quizzes[quiz.ID]; !ok {
		return notFound("quiz", quiz.ID)
	}
	if quiz.JoinCode != "" && quiz.Status != domain.QuizFinished {
		for id, other := range t.d.quizzes {
			if id != quiz.ID && other.JoinCode == quiz.JoinCode && other.Status != domain.QuizFinished {
				return fmt.Errorf("%w: join code %s in use", domain.ErrConflict, quiz.JoinCode)
			}
		}
	}
	t.d.quizzes[quiz.ID] = quiz
	return nil
}

func (t *storeTx) InsertQuestions(_ context.Context, questions []domain.Question) error {
	if err := t.check(); err != nil {
		return err
	}
	for _, q := range questions {
		if _, ok := t.d.quizzes[q.QuizID]; !ok {
			return notFound("quiz", q.QuizID)
		}
		for _, existing := range t.d.questions[q.QuizID] {
			if existing.Order == q.Order || existing.ID == q.ID {
				return fmt.Errorf("%w: question order %d", domain.ErrConflict, q.Order)
			}
		}
		q.Options = append([]string(nil), q.Options...)
		t.d.questions[q.QuizID] = append(t.d.questions[q.QuizID], q)
	}
	for _, q := range questions {
		sortQuestions(t.d.questions[q.QuizID])
	}
	return nil
}

func (t *storeTx) ReplaceQuestions(_ context.Context, quizID string, questions []domain.Question) error {
	if err := t.check(); err != nil {
		return err
	}
	current := t.d.questions[quizID]
	if len(current) != len(questions) {
		return fmt.Errorf("%w: question set of quiz %s changed", domain.ErrConflict, quizID)
	}
	replaced := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		replaced = append(replaced, q)
	}
	sortQuestions(replaced)
	t.d.questions[quizID] = replaced
	return nil
}

func (t *storeTx) DeleteQuestion(_ context.Context, quizID, questionID string) error {
	if err := t.check(); err != nil {
		return err
	}
	qs := t.d.questions[quizID]
	for i, q := range qs {
		if q.ID == questionID {
			t.d.questions[quizID] = append(qs[:i:i], qs[i+1:]...)
			return nil
		}
	}
	return notFound("question", questionID)
}

func (t *storeTx) Questions(_ context.Context, quizID string) ([]domain.Question, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	qs := t.d.questions[quizID]
	out := make([]domain.Question, len(qs))
	for i, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out, nil
}

func sortQuestions(qs []domain.Question) {
	sort.Slice(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
}

func studentKey(quizID, studentID string) string {
	return quizID + "/" + studentID
}

func (t *storeTx) InsertParticipant(_ context.Context, p domain.Participant) error {
	if err := t.check(); err != nil {
		return err
	}
	key := studentKey(p.QuizID, p.StudentID)
	if _, ok := t.d.byStudent[key]; ok {
		return fmt.Errorf("%w: student %s already in quiz %s", domain.ErrConflict, p.StudentID, p.QuizID)
	}
	t.d.participants[p.ID] = p
	t.d.byStudent[key] = p.ID
	return nil
}

func (t *storeTx) Participant(_ context.Context, quizID, studentID string) (domain.Participant, error) {
	if err := t.check(); err != nil {
		return domain.Participant{}, err
	}
	id, ok := t.d.byStudent[studentKey(quizID, studentID)]
	if !ok {
		return domain.Participant{}, notFound("participant", studentID)
	}
	return t.d.participants[id], nil
}

func (t *storeTx) LockParticipant(ctx context.Context, quizID, studentID string) (domain.Participant, error) {
	return t.Participant(ctx, quizID, studentID)
}

func (t *storeTx) Participants(_ context.Context, quizID string) ([]domain.Participant, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var out []domain.Participant
	for _, p := range t.d.participants {
		if p.QuizID == quizID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *storeTx) CountParticipants(ctx context.Context, quizID string) (int, error) {
	ps, err := t.Participants(ctx, quizID)
	return len(ps), err
}

func (t *storeTx) SaveParticipant(_ context.Context, p domain.Participant) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.d.participants[p.ID]; !ok {
		return notFound("participant", p.ID)
	}
	t.d.participants[p.ID] = p
	return nil
}

func (t *storeTx) InsertAnswer(_ context.Context, a domain.Answer) error {
	if err := t.check(); err != nil {
		return err
	}
	key := a.ParticipantID + "/" + a.QuestionID
	if _, ok := t.d.answers[key]; ok {
		return fmt.Errorf("%w: answer %s", domain.ErrConflict, key)
	}
	t.d.answers[key] = a
	return nil
}

func (t *storeTx) Answers(_ context.Context, participantID string) ([]domain.Answer, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var out []domain.Answer
	for _, a := range t.d.answers {
		if a.ParticipantID == participantID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *storeTx) LockBalance(_ context.Context, studentID string) (domain.CoinBalance, error) {
	if err := t.check(); err != nil {
		return domain.CoinBalance{}, err
	}
	b, ok := t.d.balances[studentID]
	if !ok {
		b = domain.CoinBalance{StudentID: studentID}
		t.d.balances[studentID] = b
	}
	return b, nil
}

func (t *storeTx) SaveBalance(_ context.Context, b domain.CoinBalance) error {
	if err := t.check(); err != nil {
		return err
	}
	if b.CurrentBalance < 0 {
		return fmt.Errorf("%w: negative balance for %s", domain.ErrInsufficientBalance, b.StudentID)
	}
	t.d.balances[b.StudentID] = b
	return nil
}

func (t *storeTx) AppendTransaction(_ context.Context, tr domain.CoinTransaction) error {
	if err := t.check(); err != nil {
		return err
	}
	t.d.transactions = append(t.d.transactions, tr)
	return nil
}

func (t *storeTx) Transactions(_ context.Context, studentID string) ([]domain.CoinTransaction, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var out []domain.CoinTransaction
	for i := len(t.d.transactions) - 1; i >= 0; i-- {
		if tr := t.d.transactions[i]; tr.StudentID == studentID {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (t *storeTx) InsertWithdrawal(_ context.Context, w domain.Withdrawal) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.d.withdrawals[w.ID]; ok {
		return fmt.Errorf("%w: withdrawal %s", domain.ErrConflict, w.ID)
	}
	t.d.withdrawals[w.ID] = w
	return nil
}

func (t *storeTx) LockWithdrawal(_ context.Context, id string) (domain.Withdrawal, error) {
	if err := t.check(); err != nil {
		return domain.Withdrawal{}, err
	}
	w, ok := t.d.withdrawals[id]
	if !ok {
		return domain.Withdrawal{}, notFound("withdrawal", id)
	}
	return w, nil
}

func (t *storeTx) SaveWithdrawal(_ context.Context, w domain.Withdrawal) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.d.withdrawals[w.ID]; !ok {
		return notFound("withdrawal", w.ID)
	}
	t.d.withdrawals[w.ID] = w
	return nil
}

func (t *storeTx) Withdrawals(_ context.Context, studentID string) ([]domain.Withdrawal, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var out []domain.Withdrawal
	for _, w := range t.d.withdrawals {
		if w.StudentID == studentID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (t *storeTx) InsertPrize(_ context.Context, p domain.Prize) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.d.prizes[p.ID]; ok {
		return fmt.Errorf("%w: prize %s", domain.ErrConflict, p.ID)
	}
	t.d.prizes[p.ID] = p
	return nil
}

func (t *storeTx) LockPrize(_ context.Context, id string) (domain.Prize, error) {
	if err := t.check(); err != nil {
		return domain.Prize{}, err
	}
	p, ok := t.d.prizes[id]
	if !ok {
		return domain.Prize{}, notFound("prize", id)
	}
	return p, nil
}

func (t *storeTx) SavePrize(_ context.Context, p domain.Prize) error {
	if err := t.check(); err != nil {
		return err
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("%w: prize %s", domain.ErrOutOfStock, p.ID)
	}
	if _, ok := t.d.prizes[p.ID]; !ok {
		return notFound("prize", p.ID)
	}
	t.d.prizes[p.ID] = p
	return nil
}

func (t *storeTx) Prizes(_ context.Context) ([]domain.Prize, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	out := make([]domain.Prize, 0, len(t.d.prizes))
	for _, p := range t.d.prizes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CostCoins != out[j].CostCoins {
			return out[i].CostCoins < out[j].CostCoins
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *storeTx) InsertRedemption(_ context.Context, r domain.Redemption) error {
	if err := t.check(); err != nil {
		return err
	}
	if _, ok := t.d.redemptions[r.ID]; ok {
		return fmt.Errorf("%w: redemption %s", domain.ErrConflict, r.ID)
	}
	t.d.redemptions[r.ID] = r
	return nil
}
