package postgres

import (
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID                   string     `bun:"id,pk"`
	TeacherID            string     `bun:"teacher_id"`
	Title                string     `bun:"title"`
	JoinCode             string     `bun:"join_code,nullzero"`
	Status               string     `bun:"status"`
	TimePerQuestion      int        `bun:"time_per_question"`
	ShuffleQuestions     bool       `bun:"shuffle_questions"`
	ShuffleOptions       bool       `bun:"shuffle_options"`
	MaxParticipants      int        `bun:"max_participants"`
	CurrentQuestionIndex int        `bun:"current_question_index"`
	CreatedAt            time.Time  `bun:"created_at"`
	StartedAt            *time.Time `bun:"started_at"`
	EndedAt              *time.Time `bun:"ended_at"`
}

func newQuizRow(q domain.Quiz) *quizRow {
	return &quizRow{
		ID:                   q.ID,
		TeacherID:            q.TeacherID,
		Title:                q.Title,
		JoinCode:             q.JoinCode,
		Status:               string(q.Status),
		TimePerQuestion:      q.TimePerQuestion,
		ShuffleQuestions:     q.ShuffleQuestions,
		ShuffleOptions:       q.ShuffleOptions,
		MaxParticipants:      q.MaxParticipants,
		CurrentQuestionIndex: q.CurrentQuestionIndex,
		CreatedAt:            q.CreatedAt,
		StartedAt:            q.StartedAt,
		EndedAt:              q.EndedAt,
	}
}

func (r *quizRow) domain() domain.Quiz {
	return domain.Quiz{
		ID:                   r.ID,
		TeacherID:            r.TeacherID,
		Title:                r.Title,
		JoinCode:             r.JoinCode,
		Status:               domain.QuizStatus(r.Status),
		TimePerQuestion:      r.TimePerQuestion,
		ShuffleQuestions:     r.ShuffleQuestions,
		ShuffleOptions:       r.ShuffleOptions,
		MaxParticipants:      r.MaxParticipants,
		CurrentQuestionIndex: r.CurrentQuestionIndex,
		CreatedAt:            r.CreatedAt,
		StartedAt:            r.StartedAt,
		EndedAt:              r.EndedAt,
	}
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID                 string   `bun:"id,pk"`
	QuizID             string   `bun:"quiz_id"`
	Text               string   `bun:"text"`
	Options            []string `bun:"options,array"`
	CorrectOptionIndex int      `bun:"correct_option_index"`
	Points             int      `bun:"points"`
	TimeLimit          int      `bun:"time_limit"`
	Position           int      `bun:"position"`
}

func newQuestionRow(q domain.Question) questionRow {
	return questionRow{
		ID:                 q.ID,
		QuizID:             q.QuizID,
		Text:               q.Text,
		Options:            q.Options,
		CorrectOptionIndex: q.CorrectOptionIndex,
		Points:             q.Points,
		TimeLimit:          q.TimeLimit,
		Position:           q.Order,
	}
}

func (r questionRow) domain() domain.Question {
	return domain.Question{
		ID:                 r.ID,
		QuizID:             r.QuizID,
		Text:               r.Text,
		Options:            r.Options,
		CorrectOptionIndex: r.CorrectOptionIndex,
		Points:             r.Points,
		TimeLimit:          r.TimeLimit,
		Order:              r.Position,
	}
}

type participantRow struct {
	bun.BaseModel `bun:"table:participants"`

	ID            string    `bun:"id,pk"`
	QuizID        string    `bun:"quiz_id"`
	StudentID     string    `bun:"student_id"`
	DisplayName   string    `bun:"display_name"`
	AvatarToken   string    `bun:"avatar_token"`
	State         string    `bun:"state"`
	TotalScore    int       `bun:"total_score"`
	CorrectCount  int       `bun:"correct_count"`
	WrongCount    int       `bun:"wrong_count"`
	CurrentStreak int       `bun:"current_streak"`
	BestStreak    int       `bun:"best_streak"`
	Rank          int       `bun:"rank"`
	CoinsEarned   int64     `bun:"coins_earned"`
	JoinedAt      time.Time `bun:"joined_at"`
}

func newParticipantRow(p domain.Participant) *participantRow {
	return &participantRow{
		ID:            p.ID,
		QuizID:        p.QuizID,
		StudentID:     p.StudentID,
		DisplayName:   p.DisplayName,
		AvatarToken:   p.AvatarToken,
		State:         string(p.State),
		TotalScore:    p.TotalScore,
		CorrectCount:  p.CorrectCount,
		WrongCount:    p.WrongCount,
		CurrentStreak: p.CurrentStreak,
		BestStreak:    p.BestStreak,
		Rank:          p.Rank,
		CoinsEarned:   p.CoinsEarned,
		JoinedAt:      p.JoinedAt,
	}
}

func (r participantRow) domain() domain.Participant {
	return domain.Participant{
		ID:            r.ID,
		QuizID:        r.QuizID,
		StudentID:     r.StudentID,
		DisplayName:   r.DisplayName,
		AvatarToken:   r.AvatarToken,
		State:         domain.ParticipantState(r.State),
		TotalScore:    r.TotalScore,
		CorrectCount:  r.CorrectCount,
		WrongCount:    r.WrongCount,
		CurrentStreak: r.CurrentStreak,
		BestStreak:    r.BestStreak,
		Rank:          r.Rank,
		CoinsEarned:   r.CoinsEarned,
		JoinedAt:      r.JoinedAt,
	}
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers"`

	ID                string    `bun:"id,pk"`
	QuizID            string    `bun:"quiz_id"`
	ParticipantID     string    `bun:"participant_id"`
	QuestionID        string    `bun:"question_id"`
	SelectedOption    int       `bun:"selected_option"`
	IsCorrect         bool      `bun:"is_correct"`
	PointsEarned      int       `bun:"points_earned"`
	ResponseLatencyMS int64     `bun:"response_latency_ms"`
	CreatedAt         time.Time `bun:"created_at"`
}

func (r answerRow) domain() domain.Answer {
	return domain.Answer{
		ID:                r.ID,
		QuizID:            r.QuizID,
		ParticipantID:     r.ParticipantID,
		QuestionID:        r.QuestionID,
		SelectedOption:    r.SelectedOption,
		IsCorrect:         r.IsCorrect,
		PointsEarned:      r.PointsEarned,
		ResponseLatencyMS: r.ResponseLatencyMS,
		CreatedAt:         r.CreatedAt,
	}
}

type balanceRow struct {
	bun.BaseModel `bun:"table:coin_balances"`

	StudentID      string    `bun:"student_id,pk"`
	CurrentBalance int64     `bun:"current_balance"`
	TotalEarned    int64     `bun:"total_earned"`
	TotalSpent     int64     `bun:"total_spent"`
	TotalWithdrawn int64     `bun:"total_withdrawn"`
	UpdatedAt      time.Time `bun:"updated_at"`
}

func (r balanceRow) domain() domain.CoinBalance {
	return domain.CoinBalance{
		StudentID:      r.StudentID,
		CurrentBalance: r.CurrentBalance,
		TotalEarned:    r.TotalEarned,
		TotalSpent:     r.TotalSpent,
		TotalWithdrawn: r.TotalWithdrawn,
		UpdatedAt:      r.UpdatedAt,
	}
}

type transactionRow struct {
	bun.BaseModel `bun:"table:coin_transactions"`

	Seq          int64     `bun:"seq,scanonly"`
	ID           string    `bun:"id,pk"`
	StudentID    string    `bun:"student_id"`
	Type         string    `bun:"type"`
	Amount       int64     `bun:"amount"`
	BalanceAfter int64     `bun:"balance_after"`
	Description  string    `bun:"description"`
	RefID        string    `bun:"ref_id"`
	CreatedAt    time.Time `bun:"created_at"`
}

func (r transactionRow) domain() domain.CoinTransaction {
	return domain.CoinTransaction{
		ID:           r.ID,
		StudentID:    r.StudentID,
		Type:         domain.TransactionType(r.Type),
		Amount:       r.Amount,
		BalanceAfter: r.BalanceAfter,
		Description:  r.Description,
		RefID:        r.RefID,
		CreatedAt:    r.CreatedAt,
	}
}

type withdrawalRow struct {
	bun.BaseModel `bun:"table:withdrawals"`

	ID             string          `bun:"id,pk"`
	StudentID      string          `bun:"student_id"`
	CoinAmount     int64           `bun:"coin_amount"`
	CurrencyAmount decimal.Decimal `bun:"currency_amount,type:numeric(14,4)"`
	Currency       string          `bun:"currency"`
	PayoutMethod   string          `bun:"payout_method"`
	PayoutAccount  string          `bun:"payout_account"`
	Status         string          `bun:"status"`
	Reason         string          `bun:"reason"`
	CreatedAt      time.Time       `bun:"created_at"`
	ProcessedAt    *time.Time      `bun:"processed_at"`
}

func newWithdrawalRow(w domain.Withdrawal) *withdrawalRow {
	return &withdrawalRow{
		ID:             w.ID,
		StudentID:      w.StudentID,
		CoinAmount:     w.CoinAmount,
		CurrencyAmount: w.CurrencyAmount,
		Currency:       w.Currency,
		PayoutMethod:   w.Payout.Method,
		PayoutAccount:  w.Payout.Account,
		Status:         string(w.Status),
		Reason:         w.Reason,
		CreatedAt:      w.CreatedAt,
		ProcessedAt:    w.ProcessedAt,
	}
}

func (r withdrawalRow) domain() domain.Withdrawal {
	return domain.Withdrawal{
		ID:             r.ID,
		StudentID:      r.StudentID,
		CoinAmount:     r.CoinAmount,
		CurrencyAmount: r.CurrencyAmount,
		Currency:       r.Currency,
		Payout:         domain.PayoutDetails{Method: r.PayoutMethod, Account: r.PayoutAccount},
		Status:         domain.WithdrawalStatus(r.Status),
		Reason:         r.Reason,
		CreatedAt:      r.CreatedAt,
		ProcessedAt:    r.ProcessedAt,
	}
}

type prizeRow struct {
	bun.BaseModel `bun:"table:prizes"`

	ID            string    `bun:"id,pk"`
	Name          string    `bun:"name"`
	Description   string    `bun:"description"`
	CostCoins     int64     `bun:"cost_coins"`
	StockQuantity int       `bun:"stock_quantity"`
	Active        bool      `bun:"active"`
	CreatedAt     time.Time `bun:"created_at"`
}

func newPrizeRow(p domain.Prize) *prizeRow {
	return &prizeRow{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		CostCoins:     p.CostCoins,
		StockQuantity: p.StockQuantity,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
	}
}

func (r prizeRow) domain() domain.Prize {
	return domain.Prize{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		CostCoins:     r.CostCoins,
		StockQuantity: r.StockQuantity,
		Active:        r.Active,
		CreatedAt:     r.CreatedAt,
	}
}

type redemptionRow struct {
	bun.BaseModel `bun:"table:redemptions"`

	ID        string    `bun:"id,pk"`
	StudentID string    `bun:"student_id"`
	PrizeID   string    `bun:"prize_id"`
	CoinCost  int64     `bun:"coin_cost"`
	CreatedAt time.Time `bun:"created_at"`
}
