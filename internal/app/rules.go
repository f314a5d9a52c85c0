package app

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuizRules are the configured business rules of the live quiz engine.
type QuizRules struct {
	MaxParticipants  int
	JoinCodeLength   int
	JoinCodeAttempts int
	// DefaultTimeLimit applies when neither the question nor the quiz sets one.
	DefaultTimeLimit time.Duration
	DefaultPoints    int
	// PenaltyScale sets the latency penalty: latency_ms * PenaltyScale / time_limit_ms points,
	// capped at half the base points.
	PenaltyScale    int64
	CoinsPerCorrect int64
	// RankBonuses[i] is added to the payout of rank i+1.
	RankBonuses []int64
}

// DefaultQuizRules mirrors the platform defaults.
func DefaultQuizRules() QuizRules {
	return QuizRules{
		MaxParticipants:  40,
		JoinCodeLength:   6,
		JoinCodeAttempts: 10,
		DefaultTimeLimit: 30 * time.Second,
		DefaultPoints:    100,
		PenaltyScale:     100,
		CoinsPerCorrect:  2,
	}
}

// CoinRules are the configured rules of the coin ledger.
type CoinRules struct {
	MinWithdrawal int64
	// CoinRate is the currency value of one coin.
	CoinRate decimal.Decimal
	Currency string
	// OlympiadRewards[i] is paid to rank i+1; other ranks get OlympiadParticipation.
	OlympiadRewards       []int64
	OlympiadParticipation int64
}

// DefaultCoinRules mirrors the platform defaults.
func DefaultCoinRules() CoinRules {
	return CoinRules{
		MinWithdrawal:         1000,
		CoinRate:              decimal.New(1, -2),
		Currency:              "USD",
		OlympiadRewards:       []int64{500, 300, 100},
		OlympiadParticipation: 10,
	}
}

func (r QuizRules) rankBonus(rank int) int64 {
	if rank < 1 || rank > len(r.RankBonuses) {
		return 0
	}
	return r.RankBonuses[rank-1]
}

func (r CoinRules) olympiadReward(rank int) int64 {
	if rank >= 1 && rank <= len(r.OlympiadRewards) {
		return r.OlympiadRewards[rank-1]
	}
	return r.OlympiadParticipation
}
