package config

import (
	"fmt"
	"os"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		// StaticDir serves a bundled web client when set.
		StaticDir string `yaml:"static_dir"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Quiz struct {
		MaxParticipants  int     `yaml:"max_participants"`
		JoinCodeLength   int     `yaml:"join_code_length"`
		JoinCodeAttempts int     `yaml:"join_code_attempts"`
		DefaultTimeLimit string  `yaml:"default_time_limit"`
		DefaultPoints    int     `yaml:"default_points"`
		PenaltyScale     int64   `yaml:"penalty_scale"`
		CoinsPerCorrect  int64   `yaml:"coins_per_correct"`
		RankBonuses      []int64 `yaml:"rank_bonuses"`
		// TTL of cached final leaderboards.
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Coins struct {
		MinWithdrawal         int64   `yaml:"min_withdrawal"`
		CoinRate              string  `yaml:"coin_rate"`
		Currency              string  `yaml:"currency"`
		OlympiadRewards       []int64 `yaml:"olympiad_rewards"`
		OlympiadParticipation int64   `yaml:"olympiad_participation"`
	} `yaml:"coins"`
	Directory struct {
		Teachers []domain.Profile `yaml:"teachers"`
		Students []domain.Profile `yaml:"students"`
	} `yaml:"directory"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// QuizRules overlays configured values on the engine defaults.
func (c Config) QuizRules() app.QuizRules {
	r := app.DefaultQuizRules()
	q := c.Quiz
	if q.MaxParticipants > 0 {
		r.MaxParticipants = q.MaxParticipants
	}
	if q.JoinCodeLength > 0 {
		r.JoinCodeLength = q.JoinCodeLength
	}
	if q.JoinCodeAttempts > 0 {
		r.JoinCodeAttempts = q.JoinCodeAttempts
	}
	r.DefaultTimeLimit = TTLDuration(q.DefaultTimeLimit, r.DefaultTimeLimit)
	if q.DefaultPoints > 0 {
		r.DefaultPoints = q.DefaultPoints
	}
	if q.PenaltyScale > 0 {
		r.PenaltyScale = q.PenaltyScale
	}
	if q.CoinsPerCorrect > 0 {
		r.CoinsPerCorrect = q.CoinsPerCorrect
	}
	if len(q.RankBonuses) > 0 {
		r.RankBonuses = append([]int64(nil), q.RankBonuses...)
	}
	return r
}

// CoinRules overlays configured values on the ledger defaults.
func (c Config) CoinRules() (app.CoinRules, error) {
	r := app.DefaultCoinRules()
	k := c.Coins
	if k.MinWithdrawal > 0 {
		r.MinWithdrawal = k.MinWithdrawal
	}
	if k.CoinRate != "" {
		rate, err := decimal.NewFromString(k.CoinRate)
		if err != nil {
			return app.CoinRules{}, fmt.Errorf("coins.coin_rate: %w", err)
		}
		if !rate.IsPositive() {
			return app.CoinRules{}, fmt.Errorf("coins.coin_rate must be positive, got %s", k.CoinRate)
		}
		r.CoinRate = rate
	}
	if k.Currency != "" {
		r.Currency = k.Currency
	}
	if len(k.OlympiadRewards) > 0 {
		r.OlympiadRewards = append([]int64(nil), k.OlympiadRewards...)
	}
	if k.OlympiadParticipation > 0 {
		r.OlympiadParticipation = k.OlympiadParticipation
	}
	return r, nil
}
