package app

import (
	"sort"

	"classroom-quiz-service/internal/domain"
)

// scoreAnswer returns the points for an answer. A correct answer loses points with latency but
// never drops below half the base value; a wrong answer scores zero.
func scoreAnswer(correct bool, basePoints int, timeLimitMS, latencyMS, penaltyScale int64) int {
	if !correct || basePoints <= 0 {
		return 0
	}
	if latencyMS < 0 {
		latencyMS = 0
	}
	if penaltyScale <= 0 {
		penaltyScale = 100
	}
	maxPenalty := int64(basePoints) / 2
	penalty := maxPenalty
	// Latency at or past the limit takes the maximum penalty.
	if timeLimitMS > 0 && latencyMS < timeLimitMS {
		penalty = latencyMS * penaltyScale / timeLimitMS
	}
	if penalty > maxPenalty {
		penalty = maxPenalty
	}
	points := int64(basePoints) - penalty
	if floor := int64(basePoints) - maxPenalty; points < floor {
		points = floor
	}
	return int(points)
}

// applyAnswer updates the participant counters for a scored answer.
func applyAnswer(p *domain.Participant, correct bool, points int) {
	if correct {
		p.TotalScore += points
		p.CorrectCount++
		p.CurrentStreak++
		if p.CurrentStreak > p.BestStreak {
			p.BestStreak = p.CurrentStreak
		}
		return
	}
	p.WrongCount++
	p.CurrentStreak = 0
}

// rankParticipants orders participants by total score, then best streak. Earlier joiners and
// then participant id break the remaining ties so ranks are reproducible.
func rankParticipants(participants []domain.Participant) {
	sort.SliceStable(participants, func(i, j int) bool {
		a, b := participants[i], participants[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.BestStreak != b.BestStreak {
			return a.BestStreak > b.BestStreak
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ID < b.ID
	})
}

func leaderboardEntries(participants []domain.Participant) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(participants))
	for i, p := range participants {
		entries = append(entries, domain.LeaderboardEntry{
			Position:      i + 1,
			ParticipantID: p.ID,
			StudentID:     p.StudentID,
			DisplayName:   p.DisplayName,
			AvatarToken:   p.AvatarToken,
			TotalScore:    p.TotalScore,
			CorrectCount:  p.CorrectCount,
			BestStreak:    p.BestStreak,
			Rank:          p.Rank,
			CoinsEarned:   p.CoinsEarned,
		})
	}
	return entries
}
