package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// LeaderboardCache serves finished leaderboards from memory. Live leaderboards always go
// to the source because they change with every answer.
type LeaderboardCache struct {
	source app.LeaderboardSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	rndMu sync.Mutex
	cache map[string]cachedLeaderboard
}

var _ app.LeaderboardSource = (*LeaderboardCache)(nil)

type cachedLeaderboard struct {
	board     domain.Leaderboard
	expiresAt time.Time
}

func NewLeaderboardCache(source app.LeaderboardSource, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedLeaderboard),
	}
}

func (c *LeaderboardCache) Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	if lb, ok := c.lookup(quizID); ok {
		return lb, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		if lb, ok := c.lookup(quizID); ok {
			return lb, nil
		}
		lb, err := c.source.Leaderboard(ctx, quizID)
		if err != nil {
			return domain.Leaderboard{}, err
		}
		if lb.Final() {
			c.mu.Lock()
			c.cache[quizID] = cachedLeaderboard{
				board:     lb,
				expiresAt: c.clock().Add(c.ttlWithJitter()),
			}
			c.mu.Unlock()
		}
		return lb, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

func (c *LeaderboardCache) lookup(quizID string) (domain.Leaderboard, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		return entry.board, true
	}
	return domain.Leaderboard{}, false
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
