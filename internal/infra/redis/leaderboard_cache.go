package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// LeaderboardCache keeps finished leaderboards in Redis so every instance serves them without
// touching the database. Standings of live quizzes always come from the source.
// Boards are stored as JSON: SET quiz:{quizID}:leaderboard {json} EX ttl
type LeaderboardCache struct {
	client *redis.Client
	source app.LeaderboardSource
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

var _ app.LeaderboardSource = (*LeaderboardCache)(nil)

func NewLeaderboardCache(client *redis.Client, source app.LeaderboardSource, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	if lb, ok := c.get(ctx, quizID); ok {
		return lb, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if lb, ok := c.get(ctx, quizID); ok {
			return lb, nil
		}
		lb, err := c.source.Leaderboard(ctx, quizID)
		if err != nil {
			return domain.Leaderboard{}, err
		}
		if lb.Final() {
			if raw, err := json.Marshal(lb); err == nil {
				_ = c.client.Set(ctx, c.key(quizID), raw, c.ttlWithJitter()).Err()
			}
		}
		return lb, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

// get treats every Redis failure as a miss.
func (c *LeaderboardCache) get(ctx context.Context, quizID string) (domain.Leaderboard, bool) {
	raw, err := c.client.Get(ctx, c.key(quizID)).Bytes()
	if err != nil {
		return domain.Leaderboard{}, false
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(raw, &lb); err != nil {
		return domain.Leaderboard{}, false
	}
	return lb, true
}

func (c *LeaderboardCache) key(quizID string) string {
	return "quiz:" + quizID + ":leaderboard"
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
