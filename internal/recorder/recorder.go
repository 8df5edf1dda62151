// internal/recorder/recorder.go
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hanabira-dev/rikka-server/internal/database"
	"github.com/hanabira-dev/rikka-server/internal/game"
)

// DefaultQueueName is the Redis list the match historian consumes.
const DefaultQueueName = "rikka_matches"

// Recorder persists terminal match outcomes off the gameplay path. Both
// sinks are optional: a nil pool or client downgrades that sink to log-only,
// and sink failures never surface to players.
type Recorder struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  *logrus.Logger
}

func New(pool *pgxpool.Pool, rdb *redis.Client, log *logrus.Logger) *Recorder {
	return &Recorder{pool: pool, rdb: rdb, log: log}
}

// matchRecord is the JSON envelope pushed to the historian queue.
type matchRecord struct {
	MatchID   uuid.UUID         `json:"match_id"`
	RoomID    string            `json:"room_id"`
	WinnerID  uuid.UUID         `json:"winner_id"`
	LoserID   uuid.UUID         `json:"loser_id"`
	Breakdown *game.ScoreResult `json:"breakdown"`
	Timestamp int64             `json:"timestamp"`
}

// RecordMatch kicks off persistence in the background and returns at once.
// Safe to call with the room lock held.
func (r *Recorder) RecordMatch(res game.MatchResult) {
	matchID := uuid.New()
	go r.record(matchID, res)
}

func (r *Recorder) record(matchID uuid.UUID, res game.MatchResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log := r.log.WithFields(logrus.Fields{
		"match_id": matchID,
		"room_id":  res.RoomID,
		"winner":   res.WinnerID,
	})
	log.Info("recording match result")

	if r.pool != nil {
		if err := database.RecordMatchAndResults(ctx, r.pool, matchID, res); err != nil {
			log.WithError(err).Warn("failed to persist match to postgres")
		}
		r.updateTotals(ctx, res, log)
	}

	if r.rdb != nil {
		if err := r.publish(ctx, matchID, res); err != nil {
			log.WithError(err).Warn("failed to enqueue match for historian")
		}
	}
}

// updateTotals applies each registered player's score delta to their
// lifetime total. Guests without an external identity are skipped.
func (r *Recorder) updateTotals(ctx context.Context, res game.MatchResult, log *logrus.Entry) {
	for _, p := range res.Players {
		if p.ExternalID == "" {
			continue
		}
		userID, err := uuid.Parse(p.ExternalID)
		if err != nil {
			continue
		}
		delta := p.Score - game.InitialScore
		if err := database.AddToTotalScore(ctx, r.pool, userID, delta); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("failed to update total score")
		}
	}
}

func (r *Recorder) publish(ctx context.Context, matchID uuid.UUID, res game.MatchResult) error {
	data, err := json.Marshal(matchRecord{
		MatchID:   matchID,
		RoomID:    res.RoomID,
		WinnerID:  res.WinnerID,
		LoserID:   res.LoserID,
		Breakdown: res.Breakdown,
		Timestamp: res.EndedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal match record: %w", err)
	}
	queue := os.Getenv("HISTORIAN_QUEUE_NAME")
	if queue == "" {
		queue = DefaultQueueName
	}
	if err := r.rdb.RPush(ctx, queue, data).Err(); err != nil {
		return fmt.Errorf("rpush to %q: %w", queue, err)
	}
	return nil
}

// ConnectRedis builds the historian queue client from REDIS_ADDR.
func ConnectRedis(ctx context.Context) (*redis.Client, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}
