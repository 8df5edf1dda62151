// cmd/historian/main.go is the asynchronous match historian: it drains the
// Redis queue the game server feeds and persists each record to Postgres,
// keeping archival writes entirely off the gameplay path.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hanabira-dev/rikka-server/internal/database"
	"github.com/hanabira-dev/rikka-server/internal/recorder"
)

// matchRecord mirrors the envelope the game server enqueues.
type matchRecord struct {
	MatchID   string          `json:"match_id"`
	RoomID    string          `json:"room_id"`
	WinnerID  string          `json:"winner_id"`
	LoserID   string          `json:"loser_id"`
	Breakdown json.RawMessage `json:"breakdown"`
	Timestamp int64           `json:"timestamp"`
}

type historian struct {
	rdb       *redis.Client
	pool      *pgxpool.Pool
	log       *logrus.Logger
	queue     string
	batchSize int
	flushEach time.Duration

	mu    sync.Mutex
	batch []matchRecord
}

func main() {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx)
	if err != nil {
		log.WithError(err).Fatal("postgres unavailable")
	}
	defer pool.Close()

	rdb, err := recorder.ConnectRedis(ctx)
	if err != nil {
		log.WithError(err).Fatal("redis unavailable")
	}
	defer rdb.Close()

	queue := os.Getenv("HISTORIAN_QUEUE_NAME")
	if queue == "" {
		queue = recorder.DefaultQueueName
	}

	h := &historian{
		rdb:       rdb,
		pool:      pool,
		log:       log,
		queue:     queue,
		batchSize: envInt("HISTORIAN_BATCH_SIZE", 20),
		flushEach: time.Duration(envInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
	}

	log.WithField("queue", queue).Info("historian started")
	h.run(ctx)
	h.flush(context.Background())
	log.Info("historian shutting down")
}

// run pops records until the context ends, flushing on a timer and whenever
// the batch fills.
func (h *historian) run(ctx context.Context) {
	ticker := time.NewTicker(h.flushEach)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.flush(ctx)
		default:
			res, err := h.rdb.BLPop(ctx, 3*time.Second, h.queue).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				h.log.WithError(err).Error("blpop failed")
				time.Sleep(time.Second)
				continue
			}
			if len(res) < 2 {
				continue
			}

			var rec matchRecord
			if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
				h.log.WithError(err).Warn("dropping malformed match record")
				continue
			}
			h.append(ctx, rec)
		}
	}
}

func (h *historian) append(ctx context.Context, rec matchRecord) {
	h.mu.Lock()
	h.batch = append(h.batch, rec)
	full := len(h.batch) >= h.batchSize
	h.mu.Unlock()
	if full {
		h.flush(ctx)
	}
}

// flush writes the pending batch in one transaction.
func (h *historian) flush(ctx context.Context) {
	h.mu.Lock()
	if len(h.batch) == 0 {
		h.mu.Unlock()
		return
	}
	pending := h.batch
	h.batch = nil
	h.mu.Unlock()

	err := pgx.BeginTxFunc(ctx, h.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO match_history (match_id, room_id, winner_id, loser_id, breakdown, ended_at)
			VALUES ($1, $2, $3, $4, $5, to_timestamp($6))
			ON CONFLICT (match_id) DO NOTHING
		`
		for _, rec := range pending {
			if _, e := tx.Exec(ctx, q,
				rec.MatchID, rec.RoomID, rec.WinnerID, rec.LoserID,
				[]byte(rec.Breakdown), rec.Timestamp,
			); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		h.log.WithError(err).Error("failed to flush match batch")
		return
	}
	h.log.WithField("count", len(pending)).Debug("flushed match records")
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return def
}
