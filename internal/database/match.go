// internal/database/match.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanabira-dev/rikka-server/internal/game"
)

// RecordMatchAndResults persists one completed match: the match row with its
// scoring breakdown, plus a per-player result row. Everything lands in one
// transaction so a half-written match never exists.
func RecordMatchAndResults(ctx context.Context, pool *pgxpool.Pool, matchID uuid.UUID, res game.MatchResult) error {
	breakdown, err := json.Marshal(res.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal score breakdown: %w", err)
	}

	err = pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertMatch := `
			INSERT INTO matches (id, room_id, winner_id, loser_id, breakdown, ended_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET winner_id=$3, loser_id=$4, breakdown=$5, ended_at=$6
		`
		if _, e := tx.Exec(ctx, upsertMatch,
			matchID, res.RoomID, res.WinnerID, res.LoserID, breakdown, res.EndedAt,
		); e != nil {
			return e
		}

		for _, p := range res.Players {
			q := `
				INSERT INTO match_results (match_id, player_id, player_name, score, did_win)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (match_id, player_id)
				DO UPDATE SET score=$4, did_win=$5
			`
			if _, e := tx.Exec(ctx, q, matchID, p.ID, p.Name, p.Score, p.Won); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert match or results: %w", err)
	}
	return nil
}
