// internal/database/archive.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/beergame/internal/cache"
	"github.com/jason-s-yu/beergame/internal/game"
)

// Game status values stored in games.status.
const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          UUID PRIMARY KEY,
	room_code   TEXT NOT NULL,
	status      TEXT NOT NULL,
	start_time  TIMESTAMPTZ,
	end_time    TIMESTAMPTZ,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS round_records (
	game_id          UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	round            INT NOT NULL,
	customer_demand  INT NOT NULL,
	record           JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (game_id, round)
);
`

// Archive writes the round feed into PostgreSQL. It is write-only; nothing reads game
// state back from it.
type Archive struct {
	pool *pgxpool.Pool
}

// NewArchive wraps pool.
func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

// EnsureSchema creates the archive tables when missing.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveBatch applies msgs in order inside a single transaction.
func (a *Archive) SaveBatch(ctx context.Context, msgs []cache.GameMessage) error {
	err := pgx.BeginTxFunc(ctx, a.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, msg := range msgs {
			if err := applyMessageTx(ctx, tx, msg); err != nil {
				return fmt.Errorf("%s for game %s: %w", msg.Type, msg.GameID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx save batch: %w", err)
	}
	return nil
}

// MarkAbandoned flags a game still in progress as abandoned.
func (a *Archive) MarkAbandoned(ctx context.Context, gameID uuid.UUID) error {
	q := `
		UPDATE games
		SET status = $2, end_time = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3
	`
	if _, err := a.pool.Exec(ctx, q, gameID, StatusAbandoned, StatusInProgress); err != nil {
		return fmt.Errorf("mark game %s abandoned: %w", gameID, err)
	}
	return nil
}

func applyMessageTx(ctx context.Context, tx pgx.Tx, msg cache.GameMessage) error {
	status := statusFor(msg.Type)
	upsertGame := `
		INSERT INTO games (id, room_code, status, start_time)
		VALUES ($1, $2, $3, CASE WHEN $3 = 'in_progress' THEN NOW() END)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			start_time = COALESCE(games.start_time, EXCLUDED.start_time),
			end_time = CASE WHEN EXCLUDED.status = 'completed' THEN NOW() ELSE games.end_time END,
			updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, upsertGame, msg.GameID, msg.RoomCode, status); err != nil {
		return err
	}

	switch msg.Type {
	case game.EventRoundResolved:
		if msg.Record == nil {
			return fmt.Errorf("round message without record")
		}
		payload, err := json.Marshal(msg.Record)
		if err != nil {
			return err
		}
		insertRound := `
			INSERT INTO round_records (game_id, round, customer_demand, record)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (game_id, round) DO UPDATE SET
				customer_demand = EXCLUDED.customer_demand,
				record = EXCLUDED.record
		`
		_, err = tx.Exec(ctx, insertRound, msg.GameID, msg.Record.Round, msg.Record.CustomerDemand, payload)
		return err

	case game.EventGameReset:
		// a reset game replays from round 0 under the same id
		_, err := tx.Exec(ctx, `DELETE FROM round_records WHERE game_id = $1`, msg.GameID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE games SET start_time = NULL, end_time = NULL WHERE id = $1`, msg.GameID)
		return err
	}
	return nil
}

// statusFor maps a message type to the game status it implies.
func statusFor(t game.GameEventType) string {
	switch t {
	case game.EventGameCompleted:
		return StatusCompleted
	case game.EventGameReset:
		return StatusWaiting
	default:
		return StatusInProgress
	}
}
