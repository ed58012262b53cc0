package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Low-P1ng/Doodlerush/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const undefinedTable = "42P01"

type PostgresRepo struct {
	pool *pgxpool.Pool
}

// GameResult is an archived scoreboard.
type GameResult struct {
	Id         int64             `json:"id"`
	RoomId     string            `json:"roomId"`
	FinishedAt time.Time         `json:"finishedAt"`
	Standings  []domain.Standing `json:"standings"`
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

func wrapErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
}

// wrapWordsErr reports a missing words table as an empty bank.
func wrapWordsErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%w: %w", domain.ErrNoWords, err)
	}
	return wrapErr(err)
}

// RandomWords fetches count random words from the word bank.
func (pgr *PostgresRepo) RandomWords(ctx context.Context, count int) ([]string, error) {
	rows, err := pgr.pool.Query(ctx, `SELECT word FROM words ORDER BY RANDOM() LIMIT $1`, count)
	if err != nil {
		return nil, wrapWordsErr(err)
	}

	words, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapWordsErr(err)
	}
	if len(words) == 0 {
		return nil, domain.ErrNoWords
	}

	return words, nil
}

// SaveGameResult archives the final standings of a finished game. Standings are
// expected in rank order.
func (pgr *PostgresRepo) SaveGameResult(ctx context.Context, roomId string, standings []domain.Standing) error {
	err := pgx.BeginFunc(ctx, pgr.pool, func(tx pgx.Tx) error {
		var resultId int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO game_results (room_id) VALUES ($1) RETURNING id`, roomId,
		).Scan(&resultId); err != nil {
			return err
		}

		rows := make([][]any, 0, len(standings))
		for i, s := range standings {
			rows = append(rows, []any{resultId, i + 1, s.Id, s.Name, s.Score})
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"game_result_standings"},
			[]string{"result_id", "rank", "player_id", "name", "score"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
	if err != nil {
		return wrapErr(err)
	}
	return nil
}

// RecentResults returns the latest archived games, newest first.
func (pgr *PostgresRepo) RecentResults(ctx context.Context, limit int) ([]GameResult, error) {
	rows, err := pgr.pool.Query(ctx, `
		SELECT r.id, r.room_id, r.finished_at, s.player_id, s.name, s.score
		FROM (SELECT id, room_id, finished_at FROM game_results ORDER BY finished_at DESC, id DESC LIMIT $1) r
		LEFT JOIN game_result_standings s ON s.result_id = r.id
		ORDER BY r.finished_at DESC, r.id DESC, s.rank ASC`, limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	results := make([]GameResult, 0, limit)
	for rows.Next() {
		var (
			id         int64
			roomId     string
			finishedAt time.Time
			playerId   *string
			name       *string
			score      *int
		)
		if err := rows.Scan(&id, &roomId, &finishedAt, &playerId, &name, &score); err != nil {
			return nil, wrapErr(err)
		}
		if n := len(results); n == 0 || results[n-1].Id != id {
			results = append(results, GameResult{
				Id:         id,
				RoomId:     roomId,
				FinishedAt: finishedAt,
				Standings:  []domain.Standing{},
			})
		}
		// a game archived without standings has a single row of NULLs
		if playerId == nil {
			continue
		}
		last := &results[len(results)-1]
		last.Standings = append(last.Standings, domain.Standing{Id: *playerId, Name: *name, Score: *score})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}

	return results, nil
}
