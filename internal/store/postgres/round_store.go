package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// RoundStore implements domain.RoundStore using PostgreSQL. The two
// write-once transitions (totals frozen at settlement, settled flipped once)
// are enforced with conditional UPDATEs so they hold even across replicas.
type RoundStore struct {
	pool *pgxpool.Pool
}

// NewRoundStore creates a RoundStore backed by the given connection pool.
func NewRoundStore(pool *pgxpool.Pool) *RoundStore {
	return &RoundStore{pool: pool}
}

// Create inserts a new round, failing with ErrRoundExists on a duplicate ID.
func (s *RoundStore) Create(ctx context.Context, r domain.Round) error {
	const query = `
		INSERT INTO rounds (id, asset, open_price, close_time, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query, r.ID, r.Asset, r.OpenPrice, r.CloseTime, r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrRoundExists
		}
		return fmt.Errorf("postgres: create round %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the round or ErrRoundNotFound.
func (s *RoundStore) Get(ctx context.Context, id string) (domain.Round, error) {
	const query = `
		SELECT id, asset, open_price, close_price, close_time,
		       total_up, total_down, settled, outcome, is_push,
		       net_pool, winning_total, created_at, settled_at
		FROM rounds WHERE id = $1`

	round, err := scanRound(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Round{}, domain.ErrRoundNotFound
		}
		return domain.Round{}, fmt.Errorf("postgres: get round %s: %w", id, err)
	}
	return round, nil
}

// UpdateTotals replaces the side aggregates of an unsettled round.
func (s *RoundStore) UpdateTotals(ctx context.Context, id string, totalUp, totalDown int64) error {
	const query = `
		UPDATE rounds SET total_up = $2, total_down = $3
		WHERE id = $1 AND NOT settled`

	tag, err := s.pool.Exec(ctx, query, id, totalUp, totalDown)
	if err != nil {
		return fmt.Errorf("postgres: update totals for round %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrSettled(ctx, id)
	}
	return nil
}

// Settle freezes the round exactly once. The conditional WHERE clause makes
// a lost settlement race surface as ErrAlreadySettled rather than a
// silent second write.
func (s *RoundStore) Settle(ctx context.Context, id string, res domain.Settlement) error {
	const query = `
		UPDATE rounds SET
			close_price   = $2,
			settled       = TRUE,
			outcome       = $3,
			is_push       = $4,
			net_pool      = $5,
			winning_total = $6,
			settled_at    = $7
		WHERE id = $1 AND NOT settled`

	tag, err := s.pool.Exec(ctx, query,
		id, res.ClosePrice, string(res.Outcome), res.IsPush,
		res.NetPool, res.WinningTotal, res.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: settle round %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrSettled(ctx, id)
	}
	return nil
}

// missingOrSettled distinguishes the two reasons a conditional round update
// can match zero rows.
func (s *RoundStore) missingOrSettled(ctx context.Context, id string) error {
	var settled bool
	err := s.pool.QueryRow(ctx, "SELECT settled FROM rounds WHERE id = $1", id).Scan(&settled)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRoundNotFound
	}
	if err != nil {
		return fmt.Errorf("postgres: inspect round %s: %w", id, err)
	}
	if settled {
		return domain.ErrAlreadySettled
	}
	return domain.ErrRoundNotFound
}

// ListSettledBefore returns rounds settled strictly before the cutoff.
func (s *RoundStore) ListSettledBefore(ctx context.Context, cutoff time.Time) ([]domain.Round, error) {
	const query = `
		SELECT id, asset, open_price, close_price, close_time,
		       total_up, total_down, settled, outcome, is_push,
		       net_pool, winning_total, created_at, settled_at
		FROM rounds
		WHERE settled AND settled_at < $1
		ORDER BY settled_at`

	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("postgres: list settled rounds: %w", err)
	}
	defer rows.Close()

	var out []domain.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan settled round: %w", err)
		}
		out = append(out, round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list settled rounds rows: %w", err)
	}
	return out, nil
}

// Delete removes a single round.
func (s *RoundStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM rounds WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: delete round %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoundNotFound
	}
	return nil
}

// scanRound scans a single round row into a domain.Round.
func scanRound(row pgx.Row) (domain.Round, error) {
	var r domain.Round
	var outcome string
	err := row.Scan(
		&r.ID, &r.Asset, &r.OpenPrice, &r.ClosePrice, &r.CloseTime,
		&r.TotalUp, &r.TotalDown, &r.Settled, &outcome, &r.IsPush,
		&r.NetPool, &r.WinningTotal, &r.CreatedAt, &r.SettledAt,
	)
	if err != nil {
		return domain.Round{}, err
	}
	r.Outcome = domain.Outcome(outcome)
	return r, nil
}

// Compile-time interface check.
var _ domain.RoundStore = (*RoundStore)(nil)
