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

// BetStore implements domain.BetStore using PostgreSQL. The (round_id,
// participant) primary key enforces one bet per participant per round, and
// MarkClaimed uses a conditional UPDATE so the claimed flag flips once.
type BetStore struct {
	pool *pgxpool.Pool
}

// NewBetStore creates a BetStore backed by the given connection pool.
func NewBetStore(pool *pgxpool.Pool) *BetStore {
	return &BetStore{pool: pool}
}

// Create inserts a new bet, failing with ErrBetExists on a duplicate key.
func (s *BetStore) Create(ctx context.Context, b domain.Bet) error {
	const query = `
		INSERT INTO bets (round_id, participant, direction, wager, placed_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query,
		b.RoundID, b.Participant, string(b.Direction), b.Wager, b.PlacedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrBetExists
		}
		return fmt.Errorf("postgres: create bet %s/%s: %w", b.RoundID, b.Participant, err)
	}
	return nil
}

// Get returns the bet or ErrBetNotFound.
func (s *BetStore) Get(ctx context.Context, roundID, participant string) (domain.Bet, error) {
	const query = `
		SELECT round_id, participant, direction, wager, claimed, placed_at, claimed_at
		FROM bets WHERE round_id = $1 AND participant = $2`

	bet, err := scanBet(s.pool.QueryRow(ctx, query, roundID, participant))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Bet{}, domain.ErrBetNotFound
		}
		return domain.Bet{}, fmt.Errorf("postgres: get bet %s/%s: %w", roundID, participant, err)
	}
	return bet, nil
}

// MarkClaimed flips the claimed flag exactly once.
func (s *BetStore) MarkClaimed(ctx context.Context, roundID, participant string, at time.Time) error {
	const query = `
		UPDATE bets SET claimed = TRUE, claimed_at = $3
		WHERE round_id = $1 AND participant = $2 AND NOT claimed`

	tag, err := s.pool.Exec(ctx, query, roundID, participant, at)
	if err != nil {
		return fmt.Errorf("postgres: mark bet claimed %s/%s: %w", roundID, participant, err)
	}
	if tag.RowsAffected() == 0 {
		var claimed bool
		err := s.pool.QueryRow(ctx,
			"SELECT claimed FROM bets WHERE round_id = $1 AND participant = $2",
			roundID, participant,
		).Scan(&claimed)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrBetNotFound
		}
		if err != nil {
			return fmt.Errorf("postgres: inspect bet %s/%s: %w", roundID, participant, err)
		}
		if claimed {
			return domain.ErrAlreadyClaimed
		}
		return domain.ErrBetNotFound
	}
	return nil
}

// ListByRound returns all bets in a round ordered by placement time.
func (s *BetStore) ListByRound(ctx context.Context, roundID string, opts domain.ListOpts) ([]domain.Bet, error) {
	query := `
		SELECT round_id, participant, direction, wager, claimed, placed_at, claimed_at
		FROM bets WHERE round_id = $1
		ORDER BY placed_at`
	args := []any{roundID}

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, opts.Offset)
	}

	return s.queryBets(ctx, query, args...)
}

// DeleteByRound removes every bet of a round.
func (s *BetStore) DeleteByRound(ctx context.Context, roundID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM bets WHERE round_id = $1", roundID)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete bets for round %s: %w", roundID, err)
	}
	return tag.RowsAffected(), nil
}

func (s *BetStore) queryBets(ctx context.Context, query string, args ...any) ([]domain.Bet, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query bets: %w", err)
	}
	defer rows.Close()

	var out []domain.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan bet: %w", err)
		}
		out = append(out, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: query bets rows: %w", err)
	}
	return out, nil
}

// scanBet scans a single bet row into a domain.Bet.
func scanBet(row pgx.Row) (domain.Bet, error) {
	var b domain.Bet
	var direction string
	err := row.Scan(
		&b.RoundID, &b.Participant, &direction, &b.Wager,
		&b.Claimed, &b.PlacedAt, &b.ClaimedAt,
	)
	if err != nil {
		return domain.Bet{}, err
	}
	b.Direction = domain.Direction(direction)
	return b, nil
}

// Compile-time interface check.
var _ domain.BetStore = (*BetStore)(nil)
