package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crossbook/paperbot/internal/domain"
)

// TradeArchive implements domain.TradeArchiveStore using PostgreSQL.
type TradeArchive struct {
	pool *pgxpool.Pool
}

// NewTradeArchive creates a TradeArchive backed by the given connection pool.
func NewTradeArchive(pool *pgxpool.Pool) *TradeArchive {
	return &TradeArchive{pool: pool}
}

const tradeSelectCols = `id, timestamp, market, coin, timeframe, platform, side,
	size, entry_price, exit_price, pnl, status, strategy, confidence, notes`

func scanTradeRows(rows pgx.Rows) ([]domain.TradeRecord, error) {
	var trades []domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		var side, status string
		if err := rows.Scan(
			&t.ID, &t.Timestamp, &t.Market, &t.Coin, &t.Timeframe,
			&t.Platform, &side, &t.Size, &t.EntryPrice,
			&t.ExitPrice, &t.PnL, &status, &t.Strategy,
			&t.Confidence, &t.Notes,
		); err != nil {
			return nil, err
		}
		t.Side = domain.Side(side)
		t.Status = domain.TradeStatus(status)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// InsertBatch archives trade records using a pgx Batch. Re-archiving the same
// record ID is a no-op via ON CONFLICT DO NOTHING, so the archiver can be run
// repeatedly over overlapping windows.
func (s *TradeArchive) InsertBatch(ctx context.Context, trades []domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO paper_trades (
			id, timestamp, market, coin, timeframe, platform, side,
			size, entry_price, exit_price, pnl, status, strategy,
			confidence, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14, $15
		) ON CONFLICT (id) DO NOTHING`

	for _, t := range trades {
		batch.Queue(query,
			t.ID, t.Timestamp, t.Market, t.Coin, t.Timeframe,
			t.Platform, string(t.Side), t.Size, t.EntryPrice,
			t.ExitPrice, t.PnL, string(t.Status), t.Strategy,
			t.Confidence, t.Notes,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range trades {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: archive trade batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListBefore returns archived trades with a timestamp strictly before cutoff,
// oldest first.
func (s *TradeArchive) ListBefore(ctx context.Context, cutoff time.Time) ([]domain.TradeRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeSelectCols+` FROM paper_trades WHERE timestamp < $1 ORDER BY timestamp`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before %s: %w", cutoff, err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades: %w", err)
	}
	return trades, nil
}

// ListRecent returns the newest archived trades, newest first.
func (s *TradeArchive) ListRecent(ctx context.Context, limit int) ([]domain.TradeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeSelectCols+` FROM paper_trades ORDER BY timestamp DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent trades: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades: %w", err)
	}
	return trades, nil
}
