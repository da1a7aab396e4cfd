package papertrader

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantcore/analytics-core/internal/core/types"
)

// Store persists Portfolio state transactionally, one writer per portfolio
// at a time, with commit/rollback/panic-recovery discipline around every
// mutation.
type Store struct {
	db *sql.DB
	log zerolog.Logger

	locksMu sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore builds a Store over an already-open *sql.DB (typically a
// modernc.org/sqlite connection opened with durability-oriented pragmas).
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db: db,
		log: log.With().Str("component", "papertrader_store").Logger(),
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) lockFor(portfolioID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[portfolioID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[portfolioID] = l
	}
	return l
}

// Init creates the portfolio/position/trade/equity tables if absent.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS portfolios (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	initial_cash REAL NOT NULL,
	cash REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS positions (
	portfolio_id TEXT NOT NULL,
	ticker TEXT NOT NULL,
	qty REAL NOT NULL,
	avg_cost REAL NOT NULL,
	pyramid_level INTEGER NOT NULL,
	PRIMARY KEY (portfolio_id, ticker)
);
CREATE TABLE IF NOT EXISTS trades (
	portfolio_id TEXT NOT NULL,
	payload TEXT NOT NULL,
	entry_time DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS equity_points (
	portfolio_id TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	equity REAL NOT NULL
);
`)
	return err
}

// Load reads a portfolio and all of its positions/trades/equity points.
func (s *Store) Load(ctx context.Context, portfolioID string) (types.Portfolio, error) {
	var p types.Portfolio
	p.Positions = make(map[types.Ticker]types.Position)

	row := s.db.QueryRowContext(ctx, `SELECT id, name, initial_cash, cash FROM portfolios WHERE id = ?`, portfolioID)
	if err := row.Scan(&p.ID, &p.Name, &p.InitialCash, &p.Cash); err != nil {
		return p, fmt.Errorf("papertrader: load portfolio %s: %w", portfolioID, err)
	}

	posRows, err := s.db.QueryContext(ctx, `SELECT ticker, qty, avg_cost, pyramid_level FROM positions WHERE portfolio_id = ?`, portfolioID)
	if err != nil {
		return p, err
	}
	defer posRows.Close()
	for posRows.Next() {
		var pos types.Position
		var ticker string
		if err := posRows.Scan(&ticker, &pos.Qty, &pos.AvgCost, &pos.PyramidLevel); err != nil {
			return p, err
		}
		pos.PortfolioID = portfolioID
		pos.Ticker = types.Ticker(ticker)
		p.Positions[pos.Ticker] = pos
	}

	tradeRows, err := s.db.QueryContext(ctx, `SELECT payload FROM trades WHERE portfolio_id = ? ORDER BY entry_time`, portfolioID)
	if err != nil {
		return p, err
	}
	defer tradeRows.Close()
	for tradeRows.Next() {
		var payload string
		if err := tradeRows.Scan(&payload); err != nil {
			return p, err
		}
		var t types.Trade
		if err := json.Unmarshal([]byte(payload), &t); err != nil {
			return p, err
		}
		p.TradeLog = append(p.TradeLog, t)
	}

	eqRows, err := s.db.QueryContext(ctx, `SELECT timestamp, equity FROM equity_points WHERE portfolio_id = ? ORDER BY timestamp`, portfolioID)
	if err != nil {
		return p, err
	}
	defer eqRows.Close()
	for eqRows.Next() {
		var ep types.EquityPoint
		if err := eqRows.Scan(&ep.Timestamp, &ep.Equity); err != nil {
			return p, err
		}
		p.Equity = append(p.Equity, ep)
	}

	return p, nil
}

// SaveRebalance persists a post-rebalance Portfolio (cash, positions, and
// any newly appended trades/equity points) as one all-or-nothing
// transaction. A crash mid-write leaves the portfolio at
// its pre-rebalance row state since the transaction never commits.
func (s *Store) SaveRebalance(ctx context.Context, portfolio types.Portfolio, newTrades []types.Trade, newEquity []types.EquityPoint) error {
	lock := s.lockFor(portfolio.ID)
	lock.Lock()
	defer lock.Unlock()
	return s.saveRebalanceLocked(ctx, portfolio, newTrades, newEquity)
}

// saveRebalanceLocked is SaveRebalance's body without the lock acquisition,
// for callers that already hold the per-portfolio lock across a larger
// read-modify-write sequence (Rebalance).
func (s *Store) saveRebalanceLocked(ctx context.Context, portfolio types.Portfolio, newTrades []types.Trade, newEquity []types.EquityPoint) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("papertrader: begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("papertrader: panic during rebalance persist: %v", p)
			return
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO portfolios (id, name, initial_cash, cash) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET cash = excluded.cash`,
		portfolio.ID, portfolio.Name, portfolio.InitialCash, portfolio.Cash); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM positions WHERE portfolio_id = ?`, portfolio.ID); err != nil {
		return err
	}
	for _, pos := range portfolio.Positions {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO positions (portfolio_id, ticker, qty, avg_cost, pyramid_level) VALUES (?, ?, ?, ?, ?)`,
			portfolio.ID, string(pos.Ticker), pos.Qty, pos.AvgCost, pos.PyramidLevel); err != nil {
			return err
		}
	}

	for _, t := range newTrades {
		payload, marshalErr := json.Marshal(t)
		if marshalErr != nil {
			err = marshalErr
			return err
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO trades (portfolio_id, payload, entry_time) VALUES (?, ?, ?)`,
			portfolio.ID, string(payload), t.EntryTime); err != nil {
			return err
		}
	}

	for _, ep := range newEquity {
		if _, err = tx.ExecContext(ctx, `INSERT INTO equity_points (portfolio_id, timestamp, equity) VALUES (?, ?, ?)`,
			portfolio.ID, ep.Timestamp, ep.Equity); err != nil {
			return err
		}
	}

	return nil
}

// Rebalance is the single entry point that loads a portfolio, builds a
// plan, executes it, and persists the result atomically and serialized per
// portfolio. The per-portfolio lock is held across the whole
// load/plan/apply/save sequence, not just its endpoints, so two concurrent
// Rebalance calls for the same portfolio run one after the other rather
// than both reading the same stale state and racing to write. The lock is a
// sync.Mutex, so waiting calls are not guaranteed to run in arrival order.
func (s *Store) Rebalance(ctx context.Context, portfolioID string, candidates []ScoredCandidate, livePrices map[types.Ticker]float64, classOf func(types.Ticker) InstrumentClass, cfg RebalanceConfig, now time.Time) (types.Portfolio, types.RebalancePlan, error) {
	lock := s.lockFor(portfolioID)
	lock.Lock()
	defer lock.Unlock()

	portfolio, err := s.Load(ctx, portfolioID)
	if err != nil {
		return portfolio, types.RebalancePlan{}, err
	}

	plan := BuildRebalancePlan(portfolio, candidates, livePrices, cfg)
	tradesBefore := len(portfolio.TradeLog)
	equityBefore := len(portfolio.Equity)

	updated, err := ApplyPlan(portfolio, plan, livePrices, classOf, now)
	if err != nil {
		return updated, plan, err
	}

	newTrades := updated.TradeLog[tradesBefore:]
	newEquity := updated.Equity[equityBefore:]
	if err := s.saveRebalanceLocked(ctx, updated, newTrades, newEquity); err != nil {
		return updated, plan, err
	}
	return updated, plan, nil
}
