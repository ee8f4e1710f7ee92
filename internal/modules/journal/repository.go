package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/internal/modules/rebalancing"
)

// Repository handles journal database operations
// Database: journal.db (runs, signals, orders, notices tables)
type Repository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a new journal repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "journal").Logger(),
	}
}

// StartRun inserts a new run and returns its ID
func (r *Repository) StartRun(ctx context.Context, kind RunKind, class domain.AssetClass) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO runs (id, kind, asset_class, started_at) VALUES (?, ?, ?, ?)",
		id, string(kind), class.String(), r.now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start %s run: %w", kind, err)
	}
	return id, nil
}

// FinishRun closes a run. Buying power is only known for rebalancing runs.
func (r *Repository) FinishRun(ctx context.Context, runID string, report *rebalancing.Report, runErr error) error {
	var starting, ending, errText sql.NullString
	if report != nil {
		starting = sql.NullString{String: report.StartingBuyingPower.String(), Valid: true}
		ending = sql.NullString{String: report.EndingBuyingPower.String(), Valid: true}
	}
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, starting_buying_power = ?, ending_buying_power = ?, error = ?
		 WHERE id = ?`,
		r.now().Unix(), starting, ending, errText, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// InsertSignal stores a computed signal under a run
func (r *Repository) InsertSignal(ctx context.Context, runID string, sig domain.Signal) error {
	features, err := msgpack.Marshal(sig.Row)
	if err != nil {
		return fmt.Errorf("failed to encode features for %s: %w", sig.Ticker, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO signals (run_id, ticker, asset_class, score, expected_fall, close, previous_close, bars, complete, features, computed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, sig.Ticker, sig.AssetClass.String(), sig.Score, boolToInt(sig.ExpectedFall),
		sig.Close, sig.PreviousClose, sig.Bars, boolToInt(sig.Row.Complete), features, sig.ComputedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert signal for %s: %w", sig.Ticker, err)
	}
	return nil
}

// InsertOrder stores an order attempt under a run
func (r *Repository) InsertOrder(ctx context.Context, runID string, step rebalancing.PlanStep) error {
	var errText sql.NullString
	if step.Err != nil {
		errText = sql.NullString{String: step.Err.Error(), Valid: true}
	}
	created := step.Timestamp
	if created.IsZero() {
		created = r.now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (run_id, action, ticker, name, purpose, amount, price, quantity, status, broker_order_id, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, string(step.Action), step.Ticker, step.Name, string(step.Purpose),
		step.Amount.String(), step.Price.String(), step.Quantity.String(), string(step.Status),
		nullIfEmpty(step.OrderID), errText, created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order for %s: %w", step.Ticker, err)
	}
	return nil
}

// InsertNotice stores a notice under a run
func (r *Repository) InsertNotice(ctx context.Context, runID string, n rebalancing.Notice) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO notices (run_id, kind, ticker, message, created_at) VALUES (?, ?, ?, ?, ?)",
		runID, string(n.Kind), n.Ticker, n.Message, r.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notice for %s: %w", n.Ticker, err)
	}
	return nil
}

// ListRuns returns the most recent runs first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, asset_class, started_at, finished_at, starting_buying_power, ending_buying_power, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var kind, class string
		var startedAt int64
		var finishedAt sql.NullInt64
		var starting, ending, errText sql.NullString

		if err := rows.Scan(&run.ID, &kind, &class, &startedAt, &finishedAt, &starting, &ending, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Kind = RunKind(kind)
		run.AssetClass, _ = domain.ParseAssetClass(class)
		run.StartedAt = time.Unix(startedAt, 0).UTC()
		if finishedAt.Valid {
			t := time.Unix(finishedAt.Int64, 0).UTC()
			run.FinishedAt = &t
		}
		run.StartingBuyingPower = parseDecimalPtr(starting)
		run.EndingBuyingPower = parseDecimalPtr(ending)
		run.Error = errText.String

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// ListSignals returns the latest signals for a ticker, or for all tickers when ticker is empty
func (r *Repository) ListSignals(ctx context.Context, ticker string, limit int) ([]SignalRecord, error) {
	query := `SELECT id, run_id, ticker, asset_class, score, expected_fall, close, previous_close, bars, features, computed_at
		FROM signals`
	args := []interface{}{}
	if ticker != "" {
		query += " WHERE ticker = ?"
		args = append(args, ticker)
	}
	query += " ORDER BY computed_at DESC, id DESC LIMIT ?"
	args = append(args, normalizeLimit(limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []SignalRecord
	for rows.Next() {
		var sig SignalRecord
		var class string
		var expectedFall int
		var features []byte
		var computedAt int64

		if err := rows.Scan(&sig.ID, &sig.RunID, &sig.Ticker, &class, &sig.Score, &expectedFall,
			&sig.Close, &sig.PreviousClose, &sig.Bars, &features, &computedAt); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		if err := msgpack.Unmarshal(features, &sig.Row); err != nil {
			return nil, fmt.Errorf("failed to decode features of signal %d: %w", sig.ID, err)
		}

		sig.AssetClass, _ = domain.ParseAssetClass(class)
		sig.ExpectedFall = expectedFall != 0
		sig.ComputedAt = time.Unix(computedAt, 0).UTC()
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}
	return signals, nil
}

// ListOrders returns the order attempts of a run in submission order
func (r *Repository) ListOrders(ctx context.Context, runID string) ([]OrderRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, run_id, action, ticker, name, purpose, amount, price, quantity, status, broker_order_id, error, created_at
		 FROM orders WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []OrderRecord
	for rows.Next() {
		var o OrderRecord
		var action, amount, price, quantity string
		var brokerID, errText sql.NullString
		var createdAt int64

		if err := rows.Scan(&o.ID, &o.RunID, &action, &o.Ticker, &o.Name, &o.Purpose,
			&amount, &price, &quantity, &o.Status, &brokerID, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		o.Action = domain.Side(action)
		o.Amount, _ = decimal.NewFromString(amount)
		o.Price, _ = decimal.NewFromString(price)
		o.Quantity, _ = decimal.NewFromString(quantity)
		o.BrokerOrderID = brokerID.String
		o.Error = errText.String
		o.CreatedAt = time.Unix(createdAt, 0).UTC()
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// ListNotices returns the notices of a run in the order they were raised
func (r *Repository) ListNotices(ctx context.Context, runID string) ([]NoticeRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, run_id, kind, ticker, message, created_at FROM notices WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notices: %w", err)
	}
	defer rows.Close()

	var notices []NoticeRecord
	for rows.Next() {
		var n NoticeRecord
		var createdAt int64
		if err := rows.Scan(&n.ID, &n.RunID, &n.Kind, &n.Ticker, &n.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan notice: %w", err)
		}
		n.CreatedAt = time.Unix(createdAt, 0).UTC()
		notices = append(notices, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notices: %w", err)
	}
	return notices, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseDecimalPtr(s sql.NullString) *decimal.Decimal {
	if !s.Valid {
		return nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
