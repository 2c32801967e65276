package recorder

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"TokenSentinel/internal/logger"
	"TokenSentinel/internal/model"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists signal history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create db dir")
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// WAL so the API can read while ticks write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	logger.Component("recorder").Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			tick_id     TEXT,
			token_id    TEXT NOT NULL,
			symbol      TEXT,
			price       REAL,
			macd        REAL,
			signal_line REAL,
			histogram   REAL,
			signal      TEXT NOT NULL,
			relation    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_ts ON signal_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_token ON signal_events(token_id)`,

		`CREATE TABLE IF NOT EXISTS tick_summaries (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			tick_id     TEXT NOT NULL,
			network     TEXT,
			duration_ms INTEGER,
			tokens      INTEGER,
			updated     INTEGER,
			unavailable INTEGER,
			invalid     INTEGER,
			buys        INTEGER,
			sells       INTEGER,
			interrupted INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tick_ts ON tick_summaries(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return errors.Wrapf(err, "exec %q", s[:40])
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(evt *model.SignalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := evt.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO signal_events
		(timestamp, tick_id, token_id, symbol, price, macd, signal_line, histogram, signal, relation)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		at.UnixMilli(), evt.TickID, evt.TokenID, evt.Symbol, evt.Price,
		evt.MACD, evt.SignalLine, evt.Histogram, string(evt.Signal), evt.Relation.String(),
	)
	return errors.Wrap(err, "insert signal event")
}

func (r *SQLiteRecorder) RecordTick(sum *model.TickSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	interrupted := 0
	if sum.Interrupted {
		interrupted = 1
	}
	_, err := r.db.Exec(`INSERT INTO tick_summaries
		(timestamp, tick_id, network, duration_ms, tokens, updated, unavailable, invalid, buys, sells, interrupted)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		sum.StartedAt.UnixMilli(), sum.TickID, sum.Network.String(), sum.Duration.Milliseconds(),
		sum.Tokens, sum.Updated, sum.Unavailable, sum.Invalid, sum.Buys, sum.Sells, interrupted,
	)
	return errors.Wrap(err, "insert tick summary")
}

func (r *SQLiteRecorder) RecentSignals(limit int) ([]model.SignalEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, tick_id, token_id, symbol, price, macd, signal_line, histogram, signal, relation
		FROM signal_events ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query signal events")
	}
	defer rows.Close()

	var out []model.SignalEvent
	for rows.Next() {
		var (
			evt      model.SignalEvent
			ts       int64
			signal   string
			relation string
		)
		if err := rows.Scan(&ts, &evt.TickID, &evt.TokenID, &evt.Symbol, &evt.Price,
			&evt.MACD, &evt.SignalLine, &evt.Histogram, &signal, &relation); err != nil {
			return nil, errors.Wrap(err, "scan signal event")
		}
		evt.At = time.UnixMilli(ts)
		evt.Signal = model.Signal(signal)
		evt.Relation = parseRelation(relation)
		evt.HasPriorSignal = true
		out = append(out, evt)
	}
	return out, errors.Wrap(rows.Err(), "iterate signal events")
}

func (r *SQLiteRecorder) Close() error {
	logger.Component("recorder").Info("closing sqlite recorder")
	return r.db.Close()
}

func parseRelation(s string) model.Relationship {
	switch s {
	case model.RelationBelow.String():
		return model.RelationBelow
	case model.RelationEqual.String():
		return model.RelationEqual
	case model.RelationAbove.String():
		return model.RelationAbove
	default:
		return model.RelationUnknown
	}
}
