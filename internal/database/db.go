package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Alias1177/zonescan/internal/config"
	"github.com/Alias1177/zonescan/models"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// New opens the PostgreSQL connection and creates the tables if needed
func New(ctx context.Context, params config.DBConfig) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.Name, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		direction TEXT NOT NULL,
		zone_lower DOUBLE PRECISION NOT NULL,
		zone_upper DOUBLE PRECISION NOT NULL,
		break_time TIMESTAMPTZ NOT NULL,
		detected_at TIMESTAMPTZ NOT NULL,
		entry_price DOUBLE PRECISION NOT NULL,
		stop_loss DOUBLE PRECISION NOT NULL,
		take_profit DOUBLE PRECISION NOT NULL,
		atr DOUBLE PRECISION NOT NULL,
		quality_score DOUBLE PRECISION NOT NULL,
		tier TEXT NOT NULL,
		needs_live_execution BOOLEAN NOT NULL,
		finalized BOOLEAN NOT NULL,
		details JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS signals_symbol_detected_idx ON signals (symbol, detected_at DESC)`,
	`CREATE TABLE IF NOT EXISTS rejections (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		stage TEXT NOT NULL,
		gate TEXT,
		reason TEXT NOT NULL,
		direction TEXT,
		detected_at TIMESTAMPTZ NOT NULL
	)`,
}

// execer is the slice of *sql.DB the store writes through
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store persists pipeline records. It satisfies scanner.Sink.
type Store struct {
	db     execer
	logger zerolog.Logger
}

func NewStore(db *DB) *Store {
	return newStore(db.DB)
}

func newStore(db execer) *Store {
	return &Store{
		db:     db,
		logger: log.With().Str("component", "signal_store").Logger(),
	}
}

const insertSignal = `
	INSERT INTO signals (
		id, symbol, timeframe, direction, zone_lower, zone_upper, break_time, detected_at,
		entry_price, stop_loss, take_profit, atr, quality_score, tier,
		needs_live_execution, finalized, details
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (id) DO NOTHING`

func (s *Store) EmitAccepted(ctx context.Context, sig *models.AcceptedSignal) error {
	details, err := json.Marshal(struct {
		HTF     models.HTFContext    `json:"htf"`
		Context models.ScoreResult   `json:"context"`
		Stages  models.StageScores   `json:"stages"`
		Zone    models.ZoneCandidate `json:"zone"`
	}{sig.HTF, sig.Context, sig.Quality.Stages, sig.Zone.ZoneCandidate})
	if err != nil {
		return fmt.Errorf("encoding signal details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, insertSignal,
		sig.ID, sig.Symbol, sig.Timeframe, string(sig.Direction), sig.Zone.Lower, sig.Zone.Upper,
		sig.BreakTime, sig.DetectedAt, sig.EntryPrice, sig.StopLoss, sig.TakeProfit, sig.ATR,
		sig.Quality.FinalScore, string(sig.Quality.Tier), sig.NeedsLiveExecution, sig.Finalized, details,
	)
	if err != nil {
		return fmt.Errorf("inserting signal %s: %w", sig.ID, err)
	}

	s.logger.Debug().Str("id", sig.ID).Str("symbol", sig.Symbol).Msg("Signal stored")
	return nil
}

const insertRejection = `
	INSERT INTO rejections (id, symbol, timeframe, stage, gate, reason, direction, detected_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING`

func (s *Store) EmitRejection(ctx context.Context, rej *models.Rejection) error {
	_, err := s.db.ExecContext(ctx, insertRejection,
		rej.ID, rej.Symbol, rej.Timeframe, string(rej.Stage), nullString(rej.Gate), rej.Reason,
		nullString(string(rej.Direction)), rej.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting rejection %s: %w", rej.ID, err)
	}
	return nil
}

const updateExecution = `
	UPDATE signals
	SET entry_price = $2, take_profit = $3, needs_live_execution = FALSE, finalized = TRUE
	WHERE id = $1`

// SaveExecution stores the SL/TP finalized against a live fill. It pairs with
// signal.FinalizeWithExecution and is called by the order executor, not by
// the scan cycle.
func (s *Store) SaveExecution(ctx context.Context, sig *models.AcceptedSignal) error {
	res, err := s.db.ExecContext(ctx, updateExecution, sig.ID, sig.EntryPrice, sig.TakeProfit)
	if err != nil {
		return fmt.Errorf("updating signal %s: %w", sig.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating signal %s: %w", sig.ID, sql.ErrNoRows)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
